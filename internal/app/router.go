package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"fareflow/internal/handler"
	"fareflow/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	FareHandler       *handler.FareHandler
	AccountHandler    *handler.AccountHandler
	BusHandler        *handler.BusHandler
	SettlementHandler *handler.SettlementHandler
	RedisClient       *redis.Client
	NewRelicApp       *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	if deps.RedisClient != nil {
		router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	{
		v1.POST("/fares", deps.FareHandler.ProcessFare)

		accounts := v1.Group("/accounts")
		{
			accounts.GET("/:cardUID/balance", deps.AccountHandler.GetBalance)
			accounts.POST("/:cardUID/funds", deps.AccountHandler.AddFunds)
		}

		buses := v1.Group("/buses")
		{
			buses.PUT("/:plate/location", deps.BusHandler.UpdateLocation)
			buses.PUT("/:plate/status", deps.BusHandler.UpdateStatus)
			buses.GET("/:plate/earnings", deps.BusHandler.GetEarnings)
		}

		v1.GET("/settlements/:id", deps.SettlementHandler.GetSettlement)
	}

	return router
}

// WithCORS allows the operator dashboard and top-up kiosks to call the API from a browser.
func WithCORS(h http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Idempotency-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	})(h)
}
