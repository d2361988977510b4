package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"fareflow/internal/app"
	"fareflow/internal/config"
	"fareflow/internal/handler"
	"fareflow/internal/rabbitmq"
	internalRedis "fareflow/internal/redis"
	"fareflow/internal/repository/postgres"
	"fareflow/internal/service"
)

const tapPrefetch = 64

// components holds everything main starts and stops.
type components struct {
	server      *http.Server
	fares       *service.FareService
	accounts    *service.AccountService
	settlements *service.SettlementService
	taps        *handler.TapHandler
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// New Relic first so the database and Redis clients can be instrumented.
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
			nrApp = nil
		} else {
			log.Printf("New Relic enabled: app=%s", cfg.NewRelic.AppName)
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	publisher, connected := app.NewPublisher(cfg.RabbitMQ)
	defer publisher.Close()

	c := wire(db, redisClient, publisher, connected, nrApp, cfg)

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	c.settlements.Start(runCtx)

	scheduler := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	if err := c.settlements.ScheduleSweep(scheduler); err != nil {
		log.Fatalf("failed to schedule settlement sweep: %v", err)
	}
	scheduler.Start()

	var consumer *rabbitmq.Consumer
	if connected {
		consumer, err = rabbitmq.NewConsumer(cfg.RabbitMQ.URL, tapPrefetch)
		if err == nil {
			err = consumer.Consume(runCtx, cfg.RabbitMQ.TapExchange, cfg.RabbitMQ.TapQueue, handler.TapBindingKey, c.taps.Handle)
		}
		if err != nil {
			log.Printf("[TAP] consumer unavailable, taps accepted over HTTP only: %v", err)
		} else {
			log.Printf("[TAP] consuming %s on %s", handler.TapBindingKey, cfg.RabbitMQ.TapExchange)
		}
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := c.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	// Stop intake first, then drain: taps, follow-ups, workers.
	stop()
	if consumer != nil {
		consumer.Close()
	}
	c.fares.Wait()
	c.accounts.Wait()
	<-scheduler.Stop().Done()
	c.settlements.Wait()

	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	log.Println("Server exited")
}

// wire builds stores, repositories, services and handlers.
func wire(
	db *sql.DB,
	redisClient *redis.Client,
	publisher rabbitmq.Publisher,
	brokerConnected bool,
	nrApp *newrelic.Application,
	cfg *config.Config,
) *components {
	tripStore := internalRedis.NewTripStore(redisClient)
	locationStore := internalRedis.NewLocationStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)
	alertStore := internalRedis.NewAlertStore(redisClient)

	accountRepo := postgres.NewAccountRepository(db)
	busRepo := postgres.NewBusRepository(db)
	settlementRepo := postgres.NewSettlementRepository(db)

	var dispatcher service.Dispatcher = service.LogDispatcher{}
	if brokerConnected {
		dispatcher = service.NewAMQPDispatcher(publisher, cfg.RabbitMQ.NotificationExchange)
	}

	receiptService := service.NewReceiptService(cfg.Notification.Currency)
	notificationService := service.NewNotificationService(dispatcher, alertStore, receiptService, cfg.Notification)
	settlementService := service.NewSettlementService(settlementRepo, tripStore, notificationService, receiptService, nrApp, cfg.Settlement)
	fareService := service.NewFareService(
		accountRepo, busRepo, cacheStore,
		tripStore, locationStore, lockStore,
		settlementService, notificationService,
		cfg.Fare, cfg.Notification.Currency,
	)
	accountService := service.NewAccountService(accountRepo, notificationService)
	busService := service.NewBusService(busRepo, cacheStore, locationStore)

	router := app.NewRouter(app.RouterDeps{
		FareHandler:       handler.NewFareHandler(fareService),
		AccountHandler:    handler.NewAccountHandler(accountService),
		BusHandler:        handler.NewBusHandler(busService),
		SettlementHandler: handler.NewSettlementHandler(settlementService),
		RedisClient:       redisClient,
		NewRelicApp:       nrApp,
	})

	return &components{
		server: &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      app.WithCORS(router),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		fares:       fareService,
		accounts:    accountService,
		settlements: settlementService,
		taps:        handler.NewTapHandler(fareService, publisher, cfg.RabbitMQ.TapExchange),
	}
}
