package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fareflow/internal/domain"
	"fareflow/internal/service"
)

// SettlementHandler exposes the delivery state of queued charges.
type SettlementHandler struct {
	settlementService *service.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(settlementService *service.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlementService: settlementService}
}

// SettlementResponse is the HTTP response for a settlement lookup.
type SettlementResponse struct {
	ID             string                  `json:"id"`
	CardUID        string                  `json:"cardUID"`
	BusPlateNumber string                  `json:"busPlateNumber"`
	Kind           domain.SettlementKind   `json:"kind"`
	Amount         int64                   `json:"amount"`
	Shortfall      int64                   `json:"shortfall,omitempty"`
	DistanceKm     float64                 `json:"distanceKm,omitempty"`
	Status         domain.SettlementStatus `json:"status"`
	Attempts       int                     `json:"attempts"`
	LastError      string                  `json:"lastError,omitempty"`
	CreatedAt      time.Time               `json:"createdAt"`
	AppliedAt      *time.Time              `json:"appliedAt,omitempty"`
}

// GetSettlement handles GET /v1/settlements/:id
func (h *SettlementHandler) GetSettlement(c *gin.Context) {
	s, err := h.settlementService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := SettlementResponse{
		ID:             s.ID,
		CardUID:        s.CardUID,
		BusPlateNumber: s.BusPlateNumber,
		Kind:           s.Kind,
		Amount:         s.Amount,
		Shortfall:      s.Shortfall,
		DistanceKm:     s.DistanceKm,
		Status:         s.Status,
		Attempts:       s.Attempts,
		LastError:      s.LastError,
		CreatedAt:      s.CreatedAt,
	}
	if !s.AppliedAt.IsZero() {
		resp.AppliedAt = &s.AppliedAt
	}

	respondJSON(c, http.StatusOK, resp)
}
