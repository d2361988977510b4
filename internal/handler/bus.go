package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fareflow/internal/domain"
	"fareflow/internal/service"
)

// BusHandler handles HTTP requests for buses.
type BusHandler struct {
	busService *service.BusService
}

// NewBusHandler creates a new BusHandler.
func NewBusHandler(busService *service.BusService) *BusHandler {
	return &BusHandler{busService: busService}
}

// UpdateLocationRequest is the HTTP request body for a bus location fix.
type UpdateLocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// UpdateStatusRequest is the HTTP request body for a service status change.
type UpdateStatusRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// EarningsResponse is the HTTP response for bus earnings.
type EarningsResponse struct {
	PlateNumber string                `json:"plateNumber"`
	Weekly      []domain.DayEarning   `json:"weekly"`
	Monthly     []domain.MonthEarning `json:"monthly"`
	Total       int64                 `json:"total"`
}

// UpdateLocation handles PUT /v1/buses/:plate/location
func (h *BusHandler) UpdateLocation(c *gin.Context) {
	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "latitude and longitude are required"})
		return
	}

	err := h.busService.UpdateLocation(c.Request.Context(), service.UpdateLocationRequest{
		PlateNumber: c.Param("plate"),
		Lat:         *req.Latitude,
		Lng:         *req.Longitude,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateStatus handles PUT /v1/buses/:plate/status
func (h *BusHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "active is required"})
		return
	}

	if err := h.busService.SetStatus(c.Request.Context(), c.Param("plate"), *req.Active); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetEarnings handles GET /v1/buses/:plate/earnings
func (h *BusHandler) GetEarnings(c *gin.Context) {
	earnings, err := h.busService.GetEarnings(c.Request.Context(), c.Param("plate"))
	if err != nil {
		respondError(c, err)
		return
	}

	weekly := earnings.Weekly
	if weekly == nil {
		weekly = []domain.DayEarning{}
	}
	monthly := earnings.Monthly
	if monthly == nil {
		monthly = []domain.MonthEarning{}
	}

	respondJSON(c, http.StatusOK, EarningsResponse{
		PlateNumber: earnings.PlateNumber,
		Weekly:      weekly,
		Monthly:     monthly,
		Total:       earnings.Total,
	})
}
