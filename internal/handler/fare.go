package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fareflow/internal/domain"
	"fareflow/internal/service"
)

// FareHandler exposes the fare engine to callers that cannot use the bus channel.
type FareHandler struct {
	fareService *service.FareService
}

// NewFareHandler creates a new FareHandler.
func NewFareHandler(fareService *service.FareService) *FareHandler {
	return &FareHandler{fareService: fareService}
}

// FareRequest is the HTTP request body for a direct tap.
type FareRequest struct {
	CardUID        string `json:"cardUID" binding:"required"`
	BusPlateNumber string `json:"busPlateNumber" binding:"required"`
}

// ProcessFare handles POST /v1/fares
// Policy outcomes are 200 with the hardware code in the body; SERVER_ERROR is 500.
func (h *FareHandler) ProcessFare(c *gin.Context) {
	var req FareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cardUID and busPlateNumber are required"})
		return
	}

	resp, err := h.fareService.Handle(c.Request.Context(), domain.FareRequest{
		CardUID:        req.CardUID,
		BusPlateNumber: req.BusPlateNumber,
		Channel:        domain.ChannelDirect,
	}, nil)
	if err != nil {
		respondError(c, err)
		return
	}

	code := http.StatusOK
	if resp.HardwareCode == domain.CodeServerError {
		code = http.StatusInternalServerError
	}

	respondJSON(c, code, resp)
}
