package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fareflow/internal/repository"
	"fareflow/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrInvalidCardUID),
		errors.Is(err, service.ErrInvalidBusPlate),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidLocation):
		return http.StatusBadRequest

	case errors.Is(err, service.ErrTapInProgress),
		errors.Is(err, service.ErrTripStateConflict),
		errors.Is(err, service.ErrSettlementAlreadyApplied):
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}
