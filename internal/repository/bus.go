package repository

import (
	"context"

	"fareflow/internal/domain"
)

// BusRepository defines the persistence operations for buses.
type BusRepository interface {
	// GetByPlate retrieves a bus by plate number.
	GetByPlate(ctx context.Context, plateNumber string) (*domain.Bus, error)

	// SetActive switches a bus in or out of service.
	SetActive(ctx context.Context, plateNumber string, active bool) error

	// GetEarnings retrieves the earnings aggregates of a bus.
	GetEarnings(ctx context.Context, plateNumber string) (*domain.BusEarnings, error)
}
