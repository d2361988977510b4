package redis

import (
	"context"
	"time"

	"fareflow/internal/domain"
)

// TripStoreInterface defines the interface for open trip records of a bus.
type TripStoreInterface interface {
	GetTrip(ctx context.Context, plateNumber, cardUID string) (*domain.TripState, error)
	StartTrip(ctx context.Context, plateNumber string, trip *domain.TripState) (bool, error)
	EndTrip(ctx context.Context, plateNumber, cardUID string) (bool, error)
	RestoreTrip(ctx context.Context, plateNumber string, trip *domain.TripState) error
	MarkSeen(ctx context.Context, plateNumber string, marker *domain.PassengerMarker) (bool, error)
}

// LocationStoreInterface defines the interface for bus location operations.
type LocationStoreInterface interface {
	UpdateLocation(ctx context.Context, plateNumber string, lat, lng float64) error
	GetLocation(ctx context.Context, plateNumber string) (*domain.Location, error)
	RemoveLocation(ctx context.Context, plateNumber string) error
}

// LockStoreInterface defines the interface for per-card trip locking.
type LockStoreInterface interface {
	AcquireTripLock(ctx context.Context, plateNumber, cardUID string, ttl time.Duration) (string, bool, error)
	ReleaseTripLock(ctx context.Context, plateNumber, cardUID, token string) error
}

// BusCacheInterface defines the interface for cached bus records.
type BusCacheInterface interface {
	GetBus(ctx context.Context, plateNumber string) (*domain.Bus, error)
	SetBus(ctx context.Context, bus *domain.Bus) error
	InvalidateBus(ctx context.Context, plateNumber string) error
}

// AlertStoreInterface defines the interface for operator alerts.
type AlertStoreInterface interface {
	PushAlert(ctx context.Context, plateNumber string, alert *domain.OperatorAlert) error
}

// Ensure concrete types implement interfaces.
var (
	_ TripStoreInterface     = (*TripStore)(nil)
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
	_ BusCacheInterface      = (*CacheStore)(nil)
	_ AlertStoreInterface    = (*AlertStore)(nil)
)
