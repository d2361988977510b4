package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"fareflow/internal/domain"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// BusCacheTTL bounds how stale an activation or route change can be on the tap path.
const BusCacheTTL = 30 * time.Second

const busCachePrefix = "cache:bus:"

// CachedBus represents a cached bus entity.
type CachedBus struct {
	PlateNumber   string `json:"plate_number"`
	Active        bool   `json:"active"`
	RouteType     string `json:"route_type"`
	FareAmount    int64  `json:"fare_amount"`
	Departure     string `json:"departure"`
	Destination   string `json:"destination"`
	OperatorPhone string `json:"operator_phone"`
}

// GetBus retrieves a bus from cache. Returns nil on a cache miss.
func (s *CacheStore) GetBus(ctx context.Context, plateNumber string) (*domain.Bus, error) {
	data, err := s.client.Get(ctx, busCachePrefix+plateNumber).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var cached CachedBus
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}

	return &domain.Bus{
		PlateNumber: cached.PlateNumber,
		Active:      cached.Active,
		Route: domain.Route{
			Type:        domain.RouteType(cached.RouteType),
			FareAmount:  cached.FareAmount,
			Departure:   cached.Departure,
			Destination: cached.Destination,
		},
		OperatorPhone: cached.OperatorPhone,
	}, nil
}

// SetBus stores a bus in cache.
func (s *CacheStore) SetBus(ctx context.Context, bus *domain.Bus) error {
	data, err := json.Marshal(CachedBus{
		PlateNumber:   bus.PlateNumber,
		Active:        bus.Active,
		RouteType:     string(bus.Route.Type),
		FareAmount:    bus.Route.FareAmount,
		Departure:     bus.Route.Departure,
		Destination:   bus.Route.Destination,
		OperatorPhone: bus.OperatorPhone,
	})
	if err != nil {
		return err
	}

	return s.client.Set(ctx, busCachePrefix+bus.PlateNumber, data, BusCacheTTL).Err()
}

// InvalidateBus removes a bus from cache.
func (s *CacheStore) InvalidateBus(ctx context.Context, plateNumber string) error {
	return s.client.Del(ctx, busCachePrefix+plateNumber).Err()
}
