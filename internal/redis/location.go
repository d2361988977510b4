package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"fareflow/internal/domain"
)

const busLocationKey = "buses:locations"

// LocationStore handles bus location operations in Redis.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// UpdateLocation stores a bus's location using GEOADD.
func (s *LocationStore) UpdateLocation(ctx context.Context, plateNumber string, lat, lng float64) error {
	return s.client.GeoAdd(ctx, busLocationKey, &redis.GeoLocation{
		Name:      plateNumber,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// GetLocation returns the last known fix of a bus, or nil if the bus has none.
func (s *LocationStore) GetLocation(ctx context.Context, plateNumber string) (*domain.Location, error) {
	positions, err := s.client.GeoPos(ctx, busLocationKey, plateNumber).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	if len(positions) == 0 || positions[0] == nil {
		return nil, nil
	}

	return &domain.Location{
		Latitude:  positions[0].Latitude,
		Longitude: positions[0].Longitude,
	}, nil
}

// RemoveLocation removes a bus's location from the geo index.
func (s *LocationStore) RemoveLocation(ctx context.Context, plateNumber string) error {
	return s.client.ZRem(ctx, busLocationKey, plateNumber).Err()
}
