package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"fareflow/internal/domain"
)

// TripStore keeps the open trips of each bus in a hash keyed by card UID.
type TripStore struct {
	client *redis.Client
}

// NewTripStore creates a new TripStore.
func NewTripStore(client *redis.Client) *TripStore {
	return &TripStore{client: client}
}

func passengersKey(plateNumber string) string {
	return fmt.Sprintf("bus:%s:passengers", plateNumber)
}

func seenKey(plateNumber string) string {
	return fmt.Sprintf("bus:%s:seen", plateNumber)
}

// ensureHash resets key to an empty mapping when it holds some other type.
// Writers outside this service have been seen storing a string there.
func (s *TripStore) ensureHash(ctx context.Context, key string) error {
	kind, err := s.client.Type(ctx, key).Result()
	if err != nil {
		return err
	}

	if kind == "none" || kind == "hash" {
		return nil
	}

	log.Printf("[TRIPSTORE] resetting %s: expected hash, found %s", key, kind)
	return s.client.Del(ctx, key).Err()
}

// GetTrip returns the open trip of a card on a bus, or nil if none is open.
func (s *TripStore) GetTrip(ctx context.Context, plateNumber, cardUID string) (*domain.TripState, error) {
	key := passengersKey(plateNumber)
	if err := s.ensureHash(ctx, key); err != nil {
		return nil, err
	}

	data, err := s.client.HGet(ctx, key, cardUID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var trip domain.TripState
	if err := json.Unmarshal(data, &trip); err != nil {
		// The record still exists, so the trip is open; it just has no usable start fix.
		log.Printf("[TRIPSTORE] unreadable trip for card %s on %s: %v", cardUID, plateNumber, err)
		return &domain.TripState{CardUID: cardUID}, nil
	}

	return &trip, nil
}

// StartTrip creates the trip record only if none exists.
// Returns false if another trip was already open.
func (s *TripStore) StartTrip(ctx context.Context, plateNumber string, trip *domain.TripState) (bool, error) {
	key := passengersKey(plateNumber)
	if err := s.ensureHash(ctx, key); err != nil {
		return false, err
	}

	data, err := json.Marshal(trip)
	if err != nil {
		return false, err
	}

	return s.client.HSetNX(ctx, key, trip.CardUID, data).Result()
}

// EndTrip deletes the trip record. Returns false if there was nothing to delete.
func (s *TripStore) EndTrip(ctx context.Context, plateNumber, cardUID string) (bool, error) {
	key := passengersKey(plateNumber)
	if err := s.ensureHash(ctx, key); err != nil {
		return false, err
	}

	n, err := s.client.HDel(ctx, key, cardUID).Result()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

// RestoreTrip writes a trip record back after a failed trip end.
func (s *TripStore) RestoreTrip(ctx context.Context, plateNumber string, trip *domain.TripState) error {
	data, err := json.Marshal(trip)
	if err != nil {
		return err
	}

	return s.client.HSet(ctx, passengersKey(plateNumber), trip.CardUID, data).Err()
}

// MarkSeen records a passenger marker if the card has none yet on this bus.
func (s *TripStore) MarkSeen(ctx context.Context, plateNumber string, marker *domain.PassengerMarker) (bool, error) {
	key := seenKey(plateNumber)
	if err := s.ensureHash(ctx, key); err != nil {
		return false, err
	}

	data, err := json.Marshal(marker)
	if err != nil {
		return false, err
	}

	return s.client.HSetNX(ctx, key, marker.CardUID, data).Result()
}
