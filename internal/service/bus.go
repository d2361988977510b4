package service

import (
	"context"
	"log"

	"fareflow/internal/domain"
	"fareflow/internal/redis"
	"fareflow/internal/repository"
)

// BusService handles bus location and earnings.
type BusService struct {
	busRepo       repository.BusRepository
	buses         busLookup
	locationStore redis.LocationStoreInterface
}

// NewBusService creates a new BusService.
func NewBusService(
	busRepo repository.BusRepository,
	busCache redis.BusCacheInterface,
	locationStore redis.LocationStoreInterface,
) *BusService {
	return &BusService{
		busRepo:       busRepo,
		buses:         busLookup{repo: busRepo, cache: busCache},
		locationStore: locationStore,
	}
}

// UpdateLocationRequest contains the parameters for a bus location fix.
type UpdateLocationRequest struct {
	PlateNumber string
	Lat         float64
	Lng         float64
}

// UpdateLocation records the current fix of a known bus.
func (s *BusService) UpdateLocation(ctx context.Context, req UpdateLocationRequest) error {
	if req.PlateNumber == "" {
		return ErrInvalidBusPlate
	}

	if !isValidLatitude(req.Lat) || !isValidLongitude(req.Lng) {
		return ErrInvalidLocation
	}

	if _, err := s.buses.get(ctx, req.PlateNumber); err != nil {
		return err
	}

	return s.locationStore.UpdateLocation(ctx, req.PlateNumber, req.Lat, req.Lng)
}

// SetStatus switches a bus in or out of service. The cached record is dropped so the
// next tap sees the new status, and an out-of-service bus leaves the location map.
func (s *BusService) SetStatus(ctx context.Context, plateNumber string, active bool) error {
	if plateNumber == "" {
		return ErrInvalidBusPlate
	}

	if err := s.busRepo.SetActive(ctx, plateNumber, active); err != nil {
		return err
	}

	if s.buses.cache != nil {
		if err := s.buses.cache.InvalidateBus(ctx, plateNumber); err != nil {
			log.Printf("[BUS] cache invalidation for %s failed: %v", plateNumber, err)
		}
	}

	if !active {
		if err := s.locationStore.RemoveLocation(ctx, plateNumber); err != nil {
			log.Printf("[BUS] failed to clear location of %s: %v", plateNumber, err)
		}
	}

	return nil
}

// GetEarnings returns the earnings aggregates of a bus.
func (s *BusService) GetEarnings(ctx context.Context, plateNumber string) (*domain.BusEarnings, error) {
	if plateNumber == "" {
		return nil, ErrInvalidBusPlate
	}

	return s.busRepo.GetEarnings(ctx, plateNumber)
}

// maxGeoLatitude is the latitude limit of the Redis GEO index.
const maxGeoLatitude = 85.05112878

func isValidLatitude(lat float64) bool {
	return lat >= -maxGeoLatitude && lat <= maxGeoLatitude
}

func isValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}
