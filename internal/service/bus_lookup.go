package service

import (
	"context"
	"log"

	"fareflow/internal/domain"
	"fareflow/internal/redis"
	"fareflow/internal/repository"
)

// busLookup reads bus records through the Redis cache.
type busLookup struct {
	repo  repository.BusRepository
	cache redis.BusCacheInterface
}

func (l busLookup) get(ctx context.Context, plateNumber string) (*domain.Bus, error) {
	if l.cache != nil {
		bus, err := l.cache.GetBus(ctx, plateNumber)
		if err != nil {
			log.Printf("[BUS] cache read for %s failed: %v", plateNumber, err)
		} else if bus != nil {
			return bus, nil
		}
	}

	bus, err := l.repo.GetByPlate(ctx, plateNumber)
	if err != nil {
		return nil, err
	}

	if l.cache != nil {
		if err := l.cache.SetBus(ctx, bus); err != nil {
			log.Printf("[BUS] cache write for %s failed: %v", plateNumber, err)
		}
	}

	return bus, nil
}
