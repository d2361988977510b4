package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"fareflow/internal/domain"
)

const alertStreamMaxLen = 1000

// AlertStore appends operator alerts to a per-bus Redis stream read by the operator console.
type AlertStore struct {
	client *redis.Client
}

// NewAlertStore creates a new AlertStore.
func NewAlertStore(client *redis.Client) *AlertStore {
	return &AlertStore{client: client}
}

// PushAlert appends an alert to the bus's stream.
func (s *AlertStore) PushAlert(ctx context.Context, plateNumber string, alert *domain.OperatorAlert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: fmt.Sprintf("bus:%s:alerts", plateNumber),
		MaxLen: alertStreamMaxLen,
		Approx: true,
		Values: map[string]any{
			"alert": data,
		},
	}

	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to push alert: %w", err)
	}

	return nil
}
