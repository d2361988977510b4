package app

import (
	"log"

	"fareflow/internal/config"
	"fareflow/internal/rabbitmq"
)

// NewPublisher connects the response and notification publisher.
// When the broker is unreachable it falls back to a logging no-op so the HTTP surface stays up.
func NewPublisher(cfg config.RabbitMQConfig) (rabbitmq.Publisher, bool) {
	producer, err := rabbitmq.NewProducer(cfg.URL)
	if err != nil {
		log.Printf("[RABBITMQ] producer unavailable, using fallback: %v", err)
		return rabbitmq.FallbackProducer{}, false
	}

	return producer, true
}
