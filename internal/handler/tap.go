package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"fareflow/internal/domain"
	"fareflow/internal/rabbitmq"
	"fareflow/internal/service"
)

const (
	tapTopicPrefix = "fareflow.buses."
	tapTimeout     = 10 * time.Second
)

// TapBindingKey matches the tap requests of every bus.
const TapBindingKey = tapTopicPrefix + "*.request"

// TapRoutingKey is where a bus reader publishes its taps.
func TapRoutingKey(plateNumber string) string {
	return tapTopicPrefix + plateNumber + ".request"
}

// ResponseRoutingKey is where a bus reader listens for fare responses.
func ResponseRoutingKey(plateNumber string) string {
	return tapTopicPrefix + plateNumber + ".fareResponse"
}

// plateFromRoutingKey extracts the plate from "fareflow.buses.<plate>.request".
func plateFromRoutingKey(routingKey string) string {
	rest, ok := strings.CutPrefix(routingKey, tapTopicPrefix)
	if !ok {
		return ""
	}

	plate, ok := strings.CutSuffix(rest, ".request")
	if !ok {
		return ""
	}

	return plate
}

// TapMessage is the payload a reader publishes. The plate is usually implicit in the topic.
type TapMessage struct {
	CardUID        string `json:"cardUID"`
	BusPlateNumber string `json:"busPlateNumber,omitempty"`
}

// TapHandler feeds bus reader taps from the broker into the fare engine and
// publishes the response back to the bus's topic.
type TapHandler struct {
	fareService *service.FareService
	publisher   rabbitmq.Publisher
	exchange    string
}

// NewTapHandler creates a new TapHandler.
func NewTapHandler(fareService *service.FareService, publisher rabbitmq.Publisher, exchange string) *TapHandler {
	return &TapHandler{
		fareService: fareService,
		publisher:   publisher,
		exchange:    exchange,
	}
}

// Handle processes one tap delivery. It returns false only when no decision was made
// and the tap can safely be redelivered.
func (h *TapHandler) Handle(ctx context.Context, routingKey string, body []byte) bool {
	var msg TapMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		log.Printf("[TAP] dropping malformed tap on %s: %v", routingKey, err)
		return true
	}

	plate := plateFromRoutingKey(routingKey)
	if plate == "" {
		plate = msg.BusPlateNumber
	}

	ctx, cancel := context.WithTimeout(ctx, tapTimeout)
	defer cancel()

	publish := func(ctx context.Context, resp *domain.FareResponse) error {
		return h.publisher.Publish(ctx, h.exchange, ResponseRoutingKey(plate), resp)
	}

	_, err := h.fareService.Handle(ctx, domain.FareRequest{
		CardUID:        msg.CardUID,
		BusPlateNumber: plate,
		Channel:        domain.ChannelPubSub,
	}, publish)

	switch {
	case err == nil:
		return true
	case errors.Is(err, service.ErrPublishFailed):
		// The decision stands; redelivering the tap would decide it again.
		log.Printf("[TAP] card=%s bus=%s: %v", msg.CardUID, plate, err)
		return true
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		log.Printf("[TAP] dropping tap on %s: %v", routingKey, err)
		return true
	}
}
