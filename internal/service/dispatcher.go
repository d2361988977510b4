package service

import (
	"context"
	"log"

	"fareflow/internal/rabbitmq"
)

// Routing keys on the notification exchange.
const (
	RoutingKeySMS   = "notification.sms"
	RoutingKeyEmail = "notification.email"
)

// Dispatcher delivers customer notifications.
type Dispatcher interface {
	SendSMS(ctx context.Context, phone, text string) error
	SendEmailTemplate(ctx context.Context, templateID string, vars map[string]string) error
}

// SMSJob is the message consumed by the SMS gateway worker.
type SMSJob struct {
	To      []string `json:"to"`
	Message string   `json:"message"`
}

// EmailJob is the message consumed by the email worker.
type EmailJob struct {
	TemplateID string            `json:"templateId"`
	Variables  map[string]string `json:"variables"`
}

// AMQPDispatcher hands notifications to delivery workers over a topic exchange.
type AMQPDispatcher struct {
	publisher rabbitmq.Publisher
	exchange  string
}

// NewAMQPDispatcher creates a new AMQPDispatcher.
func NewAMQPDispatcher(publisher rabbitmq.Publisher, exchange string) *AMQPDispatcher {
	return &AMQPDispatcher{publisher: publisher, exchange: exchange}
}

// SendSMS queues a text message.
func (d *AMQPDispatcher) SendSMS(ctx context.Context, phone, text string) error {
	return d.publisher.Publish(ctx, d.exchange, RoutingKeySMS, SMSJob{To: []string{phone}, Message: text})
}

// SendEmailTemplate queues a templated email.
func (d *AMQPDispatcher) SendEmailTemplate(ctx context.Context, templateID string, vars map[string]string) error {
	return d.publisher.Publish(ctx, d.exchange, RoutingKeyEmail, EmailJob{TemplateID: templateID, Variables: vars})
}

// LogDispatcher only logs notifications. Used in development and when no broker is configured.
type LogDispatcher struct{}

// SendSMS logs the message.
func (LogDispatcher) SendSMS(ctx context.Context, phone, text string) error {
	log.Printf("[NOTIFICATION] sms to=%s message=%q", phone, text)
	return nil
}

// SendEmailTemplate logs the template and its variables.
func (LogDispatcher) SendEmailTemplate(ctx context.Context, templateID string, vars map[string]string) error {
	log.Printf("[NOTIFICATION] email template=%s to=%s vars=%v", templateID, vars["email"], vars)
	return nil
}

var (
	_ Dispatcher = (*AMQPDispatcher)(nil)
	_ Dispatcher = LogDispatcher{}
)
