package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"fareflow/internal/config"
	"fareflow/internal/domain"
	"fareflow/internal/redis"
)

// AlertTypeLowBalance tags the operator alert raised when a trip is ended for lack of funds.
const AlertTypeLowBalance = "low_balance"

// NotificationService builds customer and operator notifications and hands them to a Dispatcher.
type NotificationService struct {
	dispatcher Dispatcher
	alerts     redis.AlertStoreInterface
	receipts   *ReceiptService
	cfg        config.NotificationConfig
	now        func() time.Time
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(
	dispatcher Dispatcher,
	alerts redis.AlertStoreInterface,
	receipts *ReceiptService,
	cfg config.NotificationConfig,
) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		alerts:     alerts,
		receipts:   receipts,
		cfg:        cfg,
		now:        time.Now,
	}
}

// NotifyLowBalance tells the rider a fare was refused because the balance is under the floor.
func (s *NotificationService) NotifyLowBalance(ctx context.Context, account *domain.CardAccount, text string, minBalance int64) error {
	return s.notifyDenied(ctx, account, text, map[string]string{
		"status_message": fmt.Sprintf("Unfortunately, your fare payment could not be processed. Low balance. Minimum required: %d %s.\nPlease ensure you have sufficient balance or contact support.", minBalance, s.cfg.Currency),
	})
}

// NotifyInsufficientFare tells the rider a fixed fare was refused.
func (s *NotificationService) NotifyInsufficientFare(ctx context.Context, account *domain.CardAccount, text string, fare int64) error {
	return s.notifyDenied(ctx, account, text, map[string]string{
		"fare_amount":    formatAmount(fare),
		"status_message": fmt.Sprintf("Unfortunately, your fare payment could not be processed. Insufficient balance for the fare. Needed: %d %s.\nPlease ensure you have sufficient balance or contact support.", fare, s.cfg.Currency),
	})
}

func (s *NotificationService) notifyDenied(ctx context.Context, account *domain.CardAccount, text string, extra map[string]string) error {
	now := s.now()
	vars := map[string]string{
		"first_name":       account.FirstName,
		"email":            account.Email,
		"transaction_id":   fmt.Sprintf("%s-%d", account.CardUID, now.UnixMilli()),
		"transaction_date": formatDate(now),
		"card_uid":         account.CardUID,
		"previous_balance": formatAmount(account.Balance),
		"current_balance":  formatAmount(account.Balance),
		"status_title":     "Payment Failed",
	}
	for k, v := range extra {
		vars[k] = v
	}

	return s.deliver(ctx, account, text, s.cfg.EmailTemplatePayment, vars)
}

// NotifyTripStarted tells the rider a distance-priced trip is open.
func (s *NotificationService) NotifyTripStarted(ctx context.Context, account *domain.CardAccount, bus *domain.Bus, ratePerKm float64) error {
	text := fmt.Sprintf("You have started a trip from %s.\nBus: %s\nDynamic pricing is active.\nPlease tap your card again when you stop at destination.\nRate: %.0f %s per km",
		bus.Route.Departure, bus.PlateNumber, ratePerKm, s.cfg.Currency)

	vars := map[string]string{
		"first_name":      account.FirstName,
		"email":           account.Email,
		"trip_start_time": formatDate(s.now()),
		"route_start":     bus.Route.Departure,
		"message":         text,
	}

	return s.deliver(ctx, account, text, s.cfg.EmailTemplateTrip, vars)
}

// NotifyReceipt sends the receipt of an applied settlement. account is the state after the debit.
func (s *NotificationService) NotifyReceipt(ctx context.Context, account *domain.CardAccount, receipt *domain.Receipt) error {
	return s.deliver(ctx, account,
		s.receipts.FormatReceipt(receipt),
		s.cfg.EmailTemplatePayment,
		s.receipts.EmailVariables(receipt, account),
	)
}

// NotifyTopUp confirms a balance load. account is the state after the credit.
func (s *NotificationService) NotifyTopUp(ctx context.Context, account *domain.CardAccount, amount int64) error {
	now := s.now()
	text := fmt.Sprintf("FareFlow TopUp Successful\nHello %s, Your FareFlow account %s has been topped up with %d %s.\nNew Balance: %d %s.\nThank you for using FareFlow",
		account.FirstName, account.CardUID, amount, s.cfg.Currency, account.Balance, s.cfg.Currency)

	vars := map[string]string{
		"first_name":       account.FirstName,
		"email":            account.Email,
		"transaction_id":   fmt.Sprintf("%s-%d", account.CardUID, now.UnixMilli()),
		"transaction_date": formatDate(now),
		"card_uid":         account.CardUID,
		"amount":           formatAmount(amount),
		"current_balance":  formatAmount(account.Balance),
		"status_title":     "Balance Top-Up Successful",
		"status_message":   fmt.Sprintf("You have successfully added %d %s to your FareFlow account.\nThank you for using FareFlow.", amount, s.cfg.Currency),
	}

	return s.deliver(ctx, account, text, s.cfg.EmailTemplatePayment, vars)
}

// NotifyOperatorLowBalance alerts the bus operator that a trip was ended for lack of funds.
func (s *NotificationService) NotifyOperatorLowBalance(ctx context.Context, plateNumber, cardUID string) error {
	return s.alerts.PushAlert(ctx, plateNumber, &domain.OperatorAlert{
		Type:      AlertTypeLowBalance,
		CardUID:   cardUID,
		Message:   "Passenger balance too low. Trip ended.",
		Timestamp: s.now().UnixMilli(),
	})
}

// deliver sends the SMS and the email. A failure of one does not prevent the other.
func (s *NotificationService) deliver(ctx context.Context, account *domain.CardAccount, text, templateID string, vars map[string]string) error {
	var firstErr error

	if account.Phone != "" {
		if err := s.dispatcher.SendSMS(ctx, account.Phone, text); err != nil {
			log.Printf("[NOTIFICATION] sms to card %s failed: %v", account.CardUID, err)
			firstErr = err
		}
	}

	if account.Email != "" {
		if err := s.dispatcher.SendEmailTemplate(ctx, templateID, vars); err != nil {
			log.Printf("[NOTIFICATION] email to card %s failed: %v", account.CardUID, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
