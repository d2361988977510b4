package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"fareflow/internal/domain"
)

// ReceiptService handles receipt generation.
type ReceiptService struct {
	currency string
}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService(currency string) *ReceiptService {
	return &ReceiptService{currency: currency}
}

// GenerateReceipt builds the receipt of an applied settlement.
// account is the state after the debit.
func (s *ReceiptService) GenerateReceipt(settlement *domain.Settlement, account *domain.CardAccount) *domain.Receipt {
	return &domain.Receipt{
		ID:              uuid.New().String(),
		SettlementID:    settlement.ID,
		CardUID:         settlement.CardUID,
		BusPlateNumber:  settlement.BusPlateNumber,
		Departure:       settlement.RouteDeparture,
		Destination:     settlement.RouteDestination,
		Kind:            settlement.Kind,
		Amount:          settlement.Amount,
		PreviousBalance: account.Balance + settlement.Amount,
		NewBalance:      account.Balance,
		DistanceKm:      settlement.DistanceKm,
		CreatedAt:       settlement.AppliedAt,
	}
}

// FormatReceipt formats the receipt as an SMS body.
func (s *ReceiptService) FormatReceipt(receipt *domain.Receipt) string {
	switch receipt.Kind {
	case domain.SettlementKindTripFare:
		return fmt.Sprintf("FareFlow Trip complete.\nFare: %d %s\nDistance: %.2f km\nYour new balance is %d %s.\nThank you for riding with us.\nThank you for using FareFlow",
			receipt.Amount, s.currency, receipt.DistanceKm, receipt.NewBalance, s.currency)
	case domain.SettlementKindTripLowBalance:
		return fmt.Sprintf("FareFlow Trip ended.\nYour balance did not cover the full fare.\nCharged: %d %s\nDistance: %.2f km\nYour new balance is %d %s.\nPlease Load Money in your Card: %s.\nThank you for using FareFlow",
			receipt.Amount, s.currency, receipt.DistanceKm, receipt.NewBalance, s.currency, receipt.CardUID)
	default:
		return fmt.Sprintf("FareFlow Payment Successful\n\nA fare of %d %s has been deducted from your account\nRoute: %s to %s\nYour new balance is %d %s.\n\nThank you for riding with us.\nThank you for using FareFlow",
			receipt.Amount, s.currency, receipt.Departure, receipt.Destination, receipt.NewBalance, s.currency)
	}
}

// EmailVariables returns the payment template variables for the receipt.
func (s *ReceiptService) EmailVariables(receipt *domain.Receipt, account *domain.CardAccount) map[string]string {
	title, message := "Success", "Your fare payment has been processed successfully."
	switch receipt.Kind {
	case domain.SettlementKindTripFare:
		title, message = "Trip Complete", "Thank you for riding. Payment processed."
	case domain.SettlementKindTripLowBalance:
		title, message = "Trip Ended", "Your trip was ended because your balance did not cover the fare."
	}

	return map[string]string{
		"first_name":       account.FirstName,
		"email":            account.Email,
		"transaction_id":   receipt.SettlementID,
		"transaction_date": formatDate(receipt.CreatedAt),
		"card_uid":         receipt.CardUID,
		"fare_amount":      formatAmount(receipt.Amount),
		"previous_balance": formatAmount(receipt.PreviousBalance),
		"current_balance":  formatAmount(receipt.NewBalance),
		"distance_km":      strconv.FormatFloat(receipt.DistanceKm, 'f', 2, 64),
		"status_title":     title,
		"status_message":   message,
	}
}

func formatDate(t time.Time) string {
	return t.UTC().Format("Jan 02, 2006 3:04 PM MST")
}
