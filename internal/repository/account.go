package repository

import (
	"context"

	"fareflow/internal/domain"
)

// AccountRepository defines the persistence operations for card accounts.
type AccountRepository interface {
	// GetByCardUID retrieves an account by card UID.
	GetByCardUID(ctx context.Context, cardUID string) (*domain.CardAccount, error)

	// SetOnTrip sets the on-trip flag of an account.
	SetOnTrip(ctx context.Context, cardUID string, onTrip bool) error

	// AddFunds credits a top-up to the balance and records it in the card history.
	// Returns the updated account.
	AddFunds(ctx context.Context, cardUID string, amount int64) (*domain.CardAccount, error)
}
