package repository

import (
	"context"
	"time"

	"fareflow/internal/domain"
)

// SettlementRepository is the durable outbox of deferred charges.
type SettlementRepository interface {
	// Create persists a new settlement in PENDING state.
	Create(ctx context.Context, settlement *domain.Settlement) error

	// GetByID retrieves a settlement by ID.
	GetByID(ctx context.Context, id string) (*domain.Settlement, error)

	// ClaimPending moves up to limit due PENDING settlements to PROCESSING and returns them.
	ClaimPending(ctx context.Context, limit int) ([]*domain.Settlement, error)

	// Apply commits the settlement atomically: debit and card history, global log entry,
	// bus earnings, and the APPLIED mark. Returns the debited account.
	// Returns ErrAlreadyApplied if the settlement was committed before.
	Apply(ctx context.Context, settlement *domain.Settlement, at time.Time) (*domain.CardAccount, error)

	// MarkFailed returns a settlement to PENDING, due again after retryAfter.
	MarkFailed(ctx context.Context, id string, retryAfter time.Duration, reason string) error

	// ReleaseStale returns settlements stuck in PROCESSING for longer than staleAfter to PENDING.
	ReleaseStale(ctx context.Context, staleAfter time.Duration) (int64, error)
}
