package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fareflow/internal/domain"
	"fareflow/internal/repository"
)

const settlementColumns = `id, card_uid, bus_plate_number, COALESCE(passenger_name, ''), amount, shortfall, distance_km, kind,
	COALESCE(route_departure, ''), COALESCE(route_destination, ''), previous_balance, status, attempts,
	COALESCE(last_error, ''), created_at, applied_at`

// SettlementRepository is a PostgreSQL implementation of repository.SettlementRepository.
type SettlementRepository struct {
	db *sql.DB
}

// NewSettlementRepository creates a new PostgreSQL settlement repository.
func NewSettlementRepository(db *sql.DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

// Create persists a new settlement in PENDING state.
func (r *SettlementRepository) Create(ctx context.Context, s *domain.Settlement) error {
	query := `
		INSERT INTO settlements (id, card_uid, bus_plate_number, passenger_name, amount, shortfall, distance_km, kind,
			route_departure, route_destination, previous_balance, status, attempts, created_at, next_attempt_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 0, $13, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.CardUID,
		s.BusPlateNumber,
		s.PassengerName,
		s.Amount,
		s.Shortfall,
		s.DistanceKm,
		s.Kind,
		s.RouteDeparture,
		s.RouteDestination,
		s.PreviousBalance,
		domain.SettlementStatusPending,
		s.CreatedAt,
	)

	return err
}

// GetByID retrieves a settlement by ID.
func (r *SettlementRepository) GetByID(ctx context.Context, id string) (*domain.Settlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE id = $1`

	settlement, err := scanSettlement(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return settlement, nil
}

// ClaimPending moves due PENDING settlements to PROCESSING and returns them.
// SKIP LOCKED lets several workers claim concurrently without handing out the same row.
func (r *SettlementRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.Settlement, error) {
	query := `
		UPDATE settlements
		SET status = $1, claimed_at = NOW(), attempts = attempts + 1
		WHERE id IN (
			SELECT id FROM settlements
			WHERE status = $2 AND next_attempt_at <= NOW()
			ORDER BY created_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + settlementColumns

	rows, err := r.db.QueryContext(ctx, query, domain.SettlementStatusProcessing, domain.SettlementStatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settlements []*domain.Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return nil, err
		}
		settlements = append(settlements, settlement)
	}

	return settlements, rows.Err()
}

// Apply commits the settlement in one transaction.
func (r *SettlementRepository) Apply(ctx context.Context, s *domain.Settlement, at time.Time) (account *domain.CardAccount, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Flipping the row to APPLIED first makes a redelivered settlement a no-op.
	result, err := tx.ExecContext(ctx,
		`UPDATE settlements SET status = $1, applied_at = $2 WHERE id = $3 AND status <> $1`,
		domain.SettlementStatusApplied, at, s.ID,
	)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		err = repository.ErrAlreadyApplied
		return nil, err
	}

	chargedAt := s.ChargedAt(at)

	account, err = NewAccountRepositoryWithTx(tx).debit(ctx, s.CardUID, s.Amount, chargedAt)
	if err != nil {
		return nil, fmt.Errorf("debit account: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (id, settlement_id, card_uid, bus_plate_number, passenger_name, amount, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.New().String(), s.ID, s.CardUID, s.BusPlateNumber, s.PassengerName, s.Amount, chargedAt)
	if err != nil {
		return nil, fmt.Errorf("append transaction log: %w", err)
	}

	if err = NewBusRepositoryWithTx(tx).addEarnings(ctx, s.BusPlateNumber, chargedAt, s.Amount); err != nil {
		return nil, fmt.Errorf("add bus earnings: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return account, nil
}

// MarkFailed returns a settlement to PENDING with a delayed next attempt.
func (r *SettlementRepository) MarkFailed(ctx context.Context, id string, retryAfter time.Duration, reason string) error {
	query := `
		UPDATE settlements
		SET status = $1, last_error = $2, next_attempt_at = NOW() + ($3 * INTERVAL '1 millisecond')
		WHERE id = $4 AND status = $5
	`

	_, err := r.db.ExecContext(ctx, query,
		domain.SettlementStatusPending,
		reason,
		retryAfter.Milliseconds(),
		id,
		domain.SettlementStatusProcessing,
	)
	return err
}

// ReleaseStale returns settlements stuck in PROCESSING to PENDING.
func (r *SettlementRepository) ReleaseStale(ctx context.Context, staleAfter time.Duration) (int64, error) {
	query := `
		UPDATE settlements
		SET status = $1, next_attempt_at = NOW()
		WHERE status = $2 AND claimed_at < NOW() - ($3 * INTERVAL '1 millisecond')
	`

	result, err := r.db.ExecContext(ctx, query,
		domain.SettlementStatusPending,
		domain.SettlementStatusProcessing,
		staleAfter.Milliseconds(),
	)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSettlement(row rowScanner) (*domain.Settlement, error) {
	var s domain.Settlement
	var appliedAt sql.NullTime

	err := row.Scan(
		&s.ID,
		&s.CardUID,
		&s.BusPlateNumber,
		&s.PassengerName,
		&s.Amount,
		&s.Shortfall,
		&s.DistanceKm,
		&s.Kind,
		&s.RouteDeparture,
		&s.RouteDestination,
		&s.PreviousBalance,
		&s.Status,
		&s.Attempts,
		&s.LastError,
		&s.CreatedAt,
		&appliedAt,
	)
	if err != nil {
		return nil, err
	}

	if appliedAt.Valid {
		s.AppliedAt = appliedAt.Time
	}

	return &s, nil
}

// Ensure SettlementRepository implements repository.SettlementRepository.
var _ repository.SettlementRepository = (*SettlementRepository)(nil)
