package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fareflow/internal/domain"
	"fareflow/internal/repository"
)

// BusRepository is a PostgreSQL implementation of repository.BusRepository.
type BusRepository struct {
	q Querier
}

// NewBusRepository creates a new PostgreSQL bus repository.
func NewBusRepository(db *sql.DB) *BusRepository {
	return &BusRepository{q: db}
}

// NewBusRepositoryWithTx creates a bus repository using a transaction.
func NewBusRepositoryWithTx(tx *sql.Tx) *BusRepository {
	return &BusRepository{q: tx}
}

// GetByPlate retrieves a bus by plate number.
func (r *BusRepository) GetByPlate(ctx context.Context, plateNumber string) (*domain.Bus, error) {
	query := `
		SELECT plate_number, active, route_type, COALESCE(fare_amount, 0), COALESCE(departure, ''), COALESCE(destination, ''), COALESCE(operator_phone, '')
		FROM buses WHERE plate_number = $1
	`

	var bus domain.Bus
	err := r.q.QueryRowContext(ctx, query, plateNumber).Scan(
		&bus.PlateNumber,
		&bus.Active,
		&bus.Route.Type,
		&bus.Route.FareAmount,
		&bus.Route.Departure,
		&bus.Route.Destination,
		&bus.OperatorPhone,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &bus, nil
}

// SetActive switches a bus in or out of service.
func (r *BusRepository) SetActive(ctx context.Context, plateNumber string, active bool) error {
	result, err := r.q.ExecContext(ctx, `UPDATE buses SET active = $1 WHERE plate_number = $2`, active, plateNumber)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// GetEarnings retrieves the earnings aggregates of a bus.
// Daily buckets are limited to the last seven days.
func (r *BusRepository) GetEarnings(ctx context.Context, plateNumber string) (*domain.BusEarnings, error) {
	earnings := &domain.BusEarnings{PlateNumber: plateNumber}

	err := r.q.QueryRowContext(ctx, `SELECT total_earnings FROM buses WHERE plate_number = $1`, plateNumber).Scan(&earnings.Total)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	dayRows, err := r.q.QueryContext(ctx, `
		SELECT day, amount FROM bus_earnings_daily
		WHERE plate_number = $1 ORDER BY day DESC LIMIT 7
	`, plateNumber)
	if err != nil {
		return nil, err
	}
	defer dayRows.Close()

	for dayRows.Next() {
		var bucket domain.DayEarning
		if err := dayRows.Scan(&bucket.Day, &bucket.Amount); err != nil {
			return nil, err
		}
		earnings.Weekly = append(earnings.Weekly, bucket)
	}
	if err := dayRows.Err(); err != nil {
		return nil, err
	}

	monthRows, err := r.q.QueryContext(ctx, `
		SELECT month, amount FROM bus_earnings_monthly
		WHERE plate_number = $1 ORDER BY month DESC
	`, plateNumber)
	if err != nil {
		return nil, err
	}
	defer monthRows.Close()

	for monthRows.Next() {
		var bucket domain.MonthEarning
		if err := monthRows.Scan(&bucket.Month, &bucket.Amount); err != nil {
			return nil, err
		}
		earnings.Monthly = append(earnings.Monthly, bucket)
	}

	return earnings, monthRows.Err()
}

// addEarnings credits amount to the day bucket, the month bucket and the running total.
// Buses without a record are skipped.
func (r *BusRepository) addEarnings(ctx context.Context, plateNumber string, at time.Time, amount int64) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE buses SET total_earnings = total_earnings + $1 WHERE plate_number = $2`,
		amount, plateNumber,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return nil
	}

	if _, err := r.q.ExecContext(ctx, `
		INSERT INTO bus_earnings_daily (plate_number, day, amount) VALUES ($1, $2, $3)
		ON CONFLICT (plate_number, day) DO UPDATE SET amount = bus_earnings_daily.amount + EXCLUDED.amount
	`, plateNumber, domain.DayKey(at), amount); err != nil {
		return err
	}

	_, err = r.q.ExecContext(ctx, `
		INSERT INTO bus_earnings_monthly (plate_number, month, amount) VALUES ($1, $2, $3)
		ON CONFLICT (plate_number, month) DO UPDATE SET amount = bus_earnings_monthly.amount + EXCLUDED.amount
	`, plateNumber, domain.MonthKey(at), amount)
	return err
}

// Ensure BusRepository implements repository.BusRepository.
var _ repository.BusRepository = (*BusRepository)(nil)
