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

const accountColumns = `card_uid, COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(phone, ''), COALESCE(email, ''), balance, blocked, on_trip, created_at`

// AccountRepository is a PostgreSQL implementation of repository.AccountRepository.
type AccountRepository struct {
	db *sql.DB // nil when bound to a transaction
	q  Querier
}

// NewAccountRepository creates a new PostgreSQL account repository.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db, q: db}
}

// NewAccountRepositoryWithTx creates an account repository using a transaction.
func NewAccountRepositoryWithTx(tx *sql.Tx) *AccountRepository {
	return &AccountRepository{q: tx}
}

// GetByCardUID retrieves an account by card UID.
func (r *AccountRepository) GetByCardUID(ctx context.Context, cardUID string) (*domain.CardAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE card_uid = $1`
	return scanAccount(r.q.QueryRowContext(ctx, query, cardUID))
}

// SetOnTrip sets the on-trip flag of an account.
func (r *AccountRepository) SetOnTrip(ctx context.Context, cardUID string, onTrip bool) error {
	query := `UPDATE accounts SET on_trip = $1 WHERE card_uid = $2`

	result, err := r.q.ExecContext(ctx, query, onTrip, cardUID)
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

// AddFunds credits a top-up and records it in the card history.
// The credit and the history entry commit together.
func (r *AccountRepository) AddFunds(ctx context.Context, cardUID string, amount int64) (account *domain.CardAccount, err error) {
	if r.db == nil {
		return r.credit(ctx, cardUID, amount, time.Now().UTC())
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	account, err = NewAccountRepositoryWithTx(tx).credit(ctx, cardUID, amount, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return account, nil
}

func (r *AccountRepository) credit(ctx context.Context, cardUID string, amount int64, at time.Time) (*domain.CardAccount, error) {
	query := `UPDATE accounts SET balance = balance + $1 WHERE card_uid = $2 RETURNING ` + accountColumns

	account, err := scanAccount(r.q.QueryRowContext(ctx, query, amount, cardUID))
	if err != nil {
		return nil, err
	}

	if err := r.appendTransaction(ctx, cardUID, amount, domain.TransactionTypeTopUp, at); err != nil {
		return nil, fmt.Errorf("append card history: %w", err)
	}

	return account, nil
}

// debit subtracts amount from the balance and appends a payment to the card history.
func (r *AccountRepository) debit(ctx context.Context, cardUID string, amount int64, at time.Time) (*domain.CardAccount, error) {
	query := `UPDATE accounts SET balance = balance - $1 WHERE card_uid = $2 RETURNING ` + accountColumns

	account, err := scanAccount(r.q.QueryRowContext(ctx, query, amount, cardUID))
	if err != nil {
		return nil, err
	}

	if err := r.appendTransaction(ctx, cardUID, amount, domain.TransactionTypePayment, at); err != nil {
		return nil, err
	}

	return account, nil
}

func (r *AccountRepository) appendTransaction(ctx context.Context, cardUID string, amount int64, txType domain.TransactionType, at time.Time) error {
	query := `INSERT INTO account_transactions (id, card_uid, amount, type, date) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.ExecContext(ctx, query, uuid.New().String(), cardUID, amount, txType, at)
	return err
}

func scanAccount(row *sql.Row) (*domain.CardAccount, error) {
	var account domain.CardAccount
	err := row.Scan(
		&account.CardUID,
		&account.FirstName,
		&account.LastName,
		&account.Phone,
		&account.Email,
		&account.Balance,
		&account.Blocked,
		&account.OnTrip,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &account, nil
}

// Ensure AccountRepository implements repository.AccountRepository.
var _ repository.AccountRepository = (*AccountRepository)(nil)
