package tests

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"fareflow/internal/domain"
	"fareflow/internal/repository"
	"fareflow/internal/repository/postgres"
)

var accountRowColumns = []string{"card_uid", "first_name", "last_name", "phone", "email", "balance", "blocked", "on_trip", "created_at"}

func newSQLMock(t *testing.T) (sqlmock.Sqlmock, *postgres.SettlementRepository, *postgres.AccountRepository, *postgres.BusRepository) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return mock, postgres.NewSettlementRepository(db), postgres.NewAccountRepository(db), postgres.NewBusRepository(db)
}

func accountRow(balance int64) *sqlmock.Rows {
	return sqlmock.NewRows(accountRowColumns).
		AddRow(testCard, "Amina", "Nakato", "+256700000000", "amina@example.com", balance, false, false, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
}

func lateSettlement() *domain.Settlement {
	return &domain.Settlement{
		ID:             "settlement-1",
		CardUID:        testCard,
		BusPlateNumber: testFixed,
		PassengerName:  "Amina Nakato",
		Amount:         2000,
		Kind:           domain.SettlementKindFixedFare,
		Status:         domain.SettlementStatusProcessing,
		CreatedAt:      time.Date(2025, 5, 31, 23, 59, 0, 0, time.UTC),
	}
}

// ──────────────────────────────────────────────
// SETTLEMENT APPLY
// ──────────────────────────────────────────────

func TestPostgresApply_BucketsByChargeTime(t *testing.T) {
	t.Parallel()

	mock, settlements, _, _ := newSQLMock(t)
	s := lateSettlement()
	appliedAt := time.Date(2025, 6, 1, 0, 5, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE settlements SET status = $1, applied_at = $2 WHERE id = $3`)).
		WithArgs(string(domain.SettlementStatusApplied), appliedAt, s.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE accounts SET balance = balance - $1 WHERE card_uid = $2`)).
		WithArgs(s.Amount, testCard).
		WillReturnRows(accountRow(3000))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO account_transactions`)).
		WithArgs(sqlmock.AnyArg(), testCard, s.Amount, string(domain.TransactionTypePayment), s.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO transactions`)).
		WithArgs(sqlmock.AnyArg(), s.ID, testCard, testFixed, "Amina Nakato", s.Amount, s.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE buses SET total_earnings = total_earnings + $1`)).
		WithArgs(s.Amount, testFixed).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO bus_earnings_daily`)).
		WithArgs(testFixed, "2025-05-31", s.Amount).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO bus_earnings_monthly`)).
		WithArgs(testFixed, "2025-05", s.Amount).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	account, err := settlements.Apply(context.Background(), s, appliedAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Balance != 3000 || account.CardUID != testCard {
		t.Errorf("unexpected account %+v", account)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresApply_AlreadyAppliedRollsBack(t *testing.T) {
	t.Parallel()

	mock, settlements, _, _ := newSQLMock(t)
	s := lateSettlement()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE settlements SET status`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := settlements.Apply(context.Background(), s, time.Now().UTC())
	if !errors.Is(err, repository.ErrAlreadyApplied) {
		t.Fatalf("expected ErrAlreadyApplied, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresApply_FailedStepRollsBack(t *testing.T) {
	t.Parallel()

	mock, settlements, _, _ := newSQLMock(t)
	s := lateSettlement()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE settlements SET status`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE accounts SET balance = balance - $1`)).
		WillReturnRows(accountRow(3000))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO account_transactions`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO transactions`)).
		WillReturnError(errors.New("unique_violation"))
	mock.ExpectRollback()

	if _, err := settlements.Apply(context.Background(), s, time.Now().UTC()); err == nil {
		t.Fatal("expected an error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresApply_UnknownBusSkipsBuckets(t *testing.T) {
	t.Parallel()

	mock, settlements, _, _ := newSQLMock(t)
	s := lateSettlement()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE settlements SET status`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE accounts SET balance = balance - $1`)).
		WillReturnRows(accountRow(3000))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO account_transactions`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO transactions`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE buses SET total_earnings`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if _, err := settlements.Apply(context.Background(), s, time.Now().UTC()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// ──────────────────────────────────────────────
// TOP-UP AND EARNINGS
// ──────────────────────────────────────────────

func TestPostgresAddFunds_CommitsCreditWithHistory(t *testing.T) {
	t.Parallel()

	mock, _, accounts, _ := newSQLMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE accounts SET balance = balance + $1 WHERE card_uid = $2`)).
		WithArgs(int64(5000), testCard).
		WillReturnRows(accountRow(7000))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO account_transactions`)).
		WithArgs(sqlmock.AnyArg(), testCard, int64(5000), string(domain.TransactionTypeTopUp), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	account, err := accounts.AddFunds(context.Background(), testCard, 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Balance != 7000 {
		t.Errorf("expected balance 7000, got %d", account.Balance)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresAddFunds_HistoryFailureRollsBackCredit(t *testing.T) {
	t.Parallel()

	mock, _, accounts, _ := newSQLMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE accounts SET balance = balance + $1`)).
		WillReturnRows(accountRow(7000))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO account_transactions`)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	if _, err := accounts.AddFunds(context.Background(), testCard, 5000); err == nil {
		t.Fatal("expected an error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresAddFunds_UnknownCard(t *testing.T) {
	t.Parallel()

	mock, _, accounts, _ := newSQLMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE accounts SET balance = balance + $1`)).
		WillReturnRows(sqlmock.NewRows(accountRowColumns))
	mock.ExpectRollback()

	_, err := accounts.AddFunds(context.Background(), "FFFFFFFF", 5000)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresGetEarnings_ReadsBuckets(t *testing.T) {
	t.Parallel()

	mock, _, _, buses := newSQLMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT total_earnings FROM buses`)).
		WithArgs(testFixed).
		WillReturnRows(sqlmock.NewRows([]string{"total_earnings"}).AddRow(int64(3300)))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM bus_earnings_daily`)).
		WithArgs(testFixed).
		WillReturnRows(sqlmock.NewRows([]string{"day", "amount"}).
			AddRow("2025-06-01", int64(300)).
			AddRow("2025-05-31", int64(3000)))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM bus_earnings_monthly`)).
		WithArgs(testFixed).
		WillReturnRows(sqlmock.NewRows([]string{"month", "amount"}).
			AddRow("2025-06", int64(300)).
			AddRow("2025-05", int64(3000)))

	earnings, err := buses.GetEarnings(context.Background(), testFixed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if earnings.Total != 3300 || len(earnings.Weekly) != 2 || len(earnings.Monthly) != 2 {
		t.Fatalf("unexpected earnings %+v", earnings)
	}
	if earnings.Weekly[0].Day != "2025-06-01" || earnings.Monthly[1].Month != "2025-05" {
		t.Errorf("expected newest buckets first, got %+v", earnings)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
