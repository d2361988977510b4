package tests

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/robfig/cron/v3"

	"fareflow/internal/domain"
	"fareflow/internal/service"
)

// ──────────────────────────────────────────────
// 1. APPLYING SETTLEMENTS
// ──────────────────────────────────────────────

func TestSettlement_FixedFareApplied(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addAccount(testCard, 5000)
	f.addFixedBus(testFixed, 2000)
	expectCode(t, f.tap(t, testCard, testFixed), domain.CodePaymentSuccess)

	n, err := f.settlements.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 settlement claimed, got %d", n)
	}
	f.settlements.Wait()

	if got := f.accounts.GetAccount(testCard).Balance; got != 3000 {
		t.Errorf("expected balance 3000, got %d", got)
	}

	history := f.accounts.History(testCard)
	if len(history) != 1 || history[0].Amount != 2000 || history[0].Type != domain.TransactionTypePayment {
		t.Errorf("expected one payment of 2000 in history, got %+v", history)
	}

	ledger := f.settlementRepo.Ledger()
	if len(ledger) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(ledger))
	}
	if ledger[0].BusPlateNumber != testFixed || ledger[0].PassengerName != "Amina Nakato" || ledger[0].Amount != 2000 {
		t.Errorf("unexpected ledger entry %+v", ledger[0])
	}

	earnings, err := f.buses.GetEarnings(context.Background(), testFixed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if earnings.Total != 2000 || len(earnings.Weekly) != 1 || len(earnings.Monthly) != 1 {
		t.Errorf("unexpected earnings %+v", earnings)
	}

	if seen := f.trips.Seen(testFixed, testCard); seen == nil || seen.PassengerName != "Amina Nakato" {
		t.Errorf("expected passenger marker, got %+v", seen)
	}

	if s := f.settlementRepo.All()[0]; s.Status != domain.SettlementStatusApplied {
		t.Errorf("expected settlement applied, got %s", s.Status)
	}

	sms := f.dispatcher.SMS()
	if len(sms) != 1 {
		t.Fatalf("expected 1 receipt SMS, got %d", len(sms))
	}
	if !strings.Contains(sms[0].Text, "A fare of 2000 UGX") || !strings.Contains(sms[0].Text, "new balance is 3000 UGX") {
		t.Errorf("unexpected receipt text %q", sms[0].Text)
	}
	emails := f.dispatcher.Emails()
	if len(emails) != 1 || emails[0].Vars["previous_balance"] != "5000" || emails[0].Vars["current_balance"] != "3000" {
		t.Errorf("unexpected receipt email %+v", emails)
	}
}

func TestSettlement_ApplyIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addAccount(testCard, 5000)
	f.addFixedBus(testFixed, 2000)
	f.tap(t, testCard, testFixed)

	settlement := f.settlementRepo.All()[0]

	if _, err := f.settlements.Apply(context.Background(), &settlement); err != nil {
		t.Fatalf("first apply failed: %v", err)
	}
	if settlement.Status != domain.SettlementStatusApplied || settlement.AppliedAt.IsZero() {
		t.Errorf("expected settlement marked applied, got %+v", settlement)
	}

	_, err := f.settlements.Apply(context.Background(), &settlement)
	if !errors.Is(err, service.ErrSettlementAlreadyApplied) {
		t.Fatalf("expected ErrSettlementAlreadyApplied, got %v", err)
	}

	if got := f.accounts.GetAccount(testCard).Balance; got != 3000 {
		t.Errorf("expected a single debit to 3000, got %d", got)
	}
	if len(f.settlementRepo.Ledger()) != 1 {
		t.Error("expected a single ledger entry")
	}
	if len(f.accounts.History(testCard)) != 1 {
		t.Error("expected a single history entry")
	}
}

func TestSettlement_LateApplyKeepsChargeDay(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addAccount(testCard, 5000)
	f.addFixedBus(testFixed, 2000)

	// Charged a minute before midnight at month end, applied much later.
	charged := time.Date(2025, 5, 31, 23, 59, 0, 0, time.UTC)
	settlement := &domain.Settlement{
		ID:             "late-apply",
		CardUID:        testCard,
		BusPlateNumber: testFixed,
		PassengerName:  "Amina Nakato",
		Amount:         2000,
		Kind:           domain.SettlementKindFixedFare,
		Status:         domain.SettlementStatusPending,
		CreatedAt:      charged,
	}
	if err := f.settlements.Enqueue(context.Background(), settlement); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.settlements.Apply(context.Background(), settlement); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !settlement.AppliedAt.After(charged) {
		t.Errorf("expected applied_at after the charge, got %s", settlement.AppliedAt)
	}

	earnings, err := f.buses.GetEarnings(context.Background(), testFixed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(earnings.Weekly) != 1 || earnings.Weekly[0].Day != "2025-05-31" {
		t.Errorf("expected the 2025-05-31 bucket, got %+v", earnings.Weekly)
	}
	if len(earnings.Monthly) != 1 || earnings.Monthly[0].Month != "2025-05" {
		t.Errorf("expected the 2025-05 bucket, got %+v", earnings.Monthly)
	}

	ledger := f.settlementRepo.Ledger()
	if len(ledger) != 1 || !ledger[0].Timestamp.Equal(charged) {
		t.Errorf("expected ledger entry dated %s, got %+v", charged, ledger)
	}
	history := f.accounts.History(testCard)
	if len(history) != 1 || !history[0].Date.Equal(charged) {
		t.Errorf("expected history entry dated %s, got %+v", charged, history)
	}
}

func TestSettlement_StalledWorkerCannotApplyTwice(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addAccount(testCard, 5000)
	f.addFixedBus(testFixed, 2000)
	f.tap(t, testCard, testFixed)

	// A worker claims the settlement and stalls long enough to be swept.
	stalled, err := f.settlementRepo.ClaimPending(context.Background(), 10)
	if err != nil || len(stalled) != 1 {
		t.Fatalf("expected to claim 1 settlement, got %d (%v)", len(stalled), err)
	}
	f.settlements.SweepStale(context.Background())

	if n, _ := f.settlements.RunOnce(context.Background()); n != 1 {
		t.Fatalf("expected the swept settlement to be claimed again, got %d", n)
	}
	f.settlements.Wait()

	_, err = f.settlements.Apply(context.Background(), stalled[0])
	if !errors.Is(err, service.ErrSettlementAlreadyApplied) {
		t.Fatalf("expected ErrSettlementAlreadyApplied, got %v", err)
	}

	if got := f.accounts.GetAccount(testCard).Balance; got != 3000 {
		t.Errorf("expected balance 3000, got %d", got)
	}
	if earnings, _ := f.buses.GetEarnings(context.Background(), testFixed); earnings.Total != 2000 {
		t.Errorf("expected earnings 2000, got %d", earnings.Total)
	}
}

func TestSettlement_FailedApplyIsRetried(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addAccount(testCard, 5000)
	f.addFixedBus(testFixed, 2000)
	f.tap(t, testCard, testFixed)

	f.settlementRepo.ApplyError = errors.New("deadlock detected")

	if _, err := f.settlements.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := f.settlementRepo.All()[0]
	if s.Status != domain.SettlementStatusPending {
		t.Errorf("expected settlement back in PENDING, got %s", s.Status)
	}
	if s.LastError != "deadlock detected" {
		t.Errorf("expected last error to be recorded, got %q", s.LastError)
	}
	if f.settlementRepo.LastRetryAfter != 2*time.Second {
		t.Errorf("expected 2s backoff after first attempt, got %s", f.settlementRepo.LastRetryAfter)
	}
	if got := f.accounts.GetAccount(testCard).Balance; got != 5000 {
		t.Errorf("expected balance untouched after failure, got %d", got)
	}

	if _, err := f.settlements.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.settlements.Wait()

	if got := f.accounts.GetAccount(testCard).Balance; got != 3000 {
		t.Errorf("expected balance 3000 after retry, got %d", got)
	}
	if s := f.settlementRepo.All()[0]; s.Attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", s.Attempts)
	}
}

func TestSettlement_BackoffGrowsWithAttempts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addAccount(testCard, 5000)
	f.addFixedBus(testFixed, 2000)
	f.tap(t, testCard, testFixed)

	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}
	for i, expected := range want {
		f.settlementRepo.ApplyError = errors.New("unavailable")
		if _, err := f.settlements.RunOnce(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.settlementRepo.LastRetryAfter != expected {
			t.Errorf("attempt %d: expected backoff %s, got %s", i+1, expected, f.settlementRepo.LastRetryAfter)
		}
	}
}

func TestSettlement_SweepReleasesStaleClaims(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addAccount(testCard, 5000)
	f.addFixedBus(testFixed, 2000)
	f.tap(t, testCard, testFixed)

	id := f.settlementRepo.All()[0].ID
	f.settlementRepo.ForceStatus(id, domain.SettlementStatusProcessing)

	if n, _ := f.settlements.RunOnce(context.Background()); n != 0 {
		t.Fatalf("expected a claimed settlement to be skipped, got %d", n)
	}

	f.settlements.SweepStale(context.Background())

	if s := f.settlementRepo.All()[0]; s.Status != domain.SettlementStatusPending {
		t.Fatalf("expected settlement back in PENDING, got %s", s.Status)
	}

	if n, _ := f.settlements.RunOnce(context.Background()); n != 1 {
		t.Fatalf("expected released settlement to be claimed, got %d", n)
	}
	f.settlements.Wait()

	if got := f.accounts.GetAccount(testCard).Balance; got != 3000 {
		t.Errorf("expected balance 3000, got %d", got)
	}
}

func TestSettlement_ScheduleSweep(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	c := cron.New()

	if err := f.settlements.ScheduleSweep(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Entries()) != 1 {
		t.Errorf("expected 1 scheduled entry, got %d", len(c.Entries()))
	}
}

func TestSettlement_LowBalanceTripEndDrainsBalance(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addAccount(testCard, 1000)
	f.addDynamicBus(testDyn)
	f.moveBus(testDyn, 0, 0)
	f.tap(t, testCard, testDyn)
	f.moveBus(testDyn, 0, 0.05)
	expectCode(t, f.tap(t, testCard, testDyn), domain.CodeTripEndedLowBalance)
	f.fares.Wait()

	if _, err := f.settlements.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.settlements.Wait()

	if got := f.accounts.GetAccount(testCard).Balance; got != 0 {
		t.Errorf("expected balance 0, got %d", got)
	}

	var receipt string
	for _, sms := range f.dispatcher.SMS() {
		if strings.Contains(sms.Text, "Trip ended") {
			receipt = sms.Text
		}
	}
	if receipt == "" || !strings.Contains(receipt, "Charged: 1000 UGX") {
		t.Errorf("expected low balance receipt, got %+v", f.dispatcher.SMS())
	}
}

func TestSettlement_StaleDecisionsCanOverdraw(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addAccount(testCard, 3000)
	f.addFixedBus(testFixed, 2000)

	// Both taps are decided against the same unsettled balance.
	expectCode(t, f.tap(t, testCard, testFixed), domain.CodePaymentSuccess)
	expectCode(t, f.tap(t, testCard, testFixed), domain.CodePaymentSuccess)

	if n, _ := f.settlements.RunOnce(context.Background()); n != 2 {
		t.Fatalf("expected 2 settlements, got %d", n)
	}
	f.settlements.Wait()

	if got := f.accounts.GetAccount(testCard).Balance; got != -1000 {
		t.Errorf("expected balance -1000, got %d", got)
	}
}

// ──────────────────────────────────────────────
// 2. WORKERS
// ──────────────────────────────────────────────

func TestSettlement_WorkersDrainQueue(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.addAccount(testCard, 50000)
	f.addFixedBus(testFixed, 2000)

	ctx, cancel := context.WithCancel(context.Background())
	f.settlements.Start(ctx)
	defer func() {
		cancel()
		f.settlements.Wait()
	}()

	for i := 0; i < 5; i++ {
		expectCode(t, f.tap(t, testCard, testFixed), domain.CodePaymentSuccess)
	}

	deadline := time.Now().Add(5 * time.Second)
	for f.accounts.GetAccount(testCard).Balance != 40000 {
		if time.Now().After(deadline) {
			t.Fatalf("settlements not applied in time, balance %d", f.accounts.GetAccount(testCard).Balance)
		}
		time.Sleep(10 * time.Millisecond)
	}

	for _, s := range f.settlementRepo.All() {
		if s.Status != domain.SettlementStatusApplied {
			t.Errorf("settlement %s left in %s", s.ID, s.Status)
		}
	}
	if len(f.settlementRepo.Ledger()) != 5 {
		t.Errorf("expected 5 ledger entries, got %d", len(f.settlementRepo.Ledger()))
	}
}

func TestSettlement_EnqueueFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.settlementRepo.CreateError = errors.New("disk full")

	err := f.settlements.Enqueue(context.Background(), &domain.Settlement{ID: "s-1"})
	if err == nil || !errors.Is(err, f.settlementRepo.CreateError) {
		t.Errorf("expected wrapped create error, got %v", err)
	}
}
