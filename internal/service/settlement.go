package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/robfig/cron/v3"

	"fareflow/internal/config"
	"fareflow/internal/domain"
	"fareflow/internal/redis"
	"fareflow/internal/repository"
)

const maxRetryDelay = 300 * time.Second

// SettlementService owns the settlement outbox: it accepts charges from the fare
// engine and applies them with at-least-once delivery.
type SettlementService struct {
	repo          repository.SettlementRepository
	tripStore     redis.TripStoreInterface
	notifications *NotificationService
	receipts      *ReceiptService
	nrApp         *newrelic.Application
	cfg           config.SettlementConfig
	now           func() time.Time

	wake      chan struct{}
	wg        sync.WaitGroup
	followUps followUps
}

// NewSettlementService creates a new SettlementService. nrApp may be nil.
func NewSettlementService(
	repo repository.SettlementRepository,
	tripStore redis.TripStoreInterface,
	notifications *NotificationService,
	receipts *ReceiptService,
	nrApp *newrelic.Application,
	cfg config.SettlementConfig,
) *SettlementService {
	return &SettlementService{
		repo:          repo,
		tripStore:     tripStore,
		notifications: notifications,
		receipts:      receipts,
		nrApp:         nrApp,
		cfg:           cfg,
		now:           time.Now,
		wake:          make(chan struct{}, 1),
	}
}

// Enqueue durably records a settlement. It must succeed before the fare response is published.
func (s *SettlementService) Enqueue(ctx context.Context, settlement *domain.Settlement) error {
	if err := s.repo.Create(ctx, settlement); err != nil {
		return fmt.Errorf("failed to enqueue settlement: %w", err)
	}
	return nil
}

// Get returns a settlement by ID.
func (s *SettlementService) Get(ctx context.Context, id string) (*domain.Settlement, error) {
	if id == "" {
		return nil, repository.ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// Wake asks an idle worker to poll now instead of waiting for the next tick.
func (s *SettlementService) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Start launches the worker pool. Workers stop when ctx is cancelled; call Wait to join them.
func (s *SettlementService) Start(ctx context.Context) {
	workers := s.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	log.Printf("[SETTLEMENT] starting %d workers", workers)

	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}
}

func (s *SettlementService) worker(ctx context.Context, id int) {
	defer s.wg.Done()

	interval := s.cfg.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-s.wake:
		}

		for {
			n, err := s.RunOnce(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("[SETTLEMENT] worker %d: %v", id, err)
				}
				break
			}
			// A full batch means there is probably more work queued.
			if n == 0 || n < s.cfg.BatchSize {
				break
			}
		}
	}
}

// Wait blocks until the workers and their follow-ups have finished.
func (s *SettlementService) Wait() {
	s.wg.Wait()
	s.followUps.Wait()
}

// RunOnce claims one batch of due settlements and applies them.
// Returns the number of settlements claimed.
func (s *SettlementService) RunOnce(ctx context.Context) (int, error) {
	batch, err := s.repo.ClaimPending(ctx, s.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to claim settlements: %w", err)
	}

	for _, settlement := range batch {
		if err := s.process(ctx, settlement); err != nil && !errors.Is(err, ErrSettlementAlreadyApplied) {
			log.Printf("[SETTLEMENT] %s: %v", settlement.ID, err)
		}
	}

	return len(batch), nil
}

func (s *SettlementService) process(ctx context.Context, settlement *domain.Settlement) error {
	if s.nrApp != nil {
		txn := s.nrApp.StartTransaction("settlement/apply")
		defer txn.End()
		txn.AddAttribute("settlement.kind", string(settlement.Kind))
		txn.AddAttribute("settlement.attempts", settlement.Attempts)
		ctx = newrelic.NewContext(ctx, txn)
	}

	account, err := s.Apply(ctx, settlement)
	if err != nil {
		if errors.Is(err, ErrSettlementAlreadyApplied) {
			log.Printf("[SETTLEMENT] %s already applied, skipping", settlement.ID)
			return err
		}

		newrelic.FromContext(ctx).NoticeError(err)

		delay := retryDelay(settlement.Attempts)
		if markErr := s.repo.MarkFailed(ctx, settlement.ID, delay, err.Error()); markErr != nil {
			log.Printf("[SETTLEMENT] failed to reschedule %s: %v", settlement.ID, markErr)
		}
		return fmt.Errorf("apply failed on attempt %d, retrying in %s: %w", settlement.Attempts, delay, err)
	}

	s.followUps.Go("passenger marker", func(ctx context.Context) error {
		return s.markSeen(ctx, settlement)
	})

	s.followUps.Go("receipt notification", func(ctx context.Context) error {
		receipt := s.receipts.GenerateReceipt(settlement, account)
		return s.notifications.NotifyReceipt(ctx, account, receipt)
	})

	return nil
}

// Apply commits one settlement. Applying the same settlement twice returns
// ErrSettlementAlreadyApplied and changes nothing.
// Returns the account after the debit.
func (s *SettlementService) Apply(ctx context.Context, settlement *domain.Settlement) (*domain.CardAccount, error) {
	at := s.now()

	account, err := s.repo.Apply(ctx, settlement, at)
	if errors.Is(err, repository.ErrAlreadyApplied) {
		return nil, ErrSettlementAlreadyApplied
	}
	if err != nil {
		return nil, err
	}

	settlement.Status = domain.SettlementStatusApplied
	settlement.AppliedAt = at

	if settlement.Shortfall > 0 {
		log.Printf("[SETTLEMENT] %s applied with unrecovered shortfall %d for card %s on %s",
			settlement.ID, settlement.Shortfall, settlement.CardUID, settlement.BusPlateNumber)
	}

	if account.Balance < 0 {
		log.Printf("[SETTLEMENT] card %s balance is negative (%d) after %s", settlement.CardUID, account.Balance, settlement.ID)
	}

	return account, nil
}

func (s *SettlementService) markSeen(ctx context.Context, settlement *domain.Settlement) error {
	_, err := s.tripStore.MarkSeen(ctx, settlement.BusPlateNumber, &domain.PassengerMarker{
		CardUID:       settlement.CardUID,
		PassengerName: settlement.PassengerName,
		Timestamp:     settlement.AppliedAt.UnixMilli(),
	})
	return err
}

// SweepStale returns settlements abandoned in PROCESSING to the queue.
func (s *SettlementService) SweepStale(ctx context.Context) {
	n, err := s.repo.ReleaseStale(ctx, s.cfg.StaleAfter)
	if err != nil {
		log.Printf("[SETTLEMENT] stale sweep failed: %v", err)
		return
	}

	if n > 0 {
		log.Printf("[SETTLEMENT] released %d stale settlements", n)
		s.Wake()
	}
}

// ScheduleSweep registers the stale sweep on c using the configured schedule.
func (s *SettlementService) ScheduleSweep(c *cron.Cron) error {
	_, err := c.AddFunc(s.cfg.SweepSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.SweepStale(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.cfg.SweepSchedule, err)
	}
	return nil
}

// retryDelay backs off exponentially with the attempt count, capped at five minutes.
func retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		return time.Second
	}
	if attempt > 8 {
		attempt = 8
	}

	delay := time.Duration(1<<attempt) * time.Second
	if delay > maxRetryDelay {
		return maxRetryDelay
	}
	return delay
}
