package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"fareflow/internal/config"
	"fareflow/internal/domain"
	"fareflow/internal/redis"
	"fareflow/internal/repository"
)

// PublishFunc delivers a fare response over the channel the tap arrived on.
type PublishFunc func(ctx context.Context, resp *domain.FareResponse) error

// FareService decides the outcome of a card tap.
//
// The decision is made synchronously and published before any deferred work runs.
// Balances are never changed here: charges are written to the settlement outbox
// and applied later by SettlementService.
type FareService struct {
	accountRepo   repository.AccountRepository
	buses         busLookup
	tripStore     redis.TripStoreInterface
	locationStore redis.LocationStoreInterface
	lockStore     redis.LockStoreInterface
	settlements   *SettlementService
	notifications *NotificationService
	cfg           config.FareConfig
	currency      string
	now           func() time.Time
	followUps     followUps
}

// NewFareService creates a new FareService.
func NewFareService(
	accountRepo repository.AccountRepository,
	busRepo repository.BusRepository,
	busCache redis.BusCacheInterface,
	tripStore redis.TripStoreInterface,
	locationStore redis.LocationStoreInterface,
	lockStore redis.LockStoreInterface,
	settlements *SettlementService,
	notifications *NotificationService,
	cfg config.FareConfig,
	currency string,
) *FareService {
	return &FareService{
		accountRepo:   accountRepo,
		buses:         busLookup{repo: busRepo, cache: busCache},
		tripStore:     tripStore,
		locationStore: locationStore,
		lockStore:     lockStore,
		settlements:   settlements,
		notifications: notifications,
		cfg:           cfg,
		currency:      currency,
		now:           time.Now,
	}
}

// decision is a response plus the work to schedule once it has been published.
type decision struct {
	response  *domain.FareResponse
	followUps []followUp
}

type followUp struct {
	name string
	fn   func(ctx context.Context) error
}

func (d *decision) then(name string, fn func(ctx context.Context) error) *decision {
	d.followUps = append(d.followUps, followUp{name: name, fn: fn})
	return d
}

// Handle decides a tap, publishes exactly one response, then schedules follow-ups.
// Unexpected failures are published as SERVER_ERROR and are not returned.
// The returned error is non-nil only for an invalid request, a cancelled context,
// or a failed publish.
func (s *FareService) Handle(ctx context.Context, req domain.FareRequest, publish PublishFunc) (*domain.FareResponse, error) {
	if req.CardUID == "" {
		return nil, ErrInvalidCardUID
	}

	if req.BusPlateNumber == "" {
		return nil, ErrInvalidBusPlate
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d, err := s.decide(ctx, req)
	if err != nil {
		log.Printf("[FARE] card=%s bus=%s channel=%s: %v", req.CardUID, req.BusPlateNumber, req.Channel, err)
		d = s.reply(req.CardUID, domain.StatusError, domain.CodeServerError, "Internal server error")
	}

	log.Printf("[FARE] card=%s bus=%s channel=%s code=%s", req.CardUID, req.BusPlateNumber, req.Channel, d.response.HardwareCode)

	var publishErr error
	if publish != nil {
		if publishErr = publish(ctx, d.response); publishErr != nil {
			publishErr = fmt.Errorf("%w: %w", ErrPublishFailed, publishErr)
		}
	}

	// The decision stands even if the response was lost, so its follow-ups still run.
	for _, f := range d.followUps {
		s.followUps.Go(f.name, f.fn)
	}

	return d.response, publishErr
}

// Wait blocks until scheduled follow-ups have finished.
func (s *FareService) Wait() {
	s.followUps.Wait()
}

func (s *FareService) decide(ctx context.Context, req domain.FareRequest) (*decision, error) {
	account, err := s.accountRepo.GetByCardUID(ctx, req.CardUID)
	if errors.Is(err, repository.ErrNotFound) {
		return s.reply(req.CardUID, domain.StatusError, domain.CodeUserNotFound, "User not found"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	if account.Blocked {
		return s.reply(req.CardUID, domain.StatusError, domain.CodeUserBlocked, "User Blocked"), nil
	}

	bus, err := s.buses.get(ctx, req.BusPlateNumber)
	if errors.Is(err, repository.ErrNotFound) {
		return s.reply(req.CardUID, domain.StatusError, domain.CodeBusNotFound, "Bus not found"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load bus: %w", err)
	}

	if !bus.Active {
		return s.reply(req.CardUID, domain.StatusInactive, domain.CodeBusInactive, "Bus is currently inactive"), nil
	}

	// The floor applies to every route, even when the fare itself would be affordable.
	if account.Balance < s.cfg.MinBalance {
		text := fmt.Sprintf("FareFlow Payment Unsuccessful\nDue to Low balance.\nMinimum required for every trip: %d %s,\nPlease Load Money in your Card: %s.\nThank you for using FareFlow",
			s.cfg.MinBalance, s.currency, account.CardUID)
		return s.reply(req.CardUID, domain.StatusError, domain.CodeLowBalance, text).
			then("low balance notification", func(ctx context.Context) error {
				return s.notifications.NotifyLowBalance(ctx, account, text, s.cfg.MinBalance)
			}), nil
	}

	if bus.Route.IsDynamic() {
		return s.decideTrip(ctx, account, bus)
	}

	return s.chargeFixed(ctx, account, bus)
}

func (s *FareService) chargeFixed(ctx context.Context, account *domain.CardAccount, bus *domain.Bus) (*decision, error) {
	fare := FixedFare(bus.Route, s.cfg.DefaultFixedFare)

	if account.Balance < fare {
		text := fmt.Sprintf("FareFlow Payment Unsuccessful\nInsufficient balance for the fare. Needed: %d %s\nThank you for using FareFlow",
			fare, s.currency)
		return s.reply(account.CardUID, domain.StatusError, domain.CodeInsufficientFare, text).
			then("insufficient fare notification", func(ctx context.Context) error {
				return s.notifications.NotifyInsufficientFare(ctx, account, text, fare)
			}), nil
	}

	settlement := s.newSettlement(account, bus, domain.SettlementKindFixedFare, fare)
	if err := s.settlements.Enqueue(ctx, settlement); err != nil {
		return nil, err
	}

	newBalance := account.Balance - fare
	d := s.reply(account.CardUID, domain.StatusSuccess, domain.CodePaymentSuccess, "Fare processed successfully")
	d.response.NewBalance = &newBalance

	return d.then("settlement wake", s.wakeSettlements), nil
}

// decideTrip starts or ends a distance-priced trip under the (bus, card) lock.
func (s *FareService) decideTrip(ctx context.Context, account *domain.CardAccount, bus *domain.Bus) (*decision, error) {
	token, ok, err := s.lockStore.AcquireTripLock(ctx, bus.PlateNumber, account.CardUID, s.cfg.TripLockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire trip lock: %w", err)
	}
	if !ok {
		return nil, ErrTapInProgress
	}
	defer func() {
		if err := s.lockStore.ReleaseTripLock(context.WithoutCancel(ctx), bus.PlateNumber, account.CardUID, token); err != nil {
			log.Printf("[FARE] failed to release trip lock for card %s on %s: %v", account.CardUID, bus.PlateNumber, err)
		}
	}()

	trip, err := s.tripStore.GetTrip(ctx, bus.PlateNumber, account.CardUID)
	if err != nil {
		return nil, fmt.Errorf("failed to read trip: %w", err)
	}

	location, err := s.locationStore.GetLocation(ctx, bus.PlateNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to read bus location: %w", err)
	}

	if trip == nil {
		return s.startTrip(ctx, account, bus, location)
	}

	return s.endTrip(ctx, account, bus, trip, location)
}

func (s *FareService) startTrip(ctx context.Context, account *domain.CardAccount, bus *domain.Bus, location *domain.Location) (*decision, error) {
	if location == nil {
		return s.reply(account.CardUID, domain.StatusError, domain.CodeLocationUnavailable, "Bus location not available. Try again shortly."), nil
	}

	trip := domain.NewTripState(account.CardUID, account.DisplayName(), s.now().UnixMilli(), *location)

	created, err := s.tripStore.StartTrip(ctx, bus.PlateNumber, trip)
	if err != nil {
		return nil, fmt.Errorf("failed to start trip: %w", err)
	}
	if !created {
		return nil, ErrTripStateConflict
	}

	if err := s.accountRepo.SetOnTrip(ctx, account.CardUID, true); err != nil {
		if _, endErr := s.tripStore.EndTrip(context.WithoutCancel(ctx), bus.PlateNumber, account.CardUID); endErr != nil {
			log.Printf("[FARE] failed to undo trip start for card %s on %s: %v", account.CardUID, bus.PlateNumber, endErr)
		}
		return nil, fmt.Errorf("failed to mark account on trip: %w", err)
	}

	return s.reply(account.CardUID, domain.StatusInfo, domain.CodeDynamicRouteWelcome, "Welcome aboard. Dynamic pricing in effect.").
		then("trip start notification", func(ctx context.Context) error {
			return s.notifications.NotifyTripStarted(ctx, account, bus, s.cfg.RatePerKm)
		}), nil
}

func (s *FareService) endTrip(ctx context.Context, account *domain.CardAccount, bus *domain.Bus, trip *domain.TripState, location *domain.Location) (*decision, error) {
	start, ok := trip.StartFix()
	if !ok || location == nil {
		return s.reply(account.CardUID, domain.StatusError, domain.CodeIncompleteTripLocation, "Missing location data to complete trip."), nil
	}

	distance := HaversineKm(start, *location)
	fare := DistanceFare(distance, s.cfg.RatePerKm)

	var settlement *domain.Settlement
	if fare > account.Balance {
		// The rider pays what is left. The remainder is recorded, not charged.
		settlement = s.newSettlement(account, bus, domain.SettlementKindTripLowBalance, account.Balance)
		settlement.Shortfall = fare - account.Balance
	} else {
		settlement = s.newSettlement(account, bus, domain.SettlementKindTripFare, fare)
	}
	settlement.DistanceKm = distance

	ended, err := s.tripStore.EndTrip(ctx, bus.PlateNumber, account.CardUID)
	if err != nil {
		return nil, fmt.Errorf("failed to end trip: %w", err)
	}
	if !ended {
		return nil, ErrTripStateConflict
	}

	if err := s.settlements.Enqueue(ctx, settlement); err != nil {
		if restoreErr := s.tripStore.RestoreTrip(context.WithoutCancel(ctx), bus.PlateNumber, trip); restoreErr != nil {
			log.Printf("[FARE] failed to restore trip for card %s on %s: %v", account.CardUID, bus.PlateNumber, restoreErr)
		}
		return nil, err
	}

	if err := s.accountRepo.SetOnTrip(ctx, account.CardUID, false); err != nil {
		log.Printf("[FARE] failed to clear on-trip flag for card %s: %v", account.CardUID, err)
	}

	if settlement.Kind == domain.SettlementKindTripLowBalance {
		log.Printf("[FARE] trip of card %s on %s ended for low balance: fare=%d charged=%d shortfall=%d",
			account.CardUID, bus.PlateNumber, fare, settlement.Amount, settlement.Shortfall)

		return s.reply(account.CardUID, domain.StatusError, domain.CodeTripEndedLowBalance, "Trip ended: Insufficient balance.").
			then("operator alert", func(ctx context.Context) error {
				return s.notifications.NotifyOperatorLowBalance(ctx, bus.PlateNumber, account.CardUID)
			}).
			then("settlement wake", s.wakeSettlements), nil
	}

	d := s.reply(account.CardUID, domain.StatusSuccess, domain.CodeTripComplete, "Trip complete.")
	d.response.Amount = formatAmount(fare)

	return d.then("settlement wake", s.wakeSettlements), nil
}

func (s *FareService) newSettlement(account *domain.CardAccount, bus *domain.Bus, kind domain.SettlementKind, amount int64) *domain.Settlement {
	return &domain.Settlement{
		ID:               uuid.New().String(),
		CardUID:          account.CardUID,
		BusPlateNumber:   bus.PlateNumber,
		PassengerName:    account.DisplayName(),
		Amount:           amount,
		Kind:             kind,
		RouteDeparture:   bus.Route.Departure,
		RouteDestination: bus.Route.Destination,
		PreviousBalance:  account.Balance,
		Status:           domain.SettlementStatusPending,
		CreatedAt:        s.now(),
	}
}

func (s *FareService) wakeSettlements(ctx context.Context) error {
	s.settlements.Wake()
	return nil
}

func (s *FareService) reply(cardUID string, status domain.ResponseStatus, code domain.HardwareCode, message string) *decision {
	return &decision{
		response: &domain.FareResponse{
			CardUID:      cardUID,
			Timestamp:    s.now().UnixMilli(),
			Status:       status,
			Message:      message,
			HardwareCode: code,
		},
	}
}
