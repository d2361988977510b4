package tests

import (
	"context"
	"sync"
	"testing"
	"time"

	"fareflow/internal/config"
	"fareflow/internal/domain"
	"fareflow/internal/service"
)

const (
	testCard  = "04A1B2C3"
	testFixed = "UAX 123A"
	testDyn   = "UBB 456B"
)

func defaultFareConfig() config.FareConfig {
	return config.FareConfig{
		MinBalance:       1000,
		RatePerKm:        500,
		DefaultFixedFare: 2000,
		TripLockTTL:      5 * time.Second,
	}
}

// fixture wires the real services over in-memory mocks.
type fixture struct {
	accounts       *MockAccountRepository
	buses          *MockBusRepository
	busCache       *MockBusCache
	settlementRepo *MockSettlementRepository
	trips          *MockTripStore
	locations      *MockLocationStore
	locks          *MockLockStore
	alerts         *MockAlertStore
	dispatcher     *MockDispatcher

	settlements   *service.SettlementService
	fares         *service.FareService
	accountSvc    *service.AccountService
	busSvc        *service.BusService
	notifications *service.NotificationService
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithConfig(t, defaultFareConfig())
}

func newFixtureWithConfig(t *testing.T, fareCfg config.FareConfig) *fixture {
	t.Helper()

	f := &fixture{
		accounts:   NewMockAccountRepository(),
		buses:      NewMockBusRepository(),
		busCache:   NewMockBusCache(),
		trips:      NewMockTripStore(),
		locations:  NewMockLocationStore(),
		locks:      NewMockLockStore(),
		alerts:     NewMockAlertStore(),
		dispatcher: NewMockDispatcher(),
	}
	f.settlementRepo = NewMockSettlementRepository(f.accounts, f.buses)

	receipts := service.NewReceiptService("UGX")
	f.notifications = service.NewNotificationService(f.dispatcher, f.alerts, receipts, config.NotificationConfig{
		Currency:             "UGX",
		EmailTemplatePayment: "template_payment",
		EmailTemplateTrip:    "template_trip",
	})
	f.settlements = service.NewSettlementService(f.settlementRepo, f.trips, f.notifications, receipts, nil, config.SettlementConfig{
		Workers:       2,
		BatchSize:     10,
		PollInterval:  10 * time.Millisecond,
		StaleAfter:    time.Minute,
		SweepSchedule: "@every 1m",
	})
	f.fares = service.NewFareService(
		f.accounts, f.buses, f.busCache,
		f.trips, f.locations, f.locks,
		f.settlements, f.notifications,
		fareCfg, "UGX",
	)
	f.accountSvc = service.NewAccountService(f.accounts, f.notifications)
	f.busSvc = service.NewBusService(f.buses, f.busCache, f.locations)

	t.Cleanup(func() {
		f.fares.Wait()
		f.accountSvc.Wait()
		f.settlements.Wait()
	})

	return f
}

func (f *fixture) addAccount(cardUID string, balance int64) {
	f.accounts.AddAccount(&domain.CardAccount{
		CardUID:   cardUID,
		FirstName: "Amina",
		LastName:  "Nakato",
		Phone:     "+256700000001",
		Email:     "amina@example.com",
		Balance:   balance,
	})
}

func (f *fixture) addFixedBus(plate string, fare int64) {
	f.buses.AddBus(&domain.Bus{
		PlateNumber: plate,
		Active:      true,
		Route: domain.Route{
			Type:        domain.RouteTypeFixed,
			FareAmount:  fare,
			Departure:   "Kampala",
			Destination: "Entebbe",
		},
	})
}

func (f *fixture) addDynamicBus(plate string) {
	f.buses.AddBus(&domain.Bus{
		PlateNumber: plate,
		Active:      true,
		Route: domain.Route{
			Type:        domain.RouteTypeDynamic,
			Departure:   "Wandegeya",
			Destination: "Ntinda",
		},
	})
}

func (f *fixture) moveBus(plate string, lat, lng float64) {
	_ = f.locations.UpdateLocation(context.Background(), plate, lat, lng)
}

// recorder captures what a tap published.
type recorder struct {
	mu        sync.Mutex
	responses []*domain.FareResponse
}

func (r *recorder) publish(ctx context.Context, resp *domain.FareResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, resp)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.responses)
}

// tap runs one request and checks exactly one response was published.
func (f *fixture) tap(t *testing.T, cardUID, plate string) *domain.FareResponse {
	t.Helper()

	rec := &recorder{}
	resp, err := f.fares.Handle(context.Background(), domain.FareRequest{
		CardUID:        cardUID,
		BusPlateNumber: plate,
		Channel:        domain.ChannelDirect,
	}, rec.publish)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.count() != 1 {
		t.Fatalf("expected exactly 1 published response, got %d", rec.count())
	}
	if rec.responses[0] != resp {
		t.Error("published response differs from returned response")
	}
	if resp.CardUID != cardUID {
		t.Errorf("expected cardUID %s, got %s", cardUID, resp.CardUID)
	}
	if resp.Timestamp == 0 {
		t.Error("expected timestamp to be set")
	}

	return resp
}

func expectCode(t *testing.T, resp *domain.FareResponse, code domain.HardwareCode) {
	t.Helper()
	if resp.HardwareCode != code {
		t.Fatalf("expected hardware code %s, got %s (%q)", code, resp.HardwareCode, resp.Message)
	}
}
