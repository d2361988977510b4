package tests

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"fareflow/internal/domain"
	"fareflow/internal/rabbitmq"
	"fareflow/internal/redis"
	"fareflow/internal/repository"
	"fareflow/internal/service"
)

// ──────────────────────────────────────────────
// MOCK ACCOUNT REPOSITORY
// ──────────────────────────────────────────────

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.CardAccount
	history  map[string][]domain.Transaction

	// Counters for verification
	SetOnTripCallCount int32

	// Error injection
	GetError       error
	SetOnTripError error
}

// NewMockAccountRepository creates a new mock account repository.
func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.CardAccount),
		history:  make(map[string][]domain.Transaction),
	}
}

// AddAccount adds an account to the mock repository.
func (m *MockAccountRepository) AddAccount(account *domain.CardAccount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.CardUID] = account
}

// SetBalance overwrites a balance, e.g. to simulate a charge applied elsewhere.
func (m *MockAccountRepository) SetBalance(cardUID string, balance int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[cardUID].Balance = balance
}

func (m *MockAccountRepository) GetByCardUID(ctx context.Context, cardUID string) (*domain.CardAccount, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	account, ok := m.accounts[cardUID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *account
	return &copy, nil
}

func (m *MockAccountRepository) SetOnTrip(ctx context.Context, cardUID string, onTrip bool) error {
	atomic.AddInt32(&m.SetOnTripCallCount, 1)
	if m.SetOnTripError != nil {
		return m.SetOnTripError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[cardUID]
	if !ok {
		return repository.ErrNotFound
	}
	account.OnTrip = onTrip
	return nil
}

func (m *MockAccountRepository) AddFunds(ctx context.Context, cardUID string, amount int64) (*domain.CardAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[cardUID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	account.Balance += amount
	m.history[cardUID] = append(m.history[cardUID], domain.Transaction{
		CardUID: cardUID,
		Amount:  amount,
		Type:    domain.TransactionTypeTopUp,
		Date:    time.Now(),
	})
	copy := *account
	return &copy, nil
}

// debit mirrors the settlement transaction's account step.
func (m *MockAccountRepository) debit(cardUID string, amount int64, at time.Time) (*domain.CardAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[cardUID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	account.Balance -= amount
	m.history[cardUID] = append(m.history[cardUID], domain.Transaction{
		CardUID: cardUID,
		Amount:  amount,
		Type:    domain.TransactionTypePayment,
		Date:    at,
	})
	copy := *account
	return &copy, nil
}

// GetAccount returns the stored account for test assertions.
func (m *MockAccountRepository) GetAccount(cardUID string) domain.CardAccount {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.accounts[cardUID]
}

// History returns the card history for test assertions.
func (m *MockAccountRepository) History(cardUID string) []domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Transaction(nil), m.history[cardUID]...)
}

// ──────────────────────────────────────────────
// MOCK BUS REPOSITORY
// ──────────────────────────────────────────────

// MockBusRepository is a mock implementation of BusRepository.
type MockBusRepository struct {
	mu       sync.RWMutex
	buses    map[string]*domain.Bus
	earnings map[string]*domain.BusEarnings

	GetCallCount int32
	GetError     error
}

// NewMockBusRepository creates a new mock bus repository.
func NewMockBusRepository() *MockBusRepository {
	return &MockBusRepository{
		buses:    make(map[string]*domain.Bus),
		earnings: make(map[string]*domain.BusEarnings),
	}
}

// AddBus adds a bus to the mock repository.
func (m *MockBusRepository) AddBus(bus *domain.Bus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buses[bus.PlateNumber] = bus
}

func (m *MockBusRepository) GetByPlate(ctx context.Context, plateNumber string) (*domain.Bus, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	bus, ok := m.buses[plateNumber]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *bus
	return &copy, nil
}

func (m *MockBusRepository) SetActive(ctx context.Context, plateNumber string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bus, ok := m.buses[plateNumber]
	if !ok {
		return repository.ErrNotFound
	}
	bus.Active = active
	return nil
}

func (m *MockBusRepository) GetEarnings(ctx context.Context, plateNumber string) (*domain.BusEarnings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.buses[plateNumber]; !ok {
		return nil, repository.ErrNotFound
	}
	earnings, ok := m.earnings[plateNumber]
	if !ok {
		return &domain.BusEarnings{PlateNumber: plateNumber}, nil
	}
	copy := *earnings
	copy.Weekly = append([]domain.DayEarning(nil), earnings.Weekly...)
	copy.Monthly = append([]domain.MonthEarning(nil), earnings.Monthly...)
	return &copy, nil
}

// addEarnings mirrors the settlement transaction's earnings step.
func (m *MockBusRepository) addEarnings(plateNumber string, at time.Time, amount int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buses[plateNumber]; !ok {
		return
	}
	earnings, ok := m.earnings[plateNumber]
	if !ok {
		earnings = &domain.BusEarnings{PlateNumber: plateNumber}
		m.earnings[plateNumber] = earnings
	}
	addToBuckets(earnings, at, amount)
}

// addToBuckets mirrors the daily and monthly upserts.
func addToBuckets(e *domain.BusEarnings, at time.Time, amount int64) {
	e.Total += amount

	day := domain.DayKey(at)
	found := false
	for i := range e.Weekly {
		if e.Weekly[i].Day == day {
			e.Weekly[i].Amount += amount
			found = true
			break
		}
	}
	if !found {
		e.Weekly = append(e.Weekly, domain.DayEarning{Day: day, Amount: amount})
	}

	month := domain.MonthKey(at)
	for i := range e.Monthly {
		if e.Monthly[i].Month == month {
			e.Monthly[i].Amount += amount
			return
		}
	}
	e.Monthly = append(e.Monthly, domain.MonthEarning{Month: month, Amount: amount})
}

// ──────────────────────────────────────────────
// MOCK SETTLEMENT REPOSITORY
// ──────────────────────────────────────────────

// MockSettlementRepository is an in-memory settlement outbox.
// Apply commits against the account and bus mocks it was created with.
type MockSettlementRepository struct {
	mu          sync.Mutex
	settlements map[string]*domain.Settlement
	order       []string
	ledger      []domain.LedgerEntry
	applied     map[string]bool // Ledger uniqueness on settlement ID
	accounts    *MockAccountRepository
	buses       *MockBusRepository

	ApplyCallCount int32
	LastRetryAfter time.Duration

	// Error injection
	CreateError error
	ApplyError  error // Returned by the next Apply call only
}

// NewMockSettlementRepository creates a new mock settlement repository.
func NewMockSettlementRepository(accounts *MockAccountRepository, buses *MockBusRepository) *MockSettlementRepository {
	return &MockSettlementRepository{
		settlements: make(map[string]*domain.Settlement),
		applied:     make(map[string]bool),
		accounts:    accounts,
		buses:       buses,
	}
}

func (m *MockSettlementRepository) Create(ctx context.Context, settlement *domain.Settlement) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *settlement
	m.settlements[settlement.ID] = &copy
	m.order = append(m.order, settlement.ID)
	return nil
}

func (m *MockSettlementRepository) GetByID(ctx context.Context, id string) (*domain.Settlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settlements[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *s
	return &copy, nil
}

func (m *MockSettlementRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.Settlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var claimed []*domain.Settlement
	for _, id := range m.order {
		if len(claimed) >= limit {
			break
		}
		s := m.settlements[id]
		if s.Status != domain.SettlementStatusPending {
			continue
		}
		s.Status = domain.SettlementStatusProcessing
		s.Attempts++
		copy := *s
		claimed = append(claimed, &copy)
	}
	return claimed, nil
}

func (m *MockSettlementRepository) Apply(ctx context.Context, settlement *domain.Settlement, at time.Time) (*domain.CardAccount, error) {
	atomic.AddInt32(&m.ApplyCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ApplyError != nil {
		err := m.ApplyError
		m.ApplyError = nil
		return nil, err
	}

	stored, ok := m.settlements[settlement.ID]
	if !ok || m.applied[settlement.ID] {
		return nil, repository.ErrAlreadyApplied
	}

	chargedAt := settlement.ChargedAt(at)

	account, err := m.accounts.debit(settlement.CardUID, settlement.Amount, chargedAt)
	if err != nil {
		return nil, err
	}
	m.ledger = append(m.ledger, domain.LedgerEntry{
		ID:             "ledger-" + settlement.ID,
		SettlementID:   settlement.ID,
		CardUID:        settlement.CardUID,
		BusPlateNumber: settlement.BusPlateNumber,
		PassengerName:  settlement.PassengerName,
		Amount:         settlement.Amount,
		Timestamp:      chargedAt,
	})
	m.buses.addEarnings(settlement.BusPlateNumber, chargedAt, settlement.Amount)

	m.applied[settlement.ID] = true
	stored.Status = domain.SettlementStatusApplied
	stored.AppliedAt = at
	return account, nil
}

func (m *MockSettlementRepository) MarkFailed(ctx context.Context, id string, retryAfter time.Duration, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settlements[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.Status = domain.SettlementStatusPending
	s.LastError = reason
	m.LastRetryAfter = retryAfter
	return nil
}

func (m *MockSettlementRepository) ReleaseStale(ctx context.Context, staleAfter time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.settlements {
		if s.Status == domain.SettlementStatusProcessing {
			s.Status = domain.SettlementStatusPending
			n++
		}
	}
	return n, nil
}

// All returns the settlements in creation order.
func (m *MockSettlementRepository) All() []domain.Settlement {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]domain.Settlement, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, *m.settlements[id])
	}
	return result
}

// Ledger returns the global transaction log.
func (m *MockSettlementRepository) Ledger() []domain.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.LedgerEntry(nil), m.ledger...)
}

// ForceStatus overwrites a settlement's status.
func (m *MockSettlementRepository) ForceStatus(id string, status domain.SettlementStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settlements[id].Status = status
}

// ──────────────────────────────────────────────
// MOCK TRIP STORE
// ──────────────────────────────────────────────

// MockTripStore is a mock implementation of TripStoreInterface.
type MockTripStore struct {
	mu    sync.Mutex
	trips map[string]map[string]*domain.TripState
	seen  map[string]map[string]*domain.PassengerMarker

	StartCallCount int32

	// Error injection
	GetError      error
	StartConflict bool // StartTrip reports an existing record

	// GetGate, when set, holds every GetTrip until it is closed.
	GetGate chan struct{}
}

// NewMockTripStore creates a new mock trip store.
func NewMockTripStore() *MockTripStore {
	return &MockTripStore{
		trips: make(map[string]map[string]*domain.TripState),
		seen:  make(map[string]map[string]*domain.PassengerMarker),
	}
}

func (m *MockTripStore) GetTrip(ctx context.Context, plateNumber, cardUID string) (*domain.TripState, error) {
	if m.GetGate != nil {
		select {
		case <-m.GetGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[plateNumber][cardUID]
	if !ok {
		return nil, nil
	}
	copy := *trip
	return &copy, nil
}

func (m *MockTripStore) StartTrip(ctx context.Context, plateNumber string, trip *domain.TripState) (bool, error) {
	atomic.AddInt32(&m.StartCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StartConflict {
		return false, nil
	}
	if _, ok := m.trips[plateNumber][trip.CardUID]; ok {
		return false, nil
	}
	m.put(plateNumber, trip)
	return true, nil
}

func (m *MockTripStore) EndTrip(ctx context.Context, plateNumber, cardUID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[plateNumber][cardUID]; !ok {
		return false, nil
	}
	delete(m.trips[plateNumber], cardUID)
	return true, nil
}

func (m *MockTripStore) RestoreTrip(ctx context.Context, plateNumber string, trip *domain.TripState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(plateNumber, trip)
	return nil
}

func (m *MockTripStore) MarkSeen(ctx context.Context, plateNumber string, marker *domain.PassengerMarker) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[plateNumber] == nil {
		m.seen[plateNumber] = make(map[string]*domain.PassengerMarker)
	}
	if _, ok := m.seen[plateNumber][marker.CardUID]; ok {
		return false, nil
	}
	copy := *marker
	m.seen[plateNumber][marker.CardUID] = &copy
	return true, nil
}

func (m *MockTripStore) put(plateNumber string, trip *domain.TripState) {
	if m.trips[plateNumber] == nil {
		m.trips[plateNumber] = make(map[string]*domain.TripState)
	}
	copy := *trip
	m.trips[plateNumber][trip.CardUID] = &copy
}

// PutTrip stores a trip record directly.
func (m *MockTripStore) PutTrip(plateNumber string, trip *domain.TripState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(plateNumber, trip)
}

// HasTrip reports whether a trip record exists.
func (m *MockTripStore) HasTrip(plateNumber, cardUID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.trips[plateNumber][cardUID]
	return ok
}

// Seen returns the passenger marker of a card, or nil.
func (m *MockTripStore) Seen(plateNumber, cardUID string) *domain.PassengerMarker {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[plateNumber][cardUID]
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is a mock implementation of LocationStoreInterface.
type MockLocationStore struct {
	mu        sync.RWMutex
	locations map[string]domain.Location

	UpdateCallCount int32
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		locations: make(map[string]domain.Location),
	}
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, plateNumber string, lat, lng float64) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[plateNumber] = domain.Location{Latitude: lat, Longitude: lng}
	return nil
}

func (m *MockLocationStore) GetLocation(ctx context.Context, plateNumber string) (*domain.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	loc, ok := m.locations[plateNumber]
	if !ok {
		return nil, nil
	}
	return &loc, nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, plateNumber string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locations, plateNumber)
	return nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]string
	seq   int

	ReleaseCallCount int32
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]string),
	}
}

func (m *MockLockStore) AcquireTripLock(ctx context.Context, plateNumber, cardUID string, ttl time.Duration) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := plateNumber + ":" + cardUID
	if _, held := m.locks[key]; held {
		return "", false, nil
	}
	m.seq++
	token := time.Duration(m.seq).String()
	m.locks[key] = token
	return token, true, nil
}

func (m *MockLockStore) ReleaseTripLock(ctx context.Context, plateNumber, cardUID, token string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	key := plateNumber + ":" + cardUID
	if m.locks[key] == token {
		delete(m.locks, key)
	}
	return nil
}

// IsLocked reports whether the lock for a card on a bus is held.
func (m *MockLockStore) IsLocked(plateNumber, cardUID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, held := m.locks[plateNumber+":"+cardUID]
	return held
}

// ──────────────────────────────────────────────
// MOCK BUS CACHE
// ──────────────────────────────────────────────

// MockBusCache is a mock implementation of BusCacheInterface.
type MockBusCache struct {
	mu    sync.Mutex
	buses map[string]domain.Bus

	GetError error
}

// NewMockBusCache creates a new mock bus cache.
func NewMockBusCache() *MockBusCache {
	return &MockBusCache{buses: make(map[string]domain.Bus)}
}

func (m *MockBusCache) GetBus(ctx context.Context, plateNumber string) (*domain.Bus, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bus, ok := m.buses[plateNumber]
	if !ok {
		return nil, nil
	}
	return &bus, nil
}

func (m *MockBusCache) SetBus(ctx context.Context, bus *domain.Bus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buses[bus.PlateNumber] = *bus
	return nil
}

func (m *MockBusCache) InvalidateBus(ctx context.Context, plateNumber string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buses, plateNumber)
	return nil
}

// Cached reports whether a bus record is cached.
func (m *MockBusCache) Cached(plateNumber string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.buses[plateNumber]
	return ok
}

// ──────────────────────────────────────────────
// MOCK ALERT STORE
// ──────────────────────────────────────────────

// MockAlertStore records operator alerts.
type MockAlertStore struct {
	mu     sync.Mutex
	alerts map[string][]domain.OperatorAlert
}

// NewMockAlertStore creates a new mock alert store.
func NewMockAlertStore() *MockAlertStore {
	return &MockAlertStore{alerts: make(map[string][]domain.OperatorAlert)}
}

func (m *MockAlertStore) PushAlert(ctx context.Context, plateNumber string, alert *domain.OperatorAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts[plateNumber] = append(m.alerts[plateNumber], *alert)
	return nil
}

// Alerts returns the alerts pushed for a bus.
func (m *MockAlertStore) Alerts(plateNumber string) []domain.OperatorAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.OperatorAlert(nil), m.alerts[plateNumber]...)
}

// ──────────────────────────────────────────────
// MOCK DISPATCHER
// ──────────────────────────────────────────────

// SentSMS is one recorded text message.
type SentSMS struct {
	Phone string
	Text  string
}

// SentEmail is one recorded templated email.
type SentEmail struct {
	TemplateID string
	Vars       map[string]string
}

// MockDispatcher records notifications instead of sending them.
type MockDispatcher struct {
	mu     sync.Mutex
	sms    []SentSMS
	emails []SentEmail

	SMSError error
}

// NewMockDispatcher creates a new mock dispatcher.
func NewMockDispatcher() *MockDispatcher {
	return &MockDispatcher{}
}

func (m *MockDispatcher) SendSMS(ctx context.Context, phone, text string) error {
	if m.SMSError != nil {
		return m.SMSError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sms = append(m.sms, SentSMS{Phone: phone, Text: text})
	return nil
}

func (m *MockDispatcher) SendEmailTemplate(ctx context.Context, templateID string, vars map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails = append(m.emails, SentEmail{TemplateID: templateID, Vars: vars})
	return nil
}

// SMS returns the recorded text messages.
func (m *MockDispatcher) SMS() []SentSMS {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentSMS(nil), m.sms...)
}

// Emails returns the recorded emails.
func (m *MockDispatcher) Emails() []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentEmail(nil), m.emails...)
}

// ──────────────────────────────────────────────
// MOCK PUBLISHER
// ──────────────────────────────────────────────

// PublishedMessage is one recorded broker publish.
type PublishedMessage struct {
	Exchange   string
	RoutingKey string
	Body       any
}

// MockPublisher records broker publishes.
type MockPublisher struct {
	mu       sync.Mutex
	messages []PublishedMessage

	PublishError error
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, exchange, routingKey string, body any) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, PublishedMessage{Exchange: exchange, RoutingKey: routingKey, Body: body})
	return nil
}

func (m *MockPublisher) Close() {}

// Messages returns the recorded publishes.
func (m *MockPublisher) Messages() []PublishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PublishedMessage(nil), m.messages...)
}

var (
	_ repository.AccountRepository    = (*MockAccountRepository)(nil)
	_ repository.BusRepository        = (*MockBusRepository)(nil)
	_ repository.SettlementRepository = (*MockSettlementRepository)(nil)
	_ redis.TripStoreInterface        = (*MockTripStore)(nil)
	_ redis.LocationStoreInterface    = (*MockLocationStore)(nil)
	_ redis.LockStoreInterface        = (*MockLockStore)(nil)
	_ redis.BusCacheInterface         = (*MockBusCache)(nil)
	_ redis.AlertStoreInterface       = (*MockAlertStore)(nil)
	_ service.Dispatcher              = (*MockDispatcher)(nil)
	_ rabbitmq.Publisher              = (*MockPublisher)(nil)
)
