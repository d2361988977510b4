package domain

import "time"

// SettlementStatus represents the delivery state of a settlement.
type SettlementStatus string

const (
	SettlementStatusPending    SettlementStatus = "PENDING"
	SettlementStatusProcessing SettlementStatus = "PROCESSING"
	SettlementStatusApplied    SettlementStatus = "APPLIED"
)

// SettlementKind describes what produced the charge.
type SettlementKind string

const (
	SettlementKindFixedFare      SettlementKind = "FIXED_FARE"
	SettlementKindTripFare       SettlementKind = "TRIP_FARE"
	SettlementKindTripLowBalance SettlementKind = "TRIP_LOW_BALANCE"
)

// Settlement is one deferred charge of a card for a ride on a bus.
// The ID is the idempotency key: applying the same settlement twice has no further effect.
type Settlement struct {
	ID               string
	CardUID          string
	BusPlateNumber   string
	PassengerName    string
	Amount           int64
	Shortfall        int64 // Distance fare not covered by a forced low-balance trip end
	DistanceKm       float64
	Kind             SettlementKind
	RouteDeparture   string
	RouteDestination string
	PreviousBalance  int64
	Status           SettlementStatus
	Attempts         int
	LastError        string
	CreatedAt        time.Time
	AppliedAt        time.Time
}

// ChargedAt is when the charge was decided. It selects the earnings buckets and
// dates the ledger entries, however late the settlement is applied.
func (s *Settlement) ChargedAt(appliedAt time.Time) time.Time {
	if s.CreatedAt.IsZero() {
		return appliedAt
	}
	return s.CreatedAt
}

// Receipt summarizes an applied settlement for the rider.
type Receipt struct {
	ID              string
	SettlementID    string
	CardUID         string
	BusPlateNumber  string
	Departure       string
	Destination     string
	Kind            SettlementKind
	Amount          int64
	PreviousBalance int64
	NewBalance      int64
	DistanceKm      float64
	CreatedAt       time.Time
}
