package domain

import (
	"strings"
	"time"
)

// TransactionType tags an entry in a card's history.
type TransactionType string

const (
	TransactionTypePayment TransactionType = "payment"
	TransactionTypeTopUp   TransactionType = "topup"
)

// CardAccount represents a transit card holder.
// Balance is in whole currency units.
type CardAccount struct {
	CardUID   string
	FirstName string
	LastName  string
	Phone     string
	Email     string
	Balance   int64
	Blocked   bool
	OnTrip    bool
	CreatedAt time.Time
}

// DisplayName returns the passenger name shown on receipts and the global log.
func (a *CardAccount) DisplayName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Transaction is one entry of a card's append-only history.
type Transaction struct {
	ID      string
	CardUID string
	Amount  int64
	Type    TransactionType
	Date    time.Time
}

// LedgerEntry is one row of the global append-only transaction log.
type LedgerEntry struct {
	ID             string
	SettlementID   string
	CardUID        string
	BusPlateNumber string
	PassengerName  string
	Amount         int64
	Timestamp      time.Time
}
