package domain

import "time"

// RouteType represents how a bus prices a trip.
type RouteType string

const (
	RouteTypeFixed   RouteType = "fixed"
	RouteTypeDynamic RouteType = "dynamic"
)

// Route is the pricing configuration of a bus.
type Route struct {
	Type        RouteType
	FareAmount  int64 // Fixed routes only; 0 means the configured default applies
	Departure   string
	Destination string
}

// IsDynamic reports whether the route charges by distance.
func (r Route) IsDynamic() bool {
	return r.Type == RouteTypeDynamic
}

// Bus represents a bus identified by its plate number.
type Bus struct {
	PlateNumber   string
	Active        bool
	Route         Route
	OperatorPhone string
}

// Location is a GPS fix.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DayEarning is the earnings bucket for one calendar day.
type DayEarning struct {
	Day    string `json:"day"`
	Amount int64  `json:"amount"`
}

// MonthEarning is the earnings bucket for one calendar month.
type MonthEarning struct {
	Month  string `json:"month"`
	Amount int64  `json:"amount"`
}

// BusEarnings aggregates committed settlements for a bus.
// Total always equals the sum of the daily buckets and of the monthly buckets.
type BusEarnings struct {
	PlateNumber string
	Weekly      []DayEarning
	Monthly     []MonthEarning
	Total       int64
}

// DayKey returns the UTC calendar day key, e.g. "2025-05-26".
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// MonthKey returns the UTC calendar month key, e.g. "2025-05".
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
