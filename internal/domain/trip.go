package domain

// TripState is the open dynamic-route trip of one card on one bus.
// Its existence in the real-time store is what marks the trip as open.
type TripState struct {
	CardUID       string   `json:"cardUID"`
	PassengerName string   `json:"name,omitempty"`
	StartTime     int64    `json:"startTime"` // epoch ms
	StartLat      *float64 `json:"startLat,omitempty"`
	StartLon      *float64 `json:"startLon,omitempty"`
}

// NewTripState creates a trip state starting at the given fix.
func NewTripState(cardUID, passengerName string, startTime int64, start Location) *TripState {
	lat, lon := start.Latitude, start.Longitude
	return &TripState{
		CardUID:       cardUID,
		PassengerName: passengerName,
		StartTime:     startTime,
		StartLat:      &lat,
		StartLon:      &lon,
	}
}

// StartFix returns the stored start location, or false if either coordinate is missing.
func (t *TripState) StartFix() (Location, bool) {
	if t.StartLat == nil || t.StartLon == nil {
		return Location{}, false
	}
	return Location{Latitude: *t.StartLat, Longitude: *t.StartLon}, true
}

// PassengerMarker records that a card has been seen on a bus.
type PassengerMarker struct {
	CardUID       string `json:"cardUID"`
	PassengerName string `json:"name,omitempty"`
	Timestamp     int64  `json:"timestamp"`
}

// OperatorAlert is a message for the bus operator's console.
type OperatorAlert struct {
	Type      string `json:"type"`
	CardUID   string `json:"cardUID"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}
