package domain

// HardwareCode is the stable outcome code consumed by reader firmware.
type HardwareCode string

const (
	CodeUserNotFound           HardwareCode = "USER_NOT_FOUND"
	CodeUserBlocked            HardwareCode = "USER_BLOCKED"
	CodeBusNotFound            HardwareCode = "BUS_NOT_FOUND"
	CodeBusInactive            HardwareCode = "BUS_INACTIVE"
	CodeLowBalance             HardwareCode = "LOW_BALANCE"
	CodeDynamicRouteWelcome    HardwareCode = "DYNAMIC_ROUTE_WELCOME_TO_BUS"
	CodeLocationUnavailable    HardwareCode = "LOCATION_UNAVAILABLE"
	CodeIncompleteTripLocation HardwareCode = "INCOMPLETE_TRIP_LOCATION"
	CodeTripEndedLowBalance    HardwareCode = "TRIP_ENDED_LOW_BALANCE"
	CodeTripComplete           HardwareCode = "TRIP_COMPLETE"
	CodeInsufficientFare       HardwareCode = "INSUFFICIENT_FARE"
	CodePaymentSuccess         HardwareCode = "PAYMENT_SUCCESS"
	CodeServerError            HardwareCode = "SERVER_ERROR"
)

// ResponseStatus is the coarse outcome of a fare request.
type ResponseStatus string

const (
	StatusSuccess  ResponseStatus = "success"
	StatusError    ResponseStatus = "error"
	StatusInfo     ResponseStatus = "info"
	StatusInactive ResponseStatus = "inactive"
)

// TapChannel identifies where a tap came from.
type TapChannel string

const (
	ChannelPubSub TapChannel = "pubsub"
	ChannelDirect TapChannel = "direct"
)

// FareRequest is the canonical tap request.
type FareRequest struct {
	CardUID        string
	BusPlateNumber string
	Channel        TapChannel
}

// FareResponse is the decision returned to the reader. Exactly one is produced per request.
type FareResponse struct {
	CardUID      string         `json:"cardUID"`
	Timestamp    int64          `json:"timestamp"`
	Status       ResponseStatus `json:"status"`
	Message      string         `json:"message"`
	HardwareCode HardwareCode   `json:"hardwareCode"`
	Amount       string         `json:"amount,omitempty"`
	NewBalance   *int64         `json:"newBalance,omitempty"`
}
