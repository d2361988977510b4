package service

import "errors"

var (
	// ErrInvalidCardUID is returned when card UID is empty.
	ErrInvalidCardUID = errors.New("invalid card uid")

	// ErrInvalidBusPlate is returned when bus plate number is empty.
	ErrInvalidBusPlate = errors.New("invalid bus plate number")

	// ErrTapInProgress is returned when another tap of the same card on the same bus holds the trip lock.
	ErrTapInProgress = errors.New("tap already in progress for card")

	// ErrTripStateConflict is returned when the trip record changed between check and write.
	ErrTripStateConflict = errors.New("trip state changed concurrently")

	// ErrPublishFailed is returned when a decided fare response could not be delivered.
	ErrPublishFailed = errors.New("failed to publish fare response")

	// ErrInvalidAmount is returned when a top-up amount is not positive.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidLocation is returned when location coordinates are invalid.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrSettlementAlreadyApplied is returned when a settlement was committed before.
	ErrSettlementAlreadyApplied = errors.New("settlement already applied")
)
