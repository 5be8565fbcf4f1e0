package entity

import "errors"

var (
	// ErrValidation is wrapped with the field-level detail of what failed
	ErrValidation = errors.New("validation failed")
)

var (
	ErrListingNotFound     = errors.New("listing not found or not available")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrPaymentNotFound     = errors.New("payment not found")
)

var (
	// ErrDateConflict is the availability-check failure during checkout
	ErrDateConflict = errors.New("listing is not available for these dates")
	ErrOwnListing   = errors.New("cannot book your own listing")
	ErrListingOff   = errors.New("listing is not open for booking")
)

var (
	// ErrInvalidState rejects operations against a status that does not
	// permit them, on either lifecycle axis
	ErrInvalidState = errors.New("operation not allowed in the current reservation status")
	// ErrNotParticipant rejects actors that are neither the renter nor the
	// listing owner
	ErrNotParticipant = errors.New("user is not a party to this reservation")
)

var (
	// ErrDuplicateSession signals that a payment row for this external
	// session id already exists. Webhook redelivery treats it as success.
	ErrDuplicateSession = errors.New("payment session already recorded")
)
