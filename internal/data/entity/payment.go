package entity

import (
	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Payment records one confirmed charge from the payment processor. SessionID
// is unique: a redelivered webhook for the same session can never produce a
// second row.
type Payment struct {
	BaseSimple
	ReservationID   uuid.UUID     `db:"reservation_id"`
	UserID          uuid.UUID     `db:"user_id"`
	ListingID       uuid.UUID     `db:"listing_id"`
	SessionID       string        `db:"session_id"`
	PaymentIntentID string        `db:"payment_intent_id"`
	Amount          float64       `db:"amount"`
	Status          PaymentStatus `db:"status"`
}
