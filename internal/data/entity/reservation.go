package entity

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus is the commercial lifecycle axis of a reservation.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCompleted
}

func (s BookingStatus) String() string {
	return string(s)
}

// RentalStatus is the physical handoff axis. It only carries meaning while
// the booking status is active.
type RentalStatus string

const (
	RentalStatusPending        RentalStatus = "pending"
	RentalStatusReadyForPickup RentalStatus = "ready_for_pickup"
	RentalStatusPickedUp       RentalStatus = "picked_up"
	RentalStatusInProgress     RentalStatus = "in_progress"
	RentalStatusAwaitingReturn RentalStatus = "awaiting_return"
	RentalStatusReturned       RentalStatus = "returned"
	RentalStatusCompleted      RentalStatus = "completed"
)

// rentalOrder fixes the forward direction of the handoff lifecycle.
var rentalOrder = map[RentalStatus]int{
	RentalStatusPending:        0,
	RentalStatusReadyForPickup: 1,
	RentalStatusPickedUp:       2,
	RentalStatusInProgress:     3,
	RentalStatusAwaitingReturn: 4,
	RentalStatusReturned:       5,
	RentalStatusCompleted:      6,
}

// CanTransitionTo reports whether next is a forward step from s. The pickup
// and return gates may skip the transient picked_up and returned states when
// they fire as one combined transition.
func (s RentalStatus) CanTransitionTo(next RentalStatus) bool {
	cur, ok := rentalOrder[s]
	if !ok {
		return false
	}
	nxt, ok := rentalOrder[next]
	if !ok {
		return false
	}
	return nxt == cur+1 || nxt == cur+2
}

func (s RentalStatus) String() string {
	return string(s)
}

// Party identifies which side of the handoff is acting.
type Party string

const (
	PartyRenter Party = "renter"
	PartyOwner  Party = "owner"
)

type Reservation struct {
	Base
	ListingID  uuid.UUID     `db:"listing_id"`
	RenterID   uuid.UUID     `db:"renter_id"`
	StartDate  time.Time     `db:"start_date"`
	EndDate    time.Time     `db:"end_date"`
	TotalPrice float64       `db:"total_price"`
	Booking    BookingStatus `db:"booking_status"`
	Rental     RentalStatus  `db:"rental_status"`

	PickupAddress      *string `db:"pickup_address"`
	PickupInstructions *string `db:"pickup_instructions"`
	PickupWindow       *string `db:"pickup_window"`
	ReturnWindow       *string `db:"return_window"`

	RenterPickupConfirmed   bool       `db:"renter_pickup_confirmed"`
	RenterPickupConfirmedAt *time.Time `db:"renter_pickup_confirmed_at"`
	OwnerPickupConfirmed    bool       `db:"owner_pickup_confirmed"`
	OwnerPickupConfirmedAt  *time.Time `db:"owner_pickup_confirmed_at"`
	RenterReturnConfirmed   bool       `db:"renter_return_confirmed"`
	RenterReturnConfirmedAt *time.Time `db:"renter_return_confirmed_at"`
	OwnerReturnConfirmed    bool       `db:"owner_return_confirmed"`
	OwnerReturnConfirmedAt  *time.Time `db:"owner_return_confirmed_at"`

	CancelledAt  *time.Time `db:"cancelled_at"`
	CancelReason *string    `db:"cancel_reason"`
	CancelledBy  *string    `db:"cancelled_by"`
}

// PickupConfirmedByBoth reports whether the pickup gate is satisfied
func (r *Reservation) PickupConfirmedByBoth() bool {
	return r.RenterPickupConfirmed && r.OwnerPickupConfirmed
}

// ReturnConfirmedByBoth reports whether the return gate is satisfied
func (r *Reservation) ReturnConfirmedByBoth() bool {
	return r.RenterReturnConfirmed && r.OwnerReturnConfirmed
}

// Overlaps reports whether the reservation's inclusive date range intersects
// [start, end]. A shared calendar day on either boundary is an overlap.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return !r.EndDate.Before(start) && !r.StartDate.After(end)
}
