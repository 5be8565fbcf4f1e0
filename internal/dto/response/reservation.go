package response

import (
	"time"

	"rental-marketplace/internal/data/entity"
	"rental-marketplace/pkg/utils"
)

type CheckoutResponse struct {
	ReservationID string `json:"reservation_id"`
	SessionID     string `json:"session_id"`
	RedirectURL   string `json:"redirect_url"`
}

type ConfirmationState struct {
	Confirmed   bool       `json:"confirmed"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}

type ReservationResponse struct {
	ID            string               `json:"id"`
	ListingID     string               `json:"listing_id"`
	RenterID      string               `json:"renter_id"`
	StartDate     string               `json:"start_date"`
	EndDate       string               `json:"end_date"`
	TotalPrice    float64              `json:"total_price"`
	BookingStatus entity.BookingStatus `json:"booking_status"`
	RentalStatus  entity.RentalStatus  `json:"rental_status"`

	PickupAddress      *string `json:"pickup_address,omitempty"`
	PickupInstructions *string `json:"pickup_instructions,omitempty"`
	PickupWindow       *string `json:"pickup_window,omitempty"`
	ReturnWindow       *string `json:"return_window,omitempty"`

	RenterPickupConfirmation ConfirmationState `json:"renter_pickup_confirmation"`
	OwnerPickupConfirmation  ConfirmationState `json:"owner_pickup_confirmation"`
	RenterReturnConfirmation ConfirmationState `json:"renter_return_confirmation"`
	OwnerReturnConfirmation  ConfirmationState `json:"owner_return_confirmation"`

	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CancelReason *string    `json:"cancel_reason,omitempty"`
	CancelledBy  *string    `json:"cancelled_by,omitempty"`

	Payment   *PaymentResponse `json:"payment,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

type PaymentResponse struct {
	ID            string               `json:"id"`
	ReservationID string               `json:"reservation_id"`
	SessionID     string               `json:"session_id"`
	Amount        float64              `json:"amount"`
	Status        entity.PaymentStatus `json:"status"`
	CreatedAt     time.Time            `json:"created_at"`
}

type PaymentStatusResponse struct {
	Status        entity.PaymentStatus `json:"status"`
	ReservationID string               `json:"reservation_id"`
}

type SweepResponse struct {
	Reclaimed      int64 `json:"reclaimed"`
	ReturnsStarted int64 `json:"returns_started"`
}

func ReservationToResponse(res *entity.Reservation, payment *entity.Payment) *ReservationResponse {
	resp := &ReservationResponse{
		ID:            res.ID.String(),
		ListingID:     res.ListingID.String(),
		RenterID:      res.RenterID.String(),
		StartDate:     utils.FormatDate(res.StartDate),
		EndDate:       utils.FormatDate(res.EndDate),
		TotalPrice:    res.TotalPrice,
		BookingStatus: res.Booking,
		RentalStatus:  res.Rental,

		PickupAddress:      res.PickupAddress,
		PickupInstructions: res.PickupInstructions,
		PickupWindow:       res.PickupWindow,
		ReturnWindow:       res.ReturnWindow,

		RenterPickupConfirmation: ConfirmationState{res.RenterPickupConfirmed, res.RenterPickupConfirmedAt},
		OwnerPickupConfirmation:  ConfirmationState{res.OwnerPickupConfirmed, res.OwnerPickupConfirmedAt},
		RenterReturnConfirmation: ConfirmationState{res.RenterReturnConfirmed, res.RenterReturnConfirmedAt},
		OwnerReturnConfirmation:  ConfirmationState{res.OwnerReturnConfirmed, res.OwnerReturnConfirmedAt},

		CancelledAt:  res.CancelledAt,
		CancelReason: res.CancelReason,
		CancelledBy:  res.CancelledBy,
		CreatedAt:    res.CreatedAt,
	}

	if payment != nil {
		paymentResp := PaymentToResponse(payment)
		resp.Payment = &paymentResp
	}

	return resp
}

func PaymentToResponse(payment *entity.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            payment.ID.String(),
		ReservationID: payment.ReservationID.String(),
		SessionID:     payment.SessionID,
		Amount:        payment.Amount,
		Status:        payment.Status,
		CreatedAt:     payment.CreatedAt,
	}
}
