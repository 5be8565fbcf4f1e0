package request

type CreateCheckoutRequest struct {
	ListingID    string  `json:"listing_id" validate:"required,uuid4"`
	StartDate    string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	TotalPrice   float64 `json:"total_price" validate:"required,gt=0"`
	PickupWindow string  `json:"pickup_window,omitempty" validate:"omitempty,max=50"`
	ReturnWindow string  `json:"return_window,omitempty" validate:"omitempty,max=50"`
}

type RentalSetupRequest struct {
	PickupAddress      string `json:"pickup_address" validate:"required,max=500"`
	PickupInstructions string `json:"pickup_instructions" validate:"omitempty,max=2000"`
	PickupWindow       string `json:"pickup_window" validate:"required,max=50"`
	ReturnWindow       string `json:"return_window" validate:"required,max=50"`
}

type CancelReservationRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}
