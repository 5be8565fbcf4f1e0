package usecase

import (
	"context"
	"fmt"
	"time"

	"rental-marketplace/internal/data/entity"
	"rental-marketplace/internal/data/repository"
	"rental-marketplace/internal/dto/request"
	"rental-marketplace/internal/dto/response"
	"rental-marketplace/pkg/payment"
	"rental-marketplace/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CheckoutService interface {
	// CreateCheckout creates a pending reservation and a hosted payment
	// session; the reservation only becomes active through the webhook.
	CreateCheckout(ctx context.Context, userID string, req *request.CreateCheckoutRequest) (*response.CheckoutResponse, error)

	GetPaymentStatus(ctx context.Context, sessionID string) (*response.PaymentStatusResponse, error)
	GetUserReservations(ctx context.Context, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReservationResponse], error)
	GetReservationByID(ctx context.Context, userID, reservationID string) (*response.ReservationResponse, error)
}

type checkoutService struct {
	repo    *repository.Repository
	gateway payment.Client
	config  *utils.Config
	log     *zap.Logger
}

func NewCheckoutService(repo *repository.Repository, gateway payment.Client, config *utils.Config, log *zap.Logger) CheckoutService {
	return &checkoutService{
		repo:    repo,
		gateway: gateway,
		config:  config,
		log:     log.With(zap.String("service", "checkout")),
	}
}

func (s *checkoutService) CreateCheckout(ctx context.Context, userID string, req *request.CreateCheckoutRequest) (*response.CheckoutResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create checkout validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", entity.ErrValidation, utils.FormatValidationErrors(errs))
	}

	renterID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID format %s: %w", userID, err)
	}

	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		return nil, fmt.Errorf("invalid listing ID format %s: %w", req.ListingID, err)
	}

	startDate, err := utils.ParseDate(req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: start_date: %v", entity.ErrValidation, err)
	}
	endDate, err := utils.ParseDate(req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: end_date: %v", entity.ErrValidation, err)
	}
	if startDate.After(endDate) {
		return nil, fmt.Errorf("%w: start_date must not be after end_date", entity.ErrValidation)
	}

	listing, err := s.repo.Listing.FindByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("look up listing: %w", err)
	}
	if listing == nil {
		return nil, entity.ErrListingNotFound
	}
	if !listing.IsAvailable {
		return nil, entity.ErrListingOff
	}
	if listing.OwnerID == renterID {
		return nil, entity.ErrOwnListing
	}

	now := time.Now()
	res := &entity.Reservation{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		ListingID:  listingID,
		RenterID:   renterID,
		StartDate:  startDate,
		EndDate:    endDate,
		TotalPrice: req.TotalPrice,
		Booking:    entity.BookingStatusPending,
		Rental:     entity.RentalStatusPending,
	}
	if req.PickupWindow != "" {
		res.PickupWindow = &req.PickupWindow
	}
	if req.ReturnWindow != "" {
		res.ReturnWindow = &req.ReturnWindow
	}

	// Conflict check and insert run atomically per listing inside the repo
	if err := s.repo.Reservation.CreateIfAvailable(ctx, res); err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, &payment.CheckoutSessionParams{
		Amount:      req.TotalPrice,
		Currency:    s.config.Payment.Currency,
		Description: fmt.Sprintf("%s (%s to %s)", listing.Title, req.StartDate, req.EndDate),
		SuccessURL:  s.config.Payment.SuccessURL,
		CancelURL:   s.config.Payment.CancelURL,
		Metadata: map[string]string{
			"reservation_id": res.ID.String(),
			"user_id":        renterID.String(),
			"listing_id":     listingID.String(),
		},
	})
	if err != nil {
		// The pending reservation stays: a retry reuses the availability
		// path and the reaper reclaims it if the user walks away
		s.log.Error("Failed to create payment session",
			zap.Error(err),
			zap.String("reservation_id", res.ID.String()),
		)
		return nil, fmt.Errorf("create payment session for reservation %s: %w", res.ID.String(), err)
	}

	s.log.Info("Checkout created",
		zap.String("reservation_id", res.ID.String()),
		zap.String("session_id", session.ID),
		zap.String("listing_id", listingID.String()),
		zap.String("renter_id", renterID.String()),
		zap.Float64("total_price", req.TotalPrice),
	)

	return &response.CheckoutResponse{
		ReservationID: res.ID.String(),
		SessionID:     session.ID,
		RedirectURL:   session.URL,
	}, nil
}

func (s *checkoutService) GetPaymentStatus(ctx context.Context, sessionID string) (*response.PaymentStatusResponse, error) {
	pay, err := s.repo.Payment.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get payment status: %w", err)
	}
	if pay == nil {
		return nil, entity.ErrPaymentNotFound
	}

	return &response.PaymentStatusResponse{
		Status:        pay.Status,
		ReservationID: pay.ReservationID.String(),
	}, nil
}

func (s *checkoutService) GetUserReservations(ctx context.Context, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReservationResponse], error) {
	renterID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID format %s: %w", userID, err)
	}

	reservations, err := s.repo.Reservation.FindByRenterID(ctx, renterID, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to get user reservations",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		return nil, fmt.Errorf("get user reservations: %w", err)
	}

	total, err := s.repo.Reservation.CountByRenterID(ctx, renterID)
	if err != nil {
		s.log.Error("Failed to count user reservations", zap.Error(err))
		return nil, fmt.Errorf("count user reservations: %w", err)
	}

	reservationResponses := make([]response.ReservationResponse, len(reservations))
	for i, res := range reservations {
		pay, _ := s.repo.Payment.FindByReservationID(ctx, res.ID)
		reservationResponses[i] = *response.ReservationToResponse(res, pay)
	}

	return response.NewPaginatedResponse(reservationResponses, req.Page, req.PerPage, total), nil
}

func (s *checkoutService) GetReservationByID(ctx context.Context, userID, reservationID string) (*response.ReservationResponse, error) {
	actorID, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID format %s: %w", userID, err)
	}

	id, err := uuid.Parse(reservationID)
	if err != nil {
		return nil, fmt.Errorf("invalid reservation ID format %s: %w", reservationID, err)
	}

	res, err := s.repo.Reservation.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	if res == nil {
		return nil, entity.ErrReservationNotFound
	}

	// Visible to its renter and to the listing owner only; everyone else
	// gets not-found rather than an existence hint
	if res.RenterID != actorID {
		listing, err := s.repo.Listing.FindByID(ctx, res.ListingID)
		if err != nil {
			return nil, fmt.Errorf("look up listing for reservation: %w", err)
		}
		if listing == nil || listing.OwnerID != actorID {
			return nil, entity.ErrReservationNotFound
		}
	}

	pay, err := s.repo.Payment.FindByReservationID(ctx, res.ID)
	if err != nil {
		return nil, fmt.Errorf("look up payment for reservation: %w", err)
	}

	return response.ReservationToResponse(res, pay), nil
}
