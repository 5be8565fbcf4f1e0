package usecase

import (
	"context"
	"fmt"

	"rental-marketplace/internal/data/entity"
	"rental-marketplace/internal/data/repository"
	"rental-marketplace/internal/dto/request"
	"rental-marketplace/internal/dto/response"
	"rental-marketplace/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RentalService drives the physical handoff lifecycle of an active
// reservation: setup -> ready_for_pickup -> in_progress -> awaiting_return
// -> completed, with a dual-party confirmation gate on each handoff.
type RentalService interface {
	Setup(ctx context.Context, userID, reservationID string, req *request.RentalSetupRequest) (*response.ReservationResponse, error)
	ConfirmPickup(ctx context.Context, userID, reservationID string) (*response.ReservationResponse, error)
	UnconfirmPickup(ctx context.Context, userID, reservationID string) (*response.ReservationResponse, error)
	InitiateReturn(ctx context.Context, userID, reservationID string) (*response.ReservationResponse, error)
	ConfirmReturn(ctx context.Context, userID, reservationID string) (*response.ReservationResponse, error)
	UnconfirmReturn(ctx context.Context, userID, reservationID string) (*response.ReservationResponse, error)
	Cancel(ctx context.Context, userID, reservationID string, req *request.CancelReservationRequest) (*response.ReservationResponse, error)
}

type rentalService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewRentalService(repo *repository.Repository, log *zap.Logger) RentalService {
	return &rentalService{
		repo: repo,
		log:  log.With(zap.String("service", "rental")),
	}
}

// resolveParty loads the reservation and decides which side of the handoff
// the acting user is. Strangers get not-found, never an existence hint.
func (s *rentalService) resolveParty(ctx context.Context, userID, reservationID string) (*entity.Reservation, entity.Party, error) {
	actorID, err := uuid.Parse(userID)
	if err != nil {
		return nil, "", fmt.Errorf("invalid user ID format %s: %w", userID, err)
	}

	id, err := uuid.Parse(reservationID)
	if err != nil {
		return nil, "", fmt.Errorf("invalid reservation ID format %s: %w", reservationID, err)
	}

	res, err := s.repo.Reservation.FindByID(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("look up reservation: %w", err)
	}
	if res == nil {
		return nil, "", entity.ErrReservationNotFound
	}

	if res.RenterID == actorID {
		return res, entity.PartyRenter, nil
	}

	listing, err := s.repo.Listing.FindByID(ctx, res.ListingID)
	if err != nil {
		return nil, "", fmt.Errorf("look up listing for reservation: %w", err)
	}
	if listing != nil && listing.OwnerID == actorID {
		return res, entity.PartyOwner, nil
	}

	return nil, "", entity.ErrReservationNotFound
}

func (s *rentalService) Setup(ctx context.Context, userID, reservationID string, req *request.RentalSetupRequest) (*response.ReservationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Rental setup validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", entity.ErrValidation, utils.FormatValidationErrors(errs))
	}

	res, party, err := s.resolveParty(ctx, userID, reservationID)
	if err != nil {
		return nil, err
	}
	if party != entity.PartyOwner {
		return nil, entity.ErrNotParticipant
	}

	updated, err := s.repo.Reservation.Setup(ctx, res.ID, &repository.RentalSetup{
		PickupAddress:      req.PickupAddress,
		PickupInstructions: req.PickupInstructions,
		PickupWindow:       req.PickupWindow,
		ReturnWindow:       req.ReturnWindow,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Rental setup completed",
		zap.String("reservation_id", updated.ID.String()),
		zap.String("owner_id", userID),
	)

	return response.ReservationToResponse(updated, nil), nil
}

func (s *rentalService) ConfirmPickup(ctx context.Context, userID, reservationID string) (*response.ReservationResponse, error) {
	return s.setPickupFlag(ctx, userID, reservationID, true)
}

func (s *rentalService) UnconfirmPickup(ctx context.Context, userID, reservationID string) (*response.ReservationResponse, error) {
	return s.setPickupFlag(ctx, userID, reservationID, false)
}

func (s *rentalService) setPickupFlag(ctx context.Context, userID, reservationID string, confirmed bool) (*response.ReservationResponse, error) {
	res, party, err := s.resolveParty(ctx, userID, reservationID)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Reservation.SetPickupConfirmation(ctx, res.ID, party, confirmed)
	if err != nil {
		return nil, err
	}

	s.log.Info("Pickup confirmation updated",
		zap.String("reservation_id", updated.ID.String()),
		zap.String("party", string(party)),
		zap.Bool("confirmed", confirmed),
		zap.String("rental_status", updated.Rental.String()),
	)

	return response.ReservationToResponse(updated, nil), nil
}

func (s *rentalService) InitiateReturn(ctx context.Context, userID, reservationID string) (*response.ReservationResponse, error) {
	res, party, err := s.resolveParty(ctx, userID, reservationID)
	if err != nil {
		return nil, err
	}

	if res.Rental != entity.RentalStatusInProgress {
		return nil, entity.ErrInvalidState
	}

	advanced, err := s.repo.Reservation.AdvanceRental(ctx, res.ID, entity.RentalStatusInProgress, entity.RentalStatusAwaitingReturn)
	if err != nil {
		return nil, err
	}
	if !advanced {
		// Lost a race: someone else already moved it on
		return nil, entity.ErrInvalidState
	}

	res.Rental = entity.RentalStatusAwaitingReturn

	s.log.Info("Return initiated",
		zap.String("reservation_id", res.ID.String()),
		zap.String("party", string(party)),
	)

	return response.ReservationToResponse(res, nil), nil
}

func (s *rentalService) ConfirmReturn(ctx context.Context, userID, reservationID string) (*response.ReservationResponse, error) {
	return s.setReturnFlag(ctx, userID, reservationID, true)
}

func (s *rentalService) UnconfirmReturn(ctx context.Context, userID, reservationID string) (*response.ReservationResponse, error) {
	return s.setReturnFlag(ctx, userID, reservationID, false)
}

func (s *rentalService) setReturnFlag(ctx context.Context, userID, reservationID string, confirmed bool) (*response.ReservationResponse, error) {
	res, party, err := s.resolveParty(ctx, userID, reservationID)
	if err != nil {
		return nil, err
	}

	// Lazy half of the time-driven transition: a rental past its end date
	// moves to awaiting_return the moment a return operation touches it
	if res.Rental == entity.RentalStatusInProgress && res.EndDate.Before(utils.Today()) {
		if _, err := s.repo.Reservation.AdvanceRental(ctx, res.ID, entity.RentalStatusInProgress, entity.RentalStatusAwaitingReturn); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.Reservation.SetReturnConfirmation(ctx, res.ID, party, confirmed)
	if err != nil {
		return nil, err
	}

	s.log.Info("Return confirmation updated",
		zap.String("reservation_id", updated.ID.String()),
		zap.String("party", string(party)),
		zap.Bool("confirmed", confirmed),
		zap.String("rental_status", updated.Rental.String()),
		zap.String("booking_status", updated.Booking.String()),
	)

	return response.ReservationToResponse(updated, nil), nil
}

func (s *rentalService) Cancel(ctx context.Context, userID, reservationID string, req *request.CancelReservationRequest) (*response.ReservationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Cancel validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", entity.ErrValidation, utils.FormatValidationErrors(errs))
	}

	res, party, err := s.resolveParty(ctx, userID, reservationID)
	if err != nil {
		return nil, err
	}

	cancelled, err := s.repo.Reservation.Cancel(ctx, res.ID, party, req.Reason)
	if err != nil {
		return nil, err
	}

	s.log.Info("Reservation cancelled",
		zap.String("reservation_id", cancelled.ID.String()),
		zap.String("cancelled_by", string(party)),
		zap.String("reason", req.Reason),
	)

	return response.ReservationToResponse(cancelled, nil), nil
}
