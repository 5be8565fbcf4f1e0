package adaptor

import (
	"context"
	"encoding/json"
	"net/http"

	"rental-marketplace/internal/dto/request"
	"rental-marketplace/internal/dto/response"
	"rental-marketplace/internal/usecase"
	"rental-marketplace/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type RentalHandler struct {
	service usecase.RentalService
	log     *zap.Logger
}

func NewRentalHandler(service usecase.RentalService, log *zap.Logger) *RentalHandler {
	return &RentalHandler{
		service: service,
		log:     log.With(zap.String("handler", "rental")),
	}
}

// Setup handles POST /api/reservations/{id}/setup (protected, owner)
func (h *RentalHandler) Setup(w http.ResponseWriter, r *http.Request) {
	userID, reservationID, ok := h.actorAndID(w, r)
	if !ok {
		return
	}

	var req request.RentalSetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	reservation, err := h.service.Setup(r.Context(), userID, reservationID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "set up rental")
		return
	}

	utils.ResponseSuccess(w, "success", reservation)
}

// ConfirmPickup handles POST /api/reservations/{id}/pickup/confirm (protected)
func (h *RentalHandler) ConfirmPickup(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "confirm pickup", h.service.ConfirmPickup)
}

// UnconfirmPickup handles POST /api/reservations/{id}/pickup/unconfirm (protected)
func (h *RentalHandler) UnconfirmPickup(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "unconfirm pickup", h.service.UnconfirmPickup)
}

// InitiateReturn handles POST /api/reservations/{id}/return/initiate (protected)
func (h *RentalHandler) InitiateReturn(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "initiate return", h.service.InitiateReturn)
}

// ConfirmReturn handles POST /api/reservations/{id}/return/confirm (protected)
func (h *RentalHandler) ConfirmReturn(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "confirm return", h.service.ConfirmReturn)
}

// UnconfirmReturn handles POST /api/reservations/{id}/return/unconfirm (protected)
func (h *RentalHandler) UnconfirmReturn(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "unconfirm return", h.service.UnconfirmReturn)
}

// Cancel handles POST /api/reservations/{id}/cancel (protected)
func (h *RentalHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, reservationID, ok := h.actorAndID(w, r)
	if !ok {
		return
	}

	var req request.CancelReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	reservation, err := h.service.Cancel(r.Context(), userID, reservationID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "cancel reservation")
		return
	}

	utils.ResponseSuccess(w, "success", reservation)
}

func (h *RentalHandler) actorAndID(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return "", "", false
	}

	reservationID := chi.URLParam(r, "id")
	if reservationID == "" {
		utils.ResponseBadRequest(w, "Reservation ID is required", nil)
		return "", "", false
	}

	return userID.String(), reservationID, true
}

type transitionFunc func(ctx context.Context, userID, reservationID string) (*response.ReservationResponse, error)

func (h *RentalHandler) transition(w http.ResponseWriter, r *http.Request, operation string, fn transitionFunc) {
	userID, reservationID, ok := h.actorAndID(w, r)
	if !ok {
		return
	}

	reservation, err := fn(r.Context(), userID, reservationID)
	if err != nil {
		handleServiceError(w, h.log, err, operation)
		return
	}

	utils.ResponseSuccess(w, "success", reservation)
}
