package wire

import (
	"rental-marketplace/internal/adaptor"
	"rental-marketplace/internal/data/repository"
	"rental-marketplace/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireRental(
	r chi.Router,
	rentalHandler *adaptor.RentalHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	r.Route("/api/reservations/{id}", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		// POST /api/reservations/{id}/setup - Owner records pickup logistics
		r.Post("/setup", rentalHandler.Setup)

		// POST /api/reservations/{id}/pickup/confirm - Either party confirms handover
		r.Post("/pickup/confirm", rentalHandler.ConfirmPickup)

		// POST /api/reservations/{id}/pickup/unconfirm - Withdraw before both sides agree
		r.Post("/pickup/unconfirm", rentalHandler.UnconfirmPickup)

		// POST /api/reservations/{id}/return/initiate - Renter starts the return
		r.Post("/return/initiate", rentalHandler.InitiateReturn)

		// POST /api/reservations/{id}/return/confirm - Either party confirms return
		r.Post("/return/confirm", rentalHandler.ConfirmReturn)

		// POST /api/reservations/{id}/return/unconfirm - Withdraw before both sides agree
		r.Post("/return/unconfirm", rentalHandler.UnconfirmReturn)

		// POST /api/reservations/{id}/cancel - Cancel a pending or active reservation
		r.Post("/cancel", rentalHandler.Cancel)
	})
}
