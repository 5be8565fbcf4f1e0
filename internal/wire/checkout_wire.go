package wire

import (
	"rental-marketplace/internal/adaptor"
	"rental-marketplace/internal/data/repository"
	"rental-marketplace/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireCheckout(
	r chi.Router,
	checkoutHandler *adaptor.CheckoutHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// All checkout routes require an authenticated caller
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		// POST /api/checkout - Reserve dates and open a payment session
		r.Post("/api/checkout", checkoutHandler.CreateCheckout)

		// GET /api/payments/{sessionID} - Poll payment session status
		r.Get("/api/payments/{sessionID}", checkoutHandler.GetPaymentStatus)

		// GET /api/user/reservations - List caller's reservations
		r.Get("/api/user/reservations", checkoutHandler.GetUserReservations)

		// GET /api/reservations/{id} - Reservation details (renter or owner)
		r.Get("/api/reservations/{id}", checkoutHandler.GetReservation)
	})
}
