package repository

import (
	"rental-marketplace/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Session     SessionRepository
	Listing     ListingRepository
	Reservation ReservationRepository
	Payment     PaymentRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Session:     NewSessionRepository(db, log),
		Listing:     NewListingRepository(db, log),
		Reservation: NewReservationRepository(db, log),
		Payment:     NewPaymentRepository(db, log),
	}
}
