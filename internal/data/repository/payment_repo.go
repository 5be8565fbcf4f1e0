package repository

import (
	"context"
	"errors"
	"fmt"

	"rental-marketplace/internal/data/entity"
	"rental-marketplace/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// pgUniqueViolation is the postgres error code for unique constraint hits
const pgUniqueViolation = "23505"

type PaymentRepository interface {
	FindBySessionID(ctx context.Context, sessionID string) (*entity.Payment, error)
	FindByReservationID(ctx context.Context, reservationID uuid.UUID) (*entity.Payment, error)

	// CreateWithActivation inserts the payment row and flips the reservation
	// to active in one transaction. The unique session_id constraint makes
	// concurrent redeliveries collapse into ErrDuplicateSession.
	CreateWithActivation(ctx context.Context, payment *entity.Payment) error
}

type paymentRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPaymentRepository(db database.PgxIface, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment")),
	}
}

const paymentColumns = `
	id, reservation_id, user_id, listing_id, session_id, payment_intent_id,
	amount, status, created_at`

func scanPayment(row pgx.Row) (*entity.Payment, error) {
	var p entity.Payment
	err := row.Scan(
		&p.ID,
		&p.ReservationID,
		&p.UserID,
		&p.ListingID,
		&p.SessionID,
		&p.PaymentIntentID,
		&p.Amount,
		&p.Status,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) FindBySessionID(ctx context.Context, sessionID string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE session_id = $1`

	payment, err := scanPayment(r.db.QueryRow(ctx, query, sessionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by session ID",
			zap.Error(err),
			zap.String("session_id", sessionID),
		)
		return nil, fmt.Errorf("find payment by session ID %s: %w", sessionID, err)
	}

	return payment, nil
}

func (r *paymentRepository) FindByReservationID(ctx context.Context, reservationID uuid.UUID) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE reservation_id = $1 ORDER BY created_at LIMIT 1`

	payment, err := scanPayment(r.db.QueryRow(ctx, query, reservationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by reservation ID",
			zap.Error(err),
			zap.String("reservation_id", reservationID.String()),
		)
		return nil, fmt.Errorf("find payment by reservation ID %s: %w", reservationID.String(), err)
	}

	return payment, nil
}

func (r *paymentRepository) CreateWithActivation(ctx context.Context, payment *entity.Payment) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin activation tx: %w", err)
	}
	defer tx.Rollback(ctx)

	insert := `
		INSERT INTO payments (id, reservation_id, user_id, listing_id, session_id,
		                      payment_intent_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = tx.Exec(ctx, insert,
		payment.ID,
		payment.ReservationID,
		payment.UserID,
		payment.ListingID,
		payment.SessionID,
		payment.PaymentIntentID,
		payment.Amount,
		payment.Status,
		payment.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return entity.ErrDuplicateSession
		}
		r.log.Error("Failed to insert payment",
			zap.Error(err),
			zap.String("session_id", payment.SessionID),
		)
		return fmt.Errorf("insert payment for session %s: %w", payment.SessionID, err)
	}

	// Only a pending reservation flips; an already-active one is a safe
	// no-op against the missed-payment-row edge case
	activate := `
		UPDATE reservations
		SET booking_status = $2, updated_at = NOW()
		WHERE id = $1 AND booking_status = $3
	`

	if _, err := tx.Exec(ctx, activate,
		payment.ReservationID,
		entity.BookingStatusActive,
		entity.BookingStatusPending,
	); err != nil {
		r.log.Error("Failed to activate reservation",
			zap.Error(err),
			zap.String("reservation_id", payment.ReservationID.String()),
		)
		return fmt.Errorf("activate reservation %s: %w", payment.ReservationID.String(), err)
	}

	return tx.Commit(ctx)
}
