package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rental-marketplace/internal/data/entity"
	"rental-marketplace/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// RentalSetup carries the owner's one-time handoff logistics.
type RentalSetup struct {
	PickupAddress      string
	PickupInstructions string
	PickupWindow       string
	ReturnWindow       string
}

type ReservationRepository interface {
	// CreateIfAvailable runs the availability check and the insert in one
	// transaction, serialized per listing, so two concurrent checkouts for
	// overlapping dates cannot both pass the check.
	CreateIfAvailable(ctx context.Context, res *entity.Reservation) error
	HasConflict(ctx context.Context, listingID uuid.UUID, start, end time.Time) (bool, error)

	FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error)
	FindByRenterID(ctx context.Context, renterID uuid.UUID, limit, offset int) ([]*entity.Reservation, error)
	CountByRenterID(ctx context.Context, renterID uuid.UUID) (int64, error)

	// Handoff lifecycle. All of these lock the row, check the state that
	// permits the mutation, and apply it in the same transaction.
	Setup(ctx context.Context, id uuid.UUID, setup *RentalSetup) (*entity.Reservation, error)
	SetPickupConfirmation(ctx context.Context, id uuid.UUID, party entity.Party, confirmed bool) (*entity.Reservation, error)
	SetReturnConfirmation(ctx context.Context, id uuid.UUID, party entity.Party, confirmed bool) (*entity.Reservation, error)
	AdvanceRental(ctx context.Context, id uuid.UUID, from, to entity.RentalStatus) (bool, error)
	Cancel(ctx context.Context, id uuid.UUID, by entity.Party, reason string) (*entity.Reservation, error)

	// Reaper primitives. Both are conditional at mutation time.
	DeleteExpiredPending(ctx context.Context, olderThan time.Duration) (int64, error)
	MarkOverdueAwaitingReturn(ctx context.Context, today time.Time) (int64, error)
}

type reservationRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewReservationRepository(db database.PgxIface, log *zap.Logger) ReservationRepository {
	return &reservationRepository{
		db:  db,
		log: log.With(zap.String("repository", "reservation")),
	}
}

const reservationColumns = `
	id, listing_id, renter_id, start_date, end_date, total_price,
	booking_status, rental_status,
	pickup_address, pickup_instructions, pickup_window, return_window,
	renter_pickup_confirmed, renter_pickup_confirmed_at,
	owner_pickup_confirmed, owner_pickup_confirmed_at,
	renter_return_confirmed, renter_return_confirmed_at,
	owner_return_confirmed, owner_return_confirmed_at,
	cancelled_at, cancel_reason, cancelled_by, created_at, updated_at`

func scanReservation(row pgx.Row) (*entity.Reservation, error) {
	var res entity.Reservation
	err := row.Scan(
		&res.ID,
		&res.ListingID,
		&res.RenterID,
		&res.StartDate,
		&res.EndDate,
		&res.TotalPrice,
		&res.Booking,
		&res.Rental,
		&res.PickupAddress,
		&res.PickupInstructions,
		&res.PickupWindow,
		&res.ReturnWindow,
		&res.RenterPickupConfirmed,
		&res.RenterPickupConfirmedAt,
		&res.OwnerPickupConfirmed,
		&res.OwnerPickupConfirmedAt,
		&res.RenterReturnConfirmed,
		&res.RenterReturnConfirmedAt,
		&res.OwnerReturnConfirmed,
		&res.OwnerReturnConfirmedAt,
		&res.CancelledAt,
		&res.CancelReason,
		&res.CancelledBy,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// conflictQuery implements the availability check: two inclusive date ranges
// conflict when existing.end >= candidate.start AND existing.start <=
// candidate.end, and only pending or active bookings hold dates.
const conflictQuery = `
	SELECT EXISTS (
		SELECT 1 FROM reservations
		WHERE listing_id = $1
		  AND booking_status IN ('pending', 'active')
		  AND end_date >= $2
		  AND start_date <= $3
	)`

func (r *reservationRepository) HasConflict(ctx context.Context, listingID uuid.UUID, start, end time.Time) (bool, error) {
	var conflict bool
	err := r.db.QueryRow(ctx, conflictQuery, listingID, start, end).Scan(&conflict)
	if err != nil {
		r.log.Error("Failed to check availability",
			zap.Error(err),
			zap.String("listing_id", listingID.String()),
		)
		return false, fmt.Errorf("check availability for listing %s: %w", listingID.String(), err)
	}

	return conflict, nil
}

func (r *reservationRepository) CreateIfAvailable(ctx context.Context, res *entity.Reservation) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin checkout tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Per-listing mutual exclusion for the check-then-insert sequence
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1::text))`, res.ListingID); err != nil {
		return fmt.Errorf("acquire listing lock: %w", err)
	}

	var conflict bool
	if err := tx.QueryRow(ctx, conflictQuery, res.ListingID, res.StartDate, res.EndDate).Scan(&conflict); err != nil {
		return fmt.Errorf("check availability in tx: %w", err)
	}
	if conflict {
		return entity.ErrDateConflict
	}

	insert := `
		INSERT INTO reservations (id, listing_id, renter_id, start_date, end_date,
		                          total_price, booking_status, rental_status,
		                          pickup_window, return_window, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = tx.Exec(ctx, insert,
		res.ID,
		res.ListingID,
		res.RenterID,
		res.StartDate,
		res.EndDate,
		res.TotalPrice,
		res.Booking,
		res.Rental,
		res.PickupWindow,
		res.ReturnWindow,
		res.CreatedAt,
		res.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to insert reservation",
			zap.Error(err),
			zap.String("listing_id", res.ListingID.String()),
			zap.String("renter_id", res.RenterID.String()),
		)
		return fmt.Errorf("insert reservation: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *reservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	res, err := scanReservation(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find reservation by ID",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
		return nil, fmt.Errorf("find reservation by ID %s: %w", id.String(), err)
	}

	return res, nil
}

func (r *reservationRepository) FindByRenterID(ctx context.Context, renterID uuid.UUID, limit, offset int) ([]*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE renter_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, renterID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find reservations by renter ID",
			zap.Error(err),
			zap.String("renter_id", renterID.String()),
		)
		return nil, fmt.Errorf("find reservations by renter ID %s: %w", renterID.String(), err)
	}
	defer rows.Close()

	var reservations []*entity.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			r.log.Error("Failed to scan reservation row", zap.Error(err))
			return nil, fmt.Errorf("scan reservation row: %w", err)
		}
		reservations = append(reservations, res)
	}

	return reservations, rows.Err()
}

func (r *reservationRepository) CountByRenterID(ctx context.Context, renterID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM reservations WHERE renter_id = $1`

	var count int64
	err := r.db.QueryRow(ctx, query, renterID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count reservations by renter ID",
			zap.Error(err),
			zap.String("renter_id", renterID.String()),
		)
		return 0, fmt.Errorf("count reservations by renter ID %s: %w", renterID.String(), err)
	}

	return count, nil
}

// lockReservation loads a row FOR UPDATE inside tx. The row is the unit of
// mutual exclusion for every handoff transition.
func (r *reservationRepository) lockReservation(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1 FOR UPDATE`

	res, err := scanReservation(tx.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entity.ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock reservation %s: %w", id.String(), err)
	}

	return res, nil
}

func (r *reservationRepository) Setup(ctx context.Context, id uuid.UUID, setup *RentalSetup) (*entity.Reservation, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin setup tx: %w", err)
	}
	defer tx.Rollback(ctx)

	res, err := r.lockReservation(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if res.Booking != entity.BookingStatusActive || res.Rental != entity.RentalStatusPending {
		return nil, entity.ErrInvalidState
	}

	query := `
		UPDATE reservations
		SET rental_status = $2, pickup_address = $3, pickup_instructions = $4,
		    pickup_window = $5, return_window = $6, updated_at = NOW()
		WHERE id = $1
	`

	_, err = tx.Exec(ctx, query, id,
		entity.RentalStatusReadyForPickup,
		setup.PickupAddress,
		setup.PickupInstructions,
		setup.PickupWindow,
		setup.ReturnWindow,
	)
	if err != nil {
		r.log.Error("Failed to apply rental setup",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
		return nil, fmt.Errorf("apply rental setup %s: %w", id.String(), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit setup tx: %w", err)
	}

	res.Rental = entity.RentalStatusReadyForPickup
	res.PickupAddress = &setup.PickupAddress
	res.PickupInstructions = &setup.PickupInstructions
	res.PickupWindow = &setup.PickupWindow
	res.ReturnWindow = &setup.ReturnWindow
	return res, nil
}

func (r *reservationRepository) SetPickupConfirmation(ctx context.Context, id uuid.UUID, party entity.Party, confirmed bool) (*entity.Reservation, error) {
	return r.setConfirmation(ctx, id, party, confirmed, confirmationPhasePickup)
}

func (r *reservationRepository) SetReturnConfirmation(ctx context.Context, id uuid.UUID, party entity.Party, confirmed bool) (*entity.Reservation, error) {
	return r.setConfirmation(ctx, id, party, confirmed, confirmationPhaseReturn)
}

type confirmationPhase int

const (
	confirmationPhasePickup confirmationPhase = iota
	confirmationPhaseReturn
)

// setConfirmation writes one party's flag and fires the gated transition in
// the same transaction when both flags are true after the write. The gate is
// evaluated on the locked row, never on a stale read.
func (r *reservationRepository) setConfirmation(ctx context.Context, id uuid.UUID, party entity.Party, confirmed bool, phase confirmationPhase) (*entity.Reservation, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin confirmation tx: %w", err)
	}
	defer tx.Rollback(ctx)

	res, err := r.lockReservation(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	gateState := entity.RentalStatusReadyForPickup
	if phase == confirmationPhaseReturn {
		gateState = entity.RentalStatusAwaitingReturn
	}

	if res.Booking != entity.BookingStatusActive || res.Rental != gateState {
		return nil, entity.ErrInvalidState
	}

	column := confirmationColumn(party, phase)
	var confirmedAt *time.Time
	if confirmed {
		now := time.Now()
		confirmedAt = &now
	}

	query := fmt.Sprintf(`
		UPDATE reservations
		SET %s = $2, %s_at = $3, updated_at = NOW()
		WHERE id = $1
	`, column, column)

	if _, err := tx.Exec(ctx, query, id, confirmed, confirmedAt); err != nil {
		r.log.Error("Failed to set confirmation flag",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
			zap.String("party", string(party)),
		)
		return nil, fmt.Errorf("set %s for reservation %s: %w", column, id.String(), err)
	}

	applyConfirmation(res, party, phase, confirmed, confirmedAt)

	if phase == confirmationPhasePickup && res.PickupConfirmedByBoth() {
		// Combined picked_up -> in_progress step: the gate fires straight
		// into the in-use state
		if _, err := tx.Exec(ctx,
			`UPDATE reservations SET rental_status = $2, updated_at = NOW() WHERE id = $1`,
			id, entity.RentalStatusInProgress,
		); err != nil {
			return nil, fmt.Errorf("advance reservation %s to in_progress: %w", id.String(), err)
		}
		res.Rental = entity.RentalStatusInProgress
	}

	if phase == confirmationPhaseReturn && res.ReturnConfirmedByBoth() {
		// Return gate completes both axes at once
		now := time.Now()
		if _, err := tx.Exec(ctx,
			`UPDATE reservations SET rental_status = $2, booking_status = $3, updated_at = $4 WHERE id = $1`,
			id, entity.RentalStatusCompleted, entity.BookingStatusCompleted, now,
		); err != nil {
			return nil, fmt.Errorf("complete reservation %s: %w", id.String(), err)
		}
		res.Rental = entity.RentalStatusCompleted
		res.Booking = entity.BookingStatusCompleted
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit confirmation tx: %w", err)
	}

	return res, nil
}

func confirmationColumn(party entity.Party, phase confirmationPhase) string {
	switch {
	case party == entity.PartyRenter && phase == confirmationPhasePickup:
		return "renter_pickup_confirmed"
	case party == entity.PartyOwner && phase == confirmationPhasePickup:
		return "owner_pickup_confirmed"
	case party == entity.PartyRenter && phase == confirmationPhaseReturn:
		return "renter_return_confirmed"
	default:
		return "owner_return_confirmed"
	}
}

func applyConfirmation(res *entity.Reservation, party entity.Party, phase confirmationPhase, confirmed bool, at *time.Time) {
	switch {
	case party == entity.PartyRenter && phase == confirmationPhasePickup:
		res.RenterPickupConfirmed = confirmed
		res.RenterPickupConfirmedAt = at
	case party == entity.PartyOwner && phase == confirmationPhasePickup:
		res.OwnerPickupConfirmed = confirmed
		res.OwnerPickupConfirmedAt = at
	case party == entity.PartyRenter && phase == confirmationPhaseReturn:
		res.RenterReturnConfirmed = confirmed
		res.RenterReturnConfirmedAt = at
	default:
		res.OwnerReturnConfirmed = confirmed
		res.OwnerReturnConfirmedAt = at
	}
}

// AdvanceRental moves the rental status from one state to the next as a
// single conditional update; returns false when the row was no longer in the
// from state.
func (r *reservationRepository) AdvanceRental(ctx context.Context, id uuid.UUID, from, to entity.RentalStatus) (bool, error) {
	if !from.CanTransitionTo(to) {
		return false, entity.ErrInvalidState
	}

	query := `
		UPDATE reservations
		SET rental_status = $3, updated_at = NOW()
		WHERE id = $1 AND rental_status = $2 AND booking_status = 'active'
	`

	result, err := r.db.Exec(ctx, query, id, from, to)
	if err != nil {
		r.log.Error("Failed to advance rental status",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
		return false, fmt.Errorf("advance reservation %s from %s to %s: %w", id.String(), from, to, err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *reservationRepository) Cancel(ctx context.Context, id uuid.UUID, by entity.Party, reason string) (*entity.Reservation, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin cancel tx: %w", err)
	}
	defer tx.Rollback(ctx)

	res, err := r.lockReservation(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if res.Booking != entity.BookingStatusPending && res.Booking != entity.BookingStatusActive {
		return nil, entity.ErrInvalidState
	}

	now := time.Now()
	query := `
		UPDATE reservations
		SET booking_status = $2, cancelled_at = $3, cancel_reason = $4, cancelled_by = $5, updated_at = $3
		WHERE id = $1
	`

	if _, err := tx.Exec(ctx, query, id, entity.BookingStatusCancelled, now, reason, string(by)); err != nil {
		r.log.Error("Failed to cancel reservation",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
		return nil, fmt.Errorf("cancel reservation %s: %w", id.String(), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit cancel tx: %w", err)
	}

	byStr := string(by)
	res.Booking = entity.BookingStatusCancelled
	res.CancelledAt = &now
	res.CancelReason = &reason
	res.CancelledBy = &byStr
	return res, nil
}

// DeleteExpiredPending reclaims never-paid reservations. The status condition
// is re-checked by the DELETE itself, so a reservation activated between
// selection and mutation survives the sweep.
func (r *reservationRepository) DeleteExpiredPending(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		DELETE FROM reservations
		WHERE booking_status = 'pending' AND created_at < NOW() - $1::interval
	`

	result, err := r.db.Exec(ctx, query, olderThan)
	if err != nil {
		r.log.Error("Failed to delete expired pending reservations", zap.Error(err))
		return 0, fmt.Errorf("delete expired pending reservations: %w", err)
	}

	return result.RowsAffected(), nil
}

// MarkOverdueAwaitingReturn is the sweep half of the time-driven
// in_progress -> awaiting_return transition; reads evaluate it lazily.
func (r *reservationRepository) MarkOverdueAwaitingReturn(ctx context.Context, today time.Time) (int64, error) {
	query := `
		UPDATE reservations
		SET rental_status = $2, updated_at = NOW()
		WHERE booking_status = 'active' AND rental_status = $1 AND end_date < $3
	`

	result, err := r.db.Exec(ctx, query,
		entity.RentalStatusInProgress,
		entity.RentalStatusAwaitingReturn,
		today,
	)
	if err != nil {
		r.log.Error("Failed to mark overdue rentals", zap.Error(err))
		return 0, fmt.Errorf("mark overdue rentals awaiting return: %w", err)
	}

	return result.RowsAffected(), nil
}
