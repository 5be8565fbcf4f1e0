package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"rental-marketplace/internal/data/entity"
	"rental-marketplace/internal/data/repository"
	"rental-marketplace/pkg/payment"
	"rental-marketplace/pkg/utils"

	"github.com/google/uuid"
)

// fakeStore is an in-memory stand-in for postgres. The repo fakes built on
// it replicate the real repositories' guard and gate semantics, including
// the conditional mutations the concurrency tests rely on, under one mutex.
type fakeStore struct {
	mu           sync.Mutex
	listings     map[uuid.UUID]*entity.Listing
	reservations map[uuid.UUID]*entity.Reservation
	payments     map[uuid.UUID]*entity.Payment
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		listings:     make(map[uuid.UUID]*entity.Listing),
		reservations: make(map[uuid.UUID]*entity.Reservation),
		payments:     make(map[uuid.UUID]*entity.Payment),
	}
}

func newFakeRepository(store *fakeStore) *repository.Repository {
	return &repository.Repository{
		Listing:     &fakeListingRepo{store: store},
		Reservation: &fakeReservationRepo{store: store},
		Payment:     &fakePaymentRepo{store: store},
	}
}

func testConfig() *utils.Config {
	return &utils.Config{
		Payment: utils.PaymentConfig{
			Currency:         "usd",
			SuccessURL:       "https://app.test/success",
			CancelURL:        "https://app.test/cancel",
			WebhookSecret:    "whsec_test",
			ToleranceSeconds: 300,
		},
		Reaper: utils.ReaperConfig{
			PendingTTLMinutes:    15,
			SweepIntervalMinutes: 5,
			SweepSecret:          "sweep-secret",
		},
	}
}

func copyReservation(res *entity.Reservation) *entity.Reservation {
	c := *res
	return &c
}

type fakeListingRepo struct {
	store *fakeStore
}

func (r *fakeListingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	listing, ok := r.store.listings[id]
	if !ok {
		return nil, nil
	}
	c := *listing
	return &c, nil
}

type fakeReservationRepo struct {
	store *fakeStore
}

func (r *fakeReservationRepo) CreateIfAvailable(ctx context.Context, res *entity.Reservation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.reservations {
		if existing.ListingID != res.ListingID {
			continue
		}
		if existing.Booking != entity.BookingStatusPending && existing.Booking != entity.BookingStatusActive {
			continue
		}
		if existing.Overlaps(res.StartDate, res.EndDate) {
			return entity.ErrDateConflict
		}
	}

	r.store.reservations[res.ID] = copyReservation(res)
	return nil
}

func (r *fakeReservationRepo) HasConflict(ctx context.Context, listingID uuid.UUID, start, end time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.reservations {
		if existing.ListingID != listingID {
			continue
		}
		if existing.Booking != entity.BookingStatusPending && existing.Booking != entity.BookingStatusActive {
			continue
		}
		if existing.Overlaps(start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeReservationRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	res, ok := r.store.reservations[id]
	if !ok {
		return nil, nil
	}
	return copyReservation(res), nil
}

func (r *fakeReservationRepo) FindByRenterID(ctx context.Context, renterID uuid.UUID, limit, offset int) ([]*entity.Reservation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var matches []*entity.Reservation
	for _, res := range r.store.reservations {
		if res.RenterID == renterID {
			matches = append(matches, copyReservation(res))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	if offset >= len(matches) {
		return nil, nil
	}
	matches = matches[offset:]
	if limit < len(matches) {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r *fakeReservationRepo) CountByRenterID(ctx context.Context, renterID uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var count int64
	for _, res := range r.store.reservations {
		if res.RenterID == renterID {
			count++
		}
	}
	return count, nil
}

func (r *fakeReservationRepo) Setup(ctx context.Context, id uuid.UUID, setup *repository.RentalSetup) (*entity.Reservation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	res, ok := r.store.reservations[id]
	if !ok {
		return nil, entity.ErrReservationNotFound
	}
	if res.Booking != entity.BookingStatusActive || res.Rental != entity.RentalStatusPending {
		return nil, entity.ErrInvalidState
	}

	res.Rental = entity.RentalStatusReadyForPickup
	res.PickupAddress = &setup.PickupAddress
	res.PickupInstructions = &setup.PickupInstructions
	res.PickupWindow = &setup.PickupWindow
	res.ReturnWindow = &setup.ReturnWindow
	res.UpdatedAt = time.Now()
	return copyReservation(res), nil
}

func (r *fakeReservationRepo) SetPickupConfirmation(ctx context.Context, id uuid.UUID, party entity.Party, confirmed bool) (*entity.Reservation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	res, ok := r.store.reservations[id]
	if !ok {
		return nil, entity.ErrReservationNotFound
	}
	if res.Booking != entity.BookingStatusActive || res.Rental != entity.RentalStatusReadyForPickup {
		return nil, entity.ErrInvalidState
	}

	var at *time.Time
	if confirmed {
		now := time.Now()
		at = &now
	}
	if party == entity.PartyRenter {
		res.RenterPickupConfirmed = confirmed
		res.RenterPickupConfirmedAt = at
	} else {
		res.OwnerPickupConfirmed = confirmed
		res.OwnerPickupConfirmedAt = at
	}

	if res.PickupConfirmedByBoth() {
		res.Rental = entity.RentalStatusInProgress
	}
	res.UpdatedAt = time.Now()
	return copyReservation(res), nil
}

func (r *fakeReservationRepo) SetReturnConfirmation(ctx context.Context, id uuid.UUID, party entity.Party, confirmed bool) (*entity.Reservation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	res, ok := r.store.reservations[id]
	if !ok {
		return nil, entity.ErrReservationNotFound
	}
	if res.Booking != entity.BookingStatusActive || res.Rental != entity.RentalStatusAwaitingReturn {
		return nil, entity.ErrInvalidState
	}

	var at *time.Time
	if confirmed {
		now := time.Now()
		at = &now
	}
	if party == entity.PartyRenter {
		res.RenterReturnConfirmed = confirmed
		res.RenterReturnConfirmedAt = at
	} else {
		res.OwnerReturnConfirmed = confirmed
		res.OwnerReturnConfirmedAt = at
	}

	if res.ReturnConfirmedByBoth() {
		res.Rental = entity.RentalStatusCompleted
		res.Booking = entity.BookingStatusCompleted
	}
	res.UpdatedAt = time.Now()
	return copyReservation(res), nil
}

func (r *fakeReservationRepo) AdvanceRental(ctx context.Context, id uuid.UUID, from, to entity.RentalStatus) (bool, error) {
	if !from.CanTransitionTo(to) {
		return false, entity.ErrInvalidState
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	res, ok := r.store.reservations[id]
	if !ok || res.Booking != entity.BookingStatusActive || res.Rental != from {
		return false, nil
	}
	res.Rental = to
	res.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeReservationRepo) Cancel(ctx context.Context, id uuid.UUID, by entity.Party, reason string) (*entity.Reservation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	res, ok := r.store.reservations[id]
	if !ok {
		return nil, entity.ErrReservationNotFound
	}
	if res.Booking != entity.BookingStatusPending && res.Booking != entity.BookingStatusActive {
		return nil, entity.ErrInvalidState
	}

	now := time.Now()
	byStr := string(by)
	res.Booking = entity.BookingStatusCancelled
	res.CancelledAt = &now
	res.CancelReason = &reason
	res.CancelledBy = &byStr
	res.UpdatedAt = now
	return copyReservation(res), nil
}

func (r *fakeReservationRepo) DeleteExpiredPending(ctx context.Context, olderThan time.Duration) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	var deleted int64
	for id, res := range r.store.reservations {
		if res.Booking == entity.BookingStatusPending && res.CreatedAt.Before(cutoff) {
			delete(r.store.reservations, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeReservationRepo) MarkOverdueAwaitingReturn(ctx context.Context, today time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var marked int64
	for _, res := range r.store.reservations {
		if res.Booking == entity.BookingStatusActive &&
			res.Rental == entity.RentalStatusInProgress &&
			res.EndDate.Before(today) {
			res.Rental = entity.RentalStatusAwaitingReturn
			res.UpdatedAt = time.Now()
			marked++
		}
	}
	return marked, nil
}

type fakePaymentRepo struct {
	store *fakeStore
}

func (r *fakePaymentRepo) FindBySessionID(ctx context.Context, sessionID string) (*entity.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, p := range r.store.payments {
		if p.SessionID == sessionID {
			c := *p
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakePaymentRepo) FindByReservationID(ctx context.Context, reservationID uuid.UUID) (*entity.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, p := range r.store.payments {
		if p.ReservationID == reservationID {
			c := *p
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakePaymentRepo) CreateWithActivation(ctx context.Context, pay *entity.Payment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.payments {
		if existing.SessionID == pay.SessionID {
			return entity.ErrDuplicateSession
		}
	}

	c := *pay
	r.store.payments[pay.ID] = &c

	if res, ok := r.store.reservations[pay.ReservationID]; ok && res.Booking == entity.BookingStatusPending {
		res.Booking = entity.BookingStatusActive
		res.UpdatedAt = time.Now()
	}
	return nil
}

// fakeGateway records checkout session requests and answers with a canned
// session or error.
type fakeGateway struct {
	mu       sync.Mutex
	requests []*payment.CheckoutSessionParams
	session  *payment.CheckoutSession
	err      error
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, params *payment.CheckoutSessionParams) (*payment.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.requests = append(g.requests, params)
	if g.err != nil {
		return nil, g.err
	}
	if g.session != nil {
		return g.session, nil
	}
	return &payment.CheckoutSession{
		ID:  "cs_" + uuid.NewString(),
		URL: "https://pay.test/session",
	}, nil
}
