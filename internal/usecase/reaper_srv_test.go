package usecase

import (
	"context"
	"testing"
	"time"

	"rental-marketplace/internal/data/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newReaperService(store *fakeStore) ReaperService {
	return NewReaperService(newFakeRepository(store), testConfig(), zap.NewNop())
}

func seedAgedReservation(t *testing.T, store *fakeStore, booking entity.BookingStatus, rental entity.RentalStatus, age time.Duration, endDate string) *entity.Reservation {
	t.Helper()
	res := &entity.Reservation{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: time.Now().Add(-age),
			UpdatedAt: time.Now().Add(-age),
		},
		ListingID: uuid.New(),
		RenterID:  uuid.New(),
		StartDate: mustDate(t, "2026-09-10"),
		EndDate:   mustDate(t, endDate),
		Booking:   booking,
		Rental:    rental,
	}
	store.mu.Lock()
	store.reservations[res.ID] = res
	store.mu.Unlock()
	return res
}

func TestSweepExpired_ReclaimsOnlyAgedPending(t *testing.T) {
	store := newFakeStore()
	svc := newReaperService(store)

	// TTL is 15 minutes in the test config
	expired := seedAgedReservation(t, store, entity.BookingStatusPending, entity.RentalStatusPending, 30*time.Minute, "2026-09-12")
	fresh := seedAgedReservation(t, store, entity.BookingStatusPending, entity.RentalStatusPending, time.Minute, "2026-09-12")
	active := seedAgedReservation(t, store, entity.BookingStatusActive, entity.RentalStatusPending, 30*time.Minute, "2026-09-12")

	result, err := svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Reclaimed)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.NotContains(t, store.reservations, expired.ID)
	assert.Contains(t, store.reservations, fresh.ID)
	assert.Contains(t, store.reservations, active.ID)
}

func TestSweepExpired_MarksOverdueRentals(t *testing.T) {
	store := newFakeStore()
	svc := newReaperService(store)

	overdue := seedAgedReservation(t, store, entity.BookingStatusActive, entity.RentalStatusInProgress, time.Hour, "2020-01-02")
	current := seedAgedReservation(t, store, entity.BookingStatusActive, entity.RentalStatusInProgress, time.Hour, "2099-01-02")
	notPicked := seedAgedReservation(t, store, entity.BookingStatusActive, entity.RentalStatusReadyForPickup, time.Hour, "2020-01-02")

	result, err := svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.ReturnsStarted)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, entity.RentalStatusAwaitingReturn, store.reservations[overdue.ID].Rental)
	assert.Equal(t, entity.RentalStatusInProgress, store.reservations[current.ID].Rental)
	assert.Equal(t, entity.RentalStatusReadyForPickup, store.reservations[notPicked.ID].Rental)
}

func TestSweepExpired_SparesJustActivated(t *testing.T) {
	store := newFakeStore()
	svc := newReaperService(store)

	// A webhook activated this reservation moments before the sweep; the
	// delete condition re-checks status at mutation time
	aged := seedAgedReservation(t, store, entity.BookingStatusPending, entity.RentalStatusPending, 30*time.Minute, "2026-09-12")

	store.mu.Lock()
	store.reservations[aged.ID].Booking = entity.BookingStatusActive
	store.mu.Unlock()

	result, err := svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Reclaimed)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Contains(t, store.reservations, aged.ID)
}

func TestSweepExpired_EmptyStore(t *testing.T) {
	svc := newReaperService(newFakeStore())

	result, err := svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Reclaimed)
	assert.Equal(t, int64(0), result.ReturnsStarted)
}
