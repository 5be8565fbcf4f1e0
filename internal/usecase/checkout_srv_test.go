package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rental-marketplace/internal/data/entity"
	"rental-marketplace/internal/dto/request"
	"rental-marketplace/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := utils.ParseDate(value)
	require.NoError(t, err)
	return d
}

func seedListing(store *fakeStore, ownerID uuid.UUID, available bool) *entity.Listing {
	listing := &entity.Listing{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       "Cordless drill",
		PricePerDay: 12.50,
		IsAvailable: available,
		CreatedAt:   time.Now(),
	}
	store.mu.Lock()
	store.listings[listing.ID] = listing
	store.mu.Unlock()
	return listing
}

func newCheckoutService(store *fakeStore, gateway *fakeGateway) CheckoutService {
	return NewCheckoutService(newFakeRepository(store), gateway, testConfig(), zap.NewNop())
}

func checkoutRequest(listingID uuid.UUID, start, end string) *request.CreateCheckoutRequest {
	return &request.CreateCheckoutRequest{
		ListingID:  listingID.String(),
		StartDate:  start,
		EndDate:    end,
		TotalPrice: 50,
	}
}

func TestCreateCheckout_Success(t *testing.T) {
	store := newFakeStore()
	gateway := &fakeGateway{}
	svc := newCheckoutService(store, gateway)

	owner := uuid.New()
	renter := uuid.New()
	listing := seedListing(store, owner, true)

	resp, err := svc.CreateCheckout(context.Background(), renter.String(), checkoutRequest(listing.ID, "2026-09-10", "2026-09-12"))
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.NotEmpty(t, resp.ReservationID)
	assert.NotEmpty(t, resp.SessionID)
	assert.NotEmpty(t, resp.RedirectURL)

	// Reservation is held pending; only the webhook activates it
	resID := uuid.MustParse(resp.ReservationID)
	store.mu.Lock()
	res := store.reservations[resID]
	store.mu.Unlock()
	require.NotNil(t, res)
	assert.Equal(t, entity.BookingStatusPending, res.Booking)
	assert.Equal(t, entity.RentalStatusPending, res.Rental)

	// Session metadata carries the correlation ids for the webhook
	require.Len(t, gateway.requests, 1)
	meta := gateway.requests[0].Metadata
	assert.Equal(t, resp.ReservationID, meta["reservation_id"])
	assert.Equal(t, renter.String(), meta["user_id"])
	assert.Equal(t, listing.ID.String(), meta["listing_id"])
}

func TestCreateCheckout_ValidationFailed(t *testing.T) {
	svc := newCheckoutService(newFakeStore(), &fakeGateway{})

	_, err := svc.CreateCheckout(context.Background(), uuid.NewString(), &request.CreateCheckoutRequest{})
	assert.ErrorIs(t, err, entity.ErrValidation)
}

func TestCreateCheckout_StartAfterEnd(t *testing.T) {
	store := newFakeStore()
	svc := newCheckoutService(store, &fakeGateway{})
	listing := seedListing(store, uuid.New(), true)

	_, err := svc.CreateCheckout(context.Background(), uuid.NewString(), checkoutRequest(listing.ID, "2026-09-12", "2026-09-10"))
	assert.ErrorIs(t, err, entity.ErrValidation)
}

func TestCreateCheckout_ListingNotFound(t *testing.T) {
	svc := newCheckoutService(newFakeStore(), &fakeGateway{})

	_, err := svc.CreateCheckout(context.Background(), uuid.NewString(), checkoutRequest(uuid.New(), "2026-09-10", "2026-09-12"))
	assert.ErrorIs(t, err, entity.ErrListingNotFound)
}

func TestCreateCheckout_ListingUnavailable(t *testing.T) {
	store := newFakeStore()
	svc := newCheckoutService(store, &fakeGateway{})
	listing := seedListing(store, uuid.New(), false)

	_, err := svc.CreateCheckout(context.Background(), uuid.NewString(), checkoutRequest(listing.ID, "2026-09-10", "2026-09-12"))
	assert.ErrorIs(t, err, entity.ErrListingOff)
}

func TestCreateCheckout_OwnListing(t *testing.T) {
	store := newFakeStore()
	svc := newCheckoutService(store, &fakeGateway{})
	owner := uuid.New()
	listing := seedListing(store, owner, true)

	_, err := svc.CreateCheckout(context.Background(), owner.String(), checkoutRequest(listing.ID, "2026-09-10", "2026-09-12"))
	assert.ErrorIs(t, err, entity.ErrOwnListing)
}

func TestCreateCheckout_DateConflict(t *testing.T) {
	store := newFakeStore()
	svc := newCheckoutService(store, &fakeGateway{})
	listing := seedListing(store, uuid.New(), true)

	_, err := svc.CreateCheckout(context.Background(), uuid.NewString(), checkoutRequest(listing.ID, "2026-09-10", "2026-09-12"))
	require.NoError(t, err)

	cases := []struct {
		name       string
		start, end string
	}{
		{"identical range", "2026-09-10", "2026-09-12"},
		{"shares last day", "2026-09-12", "2026-09-14"},
		{"shares first day", "2026-09-08", "2026-09-10"},
		{"fully inside", "2026-09-11", "2026-09-11"},
		{"fully covering", "2026-09-01", "2026-09-30"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateCheckout(context.Background(), uuid.NewString(), checkoutRequest(listing.ID, tc.start, tc.end))
			assert.ErrorIs(t, err, entity.ErrDateConflict)
		})
	}

	// Adjacent ranges that share no calendar day are fine
	_, err = svc.CreateCheckout(context.Background(), uuid.NewString(), checkoutRequest(listing.ID, "2026-09-13", "2026-09-15"))
	assert.NoError(t, err)
}

func TestCreateCheckout_GatewayFailureKeepsPending(t *testing.T) {
	store := newFakeStore()
	gateway := &fakeGateway{err: errors.New("processor down")}
	svc := newCheckoutService(store, gateway)
	listing := seedListing(store, uuid.New(), true)

	_, err := svc.CreateCheckout(context.Background(), uuid.NewString(), checkoutRequest(listing.ID, "2026-09-10", "2026-09-12"))
	require.Error(t, err)

	// The pending hold stays in place for the reaper to reclaim
	store.mu.Lock()
	count := len(store.reservations)
	store.mu.Unlock()
	assert.Equal(t, 1, count)
}

func TestCreateCheckout_ConcurrentOverlap_OneWins(t *testing.T) {
	store := newFakeStore()
	svc := newCheckoutService(store, &fakeGateway{})
	listing := seedListing(store, uuid.New(), true)

	const attempts = 10

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateCheckout(context.Background(), uuid.NewString(), checkoutRequest(listing.ID, "2026-09-10", "2026-09-12"))
		}(i)
	}
	wg.Wait()

	var won, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, entity.ErrDateConflict):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, attempts-1, conflicted)
}

func TestGetPaymentStatus(t *testing.T) {
	store := newFakeStore()
	svc := newCheckoutService(store, &fakeGateway{})

	reservationID := uuid.New()
	pay := &entity.Payment{
		BaseSimple:    entity.BaseSimple{ID: uuid.New(), CreatedAt: time.Now()},
		ReservationID: reservationID,
		SessionID:     "cs_123",
		Status:        entity.PaymentStatusSucceeded,
	}
	store.mu.Lock()
	store.payments[pay.ID] = pay
	store.mu.Unlock()

	resp, err := svc.GetPaymentStatus(context.Background(), "cs_123")
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusSucceeded, resp.Status)
	assert.Equal(t, reservationID.String(), resp.ReservationID)

	_, err = svc.GetPaymentStatus(context.Background(), "cs_unknown")
	assert.ErrorIs(t, err, entity.ErrPaymentNotFound)
}

func TestGetReservationByID_Visibility(t *testing.T) {
	store := newFakeStore()
	svc := newCheckoutService(store, &fakeGateway{})

	owner := uuid.New()
	renter := uuid.New()
	listing := seedListing(store, owner, true)

	res := &entity.Reservation{
		Base:      entity.Base{ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()},
		ListingID: listing.ID,
		RenterID:  renter,
		StartDate: mustDate(t, "2026-09-10"),
		EndDate:   mustDate(t, "2026-09-12"),
		Booking:   entity.BookingStatusActive,
		Rental:    entity.RentalStatusPending,
	}
	store.mu.Lock()
	store.reservations[res.ID] = res
	store.mu.Unlock()

	got, err := svc.GetReservationByID(context.Background(), renter.String(), res.ID.String())
	require.NoError(t, err)
	assert.Equal(t, res.ID.String(), got.ID)

	got, err = svc.GetReservationByID(context.Background(), owner.String(), res.ID.String())
	require.NoError(t, err)
	assert.Equal(t, res.ID.String(), got.ID)

	// A stranger gets not-found, not forbidden
	_, err = svc.GetReservationByID(context.Background(), uuid.NewString(), res.ID.String())
	assert.ErrorIs(t, err, entity.ErrReservationNotFound)
}

func TestGetUserReservations_Paginated(t *testing.T) {
	store := newFakeStore()
	svc := newCheckoutService(store, &fakeGateway{})

	renter := uuid.New()
	for i := 0; i < 5; i++ {
		res := &entity.Reservation{
			Base: entity.Base{
				ID:        uuid.New(),
				CreatedAt: time.Now().Add(time.Duration(i) * time.Minute),
				UpdatedAt: time.Now(),
			},
			ListingID: uuid.New(),
			RenterID:  renter,
			StartDate: mustDate(t, "2026-09-10"),
			EndDate:   mustDate(t, "2026-09-12"),
			Booking:   entity.BookingStatusPending,
			Rental:    entity.RentalStatusPending,
		}
		store.mu.Lock()
		store.reservations[res.ID] = res
		store.mu.Unlock()
	}

	resp, err := svc.GetUserReservations(context.Background(), renter.String(), &request.PaginatedRequest{Page: 1, PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, int64(5), resp.Pagination.Total)

	resp, err = svc.GetUserReservations(context.Background(), renter.String(), &request.PaginatedRequest{Page: 3, PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, resp.Data, 1)
}
