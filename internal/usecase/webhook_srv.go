package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rental-marketplace/internal/data/entity"
	"rental-marketplace/internal/data/repository"
	"rental-marketplace/pkg/payment"
	"rental-marketplace/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WebhookService consumes at-least-once payment events. Everything past
// signature verification must end in success: a non-2xx response makes the
// processor redeliver forever, so data anomalies are logged and acknowledged.
type WebhookService interface {
	HandleEvent(ctx context.Context, payload []byte, sigHeader string) error
}

type webhookService struct {
	repo      *repository.Repository
	secret    string
	tolerance time.Duration
	log       *zap.Logger
}

func NewWebhookService(repo *repository.Repository, config *utils.Config, log *zap.Logger) WebhookService {
	return &webhookService{
		repo:      repo,
		secret:    config.Payment.WebhookSecret,
		tolerance: time.Duration(config.Payment.ToleranceSeconds) * time.Second,
		log:       log.With(zap.String("service", "webhook")),
	}
}

func (s *webhookService) HandleEvent(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := payment.ConstructEvent(payload, sigHeader, s.secret, s.tolerance)
	if err != nil {
		// Deterministic rejection: a forged or misconfigured delivery will
		// fail the same way on every retry
		s.log.Warn("Webhook rejected", zap.Error(err))
		return err
	}

	if event.Type != payment.EventCheckoutCompleted {
		s.log.Debug("Ignoring webhook event",
			zap.String("event_id", event.ID),
			zap.String("type", event.Type),
		)
		return nil
	}

	session := event.Data.Object

	// First idempotency layer: a payment row for this session means the
	// event was already applied
	existing, err := s.repo.Payment.FindBySessionID(ctx, session.ID)
	if err != nil {
		return fmt.Errorf("idempotency lookup for session %s: %w", session.ID, err)
	}
	if existing != nil {
		s.log.Info("Webhook redelivery ignored",
			zap.String("event_id", event.ID),
			zap.String("session_id", session.ID),
		)
		return nil
	}

	reservationID, userID, listingID, err := parseSessionMetadata(session.Metadata)
	if err != nil {
		// Cannot correlate; acknowledge anyway or the processor retries a
		// delivery that can never succeed
		s.log.Error("Webhook metadata unusable",
			zap.Error(err),
			zap.String("event_id", event.ID),
			zap.String("session_id", session.ID),
		)
		return nil
	}

	res, err := s.repo.Reservation.FindByID(ctx, reservationID)
	if err != nil {
		return fmt.Errorf("look up reservation %s: %w", reservationID.String(), err)
	}
	if res == nil {
		s.log.Warn("Webhook for missing reservation acknowledged",
			zap.String("event_id", event.ID),
			zap.String("session_id", session.ID),
			zap.String("reservation_id", reservationID.String()),
		)
		return nil
	}

	pay := &entity.Payment{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
		},
		ReservationID:   reservationID,
		UserID:          userID,
		ListingID:       listingID,
		SessionID:       session.ID,
		PaymentIntentID: session.PaymentIntent,
		Amount:          session.Amount(),
		Status:          entity.PaymentStatusSucceeded,
	}

	// Second idempotency layer: the unique session id catches concurrent
	// redeliveries that both passed the lookup above
	if err := s.repo.Payment.CreateWithActivation(ctx, pay); err != nil {
		if errors.Is(err, entity.ErrDuplicateSession) {
			s.log.Info("Concurrent webhook redelivery collapsed",
				zap.String("event_id", event.ID),
				zap.String("session_id", session.ID),
			)
			return nil
		}
		return fmt.Errorf("record payment for session %s: %w", session.ID, err)
	}

	s.log.Info("Reservation activated",
		zap.String("event_id", event.ID),
		zap.String("session_id", session.ID),
		zap.String("reservation_id", reservationID.String()),
		zap.Float64("amount", pay.Amount),
	)

	return nil
}

func parseSessionMetadata(metadata map[string]string) (reservationID, userID, listingID uuid.UUID, err error) {
	reservationID, err = uuid.Parse(metadata["reservation_id"])
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, fmt.Errorf("parse reservation_id metadata: %w", err)
	}
	userID, err = uuid.Parse(metadata["user_id"])
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, fmt.Errorf("parse user_id metadata: %w", err)
	}
	listingID, err = uuid.Parse(metadata["listing_id"])
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, fmt.Errorf("parse listing_id metadata: %w", err)
	}
	return reservationID, userID, listingID, nil
}
