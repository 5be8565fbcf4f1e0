package usecase

import (
	"context"
	"fmt"
	"time"

	"rental-marketplace/internal/data/repository"
	"rental-marketplace/internal/dto/response"
	"rental-marketplace/pkg/utils"

	"go.uber.org/zap"
)

// ReaperService restores liveness: pending reservations that were never paid
// release their date ranges, and rentals past their end date move toward
// return. The webhook may race a sweep; the repo's conditional mutations make
// the first commit win either way.
type ReaperService interface {
	SweepExpired(ctx context.Context) (*response.SweepResponse, error)
}

type reaperService struct {
	repo       *repository.Repository
	pendingTTL time.Duration
	log        *zap.Logger
}

func NewReaperService(repo *repository.Repository, config *utils.Config, log *zap.Logger) ReaperService {
	return &reaperService{
		repo:       repo,
		pendingTTL: time.Duration(config.Reaper.PendingTTLMinutes) * time.Minute,
		log:        log.With(zap.String("service", "reaper")),
	}
}

func (s *reaperService) SweepExpired(ctx context.Context) (*response.SweepResponse, error) {
	reclaimed, err := s.repo.Reservation.DeleteExpiredPending(ctx, s.pendingTTL)
	if err != nil {
		return nil, fmt.Errorf("sweep expired pending reservations: %w", err)
	}

	returnsStarted, err := s.repo.Reservation.MarkOverdueAwaitingReturn(ctx, utils.Today())
	if err != nil {
		return nil, fmt.Errorf("sweep overdue rentals: %w", err)
	}

	if reclaimed > 0 || returnsStarted > 0 {
		s.log.Info("Sweep completed",
			zap.Int64("reclaimed", reclaimed),
			zap.Int64("returns_started", returnsStarted),
		)
	}

	return &response.SweepResponse{
		Reclaimed:      reclaimed,
		ReturnsStarted: returnsStarted,
	}, nil
}
