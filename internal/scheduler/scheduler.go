package scheduler

import (
	"context"
	"time"

	"rental-marketplace/internal/dto/response"

	"go.uber.org/zap"
)

// sweeper is the sliver of ReaperService the scheduler needs
type sweeper interface {
	SweepExpired(ctx context.Context) (*response.SweepResponse, error)
}

// Scheduler drives the background sweep loop. It is the liveness guarantee:
// abandoned checkouts release their dates without any user action.
type Scheduler struct {
	reaper   sweeper
	interval time.Duration
	log      *zap.Logger
}

func New(reaper sweeper, interval time.Duration, log *zap.Logger) *Scheduler {
	return &Scheduler{
		reaper:   reaper,
		interval: interval,
		log:      log.With(zap.String("service", "scheduler")),
	}
}

// Start blocks until ctx is cancelled, sweeping once per interval.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("Scheduler started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	result, err := s.reaper.SweepExpired(ctx)
	if err != nil {
		s.log.Error("Failed to sweep expired reservations", zap.Error(err))
		return
	}

	if result.Reclaimed > 0 || result.ReturnsStarted > 0 {
		s.log.Info("Sweep tick",
			zap.Int64("reclaimed", result.Reclaimed),
			zap.Int64("returns_started", result.ReturnsStarted),
		)
	}
}
