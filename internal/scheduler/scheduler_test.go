package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"rental-marketplace/internal/dto/response"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeSweeper struct {
	calls  atomic.Int64
	result *response.SweepResponse
	err    error
}

func (f *fakeSweeper) SweepExpired(ctx context.Context) (*response.SweepResponse, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestScheduler_TickSweeps(t *testing.T) {
	reaper := &fakeSweeper{result: &response.SweepResponse{Reclaimed: 1}}

	s := New(reaper, 30*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	s.Start(ctx)

	assert.GreaterOrEqual(t, reaper.calls.Load(), int64(2))
}

func TestScheduler_KeepsTickingAfterError(t *testing.T) {
	reaper := &fakeSweeper{err: errors.New("db down")}

	s := New(reaper, 30*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	s.Start(ctx)

	assert.GreaterOrEqual(t, reaper.calls.Load(), int64(2))
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	reaper := &fakeSweeper{result: &response.SweepResponse{}}

	s := New(reaper, time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on context cancel")
	}
}
