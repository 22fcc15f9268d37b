// Package maintenance owns the vector index rebuild lifecycle: a
// periodic background loop plus an on-demand trigger.
package maintenance

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Rebuilder compacts staged vector writes into a fresh partitioned
// snapshot and reports how many vectors it now holds.
type Rebuilder interface {
	Rebuild() int
}

// Service schedules index rebuilds.
type Service struct {
	rebuilder Rebuilder
	interval  time.Duration
	trigger   chan chan int
	logger    *zap.Logger
}

// New creates a maintenance service. A non-positive interval disables
// the periodic loop; manual triggers still work.
func New(rebuilder Rebuilder, interval time.Duration, logger *zap.Logger) *Service {
	return &Service{
		rebuilder: rebuilder,
		interval:  interval,
		trigger:   make(chan chan int),
		logger:    logger,
	}
}

// Rebuild runs a rebuild immediately on the caller's goroutine and
// returns the number of indexed vectors. Safe to call concurrently
// with the background loop; the index swap itself is serialized by
// the engine.
func (s *Service) Rebuild(_ context.Context) int {
	start := time.Now()
	size := s.rebuilder.Rebuild()
	s.logger.Info("index rebuilt",
		zap.Int("vectors", size),
		zap.Duration("took", time.Since(start)),
	)
	return size
}

// Run executes the periodic rebuild loop until ctx is canceled.
func (s *Service) Run(ctx context.Context) {
	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			s.Rebuild(ctx)
		case reply := <-s.trigger:
			reply <- s.Rebuild(ctx)
		}
	}
}

// Trigger asks the running loop for a rebuild and waits for it to
// finish, returning the resulting vector count. Requires Run to be
// active; callers without a loop should use Rebuild directly.
func (s *Service) Trigger(ctx context.Context) (int, error) {
	reply := make(chan int, 1)
	select {
	case s.trigger <- reply:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case size := <-reply:
		return size, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
