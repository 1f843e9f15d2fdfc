package syncer

import (
	"context"
	"errors"
	"time"

	"github.com/kataras/figma-sync/internal/metrics"
	"github.com/kataras/figma-sync/pkg/logger"
)

// Results of a scheduler tick.
const (
	TickStarted     = "started"
	TickBusy        = "busy"
	TickRateLimited = "rate_limited"
	TickFresh       = "fresh"
)

// Scheduler periodically starts delta syncs. A tick is dropped, not queued,
// when a sync is already running or the rate budget is exhausted, and also
// when a TTL is set and the cache is younger than it.
type Scheduler struct {
	engine   *Engine
	files    []File
	interval time.Duration
	ttl      time.Duration
	logger   logger.Logger
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithTTL skips ticks while the cache is younger than ttl.
func WithTTL(ttl time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.ttl = ttl }
}

// WithSchedulerLogger sets the scheduler logger.
func WithSchedulerLogger(l logger.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = logger.OrNop(l) }
}

// NewScheduler returns a scheduler firing every interval.
func NewScheduler(engine *Engine, files []File, interval time.Duration, opts ...SchedulerOption) (*Scheduler, error) {
	if engine == nil {
		return nil, errors.New("syncer: engine is required")
	}
	if interval <= 0 {
		return nil, errors.New("syncer: auto sync interval must be positive")
	}

	s := &Scheduler{
		engine:   engine,
		files:    files,
		interval: interval,
		logger:   engine.logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run fires ticks until ctx is done. A sync started by a tick keeps running
// after Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Infof("Auto sync every %s", s.interval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick performs one scheduler firing and returns what it did.
func (s *Scheduler) Tick() string {
	result := s.tick()
	metrics.RecordSchedulerTick(result)
	if result != TickStarted {
		s.logger.Infof("Auto sync tick skipped: %s", result)
	}
	return result
}

func (s *Scheduler) tick() string {
	if s.engine.IsSyncing() {
		return TickBusy
	}
	if s.engine.budget != nil && !s.engine.budget.CanMakeCall() {
		return TickRateLimited
	}
	if s.ttl > 0 {
		stale, err := s.engine.store.IsStale(s.ttl)
		if err != nil {
			s.logger.Warnf("Could not read cache metadata: %v", err)
		} else if !stale {
			return TickFresh
		}
	}
	if !s.engine.Start(Delta, s.files) {
		return TickBusy
	}
	return TickStarted
}
