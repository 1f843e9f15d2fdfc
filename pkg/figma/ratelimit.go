package figma

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kataras/figma-sync/internal/metrics"
	"github.com/kataras/figma-sync/pkg/logger"
)

// RateWindow is the rolling window the call budget applies to.
const RateWindow = time.Hour

// DefaultMaxCallsPerHour is used when no explicit budget is configured.
const DefaultMaxCallsPerHour = 1000

// RateLimitState is the persisted form of the limiter counters.
type RateLimitState struct {
	APICallsThisHour   int       `json:"apiCallsThisHour"`
	LastAPIReset       time.Time `json:"lastApiReset"`
	MaxAPICallsPerHour int       `json:"maxApiCallsPerHour"`
}

// RateLimiter tracks the calls made in the current hour window and persists
// its counters after every change so a restart keeps the remaining budget.
type RateLimiter struct {
	mu     sync.Mutex
	state  RateLimitState
	path   string
	now    func() time.Time
	logger logger.Logger
}

// RateLimiterOption configures a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) RateLimiterOption {
	return func(r *RateLimiter) { r.now = now }
}

// WithRateLimiterLogger sets the logger used for persistence failures.
func WithRateLimiterLogger(l logger.Logger) RateLimiterOption {
	return func(r *RateLimiter) { r.logger = logger.OrNop(l) }
}

// NewRateLimiter loads the persisted counters at path (empty path = memory only).
// A max <= 0 falls back to DefaultMaxCallsPerHour. The configured max always
// wins over the persisted one.
func NewRateLimiter(path string, max int, opts ...RateLimiterOption) (*RateLimiter, error) {
	if max <= 0 {
		max = DefaultMaxCallsPerHour
	}

	r := &RateLimiter{
		path:   path,
		now:    time.Now,
		logger: logger.Nop,
	}
	for _, opt := range opts {
		opt(r)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, &r.state); err != nil {
				r.logger.Warnf("Ignoring unreadable rate limit state %s: %v", path, err)
				r.state = RateLimitState{}
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read rate limit state: %w", err)
		}
	}

	r.state.MaxAPICallsPerHour = max
	if r.state.LastAPIReset.IsZero() {
		r.state.LastAPIReset = r.now()
	}

	return r, nil
}

// rollLocked resets the counter when the window has elapsed. Caller holds mu.
func (r *RateLimiter) rollLocked() {
	now := r.now()
	if now.Sub(r.state.LastAPIReset) > RateWindow {
		r.state.APICallsThisHour = 0
		r.state.LastAPIReset = now
		r.persistLocked()
	}
}

// CanMakeCall reports whether another call fits in the current window.
func (r *RateLimiter) CanMakeCall() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rollLocked()
	return r.state.APICallsThisHour < r.state.MaxAPICallsPerHour
}

// RecordCall counts one call against the window.
func (r *RateLimiter) RecordCall() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rollLocked()
	r.state.APICallsThisHour++
	r.persistLocked()
}

// Acquire checks and records a call in one step. It returns a *RateLimitError
// without recording anything when the budget is exhausted.
func (r *RateLimiter) Acquire() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rollLocked()
	if r.state.APICallsThisHour >= r.state.MaxAPICallsPerHour {
		return &RateLimitError{
			Used:    r.state.APICallsThisHour,
			Max:     r.state.MaxAPICallsPerHour,
			ResetAt: r.state.LastAPIReset.Add(RateWindow),
		}
	}

	r.state.APICallsThisHour++
	r.persistLocked()
	return nil
}

// State returns a copy of the current counters, rolling the window first.
func (r *RateLimiter) State() RateLimitState {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rollLocked()
	return r.state
}

// ResetAt is when the current window ends.
func (r *RateLimiter) ResetAt() time.Time {
	return r.State().LastAPIReset.Add(RateWindow)
}

func (r *RateLimiter) persistLocked() {
	metrics.SetRateBudget(r.state.APICallsThisHour, r.state.MaxAPICallsPerHour)

	if r.path == "" {
		return
	}
	if err := writeFileAtomic(r.path, r.state); err != nil {
		r.logger.Warnf("Could not persist rate limit state: %v", err)
	}
}

// writeFileAtomic marshals v and writes it via temp file + rename.
func writeFileAtomic(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename: %w", err)
	}
	return nil
}
