package figma

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func TestRateLimiter_GatedCallsNeverExceedBudget(t *testing.T) {
	clock := newClock()
	r, err := NewRateLimiter("", 3, WithClock(clock.Now))
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		if r.CanMakeCall() {
			r.RecordCall()
		}
		assert.LessOrEqual(t, r.State().APICallsThisHour, 3)
	}
	assert.False(t, r.CanMakeCall())
	assert.Equal(t, 3, r.State().APICallsThisHour)
}

func TestRateLimiter_ResetsAfterWindow(t *testing.T) {
	clock := newClock()
	r, err := NewRateLimiter("", 2, WithClock(clock.Now))
	require.NoError(t, err)

	require.NoError(t, r.Acquire())
	require.NoError(t, r.Acquire())
	assert.False(t, r.CanMakeCall())

	clock.Advance(RateWindow)
	assert.False(t, r.CanMakeCall(), "exactly one hour is still inside the window")

	clock.Advance(time.Second)
	assert.True(t, r.CanMakeCall())
	assert.Equal(t, 0, r.State().APICallsThisHour)
	assert.Equal(t, clock.Now(), r.State().LastAPIReset)
}

func TestRateLimiter_AcquireReturnsRateLimitError(t *testing.T) {
	clock := newClock()
	r, err := NewRateLimiter("", 1, WithClock(clock.Now))
	require.NoError(t, err)

	require.NoError(t, r.Acquire())
	err = r.Acquire()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimitExceeded))

	var rlErr *RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, clock.Now().Add(RateWindow), rlErr.ResetAt)
	assert.Equal(t, 1, r.State().APICallsThisHour, "denied calls are not recorded")
}

func TestRateLimiter_PersistsAcrossRestart(t *testing.T) {
	clock := newClock()
	path := filepath.Join(t.TempDir(), "rate_limit.json")

	r, err := NewRateLimiter(path, 5, WithClock(clock.Now))
	require.NoError(t, err)
	r.RecordCall()
	r.RecordCall()

	clock.Advance(10 * time.Minute)
	restarted, err := NewRateLimiter(path, 5, WithClock(clock.Now))
	require.NoError(t, err)

	state := restarted.State()
	assert.Equal(t, 2, state.APICallsThisHour)
	assert.Equal(t, clock.Now().Add(-10*time.Minute), state.LastAPIReset)
	assert.Equal(t, clock.Now().Add(50*time.Minute), restarted.ResetAt())
}

func TestRateLimiter_ConfiguredMaxWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rate_limit.json")

	r, err := NewRateLimiter(path, 5)
	require.NoError(t, err)
	r.RecordCall()

	r, err = NewRateLimiter(path, 50)
	require.NoError(t, err)
	assert.Equal(t, 50, r.State().MaxAPICallsPerHour)

	r, err = NewRateLimiter("", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxCallsPerHour, r.State().MaxAPICallsPerHour)
}
