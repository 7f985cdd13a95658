package common

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRateLimiter(clock Clock, restrictions ...Restriction) *RateLimiter {
	rl := NewRateLimiter(restrictions)
	rl.clock = clock
	rl.stopwatch.Clock = clock
	return rl
}

func TestRestrictionAnalyse(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	rest := Restriction{Requests: 2, Duration: time.Minute}

	t.Run("empty history", func(t *testing.T) {
		analysis := rest.Analyse(nil, now)
		assert.True(t, analysis.allowed)
		assert.Zero(t, analysis.wait)
	})

	t.Run("below the limit", func(t *testing.T) {
		analysis := rest.Analyse([]time.Time{now.Add(-10 * time.Second)}, now)
		assert.True(t, analysis.allowed)
	})

	t.Run("limit reached", func(t *testing.T) {
		history := []time.Time{now.Add(-50 * time.Second), now.Add(-10 * time.Second)}
		analysis := rest.Analyse(history, now)
		assert.False(t, analysis.allowed)
		assert.Equal(t, 10*time.Second, analysis.wait)
	})

	t.Run("old requests do not count", func(t *testing.T) {
		history := []time.Time{now.Add(-2 * time.Minute), now.Add(-61 * time.Second), now.Add(-1 * time.Second)}
		analysis := rest.Analyse(history, now)
		assert.True(t, analysis.allowed)
	})

	t.Run("zero requests never restrict", func(t *testing.T) {
		none := Restriction{}
		assert.True(t, none.Analyse([]time.Time{now}, now).allowed)
	})
}

func TestRateLimiterReserve(t *testing.T) {
	clock := NewFakeClock(time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))
	rl := newTestRateLimiter(clock, Restriction{Requests: 2, Duration: time.Second})

	assert.Zero(t, rl.reserve())
	assert.Zero(t, rl.reserve())
	assert.Equal(t, time.Second, rl.reserve())

	clock.Advance(time.Second)
	assert.Zero(t, rl.reserve())
	assert.Len(t, rl.history, 1)
}

func TestRateLimiterCooldown(t *testing.T) {
	clock := NewFakeClock(time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))
	rl := newTestRateLimiter(clock, Restriction{Requests: 10, Duration: time.Minute})

	rl.ReceivedRateLimit()
	assert.Equal(t, time.Minute, rl.reserve())

	clock.Advance(45 * time.Second)
	assert.Equal(t, 15*time.Second, rl.reserve())

	clock.Advance(15 * time.Second)
	assert.Zero(t, rl.reserve())
}

func TestRateLimiterWaitHonoursContext(t *testing.T) {
	clock := NewFakeClock(time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))
	rl := newTestRateLimiter(clock, Restriction{Requests: 1, Duration: time.Hour})

	require.NoError(t, rl.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, rl.Wait(ctx), context.Canceled)
}

func TestTimedExecutor(t *testing.T) {
	clock := NewFakeClock(time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))
	runs := 0
	te := NewTimedExecutor(time.Hour, func() { runs++ })
	te.SetClock(clock)

	assert.True(t, te.Execute(), "first call runs the task")
	assert.False(t, te.Execute())

	clock.Advance(59 * time.Minute)
	assert.False(t, te.Execute())

	clock.Advance(time.Minute)
	assert.True(t, te.Execute())
	assert.Equal(t, 2, runs)

	var nilExecutor *TimedExecutor
	assert.False(t, nilExecutor.Execute())
}

func TestStopwatch(t *testing.T) {
	clock := NewFakeClock(time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))
	s := NewStopwatch(10 * time.Second)
	s.Clock = clock

	stopped, _ := s.Stopped()
	assert.True(t, stopped, "a stopwatch that never started is stopped")

	s.Start()
	clock.Advance(4 * time.Second)
	stopped, remaining := s.Stopped()
	assert.False(t, stopped)
	assert.Equal(t, 6*time.Second, remaining)

	s.Stop()
	stopped, _ = s.Stopped()
	assert.True(t, stopped)
}
