package common

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type Analysis struct {
	allowed bool          // If the request is allowed
	wait    time.Duration // The minimal time to wait before the request is allowed
}

type RateLimiter struct {
	mu           sync.Mutex
	restrictions []Restriction // Restrictions to consider
	history      []time.Time   // History of requests
	duration     time.Duration // Min duration to wait for all restrictions to be lifted
	stopwatch    Stopwatch     // Cooldown started when the server reports a rate limit
	clock        Clock
}

func NewRateLimiter(restrictions []Restriction) *RateLimiter {
	rl := &RateLimiter{clock: RealClock{}}
	// Restrictions are just a copy of the provided ones
	rl.restrictions = append([]Restriction(nil), restrictions...)
	// Duration
	for _, restriction := range restrictions {
		if restriction.Duration > rl.duration {
			rl.duration = restriction.Duration
		}
	}
	// Initialise a stopwatch
	rl.stopwatch = NewStopwatch(rl.duration)
	rl.stopwatch.Clock = rl.clock

	return rl
}

// Block until a request is allowed by all the restrictions,
// or the context is done
func (rl *RateLimiter) Wait(ctx context.Context) error {

	for {
		wait := rl.reserve()
		if wait <= 0 {
			return nil
		}
		log.Warn().Msg(fmt.Sprintf("Request delayed %.1f seconds by the rate limiter", wait.Seconds()))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Register a rate limit response from the server.
// No request is allowed until a full restriction window has passed
func (rl *RateLimiter) ReceivedRateLimit() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	log.Warn().Msg(fmt.Sprintf("Rate limit received, cooling down for %s", rl.duration))
	rl.stopwatch.Start()
}

// Try to take a slot for a request. Returns zero if the request
// is allowed (and recorded), or the time to wait otherwise
func (rl *RateLimiter) reserve() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if stopped, remaining := rl.stopwatch.Stopped(); !stopped {
		return remaining
	}

	now := rl.clock.Now()
	rl.trim(now)
	analysis := rl.analyse(now)
	if !analysis.allowed {
		return analysis.wait
	}
	rl.history = append(rl.history, now)
	return 0
}

// Trim the current history, leaving only the requests
// that are young enough to be affected by at least one restriction
func (rl *RateLimiter) trim(now time.Time) {
	// Find the index from which we need to keep the history.
	// Start searching at the end of the slice.
	// Times are stored in chronological order
	index := 0
	for i := len(rl.history) - 1; i >= 0; i-- {
		if now.Sub(rl.history[i]) >= rl.duration {
			index = i + 1
			break
		}
	}
	rl.history = rl.history[index:]
}

func (rl *RateLimiter) analyse(now time.Time) Analysis {

	// Merge the analyses of every restriction
	var wait time.Duration = 0
	allowed := true
	for _, restriction := range rl.restrictions {
		analysis := restriction.Analyse(rl.history, now)
		allowed = allowed && analysis.allowed
		if analysis.wait > wait {
			wait = analysis.wait
		}
	}
	return Analysis{allowed, wait}
}
