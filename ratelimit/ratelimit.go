// Package ratelimit enforces the minimum interval between page loads.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket with burst 1: the bucket starts full, so the
// first Wait returns immediately and every later Wait blocks until the
// configured interval has elapsed since the previous grant. Timing comes
// from the monotonic clock and carries no jitter.
type Limiter struct {
	interval time.Duration
	limiter  *rate.Limiter
}

// New builds a Limiter with the given minimum interval between grants.
// A zero or negative interval yields a limiter that never blocks.
func New(interval time.Duration) *Limiter {
	if interval <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Limiter{
		interval: interval,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Wait blocks until the limiter grants a slot or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Interval reports the configured minimum gap between grants.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}
