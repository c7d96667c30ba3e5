// CLAUDE:SUMMARY Sliding-window request rate limiter with injectable clock for deterministic tests.
// Package ratelimit implements a sliding-window request throttle.
//
// The limiter tracks request timestamps inside a trailing one-second
// window. Wait blocks the calling goroutine (never others) until issuing
// one more request stays within the configured rate, then records the
// new timestamp.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter throttles callers to a maximum number of requests per second.
type Limiter struct {
	mu      sync.Mutex
	perSec  float64
	history []time.Time

	// now and sleep are swappable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source. Used in tests with a fake clock.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithSleeper overrides the sleep function. Used in tests to avoid real waits.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Limiter) { l.sleep = sleep }
}

// New creates a Limiter allowing perSec requests within any trailing second.
func New(perSec float64, opts ...Option) *Limiter {
	if perSec <= 0 {
		perSec = 1
	}
	l := &Limiter{
		perSec: perSec,
		now:    time.Now,
		sleep:  sleepCtx,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Wait blocks until one more request fits in the trailing one-second
// window, then records it. Returns early with ctx.Err() on cancellation.
// The internal lock is never held across a sleep.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.prune(now)

		if float64(len(l.history)) < l.perSec {
			l.history = append(l.history, now)
			l.mu.Unlock()
			return nil
		}

		// Window is full: wait until the oldest timestamp ages out.
		wait := time.Second - now.Sub(l.history[0])
		l.mu.Unlock()

		if wait <= 0 {
			continue
		}
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// InWindow returns the number of timestamps inside the current window.
func (l *Limiter) InWindow() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.history)
}

// prune drops timestamps older than one second. Caller holds mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-time.Second)
	i := 0
	for i < len(l.history) && !l.history[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.history = append(l.history[:0], l.history[i:]...)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
