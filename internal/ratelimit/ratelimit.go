// Package ratelimit provides a minimum-interval limiter for outbound
// API calls. Limiters are constructed and injected explicitly; syncs
// that should share a request budget share one instance.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter permits at most rate calls per second by enforcing a fixed
// minimum interval between permitted calls.
type Limiter struct {
	minInterval time.Duration

	mu   sync.Mutex
	last time.Time
}

// New creates a limiter allowing requestsPerSecond calls per second.
func New(requestsPerSecond float64) *Limiter {
	if requestsPerSecond <= 0 {
		panic("ratelimit: rate must be positive")
	}
	return &Limiter{
		minInterval: time.Duration(float64(time.Second) / requestsPerSecond),
	}
}

// Acquire blocks until one more call may be issued. The first call is
// permitted immediately. The check-sleep-update sequence runs under the
// lock so concurrent callers cannot race past the same interval; the
// new timestamp is taken after the sleep, so drift is absorbed forward.
// Acquire only fails when ctx is cancelled while waiting.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if l.last.IsZero() {
		l.last = now
		return nil
	}

	if wait := l.minInterval - now.Sub(l.last); wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	l.last = time.Now()
	return nil
}
