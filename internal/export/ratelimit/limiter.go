// Package ratelimit gates the export surface with a per-principal fixed
// window. The counter store is injected so single-process deployments can run
// the in-memory store while multi-instance deployments share counts through
// Redis; there is no package-level state.
package ratelimit

import (
	"context"
	"time"
)

// CounterStore atomically increments a principal's counter within the current
// window, creating or resetting the window as needed, and returns the count
// after the increment. Atomic increment-or-reset (not read-then-write) is
// required so concurrent bursts from one principal are not undercounted.
type CounterStore interface {
	Increment(ctx context.Context, principalID string, window time.Duration, now time.Time) (int, error)
}

// Limiter allows up to Limit invocations per principal per Window.
type Limiter struct {
	store  CounterStore
	limit  int
	window time.Duration
}

// Default export budget: 5 invocations per rolling 60-minute window.
const (
	DefaultLimit  = 5
	DefaultWindow = time.Hour
)

func New(store CounterStore, limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{store: store, limit: limit, window: window}
}

// Allow consumes one slot for the principal and reports whether the request
// is within budget. Denied requests still consume nothing beyond the counter
// bump; the window resets lazily on the first call after it elapses.
func (l *Limiter) Allow(ctx context.Context, principalID string) (bool, error) {
	count, err := l.store.Increment(ctx, principalID, l.window, time.Now())
	if err != nil {
		return false, err
	}
	return count <= l.limit, nil
}
