package ratelimit

import (
	"context"
	"sync"
	"time"
)

type windowState struct {
	count   int
	resetAt time.Time
}

// InMemoryCounterStore keeps windows in a map guarded by one mutex. Counts
// reset on process restart and are not shared across instances; acceptable
// because export is a convenience feature, not a safety-critical limit.
type InMemoryCounterStore struct {
	mu      sync.Mutex
	windows map[string]windowState
}

func NewInMemoryCounterStore() *InMemoryCounterStore {
	return &InMemoryCounterStore{windows: make(map[string]windowState)}
}

func (s *InMemoryCounterStore) Increment(_ context.Context, principalID string, window time.Duration, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.windows[principalID]
	if !ok || !now.Before(state.resetAt) {
		state = windowState{resetAt: now.Add(window)}
	}
	state.count++
	s.windows[principalID] = state
	return state.count, nil
}
