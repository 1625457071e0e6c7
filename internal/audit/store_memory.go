package audit

import (
	"context"
	"sort"
	"sync"

	"teampulse/pkg/domain"
)

// InMemoryStore keeps entries in a map guarded by a RWMutex. Used by unit
// tests and single-process deployments.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[domain.EntryID]Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[domain.EntryID]Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = entry
	return nil
}

func (s *InMemoryStore) ListByFeedback(_ context.Context, feedbackID domain.FeedbackID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var entries []Entry
	for _, entry := range s.entries {
		if entry.FeedbackID == feedbackID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].EditedAt.After(entries[j].EditedAt)
	})
	return entries, nil
}

func (s *InMemoryStore) DeleteMany(_ context.Context, ids []domain.EntryID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for _, id := range ids {
		if _, ok := s.entries[id]; ok {
			delete(s.entries, id)
			deleted++
		}
	}
	return deleted, nil
}

// CountByFeedback is a test helper; production code lists entries instead.
func (s *InMemoryStore) CountByFeedback(feedbackID domain.FeedbackID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, entry := range s.entries {
		if entry.FeedbackID == feedbackID {
			count++
		}
	}
	return count
}
