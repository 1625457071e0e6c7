package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"teampulse/internal/feedback/models"
	"teampulse/pkg/domain"
	"teampulse/pkg/platform/sentinel"
)

// InMemoryStore keeps records in a map guarded by a RWMutex. The lifecycle
// service combines it with the sharded in-memory transaction so concurrent
// mutations on one record serialize; the store itself only guarantees that
// individual calls are safe.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.FeedbackID]*models.Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[domain.FeedbackID]*models.Record)}
}

func (s *InMemoryStore) Create(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.ID]; exists {
		return sentinel.ErrConflict
	}
	s.records[record.ID] = record.Clone()
	return nil
}

func (s *InMemoryStore) CreateMany(_ context.Context, records []*models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range records {
		if _, exists := s.records[record.ID]; exists {
			return sentinel.ErrConflict
		}
	}
	for _, record := range records {
		s.records[record.ID] = record.Clone()
	}
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.FeedbackID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return record.Clone(), nil
}

// Update persists a mutated record, conditional on the version the caller
// observed before mutating. A version mismatch means a concurrent writer
// committed first; the caller loses with ErrConflict rather than overwriting.
func (s *InMemoryStore) Update(_ context.Context, record *models.Record, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.records[record.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != expectedVersion {
		return sentinel.ErrConflict
	}
	s.records[record.ID] = record.Clone()
	return nil
}

// ExistsRecentByManager reports whether managerID already created feedback
// for employeeID at or after the given cutoff. Backs the bulk-create
// duplicate-submission guard.
func (s *InMemoryStore) ExistsRecentByManager(_ context.Context, managerID, employeeID domain.UserID, since time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, record := range s.records {
		if record.ManagerID == managerID && record.EmployeeID == employeeID && !record.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) List(_ context.Context, query models.ListQuery) ([]*models.Record, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.Record
	for _, record := range s.records {
		if matchesFilter(record, query.Filter) {
			matched = append(matched, record.Clone())
		}
	}
	sortRecords(matched, query.SortBy, query.SortDesc)

	total := len(matched)
	offset := query.Offset()
	if offset >= total {
		return nil, total, nil
	}
	end := offset + query.Limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func matchesFilter(record *models.Record, filter models.ListFilter) bool {
	if !filter.ManagerID.IsNil() && record.ManagerID != filter.ManagerID {
		return false
	}
	if !filter.EmployeeID.IsNil() && record.EmployeeID != filter.EmployeeID {
		return false
	}
	if filter.Sentiment != "" && record.Sentiment != filter.Sentiment {
		return false
	}
	if filter.Acknowledged != nil && record.Acknowledged != *filter.Acknowledged {
		return false
	}
	if !filter.IncludeDeleted && record.Deleted {
		return false
	}
	return true
}

func sortRecords(records []*models.Record, sortBy string, desc bool) {
	less := func(a, b *models.Record) bool {
		switch sortBy {
		case models.SortByUpdatedAt:
			return a.UpdatedAt.Before(b.UpdatedAt)
		case models.SortBySentiment:
			return a.Sentiment < b.Sentiment
		case models.SortByAcknowledgedAt:
			return timeOrZero(a.AcknowledgedAt).Before(timeOrZero(b.AcknowledgedAt))
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		if desc {
			return less(records[j], records[i])
		}
		return less(records[i], records[j])
	})
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
