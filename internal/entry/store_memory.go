package entry

import (
	"context"
	"sync"
	"time"

	"tripgate/internal/domain"
	"tripgate/pkg/platform/sentinel"
)

// InMemoryStore mirrors the PostgreSQL invariants for unit tests and
// single-process development runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.EntryID]*domain.EntryRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[domain.EntryID]*domain.EntryRecord)}
}

func (s *InMemoryStore) Create(_ context.Context, record *domain.EntryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *record
	s.records[record.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.EntryID) (*domain.EntryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *record
	return &cp, nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID domain.UserID) ([]*domain.EntryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.EntryRecord
	for _, record := range s.records {
		if record.UserID == userID {
			cp := *record
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryStore) TransitionStatus(_ context.Context, id domain.EntryID, from, to domain.EntryStatus, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if record.Status != from {
		return sentinel.ErrInvalidState
	}
	if !from.CanTransitionTo(to) {
		return sentinel.ErrInvalidState
	}
	record.Status = to
	record.LastUpdatedAt = now
	return nil
}

func (s *InMemoryStore) UpdateCompletion(_ context.Context, id domain.EntryID, m domain.CompletionMetrics, displayStatus string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	record.Completion = m
	record.DisplayStatus = displayStatus
	record.LastUpdatedAt = now
	return nil
}

func (s *InMemoryStore) ExpireStale(_ context.Context, cutoff time.Time, now time.Time) ([]ExpiredEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []ExpiredEntry
	for _, record := range s.records {
		switch record.Status {
		case domain.EntryStatusCompleted, domain.EntryStatusExpired, domain.EntryStatusArchived:
			continue
		}
		if record.LastUpdatedAt.Before(cutoff) {
			record.Status = domain.EntryStatusExpired
			record.LastUpdatedAt = now
			expired = append(expired, ExpiredEntry{ID: record.ID, UserID: record.UserID})
		}
	}
	return expired, nil
}
