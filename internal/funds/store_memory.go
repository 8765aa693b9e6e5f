package funds

import (
	"context"
	"sort"
	"sync"

	"tripgate/internal/domain"
	"tripgate/pkg/platform/sentinel"
)

// InMemoryStore is the development and test double for the fund item store.
type InMemoryStore struct {
	mu    sync.RWMutex
	items map[domain.FundItemID]*domain.FundItem
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{items: make(map[domain.FundItemID]*domain.FundItem)}
}

func (s *InMemoryStore) Create(_ context.Context, item *domain.FundItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[item.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *item
	s.items[cp.ID] = &cp
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.FundItemID) (*domain.FundItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID domain.UserID) ([]*domain.FundItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.FundItem
	for _, item := range s.items {
		if item.UserID == userID {
			cp := *item
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, item *domain.FundItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[item.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *item
	s.items[cp.ID] = &cp
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id domain.FundItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.items, id)
	return nil
}
