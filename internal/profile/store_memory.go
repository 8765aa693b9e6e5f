package profile

import (
	"context"
	"sync"

	"tripgate/internal/domain"
	"tripgate/pkg/platform/sentinel"
)

type travelKey struct {
	user domain.UserID
	dest domain.DestinationID
}

// InMemoryStore is the development and test double for the profile store.
type InMemoryStore struct {
	mu        sync.RWMutex
	passports map[domain.UserID]domain.Passport
	personal  map[domain.UserID]domain.PersonalInfo
	travel    map[travelKey]domain.TravelInfo
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		passports: make(map[domain.UserID]domain.Passport),
		personal:  make(map[domain.UserID]domain.PersonalInfo),
		travel:    make(map[travelKey]domain.TravelInfo),
	}
}

func (s *InMemoryStore) GetPassport(_ context.Context, userID domain.UserID) (domain.Passport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.passports[userID]
	if !ok {
		return domain.Passport{}, sentinel.ErrNotFound
	}
	return p, nil
}

func (s *InMemoryStore) PutPassport(_ context.Context, userID domain.UserID, p domain.Passport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passports[userID] = p
	return nil
}

func (s *InMemoryStore) GetPersonalInfo(_ context.Context, userID domain.UserID) (domain.PersonalInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.personal[userID]
	if !ok {
		return domain.PersonalInfo{}, sentinel.ErrNotFound
	}
	return p, nil
}

func (s *InMemoryStore) PutPersonalInfo(_ context.Context, userID domain.UserID, p domain.PersonalInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.personal[userID] = p
	return nil
}

func (s *InMemoryStore) GetTravelInfo(_ context.Context, userID domain.UserID, dest domain.DestinationID) (domain.TravelInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.travel[travelKey{user: userID, dest: dest}]
	if !ok {
		return domain.TravelInfo{}, sentinel.ErrNotFound
	}
	return t, nil
}

func (s *InMemoryStore) PutTravelInfo(_ context.Context, userID domain.UserID, t domain.TravelInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.travel[travelKey{user: userID, dest: t.DestinationID}] = t
	return nil
}
