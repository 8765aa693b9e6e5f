package challenge

import (
	"context"
	"sync"
	"time"

	"tripgate/pkg/platform/sentinel"
)

type memorySession struct {
	session Session
	token   string
}

// InMemorySessionStore keeps challenge sessions in process memory. Used in
// tests and single-instance development runs; production uses Redis so the
// WebView callback can land on any instance.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*memorySession
}

func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[string]*memorySession)}
}

func (s *InMemorySessionStore) Create(_ context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.ID]; exists {
		return sentinel.ErrConflict
	}
	s.sessions[session.ID] = &memorySession{session: session}
	return nil
}

func (s *InMemorySessionStore) PutToken(_ context.Context, sessionID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.live(sessionID)
	if err != nil {
		return err
	}
	sess.token = token
	return nil
}

func (s *InMemorySessionStore) GetToken(_ context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, err := s.live(sessionID)
	if err != nil {
		return "", err
	}
	return sess.token, nil
}

func (s *InMemorySessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// live must be called with the lock held.
func (s *InMemorySessionStore) live(sessionID string) (*memorySession, error) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if time.Now().After(sess.session.ExpiresAt) {
		return nil, sentinel.ErrNotFound
	}
	return sess, nil
}
