package challenge

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tripgate/internal/domain"
)

// Session is one challenge rendering owned by one submission attempt. The
// WebView posts the solved token back against the session ID; the extractor
// polls for it.
type Session struct {
	ID        string
	EntryID   domain.EntryID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionTTL bounds how long an unsolved challenge session is kept around.
const SessionTTL = 5 * time.Minute

// SessionStore persists challenge sessions and their solved tokens.
type SessionStore interface {
	Create(ctx context.Context, session Session) error

	// PutToken records the solved token. Returns sentinel.ErrNotFound when
	// the session is unknown or expired.
	PutToken(ctx context.Context, sessionID, token string) error

	// GetToken returns the solved token, or "" while the session exists
	// but is unsolved. Unknown session yields sentinel.ErrNotFound.
	GetToken(ctx context.Context, sessionID string) (string, error)

	Delete(ctx context.Context, sessionID string) error
}

// NewSession mints a session for an entry.
func NewSession(entryID domain.EntryID, now time.Time) Session {
	return Session{
		ID:        uuid.NewString(),
		EntryID:   entryID,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionTTL),
	}
}

// StoreSurface adapts a SessionStore into the Surface the extractor polls.
type StoreSurface struct {
	store   SessionStore
	session Session
}

func NewStoreSurface(store SessionStore, session Session) *StoreSurface {
	return &StoreSurface{store: store, session: session}
}

func (s *StoreSurface) Load(ctx context.Context) error {
	return s.store.Create(ctx, s.session)
}

func (s *StoreSurface) QueryToken(ctx context.Context) (string, error) {
	return s.store.GetToken(ctx, s.session.ID)
}

func (s *StoreSurface) Dispose(ctx context.Context) error {
	return s.store.Delete(ctx, s.session.ID)
}

// SessionID exposes the ID the WebView callback posts against.
func (s *StoreSurface) SessionID() string { return s.session.ID }

// AttachedSurface polls a session the client created ahead of the submission
// call, so the widget can already be on screen while the server starts
// polling. Load verifies the session instead of creating one.
type AttachedSurface struct {
	store     SessionStore
	sessionID string
}

func NewAttachedSurface(store SessionStore, sessionID string) *AttachedSurface {
	return &AttachedSurface{store: store, sessionID: sessionID}
}

func (s *AttachedSurface) Load(ctx context.Context) error {
	_, err := s.store.GetToken(ctx, s.sessionID)
	return err
}

func (s *AttachedSurface) QueryToken(ctx context.Context) (string, error) {
	return s.store.GetToken(ctx, s.sessionID)
}

func (s *AttachedSurface) Dispose(ctx context.Context) error {
	return s.store.Delete(ctx, s.sessionID)
}
