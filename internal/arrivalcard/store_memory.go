package arrivalcard

import (
	"context"
	"sort"
	"sync"
	"time"

	"tripgate/internal/domain"
	"tripgate/pkg/platform/sentinel"
)

// InMemoryStore mirrors the PostgreSQL supersede trigger in process memory.
type InMemoryStore struct {
	mu   sync.RWMutex
	rows map[domain.SubmissionID]*domain.ArrivalCardSubmission
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{rows: make(map[domain.SubmissionID]*domain.ArrivalCardSubmission)}
}

func (s *InMemoryStore) Insert(_ context.Context, submission *domain.ArrivalCardSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rows[submission.ID]; exists {
		return sentinel.ErrConflict
	}

	cp := *submission
	// What the AFTER INSERT trigger does in PostgreSQL: a new success row
	// displaces every prior active row for the same key.
	if cp.Status == domain.SubmissionStatusSuccess {
		now := cp.SubmittedAt
		for _, row := range s.rows {
			if row.EntryID == cp.EntryID && row.CardType == cp.CardType && row.Active() {
				superseder := cp.ID
				at := now
				row.IsSuperseded = true
				row.SupersededBy = &superseder
				row.SupersededAt = &at
				row.SupersededReason = SupersededReasonResubmit
			}
		}
	}
	s.rows[cp.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.SubmissionID) (*domain.ArrivalCardSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (s *InMemoryStore) FindActive(_ context.Context, entryID domain.EntryID, cardType domain.CardType) (*domain.ArrivalCardSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, row := range s.rows {
		if row.EntryID == entryID && row.CardType == cardType && row.Active() {
			cp := *row
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindActiveForTrip(_ context.Context, userID domain.UserID, dest domain.DestinationID, arrivalDate time.Time, since time.Time) (*domain.ArrivalCardSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wantDate := arrivalDate.UTC().Truncate(24 * time.Hour)
	for _, row := range s.rows {
		if row.UserID != userID || row.DestinationID != dest || !row.Active() {
			continue
		}
		if row.ArrivalDate.UTC().Truncate(24*time.Hour) != wantDate {
			continue
		}
		if row.SubmittedAt.Before(since) {
			continue
		}
		cp := *row
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByEntry(_ context.Context, entryID domain.EntryID) ([]*domain.ArrivalCardSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.ArrivalCardSubmission
	for _, row := range s.rows {
		if row.EntryID == entryID {
			cp := *row
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (s *InMemoryStore) CountAttempts(_ context.Context, entryID domain.EntryID, cardType domain.CardType) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, row := range s.rows {
		if row.EntryID == entryID && row.CardType == cardType {
			n++
		}
	}
	return n, nil
}
