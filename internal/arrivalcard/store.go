// Package arrivalcard owns persisted submission attempts and the duplicate
// guard that consults them.
package arrivalcard

import (
	"context"
	"time"

	"tripgate/internal/domain"
)

// SupersededReasonResubmit is written onto rows displaced by a forced
// resubmission.
const SupersededReasonResubmit = "superseded by newer successful submission"

// Store persists arrival-card submission attempts. Rows are append-only:
// superseding mutates flags in place, deletion never happens.
//
// Invariant upheld by every implementation: per (entry, card type) at most
// one row has status=success and is_superseded=false. Inserting a new
// success row supersedes prior active rows atomically with the insert.
type Store interface {
	Insert(ctx context.Context, submission *domain.ArrivalCardSubmission) error
	FindByID(ctx context.Context, id domain.SubmissionID) (*domain.ArrivalCardSubmission, error)

	// FindActive returns the live success row for the key, or
	// sentinel.ErrNotFound.
	FindActive(ctx context.Context, entryID domain.EntryID, cardType domain.CardType) (*domain.ArrivalCardSubmission, error)

	// FindActiveForTrip looks across entries: the live success for the
	// same user, destination, and arrival calendar date, submitted at or
	// after `since`. Used by the duplicate guard.
	FindActiveForTrip(ctx context.Context, userID domain.UserID, dest domain.DestinationID, arrivalDate time.Time, since time.Time) (*domain.ArrivalCardSubmission, error)

	// ListByEntry returns all attempts for an entry, newest first.
	ListByEntry(ctx context.Context, entryID domain.EntryID) ([]*domain.ArrivalCardSubmission, error)

	// CountAttempts counts prior attempts for the key, for retry counters.
	CountAttempts(ctx context.Context, entryID domain.EntryID, cardType domain.CardType) (int, error)
}
