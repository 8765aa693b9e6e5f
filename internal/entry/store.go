// Package entry owns entry records: one user's preparation state for one
// destination trip.
package entry

import (
	"context"
	"time"

	"tripgate/internal/domain"
)

// Store is interface-driven so the submission pipeline can be exercised
// against the in-memory implementation while production runs on PostgreSQL.
type Store interface {
	Create(ctx context.Context, record *domain.EntryRecord) error
	FindByID(ctx context.Context, id domain.EntryID) (*domain.EntryRecord, error)
	ListByUser(ctx context.Context, userID domain.UserID) ([]*domain.EntryRecord, error)

	// TransitionStatus is a compare-and-set on status. It fails with
	// sentinel.ErrInvalidState when the row is no longer in `from`, which
	// is what keeps two pipelines from both moving ready -> submitted.
	TransitionStatus(ctx context.Context, id domain.EntryID, from, to domain.EntryStatus, now time.Time) error

	// UpdateCompletion refreshes the denormalized completion metrics.
	UpdateCompletion(ctx context.Context, id domain.EntryID, m domain.CompletionMetrics, displayStatus string, now time.Time) error

	// ExpireStale marks entries expired whose preparation went dormant
	// before the cutoff and never completed. Returns the expired entries
	// so the caller can audit each one.
	ExpireStale(ctx context.Context, cutoff time.Time, now time.Time) ([]ExpiredEntry, error)
}

// ExpiredEntry identifies one entry retired by ExpireStale.
type ExpiredEntry struct {
	ID     domain.EntryID
	UserID domain.UserID
}
