package audit

import (
	"context"

	"tripgate/internal/domain"
)

// Store persists audit events. Append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByEntry(ctx context.Context, entryID domain.EntryID) ([]Event, error)
}
