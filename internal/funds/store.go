// Package funds manages proof-of-funds items attached to a traveler profile.
package funds

import (
	"context"

	"tripgate/internal/domain"
)

// Store persists fund items. Items belong to a user and carry no link to a
// specific entry: the payload builder snapshots whatever is present at
// submission time.
type Store interface {
	Create(ctx context.Context, item *domain.FundItem) error
	Get(ctx context.Context, id domain.FundItemID) (*domain.FundItem, error)
	ListByUser(ctx context.Context, userID domain.UserID) ([]*domain.FundItem, error)
	Update(ctx context.Context, item *domain.FundItem) error
	Delete(ctx context.Context, id domain.FundItemID) error
}
