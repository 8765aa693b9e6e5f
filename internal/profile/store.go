// Package profile stores the per-user source records (passport, personal,
// travel) the payload builder reads from.
package profile

import (
	"context"

	"tripgate/internal/domain"
)

// Store holds one passport and one personal record per user and one travel
// record per (user, destination). Writes are upserts: the mobile client syncs
// the latest captured values and older ones have no audit value here.
type Store interface {
	GetPassport(ctx context.Context, userID domain.UserID) (domain.Passport, error)
	PutPassport(ctx context.Context, userID domain.UserID, p domain.Passport) error

	GetPersonalInfo(ctx context.Context, userID domain.UserID) (domain.PersonalInfo, error)
	PutPersonalInfo(ctx context.Context, userID domain.UserID, p domain.PersonalInfo) error

	GetTravelInfo(ctx context.Context, userID domain.UserID, dest domain.DestinationID) (domain.TravelInfo, error)
	PutTravelInfo(ctx context.Context, userID domain.UserID, t domain.TravelInfo) error
}
