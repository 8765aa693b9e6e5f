package profile

import (
	"context"

	"tripgate/internal/domain"
	"tripgate/internal/funds"
)

// Accessor satisfies the payload builder's read capability by composing the
// profile store with the fund item store.
type Accessor struct {
	profiles Store
	funds    funds.Store
}

func NewAccessor(profiles Store, fundStore funds.Store) *Accessor {
	return &Accessor{profiles: profiles, funds: fundStore}
}

func (a *Accessor) GetPassport(ctx context.Context, userID domain.UserID) (domain.Passport, error) {
	return a.profiles.GetPassport(ctx, userID)
}

func (a *Accessor) GetPersonalInfo(ctx context.Context, userID domain.UserID) (domain.PersonalInfo, error) {
	return a.profiles.GetPersonalInfo(ctx, userID)
}

func (a *Accessor) GetTravelInfo(ctx context.Context, userID domain.UserID, dest domain.DestinationID) (domain.TravelInfo, error) {
	return a.profiles.GetTravelInfo(ctx, userID, dest)
}

func (a *Accessor) GetFundItems(ctx context.Context, userID domain.UserID) ([]domain.FundItem, error) {
	items, err := a.funds.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.FundItem, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return out, nil
}
