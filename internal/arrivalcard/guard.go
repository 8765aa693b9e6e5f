package arrivalcard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tripgate/internal/domain"
	"tripgate/pkg/platform/sentinel"
)

// DefaultDuplicateLookback bounds how far back the guard searches for a
// matching active card. Cards older than this are treated as belonging to a
// previous trip even when the destination and arrival date coincide.
const DefaultDuplicateLookback = 7 * 24 * time.Hour

// Decision is the outcome of a duplicate check.
type Decision struct {
	Blocked  bool
	Existing *domain.ArrivalCardSubmission
}

// Guard blocks a submission when an active card already exists for the same
// trip key (user, destination, arrival calendar date). A forced submission
// bypasses the block but still reports the card it will supersede.
type Guard struct {
	store    Store
	lookback time.Duration
}

// NewGuard builds a Guard over store. A non-positive lookback falls back to
// DefaultDuplicateLookback.
func NewGuard(store Store, lookback time.Duration) *Guard {
	if lookback <= 0 {
		lookback = DefaultDuplicateLookback
	}
	return &Guard{store: store, lookback: lookback}
}

// Check looks up the most recent active card matching the trip key. When one
// exists and force is false the decision is Blocked with the existing card
// attached; when force is true the decision allows the submission and carries
// the card that will be superseded on insert.
func (g *Guard) Check(ctx context.Context, userID domain.UserID, destination domain.DestinationID, arrivalDate time.Time, force bool) (Decision, error) {
	since := time.Now().UTC().Add(-g.lookback)
	existing, err := g.store.FindActiveForTrip(ctx, userID, destination, arrivalDate, since)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Decision{}, nil
		}
		return Decision{}, fmt.Errorf("duplicate lookup: %w", err)
	}
	if existing == nil {
		return Decision{}, nil
	}
	return Decision{Blocked: !force, Existing: existing}, nil
}
