package arrivalcard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripgate/internal/domain"
)

func TestGuard_NoExistingCard(t *testing.T) {
	ctx := context.Background()
	guard := NewGuard(NewInMemoryStore(), 0)

	dec, err := guard.Check(ctx, domain.NewUserID(), "TH", time.Now().UTC().Add(48*time.Hour), false)
	require.NoError(t, err)
	assert.False(t, dec.Blocked)
	assert.Nil(t, dec.Existing)
}

func TestGuard_BlocksSameTrip(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	guard := NewGuard(store, 0)
	userID := domain.NewUserID()
	arrival := time.Now().UTC().Add(48 * time.Hour)

	existing := newSubmission(domain.NewEntryID(), userID, domain.SubmissionStatusSuccess, time.Now().UTC())
	existing.ArrivalDate = arrival
	require.NoError(t, store.Insert(ctx, existing))

	dec, err := guard.Check(ctx, userID, "TH", arrival, false)
	require.NoError(t, err)
	assert.True(t, dec.Blocked)
	require.NotNil(t, dec.Existing)
	assert.Equal(t, existing.ID, dec.Existing.ID)
}

func TestGuard_ForceBypassesBlock(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	guard := NewGuard(store, 0)
	userID := domain.NewUserID()
	arrival := time.Now().UTC().Add(48 * time.Hour)

	existing := newSubmission(domain.NewEntryID(), userID, domain.SubmissionStatusSuccess, time.Now().UTC())
	existing.ArrivalDate = arrival
	require.NoError(t, store.Insert(ctx, existing))

	dec, err := guard.Check(ctx, userID, "TH", arrival, true)
	require.NoError(t, err)
	assert.False(t, dec.Blocked)
	require.NotNil(t, dec.Existing, "forced decision still reports the card it will supersede")
	assert.Equal(t, existing.ID, dec.Existing.ID)
}

func TestGuard_IgnoresOldTrips(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	guard := NewGuard(store, DefaultDuplicateLookback)
	userID := domain.NewUserID()
	arrival := time.Now().UTC().Add(48 * time.Hour)

	// Submitted well outside the lookback: a previous trip that happens to
	// share the arrival calendar date.
	old := newSubmission(domain.NewEntryID(), userID, domain.SubmissionStatusSuccess, time.Now().UTC().Add(-30*24*time.Hour))
	old.ArrivalDate = arrival
	require.NoError(t, store.Insert(ctx, old))

	dec, err := guard.Check(ctx, userID, "TH", arrival, false)
	require.NoError(t, err)
	assert.False(t, dec.Blocked)
}

func TestGuard_IgnoresFailedAndSuperseded(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	guard := NewGuard(store, 0)
	userID := domain.NewUserID()
	entryID := domain.NewEntryID()
	arrival := time.Now().UTC().Add(48 * time.Hour)

	failed := newSubmission(entryID, userID, domain.SubmissionStatusFailed, time.Now().UTC())
	failed.ArrivalDate = arrival
	require.NoError(t, store.Insert(ctx, failed))

	dec, err := guard.Check(ctx, userID, "TH", arrival, false)
	require.NoError(t, err)
	assert.False(t, dec.Blocked, "failed attempts never block")
}
