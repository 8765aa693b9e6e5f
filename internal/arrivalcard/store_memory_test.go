package arrivalcard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripgate/internal/domain"
	"tripgate/pkg/platform/sentinel"
)

func newSubmission(entryID domain.EntryID, userID domain.UserID, status domain.SubmissionStatus, submittedAt time.Time) *domain.ArrivalCardSubmission {
	return &domain.ArrivalCardSubmission{
		ID:            domain.NewSubmissionID(),
		EntryID:       entryID,
		UserID:        userID,
		CardType:      domain.CardTypeArrival,
		DestinationID: "TH",
		ArrivalDate:   submittedAt.Add(48 * time.Hour),
		SubmittedAt:   submittedAt,
		Method:        domain.SubmissionMethodApp,
		Status:        status,
	}
}

func TestInsert_SupersedesPriorActive(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	entryID := domain.NewEntryID()
	userID := domain.NewUserID()
	now := time.Now().UTC()

	first := newSubmission(entryID, userID, domain.SubmissionStatusSuccess, now.Add(-time.Hour))
	require.NoError(t, store.Insert(ctx, first))

	second := newSubmission(entryID, userID, domain.SubmissionStatusSuccess, now)
	require.NoError(t, store.Insert(ctx, second))

	active, err := store.FindActive(ctx, entryID, domain.CardTypeArrival)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	old, err := store.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, old.IsSuperseded)
	require.NotNil(t, old.SupersededBy)
	assert.Equal(t, second.ID, *old.SupersededBy)
	assert.NotNil(t, old.SupersededAt)
	assert.Equal(t, SupersededReasonResubmit, old.SupersededReason)
}

func TestInsert_FailedRowDoesNotSupersede(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	entryID := domain.NewEntryID()
	userID := domain.NewUserID()
	now := time.Now().UTC()

	ok := newSubmission(entryID, userID, domain.SubmissionStatusSuccess, now.Add(-time.Hour))
	require.NoError(t, store.Insert(ctx, ok))

	failed := newSubmission(entryID, userID, domain.SubmissionStatusFailed, now)
	require.NoError(t, store.Insert(ctx, failed))

	active, err := store.FindActive(ctx, entryID, domain.CardTypeArrival)
	require.NoError(t, err)
	assert.Equal(t, ok.ID, active.ID)
	assert.False(t, active.IsSuperseded)
}

func TestInsert_DuplicateID(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	row := newSubmission(domain.NewEntryID(), domain.NewUserID(), domain.SubmissionStatusSuccess, time.Now().UTC())
	require.NoError(t, store.Insert(ctx, row))
	assert.ErrorIs(t, store.Insert(ctx, row), sentinel.ErrConflict)
}

func TestFindActiveForTrip_MatchesCalendarDate(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	userID := domain.NewUserID()
	now := time.Now().UTC()
	arrival := now.Add(48 * time.Hour).Truncate(time.Hour)

	row := newSubmission(domain.NewEntryID(), userID, domain.SubmissionStatusSuccess, now)
	row.ArrivalDate = arrival
	require.NoError(t, store.Insert(ctx, row))

	// Same calendar day, different time of day.
	found, err := store.FindActiveForTrip(ctx, userID, "TH", arrival.Add(30*time.Minute), now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, row.ID, found.ID)

	// Next calendar day misses.
	_, err = store.FindActiveForTrip(ctx, userID, "TH", arrival.Add(24*time.Hour), now.Add(-24*time.Hour))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	// Different destination misses.
	_, err = store.FindActiveForTrip(ctx, userID, "SG", arrival, now.Add(-24*time.Hour))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	// Outside the lookback window misses.
	_, err = store.FindActiveForTrip(ctx, userID, "TH", arrival, now.Add(time.Hour))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestListByEntry_NewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	entryID := domain.NewEntryID()
	userID := domain.NewUserID()
	now := time.Now().UTC()

	older := newSubmission(entryID, userID, domain.SubmissionStatusFailed, now.Add(-2*time.Hour))
	newer := newSubmission(entryID, userID, domain.SubmissionStatusSuccess, now)
	require.NoError(t, store.Insert(ctx, older))
	require.NoError(t, store.Insert(ctx, newer))

	rows, err := store.ListByEntry(ctx, entryID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, newer.ID, rows[0].ID)
	assert.Equal(t, older.ID, rows[1].ID)

	n, err := store.CountAttempts(ctx, entryID, domain.CardTypeArrival)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
