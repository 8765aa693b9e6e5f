//go:build integration

package arrivalcard_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"tripgate/internal/arrivalcard"
	"tripgate/internal/domain"
	"tripgate/internal/entry"
	"tripgate/pkg/platform/sentinel"
	"tripgate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *arrivalcard.PostgresStore
	entries  *entry.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = arrivalcard.NewPostgresStore(s.postgres.DB)
	s.entries = entry.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "digital_arrival_cards", "entry_info")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newEntry(userID domain.UserID) domain.EntryID {
	ctx := context.Background()
	record := &domain.EntryRecord{
		ID:            domain.NewEntryID(),
		UserID:        userID,
		DestinationID: "TH",
		Status:        domain.EntryStatusReady,
		LastUpdatedAt: time.Now().UTC(),
	}
	s.Require().NoError(s.entries.Create(ctx, record))
	return record.ID
}

func (s *PostgresStoreSuite) newCard(entryID domain.EntryID, userID domain.UserID, status domain.SubmissionStatus, submittedAt time.Time) *domain.ArrivalCardSubmission {
	return &domain.ArrivalCardSubmission{
		ID:            domain.NewSubmissionID(),
		EntryID:       entryID,
		UserID:        userID,
		CardType:      domain.CardTypeArrival,
		DestinationID: "TH",
		ArrCardNo:     "TH-" + domain.NewSubmissionID().String()[:8],
		ArrivalDate:   submittedAt.Add(48 * time.Hour),
		SubmittedAt:   submittedAt,
		Method:        domain.SubmissionMethodApp,
		Status:        status,
		Version:       1,
	}
}

// The trigger must displace the prior active row in the same statement, so
// the partial unique index never fires on a resubmission.
func (s *PostgresStoreSuite) TestInsertSupersedesPriorActive() {
	ctx := context.Background()
	userID := domain.NewUserID()
	entryID := s.newEntry(userID)
	now := time.Now().UTC()

	first := s.newCard(entryID, userID, domain.SubmissionStatusSuccess, now.Add(-time.Hour))
	s.Require().NoError(s.store.Insert(ctx, first))

	second := s.newCard(entryID, userID, domain.SubmissionStatusSuccess, now)
	s.Require().NoError(s.store.Insert(ctx, second))

	active, err := s.store.FindActive(ctx, entryID, domain.CardTypeArrival)
	s.Require().NoError(err)
	s.Equal(second.ID, active.ID)

	old, err := s.store.FindByID(ctx, first.ID)
	s.Require().NoError(err)
	s.True(old.IsSuperseded)
	s.Require().NotNil(old.SupersededBy)
	s.Equal(second.ID, *old.SupersededBy)
	s.NotNil(old.SupersededAt)
	s.Equal(arrivalcard.SupersededReasonResubmit, old.SupersededReason)
}

func (s *PostgresStoreSuite) TestFailedRowsNeverDisplace() {
	ctx := context.Background()
	userID := domain.NewUserID()
	entryID := s.newEntry(userID)
	now := time.Now().UTC()

	ok := s.newCard(entryID, userID, domain.SubmissionStatusSuccess, now.Add(-time.Hour))
	s.Require().NoError(s.store.Insert(ctx, ok))
	failed := s.newCard(entryID, userID, domain.SubmissionStatusFailed, now)
	s.Require().NoError(s.store.Insert(ctx, failed))

	active, err := s.store.FindActive(ctx, entryID, domain.CardTypeArrival)
	s.Require().NoError(err)
	s.Equal(ok.ID, active.ID)

	n, err := s.store.CountAttempts(ctx, entryID, domain.CardTypeArrival)
	s.Require().NoError(err)
	s.Equal(2, n)
}

// Concurrent successful inserts must leave exactly one active row no matter
// how they interleave.
func (s *PostgresStoreSuite) TestConcurrentInsertsOneActive() {
	ctx := context.Background()
	userID := domain.NewUserID()
	entryID := s.newEntry(userID)
	const goroutines = 20

	var wg sync.WaitGroup
	var inserted atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			card := s.newCard(entryID, userID, domain.SubmissionStatusSuccess, time.Now().UTC())
			if err := s.store.Insert(ctx, card); err == nil {
				inserted.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Positive(inserted.Load())

	var activeCount int
	err := s.postgres.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM digital_arrival_cards
		WHERE entry_info_id = $1 AND status = 'success' AND is_superseded = FALSE`,
		entryID.String()).Scan(&activeCount)
	s.Require().NoError(err)
	s.Equal(1, activeCount, "exactly one active row must survive")
}

func (s *PostgresStoreSuite) TestFindActiveForTripMatchesCalendarDate() {
	ctx := context.Background()
	userID := domain.NewUserID()
	entryID := s.newEntry(userID)
	now := time.Now().UTC()
	arrival := now.Add(48 * time.Hour)

	card := s.newCard(entryID, userID, domain.SubmissionStatusSuccess, now)
	card.ArrivalDate = arrival
	s.Require().NoError(s.store.Insert(ctx, card))

	found, err := s.store.FindActiveForTrip(ctx, userID, "TH", arrival.Add(30*time.Minute), now.Add(-24*time.Hour))
	s.Require().NoError(err)
	s.Equal(card.ID, found.ID)

	_, err = s.store.FindActiveForTrip(ctx, userID, "TH", arrival.Add(48*time.Hour), now.Add(-24*time.Hour))
	s.True(errors.Is(err, sentinel.ErrNotFound))

	_, err = s.store.FindActiveForTrip(ctx, userID, "SG", arrival, now.Add(-24*time.Hour))
	s.True(errors.Is(err, sentinel.ErrNotFound))
}
