// Package submission orchestrates one arrival-card submission attempt end to
// end: payload build, window gate, duplicate guard, challenge token, remote
// call, persistence.
package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"tripgate/internal/arrivalcard"
	"tripgate/internal/audit"
	"tripgate/internal/challenge"
	"tripgate/internal/domain"
	"tripgate/internal/entry"
	"tripgate/internal/platform/config"
	"tripgate/internal/remote"
	"tripgate/internal/traveler"
	"tripgate/internal/window"
	"tripgate/pkg/platform/sentinel"
)

// Options tune one Submit call.
type Options struct {
	// Force bypasses the duplicate guard; the prior card is superseded.
	Force bool

	// SessionID attaches to a challenge session the client created before
	// calling Submit, so the widget is already on screen. Empty means the
	// orchestrator mints its own session.
	SessionID string

	// Method is recorded on the attempt. Defaults to app.
	Method domain.SubmissionMethod

	// OnProgress receives challenge poll progress.
	OnProgress func(challenge.Progress)
}

// Service runs the pipeline. All dependencies are required except metrics.
type Service struct {
	entries   entry.Store
	builder   *traveler.Builder
	guard     *arrivalcard.Guard
	cards     arrivalcard.Store
	sessions  challenge.SessionStore
	extractor *challenge.Extractor
	remote    remote.Client
	recorder  *audit.Recorder
	locker    Locker
	cfg       config.SubmissionConfig
	logger    *slog.Logger
	metrics   *Metrics
}

func NewService(
	entries entry.Store,
	builder *traveler.Builder,
	guard *arrivalcard.Guard,
	cards arrivalcard.Store,
	sessions challenge.SessionStore,
	extractor *challenge.Extractor,
	remoteClient remote.Client,
	recorder *audit.Recorder,
	locker Locker,
	cfg config.SubmissionConfig,
	logger *slog.Logger,
	metrics *Metrics,
) *Service {
	return &Service{
		entries:   entries,
		builder:   builder,
		guard:     guard,
		cards:     cards,
		sessions:  sessions,
		extractor: extractor,
		remote:    remoteClient,
		recorder:  recorder,
		locker:    locker,
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
	}
}

// Submit runs one attempt for the entry. On success the returned submission
// is the new active card; any prior active card for the same key has been
// superseded atomically with the insert.
//
// Error shapes callers can test for: *domain.ValidationError,
// *domain.WindowClosedError, *domain.DuplicateBlockedError,
// *domain.ChallengeTimeoutError, *domain.RemoteSubmissionError,
// *domain.PersistenceError, and sentinel.ErrInFlight / ErrNotFound /
// ErrInvalidState.
func (s *Service) Submit(ctx context.Context, userID domain.UserID, entryID domain.EntryID, opts Options) (*domain.ArrivalCardSubmission, error) {
	started := time.Now()
	submission, err := s.submit(ctx, userID, entryID, opts)
	s.metrics.ObserveAttempt(outcomeLabel(err), time.Since(started))
	return submission, err
}

func (s *Service) submit(ctx context.Context, userID domain.UserID, entryID domain.EntryID, opts Options) (*domain.ArrivalCardSubmission, error) {
	record, err := s.entries.FindByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if record.UserID != userID {
		return nil, sentinel.ErrNotFound
	}
	if !submittable(record.Status) {
		return nil, fmt.Errorf("entry %s is %s: %w", entryID, record.Status, sentinel.ErrInvalidState)
	}

	release, err := s.locker.Acquire(ctx, entryID.String(), s.cfg.LockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	log := s.logger.With(
		slog.String("entry_id", entryID.String()),
		slog.String("destination_id", string(record.DestinationID)))
	log.InfoContext(ctx, "submission started", slog.Bool("force", opts.Force))
	s.recorder.Record(audit.NewEvent(userID, entryID, audit.ActionSubmissionStarted, map[string]string{
		"force": fmt.Sprintf("%t", opts.Force),
	}))

	// Payload is built fresh for each attempt; nothing is reused from
	// earlier attempts even seconds apart.
	payload, err := s.builder.Build(ctx, userID, record.DestinationID)
	if err != nil {
		return nil, err
	}

	eval := window.Evaluate(payload.Travel.ArrivalAt, time.Now().UTC(), s.cfg.WindowHours)
	if !eval.CanSubmit {
		return nil, &domain.WindowClosedError{OpensIn: eval.OpensIn, Display: eval.Display}
	}

	decision, err := s.guard.Check(ctx, userID, record.DestinationID, payload.Travel.ArrivalAt, opts.Force)
	if err != nil {
		return nil, err
	}
	if decision.Blocked {
		s.recorder.Record(audit.NewEvent(userID, entryID, audit.ActionDuplicateBlocked, map[string]string{
			"existing_card": decision.Existing.ArrCardNo,
		}))
		return nil, &domain.DuplicateBlockedError{Existing: decision.Existing}
	}

	// Gates passed: the attempt is now in flight. The failure paths below
	// revert this to ready so the user can retry.
	if record.Status != domain.EntryStatusSubmitted {
		if err := s.entries.TransitionStatus(ctx, entryID, record.Status, domain.EntryStatusSubmitted, time.Now().UTC()); err != nil {
			return nil, fmt.Errorf("mark entry submitted: %w", err)
		}
	}

	token, pollCount, err := s.acquireToken(ctx, entryID, opts)
	s.metrics.ObservePolls(pollCount)
	if err != nil {
		s.recordFailure(ctx, userID, record, payload, opts, err)
		return nil, err
	}
	log.InfoContext(ctx, "challenge token acquired", slog.Int("polls", pollCount))

	result, err := s.remote.Submit(ctx, payload, token)
	if err != nil {
		s.recordFailure(ctx, userID, record, payload, opts, err)
		return nil, err
	}

	submission, err := s.persistSuccess(ctx, userID, record, payload, opts, result)
	if err != nil {
		return nil, err
	}

	if decision.Existing != nil {
		s.recorder.Record(audit.NewEvent(userID, entryID, audit.ActionCardSuperseded, map[string]string{
			"old_card": decision.Existing.ArrCardNo,
			"new_card": submission.ArrCardNo,
		}))
	}
	s.recorder.Record(audit.NewEvent(userID, entryID, audit.ActionSubmissionSucceeded, map[string]string{
		"arr_card_no": submission.ArrCardNo,
	}))
	log.InfoContext(ctx, "submission succeeded", slog.String("arr_card_no", submission.ArrCardNo))

	if err := s.entries.TransitionStatus(ctx, entryID, domain.EntryStatusSubmitted, domain.EntryStatusCompleted, time.Now().UTC()); err != nil {
		// The card exists; a lost status race is not worth failing over.
		log.WarnContext(ctx, "entry status transition failed", slog.String("error", err.Error()))
	}
	return submission, nil
}

func (s *Service) acquireToken(ctx context.Context, entryID domain.EntryID, opts Options) (string, int, error) {
	var surface challenge.Surface
	if opts.SessionID != "" {
		surface = challenge.NewAttachedSurface(s.sessions, opts.SessionID)
	} else {
		surface = challenge.NewStoreSurface(s.sessions, challenge.NewSession(entryID, time.Now().UTC()))
	}
	result, err := s.extractor.Acquire(ctx, surface, challenge.Options{
		PollInterval: s.cfg.PollInterval,
		MaxPolls:     s.cfg.MaxPolls,
		OnProgress:   opts.OnProgress,
	})
	if err != nil {
		return "", result.PollCount, err
	}
	return result.Token, result.PollCount, nil
}

// persistSuccess writes the success row, retrying on transient failures: the
// card already exists on the destination side, so giving up on the local
// write is the worst outcome available.
func (s *Service) persistSuccess(ctx context.Context, userID domain.UserID, record *domain.EntryRecord, payload *domain.TravelerPayload, opts Options, result *remote.Result) (*domain.ArrivalCardSubmission, error) {
	attempts, err := s.cards.CountAttempts(ctx, record.ID, domain.CardTypeArrival)
	if err != nil {
		attempts = 0
	}
	submission := &domain.ArrivalCardSubmission{
		ID:            domain.NewSubmissionID(),
		EntryID:       record.ID,
		UserID:        userID,
		CardType:      domain.CardTypeArrival,
		DestinationID: record.DestinationID,
		ArrCardNo:     result.ArrCardNo,
		QRUri:         result.QRUri,
		PDFPath:       result.PDFPath,
		ArrivalDate:   payload.Travel.ArrivalAt,
		SubmittedAt:   time.Now().UTC(),
		Method:        methodOrDefault(opts.Method),
		Status:        domain.SubmissionStatusSuccess,
		RetryCount:    attempts,
		Version:       1,
	}

	backoff := retry.WithMaxRetries(uint64(s.cfg.PersistRetries), retry.NewExponential(100*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := s.cards.Insert(ctx, submission); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return err
			}
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "card persisted remotely but local write failed",
			slog.String("entry_id", record.ID.String()),
			slog.String("arr_card_no", result.ArrCardNo),
			slog.String("error", err.Error()))
		return nil, &domain.PersistenceError{Op: "insert arrival card", Err: err}
	}
	return submission, nil
}

// recordFailure persists a failed attempt row and its audit event. Best
// effort: failures here are logged, not surfaced.
func (s *Service) recordFailure(ctx context.Context, userID domain.UserID, record *domain.EntryRecord, payload *domain.TravelerPayload, opts Options, cause error) {
	attempts, err := s.cards.CountAttempts(ctx, record.ID, domain.CardTypeArrival)
	if err != nil {
		attempts = 0
	}
	row := &domain.ArrivalCardSubmission{
		ID:            domain.NewSubmissionID(),
		EntryID:       record.ID,
		UserID:        userID,
		CardType:      domain.CardTypeArrival,
		DestinationID: record.DestinationID,
		ArrivalDate:   payload.Travel.ArrivalAt,
		SubmittedAt:   time.Now().UTC(),
		Method:        methodOrDefault(opts.Method),
		Status:        domain.SubmissionStatusFailed,
		RetryCount:    attempts,
		Version:       1,
	}
	if err := s.cards.Insert(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "failed attempt row not persisted",
			slog.String("entry_id", record.ID.String()),
			slog.String("error", err.Error()))
	}
	s.recorder.Record(audit.NewEvent(userID, record.ID, audit.ActionSubmissionFailed, map[string]string{
		"reason": cause.Error(),
	}))

	// Hand the entry back to the user for another attempt.
	if err := s.entries.TransitionStatus(ctx, record.ID, domain.EntryStatusSubmitted, domain.EntryStatusReady, time.Now().UTC()); err != nil {
		s.logger.WarnContext(ctx, "entry status revert failed",
			slog.String("entry_id", record.ID.String()),
			slog.String("error", err.Error()))
	}
}

func submittable(status domain.EntryStatus) bool {
	switch status {
	case domain.EntryStatusReady, domain.EntryStatusIncomplete,
		domain.EntryStatusCompleted, domain.EntryStatusSubmitted:
		// Incomplete entries fail payload validation with a precise error.
		// Completed entries may be forced through to supersede the prior
		// card. Submitted covers recovery from a crashed attempt; the lock
		// keeps two live attempts from overlapping.
		return true
	default:
		return false
	}
}

func methodOrDefault(m domain.SubmissionMethod) domain.SubmissionMethod {
	if m == "" {
		return domain.SubmissionMethodApp
	}
	return m
}

func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	var (
		validationErr *domain.ValidationError
		windowErr     *domain.WindowClosedError
		duplicateErr  *domain.DuplicateBlockedError
		timeoutErr    *domain.ChallengeTimeoutError
		remoteErr     *domain.RemoteSubmissionError
		persistErr    *domain.PersistenceError
	)
	switch {
	case errors.As(err, &validationErr):
		return "validation_failed"
	case errors.As(err, &windowErr):
		return "window_closed"
	case errors.As(err, &duplicateErr):
		return "duplicate_blocked"
	case errors.As(err, &timeoutErr):
		return "challenge_timeout"
	case errors.As(err, &remoteErr):
		return "remote_failed"
	case errors.As(err, &persistErr):
		return "persist_failed"
	case errors.Is(err, sentinel.ErrInFlight):
		return "in_flight"
	default:
		return "error"
	}
}
