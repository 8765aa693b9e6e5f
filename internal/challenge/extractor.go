// Package challenge acquires the one-time proof token an interactive
// anti-automation widget yields after a human action. The widget renders in
// the app's embedded WebView; this side owns the bounded polling loop that
// waits for the solved token to appear on the challenge surface.
package challenge

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"tripgate/internal/domain"
)

// Surface is the capability handle for one challenge rendering. A surface is
// exclusively owned by a single acquisition; it is never shared between
// concurrent Acquire calls.
type Surface interface {
	// Load prepares the surface (creates or claims the session).
	Load(ctx context.Context) error

	// QueryToken returns the proof token if the challenge has been solved,
	// or "" while it is still pending.
	QueryToken(ctx context.Context) (string, error)

	// Dispose releases the surface once the acquisition is over.
	Dispose(ctx context.Context) error
}

// Progress is emitted every progressEvery-th poll so callers can render a
// countdown.
type Progress struct {
	PollCount int
	MaxPolls  int
}

// Options tune one acquisition. Zero values fall back to the defaults.
type Options struct {
	PollInterval time.Duration // default 500ms
	MaxPolls     int           // default 120
	OnProgress   func(Progress)
}

const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultMaxPolls     = 120

	progressEvery = 10
)

// Result is a successful acquisition.
type Result struct {
	Token     string
	PollCount int
}

// errTokenPending drives the retry loop while the human has not solved the
// challenge yet.
var errTokenPending = errors.New("challenge token pending")

// Extractor polls a Surface for the proof token.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Acquire polls the surface every PollInterval for up to MaxPolls polls.
//
// Outcomes:
//   - token found: Result with the poll count that saw it
//   - budget exhausted: *domain.ChallengeTimeoutError (distinct from surface
//     failures, which abort immediately and are returned as-is)
//   - ctx cancelled: ctx.Err(); the loop stops between polls and OnProgress
//     is never invoked after cancellation
func (e *Extractor) Acquire(ctx context.Context, surface Surface, opts Options) (Result, error) {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	maxPolls := opts.MaxPolls
	if maxPolls <= 0 {
		maxPolls = DefaultMaxPolls
	}

	if err := surface.Load(ctx); err != nil {
		return Result{}, err
	}
	defer func() {
		// Dispose must run even when ctx is done; give it its own deadline.
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := surface.Dispose(dctx); err != nil {
			e.logger.Warn("challenge surface dispose failed", "error", err)
		}
	}()

	var (
		pollCount int
		token     string
	)

	backoff := retry.WithMaxRetries(uint64(maxPolls-1), retry.NewConstant(interval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		pollCount++

		t, err := surface.QueryToken(ctx)
		if err != nil {
			return err // non-retryable: surface failure, not a timeout
		}
		if t != "" {
			token = t
			return nil
		}

		if pollCount%progressEvery == 0 && pollCount < maxPolls && opts.OnProgress != nil && ctx.Err() == nil {
			opts.OnProgress(Progress{PollCount: pollCount, MaxPolls: maxPolls})
		}
		return retry.RetryableError(errTokenPending)
	})

	switch {
	case err == nil:
		e.logger.Debug("challenge token acquired", "polls", pollCount)
		return Result{Token: token, PollCount: pollCount}, nil
	case errors.Is(err, errTokenPending):
		return Result{}, &domain.ChallengeTimeoutError{PollCount: pollCount}
	case ctx.Err() != nil:
		return Result{}, ctx.Err()
	default:
		return Result{}, err
	}
}
