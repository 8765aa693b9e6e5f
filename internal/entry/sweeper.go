package entry

import (
	"context"
	"log/slog"
	"time"

	"tripgate/internal/audit"
)

// Sweeper is the background lifecycle job that expires dormant entries.
// Completed, expired, and archived entries are never touched. Each expiry
// lands on the entry's audit trail.
type Sweeper struct {
	store      Store
	recorder   *audit.Recorder
	logger     *slog.Logger
	interval   time.Duration
	staleAfter time.Duration
}

const (
	defaultSweepInterval = time.Hour
	defaultStaleAfter    = 90 * 24 * time.Hour
)

func NewSweeper(store Store, recorder *audit.Recorder, logger *slog.Logger, interval, staleAfter time.Duration) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	return &Sweeper{store: store, recorder: recorder, logger: logger, interval: interval, staleAfter: staleAfter}
}

// Run sweeps until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	now := time.Now().UTC()
	expired, err := s.store.ExpireStale(ctx, now.Add(-s.staleAfter), now)
	if err != nil {
		s.logger.ErrorContext(ctx, "entry sweep failed", "error", err)
		return
	}
	if len(expired) == 0 {
		return
	}
	for _, e := range expired {
		s.recorder.Record(audit.NewEvent(e.UserID, e.ID, audit.ActionEntryExpired, nil))
	}
	s.logger.InfoContext(ctx, "expired stale entries", "count", len(expired))
}
