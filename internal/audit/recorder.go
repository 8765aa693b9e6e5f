package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultBufferSize = 256

// Publisher forwards events to an external sink, typically Kafka. Optional.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Recorder accepts events without blocking the submission path and writes
// them from a single worker goroutine. A full buffer drops the event and
// logs it; audit loss is preferable to stalling a submission.
type Recorder struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger

	events chan Event
	done   chan struct{}
	once   sync.Once
}

func NewRecorder(store Store, publisher Publisher, logger *slog.Logger) *Recorder {
	return &Recorder{
		store:     store,
		publisher: publisher,
		logger:    logger,
		events:    make(chan Event, defaultBufferSize),
		done:      make(chan struct{}),
	}
}

// Record enqueues an event. Never blocks.
func (r *Recorder) Record(event Event) {
	select {
	case r.events <- event:
	default:
		r.logger.Warn("audit buffer full, event dropped",
			slog.String("action", event.Action),
			slog.String("entry_id", event.EntryID.String()))
	}
}

// Run consumes the queue until ctx is cancelled, then drains what is left.
func (r *Recorder) Run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case event := <-r.events:
			r.write(event)
		case <-ctx.Done():
			r.drain()
			return
		}
	}
}

// Close waits for the worker to finish draining.
func (r *Recorder) Close() {
	r.once.Do(func() { <-r.done })
}

func (r *Recorder) drain() {
	for {
		select {
		case event := <-r.events:
			r.write(event)
		default:
			return
		}
	}
}

func (r *Recorder) write(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.store.Append(ctx, event); err != nil {
		r.logger.Error("audit append failed",
			slog.String("action", event.Action),
			slog.String("error", err.Error()))
	}
	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, event); err != nil {
			r.logger.Error("audit publish failed",
				slog.String("action", event.Action),
				slog.String("error", err.Error()))
		}
	}
}
