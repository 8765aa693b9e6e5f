package audit

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripgate/internal/domain"
)

func TestRecorder_WritesEvents(t *testing.T) {
	store := NewInMemoryStore()
	rec := NewRecorder(store, nil, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	go rec.Run(ctx)

	userID := domain.NewUserID()
	entryID := domain.NewEntryID()
	rec.Record(NewEvent(userID, entryID, ActionSubmissionStarted, nil))
	rec.Record(NewEvent(userID, entryID, ActionSubmissionSucceeded, map[string]string{"arr_card_no": "TH-1"}))

	cancel()
	rec.Close()

	events, err := store.ListByEntry(context.Background(), entryID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionSubmissionStarted, events[0].Action)
	assert.Equal(t, ActionSubmissionSucceeded, events[1].Action)
	assert.Equal(t, "TH-1", events[1].Detail["arr_card_no"])
}

func TestRecorder_DrainsOnShutdown(t *testing.T) {
	store := NewInMemoryStore()
	rec := NewRecorder(store, nil, slog.New(slog.DiscardHandler))

	entryID := domain.NewEntryID()
	userID := domain.NewUserID()
	// Enqueue before the worker starts; shutdown must still flush them.
	for i := 0; i < 10; i++ {
		rec.Record(NewEvent(userID, entryID, ActionSubmissionFailed, nil))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	go rec.Run(ctx)
	rec.Close()

	events, err := store.ListByEntry(context.Background(), entryID)
	require.NoError(t, err)
	assert.Len(t, events, 10)
}

type blockingPublisher struct {
	published chan Event
}

func (p *blockingPublisher) Publish(_ context.Context, event Event) error {
	p.published <- event
	return nil
}

func TestRecorder_ForwardsToPublisher(t *testing.T) {
	store := NewInMemoryStore()
	pub := &blockingPublisher{published: make(chan Event, 1)}
	rec := NewRecorder(store, pub, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rec.Run(ctx)

	event := NewEvent(domain.NewUserID(), domain.NewEntryID(), ActionCardSuperseded, nil)
	rec.Record(event)

	select {
	case got := <-pub.published:
		assert.Equal(t, event.ID, got.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("publisher never received the event")
	}
}
