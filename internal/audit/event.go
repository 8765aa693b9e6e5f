// Package audit records what happened to each entry: submissions attempted,
// cards issued, cards superseded. Events are append-only and survive even
// when the attempt they describe failed.
package audit

import (
	"time"

	"github.com/google/uuid"

	"tripgate/internal/domain"
)

// Actions recorded against entries.
const (
	ActionSubmissionStarted   = "submission.started"
	ActionSubmissionSucceeded = "submission.succeeded"
	ActionSubmissionFailed    = "submission.failed"
	ActionCardSuperseded      = "card.superseded"
	ActionDuplicateBlocked    = "submission.duplicate_blocked"
	ActionEntryExpired        = "entry.expired"
)

// Event is one audit record.
type Event struct {
	ID      uuid.UUID         `json:"id"`
	UserID  domain.UserID     `json:"user_id"`
	EntryID domain.EntryID    `json:"entry_id"`
	Action  string            `json:"action"`
	Detail  map[string]string `json:"detail,omitempty"`
	At      time.Time         `json:"at"`
}

// NewEvent stamps identity and time onto an event.
func NewEvent(userID domain.UserID, entryID domain.EntryID, action string, detail map[string]string) Event {
	return Event{
		ID:      uuid.New(),
		UserID:  userID,
		EntryID: entryID,
		Action:  action,
		Detail:  detail,
		At:      time.Now().UTC(),
	}
}
