package domain

import (
	"time"

	"github.com/google/uuid"
)

// EntryStatus is the lifecycle state of an entry record. Statuses only
// advance, with a single failure edge submitted -> ready so a failed
// submission can be retried.
type EntryStatus string

const (
	EntryStatusIncomplete EntryStatus = "incomplete"
	EntryStatusReady      EntryStatus = "ready"
	EntryStatusSubmitted  EntryStatus = "submitted"
	EntryStatusCompleted  EntryStatus = "completed"
	EntryStatusSuperseded EntryStatus = "superseded"
	EntryStatusExpired    EntryStatus = "expired"
	EntryStatusArchived   EntryStatus = "archived"
)

// rank orders the forward-only statuses. Expired and archived are lifecycle
// terminals reachable from anywhere, so they sit above the rest.
var entryStatusRank = map[EntryStatus]int{
	EntryStatusIncomplete: 0,
	EntryStatusReady:      1,
	EntryStatusSubmitted:  2,
	EntryStatusCompleted:  3,
	EntryStatusSuperseded: 3,
	EntryStatusExpired:    4,
	EntryStatusArchived:   5,
}

// CanTransitionTo reports whether moving from s to next respects the
// forward-only rule. Two sanctioned regressions: submitted -> ready when a
// submission attempt fails, and completed -> submitted on a forced resubmit.
func (s EntryStatus) CanTransitionTo(next EntryStatus) bool {
	if s == EntryStatusSubmitted && next == EntryStatusReady {
		return true
	}
	if s == EntryStatusCompleted && next == EntryStatusSubmitted {
		return true
	}
	from, ok := entryStatusRank[s]
	if !ok {
		return false
	}
	to, ok := entryStatusRank[next]
	if !ok {
		return false
	}
	return to >= from
}

// CompletionMetrics summarizes per-category readiness for an entry. It is
// denormalized onto the entry row so list screens do not have to re-derive it.
type CompletionMetrics struct {
	Passport bool `json:"passport"`
	Personal bool `json:"personal"`
	Travel   bool `json:"travel"`
	Funds    bool `json:"funds"`
}

// Complete reports whether every category is filled in.
func (m CompletionMetrics) Complete() bool {
	return m.Passport && m.Personal && m.Travel && m.Funds
}

// EntryRecord is one user's preparation state for one destination trip.
type EntryRecord struct {
	ID             EntryID
	UserID         UserID
	PassportID     uuid.UUID
	PersonalInfoID uuid.UUID
	TravelInfoID   uuid.UUID
	DestinationID  DestinationID
	Status         EntryStatus
	Completion     CompletionMetrics
	Documents      []string
	DisplayStatus  string
	LastUpdatedAt  time.Time
}
