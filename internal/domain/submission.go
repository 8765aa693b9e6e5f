package domain

import "time"

// SubmissionStatus is the outcome of one arrival-card submission attempt.
type SubmissionStatus string

const (
	SubmissionStatusPending SubmissionStatus = "pending"
	SubmissionStatusSuccess SubmissionStatus = "success"
	SubmissionStatusFailed  SubmissionStatus = "failed"
)

// CardType distinguishes the document families a destination may issue.
// Today only arrival cards exist but the schema keys on it.
type CardType string

const CardTypeArrival CardType = "arrival"

// SubmissionMethod records how an attempt was made.
type SubmissionMethod string

const (
	SubmissionMethodApp    SubmissionMethod = "app"
	SubmissionMethodManual SubmissionMethod = "manual"
)

// ArrivalCardSubmission is one persisted attempt, successful or failed, to
// obtain a destination's digital arrival card. Rows are never deleted;
// superseded successes stay behind for audit.
//
// Invariant: for a given (EntryID, CardType) at most one row has
// Status == success and IsSuperseded == false.
type ArrivalCardSubmission struct {
	ID               SubmissionID
	EntryID          EntryID
	UserID           UserID
	CardType         CardType
	DestinationID    DestinationID
	ArrCardNo        string
	QRUri            string
	PDFPath          string
	ArrivalDate      time.Time // denormalized from travel info for trip-key matching
	SubmittedAt      time.Time
	Method           SubmissionMethod
	Status           SubmissionStatus
	RetryCount       int
	IsSuperseded     bool
	SupersededAt     *time.Time
	SupersededBy     *SubmissionID
	SupersededReason string
	Version          int
}

// Active reports whether this row is the live success for its key.
func (s *ArrivalCardSubmission) Active() bool {
	return s.Status == SubmissionStatusSuccess && !s.IsSuperseded
}
