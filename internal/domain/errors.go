package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// The submission pipeline distinguishes expected, user-recoverable outcomes
// (validation, closed window, duplicate) from retryable failures (challenge
// timeout, remote errors) and from fatal persistence failures. Handlers map
// each shape to its own HTTP response; callers test with errors.As.

// ValidationError reports incomplete traveler data. Keys are categories
// ("passport", "personal", "travel", "funds"), values are per-field reasons.
type ValidationError struct {
	Missing map[string][]string
}

func (e *ValidationError) Error() string {
	cats := make([]string, 0, len(e.Missing))
	for c := range e.Missing {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return "traveler data incomplete: " + strings.Join(cats, ", ")
}

// Categories returns the incomplete categories in sorted order.
func (e *ValidationError) Categories() []string {
	cats := make([]string, 0, len(e.Missing))
	for c := range e.Missing {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

// WindowClosedError means the arrival is still outside the submission window.
type WindowClosedError struct {
	OpensIn time.Duration
	Display string
}

func (e *WindowClosedError) Error() string {
	return fmt.Sprintf("submission window not open yet, opens in %s", e.Display)
}

// DuplicateBlockedError carries the live submission that made a new attempt
// unnecessary, so callers can show it instead of a generic failure.
type DuplicateBlockedError struct {
	Existing *ArrivalCardSubmission
}

func (e *DuplicateBlockedError) Error() string {
	return fmt.Sprintf("active arrival card already exists: %s", e.Existing.ArrCardNo)
}

// ChallengeTimeoutError means the proof token never appeared within the poll
// budget. Distinct from a surface or network failure: the challenge is likely
// exhausted and must not be retried automatically.
type ChallengeTimeoutError struct {
	PollCount int
}

func (e *ChallengeTimeoutError) Error() string {
	return fmt.Sprintf("challenge token not acquired after %d polls", e.PollCount)
}

// RemoteSubmissionError wraps a failure from the destination's submission
// endpoint.
type RemoteSubmissionError struct {
	Code string
	Err  error
}

func (e *RemoteSubmissionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("remote submission failed (%s): %v", e.Code, e.Err)
	}
	return fmt.Sprintf("remote submission failed: %v", e.Err)
}

func (e *RemoteSubmissionError) Unwrap() error { return e.Err }

// PersistenceError marks a local write failure. After a successful remote
// call it is fatal-grade: the card exists externally, so the write is retried
// before this ever reaches a caller.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
