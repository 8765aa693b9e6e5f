package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into the domain error taxonomy.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in the store
// - ErrConflict: write lost to a concurrent update or uniqueness rule
// - ErrInvalidState: record in the wrong lifecycle state for the operation
// - ErrInFlight: an exclusive operation already holds the resource
// - ErrUnavailable: backing service temporarily unreachable
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrInFlight     = errors.New("already in flight")
	ErrUnavailable  = errors.New("unavailable")
)
