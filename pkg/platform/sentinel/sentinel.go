package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and registry clients return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entry does not exist in a store or registry
// - ErrInvalidState: entry in the wrong state for the requested transition
// - ErrUnavailable: backing service or resource temporarily unavailable
//
// For validation errors (bad input, zero identities), use pkg/domain-errors
// directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
