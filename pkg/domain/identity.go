package domain

import (
	"github.com/google/uuid"

	dErrors "stow/pkg/domain-errors"
)

// Identity names a party known to the ledger: an owner, a viewer, a delegate,
// or the caller of an operation. The zero value is never a valid participant.
//
// Usage: construct via ParseIdentity at trust boundaries; direct casting
// bypasses validation.
type Identity uuid.UUID

// ZeroIdentity is the invalid all-zero identity. Operations reject it as an
// owner, viewer, or delegate argument.
var ZeroIdentity = Identity(uuid.Nil)

// ParseIdentity constructs an Identity from external input.
//
// Errors: returns CodeInvalidInput when the value is empty, malformed, or the
// nil UUID; no other errors are expected.
func ParseIdentity(s string) (Identity, error) {
	if s == "" {
		return ZeroIdentity, dErrors.New(dErrors.CodeInvalidInput, "identity cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return ZeroIdentity, dErrors.New(dErrors.CodeInvalidInput, "identity must be a valid UUID")
	}
	if u == uuid.Nil {
		return ZeroIdentity, dErrors.New(dErrors.CodeInvalidInput, "identity cannot be the zero UUID")
	}
	return Identity(u), nil
}

// NewIdentity returns a fresh random identity. Intended for tests and fixtures;
// production identities come from the user registry.
func NewIdentity() Identity {
	return Identity(uuid.New())
}

// IsZero reports whether the identity is the invalid zero value.
func (i Identity) IsZero() bool {
	return uuid.UUID(i) == uuid.Nil
}

// String returns the canonical UUID form.
func (i Identity) String() string {
	return uuid.UUID(i).String()
}
