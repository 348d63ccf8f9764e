// Package domainerrors provides coded errors for domain and service layers.
//
// Services return these so transports can translate outcomes without string
// matching, and so tests can assert exactly which precondition failed. For
// infrastructure facts (store-level not-found and friends) use
// pkg/platform/sentinel; stores return sentinels and services translate them
// into coded errors here.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies a failure. The string form is the wire representation used
// in JSON error envelopes.
type Code string

const (
	// CodeUnauthorized: the caller failed a standing check - not a registered
	// user, not the record owner, or not an authorized delegate.
	CodeUnauthorized Code = "unauthorized"

	// CodeInvalidInput: zero identities, empty key references, self-delegation,
	// malformed identifiers.
	CodeInvalidInput Code = "invalid_input"

	// CodeInvalidState: the operation does not apply to the current permission
	// state, e.g. revoking a pair that was never granted.
	CodeInvalidState Code = "invalid_state"

	// CodePolicyRejected: a policy evaluator returned false during a gated grant.
	CodePolicyRejected Code = "policy_rejected"

	// CodePaused: the administrative pause gate is active; mutating operations
	// are disabled.
	CodePaused Code = "system_paused"

	CodeBadRequest         Code = "bad_request"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeRateLimited        Code = "rate_limited"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal_error"
)

// LedgerError carries a code, a caller-facing message, and an optional cause.
type LedgerError struct {
	Code    Code
	Message string
	Err     error
}

func (e *LedgerError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

// New creates a coded error with no underlying cause.
func New(code Code, message string) error {
	return &LedgerError{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is / errors.As.
func Wrap(err error, code Code, message string) error {
	return &LedgerError{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var le *LedgerError
	for errors.As(err, &le) {
		if le.Code == code {
			return true
		}
		err = le.Err
		le = nil
	}
	return false
}

// Is is a readability alias for HasCode at call sites that read like
// errors.Is checks.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the outermost code, or CodeInternal when err is not coded.
func CodeOf(err error) Code {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code onto the HTTP status the transport layer should
// respond with.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodePolicyRejected:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvalidState:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodePaused:
		return http.StatusServiceUnavailable
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
