package testutil

import (
	"net/http"

	id "stow/pkg/domain"
	"stow/pkg/requestcontext"
)

// WithCaller adds a caller identity to the request context. This simulates
// what the auth middleware would do for authenticated requests. Invalid
// identities are silently ignored so tests can exercise the unauthenticated
// path with malformed input.
func WithCaller(req *http.Request, caller string) *http.Request {
	parsed, err := id.ParseIdentity(caller)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithCaller(req.Context(), parsed))
}

// WithCallerIdentity adds an already-parsed caller identity to the request
// context.
func WithCallerIdentity(req *http.Request, caller id.Identity) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), caller))
}

// WithRequestID adds a correlation ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
