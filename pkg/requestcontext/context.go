// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets these values; services and the audit pipeline read them
// without importing net/http. Tests inject them directly.
package requestcontext

import (
	"context"
	"time"

	id "stow/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	callerKey      struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need raw context.WithValue.
var (
	ContextKeyCaller      = callerKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// Caller retrieves the authenticated caller identity from the context.
// Returns the zero identity if not set.
func Caller(ctx context.Context) id.Identity {
	if caller, ok := ctx.Value(ContextKeyCaller).(id.Identity); ok {
		return caller
	}
	return id.ZeroIdentity
}

// WithCaller injects the authenticated caller identity into the context.
func WithCaller(ctx context.Context, caller id.Identity) context.Context {
	return context.WithValue(ctx, ContextKeyCaller, caller)
}

// RequestID retrieves the request correlation ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context. Falls back to
// time.Now() for non-HTTP contexts (workers, tests that don't care).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a fixed time into a context. Useful for service unit tests
// that need deterministic timestamps.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
