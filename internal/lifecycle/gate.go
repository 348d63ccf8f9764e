// Package lifecycle controls the ledger-wide pause switch. While the gate is
// paused every mutating operation is refused before any other precondition is
// evaluated; read-side access checks keep working so existing viewers are not
// locked out of keys they already hold.
package lifecycle

import "context"

// Gate exposes the pause switch. Implementations must be safe for concurrent
// use; Paused is on the hot path of every grant and revoke.
type Gate interface {
	Paused(ctx context.Context) (bool, error)
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
}
