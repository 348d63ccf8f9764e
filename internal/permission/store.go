package permission

import (
	"context"

	id "stow/pkg/domain"
)

// Store persists ledger entries keyed by (record, viewer).
//
// Get returns the zero Permission for pairs with no active grant; absence is
// not an error. Set overwrites any existing entry, which is how key rotation
// works: a fresh grant for an already-permitted viewer replaces the stored
// key reference. Delete removes the entry entirely so a later Get reports no
// access.
type Store interface {
	Get(ctx context.Context, record id.RecordHash, viewer id.Identity) (Permission, error)
	Set(ctx context.Context, record id.RecordHash, viewer id.Identity, p Permission) error
	Delete(ctx context.Context, record id.RecordHash, viewer id.Identity) error
}
