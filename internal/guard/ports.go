package guard

import (
	"context"

	id "stow/pkg/domain"
)

// UserRegistry answers whether an identity is a registered user. External
// collaborator; the ledger never caches the answer.
type UserRegistry interface {
	IsUser(ctx context.Context, identity id.Identity) (bool, error)
}

// RecordRegistry resolves the recorded owner of a record. External
// collaborator. Ownership is re-resolved on every owner-gated operation so a
// recorded ownership change immediately changes who may manage permissions.
// Implementations return sentinel.ErrNotFound for unknown records.
type RecordRegistry interface {
	RecordOwnerOf(ctx context.Context, record id.RecordHash) (id.Identity, error)
}

// DelegateChecker is the local lookup into the delegate registry. Defined
// here rather than importing the delegate package to keep the guard free of
// module dependencies.
type DelegateChecker interface {
	IsDelegate(ctx context.Context, owner, delegate id.Identity) (bool, error)
}
