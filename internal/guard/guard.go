// Package guard evaluates whether a caller is entitled to act as, or on
// behalf of, a record owner. It composes the external user and record
// registries with the local delegate registry into the standing checks every
// state-changing operation runs first.
package guard

import (
	"context"
	"errors"

	id "stow/pkg/domain"
	dErrors "stow/pkg/domain-errors"
	"stow/pkg/platform/sentinel"
)

// Guard holds the registries consulted by the standing checks. Checks are
// evaluated eagerly in a fixed order so each failure surfaces a distinct
// error kind.
type Guard struct {
	users     UserRegistry
	records   RecordRegistry
	delegates DelegateChecker
}

func New(users UserRegistry, records RecordRegistry, delegates DelegateChecker) *Guard {
	return &Guard{users: users, records: records, delegates: delegates}
}

// RequireUser rejects callers the user registry does not know.
func (g *Guard) RequireUser(ctx context.Context, caller id.Identity) error {
	registered, err := g.users.IsUser(ctx, caller)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "user registry lookup failed")
	}
	if !registered {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not a registered user")
	}
	return nil
}

// RequireOwner rejects operations whose claimed owner does not match the
// recorded owner of the record. An unknown record fails the same way: nobody
// owns it, so nobody may manage it.
func (g *Guard) RequireOwner(ctx context.Context, record id.RecordHash, claimed id.Identity) error {
	owner, err := g.records.RecordOwnerOf(ctx, record)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeUnauthorized, "record has no registered owner")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "record registry lookup failed")
	}
	if owner != claimed {
		return dErrors.New(dErrors.CodeUnauthorized, "claimed owner does not own the record")
	}
	return nil
}

// RequireDelegate rejects callers the owner has not authorized.
func (g *Guard) RequireDelegate(ctx context.Context, owner, caller id.Identity) error {
	ok, err := g.delegates.IsDelegate(ctx, owner, caller)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "delegate registry lookup failed")
	}
	if !ok {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not an authorized delegate of the owner")
	}
	return nil
}

// AuthorizeOwner is the direct entry shape: the caller must be a registered
// user and the recorded owner of the record.
func (g *Guard) AuthorizeOwner(ctx context.Context, caller id.Identity, record id.RecordHash) error {
	if err := g.RequireUser(ctx, caller); err != nil {
		return err
	}
	return g.RequireOwner(ctx, record, caller)
}

// AuthorizeDelegate is the by-delegate entry shape: the caller must be an
// authorized delegate of the claimed owner, and the claimed owner must be the
// recorded owner of the record.
func (g *Guard) AuthorizeDelegate(ctx context.Context, caller, owner id.Identity, record id.RecordHash) error {
	if err := g.RequireDelegate(ctx, owner, caller); err != nil {
		return err
	}
	return g.RequireOwner(ctx, record, owner)
}
