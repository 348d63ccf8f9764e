package guard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "stow/pkg/domain"
	dErrors "stow/pkg/domain-errors"
	"stow/pkg/platform/sentinel"
)

type stubUsers struct {
	registered map[id.Identity]bool
	err        error
}

func (s *stubUsers) IsUser(_ context.Context, identity id.Identity) (bool, error) {
	return s.registered[identity], s.err
}

type stubRecords struct {
	owners map[id.RecordHash]id.Identity
	err    error
}

func (s *stubRecords) RecordOwnerOf(_ context.Context, record id.RecordHash) (id.Identity, error) {
	if s.err != nil {
		return id.ZeroIdentity, s.err
	}
	owner, ok := s.owners[record]
	if !ok {
		return id.ZeroIdentity, sentinel.ErrNotFound
	}
	return owner, nil
}

type stubDelegates struct {
	authorized map[[2]id.Identity]bool
	err        error
}

func (s *stubDelegates) IsDelegate(_ context.Context, owner, delegate id.Identity) (bool, error) {
	return s.authorized[[2]id.Identity{owner, delegate}], s.err
}

func TestGuard_AuthorizeOwner(t *testing.T) {
	owner := id.NewIdentity()
	stranger := id.NewIdentity()
	record := id.HashRecord([]byte("record"))

	g := New(
		&stubUsers{registered: map[id.Identity]bool{owner: true, stranger: true}},
		&stubRecords{owners: map[id.RecordHash]id.Identity{record: owner}},
		&stubDelegates{},
	)

	t.Run("passes for the recorded owner", func(t *testing.T) {
		assert.NoError(t, g.AuthorizeOwner(context.Background(), owner, record))
	})

	t.Run("fails for a registered non-owner", func(t *testing.T) {
		err := g.AuthorizeOwner(context.Background(), stranger, record)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("fails for an unregistered caller before ownership is consulted", func(t *testing.T) {
		err := g.AuthorizeOwner(context.Background(), id.NewIdentity(), record)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("fails for an unknown record", func(t *testing.T) {
		err := g.AuthorizeOwner(context.Background(), owner, id.HashRecord([]byte("unknown")))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func TestGuard_AuthorizeDelegate(t *testing.T) {
	owner := id.NewIdentity()
	delegate := id.NewIdentity()
	otherOwner := id.NewIdentity()
	record := id.HashRecord([]byte("record"))
	foreignRecord := id.HashRecord([]byte("foreign"))

	g := New(
		&stubUsers{registered: map[id.Identity]bool{owner: true}},
		&stubRecords{owners: map[id.RecordHash]id.Identity{
			record:        owner,
			foreignRecord: otherOwner,
		}},
		&stubDelegates{authorized: map[[2]id.Identity]bool{
			{owner, delegate}: true,
		}},
	)

	t.Run("passes for an authorized delegate of the recorded owner", func(t *testing.T) {
		assert.NoError(t, g.AuthorizeDelegate(context.Background(), delegate, owner, record))
	})

	t.Run("fails when the caller is not the owner's delegate", func(t *testing.T) {
		err := g.AuthorizeDelegate(context.Background(), id.NewIdentity(), owner, record)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("fails when the claimed owner does not own the record", func(t *testing.T) {
		err := g.AuthorizeDelegate(context.Background(), delegate, owner, foreignRecord)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func TestGuard_RegistryFailuresSurfaceAsInternal(t *testing.T) {
	caller := id.NewIdentity()
	record := id.HashRecord([]byte("record"))

	t.Run("user registry failure", func(t *testing.T) {
		g := New(&stubUsers{err: errors.New("registry down")}, &stubRecords{}, &stubDelegates{})
		err := g.RequireUser(context.Background(), caller)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})

	t.Run("record registry failure", func(t *testing.T) {
		g := New(&stubUsers{}, &stubRecords{err: errors.New("registry down")}, &stubDelegates{})
		err := g.RequireOwner(context.Background(), record, caller)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})

	t.Run("delegate registry failure", func(t *testing.T) {
		g := New(&stubUsers{}, &stubRecords{}, &stubDelegates{err: errors.New("store down")})
		err := g.RequireDelegate(context.Background(), caller, caller)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})
}
