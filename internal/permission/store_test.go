package permission

import (
	"context"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	id "stow/pkg/domain"
	dErrors "stow/pkg/domain-errors"
)

// StoreSuite runs the same contract against every Store implementation.
type StoreSuite struct {
	suite.Suite
	newStore func(t *testing.T) Store

	ctx    context.Context
	store  Store
	record id.RecordHash
	viewer id.Identity
	owner  id.Identity
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newStore(s.T())
	s.record = id.HashRecord([]byte("radiology scan"))
	s.viewer = id.NewIdentity()
	s.owner = id.NewIdentity()
}

func (s *StoreSuite) TestAbsentPairReadsAsZero() {
	p, err := s.store.Get(s.ctx, s.record, s.viewer)
	s.Require().NoError(err)
	s.False(p.CanAccess)
	s.Empty(p.KeyReference)
}

func (s *StoreSuite) TestSetThenGet() {
	entry := Permission{
		CanAccess:    true,
		KeyReference: "ipfs://QmKey1",
		GrantedBy:    s.owner,
		UpdatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	s.Require().NoError(s.store.Set(s.ctx, s.record, s.viewer, entry))

	p, err := s.store.Get(s.ctx, s.record, s.viewer)
	s.Require().NoError(err)
	s.True(p.CanAccess)
	s.Equal("ipfs://QmKey1", p.KeyReference)
	s.Equal(s.owner, p.GrantedBy)
}

func (s *StoreSuite) TestSetOverwrites() {
	first := Permission{CanAccess: true, KeyReference: "ipfs://QmKey1", GrantedBy: s.owner}
	second := Permission{CanAccess: true, KeyReference: "ipfs://QmKey2", GrantedBy: s.owner}
	s.Require().NoError(s.store.Set(s.ctx, s.record, s.viewer, first))
	s.Require().NoError(s.store.Set(s.ctx, s.record, s.viewer, second))

	p, err := s.store.Get(s.ctx, s.record, s.viewer)
	s.Require().NoError(err)
	s.Equal("ipfs://QmKey2", p.KeyReference)
}

func (s *StoreSuite) TestDeleteRemovesEntry() {
	entry := Permission{CanAccess: true, KeyReference: "ipfs://QmKey1", GrantedBy: s.owner}
	s.Require().NoError(s.store.Set(s.ctx, s.record, s.viewer, entry))
	s.Require().NoError(s.store.Delete(s.ctx, s.record, s.viewer))

	p, err := s.store.Get(s.ctx, s.record, s.viewer)
	s.Require().NoError(err)
	s.False(p.CanAccess)
	s.Empty(p.KeyReference)
}

func (s *StoreSuite) TestDeleteAbsentPairIsNoop() {
	s.Require().NoError(s.store.Delete(s.ctx, s.record, s.viewer))
}

func (s *StoreSuite) TestPairsAreIndependent() {
	other := id.NewIdentity()
	entry := Permission{CanAccess: true, KeyReference: "ipfs://QmKey1", GrantedBy: s.owner}
	s.Require().NoError(s.store.Set(s.ctx, s.record, s.viewer, entry))

	p, err := s.store.Get(s.ctx, s.record, other)
	s.Require().NoError(err)
	s.False(p.CanAccess)
}

func (s *StoreSuite) TestSetRejectsInvalidEntry() {
	err := s.store.Set(s.ctx, s.record, s.viewer, Permission{CanAccess: true})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, &StoreSuite{newStore: func(*testing.T) Store {
		return NewMemoryStore()
	}})
}

func TestBadgerStoreSuite(t *testing.T) {
	suite.Run(t, &StoreSuite{newStore: func(t *testing.T) Store {
		opts := badger.DefaultOptions("").WithInMemory(true)
		opts.Logger = nil
		db, err := badger.Open(opts)
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		return NewBadgerStore(db)
	}})
}

func TestPermissionValidate(t *testing.T) {
	owner := id.NewIdentity()

	assert.NoError(t, Permission{}.Validate())
	assert.NoError(t, Permission{CanAccess: true, KeyReference: "ipfs://QmKey", GrantedBy: owner}.Validate())

	err := Permission{CanAccess: true}.Validate()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	err = Permission{KeyReference: "ipfs://QmKey"}.Validate()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}
