package delegate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	id "stow/pkg/domain"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemoryStore()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) TestUnknownPairIsNotDelegate() {
	ok, err := s.store.IsDelegate(s.ctx, id.NewIdentity(), id.NewIdentity())
	s.Require().NoError(err)
	s.False(ok)
}

func (s *MemoryStoreSuite) TestAuthorizeThenCheck() {
	owner := id.NewIdentity()
	delegate := id.NewIdentity()

	s.Require().NoError(s.store.Authorize(s.ctx, owner, delegate))

	ok, err := s.store.IsDelegate(s.ctx, owner, delegate)
	s.Require().NoError(err)
	s.True(ok)

	// Authorization is directional.
	ok, err = s.store.IsDelegate(s.ctx, delegate, owner)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *MemoryStoreSuite) TestAuthorizeIsIdempotent() {
	owner := id.NewIdentity()
	delegate := id.NewIdentity()

	s.Require().NoError(s.store.Authorize(s.ctx, owner, delegate))
	s.Require().NoError(s.store.Authorize(s.ctx, owner, delegate))

	ok, err := s.store.IsDelegate(s.ctx, owner, delegate)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *MemoryStoreSuite) TestOwnersAreIsolated() {
	ownerA := id.NewIdentity()
	ownerB := id.NewIdentity()
	delegate := id.NewIdentity()

	s.Require().NoError(s.store.Authorize(s.ctx, ownerA, delegate))

	ok, err := s.store.IsDelegate(s.ctx, ownerB, delegate)
	s.Require().NoError(err)
	s.False(ok)
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}
