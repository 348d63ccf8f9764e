package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	id "stow/pkg/domain"
	audit "stow/pkg/platform/audit"
)

type InMemoryAuditStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func (s *InMemoryAuditStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
}

func TestInMemoryAuditStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryAuditStoreSuite))
}

func (s *InMemoryAuditStoreSuite) TestAppendOrder() {
	s.Run("preserves append order per record", func() {
		record := id.HashRecord([]byte("record-a"))
		other := id.HashRecord([]byte("record-b"))

		s.Require().NoError(s.store.Append(context.Background(), audit.Event{Record: record, Action: string(audit.ActionAccessGranted)}))
		s.Require().NoError(s.store.Append(context.Background(), audit.Event{Record: other, Action: string(audit.ActionDelegateAdded)}))
		s.Require().NoError(s.store.Append(context.Background(), audit.Event{Record: record, Action: string(audit.ActionAccessRevoked)}))

		events, err := s.store.ListByRecord(context.Background(), record)
		s.Require().NoError(err)
		s.Require().Len(events, 2)
		s.Equal(string(audit.ActionAccessGranted), events[0].Action)
		s.Equal(string(audit.ActionAccessRevoked), events[1].Action)
	})

	s.Run("unknown record yields empty trail", func() {
		events, err := s.store.ListByRecord(context.Background(), id.HashRecord([]byte("never-written")))
		s.Require().NoError(err)
		s.Empty(events)
	})
}

func (s *InMemoryAuditStoreSuite) TestListRecent() {
	record := id.HashRecord([]byte("record"))
	for _, action := range []audit.Action{audit.ActionAccessGranted, audit.ActionPolicyChecked, audit.ActionAccessRevoked} {
		s.Require().NoError(s.store.Append(context.Background(), audit.Event{Record: record, Action: string(action)}))
	}

	s.Run("returns the trailing window", func() {
		events, err := s.store.ListRecent(context.Background(), 2)
		s.Require().NoError(err)
		s.Require().Len(events, 2)
		s.Equal(string(audit.ActionPolicyChecked), events[0].Action)
		s.Equal(string(audit.ActionAccessRevoked), events[1].Action)
	})

	s.Run("limit larger than history returns everything", func() {
		events, err := s.store.ListRecent(context.Background(), 10)
		s.Require().NoError(err)
		s.Len(events, 3)
	})
}
