package delegate

import (
	"context"
	"sync"

	id "stow/pkg/domain"
)

// MemoryStore keeps delegate authorizations in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	delegates map[id.Identity]map[id.Identity]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{delegates: make(map[id.Identity]map[id.Identity]struct{})}
}

func (s *MemoryStore) Authorize(_ context.Context, owner, delegate id.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.delegates[owner]
	if !ok {
		set = make(map[id.Identity]struct{})
		s.delegates[owner] = set
	}
	set[delegate] = struct{}{}
	return nil
}

func (s *MemoryStore) IsDelegate(_ context.Context, owner, delegate id.Identity) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.delegates[owner][delegate]
	return ok, nil
}
