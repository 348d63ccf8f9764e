package permission

import (
	"context"
	"sync"

	id "stow/pkg/domain"
)

type pairKey struct {
	record id.RecordHash
	viewer id.Identity
}

// MemoryStore keeps ledger entries in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[pairKey]Permission
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[pairKey]Permission)}
}

func (s *MemoryStore) Get(_ context.Context, record id.RecordHash, viewer id.Identity) (Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[pairKey{record: record, viewer: viewer}], nil
}

func (s *MemoryStore) Set(_ context.Context, record id.RecordHash, viewer id.Identity, p Permission) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[pairKey{record: record, viewer: viewer}] = p
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, record id.RecordHash, viewer id.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, pairKey{record: record, viewer: viewer})
	return nil
}
