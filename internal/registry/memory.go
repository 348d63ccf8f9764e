// Package registry provides clients for the external user and record
// registries the ledger consults on every owner-gated operation. The memory
// implementations back tests and single-process deployments; the HTTP clients
// talk to independently operated registry services.
package registry

import (
	"context"
	"sync"

	id "stow/pkg/domain"
	"stow/pkg/platform/sentinel"
)

// MemoryUserRegistry is an in-process user registry.
type MemoryUserRegistry struct {
	mu    sync.RWMutex
	users map[id.Identity]struct{}
}

func NewMemoryUserRegistry() *MemoryUserRegistry {
	return &MemoryUserRegistry{users: make(map[id.Identity]struct{})}
}

// Register adds an identity to the registry.
func (r *MemoryUserRegistry) Register(identity id.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[identity] = struct{}{}
}

func (r *MemoryUserRegistry) IsUser(_ context.Context, identity id.Identity) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.users[identity]
	return ok, nil
}

// MemoryRecordRegistry is an in-process record ownership registry.
type MemoryRecordRegistry struct {
	mu     sync.RWMutex
	owners map[id.RecordHash]id.Identity
}

func NewMemoryRecordRegistry() *MemoryRecordRegistry {
	return &MemoryRecordRegistry{owners: make(map[id.RecordHash]id.Identity)}
}

// SetOwner records (or transfers) ownership of a record.
func (r *MemoryRecordRegistry) SetOwner(record id.RecordHash, owner id.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners[record] = owner
}

func (r *MemoryRecordRegistry) RecordOwnerOf(_ context.Context, record id.RecordHash) (id.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owner, ok := r.owners[record]
	if !ok {
		return id.ZeroIdentity, sentinel.ErrNotFound
	}
	return owner, nil
}
