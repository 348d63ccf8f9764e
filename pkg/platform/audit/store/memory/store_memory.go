package memory

import (
	"context"
	"sync"

	id "stow/pkg/domain"
	audit "stow/pkg/platform/audit"
)

// InMemoryStore keeps audit events per record in append order. Used in tests
// and the memory-backed server mode.
type InMemoryStore struct {
	mu       sync.RWMutex
	byRecord map[id.RecordHash][]audit.Event
	ordered  []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byRecord: make(map[id.RecordHash][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byRecord = make(map[id.RecordHash][]audit.Event)
	s.ordered = nil
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byRecord[event.Record] = append(s.byRecord[event.Record], event)
	s.ordered = append(s.ordered, event)
	return nil
}

func (s *InMemoryStore) ListByRecord(_ context.Context, record id.RecordHash) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.byRecord[record]...), nil
}

// ListRecent returns the last N events in append order.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := len(s.ordered) - limit
	if start < 0 {
		start = 0
	}
	return append([]audit.Event{}, s.ordered[start:]...), nil
}
