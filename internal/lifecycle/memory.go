package lifecycle

import (
	"context"
	"sync/atomic"
)

// MemoryGate keeps the pause flag in process memory. It is the default for
// single-instance deployments and for tests.
type MemoryGate struct {
	paused atomic.Bool
}

func NewMemoryGate() *MemoryGate {
	return &MemoryGate{}
}

func (g *MemoryGate) Paused(_ context.Context) (bool, error) {
	return g.paused.Load(), nil
}

func (g *MemoryGate) Pause(_ context.Context) error {
	g.paused.Store(true)
	return nil
}

func (g *MemoryGate) Resume(_ context.Context) error {
	g.paused.Store(false)
	return nil
}
