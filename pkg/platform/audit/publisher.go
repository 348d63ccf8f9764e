package audit

import (
	"context"
	"time"

	id "stow/pkg/domain"
)

// Publisher captures structured audit events. Emission is synchronous and
// fail-closed: a state-changing operation must not report success if its
// audit entry could not be persisted. Tests swap the store for the in-memory
// implementation.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// Emit persists one event. The category is always derived from the action so
// callers cannot misfile an event. A zero timestamp is stamped here.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.Category = Action(event.Action).Category()
	return p.store.Append(ctx, event)
}

// ListByRecord returns the audit trail for one record, newest first where the
// backing store supports ordering.
func (p *Publisher) ListByRecord(ctx context.Context, record id.RecordHash) ([]Event, error) {
	return p.store.ListByRecord(ctx, record)
}

// ListRecent returns the most recent events across all records.
func (p *Publisher) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	return p.store.ListRecent(ctx, limit)
}
