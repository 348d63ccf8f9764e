package audit

import (
	"context"

	id "stow/pkg/domain"
)

// Store persists audit events. Implementations must be append-only; nothing
// in this codebase updates or deletes an event once written.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByRecord(ctx context.Context, record id.RecordHash) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
