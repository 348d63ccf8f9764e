package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// OutboxRow is one unpublished outbox entry awaiting Kafka delivery.
type OutboxRow struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
}

// FetchUnpublished returns up to limit unpublished outbox rows in creation
// order. The query runs in autocommit, so the SKIP LOCKED row locks are
// released when the statement ends and concurrent relay instances may fetch
// the same rows. Delivery is at-least-once; MarkPublished is idempotent and
// consumers must deduplicate on event ID.
func (s *Store) FetchUnpublished(ctx context.Context, limit int) ([]OutboxRow, error) {
	query := `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch outbox rows: %w", err)
	}
	defer rows.Close()

	var result []OutboxRow
	for rows.Next() {
		var row OutboxRow
		if err := rows.Scan(&row.ID, &row.AggregateType, &row.AggregateID,
			&row.EventType, &row.Payload, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// MarkPublished stamps outbox rows as delivered. Idempotent: already-stamped
// rows are left untouched.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	query := `
		UPDATE outbox
		SET published_at = $1
		WHERE id = ANY($2) AND published_at IS NULL
	`
	if _, err := s.db.ExecContext(ctx, query, time.Now(), pq.Array(ids)); err != nil {
		return fmt.Errorf("mark outbox rows published: %w", err)
	}
	return nil
}
