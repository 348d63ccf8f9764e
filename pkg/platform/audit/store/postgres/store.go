package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "stow/pkg/domain"
	audit "stow/pkg/platform/audit"
	txcontext "stow/pkg/platform/tx"
)

// Store implements audit.Store using the transactional outbox pattern.
// Events are written to the outbox table in the same transaction as the
// permission mutation they describe, and published to Kafka by the relay.
// Kafka is the export channel; the audit_events table serves queries.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// outboxPayload is the JSON structure published to Kafka. Field names match
// audit.Event for deserialization by downstream consumers.
type outboxPayload struct {
	ID           string `json:"ID"`
	Category     string `json:"Category"`
	Timestamp    string `json:"Timestamp"`
	Record       string `json:"Record"`
	Owner        string `json:"Owner,omitempty"`
	Viewer       string `json:"Viewer,omitempty"`
	Actor        string `json:"Actor,omitempty"`
	Action       string `json:"Action"`
	KeyReference string `json:"KeyReference,omitempty"`
	Evaluator    string `json:"Evaluator,omitempty"`
	Decision     string `json:"Decision,omitempty"`
	Reason       string `json:"Reason,omitempty"`
	RequestID    string `json:"RequestID,omitempty"`
}

func identityOrEmpty(i id.Identity) string {
	if i.IsZero() {
		return ""
	}
	return i.String()
}

// Append writes an audit event to both the queryable audit_events table and
// the outbox, inside the caller's transaction when one is in context.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()

	// The category is always derived from the action; the actionCategories
	// map is the source of truth.
	category := audit.Action(event.Action).Category()

	payload := outboxPayload{
		ID:           eventID.String(),
		Category:     string(category),
		Timestamp:    event.Timestamp.Format(time.RFC3339Nano),
		Record:       event.Record.String(),
		Owner:        identityOrEmpty(event.Owner),
		Viewer:       identityOrEmpty(event.Viewer),
		Actor:        identityOrEmpty(event.Actor),
		Action:       event.Action,
		KeyReference: event.KeyReference,
		Evaluator:    event.Evaluator,
		Decision:     event.Decision,
		Reason:       event.Reason,
		RequestID:    event.RequestID,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	exec := s.execer(ctx)

	insertEvent := `
		INSERT INTO audit_events (
			id, category, timestamp, record_hash, owner_id, viewer_id,
			actor_id, action, key_reference, evaluator, decision, reason,
			request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = exec.ExecContext(ctx, insertEvent,
		eventID,
		string(category),
		event.Timestamp,
		event.Record.String(),
		nullableIdentity(event.Owner),
		nullableIdentity(event.Viewer),
		nullableIdentity(event.Actor),
		event.Action,
		event.KeyReference,
		event.Evaluator,
		event.Decision,
		event.Reason,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	insertOutbox := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = exec.ExecContext(ctx, insertOutbox,
		uuid.New(),
		"record",
		event.Record.String(),
		event.Action,
		payloadBytes,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

func nullableIdentity(i id.Identity) any {
	if i.IsZero() {
		return nil
	}
	return uuid.UUID(i)
}

// ListByRecord returns events for a record, newest first.
func (s *Store) ListByRecord(ctx context.Context, record id.RecordHash) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, record_hash, owner_id, viewer_id,
			   actor_id, action, key_reference, evaluator, decision, reason,
			   request_id
		FROM audit_events
		WHERE record_hash = $1
		ORDER BY timestamp DESC
	`
	rows, err := s.db.QueryContext(ctx, query, record.String())
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListRecent returns the most recent events across all records.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, record_hash, owner_id, viewer_id,
			   actor_id, action, key_reference, evaluator, decision, reason,
			   request_id
		FROM audit_events
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			event                  audit.Event
			category, recordHex    string
			owner, viewer, actor   sql.NullString
			keyRef, eval, decision sql.NullString
			reason, requestID      sql.NullString
		)
		err := rows.Scan(&category, &event.Timestamp, &recordHex, &owner, &viewer,
			&actor, &event.Action, &keyRef, &eval, &decision, &reason, &requestID)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		// Ledger-wide events (pause toggles, delegate registrations) store
		// the zero hash, which is not a parseable record reference.
		if recordHex != (id.RecordHash{}).String() {
			record, err := id.ParseRecordHash(recordHex)
			if err != nil {
				return nil, fmt.Errorf("parse stored record hash: %w", err)
			}
			event.Record = record
		}
		event.Owner = parseIdentityOrZero(owner)
		event.Viewer = parseIdentityOrZero(viewer)
		event.Actor = parseIdentityOrZero(actor)
		event.KeyReference = keyRef.String
		event.Evaluator = eval.String
		event.Decision = decision.String
		event.Reason = reason.String
		event.RequestID = requestID.String
		events = append(events, event)
	}
	return events, rows.Err()
}

func parseIdentityOrZero(s sql.NullString) id.Identity {
	if !s.Valid {
		return id.ZeroIdentity
	}
	u, err := uuid.Parse(s.String)
	if err != nil {
		return id.ZeroIdentity
	}
	return id.Identity(u)
}
