package permission

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "stow/pkg/domain"
	txcontext "stow/pkg/platform/tx"
)

// PostgresStore persists ledger entries in PostgreSQL. Writes honor a
// transaction carried in the context, so a grant and its audit outbox row
// commit atomically.
//
// Schema:
//
//	CREATE TABLE permissions (
//	    record_hash   TEXT NOT NULL,
//	    viewer_id     UUID NOT NULL,
//	    can_access    BOOLEAN NOT NULL,
//	    key_reference TEXT NOT NULL,
//	    granted_by    UUID,
//	    updated_at    TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (record_hash, viewer_id)
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Get(ctx context.Context, record id.RecordHash, viewer id.Identity) (Permission, error) {
	query := `
		SELECT can_access, key_reference, granted_by, updated_at
		FROM permissions
		WHERE record_hash = $1 AND viewer_id = $2`

	var (
		p         Permission
		grantedBy sql.NullString
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, record.String(), viewer.String()).
		Scan(&p.CanAccess, &p.KeyReference, &grantedBy, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Permission{}, nil
	}
	if err != nil {
		return Permission{}, fmt.Errorf("query permission: %w", err)
	}

	if grantedBy.Valid {
		p.GrantedBy, err = id.ParseIdentity(grantedBy.String)
		if err != nil {
			return Permission{}, fmt.Errorf("stored permission has invalid granter: %w", err)
		}
	}
	return p, nil
}

func (s *PostgresStore) Set(ctx context.Context, record id.RecordHash, viewer id.Identity, p Permission) error {
	if err := p.Validate(); err != nil {
		return err
	}

	var grantedBy sql.NullString
	if !p.GrantedBy.IsZero() {
		grantedBy = sql.NullString{String: p.GrantedBy.String(), Valid: true}
	}

	query := `
		INSERT INTO permissions (record_hash, viewer_id, can_access, key_reference, granted_by, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (record_hash, viewer_id) DO UPDATE SET
			can_access    = EXCLUDED.can_access,
			key_reference = EXCLUDED.key_reference,
			granted_by    = EXCLUDED.granted_by,
			updated_at    = EXCLUDED.updated_at`

	_, err := s.execer(ctx).ExecContext(ctx, query,
		record.String(), viewer.String(), p.CanAccess, p.KeyReference, grantedBy, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert permission: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, record id.RecordHash, viewer id.Identity) error {
	query := `DELETE FROM permissions WHERE record_hash = $1 AND viewer_id = $2`
	if _, err := s.execer(ctx).ExecContext(ctx, query, record.String(), viewer.String()); err != nil {
		return fmt.Errorf("delete permission: %w", err)
	}
	return nil
}
