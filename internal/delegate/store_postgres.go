package delegate

import (
	"context"
	"database/sql"
	"fmt"

	id "stow/pkg/domain"
	txcontext "stow/pkg/platform/tx"
)

// PostgresStore persists delegate authorizations in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE delegate_authorizations (
//	    owner_id      UUID NOT NULL,
//	    delegate_id   UUID NOT NULL,
//	    authorized_at TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    PRIMARY KEY (owner_id, delegate_id)
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

func (s *PostgresStore) Authorize(ctx context.Context, owner, delegate id.Identity) error {
	query := `
		INSERT INTO delegate_authorizations (owner_id, delegate_id)
		VALUES ($1, $2)
		ON CONFLICT (owner_id, delegate_id) DO NOTHING`

	if _, err := s.execer(ctx).ExecContext(ctx, query, owner.String(), delegate.String()); err != nil {
		return fmt.Errorf("insert delegate authorization: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsDelegate(ctx context.Context, owner, delegate id.Identity) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM delegate_authorizations
			WHERE owner_id = $1 AND delegate_id = $2
		)`

	var exists bool
	err := s.execer(ctx).QueryRowContext(ctx, query, owner.String(), delegate.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query delegate authorization: %w", err)
	}
	return exists, nil
}
