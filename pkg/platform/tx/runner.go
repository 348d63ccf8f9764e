package tx

import (
	"context"
	"database/sql"
	"fmt"
)

// Runner executes fn atomically. Implementations decide what atomic means:
// the SQL runner wraps fn in a database transaction, the nop runner just
// calls fn for backends with no cross-store transactions.
type Runner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SQLRunner runs fn inside a database/sql transaction threaded through the
// context, so every tx-aware store touched by fn joins the same commit.
type SQLRunner struct {
	DB *sql.DB
}

func (r *SQLRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	dbTx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(WithTx(ctx, dbTx)); err != nil {
		if rbErr := dbTx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// NopRunner calls fn directly. Used with the memory and Badger backends.
type NopRunner struct{}

func (NopRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
