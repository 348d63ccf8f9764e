//go:build integration

package containers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers Postgres instance.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a new Postgres container and opens a database
// handle against it.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("stow"),
		tcpostgres.WithUsername("stow"),
		tcpostgres.WithPassword("stow"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	// Ryuk reaps the container when the test process exits.
	return &PostgresContainer{Container: container, DSN: dsn, DB: db}
}

// Exec runs a statement, failing the test on error. Used for schema setup and
// truncation between tests.
func (p *PostgresContainer) Exec(t *testing.T, stmt string) {
	t.Helper()
	if _, err := p.DB.Exec(stmt); err != nil {
		t.Fatalf("exec %q: %v", stmt, err)
	}
}

// ApplySchema creates the ledger tables.
func (p *PostgresContainer) ApplySchema(t *testing.T) {
	t.Helper()
	p.Exec(t, `
		CREATE TABLE IF NOT EXISTS permissions (
			record_hash   TEXT NOT NULL,
			viewer_id     UUID NOT NULL,
			can_access    BOOLEAN NOT NULL,
			key_reference TEXT NOT NULL,
			granted_by    UUID,
			updated_at    TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (record_hash, viewer_id)
		)`)
	p.Exec(t, `
		CREATE TABLE IF NOT EXISTS delegate_authorizations (
			owner_id      UUID NOT NULL,
			delegate_id   UUID NOT NULL,
			authorized_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (owner_id, delegate_id)
		)`)
	p.Exec(t, `
		CREATE TABLE IF NOT EXISTS audit_events (
			id            UUID PRIMARY KEY,
			category      TEXT NOT NULL,
			timestamp     TIMESTAMPTZ NOT NULL,
			record_hash   TEXT NOT NULL,
			owner_id      UUID,
			viewer_id     UUID,
			actor_id      UUID,
			action        TEXT NOT NULL,
			key_reference TEXT,
			evaluator     TEXT,
			decision      TEXT,
			reason        TEXT,
			request_id    TEXT
		)`)
	p.Exec(t, `
		CREATE TABLE IF NOT EXISTS outbox (
			id             UUID PRIMARY KEY,
			aggregate_type TEXT NOT NULL,
			aggregate_id   TEXT NOT NULL,
			event_type     TEXT NOT NULL,
			payload        JSONB NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL,
			published_at   TIMESTAMPTZ
		)`)
}

// Truncate empties the ledger tables between tests.
func (p *PostgresContainer) Truncate(t *testing.T) {
	t.Helper()
	p.Exec(t, `TRUNCATE permissions, delegate_authorizations, audit_events, outbox`)
}
