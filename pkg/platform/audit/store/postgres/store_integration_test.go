//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "stow/pkg/domain"
	"stow/pkg/platform/audit"
	txcontext "stow/pkg/platform/tx"
	"stow/pkg/testutil/containers"
)

func TestStore_Integration(t *testing.T) {
	ctx := context.Background()
	pc := containers.NewPostgresContainer(t)
	pc.ApplySchema(t)
	store := New(pc.DB)

	owner := id.NewIdentity()
	viewer := id.NewIdentity()
	record := id.HashRecord([]byte("mri scan"))

	t.Run("append writes event and outbox row", func(t *testing.T) {
		pc.Truncate(t)

		err := store.Append(ctx, audit.Event{
			Timestamp:    time.Now(),
			Record:       record,
			Owner:        owner,
			Viewer:       viewer,
			Actor:        owner,
			Action:       string(audit.ActionAccessGranted),
			KeyReference: "ipfs://QmKey",
			RequestID:    "req-1",
		})
		require.NoError(t, err)

		events, err := store.ListByRecord(ctx, record)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, string(audit.ActionAccessGranted), events[0].Action)
		assert.Equal(t, audit.CategoryCompliance, events[0].Category)
		assert.Equal(t, owner, events[0].Owner)
		assert.Equal(t, "ipfs://QmKey", events[0].KeyReference)

		rows, err := store.FetchUnpublished(ctx, 10)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "record", rows[0].AggregateType)
		assert.Equal(t, record.String(), rows[0].AggregateID)
		assert.Contains(t, string(rows[0].Payload), "ipfs://QmKey")
	})

	t.Run("ledger-wide events round-trip with zero record", func(t *testing.T) {
		pc.Truncate(t)

		err := store.Append(ctx, audit.Event{
			Timestamp: time.Now(),
			Action:    string(audit.ActionLedgerPaused),
		})
		require.NoError(t, err)

		events, err := store.ListRecent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.True(t, events[0].Record.IsZero())
		assert.True(t, events[0].Owner.IsZero())
	})

	t.Run("mark published removes rows from the pending set", func(t *testing.T) {
		pc.Truncate(t)

		for range 3 {
			require.NoError(t, store.Append(ctx, audit.Event{
				Timestamp: time.Now(),
				Record:    record,
				Owner:     owner,
				Action:    string(audit.ActionAccessRevoked),
			}))
		}

		rows, err := store.FetchUnpublished(ctx, 10)
		require.NoError(t, err)
		require.Len(t, rows, 3)

		ids := make([]uuid.UUID, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
		}
		require.NoError(t, store.MarkPublished(ctx, ids))

		rows, err = store.FetchUnpublished(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, rows)

		// Marking again is a no-op.
		require.NoError(t, store.MarkPublished(ctx, ids))
	})

	t.Run("rolled back transaction leaves no trace", func(t *testing.T) {
		pc.Truncate(t)

		dbTx, err := pc.DB.BeginTx(ctx, nil)
		require.NoError(t, err)
		txCtx := txcontext.WithTx(ctx, dbTx)

		require.NoError(t, store.Append(txCtx, audit.Event{
			Timestamp: time.Now(),
			Record:    record,
			Owner:     owner,
			Action:    string(audit.ActionAccessGranted),
		}))
		require.NoError(t, dbTx.Rollback())

		events, err := store.ListByRecord(ctx, record)
		require.NoError(t, err)
		assert.Empty(t, events)

		rows, err := store.FetchUnpublished(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}
