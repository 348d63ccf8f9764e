package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	rows   []Row
	marked []uuid.UUID
}

func (s *fakeSource) Pending(_ context.Context, limit int) ([]Row, error) {
	if len(s.rows) > limit {
		return s.rows[:limit], nil
	}
	return s.rows, nil
}

func (s *fakeSource) MarkPublished(_ context.Context, ids []uuid.UUID) error {
	s.marked = append(s.marked, ids...)
	remaining := s.rows[:0]
	for _, row := range s.rows {
		published := false
		for _, id := range ids {
			if row.ID == id {
				published = true
				break
			}
		}
		if !published {
			remaining = append(remaining, row)
		}
	}
	s.rows = remaining
	return nil
}

type fakeProducer struct {
	produced [][]byte
	failOn   int // 1-based index of the call that fails; 0 means never
	calls    int
}

func (p *fakeProducer) Produce(_ context.Context, _ string, value []byte) error {
	p.calls++
	if p.failOn != 0 && p.calls == p.failOn {
		return errors.New("broker unavailable")
	}
	p.produced = append(p.produced, value)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func row(payload string) Row {
	return Row{ID: uuid.New(), Key: "record", Value: []byte(payload)}
}

func TestRelay_DrainOnce(t *testing.T) {
	t.Run("publishes and marks every pending row", func(t *testing.T) {
		source := &fakeSource{rows: []Row{row("a"), row("b"), row("c")}}
		producer := &fakeProducer{}
		r := New(source, producer, discardLogger())

		require.NoError(t, r.DrainOnce(context.Background()))

		assert.Len(t, producer.produced, 3)
		assert.Len(t, source.marked, 3)
		assert.Empty(t, source.rows)
	})

	t.Run("a produce failure stops the batch but keeps earlier rows marked", func(t *testing.T) {
		source := &fakeSource{rows: []Row{row("a"), row("b"), row("c")}}
		producer := &fakeProducer{failOn: 2}
		r := New(source, producer, discardLogger())

		require.NoError(t, r.DrainOnce(context.Background()))

		// Only the first row made it out; the failed row and its successor
		// stay pending for the next tick.
		assert.Len(t, producer.produced, 1)
		assert.Len(t, source.marked, 1)
		assert.Len(t, source.rows, 2)
	})

	t.Run("empty outbox is a no-op", func(t *testing.T) {
		source := &fakeSource{}
		producer := &fakeProducer{}
		r := New(source, producer, discardLogger())

		require.NoError(t, r.DrainOnce(context.Background()))
		assert.Zero(t, producer.calls)
		assert.Empty(t, source.marked)
	})

	t.Run("respects the batch size", func(t *testing.T) {
		source := &fakeSource{rows: []Row{row("a"), row("b"), row("c")}}
		producer := &fakeProducer{}
		r := New(source, producer, discardLogger(), WithBatchSize(2))

		require.NoError(t, r.DrainOnce(context.Background()))
		assert.Len(t, producer.produced, 2)
		assert.Len(t, source.rows, 1)
	})
}
