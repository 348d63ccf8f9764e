// Package relay drains the audit outbox into Kafka. The permission write and
// its outbox row commit atomically; the relay gives at-least-once delivery to
// the export topic, and MarkPublished keeps redelivery bounded to crashes
// between produce and mark.
package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Row is one pending outbox entry. Key carries the record identifier so all
// events for a record land in one partition, preserving per-record order.
type Row struct {
	ID    uuid.UUID
	Key   string
	Value []byte
}

// Source yields unpublished rows and records delivery.
type Source interface {
	Pending(ctx context.Context, limit int) ([]Row, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// Producer delivers one payload to the export channel.
type Producer interface {
	Produce(ctx context.Context, key string, value []byte) error
}

// Relay polls the source and pushes pending rows to the producer.
type Relay struct {
	source   Source
	producer Producer
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

// Option configures the Relay.
type Option func(*Relay)

// WithInterval sets the polling interval (default 1s).
func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithBatchSize sets how many rows one poll drains (default 100).
func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batch = n
		}
	}
}

func New(source Source, producer Producer, logger *slog.Logger, opts ...Option) *Relay {
	r := &Relay{
		source:   source,
		producer: producer,
		logger:   logger,
		interval: time.Second,
		batch:    100,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls until the context is cancelled. Produce failures are logged and
// retried on the next tick; they never drop rows.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.DrainOnce(ctx); err != nil {
				r.logger.ErrorContext(ctx, "audit relay drain failed", "error", err)
			}
		}
	}
}

// DrainOnce publishes at most one batch of pending rows. Exported for tests
// and for flushing on shutdown.
func (r *Relay) DrainOnce(ctx context.Context) error {
	rows, err := r.source.Pending(ctx, r.batch)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	published := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		if err := r.producer.Produce(ctx, row.Key, row.Value); err != nil {
			// Stop at the first failure to preserve per-record ordering;
			// everything already produced still gets marked.
			r.logger.WarnContext(ctx, "audit relay produce failed",
				"outbox_id", row.ID,
				"error", err,
			)
			break
		}
		published = append(published, row.ID)
	}
	return r.source.MarkPublished(ctx, published)
}
