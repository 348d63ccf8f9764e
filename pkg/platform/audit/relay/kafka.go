package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"stow/pkg/platform/audit/store/postgres"
)

// KafkaProducer publishes outbox payloads to the audit export topic.
type KafkaProducer struct {
	client *kgo.Client
	topic  string
}

// NewKafkaProducer connects to the given brokers. Call EnsureTopic before the
// relay starts so first delivery never races topic auto-creation.
func NewKafkaProducer(brokers []string, topic string) (*KafkaProducer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaProducer{client: client, topic: topic}, nil
}

// EnsureTopic creates the export topic if it does not exist.
func (p *KafkaProducer) EnsureTopic(ctx context.Context, partitions int32, replication int16) error {
	adm := kadm.NewClient(p.client)
	resp, err := adm.CreateTopics(ctx, partitions, replication, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Produce delivers one payload synchronously, keyed for per-record ordering.
func (p *KafkaProducer) Produce(ctx context.Context, key string, value []byte) error {
	record := &kgo.Record{Key: []byte(key), Value: value}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes and tears down the underlying client.
func (p *KafkaProducer) Close() {
	p.client.Close()
}

// OutboxSource adapts the postgres audit store to the relay's Source.
type OutboxSource struct {
	store *postgres.Store
}

func NewOutboxSource(store *postgres.Store) *OutboxSource {
	return &OutboxSource{store: store}
}

func (s *OutboxSource) Pending(ctx context.Context, limit int) ([]Row, error) {
	rows, err := s.store.FetchUnpublished(ctx, limit)
	if err != nil {
		return nil, err
	}
	result := make([]Row, 0, len(rows))
	for _, row := range rows {
		result = append(result, Row{ID: row.ID, Key: row.AggregateID, Value: row.Payload})
	}
	return result, nil
}

func (s *OutboxSource) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	return s.store.MarkPublished(ctx, ids)
}
