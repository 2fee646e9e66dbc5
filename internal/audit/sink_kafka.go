package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	DefaultTopic = "padron.audit.lookups"

	headerRequestID = "request_id"
	headerAction    = "action"
	flushTimeout    = 5 * time.Second
)

// producer is the subset of *kgo.Client used by KafkaSink.
type producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	Flush(ctx context.Context) error
	Close()
}

// KafkaSink produces audit events as JSON records keyed by the masked subject.
// Produce is asynchronous; delivery failures are logged, never returned to the
// lookup path.
type KafkaSink struct {
	client producer
	topic  string
	logger *slog.Logger
}

// NewKafkaSink connects a franz-go client to the given seed brokers.
func NewKafkaSink(brokers []string, topic string, logger *slog.Logger, opts ...kgo.Opt) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka audit sink requires at least one broker")
	}
	if topic == "" {
		topic = DefaultTopic
	}
	base := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerLinger(50 * time.Millisecond),
	}
	client, err := kgo.NewClient(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return newKafkaSink(client, topic, logger), nil
}

func newKafkaSink(client producer, topic string, logger *slog.Logger) *KafkaSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaSink{client: client, topic: topic, logger: logger}
}

func (s *KafkaSink) Append(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.Subject),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: headerAction, Value: []byte(event.Action)},
			{Key: headerRequestID, Value: []byte(event.RequestID)},
		},
		Timestamp: event.Timestamp,
	}
	// The record must outlive the request that produced it.
	s.client.Produce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		if err != nil {
			s.logger.Error("failed to deliver audit event",
				"error", err,
				"topic", r.Topic,
				"request_id", event.RequestID,
			)
		}
	})
	return nil
}

// Close flushes buffered records and releases the client.
func (s *KafkaSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	err := s.client.Flush(ctx)
	s.client.Close()
	if err != nil {
		return fmt.Errorf("flush audit records: %w", err)
	}
	return nil
}
