package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"tradelane/pkg/platform/sentinel"
)

// kafkaPayload is the JSON structure published to the audit topic.
type kafkaPayload struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Actor     string `json:"actor,omitempty"`
	Subject   string `json:"subject"`
	Action    string `json:"action"`
	RequestID string `json:"request_id,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// KafkaStore publishes audit events to a Kafka topic. Kafka is the durable
// source of truth for the audit trail; reads go through downstream consumers,
// so ListBySubject is not served here.
type KafkaStore struct {
	client *kgo.Client
	topic  string
}

// NewKafkaStore builds a Kafka-backed audit store.
func NewKafkaStore(brokers []string, topic string) (*KafkaStore, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchMaxBytes(1<<20),
		kgo.ProduceRequestTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaStore{client: client, topic: topic}, nil
}

// Append produces the event synchronously. A failed produce fails the append;
// the worker decides whether that fails the business operation.
func (s *KafkaStore) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(kafkaPayload{
		ID:        event.ID,
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		Actor:     event.Actor.String(),
		Subject:   event.Subject,
		Action:    string(event.Action),
		RequestID: event.RequestID,
		Detail:    event.Detail,
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.Subject),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// ListBySubject is served by downstream consumers, not the producer side.
func (s *KafkaStore) ListBySubject(context.Context, string) ([]Event, error) {
	return nil, sentinel.ErrUnavailable
}

// Close flushes pending records and releases the client.
func (s *KafkaStore) Close(ctx context.Context) error {
	if err := s.client.Flush(ctx); err != nil {
		return fmt.Errorf("flush kafka client: %w", err)
	}
	s.client.Close()
	return nil
}
