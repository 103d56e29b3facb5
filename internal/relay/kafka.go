package relay

import (
	"context"

	"github.com/segmentio/kafka-go"

	"github.com/ziris-labs/ziris/internal/errors"
)

// Kafka appends every message to a topic, keyed by zone.
type Kafka struct {
	writer *kafka.Writer
}

// NewKafka creates a synchronous producer.
func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{}, // one partition per zone keeps order
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
	}
}

// Name implements Sink.
func (k *Kafka) Name() string { return "kafka" }

// Publish implements Sink.
func (k *Kafka) Publish(ctx context.Context, m Message) error {
	key, payload, err := m.Encode()
	if err != nil {
		return err
	}
	if err := k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: payload}); err != nil {
		return errors.WrapWithCode(err, errors.ErrNetwork, "Failed to write view to Kafka", "")
	}
	return nil
}

// Close implements Sink.
func (k *Kafka) Close() error {
	return k.writer.Close()
}
