// Package kafka publishes JSON-encoded events with segmentio/kafka-go.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/wordle-solver/pkg/config"
)

// Event is one message. Key selects the partition; Value is JSON-encoded.
type Event struct {
	Key   string
	Value any
}

// Writer is the part of *kafka.Writer the Producer uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer Writer
	logger *slog.Logger
}

// NewProducer creates a synchronous producer for topic.
func NewProducer(cfg config.KafkaConfig, topic string) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireAll,
	}
	return NewProducerWithWriter(w, topic)
}

// NewProducerWithWriter wraps an existing writer.
func NewProducerWithWriter(w Writer, topic string) *Producer {
	return &Producer{
		writer: w,
		logger: slog.Default().With("component", "kafka-producer", "topic", topic),
	}
}

// PublishBatch writes events in one call.
func (p *Producer) PublishBatch(ctx context.Context, events []Event) error {
	messages := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		value, err := json.Marshal(event.Value)
		if err != nil {
			return fmt.Errorf("marshaling event %s: %w", event.Key, err)
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(event.Key),
			Value: value,
		})
	}
	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("publishing %d messages: %w", len(messages), err)
	}
	p.logger.Debug("batch published", "count", len(messages))
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
