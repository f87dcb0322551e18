// Package queue carries webhook deliveries and background jobs over Kafka.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"storefront/internal/config"
)

type EventType string

const (
	EventWebhook        EventType = "webhook"
	EventImportProducts EventType = "import.products"
	EventCacheClear     EventType = "cache.clear"
)

// Event is one queued unit of work. Topic is the webhook topic for
// EventWebhook and empty otherwise.
type Event struct {
	Type      EventType       `json:"type"`
	Topic     string          `json:"topic,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewKafkaPublisher(cfg config.Kafka, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
		logger: logger,
	}
}

// Publish keys webhook events by topic so deliveries for one topic stay
// ordered within a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	msg := kafka.Message{Key: []byte(string(event.Type) + ":" + event.Topic), Value: value}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	p.logger.Debug("Published event", zap.String("type", string(event.Type)), zap.String("topic", event.Topic))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Decode parses a message value written by Publish.
func Decode(value []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(value, &e); err != nil {
		return e, fmt.Errorf("failed to parse event: %w", err)
	}
	if e.Type == "" {
		return e, fmt.Errorf("failed to parse event: missing type")
	}
	return e, nil
}
