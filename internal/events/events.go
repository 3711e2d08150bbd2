// Package events publishes domain events produced by the catalog and
// inventory engines. Publication is best effort: a committed order or product
// is never rolled back because an event could not be delivered.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher delivers a keyed JSON payload to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
	Close() error
}

// ProductCreated is emitted after a product is stored.
type ProductCreated struct {
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Sizes     int       `json:"sizes"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlaced is emitted after an order commit succeeds.
type OrderPlaced struct {
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	Items       int       `json:"items"`
	TotalAmount string    `json:"total_amount"`
	Timestamp   time.Time `json:"timestamp"`
}

// ── Kafka ────────────────────────────────────────────────────────────────────

type kafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher returns a Publisher writing to the given brokers. The
// topic is chosen per message.
func NewKafkaPublisher(brokers []string) Publisher {
	return &kafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

func (p *kafkaPublisher) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  time.Now().UTC(),
	})
}

func (p *kafkaPublisher) Close() error { return p.writer.Close() }

// ── Log only ─────────────────────────────────────────────────────────────────

type logPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher returns a Publisher that only logs events. Used when no
// brokers are configured.
func NewLogPublisher(logger *zap.Logger) Publisher {
	return &logPublisher{logger: logger}
}

func (p *logPublisher) Publish(_ context.Context, topic, key string, payload interface{}) error {
	p.logger.Debug("domain_event", zap.String("topic", topic), zap.String("key", key), zap.Any("payload", payload))
	return nil
}

func (p *logPublisher) Close() error { return nil }

// Emit publishes and logs, but never returns, a delivery failure.
func Emit(ctx context.Context, pub Publisher, logger *zap.Logger, topic, key string, payload interface{}) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, topic, key, payload); err != nil {
		logger.Warn("event_publish_failed", zap.String("topic", topic), zap.String("key", key), zap.Error(err))
	}
}

// KafkaReady returns a readiness check that dials the first reachable broker.
func KafkaReady(brokers []string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		var lastErr error
		for _, b := range brokers {
			conn, err := kafka.DialContext(ctx, "tcp", b)
			if err != nil {
				lastErr = err
				continue
			}
			return conn.Close()
		}
		if lastErr == nil {
			lastErr = fmt.Errorf("no kafka brokers configured")
		}
		return lastErr
	}
}
