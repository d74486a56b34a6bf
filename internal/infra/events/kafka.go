package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"coupon-marketplace/internal/domain/ports/adapter"
	"coupon-marketplace/internal/infra/logging"
	"coupon-marketplace/internal/infra/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

var _ adapter.EventPublisher = (*KafkaPublisher)(nil)

// Envelope is the wire format of every lifecycle event on the topic.
type Envelope struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Key        string         `json:"key"`
	OccurredAt time.Time      `json:"occurredAt"`
	TraceID    string         `json:"traceId,omitempty"`
	Payload    map[string]any `json:"payload"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events keyed by aggregate id, so a coupon's events stay ordered
// within one partition.
type KafkaPublisher struct {
	w   messageWriter
	log *zerolog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *zerolog.Logger) *KafkaPublisher {
	l := logger.With().Str("component", "kafka").Str("topic", topic).Logger()
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			BatchTimeout:           50 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
		log: &l,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev adapter.Event) error {
	env := Envelope{
		ID:         uuid.NewString(),
		Type:       ev.Type,
		Key:        ev.Key,
		OccurredAt: ev.OccurredAt,
		TraceID:    logging.TraceID(ctx),
		Payload:    ev.Payload,
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:     []byte(ev.Key),
		Value:   value,
		Time:    ev.OccurredAt,
		Headers: []kafka.Header{{Key: "event-type", Value: []byte(ev.Type)}},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		metrics.IncEventPublished(ev.Type, "error")
		return fmt.Errorf("write event %s: %w", ev.Type, err)
	}
	metrics.IncEventPublished(ev.Type, "ok")
	p.log.Debug().Str("event", ev.Type).Str("key", ev.Key).Msg("event published")
	return nil
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct {
	log *zerolog.Logger
}

var _ adapter.EventPublisher = (*NoopPublisher)(nil)

func NewNoopPublisher(logger *zerolog.Logger) *NoopPublisher {
	return &NoopPublisher{log: logger}
}

func (p *NoopPublisher) Publish(ctx context.Context, ev adapter.Event) error {
	p.log.Debug().Str("event", ev.Type).Str("key", ev.Key).Msg("event (not published)")
	return nil
}
