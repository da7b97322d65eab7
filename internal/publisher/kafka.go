package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nikolayk812/checkout/internal/domain"
	"github.com/segmentio/kafka-go"
)

// envelope is the wire format for one domain event: a stable name plus the
// event's own JSON, keyed by session id so one session's events stay ordered
// within a partition.
type envelope struct {
	Name       string          `json:"name"`
	SessionID  string          `json:"session_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafka(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("json.Marshal event: %w", err)
		}

		header := event.Header()

		value, err := json.Marshal(envelope{
			Name:       event.Name(),
			SessionID:  header.SessionID.String(),
			OccurredAt: header.OccurredAt,
			Payload:    payload,
		})
		if err != nil {
			return fmt.Errorf("json.Marshal envelope: %w", err)
		}

		messages = append(messages, kafka.Message{
			Key:   []byte(header.SessionID.String()),
			Value: value,
		})
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("writer.WriteMessages: %w", err)
	}

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
