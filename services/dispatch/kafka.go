package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// Envelope is the public shape of a lifecycle event on the stream.
type Envelope struct {
	EventID      string                 `json:"eventId"`
	Type         string                 `json:"type"`
	OnboardingID uint                   `json:"onboardingId"`
	ActorID      *uint                  `json:"actorId,omitempty"`
	ActorRole    string                 `json:"actorRole,omitempty"`
	OccurredAt   time.Time              `json:"occurredAt"`
	Payload      map[string]interface{} `json:"payload,omitempty"`
}

// Publisher forwards envelopes to an event stream.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
	Close() error
}

// KafkaPublisher writes envelopes keyed by onboarding id so one record's events stay ordered.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
			RequiredAcks:           kafka.RequireAll,
			MaxAttempts:            3,
			WriteTimeout:           10 * time.Second,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(env.OnboardingID), 10)),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(env.Type)},
			{Key: "event-id", Value: []byte(env.EventID)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
