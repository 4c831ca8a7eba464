package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer used by KafkaRepo.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaRepo publishes events as JSON to a topic, keyed by user id so a
// user's events stay ordered within a partition.
type KafkaRepo struct {
	w       MessageWriter
	timeout time.Duration
}

// NewKafkaWriter builds a writer for topic. RequireOne keeps sign-in latency
// bounded while still surfacing broker errors.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaRepo(w MessageWriter) *KafkaRepo {
	return &KafkaRepo{w: w, timeout: 5 * time.Second}
}

func (r *KafkaRepo) Append(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("audit: marshal event: %w", err)
	}
	key := e.UserID
	if key == "" {
		key = e.Username
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  e.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	}); err != nil {
		return fmt.Errorf("audit: publish: %w", err)
	}
	return nil
}

func (r *KafkaRepo) Close() error { return r.w.Close() }
