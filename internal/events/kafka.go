package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaPublisher writes events to Kafka, one topic per event name
type KafkaPublisher struct {
	writer *kafka.Writer
	prefix string
	log    *zap.Logger

	// Timeout bounds the metadata lookup Publish does before enqueueing
	Timeout time.Duration
}

const defaultPublishTimeout = 2 * time.Second

// NewKafkaPublisher creates a publisher for brokers. Topics are named
// prefix + "." + event name and are auto-created by the broker. Writes are
// async: Publish only enqueues, delivery failures are logged.
func NewKafkaPublisher(brokers []string, prefix string, log *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		Async:                  true,
		MaxAttempts:            3,
		BatchTimeout:           10 * time.Millisecond,
		ReadTimeout:            10 * time.Second,
		WriteTimeout:           10 * time.Second,
	}
	writer.Completion = func(messages []kafka.Message, err error) {
		if err == nil {
			return
		}
		for _, m := range messages {
			log.Error("failed to deliver event", zap.String("topic", m.Topic), zap.ByteString("key", m.Key), zap.Error(err))
		}
	}

	return &KafkaPublisher{writer: writer, prefix: prefix, log: log, Timeout: defaultPublishTimeout}
}

// Topic returns the topic an event name is written to
func (p *KafkaPublisher) Topic(name string) string {
	if p.prefix == "" {
		return name
	}
	return p.prefix + "." + name
}

// Publish serializes the event envelope and enqueues it keyed by key so all
// events of one bet land on one partition.
func (p *KafkaPublisher) Publish(ctx context.Context, name string, key string, payload any) error {
	env, err := newEnvelope(name, payload)
	if err != nil {
		return err
	}
	value, err := json.Marshal(env)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.Topic(name),
		Key:   []byte(key),
		Value: value,
		Time:  env.OccurredAt,
	}
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("failed to enqueue event", zap.String("event", name), zap.Error(err))
		return err
	}

	p.log.Debug("enqueued event", zap.String("event", name), zap.String("key", key))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
