// Package kafka publishes history events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/replyscope/replyscope/pkg/eventstream"
)

// Config configures the Kafka publisher.
type Config struct {
	Brokers []string
	Topic   string

	// BatchTimeout bounds how long the writer waits to fill a batch
	// (default: 50ms; events are low volume).
	BatchTimeout time.Duration
}

// messageWriter is the subset of *kafkago.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes events as JSON messages keyed by task ID so every event
// for a task lands on the same partition.
type Publisher struct {
	writer messageWriter
	topic  string
}

var _ eventstream.Publisher = (*Publisher)(nil)

// NewPublisher creates a Kafka publisher. No connection is made until the
// first publish.
func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka publisher requires at least one broker")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka publisher requires a topic")
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 50 * time.Millisecond
	}

	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafkago.Hash{},
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
	}

	return newPublisher(w, cfg.Topic), nil
}

func newPublisher(w messageWriter, topic string) *Publisher {
	return &Publisher{writer: w, topic: topic}
}

// PublishAnalysis writes an analysis completed event.
func (p *Publisher) PublishAnalysis(ctx context.Context, event *eventstream.AnalysisCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}
	return p.publish(ctx, event.Analysis.TaskID, event.EventType, event)
}

// PublishTask writes a task synced event.
func (p *Publisher) PublishTask(ctx context.Context, event *eventstream.TaskSyncedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}
	return p.publish(ctx, event.Task.TaskID, event.EventType, event)
}

func (p *Publisher) publish(ctx context.Context, key, eventType string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", eventType, err)
	}

	msg := kafkago.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing %s to %s: %w", eventType, p.topic, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
