package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/mvaleed/privatedetails/internal/domain"
)

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// KafkaConfig holds producer settings.
type KafkaConfig struct {
	Brokers         []string
	Topic           string
	DeliveryTimeout time.Duration
}

// KafkaPublisher publishes events to a single topic, keyed by user id so that
// all events for one user land on the same partition in order.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// kafkaMessage is the JSON value written for each event.
type kafkaMessage struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	UserID    string         `json:"user_id"`
	Data      map[string]any `json:"data,omitempty"`
}

func NewKafkaPublisher(cfg KafkaConfig, logger *slog.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic not configured")
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(5 * time.Millisecond),
		kgo.AllowAutoTopicCreation(),
	}
	if cfg.DeliveryTimeout > 0 {
		opts = append(opts, kgo.RecordDeliveryTimeout(cfg.DeliveryTimeout))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &KafkaPublisher{
		client: client,
		topic:  cfg.Topic,
		logger: logger,
	}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, event domain.Event) error {
	return p.PublishBatch(ctx, []domain.Event{event})
}

// PublishBatch produces all records and waits for every acknowledgement.
func (p *KafkaPublisher) PublishBatch(ctx context.Context, events []domain.Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	records := make([]*kgo.Record, 0, len(events))
	for _, e := range events {
		record, err := toRecord(p.topic, e)
		if err != nil {
			return err
		}
		records = append(records, record)
	}

	if err := p.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce events: %w", err)
	}
	return nil
}

// Close flushes buffered records and closes the client.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := p.client.Flush(ctx); err != nil {
		p.logger.Warn("kafka publisher closed with unflushed events", slog.String("error", err.Error()))
	}
	p.client.Close()
	return nil
}

// Healthy reports whether the brokers answer.
func (p *KafkaPublisher) Healthy(ctx context.Context) error {
	return p.client.Ping(ctx)
}

func toRecord(topic string, e domain.Event) (*kgo.Record, error) {
	value, err := json.Marshal(kafkaMessage{
		ID:        e.ID.String(),
		Type:      e.Type,
		Timestamp: e.Timestamp,
		UserID:    e.UserID.String(),
		Data:      e.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", e.ID, err)
	}

	return &kgo.Record{
		Topic: topic,
		Key:   []byte(e.UserID.String()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	}, nil
}
