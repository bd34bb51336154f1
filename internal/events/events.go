package events

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/yourorg/market-dashboard/internal/model"
)

// EventDatasetImported is the type header of DatasetImported messages
const EventDatasetImported = "dataset.imported"

// DatasetImported is published after an upload replaced a dataset
type DatasetImported struct {
	Kind             model.DatasetKind `json:"kind"`
	RecordsProcessed int               `json:"records_processed"`
	DateRange        model.DateRange   `json:"date_range"`
	ArchivedAs       string            `json:"archived_as,omitempty"`
	ImportedAt       time.Time         `json:"imported_at"`
}

// Publisher announces dataset changes
type Publisher interface {
	DatasetImported(ctx context.Context, event DatasetImported) error
	Close() error
}

// KafkaPublisher publishes dataset events to a single topic
type KafkaPublisher struct {
	producer *Producer
	topic    string
}

// NewKafkaPublisher creates a publisher writing to topic
func NewKafkaPublisher(producer *Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// DatasetImported publishes event keyed by dataset kind
func (p *KafkaPublisher) DatasetImported(ctx context.Context, event DatasetImported) error {
	return p.producer.Publish(ctx, p.topic, Message{
		Key:   string(event.Kind),
		Value: event,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(EventDatasetImported)},
		},
	})
}

// Close closes the underlying producer
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher drops every event
type NopPublisher struct{}

// DatasetImported implements Publisher
func (NopPublisher) DatasetImported(context.Context, DatasetImported) error { return nil }

// Close implements Publisher
func (NopPublisher) Close() error { return nil }
