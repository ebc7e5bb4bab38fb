package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wms-platform/picking-orchestrator/pkg/cloudevents"
)

// DefaultMaxRetries bounds relay attempts before an event is parked
const DefaultMaxRetries = 10

// Event is a CloudEvent waiting in the outbox for relay to Kafka
type Event struct {
	ID            string            `bson:"_id" json:"id"`
	AggregateID   string            `bson:"aggregateId" json:"aggregateId"`
	AggregateType string            `bson:"aggregateType" json:"aggregateType"`
	EventType     string            `bson:"eventType" json:"eventType"`
	Topic         string            `bson:"topic" json:"topic"`
	Key           string            `bson:"key" json:"key"`
	Headers       map[string]string `bson:"headers" json:"headers"`
	Payload       json.RawMessage   `bson:"payload" json:"payload"`
	CreatedAt     time.Time         `bson:"createdAt" json:"createdAt"`
	PublishedAt   *time.Time        `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
	RetryCount    int               `bson:"retryCount" json:"retryCount"`
	MaxRetries    int               `bson:"maxRetries" json:"maxRetries"`
	LastError     string            `bson:"lastError,omitempty" json:"lastError,omitempty"`
}

// NewEvent serializes a CloudEvent into an outbox row
func NewEvent(aggregateID, aggregateType, topic string, ce *cloudevents.WMSCloudEvent) (*Event, error) {
	payload, err := json.Marshal(ce)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cloud event: %w", err)
	}

	headers := make(map[string]string)
	for _, h := range ce.Headers() {
		headers[h.Key] = h.Value
	}

	return &Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     ce.Type,
		Topic:         topic,
		Key:           ce.Subject,
		Headers:       headers,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
		MaxRetries:    DefaultMaxRetries,
	}, nil
}

// IsPublished checks if the event has been relayed
func (e *Event) IsPublished() bool {
	return e.PublishedAt != nil
}

// ShouldRetry reports whether another relay attempt is allowed
func (e *Event) ShouldRetry() bool {
	return !e.IsPublished() && e.RetryCount < e.MaxRetries
}

// Repository stores outbox events
type Repository interface {
	Save(ctx context.Context, event *Event) error
	// FindUnpublished returns the oldest unpublished events that still have retries left.
	FindUnpublished(ctx context.Context, limit int) ([]*Event, error)
	MarkPublished(ctx context.Context, eventID string) error
	IncrementRetry(ctx context.Context, eventID, errorMsg string) error
	// DeletePublished removes events published before the cutoff and returns how many.
	DeletePublished(ctx context.Context, before time.Time) (int64, error)
}
