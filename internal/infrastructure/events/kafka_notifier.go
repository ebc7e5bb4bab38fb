package events

import (
	"context"
	"fmt"

	"github.com/wms-platform/picking-orchestrator/internal/domain"
	"github.com/wms-platform/picking-orchestrator/pkg/cloudevents"
	"github.com/wms-platform/picking-orchestrator/pkg/resilience"
)

// EventPublisher sends a CloudEvent to a topic
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event *cloudevents.WMSCloudEvent) error
}

// KafkaNotifier publishes events directly, retrying transient failures
type KafkaNotifier struct {
	publisher EventPublisher
	factory   *cloudevents.EventFactory
	topic     string
	retry     *resilience.RetryConfig
}

// NewKafkaNotifier creates a direct notifier. A nil retry config uses the default.
func NewKafkaNotifier(publisher EventPublisher, factory *cloudevents.EventFactory, topic string, retry *resilience.RetryConfig) *KafkaNotifier {
	if retry == nil {
		retry = resilience.DefaultRetryConfig()
	}
	return &KafkaNotifier{publisher: publisher, factory: factory, topic: topic, retry: retry}
}

// Publish implements domain.Notifier
func (n *KafkaNotifier) Publish(ctx context.Context, event domain.DomainEvent) error {
	ce := Envelope(ctx, n.factory, event)

	err := resilience.Retry(ctx, n.retry, func(ctx context.Context) error {
		return n.publisher.PublishEvent(ctx, n.topic, ce)
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.EventType(), err)
	}
	return nil
}
