package events

import (
	"context"
	"fmt"

	"github.com/wms-platform/picking-orchestrator/internal/domain"
	"github.com/wms-platform/picking-orchestrator/pkg/cloudevents"
	"github.com/wms-platform/picking-orchestrator/pkg/outbox"
)

// OutboxNotifier stores events in the outbox for the relay to publish
type OutboxNotifier struct {
	repo    outbox.Repository
	factory *cloudevents.EventFactory
	topic   string
}

// NewOutboxNotifier creates a notifier writing to the given topic
func NewOutboxNotifier(repo outbox.Repository, factory *cloudevents.EventFactory, topic string) *OutboxNotifier {
	return &OutboxNotifier{repo: repo, factory: factory, topic: topic}
}

// Publish implements domain.Notifier
func (n *OutboxNotifier) Publish(ctx context.Context, event domain.DomainEvent) error {
	aggregateType, aggregateID := domain.EventSubject(event)

	row, err := outbox.NewEvent(aggregateID, aggregateType, n.topic, Envelope(ctx, n.factory, event))
	if err != nil {
		return fmt.Errorf("failed to build outbox event: %w", err)
	}
	if err := n.repo.Save(ctx, row); err != nil {
		return fmt.Errorf("failed to save outbox event: %w", err)
	}
	return nil
}
