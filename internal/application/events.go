package application

import (
	"context"
	"time"

	"github.com/wms-platform/picking-orchestrator/internal/domain"
	"github.com/wms-platform/picking-orchestrator/pkg/logging"
)

type aggregate interface {
	GetDomainEvents() []domain.DomainEvent
	ClearDomainEvents()
}

// publishEvents hands the pending events of each aggregate to the notifier.
// Delivery failures are logged and never fail the calling operation.
func publishEvents(ctx context.Context, notifier domain.Notifier, logger *logging.Logger, aggregates ...aggregate) {
	for _, agg := range aggregates {
		for _, event := range agg.GetDomainEvents() {
			if err := notifier.Publish(ctx, event); err != nil {
				aggregateType, aggregateID := domain.EventSubject(event)
				logger.WithError(err).Warn("Failed to publish domain event",
					"eventType", event.EventType(),
					"aggregateType", aggregateType,
					"aggregateId", aggregateID,
				)
			}
		}
		agg.ClearDomainEvents()
	}
}

type nopNotifier struct{}

func (nopNotifier) Publish(context.Context, domain.DomainEvent) error { return nil }

type nopMetrics struct{}

func (nopMetrics) RecordWaveCreated(string, int)                     {}
func (nopMetrics) RecordWaveCompleted(string, time.Duration)         {}
func (nopMetrics) RecordTaskCompleted(string, string, time.Duration) {}
func (nopMetrics) RecordTasksCreated(string, int)                    {}
