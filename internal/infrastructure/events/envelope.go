// Package events turns picking domain events into CloudEvents and delivers
// them either through the transactional outbox or straight to Kafka.
package events

import (
	"context"

	"github.com/wms-platform/picking-orchestrator/internal/domain"
	"github.com/wms-platform/picking-orchestrator/pkg/cloudevents"
)

// Envelope wraps a domain event in a CloudEvent. Wave events carry the wave
// number as an extension attribute.
func Envelope(ctx context.Context, factory *cloudevents.EventFactory, event domain.DomainEvent) *cloudevents.WMSCloudEvent {
	switch e := event.(type) {
	case *domain.WaveCreatedEvent:
		return factory.CreateWaveEvent(ctx, e.EventType(), e.WaveID, e.WaveNumber, e)
	case *domain.WaveCompletedEvent:
		return factory.CreateWaveEvent(ctx, e.EventType(), e.WaveID, e.WaveNumber, e)
	case *domain.WaveCancelledEvent:
		return factory.CreateWaveEvent(ctx, e.EventType(), e.WaveID, e.WaveNumber, e)
	}

	aggregateType, aggregateID := domain.EventSubject(event)
	return factory.CreateEvent(ctx, event.EventType(), aggregateType+"/"+aggregateID, event)
}
