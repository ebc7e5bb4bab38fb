package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wms-platform/picking-orchestrator/pkg/logging"
	"github.com/wms-platform/picking-orchestrator/pkg/tracing"
)

// EventFactory creates CloudEvents for a single source
type EventFactory struct {
	source string
	now    func() time.Time
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source, now: time.Now}
}

// CreateEvent builds an event, copying the correlation id and trace
// context carried by ctx.
func (f *EventFactory) CreateEvent(ctx context.Context, eventType, subject string, data any) *WMSCloudEvent {
	event := &WMSCloudEvent{
		SpecVersion:     SpecVersion,
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            f.now().UTC(),
		DataContentType: "application/json",
		Data:            data,
	}

	if v, ok := ctx.Value(logging.CorrelationIDKey).(string); ok {
		event.CorrelationID = v
	}

	carrier := tracing.MapCarrier{}
	tracing.InjectTraceContext(ctx, carrier)
	event.TraceParent = carrier.Get("traceparent")
	event.TraceState = carrier.Get("tracestate")

	return event
}

// CreateWaveEvent creates an event about a wave, tagging it with the wave number
func (f *EventFactory) CreateWaveEvent(ctx context.Context, eventType, waveID, waveNumber string, data any) *WMSCloudEvent {
	event := f.CreateEvent(ctx, eventType, "wave/"+waveID, data)
	event.WaveNumber = waveNumber
	return event
}
