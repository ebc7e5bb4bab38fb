package kafka

import (
	"context"
	"time"

	"github.com/wms-platform/picking-orchestrator/pkg/cloudevents"
	"github.com/wms-platform/picking-orchestrator/pkg/logging"
	"github.com/wms-platform/picking-orchestrator/pkg/metrics"
	"github.com/wms-platform/picking-orchestrator/pkg/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedProducer wraps a Producer with metrics, tracing and logging
type InstrumentedProducer struct {
	producer *Producer
	metrics  *metrics.Metrics
	logger   *logging.Logger
	tracer   trace.Tracer
}

// NewInstrumentedProducer creates a new instrumented producer
func NewInstrumentedProducer(producer *Producer, m *metrics.Metrics, logger *logging.Logger) *InstrumentedProducer {
	return &InstrumentedProducer{
		producer: producer,
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer("kafka-producer"),
	}
}

// PublishEvent publishes a CloudEvent inside a producer span
func (p *InstrumentedProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.WMSCloudEvent) error {
	start := time.Now()

	attrs := append(tracing.MessagingSpanAttributes(topic, "publish"),
		attribute.String("messaging.kafka.event_type", event.Type),
		attribute.String("messaging.message_id", event.ID),
	)
	if event.WaveNumber != "" {
		attrs = append(attrs, attribute.String("wms.wave_number", event.WaveNumber))
	}
	ctx, span := p.tracer.Start(ctx, "kafka.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(attrs...),
	)

	err := p.producer.PublishEvent(ctx, topic, event)
	p.observe(ctx, topic, event.Type, err, time.Since(start))
	tracing.EndSpan(span, err)

	return err
}

// PublishRaw relays a stored payload inside a producer span
func (p *InstrumentedProducer) PublishRaw(ctx context.Context, topic, eventType, key string, payload []byte, headers map[string]string) error {
	start := time.Now()

	ctx, span := p.tracer.Start(ctx, "kafka.relay",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(append(tracing.MessagingSpanAttributes(topic, "publish"),
			attribute.String("messaging.kafka.event_type", eventType))...),
	)

	err := p.producer.PublishRaw(ctx, topic, key, payload, headers)
	p.observe(ctx, topic, eventType, err, time.Since(start))
	tracing.EndSpan(span, err)

	return err
}

func (p *InstrumentedProducer) observe(ctx context.Context, topic, eventType string, err error, duration time.Duration) {
	success := err == nil
	if p.metrics != nil {
		p.metrics.RecordKafkaPublish(topic, eventType, success, duration)
	}
	if p.logger != nil {
		p.logger.KafkaPublish(ctx, topic, eventType, success, duration)
	}
}

// Close closes the underlying producer
func (p *InstrumentedProducer) Close() error {
	return p.producer.Close()
}
