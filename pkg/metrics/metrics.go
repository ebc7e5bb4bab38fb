package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the picking orchestrator
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Kafka metrics
	KafkaEventsPublished *prometheus.CounterVec
	KafkaPublishDuration *prometheus.HistogramVec

	// MongoDB metrics
	MongoDBOperations        *prometheus.CounterVec
	MongoDBOperationDuration *prometheus.HistogramVec

	// Outbox metrics
	OutboxPending   prometheus.Gauge
	OutboxPublished *prometheus.CounterVec
	OutboxRetries   *prometheus.CounterVec

	// Temporal activity metrics
	ActivitiesCompleted *prometheus.CounterVec
	ActivityDuration    *prometheus.HistogramVec

	// Picking metrics
	WavesCreated     *prometheus.CounterVec
	WavesCompleted   *prometheus.CounterVec
	WaveDuration     *prometheus.HistogramVec
	TasksCreated     *prometheus.CounterVec
	TasksCompleted   *prometheus.CounterVec
	PickTaskDuration *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "wms",
	}
}

// New creates a Metrics instance backed by its own registry
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	f := factory{namespace: config.Namespace, labels: prometheus.Labels{"service": config.ServiceName}}
	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,

		HTTPRequestsTotal: f.counter("http_requests_total", "Total number of HTTP requests",
			"method", "path", "status"),
		HTTPRequestDuration: f.histogram("http_request_duration_seconds", "HTTP request duration in seconds",
			[]float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}, "method", "path"),
		HTTPRequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "http_requests_in_flight",
			Help:        "Number of HTTP requests currently being processed",
			ConstLabels: f.labels,
		}),

		KafkaEventsPublished: f.counter("kafka_events_published_total", "Total number of Kafka events published",
			"topic", "event_type", "status"),
		KafkaPublishDuration: f.histogram("kafka_publish_duration_seconds", "Kafka publish duration in seconds",
			[]float64{.001, .005, .01, .025, .05, .1, .25, .5, 1}, "topic"),

		MongoDBOperations: f.counter("mongodb_operations_total", "Total number of MongoDB operations",
			"collection", "operation", "status"),
		MongoDBOperationDuration: f.histogram("mongodb_operation_duration_seconds", "MongoDB operation duration in seconds",
			[]float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}, "collection", "operation"),

		OutboxPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "outbox_pending_events",
			Help:        "Outbox events fetched but not yet published",
			ConstLabels: f.labels,
		}),
		OutboxPublished: f.counter("outbox_events_published_total", "Outbox events relayed to Kafka",
			"event_type", "status"),
		OutboxRetries: f.counter("outbox_event_retries_total", "Outbox publish retries",
			"event_type"),

		ActivitiesCompleted: f.counter("temporal_activities_completed_total", "Total number of Temporal activities completed",
			"activity_type", "status"),
		ActivityDuration: f.histogram("temporal_activity_duration_seconds", "Temporal activity duration in seconds",
			[]float64{.1, .5, 1, 5, 10, 30, 60, 300}, "activity_type"),

		WavesCreated: f.counter("picking_waves_created_total", "Picking waves created",
			"strategy"),
		WavesCompleted: f.counter("picking_waves_completed_total", "Picking waves completed",
			"strategy"),
		WaveDuration: f.histogram("picking_wave_duration_seconds", "Wall time from release to completion",
			[]float64{60, 300, 600, 1800, 3600, 7200, 14400}, "strategy"),
		TasksCreated: f.counter("picking_tasks_created_total", "Pick tasks created",
			"zone"),
		TasksCompleted: f.counter("picking_tasks_completed_total", "Pick tasks reaching a terminal status",
			"zone", "status"),
		PickTaskDuration: f.histogram("picking_task_duration_seconds", "Recorded time to pick a task",
			[]float64{5, 15, 30, 60, 120, 300, 600}, "zone"),

		CircuitBreakerState: f.gauge("circuit_breaker_state", "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			"name"),
		CircuitBreakerTrips: f.counter("circuit_breaker_trips_total", "Total number of circuit breaker trips",
			"name"),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.KafkaEventsPublished,
		m.KafkaPublishDuration,
		m.MongoDBOperations,
		m.MongoDBOperationDuration,
		m.OutboxPending,
		m.OutboxPublished,
		m.OutboxRetries,
		m.ActivitiesCompleted,
		m.ActivityDuration,
		m.WavesCreated,
		m.WavesCompleted,
		m.WaveDuration,
		m.TasksCreated,
		m.TasksCompleted,
		m.PickTaskDuration,
		m.CircuitBreakerState,
		m.CircuitBreakerTrips,
	)

	return m
}

type factory struct {
	namespace string
	labels    prometheus.Labels
}

func (f factory) counter(name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   f.namespace,
		Name:        name,
		Help:        help,
		ConstLabels: f.labels,
	}, labels)
}

func (f factory) gauge(name, help string, labels ...string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   f.namespace,
		Name:        name,
		Help:        help,
		ConstLabels: f.labels,
	}, labels)
}

func (f factory) histogram(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   f.namespace,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: f.labels,
	}, labels)
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// Handler returns an HTTP handler for metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, code int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncrementHTTPRequestsInFlight increments in-flight requests
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements in-flight requests
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

// RecordKafkaPublish records a Kafka publish attempt
func (m *Metrics) RecordKafkaPublish(topic, eventType string, success bool, duration time.Duration) {
	m.KafkaEventsPublished.WithLabelValues(topic, eventType, status(success)).Inc()
	m.KafkaPublishDuration.WithLabelValues(topic).Observe(duration.Seconds())
}

// RecordMongoDBOperation records a MongoDB operation
func (m *Metrics) RecordMongoDBOperation(collection, operation string, success bool, duration time.Duration) {
	m.MongoDBOperations.WithLabelValues(collection, operation, status(success)).Inc()
	m.MongoDBOperationDuration.WithLabelValues(collection, operation).Observe(duration.Seconds())
}

// SetOutboxPending sets the number of unpublished outbox events seen by the last poll
func (m *Metrics) SetOutboxPending(count int) {
	m.OutboxPending.Set(float64(count))
}

// RecordOutboxPublish records the result of relaying one outbox event
func (m *Metrics) RecordOutboxPublish(eventType string, success bool) {
	m.OutboxPublished.WithLabelValues(eventType, status(success)).Inc()
}

// RecordOutboxRetry records a failed relay that will be retried
func (m *Metrics) RecordOutboxRetry(eventType string) {
	m.OutboxRetries.WithLabelValues(eventType).Inc()
}

// RecordActivityCompleted records an activity completion
func (m *Metrics) RecordActivityCompleted(activityType string, success bool, duration time.Duration) {
	m.ActivitiesCompleted.WithLabelValues(activityType, status(success)).Inc()
	m.ActivityDuration.WithLabelValues(activityType).Observe(duration.Seconds())
}

// RecordWaveCreated records a planned wave
func (m *Metrics) RecordWaveCreated(strategy string, taskCount int) {
	m.WavesCreated.WithLabelValues(strategy).Inc()
}

// RecordWaveCompleted records a completed wave
func (m *Metrics) RecordWaveCompleted(strategy string, duration time.Duration) {
	m.WavesCompleted.WithLabelValues(strategy).Inc()
	m.WaveDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}

// RecordTasksCreated records pick tasks created for a zone
func (m *Metrics) RecordTasksCreated(zone string, count int) {
	m.TasksCreated.WithLabelValues(zone).Add(float64(count))
}

// RecordTaskCompleted records a task reaching a terminal status
func (m *Metrics) RecordTaskCompleted(zone, taskStatus string, duration time.Duration) {
	m.TasksCompleted.WithLabelValues(zone, taskStatus).Inc()
	m.PickTaskDuration.WithLabelValues(zone).Observe(duration.Seconds())
}

// SetCircuitBreakerState sets the circuit breaker state
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(name string) {
	m.CircuitBreakerTrips.WithLabelValues(name).Inc()
}
