// Package bootstrap assembles the picking core from environment configuration.
// Both the API and the workflow worker are built from the same Components.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/wms-platform/picking-orchestrator/internal/application"
	"github.com/wms-platform/picking-orchestrator/internal/domain"
	"github.com/wms-platform/picking-orchestrator/internal/infrastructure/clients"
	"github.com/wms-platform/picking-orchestrator/internal/infrastructure/events"
	"github.com/wms-platform/picking-orchestrator/internal/infrastructure/memory"
	mongoRepo "github.com/wms-platform/picking-orchestrator/internal/infrastructure/mongodb"
	"github.com/wms-platform/picking-orchestrator/internal/infrastructure/zoneconfig"
	"github.com/wms-platform/picking-orchestrator/pkg/cloudevents"
	"github.com/wms-platform/picking-orchestrator/pkg/kafka"
	"github.com/wms-platform/picking-orchestrator/pkg/logging"
	"github.com/wms-platform/picking-orchestrator/pkg/metrics"
	"github.com/wms-platform/picking-orchestrator/pkg/mongodb"
	"github.com/wms-platform/picking-orchestrator/pkg/outbox"
	outboxMongo "github.com/wms-platform/picking-orchestrator/pkg/outbox/mongodb"
	"github.com/wms-platform/picking-orchestrator/pkg/resilience"
	pkgtemporal "github.com/wms-platform/picking-orchestrator/pkg/temporal"
	"github.com/wms-platform/picking-orchestrator/pkg/tracing"
)

// ServiceName identifies the picking core in logs, traces and metrics
const ServiceName = "picking-orchestrator"

// Storage backends
const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"
)

// Event delivery modes
const (
	DeliveryOutbox = "outbox"
	DeliveryDirect = "direct"
	DeliveryNone   = "none"
)

// Config holds application configuration
type Config struct {
	ServerAddr          string
	Storage             string
	EventDelivery       string
	ZoneConfigPath      string
	OrderServiceURL     string
	InventoryServiceURL string
	SecondsPerUnit      int
	DownstreamRPS       float64
	TemporalEnabled     bool
	MongoDB             *mongodb.Config
	Kafka               *kafka.Config
	Temporal            *pkgtemporal.Config
	Tracing             *tracing.Config
}

// LoadConfig reads configuration from the environment
func LoadConfig() *Config {
	kafkaConfig := kafka.DefaultConfig()
	kafkaConfig.Brokers = kafka.ParseBrokers(GetEnv("KAFKA_BROKERS", "localhost:9092"))
	kafkaConfig.ClientID = ServiceName

	mongoConfig := mongodb.DefaultConfig()
	mongoConfig.URI = GetEnv("MONGODB_URI", mongoConfig.URI)
	mongoConfig.Database = GetEnv("MONGODB_DATABASE", "picking_orchestrator_db")

	temporalConfig := pkgtemporal.DefaultConfig()
	temporalConfig.HostPort = GetEnv("TEMPORAL_HOST", temporalConfig.HostPort)
	temporalConfig.Namespace = GetEnv("TEMPORAL_NAMESPACE", temporalConfig.Namespace)
	if timeout, err := time.ParseDuration(GetEnv("TEMPORAL_WORKFLOW_TIMEOUT", "")); err == nil {
		temporalConfig.WorkflowTimeout = timeout
	}

	tracingConfig := tracing.DefaultConfig(ServiceName)
	tracingConfig.OTLPEndpoint = GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = GetEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = GetEnv("TRACING_ENABLED", "true") == "true"

	secondsPerUnit, err := strconv.Atoi(GetEnv("SECONDS_PER_UNIT", "0"))
	if err != nil {
		secondsPerUnit = 0
	}

	downstreamRPS, err := strconv.ParseFloat(GetEnv("DOWNSTREAM_RPS", "0"), 64)
	if err != nil {
		downstreamRPS = 0
	}

	return &Config{
		ServerAddr:          GetEnv("SERVER_ADDR", ":8080"),
		Storage:             GetEnv("STORAGE", StorageMongo),
		EventDelivery:       GetEnv("EVENT_DELIVERY", DeliveryOutbox),
		ZoneConfigPath:      GetEnv("ZONE_CONFIG_PATH", "config/zones.yaml"),
		OrderServiceURL:     GetEnv("ORDER_SERVICE_URL", "http://localhost:8001"),
		InventoryServiceURL: GetEnv("INVENTORY_SERVICE_URL", "http://localhost:8008"),
		SecondsPerUnit:      secondsPerUnit,
		DownstreamRPS:       downstreamRPS,
		TemporalEnabled:     GetEnv("TEMPORAL_ENABLED", "false") == "true",
		MongoDB:             mongoConfig,
		Kafka:               kafkaConfig,
		Temporal:            temporalConfig,
		Tracing:             tracingConfig,
	}
}

// GetEnv returns the environment value for key or defaultValue when unset
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// NewLogger builds the service logger honoring LOG_LEVEL
func NewLogger() *logging.Logger {
	logConfig := logging.DefaultConfig(ServiceName)
	logConfig.Level = logging.LogLevel(GetEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()
	return logger
}

// InitTracing starts the tracer provider. The returned func flushes it.
func InitTracing(ctx context.Context, config *tracing.Config, logger *logging.Logger) func() {
	tracerProvider, err := tracing.Initialize(ctx, config)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		return func() {}
	}
	if tracerProvider == nil {
		return func() {}
	}
	logger.Info("Tracing initialized", "endpoint", config.OTLPEndpoint)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Failed to shutdown tracer")
		}
	}
}

// Components is the assembled picking core
type Components struct {
	Waves        *application.WaveService
	Tasks        *application.TaskService
	Productivity *application.ProductivityAnalyzer
	Zones        *application.ZoneAnalyzer
	// Ready reports whether the storage backend is reachable
	Ready func(ctx context.Context) error

	closers []func()
}

// Close releases everything Wire opened, in reverse order
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func (c *Components) onClose(fn func()) {
	c.closers = append(c.closers, fn)
}

// Wire builds repositories, event delivery, downstream clients and the
// application services. signaler may be nil when no workflow engine runs.
func Wire(ctx context.Context, config *Config, logger *logging.Logger, m *metrics.Metrics, signaler events.WorkflowSignaler) (*Components, error) {
	c := &Components{Ready: func(context.Context) error { return nil }}

	zoneSource, err := zoneconfig.NewFileSource(config.ZoneConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load zone configuration %s: %w", config.ZoneConfigPath, err)
	}

	taskRepo, waveRepo, outboxRepo, err := c.wireStorage(ctx, config, logger, m)
	if err != nil {
		c.Close()
		return nil, err
	}

	notifier, err := c.wireEvents(ctx, config, outboxRepo, logger, m)
	if err != nil {
		c.Close()
		return nil, err
	}
	if signaler != nil {
		notifier = events.NewWorkflowNotifier(notifier, signaler, logger)
	}

	breakers := resilience.NewCircuitBreakerRegistry(logger, m)
	orderClient := clients.NewOrderServiceClient(clients.Config{
		BaseURL:           config.OrderServiceURL,
		Breaker:           breakers.Get("order-service"),
		RequestsPerSecond: config.DownstreamRPS,
	}, logger)
	inventoryClient := clients.NewInventoryServiceClient(clients.Config{
		BaseURL:           config.InventoryServiceURL,
		Breaker:           breakers.Get("inventory-service"),
		RequestsPerSecond: config.DownstreamRPS,
	}, logger)

	factory := application.NewTaskFactory(orderClient, inventoryClient, zoneSource, config.SecondsPerUnit, logger)
	c.Productivity = application.NewProductivityAnalyzer(taskRepo, zoneSource.Scoring(), logger)
	c.Waves = application.NewWaveService(waveRepo, taskRepo, zoneSource, factory, c.Productivity, notifier, m, logger)
	c.Tasks = application.NewTaskService(taskRepo, c.Waves, notifier, m, logger)
	c.Zones = application.NewZoneAnalyzer(zoneSource, taskRepo, logger)

	return c, nil
}

func (c *Components) wireStorage(ctx context.Context, config *Config, logger *logging.Logger, m *metrics.Metrics) (domain.PickTaskRepository, domain.PickingWaveRepository, outbox.Repository, error) {
	if config.Storage == StorageMemory {
		logger.Warn("Using in-memory storage")
		return memory.NewTaskRepository(), memory.NewWaveRepository(), nil, nil
	}

	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	instrumented := mongodb.NewInstrumentedClient(mongoClient, m, logger)
	c.onClose(func() {
		if err := instrumented.Close(context.Background()); err != nil {
			logger.WithError(err).Error("Failed to disconnect from MongoDB")
		}
	})
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	tasks, err := mongoRepo.NewTaskRepository(ctx, instrumented.Collection(mongoRepo.TaskCollection))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize task repository: %w", err)
	}
	waves, err := mongoRepo.NewWaveRepository(ctx, instrumented.Collection(mongoRepo.WaveCollection))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize wave repository: %w", err)
	}
	outboxes, err := outboxMongo.NewOutboxRepository(ctx, instrumented.Collection(outboxMongo.CollectionName))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize outbox repository: %w", err)
	}

	c.Ready = instrumented.HealthCheck
	return tasks, waves, outboxes, nil
}

func (c *Components) wireEvents(ctx context.Context, config *Config, outboxRepo outbox.Repository, logger *logging.Logger, m *metrics.Metrics) (domain.Notifier, error) {
	if config.EventDelivery == DeliveryNone {
		logger.Warn("Event delivery disabled")
		return nil, nil
	}

	producer := kafka.NewInstrumentedProducer(kafka.NewProducer(config.Kafka), m, logger)
	c.onClose(func() {
		if err := producer.Close(); err != nil {
			logger.WithError(err).Error("Failed to close Kafka producer")
		}
	})
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	eventFactory := cloudevents.NewEventFactory(cloudevents.SourcePicking)
	if config.EventDelivery == DeliveryOutbox && outboxRepo != nil {
		publisher := outbox.NewPublisher(outboxRepo, producer, logger, m, outbox.DefaultPublisherConfig())
		if err := publisher.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start outbox publisher: %w", err)
		}
		c.onClose(func() { _ = publisher.Stop() })
		logger.Info("Outbox publisher started")
		return events.NewOutboxNotifier(outboxRepo, eventFactory, kafka.Topics.PickingEvents), nil
	}

	if config.EventDelivery == DeliveryOutbox {
		logger.Warn("Outbox delivery needs mongo storage, publishing directly to Kafka")
	}
	return events.NewKafkaNotifier(producer, eventFactory, kafka.Topics.PickingEvents, nil), nil
}
