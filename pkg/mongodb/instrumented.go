package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/wms-platform/picking-orchestrator/pkg/logging"
	"github.com/wms-platform/picking-orchestrator/pkg/metrics"
	"github.com/wms-platform/picking-orchestrator/pkg/tracing"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedClient hands out collections that record metrics and spans
type InstrumentedClient struct {
	client  *Client
	metrics *metrics.Metrics
	logger  *logging.Logger
	tracer  trace.Tracer
}

// NewInstrumentedClient creates a new instrumented MongoDB client
func NewInstrumentedClient(client *Client, m *metrics.Metrics, logger *logging.Logger) *InstrumentedClient {
	return &InstrumentedClient{
		client:  client,
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer("mongodb"),
	}
}

// Collection returns an instrumented collection
func (c *InstrumentedClient) Collection(name string) *InstrumentedCollection {
	return &InstrumentedCollection{
		collection: c.client.Collection(name),
		name:       name,
		database:   c.client.config.Database,
		metrics:    c.metrics,
		logger:     c.logger,
		tracer:     c.tracer,
	}
}

// Close disconnects the client
func (c *InstrumentedClient) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// HealthCheck pings the primary inside a span
func (c *InstrumentedClient) HealthCheck(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "mongodb.ping")
	err := c.client.HealthCheck(ctx)
	tracing.EndSpan(span, err)
	return err
}

// InstrumentedCollection wraps the collection calls the repositories use
type InstrumentedCollection struct {
	collection *mongo.Collection
	name       string
	database   string
	metrics    *metrics.Metrics
	logger     *logging.Logger
	tracer     trace.Tracer
}

func (c *InstrumentedCollection) observe(ctx context.Context, operation string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "mongodb."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(tracing.DatabaseSpanAttributes(c.database, operation, c.name)...),
	)
	return ctx, func(err error) {
		duration := time.Since(start)
		success := err == nil || errors.Is(err, mongo.ErrNoDocuments)
		if c.metrics != nil {
			c.metrics.RecordMongoDBOperation(c.name, operation, success, duration)
		}
		if c.logger != nil {
			c.logger.DatabaseQuery(ctx, c.name, operation, duration, success)
		}
		if success {
			err = nil
		}
		tracing.EndSpan(span, err)
	}
}

// FindOne finds a single document
func (c *InstrumentedCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	ctx, done := c.observe(ctx, "findOne")
	result := c.collection.FindOne(ctx, filter, opts...)
	done(result.Err())
	return result
}

// Find finds documents matching filter
func (c *InstrumentedCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	ctx, done := c.observe(ctx, "find")
	cursor, err := c.collection.Find(ctx, filter, opts...)
	done(err)
	return cursor, err
}

// UpdateOne updates a single document
func (c *InstrumentedCollection) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	ctx, done := c.observe(ctx, "updateOne")
	result, err := c.collection.UpdateOne(ctx, filter, update, opts...)
	done(err)
	return result, err
}

// InsertOne inserts a single document
func (c *InstrumentedCollection) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	ctx, done := c.observe(ctx, "insertOne")
	result, err := c.collection.InsertOne(ctx, document, opts...)
	done(err)
	return result, err
}

// DeleteMany deletes all documents matching filter
func (c *InstrumentedCollection) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	ctx, done := c.observe(ctx, "deleteMany")
	result, err := c.collection.DeleteMany(ctx, filter, opts...)
	done(err)
	return result, err
}

// BulkWrite runs a batch of write models
func (c *InstrumentedCollection) BulkWrite(ctx context.Context, models []mongo.WriteModel, opts ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error) {
	ctx, done := c.observe(ctx, "bulkWrite")
	result, err := c.collection.BulkWrite(ctx, models, opts...)
	done(err)
	return result, err
}

// CreateIndexes creates indexes on the collection
func (c *InstrumentedCollection) CreateIndexes(ctx context.Context, models []mongo.IndexModel) error {
	ctx, done := c.observe(ctx, "createIndexes")
	_, err := c.collection.Indexes().CreateMany(ctx, models)
	done(err)
	return err
}
