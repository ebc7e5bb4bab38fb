// Package mongodb connects to MongoDB and wraps collections with metrics,
// logging and tracing.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/wms-platform/picking-orchestrator/pkg/resilience"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Config holds MongoDB connection configuration
type Config struct {
	URI            string
	Database       string
	AppName        string
	ConnectTimeout time.Duration
	PingTimeout    time.Duration
	// ConnectAttempts is how many pings are tried before giving up at startup
	ConnectAttempts int
	MaxPoolSize     uint64
	MinPoolSize     uint64
}

// DefaultConfig targets a local single-node server
func DefaultConfig() *Config {
	return &Config{
		URI:             "mongodb://localhost:27017",
		Database:        "picking",
		AppName:         "picking-orchestrator",
		ConnectTimeout:  10 * time.Second,
		PingTimeout:     5 * time.Second,
		ConnectAttempts: 5,
		MaxPoolSize:     100,
		MinPoolSize:     5,
	}
}

func (c *Config) clientOptions() *options.ClientOptions {
	return options.Client().
		ApplyURI(c.URI).
		SetAppName(c.AppName).
		SetConnectTimeout(c.ConnectTimeout).
		SetMaxPoolSize(c.MaxPoolSize).
		SetMinPoolSize(c.MinPoolSize)
}

// Client is a connected driver client bound to one database
type Client struct {
	client   *mongo.Client
	database *mongo.Database
	config   *Config
}

// NewClient connects and waits for the primary to answer a ping, backing off
// between attempts while the server comes up.
func NewClient(ctx context.Context, config *Config) (*Client, error) {
	if config.Database == "" {
		return nil, fmt.Errorf("mongodb database name is required")
	}

	client, err := mongo.Connect(ctx, config.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = max(config.ConnectAttempts, 1)
	retry.InitialDelay = 500 * time.Millisecond

	err = resilience.Retry(ctx, retry, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, config.PingTimeout)
		defer cancel()
		return client.Ping(pingCtx, readpref.Primary())
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Client{
		client:   client,
		database: client.Database(config.Database),
		config:   config,
	}, nil
}

// Collection returns a raw collection handle in the configured database
func (c *Client) Collection(name string) *mongo.Collection {
	return c.database.Collection(name)
}

// Close disconnects the client
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// HealthCheck pings the primary
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}
