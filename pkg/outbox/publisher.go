package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wms-platform/picking-orchestrator/pkg/logging"
	"github.com/wms-platform/picking-orchestrator/pkg/metrics"
)

// RawPublisher sends an encoded payload to a topic
type RawPublisher interface {
	PublishRaw(ctx context.Context, topic, eventType, key string, payload []byte, headers map[string]string) error
}

// PublisherConfig holds configuration for the outbox publisher
type PublisherConfig struct {
	PollInterval time.Duration
	BatchSize    int
	Retention    time.Duration
}

// DefaultPublisherConfig returns default configuration
func DefaultPublisherConfig() *PublisherConfig {
	return &PublisherConfig{
		PollInterval: time.Second,
		BatchSize:    100,
		Retention:    7 * 24 * time.Hour,
	}
}

// Publisher relays outbox events to Kafka on a fixed interval
type Publisher struct {
	repo      Repository
	producer  RawPublisher
	logger    *logging.Logger
	metrics   *metrics.Metrics
	config    *PublisherConfig
	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	stoppedCh chan struct{}
	published int
	failed    int
}

// NewPublisher creates a new outbox publisher. m may be nil.
func NewPublisher(repo Repository, producer RawPublisher, logger *logging.Logger, m *metrics.Metrics, config *PublisherConfig) *Publisher {
	if config == nil {
		config = DefaultPublisherConfig()
	}
	return &Publisher{
		repo:     repo,
		producer: producer,
		logger:   logger.WithComponent("outbox-publisher"),
		metrics:  m,
		config:   config,
	}
}

// Start launches the relay loop
func (p *Publisher) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("publisher already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.stoppedCh = make(chan struct{})

	p.logger.Info("Starting outbox publisher", "interval", p.config.PollInterval, "batchSize", p.config.BatchSize)
	go p.run(ctx, p.stopCh, p.stoppedCh)
	return nil
}

// Stop halts the relay loop and waits for the in-flight batch
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return fmt.Errorf("publisher not running")
	}
	stopCh, stoppedCh := p.stopCh, p.stoppedCh
	p.running = false
	p.mu.Unlock()

	close(stopCh)
	<-stoppedCh

	stats := p.Stats()
	p.logger.Info("Outbox publisher stopped", "published", stats["published"], "failed", stats["failed"])
	return nil
}

func (p *Publisher) run(ctx context.Context, stopCh <-chan struct{}, stoppedCh chan<- struct{}) {
	defer close(stoppedCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	lastCleanup := time.Now()
	for {
		select {
		case <-ticker.C:
			p.ProcessOnce(ctx)
			if p.config.Retention > 0 && time.Since(lastCleanup) > time.Hour {
				p.cleanup(ctx)
				lastCleanup = time.Now()
			}
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// ProcessOnce relays one batch and returns how many events were published
func (p *Publisher) ProcessOnce(ctx context.Context) int {
	events, err := p.repo.FindUnpublished(ctx, p.config.BatchSize)
	if err != nil {
		p.logger.WithError(err).Error("Failed to find unpublished events")
		return 0
	}

	if p.metrics != nil {
		p.metrics.SetOutboxPending(len(events))
	}

	sent := 0
	for _, event := range events {
		if err := p.producer.PublishRaw(ctx, event.Topic, event.EventType, event.Key, event.Payload, event.Headers); err != nil {
			p.recordFailure(ctx, event, err)
			continue
		}

		if err := p.repo.MarkPublished(ctx, event.ID); err != nil {
			p.logger.WithError(err).Error("Failed to mark event as published", "eventId", event.ID)
		}
		if p.metrics != nil {
			p.metrics.RecordOutboxPublish(event.EventType, true)
		}
		sent++
	}

	p.mu.Lock()
	p.published += sent
	p.mu.Unlock()

	return sent
}

func (p *Publisher) recordFailure(ctx context.Context, event *Event, cause error) {
	p.logger.WithError(cause).Error("Failed to publish outbox event",
		"eventId", event.ID,
		"eventType", event.EventType,
		"aggregateId", event.AggregateID,
		"retryCount", event.RetryCount,
	)

	p.mu.Lock()
	p.failed++
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.RecordOutboxPublish(event.EventType, false)
		p.metrics.RecordOutboxRetry(event.EventType)
	}
	if err := p.repo.IncrementRetry(ctx, event.ID, cause.Error()); err != nil {
		p.logger.WithError(err).Error("Failed to increment retry count", "eventId", event.ID)
	}
}

func (p *Publisher) cleanup(ctx context.Context) {
	deleted, err := p.repo.DeletePublished(ctx, time.Now().Add(-p.config.Retention))
	if err != nil {
		p.logger.WithError(err).Warn("Failed to purge published outbox events")
		return
	}
	if deleted > 0 {
		p.logger.Info("Purged published outbox events", "count", deleted)
	}
}

// IsRunning returns whether the publisher is running
func (p *Publisher) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Stats returns publisher statistics
func (p *Publisher) Stats() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return map[string]int{
		"published": p.published,
		"failed":    p.failed,
	}
}
