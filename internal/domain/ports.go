package domain

import (
	"context"
	"time"
)

// OrderLine is a single outstanding line of an order
type OrderLine struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
	Priority *int   `json:"priority,omitempty"`
}

// Allocation is stock available for picking at one location
type Allocation struct {
	Location     string `json:"location"`
	AvailableQty int    `json:"availableQty"`
	Lot          string `json:"lot,omitempty"`
	Serial       string `json:"serial,omitempty"`
	Zone         string `json:"zone,omitempty"`
}

// OrderSource resolves the outstanding lines of an order
type OrderSource interface {
	GetOrderLines(ctx context.Context, orderID string) ([]OrderLine, error)
}

// InventorySource lists pickable stock for a SKU, optionally within a zone
type InventorySource interface {
	GetAvailableAllocations(ctx context.Context, sku, zone string) ([]Allocation, error)
}

// ZoneConfigSource exposes read-only zone configuration.
// GetZone returns nil, nil when the zone does not exist.
type ZoneConfigSource interface {
	GetZone(ctx context.Context, zoneID string) (*ZoneConfiguration, error)
	ListZones(ctx context.Context) ([]*ZoneConfiguration, error)
}

// Notifier delivers domain events to downstream consumers
type Notifier interface {
	Publish(ctx context.Context, event DomainEvent) error
}

// MetricsSink receives business measurements
type MetricsSink interface {
	RecordWaveCreated(strategy string, taskCount int)
	RecordWaveCompleted(strategy string, duration time.Duration)
	RecordTaskCompleted(zone, status string, duration time.Duration)
	RecordTasksCreated(zone string, count int)
}
