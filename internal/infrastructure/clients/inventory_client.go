package clients

import (
	"context"
	"fmt"
	"net/url"

	"github.com/wms-platform/picking-orchestrator/internal/domain"
	"github.com/wms-platform/picking-orchestrator/pkg/logging"
)

// AllocationsResponse is the inventory-service payload for pickable stock
type AllocationsResponse struct {
	SKU         string              `json:"sku"`
	Allocations []domain.Allocation `json:"allocations"`
}

// InventoryServiceClient handles communication with inventory-service.
// Implements domain.InventorySource.
type InventoryServiceClient struct {
	*downstream
}

// NewInventoryServiceClient creates a new InventoryServiceClient
func NewInventoryServiceClient(config Config, logger *logging.Logger) *InventoryServiceClient {
	return &InventoryServiceClient{downstream: newDownstream("inventory-service", config, logger)}
}

// GetAvailableAllocations lists pickable stock for sku. An unknown SKU has no stock.
func (c *InventoryServiceClient) GetAvailableAllocations(ctx context.Context, sku, zone string) ([]domain.Allocation, error) {
	endpoint := fmt.Sprintf("%s/api/v1/inventory/%s/allocations", c.baseURL, url.PathEscape(sku))
	if zone != "" {
		endpoint += "?" + url.Values{"zone": {zone}}.Encode()
	}

	var body AllocationsResponse
	found, err := c.getJSON(ctx, endpoint, &body)
	if err != nil {
		return nil, err
	}
	if !found {
		return []domain.Allocation{}, nil
	}
	return body.Allocations, nil
}
