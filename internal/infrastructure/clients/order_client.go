package clients

import (
	"context"
	"fmt"
	"net/url"

	"github.com/wms-platform/picking-orchestrator/internal/domain"
	"github.com/wms-platform/picking-orchestrator/pkg/logging"
)

// OrderLinesResponse is the order-service payload for outstanding lines
type OrderLinesResponse struct {
	OrderID string             `json:"orderId"`
	Lines   []domain.OrderLine `json:"lines"`
}

// OrderServiceClient handles communication with order-service.
// Implements domain.OrderSource.
type OrderServiceClient struct {
	*downstream
}

// NewOrderServiceClient creates a new OrderServiceClient
func NewOrderServiceClient(config Config, logger *logging.Logger) *OrderServiceClient {
	return &OrderServiceClient{downstream: newDownstream("order-service", config, logger)}
}

// GetOrderLines fetches the outstanding lines of an order. An unknown order
// yields domain.ErrNotFound.
func (c *OrderServiceClient) GetOrderLines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	endpoint := fmt.Sprintf("%s/api/v1/orders/%s/lines", c.baseURL, url.PathEscape(orderID))

	var body OrderLinesResponse
	found, err := c.getJSON(ctx, endpoint, &body)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, orderID)
	}
	return body.Lines, nil
}
