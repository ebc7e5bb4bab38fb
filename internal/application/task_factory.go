package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/wms-platform/picking-orchestrator/internal/domain"
	"github.com/wms-platform/picking-orchestrator/pkg/logging"
)

// DefaultSecondsPerUnit is the pick time estimate per unit
const DefaultSecondsPerUnit = 10

// TaskFactory expands order lines against inventory allocations into pick tasks
type TaskFactory struct {
	orders         domain.OrderSource
	inventory      domain.InventorySource
	zones          domain.ZoneConfigSource
	secondsPerUnit int
	newID          func() string
	logger         *logging.Logger
}

// NewTaskFactory creates a TaskFactory. secondsPerUnit <= 0 uses the default.
// zones may be nil, in which case unzoned allocations take their aisle as zone.
func NewTaskFactory(orders domain.OrderSource, inventory domain.InventorySource, zones domain.ZoneConfigSource, secondsPerUnit int, logger *logging.Logger) *TaskFactory {
	if secondsPerUnit <= 0 {
		secondsPerUnit = DefaultSecondsPerUnit
	}
	return &TaskFactory{
		orders:         orders,
		inventory:      inventory,
		zones:          zones,
		secondsPerUnit: secondsPerUnit,
		newID:          func() string { return uuid.New().String() },
		logger:         logger.WithComponent("task-factory"),
	}
}

// CreateTasks emits one pending task per allocation consumed. Stock taken by
// an earlier line in the same call is not offered to later lines. When a
// line cannot be fully covered the tasks created so far are returned
// together with a *domain.AllocationExhaustedError listing every short line.
//
// A task's zone is the hint, else the allocation's zone, else the configured
// zone whose locations claim the allocation's location, else its aisle.
func (f *TaskFactory) CreateTasks(ctx context.Context, orderIDs []string, zoneHint string) ([]*domain.PickTask, error) {
	layout, err := f.layout(ctx, zoneHint)
	if err != nil {
		return nil, err
	}

	tasks := make([]*domain.PickTask, 0)
	shortages := make([]domain.Shortage, 0)
	consumed := make(map[string]int)

	for _, orderID := range orderIDs {
		lines, err := f.orders.GetOrderLines(ctx, orderID)
		if err != nil {
			return nil, fmt.Errorf("failed to get order lines for %s: %w", orderID, err)
		}

		for _, line := range lines {
			if line.Quantity <= 0 {
				f.logger.Warn("Skipping order line without quantity", "orderId", orderID, "sku", line.SKU)
				continue
			}

			allocations, err := f.inventory.GetAvailableAllocations(ctx, line.SKU, zoneHint)
			if err != nil {
				return nil, fmt.Errorf("failed to get allocations for %s: %w", line.SKU, err)
			}

			priority := domain.DefaultPriority
			if line.Priority != nil {
				priority = *line.Priority
			}

			remaining := line.Quantity
			for _, alloc := range allocations {
				if remaining == 0 {
					break
				}

				key := line.SKU + "|" + alloc.Location
				available := alloc.AvailableQty - consumed[key]
				if available <= 0 {
					continue
				}
				qty := min(remaining, available)

				zone := zoneHint
				if zone == "" {
					zone = alloc.Zone
				}
				if zone == "" {
					zone = domain.ZoneForLocation(alloc.Location, layout)
				}

				task, err := domain.NewPickTask(domain.TaskSpec{
					TaskID:        f.newID(),
					OrderID:       orderID,
					SKU:           line.SKU,
					Location:      alloc.Location,
					Lot:           alloc.Lot,
					Serial:        alloc.Serial,
					Quantity:      qty,
					Priority:      priority,
					Zone:          zone,
					EstimatedTime: qty * f.secondsPerUnit,
				})
				if err != nil {
					return nil, fmt.Errorf("failed to create task for %s/%s: %w", orderID, line.SKU, err)
				}

				tasks = append(tasks, task)
				consumed[key] += qty
				remaining -= qty
			}

			if remaining > 0 {
				shortages = append(shortages, domain.Shortage{
					OrderID:   orderID,
					SKU:       line.SKU,
					Requested: line.Quantity,
					Allocated: line.Quantity - remaining,
				})
			}
		}
	}

	if len(shortages) > 0 {
		f.logger.Warn("Allocation exhausted", "shortLines", len(shortages), "tasks", len(tasks))
		return tasks, &domain.AllocationExhaustedError{Shortages: shortages}
	}
	return tasks, nil
}

// layout lists configured zones when a task may need one resolved from its location.
func (f *TaskFactory) layout(ctx context.Context, zoneHint string) ([]*domain.ZoneConfiguration, error) {
	if f.zones == nil || zoneHint != "" {
		return nil, nil
	}
	zones, err := f.zones.ListZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	return zones, nil
}
