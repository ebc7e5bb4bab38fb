package application

import (
	"sort"

	"github.com/wms-platform/picking-orchestrator/internal/domain"
)

// Group consolidates or orders raw tasks for the given strategy. Unknown
// strategies fall back to priority order.
func Group(tasks []*domain.PickTask, strategy domain.Strategy) []*domain.PickTask {
	switch strategy {
	case domain.StrategyBatch:
		return mergeBySKULocation(tasks)
	case domain.StrategyZone:
		return sortByZone(tasks)
	case domain.StrategyCluster:
		return Route(tasks)
	default:
		return sortByPriority(tasks)
	}
}

// Multiplier scales summed task estimates when estimating wave duration.
func Multiplier(strategy domain.Strategy) float64 {
	switch strategy {
	case domain.StrategyBatch:
		return 0.8
	case domain.StrategyZone:
		return 0.9
	default:
		return 1.0
	}
}

// mergeBySKULocation folds tasks sharing a SKU and location into the first
// task seen for that pair.
func mergeBySKULocation(tasks []*domain.PickTask) []*domain.PickTask {
	type key struct{ sku, location string }

	representatives := make(map[key]*domain.PickTask, len(tasks))
	merged := make([]*domain.PickTask, 0, len(tasks))
	for _, task := range tasks {
		k := key{task.SKU, task.Location}
		if rep, ok := representatives[k]; ok {
			rep.Absorb(task)
			continue
		}
		task.OrderBreakdown = task.Breakdown()
		representatives[k] = task
		merged = append(merged, task)
	}
	return merged
}

// sortByZone orders by zone id, then by LocationScalar within a zone.
// Distance from StartMarker is zero for every location, so it cannot order
// tasks; the absolute location scalar is used as the walk key instead.
func sortByZone(tasks []*domain.PickTask) []*domain.PickTask {
	sorted := append([]*domain.PickTask(nil), tasks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Zone != sorted[j].Zone {
			return sorted[i].Zone < sorted[j].Zone
		}
		return domain.LocationScalar(sorted[i].Location) < domain.LocationScalar(sorted[j].Location)
	})
	return sorted
}

func sortByPriority(tasks []*domain.PickTask) []*domain.PickTask {
	sorted := append([]*domain.PickTask(nil), tasks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})
	return sorted
}
