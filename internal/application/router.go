package application

import "github.com/wms-platform/picking-orchestrator/internal/domain"

// Route orders tasks into a nearest-neighbor walk starting at the first
// task and assigns 1-based sequence numbers in walk order. Ties go to the
// earliest remaining task. The input slice is not modified.
func Route(tasks []*domain.PickTask) []*domain.PickTask {
	if len(tasks) == 0 {
		return []*domain.PickTask{}
	}

	remaining := append([]*domain.PickTask(nil), tasks...)
	route := make([]*domain.PickTask, 0, len(tasks))

	current := remaining[0]
	route = append(route, current)
	remaining = remaining[1:]

	for len(remaining) > 0 {
		best := 0
		bestDistance := domain.Distance(current.Location, remaining[0].Location)
		for i := 1; i < len(remaining); i++ {
			if d := domain.Distance(current.Location, remaining[i].Location); d < bestDistance {
				best, bestDistance = i, d
			}
		}

		current = remaining[best]
		route = append(route, current)
		remaining = append(remaining[:best], remaining[best+1:]...)
	}

	AssignSequence(route)
	return route
}

// AssignSequence numbers tasks 1..N in slice order.
func AssignSequence(tasks []*domain.PickTask) {
	for i, task := range tasks {
		task.Sequence = i + 1
	}
}
