package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wms-platform/picking-orchestrator/internal/domain"
)

func TestRoute(t *testing.T) {
	tests := []struct {
		name      string
		locations []string
		want      []string
	}{
		{
			name:      "nearest neighbor from first task",
			locations: []string{"A-01-01-01", "A-05-01-01", "A-02-01-01", "A-03-01-01"},
			want:      []string{"T0", "T2", "T3", "T1"},
		},
		{
			name:      "ties go to earliest remaining task",
			locations: []string{"A-02-00-00", "A-03-00-00", "A-01-00-00"},
			want:      []string{"T0", "T1", "T2"},
		},
		{
			name:      "start anchor is at zero distance from everything",
			locations: []string{"START", "A-09-00-00", "A-01-00-00"},
			want:      []string{"T0", "T1", "T2"},
		},
		{
			name:      "single task",
			locations: []string{"B-01-01-01"},
			want:      []string{"T0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := make([]*domain.PickTask, 0, len(tt.locations))
			for i, loc := range tt.locations {
				id := "T" + string(rune('0'+i))
				tasks = append(tasks, newTask(t, id, "ORD-1", "SKU-"+id, loc, 1, 5))
			}

			route := Route(tasks)

			assert.Equal(t, tt.want, taskIDs(route))
			for i, task := range route {
				assert.Equal(t, i+1, task.Sequence)
			}
		})
	}
}

func TestRouteEmpty(t *testing.T) {
	assert.Empty(t, Route(nil))
}

func TestRouteIsPermutationAndDeterministic(t *testing.T) {
	build := func(t *testing.T, order []int) []*domain.PickTask {
		locations := []string{"A-04-02-01", "A-01-01-01", "A-07-03-02", "A-02-05-00", "A-04-01-09"}
		tasks := make([]*domain.PickTask, 0, len(order))
		for _, i := range order {
			id := "T" + string(rune('0'+i))
			tasks = append(tasks, newTask(t, id, "ORD-1", "SKU-"+id, locations[i], 1, 5))
		}
		return tasks
	}

	first := Route(build(t, []int{0, 1, 2, 3, 4}))
	again := Route(build(t, []int{0, 1, 2, 3, 4}))
	shuffled := Route(build(t, []int{3, 0, 4, 2, 1}))

	assert.Equal(t, taskIDs(first), taskIDs(again))
	assert.ElementsMatch(t, []string{"T0", "T1", "T2", "T3", "T4"}, taskIDs(first))
	assert.ElementsMatch(t, taskIDs(first), taskIDs(shuffled))
	assert.Equal(t, "T3", shuffled[0].TaskID)
}

func TestRouteDoesNotReorderInput(t *testing.T) {
	tasks := []*domain.PickTask{
		newTask(t, "T0", "ORD-1", "SKU-0", "A-09-00-00", 1, 5),
		newTask(t, "T1", "ORD-1", "SKU-1", "A-01-00-00", 1, 5),
		newTask(t, "T2", "ORD-1", "SKU-2", "A-08-00-00", 1, 5),
	}

	route := Route(tasks)

	assert.Equal(t, []string{"T0", "T2", "T1"}, taskIDs(route))
	assert.Equal(t, []string{"T0", "T1", "T2"}, taskIDs(tasks))
}
