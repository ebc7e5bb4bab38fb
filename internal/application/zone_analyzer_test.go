package application

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wms-platform/picking-orchestrator/internal/domain"
	"github.com/wms-platform/picking-orchestrator/internal/infrastructure/memory"
)

func newZoneAnalyzer(t *testing.T, now time.Time) (*ZoneAnalyzer, *memory.TaskRepository, *stubZones) {
	t.Helper()
	repo := memory.NewTaskRepository()
	zones := &stubZones{zones: map[string]*domain.ZoneConfiguration{}}
	analyzer := NewZoneAnalyzer(zones, repo, testLogger())
	analyzer.now = func() time.Time { return now }
	return analyzer, repo, zones
}

func zonedTask(t *testing.T, id, zone string) *domain.PickTask {
	t.Helper()
	task, err := domain.NewPickTask(domain.TaskSpec{
		TaskID:   id,
		OrderID:  "ORD-1",
		SKU:      "SKU-" + id,
		Location: zone + "-01-01-01",
		Quantity: 1,
		Zone:     zone,
	})
	require.NoError(t, err)
	return task
}

func TestZoneAnalyzerAnalyze(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	analyzer, repo, zones := newZoneAnalyzer(t, now)
	zones.zones["Z1"] = testZone("Z1", 2, "P1", "P2")

	tasks := make([]*domain.PickTask, 0)
	for _, id := range []string{"IP1", "IP2"} {
		task := zonedTask(t, id, "Z1")
		require.NoError(t, task.Start("P1"))
		tasks = append(tasks, task)
	}
	finished := func(id, picker string, seconds int, at time.Time) *domain.PickTask {
		task := zonedTask(t, id, "Z1")
		task.Assignee = picker
		task.Status = domain.PickTaskStatusCompleted
		task.PickedQuantity = 1
		task.ActualTime = intPtr(seconds)
		task.CompletedAt = &at
		return task
	}
	tasks = append(tasks,
		finished("D1", "P1", 600, now.Add(-time.Hour)),
		finished("D2", "P1", 600, now.Add(-2*time.Hour)),
		finished("D3", "P1", 600, now.Add(-3*time.Hour)),
		finished("D4", "P2", 3600, now.Add(-4*time.Hour)),
		finished("OLD", "P2", 60, now.Add(-48*time.Hour)),
	)
	require.NoError(t, repo.SaveAll(ctx, tasks))

	perf, err := analyzer.Analyze(ctx, "Z1")

	require.NoError(t, err)
	assert.Equal(t, "Z1", perf.ZoneID)
	assert.InDelta(t, 100.0, perf.Utilization, 1e-9)
	assert.Equal(t, 1, perf.ActivePickers)
	assert.Equal(t, 2, perf.TasksInProgress)
	assert.Equal(t, 4, perf.TasksCompleted24h)
	assert.InDelta(t, 3.5, perf.AvgProductivity, 1e-9)
	assert.Equal(t, []string{domain.BottleneckHighUtilization, domain.BottleneckLowProductivity}, perf.Bottlenecks)
	assert.Equal(t, now, perf.AnalyzedAt)
}

func TestZoneAnalyzerIdleZone(t *testing.T) {
	analyzer, _, zones := newZoneAnalyzer(t, time.Now())
	zones.zones["Z2"] = testZone("Z2", 4, "P1")

	perf, err := analyzer.Analyze(context.Background(), "Z2")

	require.NoError(t, err)
	assert.Zero(t, perf.Utilization)
	assert.Equal(t, []string{domain.BottleneckLowPickerUtilization, domain.BottleneckLowProductivity}, perf.Bottlenecks)
}

func TestZoneAnalyzerZeroCapacity(t *testing.T) {
	analyzer, repo, zones := newZoneAnalyzer(t, time.Now())
	zone := testZone("Z3", 0)
	zone.Capacity.MaxTasksPerHour = 0
	zones.zones["Z3"] = zone
	task := zonedTask(t, "IP", "Z3")
	require.NoError(t, task.Start("P1"))
	require.NoError(t, repo.Save(context.Background(), task))

	perf, err := analyzer.Analyze(context.Background(), "Z3")

	require.NoError(t, err)
	assert.Zero(t, perf.Utilization)
	assert.Empty(t, perf.Bottlenecks)
}

func TestZoneAnalyzerUnknownZone(t *testing.T) {
	analyzer, _, _ := newZoneAnalyzer(t, time.Now())

	_, err := analyzer.Analyze(context.Background(), "nope")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestZoneAnalyzerAnalyzeAll(t *testing.T) {
	analyzer, _, zones := newZoneAnalyzer(t, time.Now())
	zones.zones["Z1"] = testZone("Z1", 2, "P1")
	zones.zones["Z2"] = testZone("Z2", 2, "P2")

	all, err := analyzer.AnalyzeAll(context.Background())

	require.NoError(t, err)
	ids := []string{all[0].ZoneID, all[1].ZoneID}
	sort.Strings(ids)
	assert.Equal(t, []string{"Z1", "Z2"}, ids)

	zones.listFn = func(context.Context) ([]*domain.ZoneConfiguration, error) {
		return nil, errors.New("config unavailable")
	}
	_, err = analyzer.AnalyzeAll(context.Background())
	assert.Error(t, err)
}
