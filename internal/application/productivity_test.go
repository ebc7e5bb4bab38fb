package application

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wms-platform/picking-orchestrator/internal/domain"
	"github.com/wms-platform/picking-orchestrator/internal/infrastructure/memory"
)

func finishedTask(t *testing.T, id, orderID, sku, picker string, status domain.PickTaskStatus, picked int, seconds *int, at time.Time) *domain.PickTask {
	t.Helper()
	task := newTask(t, id, orderID, sku, "Z1-01-01-01", max(picked, 1), 5)
	task.Assignee = picker
	task.Status = status
	task.PickedQuantity = picked
	task.ActualTime = seconds
	task.CompletedAt = &at
	return task
}

func TestComputeWaveProductivity(t *testing.T) {
	analyzer := NewProductivityAnalyzer(memory.NewTaskRepository(), domain.DefaultScoringPolicy(), testLogger())
	at := time.Now()
	tasks := []*domain.PickTask{
		finishedTask(t, "T1", "ORD-1", "SKU-1", "P1", domain.PickTaskStatusCompleted, 10, intPtr(60), at),
		finishedTask(t, "T2", "ORD-1", "SKU-2", "P1", domain.PickTaskStatusShort, 5, intPtr(120), at),
		finishedTask(t, "T3", "ORD-1", "SKU-3", "P1", domain.PickTaskStatusCompleted, 15, nil, at),
	}

	got := analyzer.ComputeWaveProductivity(&domain.PickingWave{ActualDuration: 30}, tasks)

	require.NotNil(t, got)
	assert.InDelta(t, 60.0, got.PicksPerHour, 1e-9)
	assert.InDelta(t, 6.0, got.LinesPerHour, 1e-9)
	assert.InDelta(t, 2.0/3.0, got.Accuracy, 1e-9)
	assert.InDelta(t, 90.0, got.AvgTimePerPick, 1e-9)
}

func TestComputeWaveProductivityWithoutDuration(t *testing.T) {
	analyzer := NewProductivityAnalyzer(memory.NewTaskRepository(), domain.DefaultScoringPolicy(), testLogger())
	tasks := []*domain.PickTask{
		finishedTask(t, "T1", "ORD-1", "SKU-1", "P1", domain.PickTaskStatusCompleted, 1, intPtr(10), time.Now()),
	}

	assert.Nil(t, analyzer.ComputeWaveProductivity(&domain.PickingWave{ActualDuration: 0}, tasks))
	assert.Nil(t, analyzer.ComputeWaveProductivity(&domain.PickingWave{ActualDuration: -1}, tasks))
}

func seedPickerHistory(t *testing.T) *memory.TaskRepository {
	t.Helper()
	ctx := context.Background()
	repo := memory.NewTaskRepository()
	day := func(d, h int) time.Time { return time.Date(2026, 3, d, h, 0, 0, 0, time.UTC) }

	tasks := []*domain.PickTask{
		finishedTask(t, "T1", "ORD-1", "SKU-1", "P1", domain.PickTaskStatusCompleted, 10, intPtr(1800), day(1, 10)),
		finishedTask(t, "T2", "ORD-1", "SKU-2", "P1", domain.PickTaskStatusShort, 4, intPtr(1800), day(2, 10)),
		finishedTask(t, "T3", "ORD-2", "SKU-1", "P1", domain.PickTaskStatusCompleted, 6, intPtr(3600), day(2, 12)),
		finishedTask(t, "T5", "ORD-3", "SKU-1", "P1", domain.PickTaskStatusCompleted, 9, intPtr(60), time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)),
		finishedTask(t, "T6", "ORD-3", "SKU-1", "P2", domain.PickTaskStatusCompleted, 9, intPtr(60), day(2, 9)),
	}
	active := newTask(t, "T4", "ORD-4", "SKU-4", "Z1-02-01-01", 1, 5)
	require.NoError(t, active.Start("P1"))
	tasks = append(tasks, active)

	require.NoError(t, repo.SaveAll(ctx, tasks))
	return repo
}

func TestComputePickerPerformance(t *testing.T) {
	analyzer := NewProductivityAnalyzer(seedPickerHistory(t), domain.DefaultScoringPolicy(), testLogger())

	perf, err := analyzer.ComputePickerPerformance(context.Background(), PickerPerformanceQuery{
		PickerID: "P1",
		From:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
	})

	require.NoError(t, err)
	assert.Equal(t, 3, perf.TotalPicks)
	assert.Equal(t, 3, perf.TotalLines)
	assert.Equal(t, 20, perf.TotalQuantity)
	assert.InDelta(t, 10.0, perf.PicksPerHour, 1e-9)
	assert.InDelta(t, 1.5, perf.LinesPerHour, 1e-9)
	assert.InDelta(t, 2.0/3.0, perf.Accuracy, 1e-9)
	assert.InDelta(t, 2400.0, perf.AvgTimePerPick, 1e-9)
	assert.InDelta(t, 31.6667, perf.Score, 1e-3)
	assert.Equal(t, "F", perf.Grade)
	assert.Equal(t, 1, perf.ActiveSessions)

	require.Len(t, perf.Trend, 2)
	assert.Equal(t, "2026-03-01", perf.Trend[0].Date)
	assert.InDelta(t, 20.0, perf.Trend[0].PicksPerHour, 1e-9)
	assert.InDelta(t, 1.0, perf.Trend[0].Accuracy, 1e-9)
	assert.Equal(t, "2026-03-02", perf.Trend[1].Date)
	assert.InDelta(t, 10.0/1.5, perf.Trend[1].PicksPerHour, 1e-9)
	assert.InDelta(t, 0.5, perf.Trend[1].Accuracy, 1e-9)
}

func TestComputePickerPerformanceTrendWindow(t *testing.T) {
	policy := domain.DefaultScoringPolicy()
	policy.TrendDays = 1
	analyzer := NewProductivityAnalyzer(seedPickerHistory(t), policy, testLogger())

	perf, err := analyzer.ComputePickerPerformance(context.Background(), PickerPerformanceQuery{
		PickerID: "P1",
		From:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	})

	require.NoError(t, err)
	assert.Equal(t, 4, perf.TotalPicks)
	require.Len(t, perf.Trend, 1)
	assert.Equal(t, "2026-03-02", perf.Trend[0].Date)
}

func TestComputePickerPerformanceNoHistory(t *testing.T) {
	analyzer := NewProductivityAnalyzer(memory.NewTaskRepository(), domain.DefaultScoringPolicy(), testLogger())

	perf, err := analyzer.ComputePickerPerformance(context.Background(), PickerPerformanceQuery{
		PickerID: "P9",
		From:     time.Now().Add(-time.Hour),
		To:       time.Now(),
	})

	require.NoError(t, err)
	assert.Equal(t, 0, perf.TotalPicks)
	assert.Zero(t, perf.PicksPerHour)
	assert.Zero(t, perf.Accuracy)
	assert.Equal(t, "F", perf.Grade)
	assert.Empty(t, perf.Trend)
}

func TestComputePickerPerformanceValidation(t *testing.T) {
	analyzer := NewProductivityAnalyzer(memory.NewTaskRepository(), domain.DefaultScoringPolicy(), testLogger())
	now := time.Now()

	tests := []struct {
		name  string
		query PickerPerformanceQuery
	}{
		{"missing picker", PickerPerformanceQuery{From: now.Add(-time.Hour), To: now}},
		{"empty period", PickerPerformanceQuery{PickerID: "P1", From: now, To: now}},
		{"inverted period", PickerPerformanceQuery{PickerID: "P1", From: now, To: now.Add(-time.Hour)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := analyzer.ComputePickerPerformance(context.Background(), tt.query)
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, MapDomainError(err).HTTPStatus)
		})
	}
}
