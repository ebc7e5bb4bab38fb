//go:build integration

package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wms-platform/picking-orchestrator/internal/domain"
	"github.com/wms-platform/picking-orchestrator/pkg/testutil"
)

func TestTaskRepositoryIntegration(t *testing.T) {
	ctx := testutil.Context(t, time.Minute)
	client := testutil.NewMongoClient(t)
	repo, err := NewTaskRepository(ctx, client.Collection(TaskCollection))
	require.NoError(t, err)

	tasks := make([]*domain.PickTask, 0, 3)
	for i, loc := range []string{"A-03-01-01", "A-01-01-01", "A-02-01-01"} {
		task, err := domain.NewPickTask(domain.TaskSpec{
			TaskID:   "T" + string(rune('1'+i)),
			OrderID:  "ORD-1",
			SKU:      "SKU-1",
			Location: loc,
			Quantity: 2,
			Zone:     "A",
		})
		require.NoError(t, err)
		task.AttachToWave("W1", 3-i)
		tasks = append(tasks, task)
	}
	require.NoError(t, repo.SaveAll(ctx, tasks))

	byWave, err := repo.FindByWaveID(ctx, "W1")
	require.NoError(t, err)
	require.Len(t, byWave, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{byWave[0].Sequence, byWave[1].Sequence, byWave[2].Sequence})

	task := tasks[0]
	require.NoError(t, task.Start("P1"))
	require.NoError(t, task.Complete(1, intPtr(45), []domain.QualityCheck{{Name: "label", Passed: true}}))
	require.NoError(t, repo.Save(ctx, task))

	found, err := repo.FindByID(ctx, task.TaskID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, domain.PickTaskStatusShort, found.Status)
	assert.Equal(t, 45, *found.ActualTime)
	assert.Len(t, found.QualityChecks, 1)

	missing, err := repo.FindByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	recent, err := repo.FindCompletedByZone(ctx, "A", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	period := domain.Period{From: time.Now().Add(-time.Hour), To: time.Now().Add(time.Hour)}
	byPicker, err := repo.FindCompletedByPicker(ctx, "P1", period)
	require.NoError(t, err)
	assert.Len(t, byPicker, 1)

	pending, err := repo.FindByZoneAndStatus(ctx, "A", domain.PickTaskStatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, repo.DeleteByWaveID(ctx, "W1"))
	byWave, err = repo.FindByWaveID(ctx, "W1")
	require.NoError(t, err)
	assert.Empty(t, byWave)
}

func TestWaveRepositoryIntegration(t *testing.T) {
	ctx := testutil.Context(t, time.Minute)
	client := testutil.NewMongoClient(t)
	repo, err := NewWaveRepository(ctx, client.Collection(WaveCollection))
	require.NoError(t, err)

	for _, id := range []string{"W1", "W2"} {
		wave, err := domain.NewPickingWave(domain.WaveSpec{
			WaveID:     id,
			WaveNumber: "WV-" + id,
			Strategy:   domain.StrategyBatch,
			Zone:       "A",
			OrderIDs:   []string{"ORD-1"},
		}, nil)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, wave))
	}

	wave, err := repo.FindByID(ctx, "W1")
	require.NoError(t, err)
	require.NotNil(t, wave)
	require.NoError(t, wave.Cancel("test"))
	require.NoError(t, repo.Save(ctx, wave))

	cancelled, err := repo.FindByStatus(ctx, domain.WaveStatusCancelled, 10)
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, "test", cancelled[0].CancelReason)

	all, err := repo.FindByStatus(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func intPtr(v int) *int { return &v }
