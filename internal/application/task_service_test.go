package application

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wms-platform/picking-orchestrator/internal/domain"
)

// releasedTask plans and releases a one-task wave and returns the task.
func releasedTask(t *testing.T, h *harness, qty int) *PickTaskDTO {
	t.Helper()
	h.zones.zones["Z1"] = testZone("Z1", 1, "P-A")
	h.seedOrder("ORD-1", domain.OrderLine{SKU: "SKU-1", Quantity: qty})
	created := h.createWave(t, domain.StrategySingleOrder, "Z1", "ORD-1")
	_, err := h.waves.ReleaseWave(context.Background(), created.Wave.WaveID)
	require.NoError(t, err)

	tasks, err := h.waves.GetWaveTasks(context.Background(), created.Wave.WaveID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	return tasks[0]
}

func TestCompleteTaskStatusResolution(t *testing.T) {
	tests := []struct {
		name   string
		picked int
		checks []domain.QualityCheck
		want   domain.PickTaskStatus
	}{
		{"nothing picked is short", 0, nil, domain.PickTaskStatusShort},
		{"under pick is short", 2, nil, domain.PickTaskStatusShort},
		{"failed check is damaged", 4, []domain.QualityCheck{{Name: "seal", Passed: false}}, domain.PickTaskStatusDamaged},
		{"full pick is completed", 4, []domain.QualityCheck{{Name: "seal", Passed: true}}, domain.PickTaskStatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t)
			task := releasedTask(t, h, 4)

			_, err := h.tasks.StartTask(ctx, StartTaskCommand{TaskID: task.TaskID, PickerID: "P-A"})
			require.NoError(t, err)

			done, err := h.tasks.CompleteTask(ctx, CompleteTaskCommand{
				TaskID:         task.TaskID,
				PickedQuantity: tt.picked,
				ActualTime:     intPtr(30),
				QualityChecks:  tt.checks,
			})

			require.NoError(t, err)
			assert.Equal(t, string(tt.want), done.Status)
			assert.Equal(t, tt.picked, done.PickedQuantity)
			assert.Equal(t, 30, *done.ActualTime)
			assert.NotNil(t, done.CompletedAt)
		})
	}
}

func TestStartTaskTwiceFails(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	task := releasedTask(t, h, 1)

	started, err := h.tasks.StartTask(ctx, StartTaskCommand{TaskID: task.TaskID, PickerID: "P-A"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.PickTaskStatusInProgress), started.Status)
	assert.NotNil(t, started.StartedAt)

	_, err = h.tasks.StartTask(ctx, StartTaskCommand{TaskID: task.TaskID, PickerID: "P-B"})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	stored, err := h.tasks.GetTask(ctx, task.TaskID)
	require.NoError(t, err)
	assert.Equal(t, "P-A", stored.Assignee)
}

func TestStartTaskValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.tasks.StartTask(ctx, StartTaskCommand{TaskID: "T1"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, MapDomainError(err).HTTPStatus)

	_, err = h.tasks.StartTask(ctx, StartTaskCommand{TaskID: "missing", PickerID: "P-A"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, MapDomainError(err).HTTPStatus)
}

func TestStartTaskOnCancelledWave(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	task := releasedTask(t, h, 1)

	_, err := h.waves.CancelWave(ctx, CancelWaveCommand{WaveID: task.WaveID, Reason: "stock recount"})
	require.NoError(t, err)

	_, err = h.tasks.StartTask(ctx, StartTaskCommand{TaskID: task.TaskID, PickerID: "P-A"})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestCompleteTaskRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	task := releasedTask(t, h, 3)

	_, err := h.tasks.CompleteTask(ctx, CompleteTaskCommand{TaskID: task.TaskID, PickedQuantity: 3})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = h.tasks.StartTask(ctx, StartTaskCommand{TaskID: task.TaskID, PickerID: "P-A"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		picked int
	}{
		{"over pick", 4},
		{"negative", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.tasks.CompleteTask(ctx, CompleteTaskCommand{TaskID: task.TaskID, PickedQuantity: tt.picked})
			assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
			assert.Equal(t, http.StatusUnprocessableEntity, MapDomainError(err).HTTPStatus)
		})
	}

	stored, err := h.tasks.GetTask(ctx, task.TaskID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.PickTaskStatusInProgress), stored.Status)
	assert.Equal(t, 0, stored.PickedQuantity)

	_, err = h.tasks.CompleteTask(ctx, CompleteTaskCommand{TaskID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCompleteTerminalTaskFails(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	task := releasedTask(t, h, 1)

	_, err := h.tasks.StartTask(ctx, StartTaskCommand{TaskID: task.TaskID, PickerID: "P-A"})
	require.NoError(t, err)
	_, err = h.tasks.CompleteTask(ctx, CompleteTaskCommand{TaskID: task.TaskID, PickedQuantity: 1})
	require.NoError(t, err)

	_, err = h.tasks.CompleteTask(ctx, CompleteTaskCommand{TaskID: task.TaskID, PickedQuantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestTaskWithoutWave(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	loose := newTask(t, "T-LOOSE", "ORD-9", "SKU-9", "D-01-01-01", 2, 5)
	require.NoError(t, h.taskRepo.Save(ctx, loose))

	_, err := h.tasks.StartTask(ctx, StartTaskCommand{TaskID: "T-LOOSE", PickerID: "P-Z"})
	require.NoError(t, err)
	done, err := h.tasks.CompleteTask(ctx, CompleteTaskCommand{TaskID: "T-LOOSE", PickedQuantity: 2})
	require.NoError(t, err)
	assert.Equal(t, string(domain.PickTaskStatusCompleted), done.Status)
	assert.Equal(t, []string{domain.EventTypePickCompleted}, h.notifier.types())
}

func TestListTasksByPicker(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	task := releasedTask(t, h, 1)

	tasks, err := h.tasks.ListTasksByPicker(ctx, "P-A")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, task.TaskID, tasks[0].TaskID)

	none, err := h.tasks.ListTasksByPicker(ctx, "P-Q")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = h.tasks.ListTasksByPicker(ctx, "")
	assert.Error(t, err)
}
