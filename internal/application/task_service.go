package application

import (
	"context"
	"fmt"
	"time"

	"github.com/wms-platform/picking-orchestrator/internal/domain"
	pkgerrors "github.com/wms-platform/picking-orchestrator/pkg/errors"
	"github.com/wms-platform/picking-orchestrator/pkg/logging"
)

// TaskService handles pick task use cases
type TaskService struct {
	taskRepo domain.PickTaskRepository
	waves    *WaveService
	notifier domain.Notifier
	metrics  domain.MetricsSink
	logger   *logging.Logger
}

// NewTaskService creates a new TaskService. It shares the wave service's
// locks so task mutations and wave progress are serialized together.
func NewTaskService(taskRepo domain.PickTaskRepository, waves *WaveService, notifier domain.Notifier, metrics domain.MetricsSink, logger *logging.Logger) *TaskService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &TaskService{
		taskRepo: taskRepo,
		waves:    waves,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger.WithComponent("task-service"),
	}
}

// lockTask takes the owning wave's lock and then the task's lock and
// returns the task as stored once both are held.
func (s *TaskService) lockTask(ctx context.Context, taskID string) (*domain.PickTask, func(), error) {
	peek, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}

	var unlockWave func()
	if peek.WaveID != "" {
		unlockWave = s.waves.locks.Lock(waveKey(peek.WaveID))
	}
	unlockTask := s.waves.locks.Lock(taskKey(taskID))
	unlock := func() {
		unlockTask()
		if unlockWave != nil {
			unlockWave()
		}
	}

	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return task, unlock, nil
}

// StartTask hands a pending task to a picker and promotes its wave
func (s *TaskService) StartTask(ctx context.Context, cmd StartTaskCommand) (*PickTaskDTO, error) {
	if cmd.PickerID == "" {
		return nil, pkgerrors.ErrValidation("picker id is required")
	}

	task, unlock, err := s.lockTask(ctx, cmd.TaskID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var wave *domain.PickingWave
	if task.WaveID != "" {
		wave, err = s.waves.loadWave(ctx, task.WaveID)
		if err != nil {
			return nil, err
		}
		if wave.IsClosed() {
			return nil, fmt.Errorf("%w: wave %s is %s", domain.ErrInvalidState, wave.WaveID, wave.Status)
		}
	}

	stored := task.Snapshot()
	if err := task.Start(cmd.PickerID); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Save(ctx, task); err != nil {
		s.logger.WithError(err).Error("Failed to save started task", "taskId", cmd.TaskID)
		return nil, fmt.Errorf("failed to save task: %w", err)
	}

	if wave != nil && wave.MarkInProgress() {
		if err := s.waves.waveRepo.Save(ctx, wave); err != nil {
			s.logger.WithError(err).Error("Failed to promote wave", "waveId", wave.WaveID)
			s.waves.restoreTasks(ctx, stored)
			return nil, fmt.Errorf("failed to save wave: %w", err)
		}
		s.logger.WithWave(wave.WaveID).Info("Wave in progress", "firstTask", task.TaskID)
	}

	s.logger.WithTask(task.TaskID).Info("Task started", "pickerId", cmd.PickerID, "waveId", task.WaveID)
	return ToPickTaskDTO(task), nil
}

// CompleteTask records the pick outcome and rolls progress up to the wave.
// The wave roll-up is computed before anything is written, and the task is
// put back as it was if the wave cannot be saved.
func (s *TaskService) CompleteTask(ctx context.Context, cmd CompleteTaskCommand) (*PickTaskDTO, error) {
	task, unlock, err := s.lockTask(ctx, cmd.TaskID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	stored := task.Snapshot()
	if err := task.Complete(cmd.PickedQuantity, cmd.ActualTime, cmd.QualityChecks); err != nil {
		return nil, err
	}

	wave, waveDone, err := s.projectWave(ctx, task)
	if err != nil {
		return nil, err
	}

	if err := s.taskRepo.Save(ctx, task); err != nil {
		s.logger.WithError(err).Error("Failed to save completed task", "taskId", cmd.TaskID)
		return nil, fmt.Errorf("failed to save task: %w", err)
	}
	if wave != nil {
		if err := s.waves.saveProgress(ctx, wave); err != nil {
			s.waves.restoreTasks(ctx, stored)
			return nil, err
		}
	}

	elapsed := time.Duration(*task.ActualTime) * time.Second
	s.metrics.RecordTaskCompleted(task.Zone, string(task.Status), elapsed)
	if wave != nil {
		s.waves.progressRecorded(ctx, wave, waveDone)
	}
	publishEvents(ctx, s.notifier, s.logger, task)

	s.logger.WithTask(task.TaskID).Info("Task completed",
		"status", task.Status,
		"pickedQuantity", task.PickedQuantity,
		"requiredQuantity", task.RequiredQuantity,
		"actualTime", *task.ActualTime,
	)
	return ToPickTaskDTO(task), nil
}

// projectWave applies the completed task to its open wave in memory. It
// returns a nil wave when the task has no wave or the wave is closed.
func (s *TaskService) projectWave(ctx context.Context, task *domain.PickTask) (*domain.PickingWave, bool, error) {
	if task.WaveID == "" {
		return nil, false, nil
	}
	wave, err := s.waves.loadWave(ctx, task.WaveID)
	if err != nil {
		return nil, false, err
	}
	if wave.IsClosed() {
		return nil, false, nil
	}

	tasks, err := s.taskRepo.FindByWaveID(ctx, task.WaveID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get wave tasks: %w", err)
	}
	for i, t := range tasks {
		if t.TaskID == task.TaskID {
			tasks[i] = task
		}
	}

	done, err := s.waves.rollUp(wave, tasks)
	if err != nil {
		return nil, false, err
	}
	return wave, done, nil
}

// GetTask retrieves a task by ID
func (s *TaskService) GetTask(ctx context.Context, taskID string) (*PickTaskDTO, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return ToPickTaskDTO(task), nil
}

// ListTasksByPicker lists every task assigned to a picker
func (s *TaskService) ListTasksByPicker(ctx context.Context, pickerID string) ([]*PickTaskDTO, error) {
	if pickerID == "" {
		return nil, pkgerrors.ErrValidation("picker id is required")
	}

	tasks, err := s.taskRepo.FindByPickerID(ctx, pickerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get picker tasks: %w", err)
	}
	return ToPickTaskDTOs(tasks), nil
}

func (s *TaskService) loadTask(ctx context.Context, taskID string) (*domain.PickTask, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return nil, notFound("task", taskID)
	}
	return task, nil
}
