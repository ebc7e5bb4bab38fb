// Package memory holds process-local repositories for tests and
// single-node runs without MongoDB.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wms-platform/picking-orchestrator/internal/domain"
)

// TaskRepository is an in-memory domain.PickTaskRepository
type TaskRepository struct {
	mu    sync.RWMutex
	tasks map[string]*domain.PickTask
}

// NewTaskRepository creates an empty TaskRepository
func NewTaskRepository() *TaskRepository {
	return &TaskRepository{tasks: make(map[string]*domain.PickTask)}
}

// Save stores a copy of the task
func (r *TaskRepository) Save(_ context.Context, task *domain.PickTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.TaskID] = task.Snapshot()
	return nil
}

// SaveAll stores copies of the tasks
func (r *TaskRepository) SaveAll(_ context.Context, tasks []*domain.PickTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, task := range tasks {
		r.tasks[task.TaskID] = task.Snapshot()
	}
	return nil
}

// DeleteByWaveID drops every task of the wave
func (r *TaskRepository) DeleteByWaveID(_ context.Context, waveID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, task := range r.tasks {
		if task.WaveID == waveID {
			delete(r.tasks, id)
		}
	}
	return nil
}

// FindByID returns nil, nil when the task is unknown
func (r *TaskRepository) FindByID(_ context.Context, taskID string) (*domain.PickTask, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[taskID]
	if !ok {
		return nil, nil
	}
	return task.Snapshot(), nil
}

// FindByWaveID returns the wave's tasks by sequence
func (r *TaskRepository) FindByWaveID(_ context.Context, waveID string) ([]*domain.PickTask, error) {
	tasks := r.filter(func(t *domain.PickTask) bool { return t.WaveID == waveID })
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Sequence < tasks[j].Sequence })
	return tasks, nil
}

// FindByPickerID returns tasks assigned to the picker, newest first
func (r *TaskRepository) FindByPickerID(_ context.Context, pickerID string) ([]*domain.PickTask, error) {
	tasks := r.filter(func(t *domain.PickTask) bool { return t.Assignee == pickerID })
	sortNewestFirst(tasks)
	return tasks, nil
}

// FindByZoneAndStatus returns tasks in a zone with the given status
func (r *TaskRepository) FindByZoneAndStatus(_ context.Context, zone string, status domain.PickTaskStatus) ([]*domain.PickTask, error) {
	tasks := r.filter(func(t *domain.PickTask) bool { return t.Zone == zone && t.Status == status })
	sortNewestFirst(tasks)
	return tasks, nil
}

// FindCompletedByZone returns terminal tasks completed at or after since
func (r *TaskRepository) FindCompletedByZone(_ context.Context, zone string, since time.Time) ([]*domain.PickTask, error) {
	return r.filter(func(t *domain.PickTask) bool {
		return t.Zone == zone && t.Status.IsTerminal() && t.CompletedAt != nil && !t.CompletedAt.Before(since)
	}), nil
}

// FindCompletedByPicker returns terminal tasks completed within period
func (r *TaskRepository) FindCompletedByPicker(_ context.Context, pickerID string, period domain.Period) ([]*domain.PickTask, error) {
	return r.filter(func(t *domain.PickTask) bool {
		return t.Assignee == pickerID && t.Status.IsTerminal() && t.CompletedAt != nil && period.Contains(*t.CompletedAt)
	}), nil
}

func (r *TaskRepository) filter(match func(*domain.PickTask) bool) []*domain.PickTask {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.PickTask, 0)
	for _, task := range r.tasks {
		if match(task) {
			out = append(out, task.Snapshot())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskID < out[j].TaskID })
	return out
}

func sortNewestFirst(tasks []*domain.PickTask) {
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })
}

// WaveRepository is an in-memory domain.PickingWaveRepository
type WaveRepository struct {
	mu    sync.RWMutex
	waves map[string]*domain.PickingWave
}

// NewWaveRepository creates an empty WaveRepository
func NewWaveRepository() *WaveRepository {
	return &WaveRepository{waves: make(map[string]*domain.PickingWave)}
}

// Save stores a copy of the wave
func (r *WaveRepository) Save(_ context.Context, wave *domain.PickingWave) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waves[wave.WaveID] = cloneWave(wave)
	return nil
}

// FindByID returns nil, nil when the wave is unknown
func (r *WaveRepository) FindByID(_ context.Context, waveID string) (*domain.PickingWave, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wave, ok := r.waves[waveID]
	if !ok {
		return nil, nil
	}
	return cloneWave(wave), nil
}

// FindByStatus lists waves newest first; an empty status lists all
func (r *WaveRepository) FindByStatus(_ context.Context, status domain.WaveStatus, limit int) ([]*domain.PickingWave, error) {
	r.mu.RLock()
	out := make([]*domain.PickingWave, 0)
	for _, wave := range r.waves {
		if status == "" || wave.Status == status {
			out = append(out, cloneWave(wave))
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].WaveID < out[j].WaveID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneWave(wave *domain.PickingWave) *domain.PickingWave {
	c := *wave
	c.OrderIDs = append([]string(nil), wave.OrderIDs...)
	c.TaskIDs = append([]string(nil), wave.TaskIDs...)
	c.AssignedPickers = append([]string(nil), wave.AssignedPickers...)
	c.Shortages = append([]domain.Shortage(nil), wave.Shortages...)
	if wave.Productivity != nil {
		p := *wave.Productivity
		c.Productivity = &p
	}
	c.ReleasedAt = clonePtr(wave.ReleasedAt)
	c.CompletedAt = clonePtr(wave.CompletedAt)
	c.CancelledAt = clonePtr(wave.CancelledAt)
	c.DomainEvents = make([]domain.DomainEvent, 0)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
