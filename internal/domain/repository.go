package domain

import (
	"context"
	"time"
)

// PickTaskRepository defines the interface for pick task persistence
type PickTaskRepository interface {
	Save(ctx context.Context, task *PickTask) error
	SaveAll(ctx context.Context, tasks []*PickTask) error
	// DeleteByWaveID removes a wave's tasks. Used to undo a wave that failed to persist.
	DeleteByWaveID(ctx context.Context, waveID string) error
	FindByID(ctx context.Context, taskID string) (*PickTask, error)
	// FindByWaveID returns the wave's tasks ordered by sequence.
	FindByWaveID(ctx context.Context, waveID string) ([]*PickTask, error)
	FindByPickerID(ctx context.Context, pickerID string) ([]*PickTask, error)
	FindByZoneAndStatus(ctx context.Context, zone string, status PickTaskStatus) ([]*PickTask, error)
	// FindCompletedByZone returns terminal tasks completed at or after since.
	FindCompletedByZone(ctx context.Context, zone string, since time.Time) ([]*PickTask, error)
	// FindCompletedByPicker returns terminal tasks completed within period.
	FindCompletedByPicker(ctx context.Context, pickerID string, period Period) ([]*PickTask, error)
}

// PickingWaveRepository defines the interface for picking wave persistence
type PickingWaveRepository interface {
	Save(ctx context.Context, wave *PickingWave) error
	FindByID(ctx context.Context, waveID string) (*PickingWave, error)
	// FindByStatus lists waves newest first; an empty status lists all.
	FindByStatus(ctx context.Context, status WaveStatus, limit int) ([]*PickingWave, error)
}
