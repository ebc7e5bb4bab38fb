package application

import "github.com/wms-platform/picking-orchestrator/internal/domain"

// ToPickTaskDTO converts a domain PickTask to PickTaskDTO
func ToPickTaskDTO(task *domain.PickTask) *PickTaskDTO {
	if task == nil {
		return nil
	}
	return &PickTaskDTO{
		TaskID:           task.TaskID,
		OrderID:          task.OrderID,
		WaveID:           task.WaveID,
		SKU:              task.SKU,
		Location:         task.Location,
		Lot:              task.Lot,
		Serial:           task.Serial,
		RequiredQuantity: task.RequiredQuantity,
		PickedQuantity:   task.PickedQuantity,
		Status:           string(task.Status),
		Assignee:         task.Assignee,
		Priority:         task.Priority,
		Zone:             task.Zone,
		Sequence:         task.Sequence,
		EstimatedTime:    task.EstimatedTime,
		ActualTime:       task.ActualTime,
		QualityChecks:    task.QualityChecks,
		OrderBreakdown:   task.OrderBreakdown,
		CreatedAt:        task.CreatedAt,
		StartedAt:        task.StartedAt,
		CompletedAt:      task.CompletedAt,
	}
}

// ToPickTaskDTOs converts a slice of tasks
func ToPickTaskDTOs(tasks []*domain.PickTask) []*PickTaskDTO {
	dtos := make([]*PickTaskDTO, 0, len(tasks))
	for _, task := range tasks {
		dtos = append(dtos, ToPickTaskDTO(task))
	}
	return dtos
}

// ToWaveDTO converts a domain PickingWave to WaveDTO
func ToWaveDTO(wave *domain.PickingWave) *WaveDTO {
	if wave == nil {
		return nil
	}
	return &WaveDTO{
		WaveID:            wave.WaveID,
		WaveNumber:        wave.WaveNumber,
		Status:            string(wave.Status),
		Strategy:          string(wave.Strategy),
		Priority:          wave.Priority,
		Zone:              wave.Zone,
		OrderIDs:          wave.OrderIDs,
		TaskIDs:           wave.TaskIDs,
		TotalTasks:        wave.TotalTasks,
		CompletedTasks:    wave.CompletedTasks,
		TotalQuantity:     wave.TotalQuantity,
		PickedQuantity:    wave.PickedQuantity,
		AssignedPickers:   wave.AssignedPickers,
		EstimatedDuration: wave.EstimatedDuration,
		ActualDuration:    wave.ActualDuration,
		CancelReason:      wave.CancelReason,
		Productivity:      wave.Productivity,
		CreatedAt:         wave.CreatedAt,
		ReleasedAt:        wave.ReleasedAt,
		CompletedAt:       wave.CompletedAt,
		CancelledAt:       wave.CancelledAt,
	}
}

// ToWaveDTOs converts a slice of waves
func ToWaveDTOs(waves []*domain.PickingWave) []*WaveDTO {
	dtos := make([]*WaveDTO, 0, len(waves))
	for _, wave := range waves {
		dtos = append(dtos, ToWaveDTO(wave))
	}
	return dtos
}
