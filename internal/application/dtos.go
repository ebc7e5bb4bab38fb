package application

import (
	"time"

	"github.com/wms-platform/picking-orchestrator/internal/domain"
)

// PickTaskDTO represents a pick task in responses
type PickTaskDTO struct {
	TaskID           string                 `json:"taskId"`
	OrderID          string                 `json:"orderId"`
	WaveID           string                 `json:"waveId,omitempty"`
	SKU              string                 `json:"sku"`
	Location         string                 `json:"location"`
	Lot              string                 `json:"lot,omitempty"`
	Serial           string                 `json:"serial,omitempty"`
	RequiredQuantity int                    `json:"requiredQuantity"`
	PickedQuantity   int                    `json:"pickedQuantity"`
	Status           string                 `json:"status"`
	Assignee         string                 `json:"assignee,omitempty"`
	Priority         int                    `json:"priority"`
	Zone             string                 `json:"zone"`
	Sequence         int                    `json:"sequence"`
	EstimatedTime    int                    `json:"estimatedTime"`
	ActualTime       *int                   `json:"actualTime,omitempty"`
	QualityChecks    []domain.QualityCheck  `json:"qualityChecks,omitempty"`
	OrderBreakdown   []domain.OrderQuantity `json:"orderBreakdown,omitempty"`
	CreatedAt        time.Time              `json:"createdAt"`
	StartedAt        *time.Time             `json:"startedAt,omitempty"`
	CompletedAt      *time.Time             `json:"completedAt,omitempty"`
}

// WaveDTO represents a picking wave in responses
type WaveDTO struct {
	WaveID            string                   `json:"waveId"`
	WaveNumber        string                   `json:"waveNumber"`
	Status            string                   `json:"status"`
	Strategy          string                   `json:"strategy"`
	Priority          int                      `json:"priority"`
	Zone              string                   `json:"zone"`
	OrderIDs          []string                 `json:"orderIds"`
	TaskIDs           []string                 `json:"taskIds"`
	TotalTasks        int                      `json:"totalTasks"`
	CompletedTasks    int                      `json:"completedTasks"`
	TotalQuantity     int                      `json:"totalQuantity"`
	PickedQuantity    int                      `json:"pickedQuantity"`
	AssignedPickers   []string                 `json:"assignedPickers"`
	EstimatedDuration int                      `json:"estimatedDuration"`
	ActualDuration    int                      `json:"actualDuration"`
	CancelReason      string                   `json:"cancelReason,omitempty"`
	Productivity      *domain.WaveProductivity `json:"productivity,omitempty"`
	CreatedAt         time.Time                `json:"createdAt"`
	ReleasedAt        *time.Time               `json:"releasedAt,omitempty"`
	CompletedAt       *time.Time               `json:"completedAt,omitempty"`
	CancelledAt       *time.Time               `json:"cancelledAt,omitempty"`
}

// CreateWaveResult is a planned wave plus any lines inventory could not cover
type CreateWaveResult struct {
	Wave      *WaveDTO          `json:"wave"`
	Shortages []domain.Shortage `json:"shortages,omitempty"`
}

// Partial reports whether some order lines were left uncovered
func (r *CreateWaveResult) Partial() bool {
	return len(r.Shortages) > 0
}
