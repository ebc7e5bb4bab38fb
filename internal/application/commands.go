package application

import (
	"time"

	"github.com/wms-platform/picking-orchestrator/internal/domain"
)

// CreateWaveCommand plans a wave over the given orders. A caller-chosen
// WaveID makes the create idempotent.
type CreateWaveCommand struct {
	WaveID   string
	OrderIDs []string
	Strategy domain.Strategy
	Zone     string
}

// CancelWaveCommand abandons a wave before work starts
type CancelWaveCommand struct {
	WaveID string
	Reason string
}

// ListWavesQuery filters waves by status; an empty status lists all
type ListWavesQuery struct {
	Status domain.WaveStatus
	Limit  int
}

// StartTaskCommand hands a pending task to a picker
type StartTaskCommand struct {
	TaskID   string
	PickerID string
}

// CompleteTaskCommand records the outcome of a pick. A nil ActualTime is
// derived from the start time.
type CompleteTaskCommand struct {
	TaskID         string
	PickedQuantity int
	ActualTime     *int
	QualityChecks  []domain.QualityCheck
}

// PickerPerformanceQuery asks for a picker's metrics over [From, To)
type PickerPerformanceQuery struct {
	PickerID string
	From     time.Time
	To       time.Time
}
