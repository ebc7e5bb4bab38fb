package activities

import (
	"context"
	"net/http"
	"time"

	"github.com/wms-platform/picking-orchestrator/internal/application"
	"github.com/wms-platform/picking-orchestrator/internal/domain"
	"github.com/wms-platform/picking-orchestrator/pkg/logging"
	"github.com/wms-platform/picking-orchestrator/pkg/metrics"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
)

// WaveOperations is the slice of the wave service the activities drive
type WaveOperations interface {
	CreateWave(ctx context.Context, cmd application.CreateWaveCommand) (*application.CreateWaveResult, error)
	ReleaseWave(ctx context.Context, waveID string) (*application.WaveDTO, error)
	RecordProgress(ctx context.Context, waveID string) (*application.WaveDTO, error)
	CancelWave(ctx context.Context, cmd application.CancelWaveCommand) (*application.WaveDTO, error)
}

// CreateWaveInput is the input of the CreateWave activity
type CreateWaveInput struct {
	WaveID   string   `json:"waveId"`
	OrderIDs []string `json:"orderIds"`
	Strategy string   `json:"strategy"`
	Zone     string   `json:"zone,omitempty"`
}

// CreateWaveOutput summarizes the planned wave
type CreateWaveOutput struct {
	WaveID     string `json:"waveId"`
	WaveNumber string `json:"waveNumber"`
	TotalTasks int    `json:"totalTasks"`
	ShortLines int    `json:"shortLines"`
}

// WaveStatus is the progress snapshot returned while a wave is being picked
type WaveStatus struct {
	WaveID          string   `json:"waveId"`
	Status          string   `json:"status"`
	TotalTasks      int      `json:"totalTasks"`
	CompletedTasks  int      `json:"completedTasks"`
	PickedQuantity  int      `json:"pickedQuantity"`
	AssignedPickers []string `json:"assignedPickers"`
	ActualDuration  int      `json:"actualDuration"`
}

// Closed reports whether the wave reached a terminal status
func (s *WaveStatus) Closed() bool {
	return s.Status == string(domain.WaveStatusCompleted) || s.Status == string(domain.WaveStatusCancelled)
}

// CancelWaveInput is the input of the CancelWave activity
type CancelWaveInput struct {
	WaveID string `json:"waveId"`
	Reason string `json:"reason"`
}

// PickingActivities exposes wave operations to Temporal workflows
type PickingActivities struct {
	waves   WaveOperations
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// NewPickingActivities creates the activity set. m may be nil.
func NewPickingActivities(waves WaveOperations, m *metrics.Metrics, logger *logging.Logger) *PickingActivities {
	return &PickingActivities{
		waves:   waves,
		metrics: m,
		logger:  logger.WithComponent("picking-activities"),
	}
}

// CreateWave plans the wave. Replays with the same wave id return the stored wave.
func (a *PickingActivities) CreateWave(ctx context.Context, input CreateWaveInput) (*CreateWaveOutput, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Creating wave", "waveId", input.WaveID, "orders", len(input.OrderIDs))

	start := time.Now()
	result, err := a.waves.CreateWave(ctx, application.CreateWaveCommand{
		WaveID:   input.WaveID,
		OrderIDs: input.OrderIDs,
		Strategy: domain.Strategy(input.Strategy),
		Zone:     input.Zone,
	})
	a.record(ctx, "CreateWave", err, start)
	if err != nil {
		logger.Error("Failed to create wave", "waveId", input.WaveID, "error", err)
		return nil, activityError(err)
	}

	return &CreateWaveOutput{
		WaveID:     result.Wave.WaveID,
		WaveNumber: result.Wave.WaveNumber,
		TotalTasks: result.Wave.TotalTasks,
		ShortLines: len(result.Shortages),
	}, nil
}

// ReleaseWave assigns pickers and hands out the wave's tasks
func (a *PickingActivities) ReleaseWave(ctx context.Context, waveID string) (*WaveStatus, error) {
	start := time.Now()
	wave, err := a.waves.ReleaseWave(ctx, waveID)
	a.record(ctx, "ReleaseWave", err, start)
	if err != nil {
		activity.GetLogger(ctx).Error("Failed to release wave", "waveId", waveID, "error", err)
		return nil, activityError(err)
	}
	return toWaveStatus(wave), nil
}

// RefreshWave recomputes the wave's progress and returns it
func (a *PickingActivities) RefreshWave(ctx context.Context, waveID string) (*WaveStatus, error) {
	start := time.Now()
	wave, err := a.waves.RecordProgress(ctx, waveID)
	a.record(ctx, "RefreshWave", err, start)
	if err != nil {
		return nil, activityError(err)
	}
	return toWaveStatus(wave), nil
}

// CancelWave abandons a wave that never started
func (a *PickingActivities) CancelWave(ctx context.Context, input CancelWaveInput) error {
	start := time.Now()
	_, err := a.waves.CancelWave(ctx, application.CancelWaveCommand{WaveID: input.WaveID, Reason: input.Reason})
	a.record(ctx, "CancelWave", err, start)
	if err != nil {
		activity.GetLogger(ctx).Error("Failed to cancel wave", "waveId", input.WaveID, "error", err)
		return activityError(err)
	}
	return nil
}

func (a *PickingActivities) record(ctx context.Context, activityType string, err error, start time.Time) {
	duration := time.Since(start)
	a.logger.ActivityComplete(ctx, activityType, duration, err == nil)
	if a.metrics != nil {
		a.metrics.RecordActivityCompleted(activityType, err == nil, duration)
	}
}

func toWaveStatus(wave *application.WaveDTO) *WaveStatus {
	return &WaveStatus{
		WaveID:          wave.WaveID,
		Status:          wave.Status,
		TotalTasks:      wave.TotalTasks,
		CompletedTasks:  wave.CompletedTasks,
		PickedQuantity:  wave.PickedQuantity,
		AssignedPickers: wave.AssignedPickers,
		ActualDuration:  wave.ActualDuration,
	}
}

// activityError marks client-side failures non-retryable so Temporal does not
// replay a request that can never succeed.
func activityError(err error) error {
	appErr := application.MapDomainError(err)
	if appErr.HTTPStatus >= http.StatusBadRequest && appErr.HTTPStatus < http.StatusInternalServerError {
		return temporal.NewNonRetryableApplicationError(appErr.Message, appErr.Code, err)
	}
	return err
}
