package workflows

import (
	"fmt"
	"time"

	"github.com/wms-platform/picking-orchestrator/internal/activities"
	pkgtemporal "github.com/wms-platform/picking-orchestrator/pkg/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	// WaveCompletedSignal tells a running workflow its wave has closed
	WaveCompletedSignal = "waveCompleted"
	// StatusQuery returns the workflow's WaveProgress
	StatusQuery = "getStatus"

	DefaultPollInterval time.Duration = time.Minute
	DefaultWaveTimeout  time.Duration = 4 * time.Hour
)

// WorkflowID returns the workflow id used for a wave
func WorkflowID(waveID string) string {
	return "wave-picking-" + waveID
}

// WavePickingInput represents input for the wave picking workflow
type WavePickingInput struct {
	WaveID       string        `json:"waveId"`
	OrderIDs     []string      `json:"orderIds"`
	Strategy     string        `json:"strategy"`
	Zone         string        `json:"zone,omitempty"`
	PollInterval time.Duration `json:"pollInterval,omitempty"`
	Timeout      time.Duration `json:"timeout,omitempty"`
}

// WavePickingResult is returned when the wave closes
type WavePickingResult struct {
	WaveID         string `json:"waveId"`
	WaveNumber     string `json:"waveNumber"`
	Status         string `json:"status"`
	TotalTasks     int    `json:"totalTasks"`
	CompletedTasks int    `json:"completedTasks"`
	PickedQuantity int    `json:"pickedQuantity"`
	ShortLines     int    `json:"shortLines"`
	ActualDuration int    `json:"actualDuration"`
}

// WaveCompletedSignalPayload is the body of the waveCompleted signal
type WaveCompletedSignalPayload struct {
	WaveID string `json:"waveId"`
}

// WaveProgress is exposed through the getStatus query
type WaveProgress struct {
	WaveID         string `json:"waveId"`
	Stage          string `json:"stage"`
	Status         string `json:"status"`
	CompletedTasks int    `json:"completedTasks"`
	TotalTasks     int    `json:"totalTasks"`
}

// WavePickingWorkflow plans a wave, releases it and waits until it closes.
// Completion is noticed either through the waveCompleted signal or by
// polling the wave's progress.
func WavePickingWorkflow(ctx workflow.Context, input WavePickingInput) (*WavePickingResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting wave picking workflow", "waveId", input.WaveID, "orders", len(input.OrderIDs))

	pollInterval := input.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	timeout := input.Timeout
	if timeout <= 0 {
		timeout = DefaultWaveTimeout
	}

	ctx = workflow.WithActivityOptions(ctx, pkgtemporal.DefaultActivityOptions())

	progress := WaveProgress{WaveID: input.WaveID, Stage: "planning"}
	if err := workflow.SetQueryHandler(ctx, StatusQuery, func() (WaveProgress, error) {
		return progress, nil
	}); err != nil {
		return nil, fmt.Errorf("failed to register status query: %w", err)
	}

	// Step 1: plan the wave
	var created activities.CreateWaveOutput
	err := workflow.ExecuteActivity(ctx, "CreateWave", activities.CreateWaveInput{
		WaveID:   input.WaveID,
		OrderIDs: input.OrderIDs,
		Strategy: input.Strategy,
		Zone:     input.Zone,
	}).Get(ctx, &created)
	if err != nil {
		return nil, fmt.Errorf("failed to create wave: %w", err)
	}

	result := &WavePickingResult{
		WaveID:     created.WaveID,
		WaveNumber: created.WaveNumber,
		TotalTasks: created.TotalTasks,
		ShortLines: created.ShortLines,
	}
	progress.TotalTasks = created.TotalTasks
	progress.Status = "planned"
	if created.ShortLines > 0 {
		logger.Warn("Wave planned with shortages", "waveId", created.WaveID, "shortLines", created.ShortLines)
	}

	// Step 2: release it to the zone's pickers
	progress.Stage = "releasing"
	var status activities.WaveStatus
	if err := workflow.ExecuteActivity(ctx, "ReleaseWave", created.WaveID).Get(ctx, &status); err != nil {
		return result, fmt.Errorf("failed to release wave: %w", err)
	}
	progress.Stage = "picking"
	progress.Status = status.Status

	// Step 3: wait for completion
	signalCh := workflow.GetSignalChannel(ctx, WaveCompletedSignal)
	deadline := workflow.Now(ctx).Add(timeout)

	for !status.Closed() {
		if !workflow.Now(ctx).Before(deadline) {
			logger.Warn("Wave did not complete in time", "waveId", created.WaveID, "timeout", timeout)
			progress.Stage = "timed_out"
			fill(result, &status)
			return result, fmt.Errorf("wave %s did not complete within %s", created.WaveID, timeout)
		}

		timerCtx, cancelTimer := workflow.WithCancel(ctx)
		selector := workflow.NewSelector(ctx)
		selector.AddReceive(signalCh, func(c workflow.ReceiveChannel, more bool) {
			var payload WaveCompletedSignalPayload
			c.Receive(ctx, &payload)
			logger.Info("Received wave completed signal", "waveId", payload.WaveID)
		})
		selector.AddFuture(workflow.NewTimer(timerCtx, pollInterval), func(workflow.Future) {})
		selector.Select(ctx)
		cancelTimer()

		if err := workflow.ExecuteActivity(ctx, "RefreshWave", created.WaveID).Get(ctx, &status); err != nil {
			return result, fmt.Errorf("failed to refresh wave: %w", err)
		}
		progress.Status = status.Status
		progress.CompletedTasks = status.CompletedTasks
	}

	progress.Stage = "closed"
	fill(result, &status)

	logger.Info("Wave picking workflow finished",
		"waveId", result.WaveID,
		"status", result.Status,
		"completedTasks", result.CompletedTasks,
	)
	return result, nil
}

func fill(result *WavePickingResult, status *activities.WaveStatus) {
	result.Status = status.Status
	result.CompletedTasks = status.CompletedTasks
	result.PickedQuantity = status.PickedQuantity
	result.ActualDuration = status.ActualDuration
}
