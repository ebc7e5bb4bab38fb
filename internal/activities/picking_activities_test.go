package activities

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wms-platform/picking-orchestrator/internal/application"
	"github.com/wms-platform/picking-orchestrator/internal/domain"
	"github.com/wms-platform/picking-orchestrator/pkg/logging"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"
)

type stubWaves struct {
	CreateWaveFn     func(ctx context.Context, cmd application.CreateWaveCommand) (*application.CreateWaveResult, error)
	ReleaseWaveFn    func(ctx context.Context, waveID string) (*application.WaveDTO, error)
	RecordProgressFn func(ctx context.Context, waveID string) (*application.WaveDTO, error)
	CancelWaveFn     func(ctx context.Context, cmd application.CancelWaveCommand) (*application.WaveDTO, error)
}

func (s *stubWaves) CreateWave(ctx context.Context, cmd application.CreateWaveCommand) (*application.CreateWaveResult, error) {
	return s.CreateWaveFn(ctx, cmd)
}

func (s *stubWaves) ReleaseWave(ctx context.Context, waveID string) (*application.WaveDTO, error) {
	return s.ReleaseWaveFn(ctx, waveID)
}

func (s *stubWaves) RecordProgress(ctx context.Context, waveID string) (*application.WaveDTO, error) {
	return s.RecordProgressFn(ctx, waveID)
}

func (s *stubWaves) CancelWave(ctx context.Context, cmd application.CancelWaveCommand) (*application.WaveDTO, error) {
	return s.CancelWaveFn(ctx, cmd)
}

func newEnv(waves WaveOperations) (*testsuite.TestActivityEnvironment, *PickingActivities) {
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestActivityEnvironment()
	acts := NewPickingActivities(waves, nil, logging.NewNop())
	env.RegisterActivity(acts)
	return env, acts
}

func TestCreateWave(t *testing.T) {
	var got application.CreateWaveCommand
	waves := &stubWaves{
		CreateWaveFn: func(_ context.Context, cmd application.CreateWaveCommand) (*application.CreateWaveResult, error) {
			got = cmd
			return &application.CreateWaveResult{
				Wave:      &application.WaveDTO{WaveID: cmd.WaveID, WaveNumber: "WV-1A2B3C4D", TotalTasks: 4},
				Shortages: []domain.Shortage{{OrderID: "ORD-2", SKU: "SKU-9", Requested: 3, Allocated: 1}},
			}, nil
		},
	}
	env, acts := newEnv(waves)

	val, err := env.ExecuteActivity(acts.CreateWave, CreateWaveInput{
		WaveID:   "W-1",
		OrderIDs: []string{"ORD-1", "ORD-2"},
		Strategy: "batch",
		Zone:     "Z1",
	})
	require.NoError(t, err)

	var out CreateWaveOutput
	require.NoError(t, val.Get(&out))
	assert.Equal(t, CreateWaveOutput{WaveID: "W-1", WaveNumber: "WV-1A2B3C4D", TotalTasks: 4, ShortLines: 1}, out)
	assert.Equal(t, domain.StrategyBatch, got.Strategy)
	assert.Equal(t, "Z1", got.Zone)
	assert.Equal(t, []string{"ORD-1", "ORD-2"}, got.OrderIDs)
}

func TestActivityErrorsAreClassified(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		nonRetryable bool
		errType      string
	}{
		{name: "not found", err: fmt.Errorf("%w: wave W-1", domain.ErrNotFound), nonRetryable: true, errType: "RESOURCE_NOT_FOUND"},
		{name: "invalid state", err: fmt.Errorf("%w: wave is completed", domain.ErrInvalidState), nonRetryable: true, errType: "INVALID_STATE"},
		{name: "infrastructure", err: errors.New("connection reset"), nonRetryable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			converted := activityError(tt.err)

			var appErr *temporal.ApplicationError
			if !tt.nonRetryable {
				assert.False(t, errors.As(converted, &appErr))
				assert.Equal(t, tt.err, converted)
				return
			}
			require.True(t, errors.As(converted, &appErr))
			assert.True(t, appErr.NonRetryable())
			assert.Equal(t, tt.errType, appErr.Type())
		})
	}
}

func TestReleaseWaveNotFound(t *testing.T) {
	waves := &stubWaves{
		ReleaseWaveFn: func(context.Context, string) (*application.WaveDTO, error) {
			return nil, fmt.Errorf("%w: wave W-404", domain.ErrNotFound)
		},
	}
	env, acts := newEnv(waves)

	_, err := env.ExecuteActivity(acts.ReleaseWave, "W-404")
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.True(t, appErr.NonRetryable())
}

func TestRefreshWave(t *testing.T) {
	waves := &stubWaves{
		RecordProgressFn: func(_ context.Context, waveID string) (*application.WaveDTO, error) {
			return &application.WaveDTO{WaveID: waveID, Status: "completed", TotalTasks: 2, CompletedTasks: 2, PickedQuantity: 5}, nil
		},
	}
	env, acts := newEnv(waves)

	val, err := env.ExecuteActivity(acts.RefreshWave, "W-1")
	require.NoError(t, err)

	var status WaveStatus
	require.NoError(t, val.Get(&status))
	assert.True(t, status.Closed())
	assert.Equal(t, 2, status.CompletedTasks)
	assert.Equal(t, 5, status.PickedQuantity)
}

func TestCancelWave(t *testing.T) {
	var got application.CancelWaveCommand
	waves := &stubWaves{
		CancelWaveFn: func(_ context.Context, cmd application.CancelWaveCommand) (*application.WaveDTO, error) {
			got = cmd
			return &application.WaveDTO{WaveID: cmd.WaveID, Status: "cancelled"}, nil
		},
	}
	env, acts := newEnv(waves)

	_, err := env.ExecuteActivity(acts.CancelWave, CancelWaveInput{WaveID: "W-1", Reason: "timed out"})
	require.NoError(t, err)
	assert.Equal(t, application.CancelWaveCommand{WaveID: "W-1", Reason: "timed out"}, got)
}

func TestWaveStatusClosed(t *testing.T) {
	assert.False(t, (&WaveStatus{Status: "released"}).Closed())
	assert.False(t, (&WaveStatus{Status: "in_progress"}).Closed())
	assert.True(t, (&WaveStatus{Status: "cancelled"}).Closed())
}
