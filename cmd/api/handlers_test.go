package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/picking-orchestrator/internal/application"
	"github.com/wms-platform/picking-orchestrator/internal/domain"
	"github.com/wms-platform/picking-orchestrator/internal/infrastructure/memory"
	"github.com/wms-platform/picking-orchestrator/internal/infrastructure/zoneconfig"
	"github.com/wms-platform/picking-orchestrator/internal/workflows"
	"github.com/wms-platform/picking-orchestrator/pkg/logging"
	"github.com/wms-platform/picking-orchestrator/pkg/middleware"
)

const testZones = `
zones:
  - zoneId: Z1
    name: Forward
    type: forward
    active: true
    pickers: [P1, P2]
    capacity:
      maxConcurrentPickers: 2
      maxTasksPerHour: 100
`

type stubOrders map[string][]domain.OrderLine

func (s stubOrders) GetOrderLines(_ context.Context, orderID string) ([]domain.OrderLine, error) {
	lines, ok := s[orderID]
	if !ok {
		return nil, errors.New("order " + orderID + " unknown")
	}
	return lines, nil
}

type stubInventory map[string][]domain.Allocation

func (s stubInventory) GetAvailableAllocations(_ context.Context, sku, _ string) ([]domain.Allocation, error) {
	return s[sku], nil
}

type stubLauncher struct {
	LaunchWaveFn func(ctx context.Context, input workflows.WavePickingInput) (string, error)
}

func (s *stubLauncher) LaunchWave(ctx context.Context, input workflows.WavePickingInput) (string, error) {
	return s.LaunchWaveFn(ctx, input)
}

type apiFixture struct {
	router    *gin.Engine
	svc       *services
	orders    stubOrders
	inventory stubInventory
}

func newFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	zones, err := zoneconfig.NewFileSourceFromBytes([]byte(testZones))
	require.NoError(t, err)

	logger := logging.NewNop()
	taskRepo := memory.NewTaskRepository()
	waveRepo := memory.NewWaveRepository()

	f := &apiFixture{
		orders: stubOrders{
			"ORD-1": {{SKU: "SKU-1", Quantity: 2}, {SKU: "SKU-2", Quantity: 1}},
			"ORD-2": {{SKU: "SKU-3", Quantity: 5}},
		},
		inventory: stubInventory{
			"SKU-1": {{Location: "A-01-01-01", AvailableQty: 10, Zone: "Z1"}},
			"SKU-2": {{Location: "A-02-01-01", AvailableQty: 10, Zone: "Z1"}},
			"SKU-3": {{Location: "A-03-01-01", AvailableQty: 2, Zone: "Z1"}},
		},
	}

	factory := application.NewTaskFactory(f.orders, f.inventory, zones, 0, logger)
	productivity := application.NewProductivityAnalyzer(taskRepo, zones.Scoring(), logger)
	waves := application.NewWaveService(waveRepo, taskRepo, zones, factory, productivity, nil, nil, logger)
	f.svc = &services{
		waves:        waves,
		tasks:        application.NewTaskService(taskRepo, waves, nil, nil, logger),
		productivity: productivity,
		zones:        application.NewZoneAnalyzer(zones, taskRepo, logger),
	}
	f.router = newRouter(f.svc, logger, nil, func(context.Context) error { return nil })
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestWaveLifecycleOverHTTP(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/waves", gin.H{"orderIds": []string{"ORD-1"}, "strategy": "single_order", "zone": "Z1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[application.CreateWaveResult](t, w)
	waveID := created.Wave.WaveID
	assert.Equal(t, "planned", created.Wave.Status)
	assert.Equal(t, 2, created.Wave.TotalTasks)
	assert.Empty(t, created.Shortages)

	w = f.do(t, http.MethodPost, "/api/v1/waves/"+waveID+"/release", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	released := decode[application.WaveDTO](t, w)
	assert.Equal(t, "released", released.Status)
	assert.ElementsMatch(t, []string{"P1", "P2"}, released.AssignedPickers)

	w = f.do(t, http.MethodGet, "/api/v1/waves/"+waveID+"/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	listed := decode[struct {
		Tasks []application.PickTaskDTO `json:"tasks"`
		Count int                       `json:"count"`
	}](t, w)
	require.Equal(t, 2, listed.Count)

	for _, task := range listed.Tasks {
		w = f.do(t, http.MethodPost, "/api/v1/tasks/"+task.TaskID+"/start", gin.H{"pickerId": task.Assignee})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = f.do(t, http.MethodPost, "/api/v1/tasks/"+task.TaskID+"/complete", gin.H{
			"pickedQuantity": task.RequiredQuantity,
			"actualTime":     30,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "completed", decode[application.PickTaskDTO](t, w).Status)
	}

	w = f.do(t, http.MethodGet, "/api/v1/waves/"+waveID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	wave := decode[application.WaveDTO](t, w)
	assert.Equal(t, "completed", wave.Status)
	assert.Equal(t, 2, wave.CompletedTasks)
	require.NotNil(t, wave.Productivity)
	assert.Equal(t, 1.0, wave.Productivity.Accuracy)

	w = f.do(t, http.MethodGet, "/api/v1/waves?status=completed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[struct {
		Count int `json:"count"`
	}](t, w).Count)
}

func TestCreateWavePartialReturns200(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/waves", gin.H{"orderIds": []string{"ORD-2"}, "strategy": "batch"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[application.CreateWaveResult](t, w)
	require.Len(t, result.Shortages, 1)
	assert.Equal(t, 5, result.Shortages[0].Requested)
	assert.Equal(t, 2, result.Shortages[0].Allocated)
	assert.Equal(t, 1, result.Wave.TotalTasks)
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		path     string
		body     interface{}
		wantCode int
		wantErr  string
	}{
		{
			name: "unknown strategy", method: http.MethodPost, path: "/api/v1/waves",
			body:     gin.H{"orderIds": []string{"ORD-1"}, "strategy": "fastest"},
			wantCode: http.StatusBadRequest, wantErr: "VALIDATION_ERROR",
		},
		{
			name: "no orders", method: http.MethodPost, path: "/api/v1/waves",
			body:     gin.H{"orderIds": []string{}, "strategy": "batch"},
			wantCode: http.StatusBadRequest, wantErr: "VALIDATION_ERROR",
		},
		{
			name: "unknown wave", method: http.MethodGet, path: "/api/v1/waves/W-missing",
			wantCode: http.StatusNotFound, wantErr: "RESOURCE_NOT_FOUND",
		},
		{
			name: "unknown task", method: http.MethodPost, path: "/api/v1/tasks/T-missing/start",
			body:     gin.H{"pickerId": "P1"},
			wantCode: http.StatusNotFound, wantErr: "RESOURCE_NOT_FOUND",
		},
		{
			name: "missing picker", method: http.MethodPost, path: "/api/v1/tasks/T-1/start",
			body:     gin.H{},
			wantCode: http.StatusBadRequest, wantErr: "VALIDATION_ERROR",
		},
		{
			name: "missing quantity", method: http.MethodPost, path: "/api/v1/tasks/T-1/complete",
			body:     gin.H{"actualTime": 10},
			wantCode: http.StatusBadRequest, wantErr: "VALIDATION_ERROR",
		},
		{
			name: "bad limit", method: http.MethodGet, path: "/api/v1/waves?limit=abc",
			wantCode: http.StatusBadRequest, wantErr: "BAD_REQUEST",
		},
		{
			name: "bad period", method: http.MethodGet, path: "/api/v1/pickers/P1/performance?from=yesterday",
			wantCode: http.StatusBadRequest, wantErr: "BAD_REQUEST",
		},
		{
			name: "inverted period", method: http.MethodGet,
			path:     "/api/v1/pickers/P1/performance?from=2024-05-02T00:00:00Z&to=2024-05-01T00:00:00Z",
			wantCode: http.StatusBadRequest, wantErr: "VALIDATION_ERROR",
		},
		{
			name: "unknown zone", method: http.MethodGet, path: "/api/v1/zones/Z9/performance",
			wantCode: http.StatusNotFound, wantErr: "RESOURCE_NOT_FOUND",
		},
		{
			name: "workflow engine disabled", method: http.MethodPost, path: "/api/v1/waves/workflow",
			body:     gin.H{"orderIds": []string{"ORD-1"}, "strategy": "batch"},
			wantCode: http.StatusServiceUnavailable, wantErr: "SERVICE_UNAVAILABLE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			w := f.do(t, tt.method, tt.path, tt.body)

			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.Equal(t, tt.wantErr, decode[middleware.APIErrorResponse](t, w).Code)
		})
	}
}

func TestTaskStateErrors(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/waves", gin.H{"orderIds": []string{"ORD-1"}, "strategy": "single_order", "zone": "Z1"})
	require.Equal(t, http.StatusCreated, w.Code)
	taskID := decode[application.CreateWaveResult](t, w).Wave.TaskIDs[0]

	w = f.do(t, http.MethodPost, "/api/v1/tasks/"+taskID+"/complete", gin.H{"pickedQuantity": 1})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Equal(t, "INVALID_STATE", decode[middleware.APIErrorResponse](t, w).Code)

	w = f.do(t, http.MethodPost, "/api/v1/tasks/"+taskID+"/start", gin.H{"pickerId": "P1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/v1/tasks/"+taskID+"/complete", gin.H{"pickedQuantity": 99})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Equal(t, "INVALID_QUANTITY", decode[middleware.APIErrorResponse](t, w).Code)

	w = f.do(t, http.MethodGet, "/api/v1/pickers/P1/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[struct {
		Count int `json:"count"`
	}](t, w).Count)
}

func TestCancelWave(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/waves", gin.H{"orderIds": []string{"ORD-1"}, "strategy": "zone"})
	require.Equal(t, http.StatusCreated, w.Code)
	waveID := decode[application.CreateWaveResult](t, w).Wave.WaveID

	w = f.do(t, http.MethodPost, "/api/v1/waves/"+waveID+"/cancel", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/waves/"+waveID+"/cancel", gin.H{"reason": "carrier missed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	wave := decode[application.WaveDTO](t, w)
	assert.Equal(t, "cancelled", wave.Status)
	assert.Equal(t, "carrier missed", wave.CancelReason)

	w = f.do(t, http.MethodPost, "/api/v1/waves/"+waveID+"/release", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLaunchWaveWorkflow(t *testing.T) {
	f := newFixture(t)
	var got workflows.WavePickingInput
	f.svc.launcher = &stubLauncher{
		LaunchWaveFn: func(_ context.Context, input workflows.WavePickingInput) (string, error) {
			got = input
			return "run-1", nil
		},
	}

	w := f.do(t, http.MethodPost, "/api/v1/waves/workflow", gin.H{"orderIds": []string{"ORD-1", "ORD-2"}, "strategy": "cluster", "zone": "Z1"})

	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	body := decode[map[string]string](t, w)
	assert.Equal(t, got.WaveID, body["waveId"])
	assert.Equal(t, workflows.WorkflowID(got.WaveID), body["workflowId"])
	assert.Equal(t, "run-1", body["runId"])
	assert.Equal(t, []string{"ORD-1", "ORD-2"}, got.OrderIDs)
	assert.Equal(t, "cluster", got.Strategy)
}

func TestPerformanceEndpoints(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/pickers/P1/performance", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	perf := decode[domain.PickerPerformance](t, w)
	assert.Equal(t, "P1", perf.PickerID)
	assert.Equal(t, 0, perf.TotalPicks)

	w = f.do(t, http.MethodGet, "/api/v1/zones/Z1/performance", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Z1", decode[domain.ZonePerformance](t, w).ZoneID)

	w = f.do(t, http.MethodGet, "/api/v1/zones/performance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[struct {
		Count int `json:"count"`
	}](t, w).Count)
}

func TestHealthEndpoints(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/ready", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/nope", nil).Code)
}
