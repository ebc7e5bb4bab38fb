package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wms-platform/picking-orchestrator/internal/domain"
	"github.com/wms-platform/picking-orchestrator/internal/infrastructure/memory"
	"github.com/wms-platform/picking-orchestrator/pkg/logging"
)

type stubOrders struct {
	lines map[string][]domain.OrderLine
	getFn func(context.Context, string) ([]domain.OrderLine, error)
}

func (s *stubOrders) GetOrderLines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	if s.getFn != nil {
		return s.getFn(ctx, orderID)
	}
	return s.lines[orderID], nil
}

type stubInventory struct {
	allocations map[string][]domain.Allocation
	getFn       func(context.Context, string, string) ([]domain.Allocation, error)
}

func (s *stubInventory) GetAvailableAllocations(ctx context.Context, sku, zone string) ([]domain.Allocation, error) {
	if s.getFn != nil {
		return s.getFn(ctx, sku, zone)
	}
	return s.allocations[sku], nil
}

type stubZones struct {
	zones  map[string]*domain.ZoneConfiguration
	listFn func(context.Context) ([]*domain.ZoneConfiguration, error)
}

func (s *stubZones) GetZone(_ context.Context, zoneID string) (*domain.ZoneConfiguration, error) {
	return s.zones[zoneID], nil
}

func (s *stubZones) ListZones(ctx context.Context) ([]*domain.ZoneConfiguration, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	out := make([]*domain.ZoneConfiguration, 0, len(s.zones))
	for _, zone := range s.zones {
		out = append(out, zone)
	}
	return out, nil
}

// faultyWaves fails Save while saveFn returns an error.
type faultyWaves struct {
	domain.PickingWaveRepository
	saveFn func(*domain.PickingWave) error
}

func (r *faultyWaves) Save(ctx context.Context, wave *domain.PickingWave) error {
	if r.saveFn != nil {
		if err := r.saveFn(wave); err != nil {
			return err
		}
	}
	return r.PickingWaveRepository.Save(ctx, wave)
}

// faultyTasks fails Save or SaveAll while the matching hook returns an error.
// A failing SaveAll writes its first task before failing.
type faultyTasks struct {
	domain.PickTaskRepository
	saveFn    func(*domain.PickTask) error
	saveAllFn func([]*domain.PickTask) error
}

func (r *faultyTasks) Save(ctx context.Context, task *domain.PickTask) error {
	if r.saveFn != nil {
		if err := r.saveFn(task); err != nil {
			return err
		}
	}
	return r.PickTaskRepository.Save(ctx, task)
}

func (r *faultyTasks) SaveAll(ctx context.Context, tasks []*domain.PickTask) error {
	if r.saveAllFn != nil {
		if err := r.saveAllFn(tasks); err != nil {
			if len(tasks) > 0 {
				_ = r.PickTaskRepository.Save(ctx, tasks[0])
			}
			return err
		}
	}
	return r.PickTaskRepository.SaveAll(ctx, tasks)
}

type recordingNotifier struct {
	mu        sync.Mutex
	events    []domain.DomainEvent
	publishFn func(context.Context, domain.DomainEvent) error
}

func (n *recordingNotifier) Publish(ctx context.Context, event domain.DomainEvent) error {
	n.mu.Lock()
	n.events = append(n.events, event)
	n.mu.Unlock()
	if n.publishFn != nil {
		return n.publishFn(ctx, event)
	}
	return nil
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.EventType())
	}
	return out
}

type recordingMetrics struct {
	mu             sync.Mutex
	wavesCreated   int
	wavesCompleted int
	tasksCompleted map[string]int
}

func (m *recordingMetrics) RecordWaveCreated(string, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wavesCreated++
}

func (m *recordingMetrics) RecordWaveCompleted(string, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wavesCompleted++
}

func (m *recordingMetrics) RecordTaskCompleted(_ string, status string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tasksCompleted == nil {
		m.tasksCompleted = map[string]int{}
	}
	m.tasksCompleted[status]++
}

func (m *recordingMetrics) RecordTasksCreated(string, int) {}

func intPtr(v int) *int { return &v }

func testLogger() *logging.Logger {
	return logging.NewNop()
}

func testZone(id string, maxPickers int, pickers ...string) *domain.ZoneConfiguration {
	return &domain.ZoneConfiguration{
		ZoneID:   id,
		Name:     "Zone " + id,
		Type:     domain.ZoneTypeForward,
		Pickers:  pickers,
		Capacity: domain.ZoneCapacity{MaxConcurrentPickers: maxPickers, MaxTasksPerHour: 100},
		Active:   true,
	}
}

type harness struct {
	waveRepo  *memory.WaveRepository
	taskRepo  *memory.TaskRepository
	waveFault *faultyWaves
	taskFault *faultyTasks
	orders    *stubOrders
	inventory *stubInventory
	zones     *stubZones
	notifier  *recordingNotifier
	metrics   *recordingMetrics
	waves     *WaveService
	tasks     *TaskService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		waveRepo:  memory.NewWaveRepository(),
		taskRepo:  memory.NewTaskRepository(),
		orders:    &stubOrders{lines: map[string][]domain.OrderLine{}},
		inventory: &stubInventory{allocations: map[string][]domain.Allocation{}},
		zones:     &stubZones{zones: map[string]*domain.ZoneConfiguration{}},
		notifier:  &recordingNotifier{},
		metrics:   &recordingMetrics{},
	}

	h.waveFault = &faultyWaves{PickingWaveRepository: h.waveRepo}
	h.taskFault = &faultyTasks{PickTaskRepository: h.taskRepo}

	logger := testLogger()
	factory := NewTaskFactory(h.orders, h.inventory, h.zones, 0, logger)
	analyzer := NewProductivityAnalyzer(h.taskRepo, domain.DefaultScoringPolicy(), logger)
	h.waves = NewWaveService(h.waveFault, h.taskFault, h.zones, factory, analyzer, h.notifier, h.metrics, logger)
	h.tasks = NewTaskService(h.taskFault, h.waves, h.notifier, h.metrics, logger)
	return h
}

// createWave plans a wave and fails the test on any error other than a shortage.
func (h *harness) createWave(t *testing.T, strategy domain.Strategy, zone string, orderIDs ...string) *CreateWaveResult {
	t.Helper()
	result, err := h.waves.CreateWave(context.Background(), CreateWaveCommand{
		OrderIDs: orderIDs,
		Strategy: strategy,
		Zone:     zone,
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func newTask(t *testing.T, id, orderID, sku, location string, qty, priority int) *domain.PickTask {
	t.Helper()
	task, err := domain.NewPickTask(domain.TaskSpec{
		TaskID:        id,
		OrderID:       orderID,
		SKU:           sku,
		Location:      location,
		Quantity:      qty,
		Priority:      priority,
		EstimatedTime: qty * DefaultSecondsPerUnit,
	})
	require.NoError(t, err)
	return task
}

func taskIDs(tasks []*domain.PickTask) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.TaskID)
	}
	return out
}
