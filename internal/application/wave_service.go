package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wms-platform/picking-orchestrator/internal/domain"
	pkgerrors "github.com/wms-platform/picking-orchestrator/pkg/errors"
	"github.com/wms-platform/picking-orchestrator/pkg/logging"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// WaveService handles wave lifecycle use cases
type WaveService struct {
	waveRepo  domain.PickingWaveRepository
	taskRepo  domain.PickTaskRepository
	zones     domain.ZoneConfigSource
	factory   *TaskFactory
	analyzer  *ProductivityAnalyzer
	notifier  domain.Notifier
	metrics   domain.MetricsSink
	locks     *KeyedMutex
	newWaveID func() string
	logger    *logging.Logger
}

// NewWaveService creates a new WaveService. notifier and metrics may be nil.
func NewWaveService(
	waveRepo domain.PickingWaveRepository,
	taskRepo domain.PickTaskRepository,
	zones domain.ZoneConfigSource,
	factory *TaskFactory,
	analyzer *ProductivityAnalyzer,
	notifier domain.Notifier,
	metrics domain.MetricsSink,
	logger *logging.Logger,
) *WaveService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &WaveService{
		waveRepo:  waveRepo,
		taskRepo:  taskRepo,
		zones:     zones,
		factory:   factory,
		analyzer:  analyzer,
		notifier:  notifier,
		metrics:   metrics,
		locks:     NewKeyedMutex(),
		newWaveID: func() string { return uuid.New().String() },
		logger:    logger.WithComponent("wave-service"),
	}
}

func newWaveNumber() string {
	return "WV-" + strings.ToUpper(uuid.New().String()[:8])
}

// CreateWave expands the orders into tasks, groups and sequences them and
// persists a planned wave. When inventory cannot cover every line the wave
// is still created from the tasks that could be allocated and the result
// carries the shortages.
func (s *WaveService) CreateWave(ctx context.Context, cmd CreateWaveCommand) (*CreateWaveResult, error) {
	if len(cmd.OrderIDs) == 0 {
		return nil, pkgerrors.ErrValidation("at least one order id is required")
	}
	if !cmd.Strategy.IsValid() {
		return nil, pkgerrors.ErrValidation(fmt.Sprintf("unknown picking strategy %q", cmd.Strategy))
	}

	waveID := cmd.WaveID
	if waveID == "" {
		waveID = s.newWaveID()
	} else {
		unlock := s.locks.Lock(waveKey(waveID))
		defer unlock()

		existing, err := s.waveRepo.FindByID(ctx, waveID)
		if err != nil {
			return nil, fmt.Errorf("failed to find wave: %w", err)
		}
		if existing != nil {
			s.logger.Info("Wave already exists", "waveId", waveID)
			return &CreateWaveResult{Wave: ToWaveDTO(existing), Shortages: existing.Shortages}, nil
		}
	}

	start := time.Now()
	raw, err := s.factory.CreateTasks(ctx, cmd.OrderIDs, cmd.Zone)
	var shortages []domain.Shortage
	if err != nil {
		exhausted, ok := domain.AsAllocationExhausted(err)
		if !ok {
			s.logger.WithError(err).Error("Failed to create pick tasks", "orderIds", cmd.OrderIDs)
			return nil, fmt.Errorf("failed to create pick tasks: %w", err)
		}
		shortages = exhausted.Shortages
	}

	tasks := Group(raw, cmd.Strategy)

	for i, task := range tasks {
		task.AttachToWave(waveID, i+1)
	}

	zone := cmd.Zone
	if zone == "" {
		zone = domain.MajorityZone(tasks)
	}
	if zone == "" {
		zone = domain.DefaultZone
	}

	wave, err := domain.NewPickingWave(domain.WaveSpec{
		WaveID:            waveID,
		WaveNumber:        newWaveNumber(),
		Strategy:          cmd.Strategy,
		Priority:          domain.MeanPriority(tasks),
		Zone:              zone,
		OrderIDs:          cmd.OrderIDs,
		EstimatedDuration: domain.EstimateDurationMinutes(tasks, Multiplier(cmd.Strategy)),
		Shortages:         shortages,
	}, tasks)
	if err != nil {
		return nil, fmt.Errorf("failed to create wave: %w", err)
	}

	if err := s.taskRepo.SaveAll(ctx, tasks); err != nil {
		s.logger.WithError(err).Error("Failed to save pick tasks", "waveId", waveID)
		s.discardTasks(ctx, waveID)
		return nil, fmt.Errorf("failed to save pick tasks: %w", err)
	}
	if err := s.waveRepo.Save(ctx, wave); err != nil {
		s.logger.WithError(err).Error("Failed to save wave", "waveId", waveID)
		s.discardTasks(ctx, waveID)
		return nil, fmt.Errorf("failed to save wave: %w", err)
	}

	s.metrics.RecordWaveCreated(string(wave.Strategy), wave.TotalTasks)
	s.metrics.RecordTasksCreated(wave.Zone, wave.TotalTasks)
	publishEvents(ctx, s.notifier, s.logger, wave)

	s.logger.Event(ctx, domain.EventTypeWaveCreated, map[string]any{
		"waveId":     wave.WaveID,
		"waveNumber": wave.WaveNumber,
		"strategy":   wave.Strategy,
		"tasks":      wave.TotalTasks,
		"shortLines": len(shortages),
	})
	s.logger.Performance(ctx, "create_wave", time.Since(start), true, map[string]any{"orders": len(cmd.OrderIDs)})

	return &CreateWaveResult{Wave: ToWaveDTO(wave), Shortages: shortages}, nil
}

// ReleaseWave assigns pickers from the wave's zone and hands out its tasks
func (s *WaveService) ReleaseWave(ctx context.Context, waveID string) (*WaveDTO, error) {
	unlock := s.locks.Lock(waveKey(waveID))
	defer unlock()

	wave, err := s.loadWave(ctx, waveID)
	if err != nil {
		return nil, err
	}
	if wave.Status != domain.WaveStatusPlanned {
		return nil, fmt.Errorf("%w: wave %s is %s, expected %s", domain.ErrInvalidState, waveID, wave.Status, domain.WaveStatusPlanned)
	}

	zone, err := s.zones.GetZone(ctx, wave.Zone)
	if err != nil {
		return nil, fmt.Errorf("failed to get zone %s: %w", wave.Zone, err)
	}
	if zone == nil {
		return nil, notFound("zone", wave.Zone)
	}

	keys := make([]string, 0, len(wave.TaskIDs))
	for _, id := range wave.TaskIDs {
		keys = append(keys, taskKey(id))
	}
	unlockTasks := s.locks.LockAll(keys)
	defer unlockTasks()

	tasks, err := s.taskRepo.FindByWaveID(ctx, waveID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wave tasks: %w", err)
	}

	stored := snapshotTasks(tasks)
	if err := wave.Release(zone, tasks); err != nil {
		return nil, err
	}

	if err := s.taskRepo.SaveAll(ctx, tasks); err != nil {
		s.logger.WithError(err).Error("Failed to save released tasks", "waveId", waveID)
		s.restoreTasks(ctx, stored...)
		return nil, fmt.Errorf("failed to save released tasks: %w", err)
	}
	if err := s.waveRepo.Save(ctx, wave); err != nil {
		s.logger.WithError(err).Error("Failed to save wave", "waveId", waveID)
		s.restoreTasks(ctx, stored...)
		return nil, fmt.Errorf("failed to save wave: %w", err)
	}

	for _, task := range tasks {
		publishEvents(ctx, s.notifier, s.logger, task)
	}

	s.logger.WithWave(waveID).Info("Wave released", "zone", zone.ZoneID, "pickers", len(wave.AssignedPickers), "tasks", len(tasks))
	return ToWaveDTO(wave), nil
}

// RecordProgress recomputes wave counters from its tasks and completes the
// wave once every task is terminal
func (s *WaveService) RecordProgress(ctx context.Context, waveID string) (*WaveDTO, error) {
	unlock := s.locks.Lock(waveKey(waveID))
	defer unlock()

	wave, err := s.recordProgressLocked(ctx, waveID)
	if err != nil {
		return nil, err
	}
	return ToWaveDTO(wave), nil
}

// recordProgressLocked expects the caller to hold the wave lock.
func (s *WaveService) recordProgressLocked(ctx context.Context, waveID string) (*domain.PickingWave, error) {
	wave, err := s.loadWave(ctx, waveID)
	if err != nil {
		return nil, err
	}
	if wave.IsClosed() {
		return wave, nil
	}

	tasks, err := s.taskRepo.FindByWaveID(ctx, waveID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wave tasks: %w", err)
	}

	done, err := s.rollUp(wave, tasks)
	if err != nil {
		return nil, err
	}
	if err := s.saveProgress(ctx, wave); err != nil {
		return nil, err
	}
	s.progressRecorded(ctx, wave, done)
	return wave, nil
}

// rollUp recomputes wave counters from tasks in memory and completes the
// wave when every task is terminal. Nothing is persisted.
func (s *WaveService) rollUp(wave *domain.PickingWave, tasks []*domain.PickTask) (bool, error) {
	done := wave.RecordProgress(tasks)
	if !done {
		return false, nil
	}
	analyze := func(w *domain.PickingWave) *domain.WaveProductivity {
		return s.analyzer.ComputeWaveProductivity(w, tasks)
	}
	if err := wave.Complete(analyze); err != nil {
		return false, err
	}
	return true, nil
}

func (s *WaveService) saveProgress(ctx context.Context, wave *domain.PickingWave) error {
	if err := s.waveRepo.Save(ctx, wave); err != nil {
		s.logger.WithError(err).Error("Failed to save wave progress", "waveId", wave.WaveID)
		return fmt.Errorf("failed to save wave: %w", err)
	}
	return nil
}

func (s *WaveService) progressRecorded(ctx context.Context, wave *domain.PickingWave, done bool) {
	if done {
		s.metrics.RecordWaveCompleted(string(wave.Strategy), time.Duration(wave.ActualDuration)*time.Minute)
		s.logger.WithWave(wave.WaveID).Info("Wave completed",
			"tasks", wave.TotalTasks,
			"pickedQuantity", wave.PickedQuantity,
			"actualDuration", wave.ActualDuration,
		)
	}
	publishEvents(ctx, s.notifier, s.logger, wave)
}

// discardTasks removes the tasks written for a wave that could not be stored.
func (s *WaveService) discardTasks(ctx context.Context, waveID string) {
	if err := s.taskRepo.DeleteByWaveID(context.WithoutCancel(ctx), waveID); err != nil {
		s.logger.WithError(err).Error("Failed to discard tasks of unsaved wave", "waveId", waveID)
	}
}

// restoreTasks writes back task state captured before a failed update.
func (s *WaveService) restoreTasks(ctx context.Context, stored ...*domain.PickTask) {
	if err := s.taskRepo.SaveAll(context.WithoutCancel(ctx), stored); err != nil {
		s.logger.WithError(err).Error("Failed to restore tasks", "tasks", len(stored))
	}
}

func snapshotTasks(tasks []*domain.PickTask) []*domain.PickTask {
	out := make([]*domain.PickTask, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.Snapshot())
	}
	return out
}

// CancelWave abandons a planned or released wave
func (s *WaveService) CancelWave(ctx context.Context, cmd CancelWaveCommand) (*WaveDTO, error) {
	unlock := s.locks.Lock(waveKey(cmd.WaveID))
	defer unlock()

	wave, err := s.loadWave(ctx, cmd.WaveID)
	if err != nil {
		return nil, err
	}

	if err := wave.Cancel(cmd.Reason); err != nil {
		return nil, err
	}

	if err := s.waveRepo.Save(ctx, wave); err != nil {
		s.logger.WithError(err).Error("Failed to save cancelled wave", "waveId", cmd.WaveID)
		return nil, fmt.Errorf("failed to save wave: %w", err)
	}
	publishEvents(ctx, s.notifier, s.logger, wave)

	s.logger.WithWave(cmd.WaveID).Info("Wave cancelled", "reason", cmd.Reason)
	return ToWaveDTO(wave), nil
}

// GetWave retrieves a wave by ID
func (s *WaveService) GetWave(ctx context.Context, waveID string) (*WaveDTO, error) {
	wave, err := s.loadWave(ctx, waveID)
	if err != nil {
		return nil, err
	}
	return ToWaveDTO(wave), nil
}

// ListWaves lists waves newest first
func (s *WaveService) ListWaves(ctx context.Context, query ListWavesQuery) ([]*WaveDTO, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	waves, err := s.waveRepo.FindByStatus(ctx, query.Status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list waves: %w", err)
	}
	return ToWaveDTOs(waves), nil
}

// GetWaveTasks returns a wave's tasks in route order
func (s *WaveService) GetWaveTasks(ctx context.Context, waveID string) ([]*PickTaskDTO, error) {
	if _, err := s.loadWave(ctx, waveID); err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.FindByWaveID(ctx, waveID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wave tasks: %w", err)
	}
	return ToPickTaskDTOs(tasks), nil
}

func (s *WaveService) loadWave(ctx context.Context, waveID string) (*domain.PickingWave, error) {
	wave, err := s.waveRepo.FindByID(ctx, waveID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wave: %w", err)
	}
	if wave == nil {
		return nil, notFound("wave", waveID)
	}
	return wave, nil
}
