package application

import (
	"context"
	"fmt"
	"time"

	"github.com/wms-platform/picking-orchestrator/internal/domain"
	"github.com/wms-platform/picking-orchestrator/pkg/logging"
)

const (
	highUtilizationPercent  = 90.0
	minPickerShare          = 0.5
	minProductivityFraction = 0.7
	productivityWindow      = 24 * time.Hour
)

// ZoneAnalyzer reports current load and bottlenecks per zone
type ZoneAnalyzer struct {
	zones    domain.ZoneConfigSource
	taskRepo domain.PickTaskRepository
	now      func() time.Time
	logger   *logging.Logger
}

// NewZoneAnalyzer creates a new ZoneAnalyzer
func NewZoneAnalyzer(zones domain.ZoneConfigSource, taskRepo domain.PickTaskRepository, logger *logging.Logger) *ZoneAnalyzer {
	return &ZoneAnalyzer{
		zones:    zones,
		taskRepo: taskRepo,
		now:      time.Now,
		logger:   logger.WithComponent("zone-analyzer"),
	}
}

// Analyze computes the performance of a single zone
func (a *ZoneAnalyzer) Analyze(ctx context.Context, zoneID string) (*domain.ZonePerformance, error) {
	zone, err := a.zones.GetZone(ctx, zoneID)
	if err != nil {
		return nil, fmt.Errorf("failed to get zone %s: %w", zoneID, err)
	}
	if zone == nil {
		return nil, notFound("zone", zoneID)
	}
	return a.analyze(ctx, zone)
}

// AnalyzeAll computes the performance of every configured zone
func (a *ZoneAnalyzer) AnalyzeAll(ctx context.Context) ([]*domain.ZonePerformance, error) {
	zones, err := a.zones.ListZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}

	results := make([]*domain.ZonePerformance, 0, len(zones))
	for _, zone := range zones {
		perf, err := a.analyze(ctx, zone)
		if err != nil {
			return nil, err
		}
		results = append(results, perf)
	}
	return results, nil
}

func (a *ZoneAnalyzer) analyze(ctx context.Context, zone *domain.ZoneConfiguration) (*domain.ZonePerformance, error) {
	now := a.now()

	inProgress, err := a.taskRepo.FindByZoneAndStatus(ctx, zone.ZoneID, domain.PickTaskStatusInProgress)
	if err != nil {
		a.logger.WithError(err).Error("Failed to load in-progress tasks", "zoneId", zone.ZoneID)
		return nil, fmt.Errorf("failed to get in-progress tasks: %w", err)
	}
	recent, err := a.taskRepo.FindCompletedByZone(ctx, zone.ZoneID, now.Add(-productivityWindow))
	if err != nil {
		a.logger.WithError(err).Error("Failed to load completed tasks", "zoneId", zone.ZoneID)
		return nil, fmt.Errorf("failed to get completed tasks: %w", err)
	}

	pickers := make(map[string]struct{})
	for _, task := range inProgress {
		if task.Assignee != "" {
			pickers[task.Assignee] = struct{}{}
		}
	}

	utilization := 0.0
	if zone.Capacity.MaxConcurrentPickers > 0 {
		utilization = float64(len(inProgress)) / float64(zone.Capacity.MaxConcurrentPickers) * 100
	}

	avgProductivity := averageTasksPerHour(recent)

	bottlenecks := make([]string, 0)
	if utilization > highUtilizationPercent {
		bottlenecks = append(bottlenecks, domain.BottleneckHighUtilization)
	}
	if float64(len(pickers)) < minPickerShare*float64(zone.Capacity.MaxConcurrentPickers) {
		bottlenecks = append(bottlenecks, domain.BottleneckLowPickerUtilization)
	}
	if avgProductivity < minProductivityFraction*float64(zone.Capacity.MaxTasksPerHour) {
		bottlenecks = append(bottlenecks, domain.BottleneckLowProductivity)
	}

	return &domain.ZonePerformance{
		ZoneID:            zone.ZoneID,
		Utilization:       utilization,
		ActivePickers:     len(pickers),
		TasksInProgress:   len(inProgress),
		TasksCompleted24h: len(recent),
		AvgProductivity:   avgProductivity,
		Bottlenecks:       bottlenecks,
		AnalyzedAt:        now,
	}, nil
}

// averageTasksPerHour is the mean over pickers of tasks completed per hour
// of recorded pick time. Pickers without recorded time are left out.
func averageTasksPerHour(tasks []*domain.PickTask) float64 {
	byPicker := make(map[string]*pickTally)
	for _, task := range tasks {
		if task.Assignee == "" {
			continue
		}
		if byPicker[task.Assignee] == nil {
			byPicker[task.Assignee] = &pickTally{}
		}
		byPicker[task.Assignee].add(task)
	}

	sum, n := 0.0, 0
	for _, tally := range byPicker {
		if tally.seconds == 0 {
			continue
		}
		sum += tally.linesPerHour()
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
