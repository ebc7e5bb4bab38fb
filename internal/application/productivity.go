package application

import (
	"context"
	"fmt"
	"sort"

	"github.com/wms-platform/picking-orchestrator/internal/domain"
	pkgerrors "github.com/wms-platform/picking-orchestrator/pkg/errors"
	"github.com/wms-platform/picking-orchestrator/pkg/logging"
)

// ProductivityAnalyzer derives wave and picker metrics from task history
type ProductivityAnalyzer struct {
	taskRepo domain.PickTaskRepository
	policy   domain.ScoringPolicy
	logger   *logging.Logger
}

// NewProductivityAnalyzer creates a new ProductivityAnalyzer
func NewProductivityAnalyzer(taskRepo domain.PickTaskRepository, policy domain.ScoringPolicy, logger *logging.Logger) *ProductivityAnalyzer {
	return &ProductivityAnalyzer{
		taskRepo: taskRepo,
		policy:   policy,
		logger:   logger.WithComponent("productivity-analyzer"),
	}
}

// ComputeWaveProductivity returns the productivity snapshot of a finished
// wave, or nil when it has no measurable duration.
func (a *ProductivityAnalyzer) ComputeWaveProductivity(wave *domain.PickingWave, tasks []*domain.PickTask) *domain.WaveProductivity {
	if wave.ActualDuration <= 0 {
		return nil
	}

	minutes := float64(wave.ActualDuration)
	picked, completed := 0, 0
	for _, task := range tasks {
		picked += task.PickedQuantity
		if task.Status == domain.PickTaskStatusCompleted {
			completed++
		}
	}

	accuracy := 0.0
	if len(tasks) > 0 {
		accuracy = float64(completed) / float64(len(tasks))
	}

	return &domain.WaveProductivity{
		PicksPerHour:   float64(picked) / minutes * 60,
		LinesPerHour:   float64(len(tasks)) / minutes * 60,
		Accuracy:       accuracy,
		AvgTimePerPick: meanActualTime(tasks),
	}
}

// meanActualTime averages actualTime in seconds over tasks that recorded one.
func meanActualTime(tasks []*domain.PickTask) float64 {
	sum, n := 0, 0
	for _, task := range tasks {
		if task.HasActualTime() {
			sum += *task.ActualTime
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

type pickTally struct {
	picks     int
	completed int
	quantity  int
	seconds   int
}

func (t *pickTally) add(task *domain.PickTask) {
	t.picks++
	if task.Status == domain.PickTaskStatusCompleted {
		t.completed++
	}
	t.quantity += task.PickedQuantity
	if task.HasActualTime() {
		t.seconds += *task.ActualTime
	}
}

func (t pickTally) hours() float64 {
	return float64(t.seconds) / 3600
}

func (t pickTally) picksPerHour() float64 {
	if t.seconds == 0 {
		return 0
	}
	return float64(t.quantity) / t.hours()
}

func (t pickTally) linesPerHour() float64 {
	if t.seconds == 0 {
		return 0
	}
	return float64(t.picks) / t.hours()
}

func (t pickTally) accuracy() float64 {
	if t.picks == 0 {
		return 0
	}
	return float64(t.completed) / float64(t.picks)
}

// ComputePickerPerformance aggregates a picker's terminal tasks completed
// within [From, To) into a scored performance read model
func (a *ProductivityAnalyzer) ComputePickerPerformance(ctx context.Context, query PickerPerformanceQuery) (*domain.PickerPerformance, error) {
	if query.PickerID == "" {
		return nil, pkgerrors.ErrValidation("picker id is required")
	}
	if !query.From.Before(query.To) {
		return nil, pkgerrors.ErrValidation("period start must be before its end")
	}

	period := domain.Period{From: query.From, To: query.To}
	tasks, err := a.taskRepo.FindCompletedByPicker(ctx, query.PickerID, period)
	if err != nil {
		a.logger.WithError(err).Error("Failed to load picker history", "pickerId", query.PickerID)
		return nil, fmt.Errorf("failed to get picker tasks: %w", err)
	}

	assigned, err := a.taskRepo.FindByPickerID(ctx, query.PickerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get picker tasks: %w", err)
	}
	active := 0
	for _, task := range assigned {
		if task.Status == domain.PickTaskStatusInProgress {
			active++
		}
	}

	var total pickTally
	counted := make([]*domain.PickTask, 0, len(tasks))
	lines := make(map[string]struct{})
	days := make(map[string]*pickTally)
	for _, task := range tasks {
		if !task.Status.IsTerminal() || task.CompletedAt == nil || !period.Contains(*task.CompletedAt) {
			continue
		}
		total.add(task)
		counted = append(counted, task)
		lines[task.OrderID+"|"+task.SKU] = struct{}{}

		day := task.CompletedAt.UTC().Format("2006-01-02")
		if days[day] == nil {
			days[day] = &pickTally{}
		}
		days[day].add(task)
	}

	perf := &domain.PickerPerformance{
		PickerID:       query.PickerID,
		Period:         period,
		TotalPicks:     total.picks,
		TotalLines:     len(lines),
		TotalQuantity:  total.quantity,
		PicksPerHour:   total.picksPerHour(),
		LinesPerHour:   total.linesPerHour(),
		Accuracy:       total.accuracy(),
		AvgTimePerPick: meanActualTime(counted),
		Trend:          a.trend(days),
		ActiveSessions: active,
	}
	perf.Score = a.policy.Score(perf.PicksPerHour, perf.Accuracy)
	perf.Grade = a.policy.Grade(perf.Score)

	return perf, nil
}

// trend keeps the most recent active days, oldest first.
func (a *ProductivityAnalyzer) trend(days map[string]*pickTally) []domain.TrendPoint {
	dates := make([]string, 0, len(days))
	for date := range days {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	if a.policy.TrendDays >= 0 && len(dates) > a.policy.TrendDays {
		dates = dates[len(dates)-a.policy.TrendDays:]
	}

	points := make([]domain.TrendPoint, 0, len(dates))
	for _, date := range dates {
		day := days[date]
		points = append(points, domain.TrendPoint{
			Date:         date,
			PicksPerHour: day.picksPerHour(),
			Accuracy:     day.accuracy(),
		})
	}
	return points
}
