package domain

import (
	"errors"
	"math"
	"sort"
	"time"
)

// WaveStatus represents the status of a picking wave
type WaveStatus string

const (
	WaveStatusPlanned    WaveStatus = "planned"
	WaveStatusReleased   WaveStatus = "released"
	WaveStatusInProgress WaveStatus = "in_progress"
	WaveStatusCompleted  WaveStatus = "completed"
	WaveStatusCancelled  WaveStatus = "cancelled"
)

// Strategy represents how the tasks of a wave are grouped and ordered
type Strategy string

const (
	StrategyBatch       Strategy = "batch"
	StrategyZone        Strategy = "zone"
	StrategyCluster     Strategy = "cluster"
	StrategySingleOrder Strategy = "single_order"
)

// DefaultPriority applies to order lines without an explicit priority.
const DefaultPriority = 5

// IsValid reports whether s is one of the known strategies
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyBatch, StrategyZone, StrategyCluster, StrategySingleOrder:
		return true
	}
	return false
}

// WaveProductivity is the snapshot taken when a wave completes
type WaveProductivity struct {
	PicksPerHour   float64 `bson:"picksPerHour" json:"picksPerHour"`
	LinesPerHour   float64 `bson:"linesPerHour" json:"linesPerHour"`
	Accuracy       float64 `bson:"accuracy" json:"accuracy"`
	AvgTimePerPick float64 `bson:"avgTimePerPick" json:"avgTimePerPick"`
}

// PickingWave is the aggregate root for a group of pick tasks released together
type PickingWave struct {
	WaveID            string            `bson:"waveId"`
	WaveNumber        string            `bson:"waveNumber"`
	Status            WaveStatus        `bson:"status"`
	Strategy          Strategy          `bson:"strategy"`
	Priority          int               `bson:"priority"`
	Zone              string            `bson:"zone"`
	OrderIDs          []string          `bson:"orderIds"`
	TaskIDs           []string          `bson:"taskIds"`
	TotalTasks        int               `bson:"totalTasks"`
	CompletedTasks    int               `bson:"completedTasks"`
	TotalQuantity     int               `bson:"totalQuantity"`
	PickedQuantity    int               `bson:"pickedQuantity"`
	AssignedPickers   []string          `bson:"assignedPickers"`
	EstimatedDuration int               `bson:"estimatedDuration"`
	ActualDuration    int               `bson:"actualDuration"`
	Shortages         []Shortage        `bson:"shortages,omitempty"`
	CancelReason      string            `bson:"cancelReason,omitempty"`
	Productivity      *WaveProductivity `bson:"productivity,omitempty"`
	CreatedAt         time.Time         `bson:"createdAt"`
	UpdatedAt         time.Time         `bson:"updatedAt"`
	ReleasedAt        *time.Time        `bson:"releasedAt,omitempty"`
	CompletedAt       *time.Time        `bson:"completedAt,omitempty"`
	CancelledAt       *time.Time        `bson:"cancelledAt,omitempty"`
	DomainEvents      []DomainEvent     `bson:"-"`
}

// WaveSpec carries the derived attributes of a new wave.
type WaveSpec struct {
	WaveID            string
	WaveNumber        string
	Strategy          Strategy
	Priority          int
	Zone              string
	OrderIDs          []string
	EstimatedDuration int
	Shortages         []Shortage
}

// NewPickingWave creates a planned wave over tasks that are already sequenced
func NewPickingWave(spec WaveSpec, tasks []*PickTask) (*PickingWave, error) {
	if spec.WaveID == "" {
		return nil, errors.New("wave id is required")
	}
	if !spec.Strategy.IsValid() {
		return nil, errors.New("unknown picking strategy: " + string(spec.Strategy))
	}

	now := time.Now()
	wave := &PickingWave{
		WaveID:            spec.WaveID,
		WaveNumber:        spec.WaveNumber,
		Status:            WaveStatusPlanned,
		Strategy:          spec.Strategy,
		Priority:          spec.Priority,
		Zone:              spec.Zone,
		OrderIDs:          append([]string(nil), spec.OrderIDs...),
		TaskIDs:           make([]string, 0, len(tasks)),
		AssignedPickers:   []string{},
		EstimatedDuration: spec.EstimatedDuration,
		Shortages:         spec.Shortages,
		CreatedAt:         now,
		UpdatedAt:         now,
		DomainEvents:      make([]DomainEvent, 0),
	}
	for _, task := range tasks {
		wave.TaskIDs = append(wave.TaskIDs, task.TaskID)
	}
	wave.TotalTasks = len(tasks)
	wave.tally(tasks)

	wave.AddDomainEvent(&WaveCreatedEvent{
		WaveID:            wave.WaveID,
		WaveNumber:        wave.WaveNumber,
		Strategy:          string(wave.Strategy),
		Zone:              wave.Zone,
		Priority:          wave.Priority,
		OrderIDs:          wave.OrderIDs,
		TaskCount:         wave.TotalTasks,
		TotalQuantity:     wave.TotalQuantity,
		EstimatedDuration: wave.EstimatedDuration,
		Shortages:         wave.Shortages,
		CreatedAt:         now,
	})

	return wave, nil
}

// Release assigns pickers from the zone roster and hands the tasks out
// round-robin in sequence order.
func (w *PickingWave) Release(zone *ZoneConfiguration, tasks []*PickTask) error {
	if w.Status != WaveStatusPlanned {
		return invalidState("wave %s is %s, expected %s", w.WaveID, w.Status, WaveStatusPlanned)
	}
	if !zone.Active {
		return invalidState("zone %s is not active", zone.ZoneID)
	}

	pickers := zone.SelectPickers(len(tasks))
	if len(tasks) > 0 && len(pickers) == 0 {
		return invalidState("zone %s has no eligible pickers", zone.ZoneID)
	}
	for _, task := range tasks {
		if task.Status != PickTaskStatusPending {
			return invalidState("task %s is %s, expected %s", task.TaskID, task.Status, PickTaskStatusPending)
		}
	}

	ordered := append([]*PickTask(nil), tasks...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Sequence < ordered[j].Sequence
	})
	for i, task := range ordered {
		if err := task.AssignPicker(pickers[i%len(pickers)]); err != nil {
			return err
		}
	}

	now := time.Now()
	w.Status = WaveStatusReleased
	w.AssignedPickers = pickers
	w.ReleasedAt = &now
	w.UpdatedAt = now

	return nil
}

// MarkInProgress promotes a planned or released wave once work has started.
// It reports whether the status changed.
func (w *PickingWave) MarkInProgress() bool {
	if w.Status != WaveStatusPlanned && w.Status != WaveStatusReleased {
		return false
	}
	w.Status = WaveStatusInProgress
	w.UpdatedAt = time.Now()
	return true
}

// RecordProgress recomputes counters from the current task states and
// reports whether every task is terminal.
func (w *PickingWave) RecordProgress(tasks []*PickTask) bool {
	w.tally(tasks)
	w.UpdatedAt = time.Now()
	return w.CompletedTasks == w.TotalTasks
}

func (w *PickingWave) tally(tasks []*PickTask) {
	completed, total, picked := 0, 0, 0
	for _, task := range tasks {
		if task.Status.IsTerminal() {
			completed++
		}
		total += task.RequiredQuantity
		picked += task.PickedQuantity
	}
	w.TotalTasks = len(tasks)
	w.CompletedTasks = completed
	w.TotalQuantity = total
	w.PickedQuantity = picked
}

// Complete closes the wave. analyze is called once the actual duration is
// known and its result becomes the productivity snapshot.
func (w *PickingWave) Complete(analyze func(*PickingWave) *WaveProductivity) error {
	if w.Status == WaveStatusCompleted || w.Status == WaveStatusCancelled {
		return invalidState("wave %s is already %s", w.WaveID, w.Status)
	}
	if w.CompletedTasks != w.TotalTasks {
		return invalidState("wave %s has %d of %d tasks terminal", w.WaveID, w.CompletedTasks, w.TotalTasks)
	}

	now := time.Now()
	start := w.CreatedAt
	if w.ReleasedAt != nil {
		start = *w.ReleasedAt
	}

	w.Status = WaveStatusCompleted
	w.CompletedAt = &now
	w.ActualDuration = int(now.Sub(start) / time.Minute)
	if analyze != nil {
		w.Productivity = analyze(w)
	}
	w.UpdatedAt = now

	w.AddDomainEvent(&WaveCompletedEvent{
		WaveID:         w.WaveID,
		WaveNumber:     w.WaveNumber,
		Strategy:       string(w.Strategy),
		TotalTasks:     w.TotalTasks,
		CompletedTasks: w.CompletedTasks,
		TotalQuantity:  w.TotalQuantity,
		PickedQuantity: w.PickedQuantity,
		ActualDuration: w.ActualDuration,
		Productivity:   w.Productivity,
		CompletedAt:    now,
	})

	return nil
}

// Cancel abandons a wave that has not started
func (w *PickingWave) Cancel(reason string) error {
	if w.Status != WaveStatusPlanned && w.Status != WaveStatusReleased {
		return invalidState("wave %s is %s and cannot be cancelled", w.WaveID, w.Status)
	}

	now := time.Now()
	w.Status = WaveStatusCancelled
	w.CancelReason = reason
	w.CancelledAt = &now
	w.UpdatedAt = now

	w.AddDomainEvent(&WaveCancelledEvent{
		WaveID:      w.WaveID,
		WaveNumber:  w.WaveNumber,
		Reason:      reason,
		TaskIDs:     append([]string(nil), w.TaskIDs...),
		CancelledAt: now,
	})

	return nil
}

// IsClosed reports whether the wave accepts no further work.
func (w *PickingWave) IsClosed() bool {
	return w.Status == WaveStatusCompleted || w.Status == WaveStatusCancelled
}

// AddDomainEvent adds a domain event
func (w *PickingWave) AddDomainEvent(event DomainEvent) {
	w.DomainEvents = append(w.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (w *PickingWave) ClearDomainEvents() {
	w.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (w *PickingWave) GetDomainEvents() []DomainEvent {
	return w.DomainEvents
}

// MeanPriority returns the rounded mean task priority, half away from zero.
func MeanPriority(tasks []*PickTask) int {
	if len(tasks) == 0 {
		return DefaultPriority
	}
	sum := 0
	for _, task := range tasks {
		sum += task.Priority
	}
	return int(math.Round(float64(sum) / float64(len(tasks))))
}

// MajorityZone returns the most common task zone. Ties go to the zone seen
// first; an empty result means no task carries a zone.
func MajorityZone(tasks []*PickTask) string {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, task := range tasks {
		if task.Zone == "" {
			continue
		}
		if _, seen := counts[task.Zone]; !seen {
			order = append(order, task.Zone)
		}
		counts[task.Zone]++
	}

	best, bestCount := "", 0
	for _, zone := range order {
		if counts[zone] > bestCount {
			best, bestCount = zone, counts[zone]
		}
	}
	return best
}

// EstimateDurationMinutes converts the summed task estimates to wave minutes.
func EstimateDurationMinutes(tasks []*PickTask, multiplier float64) int {
	seconds := 0
	for _, task := range tasks {
		seconds += task.EstimatedTime
	}
	minutes := float64(seconds) * multiplier / 60
	// absorb float noise such as 2.0000000000000004
	return int(math.Ceil(minutes - 1e-9))
}
