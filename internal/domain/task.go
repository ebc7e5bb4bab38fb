package domain

import (
	"errors"
	"time"
)

// PickTaskStatus represents the status of a pick task
type PickTaskStatus string

const (
	PickTaskStatusPending    PickTaskStatus = "pending"
	PickTaskStatusInProgress PickTaskStatus = "in_progress"
	PickTaskStatusCompleted  PickTaskStatus = "completed"
	PickTaskStatusShort      PickTaskStatus = "short"
	PickTaskStatusDamaged    PickTaskStatus = "damaged"
)

// IsTerminal reports whether no further transition is possible.
func (s PickTaskStatus) IsTerminal() bool {
	switch s {
	case PickTaskStatusCompleted, PickTaskStatusShort, PickTaskStatusDamaged:
		return true
	}
	return false
}

// QualityCheck is a single inspection result recorded at completion.
type QualityCheck struct {
	Name   string `bson:"name" json:"name"`
	Passed bool   `bson:"passed" json:"passed"`
	Notes  string `bson:"notes,omitempty" json:"notes,omitempty"`
}

// OrderQuantity attributes part of a merged task's quantity to an order.
type OrderQuantity struct {
	OrderID  string `bson:"orderId" json:"orderId"`
	Quantity int    `bson:"quantity" json:"quantity"`
}

// PickTask is the aggregate root for a single unit of pick work
type PickTask struct {
	TaskID           string          `bson:"taskId"`
	OrderID          string          `bson:"orderId"`
	WaveID           string          `bson:"waveId,omitempty"`
	SKU              string          `bson:"sku"`
	Location         string          `bson:"location"`
	Lot              string          `bson:"lot,omitempty"`
	Serial           string          `bson:"serial,omitempty"`
	RequiredQuantity int             `bson:"requiredQuantity"`
	PickedQuantity   int             `bson:"pickedQuantity"`
	Status           PickTaskStatus  `bson:"status"`
	Assignee         string          `bson:"assignee,omitempty"`
	Priority         int             `bson:"priority"`
	Zone             string          `bson:"zone"`
	Sequence         int             `bson:"sequence"`
	EstimatedTime    int             `bson:"estimatedTime"`
	ActualTime       *int            `bson:"actualTime,omitempty"`
	QualityChecks    []QualityCheck  `bson:"qualityChecks,omitempty"`
	OrderBreakdown   []OrderQuantity `bson:"orderBreakdown,omitempty"`
	CreatedAt        time.Time       `bson:"createdAt"`
	UpdatedAt        time.Time       `bson:"updatedAt"`
	StartedAt        *time.Time      `bson:"startedAt,omitempty"`
	CompletedAt      *time.Time      `bson:"completedAt,omitempty"`
	DomainEvents     []DomainEvent   `bson:"-"`
}

// TaskSpec carries the fields needed to create a pick task.
type TaskSpec struct {
	TaskID        string
	OrderID       string
	SKU           string
	Location      string
	Lot           string
	Serial        string
	Quantity      int
	Priority      int
	Zone          string
	EstimatedTime int
}

// NewPickTask creates a new PickTask aggregate in pending status
func NewPickTask(spec TaskSpec) (*PickTask, error) {
	if spec.TaskID == "" {
		return nil, errors.New("task id is required")
	}
	if spec.SKU == "" {
		return nil, errors.New("sku is required")
	}
	if spec.Location == "" {
		return nil, errors.New("location is required")
	}
	if spec.Quantity <= 0 {
		return nil, invalidQuantity("required quantity must be positive, got %d", spec.Quantity)
	}

	zone := spec.Zone
	if zone == "" {
		zone = ZoneFromLocation(spec.Location)
	}

	now := time.Now()
	return &PickTask{
		TaskID:           spec.TaskID,
		OrderID:          spec.OrderID,
		SKU:              spec.SKU,
		Location:         spec.Location,
		Lot:              spec.Lot,
		Serial:           spec.Serial,
		RequiredQuantity: spec.Quantity,
		Status:           PickTaskStatusPending,
		Priority:         spec.Priority,
		Zone:             zone,
		EstimatedTime:    spec.EstimatedTime,
		CreatedAt:        now,
		UpdatedAt:        now,
		DomainEvents:     make([]DomainEvent, 0),
	}, nil
}

// Start marks the task as in progress for the given picker
func (t *PickTask) Start(pickerID string) error {
	if pickerID == "" {
		return errors.New("picker id is required")
	}
	if t.Status != PickTaskStatusPending {
		return invalidState("task %s is %s, expected %s", t.TaskID, t.Status, PickTaskStatusPending)
	}

	now := time.Now()
	t.Status = PickTaskStatusInProgress
	t.Assignee = pickerID
	t.StartedAt = &now
	t.UpdatedAt = now

	return nil
}

// Complete records the picked quantity and resolves the terminal status.
// When actualTime is nil it is derived from the start timestamp.
func (t *PickTask) Complete(pickedQuantity int, actualTime *int, checks []QualityCheck) error {
	if t.Status != PickTaskStatusInProgress {
		return invalidState("task %s is %s, expected %s", t.TaskID, t.Status, PickTaskStatusInProgress)
	}
	if pickedQuantity < 0 {
		return invalidQuantity("picked quantity cannot be negative, got %d", pickedQuantity)
	}
	if pickedQuantity > t.RequiredQuantity {
		return invalidQuantity("picked %d exceeds required %d", pickedQuantity, t.RequiredQuantity)
	}
	if actualTime != nil && *actualTime < 0 {
		return invalidQuantity("actual time cannot be negative, got %d", *actualTime)
	}

	now := time.Now()
	elapsed := 0
	if actualTime != nil {
		elapsed = *actualTime
	} else if t.StartedAt != nil {
		elapsed = int(now.Sub(*t.StartedAt).Seconds())
	}

	t.PickedQuantity = pickedQuantity
	t.ActualTime = &elapsed
	if len(checks) > 0 {
		t.QualityChecks = append([]QualityCheck(nil), checks...)
	}
	t.Status = ResolveCompletionStatus(pickedQuantity, t.RequiredQuantity, checks)
	t.CompletedAt = &now
	t.UpdatedAt = now

	t.AddDomainEvent(&PickCompletedEvent{
		TaskID:           t.TaskID,
		WaveID:           t.WaveID,
		OrderID:          t.OrderID,
		PickerID:         t.Assignee,
		SKU:              t.SKU,
		Location:         t.Location,
		RequiredQuantity: t.RequiredQuantity,
		PickedQuantity:   pickedQuantity,
		Status:           string(t.Status),
		ActualTime:       elapsed,
		CompletedAt:      now,
	})

	return nil
}

// ResolveCompletionStatus picks the terminal status for a completion. The
// first matching rule wins: nothing or less than required picked is short,
// any failed check is damaged, everything else is completed.
func ResolveCompletionStatus(picked, required int, checks []QualityCheck) PickTaskStatus {
	if picked == 0 {
		return PickTaskStatusShort
	}
	if picked < required {
		return PickTaskStatusShort
	}
	for _, check := range checks {
		if !check.Passed {
			return PickTaskStatusDamaged
		}
	}
	return PickTaskStatusCompleted
}

// AttachToWave sets the wave reference and route position.
func (t *PickTask) AttachToWave(waveID string, sequence int) {
	t.WaveID = waveID
	t.Sequence = sequence
	t.UpdatedAt = time.Now()
}

// AssignPicker hands a pending task to a picker on wave release.
func (t *PickTask) AssignPicker(pickerID string) error {
	if t.Status != PickTaskStatusPending {
		return invalidState("task %s is %s, expected %s", t.TaskID, t.Status, PickTaskStatusPending)
	}

	now := time.Now()
	t.Assignee = pickerID
	t.UpdatedAt = now

	t.AddDomainEvent(&PickTaskCreatedEvent{
		TaskID:    t.TaskID,
		WaveID:    t.WaveID,
		OrderID:   t.OrderID,
		SKU:       t.SKU,
		Location:  t.Location,
		Quantity:  t.RequiredQuantity,
		Zone:      t.Zone,
		PickerID:  pickerID,
		Sequence:  t.Sequence,
		Priority:  t.Priority,
		CreatedAt: now,
	})

	return nil
}

// Absorb merges another task for the same SKU and location into this one.
// Quantities and estimates add up, the higher priority wins and the order
// breakdown keeps per-order attribution.
func (t *PickTask) Absorb(other *PickTask) {
	breakdown := t.Breakdown()
	for _, part := range other.Breakdown() {
		merged := false
		for i := range breakdown {
			if breakdown[i].OrderID == part.OrderID {
				breakdown[i].Quantity += part.Quantity
				merged = true
				break
			}
		}
		if !merged {
			breakdown = append(breakdown, part)
		}
	}

	t.OrderBreakdown = breakdown
	t.RequiredQuantity += other.RequiredQuantity
	t.EstimatedTime += other.EstimatedTime
	if other.Priority > t.Priority {
		t.Priority = other.Priority
	}
	t.UpdatedAt = time.Now()
}

// Breakdown returns the per-order quantities carried by this task.
func (t *PickTask) Breakdown() []OrderQuantity {
	if len(t.OrderBreakdown) > 0 {
		return append([]OrderQuantity(nil), t.OrderBreakdown...)
	}
	return []OrderQuantity{{OrderID: t.OrderID, Quantity: t.RequiredQuantity}}
}

// Snapshot returns a deep copy of t without its pending domain events.
func (t *PickTask) Snapshot() *PickTask {
	c := *t
	c.QualityChecks = append([]QualityCheck(nil), t.QualityChecks...)
	c.OrderBreakdown = append([]OrderQuantity(nil), t.OrderBreakdown...)
	c.ActualTime = copyPtr(t.ActualTime)
	c.StartedAt = copyPtr(t.StartedAt)
	c.CompletedAt = copyPtr(t.CompletedAt)
	c.DomainEvents = make([]DomainEvent, 0)
	return &c
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// HasActualTime reports whether a duration was recorded for the task.
func (t *PickTask) HasActualTime() bool {
	return t.ActualTime != nil
}

// AddDomainEvent adds a domain event
func (t *PickTask) AddDomainEvent(event DomainEvent) {
	t.DomainEvents = append(t.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (t *PickTask) ClearDomainEvents() {
	t.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (t *PickTask) GetDomainEvents() []DomainEvent {
	return t.DomainEvents
}
