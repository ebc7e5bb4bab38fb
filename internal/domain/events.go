package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// Event type names on the picking topic.
const (
	EventTypeWaveCreated   = "wms.picking.wave-created"
	EventTypeTaskCreated   = "wms.picking.task-created"
	EventTypePickCompleted = "wms.picking.pick-completed"
	EventTypeWaveCompleted = "wms.picking.wave-completed"
	EventTypeWaveCancelled = "wms.picking.wave-cancelled"
)

// WaveCreatedEvent is published when a wave has been planned
type WaveCreatedEvent struct {
	WaveID            string     `json:"waveId"`
	WaveNumber        string     `json:"waveNumber"`
	Strategy          string     `json:"strategy"`
	Zone              string     `json:"zone"`
	Priority          int        `json:"priority"`
	OrderIDs          []string   `json:"orderIds"`
	TaskCount         int        `json:"taskCount"`
	TotalQuantity     int        `json:"totalQuantity"`
	EstimatedDuration int        `json:"estimatedDuration"`
	Shortages         []Shortage `json:"shortages,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

func (e *WaveCreatedEvent) EventType() string    { return EventTypeWaveCreated }
func (e *WaveCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// PickTaskCreatedEvent is published once per task when its wave is released
type PickTaskCreatedEvent struct {
	TaskID    string    `json:"taskId"`
	WaveID    string    `json:"waveId"`
	OrderID   string    `json:"orderId"`
	SKU       string    `json:"sku"`
	Location  string    `json:"location"`
	Quantity  int       `json:"quantity"`
	Zone      string    `json:"zone"`
	PickerID  string    `json:"pickerId"`
	Sequence  int       `json:"sequence"`
	Priority  int       `json:"priority"`
	CreatedAt time.Time `json:"createdAt"`
}

func (e *PickTaskCreatedEvent) EventType() string    { return EventTypeTaskCreated }
func (e *PickTaskCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// PickCompletedEvent is published when a task reaches a terminal status
type PickCompletedEvent struct {
	TaskID           string    `json:"taskId"`
	WaveID           string    `json:"waveId"`
	OrderID          string    `json:"orderId"`
	PickerID         string    `json:"pickerId"`
	SKU              string    `json:"sku"`
	Location         string    `json:"location"`
	RequiredQuantity int       `json:"requiredQuantity"`
	PickedQuantity   int       `json:"pickedQuantity"`
	Status           string    `json:"status"`
	ActualTime       int       `json:"actualTime"`
	CompletedAt      time.Time `json:"completedAt"`
}

func (e *PickCompletedEvent) EventType() string    { return EventTypePickCompleted }
func (e *PickCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }

// WaveCompletedEvent is published when every task of a wave is terminal
type WaveCompletedEvent struct {
	WaveID         string            `json:"waveId"`
	WaveNumber     string            `json:"waveNumber"`
	Strategy       string            `json:"strategy"`
	TotalTasks     int               `json:"totalTasks"`
	CompletedTasks int               `json:"completedTasks"`
	TotalQuantity  int               `json:"totalQuantity"`
	PickedQuantity int               `json:"pickedQuantity"`
	ActualDuration int               `json:"actualDuration"`
	Productivity   *WaveProductivity `json:"productivity,omitempty"`
	CompletedAt    time.Time         `json:"completedAt"`
}

func (e *WaveCompletedEvent) EventType() string    { return EventTypeWaveCompleted }
func (e *WaveCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }

// WaveCancelledEvent is published when a planned or released wave is cancelled
type WaveCancelledEvent struct {
	WaveID      string    `json:"waveId"`
	WaveNumber  string    `json:"waveNumber"`
	Reason      string    `json:"reason"`
	TaskIDs     []string  `json:"taskIds"`
	CancelledAt time.Time `json:"cancelledAt"`
}

func (e *WaveCancelledEvent) EventType() string    { return EventTypeWaveCancelled }
func (e *WaveCancelledEvent) OccurredAt() time.Time { return e.CancelledAt }

// EventSubject returns the aggregate type and id an event belongs to.
func EventSubject(event DomainEvent) (aggregateType, aggregateID string) {
	switch e := event.(type) {
	case *WaveCreatedEvent:
		return "wave", e.WaveID
	case *WaveCompletedEvent:
		return "wave", e.WaveID
	case *WaveCancelledEvent:
		return "wave", e.WaveID
	case *PickTaskCreatedEvent:
		return "task", e.TaskID
	case *PickCompletedEvent:
		return "task", e.TaskID
	}
	return "unknown", ""
}
