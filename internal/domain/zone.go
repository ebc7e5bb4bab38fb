package domain

// ZoneType represents the storage type of a pick zone
type ZoneType string

const (
	ZoneTypeForward           ZoneType = "forward"
	ZoneTypeReserve           ZoneType = "reserve"
	ZoneTypeBulk              ZoneType = "bulk"
	ZoneTypeHazardous         ZoneType = "hazardous"
	ZoneTypeClimateControlled ZoneType = "climate_controlled"
	ZoneTypeFrozen            ZoneType = "frozen"
)

// DefaultZone is used when neither a hint nor any task names a zone.
const DefaultZone = "DEFAULT"

// ZoneCapacity bounds the work a zone can absorb
type ZoneCapacity struct {
	MaxConcurrentPickers int `yaml:"maxConcurrentPickers" json:"maxConcurrentPickers" validate:"gte=0"`
	MaxTasksPerHour      int `yaml:"maxTasksPerHour" json:"maxTasksPerHour" validate:"gte=0"`
}

// ZoneRouting describes how pickers enter and traverse a zone
type ZoneRouting struct {
	EntryPoint  string   `yaml:"entryPoint" json:"entryPoint,omitempty"`
	ExitPoint   string   `yaml:"exitPoint" json:"exitPoint,omitempty"`
	OptimalPath []string `yaml:"optimalPath" json:"optimalPath,omitempty"`
}

// ZoneConfiguration is the read-only description of a pick zone
type ZoneConfiguration struct {
	ZoneID    string       `yaml:"zoneId" json:"zoneId" validate:"required"`
	Name      string       `yaml:"name" json:"name" validate:"required"`
	Type      ZoneType     `yaml:"type" json:"type" validate:"required,oneof=forward reserve bulk hazardous climate_controlled frozen"`
	Pickers   []string     `yaml:"pickers" json:"pickers" validate:"dive,required"`
	Locations []string     `yaml:"locations" json:"locations,omitempty"`
	Capacity  ZoneCapacity `yaml:"capacity" json:"capacity"`
	Routing   ZoneRouting  `yaml:"routing" json:"routing"`
	Active    bool         `yaml:"active" json:"active"`
}

// PickerSlots returns how many pickers a release of taskCount tasks may use.
func (z *ZoneConfiguration) PickerSlots(taskCount int) int {
	return min(z.Capacity.MaxConcurrentPickers, taskCount, len(z.Pickers))
}

// SelectPickers takes the first PickerSlots(taskCount) pickers from the roster.
func (z *ZoneConfiguration) SelectPickers(taskCount int) []string {
	n := z.PickerSlots(taskCount)
	if n <= 0 {
		return []string{}
	}
	return append([]string(nil), z.Pickers[:n]...)
}
