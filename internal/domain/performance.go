package domain

import "time"

// Bottleneck flags raised by zone analysis.
const (
	BottleneckHighUtilization      = "high utilization"
	BottleneckLowPickerUtilization = "low picker utilization"
	BottleneckLowProductivity      = "low productivity"
)

// Period is a half-open time window [From, To).
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls inside the window.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.From) && t.Before(p.To)
}

// TrendPoint is one day of picker activity
type TrendPoint struct {
	Date         string  `json:"date"`
	PicksPerHour float64 `json:"picksPerHour"`
	Accuracy     float64 `json:"accuracy"`
}

// PickerPerformance is a read model computed from a picker's task history
type PickerPerformance struct {
	PickerID       string       `json:"pickerId"`
	Period         Period       `json:"period"`
	TotalPicks     int          `json:"totalPicks"`
	TotalLines     int          `json:"totalLines"`
	TotalQuantity  int          `json:"totalQuantity"`
	PicksPerHour   float64      `json:"picksPerHour"`
	LinesPerHour   float64      `json:"linesPerHour"`
	Accuracy       float64      `json:"accuracy"`
	AvgTimePerPick float64      `json:"avgTimePerPick"`
	Score          float64      `json:"score"`
	Grade          string       `json:"grade"`
	Trend          []TrendPoint `json:"trend"`
	ActiveSessions int          `json:"activeSessions"`
}

// ZonePerformance is a read model of a zone's current load
type ZonePerformance struct {
	ZoneID            string    `json:"zoneId"`
	Utilization       float64   `json:"utilization"`
	ActivePickers     int       `json:"activePickers"`
	TasksInProgress   int       `json:"tasksInProgress"`
	TasksCompleted24h int       `json:"tasksCompleted24h"`
	AvgProductivity   float64   `json:"avgProductivity"`
	Bottlenecks       []string  `json:"bottlenecks"`
	AnalyzedAt        time.Time `json:"analyzedAt"`
}

// ScoringWeights split the score between throughput and accuracy.
type ScoringWeights struct {
	Rate     float64 `yaml:"rate" json:"rate" validate:"gte=0,lte=1"`
	Accuracy float64 `yaml:"accuracy" json:"accuracy" validate:"gte=0,lte=1"`
}

// GradeThresholds are the minimum scores for each letter grade; anything
// below D is F.
type GradeThresholds struct {
	A float64 `yaml:"a" json:"a" validate:"gte=0,lte=100"`
	B float64 `yaml:"b" json:"b" validate:"gte=0,lte=100"`
	C float64 `yaml:"c" json:"c" validate:"gte=0,lte=100"`
	D float64 `yaml:"d" json:"d" validate:"gte=0,lte=100"`
}

// ScoringPolicy turns picker metrics into a score and grade
type ScoringPolicy struct {
	Weights            ScoringWeights  `yaml:"weights" json:"weights"`
	TargetPicksPerHour float64         `yaml:"targetPicksPerHour" json:"targetPicksPerHour" validate:"gt=0"`
	Grades             GradeThresholds `yaml:"grades" json:"grades"`
	TrendDays          int             `yaml:"trendDays" json:"trendDays" validate:"gte=0,lte=31"`
}

// DefaultScoringPolicy returns the policy used when none is configured
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		Weights:            ScoringWeights{Rate: 0.6, Accuracy: 0.4},
		TargetPicksPerHour: 120,
		Grades:             GradeThresholds{A: 90, B: 80, C: 70, D: 60},
		TrendDays:          7,
	}
}

// Score combines throughput against target and accuracy into 0..100.
func (p ScoringPolicy) Score(picksPerHour, accuracy float64) float64 {
	rate := 0.0
	if p.TargetPicksPerHour > 0 {
		rate = min(picksPerHour/p.TargetPicksPerHour, 1)
	}
	score := (p.Weights.Rate*rate + p.Weights.Accuracy*accuracy) * 100
	return max(0, min(score, 100))
}

// Grade maps a score to a letter.
func (p ScoringPolicy) Grade(score float64) string {
	switch {
	case score >= p.Grades.A:
		return "A"
	case score >= p.Grades.B:
		return "B"
	case score >= p.Grades.C:
		return "C"
	case score >= p.Grades.D:
		return "D"
	}
	return "F"
}
