package domain

import (
	"time"

	"github.com/google/uuid"
)

// GoalDirection is whether the tracked value should go up or down.
type GoalDirection string

const (
	GoalIncrease GoalDirection = "increase"
	GoalDecrease GoalDirection = "decrease"
)

// Goal tracks progress of a body metric toward a target, e.g. weight
// loss from an initial value down to a target value.
type Goal struct {
	ID           uuid.UUID     `json:"id"`
	UserID       uuid.UUID     `json:"user_id"`
	Metric       string        `json:"metric"`
	Direction    GoalDirection `json:"direction"`
	InitialValue float64       `json:"initial_value"`
	TargetValue  float64       `json:"target_value"`
	CurrentValue float64       `json:"current_value"`
	CreatedAt    time.Time     `json:"created_at"`
}

// ProgressPct returns how far the current value has moved from initial
// toward target, clamped to 0-100. A degenerate goal (initial equals
// target) counts as complete.
func (g Goal) ProgressPct() float64 {
	span := g.TargetValue - g.InitialValue
	if g.Direction == GoalDecrease {
		span = g.InitialValue - g.TargetValue
	}
	if span <= 0 {
		return 100.0
	}

	moved := g.CurrentValue - g.InitialValue
	if g.Direction == GoalDecrease {
		moved = g.InitialValue - g.CurrentValue
	}

	pct := moved / span * 100.0
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct
}
