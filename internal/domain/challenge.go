package domain

import (
	"time"

	"github.com/google/uuid"
)

// ─── Daily Challenge Types ──────────────────────────────────────────────────

// ChallengeCategory partitions the template pool.
type ChallengeCategory string

const (
	ChalWorkout     ChallengeCategory = "workout"
	ChalExercise    ChallengeCategory = "exercise"
	ChalStreak      ChallengeCategory = "streak"
	ChalExploration ChallengeCategory = "exploration"
)

// ChallengeTemplate defines one entry of the static challenge pool.
type ChallengeTemplate struct {
	ID          string            `json:"id"`
	Category    ChallengeCategory `json:"category"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Target      int               `json:"target"`
	XPReward    int64             `json:"xp_reward"`
	GemsReward  int64             `json:"gems_reward"`
}

// ChallengeInstance is one of a user's three daily challenges.
// State machine: pending (progress < target) to completed, one way.
type ChallengeInstance struct {
	ID          string            `json:"id"`
	TemplateID  string            `json:"template_id"`
	Category    ChallengeCategory `json:"category"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Target      int               `json:"target"`
	Progress    int               `json:"progress"`
	Completed   bool              `json:"completed"`
	CompletedAt time.Time         `json:"completed_at"` // zero until completed
	XPReward    int64             `json:"xp_reward"`
	GemsReward  int64             `json:"gems_reward"`
}

// ProgressPct returns completion percentage (0-100).
func (c ChallengeInstance) ProgressPct() float64 {
	if c.Target <= 0 {
		return 100.0
	}
	pct := float64(c.Progress) / float64(c.Target) * 100.0
	if pct > 100.0 {
		pct = 100.0
	}
	return pct
}

// DailyChallengeSet is one user's challenge set for one calendar date.
// Created lazily on first access; recomputing the selection for the same
// (user, date) pair reproduces the identical set.
type DailyChallengeSet struct {
	UserID           uuid.UUID           `json:"user_id"`
	Date             string              `json:"date"` // YYYY-MM-DD in the reference zone
	Challenges       []ChallengeInstance `json:"challenges"`
	StreakFreezeUsed bool                `json:"streak_freeze_used"`
	GemsEarnedToday  int64               `json:"gems_earned_today"`
}
