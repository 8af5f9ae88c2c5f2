// Package domain holds the core types of the PersonalFit engine:
// gamification state, completion events, daily challenges, dose logs,
// body metrics and derived correlation records.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ─── Gamification State ─────────────────────────────────────────────────────

// GamificationState is the per-user account the ledger mutates.
// Level is a pure projection of XP and is never set independently.
// All mutations go through the account ledger's versioned update.
type GamificationState struct {
	UserID                     uuid.UUID `json:"user_id"`
	XP                         int64     `json:"xp"`
	Level                      int       `json:"level"`
	CurrentStreak              int       `json:"current_streak"`
	LongestStreak              int       `json:"longest_streak"`
	LastActivityDate           time.Time `json:"last_activity_date"` // zero if no activity yet
	Achievements               []string  `json:"achievements"`
	TotalCompletions           int64     `json:"total_completions"`
	TotalPersonalRecords       int64     `json:"total_personal_records"`
	PRsToday                   int       `json:"prs_today"`
	PRsThisWeek                int       `json:"prs_this_week"`
	LastPRDate                 time.Time `json:"last_pr_date"` // zero if no PR yet
	ChallengesCompleted        int64     `json:"challenges_completed"`
	MorningCompletions         int       `json:"morning_completions"`
	AfternoonCompletions       int       `json:"afternoon_completions"`
	EveningCompletions         int       `json:"evening_completions"`
	NightCompletions           int       `json:"night_completions"`
	WeekendCompletions         int       `json:"weekend_completions"`
	Comebacks                  int       `json:"comebacks"`
	PerfectDays                int       `json:"perfect_days"`
	PerfectWeeks               int       `json:"perfect_weeks"`
	Gems                       int64     `json:"gems"`
	TotalGemsEarned            int64     `json:"total_gems_earned"`
	StreakFreezesAvailable     int       `json:"streak_freezes_available"`
	StreakFreezesUsedThisMonth int       `json:"streak_freezes_used_this_month"`
	LastStreakFreezeDate       time.Time `json:"last_streak_freeze_date"` // zero if never used
	Version                    int64     `json:"-"`                       // optimistic concurrency token
	UpdatedAt                  time.Time `json:"updated_at"`
}

// HasAchievement reports whether the given achievement ID is unlocked.
func (s *GamificationState) HasAchievement(id string) bool {
	for _, a := range s.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// NewGamificationState returns a fresh account for a user.
// Created lazily on the first completion event.
func NewGamificationState(userID uuid.UUID, freezeAllowance int) *GamificationState {
	return &GamificationState{
		UserID:                 userID,
		Level:                  1,
		StreakFreezesAvailable: freezeAllowance,
	}
}

// CompletionEvent is a workout or dose completion entering the ledger.
// EventID is the idempotency key: a second delivery with the same ID
// must be a no-op.
type CompletionEvent struct {
	EventID           string    `json:"event_id"`
	UserID            uuid.UUID `json:"user_id"`
	OccurredAt        time.Time `json:"occurred_at"`
	IsFirstCompletion bool      `json:"is_first_completion"`
	HadPersonalRecord bool      `json:"had_personal_record"`
}

// ─── Achievements ───────────────────────────────────────────────────────────

// AchievementCategory groups achievements by theme.
type AchievementCategory string

const (
	CatGettingStarted AchievementCategory = "getting_started"
	CatConsistency    AchievementCategory = "consistency"
	CatMilestones     AchievementCategory = "milestones"
	CatStrength       AchievementCategory = "strength"
	CatDedication     AchievementCategory = "dedication"
)

// AchievementDef defines a single achievement in the static catalog.
type AchievementDef struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Category    AchievementCategory      `json:"category"`
	XPReward    int64                    `json:"xp_reward"`
	GemsReward  int64                    `json:"gems_reward"`
	Predicate   func(StatsSnapshot) bool `json:"-"`
}

// UnlockedAchievement records when an achievement was earned.
type UnlockedAchievement struct {
	ID         string    `json:"id"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// StatsSnapshot is the concrete stats struct fed to achievement
// predicates. Every field has an explicit zero default; there are no
// optional or dynamic fields.
type StatsSnapshot struct {
	TotalCompletions     int64 `json:"total_completions"`
	CurrentStreak        int   `json:"current_streak"`
	LongestStreak        int   `json:"longest_streak"`
	TotalPersonalRecords int64 `json:"total_personal_records"`
	Level                int   `json:"level"`
	TotalXP              int64 `json:"total_xp"`
	ProfileComplete      bool  `json:"profile_complete"`
	PRsThisWeek          int   `json:"prs_this_week"`
	PRsToday             int   `json:"prs_today"`
	ChallengesCompleted  int64 `json:"challenges_completed"`
	PerfectDays          int   `json:"perfect_days"`
	PerfectWeeks         int   `json:"perfect_weeks"`
	MorningCompletions   int   `json:"morning_completions"`
	AfternoonCompletions int   `json:"afternoon_completions"`
	EveningCompletions   int   `json:"evening_completions"`
	NightCompletions     int   `json:"night_completions"`
	WeekendCompletions   int   `json:"weekend_completions"`
	Comebacks            int   `json:"comebacks"`
	TotalGems            int64 `json:"total_gems"`
}

// ─── Rewards ────────────────────────────────────────────────────────────────

// RewardSource labels one line of an XP breakdown.
type RewardSource string

const (
	RewardBase           RewardSource = "base_completion"
	RewardFirstWorkout   RewardSource = "first_workout"
	RewardStreakBonus    RewardSource = "streak_bonus"
	RewardPersonalRecord RewardSource = "personal_record"
)

// RewardLine is one itemized contribution of an XP award.
type RewardLine struct {
	Source RewardSource `json:"source"`
	Amount int64        `json:"amount"`
}

// RewardResult is the summed total plus the ordered breakdown, kept for
// user-facing display.
type RewardResult struct {
	Total     int64        `json:"total"`
	Breakdown []RewardLine `json:"breakdown"`
}
