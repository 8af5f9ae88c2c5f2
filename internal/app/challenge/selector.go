// Package challenge selects and tracks a user's three daily challenges.
//
// Selection is deterministic per (user, date): the same pair always
// yields the same ordered set, so the set can be recomputed before it
// is first persisted without drift.
package challenge

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Poolchaos/personalfit/internal/domain"
)

// dailyCount is the number of challenges selected per user per day.
const dailyCount = 3

// categoryOrder is the fixed rotation the selector cycles through,
// offset by the seed. Exploration joins the rotation every fourth day
// slot via the offset.
var categoryOrder = []domain.ChallengeCategory{
	domain.ChalWorkout,
	domain.ChalExercise,
	domain.ChalStreak,
	domain.ChalExploration,
}

// pool is the static challenge template pool.
var pool = []domain.ChallengeTemplate{
	// workout
	{ID: "complete_workout", Category: domain.ChalWorkout, Title: "Daily Grind", Description: "Complete 1 workout today", Target: 1, XPReward: 50, GemsReward: 5},
	{ID: "double_session", Category: domain.ChalWorkout, Title: "Double Down", Description: "Complete 2 workouts today", Target: 2, XPReward: 120, GemsReward: 12},
	{ID: "long_session", Category: domain.ChalWorkout, Title: "Marathon Mode", Description: "Train for 45 minutes total", Target: 45, XPReward: 80, GemsReward: 8},
	{ID: "early_bird", Category: domain.ChalWorkout, Title: "Early Bird", Description: "Finish a workout before 9am", Target: 1, XPReward: 60, GemsReward: 6},
	// exercise
	{ID: "squat_volume", Category: domain.ChalExercise, Title: "Leg Day", Description: "Log 30 squat reps", Target: 30, XPReward: 60, GemsReward: 6},
	{ID: "push_volume", Category: domain.ChalExercise, Title: "Push It", Description: "Log 40 push reps", Target: 40, XPReward: 60, GemsReward: 6},
	{ID: "pull_volume", Category: domain.ChalExercise, Title: "Pull Power", Description: "Log 25 pull reps", Target: 25, XPReward: 60, GemsReward: 6},
	{ID: "core_volume", Category: domain.ChalExercise, Title: "Core Crusher", Description: "Log 50 core reps", Target: 50, XPReward: 55, GemsReward: 5},
	{ID: "new_pr", Category: domain.ChalExercise, Title: "Record Breaker", Description: "Set 1 personal record", Target: 1, XPReward: 100, GemsReward: 10},
	// streak
	{ID: "keep_streak", Category: domain.ChalStreak, Title: "Keep It Alive", Description: "Extend your activity streak", Target: 1, XPReward: 40, GemsReward: 4},
	{ID: "perfect_doses", Category: domain.ChalStreak, Title: "Right On Time", Description: "Take every scheduled dose today", Target: 1, XPReward: 70, GemsReward: 7},
	{ID: "log_metrics", Category: domain.ChalStreak, Title: "Check In", Description: "Log a body metric today", Target: 1, XPReward: 30, GemsReward: 3},
	// exploration
	{ID: "try_exercise", Category: domain.ChalExploration, Title: "Something New", Description: "Try an exercise you have never logged", Target: 1, XPReward: 80, GemsReward: 8},
	{ID: "browse_insights", Category: domain.ChalExploration, Title: "Know Thyself", Description: "Review your adherence insights", Target: 1, XPReward: 25, GemsReward: 2},
	{ID: "share_progress", Category: domain.ChalExploration, Title: "Show Off", Description: "Share a completed workout", Target: 1, XPReward: 35, GemsReward: 3},
}

// Pool returns the static template pool.
func Pool() []domain.ChallengeTemplate {
	out := make([]domain.ChallengeTemplate, len(pool))
	copy(out, pool)
	return out
}

// seedFor derives the selection seed with FNV-1a 32-bit over
// "userID|date". FNV-1a is fully specified (offset basis 2166136261,
// prime 16777619, xor byte then multiply, 32-bit wraparound) so any
// client can reproduce the selection.
func seedFor(userID uuid.UUID, date string) uint32 {
	const (
		offsetBasis uint32 = 2166136261
		prime       uint32 = 16777619
	)
	h := offsetBasis
	for _, b := range []byte(userID.String() + "|" + date) {
		h ^= uint32(b)
		h *= prime
	}
	return h
}

// nextRand advances the seed with a 32-bit linear congruential
// generator (Numerical Recipes constants 1664525 and 1013904223).
func nextRand(seed uint32) uint32 {
	return seed*1664525 + 1013904223
}

// SelectDaily picks exactly three challenges for the user and ISO date
// (YYYY-MM-DD). One per category, cycling through the fixed category
// order starting at an offset derived from the seed, falling back to
// any unselected template when a category is exhausted. Deterministic:
// the same (userID, date) always returns the identical ordered set.
func SelectDaily(userID uuid.UUID, date string) []domain.ChallengeInstance {
	seed := seedFor(userID, date)
	offset := int(seed % uint32(len(categoryOrder)))

	byCategory := make(map[domain.ChallengeCategory][]domain.ChallengeTemplate, len(categoryOrder))
	for _, t := range pool {
		byCategory[t.Category] = append(byCategory[t.Category], t)
	}

	taken := make(map[string]bool, dailyCount)
	out := make([]domain.ChallengeInstance, 0, dailyCount)

	for i := 0; i < dailyCount; i++ {
		cat := categoryOrder[(offset+i)%len(categoryOrder)]
		seed = nextRand(seed)

		tpl, ok := pickFrom(byCategory[cat], seed, taken)
		if !ok {
			// Category exhausted: fall back to the whole pool.
			tpl, ok = pickFrom(pool, seed, taken)
		}
		if !ok {
			break
		}
		taken[tpl.ID] = true
		out = append(out, instantiate(userID, date, tpl))
	}
	return out
}

// pickFrom selects the first unselected template starting at the
// seeded index, scanning forward with wraparound.
func pickFrom(tpls []domain.ChallengeTemplate, seed uint32, taken map[string]bool) (domain.ChallengeTemplate, bool) {
	if len(tpls) == 0 {
		return domain.ChallengeTemplate{}, false
	}
	start := int(seed % uint32(len(tpls)))
	for i := 0; i < len(tpls); i++ {
		t := tpls[(start+i)%len(tpls)]
		if !taken[t.ID] {
			return t, true
		}
	}
	return domain.ChallengeTemplate{}, false
}

func instantiate(userID uuid.UUID, date string, t domain.ChallengeTemplate) domain.ChallengeInstance {
	return domain.ChallengeInstance{
		ID:          fmt.Sprintf("%s:%s:%s", userID.String(), date, t.ID),
		TemplateID:  t.ID,
		Category:    t.Category,
		Title:       t.Title,
		Description: t.Description,
		Target:      t.Target,
		XPReward:    t.XPReward,
		GemsReward:  t.GemsReward,
	}
}
