// Package engagement implements the PersonalFit gamification engine:
// the leveling curve, streak continuity, XP reward breakdowns, the
// achievement catalog, and the account ledger that applies credits.
package engagement

import "time"

// StreakResult is the outcome of applying one activity to a streak.
type StreakResult struct {
	Streak     int
	Broken     bool
	FreezeUsed bool
	SameDay    bool
}

// dayNumber collapses a timestamp to a calendar-day ordinal in the
// given location. Day arithmetic on ordinals avoids DST edge cases that
// Sub-based math is prone to.
func dayNumber(t time.Time, loc *time.Location) int {
	y, m, d := t.In(loc).Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// UpdateStreak applies one activity at 'now' to a streak whose previous
// activity was at 'last' (zero time if none). Dates are compared at day
// granularity in loc. Rule: the streak extends only on the exact next
// calendar day; any larger gap resets it. Zero or negative gaps (clock
// skew, out-of-order delivery) are treated as same-day no-ops.
func UpdateStreak(last, now time.Time, current int, loc *time.Location) StreakResult {
	if last.IsZero() {
		return StreakResult{Streak: 1}
	}

	gap := dayNumber(now, loc) - dayNumber(last, loc)
	switch {
	case gap <= 0:
		// Same day, or an event delivered out of order. Idempotent.
		return StreakResult{Streak: current, SameDay: true}
	case gap == 1:
		return StreakResult{Streak: current + 1}
	default:
		return StreakResult{Streak: 1, Broken: true}
	}
}

// UpdateStreakWithFreeze is UpdateStreak, except a gap that missed
// exactly one day can be absorbed by a streak freeze when one is
// available. The consumed freeze is reported, not deducted here; the
// ledger owns the state mutation.
func UpdateStreakWithFreeze(last, now time.Time, current int, freezesAvailable int, loc *time.Location) StreakResult {
	res := UpdateStreak(last, now, current, loc)
	if !res.Broken {
		return res
	}

	gap := dayNumber(now, loc) - dayNumber(last, loc)
	if gap == 2 && freezesAvailable > 0 {
		return StreakResult{Streak: current + 1, FreezeUsed: true}
	}
	return res
}
