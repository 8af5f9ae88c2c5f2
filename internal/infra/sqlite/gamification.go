package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Poolchaos/personalfit/internal/domain"
)

// ─── Gamification State ─────────────────────────────────────────────────────

const stateColumns = `user_id, xp, level, current_streak, longest_streak, last_activity_at,
	achievements, total_completions, total_prs, prs_today, prs_week, last_pr_at, challenges_completed,
	morning_completions, afternoon_completions, evening_completions, night_completions,
	weekend_completions, comebacks, perfect_days, perfect_weeks, gems, total_gems_earned,
	freezes_available, freezes_used_month, last_freeze_at, version, updated_at`

// GetState returns the user's gamification state, or (nil, nil) when no
// row exists.
func (d *DB) GetState(ctx context.Context, userID uuid.UUID) (*domain.GamificationState, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+stateColumns+` FROM gamification_state WHERE user_id = ?`, userID.String())
	return scanState(row)
}

// EnsureState creates the user's state row if missing. Losing the
// insert race to a concurrent caller is fine; the existing row wins.
func (d *DB) EnsureState(ctx context.Context, st *domain.GamificationState) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO gamification_state
		 (user_id, level, achievements, freezes_available, version, updated_at)
		 VALUES (?, ?, '[]', ?, 0, ?)`,
		st.UserID.String(), st.Level, st.StreakFreezesAvailable, st.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("ensure state: %w", err)
	}
	return nil
}

// ApplyCredit writes st under the event's idempotency key in one
// transaction. The key insert and the version-conditional update commit
// or roll back together, so a credit can never land twice and never
// lands over a concurrent mutation.
func (d *DB) ApplyCredit(ctx context.Context, eventID string, st *domain.GamificationState, expectedVersion int64) (applied bool, duplicate bool, err error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return false, false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO credited_events (event_id, user_id, credited_at)
		 VALUES (?, ?, ?)`,
		eventID, st.UserID.String(), time.Now().Unix())
	if err != nil {
		return false, false, fmt.Errorf("record event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, true, nil
	}

	achJSON, err := json.Marshal(st.Achievements)
	if err != nil {
		return false, false, fmt.Errorf("encode achievements: %w", err)
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE gamification_state SET
			xp = ?, level = ?, current_streak = ?, longest_streak = ?, last_activity_at = ?,
			achievements = ?, total_completions = ?, total_prs = ?, prs_today = ?, prs_week = ?, last_pr_at = ?, challenges_completed = ?,
			morning_completions = ?, afternoon_completions = ?, evening_completions = ?, night_completions = ?,
			weekend_completions = ?, comebacks = ?, perfect_days = ?, perfect_weeks = ?, gems = ?, total_gems_earned = ?,
			freezes_available = ?, freezes_used_month = ?, last_freeze_at = ?,
			version = version + 1, updated_at = ?
		 WHERE user_id = ? AND version = ?`,
		st.XP, st.Level, st.CurrentStreak, st.LongestStreak, nullableUnix(st.LastActivityDate),
		string(achJSON), st.TotalCompletions, st.TotalPersonalRecords, st.PRsToday, st.PRsThisWeek, nullableUnix(st.LastPRDate), st.ChallengesCompleted,
		st.MorningCompletions, st.AfternoonCompletions, st.EveningCompletions, st.NightCompletions,
		st.WeekendCompletions, st.Comebacks, st.PerfectDays, st.PerfectWeeks, st.Gems, st.TotalGemsEarned,
		st.StreakFreezesAvailable, st.StreakFreezesUsedThisMonth, nullableUnix(st.LastStreakFreezeDate),
		st.UpdatedAt.Unix(), st.UserID.String(), expectedVersion)
	if err != nil {
		return false, false, fmt.Errorf("update state: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Version moved underneath us. Roll the key insert back too so
		// the caller's retry can credit the event cleanly.
		return false, false, nil
	}

	if err := tx.Commit(); err != nil {
		return false, false, fmt.Errorf("commit: %w", err)
	}
	return true, false, nil
}

func scanState(s scanner) (*domain.GamificationState, error) {
	var st domain.GamificationState
	var userID, achJSON string
	var lastActivity, lastPR, lastFreeze sql.NullInt64
	var updatedAt int64

	err := s.Scan(&userID, &st.XP, &st.Level, &st.CurrentStreak, &st.LongestStreak, &lastActivity,
		&achJSON, &st.TotalCompletions, &st.TotalPersonalRecords, &st.PRsToday, &st.PRsThisWeek, &lastPR, &st.ChallengesCompleted,
		&st.MorningCompletions, &st.AfternoonCompletions, &st.EveningCompletions, &st.NightCompletions,
		&st.WeekendCompletions, &st.Comebacks, &st.PerfectDays, &st.PerfectWeeks, &st.Gems, &st.TotalGemsEarned,
		&st.StreakFreezesAvailable, &st.StreakFreezesUsedThisMonth, &lastFreeze, &st.Version, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil // Not found, no error
	}
	if err != nil {
		return nil, err
	}

	st.UserID, err = uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	if err := json.Unmarshal([]byte(achJSON), &st.Achievements); err != nil {
		return nil, fmt.Errorf("decode achievements: %w", err)
	}
	if lastActivity.Valid {
		st.LastActivityDate = time.Unix(lastActivity.Int64, 0)
	}
	if lastPR.Valid {
		st.LastPRDate = time.Unix(lastPR.Int64, 0)
	}
	if lastFreeze.Valid {
		st.LastStreakFreezeDate = time.Unix(lastFreeze.Int64, 0)
	}
	st.UpdatedAt = time.Unix(updatedAt, 0)
	return &st, nil
}

func nullableUnix(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}
