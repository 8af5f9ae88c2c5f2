package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Poolchaos/personalfit/internal/domain"
)

// ─── Daily Challenge Sets ───────────────────────────────────────────────────

// GetSet returns the user's challenge set for the date, instances in
// selection order, or (nil, nil) when no set exists.
func (d *DB) GetSet(ctx context.Context, userID uuid.UUID, date string) (*domain.DailyChallengeSet, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT streak_freeze_used, gems_earned_today
		 FROM daily_challenge_sets WHERE user_id = ? AND date = ?`,
		userID.String(), date)

	set := &domain.DailyChallengeSet{UserID: userID, Date: date}
	err := row.Scan(&set.StreakFreezeUsed, &set.GemsEarnedToday)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT id, template_id, category, title, description, target, progress, completed, completed_at, xp_reward, gems_reward
		 FROM challenge_instances WHERE user_id = ? AND date = ? ORDER BY position`,
		userID.String(), date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var inst domain.ChallengeInstance
		var completedAt sql.NullInt64
		err := rows.Scan(&inst.ID, &inst.TemplateID, &inst.Category, &inst.Title, &inst.Description,
			&inst.Target, &inst.Progress, &inst.Completed, &completedAt, &inst.XPReward, &inst.GemsReward)
		if err != nil {
			return nil, err
		}
		if completedAt.Valid {
			inst.CompletedAt = time.Unix(completedAt.Int64, 0)
		}
		set.Challenges = append(set.Challenges, inst)
	}
	return set, rows.Err()
}

// CreateSet inserts the set and its instances if absent. A lost race
// against a concurrent creator is silent; the selection is
// deterministic so both computed the same rows.
func (d *DB) CreateSet(ctx context.Context, set *domain.DailyChallengeSet) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_challenge_sets (user_id, date, streak_freeze_used, gems_earned_today)
		 VALUES (?, ?, 0, 0)`,
		set.UserID.String(), set.Date)
	if err != nil {
		return fmt.Errorf("insert set: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}

	for i, inst := range set.Challenges {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO challenge_instances
			 (id, user_id, date, position, template_id, category, title, description, target, progress, completed, completed_at, xp_reward, gems_reward)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, NULL, ?, ?)`,
			inst.ID, set.UserID.String(), set.Date, i, inst.TemplateID, string(inst.Category),
			inst.Title, inst.Description, inst.Target, inst.XPReward, inst.GemsReward)
		if err != nil {
			return fmt.Errorf("insert instance %s: %w", inst.ID, err)
		}
	}
	return tx.Commit()
}

// SetProgress records non-completing progress on one instance.
func (d *DB) SetProgress(ctx context.Context, instanceID string, progress int) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE challenge_instances SET progress = ? WHERE id = ? AND completed = 0`,
		progress, instanceID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrChallengeNotFound
	}
	return nil
}

// CompleteInstance marks the instance completed and bumps the set's
// gems counter in one transaction, conditional on the instance not
// already being completed. won reports whether this call made the
// transition; a false return with nil error means a concurrent caller
// beat us to it.
func (d *DB) CompleteInstance(ctx context.Context, instanceID string, progress int, at time.Time, gems int64) (bool, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE challenge_instances
		 SET progress = ?, completed = 1, completed_at = ?
		 WHERE id = ? AND completed = 0`,
		progress, at.Unix(), instanceID)
	if err != nil {
		return false, fmt.Errorf("complete instance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE daily_challenge_sets
		 SET gems_earned_today = gems_earned_today + ?
		 WHERE (user_id, date) = (SELECT user_id, date FROM challenge_instances WHERE id = ?)`,
		gems, instanceID)
	if err != nil {
		return false, fmt.Errorf("bump gems: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}
