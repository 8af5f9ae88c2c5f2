package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Poolchaos/personalfit/internal/domain"
)

// UpsertGoal inserts or fully replaces a goal by ID.
func (d *DB) UpsertGoal(ctx context.Context, g *domain.Goal) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO goals (id, user_id, metric, direction, initial_value, target_value, current_value, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			metric=excluded.metric,
			direction=excluded.direction,
			initial_value=excluded.initial_value,
			target_value=excluded.target_value,
			current_value=excluded.current_value`,
		g.ID.String(), g.UserID.String(), g.Metric, string(g.Direction),
		g.InitialValue, g.TargetValue, g.CurrentValue, g.CreatedAt.Unix())
	return err
}

// ListGoals returns the user's goals, oldest first.
func (d *DB) ListGoals(ctx context.Context, userID uuid.UUID) ([]domain.Goal, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, user_id, metric, direction, initial_value, target_value, current_value, created_at
		 FROM goals WHERE user_id = ? ORDER BY created_at, id`,
		userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []domain.Goal
	for rows.Next() {
		var g domain.Goal
		var id, uid, direction string
		var createdAt int64
		err := rows.Scan(&id, &uid, &g.Metric, &direction,
			&g.InitialValue, &g.TargetValue, &g.CurrentValue, &createdAt)
		if err != nil {
			return nil, err
		}
		if g.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse goal id: %w", err)
		}
		if g.UserID, err = uuid.Parse(uid); err != nil {
			return nil, fmt.Errorf("parse user id: %w", err)
		}
		g.Direction = domain.GoalDirection(direction)
		g.CreatedAt = time.Unix(createdAt, 0)
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// UpdateGoalCurrent moves current_value for every goal of the user
// tracking the given metric. Called when a new sample comes in.
func (d *DB) UpdateGoalCurrent(ctx context.Context, userID uuid.UUID, metric string, value float64) error {
	_, err := d.db.ExecContext(ctx,
		`UPDATE goals SET current_value = ? WHERE user_id = ? AND metric = ?`,
		value, userID.String(), metric)
	return err
}
