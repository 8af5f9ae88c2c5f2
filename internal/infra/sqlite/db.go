// Package sqlite provides SQLite-based persistent storage for
// PersonalFit. Uses WAL mode for concurrent reads and crash-safe
// writes.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/state.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "state.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		// Gamification state, one row per user. The version column
		// backs the ledger's optimistic concurrency; achievements are
		// a JSON array in unlock order.
		`CREATE TABLE IF NOT EXISTS gamification_state (
			user_id               TEXT PRIMARY KEY,
			xp                    INTEGER NOT NULL DEFAULT 0,
			level                 INTEGER NOT NULL DEFAULT 1,
			current_streak        INTEGER NOT NULL DEFAULT 0,
			longest_streak        INTEGER NOT NULL DEFAULT 0,
			last_activity_at      INTEGER,
			achievements          TEXT NOT NULL DEFAULT '[]',
			total_completions     INTEGER NOT NULL DEFAULT 0,
			total_prs             INTEGER NOT NULL DEFAULT 0,
			prs_today             INTEGER NOT NULL DEFAULT 0,
			prs_week              INTEGER NOT NULL DEFAULT 0,
			last_pr_at            INTEGER,
			challenges_completed  INTEGER NOT NULL DEFAULT 0,
			morning_completions   INTEGER NOT NULL DEFAULT 0,
			afternoon_completions INTEGER NOT NULL DEFAULT 0,
			evening_completions   INTEGER NOT NULL DEFAULT 0,
			night_completions     INTEGER NOT NULL DEFAULT 0,
			weekend_completions   INTEGER NOT NULL DEFAULT 0,
			comebacks             INTEGER NOT NULL DEFAULT 0,
			perfect_days          INTEGER NOT NULL DEFAULT 0,
			perfect_weeks         INTEGER NOT NULL DEFAULT 0,
			gems                  INTEGER NOT NULL DEFAULT 0,
			total_gems_earned     INTEGER NOT NULL DEFAULT 0,
			freezes_available     INTEGER NOT NULL DEFAULT 0,
			freezes_used_month    INTEGER NOT NULL DEFAULT 0,
			last_freeze_at        INTEGER,
			version               INTEGER NOT NULL DEFAULT 0,
			updated_at            INTEGER NOT NULL DEFAULT 0
		)`,

		// Idempotency keys for applied credits.
		`CREATE TABLE IF NOT EXISTS credited_events (
			event_id    TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			credited_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_credited_user ON credited_events(user_id)`,

		// Daily challenge sets and their three instances.
		`CREATE TABLE IF NOT EXISTS daily_challenge_sets (
			user_id            TEXT NOT NULL,
			date               TEXT NOT NULL,
			streak_freeze_used BOOLEAN NOT NULL DEFAULT 0,
			gems_earned_today  INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, date)
		)`,
		`CREATE TABLE IF NOT EXISTS challenge_instances (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL,
			date         TEXT NOT NULL,
			position     INTEGER NOT NULL,
			template_id  TEXT NOT NULL,
			category     TEXT NOT NULL,
			title        TEXT NOT NULL,
			description  TEXT NOT NULL,
			target       INTEGER NOT NULL,
			progress     INTEGER NOT NULL DEFAULT 0,
			completed    BOOLEAN NOT NULL DEFAULT 0,
			completed_at INTEGER,
			xp_reward    INTEGER NOT NULL,
			gems_reward  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_instances_set ON challenge_instances(user_id, date)`,

		// Medication tracking (read side of the analytics).
		`CREATE TABLE IF NOT EXISTS medications (
			id      TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name    TEXT NOT NULL,
			dosage  TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_medications_user ON medications(user_id)`,

		`CREATE TABLE IF NOT EXISTS dose_logs (
			id             TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL,
			medication_id  TEXT NOT NULL,
			scheduled_time INTEGER NOT NULL,
			taken_at       INTEGER,
			status         TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_dose_logs_user_time ON dose_logs(user_id, scheduled_time)`,

		`CREATE TABLE IF NOT EXISTS body_metric_samples (
			id      TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			date    TEXT NOT NULL,
			metric  TEXT NOT NULL,
			value   REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_metric_samples ON body_metric_samples(user_id, metric, date)`,

		// Body metric goals. current_value follows the latest sample
		// for the goal's metric.
		`CREATE TABLE IF NOT EXISTS goals (
			id            TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL,
			metric        TEXT NOT NULL,
			direction     TEXT NOT NULL,
			initial_value REAL NOT NULL,
			target_value  REAL NOT NULL,
			current_value REAL NOT NULL,
			created_at    INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_goals_user ON goals(user_id)`,

		// Derived correlation records, fully replaced per run.
		`CREATE TABLE IF NOT EXISTS correlation_records (
			user_id            TEXT NOT NULL,
			medication_id      TEXT NOT NULL,
			metric             TEXT NOT NULL,
			coefficient        REAL NOT NULL,
			direction          TEXT NOT NULL,
			confidence         TEXT NOT NULL,
			data_points        INTEGER NOT NULL,
			observations       TEXT NOT NULL DEFAULT '[]',
			sample_period_days INTEGER NOT NULL,
			updated_at         INTEGER NOT NULL,
			PRIMARY KEY (user_id, medication_id, metric)
		)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
