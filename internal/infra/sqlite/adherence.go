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

// ─── Medications ────────────────────────────────────────────────────────────

// UpsertMedication inserts or updates a medication.
func (d *DB) UpsertMedication(ctx context.Context, med *domain.Medication) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO medications (id, user_id, name, dosage) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name=excluded.name, dosage=excluded.dosage`,
		med.ID.String(), med.UserID.String(), med.Name, med.Dosage)
	return err
}

// GetMedication returns one of the user's medications, or (nil, nil)
// when absent.
func (d *DB) GetMedication(ctx context.Context, userID, medicationID uuid.UUID) (*domain.Medication, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, dosage FROM medications WHERE id = ? AND user_id = ?`,
		medicationID.String(), userID.String())

	var med domain.Medication
	var id, uid string
	err := row.Scan(&id, &uid, &med.Name, &med.Dosage)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if med.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse medication id: %w", err)
	}
	if med.UserID, err = uuid.Parse(uid); err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	return &med, nil
}

// ListMedications returns the user's medications ordered by name.
func (d *DB) ListMedications(ctx context.Context, userID uuid.UUID) ([]domain.Medication, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, user_id, name, dosage FROM medications WHERE user_id = ? ORDER BY name`,
		userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meds []domain.Medication
	for rows.Next() {
		var med domain.Medication
		var id, uid string
		if err := rows.Scan(&id, &uid, &med.Name, &med.Dosage); err != nil {
			return nil, err
		}
		if med.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse medication id: %w", err)
		}
		if med.UserID, err = uuid.Parse(uid); err != nil {
			return nil, fmt.Errorf("parse user id: %w", err)
		}
		meds = append(meds, med)
	}
	return meds, rows.Err()
}

// ─── Dose Logs ──────────────────────────────────────────────────────────────

// InsertDoseLog records one scheduled dose outcome.
func (d *DB) InsertDoseLog(ctx context.Context, lg *domain.DoseLogEntry) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO dose_logs (id, user_id, medication_id, scheduled_time, taken_at, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		lg.ID.String(), lg.UserID.String(), lg.MedicationID.String(),
		lg.ScheduledTime.Unix(), nullableUnix(lg.TakenAt), string(lg.Status))
	return err
}

// ListDoseLogs returns the user's dose logs with scheduled times in
// [from, to), oldest first.
func (d *DB) ListDoseLogs(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.DoseLogEntry, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, user_id, medication_id, scheduled_time, taken_at, status
		 FROM dose_logs
		 WHERE user_id = ? AND scheduled_time >= ? AND scheduled_time < ?
		 ORDER BY scheduled_time`,
		userID.String(), from.Unix(), to.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []domain.DoseLogEntry
	for rows.Next() {
		var lg domain.DoseLogEntry
		var id, uid, mid, status string
		var scheduled int64
		var takenAt sql.NullInt64
		if err := rows.Scan(&id, &uid, &mid, &scheduled, &takenAt, &status); err != nil {
			return nil, err
		}
		if lg.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse dose log id: %w", err)
		}
		if lg.UserID, err = uuid.Parse(uid); err != nil {
			return nil, fmt.Errorf("parse user id: %w", err)
		}
		if lg.MedicationID, err = uuid.Parse(mid); err != nil {
			return nil, fmt.Errorf("parse medication id: %w", err)
		}
		lg.ScheduledTime = time.Unix(scheduled, 0)
		if takenAt.Valid {
			lg.TakenAt = time.Unix(takenAt.Int64, 0)
		}
		lg.Status = domain.DoseStatus(status)
		logs = append(logs, lg)
	}
	return logs, rows.Err()
}

// ─── Body Metric Samples ────────────────────────────────────────────────────

// InsertMetricSample records one body-metric measurement.
func (d *DB) InsertMetricSample(ctx context.Context, smp *domain.BodyMetricSample) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO body_metric_samples (id, user_id, date, metric, value)
		 VALUES (?, ?, ?, ?, ?)`,
		smp.ID.String(), smp.UserID.String(), smp.Date, smp.Metric, smp.Value)
	return err
}

// ListMetricSamples returns the user's samples of one metric with dates
// in [from, to), oldest first. Dates compare as YYYY-MM-DD strings.
func (d *DB) ListMetricSamples(ctx context.Context, userID uuid.UUID, metric string, from, to time.Time) ([]domain.BodyMetricSample, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, user_id, date, metric, value
		 FROM body_metric_samples
		 WHERE user_id = ? AND metric = ? AND date >= ? AND date < ?
		 ORDER BY date`,
		userID.String(), metric, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []domain.BodyMetricSample
	for rows.Next() {
		var smp domain.BodyMetricSample
		var id, uid string
		if err := rows.Scan(&id, &uid, &smp.Date, &smp.Metric, &smp.Value); err != nil {
			return nil, err
		}
		if smp.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse sample id: %w", err)
		}
		if smp.UserID, err = uuid.Parse(uid); err != nil {
			return nil, fmt.Errorf("parse user id: %w", err)
		}
		samples = append(samples, smp)
	}
	return samples, rows.Err()
}

// ─── Correlation Records ────────────────────────────────────────────────────

// UpsertCorrelation fully replaces the record for its
// (user, medication, metric) triple.
func (d *DB) UpsertCorrelation(ctx context.Context, rec *domain.CorrelationRecord) error {
	obsJSON, err := json.Marshal(rec.Observations)
	if err != nil {
		return fmt.Errorf("encode observations: %w", err)
	}
	_, err = d.db.ExecContext(ctx,
		`INSERT INTO correlation_records
		 (user_id, medication_id, metric, coefficient, direction, confidence, data_points, observations, sample_period_days, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, medication_id, metric) DO UPDATE SET
			coefficient=excluded.coefficient,
			direction=excluded.direction,
			confidence=excluded.confidence,
			data_points=excluded.data_points,
			observations=excluded.observations,
			sample_period_days=excluded.sample_period_days,
			updated_at=excluded.updated_at`,
		rec.UserID.String(), rec.MedicationID.String(), rec.Metric,
		rec.Coefficient, string(rec.Direction), string(rec.Confidence),
		rec.DataPoints, string(obsJSON), rec.SamplePeriodDays, rec.UpdatedAt.Unix())
	return err
}

// ListCorrelations returns the user's correlation records, strongest
// magnitude first.
func (d *DB) ListCorrelations(ctx context.Context, userID uuid.UUID) ([]domain.CorrelationRecord, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT user_id, medication_id, metric, coefficient, direction, confidence, data_points, observations, sample_period_days, updated_at
		 FROM correlation_records WHERE user_id = ? ORDER BY ABS(coefficient) DESC`,
		userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []domain.CorrelationRecord
	for rows.Next() {
		var rec domain.CorrelationRecord
		var uid, mid, direction, confidence, obsJSON string
		var updatedAt int64
		err := rows.Scan(&uid, &mid, &rec.Metric, &rec.Coefficient, &direction, &confidence,
			&rec.DataPoints, &obsJSON, &rec.SamplePeriodDays, &updatedAt)
		if err != nil {
			return nil, err
		}
		if rec.UserID, err = uuid.Parse(uid); err != nil {
			return nil, fmt.Errorf("parse user id: %w", err)
		}
		if rec.MedicationID, err = uuid.Parse(mid); err != nil {
			return nil, fmt.Errorf("parse medication id: %w", err)
		}
		rec.Direction = domain.ImpactDirection(direction)
		rec.Confidence = domain.ConfidenceLevel(confidence)
		if err := json.Unmarshal([]byte(obsJSON), &rec.Observations); err != nil {
			return nil, fmt.Errorf("decode observations: %w", err)
		}
		rec.UpdatedAt = time.Unix(updatedAt, 0)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// ListAnalysisTargets enumerates every (user, medication, metric) triple
// that has both a medication and metric samples on record. Batch
// correlation runs iterate this set.
func (d *DB) ListAnalysisTargets(ctx context.Context) ([]domain.AnalysisTarget, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT DISTINCT m.user_id, m.id, s.metric
		 FROM medications m
		 JOIN body_metric_samples s ON s.user_id = m.user_id
		 ORDER BY m.user_id, m.id, s.metric`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []domain.AnalysisTarget
	for rows.Next() {
		var t domain.AnalysisTarget
		var uid, mid string
		if err := rows.Scan(&uid, &mid, &t.Metric); err != nil {
			return nil, err
		}
		if t.UserID, err = uuid.Parse(uid); err != nil {
			return nil, fmt.Errorf("parse user id: %w", err)
		}
		if t.MedicationID, err = uuid.Parse(mid); err != nil {
			return nil, fmt.Errorf("parse medication id: %w", err)
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}
