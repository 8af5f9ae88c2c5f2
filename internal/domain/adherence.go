package domain

import (
	"time"

	"github.com/google/uuid"
)

// ─── Medication / Dose Types ────────────────────────────────────────────────

// DoseStatus is the outcome of a scheduled dose.
type DoseStatus string

const (
	DoseTaken   DoseStatus = "taken"
	DoseMissed  DoseStatus = "missed"
	DoseSkipped DoseStatus = "skipped"
)

// Medication is a tracked prescription.
type Medication struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	Dosage string    `json:"dosage"`
}

// DoseLogEntry records one scheduled dose and its outcome. Read-only
// from the analytics side.
type DoseLogEntry struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	MedicationID  uuid.UUID  `json:"medication_id"`
	ScheduledTime time.Time  `json:"scheduled_time"`
	TakenAt       time.Time  `json:"taken_at"` // zero unless taken
	Status        DoseStatus `json:"status"`
}

// BodyMetricSample is one measured value of a named metric on a date.
type BodyMetricSample struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	Date   string    `json:"date"` // YYYY-MM-DD
	Metric string    `json:"metric"`
	Value  float64   `json:"value"`
}

// ─── Adherence Aggregates ───────────────────────────────────────────────────

// DayAdherence summarizes one calendar day of dose logs.
type DayAdherence struct {
	Date    string `json:"date"`
	Taken   int    `json:"taken"`
	Missed  int    `json:"missed"`
	Skipped int    `json:"skipped"`
	Total   int    `json:"total"`
	Percent int    `json:"percent"` // 0 when no doses were scheduled
}

// MedicationAdherence summarizes adherence for one medication over a window.
type MedicationAdherence struct {
	MedicationID uuid.UUID `json:"medication_id"`
	Name         string    `json:"name"`
	Taken        int       `json:"taken"`
	Total        int       `json:"total"`
	Percent      int       `json:"percent"`
}

// AdherenceStreak holds the current and longest perfect-day runs.
// A perfect day has at least 80% adherence among days with at least one
// scheduled dose; zero-dose days are skipped, not breakers.
type AdherenceStreak struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// InsightSeverity tags an adherence insight.
type InsightSeverity string

const (
	SeverityInfo    InsightSeverity = "info"
	SeverityWarning InsightSeverity = "warning"
	SeveritySuccess InsightSeverity = "success"
)

// Insight is one human-readable adherence observation.
type Insight struct {
	Severity InsightSeverity `json:"severity"`
	Message  string          `json:"message"`
}

// ─── Correlation Types ──────────────────────────────────────────────────────

// ImpactDirection classifies the sign of a correlation.
type ImpactDirection string

const (
	ImpactPositive ImpactDirection = "positive"
	ImpactNegative ImpactDirection = "negative"
	ImpactNeutral  ImpactDirection = "neutral"
)

// ConfidenceLevel classifies a correlation's statistical reliability by
// sample size and magnitude.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// AnalysisTarget is one (user, medication, metric) triple with data on
// record. Batch runs enumerate these.
type AnalysisTarget struct {
	UserID       uuid.UUID `json:"user_id"`
	MedicationID uuid.UUID `json:"medication_id"`
	Metric       string    `json:"metric"`
}

// CorrelationRecord is the derived result per (user, medication, metric).
// Fully recomputed and upserted on each analysis run.
type CorrelationRecord struct {
	UserID           uuid.UUID       `json:"user_id"`
	MedicationID     uuid.UUID       `json:"medication_id"`
	Metric           string          `json:"metric"`
	Coefficient      float64         `json:"correlation_coefficient"`
	Direction        ImpactDirection `json:"impact_direction"`
	Confidence       ConfidenceLevel `json:"confidence_level"`
	DataPoints       int             `json:"data_points"`
	Observations     []string        `json:"observations"`
	SamplePeriodDays int             `json:"sample_period_days"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
