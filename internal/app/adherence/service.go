package adherence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Poolchaos/personalfit/internal/domain"
	"github.com/Poolchaos/personalfit/internal/infra/metrics"
	"github.com/Poolchaos/personalfit/internal/logger"
)

// Store reads medications and dose logs for analysis.
type Store interface {
	ListMedications(ctx context.Context, userID uuid.UUID) ([]domain.Medication, error)
	// ListDoseLogs returns the user's dose logs with scheduled times in
	// [from, to), any order.
	ListDoseLogs(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.DoseLogEntry, error)
}

// AchievementSync receives adherence-derived counters for achievement
// evaluation. Satisfied by the engagement ledger; nil disables syncing.
type AchievementSync interface {
	SyncAdherenceStats(ctx context.Context, userID uuid.UUID, key string, perfectDays, perfectWeeks int, at time.Time) error
}

// Report bundles one adherence analysis run.
type Report struct {
	WindowDays  int                          `json:"window_days"`
	Days        []domain.DayAdherence        `json:"days"`
	Medications []domain.MedicationAdherence `json:"medications"`
	Streak      domain.AdherenceStreak       `json:"streak"`
	Insights    []domain.Insight             `json:"insights"`
}

// Service runs adherence analytics over stored dose logs.
type Service struct {
	store        Store
	achievements AchievementSync
	loc          *time.Location
	log          *logger.Logger
}

// NewService creates an adherence service. loc decides day boundaries.
func NewService(store Store, achievements AchievementSync, loc *time.Location, log *logger.Logger) *Service {
	return &Service{
		store:        store,
		achievements: achievements,
		loc:          loc,
		log:          log.With("component", "adherence"),
	}
}

// Analyze computes the full adherence report for the trailing
// windowDays ending at ref's calendar day.
func (s *Service) Analyze(ctx context.Context, userID uuid.UUID, windowDays int, ref time.Time) (*Report, error) {
	start := time.Now()

	refDay := ref.In(s.loc)
	y, m, d := refDay.Date()
	to := time.Date(y, m, d, 0, 0, 0, 0, s.loc).AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -windowDays)

	logs, err := s.store.ListDoseLogs(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list dose logs: %w", err)
	}
	meds, err := s.store.ListMedications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}

	names := make(map[uuid.UUID]string, len(meds))
	for _, med := range meds {
		names[med.ID] = med.Name
	}

	days := DailyAdherence(logs, windowDays, ref, s.loc)
	perMed := PerMedicationAdherence(logs, names)
	streak := Streaks(days)
	insights := Insights(logs, days, perMed, s.loc)

	if s.achievements != nil {
		perfectDays := 0
		for _, d := range days {
			if d.Total > 0 && d.Percent >= perfectDayPct {
				perfectDays++
			}
		}
		// At most one sync lands per user per calendar day; the ledger
		// keeps the counters monotonic across sliding windows.
		key := "adherence:" + userID.String() + ":" + refDay.Format("2006-01-02")
		if err := s.achievements.SyncAdherenceStats(ctx, userID, key, perfectDays, streak.Longest/7, ref); err != nil {
			s.log.Warn("achievement sync failed", "user_id", userID.String(), "error", err)
		}
	}

	for _, in := range insights {
		metrics.InsightsGenerated.WithLabelValues(string(in.Severity)).Inc()
	}
	metrics.AdherenceAnalysisDuration.Observe(time.Since(start).Seconds())
	s.log.Debug("adherence analyzed",
		"user_id", userID.String(), "window_days", windowDays, "logs", len(logs), "insights", len(insights))

	return &Report{
		WindowDays:  windowDays,
		Days:        days,
		Medications: perMed,
		Streak:      streak,
		Insights:    insights,
	}, nil
}
