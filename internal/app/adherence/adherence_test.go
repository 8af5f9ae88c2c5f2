package adherence_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Poolchaos/personalfit/internal/app/adherence"
	"github.com/Poolchaos/personalfit/internal/domain"
	"github.com/Poolchaos/personalfit/internal/logger"
)

// dose builds a log entry scheduled on base+dayOffset at the given hour.
func dose(medID uuid.UUID, base time.Time, dayOffset, hour int, status domain.DoseStatus) domain.DoseLogEntry {
	at := base.AddDate(0, 0, dayOffset)
	return domain.DoseLogEntry{
		ID:            uuid.New(),
		MedicationID:  medID,
		ScheduledTime: time.Date(at.Year(), at.Month(), at.Day(), hour, 0, 0, 0, time.UTC),
		Status:        status,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Daily Adherence Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestDailyAdherence_Buckets(t *testing.T) {
	med := uuid.New()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	logs := []domain.DoseLogEntry{
		dose(med, base, 0, 8, domain.DoseTaken),
		dose(med, base, 0, 20, domain.DoseMissed),
		dose(med, base, 1, 8, domain.DoseTaken),
		dose(med, base, 1, 20, domain.DoseTaken),
		dose(med, base, 2, 8, domain.DoseSkipped),
	}

	ref := base.AddDate(0, 0, 2)
	days := adherence.DailyAdherence(logs, 3, ref, time.UTC)
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(days))
	}

	if days[0].Date != "2026-03-01" || days[2].Date != "2026-03-03" {
		t.Errorf("window misaligned: %s .. %s", days[0].Date, days[2].Date)
	}
	if days[0].Percent != 50 {
		t.Errorf("day 1: expected 50%%, got %d%%", days[0].Percent)
	}
	if days[1].Percent != 100 {
		t.Errorf("day 2: expected 100%%, got %d%%", days[1].Percent)
	}
	if days[2].Percent != 0 || days[2].Skipped != 1 {
		t.Errorf("day 3: expected 0%% with 1 skip, got %+v", days[2])
	}
}

func TestDailyAdherence_EmptyDayIsZeroNotHundred(t *testing.T) {
	ref := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	days := adherence.DailyAdherence(nil, 2, ref, time.UTC)
	for _, d := range days {
		if d.Percent != 0 || d.Total != 0 {
			t.Errorf("empty day should report 0%%: %+v", d)
		}
	}
}

func TestDailyAdherence_OutsideWindowIgnored(t *testing.T) {
	med := uuid.New()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	logs := []domain.DoseLogEntry{
		dose(med, base, -5, 8, domain.DoseTaken), // before the window
		dose(med, base, 0, 8, domain.DoseTaken),
	}

	days := adherence.DailyAdherence(logs, 1, base, time.UTC)
	if len(days) != 1 || days[0].Total != 1 {
		t.Errorf("expected 1 in-window dose, got %+v", days)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Per-Medication Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestPerMedicationAdherence_WorstFirst(t *testing.T) {
	good := uuid.New()
	bad := uuid.New()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	var logs []domain.DoseLogEntry
	for i := 0; i < 10; i++ {
		logs = append(logs, dose(good, base, i, 8, domain.DoseTaken))
		status := domain.DoseTaken
		if i%2 == 0 {
			status = domain.DoseMissed
		}
		logs = append(logs, dose(bad, base, i, 20, status))
	}

	meds := adherence.PerMedicationAdherence(logs, map[uuid.UUID]string{good: "Metformin", bad: "Lisinopril"})
	if len(meds) != 2 {
		t.Fatalf("expected 2 medications, got %d", len(meds))
	}
	if meds[0].MedicationID != bad {
		t.Errorf("worst medication should sort first, got %s at %d%%", meds[0].Name, meds[0].Percent)
	}
	if meds[0].Percent != 50 || meds[1].Percent != 100 {
		t.Errorf("unexpected percentages: %d%%, %d%%", meds[0].Percent, meds[1].Percent)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Streak Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestStreaks_ZeroDoseDaysSkipped(t *testing.T) {
	days := []domain.DayAdherence{
		{Date: "2026-03-01", Taken: 2, Total: 2, Percent: 100},
		{Date: "2026-03-02", Total: 0, Percent: 0}, // no doses scheduled
		{Date: "2026-03-03", Taken: 2, Total: 2, Percent: 100},
	}
	s := adherence.Streaks(days)
	if s.Current != 2 {
		t.Errorf("zero-dose day must not break the streak: current=%d", s.Current)
	}
	if s.Longest != 2 {
		t.Errorf("expected longest 2, got %d", s.Longest)
	}
}

func TestStreaks_BelowThresholdBreaks(t *testing.T) {
	days := []domain.DayAdherence{
		{Date: "2026-03-01", Taken: 4, Total: 4, Percent: 100},
		{Date: "2026-03-02", Taken: 4, Total: 4, Percent: 100},
		{Date: "2026-03-03", Taken: 4, Total: 4, Percent: 100},
		{Date: "2026-03-04", Taken: 1, Total: 4, Percent: 25},
		{Date: "2026-03-05", Taken: 4, Total: 4, Percent: 100},
	}
	s := adherence.Streaks(days)
	if s.Current != 1 {
		t.Errorf("expected current 1, got %d", s.Current)
	}
	if s.Longest != 3 {
		t.Errorf("expected longest 3, got %d", s.Longest)
	}
}

func TestStreaks_EightyPercentIsPerfect(t *testing.T) {
	days := []domain.DayAdherence{
		{Date: "2026-03-01", Taken: 4, Total: 5, Percent: 80},
	}
	s := adherence.Streaks(days)
	if s.Current != 1 {
		t.Errorf("80%% must count as perfect, got current=%d", s.Current)
	}
}

func TestStreaks_LongestNeverBelowCurrent(t *testing.T) {
	days := []domain.DayAdherence{
		{Date: "2026-03-01", Taken: 1, Total: 1, Percent: 100},
		{Date: "2026-03-02", Taken: 1, Total: 1, Percent: 100},
	}
	s := adherence.Streaks(days)
	if s.Longest < s.Current {
		t.Errorf("longest %d < current %d", s.Longest, s.Current)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Insight Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestInsights_StreakSuccess(t *testing.T) {
	med := uuid.New()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	var logs []domain.DoseLogEntry
	for i := 0; i < 8; i++ {
		logs = append(logs, dose(med, base, i, 8, domain.DoseTaken))
	}
	days := adherence.DailyAdherence(logs, 8, base.AddDate(0, 0, 7), time.UTC)

	insights := adherence.Insights(logs, days, nil, time.UTC)
	found := false
	for _, in := range insights {
		if in.Severity == domain.SeveritySuccess {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a success insight for an 8-day streak, got %+v", insights)
	}
}

func TestInsights_EveningMissPattern(t *testing.T) {
	med := uuid.New()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	var logs []domain.DoseLogEntry
	for i := 0; i < 10; i++ {
		logs = append(logs, dose(med, base, i, 8, domain.DoseTaken))
		status := domain.DoseTaken
		if i < 4 {
			status = domain.DoseMissed // 40% evening miss rate
		}
		logs = append(logs, dose(med, base, i, 20, status))
	}
	days := adherence.DailyAdherence(logs, 10, base.AddDate(0, 0, 9), time.UTC)

	insights := adherence.Insights(logs, days, nil, time.UTC)
	found := false
	for _, in := range insights {
		if in.Severity == domain.SeverityWarning && strings.Contains(in.Message, "evening") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an evening miss warning, got %+v", insights)
	}
}

func TestInsights_StrugglingMedication(t *testing.T) {
	meds := []domain.MedicationAdherence{
		{MedicationID: uuid.New(), Name: "Lisinopril", Taken: 3, Total: 6, Percent: 50},
	}
	insights := adherence.Insights(nil, nil, meds, time.UTC)
	found := false
	for _, in := range insights {
		if in.Severity == domain.SeverityWarning && strings.Contains(in.Message, "Lisinopril") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected medication warning, got %+v", insights)
	}
}

func TestInsights_WeekTrendSkipsBufferDay(t *testing.T) {
	// First 3 days poor, day 4 perfect (buffered out), last 3 perfect.
	days := []domain.DayAdherence{
		{Date: "2026-03-01", Taken: 1, Total: 2, Percent: 50},
		{Date: "2026-03-02", Taken: 1, Total: 2, Percent: 50},
		{Date: "2026-03-03", Taken: 1, Total: 2, Percent: 50},
		{Date: "2026-03-04", Taken: 2, Total: 2, Percent: 100},
		{Date: "2026-03-05", Taken: 2, Total: 2, Percent: 100},
		{Date: "2026-03-06", Taken: 2, Total: 2, Percent: 100},
		{Date: "2026-03-07", Taken: 2, Total: 2, Percent: 100},
	}
	insights := adherence.Insights(nil, days, nil, time.UTC)
	found := false
	for _, in := range insights {
		if in.Severity == domain.SeveritySuccess && strings.Contains(in.Message, "improved") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected improvement insight, got %+v", insights)
	}
}

func TestInsights_CappedAtFive(t *testing.T) {
	med := uuid.New()
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // Monday
	var logs []domain.DoseLogEntry
	// Weekday doses taken, weekend doses mostly missed, evenings bad.
	for i := 0; i < 14; i++ {
		day := base.AddDate(0, 0, i)
		weekend := day.Weekday() == time.Saturday || day.Weekday() == time.Sunday
		mStatus, eStatus := domain.DoseTaken, domain.DoseMissed
		if weekend {
			mStatus = domain.DoseMissed
		}
		logs = append(logs, dose(med, base, i, 8, mStatus))
		logs = append(logs, dose(med, base, i, 20, eStatus))
	}
	days := adherence.DailyAdherence(logs, 14, base.AddDate(0, 0, 13), time.UTC)
	meds := adherence.PerMedicationAdherence(logs, nil)

	insights := adherence.Insights(logs, days, meds, time.UTC)
	if len(insights) > 5 {
		t.Errorf("expected at most 5 insights, got %d", len(insights))
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Service Tests
// ═══════════════════════════════════════════════════════════════════════════

// memStore serves canned medications and dose logs.
type memStore struct {
	meds []domain.Medication
	logs []domain.DoseLogEntry
}

func (m *memStore) ListMedications(_ context.Context, _ uuid.UUID) ([]domain.Medication, error) {
	return m.meds, nil
}

func (m *memStore) ListDoseLogs(_ context.Context, _ uuid.UUID, from, to time.Time) ([]domain.DoseLogEntry, error) {
	var out []domain.DoseLogEntry
	for _, lg := range m.logs {
		if !lg.ScheduledTime.Before(from) && lg.ScheduledTime.Before(to) {
			out = append(out, lg)
		}
	}
	return out, nil
}

// recordingSync captures the counters the service reports.
type recordingSync struct {
	calls        int
	key          string
	perfectDays  int
	perfectWeeks int
}

func (r *recordingSync) SyncAdherenceStats(_ context.Context, _ uuid.UUID, key string, perfectDays, perfectWeeks int, _ time.Time) error {
	r.calls++
	r.key = key
	r.perfectDays = perfectDays
	r.perfectWeeks = perfectWeeks
	return nil
}

func TestService_AnalyzeReportsPerfectDaysToLedger(t *testing.T) {
	med := uuid.New()
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	store := &memStore{
		meds: []domain.Medication{{ID: med, Name: "Metformin"}},
		logs: []domain.DoseLogEntry{
			dose(med, base, 0, 8, domain.DoseTaken),
			dose(med, base, 1, 8, domain.DoseTaken),
			dose(med, base, 2, 8, domain.DoseTaken),
		},
	}
	sync := &recordingSync{}
	svc := adherence.NewService(store, sync, time.UTC, logger.Nop())

	ref := base.AddDate(0, 0, 2).Add(12 * time.Hour)
	report, err := svc.Analyze(context.Background(), uuid.New(), 7, ref)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if report.Streak.Current != 3 {
		t.Fatalf("expected 3-day perfect streak, got %d", report.Streak.Current)
	}

	if sync.calls != 1 {
		t.Fatalf("expected one sync call, got %d", sync.calls)
	}
	if sync.perfectDays != 3 || sync.perfectWeeks != 0 {
		t.Errorf("sync counters wrong: days=%d weeks=%d", sync.perfectDays, sync.perfectWeeks)
	}
	if !strings.HasSuffix(sync.key, ref.Format("2006-01-02")) {
		t.Errorf("sync key not scoped to the reference day: %q", sync.key)
	}
}

func TestService_AnalyzeWithoutSyncIsPure(t *testing.T) {
	svc := adherence.NewService(&memStore{}, nil, time.UTC, logger.Nop())
	if _, err := svc.Analyze(context.Background(), uuid.New(), 7, time.Now()); err != nil {
		t.Fatalf("analyze without a sync target: %v", err)
	}
}
