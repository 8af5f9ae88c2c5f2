// Package adherence aggregates dose logs into daily and per-medication
// adherence figures, perfect-day streaks, and rule-based insights. All
// functions are pure and read-only over the logs they are given.
package adherence

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Poolchaos/personalfit/internal/domain"
)

// perfectDayPct is the adherence threshold for a "perfect" day.
const perfectDayPct = 80

// DailyAdherence buckets logs by the calendar day of their scheduled
// time in loc and returns one entry per day of the trailing window,
// oldest first. ref anchors the window; the window covers ref's day and
// the windowDays-1 days before it. A day with no scheduled doses
// reports 0%, which streak logic treats as a skip, not a miss.
func DailyAdherence(logs []domain.DoseLogEntry, windowDays int, ref time.Time, loc *time.Location) []domain.DayAdherence {
	if windowDays <= 0 {
		return nil
	}

	byDay := make(map[string]*domain.DayAdherence, windowDays)
	out := make([]domain.DayAdherence, 0, windowDays)
	refDay := ref.In(loc)
	for i := windowDays - 1; i >= 0; i-- {
		date := refDay.AddDate(0, 0, -i).Format("2006-01-02")
		out = append(out, domain.DayAdherence{Date: date})
		byDay[date] = &out[len(out)-1]
	}

	for _, lg := range logs {
		date := lg.ScheduledTime.In(loc).Format("2006-01-02")
		day, ok := byDay[date]
		if !ok {
			continue
		}
		day.Total++
		switch lg.Status {
		case domain.DoseTaken:
			day.Taken++
		case domain.DoseMissed:
			day.Missed++
		case domain.DoseSkipped:
			day.Skipped++
		}
	}

	for i := range out {
		out[i].Percent = pct(out[i].Taken, out[i].Total)
	}
	return out
}

// PerMedicationAdherence aggregates per medication over the whole log
// slice, sorted ascending by percentage so the worst adherence surfaces
// first. names maps medication IDs to display names; unknown IDs keep
// an empty name.
func PerMedicationAdherence(logs []domain.DoseLogEntry, names map[uuid.UUID]string) []domain.MedicationAdherence {
	byMed := make(map[uuid.UUID]*domain.MedicationAdherence)
	for _, lg := range logs {
		m, ok := byMed[lg.MedicationID]
		if !ok {
			m = &domain.MedicationAdherence{MedicationID: lg.MedicationID, Name: names[lg.MedicationID]}
			byMed[lg.MedicationID] = m
		}
		m.Total++
		if lg.Status == domain.DoseTaken {
			m.Taken++
		}
	}

	out := make([]domain.MedicationAdherence, 0, len(byMed))
	for _, m := range byMed {
		m.Percent = pct(m.Taken, m.Total)
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Percent != out[j].Percent {
			return out[i].Percent < out[j].Percent
		}
		return out[i].MedicationID.String() < out[j].MedicationID.String()
	})
	return out
}

// Streaks computes the current and longest perfect-day runs over the
// daily series (oldest first). Current scans backward from the most
// recent day; longest is a forward scan with the same rule. Zero-dose
// days are skipped in both directions. Longest is never reported below
// current.
func Streaks(days []domain.DayAdherence) domain.AdherenceStreak {
	var s domain.AdherenceStreak

	for i := len(days) - 1; i >= 0; i-- {
		if days[i].Total == 0 {
			continue
		}
		if days[i].Percent < perfectDayPct {
			break
		}
		s.Current++
	}

	run := 0
	for _, d := range days {
		if d.Total == 0 {
			continue
		}
		if d.Percent >= perfectDayPct {
			run++
			if run > s.Longest {
				s.Longest = run
			}
		} else {
			run = 0
		}
	}

	if s.Longest < s.Current {
		s.Longest = s.Current
	}
	return s
}

// ─── Insights ───────────────────────────────────────────────────────────────

// maxInsights caps the observations returned per report.
const maxInsights = 5

// timeBucket names the scheduled-hour bucket: morning 5-11,
// afternoon 12-16, evening 17-21, night 22-4.
func timeBucket(hour int) string {
	switch {
	case hour >= 5 && hour <= 11:
		return "morning"
	case hour >= 12 && hour <= 16:
		return "afternoon"
	case hour >= 17 && hour <= 21:
		return "evening"
	default:
		return "night"
	}
}

// Insights generates up to five observations over the window. days is
// the DailyAdherence output for the same logs, oldest first.
func Insights(logs []domain.DoseLogEntry, days []domain.DayAdherence, meds []domain.MedicationAdherence, loc *time.Location) []domain.Insight {
	var out []domain.Insight

	streak := Streaks(days)
	switch {
	case streak.Current >= 7:
		out = append(out, domain.Insight{
			Severity: domain.SeveritySuccess,
			Message:  fmt.Sprintf("You're on a %d-day perfect adherence streak. Keep it up!", streak.Current),
		})
	case streak.Current >= 3:
		out = append(out, domain.Insight{
			Severity: domain.SeverityInfo,
			Message:  fmt.Sprintf("You've had %d perfect days in a row.", streak.Current),
		})
	case streak.Longest >= 3 && streak.Current == 0:
		out = append(out, domain.Insight{
			Severity: domain.SeverityInfo,
			Message:  fmt.Sprintf("Your longest perfect streak was %d days. You can get back there.", streak.Longest),
		})
	}

	if in := worstTimeBucket(logs, loc); in != nil {
		out = append(out, *in)
	}
	if in := weekendGap(logs, loc); in != nil {
		out = append(out, *in)
	}
	if in := strugglingMedication(meds); in != nil {
		out = append(out, *in)
	}
	if in := weekTrend(days); in != nil {
		out = append(out, *in)
	}

	if len(out) > maxInsights {
		out = out[:maxInsights]
	}
	return out
}

// worstTimeBucket flags the scheduled-hour bucket with the highest miss
// rate when it exceeds 30% over at least 5 samples.
func worstTimeBucket(logs []domain.DoseLogEntry, loc *time.Location) *domain.Insight {
	type tally struct{ missed, total int }
	buckets := map[string]*tally{}
	for _, lg := range logs {
		b := timeBucket(lg.ScheduledTime.In(loc).Hour())
		t, ok := buckets[b]
		if !ok {
			t = &tally{}
			buckets[b] = t
		}
		t.total++
		if lg.Status != domain.DoseTaken {
			t.missed++
		}
	}

	worstName := ""
	worstRate := 0.0
	for _, name := range []string{"morning", "afternoon", "evening", "night"} {
		t := buckets[name]
		if t == nil || t.total < 5 {
			continue
		}
		rate := float64(t.missed) / float64(t.total)
		if rate > 0.30 && rate > worstRate {
			worstName, worstRate = name, rate
		}
	}
	if worstName == "" {
		return nil
	}
	return &domain.Insight{
		Severity: domain.SeverityWarning,
		Message: fmt.Sprintf("You miss %d%% of your %s doses. Consider a reminder for that time of day.",
			int(math.Round(worstRate*100)), worstName),
	}
}

// weekendGap flags a weekday-vs-weekend adherence gap above 15 points.
func weekendGap(logs []domain.DoseLogEntry, loc *time.Location) *domain.Insight {
	var wkTaken, wkTotal, weTaken, weTotal int
	for _, lg := range logs {
		wd := lg.ScheduledTime.In(loc).Weekday()
		weekend := wd == time.Saturday || wd == time.Sunday
		taken := lg.Status == domain.DoseTaken
		if weekend {
			weTotal++
			if taken {
				weTaken++
			}
		} else {
			wkTotal++
			if taken {
				wkTaken++
			}
		}
	}
	if wkTotal == 0 || weTotal == 0 {
		return nil
	}

	wkPct := pct(wkTaken, wkTotal)
	wePct := pct(weTaken, weTotal)
	gap := wkPct - wePct
	if gap > 15 {
		return &domain.Insight{
			Severity: domain.SeverityWarning,
			Message: fmt.Sprintf("Your weekend adherence (%d%%) trails weekdays (%d%%). Routines slip on days off.",
				wePct, wkPct),
		}
	}
	if -gap > 15 {
		return &domain.Insight{
			Severity: domain.SeverityInfo,
			Message: fmt.Sprintf("You adhere better on weekends (%d%%) than weekdays (%d%%).",
				wePct, wkPct),
		}
	}
	return nil
}

// strugglingMedication flags the worst medication under 70% adherence
// with at least 5 samples. meds is already sorted ascending.
func strugglingMedication(meds []domain.MedicationAdherence) *domain.Insight {
	for _, m := range meds {
		if m.Total < 5 {
			continue
		}
		if m.Percent < 70 {
			name := m.Name
			if name == "" {
				name = "one of your medications"
			}
			return &domain.Insight{
				Severity: domain.SeverityWarning,
				Message:  fmt.Sprintf("Adherence for %s is at %d%%. It may help to review the schedule.", name, m.Percent),
			}
		}
		break
	}
	return nil
}

// weekTrend compares the first 3 vs last 3 days of the trailing 7-day
// window, skipping day 4 as a buffer, and flags a shift above 10 points.
func weekTrend(days []domain.DayAdherence) *domain.Insight {
	if len(days) < 7 {
		return nil
	}
	week := days[len(days)-7:]

	early := windowPct(week[0:3])
	late := windowPct(week[4:7])
	if early < 0 || late < 0 {
		return nil
	}

	switch {
	case late-early > 10:
		return &domain.Insight{
			Severity: domain.SeveritySuccess,
			Message:  fmt.Sprintf("Your adherence improved from %d%% to %d%% over the past week.", early, late),
		}
	case early-late > 10:
		return &domain.Insight{
			Severity: domain.SeverityWarning,
			Message:  fmt.Sprintf("Your adherence slipped from %d%% to %d%% over the past week.", early, late),
		}
	}
	return nil
}

// windowPct is the pooled adherence over a span of days, or -1 when no
// doses were scheduled in it.
func windowPct(days []domain.DayAdherence) int {
	taken, total := 0, 0
	for _, d := range days {
		taken += d.Taken
		total += d.Total
	}
	if total == 0 {
		return -1
	}
	return pct(taken, total)
}

func pct(taken, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(taken) / float64(total) * 100.0))
}
