package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Poolchaos/personalfit/internal/app/adherence"
	"github.com/Poolchaos/personalfit/internal/app/challenge"
	"github.com/Poolchaos/personalfit/internal/app/correlation"
	"github.com/Poolchaos/personalfit/internal/app/engagement"
	"github.com/Poolchaos/personalfit/internal/domain"
	"github.com/Poolchaos/personalfit/internal/health"
	"github.com/Poolchaos/personalfit/internal/infra/sqlite"
	"github.com/Poolchaos/personalfit/internal/logger"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	db, err := sqlite.Open(dir)
	if err != nil {
		t.Fatalf("Open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	log := logger.Nop()
	ledger := engagement.NewLedger(db, engagement.DefaultRewardConfig(), time.UTC, 3, log)
	tracker := challenge.NewTracker(db, ledger, time.UTC, log)
	adh := adherence.NewService(db, ledger, time.UTC, log)
	corr := correlation.NewService(db, time.UTC, log)
	checker := health.NewChecker(db, dir)

	return NewServer(Config{
		AdherenceWindowDays:   30,
		CorrelationWindowDays: 60,
	}, db, ledger, tracker, adh, corr, checker, log)
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

// ─── Health / Version ───────────────────────────────────────────────────────

func TestAPI_Health(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]interface{}
	json.NewDecoder(w.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestAPI_Version(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, "GET", "/api/version", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

// ─── Gamification ───────────────────────────────────────────────────────────

func TestAPI_Completion_CreditsReward(t *testing.T) {
	srv := newTestServer(t)
	userID := uuid.New()

	w := doJSON(t, srv, "POST", "/api/gamification/completions", map[string]interface{}{
		"event_id":            "evt-1",
		"user_id":             userID.String(),
		"is_first_completion": true,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var res engagement.CreditResult
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	// base 100 + first workout 200 + streak day 1 bonus 25
	if res.Reward.Total != 325 {
		t.Errorf("reward total = %d, want 325", res.Reward.Total)
	}
	if res.Streak != 1 {
		t.Errorf("streak = %d, want 1", res.Streak)
	}
	if len(res.NewAchievements) == 0 {
		t.Error("first completion should unlock an achievement")
	}
}

func TestAPI_Completion_DuplicateReturnsOK(t *testing.T) {
	srv := newTestServer(t)
	userID := uuid.New()
	body := map[string]interface{}{
		"event_id": "evt-dup",
		"user_id":  userID.String(),
	}

	first := doJSON(t, srv, "POST", "/api/gamification/completions", body)
	if first.Code != http.StatusCreated {
		t.Fatalf("first status = %d, want %d", first.Code, http.StatusCreated)
	}

	second := doJSON(t, srv, "POST", "/api/gamification/completions", body)
	if second.Code != http.StatusOK {
		t.Fatalf("replay status = %d, want %d", second.Code, http.StatusOK)
	}

	var res engagement.CreditResult
	json.NewDecoder(second.Body).Decode(&res)
	if !res.AlreadyProcessed {
		t.Error("replay should report already_processed")
	}
}

func TestAPI_Completion_MissingEventID(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, "POST", "/api/gamification/completions", map[string]interface{}{
		"user_id": uuid.New().String(),
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAPI_GamificationState(t *testing.T) {
	srv := newTestServer(t)
	userID := uuid.New()

	doJSON(t, srv, "POST", "/api/gamification/completions", map[string]interface{}{
		"event_id": "evt-state",
		"user_id":  userID.String(),
	})

	w := doJSON(t, srv, "GET", "/api/gamification/state?user_id="+userID.String(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var st domain.GamificationState
	json.NewDecoder(w.Body).Decode(&st)
	// base 100 + streak bonus 25, plus first_workout achievement XP
	if st.XP < 125 {
		t.Errorf("XP = %d, want at least 125", st.XP)
	}
	if st.TotalCompletions != 1 {
		t.Errorf("TotalCompletions = %d, want 1", st.TotalCompletions)
	}
}

func TestAPI_GamificationState_RequiresUserID(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, "GET", "/api/gamification/state", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAPI_Achievements(t *testing.T) {
	srv := newTestServer(t)
	userID := uuid.New()

	doJSON(t, srv, "POST", "/api/gamification/completions", map[string]interface{}{
		"event_id": "evt-ach",
		"user_id":  userID.String(),
	})

	w := doJSON(t, srv, "GET", "/api/gamification/achievements?user_id="+userID.String(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body struct {
		Unlocked int `json:"unlocked"`
		Total    int `json:"total"`
	}
	json.NewDecoder(w.Body).Decode(&body)
	if body.Total != 40 {
		t.Errorf("total = %d, want 40", body.Total)
	}
	if body.Unlocked < 1 {
		t.Errorf("unlocked = %d, want at least 1", body.Unlocked)
	}
}

// ─── Challenges ─────────────────────────────────────────────────────────────

func TestAPI_ChallengesToday(t *testing.T) {
	srv := newTestServer(t)
	userID := uuid.New()

	w := doJSON(t, srv, "GET", "/api/challenges/today?user_id="+userID.String(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var set domain.DailyChallengeSet
	json.NewDecoder(w.Body).Decode(&set)
	if len(set.Challenges) != 3 {
		t.Fatalf("challenges = %d, want 3", len(set.Challenges))
	}

	// Second request returns the same persisted set
	w2 := doJSON(t, srv, "GET", "/api/challenges/today?user_id="+userID.String(), nil)
	var set2 domain.DailyChallengeSet
	json.NewDecoder(w2.Body).Decode(&set2)
	for i := range set.Challenges {
		if set.Challenges[i].ID != set2.Challenges[i].ID {
			t.Errorf("challenge %d changed between requests", i)
		}
	}
}

func TestAPI_ChallengeProgress(t *testing.T) {
	srv := newTestServer(t)
	userID := uuid.New()

	w := doJSON(t, srv, "GET", "/api/challenges/today?user_id="+userID.String(), nil)
	var set domain.DailyChallengeSet
	json.NewDecoder(w.Body).Decode(&set)

	ch := set.Challenges[0]
	pw := doJSON(t, srv, "POST", "/api/challenges/"+ch.ID+"/progress", map[string]interface{}{
		"user_id":   userID.String(),
		"increment": ch.Target,
	})
	if pw.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", pw.Code, http.StatusOK, pw.Body.String())
	}

	var res challenge.ProgressResult
	json.NewDecoder(pw.Body).Decode(&res)
	if !res.JustCompleted {
		t.Error("challenge should complete when progress reaches target")
	}
	if res.Credit == nil {
		t.Error("completion should credit the reward")
	}
}

func TestAPI_ChallengeProgress_NotFound(t *testing.T) {
	srv := newTestServer(t)
	userID := uuid.New()

	w := doJSON(t, srv, "POST", "/api/challenges/no-such-id/progress", map[string]interface{}{
		"user_id": userID.String(),
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// ─── Medication Tracking ────────────────────────────────────────────────────

func TestAPI_Medications_CreateAndList(t *testing.T) {
	srv := newTestServer(t)
	userID := uuid.New()

	w := doJSON(t, srv, "POST", "/api/medications", map[string]interface{}{
		"user_id": userID.String(),
		"name":    "Metformin",
		"dosage":  "500mg",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	lw := doJSON(t, srv, "GET", "/api/medications?user_id="+userID.String(), nil)
	if lw.Code != http.StatusOK {
		t.Fatalf("list status = %d, want %d", lw.Code, http.StatusOK)
	}

	var meds []domain.Medication
	json.NewDecoder(lw.Body).Decode(&meds)
	if len(meds) != 1 || meds[0].Name != "Metformin" {
		t.Errorf("meds = %+v, want one Metformin", meds)
	}
}

func TestAPI_LogDose_InvalidStatus(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, "POST", "/api/doses", map[string]interface{}{
		"user_id":        uuid.New().String(),
		"medication_id":  uuid.New().String(),
		"scheduled_time": time.Now().Format(time.RFC3339),
		"status":         "maybe",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAPI_AdherenceReport(t *testing.T) {
	srv := newTestServer(t)
	userID := uuid.New()
	medID := uuid.New()

	doJSON(t, srv, "POST", "/api/medications", map[string]interface{}{
		"id":      medID.String(),
		"user_id": userID.String(),
		"name":    "Lisinopril",
	})

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		w := doJSON(t, srv, "POST", "/api/doses", map[string]interface{}{
			"user_id":        userID.String(),
			"medication_id":  medID.String(),
			"scheduled_time": now.AddDate(0, 0, -i).Format(time.RFC3339),
			"status":         "taken",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("dose %d status = %d: %s", i, w.Code, w.Body.String())
		}
	}

	w := doJSON(t, srv, "GET", fmt.Sprintf("/api/adherence?user_id=%s&window_days=7", userID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var report adherence.Report
	json.NewDecoder(w.Body).Decode(&report)
	if report.WindowDays != 7 {
		t.Errorf("WindowDays = %d, want 7", report.WindowDays)
	}
	if len(report.Days) != 7 {
		t.Errorf("Days = %d, want 7", len(report.Days))
	}
	if len(report.Medications) != 1 || report.Medications[0].Percent != 100 {
		t.Errorf("Medications = %+v, want one at 100%%", report.Medications)
	}
}

func TestAPI_AdherenceStreakView(t *testing.T) {
	srv := newTestServer(t)
	userID := uuid.New()

	w := doJSON(t, srv, "GET", "/api/adherence/streak?user_id="+userID.String(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var streak domain.AdherenceStreak
	if err := json.NewDecoder(w.Body).Decode(&streak); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if streak.Current != 0 || streak.Longest != 0 {
		t.Errorf("streak = %+v, want zeroes with no data", streak)
	}
}

func TestAPI_AdherenceReport_BadWindow(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, "GET", "/api/adherence?user_id="+uuid.New().String()+"&window_days=0", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// ─── Goals ──────────────────────────────────────────────────────────────────

func TestAPI_Goals_CreateAndTrack(t *testing.T) {
	srv := newTestServer(t)
	userID := uuid.New()

	w := doJSON(t, srv, "POST", "/api/goals", map[string]interface{}{
		"user_id":       userID.String(),
		"metric":        "weight",
		"direction":     "decrease",
		"initial_value": 165,
		"target_value":  95,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	// A weight sample moves the goal's current value
	sw := doJSON(t, srv, "POST", "/api/metric-samples", map[string]interface{}{
		"user_id": userID.String(),
		"metric":  "weight",
		"value":   150,
	})
	if sw.Code != http.StatusCreated {
		t.Fatalf("sample status = %d: %s", sw.Code, sw.Body.String())
	}

	lw := doJSON(t, srv, "GET", "/api/goals?user_id="+userID.String(), nil)
	if lw.Code != http.StatusOK {
		t.Fatalf("list status = %d, want %d", lw.Code, http.StatusOK)
	}

	var goals []struct {
		domain.Goal
		ProgressPct float64 `json:"progress_pct"`
	}
	json.NewDecoder(lw.Body).Decode(&goals)
	if len(goals) != 1 {
		t.Fatalf("goals = %d, want 1", len(goals))
	}
	if goals[0].CurrentValue != 150 {
		t.Errorf("CurrentValue = %.1f, want 150", goals[0].CurrentValue)
	}
	if goals[0].ProgressPct < 21 || goals[0].ProgressPct > 22 {
		t.Errorf("ProgressPct = %.2f, want ~21.43", goals[0].ProgressPct)
	}
}

func TestAPI_Goals_InvalidDirection(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, "POST", "/api/goals", map[string]interface{}{
		"user_id":   uuid.New().String(),
		"metric":    "weight",
		"direction": "sideways",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// ─── Correlations ───────────────────────────────────────────────────────────

func TestAPI_Correlations_EmptyList(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, "GET", "/api/correlations?user_id="+uuid.New().String(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var recs []domain.CorrelationRecord
	if err := json.NewDecoder(w.Body).Decode(&recs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("recs = %d, want 0", len(recs))
	}
}

func TestAPI_Analyze_InsufficientData(t *testing.T) {
	srv := newTestServer(t)
	userID := uuid.New()
	medID := uuid.New()

	doJSON(t, srv, "POST", "/api/medications", map[string]interface{}{
		"id":      medID.String(),
		"user_id": userID.String(),
		"name":    "Sertraline",
	})

	w := doJSON(t, srv, "POST", "/api/correlations/analyze", map[string]interface{}{
		"user_id":       userID.String(),
		"medication_id": medID.String(),
		"metric":        "mood",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var body map[string]interface{}
	json.NewDecoder(w.Body).Decode(&body)
	if body["insufficient_data"] != true {
		t.Errorf("body = %v, want insufficient_data", body)
	}
}

func TestAPI_Analyze_UnknownMedication(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, "POST", "/api/correlations/analyze", map[string]interface{}{
		"user_id":       uuid.New().String(),
		"medication_id": uuid.New().String(),
		"metric":        "mood",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
