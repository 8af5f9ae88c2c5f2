package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Poolchaos/personalfit/internal/app/adherence"
	"github.com/Poolchaos/personalfit/internal/app/engagement"
	"github.com/Poolchaos/personalfit/internal/domain"
)

// userIDParam extracts and validates the user_id query parameter.
func userIDParam(r *http.Request) (uuid.UUID, error) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		return uuid.Nil, errors.New("user_id is required")
	}
	return uuid.Parse(raw)
}

// ─── Gamification ───────────────────────────────────────────────────────────

func (s *Server) handleGamificationState(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	st, err := s.ledger.State(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	st, err := s.ledger.State(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type entry struct {
		domain.AchievementDef
		Unlocked bool `json:"unlocked"`
	}
	catalog := engagement.Catalog()
	out := make([]entry, 0, len(catalog))
	unlocked := 0
	for _, def := range catalog {
		e := entry{AchievementDef: def, Unlocked: st.HasAchievement(def.ID)}
		if e.Unlocked {
			unlocked++
		}
		out = append(out, e)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"achievements": out,
		"unlocked":     unlocked,
		"total":        len(catalog),
	})
}

type completionRequest struct {
	EventID           string    `json:"event_id"`
	UserID            uuid.UUID `json:"user_id"`
	OccurredAt        time.Time `json:"occurred_at"`
	IsFirstCompletion bool      `json:"is_first_completion"`
	HadPersonalRecord bool      `json:"had_personal_record"`
}

func (s *Server) handleCompletion(w http.ResponseWriter, r *http.Request) {
	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.EventID == "" {
		writeError(w, http.StatusBadRequest, "event_id is required")
		return
	}
	if req.UserID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if req.OccurredAt.IsZero() {
		req.OccurredAt = time.Now()
	}

	res, err := s.ledger.Credit(r.Context(), domain.CompletionEvent{
		EventID:           req.EventID,
		UserID:            req.UserID,
		OccurredAt:        req.OccurredAt,
		IsFirstCompletion: req.IsFirstCompletion,
		HadPersonalRecord: req.HadPersonalRecord,
	})
	if err != nil {
		if errors.Is(err, domain.ErrRetryExhausted) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	code := http.StatusCreated
	if res.AlreadyProcessed {
		code = http.StatusOK
	}
	writeJSON(w, code, res)
}

// ─── Challenges ─────────────────────────────────────────────────────────────

func (s *Server) handleChallengesToday(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	set, err := s.tracker.TodaySet(r.Context(), userID, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, set)
}

type progressRequest struct {
	UserID    uuid.UUID `json:"user_id"`
	Increment int       `json:"increment"`
}

func (s *Server) handleChallengeProgress(w http.ResponseWriter, r *http.Request) {
	challengeID := chi.URLParam(r, "id")

	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.UserID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if req.Increment <= 0 {
		req.Increment = 1
	}

	res, err := s.tracker.UpdateProgress(r.Context(), req.UserID, challengeID, req.Increment, time.Now())
	if err != nil {
		if errors.Is(err, domain.ErrChallengeNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ─── Medication Tracking ────────────────────────────────────────────────────

type medicationRequest struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	Dosage string    `json:"dosage"`
}

func (s *Server) handleUpsertMedication(w http.ResponseWriter, r *http.Request) {
	var req medicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.UserID == uuid.Nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "user_id and name are required")
		return
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}

	med := &domain.Medication{
		ID:     req.ID,
		UserID: req.UserID,
		Name:   req.Name,
		Dosage: req.Dosage,
	}
	if err := s.store.UpsertMedication(r.Context(), med); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, med)
}

func (s *Server) handleListMedications(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	meds, err := s.store.ListMedications(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if meds == nil {
		meds = []domain.Medication{}
	}
	writeJSON(w, http.StatusOK, meds)
}

type doseRequest struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	MedicationID  uuid.UUID `json:"medication_id"`
	ScheduledTime time.Time `json:"scheduled_time"`
	TakenAt       time.Time `json:"taken_at"`
	Status        string    `json:"status"`
}

func (s *Server) handleLogDose(w http.ResponseWriter, r *http.Request) {
	var req doseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.UserID == uuid.Nil || req.MedicationID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "user_id and medication_id are required")
		return
	}
	if req.ScheduledTime.IsZero() {
		writeError(w, http.StatusBadRequest, "scheduled_time is required")
		return
	}
	status := domain.DoseStatus(req.Status)
	switch status {
	case domain.DoseTaken, domain.DoseMissed, domain.DoseSkipped:
	default:
		writeError(w, http.StatusBadRequest, "status must be taken, missed, or skipped")
		return
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if status == domain.DoseTaken && req.TakenAt.IsZero() {
		req.TakenAt = req.ScheduledTime
	}

	lg := &domain.DoseLogEntry{
		ID:            req.ID,
		UserID:        req.UserID,
		MedicationID:  req.MedicationID,
		ScheduledTime: req.ScheduledTime,
		TakenAt:       req.TakenAt,
		Status:        status,
	}
	if err := s.store.InsertDoseLog(r.Context(), lg); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, lg)
}

type metricSampleRequest struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	Date   string    `json:"date"`
	Metric string    `json:"metric"`
	Value  float64   `json:"value"`
}

func (s *Server) handleLogMetricSample(w http.ResponseWriter, r *http.Request) {
	var req metricSampleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.UserID == uuid.Nil || req.Metric == "" {
		writeError(w, http.StatusBadRequest, "user_id and metric are required")
		return
	}
	if req.Date == "" {
		req.Date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}

	smp := &domain.BodyMetricSample{
		ID:     req.ID,
		UserID: req.UserID,
		Date:   req.Date,
		Metric: req.Metric,
		Value:  req.Value,
	}
	if err := s.store.InsertMetricSample(r.Context(), smp); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// A fresh sample moves any goal tracking the same metric.
	if err := s.store.UpdateGoalCurrent(r.Context(), smp.UserID, smp.Metric, smp.Value); err != nil {
		s.log.Warn("goal update failed", "user_id", smp.UserID.String(), "metric", smp.Metric, "error", err)
	}

	writeJSON(w, http.StatusCreated, smp)
}

// ─── Goals ──────────────────────────────────────────────────────────────────

type goalRequest struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Metric       string    `json:"metric"`
	Direction    string    `json:"direction"`
	InitialValue float64   `json:"initial_value"`
	TargetValue  float64   `json:"target_value"`
}

func (s *Server) handleUpsertGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.UserID == uuid.Nil || req.Metric == "" {
		writeError(w, http.StatusBadRequest, "user_id and metric are required")
		return
	}
	direction := domain.GoalDirection(req.Direction)
	switch direction {
	case domain.GoalIncrease, domain.GoalDecrease:
	default:
		writeError(w, http.StatusBadRequest, "direction must be increase or decrease")
		return
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}

	g := &domain.Goal{
		ID:           req.ID,
		UserID:       req.UserID,
		Metric:       req.Metric,
		Direction:    direction,
		InitialValue: req.InitialValue,
		TargetValue:  req.TargetValue,
		CurrentValue: req.InitialValue,
		CreatedAt:    time.Now(),
	}
	if err := s.store.UpsertGoal(r.Context(), g); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	goals, err := s.store.ListGoals(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type entry struct {
		domain.Goal
		ProgressPct float64 `json:"progress_pct"`
	}
	out := make([]entry, 0, len(goals))
	for _, g := range goals {
		out = append(out, entry{Goal: g, ProgressPct: g.ProgressPct()})
	}
	writeJSON(w, http.StatusOK, out)
}

// ─── Analytics ──────────────────────────────────────────────────────────────

// adherenceReport runs the windowed analysis for the request, writing
// the error response itself when something is wrong.
func (s *Server) adherenceReport(w http.ResponseWriter, r *http.Request) *adherence.Report {
	userID, err := userIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil
	}

	windowDays := s.cfg.AdherenceWindowDays
	if raw := r.URL.Query().Get("window_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 365 {
			writeError(w, http.StatusBadRequest, "window_days must be 1-365")
			return nil
		}
		windowDays = n
	}

	report, err := s.adherence.Analyze(r.Context(), userID, windowDays, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil
	}
	return report
}

func (s *Server) handleAdherenceReport(w http.ResponseWriter, r *http.Request) {
	if report := s.adherenceReport(w, r); report != nil {
		writeJSON(w, http.StatusOK, report)
	}
}

func (s *Server) handleAdherenceDaily(w http.ResponseWriter, r *http.Request) {
	if report := s.adherenceReport(w, r); report != nil {
		writeJSON(w, http.StatusOK, report.Days)
	}
}

func (s *Server) handleAdherenceMedications(w http.ResponseWriter, r *http.Request) {
	if report := s.adherenceReport(w, r); report != nil {
		writeJSON(w, http.StatusOK, report.Medications)
	}
}

func (s *Server) handleAdherenceStreak(w http.ResponseWriter, r *http.Request) {
	if report := s.adherenceReport(w, r); report != nil {
		writeJSON(w, http.StatusOK, report.Streak)
	}
}

func (s *Server) handleAdherenceInsights(w http.ResponseWriter, r *http.Request) {
	if report := s.adherenceReport(w, r); report != nil {
		writeJSON(w, http.StatusOK, report.Insights)
	}
}

func (s *Server) handleListCorrelations(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recs, err := s.correlation.List(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if recs == nil {
		recs = []domain.CorrelationRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

type analyzeRequest struct {
	UserID       uuid.UUID `json:"user_id"`
	MedicationID uuid.UUID `json:"medication_id"`
	Metric       string    `json:"metric"`
	WindowDays   int       `json:"window_days"`
}

func (s *Server) handleAnalyzeCorrelation(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.UserID == uuid.Nil || req.MedicationID == uuid.Nil || req.Metric == "" {
		writeError(w, http.StatusBadRequest, "user_id, medication_id, and metric are required")
		return
	}
	windowDays := req.WindowDays
	if windowDays <= 0 {
		windowDays = s.cfg.CorrelationWindowDays
	}

	rec, err := s.correlation.AnalyzeMedicationMetric(r.Context(), req.UserID, req.MedicationID, req.Metric, windowDays, time.Now())
	if err != nil {
		if errors.Is(err, domain.ErrMedicationNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rec == nil {
		// Not enough overlapping days yet
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"insufficient_data": true,
			"minimum_days":      10,
		})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
