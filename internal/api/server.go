// Package api provides the HTTP server for PersonalFit.
// It exposes the gamification ledger, daily challenges, and the
// medication analytics engine over a local REST API.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Poolchaos/personalfit/internal/app/adherence"
	"github.com/Poolchaos/personalfit/internal/app/challenge"
	"github.com/Poolchaos/personalfit/internal/app/correlation"
	"github.com/Poolchaos/personalfit/internal/app/engagement"
	"github.com/Poolchaos/personalfit/internal/domain"
	"github.com/Poolchaos/personalfit/internal/health"
	"github.com/Poolchaos/personalfit/internal/logger"
)

// Config carries the knobs the server needs from daemon configuration.
type Config struct {
	CORSOrigins           []string
	AdherenceWindowDays   int
	CorrelationWindowDays int
}

// TrackingStore persists the raw tracking records the API ingests.
// *sqlite.DB satisfies it.
type TrackingStore interface {
	UpsertMedication(ctx context.Context, med *domain.Medication) error
	ListMedications(ctx context.Context, userID uuid.UUID) ([]domain.Medication, error)
	InsertDoseLog(ctx context.Context, lg *domain.DoseLogEntry) error
	InsertMetricSample(ctx context.Context, smp *domain.BodyMetricSample) error
	UpsertGoal(ctx context.Context, g *domain.Goal) error
	ListGoals(ctx context.Context, userID uuid.UUID) ([]domain.Goal, error)
	UpdateGoalCurrent(ctx context.Context, userID uuid.UUID, metric string, value float64) error
}

// Server is the PersonalFit HTTP API server.
type Server struct {
	cfg            Config
	store          TrackingStore
	ledger         *engagement.Ledger
	tracker        *challenge.Tracker
	adherence      *adherence.Service
	correlation    *correlation.Service
	health         *health.Checker
	log            *logger.Logger
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(cfg Config, store TrackingStore, ledger *engagement.Ledger, tracker *challenge.Tracker, adh *adherence.Service, corr *correlation.Service, checker *health.Checker, log *logger.Logger) *Server {
	if cfg.AdherenceWindowDays <= 0 {
		cfg.AdherenceWindowDays = 30
	}
	if cfg.CorrelationWindowDays <= 0 {
		cfg.CorrelationWindowDays = 60
	}
	return &Server{
		cfg:         cfg,
		store:       store,
		ledger:      ledger,
		tracker:     tracker,
		adherence:   adh,
		correlation: corr,
		health:      checker,
		log:         log.With("component", "api"),
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.corsMiddleware)

	// Health check
	r.Get("/health", s.handleHealth)

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version": "0.1.0",
		})
	})

	// Gamification ledger
	r.Route("/api/gamification", func(r chi.Router) {
		r.Get("/state", s.handleGamificationState)
		r.Get("/achievements", s.handleAchievements)
		r.Post("/completions", s.handleCompletion)
	})

	// Daily challenges
	r.Route("/api/challenges", func(r chi.Router) {
		r.Get("/today", s.handleChallengesToday)
		r.Post("/{id}/progress", s.handleChallengeProgress)
	})

	// Medication tracking and analytics
	r.Get("/api/medications", s.handleListMedications)
	r.Post("/api/medications", s.handleUpsertMedication)
	r.Post("/api/doses", s.handleLogDose)
	r.Post("/api/metric-samples", s.handleLogMetricSample)
	r.Get("/api/goals", s.handleListGoals)
	r.Post("/api/goals", s.handleUpsertGoal)
	r.Get("/api/adherence", s.handleAdherenceReport)
	r.Get("/api/adherence/daily", s.handleAdherenceDaily)
	r.Get("/api/adherence/medications", s.handleAdherenceMedications)
	r.Get("/api/adherence/streak", s.handleAdherenceStreak)
	r.Get("/api/adherence/insights", s.handleAdherenceInsights)
	r.Get("/api/correlations", s.handleListCorrelations)
	r.Post("/api/correlations/analyze", s.handleAnalyzeCorrelation)

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	statuses := s.health.Statuses()
	code := http.StatusOK
	status := "ok"
	if !s.health.IsHealthy() {
		code = http.StatusServiceUnavailable
		status = "degraded"
	}
	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": statuses,
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers for local app clients.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	origin := "*"
	if len(s.cfg.CORSOrigins) > 0 {
		origin = s.cfg.CORSOrigins[0]
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
