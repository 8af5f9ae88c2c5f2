// Package metrics provides Prometheus metrics for PersonalFit.
// Counters and histograms for the credit ledger, challenges,
// adherence analytics, and health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Credit Ledger ──────────────────────────────────────────────────────────

// CreditsApplied tracks successfully credited completion events.
var CreditsApplied = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "personalfit",
	Name:      "credits_applied_total",
	Help:      "Total completion events credited to gamification state.",
})

// CreditsDuplicate tracks credits rejected by the idempotency key.
var CreditsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "personalfit",
	Name:      "credits_duplicate_total",
	Help:      "Total completion events skipped as already credited.",
})

// CreditConflicts tracks version conflicts hit during a credit attempt.
var CreditConflicts = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "personalfit",
	Name:      "credit_conflicts_total",
	Help:      "Total optimistic-concurrency conflicts during credits.",
})

// CreditRetriesExhausted tracks credits abandoned after max retries.
var CreditRetriesExhausted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "personalfit",
	Name:      "credit_retries_exhausted_total",
	Help:      "Total credits that failed after exhausting conflict retries.",
})

// ─── Engagement ─────────────────────────────────────────────────────────────

// AchievementsUnlocked tracks total achievement unlocks.
var AchievementsUnlocked = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "personalfit",
	Name:      "achievements_unlocked_total",
	Help:      "Total achievements unlocked across all users.",
})

// LevelUps tracks total level-up events.
var LevelUps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "personalfit",
	Name:      "level_ups_total",
	Help:      "Total level-up events across all users.",
})

// StreakFreezesConsumed tracks streak freezes spent to save a streak.
var StreakFreezesConsumed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "personalfit",
	Name:      "streak_freezes_consumed_total",
	Help:      "Total streak freezes consumed.",
})

// ─── Challenges ─────────────────────────────────────────────────────────────

// ChallengeSetsGenerated tracks daily challenge sets generated.
var ChallengeSetsGenerated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "personalfit",
	Name:      "challenge_sets_generated_total",
	Help:      "Total daily challenge sets generated.",
})

// ChallengesCompleted tracks completed daily challenges by category.
var ChallengesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "personalfit",
	Name:      "challenges_completed_total",
	Help:      "Total daily challenges completed.",
}, []string{"category"})

// ─── Analytics ──────────────────────────────────────────────────────────────

// AdherenceAnalysisDuration tracks adherence report computation time.
var AdherenceAnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "personalfit",
	Name:      "adherence_analysis_seconds",
	Help:      "Adherence analysis computation duration in seconds.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
})

// CorrelationAnalysisDuration tracks correlation run computation time.
var CorrelationAnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "personalfit",
	Name:      "correlation_analysis_seconds",
	Help:      "Correlation analysis computation duration in seconds.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
})

// CorrelationsComputed tracks correlation records produced by confidence.
var CorrelationsComputed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "personalfit",
	Name:      "correlations_computed_total",
	Help:      "Total correlation records computed.",
}, []string{"confidence"})

// InsightsGenerated tracks adherence insights generated by severity.
var InsightsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "personalfit",
	Name:      "insights_generated_total",
	Help:      "Total adherence insights generated.",
}, []string{"severity"})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthCheckStatus tracks health check results (1=healthy, 0=unhealthy).
var HealthCheckStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "personalfit",
	Name:      "health_check_status",
	Help:      "Health check result per component (1=healthy, 0=unhealthy).",
}, []string{"check"})
