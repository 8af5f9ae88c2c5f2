package correlation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Poolchaos/personalfit/internal/domain"
	"github.com/Poolchaos/personalfit/internal/infra/metrics"
	"github.com/Poolchaos/personalfit/internal/logger"
)

// Store reads the raw series and persists derived correlation records.
type Store interface {
	GetMedication(ctx context.Context, userID, medicationID uuid.UUID) (*domain.Medication, error)
	ListDoseLogs(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.DoseLogEntry, error)
	ListMetricSamples(ctx context.Context, userID uuid.UUID, metric string, from, to time.Time) ([]domain.BodyMetricSample, error)
	// UpsertCorrelation fully replaces the record for its
	// (user, medication, metric) triple.
	UpsertCorrelation(ctx context.Context, rec *domain.CorrelationRecord) error
	ListCorrelations(ctx context.Context, userID uuid.UUID) ([]domain.CorrelationRecord, error)
}

// TargetLister enumerates the triples a batch run should analyze.
type TargetLister interface {
	ListAnalysisTargets(ctx context.Context) ([]domain.AnalysisTarget, error)
}

// Service runs correlation analyses over stored dose logs and metric
// samples.
type Service struct {
	store Store
	loc   *time.Location
	log   *logger.Logger
}

// NewService creates a correlation service. loc decides day boundaries.
func NewService(store Store, loc *time.Location, log *logger.Logger) *Service {
	return &Service{store: store, loc: loc, log: log.With("component", "correlation")}
}

// List returns the user's stored correlation records.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]domain.CorrelationRecord, error) {
	return s.store.ListCorrelations(ctx, userID)
}

// AnalyzeAll recomputes correlations for every known target. Targets
// that still lack enough data are skipped, not errors. Returns how many
// records were produced.
func (s *Service) AnalyzeAll(ctx context.Context, lister TargetLister, windowDays int, ref time.Time) (int, error) {
	targets, err := lister.ListAnalysisTargets(ctx)
	if err != nil {
		return 0, fmt.Errorf("list analysis targets: %w", err)
	}

	produced := 0
	for _, t := range targets {
		rec, err := s.AnalyzeMedicationMetric(ctx, t.UserID, t.MedicationID, t.Metric, windowDays, ref)
		if err != nil {
			s.log.Warn("batch analysis target failed",
				"user_id", t.UserID.String(), "medication_id", t.MedicationID.String(),
				"metric", t.Metric, "error", err)
			continue
		}
		if rec != nil {
			produced++
		}
	}
	s.log.Info("batch analysis complete", "targets", len(targets), "produced", produced)
	return produced, nil
}

// AnalyzeMedicationMetric correlates daily medication intake (binary:
// at least one taken dose that day) against a body metric over the
// trailing window ending at ref. Fewer than 10 overlapping days returns
// (nil, nil): insufficient data is an outcome, not an error. A produced
// record replaces the stored one for the same triple.
func (s *Service) AnalyzeMedicationMetric(ctx context.Context, userID, medicationID uuid.UUID, metric string, windowDays int, ref time.Time) (*domain.CorrelationRecord, error) {
	start := time.Now()

	refDay := ref.In(s.loc)
	y, m, d := refDay.Date()
	to := time.Date(y, m, d, 0, 0, 0, 0, s.loc).AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -windowDays)

	med, err := s.store.GetMedication(ctx, userID, medicationID)
	if err != nil {
		return nil, fmt.Errorf("get medication: %w", err)
	}
	if med == nil {
		return nil, domain.ErrMedicationNotFound
	}

	logs, err := s.store.ListDoseLogs(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list dose logs: %w", err)
	}
	samples, err := s.store.ListMetricSamples(ctx, userID, metric, from, to)
	if err != nil {
		return nil, fmt.Errorf("list metric samples: %w", err)
	}

	points := s.buildDailySeries(medicationID, logs, samples)
	if len(points) < minDataPoints {
		s.log.Debug("insufficient correlation data",
			"user_id", userID.String(), "medication_id", medicationID.String(),
			"metric", metric, "days", len(points))
		return nil, nil
	}

	x := make([]float64, len(points))
	yv := make([]float64, len(points))
	var medSum, medN, unmedSum, unmedN float64
	for i, p := range points {
		x[i] = p.taken
		yv[i] = p.metric
		if p.taken == 1 {
			medSum += p.metric
			medN++
		} else {
			unmedSum += p.metric
			unmedN++
		}
	}

	r := Pearson(x, yv)
	haveBoth := medN > 0 && unmedN > 0
	var medAvg, unmedAvg float64
	if medN > 0 {
		medAvg = medSum / medN
	}
	if unmedN > 0 {
		unmedAvg = unmedSum / unmedN
	}

	rec := &domain.CorrelationRecord{
		UserID:           userID,
		MedicationID:     medicationID,
		Metric:           metric,
		Coefficient:      r,
		Direction:        classifyDirection(r),
		Confidence:       classifyConfidence(len(points), r),
		DataPoints:       len(points),
		Observations:     buildObservations(med.Name, metric, r, len(points), medAvg, unmedAvg, haveBoth),
		SamplePeriodDays: windowDays,
		UpdatedAt:        time.Now(),
	}
	if err := s.store.UpsertCorrelation(ctx, rec); err != nil {
		return nil, fmt.Errorf("upsert correlation: %w", err)
	}

	metrics.CorrelationsComputed.WithLabelValues(string(rec.Confidence)).Inc()
	metrics.CorrelationAnalysisDuration.Observe(time.Since(start).Seconds())
	s.log.Info("correlation analyzed",
		"user_id", userID.String(), "medication_id", medicationID.String(),
		"metric", metric, "r", r, "n", len(points), "confidence", string(rec.Confidence))
	return rec, nil
}

// buildDailySeries joins taken doses and metric samples on calendar
// day, keeping only days that have a metric sample. The dose signal is
// binary. Multiple samples on one day average.
func (s *Service) buildDailySeries(medicationID uuid.UUID, logs []domain.DoseLogEntry, samples []domain.BodyMetricSample) []dayPoint {
	takenDays := make(map[string]bool)
	for _, lg := range logs {
		if lg.MedicationID != medicationID || lg.Status != domain.DoseTaken {
			continue
		}
		takenDays[lg.ScheduledTime.In(s.loc).Format("2006-01-02")] = true
	}

	type agg struct {
		sum float64
		n   int
	}
	byDay := make(map[string]*agg)
	var order []string
	for _, smp := range samples {
		a, ok := byDay[smp.Date]
		if !ok {
			a = &agg{}
			byDay[smp.Date] = a
			order = append(order, smp.Date)
		}
		a.sum += smp.Value
		a.n++
	}

	out := make([]dayPoint, 0, len(order))
	for _, date := range order {
		a := byDay[date]
		p := dayPoint{metric: a.sum / float64(a.n)}
		if takenDays[date] {
			p.taken = 1
		}
		out = append(out, p)
	}
	return out
}
