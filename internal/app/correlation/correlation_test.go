package correlation_test

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Poolchaos/personalfit/internal/app/correlation"
	"github.com/Poolchaos/personalfit/internal/domain"
	"github.com/Poolchaos/personalfit/internal/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// Pearson Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestPearson_PerfectPositive(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 4, 6, 8, 10}
	if r := correlation.Pearson(x, y); math.Abs(r-1) > 1e-9 {
		t.Errorf("expected r=1, got %v", r)
	}
}

func TestPearson_PerfectNegative(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{10, 8, 6, 4, 2}
	if r := correlation.Pearson(x, y); math.Abs(r+1) > 1e-9 {
		t.Errorf("expected r=-1, got %v", r)
	}
}

func TestPearson_DegenerateInputs(t *testing.T) {
	cases := []struct {
		name string
		x, y []float64
	}{
		{"empty", nil, nil},
		{"mismatched", []float64{1, 2}, []float64{1}},
		{"constant x", []float64{3, 3, 3}, []float64{1, 2, 3}},
		{"constant y", []float64{1, 2, 3}, []float64{7, 7, 7}},
	}
	for _, c := range cases {
		r := correlation.Pearson(c.x, c.y)
		if r != 0 {
			t.Errorf("%s: expected 0, got %v", c.name, r)
		}
		if math.IsNaN(r) {
			t.Errorf("%s: got NaN", c.name)
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Analysis Tests
// ═══════════════════════════════════════════════════════════════════════════

// memStore is an in-memory correlation.Store.
type memStore struct {
	med     *domain.Medication
	logs    []domain.DoseLogEntry
	samples []domain.BodyMetricSample
	records map[string]*domain.CorrelationRecord
}

func newMemStore(med *domain.Medication) *memStore {
	return &memStore{med: med, records: make(map[string]*domain.CorrelationRecord)}
}

func (m *memStore) GetMedication(_ context.Context, userID, medicationID uuid.UUID) (*domain.Medication, error) {
	if m.med != nil && m.med.ID == medicationID && m.med.UserID == userID {
		return m.med, nil
	}
	return nil, nil
}

func (m *memStore) ListDoseLogs(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]domain.DoseLogEntry, error) {
	return m.logs, nil
}

func (m *memStore) ListMetricSamples(_ context.Context, _ uuid.UUID, _ string, _, _ time.Time) ([]domain.BodyMetricSample, error) {
	return m.samples, nil
}

func (m *memStore) UpsertCorrelation(_ context.Context, rec *domain.CorrelationRecord) error {
	m.records[rec.MedicationID.String()+"|"+rec.Metric] = rec
	return nil
}

func (m *memStore) ListCorrelations(_ context.Context, _ uuid.UUID) ([]domain.CorrelationRecord, error) {
	out := make([]domain.CorrelationRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, *r)
	}
	return out, nil
}

// seedStore populates n days where medicated days have metric value
// medVal and unmedicated days have unmedVal (alternating every other
// day medicated).
func seedStore(store *memStore, userID uuid.UUID, n int, medVal, unmedVal float64) {
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		day := base.AddDate(0, 0, i)
		val := unmedVal
		if i%2 == 0 {
			val = medVal
			store.logs = append(store.logs, domain.DoseLogEntry{
				ID:            uuid.New(),
				UserID:        userID,
				MedicationID:  store.med.ID,
				ScheduledTime: day.Add(8 * time.Hour),
				Status:        domain.DoseTaken,
			})
		}
		store.samples = append(store.samples, domain.BodyMetricSample{
			ID:     uuid.New(),
			UserID: userID,
			Date:   day.Format("2006-01-02"),
			Metric: "sleep_quality",
			Value:  val,
		})
	}
}

func testService(store *memStore) *correlation.Service {
	return correlation.NewService(store, time.UTC, logger.Nop())
}

func TestAnalyze_InsufficientDataIsNilNil(t *testing.T) {
	userID := uuid.New()
	med := &domain.Medication{ID: uuid.New(), UserID: userID, Name: "Sertraline"}
	store := newMemStore(med)
	seedStore(store, userID, 5, 8, 4) // below the 10-day floor

	rec, err := testService(store).AnalyzeMedicationMetric(
		context.Background(), userID, med.ID, "sleep_quality", 30, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("insufficient data must not error: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil record, got %+v", rec)
	}
	if len(store.records) != 0 {
		t.Error("nothing should be persisted")
	}
}

func TestAnalyze_HighConfidencePositive(t *testing.T) {
	userID := uuid.New()
	med := &domain.Medication{ID: uuid.New(), UserID: userID, Name: "Sertraline"}
	store := newMemStore(med)
	seedStore(store, userID, 30, 9, 3) // strong separation, 30 days

	rec, err := testService(store).AnalyzeMedicationMetric(
		context.Background(), userID, med.ID, "sleep_quality", 60, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a record")
	}
	if rec.Coefficient <= 0.7 {
		t.Errorf("expected strong positive r, got %v", rec.Coefficient)
	}
	if rec.Confidence != domain.ConfidenceHigh {
		t.Errorf("expected high confidence, got %s", rec.Confidence)
	}
	if rec.Direction != domain.ImpactPositive {
		t.Errorf("expected positive direction, got %s", rec.Direction)
	}
	if rec.DataPoints != 30 {
		t.Errorf("expected 30 data points, got %d", rec.DataPoints)
	}
	if len(store.records) != 1 {
		t.Error("record not persisted")
	}
}

func TestAnalyze_NegativeSleepCorrelationSuggestsEarlierDosing(t *testing.T) {
	userID := uuid.New()
	med := &domain.Medication{ID: uuid.New(), UserID: userID, Name: "Sertraline"}
	store := newMemStore(med)
	seedStore(store, userID, 20, 3, 8) // sleep worse on medicated days

	rec, err := testService(store).AnalyzeMedicationMetric(
		context.Background(), userID, med.ID, "sleep_quality", 60, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if rec.Direction != domain.ImpactNegative {
		t.Fatalf("expected negative direction, got %s", rec.Direction)
	}
	found := false
	for _, obs := range rec.Observations {
		if strings.Contains(obs, "earlier") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected earlier-dosing guidance, got %v", rec.Observations)
	}
}

func TestAnalyze_NeutralDirection(t *testing.T) {
	userID := uuid.New()
	med := &domain.Medication{ID: uuid.New(), UserID: userID, Name: "Sertraline"}
	store := newMemStore(med)
	// Same value on every day: degenerate series, r = 0.
	seedStore(store, userID, 20, 6, 6)

	rec, err := testService(store).AnalyzeMedicationMetric(
		context.Background(), userID, med.ID, "sleep_quality", 60, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if rec.Direction != domain.ImpactNeutral {
		t.Errorf("expected neutral, got %s (r=%v)", rec.Direction, rec.Coefficient)
	}
}

func TestAnalyze_RerunReplacesRecord(t *testing.T) {
	userID := uuid.New()
	med := &domain.Medication{ID: uuid.New(), UserID: userID, Name: "Sertraline"}
	store := newMemStore(med)
	seedStore(store, userID, 20, 9, 3)

	svc := testService(store)
	ref := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()
	if _, err := svc.AnalyzeMedicationMetric(ctx, userID, med.ID, "sleep_quality", 60, ref); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AnalyzeMedicationMetric(ctx, userID, med.ID, "sleep_quality", 60, ref); err != nil {
		t.Fatal(err)
	}
	if len(store.records) != 1 {
		t.Errorf("rerun must upsert, not append: %d records", len(store.records))
	}
}

func TestAnalyze_UnknownMedication(t *testing.T) {
	store := newMemStore(nil)
	_, err := testService(store).AnalyzeMedicationMetric(
		context.Background(), uuid.New(), uuid.New(), "sleep_quality", 30, time.Now())
	if err == nil {
		t.Fatal("expected error for unknown medication")
	}
}
