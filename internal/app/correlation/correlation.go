// Package correlation measures the relationship between medication
// intake and body metrics with Pearson correlation over daily series.
package correlation

import (
	"fmt"
	"math"
	"strings"

	"github.com/Poolchaos/personalfit/internal/domain"
)

// minDataPoints is the minimum number of days with both a dose signal
// and a metric sample before analysis produces a result.
const minDataPoints = 10

// Pearson computes the Pearson correlation coefficient over two
// equal-length series. Empty, mismatched, or degenerate (constant)
// input returns 0. Never NaN, never a division by zero.
func Pearson(x, y []float64) float64 {
	n := len(x)
	if n == 0 || n != len(y) {
		return 0
	}

	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for i := 0; i < n; i++ {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
		sumY2 += y[i] * y[i]
	}

	fn := float64(n)
	num := fn*sumXY - sumX*sumY
	den := math.Sqrt(fn*sumX2-sumX*sumX) * math.Sqrt(fn*sumY2-sumY*sumY)
	if den == 0 {
		return 0
	}
	return num / den
}

// classifyConfidence maps sample size and correlation magnitude to a
// confidence level.
func classifyConfidence(n int, r float64) domain.ConfidenceLevel {
	abs := math.Abs(r)
	switch {
	case n >= 30 && abs >= 0.7:
		return domain.ConfidenceHigh
	case n >= 15 && abs >= 0.4:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// classifyDirection maps the coefficient's sign to an impact direction.
// Magnitudes under 0.2 are neutral.
func classifyDirection(r float64) domain.ImpactDirection {
	switch {
	case math.Abs(r) < 0.2:
		return domain.ImpactNeutral
	case r > 0:
		return domain.ImpactPositive
	default:
		return domain.ImpactNegative
	}
}

// strengthWord names the magnitude band of a coefficient.
func strengthWord(r float64) string {
	abs := math.Abs(r)
	switch {
	case abs >= 0.7:
		return "strong"
	case abs >= 0.4:
		return "moderate"
	case abs >= 0.2:
		return "weak"
	default:
		return "negligible"
	}
}

// dayPoint is one day with both a dose signal and a metric sample.
type dayPoint struct {
	taken  float64 // 1 when at least one dose was taken that day
	metric float64
}

// buildObservations renders the templated observation strings.
func buildObservations(medName, metric string, r float64, n int, medicatedAvg, unmedicatedAvg float64, haveBoth bool) []string {
	var out []string

	dir := classifyDirection(r)
	name := medName
	if name == "" {
		name = "this medication"
	}

	switch dir {
	case domain.ImpactNeutral:
		out = append(out, fmt.Sprintf("No meaningful relationship detected between %s and %s (r=%.2f).", name, metric, r))
	default:
		out = append(out, fmt.Sprintf("There is a %s %s correlation between taking %s and %s (r=%.2f).",
			strengthWord(r), string(dir), name, metric, r))
	}

	if haveBoth && unmedicatedAvg != 0 {
		change := (medicatedAvg - unmedicatedAvg) / math.Abs(unmedicatedAvg) * 100
		out = append(out, fmt.Sprintf("On days you took %s, your average %s was %.1f vs %.1f on other days (%+.0f%%).",
			name, metric, medicatedAvg, unmedicatedAvg, change))
	}

	if n < 30 {
		out = append(out, fmt.Sprintf("Based on %d days of data. More logging will sharpen this estimate.", n))
	}

	if guidance := metricGuidance(metric, r); guidance != "" {
		out = append(out, guidance)
	}
	return out
}

// metricGuidance returns canned metric-specific advice for correlations
// strong enough to act on.
func metricGuidance(metric string, r float64) string {
	if math.Abs(r) < 0.2 {
		return ""
	}
	switch strings.ToLower(metric) {
	case "sleep_quality", "sleep quality":
		if r < 0 {
			return "Lower sleep quality on medicated days can point to dose timing. Taking it earlier in the day may help."
		}
		return "This medication appears to support your sleep quality."
	case "energy", "energy_level":
		if r > 0 {
			return "Energy levels trend higher on medicated days. Consistent timing keeps that effect steady."
		}
		return "Energy levels dip on medicated days. Worth mentioning at your next check-up."
	case "mood":
		if r < 0 {
			return "Mood trends lower on medicated days. Worth discussing with your prescriber."
		}
	case "weight":
		return "Weight moves slowly. Interpret short-window correlations with caution."
	}
	return ""
}
