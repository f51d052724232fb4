package chaos

import (
	"errors"
	"fmt"
	"math"

	"github.com/songzhibin97/cryptotherapist/internal/models"
)

var (
	// ErrIncompleteMetrics is returned when a required sub-metric is absent.
	ErrIncompleteMetrics = errors.New("incomplete metrics")

	// ErrInvalidMetric is returned for values that cannot be clamped, such as NaN.
	ErrInvalidMetric = errors.New("invalid metric value")
)

// MetricLimits maps each Chaos Index metric to its maximum score.
var MetricLimits = map[string]float64{
	models.MetricMemeDensity:      10,
	models.MetricCryptoHypeScore:  20,
	models.MetricChaosCoefficient: 10,
	models.MetricControversyLevel: 15,
	models.MetricProphetFactor:    10,
}

// metricOrder fixes summation order so the raw score is reproducible bit for bit.
var metricOrder = []string{
	models.MetricMemeDensity,
	models.MetricCryptoHypeScore,
	models.MetricChaosCoefficient,
	models.MetricControversyLevel,
	models.MetricProphetFactor,
}

// MaxRawScore is the sum of every metric maximum.
const MaxRawScore = 65.0

// FallbackMetrics is substituted when an analysis cannot be scored.
var FallbackMetrics = models.ChaosMetrics{
	MemeDensity:      5,
	CryptoHypeScore:  10,
	ChaosCoefficient: 5,
	ControversyLevel: 7,
	ProphetFactor:    5,
}

// Normalize clamps each metric into [0, max], sums them into the raw score and scales the
// sum onto 0-10. Unknown keys are ignored.
func Normalize(values map[string]float64) (models.ChaosScore, error) {
	clamped := make(map[string]float64, len(MetricLimits))
	var raw float64
	for _, name := range metricOrder {
		limit := MetricLimits[name]
		v, ok := values[name]
		if !ok {
			return models.ChaosScore{}, fmt.Errorf("%w: %s", ErrIncompleteMetrics, name)
		}
		if math.IsNaN(v) {
			return models.ChaosScore{}, fmt.Errorf("%w: %s is NaN", ErrInvalidMetric, name)
		}
		v = clamp(v, 0, limit)
		clamped[name] = v
		raw += v
	}

	return models.ChaosScore{
		Metrics: models.ChaosMetrics{
			MemeDensity:      clamped[models.MetricMemeDensity],
			CryptoHypeScore:  clamped[models.MetricCryptoHypeScore],
			ChaosCoefficient: clamped[models.MetricChaosCoefficient],
			ControversyLevel: clamped[models.MetricControversyLevel],
			ProphetFactor:    clamped[models.MetricProphetFactor],
		},
		RawScore:        raw,
		NormalizedScore: raw / MaxRawScore * 10,
	}, nil
}

// FallbackScore is the normalized form of FallbackMetrics.
func FallbackScore() models.ChaosScore {
	score, _ := Normalize(FallbackMetrics.AsMap())
	return score
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
