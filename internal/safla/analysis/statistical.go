package analysis

import (
	"context"
	"math"

	"github.com/asgard/safla/internal/safla/model"
	"github.com/montanaflynn/stats"
)

// StatisticalAnomalyAnalyzer flags samples more than ZScoreThreshold standard
// deviations from the sensor's own mean (§4.D). Mean/stddev are computed
// with montanaflynn/stats, the same library the trend analyzer uses for
// correlation — the pack's one statistics library, used wherever the spec
// calls for a population statistic instead of hand-rolling it twice.
type StatisticalAnomalyAnalyzer struct {
	cfg Config
}

func (a *StatisticalAnomalyAnalyzer) Name() string { return "statistical-anomaly" }

func (a *StatisticalAnomalyAnalyzer) Analyze(ctx context.Context, window []model.NormalizedReading) (model.AnalysisResult, error) {
	var out model.AnalysisResult

	for _, readings := range bySensor(window) {
		if len(readings) < 5 {
			continue
		}
		out.Anomalies = append(out.Anomalies, a.analyzeSensor(readings, a.cfg.ZScoreThreshold)...)
	}
	return out, nil
}

func (a *StatisticalAnomalyAnalyzer) analyzeSensor(readings []model.NormalizedReading, threshold float64) []model.Anomaly {
	values := make([]float64, len(readings))
	for i, r := range readings {
		values[i] = r.ScaledValue
	}

	mean, err := stats.Mean(stats.Float64Data(values))
	if err != nil {
		return nil
	}
	sigma, err := stats.StandardDeviation(stats.Float64Data(values))
	if err != nil || sigma == 0 {
		return nil
	}

	var out []model.Anomaly
	expected := model.TimeInterval{Start: mean - 2*sigma, End: mean + 2*sigma}
	for i, v := range values {
		z := (v - mean) / sigma
		if math.Abs(z) <= threshold {
			continue
		}
		severity := math.Abs(z) / (2 * threshold)
		if severity > 1 {
			severity = 1
		}
		out = append(out, model.Anomaly{
			Kind:        model.AnomalyStatistical,
			SensorKind:  readings[i].Kind,
			SensorID:    readings[i].SensorID,
			Timestamp:   readings[i].Timestamp,
			Severity:    severity,
			Observed:    v,
			Expected:    expected,
			Description: "statistical outlier beyond z-score threshold",
			Metadata:    map[string]any{"z_score": z, "mean": mean, "sigma": sigma},
		})
	}
	return out
}
