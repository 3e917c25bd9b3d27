package analysis

import (
	"context"

	"github.com/asgard/safla/internal/safla/model"
)

// mlBackend scores a batch of feature vectors, returning an outlier flag per
// vector. Two implementations exist, split the same way the
// teacher splits internal/orbital/vision's TFLiteVisionProcessor: a real
// backend behind the `tflite` build tag (ml_tflite.go) and a pure-Go
// fallback (ml_fallback.go) used whenever the tag is absent.
type mlBackend interface {
	Score(features [][3]float64, contamination float64) []bool
}

// MLAnomalyAnalyzer detects outliers per sensor *kind* using an
// isolation-forest-style detector over [scaled-value, hour-of-day/24,
// day-of-week/7] feature vectors (§4.D).
type MLAnomalyAnalyzer struct {
	cfg     Config
	backend mlBackend
}

func (a *MLAnomalyAnalyzer) Name() string { return "ml-anomaly" }

func (a *MLAnomalyAnalyzer) backendOrDefault() mlBackend {
	if a.backend != nil {
		return a.backend
	}
	return newMLBackend()
}

func (a *MLAnomalyAnalyzer) Analyze(ctx context.Context, window []model.NormalizedReading) (model.AnalysisResult, error) {
	var out model.AnalysisResult
	backend := a.backendOrDefault()

	for _, readings := range byKind(window) {
		if len(readings) < 20 {
			continue
		}

		features := make([][3]float64, len(readings))
		for i, r := range readings {
			hour := hourOfDay(r.Timestamp)
			dow := dayOfWeek(r.Timestamp)
			features[i] = [3]float64{r.ScaledValue, hour / 24.0, dow / 7.0}
		}

		outlierFlags := backend.Score(features, a.cfg.MLContamination)
		for i, isOutlier := range outlierFlags {
			if !isOutlier {
				continue
			}
			out.Anomalies = append(out.Anomalies, model.Anomaly{
				Kind:        model.AnomalyCollective,
				SensorKind:  readings[i].Kind,
				SensorID:    readings[i].SensorID,
				Timestamp:   readings[i].Timestamp,
				Severity:    0.8,
				Observed:    readings[i].ScaledValue,
				Description: "isolation-forest outlier across sensor kind",
				Metadata:    map[string]any{"kind": string(readings[i].Kind)},
			})
		}
	}
	return out, nil
}

// hourOfDay and dayOfWeek derive calendar features from a monotonic epoch
// timestamp without importing time.Time construction per-sample, mirroring
// how the rest of this package treats timestamps as plain float64 seconds.
func hourOfDay(epochSeconds float64) float64 {
	secondsInDay := 86400.0
	secOfDay := mod(epochSeconds, secondsInDay)
	return secOfDay / 3600.0
}

func dayOfWeek(epochSeconds float64) float64 {
	// Unix epoch (1970-01-01) was a Thursday (day index 4 of a Sun=0 week).
	days := epochSeconds / 86400.0
	idx := mod(days+4, 7)
	return idx
}

func mod(a, b float64) float64 {
	m := a - b*float64(int64(a/b))
	if m < 0 {
		m += b
	}
	return m
}
