package analysis

import (
	"context"

	"github.com/asgard/safla/internal/safla/model"
)

// PredictionAnalyzer extrapolates the next value per sensor from simple
// recent-trend continuation (§4.D): predicted = last + (last - first)/count,
// over the last 10 scaled values, clamped to [0,1], at a fixed confidence.
type PredictionAnalyzer struct{}

func (a *PredictionAnalyzer) Name() string { return "prediction" }

const predictionConfidence = 0.6

func (a *PredictionAnalyzer) Analyze(ctx context.Context, window []model.NormalizedReading) (model.AnalysisResult, error) {
	var out model.AnalysisResult

	for sensorID, readings := range bySensor(window) {
		if len(readings) < 5 {
			continue
		}
		last10 := readings
		if len(last10) > 10 {
			last10 = last10[len(last10)-10:]
		}

		first := last10[0].ScaledValue
		last := last10[len(last10)-1].ScaledValue
		count := float64(len(last10))
		trend := (last - first) / count
		predicted := last + trend
		if predicted < 0 {
			predicted = 0
		}
		if predicted > 1 {
			predicted = 1
		}

		out.Predictions = append(out.Predictions, model.Prediction{
			Model:      "trend-extrapolation",
			Kind:       "next-value",
			Timestamp:  readings[len(readings)-1].Timestamp,
			Confidence: predictionConfidence,
			Payload: model.PredictionPayload{
				SensorID:       sensorID,
				PredictedValue: predicted,
				Trend:          trend,
			},
		})
	}
	return out, nil
}
