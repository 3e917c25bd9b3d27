package learner

import (
	"github.com/asgard/safla/internal/safla/model"
	"github.com/montanaflynn/stats"
)

// EvaluateMetrics computes §4.L step 2's aggregate performance metrics with
// kind-specific reductions: binary correctness for action-outcome
// experiences, feedback-score for anomaly-detection, confidence (carried in
// ExpectedOutput["confidence"]) for pattern-discovery. Throughput is
// computed separately from processing durations since it has no per-kind
// reduction.
func EvaluateMetrics(experiences []model.Experience, processingDurations []float64) model.PerformanceMetrics {
	var truePos, falsePos, falseNeg, trueNeg int
	var errorCount int
	var total int

	for _, e := range experiences {
		switch e.Kind {
		case model.ExperienceActionOutcome:
			predicted, pOK := e.ActualOutput["success"].(bool)
			expected, eOK := e.ExpectedOutput["success"].(bool)
			if !pOK || !eOK {
				continue
			}
			total++
			switch {
			case predicted && expected:
				truePos++
			case predicted && !expected:
				falsePos++
				errorCount++
			case !predicted && expected:
				falseNeg++
				errorCount++
			default:
				trueNeg++
			}

		case model.ExperienceAnomalyDetection:
			if e.FeedbackScore == nil {
				continue
			}
			total++
			if *e.FeedbackScore >= 0.5 {
				truePos++
			} else {
				falsePos++
				errorCount++
			}

		case model.ExperiencePatternDiscovery:
			confidence, ok := e.ExpectedOutput["confidence"].(float64)
			if !ok {
				continue
			}
			total++
			if confidence >= 0.5 {
				truePos++
			} else {
				falseNeg++
				errorCount++
			}
		}
	}

	metrics := model.PerformanceMetrics{}
	if total > 0 {
		metrics.Accuracy = float64(truePos+trueNeg) / float64(total)
		metrics.ErrorRate = float64(errorCount) / float64(total)
	}
	if truePos+falsePos > 0 {
		metrics.Precision = float64(truePos) / float64(truePos+falsePos)
	}
	if truePos+falseNeg > 0 {
		metrics.Recall = float64(truePos) / float64(truePos+falseNeg)
	}
	if metrics.Precision+metrics.Recall > 0 {
		metrics.F1 = 2 * metrics.Precision * metrics.Recall / (metrics.Precision + metrics.Recall)
	}

	if len(processingDurations) > 0 {
		mean, err := stats.Mean(stats.Float64Data(processingDurations))
		if err == nil && mean > 0 {
			metrics.Throughput = 1 / mean
		}
	}
	return metrics
}
