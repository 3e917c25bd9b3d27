package learner

import (
	"math"

	"github.com/asgard/safla/internal/safla/model"
	"github.com/montanaflynn/stats"
)

const (
	driftWindowSize    = 100
	driftMinSampleSize = 10
	driftThreshold     = 0.15
)

// DetectDrift compares the mean feedback-score of the most recent
// driftWindowSize experiences against the driftWindowSize preceding them
// (§4.L step 4). Drift requires both samples to have at least
// driftMinSampleSize scored experiences.
func DetectDrift(recentFirst []model.Experience) bool {
	recent, preceding := splitDriftWindows(recentFirst)

	recentScores := scoredValues(recent)
	precedingScores := scoredValues(preceding)
	if len(recentScores) < driftMinSampleSize || len(precedingScores) < driftMinSampleSize {
		return false
	}

	recentMean, err := stats.Mean(stats.Float64Data(recentScores))
	if err != nil {
		return false
	}
	precedingMean, err := stats.Mean(stats.Float64Data(precedingScores))
	if err != nil {
		return false
	}

	return math.Abs(recentMean-precedingMean) > driftThreshold
}

// splitDriftWindows takes experiences ordered newest-first and returns the
// first 100 as "recent" and the next 100 as "preceding".
func splitDriftWindows(recentFirst []model.Experience) (recent, preceding []model.Experience) {
	n := len(recentFirst)
	recentEnd := driftWindowSize
	if recentEnd > n {
		recentEnd = n
	}
	recent = recentFirst[:recentEnd]

	precedingEnd := recentEnd + driftWindowSize
	if precedingEnd > n {
		precedingEnd = n
	}
	if recentEnd < precedingEnd {
		preceding = recentFirst[recentEnd:precedingEnd]
	}
	return recent, preceding
}

func scoredValues(experiences []model.Experience) []float64 {
	out := make([]float64, 0, len(experiences))
	for _, e := range experiences {
		if e.FeedbackScore != nil {
			out = append(out, *e.FeedbackScore)
		}
	}
	return out
}
