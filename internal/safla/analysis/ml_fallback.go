//go:build !tflite

package analysis

import "sort"

// newMLBackend returns the pure-Go isolation-forest-style fallback used
// whenever the binary is not built with -tags=tflite, mirroring
// internal/orbital/vision's NewTFLiteVisionProcessor fallback-to-SimpleVisionProcessor
// shape.
func newMLBackend() mlBackend {
	return &isolationScoreBackend{}
}

// isolationScoreBackend approximates isolation-forest scoring without a
// model file: it scores each point by its average distance to its k nearest
// neighbours in feature space (points far from everything else isolate
// quickly in a real forest, and score high here too), then flags the
// top-`contamination` fraction as outliers.
type isolationScoreBackend struct{}

func (b *isolationScoreBackend) Score(features [][3]float64, contamination float64) []bool {
	n := len(features)
	out := make([]bool, n)
	if n == 0 {
		return out
	}

	k := 5
	if k >= n {
		k = n - 1
	}
	if k < 1 {
		return out
	}

	scores := make([]float64, n)
	for i := range features {
		dists := make([]float64, 0, n-1)
		for j := range features {
			if i == j {
				continue
			}
			dists = append(dists, sqDist(features[i], features[j]))
		}
		sort.Float64s(dists)
		var sum float64
		for _, d := range dists[:k] {
			sum += d
		}
		scores[i] = sum / float64(k)
	}

	threshold := percentileThreshold(scores, 1-contamination)
	for i, s := range scores {
		if s >= threshold {
			out[i] = true
		}
	}
	return out
}

func sqDist(a, b [3]float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func percentileThreshold(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	idx := int(p * float64(len(sorted)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
