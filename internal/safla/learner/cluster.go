package learner

import (
	"math"

	"github.com/asgard/safla/internal/safla/model"
)

const (
	clusterEpsilon    = 0.2
	clusterMinSamples = 3
	clusterConfidenceThreshold = 0.4
)

// clusterPoint is one experience projected into the clustering feature
// space: [feedback-score, hour-of-day/24, kind-ordinal/K] (§4.L step 6).
type clusterPoint struct {
	features [3]float64
	feedback float64
	index    int
}

// kindOrdinal gives every ExperienceKind a stable position in [0,1) for the
// clustering feature vector.
var kindOrdinal = map[model.ExperienceKind]int{
	model.ExperienceSensorData:       0,
	model.ExperienceActionOutcome:    1,
	model.ExperiencePatternDiscovery: 2,
	model.ExperienceAnomalyDetection: 3,
	model.ExperienceSafetyViolation:  4,
	model.ExperienceUserFeedback:     5,
}

const kindCount = 6

// DiscoverPatterns runs a DBSCAN-style density clusterer over scored
// experiences and emits a cluster Pattern for any cluster whose mean
// feedback deviates enough from neutral (§4.L step 6).
func DiscoverPatterns(experiences []model.Experience) []model.Pattern {
	points := buildClusterPoints(experiences)
	if len(points) < clusterMinSamples {
		return nil
	}

	labels := dbscan(points, clusterEpsilon, clusterMinSamples)

	byCluster := make(map[int][]clusterPoint)
	for i, label := range labels {
		if label < 0 {
			continue // noise point
		}
		byCluster[label] = append(byCluster[label], points[i])
	}

	var out []model.Pattern
	for _, members := range byCluster {
		meanFeedback := meanFeedback(members)
		delta := absf(meanFeedback-0.5) * 2
		if delta <= clusterConfidenceThreshold {
			continue
		}

		sensorIDs := make([]string, 0, len(members))
		for _, m := range members {
			sensorIDs = append(sensorIDs, experiences[m.index].ID)
		}

		out = append(out, model.Pattern{
			Kind:       model.PatternCluster,
			SensorIDs:  sensorIDs,
			Confidence: delta,
			Payload: map[string]any{
				"mean_feedback": meanFeedback,
				"size":          len(members),
			},
		})
	}
	return out
}

func buildClusterPoints(experiences []model.Experience) []clusterPoint {
	points := make([]clusterPoint, 0, len(experiences))
	for i, e := range experiences {
		if e.FeedbackScore == nil {
			continue
		}
		hour := float64(e.Timestamp.Hour())
		ordinal := float64(kindOrdinal[e.Kind]) / float64(kindCount)
		points = append(points, clusterPoint{
			features: [3]float64{*e.FeedbackScore, hour / 24.0, ordinal},
			feedback: *e.FeedbackScore,
			index:    i,
		})
	}
	return points
}

func meanFeedback(points []clusterPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += p.feedback
	}
	return sum / float64(len(points))
}

// dbscan is a minimal DBSCAN implementation over 3-D feature points.
// Returns a label per point: -1 for noise, else a zero-based cluster id.
func dbscan(points []clusterPoint, eps float64, minSamples int) []int {
	n := len(points)
	labels := make([]int, n)
	visited := make([]bool, n)
	for i := range labels {
		labels[i] = -1
	}

	clusterID := 0
	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true

		neighbors := regionQuery(points, i, eps)
		if len(neighbors) < minSamples {
			continue // stays labeled noise
		}

		labels[i] = clusterID
		seeds := append([]int{}, neighbors...)
		for j := 0; j < len(seeds); j++ {
			p := seeds[j]
			if !visited[p] {
				visited[p] = true
				pNeighbors := regionQuery(points, p, eps)
				if len(pNeighbors) >= minSamples {
					seeds = append(seeds, pNeighbors...)
				}
			}
			if labels[p] == -1 {
				labels[p] = clusterID
			}
		}
		clusterID++
	}
	return labels
}

func regionQuery(points []clusterPoint, idx int, eps float64) []int {
	var out []int
	for j, p := range points {
		if j == idx {
			continue
		}
		if euclid3(points[idx].features, p.features) <= eps {
			out = append(out, j)
		}
	}
	return out
}

func euclid3(a, b [3]float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
