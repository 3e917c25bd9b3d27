package learner

import (
	"fmt"

	"github.com/asgard/safla/internal/safla/model"
)

// MaterializeExperiences projects one cycle's inputs/outputs into
// Experiences (§4.L step 1): one per analysis anomaly, one per analysis
// pattern, and one per execution result.
func MaterializeExperiences(cycle model.CycleRecord) []model.Experience {
	var out []model.Experience

	if cycle.Analysis != nil {
		for i, an := range cycle.Analysis.Anomalies {
			score := an.Severity
			out = append(out, model.Experience{
				ID:        fmt.Sprintf("%s-anomaly-%d", cycle.ID, i),
				Kind:      model.ExperienceAnomalyDetection,
				Timestamp: cycle.Start,
				Input:     map[string]any{"sensor_id": an.SensorID, "kind": string(an.Kind)},
				ActualOutput: map[string]any{
					"severity": an.Severity,
				},
				FeedbackScore: &score,
			})
		}
		for i, p := range cycle.Analysis.Patterns {
			confidence := p.Confidence
			out = append(out, model.Experience{
				ID:        fmt.Sprintf("%s-pattern-%d", cycle.ID, i),
				Kind:      model.ExperiencePatternDiscovery,
				Timestamp: cycle.Start,
				Input:     map[string]any{"kind": string(p.Kind)},
				ExpectedOutput: map[string]any{
					"confidence": confidence,
				},
			})
		}
	}

	for i, er := range cycle.ExecutionResults {
		out = append(out, model.Experience{
			ID:        fmt.Sprintf("%s-action-%d", cycle.ID, i),
			Kind:      model.ExperienceActionOutcome,
			Timestamp: cycle.Start,
			ActualOutput: map[string]any{
				"success": er.Success,
			},
			ExpectedOutput: map[string]any{
				"success": true,
			},
		})
	}

	return out
}
