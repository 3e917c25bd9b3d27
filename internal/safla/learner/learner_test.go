package learner

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/asgard/safla/internal/safla/collab"
	"github.com/asgard/safla/internal/safla/experience"
	"github.com/asgard/safla/internal/safla/model"
)

func ptr(v float64) *float64 { return &v }

func TestEvaluateMetricsActionOutcomeReduction(t *testing.T) {
	experiences := []model.Experience{
		{Kind: model.ExperienceActionOutcome, ActualOutput: map[string]any{"success": true}, ExpectedOutput: map[string]any{"success": true}},
		{Kind: model.ExperienceActionOutcome, ActualOutput: map[string]any{"success": false}, ExpectedOutput: map[string]any{"success": true}},
	}
	m := EvaluateMetrics(experiences, []float64{0.5})
	if m.Accuracy != 0.5 {
		t.Fatalf("expected accuracy 0.5, got %v", m.Accuracy)
	}
	if m.Throughput != 2 {
		t.Fatalf("expected throughput 2 (1/0.5), got %v", m.Throughput)
	}
}

func TestEvaluateMetricsAnomalyFeedbackReduction(t *testing.T) {
	experiences := []model.Experience{
		{Kind: model.ExperienceAnomalyDetection, FeedbackScore: ptr(0.9)},
		{Kind: model.ExperienceAnomalyDetection, FeedbackScore: ptr(0.1)},
	}
	m := EvaluateMetrics(experiences, nil)
	if m.Accuracy != 0.5 {
		t.Fatalf("expected accuracy 0.5 from one good, one bad feedback, got %v", m.Accuracy)
	}
}

func TestDetectDriftRequiresMinimumSamples(t *testing.T) {
	var experiences []model.Experience
	for i := 0; i < 5; i++ {
		experiences = append(experiences, model.Experience{FeedbackScore: ptr(0.9)})
	}
	if DetectDrift(experiences) {
		t.Fatalf("expected no drift detection below minimum sample size")
	}
}

func TestDetectDriftFlagsLargeMeanShift(t *testing.T) {
	var experiences []model.Experience
	for i := 0; i < driftWindowSize; i++ {
		experiences = append(experiences, model.Experience{FeedbackScore: ptr(0.9)}) // recent
	}
	for i := 0; i < driftWindowSize; i++ {
		experiences = append(experiences, model.Experience{FeedbackScore: ptr(0.2)}) // preceding
	}
	if !DetectDrift(experiences) {
		t.Fatalf("expected drift detection for a large mean shift")
	}
}

func TestDetectDriftNoShiftReturnsFalse(t *testing.T) {
	var experiences []model.Experience
	for i := 0; i < driftWindowSize*2; i++ {
		experiences = append(experiences, model.Experience{FeedbackScore: ptr(0.5)})
	}
	if DetectDrift(experiences) {
		t.Fatalf("expected no drift when means match")
	}
}

func TestOptimizerProposeStaysWithinBounds(t *testing.T) {
	o := NewOptimizer(rand.New(rand.NewSource(42)))
	for i := 0; i < 50; i++ {
		adj := o.Propose(0.5)
		b := parameterSpace[adj.Parameter]
		if adj.NewValue < b.Min || adj.NewValue > b.Max {
			t.Fatalf("parameter %s value %v outside bounds [%v,%v]", adj.Parameter, adj.NewValue, b.Min, b.Max)
		}
	}
}

func TestOptimizerEpsilonDecaysOnHighReward(t *testing.T) {
	o := NewOptimizer(rand.New(rand.NewSource(1)))
	start := o.Epsilon()
	for i := 0; i < 10; i++ {
		o.Propose(0.95)
	}
	if o.Epsilon() >= start {
		t.Fatalf("expected epsilon to decay with consistently high reward: start=%v end=%v", start, o.Epsilon())
	}
}

func TestOptimizerEpsilonGrowsOnLowReward(t *testing.T) {
	o := NewOptimizer(rand.New(rand.NewSource(1)))
	start := o.Epsilon()
	for i := 0; i < 10; i++ {
		o.Propose(0.1)
	}
	if o.Epsilon() <= start {
		t.Fatalf("expected epsilon to grow with consistently low reward: start=%v end=%v", start, o.Epsilon())
	}
}

func TestDiscoverPatternsRequiresMinSamples(t *testing.T) {
	experiences := []model.Experience{
		{ID: "e1", Timestamp: time.Unix(0, 0), FeedbackScore: ptr(0.9)},
	}
	if patterns := DiscoverPatterns(experiences); patterns != nil {
		t.Fatalf("expected no clusters below minimum sample size, got %v", patterns)
	}
}

func TestMaterializeExperiencesFromCycle(t *testing.T) {
	cycle := model.CycleRecord{
		ID:    "cycle-1",
		Start: time.Unix(100, 0),
		Analysis: &model.AnalysisResult{
			Anomalies: []model.Anomaly{{SensorID: "t1", Severity: 0.9}},
			Patterns:  []model.Pattern{{Kind: model.PatternTrend, Confidence: 0.7}},
		},
		ExecutionResults: []model.ExecutionResult{{ActionID: "a1", Success: true}},
	}

	experiences := MaterializeExperiences(cycle)
	if len(experiences) != 3 {
		t.Fatalf("expected 3 experiences (1 anomaly, 1 pattern, 1 action), got %d", len(experiences))
	}
}

type stubHook struct {
	calls int
}

func (s *stubHook) RunScenario(ctx context.Context, scenario, house string) (collab.ScenarioResult, error) {
	s.calls++
	return collab.ScenarioResult{Scenario: scenario, Success: true, Score: 0.9}, nil
}

func TestLearnerRunTriggersScenarioEveryTenCycles(t *testing.T) {
	buf := experience.New(100)
	hook := &stubHook{}
	l := New(DefaultConfig(), buf, hook, nil, func() time.Time { return time.Unix(0, 0) })

	var lastResult model.LearningResult
	for i := 0; i < 20; i++ {
		lastResult = l.Run(context.Background(), "house-1", []float64{1.0})
	}
	// Three named scenarios (power_outage, temperature_extreme,
	// occupancy_change) run on each of the two reinforcement cycles
	// (i==9 and i==19) within 20 Run calls.
	if hook.calls != 6 {
		t.Fatalf("expected scenario hook called 6 times (3 scenarios x 2 reinforcement cycles) in 20 cycles, got %d", hook.calls)
	}
	if len(lastResult.ScenarioOutcomes) != 3 {
		t.Fatalf("expected 3 recorded scenario outcomes on a reinforcement cycle, got %d", len(lastResult.ScenarioOutcomes))
	}
}

func TestLearnerRunProducesModelUpdateBelowAccuracyThreshold(t *testing.T) {
	buf := experience.New(100)
	for i := 0; i < 10; i++ {
		buf.Insert(model.Experience{
			Kind:           model.ExperienceActionOutcome,
			ActualOutput:   map[string]any{"success": false},
			ExpectedOutput: map[string]any{"success": true},
		})
	}
	l := New(DefaultConfig(), buf, nil, nil, func() time.Time { return time.Unix(0, 0) })

	result := l.Run(context.Background(), "house-1", nil)
	if len(result.ModelUpdates) == 0 {
		t.Fatalf("expected a model update when accuracy is below threshold")
	}
}
