package twinmem

import (
	"context"
	"fmt"

	"github.com/asgard/safla/internal/safla/collab"
	"github.com/asgard/safla/internal/safla/twin"
)

// Scenario is a named, scripted sequence of twin mutations used to
// reinforce the Learner's periodic scenario-based learning (§4.L step 7).
type Scenario struct {
	Name  string
	House string
	Steps []ScenarioStep
	// Score grades the twin's final state; higher is better, clamped to
	// [0,1] by the runner.
	Score func(final map[string]twin.DeviceSnapshot) float64
}

// ScenarioStep mutates one device as the scenario plays out.
type ScenarioStep struct {
	Device  string
	Partial twin.DeviceSnapshot
}

// ScenarioRunner implements collab.LearnHook by replaying registered
// scenarios against a MemTwin.
type ScenarioRunner struct {
	twin      *MemTwin
	scenarios map[string]Scenario
}

// NewScenarioRunner builds a runner bound to a twin.
func NewScenarioRunner(t *MemTwin) *ScenarioRunner {
	return &ScenarioRunner{twin: t, scenarios: make(map[string]Scenario)}
}

// Register adds a scenario by name.
func (r *ScenarioRunner) Register(s Scenario) {
	r.scenarios[s.Name] = s
}

var _ collab.LearnHook = (*ScenarioRunner)(nil)

// RunScenario implements collab.LearnHook.
func (r *ScenarioRunner) RunScenario(ctx context.Context, scenario, house string) (collab.ScenarioResult, error) {
	sc, ok := r.scenarios[scenario]
	if !ok {
		return collab.ScenarioResult{}, fmt.Errorf("twinmem: unknown scenario %q", scenario)
	}
	if house == "" {
		house = sc.House
	}

	final := make(map[string]twin.DeviceSnapshot, len(sc.Steps))
	for _, step := range sc.Steps {
		if err := r.twin.Update(house, step.Device, step.Partial); err != nil {
			return collab.ScenarioResult{Scenario: scenario, Success: false}, err
		}
		state, _ := r.twin.Get(house, step.Device)
		final[step.Device] = state
	}

	score := 0.5
	if sc.Score != nil {
		score = sc.Score(final)
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
	}

	return collab.ScenarioResult{
		Scenario: scenario,
		Success:  true,
		Score:    score,
		Detail:   map[string]any{"house": house, "steps": len(sc.Steps)},
	}, nil
}
