// Package collab declares the external-collaborator interfaces SAFLA's core
// requires (§6): a sensor source, a journal sink, and a learn-time scenario
// hook. The Twin collaborator lives in package twin since the Twin
// Simulator and Executor both depend on its concrete shape more deeply than
// a thin boundary interface.
package collab

import (
	"context"

	"github.com/asgard/safla/internal/safla/model"
)

// SensorSource is the lazy, finite, non-restartable reading source the
// Sense phase drains each tick (§6). A single call to Fetch represents one
// window; it is not required to be restartable or replayable.
type SensorSource interface {
	Fetch(ctx context.Context, window TimeWindow) ([]model.Reading, error)
}

// TimeWindow bounds one Fetch call.
type TimeWindow struct {
	Start float64
	End   float64
}

// Journal is the optional append-only sink the Safety Monitor and operators
// use (§6). A nil-safe no-op implementation is provided in journal.NoOp.
type Journal interface {
	Append(ctx context.Context, record model.CycleRecord) error
}

// ScenarioResult is the outcome of one LearnHook.RunScenario invocation.
type ScenarioResult struct {
	Scenario string
	Success  bool
	Score    float64
	Detail   map[string]any
}

// LearnHook lets the Learner periodically exercise scenario-based
// reinforcement against the twin (§4.L step 7, §6).
type LearnHook interface {
	RunScenario(ctx context.Context, scenario, house string) (ScenarioResult, error)
}
