package orchestrator

import (
	"context"
	"sort"

	"github.com/asgard/safla/internal/safla/collab"
	"github.com/asgard/safla/internal/safla/model"
)

// nowSeconds returns the Orchestrator's clock as monotonic seconds since
// epoch, matching model.Reading.Timestamp's unit.
func (o *Orchestrator) nowSeconds() float64 {
	t := o.now()
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// runSense drains the Sensor Source for the window since the previous
// cycle's sense phase, normalizes every reading, and pushes accepted ones
// into the Ring Buffer (§4.O step 2).
func (o *Orchestrator) runSense(ctx context.Context, cycle *model.CycleRecord) error {
	end := o.nowSeconds()

	o.mu.RLock()
	start := o.lastSenseEnd
	o.mu.RUnlock()
	if start == 0 {
		start = end - o.tuner.Config().TickInterval.Seconds()
	}

	readings, err := o.deps.SensorSource.Fetch(ctx, collab.TimeWindow{Start: start, End: end})
	if err != nil {
		return err
	}

	for _, r := range readings {
		normalized, ok := o.deps.Normalizer.Process(r)
		if !ok {
			continue
		}
		o.deps.RingBuffer.Push(normalized)
		cycle.Readings = append(cycle.Readings, normalized)
	}

	o.mu.Lock()
	o.lastSenseEnd = end
	o.mu.Unlock()
	return nil
}

// runAnalyze fans the current Ring Buffer snapshot out to the Analysis
// Engine (§4.O step 3). The Engine itself handles the cache short-circuit.
func (o *Orchestrator) runAnalyze(ctx context.Context, cycle *model.CycleRecord) error {
	window := o.deps.RingBuffer.Snapshot()
	result := o.deps.Engine.Run(ctx, window)
	cycle.Analysis = &result
	return nil
}

// runFeedback synthesizes, validates, speculatively tests, and executes
// ControlActions in strictly non-increasing priority order with insertion
// order as tie-break (§5), rolling back any action that fails after a
// checkpoint was taken (§4.O step 4, §4.I).
func (o *Orchestrator) runFeedback(ctx context.Context, cycle *model.CycleRecord) error {
	if cycle.Analysis == nil {
		return nil
	}

	actions := o.deps.Synthesizer.Synthesize(*cycle.Analysis)
	sortActionsByPriority(actions)

	for _, act := range actions {
		report := o.deps.Validator.Validate(act)
		act.SafetyReports = append(act.SafetyReports, report)
		if !report.Safe {
			act.Transition(model.StatusFailed)
			continue
		}
		act.Transition(model.StatusValidating)

		twinReport := o.deps.Simulator.Run(ctx, act)
		act.TwinReport = &twinReport
		if !twinReport.Safe {
			act.Transition(model.StatusFailed)
			continue
		}
		act.Transition(model.StatusTwinTesting)

		checkpoint, err := o.deps.Rollback.Checkpoint(act.Context.HouseID, act.Target, act.ID)
		if err != nil {
			act.Transition(model.StatusFailed)
			cycle.ExecutionResults = append(cycle.ExecutionResults, model.ExecutionResult{
				ActionID: act.ID,
				Success:  false,
				Error:    err.Error(),
			})
			continue
		}
		act.Rollback = &model.RollbackHandle{CheckpointID: checkpoint.ID, HouseID: act.Context.HouseID, Target: act.Target}

		act.Transition(model.StatusExecuting)
		result := o.deps.Executor.Execute(ctx, o.deps.Twin, act)
		cycle.ExecutionResults = append(cycle.ExecutionResults, result)

		if result.Success {
			act.Transition(model.StatusCompleted)
			o.deps.Rollback.Discard(checkpoint.ID)
		} else {
			act.Transition(model.StatusFailed)
			if rbErr := o.deps.Rollback.Restore(ctx, checkpoint.ID); rbErr != nil {
				o.logger.Printf("[orchestrator] rollback failed for action %s: %v", act.ID, rbErr)
			}
		}
	}

	return nil
}

// sortActionsByPriority orders actions strictly non-increasing by Priority,
// insertion order as tie-break (§5). Go's sort.SliceStable preserves
// relative order of equal elements, giving the tie-break for free.
func sortActionsByPriority(actions []*model.ControlAction) {
	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Priority > actions[j].Priority
	})
}

// runLearn materializes this cycle's Experiences, runs one Learn pass, and
// attaches its LearningResult (§4.O step 5, §4.L).
func (o *Orchestrator) runLearn(ctx context.Context, cycle *model.CycleRecord) error {
	o.deps.Learner.MaterializeInput(*cycle)

	durations := make([]float64, 0, len(cycle.ExecutionResults))
	for _, r := range cycle.ExecutionResults {
		durations = append(durations, r.Duration.Seconds())
	}

	result := o.deps.Learner.Run(ctx, o.cfg.HouseID, durations)
	cycle.Learning = &result
	return nil
}
