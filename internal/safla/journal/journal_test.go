package journal

import (
	"context"
	"testing"
	"time"

	"github.com/asgard/safla/internal/safla/model"
)

func TestNoOpAppendNeverFails(t *testing.T) {
	if err := (NoOp{}).Append(context.Background(), model.CycleRecord{}); err != nil {
		t.Fatalf("expected NoOp.Append to never fail, got %v", err)
	}
}

func TestReduceCountsPhaseOutcomes(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	rec := model.CycleRecord{
		ID:            "cycle-1",
		Start:         start,
		TotalDuration: 50 * time.Millisecond,
		Success:       true,
		Phases: []model.PhaseRecord{
			{Phase: model.PhaseSense, Outcome: model.OutcomeSuccess, Start: start, End: start.Add(5 * time.Millisecond)},
			{Phase: model.PhaseAnalyze, Outcome: model.OutcomeSuccess, Start: start, End: start.Add(10 * time.Millisecond)},
			{Phase: model.PhaseFeedback, Outcome: model.OutcomeSkipped},
			{Phase: model.PhaseLearn, Outcome: model.OutcomeSkipped},
		},
	}

	minimal := Reduce(rec)

	if minimal.CycleID != "cycle-1" {
		t.Fatalf("expected cycle id to carry over, got %q", minimal.CycleID)
	}
	if minimal.PhaseTimings[model.PhaseSense] != 5*time.Millisecond {
		t.Fatalf("expected sense timing of 5ms, got %v", minimal.PhaseTimings[model.PhaseSense])
	}
	if minimal.Counters["sense_success"] != 1 {
		t.Fatalf("expected one sense_success counter, got %d", minimal.Counters["sense_success"])
	}
	if minimal.Counters["feedback_skipped"] != 1 {
		t.Fatalf("expected one feedback_skipped counter, got %d", minimal.Counters["feedback_skipped"])
	}
	if !minimal.Success {
		t.Fatalf("expected success to carry over")
	}
}
