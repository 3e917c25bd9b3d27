package tuner

import (
	"testing"
	"time"

	"github.com/asgard/safla/internal/safla/model"
)

func TestOptimizeShrinksTimeoutWhenMeanIsLow(t *testing.T) {
	tu := New(DefaultConfig())
	stats := map[model.CyclePhase]PhaseStats{
		model.PhaseSense: {Mean: 5 * time.Millisecond, SuccessRate: 1.0},
	}
	adjustments := tu.Optimize(stats, PhaseStats{})

	if len(adjustments) != 1 {
		t.Fatalf("expected 1 adjustment, got %d", len(adjustments))
	}
	if adjustments[0].Target != string(model.PhaseSense) {
		t.Fatalf("expected sense timeout adjustment, got %q", adjustments[0].Target)
	}
	if tu.Config().SenseTimeout != 10*time.Millisecond {
		t.Fatalf("expected sense timeout floored at 10ms, got %v", tu.Config().SenseTimeout)
	}
}

func TestOptimizeGrowsTimeoutOnLowSuccessRateAndHighUtilization(t *testing.T) {
	cfg := DefaultConfig()
	tu := New(cfg)
	stats := map[model.CyclePhase]PhaseStats{
		model.PhaseAnalyze: {Mean: 190 * time.Millisecond, SuccessRate: 0.7},
	}
	adjustments := tu.Optimize(stats, PhaseStats{})

	if len(adjustments) != 1 {
		t.Fatalf("expected 1 adjustment, got %d", len(adjustments))
	}
	want := time.Duration(float64(cfg.AnalyzeTimeout) * growTimeoutFactor)
	if tu.Config().AnalyzeTimeout != want {
		t.Fatalf("expected analyze timeout %v, got %v", want, tu.Config().AnalyzeTimeout)
	}
}

func TestOptimizeLeavesTimeoutUnchangedInMiddleBand(t *testing.T) {
	tu := New(DefaultConfig())
	stats := map[model.CyclePhase]PhaseStats{
		model.PhaseFeedback: {Mean: 100 * time.Millisecond, SuccessRate: 0.99},
	}
	adjustments := tu.Optimize(stats, PhaseStats{})
	if len(adjustments) != 0 {
		t.Fatalf("expected no adjustment in the comfortable middle band, got %d", len(adjustments))
	}
}

func TestOptimizeCapsGrowthAtMaximum(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LearnTimeout = maxPhaseTimeout - 10*time.Millisecond
	tu := New(cfg)
	stats := map[model.CyclePhase]PhaseStats{
		model.PhaseLearn: {Mean: maxPhaseTimeout, SuccessRate: 0.1},
	}
	tu.Optimize(stats, PhaseStats{})
	if tu.Config().LearnTimeout > maxPhaseTimeout {
		t.Fatalf("expected learn timeout capped at %v, got %v", maxPhaseTimeout, tu.Config().LearnTimeout)
	}
}

func TestOptimizeShrinksTickIntervalWhenCyclesAreFast(t *testing.T) {
	tu := New(DefaultConfig())
	adjustments := tu.Optimize(nil, PhaseStats{Mean: 20 * time.Millisecond, SuccessRate: 1.0})

	if len(adjustments) != 1 || adjustments[0].Target != "tick_interval" {
		t.Fatalf("expected a tick_interval adjustment, got %v", adjustments)
	}
	if tu.Config().TickInterval != 50*time.Millisecond {
		t.Fatalf("expected tick interval floored at 50ms, got %v", tu.Config().TickInterval)
	}
}

func TestOptimizeGrowsTickIntervalWhenCyclesApproachIt(t *testing.T) {
	cfg := DefaultConfig()
	tu := New(cfg)
	adjustments := tu.Optimize(nil, PhaseStats{Mean: 95 * time.Millisecond, SuccessRate: 1.0})

	if len(adjustments) != 1 {
		t.Fatalf("expected a tick_interval adjustment, got %d", len(adjustments))
	}
	want := time.Duration(float64(95*time.Millisecond) * tickGrowFactor)
	if tu.Config().TickInterval != want {
		t.Fatalf("expected tick interval %v, got %v", want, tu.Config().TickInterval)
	}
}

func TestOptimizeIgnoresZeroMeanStats(t *testing.T) {
	tu := New(DefaultConfig())
	adjustments := tu.Optimize(map[model.CyclePhase]PhaseStats{
		model.PhaseSense: {},
	}, PhaseStats{})
	if len(adjustments) != 0 {
		t.Fatalf("expected no adjustments for a phase with no recorded samples, got %d", len(adjustments))
	}
}
