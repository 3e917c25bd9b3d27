// Package tuner implements the Performance Auto-tuner (§4.P): an on-demand
// (not per-tick) adjustment pass over phase timeouts and the tick interval,
// driven by recent phase-latency statistics.
package tuner

import (
	"time"

	"github.com/asgard/safla/internal/safla/model"
)

const (
	minPhaseTimeout = 10 * time.Millisecond
	maxPhaseTimeout = 2 * time.Second
	minTickInterval = 50 * time.Millisecond
	maxTickInterval = 1 * time.Second

	lowUtilizationFactor  = 0.5
	growTimeoutSuccessFloor = 0.9
	growTimeoutUtilization  = 0.8
	growTimeoutFactor       = 1.5

	tickShrinkUtilization = 0.5
	tickShrinkFactor      = 2
	tickGrowUtilization   = 0.9
	tickGrowFactor        = 1.2
)

// PhaseStats summarizes recent latency/success behavior for one phase, or
// for whole cycles when used for the tick-interval adjustment.
type PhaseStats struct {
	Mean        time.Duration
	Max         time.Duration
	SuccessRate float64 // [0,1]
}

// Adjustment is one proposed (and already-applied, by the time it's
// returned) change to a timeout or the tick interval (§6:
// optimize_performance() -> [Adjustment]).
type Adjustment struct {
	Target   string // phase name, or "tick_interval"
	OldValue time.Duration
	NewValue time.Duration
	Reason   string
}

// Config is the set of timeouts the Orchestrator currently runs with. After
// construction only Optimize changes it: Optimize writes the Tuner's own
// copy in place and reports each change as an Adjustment. The Tuner has no
// setter methods.
type Config struct {
	SenseTimeout    time.Duration
	AnalyzeTimeout  time.Duration
	FeedbackTimeout time.Duration
	LearnTimeout    time.Duration
	TickInterval    time.Duration
}

// DefaultConfig matches §4.O's stated defaults.
func DefaultConfig() Config {
	return Config{
		SenseTimeout:    50 * time.Millisecond,
		AnalyzeTimeout:  200 * time.Millisecond,
		FeedbackTimeout: 150 * time.Millisecond,
		LearnTimeout:    500 * time.Millisecond,
		TickInterval:    100 * time.Millisecond,
	}
}

// Tuner holds the live Config and proposes/applies adjustments on demand.
type Tuner struct {
	cfg Config
}

// New builds a Tuner seeded with the given Config.
func New(cfg Config) *Tuner {
	return &Tuner{cfg: cfg}
}

// Config returns the Tuner's current (possibly already-adjusted) Config.
func (t *Tuner) Config() Config { return t.cfg }

// Optimize runs §4.P's rules over per-phase stats and cycle-level stats,
// mutating the Tuner's Config in place and returning every Adjustment made.
func (t *Tuner) Optimize(phaseStats map[model.CyclePhase]PhaseStats, cycleStats PhaseStats) []Adjustment {
	var out []Adjustment

	if adj, ok := t.adjustTimeout(model.PhaseSense, &t.cfg.SenseTimeout, phaseStats[model.PhaseSense]); ok {
		out = append(out, adj)
	}
	if adj, ok := t.adjustTimeout(model.PhaseAnalyze, &t.cfg.AnalyzeTimeout, phaseStats[model.PhaseAnalyze]); ok {
		out = append(out, adj)
	}
	if adj, ok := t.adjustTimeout(model.PhaseFeedback, &t.cfg.FeedbackTimeout, phaseStats[model.PhaseFeedback]); ok {
		out = append(out, adj)
	}
	if adj, ok := t.adjustTimeout(model.PhaseLearn, &t.cfg.LearnTimeout, phaseStats[model.PhaseLearn]); ok {
		out = append(out, adj)
	}

	if adj, ok := t.adjustTickInterval(cycleStats); ok {
		out = append(out, adj)
	}

	return out
}

// adjustTimeout applies §4.P's two timeout rules to one phase's current
// timeout, in place. Shrinking takes precedence when both would fire
// (which cannot actually happen simultaneously given the thresholds).
func (t *Tuner) adjustTimeout(phase model.CyclePhase, timeout *time.Duration, stats PhaseStats) (Adjustment, bool) {
	if stats.Mean <= 0 {
		return Adjustment{}, false
	}
	old := *timeout

	if float64(stats.Mean) < lowUtilizationFactor*float64(old) {
		newTimeout := stats.Mean * 2
		if newTimeout < minPhaseTimeout {
			newTimeout = minPhaseTimeout
		}
		if newTimeout == old {
			return Adjustment{}, false
		}
		*timeout = newTimeout
		return Adjustment{
			Target:   string(phase),
			OldValue: old,
			NewValue: newTimeout,
			Reason:   "mean latency well under timeout, shrinking",
		}, true
	}

	if stats.SuccessRate < growTimeoutSuccessFloor && float64(stats.Mean) > growTimeoutUtilization*float64(old) {
		newTimeout := time.Duration(float64(old) * growTimeoutFactor)
		if newTimeout > maxPhaseTimeout {
			newTimeout = maxPhaseTimeout
		}
		if newTimeout == old {
			return Adjustment{}, false
		}
		*timeout = newTimeout
		return Adjustment{
			Target:   string(phase),
			OldValue: old,
			NewValue: newTimeout,
			Reason:   "low success rate with high timeout utilization, growing",
		}, true
	}

	return Adjustment{}, false
}

// adjustTickInterval applies §4.P's tick-interval rule against whole-cycle
// latency statistics.
func (t *Tuner) adjustTickInterval(cycleStats PhaseStats) (Adjustment, bool) {
	if cycleStats.Mean <= 0 {
		return Adjustment{}, false
	}
	old := t.cfg.TickInterval

	if float64(cycleStats.Mean) < tickShrinkUtilization*float64(old) {
		newTick := cycleStats.Mean * tickShrinkFactor
		if newTick < minTickInterval {
			newTick = minTickInterval
		}
		if newTick == old {
			return Adjustment{}, false
		}
		t.cfg.TickInterval = newTick
		return Adjustment{Target: "tick_interval", OldValue: old, NewValue: newTick, Reason: "mean cycle duration well under tick interval, shrinking"}, true
	}

	if float64(cycleStats.Mean) > tickGrowUtilization*float64(old) {
		newTick := time.Duration(float64(cycleStats.Mean) * tickGrowFactor)
		if newTick > maxTickInterval {
			newTick = maxTickInterval
		}
		if newTick == old {
			return Adjustment{}, false
		}
		t.cfg.TickInterval = newTick
		return Adjustment{Target: "tick_interval", OldValue: old, NewValue: newTick, Reason: "mean cycle duration approaching tick interval, growing"}, true
	}

	return Adjustment{}, false
}
