package orchestrator

import (
	"time"

	"github.com/asgard/safla/internal/safla/breaker"
	"github.com/asgard/safla/internal/safla/model"
	"github.com/asgard/safla/internal/safla/monitor"
	"github.com/asgard/safla/internal/safla/tuner"
	"github.com/sony/gobreaker"
)

// RegisterSensor records a sensor's kind and metadata for later statistics
// lookups (§6: register_sensor(id, kind, metadata)). It does not affect
// what the Sensor Source yields; it is purely a bookkeeping surface for
// diagnostics.
func (o *Orchestrator) RegisterSensor(id string, kind model.SensorKind, metadata map[string]any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sensors[id] = sensorRegistration{Kind: kind, Metadata: metadata}
}

// SensorStatistics summarizes a sensor's recent behavior from the Ring
// Buffer (§6: get_sensor_statistics(id)).
type SensorStatistics struct {
	SensorID       string
	Kind           model.SensorKind
	SampleCount    int
	MeanScaled     float64
	MeanConfidence float64
	LastQuality    model.Quality
	LastTimestamp  float64
	Registered     bool
}

// GetSensorStatistics computes a snapshot summary for one sensor id.
func (o *Orchestrator) GetSensorStatistics(id string) SensorStatistics {
	readings := o.deps.RingBuffer.QueryBySensor(id)

	o.mu.RLock()
	reg, registered := o.sensors[id]
	o.mu.RUnlock()

	stats := SensorStatistics{SensorID: id, Registered: registered}
	if registered {
		stats.Kind = reg.Kind
	}
	if len(readings) == 0 {
		return stats
	}

	var scaledSum, confSum float64
	for _, r := range readings {
		scaledSum += r.ScaledValue
		confSum += r.Confidence
	}
	last := readings[len(readings)-1]

	stats.SampleCount = len(readings)
	stats.MeanScaled = scaledSum / float64(len(readings))
	stats.MeanConfidence = confSum / float64(len(readings))
	stats.LastQuality = last.Quality
	stats.LastTimestamp = last.Timestamp
	if !registered {
		stats.Kind = last.Kind
	}
	return stats
}

// Status is the Orchestrator's diagnostic surface (§6: status()).
type Status struct {
	State          State
	CurrentCycleID string
	CycleCount     int64
	Uptime         time.Duration
	PerfMetrics    PhaseLatencySummary
	BreakerStates  map[breaker.Component]gobreaker.State
	SafetyStatus   monitor.Status
	Config         tuner.Config
}

// PhaseLatencySummary reduces the recorded latency samples per phase plus
// whole-cycle latency, the shape tuner.Optimize consumes.
type PhaseLatencySummary struct {
	Phases map[model.CyclePhase]tuner.PhaseStats
	Cycle  tuner.PhaseStats
}

// Status returns a point-in-time snapshot (§6).
func (o *Orchestrator) Status() Status {
	o.mu.RLock()
	defer o.mu.RUnlock()

	currentID := ""
	if o.current != nil {
		currentID = o.current.ID
	}
	uptime := time.Duration(0)
	if !o.startedAt.IsZero() {
		uptime = o.now().Sub(o.startedAt)
	}

	return Status{
		State:          o.state,
		CurrentCycleID: currentID,
		CycleCount:     o.cycleCount,
		Uptime:         uptime,
		PerfMetrics:    o.latencySummaryLocked(),
		BreakerStates: map[breaker.Component]gobreaker.State{
			breaker.ComponentSense:    o.deps.Breakers.State(breaker.ComponentSense),
			breaker.ComponentAnalyze:  o.deps.Breakers.State(breaker.ComponentAnalyze),
			breaker.ComponentFeedback: o.deps.Breakers.State(breaker.ComponentFeedback),
			breaker.ComponentLearn:    o.deps.Breakers.State(breaker.ComponentLearn),
		},
		SafetyStatus: o.deps.Monitor.Status(),
		Config:       o.tuner.Config(),
	}
}

// latencySummaryLocked reduces recorded samples into mean/max/success-rate
// per phase plus whole-cycle, for both Status and OptimizePerformance. Must
// be called with o.mu held.
func (o *Orchestrator) latencySummaryLocked() PhaseLatencySummary {
	summary := PhaseLatencySummary{Phases: make(map[model.CyclePhase]tuner.PhaseStats)}
	for phase, samples := range o.phaseLatencies {
		summary.Phases[phase] = reduceLatencies(samples)
	}
	summary.Cycle = reduceLatencies(o.cycleLatencies)
	return summary
}

func reduceLatencies(samples []time.Duration) tuner.PhaseStats {
	if len(samples) == 0 {
		return tuner.PhaseStats{}
	}
	var sum, max time.Duration
	for _, s := range samples {
		sum += s
		if s > max {
			max = s
		}
	}
	return tuner.PhaseStats{
		Mean:        sum / time.Duration(len(samples)),
		Max:         max,
		SuccessRate: 1.0, // phase-level failure accounting happens via breaker counts, not latency samples
	}
}

// OptimizePerformance runs the Auto-tuner over recorded latency statistics
// and applies any adjustments to the live timeouts/tick interval (§6:
// optimize_performance() -> [Adjustment]).
func (o *Orchestrator) OptimizePerformance() []tuner.Adjustment {
	o.mu.RLock()
	summary := o.latencySummaryLocked()
	o.mu.RUnlock()

	return o.tuner.Optimize(summary.Phases, summary.Cycle)
}

// DiagnosticInfo is the richer operator-facing view (§6: diagnostic_info()).
type DiagnosticInfo struct {
	Status          Status
	RecentViolations []monitor.Violation
	ExperienceCount int
	OptimizerEpsilon float64
}

// DiagnosticInfo assembles a fuller snapshot than Status, including recent
// safety violations and learner/optimizer state.
func (o *Orchestrator) DiagnosticInfo() DiagnosticInfo {
	return DiagnosticInfo{
		Status:           o.Status(),
		RecentViolations: o.deps.Monitor.RecentViolations(),
		ExperienceCount:  o.deps.Experience.Len(),
		OptimizerEpsilon: o.deps.Learner.Optimizer().Epsilon(),
	}
}
