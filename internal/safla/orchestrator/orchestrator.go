// Package orchestrator implements the Orchestrator (§4.O): the fixed-delay
// tick loop that drives Sense->Analyze->Feedback->Learn across every other
// SAFLA component, each phase guarded by its own breaker and timeout.
// Grounded on the teacher's internal/controlplane.{Coordinator,
// UnifiedControlPlane} — a mutex-guarded state struct with a ctx/cancel/wg
// lifecycle, a background ticker goroutine, and a typed metrics/status view.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/asgard/safla/internal/safla/action"
	"github.com/asgard/safla/internal/safla/analysis"
	"github.com/asgard/safla/internal/safla/breaker"
	"github.com/asgard/safla/internal/safla/collab"
	"github.com/asgard/safla/internal/safla/executor"
	"github.com/asgard/safla/internal/safla/experience"
	"github.com/asgard/safla/internal/safla/learner"
	"github.com/asgard/safla/internal/safla/metrics"
	"github.com/asgard/safla/internal/safla/model"
	"github.com/asgard/safla/internal/safla/monitor"
	"github.com/asgard/safla/internal/safla/normalizer"
	"github.com/asgard/safla/internal/safla/ringbuffer"
	"github.com/asgard/safla/internal/safla/rollback"
	"github.com/asgard/safla/internal/safla/safety"
	"github.com/asgard/safla/internal/safla/tuner"
	"github.com/asgard/safla/internal/safla/twin"
)

// State enumerates the Orchestrator's lifecycle states (§4.O).
type State string

const (
	StateInactive     State = "inactive"
	StateInitializing State = "initializing"
	StateRunning      State = "running"
	StatePaused       State = "paused"
	StateError        State = "error"
	StateShutdown     State = "shutdown"
	StateSafeMode     State = "safe-mode"
)

// Config bundles the Orchestrator's own knobs; per-phase timeouts and the
// tick interval are owned by the embedded tuner.Config, which the Auto-tuner
// changes in place when OptimizePerformance runs (it has no setter methods).
type Config struct {
	HouseID      string
	LearnInterval time.Duration
	Timeouts     tuner.Config
}

// DefaultConfig matches §4.O's stated defaults.
func DefaultConfig(houseID string) Config {
	return Config{
		HouseID:       houseID,
		LearnInterval: 60 * time.Second,
		Timeouts:      tuner.DefaultConfig(),
	}
}

// Deps bundles every collaborator and component the Orchestrator wires
// together. All fields are required except Now (defaults to time.Now),
// Journal (defaults to a no-op), Logger (defaults to log.Default()), the
// optional Metrics and Tracer, and LearnHook, which the Orchestrator itself
// never calls (the Learner is constructed with its own hook).
type Deps struct {
	SensorSource collab.SensorSource
	Twin         twin.Twin
	Journal      collab.Journal
	LearnHook    collab.LearnHook

	Now func() time.Time

	Normalizer  *normalizer.Normalizer
	RingBuffer  *ringbuffer.RingBuffer
	Engine      *analysis.Engine
	Synthesizer *action.Synthesizer
	Validator   *safety.Validator
	Simulator   *twin.Simulator
	Rollback    *rollback.Journal
	Executor    *executor.Executor
	Experience  *experience.Buffer
	Learner     *learner.Learner
	Breakers    *breaker.Manager
	Monitor     *monitor.Monitor

	// Metrics is optional; nil disables Prometheus instrumentation.
	Metrics *metrics.Metrics

	// Tracer is optional; nil disables per-cycle span emission.
	Tracer trace.Tracer

	Logger *log.Logger
}

// sensorRegistration is metadata recorded by register_sensor (§6).
type sensorRegistration struct {
	Kind     model.SensorKind
	Metadata map[string]any
}

// Orchestrator drives the SAFLA cycle loop and owns every component's
// wiring. Safe for concurrent use by its public methods.
type Orchestrator struct {
	mu    sync.RWMutex
	state State

	cfg  Config
	deps Deps

	tuner *tuner.Tuner
	now   func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	cycleCount int64
	startedAt  time.Time
	lastLearn  time.Time
	lastSenseEnd float64
	current    *model.CycleRecord

	phaseLatencies map[model.CyclePhase][]time.Duration
	cycleLatencies []time.Duration

	sensors map[string]sensorRegistration

	logger *log.Logger
}

// New builds an Orchestrator in state "inactive". Call Start to begin
// ticking, or RunSingleCycle directly for diagnostics/tests (§6).
func New(cfg Config, deps Deps) *Orchestrator {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Journal == nil {
		deps.Journal = noopJournal{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Orchestrator{
		state:          StateInactive,
		cfg:            cfg,
		deps:           deps,
		tuner:          tuner.New(cfg.Timeouts),
		now:            deps.Now,
		phaseLatencies: make(map[model.CyclePhase][]time.Duration),
		sensors:        make(map[string]sensorRegistration),
		logger:         logger,
	}
}

type noopJournal struct{}

func (noopJournal) Append(context.Context, model.CycleRecord) error { return nil }

// Start transitions to "running" and begins the background tick loop
// (§4.O step 7: a fixed-delay scheduler, sleeping tick_interval after each
// cycle completes rather than targeting a fixed rate).
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	if o.state == StateRunning || o.state == StatePaused {
		o.mu.Unlock()
		return
	}
	o.state = StateInitializing
	o.startedAt = o.now()
	runCtx, cancel := context.WithCancel(ctx)
	o.ctx = runCtx
	o.cancel = cancel
	o.state = StateRunning
	o.mu.Unlock()

	o.wg.Add(1)
	go o.tickLoop()
	o.logger.Printf("[orchestrator] started for house %s", o.cfg.HouseID)
}

// Stop cancels the tick loop and blocks until it exits.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.cancel == nil {
		o.mu.Unlock()
		return
	}
	o.cancel()
	o.mu.Unlock()

	o.wg.Wait()

	o.mu.Lock()
	o.state = StateShutdown
	o.mu.Unlock()
	o.logger.Printf("[orchestrator] stopped")
}

// Pause suspends ticking without resetting any state; Resume continues it.
func (o *Orchestrator) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateRunning {
		o.state = StatePaused
	}
}

// Resume resumes a paused Orchestrator.
func (o *Orchestrator) Resume() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StatePaused {
		o.state = StateRunning
	}
}

// EnterSafeMode latches safe-mode on the Monitor and reflects it in State.
func (o *Orchestrator) EnterSafeMode() {
	o.deps.Monitor.EnterSafeMode()
	o.mu.Lock()
	o.state = StateSafeMode
	o.mu.Unlock()
}

// ExitSafeMode clears safe-mode and returns to "running".
func (o *Orchestrator) ExitSafeMode() {
	o.deps.Monitor.ExitSafeMode()
	o.mu.Lock()
	if o.state == StateSafeMode {
		o.state = StateRunning
	}
	o.mu.Unlock()
}

// State reports the Orchestrator's current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

func (o *Orchestrator) tickLoop() {
	defer o.wg.Done()
	for {
		select {
		case <-o.ctx.Done():
			return
		default:
		}

		if o.State() == StatePaused {
			time.Sleep(o.tuner.Config().TickInterval)
			continue
		}

		o.RunSingleCycle(o.ctx)

		select {
		case <-o.ctx.Done():
			return
		case <-time.After(o.tuner.Config().TickInterval):
		}
	}
}

// RunSingleCycle drives one full pass through Sense->Analyze->Feedback->Learn
// and returns the completed CycleRecord (§4.O, §6: run_single_cycle()).
func (o *Orchestrator) RunSingleCycle(ctx context.Context) model.CycleRecord {
	start := o.now()
	cycle := model.CycleRecord{
		ID:    uuid.NewString(),
		Start: start,
	}

	if o.deps.Tracer != nil {
		var span trace.Span
		ctx, span = o.deps.Tracer.Start(ctx, "safla.cycle", trace.WithAttributes(
			attribute.String("safla.house_id", o.cfg.HouseID),
			attribute.String("safla.cycle_id", cycle.ID),
		))
		defer span.End()
	}

	o.mu.Lock()
	o.current = &cycle
	o.mu.Unlock()

	timeouts := o.tuner.Config()

	sensePhase := o.runPhase(ctx, model.PhaseSense, timeouts.SenseTimeout, breaker.ComponentSense, func(pctx context.Context) error {
		return o.runSense(pctx, &cycle)
	})
	cycle.Phases = append(cycle.Phases, sensePhase)

	if !o.deps.Monitor.PhaseAllowed(model.PhaseAnalyze) {
		cycle.Phases = append(cycle.Phases, model.PhaseRecord{Phase: model.PhaseAnalyze, Outcome: model.OutcomeSkipped})
	} else {
		analyzePhase := o.runPhase(ctx, model.PhaseAnalyze, timeouts.AnalyzeTimeout, breaker.ComponentAnalyze, func(pctx context.Context) error {
			return o.runAnalyze(pctx, &cycle)
		})
		cycle.Phases = append(cycle.Phases, analyzePhase)
	}

	if !o.deps.Monitor.PhaseAllowed(model.PhaseFeedback) {
		cycle.Phases = append(cycle.Phases, model.PhaseRecord{Phase: model.PhaseFeedback, Outcome: model.OutcomeSkipped})
	} else {
		feedbackPhase := o.runPhase(ctx, model.PhaseFeedback, timeouts.FeedbackTimeout, breaker.ComponentFeedback, func(pctx context.Context) error {
			return o.runFeedback(pctx, &cycle)
		})
		cycle.Phases = append(cycle.Phases, feedbackPhase)
	}

	dueToLearn := o.now().Sub(o.lastLearnSafe()) >= o.cfg.LearnInterval
	if !o.deps.Monitor.PhaseAllowed(model.PhaseLearn) {
		cycle.Phases = append(cycle.Phases, model.PhaseRecord{Phase: model.PhaseLearn, Outcome: model.OutcomeSkipped})
	} else if !dueToLearn {
		cycle.Phases = append(cycle.Phases, model.PhaseRecord{Phase: model.PhaseLearn, Outcome: model.OutcomeSkipped})
	} else {
		learnPhase := o.runPhase(ctx, model.PhaseLearn, timeouts.LearnTimeout, breaker.ComponentLearn, func(pctx context.Context) error {
			return o.runLearn(pctx, &cycle)
		})
		cycle.Phases = append(cycle.Phases, learnPhase)
		o.mu.Lock()
		o.lastLearn = o.now()
		o.mu.Unlock()
	}

	cycle.TotalDuration = o.now().Sub(start)
	cycle.Success = allPhasesAcceptable(cycle.Phases)

	if span := trace.SpanFromContext(ctx); o.deps.Tracer != nil && span != nil {
		span.SetAttributes(
			attribute.Bool("safla.success", cycle.Success),
			attribute.Int64("safla.duration_ms", cycle.TotalDuration.Milliseconds()),
		)
	}

	o.recordCycleStats(cycle)
	o.observeCycle(cycle)

	if err := o.deps.Journal.Append(ctx, cycle); err != nil {
		o.logger.Printf("[orchestrator] journal append failed: %v", err)
	}

	violations, entered := o.deps.Monitor.Audit(cycle)
	if o.deps.Metrics != nil {
		for _, v := range violations {
			o.deps.Metrics.SafetyViolationsTotal.WithLabelValues(classifyViolation(v.Text)).Inc()
		}
		safeModeGauge := 0.0
		if o.deps.Monitor.InSafeMode() {
			safeModeGauge = 1.0
		}
		o.deps.Metrics.SafeModeActive.Set(safeModeGauge)
	}
	if entered {
		o.EnterSafeMode()
		o.logger.Printf("[orchestrator] entering safe-mode after cycle %s", cycle.ID)
	}

	o.mu.Lock()
	o.cycleCount++
	o.current = nil
	o.mu.Unlock()

	return cycle
}

// observeCycle feeds the optional Prometheus collectors. A nil
// deps.Metrics leaves every call here a no-op method-not-called path.
func (o *Orchestrator) observeCycle(cycle model.CycleRecord) {
	if o.deps.Metrics == nil {
		return
	}
	o.deps.Metrics.CyclesTotal.WithLabelValues(o.cfg.HouseID, fmt.Sprintf("%t", cycle.Success)).Inc()
	o.deps.Metrics.CycleDuration.Observe(cycle.TotalDuration.Seconds())
	for _, p := range cycle.Phases {
		o.deps.Metrics.PhaseDuration.WithLabelValues(string(p.Phase)).Observe(p.Duration().Seconds())
		o.deps.Metrics.PhaseOutcomesTotal.WithLabelValues(string(p.Phase), string(p.Outcome)).Inc()
	}
	for _, component := range []breaker.Component{
		breaker.ComponentSense, breaker.ComponentAnalyze, breaker.ComponentFeedback, breaker.ComponentLearn,
	} {
		o.deps.Metrics.BreakerState.WithLabelValues(string(component)).Set(float64(o.deps.Breakers.State(component)))
	}
}

// classifyViolation maps a Safety Monitor violation's free-text message to
// a low-cardinality Prometheus label.
func classifyViolation(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "critical") || strings.Contains(lower, "safety"):
		return "critical_keyword"
	case strings.Contains(lower, "duration"):
		return "cycle_duration"
	default:
		return "other"
	}
}

func (o *Orchestrator) lastLearnSafe() time.Time {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.lastLearn.IsZero() {
		return time.Time{}
	}
	return o.lastLearn
}

// allPhasesAcceptable reports whether a cycle counts as successful:
// "successful even when no actions are produced" (§4.O step 4) means empty
// output does not disqualify a cycle; only an OutcomeFailure phase does
// (skipped and timed-out phases still count as acceptable).
func allPhasesAcceptable(phases []model.PhaseRecord) bool {
	for _, p := range phases {
		if p.Outcome == model.OutcomeFailure {
			return false
		}
	}
	return true
}

// runPhase wraps a phase body with its breaker and a cancellable deadline
// (§4.O: "Each phase is wrapped with its breaker; timeouts are enforced per
// phase using cancellable operations").
func (o *Orchestrator) runPhase(ctx context.Context, phase model.CyclePhase, timeout time.Duration, component breaker.Component, body func(context.Context) error) model.PhaseRecord {
	rec := model.PhaseRecord{Phase: phase, Start: o.now()}

	if !o.deps.Breakers.IsAvailable(component) {
		rec.Outcome = model.OutcomeSkipped
		rec.End = o.now()
		return rec
	}

	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := o.deps.Breakers.Execute(component, func() error {
		return body(pctx)
	})

	rec.End = o.now()
	o.mu.Lock()
	o.phaseLatencies[phase] = append(o.phaseLatencies[phase], rec.Duration())
	o.mu.Unlock()

	switch {
	case err == nil:
		rec.Outcome = model.OutcomeSuccess
	case pctx.Err() == context.DeadlineExceeded:
		rec.Outcome = model.OutcomeTimeout
		rec.Error = fmt.Sprintf("%s phase exceeded %s timeout", phase, timeout)
	default:
		rec.Outcome = model.OutcomeFailure
		rec.Error = err.Error()
	}
	return rec
}

func (o *Orchestrator) recordCycleStats(cycle model.CycleRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cycleLatencies = append(o.cycleLatencies, cycle.TotalDuration)
	const maxSamples = 1000
	if len(o.cycleLatencies) > maxSamples {
		o.cycleLatencies = o.cycleLatencies[len(o.cycleLatencies)-maxSamples:]
	}
	for phase, latencies := range o.phaseLatencies {
		if len(latencies) > maxSamples {
			o.phaseLatencies[phase] = latencies[len(latencies)-maxSamples:]
		}
	}
}
