// Package metrics exposes the control loop's Prometheus surface, grounded
// on the teacher's internal/platform/observability.Metrics: a process-wide
// singleton of promauto-registered collectors plus an http.Handler for the
// scrape endpoint.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every SAFLA control loop Prometheus collector.
type Metrics struct {
	CyclesTotal        *prometheus.CounterVec
	CycleDuration       prometheus.Histogram
	PhaseDuration       *prometheus.HistogramVec
	PhaseOutcomesTotal  *prometheus.CounterVec

	ReadingsIngestedTotal *prometheus.CounterVec
	ReadingsRejectedTotal *prometheus.CounterVec

	AnomaliesDetectedTotal *prometheus.CounterVec
	CacheHitsTotal         prometheus.Counter
	CacheMissesTotal       prometheus.Counter

	ActionsSynthesizedTotal *prometheus.CounterVec
	ActionsExecutedTotal    *prometheus.CounterVec
	ActionsRolledBackTotal  prometheus.Counter

	SafetyViolationsTotal *prometheus.CounterVec
	SafeModeActive        prometheus.Gauge

	LearnExperiencesTotal  prometheus.Counter
	LearnPatternsFound     prometheus.Gauge
	LearnOptimizerEpsilon  prometheus.Gauge

	BreakerState *prometheus.GaugeVec

	TuningAdjustmentsTotal *prometheus.CounterVec
}

var (
	global     *Metrics
	globalOnce sync.Once
)

// Get returns the process-wide Metrics singleton, registering every
// collector with the default Prometheus registerer on first use.
func Get() *Metrics {
	globalOnce.Do(func() {
		global = newMetrics()
	})
	return global
}

func newMetrics() *Metrics {
	m := &Metrics{}

	m.CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "safla",
			Subsystem: "loop",
			Name:      "cycles_total",
			Help:      "Total control loop cycles completed, by outcome.",
		},
		[]string{"house_id", "success"},
	)

	m.CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "safla",
			Subsystem: "loop",
			Name:      "cycle_duration_seconds",
			Help:      "Total duration of a sense-analyze-feedback-learn cycle.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .2, .3, .5, 1, 2, 5},
		},
	)

	m.PhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "safla",
			Subsystem: "loop",
			Name:      "phase_duration_seconds",
			Help:      "Duration of an individual cycle phase.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .2, .5, 1},
		},
		[]string{"phase"},
	)

	m.PhaseOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "safla",
			Subsystem: "loop",
			Name:      "phase_outcomes_total",
			Help:      "Phase completions, partitioned by phase and outcome.",
		},
		[]string{"phase", "outcome"},
	)

	m.ReadingsIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "safla",
			Subsystem: "sense",
			Name:      "readings_ingested_total",
			Help:      "Sensor readings accepted by the normalizer, by kind.",
		},
		[]string{"sensor_kind"},
	)

	m.ReadingsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "safla",
			Subsystem: "sense",
			Name:      "readings_rejected_total",
			Help:      "Sensor readings rejected by the normalizer, by kind.",
		},
		[]string{"sensor_kind"},
	)

	m.AnomaliesDetectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "safla",
			Subsystem: "analyze",
			Name:      "anomalies_detected_total",
			Help:      "Anomalies surfaced by the analysis engine, by analyzer.",
		},
		[]string{"analyzer"},
	)

	m.CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "safla",
			Subsystem: "analyze",
			Name:      "cache_hits_total",
			Help:      "Analysis results served from the result cache.",
		},
	)

	m.CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "safla",
			Subsystem: "analyze",
			Name:      "cache_misses_total",
			Help:      "Analysis results computed due to a cache miss.",
		},
	)

	m.ActionsSynthesizedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "safla",
			Subsystem: "feedback",
			Name:      "actions_synthesized_total",
			Help:      "Control actions synthesized, by action type.",
		},
		[]string{"action_type"},
	)

	m.ActionsExecutedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "safla",
			Subsystem: "feedback",
			Name:      "actions_executed_total",
			Help:      "Control actions reaching the executor, by result status.",
		},
		[]string{"status"},
	)

	m.ActionsRolledBackTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "safla",
			Subsystem: "feedback",
			Name:      "actions_rolled_back_total",
			Help:      "Twin rollbacks triggered by a failed execution.",
		},
	)

	m.SafetyViolationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "safla",
			Subsystem: "safety",
			Name:      "violations_total",
			Help:      "Safety Monitor audit violations, by trigger.",
		},
		[]string{"trigger"},
	)

	m.SafeModeActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "safla",
			Subsystem: "safety",
			Name:      "safe_mode_active",
			Help:      "1 while the control loop is latched into safe-mode, 0 otherwise.",
		},
	)

	m.LearnExperiencesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "safla",
			Subsystem: "learn",
			Name:      "experiences_total",
			Help:      "Experiences appended to the experience buffer.",
		},
	)

	m.LearnPatternsFound = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "safla",
			Subsystem: "learn",
			Name:      "patterns_found",
			Help:      "Patterns discovered in the most recent clustering pass.",
		},
	)

	m.LearnOptimizerEpsilon = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "safla",
			Subsystem: "learn",
			Name:      "optimizer_epsilon",
			Help:      "Current exploration rate of the parameter optimizer.",
		},
	)

	m.BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "safla",
			Subsystem: "breaker",
			Name:      "state",
			Help:      "Circuit breaker state per phase component (0=closed, 1=half-open, 2=open).",
		},
		[]string{"component"},
	)

	m.TuningAdjustmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "safla",
			Subsystem: "tuner",
			Name:      "adjustments_total",
			Help:      "Auto-tuner adjustments applied, by target.",
		},
		[]string{"target"},
	)

	return m
}

// Handler returns the Prometheus scrape handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
