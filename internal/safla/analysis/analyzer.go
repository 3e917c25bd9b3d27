// Package analysis implements the Pattern & Anomaly Analyzers (§4.D) and the
// Analysis Cache (§4.E). Analyzers run in parallel over the same read-only
// snapshot and are merged by Run; each is isolated so one analyzer's failure
// never aborts the phase, mirroring the teacher's
// internal/robotics/ethics.EthicalKernel.Evaluate loop (iterate independent
// checks, accumulate, never let one check's panic take down the others).
package analysis

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/asgard/safla/internal/safla/model"
)

// Analyzer produces a partial contribution to an AnalysisResult from a
// read-only snapshot of the Ring Buffer window.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, window []model.NormalizedReading) (model.AnalysisResult, error)
}

// Config tunes the thresholds named throughout §4.D.
type Config struct {
	MinPeriodSeconds      float64
	MaxPeriodSeconds      float64
	TrendR2Threshold      float64
	ZScoreThreshold       float64
	MLContamination       float64
	AnalyzerTimeout       time.Duration
}

// DefaultConfig matches every default §4.D names.
func DefaultConfig() Config {
	return Config{
		MinPeriodSeconds: 60,
		MaxPeriodSeconds: 86400,
		TrendR2Threshold: 0.7,
		ZScoreThreshold:  3.0,
		MLContamination:  0.1,
		AnalyzerTimeout:  2 * time.Second,
	}
}

// Engine fans a snapshot out to every registered Analyzer and merges the
// results (§4.D, §4.E).
type Engine struct {
	cfg       Config
	analyzers []Analyzer
	cache     *Cache
	logger    *log.Logger

	mu             sync.Mutex
	failureCounts  map[string]int64
}

// NewEngine builds an Engine with the five analyzers §4.D names, backed by
// an Analysis Cache (§4.E).
func NewEngine(cfg Config, cache *Cache, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		cfg:    cfg,
		cache:  cache,
		logger: logger,
		analyzers: []Analyzer{
			&PeriodicAnalyzer{cfg: cfg},
			&TrendAnalyzer{cfg: cfg},
			&StatisticalAnomalyAnalyzer{cfg: cfg},
			&MLAnomalyAnalyzer{cfg: cfg},
			&PredictionAnalyzer{},
		},
		failureCounts: make(map[string]int64),
	}
}

// FailureCount reports how many times a named analyzer has errored.
func (e *Engine) FailureCount(name string) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failureCounts[name]
}

// Run executes every analyzer over window in parallel, merging contributions
// into a single AnalysisResult (§4.D). An empty window short-circuits to
// EmptyAnalysisResult (§8).
func (e *Engine) Run(ctx context.Context, window []model.NormalizedReading) model.AnalysisResult {
	start := time.Now()

	if len(window) == 0 {
		return model.EmptyAnalysisResult()
	}

	if e.cache != nil {
		fp := Fingerprint(window)
		if cached, ok := e.cache.Get(fp); ok {
			return cached
		}
	}

	results := make([]model.AnalysisResult, len(e.analyzers))
	var wg sync.WaitGroup
	for i, a := range e.analyzers {
		wg.Add(1)
		go func(i int, a Analyzer) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					e.bumpFailure(a.Name())
					e.logger.Printf("[analysis] analyzer %s panicked: %v", a.Name(), r)
				}
			}()

			actx, cancel := context.WithTimeout(ctx, e.cfg.AnalyzerTimeout)
			defer cancel()

			res, err := a.Analyze(actx, window)
			if err != nil {
				e.bumpFailure(a.Name())
				e.logger.Printf("[analysis] analyzer %s failed: %v", a.Name(), err)
				return
			}
			results[i] = res
		}(i, a)
	}
	wg.Wait()

	merged := merge(results)
	merged.ProcessingDuration = time.Since(start)

	if e.cache != nil {
		fp := Fingerprint(window)
		e.cache.Put(fp, merged)
	}
	return merged
}

func (e *Engine) bumpFailure(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failureCounts[name]++
}

// merge combines per-analyzer partial results and computes aggregate
// confidence per §4.D: mean of available means across pattern confidences,
// (1 - mean anomaly severity), and prediction confidences; 0.3 if nothing
// was produced.
func merge(parts []model.AnalysisResult) model.AnalysisResult {
	var out model.AnalysisResult
	for _, p := range parts {
		out.Patterns = append(out.Patterns, p.Patterns...)
		out.Anomalies = append(out.Anomalies, p.Anomalies...)
		out.Predictions = append(out.Predictions, p.Predictions...)
	}

	var means []float64
	if len(out.Patterns) > 0 {
		means = append(means, meanOf(patternConfidences(out.Patterns)))
	}
	if len(out.Anomalies) > 0 {
		means = append(means, 1-meanOf(anomalySeverities(out.Anomalies)))
	}
	if len(out.Predictions) > 0 {
		means = append(means, meanOf(predictionConfidences(out.Predictions)))
	}

	if len(means) == 0 {
		out.AggregateConfidence = 0.3
		return out
	}
	out.AggregateConfidence = meanOf(means)
	return out
}

func patternConfidences(ps []model.Pattern) []float64 {
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = p.Confidence
	}
	return out
}

func anomalySeverities(as []model.Anomaly) []float64 {
	out := make([]float64, len(as))
	for i, a := range as {
		out[i] = a.Severity
	}
	return out
}

func predictionConfidences(ps []model.Prediction) []float64 {
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = p.Confidence
	}
	return out
}

func meanOf(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// bySensor groups a window's readings by sensor id, preserving order.
func bySensor(window []model.NormalizedReading) map[string][]model.NormalizedReading {
	out := make(map[string][]model.NormalizedReading)
	for _, r := range window {
		out[r.SensorID] = append(out[r.SensorID], r)
	}
	return out
}

// byKind groups a window's readings by sensor kind, preserving order — used
// by the ML anomaly analyzer, which clusters across every sensor of a kind
// rather than per individual sensor (§4.D: "Per sensor kind with >= 20
// readings").
func byKind(window []model.NormalizedReading) map[model.SensorKind][]model.NormalizedReading {
	out := make(map[model.SensorKind][]model.NormalizedReading)
	for _, r := range window {
		out[r.Kind] = append(out[r.Kind], r)
	}
	return out
}
