package model

import "time"

// PatternKind enumerates the shapes a Pattern can describe (§3).
type PatternKind string

const (
	PatternPeriodic        PatternKind = "periodic"
	PatternTrend           PatternKind = "trend"
	PatternAnomalyCluster  PatternKind = "anomaly-cluster"
	PatternCorrelation     PatternKind = "correlation"
	PatternSequence        PatternKind = "sequence"
	PatternCluster         PatternKind = "cluster"
)

// TimeInterval is a closed [Start, End] interval in monotonic seconds.
type TimeInterval struct {
	Start float64
	End   float64
}

// Pattern is a detected regularity across one or more sensors (§3).
type Pattern struct {
	Kind       PatternKind
	SensorIDs  []string
	Confidence float64
	Interval   TimeInterval
	Payload    map[string]any // kind-specific: period/frequency/amplitude/phase, slope/r2, ...
}

// AnomalyKind enumerates how an Anomaly was detected (§3).
type AnomalyKind string

const (
	AnomalyStatistical AnomalyKind = "statistical"
	AnomalyContextual  AnomalyKind = "contextual"
	AnomalyCollective  AnomalyKind = "collective"
	AnomalyRuleBased   AnomalyKind = "rule-based"
)

// Anomaly is a single detected outlier (§3).
type Anomaly struct {
	Kind        AnomalyKind
	SensorKind  SensorKind
	SensorID    string
	Timestamp   float64
	Severity    float64 // in [0,1]
	Observed    float64
	Expected    TimeInterval // expected closed interval, reused as [low, high]
	Description string
	Metadata    map[string]any
}

// Prediction is a forward-looking estimate produced by an analyzer (§3).
type Prediction struct {
	Model      string
	Kind       string // e.g. "next-value"
	Timestamp  float64
	Payload    PredictionPayload
	Confidence float64
}

// PredictionPayload is the kind-specific body of a Prediction.
type PredictionPayload struct {
	SensorID       string
	PredictedValue float64 // scaled [0,1]
	Trend          float64
}

// AnalysisResult is the merged output of one Analyze phase (§3, §4.D).
type AnalysisResult struct {
	Patterns           []Pattern
	Anomalies          []Anomaly
	Predictions        []Prediction
	AggregateConfidence float64
	ProcessingDuration time.Duration
}

// EmptyAnalysisResult returns the canonical empty-batch result per §8
// ("Empty reading batch -> empty AnalysisResult with aggregate confidence 0.3").
func EmptyAnalysisResult() AnalysisResult {
	return AnalysisResult{AggregateConfidence: 0.3}
}
