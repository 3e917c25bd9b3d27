package model

import "time"

// ExperienceKind enumerates what a learning opportunity captures (§3).
type ExperienceKind string

const (
	ExperienceSensorData      ExperienceKind = "sensor-data"
	ExperienceActionOutcome   ExperienceKind = "action-outcome"
	ExperiencePatternDiscovery ExperienceKind = "pattern-discovery"
	ExperienceAnomalyDetection ExperienceKind = "anomaly-detection"
	ExperienceSafetyViolation ExperienceKind = "safety-violation"
	ExperienceUserFeedback    ExperienceKind = "user-feedback"
)

// Experience is a single tagged record of a learning opportunity (§3). Its
// Importance is derived once at creation (§4.K) and never mutated afterward.
type Experience struct {
	ID             string
	Kind           ExperienceKind
	Timestamp      time.Time
	Input          map[string]any
	ExpectedOutput map[string]any
	ActualOutput   map[string]any
	FeedbackScore  *float64 // nil if no feedback was given
	Importance     float64  // [0,1], fixed at creation
	UsageCount     int
}

// CyclePhase enumerates the four SAFLA phases driven by the Orchestrator.
type CyclePhase string

const (
	PhaseSense    CyclePhase = "sense"
	PhaseAnalyze  CyclePhase = "analyze"
	PhaseFeedback CyclePhase = "feedback"
	PhaseLearn    CyclePhase = "learn"
)

// PhaseOutcome tags how a phase attempt concluded.
type PhaseOutcome string

const (
	OutcomeSuccess PhaseOutcome = "success"
	OutcomeFailure PhaseOutcome = "failure"
	OutcomeTimeout PhaseOutcome = "timeout"
	OutcomeSkipped PhaseOutcome = "skipped" // breaker-blocked or not-yet-due (learn)
)

// PhaseRecord is one phase's start/end/outcome within a CycleRecord.
type PhaseRecord struct {
	Phase    CyclePhase
	Start    time.Time
	End      time.Time
	Outcome  PhaseOutcome
	Error    string
}

// Duration returns End-Start, or zero if the phase never completed.
func (p PhaseRecord) Duration() time.Duration {
	if p.End.IsZero() || p.Start.IsZero() {
		return 0
	}
	return p.End.Sub(p.Start)
}

// CycleRecord captures one full pass through Sense->Analyze->Feedback->Learn
// (§3).
type CycleRecord struct {
	ID               string
	Start            time.Time
	TotalDuration    time.Duration
	Phases           []PhaseRecord
	Readings         []NormalizedReading
	Analysis         *AnalysisResult
	ExecutionResults []ExecutionResult
	Learning         *LearningResult
	Success          bool
}

// LearningResult is the output of one Learn phase invocation (§4.L).
type LearningResult struct {
	ExperiencesIngested int
	Metrics             PerformanceMetrics
	ModelUpdates        []ModelUpdate
	DriftDetected       bool
	ParameterAdjustment *ParameterAdjustment
	DiscoveredPatterns  []Pattern
	ScenarioOutcomes    []ScenarioOutcome
}

// ScenarioOutcome records one scenario-reinforcement run from §4.L step 7.
type ScenarioOutcome struct {
	Scenario string
	Success  bool
	Score    float64
}

// PerformanceMetrics is the Learner's aggregate evaluation (§4.L step 2).
type PerformanceMetrics struct {
	Accuracy   float64
	Precision  float64
	Recall     float64
	F1         float64
	Throughput float64 // 1 / mean processing time
	ErrorRate  float64
}

// ModelUpdate is an incremental model-update record (§4.L step 3).
type ModelUpdate struct {
	Parameter string
	OldValue  float64
	NewValue  float64
	Reason    string
}

// ParameterAdjustment is one proposal from the parameter optimizer (§4.L.opt).
type ParameterAdjustment struct {
	Parameter string
	OldValue  float64
	NewValue  float64
	Explored  bool // true if chosen by exploration, false if by exploitation
	Reward    float64
}
