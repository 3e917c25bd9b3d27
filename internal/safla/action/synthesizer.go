// Package action implements the Action Synthesizer (§4.F): it turns an
// AnalysisResult into zero or more ControlActions, branching on severity,
// confidence, and pattern kind exactly as the spec enumerates.
package action

import (
	"time"

	"github.com/asgard/safla/internal/safla/model"
	"github.com/google/uuid"
)

const defaultDeadline = 5 * time.Minute

// Config tunes the thresholds §4.F names.
type Config struct {
	MitigationSeverityThreshold  float64
	CriticalPowerSeverity        float64
	PredictionConfidenceThreshold float64
	PredictionTrendThreshold      float64
	ComfortHotThreshold           float64
	ComfortColdThreshold          float64
	PatternConfidenceThreshold    float64
	PeriodicMinSeconds            float64
	PeriodicMaxSeconds            float64
	LinearSlopeThreshold          float64
	Deadline                      time.Duration
}

// DefaultConfig matches every default §4.F names.
func DefaultConfig() Config {
	return Config{
		MitigationSeverityThreshold:   0.8,
		CriticalPowerSeverity:         0.9,
		PredictionConfidenceThreshold: 0.7,
		PredictionTrendThreshold:      0.1,
		ComfortHotThreshold:           0.8,
		ComfortColdThreshold:          0.3,
		PatternConfidenceThreshold:    0.6,
		PeriodicMinSeconds:            3600,
		PeriodicMaxSeconds:            86400,
		LinearSlopeThreshold:          0.05,
		Deadline:                      defaultDeadline,
	}
}

// Synthesizer turns analysis artifacts into ControlActions (§4.F).
type Synthesizer struct {
	cfg     Config
	now     func() time.Time
	newID   func() string
	houseID string
}

// New builds a Synthesizer scoped to one house id.
func New(cfg Config, houseID string, now func() time.Time, newID func() string) *Synthesizer {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}
	return &Synthesizer{cfg: cfg, now: now, newID: newID, houseID: houseID}
}

// Synthesize implements §4.F's three branches: anomaly mitigation,
// predictive preemption, and pattern-driven optimization.
func (s *Synthesizer) Synthesize(result model.AnalysisResult) []*model.ControlAction {
	var actions []*model.ControlAction

	for _, an := range result.Anomalies {
		if a := s.fromAnomaly(an); a != nil {
			actions = append(actions, a)
		}
	}
	for _, p := range result.Predictions {
		if a := s.fromPrediction(p); a != nil {
			actions = append(actions, a)
		}
	}
	for _, p := range result.Patterns {
		if a := s.fromPattern(p); a != nil {
			actions = append(actions, a)
		}
	}
	return actions
}

func (s *Synthesizer) fromAnomaly(an model.Anomaly) *model.ControlAction {
	if an.Severity <= s.cfg.MitigationSeverityThreshold {
		return nil
	}

	switch {
	case an.SensorKind == model.SensorTemperature && an.Observed > an.Expected.End:
		return s.newAction(model.ActionClimate, an.SensorID, model.PriorityHigh,
			map[string]any{"mode": "cool", "reason": "temperature over-range"})
	case an.SensorKind == model.SensorTemperature && an.Observed < an.Expected.Start:
		return s.newAction(model.ActionClimate, an.SensorID, model.PriorityHigh,
			map[string]any{"mode": "heat", "reason": "temperature under-range"})
	case an.SensorKind == model.SensorPower && an.Severity > s.cfg.CriticalPowerSeverity:
		return s.newAction(model.ActionEnergyOptim, an.SensorID, model.PriorityCritical,
			map[string]any{"reason": "power over-budget"})
	case an.SensorKind == model.SensorPower:
		return s.newAction(model.ActionEnergyOptim, an.SensorID, model.PriorityHigh,
			map[string]any{"reason": "power anomaly"})
	default:
		return s.newAction(model.ActionMaintenance, an.SensorID, model.PriorityHigh,
			map[string]any{"reason": "unclassified severe anomaly"})
	}
}

func (s *Synthesizer) fromPrediction(p model.Prediction) *model.ControlAction {
	if p.Confidence <= s.cfg.PredictionConfidenceThreshold {
		return nil
	}
	if absf(p.Payload.Trend) <= s.cfg.PredictionTrendThreshold {
		return nil
	}

	predicted := p.Payload.PredictedValue
	switch {
	case predicted > s.cfg.ComfortHotThreshold:
		return s.newAction(model.ActionClimate, p.Payload.SensorID, model.PriorityMedium,
			map[string]any{"mode": "cool", "reason": "predicted to cross hot comfort band"})
	case predicted < s.cfg.ComfortColdThreshold:
		return s.newAction(model.ActionClimate, p.Payload.SensorID, model.PriorityMedium,
			map[string]any{"mode": "heat", "reason": "predicted to cross cold comfort band"})
	default:
		return nil
	}
}

func (s *Synthesizer) fromPattern(p model.Pattern) *model.ControlAction {
	if p.Confidence <= s.cfg.PatternConfidenceThreshold {
		return nil
	}

	target := ""
	if len(p.SensorIDs) > 0 {
		target = p.SensorIDs[0]
	}

	switch p.Kind {
	case model.PatternPeriodic:
		period, _ := p.Payload["period"].(float64)
		if period < s.cfg.PeriodicMinSeconds || period > s.cfg.PeriodicMaxSeconds {
			return nil
		}
		return s.newAction(model.ActionEnergyOptim, target, model.PriorityLow,
			map[string]any{"reason": "schedule optimization", "period": period})

	case model.PatternTrend:
		slope, ok := p.Payload["slope"].(float64)
		if !ok || absf(slope) <= s.cfg.LinearSlopeThreshold {
			return nil
		}
		return s.newAction(model.ActionComfort, target, model.PriorityLow,
			map[string]any{"reason": "comfort adjustment", "slope": slope})

	default:
		return nil
	}
}

func (s *Synthesizer) newAction(kind model.ActionKind, target string, priority model.Priority, params map[string]any) *model.ControlAction {
	now := s.now()
	return &model.ControlAction{
		ID:        s.newID(),
		Kind:      kind,
		Target:    target,
		Parameters: params,
		Priority:  priority,
		CreatedAt: now,
		Deadline:  now.Add(s.cfg.Deadline),
		Context:   model.ActionContext{HouseID: s.houseID},
		Status:    model.StatusPending,
	}
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
