// Package safety implements the Safety Validator (§4.G): an ordered list of
// Constraint evaluators run against a candidate ControlAction, each
// contributing violations to a weighted risk score. The Constraint
// interface mirrors internal/robotics/ethics.EthicalRule (Evaluate + Name),
// the teacher's own pluggable-rule shape, adapted from ethical rules over a
// robot action to safety constraints over a smart-home control action.
package safety

import (
	"time"

	"github.com/asgard/safla/internal/safla/model"
)

// Severity ranks a Constraint violation; used both for display and for risk
// score weighting (§4.G).
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// severityWeight implements §4.G's risk-score weights.
var severityWeight = map[Severity]float64{
	SeverityCritical: 1.0,
	SeverityHigh:     0.7,
	SeverityMedium:   0.4,
	SeverityLow:      0.2,
}

// Constraint is a single named, severity-tagged predicate over a candidate
// action (§4.G).
type Constraint interface {
	Name() string
	Severity() Severity
	// Evaluate returns (true, "") if the action is admitted, or
	// (false, description) with a human-readable violation description.
	Evaluate(action *model.ControlAction, now time.Time) (bool, string)
}
