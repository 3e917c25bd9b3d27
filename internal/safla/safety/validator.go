package safety

import (
	"log"
	"time"

	"github.com/asgard/safla/internal/safla/model"
)

// Config tunes the built-in constraints' defaults (§4.G).
type Config struct {
	TemperatureMin, TemperatureMax float64
	RateLimitMax                   int
	RateLimitWindow                time.Duration
	PowerLimit                     float64
}

// DefaultConfig matches every default §4.G names.
func DefaultConfig() Config {
	return Config{
		TemperatureMin:  10,
		TemperatureMax:  35,
		RateLimitMax:    10,
		RateLimitWindow: 60 * time.Second,
		PowerLimit:      5000,
	}
}

// Validator holds an ordered list of Constraints and evaluates candidate
// actions against all of them (§4.G).
type Validator struct {
	constraints []Constraint
	now         func() time.Time
	logger      *log.Logger
}

// New builds a Validator with the three built-in constraints §4.G names.
func New(cfg Config, now func() time.Time, logger *log.Logger) *Validator {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Validator{
		constraints: []Constraint{
			&TemperatureLimitConstraint{Min: cfg.TemperatureMin, Max: cfg.TemperatureMax},
			&RateLimitConstraint{Max: cfg.RateLimitMax, Window: cfg.RateLimitWindow},
			&PowerLimitConstraint{Limit: cfg.PowerLimit},
		},
		now:    now,
		logger: logger,
	}
}

// WithConstraints replaces the constraint list, for tests or deployments
// that need a custom set instead of the three built-ins.
func (v *Validator) WithConstraints(cs []Constraint) *Validator {
	v.constraints = cs
	return v
}

// Validate evaluates action against every constraint and returns the merged
// SafetyReport (§4.G). A constraint that panics is logged and treated as
// safe=true for that constraint only ("fail-open within validator; hard
// failures surface elsewhere").
func (v *Validator) Validate(action *model.ControlAction) model.SafetyReport {
	now := v.now()
	report := model.SafetyReport{Safe: true, Instant: now}

	for _, c := range v.constraints {
		ok, desc := v.evaluateSafely(c, action, now)
		if ok {
			continue
		}
		report.Safe = false
		report.Violations = append(report.Violations, model.SafetyViolation{
			Constraint:  c.Name(),
			Severity:    string(c.Severity()),
			Description: desc,
			Mitigation:  mitigationFor(c.Name()),
			Instant:     now,
		})
	}

	report.RiskScore = riskScore(report.Violations)
	return report
}

func (v *Validator) evaluateSafely(c Constraint, action *model.ControlAction, now time.Time) (ok bool, desc string) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Printf("[safety] constraint %s panicked: %v", c.Name(), r)
			ok = true
		}
	}()
	return c.Evaluate(action, now)
}

func riskScore(violations []model.SafetyViolation) float64 {
	var sum float64
	for _, v := range violations {
		sum += severityWeight[Severity(v.Severity)]
	}
	if sum > 1 {
		return 1
	}
	return sum
}

func mitigationFor(constraintName string) string {
	switch constraintName {
	case "temperature-limit":
		return "clamp target temperature to the configured comfort band"
	case "rate-limit":
		return "defer action until the trailing window admits it"
	case "power-limit":
		return "shed or stagger load before executing"
	default:
		return "reject action"
	}
}
