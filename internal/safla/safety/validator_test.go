package safety

import (
	"testing"
	"time"

	"github.com/asgard/safla/internal/safla/model"
)

func climateAction(targetTemp float64) *model.ControlAction {
	return &model.ControlAction{
		ID:     "a1",
		Kind:   model.ActionClimate,
		Target: "thermostat-1",
		Parameters: map[string]any{
			"target_temperature": targetTemp,
		},
	}
}

func TestValidateTemperatureWithinRangeIsSafe(t *testing.T) {
	v := New(DefaultConfig(), func() time.Time { return time.Unix(0, 0) }, nil)
	report := v.Validate(climateAction(22))
	if !report.Safe {
		t.Fatalf("expected safe report, got violations: %+v", report.Violations)
	}
	if report.RiskScore != 0 {
		t.Fatalf("expected zero risk score, got %v", report.RiskScore)
	}
}

func TestValidateTemperatureOutOfRangeIsUnsafe(t *testing.T) {
	v := New(DefaultConfig(), func() time.Time { return time.Unix(0, 0) }, nil)
	report := v.Validate(climateAction(50))
	if report.Safe {
		t.Fatalf("expected unsafe report for out-of-range temperature")
	}
	found := false
	for _, viol := range report.Violations {
		if viol.Constraint == "temperature-limit" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a temperature-limit violation, got %+v", report.Violations)
	}
}

func TestValidatePowerLimitExceeded(t *testing.T) {
	v := New(DefaultConfig(), func() time.Time { return time.Unix(0, 0) }, nil)
	a := &model.ControlAction{
		ID:     "a2",
		Kind:   model.ActionEnergyOptim,
		Target: "grid-1",
		Parameters: map[string]any{
			"power_increase": 2000.0,
		},
		Context: model.ActionContext{CurrentPowerConsumption: 4000},
	}
	report := v.Validate(a)
	if report.Safe {
		t.Fatalf("expected unsafe report for power overage")
	}
	if report.RiskScore != severityWeight[SeverityHigh] {
		t.Fatalf("expected risk score %.2f, got %.2f", severityWeight[SeverityHigh], report.RiskScore)
	}
}

func TestValidateRateLimitAdmitsUpToMaxThenRejects(t *testing.T) {
	now := time.Unix(0, 0)
	v := New(Config{RateLimitMax: 2, RateLimitWindow: 60 * time.Second, TemperatureMin: 10, TemperatureMax: 35, PowerLimit: 5000},
		func() time.Time { return now }, nil)
	v.WithConstraints([]Constraint{&RateLimitConstraint{Max: 2, Window: 60 * time.Second}})

	a := &model.ControlAction{ID: "a3", Kind: model.ActionLighting, Target: "light-1"}

	r1 := v.Validate(a)
	if !r1.Safe {
		t.Fatalf("expected first action admitted")
	}
	r2 := v.Validate(a)
	if !r2.Safe {
		t.Fatalf("expected second action admitted")
	}
	r3 := v.Validate(a)
	if r3.Safe {
		t.Fatalf("expected third action within window to be rejected by rate limit")
	}
}

func TestRiskScoreCapsAtOne(t *testing.T) {
	violations := []model.SafetyViolation{
		{Severity: "critical"},
		{Severity: "high"},
		{Severity: "high"},
	}
	if got := riskScore(violations); got != 1 {
		t.Fatalf("expected risk score capped at 1, got %v", got)
	}
}

func TestConstraintPanicIsTreatedAsSafe(t *testing.T) {
	v := New(DefaultConfig(), func() time.Time { return time.Unix(0, 0) }, nil)
	v.WithConstraints([]Constraint{&panickyConstraint{}})

	report := v.Validate(&model.ControlAction{ID: "a4", Kind: model.ActionLighting})
	if !report.Safe {
		t.Fatalf("expected panicking constraint to fail open, got unsafe report")
	}
}

type panickyConstraint struct{}

func (p *panickyConstraint) Name() string       { return "panicky" }
func (p *panickyConstraint) Severity() Severity { return SeverityLow }
func (p *panickyConstraint) Evaluate(action *model.ControlAction, now time.Time) (bool, string) {
	panic("boom")
}
