package twin

import (
	"context"
	"fmt"
	"time"

	"github.com/asgard/safla/internal/safla/model"
)

// Applier applies a ControlAction's effect to a twin, returning the
// predicted post-state sub-keys it touched. The Executor satisfies this
// interface; the Simulator is handed one at construction so this package
// never needs to import the executor package (which itself depends on Twin).
type Applier interface {
	Apply(ctx context.Context, t Twin, action *model.ControlAction) (map[string]any, error)
}

// Simulator is the Twin Simulator (§4.H): it speculatively executes an
// action against a copy of the twin's state and reports the predicted
// outcome without leaving any trace on the real twin.
type Simulator struct {
	twin    Twin
	applier Applier
	now     Clock
}

// NewSimulator builds a Simulator bound to a twin and an Applier.
func NewSimulator(t Twin, applier Applier, now Clock) *Simulator {
	if now == nil {
		now = time.Now
	}
	return &Simulator{twin: t, applier: applier, now: now}
}

// Run executes §4.H steps 1-5 for a single action and returns the Twin
// Simulator's verdict.
func (s *Simulator) Run(ctx context.Context, action *model.ControlAction) model.TwinReport {
	house := action.Context.HouseID
	if house == "" {
		return model.TwinReport{Safe: false, Confidence: 0, Instant: s.now(), Reason: "missing house id"}
	}

	pre, ok := s.twin.Get(house, action.Target)
	if !ok {
		return model.TwinReport{Safe: false, Confidence: 0, Instant: s.now(), Reason: "missing twin device"}
	}

	// Speculative copy: a shadow twin that starts from the same pre-state
	// but never touches the real twin's storage.
	shadow := &copyTwin{base: s.twin, house: house, device: action.Target, state: pre.Clone()}

	predicted, err := s.applier.Apply(ctx, shadow, action)
	if err != nil {
		return model.TwinReport{
			Safe:       false,
			Confidence: 0,
			Instant:    s.now(),
			Reason:     fmt.Sprintf("speculative apply failed: %v", err),
		}
	}

	risks := assessRisk(action, predicted, s.now())

	maxSeverity := 0.0
	factors := make([]string, 0, len(risks))
	for _, r := range risks {
		factors = append(factors, r.factor)
		if r.severity > maxSeverity {
			maxSeverity = r.severity
		}
	}

	safe := maxSeverity <= 0.5
	confidence := 1 - maxSeverity

	return model.TwinReport{
		Safe:             safe,
		Confidence:       confidence,
		PredictedOutcome: predicted,
		RiskFactors:      factors,
		Instant:          s.now(),
	}
}

type riskFactor struct {
	factor   string
	severity float64
}

// assessRisk implements §4.H step 5's three concrete risk checks.
func assessRisk(action *model.ControlAction, predicted map[string]any, now time.Time) []riskFactor {
	var risks []riskFactor

	if action.Kind == model.ActionClimate {
		if temp, ok := floatField(predicted, "temperature"); ok {
			if temp < 10 || temp > 35 {
				risks = append(risks, riskFactor{"predicted climate outside [10,35]C", 0.9})
			}
		}
	}

	if power, ok := floatField(predicted, "power"); ok && power > 5000 {
		risks = append(risks, riskFactor{"predicted power exceeds 5000W", 0.7})
	}

	if action.Kind == model.ActionSecurity {
		if locked, ok := predicted["locked"].(bool); ok && !locked {
			hour := now.Hour()
			if hour >= 22 || hour < 6 {
				risks = append(risks, riskFactor{"security unlock during night hours", 0.6})
			}
		}
	}

	return risks
}

func floatField(m map[string]any, key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// copyTwin wraps a base Twin so Get/Devices fall through to the real twin for
// context but Update mutates only the in-memory shadow state, guaranteeing
// the real twin is never touched during speculative execution (§4.H steps
// 2-4: "apply on a copy", "restore to pre-state" is then a no-op since the
// real twin was never mutated in the first place).
type copyTwin struct {
	base   Twin
	house  string
	device string
	state  DeviceSnapshot
}

func (c *copyTwin) Get(house, device string) (DeviceSnapshot, bool) {
	if house == c.house && device == c.device {
		return c.state.Clone(), true
	}
	return c.base.Get(house, device)
}

func (c *copyTwin) Update(house, device string, partial DeviceSnapshot) error {
	if house != c.house || device != c.device {
		// Speculative execution only ever targets the one device under
		// test; side-effects elsewhere are out of scope for §4.H.
		return nil
	}
	for k, v := range partial {
		c.state[k] = v
	}
	return nil
}

func (c *copyTwin) Devices(house, class string) []string {
	return c.base.Devices(house, class)
}
