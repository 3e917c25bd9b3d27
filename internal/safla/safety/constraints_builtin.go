package safety

import (
	"fmt"
	"sync"
	"time"

	"github.com/asgard/safla/internal/safla/model"
	"golang.org/x/time/rate"
)

// TemperatureLimitConstraint rejects climate actions whose target
// temperature parameter falls outside [Min, Max] (§4.G, default [10,35]°C).
type TemperatureLimitConstraint struct {
	Min, Max float64
}

func (c *TemperatureLimitConstraint) Name() string       { return "temperature-limit" }
func (c *TemperatureLimitConstraint) Severity() Severity { return SeverityHigh }

func (c *TemperatureLimitConstraint) Evaluate(action *model.ControlAction, now time.Time) (bool, string) {
	if action.Kind != model.ActionClimate {
		return true, ""
	}
	target, ok := action.Parameters["target_temperature"].(float64)
	if !ok {
		return true, ""
	}
	if target < c.Min || target > c.Max {
		return false, fmt.Sprintf("target temperature %.1f outside [%.1f, %.1f]", target, c.Min, c.Max)
	}
	return true, ""
}

// RateLimitConstraint admits an action only if fewer than Max actions have
// been recorded against the same target within the trailing Window (§4.G).
// Implemented over golang.org/x/time/rate: a per-target token bucket
// refilling at Max/Window tokens per second with burst Max approximates the
// spec's "count within trailing window" admission rule, and Allow()'s
// built-in take-a-token-now semantics is exactly the "recording occurs at
// evaluation time" requirement — no separate bookkeeping needed.
type RateLimitConstraint struct {
	Max    int
	Window time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func (c *RateLimitConstraint) Name() string       { return "rate-limit" }
func (c *RateLimitConstraint) Severity() Severity { return SeverityMedium }

func (c *RateLimitConstraint) Evaluate(action *model.ControlAction, now time.Time) (bool, string) {
	c.mu.Lock()
	if c.limiters == nil {
		c.limiters = make(map[string]*rate.Limiter)
	}
	limiter, ok := c.limiters[action.Target]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(float64(c.Max)/c.Window.Seconds()), c.Max)
		c.limiters[action.Target] = limiter
	}
	c.mu.Unlock()

	if !limiter.AllowN(now, 1) {
		return false, fmt.Sprintf("more than %d actions recorded against %q within %s", c.Max, action.Target, c.Window)
	}
	return true, ""
}

// PowerLimitConstraint rejects an action whose parameters.power_increase
// would push the house's current power consumption past Limit (§4.G,
// default 5000W).
type PowerLimitConstraint struct {
	Limit float64
}

func (c *PowerLimitConstraint) Name() string       { return "power-limit" }
func (c *PowerLimitConstraint) Severity() Severity { return SeverityHigh }

func (c *PowerLimitConstraint) Evaluate(action *model.ControlAction, now time.Time) (bool, string) {
	increase, ok := action.Parameters["power_increase"].(float64)
	if !ok {
		return true, ""
	}
	projected := action.Context.CurrentPowerConsumption + increase
	if projected > c.Limit {
		return false, fmt.Sprintf("projected power %.0fW exceeds limit %.0fW", projected, c.Limit)
	}
	return true, ""
}
