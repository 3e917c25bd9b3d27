// Package executor implements the Executor (§4.J): it dispatches a
// ControlAction by kind to a per-kind applier that mutates the twin, times
// the operation, and never lets an applier panic or error cross the
// Orchestrator boundary uncaught.
package executor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/asgard/safla/internal/safla/model"
	"github.com/asgard/safla/internal/safla/twin"
)

// Executor applies ControlActions to a Twin. It also satisfies
// twin.Applier, so the Twin Simulator (§4.H) can reuse the exact same
// per-kind logic against a shadow twin.
type Executor struct {
	logger *log.Logger
}

// New builds an Executor. A nil logger defaults to log.Default().
func New(logger *log.Logger) *Executor {
	if logger == nil {
		logger = log.Default()
	}
	return &Executor{logger: logger}
}

// Execute dispatches the action, measures duration, and returns a result
// that is always populated — appliers never panic across this boundary.
func (e *Executor) Execute(ctx context.Context, t twin.Twin, action *model.ControlAction) (result model.ExecutionResult) {
	start := time.Now()
	result.ActionID = action.ID

	defer func() {
		result.CompletedAt = time.Now()
		result.Duration = result.CompletedAt.Sub(start)
		if r := recover(); r != nil {
			result.Success = false
			result.Error = fmt.Sprintf("executor panic: %v", r)
			e.logger.Printf("[executor] recovered panic applying action %s: %v", action.ID, r)
		}
	}()

	predicted, err := e.Apply(ctx, t, action)
	if err != nil {
		result.Success = false
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.Result = predicted
	return result
}

// Apply implements twin.Applier: it mutates (or, for a shadow twin, shadows)
// the target device state per the action's kind.
func (e *Executor) Apply(ctx context.Context, t twin.Twin, action *model.ControlAction) (map[string]any, error) {
	switch action.Kind {
	case model.ActionLighting:
		return applyLighting(t, action)
	case model.ActionClimate:
		return applyClimate(t, action)
	case model.ActionSecurity:
		return applySecurity(t, action)
	case model.ActionEnergyOptim:
		return applyEnergyOptim(t, action)
	case model.ActionEmergency:
		return applyEmergency(t, action)
	case model.ActionComfort, model.ActionMaintenance:
		return applyGeneric(t, action)
	default:
		return nil, fmt.Errorf("executor: unknown action kind %q", action.Kind)
	}
}

func applyLighting(t twin.Twin, action *model.ControlAction) (map[string]any, error) {
	partial := twin.DeviceSnapshot{}
	for _, key := range []string{"brightness", "power", "color"} {
		if v, ok := action.Parameters[key]; ok {
			partial[key] = v
		}
	}
	if err := t.Update(action.Context.HouseID, action.Target, partial); err != nil {
		return nil, fmt.Errorf("lighting update: %w", err)
	}
	return map[string]any(partial), nil
}

func applyClimate(t twin.Twin, action *model.ControlAction) (map[string]any, error) {
	partial := twin.DeviceSnapshot{}
	for _, key := range []string{"temperature", "hvac_mode", "fan_speed"} {
		if v, ok := action.Parameters[key]; ok {
			partial[key] = v
		}
	}
	if err := t.Update(action.Context.HouseID, action.Target, partial); err != nil {
		return nil, fmt.Errorf("climate update: %w", err)
	}
	return map[string]any(partial), nil
}

func applySecurity(t twin.Twin, action *model.ControlAction) (map[string]any, error) {
	partial := twin.DeviceSnapshot{}
	for _, key := range []string{"locked", "armed", "recording"} {
		if v, ok := action.Parameters[key]; ok {
			partial[key] = v
		}
	}
	if err := t.Update(action.Context.HouseID, action.Target, partial); err != nil {
		return nil, fmt.Errorf("security update: %w", err)
	}
	return map[string]any(partial), nil
}

// applyEnergyOptim iterates a batch of sub-device updates carried in the
// action's parameters under "devices": map[deviceID]partialState.
func applyEnergyOptim(t twin.Twin, action *model.ControlAction) (map[string]any, error) {
	devices, _ := action.Parameters["devices"].(map[string]map[string]any)
	applied := make(map[string]any, len(devices))

	for deviceID, partial := range devices {
		snapshot := twin.DeviceSnapshot(partial)
		if err := t.Update(action.Context.HouseID, deviceID, snapshot); err != nil {
			return applied, fmt.Errorf("energy-optim update for %s: %w", deviceID, err)
		}
		applied[deviceID] = partial
	}
	return applied, nil
}

// applyEmergency enumerates every device of a class and forces a safe
// configuration (§4.J: "lights on bright, locks unlocked, etc.").
func applyEmergency(t twin.Twin, action *model.ControlAction) (map[string]any, error) {
	class, _ := action.Parameters["class"].(string)
	if class == "" {
		class = "all"
	}

	devices := t.Devices(action.Context.HouseID, class)
	applied := make(map[string]any, len(devices))

	for _, deviceID := range devices {
		safe := safeEmergencyState(deviceID, action)
		if err := t.Update(action.Context.HouseID, deviceID, safe); err != nil {
			return applied, fmt.Errorf("emergency update for %s: %w", deviceID, err)
		}
		applied[deviceID] = map[string]any(safe)
	}
	return applied, nil
}

func safeEmergencyState(deviceID string, action *model.ControlAction) twin.DeviceSnapshot {
	if override, ok := action.Parameters["safe_state"].(map[string]any); ok {
		return twin.DeviceSnapshot(override)
	}
	// Default emergency posture: lights full-bright, doors/locks open,
	// climate ventilating.
	return twin.DeviceSnapshot{
		"brightness": 1.0,
		"power":      true,
		"locked":     false,
		"armed":      false,
		"hvac_mode":  "vent",
	}
}

func applyGeneric(t twin.Twin, action *model.ControlAction) (map[string]any, error) {
	partial := twin.DeviceSnapshot(action.Parameters)
	if err := t.Update(action.Context.HouseID, action.Target, partial); err != nil {
		return nil, fmt.Errorf("generic update: %w", err)
	}
	return map[string]any(partial), nil
}
