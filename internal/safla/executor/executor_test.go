package executor

import (
	"context"
	"testing"

	"github.com/asgard/safla/internal/safla/model"
	"github.com/asgard/safla/internal/safla/twin"
	"github.com/asgard/safla/internal/safla/twinmem"
)

func newAction(kind model.ActionKind, target string, params map[string]any) *model.ControlAction {
	return &model.ControlAction{
		ID:         "action-1",
		Kind:       kind,
		Target:     target,
		Parameters: params,
		Context:    model.ActionContext{HouseID: "house-1"},
	}
}

func TestExecuteAppliesLightingParameters(t *testing.T) {
	mt := twinmem.New()
	mt.Seed("house-1", "light-1", "lighting", twin.DeviceSnapshot{"brightness": 10})
	e := New(nil)

	result := e.Execute(context.Background(), mt, newAction(model.ActionLighting, "light-1", map[string]any{"brightness": 90}))

	if !result.Success {
		t.Fatalf("expected lighting execution to succeed, got error %q", result.Error)
	}
	snap, _ := mt.Get("house-1", "light-1")
	if snap["brightness"] != 90 {
		t.Fatalf("expected brightness to be updated to 90, got %v", snap["brightness"])
	}
}

func TestExecuteRejectsUnknownActionKind(t *testing.T) {
	mt := twinmem.New()
	mt.Seed("house-1", "device-1", "misc", twin.DeviceSnapshot{})
	e := New(nil)

	result := e.Execute(context.Background(), mt, newAction(model.ActionKind("unknown"), "device-1", nil))
	if result.Success {
		t.Fatalf("expected an unknown action kind to fail")
	}
}

func TestExecuteRecoversFromApplierPanic(t *testing.T) {
	mt := panicTwin{}
	e := New(nil)

	result := e.Execute(context.Background(), mt, newAction(model.ActionLighting, "light-1", map[string]any{"brightness": 1}))
	if result.Success {
		t.Fatalf("expected a panicking applier to be reported as a failed result, not propagate")
	}
}

type panicTwin struct{}

func (panicTwin) Get(house, device string) (twin.DeviceSnapshot, bool) { return nil, true }
func (panicTwin) Update(house, device string, partial twin.DeviceSnapshot) error {
	panic("simulated twin failure")
}
func (panicTwin) Devices(house, class string) []string { return nil }

func TestApplyEmergencyEnumeratesDeviceClass(t *testing.T) {
	mt := twinmem.New()
	mt.Seed("house-1", "light-1", "lighting", twin.DeviceSnapshot{"brightness": 10})
	mt.Seed("house-1", "light-2", "lighting", twin.DeviceSnapshot{"brightness": 20})
	e := New(nil)

	result := e.Execute(context.Background(), mt, newAction(model.ActionEmergency, "", map[string]any{"class": "lighting"}))

	if !result.Success {
		t.Fatalf("expected emergency execution to succeed, got error %q", result.Error)
	}
	for _, id := range []string{"light-1", "light-2"} {
		snap, _ := mt.Get("house-1", id)
		if snap["brightness"] != 1.0 {
			t.Fatalf("expected %s to be forced to full brightness, got %v", id, snap["brightness"])
		}
	}
}

func TestApplyEnergyOptimUpdatesEachDevice(t *testing.T) {
	mt := twinmem.New()
	mt.Seed("house-1", "plug-1", "energy", twin.DeviceSnapshot{"power": true})
	mt.Seed("house-1", "plug-2", "energy", twin.DeviceSnapshot{"power": true})
	e := New(nil)

	devices := map[string]map[string]any{
		"plug-1": {"power": false},
		"plug-2": {"power": false},
	}
	result := e.Execute(context.Background(), mt, newAction(model.ActionEnergyOptim, "", map[string]any{"devices": devices}))

	if !result.Success {
		t.Fatalf("expected energy-optim execution to succeed, got error %q", result.Error)
	}
	for _, id := range []string{"plug-1", "plug-2"} {
		snap, _ := mt.Get("house-1", id)
		if snap["power"] != false {
			t.Fatalf("expected %s power to be turned off", id)
		}
	}
}
