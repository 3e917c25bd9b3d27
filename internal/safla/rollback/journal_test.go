package rollback

import (
	"context"
	"testing"

	"github.com/asgard/safla/internal/safla/twin"
	"github.com/asgard/safla/internal/safla/twinmem"
)

func TestCheckpointCapturesPreState(t *testing.T) {
	mt := twinmem.New()
	mt.Seed("house-1", "thermostat-1", "climate", twin.DeviceSnapshot{"temperature": 22.0})
	j := New(mt)

	cp, err := j.Checkpoint("house-1", "thermostat-1", "action-1")
	if err != nil {
		t.Fatalf("unexpected error capturing checkpoint: %v", err)
	}
	if cp.PreState["temperature"] != 22.0 {
		t.Fatalf("expected captured pre-state to include temperature, got %v", cp.PreState)
	}
	if j.Len() != 1 {
		t.Fatalf("expected one live checkpoint, got %d", j.Len())
	}
}

func TestCheckpointFailsForUnknownDevice(t *testing.T) {
	mt := twinmem.New()
	j := New(mt)

	if _, err := j.Checkpoint("house-1", "missing-device", "action-1"); err == nil {
		t.Fatalf("expected an error checkpointing a device the twin doesn't know about")
	}
}

func TestRestoreReturnsTargetToPreState(t *testing.T) {
	mt := twinmem.New()
	mt.Seed("house-1", "thermostat-1", "climate", twin.DeviceSnapshot{"temperature": 22.0})
	j := New(mt)

	cp, _ := j.Checkpoint("house-1", "thermostat-1", "action-1")
	mt.Update("house-1", "thermostat-1", twin.DeviceSnapshot{"temperature": 30.0})

	if err := j.Restore(context.Background(), cp.ID); err != nil {
		t.Fatalf("unexpected error restoring checkpoint: %v", err)
	}
	snap, _ := mt.Get("house-1", "thermostat-1")
	if snap["temperature"] != 22.0 {
		t.Fatalf("expected temperature to be restored to 22.0, got %v", snap["temperature"])
	}
}

func TestRestoreIsIdempotentOnDuplicateCalls(t *testing.T) {
	mt := twinmem.New()
	mt.Seed("house-1", "thermostat-1", "climate", twin.DeviceSnapshot{"temperature": 22.0})
	j := New(mt)

	cp, _ := j.Checkpoint("house-1", "thermostat-1", "action-1")
	mt.Update("house-1", "thermostat-1", twin.DeviceSnapshot{"temperature": 30.0})

	if err := j.Restore(context.Background(), cp.ID); err != nil {
		t.Fatalf("unexpected error on first restore: %v", err)
	}
	mt.Update("house-1", "thermostat-1", twin.DeviceSnapshot{"temperature": 99.0})
	if err := j.Restore(context.Background(), cp.ID); err != nil {
		t.Fatalf("unexpected error on duplicate restore: %v", err)
	}

	snap, _ := mt.Get("house-1", "thermostat-1")
	if snap["temperature"] != 99.0 {
		t.Fatalf("expected a duplicate restore to be a no-op, leaving the post-first-restore mutation intact, got %v", snap["temperature"])
	}
}

func TestRestoreFailsForUnknownCheckpoint(t *testing.T) {
	mt := twinmem.New()
	j := New(mt)

	if err := j.Restore(context.Background(), "nonexistent"); err == nil {
		t.Fatalf("expected an error restoring an unknown checkpoint id")
	}
}

func TestDiscardRemovesCheckpointWithoutRestoring(t *testing.T) {
	mt := twinmem.New()
	mt.Seed("house-1", "thermostat-1", "climate", twin.DeviceSnapshot{"temperature": 22.0})
	j := New(mt)

	cp, _ := j.Checkpoint("house-1", "thermostat-1", "action-1")
	mt.Update("house-1", "thermostat-1", twin.DeviceSnapshot{"temperature": 30.0})

	j.Discard(cp.ID)
	if j.Len() != 0 {
		t.Fatalf("expected discard to remove the checkpoint, got %d remaining", j.Len())
	}

	snap, _ := mt.Get("house-1", "thermostat-1")
	if snap["temperature"] != 30.0 {
		t.Fatalf("discard must not restore state, got %v", snap["temperature"])
	}
}
