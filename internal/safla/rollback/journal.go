// Package rollback implements the Rollback Journal (§4.I): it captures
// pre-action device state before execution and restores it if the action
// fails, guaranteeing at most one restore attempt per checkpoint.
package rollback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/asgard/safla/internal/safla/twin"
)

// Checkpoint is the captured pre-state for one target, keyed by a fresh id.
type Checkpoint struct {
	ID        string
	House     string
	Target    string
	PreState  twin.DeviceSnapshot
	ActionID  string
	Instant   time.Time
	restored  bool
}

// Journal owns checkpoints for in-flight actions. Single-owner per §5: only
// the component that captured a checkpoint restores it.
type Journal struct {
	mu          sync.Mutex
	twin        twin.Twin
	checkpoints map[string]*Checkpoint
	now         func() time.Time
}

// New builds a Journal bound to a twin.
func New(t twin.Twin) *Journal {
	return &Journal{twin: t, checkpoints: make(map[string]*Checkpoint), now: time.Now}
}

// Checkpoint captures {house, target, pre-state, instant, action-id} under a
// fresh checkpoint id (§4.I).
func (j *Journal) Checkpoint(house, target, actionID string) (*Checkpoint, error) {
	pre, ok := j.twin.Get(house, target)
	if !ok {
		return nil, fmt.Errorf("rollback: no twin device for %s/%s", house, target)
	}

	cp := &Checkpoint{
		ID:       uuid.NewString(),
		House:    house,
		Target:   target,
		PreState: pre.Clone(),
		ActionID: actionID,
		Instant:  j.now(),
	}

	j.mu.Lock()
	j.checkpoints[cp.ID] = cp
	j.mu.Unlock()

	return cp, nil
}

// Restore restores the target to its checkpointed pre-state. Duplicate
// restores of the same checkpoint are no-ops (§3 invariant, §4.I).
func (j *Journal) Restore(ctx context.Context, checkpointID string) error {
	j.mu.Lock()
	cp, ok := j.checkpoints[checkpointID]
	if !ok {
		j.mu.Unlock()
		return fmt.Errorf("rollback: unknown checkpoint %s", checkpointID)
	}
	if cp.restored {
		j.mu.Unlock()
		return nil
	}
	cp.restored = true
	j.mu.Unlock()

	return j.twin.Update(cp.House, cp.Target, cp.PreState)
}

// Discard removes a checkpoint without restoring it, used after a
// successfully completed action (§4.I: "on success, retain briefly (optional)
// or discard").
func (j *Journal) Discard(checkpointID string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.checkpoints, checkpointID)
}

// Len reports the number of live checkpoints, for diagnostics.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.checkpoints)
}
