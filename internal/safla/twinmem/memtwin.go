// Package twinmem provides an in-memory Twin implementation used by tests
// and the cmd/safla-loop demo harness, mirroring the teacher's
// mock-alongside-interface convention (internal/orbital/hal/mock_power.go).
package twinmem

import (
	"fmt"
	"sync"

	"github.com/asgard/safla/internal/safla/twin"
)

// MemTwin is a goroutine-safe in-memory digital twin keyed by house/device.
type MemTwin struct {
	mu      sync.RWMutex
	devices map[string]map[string]twin.DeviceSnapshot // house -> device -> state
	classes map[string]map[string][]string            // house -> class -> device ids
}

// New builds an empty MemTwin.
func New() *MemTwin {
	return &MemTwin{
		devices: make(map[string]map[string]twin.DeviceSnapshot),
		classes: make(map[string]map[string][]string),
	}
}

// Seed registers a device with an initial state and class membership, for
// test setup and demo scenarios.
func (m *MemTwin) Seed(house, device, class string, state twin.DeviceSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.devices[house] == nil {
		m.devices[house] = make(map[string]twin.DeviceSnapshot)
	}
	m.devices[house][device] = state.Clone()

	if class != "" {
		if m.classes[house] == nil {
			m.classes[house] = make(map[string][]string)
		}
		m.classes[house][class] = appendUnique(m.classes[house][class], device)
		m.classes[house]["all"] = appendUnique(m.classes[house]["all"], device)
	}
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// Get implements twin.Twin.
func (m *MemTwin) Get(house, device string) (twin.DeviceSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byDevice, ok := m.devices[house]
	if !ok {
		return nil, false
	}
	state, ok := byDevice[device]
	if !ok {
		return nil, false
	}
	return state.Clone(), true
}

// Update implements twin.Twin. It is idempotent on an equal partial state
// (§6): applying the same key/value pairs twice leaves the same result.
func (m *MemTwin) Update(house, device string, partial twin.DeviceSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.devices[house] == nil {
		m.devices[house] = make(map[string]twin.DeviceSnapshot)
	}
	current, ok := m.devices[house][device]
	if !ok {
		if len(partial) == 0 {
			return fmt.Errorf("twinmem: no such device %s/%s", house, device)
		}
		current = twin.DeviceSnapshot{}
	}
	for k, v := range partial {
		current[k] = v
	}
	m.devices[house][device] = current
	return nil
}

// Devices implements twin.Twin.
func (m *MemTwin) Devices(house, class string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.classes[house] == nil {
		return nil
	}
	out := make([]string, len(m.classes[house][class]))
	copy(out, m.classes[house][class])
	return out
}
