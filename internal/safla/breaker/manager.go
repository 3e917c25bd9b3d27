// Package breaker implements the Circuit Breakers (§4.M): one breaker per
// component name in {sense, analyze, feedback, learn}, each wrapping
// sony/gobreaker with the settings the spec demands — closed->open on 5
// consecutive failures, open->half-open after 5 minutes, half-open permits
// exactly one probe. Grounded on jordigilh-kubernaut's
// circuitbreaker.NewManager(gobreaker.Settings{...}) usage
// (test/integration/notification/suite_test.go).
package breaker

import (
	"time"

	"github.com/sony/gobreaker"
)

// Component names the four breaker-guarded phases (§4.M).
type Component string

const (
	ComponentSense    Component = "sense"
	ComponentAnalyze  Component = "analyze"
	ComponentFeedback Component = "feedback"
	ComponentLearn    Component = "learn"
)

// Config tunes the shared breaker settings across all components.
type Config struct {
	ConsecutiveFailureThreshold uint32
	OpenDuration                time.Duration
}

// DefaultConfig matches §4.M's defaults.
func DefaultConfig() Config {
	return Config{
		ConsecutiveFailureThreshold: 5,
		OpenDuration:                5 * time.Minute,
	}
}

// Manager owns one named gobreaker.CircuitBreaker per component.
type Manager struct {
	cfg      Config
	breakers map[Component]*gobreaker.CircuitBreaker[any]
	onChange func(name string, from, to gobreaker.State)
}

// NewManager builds a Manager with breakers for all four components.
func NewManager(cfg Config) *Manager {
	m := &Manager{cfg: cfg, breakers: make(map[Component]*gobreaker.CircuitBreaker[any])}
	for _, c := range []Component{ComponentSense, ComponentAnalyze, ComponentFeedback, ComponentLearn} {
		m.breakers[c] = m.newBreaker(c)
	}
	return m
}

// OnStateChange registers a callback invoked whenever any breaker changes
// state, used by the Safety Monitor / metrics layer to observe trips.
// gobreaker settings are immutable once a breaker is constructed, so
// registering a callback rebuilds all breakers (their counters reset, which
// is only safe to call during setup, before the manager is handed off to
// the Orchestrator).
func (m *Manager) OnStateChange(fn func(name string, from, to gobreaker.State)) {
	m.onChange = fn
	for c := range m.breakers {
		m.breakers[c] = m.newBreaker(c)
	}
}

func (m *Manager) newBreaker(c Component) *gobreaker.CircuitBreaker[any] {
	settings := gobreaker.Settings{
		Name:        string(c),
		MaxRequests: 1, // half-open permits exactly one probe
		Interval:    0, // never force-reset counts while closed; only consecutive failures matter
		Timeout:     m.cfg.OpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= m.cfg.ConsecutiveFailureThreshold
		},
	}
	if m.onChange != nil {
		settings.OnStateChange = m.onChange
	}
	return gobreaker.NewCircuitBreaker[any](settings)
}

// IsAvailable reports whether a component's breaker currently admits an
// operation (§4.M: "Operations consult is_available(component) before
// running the phase"). Checking state also performs gobreaker's internal
// closed<->open<->half-open clock transition.
func (m *Manager) IsAvailable(c Component) bool {
	b, ok := m.breakers[c]
	if !ok {
		return true
	}
	return b.State() != gobreaker.StateOpen
}

// State returns the component's current breaker state.
func (m *Manager) State(c Component) gobreaker.State {
	b, ok := m.breakers[c]
	if !ok {
		return gobreaker.StateClosed
	}
	return b.State()
}

// Execute runs fn through the named breaker, recording success/failure the
// way gobreaker expects: any non-nil error counts as a failure.
func (m *Manager) Execute(c Component, fn func() error) error {
	b, ok := m.breakers[c]
	if !ok {
		return fn()
	}
	_, err := b.Execute(func() (any, error) {
		return nil, fn()
	})
	return err
}

// Counts exposes the raw gobreaker counters for a component, for metrics
// and diagnostics.
func (m *Manager) Counts(c Component) gobreaker.Counts {
	b, ok := m.breakers[c]
	if !ok {
		return gobreaker.Counts{}
	}
	return b.Counts()
}
