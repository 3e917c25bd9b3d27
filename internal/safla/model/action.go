package model

import "time"

// ActionKind enumerates the control-action domains (§3).
type ActionKind string

const (
	ActionLighting     ActionKind = "lighting"
	ActionClimate      ActionKind = "climate"
	ActionSecurity     ActionKind = "security"
	ActionEnergyOptim  ActionKind = "energy-optim"
	ActionComfort      ActionKind = "comfort"
	ActionEmergency    ActionKind = "emergency"
	ActionMaintenance  ActionKind = "maintenance"
)

// Priority ranks ControlActions; higher sorts first (§3, §5 execution order).
type Priority int

const (
	PriorityLowest   Priority = 1
	PriorityLow      Priority = 2
	PriorityMedium   Priority = 3
	PriorityHigh     Priority = 4
	PriorityCritical Priority = 5
)

// ActionStatus is the monotonic lifecycle of a ControlAction (§3).
type ActionStatus string

const (
	StatusPending     ActionStatus = "pending"
	StatusValidating  ActionStatus = "validating"
	StatusTwinTesting ActionStatus = "twin-testing"
	StatusExecuting   ActionStatus = "executing"
	StatusCompleted   ActionStatus = "completed"
	StatusFailed      ActionStatus = "failed"
	StatusCancelled   ActionStatus = "cancelled"
)

// statusRank gives the monotonic ordinal of a status for transition checks;
// Cancelled is reachable from any non-terminal status and is itself terminal.
var statusRank = map[ActionStatus]int{
	StatusPending:     0,
	StatusValidating:  1,
	StatusTwinTesting: 2,
	StatusExecuting:   3,
	StatusCompleted:   4,
	StatusFailed:      4,
	StatusCancelled:   4,
}

// CanTransition reports whether a ControlAction may move from `from` to `to`
// per §3's invariant: monotonic, no back-edges except the terminal cancel.
func CanTransition(from, to ActionStatus) bool {
	if to == StatusCancelled {
		return from != StatusCompleted && from != StatusFailed && from != StatusCancelled
	}
	fr, ok1 := statusRank[from]
	tr, ok2 := statusRank[to]
	if !ok1 || !ok2 {
		return false
	}
	if from == StatusCancelled || from == StatusCompleted || from == StatusFailed {
		return false
	}
	return tr >= fr
}

// ActionContext carries the house/device scoping an action was synthesized
// for, plus whatever power-budget snapshot the Safety Validator needs.
type ActionContext struct {
	HouseID                string
	CurrentPowerConsumption float64 // watts
	Extra                  map[string]any
}

// SafetyReport is one Safety Validator verdict attached to a ControlAction
// (§4.G output shape).
type SafetyReport struct {
	Safe       bool
	Violations []SafetyViolation
	RiskScore  float64
	Instant    time.Time
}

// SafetyViolation is a single constraint failure (§4.G).
type SafetyViolation struct {
	Constraint  string
	Severity    string // critical | high | medium | low
	Description string
	Mitigation  string
	Instant     time.Time
}

// TwinReport is the Twin Simulator's speculative-execution verdict (§4.H).
type TwinReport struct {
	Safe             bool
	Confidence       float64
	PredictedOutcome map[string]any
	RiskFactors      []string
	Instant          time.Time
	Reason           string // set when Safe=false due to missing house/twin
}

// RollbackHandle identifies a captured pre-action checkpoint (§4.I).
type RollbackHandle struct {
	CheckpointID string
	HouseID      string
	Target       string
}

// ControlAction is a synthesized, validated, and (eventually) executed
// command against a device in the twin (§3).
type ControlAction struct {
	ID                string
	Kind              ActionKind
	Target            string
	Parameters        map[string]any
	Priority          Priority
	CreatedAt         time.Time
	Deadline          time.Time
	OriginArtifactID  string
	Context           ActionContext
	Status            ActionStatus
	SafetyReports     []SafetyReport
	TwinReport        *TwinReport
	Rollback          *RollbackHandle
}

// Transition moves the action to `to`, returning false (and leaving the
// action untouched) if the transition violates the monotonic-status
// invariant.
func (a *ControlAction) Transition(to ActionStatus) bool {
	if !CanTransition(a.Status, to) {
		return false
	}
	a.Status = to
	return true
}

// ExecutionResult is the outcome of the Executor applying one ControlAction
// (§3).
type ExecutionResult struct {
	ActionID   string
	Success    bool
	CompletedAt time.Time
	Duration   time.Duration
	Result     map[string]any
	Error      string
}
