// Package safetypes defines the SAFLA error taxonomy shared by every phase.
package safetypes

import "errors"

// Sentinel errors for the §7 taxonomy, for wrapping with fmt.Errorf ("%w")
// and classifying with errors.Is. No SAFLA component in this module returns
// them: phase errors are recorded as text on the PhaseRecord, and the Safety
// Monitor classifies that text by keyword.
var (
	// ErrTransientIO marks a sensor read or twin update that failed but is
	// expected to recover on retry; breaker-relevant.
	ErrTransientIO = errors.New("safla: transient io failure")

	// ErrTimeout marks a phase that exceeded its deadline. Non-fatal for the
	// cycle; breaker-relevant.
	ErrTimeout = errors.New("safla: phase timeout")

	// ErrValidationReject marks a reading or action that failed a structural
	// or safety check. Surfaced as a drop or violation, never as a panic.
	ErrValidationReject = errors.New("safla: validation rejected")

	// ErrTwinUnsafe marks a speculative twin execution that predicted risk.
	ErrTwinUnsafe = errors.New("safla: twin predicted unsafe outcome")

	// ErrCritical marks a failure whose message matched the critical/safety
	// keyword filter, or accumulated past the critical failure count.
	ErrCritical = errors.New("safla: critical failure")

	// ErrFatal marks an initialization failure. Orchestrator.Start has no
	// error return, so no error of any kind reaches its caller.
	ErrFatal = errors.New("safla: fatal initialization failure")
)
