package execguard

import "time"

// Status is the terminal state of one gatekeeper invocation. Callers can
// branch on Status alone: every expected failure mode is a value, never an
// error.
type Status int

const (
	// StatusSuccess indicates the process ran to completion. The exit code
	// carries the process's own result; a non-zero exit is still a
	// successful execution from the gatekeeper's point of view.
	StatusSuccess Status = iota

	// StatusBlocked indicates a forbidden classification; the process was
	// never spawned.
	StatusBlocked

	// StatusDenied indicates approval was required and not granted
	// (no reviewer configured, explicit denial, or approval timeout);
	// the process was never spawned.
	StatusDenied

	// StatusTimeout indicates the process exceeded its deadline and was
	// forcibly terminated.
	StatusTimeout

	// StatusError indicates a launch or runtime fault (missing binary,
	// permission error, sandbox runtime failure).
	StatusError
)

// String returns the string representation of a Status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusBlocked:
		return "blocked"
	case StatusDenied:
		return "denied"
	case StatusTimeout:
		return "timeout"
	case StatusError:
		return "error"
	default:
		return unknownStr
	}
}

// SecurityReport records every security decision made for one invocation.
type SecurityReport struct {
	// Risk is the final classification level.
	Risk RiskLevel

	// Reasons is the classifier's audit trail, in evaluation order.
	Reasons []string

	// Approved reports whether a human reviewer granted the command.
	Approved bool

	// Sandboxed reports whether the command was rewritten into an isolated
	// container invocation.
	Sandboxed bool

	// Blocked reports whether the gatekeeper refused to spawn the process
	// (forbidden classification or denied approval).
	Blocked bool

	// TimedOut reports whether the process was killed at its deadline.
	TimedOut bool
}

// ExecutionOutcome is the sole result type of Execute. Exactly one outcome
// is produced per invocation, whatever terminal state it reaches.
type ExecutionOutcome struct {
	// Status is the terminal state of the invocation.
	Status Status

	// Stdout contains the captured standard output of the process.
	Stdout string

	// Stderr contains the captured standard error of the process.
	Stderr string

	// ReturnCode is the process exit code. Blocked and denied outcomes use
	// 1, timeouts use the conventional 124.
	ReturnCode int

	// Duration is the wall-clock time spent executing the process. Zero for
	// outcomes that never spawned a process.
	Duration time.Duration

	// Truncated indicates output capture hit the configured size limit.
	Truncated bool

	// Security is the full decision trail for this invocation.
	Security SecurityReport
}

// timeoutReturnCode is the conventional exit code for commands killed at
// their deadline, matching the timeout(1) utility.
const timeoutReturnCode = 124

// failureReturnCode is reported for blocked, denied, and errored outcomes.
const failureReturnCode = 1
