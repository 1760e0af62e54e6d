package execguard

import "errors"

// Sentinel errors returned by the execguard package. Expected runtime
// outcomes (blocked, denied, timed out, failed execution) are never errors;
// they surface as ExecutionOutcome values. These sentinels cover deployment
// and usage defects only.
var (
	// ErrConfigInvalid indicates the provided configuration failed validation.
	ErrConfigInvalid = errors.New("execguard: invalid configuration")

	// ErrPolicyInvalid indicates the policy rule tables failed validation.
	ErrPolicyInvalid = errors.New("execguard: invalid policy")

	// ErrExecutorClosed indicates the executor has already been closed via Cleanup.
	ErrExecutorClosed = errors.New("execguard: executor already closed")

	// ErrSandboxUnavailable indicates sandboxing is enabled but the
	// configured container runtime binary cannot be found.
	ErrSandboxUnavailable = errors.New("execguard: sandbox runtime unavailable")
)
