package execguard

import (
	"context"
	"log/slog"
)

// Executor is the risk-tiered command execution gatekeeper.
// Use NewExecutor to create an instance with a specific configuration.
//
// Implementations must be safe for concurrent use by multiple goroutines:
// invocations are fully independent except for the shared audit history.
type Executor interface {
	// Execute classifies a shell command, coordinates human approval for
	// risky commands, optionally rewrites it into an isolated container
	// invocation, runs it under a timeout, and records the full decision
	// trail. Expected failure modes (blocked, denied, timeout, execution
	// fault) are reported in the outcome, never as an error.
	Execute(ctx context.Context, command string, opts ...Option) (*ExecutionOutcome, error)

	// Check classifies a command without executing it. This is useful for
	// dry-run scenarios or pre-flight validation.
	Check(ctx context.Context, command string, opts ...Option) (ClassificationResult, error)

	// History returns up to limit of the most recent audit records, oldest
	// first. limit <= 0 returns everything still retained.
	History(limit int) ([]AuditRecord, error)

	// ClearHistory drops all in-memory audit records.
	ClearHistory() error

	// UpdateConfig dynamically updates the executor's configuration.
	// The new config is validated before being applied.
	UpdateConfig(cfg *Config) error

	// Cleanup releases all resources held by the executor.
	// After Cleanup is called, all subsequent calls return ErrExecutorClosed.
	Cleanup(ctx context.Context) error
}

// NewExecutor creates a new Executor with the given configuration.
// The configuration is validated before the executor is created; a missing
// shell or (when sandboxing is enabled) a missing container runtime is a
// deployment defect and fails construction.
func NewExecutor(cfg *Config) (Executor, error) {
	return newExecutor(cfg)
}

// Execute is a convenience function that creates a temporary executor with
// DefaultConfig, runs the command, and cleans up. With no approval
// capability configured, anything at or above RiskHigh is denied.
func Execute(ctx context.Context, command string, opts ...Option) (*ExecutionOutcome, error) {
	exec, err := NewExecutor(DefaultConfig())
	if err != nil {
		return nil, err
	}
	defer func() { logCleanupErr(exec.Cleanup(context.WithoutCancel(ctx))) }()
	return exec.Execute(ctx, command, opts...)
}

// Check classifies a command without executing it, using the built-in
// classifier and default policy.
func Check(ctx context.Context, command string) (ClassificationResult, error) {
	return DefaultClassifier().Classify(command, DefaultPolicy()), ctx.Err()
}

// logCleanupErr logs cleanup errors using the default logger. Convenience
// functions don't have access to a configured logger, so slog.Debug is a
// best-effort.
func logCleanupErr(err error) {
	if err != nil {
		slog.Debug("execguard: cleanup error", "err", err)
	}
}
