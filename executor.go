package execguard

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// executor is the core Executor implementation. It owns the policy, the
// approval coordination, the sandbox rewrite, the execution engine, and the
// audit history.
type executor struct {
	mu      sync.RWMutex
	closed  bool
	cfg     *Config
	logger  *slog.Logger
	history *auditHistory
	sink    AuditSink
}

// newExecutor creates a new Executor with the given configuration.
// It validates the config, fills in defaults, and verifies deployment
// prerequisites (shell binary, sandbox runtime when enabled).
func newExecutor(cfg *Config) (Executor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config must not be nil", ErrConfigInvalid)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Work on a deep copy so construction does not mutate the caller's Config.
	cfgCopy := deepCopyConfig(cfg)
	fillConfigDefaults(&cfgCopy)

	// Check that the configured shell exists on the filesystem.
	if _, err := os.Stat(cfgCopy.Shell); err != nil {
		return nil, fmt.Errorf("%w: shell %q does not exist: %w", ErrConfigInvalid, cfgCopy.Shell, err)
	}

	// A missing container runtime with sandboxing enabled is a deployment
	// defect and the one configuration fault worth failing startup over.
	if cfgCopy.Sandbox.Enabled {
		if err := checkSandboxRuntime(cfgCopy.Sandbox.Runtime); err != nil {
			return nil, err
		}
	}

	logger := cfgCopy.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &executor{
		cfg:     &cfgCopy,
		logger:  logger,
		history: newAuditHistory(cfgCopy.HistoryLimit),
		sink:    cfgCopy.AuditSink,
	}, nil
}

// fillConfigDefaults resolves zero-valued fields in place.
func fillConfigDefaults(cfg *Config) {
	if cfg.Policy == nil {
		cfg.Policy = DefaultPolicy()
	}
	if cfg.Classifier == nil {
		cfg.Classifier = DefaultClassifier()
	}
	if cfg.Shell == "" {
		cfg.Shell = defaultShell
	}
	if cfg.ExecTimeout == 0 {
		cfg.ExecTimeout = defaultExecTimeout
	}
	if cfg.ApprovalTimeout == 0 {
		cfg.ApprovalTimeout = defaultApprovalTimeout
	}
	if cfg.HistoryLimit == 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	cfg.Sandbox = cfg.Sandbox.withDefaults()
	if cfg.Sandbox.Threshold == RiskSafe && !cfg.Sandbox.Enabled {
		cfg.Sandbox.Threshold = RiskHigh
	}
}

// configSnapshot holds a shallow copy of Config taken under the read lock.
// Pointer fields are safe because UpdateConfig deep-copies before storing,
// so the snapshot references old, immutable data.
type configSnapshot struct {
	cfg Config
}

// snapshotConfig returns a shallow copy of the current config under the read
// lock. The caller must NOT hold the lock when calling this method.
func (e *executor) snapshotConfig() (configSnapshot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return configSnapshot{}, ErrExecutorClosed
	}
	return configSnapshot{cfg: *e.cfg}, nil
}

// classify runs the classifier on a command string. A per-call classifier
// takes precedence over the configured one.
func classify(snap *configSnapshot, command string, co *callOptions) ClassificationResult {
	cl := snap.cfg.Classifier
	if co.classifier != nil {
		cl = co.classifier
	}
	return cl.Classify(command, snap.cfg.Policy)
}

// Execute runs one full gatekeeper cycle: classify, coordinate approval,
// optionally sandbox, execute under a deadline, and audit. Every expected
// outcome (blocked, denied, timed out, failed) is a value; the returned
// error is non-nil only when the executor is closed.
func (e *executor) Execute(ctx context.Context, command string, opts ...Option) (*ExecutionOutcome, error) {
	snap, err := e.snapshotConfig()
	if err != nil {
		return nil, err
	}
	co := mergeCallOptions(opts...)

	result := classify(&snap, command, co)
	sec := SecurityReport{Risk: result.Risk, Reasons: result.Reasons}

	// Forbidden classifications terminate before any approval or spawn.
	if result.Risk == RiskForbidden {
		sec.Blocked = true
		outcome := &ExecutionOutcome{
			Status:     StatusBlocked,
			ReturnCode: failureReturnCode,
			Security:   sec,
		}
		e.record(command, outcome)
		return outcome, nil
	}

	if requiresApproval(result.Risk, co.forceApproval) {
		req := ApprovalRequest{
			Command:     command,
			Risk:        result.Risk.String(),
			Reasons:     append([]string(nil), result.Reasons...),
			RequestedAt: time.Now(),
		}
		if !requestApproval(ctx, snap.cfg.ApprovalCallback, snap.cfg.ApprovalTimeout, req) {
			// Denial, reviewer absence, and approval timeout are one and
			// the same outcome: the subprocess is never spawned.
			sec.Blocked = true
			outcome := &ExecutionOutcome{
				Status:     StatusDenied,
				ReturnCode: failureReturnCode,
				Security:   sec,
			}
			e.record(command, outcome)
			return outcome, nil
		}
		sec.Approved = true
	}

	shell := snap.cfg.Shell
	if co.shell != "" {
		shell = co.shell
	}
	sandboxCfg := snap.cfg.Sandbox
	if co.sandbox != nil {
		sandboxCfg.Enabled = *co.sandbox
	}

	inv := invocation{
		argv:       []string{shell, "-c", command},
		workingDir: co.workingDir,
		env:        co.env,
	}
	if sandboxCfg.shouldSandbox(result.Risk) {
		inv.argv = sandboxArgs(sandboxCfg, shell, command)
		sec.Sandboxed = true
	}

	timeout := snap.cfg.ExecTimeout
	if co.timeout > 0 {
		timeout = co.timeout
	}
	maxOutput := snap.cfg.MaxOutputBytes
	if co.maxOutputBytes != nil {
		maxOutput = *co.maxOutputBytes
	}

	res := runInvocation(ctx, inv, timeout, maxOutput)

	sec.TimedOut = res.timedOut
	status := StatusSuccess
	switch {
	case res.timedOut:
		status = StatusTimeout
	case res.errored:
		status = StatusError
	}

	outcome := &ExecutionOutcome{
		Status:     status,
		Stdout:     res.stdout,
		Stderr:     res.stderr,
		ReturnCode: res.returnCode,
		Duration:   res.duration,
		Truncated:  res.truncated,
		Security:   sec,
	}
	e.record(command, outcome)
	return outcome, nil
}

// Check classifies a command without executing it.
func (e *executor) Check(ctx context.Context, command string, opts ...Option) (ClassificationResult, error) {
	snap, err := e.snapshotConfig()
	if err != nil {
		return ClassificationResult{}, err
	}
	co := mergeCallOptions(opts...)
	return classify(&snap, command, co), nil
}

// History returns up to limit of the most recent audit records, oldest
// first. limit <= 0 returns everything still in the ring.
func (e *executor) History(limit int) ([]AuditRecord, error) {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return nil, ErrExecutorClosed
	}
	return e.history.list(limit), nil
}

// ClearHistory drops all in-memory audit records. A configured AuditSink is
// unaffected: persisted records stay persisted.
func (e *executor) ClearHistory() error {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return ErrExecutorClosed
	}
	e.history.clear()
	return nil
}

// UpdateConfig dynamically updates the executor's configuration. The new
// config is validated before being applied; policy and classifier changes
// take effect on the next Execute call.
func (e *executor) UpdateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config must not be nil", ErrConfigInvalid)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	cfgCopy := deepCopyConfig(cfg)
	fillConfigDefaults(&cfgCopy)

	if _, err := os.Stat(cfgCopy.Shell); err != nil {
		return fmt.Errorf("%w: shell %q does not exist: %w", ErrConfigInvalid, cfgCopy.Shell, err)
	}
	if cfgCopy.Sandbox.Enabled {
		if err := checkSandboxRuntime(cfgCopy.Sandbox.Runtime); err != nil {
			return err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrExecutorClosed
	}
	e.cfg = &cfgCopy
	e.sink = cfgCopy.AuditSink
	if cfgCopy.Logger != nil {
		e.logger = cfgCopy.Logger
	}
	return nil
}

// Cleanup closes the executor. All subsequent calls return ErrExecutorClosed.
func (e *executor) Cleanup(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return nil
}

// record appends the outcome to the audit ring and fans it out to the
// configured sink. Sink failures are logged, not propagated: audit
// persistence must never change an execution outcome after the fact.
func (e *executor) record(command string, outcome *ExecutionOutcome) {
	rec := e.history.append(command, *outcome)

	e.mu.RLock()
	sink := e.sink
	e.mu.RUnlock()
	if sink == nil {
		return
	}
	if err := sink.Record(rec); err != nil {
		e.logger.Warn("audit sink write failed", "seq", rec.Seq, "error", err)
	}
}
