package execguard

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

const (
	// defaultMaxOutputBytes is the default limit for captured stdout/stderr (10 MB).
	defaultMaxOutputBytes = 10 * 1024 * 1024

	// defaultShell is the default shell used for command execution.
	defaultShell = "/bin/sh"

	// defaultExecTimeout bounds subprocess execution.
	defaultExecTimeout = 30 * time.Second

	// defaultApprovalTimeout bounds the wait for the approval capability.
	// It is deliberately independent of the execution timeout: a reviewer
	// deciding and a process running are different waits with different
	// natural scales.
	defaultApprovalTimeout = 60 * time.Second
)

// Config holds the complete configuration for an Executor.
type Config struct {
	// Policy is the rule tables the classifier evaluates.
	// If nil, DefaultPolicy() is used.
	Policy *Policy

	// Classifier determines how commands are classified.
	// If nil, DefaultClassifier() is used.
	Classifier Classifier

	// ApprovalCallback is the injected human-approval capability, invoked
	// for commands at or above RiskHigh. If nil, such commands are denied:
	// the absence of a reviewer is never implicit consent.
	ApprovalCallback ApprovalCallback

	// ApprovalTimeout bounds the approval wait. Expiry is treated as an
	// explicit denial. Zero means defaultApprovalTimeout; negative is
	// invalid.
	ApprovalTimeout time.Duration

	// ExecTimeout bounds subprocess execution. Exceeding it terminates the
	// whole process group and yields StatusTimeout with return code 124.
	// Zero means defaultExecTimeout; negative is invalid.
	ExecTimeout time.Duration

	// Sandbox controls isolated execution of risky commands.
	Sandbox SandboxConfig

	// Shell is the path to the shell used for command execution.
	// If empty, /bin/sh is used.
	Shell string

	// MaxOutputBytes limits the size of captured stdout/stderr per stream.
	// 0 disables the limit. Defaults to defaultMaxOutputBytes (10 MB) when
	// created via DefaultConfig().
	MaxOutputBytes int

	// HistoryLimit bounds the in-memory audit ring. 0 means the default
	// (1000); the oldest record is evicted first.
	HistoryLimit int

	// AuditSink receives a copy of every audit record, e.g. for SQLite
	// persistence. If nil, records live only in the in-memory ring.
	AuditSink AuditSink

	// Logger is the structured logger for operational messages such as
	// sink write failures and sandbox diagnostics. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with secure defaults: built-in policy and
// classifier, no approval capability (fail-closed), sandboxing off, 30s
// execution timeout, 60s approval timeout.
func DefaultConfig() *Config {
	return &Config{
		Policy:          DefaultPolicy(),
		ApprovalTimeout: defaultApprovalTimeout,
		ExecTimeout:     defaultExecTimeout,
		MaxOutputBytes:  defaultMaxOutputBytes,
		HistoryLimit:    defaultHistoryLimit,
	}
}

// DevelopmentConfig returns a Config suitable for local development: an
// approval capability is still required for high-risk commands, but the
// execution timeout is generous and history is small.
func DevelopmentConfig() *Config {
	cfg := DefaultConfig()
	cfg.ExecTimeout = 5 * time.Minute
	cfg.HistoryLimit = 100
	return cfg
}

// CIConfig returns a Config optimized for CI/CD environments: sandboxing on
// for everything at or above moderate risk, tight timeouts.
func CIConfig() *Config {
	cfg := DefaultConfig()
	cfg.Sandbox = SandboxConfig{
		Enabled:   true,
		Threshold: RiskModerate,
	}
	cfg.ExecTimeout = defaultExecTimeout
	return cfg
}

// Validate checks the configuration and returns a descriptive error if any
// field is invalid. The returned error wraps ErrConfigInvalid.
func (c *Config) Validate() error {
	var errs []string

	if c.ApprovalTimeout < 0 {
		errs = append(errs, "ApprovalTimeout: must be >= 0")
	}
	if c.ExecTimeout < 0 {
		errs = append(errs, "ExecTimeout: must be >= 0")
	}
	if c.MaxOutputBytes < 0 {
		errs = append(errs, "MaxOutputBytes: must be >= 0")
	}
	if c.HistoryLimit < 0 {
		errs = append(errs, "HistoryLimit: must be >= 0")
	}
	if c.Shell != "" && !filepath.IsAbs(c.Shell) {
		errs = append(errs, fmt.Sprintf("Shell: %q must be an absolute path", c.Shell))
	}
	if c.Sandbox.Threshold < RiskSafe || c.Sandbox.Threshold > RiskForbidden {
		errs = append(errs, "Sandbox.Threshold: invalid risk level")
	}

	if c.Policy != nil {
		if err := c.Policy.Validate(); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrConfigInvalid, strings.Join(errs, "; "))
	}
	return nil
}

// deepCopyConfig returns a copy of cfg with the policy deep-copied to
// prevent aliasing. Classifier, callbacks, sink, and logger are shared by
// reference intentionally.
func deepCopyConfig(cfg *Config) Config {
	cfgCopy := *cfg
	if cfg.Policy != nil {
		cfgCopy.Policy = clonePolicy(cfg.Policy)
	}
	return cfgCopy
}
