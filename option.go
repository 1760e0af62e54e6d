package execguard

import "time"

// Option configures a single Execute or Check call.
type Option func(*callOptions)

// callOptions holds per-call configuration applied via Option functions.
type callOptions struct {
	forceApproval  bool
	timeout        time.Duration
	workingDir     string
	env            []string
	shell          string
	classifier     Classifier
	sandbox        *bool
	maxOutputBytes *int
}

// mergeCallOptions applies per-call Option functions and returns the result.
func mergeCallOptions(opts ...Option) *callOptions {
	co := &callOptions{}
	for _, opt := range opts {
		opt(co)
	}
	return co
}

// WithForceApproval demands human approval for this call regardless of the
// computed risk level. With no approval capability configured this denies
// the command outright.
func WithForceApproval() Option {
	return func(o *callOptions) {
		o.forceApproval = true
	}
}

// WithTimeout overrides the execution timeout for a single call. The
// approval wait keeps its own configured deadline.
func WithTimeout(d time.Duration) Option {
	return func(o *callOptions) {
		o.timeout = d
	}
}

// WithWorkingDir sets the working directory for a single call.
func WithWorkingDir(dir string) Option {
	return func(o *callOptions) {
		o.workingDir = dir
	}
}

// WithEnv adds environment variables for a single call.
// Each entry should be in "KEY=VALUE" format.
func WithEnv(env ...string) Option {
	cpy := append([]string(nil), env...)
	return func(o *callOptions) {
		o.env = append(o.env, cpy...)
	}
}

// WithShell overrides the shell used for a single call.
func WithShell(shell string) Option {
	return func(o *callOptions) {
		o.shell = shell
	}
}

// WithClassifier overrides the classifier for a single call.
func WithClassifier(c Classifier) Option {
	return func(o *callOptions) {
		o.classifier = c
	}
}

// WithSandbox overrides the sandbox-enabled setting for a single call. The
// configured threshold, runtime, and image still apply.
func WithSandbox(enabled bool) Option {
	return func(o *callOptions) {
		o.sandbox = &enabled
	}
}

// WithMaxOutputBytes sets the maximum captured output size (in bytes, per
// stream) for a single call.
func WithMaxOutputBytes(n int) Option {
	return func(o *callOptions) {
		o.maxOutputBytes = &n
	}
}
