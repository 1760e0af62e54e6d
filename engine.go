package execguard

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"time"
)

// runResult is the engine's raw view of one subprocess run, before it is
// folded into an ExecutionOutcome.
type runResult struct {
	stdout     string
	stderr     string
	returnCode int
	timedOut   bool
	errored    bool
	truncated  bool
	duration   time.Duration
}

// invocation is the fully-resolved argv the engine spawns, plus its
// execution environment. Sandboxing rewrites argv; everything else is
// identical between direct and sandboxed runs.
type invocation struct {
	argv       []string
	workingDir string
	env        []string
}

// runInvocation spawns the invocation and captures its output under a
// deadline. The subprocess gets its own session; on deadline expiry or
// caller-side cancellation the whole process group is forcibly terminated,
// so no orphaned processes survive the invocation.
//
// Expected faults never propagate as errors: a missing binary, a permission
// error, or a crashed sandbox runtime all come back as errored=true with
// return code 1. Timeouts come back as timedOut=true with the conventional
// return code 124.
func runInvocation(ctx context.Context, inv invocation, timeout time.Duration, maxOutput int) runResult {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, inv.argv[0], inv.argv[1:]...) // #nosec G204 -- argv is built by the gatekeeper, not callers
	cmd.Dir = inv.workingDir
	if len(inv.env) > 0 {
		cmd.Env = append(cmd.Environ(), inv.env...)
	}

	var stdout, stderr bytes.Buffer
	var stdoutWriter, stderrWriter io.Writer
	stdoutWriter = &stdout
	stderrWriter = &stderr
	if maxOutput > 0 {
		stdoutWriter = &limitedWriter{buf: &stdout, limit: maxOutput}
		stderrWriter = &limitedWriter{buf: &stderr, limit: maxOutput}
	}
	cmd.Stdout = stdoutWriter
	cmd.Stderr = stderrWriter

	setupProcessGroup(cmd)

	start := time.Now()
	runErr := cmd.Run()
	res := runResult{
		stdout:   stdout.String(),
		stderr:   stderr.String(),
		duration: time.Since(start),
	}

	if maxOutput > 0 && (stdout.Len() >= maxOutput || stderr.Len() >= maxOutput) {
		res.truncated = true
	}

	switch {
	case runErr == nil:
		res.returnCode = 0
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.timedOut = true
		res.returnCode = timeoutReturnCode
	default:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) && ctx.Err() == nil {
			// Normal completion with a non-zero exit; not an engine fault.
			res.returnCode = exitErr.ExitCode()
		} else {
			// Launch failure, I/O fault, or caller-side cancellation.
			res.errored = true
			res.returnCode = failureReturnCode
			res.stderr = appendFaultDetail(res.stderr, runErr)
		}
	}

	return res
}

// appendFaultDetail records the engine-level fault on stderr so the outcome
// explains itself without consulting logs.
func appendFaultDetail(stderr string, err error) string {
	if err == nil {
		return stderr
	}
	if stderr != "" && !bytes.HasSuffix([]byte(stderr), []byte("\n")) {
		stderr += "\n"
	}
	return stderr + "execguard: " + err.Error()
}

// limitedWriter wraps a bytes.Buffer and stops writing after limit bytes.
type limitedWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		return len(p), nil // discard but report success
	}
	if len(p) <= remaining {
		return w.buf.Write(p)
	}
	// Write only what fits, but report full length to avoid io.ErrShortWrite.
	_, err := w.buf.Write(p[:remaining])
	if err != nil {
		return 0, err
	}
	return len(p), nil
}
