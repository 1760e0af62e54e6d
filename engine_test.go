package execguard

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func shellInvocation(command string) invocation {
	return invocation{argv: []string{"/bin/sh", "-c", command}}
}

func TestRunInvocationSuccess(t *testing.T) {
	res := runInvocation(context.Background(), shellInvocation("echo hello"), 10*time.Second, 0)
	if res.errored || res.timedOut {
		t.Fatalf("unexpected fault: %+v", res)
	}
	if res.returnCode != 0 {
		t.Errorf("returnCode = %d, want 0", res.returnCode)
	}
	if res.stdout != "hello\n" {
		t.Errorf("stdout = %q, want %q", res.stdout, "hello\n")
	}
	if res.duration <= 0 {
		t.Error("duration should be positive")
	}
}

func TestRunInvocationNonZeroExit(t *testing.T) {
	res := runInvocation(context.Background(), shellInvocation("exit 3"), 10*time.Second, 0)
	if res.errored || res.timedOut {
		t.Fatalf("non-zero exit is not a fault: %+v", res)
	}
	if res.returnCode != 3 {
		t.Errorf("returnCode = %d, want 3", res.returnCode)
	}
}

func TestRunInvocationStderr(t *testing.T) {
	res := runInvocation(context.Background(), shellInvocation("echo oops >&2"), 10*time.Second, 0)
	if res.stderr != "oops\n" {
		t.Errorf("stderr = %q, want %q", res.stderr, "oops\n")
	}
	if res.stdout != "" {
		t.Errorf("stdout = %q, want empty", res.stdout)
	}
}

func TestRunInvocationTimeout(t *testing.T) {
	res := runInvocation(context.Background(), shellInvocation("sleep 5"), 100*time.Millisecond, 0)
	if !res.timedOut {
		t.Fatal("expected timeout")
	}
	if res.returnCode != timeoutReturnCode {
		t.Errorf("returnCode = %d, want %d", res.returnCode, timeoutReturnCode)
	}
	if res.duration >= 5*time.Second {
		t.Errorf("duration = %v, process was not killed at deadline", res.duration)
	}
}

func TestRunInvocationMissingBinary(t *testing.T) {
	inv := invocation{argv: []string{"/nonexistent/definitely-not-a-binary"}}
	res := runInvocation(context.Background(), inv, 10*time.Second, 0)
	if !res.errored {
		t.Fatal("expected errored for missing binary")
	}
	if res.returnCode != failureReturnCode {
		t.Errorf("returnCode = %d, want %d", res.returnCode, failureReturnCode)
	}
	if !strings.Contains(res.stderr, "execguard:") {
		t.Errorf("stderr should carry the fault detail, got %q", res.stderr)
	}
}

func TestRunInvocationCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	res := runInvocation(ctx, shellInvocation("sleep 5"), 10*time.Second, 0)
	if res.timedOut {
		t.Error("caller cancellation is not a timeout")
	}
	if !res.errored {
		t.Error("caller cancellation should surface as a fault")
	}
}

func TestRunInvocationWorkingDir(t *testing.T) {
	dir := t.TempDir()
	inv := shellInvocation("pwd")
	inv.workingDir = dir
	res := runInvocation(context.Background(), inv, 10*time.Second, 0)
	if res.errored {
		t.Fatalf("unexpected fault: %+v", res)
	}
	// The temp dir may sit behind a symlink (macOS /tmp), so compare suffixes.
	got := strings.TrimSpace(res.stdout)
	if got != dir && !strings.HasSuffix(got, dir) {
		t.Errorf("pwd = %q, want %q", got, dir)
	}
}

func TestRunInvocationEnv(t *testing.T) {
	inv := shellInvocation("printf '%s' \"$EXECGUARD_TEST_VAR\"")
	inv.env = []string{"EXECGUARD_TEST_VAR=engine"}
	res := runInvocation(context.Background(), inv, 10*time.Second, 0)
	if res.stdout != "engine" {
		t.Errorf("stdout = %q, want %q", res.stdout, "engine")
	}
}

func TestRunInvocationOutputTruncation(t *testing.T) {
	res := runInvocation(context.Background(), shellInvocation("yes | head -c 100"), 10*time.Second, 16)
	if !res.truncated {
		t.Fatalf("expected truncation, got %d bytes", len(res.stdout))
	}
	if len(res.stdout) > 16 {
		t.Errorf("stdout length = %d, want <= 16", len(res.stdout))
	}
}

func TestAppendFaultDetail(t *testing.T) {
	if got := appendFaultDetail("", errors.New("boom")); got != "execguard: boom" {
		t.Errorf("appendFaultDetail empty = %q", got)
	}
	if got := appendFaultDetail("partial output", errors.New("boom")); got != "partial output\nexecguard: boom" {
		t.Errorf("appendFaultDetail partial = %q", got)
	}
	if got := appendFaultDetail("line\n", errors.New("boom")); got != "line\nexecguard: boom" {
		t.Errorf("appendFaultDetail newline = %q", got)
	}
	if got := appendFaultDetail("keep", nil); got != "keep" {
		t.Errorf("appendFaultDetail nil err = %q", got)
	}
}

func TestLimitedWriter(t *testing.T) {
	inv := shellInvocation("printf 'abcdefghij'")
	res := runInvocation(context.Background(), inv, 10*time.Second, 4)
	if res.stdout != "abcd" {
		t.Errorf("stdout = %q, want %q", res.stdout, "abcd")
	}
	if !res.truncated {
		t.Error("expected truncated")
	}
}
