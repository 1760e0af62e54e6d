// Package execguard is a risk-tiered command execution gatekeeper.
//
// Given an arbitrary shell command it classifies the command's danger level
// against a policy, demands human approval for risky commands (fail-closed:
// no reviewer means no execution), optionally rewrites the command into an
// isolated container invocation, runs it under a timeout with full output
// capture, and records every decision in a bounded audit history.
//
// Key properties:
//   - Deterministic classification: identical command and policy always
//     yield the same risk level and reasons
//   - Fail-closed approval: absence, denial, and timeout of the approval
//     capability all prevent the subprocess from ever being spawned
//   - Bounded execution: every subprocess runs in its own session under a
//     deadline; the whole process group is reclaimed on expiry
//   - Tamper-evident auditing: append-only ring with monotonic sequence
//     numbers, optional persistent sink
//
// Basic usage:
//
//	cfg := execguard.DefaultConfig()
//	cfg.ApprovalCallback = myPrompt
//	exec, err := execguard.NewExecutor(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer exec.Cleanup(context.Background())
//
//	outcome, err := exec.Execute(ctx, "ls -la /tmp")
package execguard
