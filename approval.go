package execguard

import (
	"context"
	"time"
)

// ApprovalDecision represents a reviewer's response to an approval request.
type ApprovalDecision int

const (
	// approvalUnset is the zero value, treated as Deny for safety.
	// It is unexported to prevent direct use.
	approvalUnset ApprovalDecision = iota

	// Approve allows the command to execute this one time.
	Approve

	// Deny rejects the command.
	Deny
)

// String returns the string representation of an ApprovalDecision.
func (d ApprovalDecision) String() string {
	switch d {
	case approvalUnset:
		return "unset"
	case Approve:
		return "approve"
	case Deny:
		return "deny"
	default:
		return unknownStr
	}
}

// ApprovalRequest contains everything a reviewer needs to judge a command.
// It is passed by value: the approval capability has no write access to
// gatekeeper state.
type ApprovalRequest struct {
	// Command is the full command string awaiting approval.
	Command string

	// Risk is the serialized name of the classified risk level.
	Risk string

	// Reasons is the classifier's audit trail for this command.
	Reasons []string

	// RequestedAt is the time the approval was requested.
	RequestedAt time.Time
}

// ApprovalCallback is the injected human-approval capability. The gatekeeper
// assumes nothing about its transport (terminal prompt, message queue, chat
// UI); it only awaits a decision. Implementations must be safe for
// concurrent use and should honor ctx cancellation.
type ApprovalCallback func(ctx context.Context, req ApprovalRequest) (ApprovalDecision, error)

// requiresApproval reports whether a classification demands human sign-off:
// any risk at or above RiskHigh, or an explicit per-call force.
func requiresApproval(risk RiskLevel, forced bool) bool {
	return forced || risk >= RiskHigh
}

// approvalReply carries a callback result across the await goroutine.
type approvalReply struct {
	decision ApprovalDecision
	err      error
}

// requestApproval invokes the approval capability and awaits its decision
// under a dedicated deadline, independent of the execution timeout. Every
// non-approval resolves to denial: a nil callback (no reviewer configured),
// an explicit Deny, a callback error, a context cancellation, and a deadline
// expiry are all treated identically. Fail-closed is a hard invariant, not a
// best-effort default.
func requestApproval(ctx context.Context, cb ApprovalCallback, timeout time.Duration, req ApprovalRequest) bool {
	if cb == nil {
		return false
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// The callback runs in its own goroutine so a reviewer that ignores ctx
	// cannot stall the invocation past the approval deadline. The goroutine
	// is left to finish on its own after expiry; its late reply is dropped.
	replyCh := make(chan approvalReply, 1)
	go func() {
		decision, err := cb(ctx, req)
		replyCh <- approvalReply{decision: decision, err: err}
	}()

	select {
	case reply := <-replyCh:
		return reply.err == nil && reply.decision == Approve
	case <-ctx.Done():
		return false
	}
}
