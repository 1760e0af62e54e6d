package execguard

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestApprovalDecisionString(t *testing.T) {
	tests := []struct {
		decision ApprovalDecision
		want     string
	}{
		{approvalUnset, "unset"},
		{Approve, "approve"},
		{Deny, "deny"},
		{ApprovalDecision(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.decision.String(); got != tt.want {
			t.Errorf("ApprovalDecision(%d).String() = %q, want %q", tt.decision, got, tt.want)
		}
	}
}

func TestRequiresApproval(t *testing.T) {
	tests := []struct {
		risk   RiskLevel
		forced bool
		want   bool
	}{
		{RiskSafe, false, false},
		{RiskModerate, false, false},
		{RiskHigh, false, true},
		{RiskCritical, false, true},
		{RiskSafe, true, true},
		{RiskModerate, true, true},
	}
	for _, tt := range tests {
		if got := requiresApproval(tt.risk, tt.forced); got != tt.want {
			t.Errorf("requiresApproval(%v, %v) = %v, want %v", tt.risk, tt.forced, got, tt.want)
		}
	}
}

func TestRequestApprovalNilCallback(t *testing.T) {
	// No reviewer configured means denial, never an implicit approval.
	if requestApproval(context.Background(), nil, time.Second, ApprovalRequest{}) {
		t.Error("nil callback must deny")
	}
}

func TestRequestApprovalDecisions(t *testing.T) {
	tests := []struct {
		name     string
		decision ApprovalDecision
		err      error
		want     bool
	}{
		{"approve", Approve, nil, true},
		{"deny", Deny, nil, false},
		{"zero value denies", approvalUnset, nil, false},
		{"error denies even with approve", Approve, errors.New("transport down"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := func(context.Context, ApprovalRequest) (ApprovalDecision, error) {
				return tt.decision, tt.err
			}
			got := requestApproval(context.Background(), cb, time.Second, ApprovalRequest{Command: "rm x"})
			if got != tt.want {
				t.Errorf("requestApproval() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequestApprovalTimeout(t *testing.T) {
	// A reviewer that honors ctx resolves promptly at the deadline.
	cb := func(ctx context.Context, _ ApprovalRequest) (ApprovalDecision, error) {
		<-ctx.Done()
		return Approve, ctx.Err()
	}
	start := time.Now()
	if requestApproval(context.Background(), cb, 50*time.Millisecond, ApprovalRequest{}) {
		t.Error("expired approval must deny")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("approval wait took %v, deadline not enforced", elapsed)
	}
}

func TestRequestApprovalIgnoresContextStall(t *testing.T) {
	// A reviewer that ignores ctx entirely cannot stall past the deadline.
	blockForever := make(chan struct{})
	defer close(blockForever)
	cb := func(context.Context, ApprovalRequest) (ApprovalDecision, error) {
		<-blockForever
		return Approve, nil
	}
	start := time.Now()
	if requestApproval(context.Background(), cb, 50*time.Millisecond, ApprovalRequest{}) {
		t.Error("stalled approval must deny")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("approval wait took %v, deadline not enforced", elapsed)
	}
}

func TestRequestApprovalCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cb := func(ctx context.Context, _ ApprovalRequest) (ApprovalDecision, error) {
		<-ctx.Done()
		return Approve, ctx.Err()
	}
	if requestApproval(ctx, cb, time.Minute, ApprovalRequest{}) {
		t.Error("cancelled approval must deny")
	}
}
