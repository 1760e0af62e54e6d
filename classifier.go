package execguard

// Classifier assigns a risk level to a shell command under a given policy.
// Implementations must be deterministic and must never panic, whatever the
// input: classification runs on adversarial command strings.
type Classifier interface {
	// Classify inspects a shell command string against the policy rule
	// tables and returns the risk level with the ordered list of reasons
	// that produced it.
	Classify(command string, policy *Policy) ClassificationResult
}

// ClassificationResult holds the outcome of command classification.
type ClassificationResult struct {
	// Risk is the final risk level after all escalation rules.
	Risk RiskLevel

	// Reasons explains the level, accumulated in rule-evaluation order and
	// never reordered. The slice doubles as the audit trail for the
	// decision.
	Reasons []string
}
