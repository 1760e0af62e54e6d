package execguard

// RiskLevel orders command risk from harmless to never-executable. Levels
// compare with ordinary integer comparison; classification only ever moves a
// command's level upward.
type RiskLevel int

const (
	// RiskSafe commands are read-only or otherwise harmless.
	RiskSafe RiskLevel = iota
	// RiskModerate commands modify files or state but are routine.
	RiskModerate
	// RiskHigh commands are destructive or privileged and require approval.
	RiskHigh
	// RiskCritical commands can cause severe, hard-to-reverse damage.
	RiskCritical
	// RiskForbidden commands are never executed under any configuration.
	RiskForbidden
)

const unknownStr = "unknown"

func (r RiskLevel) String() string {
	switch r {
	case RiskSafe:
		return "safe"
	case RiskModerate:
		return "moderate"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	case RiskForbidden:
		return "forbidden"
	default:
		return unknownStr
	}
}

// ParseRiskLevel maps a level name back to its RiskLevel. Unrecognized names
// parse as RiskModerate, the same default the classifier assigns to commands
// it knows nothing about.
func ParseRiskLevel(s string) RiskLevel {
	switch s {
	case "safe":
		return RiskSafe
	case "moderate":
		return RiskModerate
	case "high":
		return RiskHigh
	case "critical":
		return RiskCritical
	case "forbidden":
		return RiskForbidden
	default:
		return RiskModerate
	}
}

// escalate returns the higher of r and to. Risk never decreases during
// classification.
func (r RiskLevel) escalate(to RiskLevel) RiskLevel {
	if to > r {
		return to
	}
	return r
}
