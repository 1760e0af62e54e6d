package execguard

import (
	"strings"
	"sync"

	"github.com/execguard/execguard/internal/pathutil"
)

// reasonMalformed is recorded when tokenization yields no base command.
const reasonMalformed = "Empty or malformed command"

// classifyState carries the working state of one classification through the
// rule list. Rules mutate risk and reasons; terminal rules set done to stop
// evaluation.
type classifyState struct {
	command string
	tokens  []string
	base    string
	risk    RiskLevel
	reasons []string
	done    bool
}

// crule is a single classification rule. Rules are evaluated in order;
// terminal rules short-circuit by setting done.
type crule struct {
	// Name is a short, unique identifier for this rule (e.g. "dangerous-patterns").
	Name string

	// Apply inspects and updates the classification state.
	Apply func(st *classifyState, p *Policy)
}

// ruleClassifier implements Classifier by evaluating an ordered rule list.
// Forbidden-tier rules are terminal; baseline and escalation rules are
// additive, and escalations only ever move the risk up.
type ruleClassifier struct {
	rules []crule
}

// Classify runs the command through the rule list in order. It never panics
// and never raises for malformed input: an empty or unparsable command is
// classified RiskForbidden with a single explanatory reason.
func (c *ruleClassifier) Classify(command string, policy *Policy) ClassificationResult {
	st := &classifyState{
		command: command,
		tokens:  pathutil.SplitCommand(command),
	}
	if len(st.tokens) > 0 {
		st.base = pathutil.BaseCommand(st.tokens[0])
	}
	for _, r := range c.rules {
		r.Apply(st, policy)
		if st.done {
			break
		}
	}
	return ClassificationResult{Risk: st.risk, Reasons: st.reasons}
}

// defaultClassifier caches the singleton DefaultClassifier instance.
var (
	defaultClassifierOnce sync.Once
	defaultClassifierInst Classifier
)

// DefaultClassifier returns a Classifier pre-loaded with the built-in rules.
// Rules are evaluated in priority order: malformed command, dangerous
// patterns, forbidden set, baseline membership, then escalations. The
// classifier is stateless and immutable, so it is cached after first creation.
func DefaultClassifier() Classifier {
	defaultClassifierOnce.Do(func() {
		defaultClassifierInst = &ruleClassifier{rules: defaultClassifyRules()}
	})
	return defaultClassifierInst
}

// defaultClassifyRules returns the built-in rules in evaluation order.
func defaultClassifyRules() []crule {
	return []crule{
		malformedCommandRule(),
		dangerousPatternsRule(),
		forbiddenCommandRule(),
		baselineRule(),
		systemPathsRule(),
		privilegeElevationRule(),
	}
}

// malformedCommandRule forbids commands that tokenize to nothing. Quote
// parsing is best-effort, so this only fires on genuinely empty input.
func malformedCommandRule() crule {
	return crule{
		Name: "malformed-command",
		Apply: func(st *classifyState, _ *Policy) {
			if st.base == "" {
				st.risk = RiskForbidden
				st.reasons = append(st.reasons, reasonMalformed)
				st.done = true
			}
		},
	}
}

// dangerousPatternsRule scans the full, untokenized command string against
// every pattern in the policy. Any match forbids execution with one reason
// per matched pattern. This rule dominates everything that follows,
// including safe-list membership.
func dangerousPatternsRule() crule {
	return crule{
		Name: "dangerous-patterns",
		Apply: func(st *classifyState, p *Policy) {
			var matched []string
			for _, dp := range p.DangerousPatterns {
				if dp.Matches(st.command) {
					matched = append(matched, dp.Reason)
				}
			}
			if len(matched) > 0 {
				st.risk = RiskForbidden
				st.reasons = append(st.reasons, matched...)
				st.done = true
			}
		},
	}
}

// forbiddenCommandRule forbids commands whose base name is in the forbidden
// set. Variants with a dotted suffix (mkfs.ext4) match their stem. When the
// base is an elevation command, the command it hands off to is checked as
// well, so a sudo prefix cannot launder a forbidden command into a merely
// high-risk one.
func forbiddenCommandRule() crule {
	return crule{
		Name: "forbidden-command",
		Apply: func(st *classifyState, p *Policy) {
			for _, name := range []string{st.base, elevationTarget(st.tokens)} {
				if name == "" {
					continue
				}
				if p.ForbiddenCommands[name] || p.ForbiddenCommands[commandStem(name)] {
					st.risk = RiskForbidden
					st.reasons = append(st.reasons, "Forbidden command: "+name)
					st.done = true
					return
				}
			}
		},
	}
}

// elevationTarget returns the base name of the command an elevation prefix
// hands off to, or "" when the command has no elevation prefix.
func elevationTarget(tokens []string) string {
	if len(tokens) == 0 || !elevationTokens[pathutil.BaseCommand(tokens[0])] {
		return ""
	}
	for _, tok := range tokens[1:] {
		if strings.HasPrefix(tok, "-") {
			continue
		}
		return pathutil.BaseCommand(tok)
	}
	return ""
}

// baselineRule assigns the pre-escalation risk from set membership. Priority
// order: high-risk, moderate, safe. A command in none of the sets is
// moderate, never safe: unknown is not trusted.
func baselineRule() crule {
	return crule{
		Name: "baseline",
		Apply: func(st *classifyState, p *Policy) {
			switch {
			case p.HighRiskCommands[st.base]:
				st.risk = RiskHigh
				st.reasons = append(st.reasons, "High-risk command: "+st.base)
			case p.ModerateCommands[st.base]:
				st.risk = RiskModerate
				st.reasons = append(st.reasons, "Moderate-risk command: "+st.base)
			case p.SafeCommands[st.base]:
				st.risk = RiskSafe
				st.reasons = append(st.reasons, "Safe command")
			default:
				st.risk = RiskModerate
				st.reasons = append(st.reasons, "Unknown command: "+st.base)
			}
		},
	}
}

// systemPathsRule upgrades moderate commands to high risk when a path
// operand resolves under a conventional system directory and outside the
// policy's allowed roots.
func systemPathsRule() crule {
	return crule{
		Name: "system-paths",
		Apply: func(st *classifyState, p *Policy) {
			if st.risk != RiskModerate {
				return
			}
			for _, tok := range st.tokens[1:] {
				if !pathutil.LooksLikePath(tok) {
					continue
				}
				expanded := pathutil.ExpandHome(tok)
				if pathutil.UnderAny(expanded, p.AllowedPaths) {
					continue
				}
				if pathutil.IsSystemPath(expanded) {
					st.risk = st.risk.escalate(RiskHigh)
					st.reasons = append(st.reasons, "Operates on system paths")
					return
				}
			}
		},
	}
}

// privilegeElevationRule upgrades to at least high risk when a privilege
// elevation token (sudo, doas, su) appears anywhere in the command, not just
// in the leading position. The upgrade is monotonic: prefixing a command with
// sudo can never lower its risk.
func privilegeElevationRule() crule {
	return crule{
		Name: "privilege-elevation",
		Apply: func(st *classifyState, _ *Policy) {
			if st.risk >= RiskHigh {
				return
			}
			for _, tok := range st.tokens {
				name := pathutil.BaseCommand(tok)
				if elevationTokens[name] {
					st.risk = st.risk.escalate(RiskHigh)
					st.reasons = append(st.reasons, "High-risk command: "+name)
					return
				}
			}
		},
	}
}

// commandStem returns the part of a command name before the first dot, so
// mkfs.ext4 matches a forbidden entry for mkfs.
func commandStem(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return name[:i]
		}
	}
	return name
}
