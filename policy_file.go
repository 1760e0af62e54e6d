package execguard

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// patternRule is the YAML schema for one dangerous-pattern rule.
type patternRule struct {
	Pattern string `yaml:"pattern"`
	Reason  string `yaml:"reason"`
}

// policyFile is the YAML schema root for policy rule files:
//
//	policy:
//	  safe_commands: [ls, cat]
//	  forbidden_commands: [mkfs]
//	  allowed_paths: ["~", "/tmp"]
//	  dangerous_patterns:
//	    - pattern: 'rm\s+-rf\s+/'
//	      reason: "Destructive deletion of filesystem root"
type policyFile struct {
	Policy struct {
		SafeCommands      []string      `yaml:"safe_commands"`
		ModerateCommands  []string      `yaml:"moderate_commands"`
		HighRiskCommands  []string      `yaml:"high_risk_commands"`
		ForbiddenCommands []string      `yaml:"forbidden_commands"`
		AllowedPaths      []string      `yaml:"allowed_paths"`
		DangerousPatterns []patternRule `yaml:"dangerous_patterns"`
	} `yaml:"policy"`
}

// LoadPolicy reads a YAML policy rule file. A missing file is not an error:
// the built-in defaults apply, so a deployment without a policy file still
// gets the full rule tables. A present but malformed file is an error.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultPolicy(), nil
		}
		return nil, fmt.Errorf("%w: reading %q: %w", ErrPolicyInvalid, path, err)
	}
	return PolicyFromYAML(data)
}

// PolicyFromYAML builds a Policy from YAML rule data. Each section that is
// present and non-empty replaces the corresponding default table; omitted
// sections keep the built-in rules, so a file can tighten one table without
// restating the rest.
func PolicyFromYAML(data []byte) (*Policy, error) {
	var pf policyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPolicyInvalid, err)
	}

	p := DefaultPolicy()
	if len(pf.Policy.SafeCommands) > 0 {
		p.SafeCommands = setOf(pf.Policy.SafeCommands...)
	}
	if len(pf.Policy.ModerateCommands) > 0 {
		p.ModerateCommands = setOf(pf.Policy.ModerateCommands...)
	}
	if len(pf.Policy.HighRiskCommands) > 0 {
		p.HighRiskCommands = setOf(pf.Policy.HighRiskCommands...)
	}
	if len(pf.Policy.ForbiddenCommands) > 0 {
		p.ForbiddenCommands = setOf(pf.Policy.ForbiddenCommands...)
	}
	if len(pf.Policy.AllowedPaths) > 0 {
		p.AllowedPaths = append([]string(nil), pf.Policy.AllowedPaths...)
	}
	if len(pf.Policy.DangerousPatterns) > 0 {
		patterns := make([]DangerousPattern, 0, len(pf.Policy.DangerousPatterns))
		for _, pr := range pf.Policy.DangerousPatterns {
			dp, err := NewDangerousPattern(pr.Pattern, pr.Reason)
			if err != nil {
				return nil, err
			}
			patterns = append(patterns, dp)
		}
		p.DangerousPatterns = patterns
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
