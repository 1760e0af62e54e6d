package execguard

import (
	"fmt"
	"regexp"
)

// DangerousPattern pairs a compiled regular expression with the reason
// reported when a command matches it. Matching any dangerous pattern
// classifies the whole command RiskForbidden regardless of the base
// command's own table.
type DangerousPattern struct {
	Pattern string
	Reason  string

	re *regexp.Regexp
}

// NewDangerousPattern compiles pattern and returns the rule. The error wraps
// ErrPolicyInvalid when the expression does not compile.
func NewDangerousPattern(pattern, reason string) (DangerousPattern, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return DangerousPattern{}, fmt.Errorf("%w: pattern %q: %v", ErrPolicyInvalid, pattern, err)
	}
	return DangerousPattern{Pattern: pattern, Reason: reason, re: re}, nil
}

// Matches reports whether the full command string matches the pattern.
func (d DangerousPattern) Matches(command string) bool {
	return d.re != nil && d.re.MatchString(command)
}

// Policy holds the rule tables the classifier evaluates: four disjoint
// command-name tiers, an ordered list of dangerous patterns scanned against
// the full command string, and the path prefixes that do not count as
// system-path access.
type Policy struct {
	SafeCommands      map[string]bool
	ModerateCommands  map[string]bool
	HighRiskCommands  map[string]bool
	ForbiddenCommands map[string]bool

	// DangerousPatterns are evaluated in order against the full command
	// string. All matching reasons are reported.
	DangerousPatterns []DangerousPattern

	// AllowedPaths are prefixes under which path arguments never trigger
	// the system-path escalation. Entries may use ~ for the home directory.
	AllowedPaths []string
}

// elevationTokens are privilege-elevation commands. Their presence anywhere
// in the command line, not only in base position, raises risk to at least
// RiskHigh.
var elevationTokens = map[string]bool{
	"sudo": true,
	"doas": true,
	"su":   true,
}

// DefaultPolicy returns the built-in rule tables. Callers get a fresh copy
// each time and may mutate it freely.
func DefaultPolicy() *Policy {
	return &Policy{
		SafeCommands: setOf(
			"ls", "cat", "echo", "pwd", "whoami", "date", "head", "tail",
			"wc", "sort", "uniq", "grep", "which", "file", "basename",
			"dirname", "realpath", "stat", "du", "df", "printenv", "id",
			"uname", "hostname", "true", "false",
		),
		ModerateCommands: setOf(
			"mv", "cp", "mkdir", "rmdir", "touch", "ln", "tar", "gzip",
			"gunzip", "zip", "unzip", "sed", "awk", "curl", "wget", "git",
			"make", "go", "python", "python3", "node", "npm", "pip", "pip3",
		),
		HighRiskCommands: setOf(
			"rm", "dd", "chmod", "chown", "kill", "pkill", "killall",
			"sudo", "su", "doas", "mount", "umount", "systemctl", "service",
			"iptables", "docker",
		),
		ForbiddenCommands: setOf(
			"mkfs", "fdisk", "parted", "shred", "shutdown", "reboot",
			"halt", "poweroff", "init",
		),
		DangerousPatterns: defaultDangerousPatterns(),
		AllowedPaths:      []string{"~", "/tmp"},
	}
}

func defaultDangerousPatterns() []DangerousPattern {
	return []DangerousPattern{
		mustPattern(`rm\s+(-[a-zA-Z]*[rR][a-zA-Z]*f[a-zA-Z]*|-[a-zA-Z]*f[a-zA-Z]*[rR][a-zA-Z]*)\s+(/|/\*)\s*$`,
			"Destructive deletion of filesystem root"),
		mustPattern(`rm\s+(-[a-zA-Z]*[rR][a-zA-Z]*f[a-zA-Z]*|-[a-zA-Z]*f[a-zA-Z]*[rR][a-zA-Z]*)\s+(~|\$HOME)(/\*)?\s*$`,
			"Destructive deletion of home directory"),
		mustPattern(`/etc/(passwd|shadow|sudoers)`,
			"Access to system credential files"),
		mustPattern(`:\(\)\s*\{\s*:\|:&\s*\}\s*;\s*:`,
			"Fork bomb pattern"),
		mustPattern("\\$\\([^)]*\\)|`[^`]*`",
			"Command substitution syntax"),
		mustPattern(`>\s*/dev/(sd[a-z]|nvme\d+n\d+|hd[a-z]|vd[a-z])`,
			"Output redirection to block device"),
		mustPattern(`>\s*/(etc|usr|bin|sbin|boot|lib|lib64)/`,
			"Output redirection into system directory"),
	}
}

// mustPattern is for built-in rules only; the expressions are constants and
// a compile failure is a programming error.
func mustPattern(pattern, reason string) DangerousPattern {
	dp, err := NewDangerousPattern(pattern, reason)
	if err != nil {
		panic(err)
	}
	return dp
}

// Validate checks that every pattern rule carries a compiled expression and
// a non-empty reason.
func (p *Policy) Validate() error {
	for i, dp := range p.DangerousPatterns {
		if dp.re == nil {
			re, err := regexp.Compile(dp.Pattern)
			if err != nil {
				return fmt.Errorf("%w: pattern %q: %v", ErrPolicyInvalid, dp.Pattern, err)
			}
			p.DangerousPatterns[i].re = re
		}
		if dp.Reason == "" {
			return fmt.Errorf("%w: pattern %q has no reason", ErrPolicyInvalid, dp.Pattern)
		}
	}
	return nil
}

func clonePolicy(p *Policy) *Policy {
	if p == nil {
		return nil
	}
	cp := &Policy{
		SafeCommands:      copySet(p.SafeCommands),
		ModerateCommands:  copySet(p.ModerateCommands),
		HighRiskCommands:  copySet(p.HighRiskCommands),
		ForbiddenCommands: copySet(p.ForbiddenCommands),
		DangerousPatterns: append([]DangerousPattern(nil), p.DangerousPatterns...),
		AllowedPaths:      append([]string(nil), p.AllowedPaths...),
	}
	return cp
}

func setOf(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

func copySet(src map[string]bool) map[string]bool {
	if src == nil {
		return nil
	}
	dst := make(map[string]bool, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
