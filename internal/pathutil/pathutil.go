// Package pathutil provides command tokenization and path classification
// helpers for the gatekeeper. It extracts the base executable from a shell
// command, expands home-relative paths, and decides whether a path operand
// points into a conventional system directory.
package pathutil

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

// systemRoots lists conventional system directories. A path operand that
// resolves under one of these (and outside the policy's allowed roots) marks
// a command as operating on system paths.
var systemRoots = []string{
	"/etc",
	"/usr",
	"/bin",
	"/sbin",
	"/boot",
	"/lib",
	"/lib64",
	"/opt",
	"/var",
	"/sys",
	"/proc",
	"/dev",
	"/root",
}

// SplitCommand tokenizes a shell command string respecting a single layer of
// quoting. Whitespace separates tokens unless it appears inside single or
// double quotes; quote characters themselves are stripped. An unterminated
// quote does not fail: the remainder of the string becomes the final token
// (best-effort fallback rather than an error).
func SplitCommand(command string) []string {
	var tokens []string
	var b strings.Builder
	var quote byte
	flush := func() {
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	for i := 0; i < len(command); i++ {
		ch := command[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			} else {
				b.WriteByte(ch)
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			flush()
		default:
			b.WriteByte(ch)
		}
	}
	flush()
	return tokens
}

// BaseCommand extracts the executable name from a possibly path-qualified
// token. Trailing slashes are stripped before taking the final element.
func BaseCommand(token string) string {
	token = strings.TrimRight(token, "/")
	if token == "" {
		return ""
	}
	if idx := strings.LastIndex(token, "/"); idx >= 0 {
		return token[idx+1:]
	}
	return token
}

// LooksLikePath reports whether a command token plausibly names a filesystem
// path. Flags are excluded; anything containing a separator or a home prefix
// qualifies.
func LooksLikePath(token string) bool {
	if token == "" || strings.HasPrefix(token, "-") {
		return false
	}
	return strings.Contains(token, "/") || strings.HasPrefix(token, "~")
}

// ExpandHome replaces a leading ~ or $HOME reference with the user's home
// directory. Paths without a home prefix are returned unchanged.
func ExpandHome(p string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	switch {
	case p == "~" || p == "$HOME" || p == "${HOME}":
		return home
	case strings.HasPrefix(p, "~/"):
		return filepath.Join(home, p[2:])
	case strings.HasPrefix(p, "$HOME/"):
		return filepath.Join(home, p[len("$HOME/"):])
	case strings.HasPrefix(p, "${HOME}/"):
		return filepath.Join(home, p[len("${HOME}/"):])
	}
	return p
}

// IsSystemPath reports whether a cleaned absolute path falls under one of the
// conventional system directories.
func IsSystemPath(p string) bool {
	cleaned := path.Clean(p)
	if cleaned == "/" {
		return true
	}
	for _, root := range systemRoots {
		if cleaned == root || strings.HasPrefix(cleaned, root+"/") {
			return true
		}
	}
	return false
}

// UnderAny reports whether a path is equal to or contained in any of the
// given roots. Both sides are home-expanded and cleaned before comparison.
func UnderAny(p string, roots []string) bool {
	cleaned := path.Clean(ExpandHome(p))
	for _, root := range roots {
		r := path.Clean(ExpandHome(root))
		if r == "" || r == "." {
			continue
		}
		if cleaned == r || strings.HasPrefix(cleaned, r+"/") {
			return true
		}
	}
	return false
}

// ContainsNullByte reports whether a path contains a null byte. Such paths
// are rejected during policy validation.
func ContainsNullByte(p string) bool {
	return strings.ContainsRune(p, 0)
}
