// Package pathmatch normalises workspace paths and matches them against
// glob patterns.
//
// All public boundaries of the middleware store and compare paths in
// workspace-relative, forward-slash form; this package is the single place
// that form is produced.
package pathmatch

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Normalize converts an absolute or relative path to workspace-relative,
// forward-slash form. Paths already relative are cleaned and slash-converted
// as-is; absolute paths outside the workspace are returned cleaned rather
// than rewritten.
func Normalize(workspaceRoot, path string) string {
	if path == "" {
		return ""
	}

	p := filepath.Clean(path)
	if filepath.IsAbs(p) && workspaceRoot != "" {
		if rel, err := filepath.Rel(filepath.Clean(workspaceRoot), p); err == nil && !strings.HasPrefix(rel, "..") {
			p = rel
		}
	}

	p = filepath.ToSlash(p)
	p = strings.TrimPrefix(p, "./")
	return p
}

// MatchesAny reports whether the normalised path matches at least one of the
// glob patterns. Patterns use conventional glob syntax including ** for
// multi-segment matches. Malformed patterns never match.
func MatchesAny(path string, patterns []string, workspaceRoot string) bool {
	rel := Normalize(workspaceRoot, path)
	for _, pattern := range patterns {
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			continue
		}
		if ok {
			return true
		}
	}
	return false
}
