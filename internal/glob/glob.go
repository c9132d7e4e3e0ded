// Package glob compiles include/exclude pattern lists.
//
// Patterns follow doublestar syntax (`**` spans directories). A pattern with
// no slash is treated as a file-name pattern and matches at any depth, so
// "*.bin" behaves like "**/*.bin".
package glob

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/steveyegge/sizelint/internal/diag"
)

// Set is an immutable, compiled list of patterns. The zero value matches
// nothing and is safe for concurrent use.
type Set struct {
	raw      []string
	patterns []string
}

// Compile validates every pattern and returns the set.
func Compile(patterns []string) (*Set, error) {
	s := &Set{
		raw:      append([]string(nil), patterns...),
		patterns: make([]string, 0, len(patterns)),
	}
	for _, p := range patterns {
		expanded := Expand(p)
		if !doublestar.ValidatePattern(expanded) {
			return nil, diag.New(diag.CodeInvalidPattern, "Invalid pattern '%s'", p)
		}
		s.patterns = append(s.patterns, expanded)
	}
	return s, nil
}

// Expand rewrites a bare file-name pattern to match at any depth.
func Expand(pattern string) string {
	if strings.Contains(pattern, "/") {
		return pattern
	}
	return "**/" + pattern
}

// Match reports whether path matches any pattern. The path may use the
// platform separator; a leading slash is ignored.
func (s *Set) Match(path string) bool {
	if s == nil || len(s.patterns) == 0 {
		return false
	}
	p := strings.TrimPrefix(filepath.ToSlash(path), "/")
	for _, pattern := range s.patterns {
		if doublestar.MatchUnvalidated(pattern, p) {
			return true
		}
	}
	return false
}

// Len returns the number of patterns.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.patterns)
}

// Patterns returns the patterns as written by the user.
func (s *Set) Patterns() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.raw...)
}
