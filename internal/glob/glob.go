// Package glob matches source file paths against include/exclude patterns.
//
// Patterns use filepath.Match syntax plus `**`, which matches any number of
// directories. A pattern without a slash matches against the base name only.
package glob

import (
	"path/filepath"
	"strings"
)

// Set is a list of include patterns and a list of exclude patterns.
type Set struct {
	Include []string
	Exclude []string
}

// Matches reports whether relPath (slash or OS separated, relative to the
// project root) is selected. Excludes win over includes. An empty Include
// list selects every path that is not excluded.
func (s Set) Matches(relPath string) bool {
	relPath = strings.TrimPrefix(filepath.ToSlash(relPath), "./")

	for _, pattern := range s.Exclude {
		if Match(pattern, relPath) {
			return false
		}
	}
	if len(s.Include) == 0 {
		return true
	}
	for _, pattern := range s.Include {
		if Match(pattern, relPath) {
			return true
		}
	}
	return false
}

// Match matches a single pattern against relPath.
func Match(pattern, relPath string) bool {
	pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "./")
	relPath = filepath.ToSlash(relPath)

	if matched, _ := filepath.Match(pattern, relPath); matched {
		return true
	}

	if !strings.Contains(pattern, "**") {
		if !strings.Contains(pattern, "/") {
			matched, _ := filepath.Match(pattern, filepath.Base(relPath))
			return matched
		}
		return false
	}

	prefix, suffix, _ := strings.Cut(pattern, "**")
	prefix = strings.TrimSuffix(prefix, "/")
	suffix = strings.TrimPrefix(suffix, "/")

	remaining := relPath
	if prefix != "" {
		rest, ok := strings.CutPrefix(relPath, prefix+"/")
		if !ok {
			return false
		}
		remaining = rest
	}
	if suffix == "" {
		return true
	}

	// `**` may swallow zero or more leading directories of remaining.
	for {
		if Match(suffix, remaining) {
			return true
		}
		_, after, ok := strings.Cut(remaining, "/")
		if !ok {
			return false
		}
		remaining = after
	}
}
