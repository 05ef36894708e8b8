package fs

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// IgnoreFileName is read from the root of every imported directory.
const IgnoreFileName = ".fvignore"

// alwaysIgnored names are skipped by every import.
var alwaysIgnored = []string{IgnoreFileName, ".DS_Store", "Thumbs.db"}

// IgnoreMatcher decides which host paths an import skips. A pattern that
// contains '/' is matched against the whole slash-separated path relative to
// the import root. Any other pattern is matched against each element of that
// path, so naming a directory also covers everything below it.
type IgnoreMatcher struct {
	names []string
	paths []string
}

// NewIgnoreMatcher builds a matcher from raw pattern lines. Blank lines,
// '#' comments and malformed globs are dropped; a trailing '/' is ignored.
func NewIgnoreMatcher(patterns []string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	m.add(patterns)
	return m
}

func (m *IgnoreMatcher) add(patterns []string) {
	for _, p := range patterns {
		p = strings.TrimSuffix(strings.TrimSpace(p), "/")
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		if _, err := path.Match(p, ""); err != nil {
			continue
		}
		if strings.Contains(p, "/") {
			m.paths = append(m.paths, p)
		} else {
			m.names = append(m.names, p)
		}
	}
}

// Match reports whether rel, a path relative to the import root, is ignored.
func (m *IgnoreMatcher) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, p := range m.paths {
		if ok, _ := path.Match(p, rel); ok {
			return true
		}
	}
	if len(m.names) == 0 {
		return false
	}
	for _, elem := range strings.Split(rel, "/") {
		for _, p := range m.names {
			if ok, _ := path.Match(p, elem); ok {
				return true
			}
		}
	}
	return false
}

// LoadIgnoreMatcher builds the matcher for an import of root: the built-in
// names, then extra, then the lines of root's ignore file if it has one.
func LoadIgnoreMatcher(root string, extra []string) (*IgnoreMatcher, error) {
	m := NewIgnoreMatcher(alwaysIgnored)
	m.add(extra)

	data, err := os.ReadFile(filepath.Join(root, IgnoreFileName))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading %s: %w", IgnoreFileName, err)
	default:
		m.add(strings.Split(string(data), "\n"))
	}
	return m, nil
}
