// Package pattern is the single glob implementation used for feature
// grouping and report file filtering.
//
// Semantics, always applied to forward-slash paths:
//   - '*' matches any run of characters, including '/'.
//   - '**' matches any run of characters, including '/'.
//   - '?' matches exactly one character.
//   - '[abc]', '[a-z]' and '{foo,bar}' behave as in gobwas/glob.
package pattern

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Glob is a compiled path pattern.
type Glob struct {
	raw string
	g   glob.Glob
}

// Compile compiles pattern with unrestricted '*'.
func Compile(pattern string) (*Glob, error) {
	p := filepath.ToSlash(pattern)
	g, err := glob.Compile(p)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}
	return &Glob{raw: pattern, g: g}, nil
}

// Match reports whether the normalized form of p matches.
func (g *Glob) Match(p string) bool {
	return g.g.Match(Normalize(p))
}

// String returns the pattern as written.
func (g *Glob) String() string {
	return g.raw
}

// Set is an ordered list of globs.
type Set []*Glob

// CompileAll compiles every pattern with Compile.
func CompileAll(patterns []string) (Set, error) {
	set := make(Set, 0, len(patterns))
	for _, p := range patterns {
		g, err := Compile(p)
		if err != nil {
			return nil, err
		}
		set = append(set, g)
	}
	return set, nil
}

// Match reports whether any glob in the set matches p.
func (s Set) Match(p string) bool {
	_, ok := s.First(p)
	return ok
}

// First returns the index of the first glob matching p.
func (s Set) First(p string) (int, bool) {
	n := Normalize(p)
	for i, g := range s {
		if g.g.Match(n) {
			return i, true
		}
	}
	return -1, false
}

// Normalize converts p to forward slashes and cleans it. Backslashes are
// converted regardless of the host OS; reports are often produced elsewhere.
func Normalize(p string) string {
	if p == "" {
		return ""
	}
	return path.Clean(strings.ReplaceAll(p, `\`, "/"))
}
