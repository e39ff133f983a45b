// Package search matches paths against glob patterns and finds files in a
// file system.
//
// Patterns use the doublestar syntax: "*" and "?" within a segment, "**"
// across segments, "{a,b}" alternatives and "[...]" classes. Dot-prefixed
// names are matched like any other name.
package search

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dshills/extsim/internal/uri"
)

// ErrBadPattern is returned for malformed glob patterns.
var ErrBadPattern = doublestar.ErrBadPattern

// Matcher is a validated glob pattern.
type Matcher struct {
	pattern string
}

// Compile validates pattern.
func Compile(pattern string) (*Matcher, error) {
	p := strings.TrimPrefix(pattern, "/")
	if p == "" || !doublestar.ValidatePattern(p) {
		return nil, fmt.Errorf("%w: %q", ErrBadPattern, pattern)
	}
	return &Matcher{pattern: p}, nil
}

// MustCompile is like Compile but panics on a malformed pattern.
func MustCompile(pattern string) *Matcher {
	m, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return m
}

// String returns the pattern.
func (m *Matcher) String() string { return m.pattern }

// Match reports whether the slash-separated path candidate matches. A
// leading slash on candidate is ignored.
func (m *Matcher) Match(candidate string) bool {
	ok, err := doublestar.Match(m.pattern, strings.TrimPrefix(candidate, "/"))
	return err == nil && ok
}

// Match reports whether candidate matches pattern.
func Match(candidate, pattern string) (bool, error) {
	m, err := Compile(pattern)
	if err != nil {
		return false, err
	}
	return m.Match(candidate), nil
}

// GlobPattern is either a plain pattern, matched against paths relative to
// the folder being searched, or a pattern relative to Base.
type GlobPattern struct {
	Base    uri.URI
	Pattern string
}

// Glob returns a plain pattern.
func Glob(pattern string) GlobPattern {
	return GlobPattern{Pattern: pattern}
}

// RelativePattern returns a pattern matched against paths relative to base.
func RelativePattern(base uri.URI, pattern string) GlobPattern {
	return GlobPattern{Base: base, Pattern: pattern}
}

// IsZero reports whether g has no pattern.
func (g GlobPattern) IsZero() bool { return g.Pattern == "" }

// IsRelative reports whether g carries a base URI.
func (g GlobPattern) IsRelative() bool { return !g.Base.IsZero() }

// String returns the pattern, prefixed by its base when relative.
func (g GlobPattern) String() string {
	if g.IsRelative() {
		return g.Base.String() + "/" + g.Pattern
	}
	return g.Pattern
}

// Compiled is a GlobPattern ready for matching URIs.
type Compiled struct {
	base    uri.URI
	matcher *Matcher
}

// Compile validates the pattern of g.
func (g GlobPattern) Compile() (*Compiled, error) {
	m, err := Compile(g.Pattern)
	if err != nil {
		return nil, err
	}
	return &Compiled{base: g.Base, matcher: m}, nil
}

// MatchURI reports whether u matches. For a relative pattern the path of u
// relative to the base is tested and URIs outside the base never match.
// Otherwise the path of u relative to root is tested, or the full path when
// root is zero.
func (c *Compiled) MatchURI(u, root uri.URI) bool {
	if !c.base.IsZero() {
		root = c.base
	}
	if root.IsZero() {
		return c.matcher.Match(u.Path())
	}
	rel, ok := root.Rel(u)
	if !ok || rel == "" {
		return false
	}
	return c.matcher.Match(rel)
}

// MatchRel tests a path that is already relative to the search root.
func (c *Compiled) MatchRel(rel string) bool {
	return c.matcher.Match(rel)
}

// IsRelative reports whether the pattern carries a base URI.
func (c *Compiled) IsRelative() bool { return !c.base.IsZero() }

// Set matches a path against any of several patterns.
type Set []*Compiled

// CompileAll compiles plain patterns into a Set. Every malformed pattern is
// reported.
func CompileAll(patterns []string) (Set, error) {
	var set Set
	var errs []error
	for _, p := range patterns {
		c, err := Glob(p).Compile()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		set = append(set, c)
	}
	return set, errors.Join(errs...)
}

// MatchURI reports whether any pattern of s matches u. See
// Compiled.MatchURI.
func (s Set) MatchURI(u, root uri.URI) bool {
	for _, c := range s {
		if c.MatchURI(u, root) {
			return true
		}
	}
	return false
}
