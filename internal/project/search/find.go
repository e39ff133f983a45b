package search

import (
	"context"
	"errors"
	"sort"

	"github.com/dshills/extsim/internal/logging"
	"github.com/dshills/extsim/internal/project/vfs"
	"github.com/dshills/extsim/internal/uri"
)

var log = logging.Get("search")

// Finder finds files matching glob patterns.
type Finder struct {
	fs         vfs.FileSystem
	excludes   Set
	maxResults int
}

// FinderOption configures a Finder.
type FinderOption func(*Finder)

// WithDefaultExcludes sets the patterns applied when a search has no
// exclude pattern of its own. Malformed patterns are logged and ignored.
func WithDefaultExcludes(patterns []string) FinderOption {
	return func(f *Finder) {
		set, err := CompileAll(patterns)
		if err != nil {
			log.Warningf("default excludes: %v", err)
		}
		f.excludes = set
	}
}

// WithMaxResults sets the cap used when a search passes none.
func WithMaxResults(n int) FinderOption {
	return func(f *Finder) {
		f.maxResults = n
	}
}

// NewFinder creates a Finder over fsys.
func NewFinder(fsys vfs.FileSystem, opts ...FinderOption) *Finder {
	f := &Finder{fs: fsys}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Find returns the files beneath roots matching include and not matching
// exclude, sorted by URI and capped at maxResults when it is positive. A
// relative include searches its base instead of roots. Directories matching
// exclude are not descended into. A zero exclude applies the default
// excludes.
func (f *Finder) Find(ctx context.Context, roots []uri.URI, include, exclude GlobPattern, maxResults int) ([]uri.URI, error) {
	inc, err := include.Compile()
	if err != nil {
		return nil, err
	}
	var excl Set
	if exclude.IsZero() {
		excl = f.excludes
	} else {
		c, err := exclude.Compile()
		if err != nil {
			return nil, err
		}
		excl = Set{c}
	}
	if maxResults <= 0 {
		maxResults = f.maxResults
	}

	if include.IsRelative() {
		roots = []uri.URI{include.Base}
	}

	found := make(map[string]uri.URI)
	for _, root := range roots {
		err := vfs.Walk(ctx, f.fs, root, func(u uri.URI, rel string, typ vfs.FileType) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if rel == "" {
				return nil
			}
			if excl.MatchURI(u, root) {
				if typ.IsDirectory() {
					return vfs.SkipDir
				}
				return nil
			}
			if typ.IsFile() && inc.MatchURI(u, root) {
				found[u.Key()] = u
			}
			return nil
		})
		switch {
		case err == nil:
		case errors.Is(err, vfs.ErrFileNotFound):
			log.Debugf("find: root %s does not exist", root)
		default:
			return nil, err
		}
	}

	keys := make([]string, 0, len(found))
	for k := range found {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if maxResults > 0 && len(keys) > maxResults {
		keys = keys[:maxResults]
	}

	out := make([]uri.URI, len(keys))
	for i, k := range keys {
		out[i] = found[k]
	}
	return out, nil
}

// FindFiles is Find without default excludes or result cap.
func FindFiles(ctx context.Context, fsys vfs.FileSystem, roots []uri.URI, include, exclude GlobPattern, maxResults int) ([]uri.URI, error) {
	return NewFinder(fsys).Find(ctx, roots, include, exclude, maxResults)
}
