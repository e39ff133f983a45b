package vfs

import (
	"context"
	"errors"

	"github.com/dshills/extsim/internal/uri"
)

// WalkFunc is called for every resource visited by Walk. rel is the path of
// u relative to the walk root, "" for the root itself. Returning SkipDir
// from a directory skips its children; returning SkipAll ends the walk.
type WalkFunc func(u uri.URI, rel string, typ FileType) error

// Walk visits root and everything beneath it breadth first, listing each
// directory in name order. It stops early when ctx is cancelled.
func Walk(ctx context.Context, fsys FileSystem, root uri.URI, fn WalkFunc) error {
	st, err := fsys.Stat(root)
	if err != nil {
		return err
	}
	if err := fn(root, "", st.Type); err != nil {
		if errors.Is(err, SkipDir) || errors.Is(err, SkipAll) {
			return nil
		}
		return err
	}
	if !st.Type.IsDirectory() {
		return nil
	}

	queue := []uri.URI{root}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		dir := queue[0]
		queue = queue[1:]

		entries, err := fsys.ReadDirectory(dir)
		if err != nil {
			// The directory may have been removed by a listener.
			if errors.Is(err, ErrFileNotFound) {
				continue
			}
			return err
		}

		for _, e := range entries {
			child := dir.JoinPath(e.Name)
			rel, _ := root.Rel(child)
			err := fn(child, rel, e.Type)
			switch {
			case errors.Is(err, SkipAll):
				return nil
			case errors.Is(err, SkipDir):
				continue
			case err != nil:
				return err
			}
			if e.Type.IsDirectory() {
				queue = append(queue, child)
			}
		}
	}
	return nil
}
