package vfs

import (
	"context"
	"fmt"
	"path"
	"strings"

	"golang.org/x/tools/txtar"

	"github.com/dshills/extsim/internal/uri"
)

// LoadArchive writes every file of a txtar archive beneath base. A name
// ending in "/" creates an empty directory. Files are written through the
// normal WriteFile path, so create events fire for each.
func LoadArchive(fsys FileSystem, base uri.URI, ar *txtar.Archive) error {
	for _, f := range ar.Files {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			continue
		}
		target := base.JoinPath(path.Clean("/" + name))
		if strings.HasSuffix(name, "/") {
			if err := fsys.CreateDirectory(target); err != nil {
				return fmt.Errorf("load %s: %w", name, err)
			}
			continue
		}
		if err := fsys.WriteFile(target, f.Data, WriteOptions{}); err != nil {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// LoadArchiveFile parses a txtar file from disk and loads it beneath base.
func LoadArchiveFile(fsys FileSystem, base uri.URI, file string) error {
	ar, err := txtar.ParseFile(file)
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}
	return LoadArchive(fsys, base, ar)
}

// Snapshot captures the tree beneath base as a txtar archive. Empty
// directories are recorded with a trailing slash so that LoadArchive
// restores them.
func Snapshot(ctx context.Context, fsys FileSystem, base uri.URI) (*txtar.Archive, error) {
	ar := &txtar.Archive{}
	err := Walk(ctx, fsys, base, func(u uri.URI, rel string, typ FileType) error {
		if rel == "" {
			return nil
		}
		if typ.IsDirectory() {
			entries, err := fsys.ReadDirectory(u)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				ar.Files = append(ar.Files, txtar.File{Name: rel + "/"})
			}
			return nil
		}
		data, err := fsys.ReadFile(u)
		if err != nil {
			return err
		}
		ar.Files = append(ar.Files, txtar.File{Name: rel, Data: data})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ar, nil
}
