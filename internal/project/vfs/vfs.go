// Package vfs provides the in-memory file system observed by extensions.
//
// Resources are addressed by uri.URI. Each scheme and authority pair owns an
// independent directory tree whose root always exists. Every mutating call
// announces itself on the event bus with a will-event before and a
// did-event after the change; will-listeners observe but cannot veto.
package vfs

import (
	"io/fs"
	"strings"
	"time"

	"github.com/dshills/extsim/internal/uri"
)

// FileSystem is the file system contract.
type FileSystem interface {
	// Stat returns metadata for u.
	Stat(u uri.URI) (FileStat, error)

	// ReadDirectory lists the children of the directory u in name order.
	ReadDirectory(u uri.URI) ([]DirEntry, error)

	// ReadFile returns a copy of the content of the file u.
	ReadFile(u uri.URI) ([]byte, error)

	// WriteFile writes data to u, creating missing parent directories.
	WriteFile(u uri.URI, data []byte, opts WriteOptions) error

	// Delete removes u. Deleting a missing resource succeeds.
	Delete(u uri.URI, opts DeleteOptions) error

	// Rename moves oldURI, and its subtree, to newURI.
	Rename(oldURI, newURI uri.URI, opts RenameOptions) error

	// Copy duplicates src, and its subtree, at dst.
	Copy(src, dst uri.URI, opts CopyOptions) error

	// CreateDirectory creates u and any missing ancestors.
	CreateDirectory(u uri.URI) error
}

// FileType describes the kind of a resource. It is a bit set so that a
// symbolic link can also be a file or directory.
type FileType int

// File types.
const (
	FileTypeUnknown      FileType = 0
	FileTypeFile         FileType = 1
	FileTypeDirectory    FileType = 2
	FileTypeSymbolicLink FileType = 64
)

// String returns a readable name for the type.
func (t FileType) String() string {
	var parts []string
	if t&FileTypeSymbolicLink != 0 {
		parts = append(parts, "SymbolicLink")
	}
	if t&FileTypeFile != 0 {
		parts = append(parts, "File")
	}
	if t&FileTypeDirectory != 0 {
		parts = append(parts, "Directory")
	}
	if len(parts) == 0 {
		return "Unknown"
	}
	return strings.Join(parts, "|")
}

// IsFile reports whether the File bit is set.
func (t FileType) IsFile() bool { return t&FileTypeFile != 0 }

// IsDirectory reports whether the Directory bit is set.
func (t FileType) IsDirectory() bool { return t&FileTypeDirectory != 0 }

// FileStat is the result of Stat.
type FileStat struct {
	Type  FileType
	Size  int64
	CTime time.Time
	MTime time.Time
}

// DirEntry is one (name, type) pair of a directory listing.
type DirEntry struct {
	Name string
	Type FileType
}

// WriteOptions control WriteFile. A nil field means true.
type WriteOptions struct {
	Create    *bool
	Overwrite *bool
}

// DeleteOptions control Delete.
type DeleteOptions struct {
	Recursive bool
	UseTrash  bool
}

// RenameOptions control Rename.
type RenameOptions struct {
	Overwrite bool
}

// CopyOptions control Copy.
type CopyOptions struct {
	Overwrite bool
}

// Bool returns a pointer to b, for WriteOptions literals.
func Bool(b bool) *bool { return &b }

func orTrue(b *bool) bool {
	return b == nil || *b
}

// SkipDir, returned from a WalkFunc, skips the directory being visited.
var SkipDir = fs.SkipDir

// SkipAll, returned from a WalkFunc, stops the walk without error.
var SkipAll = fs.SkipAll

// Exists reports whether u resolves to a resource in fsys.
func Exists(fsys FileSystem, u uri.URI) bool {
	_, err := fsys.Stat(u)
	return err == nil
}

// IsDirectory reports whether u resolves to a directory in fsys.
func IsDirectory(fsys FileSystem, u uri.URI) bool {
	st, err := fsys.Stat(u)
	return err == nil && st.Type.IsDirectory()
}
