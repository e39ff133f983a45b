package project

import (
	"errors"
	"fmt"

	"github.com/dshills/extsim/internal/engine/buffer"
	"github.com/dshills/extsim/internal/project/filestore"
	"github.com/dshills/extsim/internal/project/vfs"
	"github.com/dshills/extsim/internal/uri"
)

// CreateFileOptions control a file creation in a WorkspaceEdit.
type CreateFileOptions struct {
	// Overwrite replaces an existing file. It wins over IgnoreIfExists.
	Overwrite bool
	// IgnoreIfExists turns an existing target into a successful no-op.
	IgnoreIfExists bool
	// Contents is the initial content of the file.
	Contents []byte
}

// DeleteFileOptions control a file deletion in a WorkspaceEdit.
type DeleteFileOptions struct {
	Recursive         bool
	UseTrash          bool
	IgnoreIfNotExists bool
}

// RenameFileOptions control a rename in a WorkspaceEdit.
type RenameFileOptions struct {
	// Overwrite replaces an existing target. It wins over IgnoreIfExists.
	Overwrite      bool
	IgnoreIfExists bool
}

type entryKind int

const (
	entryText entryKind = iota
	entryCreate
	entryDelete
	entryRename
)

func (k entryKind) String() string {
	switch k {
	case entryCreate:
		return "create"
	case entryDelete:
		return "delete"
	case entryRename:
		return "rename"
	default:
		return "edit"
	}
}

type editEntry struct {
	kind   entryKind
	uri    uri.URI
	newURI uri.URI
	edits  []buffer.TextEdit

	create CreateFileOptions
	delete DeleteFileOptions
	rename RenameFileOptions
}

// WorkspaceEdit is an ordered batch of text edits and file operations over
// any number of resources. The zero value is an empty edit.
type WorkspaceEdit struct {
	entries []editEntry
}

// NewWorkspaceEdit returns an empty WorkspaceEdit.
func NewWorkspaceEdit() *WorkspaceEdit {
	return &WorkspaceEdit{}
}

// Replace replaces r in the resource u with text.
func (e *WorkspaceEdit) Replace(u uri.URI, r buffer.Range, text string) {
	e.Set(u, []buffer.TextEdit{buffer.Replace(r, text)})
}

// Insert inserts text at p in the resource u.
func (e *WorkspaceEdit) Insert(u uri.URI, p buffer.Position, text string) {
	e.Set(u, []buffer.TextEdit{buffer.Insert(p, text)})
}

// Delete removes r from the resource u.
func (e *WorkspaceEdit) Delete(u uri.URI, r buffer.Range) {
	e.Set(u, []buffer.TextEdit{buffer.Delete(r)})
}

// Set adds edits for the resource u.
func (e *WorkspaceEdit) Set(u uri.URI, edits []buffer.TextEdit) {
	if len(edits) == 0 {
		return
	}
	e.entries = append(e.entries, editEntry{
		kind:  entryText,
		uri:   u,
		edits: append([]buffer.TextEdit(nil), edits...),
	})
}

// CreateFile adds the creation of u.
func (e *WorkspaceEdit) CreateFile(u uri.URI, opts CreateFileOptions) {
	e.entries = append(e.entries, editEntry{kind: entryCreate, uri: u, create: opts})
}

// DeleteFile adds the deletion of u.
func (e *WorkspaceEdit) DeleteFile(u uri.URI, opts DeleteFileOptions) {
	e.entries = append(e.entries, editEntry{kind: entryDelete, uri: u, delete: opts})
}

// RenameFile adds the rename of oldURI to newURI.
func (e *WorkspaceEdit) RenameFile(oldURI, newURI uri.URI, opts RenameFileOptions) {
	e.entries = append(e.entries, editEntry{kind: entryRename, uri: oldURI, newURI: newURI, rename: opts})
}

// Has reports whether the edit holds text edits for u.
func (e *WorkspaceEdit) Has(u uri.URI) bool {
	return len(e.Get(u)) > 0
}

// Get returns the text edits for u in insertion order.
func (e *WorkspaceEdit) Get(u uri.URI) []buffer.TextEdit {
	var out []buffer.TextEdit
	for _, en := range e.entries {
		if en.kind == entryText && en.uri.Equal(u) {
			out = append(out, en.edits...)
		}
	}
	return out
}

// Size returns the number of distinct resources the edit touches.
func (e *WorkspaceEdit) Size() int {
	seen := make(map[string]bool)
	for _, en := range e.entries {
		seen[en.uri.Key()] = true
		if en.kind == entryRename {
			seen[en.newURI.Key()] = true
		}
	}
	return len(seen)
}

// URIs returns the resources with text edits, in order of first appearance.
func (e *WorkspaceEdit) URIs() []uri.URI {
	var out []uri.URI
	seen := make(map[string]bool)
	for _, en := range e.entries {
		if en.kind != entryText || seen[en.uri.Key()] {
			continue
		}
		seen[en.uri.Key()] = true
		out = append(out, en.uri)
	}
	return out
}

// ApplyEdit applies a WorkspaceEdit. Text edits are grouped per resource and
// each group is applied atomically: an open document is edited in place, a
// resource without a document is read from the file system, edited, and
// written back. File operations run in order, after the text edits queued
// before them. ApplyEdit reports false when any part failed; parts that
// succeeded are not rolled back.
func (h *Host) ApplyEdit(we *WorkspaceEdit) bool {
	if we == nil {
		return true
	}
	err := h.applyEdit(we)
	if err != nil {
		log.Warningf("apply edit: %v", err)
	}
	return err == nil
}

func (h *Host) applyEdit(we *WorkspaceEdit) error {
	var errs []error

	var order []uri.URI
	pending := make(map[string][]buffer.TextEdit)
	flush := func() {
		for _, u := range order {
			if err := h.applyTextEdits(u, pending[u.Key()]); err != nil {
				errs = append(errs, err)
			}
		}
		order = order[:0]
		clear(pending)
	}

	for _, en := range we.entries {
		if en.kind == entryText {
			k := en.uri.Key()
			if _, ok := pending[k]; !ok {
				order = append(order, en.uri)
			}
			pending[k] = append(pending[k], en.edits...)
			continue
		}

		flush()
		if err := h.applyFileOperation(en); err != nil {
			errs = append(errs, err)
		}
	}
	flush()
	return errors.Join(errs...)
}

func (h *Host) applyTextEdits(u uri.URI, edits []buffer.TextEdit) error {
	if doc, ok := h.store.Get(u); ok {
		if doc.IsClosed() {
			return &EditError{Op: "edit", URI: u, Err: filestore.ErrDocumentClosed}
		}
		return doc.ApplyEdits(edits)
	}

	data, err := h.fs.ReadFile(u)
	if err != nil && vfs.CodeOf(err) != vfs.CodeFileNotFound {
		return &EditError{Op: "edit", URI: u, Err: err}
	}
	content, enc, err := vfs.DecodeText(data)
	if err != nil {
		return &EditError{Op: "edit", URI: u, Err: err}
	}

	text := buffer.ApplyEdits(buffer.NewText(content, buffer.ParseEOL(h.cfg.DefaultEOL)), edits)
	out, err := vfs.EncodeText(text.Content(), enc)
	if err != nil {
		return &EditError{Op: "edit", URI: u, Err: err}
	}
	if err := h.fs.WriteFile(u, out, vfs.WriteOptions{}); err != nil {
		return &EditError{Op: "edit", URI: u, Err: err}
	}
	return nil
}

func (h *Host) applyFileOperation(en editEntry) error {
	var err error
	switch en.kind {
	case entryCreate:
		opts := en.create
		if !opts.Overwrite && opts.IgnoreIfExists && vfs.Exists(h.fs, en.uri) {
			return nil
		}
		err = h.fs.WriteFile(en.uri, opts.Contents, vfs.WriteOptions{
			Create:    vfs.Bool(true),
			Overwrite: vfs.Bool(opts.Overwrite),
		})

	case entryDelete:
		opts := en.delete
		if !vfs.Exists(h.fs, en.uri) {
			if opts.IgnoreIfNotExists {
				return nil
			}
			return &EditError{Op: en.kind.String(), URI: en.uri, Err: vfs.FileNotFound(en.uri)}
		}
		err = h.fs.Delete(en.uri, vfs.DeleteOptions{Recursive: opts.Recursive, UseTrash: opts.UseTrash})

	case entryRename:
		opts := en.rename
		if !opts.Overwrite && opts.IgnoreIfExists && vfs.Exists(h.fs, en.newURI) {
			return nil
		}
		err = h.fs.Rename(en.uri, en.newURI, vfs.RenameOptions{Overwrite: opts.Overwrite})

	default:
		return fmt.Errorf("unknown edit entry %v", en.kind)
	}
	if err != nil {
		return &EditError{Op: en.kind.String(), URI: en.uri, Err: err}
	}
	return nil
}
