// Package lsp converts between the simulator's types and the Language
// Server Protocol 3.16 wire types of github.com/tliron/glsp.
//
// Positions map one to one: both count lines from zero and characters in
// UTF-16 code units. The Sync type mirrors document, folder, and file events
// of a bus as the LSP notifications a language client would send.
package lsp

import (
	"errors"
	"fmt"
	"sort"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dshills/extsim/internal/engine/buffer"
	"github.com/dshills/extsim/internal/project"
	"github.com/dshills/extsim/internal/project/filestore"
	"github.com/dshills/extsim/internal/project/workspace"
	"github.com/dshills/extsim/internal/uri"
)

// ErrUnsupportedChange is returned for a document change of unknown type.
var ErrUnsupportedChange = errors.New("unsupported document change")

// ToPosition converts p to its wire form.
func ToPosition(p buffer.Position) protocol.Position {
	return protocol.Position{
		Line:      protocol.UInteger(p.Line()),
		Character: protocol.UInteger(p.Character()),
	}
}

// FromPosition converts a wire position.
func FromPosition(p protocol.Position) buffer.Position {
	return buffer.Pos(int(p.Line), int(p.Character))
}

// ToRange converts r to its wire form.
func ToRange(r buffer.Range) protocol.Range {
	return protocol.Range{Start: ToPosition(r.Start()), End: ToPosition(r.End())}
}

// FromRange converts a wire range. A reversed range is normalized.
func FromRange(r protocol.Range) buffer.Range {
	return buffer.NewRange(FromPosition(r.Start), FromPosition(r.End))
}

// ToTextEdits converts edits to their wire form. End-of-line changes have
// no wire form and are dropped.
func ToTextEdits(edits []buffer.TextEdit) []protocol.TextEdit {
	out := make([]protocol.TextEdit, 0, len(edits))
	for _, e := range edits {
		if e.NewEOL != 0 && e.NewText == "" && e.Range.IsEmpty() {
			continue
		}
		out = append(out, protocol.TextEdit{Range: ToRange(e.Range), NewText: e.NewText})
	}
	return out
}

// FromTextEdit converts a wire edit.
func FromTextEdit(e protocol.TextEdit) buffer.TextEdit {
	return buffer.Replace(FromRange(e.Range), e.NewText)
}

// FromTextEdits converts wire edits.
func FromTextEdits(edits []protocol.TextEdit) []buffer.TextEdit {
	out := make([]buffer.TextEdit, len(edits))
	for i, e := range edits {
		out[i] = FromTextEdit(e)
	}
	return out
}

// ParseURI parses a wire document URI.
func ParseURI(s protocol.DocumentUri) (uri.URI, error) {
	u, err := uri.Parse(s)
	if err != nil {
		return uri.URI{}, fmt.Errorf("document uri %q: %w", s, err)
	}
	return u, nil
}

// TextDocumentItem describes doc as sent with textDocument/didOpen.
func TextDocumentItem(doc *filestore.Document) protocol.TextDocumentItem {
	return protocol.TextDocumentItem{
		URI:        doc.URI().String(),
		LanguageID: doc.LanguageID(),
		Version:    protocol.Integer(doc.Version()),
		Text:       doc.GetText(),
	}
}

// VersionedIdentifier identifies doc at its current version.
func VersionedIdentifier(doc *filestore.Document) protocol.VersionedTextDocumentIdentifier {
	return protocol.VersionedTextDocumentIdentifier{
		TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: doc.URI().String()},
		Version:                protocol.Integer(doc.Version()),
	}
}

// ContentChanges converts the content changes of a document change event.
func ContentChanges(changes []buffer.ContentChange) []any {
	out := make([]any, len(changes))
	for i, c := range changes {
		r := ToRange(c.Range)
		n := protocol.UInteger(c.RangeLength)
		out[i] = protocol.TextDocumentContentChangeEvent{
			Range:       &r,
			RangeLength: &n,
			Text:        c.Text,
		}
	}
	return out
}

// FromContentChanges converts wire content changes into edits. A change
// without a range replaces the whole document, so it discards every edit
// before it.
func FromContentChanges(text *buffer.Text, changes []any) ([]buffer.TextEdit, error) {
	var edits []buffer.TextEdit
	for _, c := range changes {
		switch c := c.(type) {
		case protocol.TextDocumentContentChangeEvent:
			if c.Range == nil {
				edits = []buffer.TextEdit{buffer.Replace(text.FullRange(), c.Text)}
				continue
			}
			edits = append(edits, buffer.Replace(FromRange(*c.Range), c.Text))
		case protocol.TextDocumentContentChangeEventWhole:
			edits = []buffer.TextEdit{buffer.Replace(text.FullRange(), c.Text)}
		default:
			return nil, fmt.Errorf("%w: %T", ErrUnsupportedChange, c)
		}
	}
	return edits, nil
}

// WorkspaceFolders converts folders to their wire form.
func WorkspaceFolders(folders []workspace.Folder) []protocol.WorkspaceFolder {
	out := make([]protocol.WorkspaceFolder, len(folders))
	for i, f := range folders {
		out[i] = protocol.WorkspaceFolder{URI: f.URI.String(), Name: f.Name}
	}
	return out
}

// FolderSpecs converts wire folders into candidates for SetFolders.
func FolderSpecs(folders []protocol.WorkspaceFolder) ([]workspace.FolderSpec, error) {
	out := make([]workspace.FolderSpec, 0, len(folders))
	for _, f := range folders {
		u, err := ParseURI(f.URI)
		if err != nil {
			return nil, err
		}
		out = append(out, workspace.FolderSpec{URI: u, Name: f.Name})
	}
	return out, nil
}

// FromWorkspaceEdit converts a wire workspace edit. Changes are added in
// URI order, then document changes in their given order.
func FromWorkspaceEdit(we protocol.WorkspaceEdit) (*project.WorkspaceEdit, error) {
	out := project.NewWorkspaceEdit()

	keys := make([]string, 0, len(we.Changes))
	for k := range we.Changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		u, err := ParseURI(k)
		if err != nil {
			return nil, err
		}
		out.Set(u, FromTextEdits(we.Changes[k]))
	}

	for _, dc := range we.DocumentChanges {
		if err := addDocumentChange(out, dc); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func addDocumentChange(out *project.WorkspaceEdit, dc any) error {
	switch c := dc.(type) {
	case *protocol.TextDocumentEdit:
		return addDocumentChange(out, *c)
	case *protocol.CreateFile:
		return addDocumentChange(out, *c)
	case *protocol.RenameFile:
		return addDocumentChange(out, *c)
	case *protocol.DeleteFile:
		return addDocumentChange(out, *c)

	case protocol.TextDocumentEdit:
		u, err := ParseURI(c.TextDocument.URI)
		if err != nil {
			return err
		}
		edits := make([]buffer.TextEdit, 0, len(c.Edits))
		for _, e := range c.Edits {
			switch e := e.(type) {
			case protocol.TextEdit:
				edits = append(edits, FromTextEdit(e))
			case protocol.AnnotatedTextEdit:
				edits = append(edits, FromTextEdit(e.TextEdit))
			default:
				return fmt.Errorf("%w: edit %T", ErrUnsupportedChange, e)
			}
		}
		out.Set(u, edits)

	case protocol.CreateFile:
		u, err := ParseURI(c.URI)
		if err != nil {
			return err
		}
		var opts project.CreateFileOptions
		if c.Options != nil {
			opts.Overwrite = isTrue(c.Options.Overwrite)
			opts.IgnoreIfExists = isTrue(c.Options.IgnoreIfExists)
		}
		out.CreateFile(u, opts)

	case protocol.RenameFile:
		oldURI, err := ParseURI(c.OldURI)
		if err != nil {
			return err
		}
		newURI, err := ParseURI(c.NewURI)
		if err != nil {
			return err
		}
		var opts project.RenameFileOptions
		if c.Options != nil {
			opts.Overwrite = isTrue(c.Options.Overwrite)
			opts.IgnoreIfExists = isTrue(c.Options.IgnoreIfExists)
		}
		out.RenameFile(oldURI, newURI, opts)

	case protocol.DeleteFile:
		u, err := ParseURI(c.URI)
		if err != nil {
			return err
		}
		var opts project.DeleteFileOptions
		if c.Options != nil {
			opts.Recursive = isTrue(c.Options.Recursive)
			opts.IgnoreIfNotExists = isTrue(c.Options.IgnoreIfNotExists)
		}
		out.DeleteFile(u, opts)

	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedChange, dc)
	}
	return nil
}

func isTrue(b *bool) bool {
	return b != nil && *b
}

// ApplyWorkspaceEdit applies a wire workspace edit to h, as a client does
// for workspace/applyEdit. The error reports a malformed edit; a well
// formed edit that partly fails reports false.
func ApplyWorkspaceEdit(h *project.Host, we protocol.WorkspaceEdit) (bool, error) {
	edit, err := FromWorkspaceEdit(we)
	if err != nil {
		return false, err
	}
	return h.ApplyEdit(edit), nil
}
