// Package filestore provides the open text documents of the extension host.
//
// A Store holds at most one Document per URI for its whole lifetime: closing
// a document keeps the instance queryable, and opening the URI again revives
// the same instance. The store follows the file system through bus events
// so documents reload, close, or move when their files do.
package filestore

import (
	"path"
	"regexp"
	"sync"

	"github.com/dshills/extsim/internal/engine/buffer"
	"github.com/dshills/extsim/internal/project/vfs"
	"github.com/dshills/extsim/internal/uri"
)

// Document is a text document known to the store.
type Document struct {
	mu sync.RWMutex

	store *Store

	uri        uri.URI
	text       *buffer.Text
	version    int
	dirty      bool
	closed     bool
	languageID string
	encoding   vfs.Encoding
}

// URI returns the document URI.
func (d *Document) URI() uri.URI {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.uri
}

// FileName returns the path of the document URI.
func (d *Document) FileName() string {
	return d.URI().Path()
}

// IsUntitled reports whether the document has never been saved to a file.
func (d *Document) IsUntitled() bool {
	return d.URI().IsUntitled()
}

// LanguageID returns the language identifier, e.g. "go".
func (d *Document) LanguageID() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.languageID
}

// Version increases by one with every change, starting at 1.
func (d *Document) Version() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}

// IsDirty reports whether the document has unsaved changes.
func (d *Document) IsDirty() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.dirty
}

// IsClosed reports whether the document has been closed.
func (d *Document) IsClosed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.closed
}

// Encoding returns the encoding the document is saved in.
func (d *Document) Encoding() vfs.Encoding {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.encoding
}

// Text returns the current content snapshot.
func (d *Document) Text() *buffer.Text {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text
}

// EOL returns the line terminator of the document.
func (d *Document) EOL() buffer.EndOfLine { return d.Text().EOL() }

// LineCount returns the number of lines.
func (d *Document) LineCount() int { return d.Text().LineCount() }

// GetText returns the full content.
func (d *Document) GetText() string { return d.Text().Content() }

// GetTextInRange returns the content of r after validating it.
func (d *Document) GetTextInRange(r buffer.Range) string { return d.Text().GetText(r) }

// LineAt returns line n, or an error when n is out of range.
func (d *Document) LineAt(n int) (buffer.TextLine, error) { return d.Text().LineAt(n) }

// LineAtPosition returns the line containing p.
func (d *Document) LineAtPosition(p buffer.Position) (buffer.TextLine, error) {
	return d.Text().LineAtPosition(p)
}

// OffsetAt converts a position to a UTF-16 offset.
func (d *Document) OffsetAt(p buffer.Position) int { return d.Text().OffsetAt(p) }

// PositionAt converts a UTF-16 offset to a position.
func (d *Document) PositionAt(offset int) buffer.Position { return d.Text().PositionAt(offset) }

// ValidatePosition clamps p to the document.
func (d *Document) ValidatePosition(p buffer.Position) buffer.Position {
	return d.Text().ValidatePosition(p)
}

// ValidateRange clamps r to the document.
func (d *Document) ValidateRange(r buffer.Range) buffer.Range { return d.Text().ValidateRange(r) }

// GetWordRangeAtPosition returns the word at p. A nil re uses the store's
// word pattern.
func (d *Document) GetWordRangeAtPosition(p buffer.Position, re *regexp.Regexp) (buffer.Range, bool, error) {
	if re == nil && d.store != nil {
		re = d.store.wordPattern
	}
	return d.Text().GetWordRangeAtPosition(p, re)
}

// ApplyEdits applies edits as one change: the version goes up by one, the
// document becomes dirty, and a single documents.didChange event is fired.
// No edits is a successful no-op.
func (d *Document) ApplyEdits(edits []buffer.TextEdit) error {
	if len(edits) == 0 {
		if d.IsClosed() {
			return &DocumentError{Op: "edit", URI: d.URI(), Err: ErrDocumentClosed}
		}
		return nil
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return &DocumentError{Op: "edit", URI: d.uri, Err: ErrDocumentClosed}
	}
	before := d.text
	d.text = buffer.ApplyEdits(before, edits)
	d.version++
	d.dirty = true
	after := d.text
	d.mu.Unlock()

	d.fireChange(before, after, ReasonEdit)
	return nil
}

// Save writes the document to the file system. Untitled and closed
// documents are not saved and report false.
func (d *Document) Save() (bool, error) {
	return d.store.save(d, SaveManual)
}

func (d *Document) fireChange(before, after *buffer.Text, reason ChangeReason) {
	if d.store == nil {
		return
	}
	DidChange(d.store.bus).Fire(ChangeEvent{
		Document:       d,
		ContentChanges: []buffer.ContentChange{buffer.FullChange(before, after)},
		Reason:         reason,
	})
}

// replace swaps in new content from outside the editor. It reports false,
// and changes nothing, when the content is unchanged.
func (d *Document) replace(content string, enc vfs.Encoding, eol buffer.EndOfLine) (before, after *buffer.Text, changed bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.encoding = enc
	if d.text.Content() == content {
		d.dirty = false
		return nil, nil, false
	}
	before = d.text
	d.text = buffer.NewText(content, eol)
	d.version++
	d.dirty = false
	return before, d.text, true
}

// detectLanguageID returns the language identifier based on file extension.
func detectLanguageID(p string) string {
	switch path.Ext(p) {
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".js":
		return "javascript"
	case ".ts":
		return "typescript"
	case ".jsx":
		return "javascriptreact"
	case ".tsx":
		return "typescriptreact"
	case ".rs":
		return "rust"
	case ".java":
		return "java"
	case ".c", ".h":
		return "c"
	case ".cpp", ".cc", ".cxx", ".hpp":
		return "cpp"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	case ".md", ".markdown":
		return "markdown"
	case ".sh", ".bash":
		return "shellscript"
	case ".lua":
		return "lua"
	case ".toml":
		return "toml"
	default:
		return "plaintext"
	}
}
