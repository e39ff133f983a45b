// Package editor provides text editors and the window that shows them.
//
// A Window keeps one visible editor per view column, the active editor, and
// the open terminals. Editors are bound to a document for their whole life;
// when the document closes its editors disappear from the window.
package editor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/extsim/internal/engine/buffer"
	"github.com/dshills/extsim/internal/project/filestore"
)

// Errors returned by editors.
var (
	ErrNoSelections    = errors.New("editor needs at least one selection")
	ErrBuilderFinished = errors.New("edit builder used outside its callback")
)

// ViewColumn is the column an editor is shown in, starting at One.
type ViewColumn int

const (
	// ViewColumnActive shows the editor in the column of the active editor.
	ViewColumnActive ViewColumn = -1
	// ViewColumnBeside shows the editor to the right of the active editor.
	ViewColumnBeside ViewColumn = -2

	ViewColumnOne   ViewColumn = 1
	ViewColumnTwo   ViewColumn = 2
	ViewColumnThree ViewColumn = 3
)

// Options are the formatting options of an editor.
type Options struct {
	TabSize      int
	InsertSpaces bool
}

// DefaultOptions returns the options of a new editor.
func DefaultOptions() Options {
	return Options{TabSize: 4, InsertSpaces: true}
}

// TextEditor shows a document and holds its selections.
type TextEditor struct {
	mu sync.RWMutex

	window   *Window
	document *filestore.Document

	selections []buffer.Selection
	column     ViewColumn
	options    Options
}

// Document returns the document of the editor.
func (e *TextEditor) Document() *filestore.Document { return e.document }

// ViewColumn returns the column the editor is shown in.
func (e *TextEditor) ViewColumn() ViewColumn {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.column
}

// Options returns the formatting options.
func (e *TextEditor) Options() Options {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.options
}

// SetOptions replaces the formatting options. A non-positive tab size is
// ignored.
func (e *TextEditor) SetOptions(o Options) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if o.TabSize <= 0 {
		o.TabSize = e.options.TabSize
	}
	e.options = o
}

// Selection returns the primary selection.
func (e *TextEditor) Selection() buffer.Selection {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.selections[0]
}

// Selections returns a copy of all selections, primary first.
func (e *TextEditor) Selections() []buffer.Selection {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]buffer.Selection, len(e.selections))
	copy(out, e.selections)
	return out
}

// SetSelections replaces the selections, clamped to the document, and
// fires window.didChangeSelection.
func (e *TextEditor) SetSelections(sels []buffer.Selection) error {
	return e.setSelections(sels, SelectionKindCommand)
}

// SetSelectionsFrom is SetSelections with an explicit change kind, as when
// simulating keyboard or mouse input.
func (e *TextEditor) SetSelectionsFrom(sels []buffer.Selection, kind SelectionChangeKind) error {
	return e.setSelections(sels, kind)
}

func (e *TextEditor) setSelections(sels []buffer.Selection, kind SelectionChangeKind) error {
	if len(sels) == 0 {
		return ErrNoSelections
	}
	text := e.document.Text()
	valid := make([]buffer.Selection, len(sels))
	for i, s := range sels {
		valid[i] = clampSelection(text, s)
	}

	e.mu.Lock()
	e.selections = valid
	e.mu.Unlock()

	if e.window != nil {
		DidChangeSelection(e.window.bus).Fire(SelectionChangeEvent{
			Editor:     e,
			Selections: e.Selections(),
			Kind:       kind,
		})
	}
	return nil
}

// Edit collects edits through fn and applies them to the document as one
// change. It reports false when the document is closed. The builder must
// not be used after fn returns.
func (e *TextEditor) Edit(fn func(*EditBuilder)) (bool, error) {
	b := &EditBuilder{}
	fn(b)
	b.done = true

	if e.document.IsClosed() {
		return false, nil
	}
	if len(b.edits) == 0 {
		return true, nil
	}
	if err := e.document.ApplyEdits(b.edits); err != nil {
		if errors.Is(err, filestore.ErrDocumentClosed) {
			return false, nil
		}
		return false, err
	}

	// Keep selections inside the new text.
	text := e.document.Text()
	e.mu.Lock()
	for i, s := range e.selections {
		e.selections[i] = clampSelection(text, s)
	}
	e.mu.Unlock()
	return true, nil
}

func clampSelection(text *buffer.Text, s buffer.Selection) buffer.Selection {
	return buffer.NewSelection(text.ValidatePosition(s.Anchor()), text.ValidatePosition(s.Active()))
}

// String returns a short description of the editor.
func (e *TextEditor) String() string {
	return fmt.Sprintf("editor(%s, column %d)", e.document.URI(), e.ViewColumn())
}

// EditBuilder collects the edits of one TextEditor.Edit call.
type EditBuilder struct {
	edits []buffer.TextEdit
	done  bool
}

func (b *EditBuilder) add(edit buffer.TextEdit) {
	if b.done {
		panic(ErrBuilderFinished)
	}
	b.edits = append(b.edits, edit)
}

// Replace replaces r with text.
func (b *EditBuilder) Replace(r buffer.Range, text string) {
	b.add(buffer.Replace(r, text))
}

// Insert inserts text at p.
func (b *EditBuilder) Insert(p buffer.Position, text string) {
	b.add(buffer.Insert(p, text))
}

// Delete removes r.
func (b *EditBuilder) Delete(r buffer.Range) {
	b.add(buffer.Delete(r))
}

// SetEndOfLine converts the document to eol.
func (b *EditBuilder) SetEndOfLine(eol buffer.EndOfLine) {
	b.add(buffer.SetEndOfLine(eol))
}
