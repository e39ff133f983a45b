package editor

import (
	"slices"
	"sort"
	"sync"

	"github.com/dshills/extsim/internal/engine/buffer"
	"github.com/dshills/extsim/internal/event"
	"github.com/dshills/extsim/internal/logging"
	"github.com/dshills/extsim/internal/project/filestore"
)

var log = logging.Get("window")

// ShowOptions control ShowTextDocument.
type ShowOptions struct {
	// ViewColumn defaults to ViewColumnActive.
	ViewColumn ViewColumn

	// PreserveFocus keeps the active editor unchanged.
	PreserveFocus bool

	// Selection, when set, becomes the only selection of the editor.
	Selection *buffer.Range
}

// Window holds the visible editors and the terminals.
type Window struct {
	mu sync.RWMutex

	bus   *event.Bus
	store *filestore.Store

	visible map[ViewColumn]*TextEditor
	active  *TextEditor

	terminals      []*Terminal
	activeTerminal *Terminal
	nextTerminal   int

	subs event.Store
}

// NewWindow creates an empty window over the documents of store.
func NewWindow(bus *event.Bus, store *filestore.Store) *Window {
	w := &Window{
		bus:     bus,
		store:   store,
		visible: make(map[ViewColumn]*TextEditor),
	}
	w.Attach()
	return w
}

// Attach subscribes the window to document closes. NewWindow calls it;
// after a bus reset it must be called again.
func (w *Window) Attach() {
	w.subs.Dispose()
	w.subs.Add(filestore.DidClose(w.bus).Subscribe(func(doc *filestore.Document) {
		w.closeEditorsOf(doc)
	}))
}

// ActiveEditor returns the active editor, or nil.
func (w *Window) ActiveEditor() *TextEditor {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.active
}

// VisibleEditors returns the visible editors ordered by view column.
func (w *Window) VisibleEditors() []*TextEditor {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.visibleLocked()
}

func (w *Window) visibleLocked() []*TextEditor {
	cols := make([]ViewColumn, 0, len(w.visible))
	for c := range w.visible {
		cols = append(cols, c)
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i] < cols[j] })
	out := make([]*TextEditor, len(cols))
	for i, c := range cols {
		out[i] = w.visible[c]
	}
	return out
}

// ShowTextDocument shows doc in an editor and, unless PreserveFocus is
// set, makes it the active editor. A closed document is opened again. The
// editor already showing doc in the target column is reused; any other
// editor in that column is replaced.
func (w *Window) ShowTextDocument(doc *filestore.Document, opts ShowOptions) (*TextEditor, error) {
	if doc.IsClosed() {
		reopened, err := w.store.Open(doc.URI())
		if err != nil {
			return nil, err
		}
		doc = reopened
	}

	w.mu.Lock()
	column := w.resolveColumnLocked(opts.ViewColumn)

	prevVisible := w.visibleLocked()
	prevActive := w.active

	ed := w.visible[column]
	if ed == nil || ed.document != doc {
		ed = &TextEditor{
			window:     w,
			document:   doc,
			selections: []buffer.Selection{buffer.CursorAt(buffer.Pos(0, 0))},
			column:     column,
			options:    DefaultOptions(),
		}
		w.visible[column] = ed
	}
	// An active editor replaced in its column hands focus to the new one.
	if !opts.PreserveFocus || w.active == nil || w.visible[w.active.column] != w.active {
		w.active = ed
	}

	visible := w.visibleLocked()
	active := w.active
	w.mu.Unlock()

	log.Debugf("show %s in column %d", doc.URI(), column)
	w.fireChanges(prevVisible, visible, prevActive, active)

	if opts.Selection != nil {
		r := *opts.Selection
		if err := ed.SetSelections([]buffer.Selection{buffer.NewSelection(r.Start(), r.End())}); err != nil {
			return nil, err
		}
	}
	return ed, nil
}

func (w *Window) resolveColumnLocked(c ViewColumn) ViewColumn {
	current := ViewColumnOne
	if w.active != nil {
		current = w.active.column
	}
	switch {
	case c == ViewColumnBeside:
		return current + 1
	case c <= 0:
		return current
	default:
		return c
	}
}

// CloseEditor removes e from the window. It reports false when e is not
// visible.
func (w *Window) CloseEditor(e *TextEditor) bool {
	w.mu.Lock()
	if w.visible[e.column] != e {
		w.mu.Unlock()
		return false
	}
	prevVisible := w.visibleLocked()
	prevActive := w.active
	delete(w.visible, e.column)
	w.reassignActiveLocked()
	visible, active := w.visibleLocked(), w.active
	w.mu.Unlock()

	w.fireChanges(prevVisible, visible, prevActive, active)
	return true
}

func (w *Window) closeEditorsOf(doc *filestore.Document) {
	w.mu.Lock()
	prevVisible := w.visibleLocked()
	prevActive := w.active
	for c, ed := range w.visible {
		if ed.document == doc {
			delete(w.visible, c)
		}
	}
	w.reassignActiveLocked()
	visible, active := w.visibleLocked(), w.active
	w.mu.Unlock()

	w.fireChanges(prevVisible, visible, prevActive, active)
}

// reassignActiveLocked moves focus to the editor in the lowest column when
// the active editor is no longer visible.
func (w *Window) reassignActiveLocked() {
	if w.active != nil && w.visible[w.active.column] == w.active {
		return
	}
	w.active = nil
	if eds := w.visibleLocked(); len(eds) > 0 {
		w.active = eds[0]
	}
}

func (w *Window) fireChanges(prevVisible, visible []*TextEditor, prevActive, active *TextEditor) {
	if !slices.Equal(prevVisible, visible) {
		DidChangeVisibleEditors(w.bus).Fire(visible)
	}
	if prevActive != active {
		DidChangeActiveEditor(w.bus).Fire(active)
	}
}

// Reset closes every editor and terminal without firing events.
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.visible = make(map[ViewColumn]*TextEditor)
	w.active = nil
	w.terminals = nil
	w.activeTerminal = nil
	w.nextTerminal = 0
}
