package editor

import (
	"github.com/dshills/extsim/internal/engine/buffer"
	"github.com/dshills/extsim/internal/event"
)

// SelectionChangeKind tells listeners what moved the selection.
type SelectionChangeKind int

const (
	SelectionKindUnknown SelectionChangeKind = iota
	SelectionKindKeyboard
	SelectionKindMouse
	SelectionKindCommand
)

// SelectionChangeEvent is the payload of window.didChangeSelection.
type SelectionChangeEvent struct {
	Editor     *TextEditor
	Selections []buffer.Selection
	Kind       SelectionChangeKind
}

// DidChangeActiveEditor returns the window.didChangeActiveEditor channel of
// b. The payload is nil when no editor is active.
func DidChangeActiveEditor(b *event.Bus) *event.Emitter[*TextEditor] {
	return event.Channel[*TextEditor](b, event.WindowDidChangeActiveEditor)
}

// DidChangeVisibleEditors returns the window.didChangeVisibleEditors
// channel of b.
func DidChangeVisibleEditors(b *event.Bus) *event.Emitter[[]*TextEditor] {
	return event.Channel[[]*TextEditor](b, event.WindowDidChangeVisibleEditors)
}

// DidChangeSelection returns the window.didChangeSelection channel of b.
func DidChangeSelection(b *event.Bus) *event.Emitter[SelectionChangeEvent] {
	return event.Channel[SelectionChangeEvent](b, event.WindowDidChangeSelection)
}

// DidOpenTerminal returns the window.didOpenTerminal channel of b.
func DidOpenTerminal(b *event.Bus) *event.Emitter[*Terminal] {
	return event.Channel[*Terminal](b, event.WindowDidOpenTerminal)
}

// DidCloseTerminal returns the window.didCloseTerminal channel of b.
func DidCloseTerminal(b *event.Bus) *event.Emitter[*Terminal] {
	return event.Channel[*Terminal](b, event.WindowDidCloseTerminal)
}

// DidChangeActiveTerminal returns the window.didChangeActiveTerminal
// channel of b. The payload is nil when no terminal is active.
func DidChangeActiveTerminal(b *event.Bus) *event.Emitter[*Terminal] {
	return event.Channel[*Terminal](b, event.WindowDidChangeActiveTerminal)
}
