package filestore

import (
	"github.com/dshills/extsim/internal/engine/buffer"
	"github.com/dshills/extsim/internal/event"
)

// ChangeReason tells listeners why a document changed.
type ChangeReason int

const (
	// ReasonEdit is an edit applied through the API.
	ReasonEdit ChangeReason = iota
	// ReasonReload is new content read from the file system.
	ReasonReload
)

// String returns a readable name for the reason.
func (r ChangeReason) String() string {
	if r == ReasonReload {
		return "reload"
	}
	return "edit"
}

// ChangeEvent is the payload of documents.didChange.
type ChangeEvent struct {
	Document       *Document
	ContentChanges []buffer.ContentChange
	Reason         ChangeReason
}

// SaveReason tells willSave listeners what triggered the save.
type SaveReason int

const (
	SaveManual SaveReason = iota + 1
	SaveAfterDelay
	SaveFocusOut
)

// WillSaveEvent is the payload of documents.willSave.
type WillSaveEvent struct {
	Document *Document
	Reason   SaveReason
}

// DidOpen returns the documents.didOpen channel of b.
func DidOpen(b *event.Bus) *event.Emitter[*Document] {
	return event.Channel[*Document](b, event.DocumentsDidOpen)
}

// DidClose returns the documents.didClose channel of b.
func DidClose(b *event.Bus) *event.Emitter[*Document] {
	return event.Channel[*Document](b, event.DocumentsDidClose)
}

// DidChange returns the documents.didChange channel of b.
func DidChange(b *event.Bus) *event.Emitter[ChangeEvent] {
	return event.Channel[ChangeEvent](b, event.DocumentsDidChange)
}

// WillSave returns the documents.willSave channel of b.
func WillSave(b *event.Bus) *event.Emitter[WillSaveEvent] {
	return event.Channel[WillSaveEvent](b, event.DocumentsWillSave)
}

// DidSave returns the documents.didSave channel of b.
func DidSave(b *event.Bus) *event.Emitter[*Document] {
	return event.Channel[*Document](b, event.DocumentsDidSave)
}
