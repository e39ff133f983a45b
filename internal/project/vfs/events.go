package vfs

import (
	"github.com/dshills/extsim/internal/event"
	"github.com/dshills/extsim/internal/uri"
)

// FileCreateEvent is fired before and after resources are created.
type FileCreateEvent struct {
	Files []uri.URI
}

// FileDeleteEvent is fired before and after resources are deleted.
type FileDeleteEvent struct {
	Files []uri.URI
}

// RenamePair names the source and target of a rename.
type RenamePair struct {
	OldURI uri.URI
	NewURI uri.URI
}

// FileRenameEvent is fired before and after resources are renamed.
type FileRenameEvent struct {
	Files []RenamePair
}

// FileChangeEvent is fired after the content of existing files is replaced.
type FileChangeEvent struct {
	Files []uri.URI
}

// WillCreate returns the files.willCreate channel of b.
func WillCreate(b *event.Bus) *event.Emitter[FileCreateEvent] {
	return event.Channel[FileCreateEvent](b, event.FilesWillCreate)
}

// DidCreate returns the files.didCreate channel of b.
func DidCreate(b *event.Bus) *event.Emitter[FileCreateEvent] {
	return event.Channel[FileCreateEvent](b, event.FilesDidCreate)
}

// WillDelete returns the files.willDelete channel of b.
func WillDelete(b *event.Bus) *event.Emitter[FileDeleteEvent] {
	return event.Channel[FileDeleteEvent](b, event.FilesWillDelete)
}

// DidDelete returns the files.didDelete channel of b.
func DidDelete(b *event.Bus) *event.Emitter[FileDeleteEvent] {
	return event.Channel[FileDeleteEvent](b, event.FilesDidDelete)
}

// WillRename returns the files.willRename channel of b.
func WillRename(b *event.Bus) *event.Emitter[FileRenameEvent] {
	return event.Channel[FileRenameEvent](b, event.FilesWillRename)
}

// DidRename returns the files.didRename channel of b.
func DidRename(b *event.Bus) *event.Emitter[FileRenameEvent] {
	return event.Channel[FileRenameEvent](b, event.FilesDidRename)
}

// DidChange returns the files.didChange channel of b.
func DidChange(b *event.Bus) *event.Emitter[FileChangeEvent] {
	return event.Channel[FileChangeEvent](b, event.FilesDidChange)
}
