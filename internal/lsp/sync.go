package lsp

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dshills/extsim/internal/event"
	"github.com/dshills/extsim/internal/logging"
	"github.com/dshills/extsim/internal/project/filestore"
	"github.com/dshills/extsim/internal/project/vfs"
	"github.com/dshills/extsim/internal/project/workspace"
	"github.com/dshills/extsim/internal/uri"
)

var log = logging.Get("lsp")

// Notification is one client-to-server notification.
type Notification struct {
	Method protocol.Method
	Params any
}

// Sync turns the events of a bus into the notifications a language client
// sends to its server. Notifications are kept in order and, when a notify
// function is set, forwarded as they happen.
type Sync struct {
	mu     sync.Mutex
	notify glsp.NotifyFunc
	sent   []Notification

	bus  *event.Bus
	subs event.Store
}

// SyncOption configures a Sync.
type SyncOption func(*Sync)

// WithNotify forwards every notification to fn, for example the Notify
// function of a glsp.Context.
func WithNotify(fn glsp.NotifyFunc) SyncOption {
	return func(s *Sync) {
		s.notify = fn
	}
}

// NewSync creates a Sync subscribed to bus.
func NewSync(bus *event.Bus, opts ...SyncOption) *Sync {
	s := &Sync{bus: bus}
	for _, opt := range opts {
		opt(s)
	}
	s.Attach()
	return s
}

// Attach subscribes to the bus. NewSync calls it; after a bus reset it
// must be called again.
func (s *Sync) Attach() {
	s.subs.Dispose()
	b := s.bus

	s.subs.Add(filestore.DidOpen(b).Subscribe(func(doc *filestore.Document) {
		s.send(protocol.MethodTextDocumentDidOpen, protocol.DidOpenTextDocumentParams{
			TextDocument: TextDocumentItem(doc),
		})
	}))
	s.subs.Add(filestore.DidChange(b).Subscribe(func(e filestore.ChangeEvent) {
		s.send(protocol.MethodTextDocumentDidChange, protocol.DidChangeTextDocumentParams{
			TextDocument:   VersionedIdentifier(e.Document),
			ContentChanges: ContentChanges(e.ContentChanges),
		})
	}))
	s.subs.Add(filestore.WillSave(b).Subscribe(func(e filestore.WillSaveEvent) {
		s.send(protocol.MethodTextDocumentWillSave, protocol.WillSaveTextDocumentParams{
			TextDocument: identifier(e.Document.URI()),
			Reason:       protocol.TextDocumentSaveReason(e.Reason),
		})
	}))
	s.subs.Add(filestore.DidSave(b).Subscribe(func(doc *filestore.Document) {
		text := doc.GetText()
		s.send(protocol.MethodTextDocumentDidSave, protocol.DidSaveTextDocumentParams{
			TextDocument: identifier(doc.URI()),
			Text:         &text,
		})
	}))
	s.subs.Add(filestore.DidClose(b).Subscribe(func(doc *filestore.Document) {
		s.send(protocol.MethodTextDocumentDidClose, protocol.DidCloseTextDocumentParams{
			TextDocument: identifier(doc.URI()),
		})
	}))

	s.subs.Add(workspace.DidChangeFolders(b).Subscribe(func(e workspace.FoldersChangeEvent) {
		s.send(protocol.MethodWorkspaceDidChangeWorkspaceFolders, protocol.DidChangeWorkspaceFoldersParams{
			Event: protocol.WorkspaceFoldersChangeEvent{
				Added:   WorkspaceFolders(e.Added),
				Removed: WorkspaceFolders(e.Removed),
			},
		})
	}))

	s.subs.Add(vfs.WillCreate(b).Subscribe(func(e vfs.FileCreateEvent) {
		s.send(protocol.MethodWorkspaceWillCreateFiles, createFiles(e.Files))
	}))
	s.subs.Add(vfs.DidCreate(b).Subscribe(func(e vfs.FileCreateEvent) {
		s.send(protocol.MethodWorkspaceDidCreateFiles, createFiles(e.Files))
	}))
	s.subs.Add(vfs.WillDelete(b).Subscribe(func(e vfs.FileDeleteEvent) {
		s.send(protocol.MethodWorkspaceWillDeleteFiles, deleteFiles(e.Files))
	}))
	s.subs.Add(vfs.DidDelete(b).Subscribe(func(e vfs.FileDeleteEvent) {
		s.send(protocol.MethodWorkspaceDidDeleteFiles, deleteFiles(e.Files))
	}))
	s.subs.Add(vfs.WillRename(b).Subscribe(func(e vfs.FileRenameEvent) {
		s.send(protocol.MethodWorkspaceWillRenameFiles, renameFiles(e.Files))
	}))
	s.subs.Add(vfs.DidRename(b).Subscribe(func(e vfs.FileRenameEvent) {
		s.send(protocol.MethodWorkspaceDidRenameFiles, renameFiles(e.Files))
	}))
	s.subs.Add(vfs.DidChange(b).Subscribe(func(e vfs.FileChangeEvent) {
		changes := make([]protocol.FileEvent, len(e.Files))
		for i, u := range e.Files {
			changes[i] = protocol.FileEvent{URI: u.String(), Type: protocol.FileChangeTypeChanged}
		}
		s.send(protocol.MethodWorkspaceDidChangeWatchedFiles, protocol.DidChangeWatchedFilesParams{Changes: changes})
	}))
}

func (s *Sync) send(method protocol.Method, params any) {
	s.mu.Lock()
	s.sent = append(s.sent, Notification{Method: method, Params: params})
	notify := s.notify
	s.mu.Unlock()

	log.Debugf("notify %s", method)
	if notify != nil {
		notify(method, params)
	}
}

// Notifications returns the notifications sent so far.
func (s *Sync) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.sent))
	copy(out, s.sent)
	return out
}

// Methods returns the method of every notification sent so far.
func (s *Sync) Methods() []protocol.Method {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]protocol.Method, len(s.sent))
	for i, n := range s.sent {
		out[i] = n.Method
	}
	return out
}

// Clear forgets the notifications sent so far.
func (s *Sync) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = nil
}

// Dispose unsubscribes from the bus.
func (s *Sync) Dispose() {
	s.subs.Dispose()
}

func identifier(u uri.URI) protocol.TextDocumentIdentifier {
	return protocol.TextDocumentIdentifier{URI: u.String()}
}

func createFiles(us []uri.URI) protocol.CreateFilesParams {
	files := make([]protocol.FileCreate, len(us))
	for i, u := range us {
		files[i] = protocol.FileCreate{URI: u.String()}
	}
	return protocol.CreateFilesParams{Files: files}
}

func deleteFiles(us []uri.URI) protocol.DeleteFilesParams {
	files := make([]protocol.FileDelete, len(us))
	for i, u := range us {
		files[i] = protocol.FileDelete{URI: u.String()}
	}
	return protocol.DeleteFilesParams{Files: files}
}

func renameFiles(pairs []vfs.RenamePair) protocol.RenameFilesParams {
	files := make([]protocol.FileRename, len(pairs))
	for i, p := range pairs {
		files[i] = protocol.FileRename{OldURI: p.OldURI.String(), NewURI: p.NewURI.String()}
	}
	return protocol.RenameFilesParams{Files: files}
}

// WatchedFiles converts the fsnotify events recorded by a file system
// watcher into a workspace/didChangeWatchedFiles payload. Names are file
// paths. A rename reports the old path as deleted.
func WatchedFiles(events []fsnotify.Event) protocol.DidChangeWatchedFilesParams {
	changes := make([]protocol.FileEvent, 0, len(events))
	for _, e := range events {
		var typ protocol.UInteger
		switch {
		case e.Has(fsnotify.Create):
			typ = protocol.FileChangeTypeCreated
		case e.Has(fsnotify.Write):
			typ = protocol.FileChangeTypeChanged
		case e.Has(fsnotify.Remove), e.Has(fsnotify.Rename):
			typ = protocol.FileChangeTypeDeleted
		default:
			continue
		}
		changes = append(changes, protocol.FileEvent{URI: uri.File(e.Name).String(), Type: typ})
	}
	return protocol.DidChangeWatchedFilesParams{Changes: changes}
}
