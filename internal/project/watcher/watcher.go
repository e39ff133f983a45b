// Package watcher provides file system watchers over the file events of an
// event bus.
//
// A FileSystemWatcher tests every created, changed, deleted, or renamed URI
// against its glob pattern and notifies its own listeners. A rename is
// reported as a delete of the old URI followed by a create of the new one.
// Every notification is also kept as an fsnotify.Event so code written
// against fsnotify can be tested without a real file system.
package watcher

import (
	"errors"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/extsim/internal/event"
	"github.com/dshills/extsim/internal/logging"
	"github.com/dshills/extsim/internal/project/search"
	"github.com/dshills/extsim/internal/project/vfs"
	"github.com/dshills/extsim/internal/uri"
)

var log = logging.Get("watcher")

// ErrWatcherClosed is returned when subscribing to a disposed watcher.
var ErrWatcherClosed = errors.New("watcher is closed")

// Options control which notifications a watcher delivers.
type Options struct {
	IgnoreCreate bool
	IgnoreChange bool
	IgnoreDelete bool

	// Roots returns the folders that plain patterns are matched against.
	// A plain pattern matches a URI when it matches the path relative to
	// any root or the full path.
	Roots func() []uri.URI

	// Exclude suppresses notifications for matching URIs.
	Exclude search.Set
}

// FileSystemWatcher reports file events matching a glob pattern.
type FileSystemWatcher struct {
	pattern *search.Compiled
	opts    Options

	onCreate *event.Emitter[uri.URI]
	onChange *event.Emitter[uri.URI]
	onDelete *event.Emitter[uri.URI]

	subs event.Store

	mu       sync.Mutex
	disposed bool
	log      []fsnotify.Event
}

// New creates a watcher for pattern subscribed to the file events of bus.
func New(bus *event.Bus, pattern search.GlobPattern, opts Options) (*FileSystemWatcher, error) {
	c, err := pattern.Compile()
	if err != nil {
		return nil, err
	}

	w := &FileSystemWatcher{
		pattern:  c,
		opts:     opts,
		onCreate: event.NewEmitter[uri.URI]("watcher.didCreate"),
		onChange: event.NewEmitter[uri.URI]("watcher.didChange"),
		onDelete: event.NewEmitter[uri.URI]("watcher.didDelete"),
	}

	w.subs.Add(vfs.DidCreate(bus).Subscribe(func(e vfs.FileCreateEvent) {
		for _, u := range e.Files {
			w.notify(u, fsnotify.Create)
		}
	}))
	w.subs.Add(vfs.DidChange(bus).Subscribe(func(e vfs.FileChangeEvent) {
		for _, u := range e.Files {
			w.notify(u, fsnotify.Write)
		}
	}))
	w.subs.Add(vfs.DidDelete(bus).Subscribe(func(e vfs.FileDeleteEvent) {
		for _, u := range e.Files {
			w.notify(u, fsnotify.Remove)
		}
	}))
	w.subs.Add(vfs.DidRename(bus).Subscribe(func(e vfs.FileRenameEvent) {
		for _, p := range e.Files {
			w.notify(p.OldURI, fsnotify.Rename)
			w.notify(p.NewURI, fsnotify.Create)
		}
	}))

	log.Debugf("watch %s", pattern)
	return w, nil
}

// OnDidCreate registers fn for created files.
func (w *FileSystemWatcher) OnDidCreate(fn func(uri.URI)) event.Disposable {
	return w.onCreate.Subscribe(fn)
}

// OnDidChange registers fn for changed files.
func (w *FileSystemWatcher) OnDidChange(fn func(uri.URI)) event.Disposable {
	return w.onChange.Subscribe(fn)
}

// OnDidDelete registers fn for deleted files.
func (w *FileSystemWatcher) OnDidDelete(fn func(uri.URI)) event.Disposable {
	return w.onDelete.Subscribe(fn)
}

// Events returns the notifications delivered so far, in order.
func (w *FileSystemWatcher) Events() []fsnotify.Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]fsnotify.Event, len(w.log))
	copy(out, w.log)
	return out
}

// Dispose stops the watcher and drops its listeners. It is safe to call
// more than once.
func (w *FileSystemWatcher) Dispose() {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return
	}
	w.disposed = true
	w.mu.Unlock()

	w.subs.Dispose()
	w.onCreate.Reset()
	w.onChange.Reset()
	w.onDelete.Reset()
}

// IsDisposed reports whether Dispose has been called.
func (w *FileSystemWatcher) IsDisposed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.disposed
}

func (w *FileSystemWatcher) notify(u uri.URI, op fsnotify.Op) {
	var emitter *event.Emitter[uri.URI]
	switch op {
	case fsnotify.Create:
		if w.opts.IgnoreCreate {
			return
		}
		emitter = w.onCreate
	case fsnotify.Write:
		if w.opts.IgnoreChange {
			return
		}
		emitter = w.onChange
	default:
		if w.opts.IgnoreDelete {
			return
		}
		emitter = w.onDelete
	}
	if !w.matches(u) {
		return
	}

	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return
	}
	w.log = append(w.log, fsnotify.Event{Name: u.Path(), Op: op})
	w.mu.Unlock()

	emitter.Fire(u)
}

func (w *FileSystemWatcher) matches(u uri.URI) bool {
	var roots []uri.URI
	if w.opts.Roots != nil {
		roots = w.opts.Roots()
	}
	for _, root := range roots {
		if w.opts.Exclude.MatchURI(u, root) {
			return false
		}
	}
	if w.opts.Exclude.MatchURI(u, uri.URI{}) {
		return false
	}

	if w.pattern.IsRelative() {
		return w.pattern.MatchURI(u, uri.URI{})
	}
	for _, root := range roots {
		if w.pattern.MatchURI(u, root) {
			return true
		}
	}
	return w.pattern.MatchURI(u, uri.URI{})
}
