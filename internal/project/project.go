package project

import (
	"context"
	"sync"
	"time"

	"github.com/dshills/extsim/internal/config"
	"github.com/dshills/extsim/internal/editor"
	"github.com/dshills/extsim/internal/event"
	"github.com/dshills/extsim/internal/logging"
	"github.com/dshills/extsim/internal/project/filestore"
	"github.com/dshills/extsim/internal/project/search"
	"github.com/dshills/extsim/internal/project/vfs"
	"github.com/dshills/extsim/internal/project/watcher"
	"github.com/dshills/extsim/internal/project/workspace"
	"github.com/dshills/extsim/internal/uri"
)

var log = logging.Get("host")

// Host owns one simulated extension host: the event bus, the file system,
// the document registry, the workspace folders, and the window.
type Host struct {
	mu sync.Mutex

	cfg    *config.Config
	remote string
	clock  func() time.Time

	// Core components
	bus       *event.Bus
	fs        *vfs.MemFS
	store     *filestore.Store
	workspace *workspace.Workspace
	window    *editor.Window

	watchers []*watcher.FileSystemWatcher
}

// Option configures a Host.
type Option func(*Host)

// WithConfig sets the host configuration.
func WithConfig(cfg *config.Config) Option {
	return func(h *Host) {
		if cfg != nil {
			h.cfg = cfg
		}
	}
}

// WithRemoteName runs the host as a remote window named name. It overrides
// the remote name of the configuration.
func WithRemoteName(name string) Option {
	return func(h *Host) {
		h.remote = name
	}
}

// WithClock sets the time source of the file system.
func WithClock(now func() time.Time) Option {
	return func(h *Host) {
		h.clock = now
	}
}

// New creates a host with an empty file system and no folders.
func New(opts ...Option) *Host {
	h := &Host{cfg: config.Default()}
	for _, opt := range opts {
		opt(h)
	}
	if h.remote == "" {
		h.remote = h.cfg.RemoteName
	}

	h.bus = event.NewBus()

	fsOpts := []vfs.Option{
		vfs.WithBus(h.bus),
		vfs.WithReadOnlyScheme(h.cfg.ReadOnlySchemes...),
		vfs.WithRemote(h.remote != ""),
	}
	if h.clock != nil {
		fsOpts = append(fsOpts, vfs.WithClock(h.clock))
	}
	h.fs = vfs.NewMemFS(fsOpts...)

	h.store = filestore.NewStore(h.fs, h.bus, filestore.WithConfig(h.cfg))
	h.workspace = workspace.New(h.fs, h.bus, workspace.WithRemoteName(h.remote))
	h.window = editor.NewWindow(h.bus, h.store)

	log.Debugf("host created (remote %q)", h.remote)
	return h
}

// Bus returns the event bus.
func (h *Host) Bus() *event.Bus { return h.bus }

// Config returns the host configuration merged with the settings of the
// loaded workspace file.
func (h *Host) Config() *config.Config {
	return h.workspace.Config(h.cfg)
}

// FS returns the file system.
func (h *Host) FS() *vfs.MemFS { return h.fs }

// Documents returns the document registry.
func (h *Host) Documents() *filestore.Store { return h.store }

// Workspace returns the workspace folders.
func (h *Host) Workspace() *workspace.Workspace { return h.workspace }

// Window returns the window.
func (h *Host) Window() *editor.Window { return h.window }

// OpenTextDocument opens the document for u.
func (h *Host) OpenTextDocument(u uri.URI) (*filestore.Document, error) {
	return h.store.Open(u)
}

// OpenUntitledTextDocument opens a new untitled document.
func (h *Host) OpenUntitledTextDocument(opts filestore.UntitledOptions) (*filestore.Document, error) {
	return h.store.OpenUntitled(opts)
}

// ShowTextDocument shows doc in the window.
func (h *Host) ShowTextDocument(doc *filestore.Document, opts editor.ShowOptions) (*editor.TextEditor, error) {
	return h.window.ShowTextDocument(doc, opts)
}

// FindFiles returns the files in the workspace folders matching include.
// A zero exclude applies the configured files and search excludes. With no
// folders and a plain include the result is empty. A maxResults of zero
// falls back to the configured cap.
func (h *Host) FindFiles(ctx context.Context, include, exclude search.GlobPattern, maxResults int) ([]uri.URI, error) {
	roots := h.folderURIs()
	if len(roots) == 0 && !include.IsRelative() {
		return nil, nil
	}

	cfg := h.Config()
	finder := search.NewFinder(h.fs,
		search.WithDefaultExcludes(cfg.FindExcludes()),
		search.WithMaxResults(cfg.MaxFindResults),
	)
	return finder.Find(ctx, roots, include, exclude, maxResults)
}

// WatchOptions control CreateFileSystemWatcher.
type WatchOptions struct {
	IgnoreCreate bool
	IgnoreChange bool
	IgnoreDelete bool
}

// CreateFileSystemWatcher creates a watcher for pattern. Plain patterns are
// matched relative to the workspace folders at the time of each event, and
// the configured watcher excludes suppress notifications. Reset disposes
// every watcher.
func (h *Host) CreateFileSystemWatcher(pattern search.GlobPattern, opts WatchOptions) (*watcher.FileSystemWatcher, error) {
	exclude, err := search.CompileAll(h.Config().WatcherExclude)
	if err != nil {
		log.Warningf("watcher excludes: %v", err)
	}

	w, err := watcher.New(h.bus, pattern, watcher.Options{
		IgnoreCreate: opts.IgnoreCreate,
		IgnoreChange: opts.IgnoreChange,
		IgnoreDelete: opts.IgnoreDelete,
		Roots:        h.folderURIs,
		Exclude:      exclude,
	})
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.watchers = append(h.watchers, w)
	h.mu.Unlock()
	return w, nil
}

// SaveAll saves every dirty document. See filestore.Store.SaveAll.
func (h *Host) SaveAll(includeUntitled bool) bool {
	return h.store.SaveAll(includeUntitled)
}

func (h *Host) folderURIs() []uri.URI {
	folders := h.workspace.Folders()
	out := make([]uri.URI, len(folders))
	for i, f := range folders {
		out[i] = f.URI
	}
	return out
}

// Reset returns the host to its initial empty state. Every subscription on
// the bus is severed first so no listener sees the teardown; then the file
// system, documents, folders, editors, terminals, and watchers are
// cleared. Reset is idempotent.
func (h *Host) Reset() {
	h.bus.Reset()

	h.mu.Lock()
	watchers := h.watchers
	h.watchers = nil
	h.mu.Unlock()
	for _, w := range watchers {
		w.Dispose()
	}

	h.fs.Reset()
	h.store.Reset()
	h.workspace.Reset()
	h.window.Reset()

	h.store.Attach()
	h.window.Attach()
	log.Debugf("host reset")
}
