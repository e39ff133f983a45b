// Package workspace tracks the folders opened in the extension host.
//
// The folder list drives the workspace type: no folders is None, one folder
// is Single, and more than one is Multi. A workspace file forces Multi
// regardless of the folder count. Every structural change fires at most one
// workspace.didChangeFolders event carrying the folders added and removed.
package workspace

import (
	"errors"
	"strings"
	"sync"

	"github.com/dshills/extsim/internal/event"
	"github.com/dshills/extsim/internal/logging"
	"github.com/dshills/extsim/internal/project/vfs"
	"github.com/dshills/extsim/internal/uri"
)

var log = logging.Get("workspace")

// Common errors.
var (
	ErrInvalidFile = errors.New("invalid workspace file")
	ErrNoFile      = errors.New("workspace has no file")
)

// Type classifies the workspace.
type Type int

const (
	TypeNone Type = iota
	TypeSingle
	TypeMulti
	TypeRemote
	TypeUntitled
)

// String returns a readable name for the type.
func (t Type) String() string {
	switch t {
	case TypeSingle:
		return "single"
	case TypeMulti:
		return "multi"
	case TypeRemote:
		return "remote"
	case TypeUntitled:
		return "untitled"
	default:
		return "none"
	}
}

// Folder is a workspace folder.
type Folder struct {
	URI   uri.URI
	Name  string
	Index int
}

// FolderSpec names a folder to add. An empty Name defaults to the last
// path segment of the URI.
type FolderSpec struct {
	URI  uri.URI
	Name string
}

// FoldersChangeEvent is the payload of workspace.didChangeFolders.
type FoldersChangeEvent struct {
	Added   []Folder
	Removed []Folder
}

// DidChangeFolders returns the workspace.didChangeFolders channel of b.
func DidChangeFolders(b *event.Bus) *event.Emitter[FoldersChangeEvent] {
	return event.Channel[FoldersChangeEvent](b, event.WorkspaceDidChangeFolders)
}

// Workspace holds the folder list and the optional workspace file.
type Workspace struct {
	mu sync.RWMutex

	fs     vfs.FileSystem
	bus    *event.Bus
	remote string

	folders  []Folder
	file     uri.URI
	settings []byte
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithRemoteName makes a workspace with folders report TypeRemote.
func WithRemoteName(name string) Option {
	return func(w *Workspace) {
		w.remote = name
	}
}

// New creates an empty workspace. Candidate folders are validated against
// fsys and changes are announced on bus.
func New(fsys vfs.FileSystem, bus *event.Bus, opts ...Option) *Workspace {
	w := &Workspace{
		fs:  fsys,
		bus: bus,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// RemoteName returns the remote name, or "" for a local workspace.
func (w *Workspace) RemoteName() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.remote
}

// Type returns the workspace type.
func (w *Workspace) Type() Type {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.typeLocked()
}

func (w *Workspace) typeLocked() Type {
	var t Type
	switch {
	case !w.file.IsZero() && w.file.IsUntitled():
		return TypeUntitled
	case !w.file.IsZero():
		t = TypeMulti
	case len(w.folders) == 0:
		return TypeNone
	case len(w.folders) == 1:
		t = TypeSingle
	default:
		t = TypeMulti
	}
	if w.remote != "" {
		return TypeRemote
	}
	return t
}

// Name returns the display name of the workspace.
func (w *Workspace) Name() string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.typeLocked() == TypeNone {
		return ""
	}

	var name string
	switch {
	case !w.file.IsZero() && !w.file.IsUntitled():
		name = strings.TrimSuffix(w.file.Base(), FileExt) + " (Workspace)"
	case w.file.IsZero() && len(w.folders) == 1:
		name = w.folders[0].Name
	default:
		name = "Untitled (Workspace)"
	}
	if w.remote != "" && !w.file.IsUntitled() {
		name += " [" + w.remote + "]"
	}
	return name
}

// Folders returns a copy of the folder list, or nil when the workspace type
// is None.
func (w *Workspace) Folders() []Folder {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.typeLocked() == TypeNone {
		return nil
	}
	out := make([]Folder, len(w.folders))
	copy(out, w.folders)
	return out
}

// HasFolders reports whether at least one folder is open.
func (w *Workspace) HasFolders() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.folders) > 0
}

// WorkspaceFile returns the workspace file, or the zero URI when there is
// none.
func (w *Workspace) WorkspaceFile() uri.URI {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.file
}

// AddFolder appends the folder at u. It reports false, changing nothing,
// when u is not an existing directory or is already a folder.
func (w *Workspace) AddFolder(u uri.URI, name string) bool {
	w.mu.RLock()
	current := w.folders
	file := w.file
	w.mu.RUnlock()

	if indexOf(current, u) >= 0 {
		log.Debugf("add folder %s: already open", u)
		return false
	}
	added := w.validate([]FolderSpec{{URI: u, Name: name}})
	if len(added) == 0 {
		return false
	}

	next := make([]Folder, 0, len(current)+1)
	next = append(next, current...)
	next = append(next, added...)
	return w.commit(next, file)
}

// RemoveFolder removes the folder at u. It reports false when u is not a
// folder. Dropping below two folders clears the workspace file.
func (w *Workspace) RemoveFolder(u uri.URI) bool {
	w.mu.RLock()
	current := w.folders
	file := w.file
	w.mu.RUnlock()

	i := indexOf(current, u)
	if i < 0 {
		return false
	}

	next := make([]Folder, 0, len(current)-1)
	next = append(next, current[:i]...)
	next = append(next, current[i+1:]...)
	if len(next) < 2 {
		file = uri.URI{}
	}
	return w.commit(next, file)
}

// SetFolders replaces the folder list and the workspace file. Invalid and
// duplicate candidates are skipped. A non-zero file keeps the workspace
// Multi even with a single folder. SetFolders reports whether anything
// changed.
func (w *Workspace) SetFolders(specs []FolderSpec, file uri.URI) bool {
	return w.commit(w.validate(specs), file)
}

// UpdateFolders removes deleteCount folders starting at start and inserts
// adds in their place. It reports false, changing nothing, when the range is
// out of bounds or when the result is unchanged.
func (w *Workspace) UpdateFolders(start, deleteCount int, adds ...FolderSpec) bool {
	w.mu.RLock()
	current := w.folders
	file := w.file
	w.mu.RUnlock()

	if start < 0 || deleteCount < 0 || start+deleteCount > len(current) {
		log.Warningf("update folders: range [%d,%d) out of bounds for %d folders", start, start+deleteCount, len(current))
		return false
	}

	kept := make([]Folder, 0, len(current)-deleteCount)
	kept = append(kept, current[:start]...)
	kept = append(kept, current[start+deleteCount:]...)

	var fresh []FolderSpec
	for _, a := range adds {
		if indexOf(kept, a.URI) >= 0 {
			log.Debugf("update folders %s: already open", a.URI)
			continue
		}
		fresh = append(fresh, a)
	}
	added := w.validate(fresh)

	next := make([]Folder, 0, len(kept)+len(added))
	next = append(next, kept[:start]...)
	next = append(next, added...)
	next = append(next, kept[start:]...)
	if len(next) < 2 {
		file = uri.URI{}
	}
	return w.commit(next, file)
}

// GetFolderFor returns the deepest folder containing u.
func (w *Workspace) GetFolderFor(u uri.URI) (Folder, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var best Folder
	found := false
	for _, f := range w.folders {
		if !f.URI.Encloses(u) {
			continue
		}
		if !found || len(f.URI.Path()) > len(best.URI.Path()) {
			best, found = f, true
		}
	}
	return best, found
}

// AsRelativePath returns the path of u relative to its folder, prefixed
// with the folder name when includeFolderName is set. A URI outside every
// folder is returned as its path (file scheme) or its string form.
func (w *Workspace) AsRelativePath(u uri.URI, includeFolderName bool) string {
	f, ok := w.GetFolderFor(u)
	if ok {
		if rel, _ := f.URI.Rel(u); rel != "" {
			if includeFolderName {
				return f.Name + "/" + rel
			}
			return rel
		}
	}
	if u.IsFile() {
		return u.Path()
	}
	return u.String()
}

// Reset removes every folder and the workspace file without firing events.
func (w *Workspace) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.folders = nil
	w.file = uri.URI{}
	w.settings = nil
}

// validate turns specs into folders, dropping duplicates and anything that
// is not an existing directory. Indexes are left for commit.
func (w *Workspace) validate(specs []FolderSpec) []Folder {
	seen := make(map[string]bool, len(specs))
	var out []Folder
	for _, s := range specs {
		key := s.URI.Key()
		if seen[key] {
			log.Debugf("folder %s: duplicate", s.URI)
			continue
		}
		st, err := w.fs.Stat(s.URI)
		if err != nil {
			log.Infof("folder %s skipped: %v", s.URI, err)
			continue
		}
		if !st.Type.IsDirectory() {
			log.Infof("folder %s skipped: not a directory", s.URI)
			continue
		}
		seen[key] = true

		name := s.Name
		if name == "" {
			name = folderName(s.URI)
		}
		out = append(out, Folder{URI: s.URI, Name: name})
	}
	return out
}

// commit installs next and file, then fires one change event when the
// folder URIs or the file identity changed. It reports whether it fired.
func (w *Workspace) commit(next []Folder, file uri.URI) bool {
	return w.commitFile(next, file, false, nil)
}

// commitFile is commit for a loaded workspace file: when loaded is set,
// settings are installed with the folders, before the event fires.
// Otherwise a new file identity drops the current settings.
func (w *Workspace) commitFile(next []Folder, file uri.URI, loaded bool, settings []byte) bool {
	for i := range next {
		next[i].Index = i
	}

	w.mu.Lock()
	prev := w.folders
	fileChanged := !w.file.Equal(file)
	w.folders = next
	w.file = file
	switch {
	case loaded:
		w.settings = settings
	case fileChanged:
		w.settings = nil
	}
	w.mu.Unlock()

	ev := diff(prev, next)
	if len(ev.Added) == 0 && len(ev.Removed) == 0 && !fileChanged {
		return false
	}
	log.Debugf("folders changed: +%d -%d", len(ev.Added), len(ev.Removed))
	DidChangeFolders(w.bus).Fire(ev)
	return true
}

func diff(prev, next []Folder) FoldersChangeEvent {
	var ev FoldersChangeEvent
	for _, f := range next {
		if indexOf(prev, f.URI) < 0 {
			ev.Added = append(ev.Added, f)
		}
	}
	for _, f := range prev {
		if indexOf(next, f.URI) < 0 {
			ev.Removed = append(ev.Removed, f)
		}
	}
	return ev
}

func indexOf(folders []Folder, u uri.URI) int {
	for i, f := range folders {
		if f.URI.Equal(u) {
			return i
		}
	}
	return -1
}

func folderName(u uri.URI) string {
	if u.IsRoot() || u.Path() == "" {
		if u.Authority() != "" {
			return u.Authority()
		}
		return u.String()
	}
	return u.Base()
}
