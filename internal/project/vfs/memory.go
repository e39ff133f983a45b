package vfs

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dshills/extsim/internal/event"
	"github.com/dshills/extsim/internal/logging"
	"github.com/dshills/extsim/internal/uri"
)

var log = logging.Get("vfs")

// MemFS implements FileSystem as a tree of nodes held in memory.
//
// MemFS is safe for concurrent use; events are always delivered outside the
// internal lock, so listeners may call back into the file system.
type MemFS struct {
	mu       sync.RWMutex
	volumes  map[string]*node
	bus      *event.Bus
	now      func() time.Time
	remote   bool
	readOnly map[string]bool
}

// node is a file or a directory. Directory children are keyed by name.
type node struct {
	name     string
	dir      bool
	data     []byte
	ctime    time.Time
	mtime    time.Time
	remote   bool
	children map[string]*node
}

// Option configures a MemFS.
type Option func(*MemFS)

// WithBus sets the bus on which file events are fired.
func WithBus(b *event.Bus) Option {
	return func(m *MemFS) { m.bus = b }
}

// WithClock sets the time source used for ctime and mtime.
func WithClock(now func() time.Time) Option {
	return func(m *MemFS) { m.now = now }
}

// WithRemote marks files created by this file system as remote.
func WithRemote(remote bool) Option {
	return func(m *MemFS) { m.remote = remote }
}

// WithReadOnlyScheme makes every mutation on the given schemes fail with
// NoPermissions.
func WithReadOnlyScheme(schemes ...string) Option {
	return func(m *MemFS) {
		for _, s := range schemes {
			m.readOnly[strings.ToLower(s)] = true
		}
	}
}

// NewMemFS creates an empty in-memory file system.
func NewMemFS(opts ...Option) *MemFS {
	m := &MemFS{
		volumes:  make(map[string]*node),
		now:      time.Now,
		readOnly: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.bus == nil {
		m.bus = event.NewBus()
	}
	return m
}

// Ensure MemFS implements FileSystem.
var _ FileSystem = (*MemFS)(nil)

// Bus returns the bus on which file events are fired.
func (m *MemFS) Bus() *event.Bus { return m.bus }

// IsWritableFileSystem reports whether mutations on scheme are allowed.
func (m *MemFS) IsWritableFileSystem(scheme string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.readOnly[strings.ToLower(scheme)]
}

// Reset removes every resource. Event subscriptions are not touched.
func (m *MemFS) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volumes = make(map[string]*node)
}

func volumeKey(u uri.URI) string {
	return u.Scheme() + "://" + u.Authority()
}

// root returns the root directory of u's volume, creating it if asked.
func (m *MemFS) root(u uri.URI, create bool) *node {
	key := volumeKey(u)
	r, ok := m.volumes[key]
	if !ok && create {
		t := m.now()
		r = &node{name: "", dir: true, ctime: t, mtime: t, children: make(map[string]*node)}
		m.volumes[key] = r
	}
	return r
}

// lookup resolves u. It returns nil if any segment is missing or if a file
// is found where a directory is needed.
func (m *MemFS) lookup(u uri.URI) *node {
	n := m.root(u, false)
	if n == nil {
		if u.IsRoot() {
			// Every volume has a root, even before anything was written.
			t := time.Time{}
			return &node{dir: true, ctime: t, mtime: t}
		}
		return nil
	}
	for _, seg := range u.Segments() {
		if !n.dir {
			return nil
		}
		n = n.children[seg]
		if n == nil {
			return nil
		}
	}
	return n
}

// mkdirAll walks from the root to dir, creating missing directories.
// It reports a FileNotADirectory error if a file is in the way.
func (m *MemFS) mkdirAll(dir uri.URI) (*node, error) {
	n := m.root(dir, true)
	cur := dir.WithPath("/")
	for _, seg := range dir.Segments() {
		cur = cur.JoinPath(seg)
		child, ok := n.children[seg]
		if !ok {
			t := m.now()
			child = &node{name: seg, dir: true, ctime: t, mtime: t, children: make(map[string]*node)}
			n.children[seg] = child
			n.mtime = t
		} else if !child.dir {
			return nil, FileNotADirectory(cur)
		}
		n = child
	}
	return n, nil
}

// checkParentPath verifies that no ancestor of u is a file.
func (m *MemFS) checkParentPath(u uri.URI) error {
	n := m.root(u, false)
	if n == nil {
		return nil
	}
	cur := u.WithPath("/")
	segs := u.Segments()
	for _, seg := range segs[:max(len(segs)-1, 0)] {
		cur = cur.JoinPath(seg)
		child, ok := n.children[seg]
		if !ok {
			return nil
		}
		if !child.dir {
			return FileNotADirectory(cur)
		}
		n = child
	}
	return nil
}

func (m *MemFS) checkWritable(u uri.URI) error {
	if m.readOnly[u.Scheme()] {
		return NoPermissions(u, "file system is read-only")
	}
	return nil
}

func statOf(n *node) FileStat {
	if n.dir {
		return FileStat{Type: FileTypeDirectory, CTime: n.ctime, MTime: n.mtime}
	}
	return FileStat{Type: FileTypeFile, Size: int64(len(n.data)), CTime: n.ctime, MTime: n.mtime}
}

// Stat returns metadata for u.
func (m *MemFS) Stat(u uri.URI) (FileStat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := m.lookup(u)
	if n == nil {
		return FileStat{}, FileNotFound(u)
	}
	return statOf(n), nil
}

// IsRemote reports whether the file at u was created in a remote context.
func (m *MemFS) IsRemote(u uri.URI) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := m.lookup(u)
	if n == nil {
		return false, FileNotFound(u)
	}
	return n.remote, nil
}

// ReadDirectory lists the children of u in name order.
func (m *MemFS) ReadDirectory(u uri.URI) ([]DirEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := m.lookup(u)
	if n == nil {
		return nil, FileNotFound(u)
	}
	if !n.dir {
		return nil, FileNotADirectory(u)
	}

	entries := make([]DirEntry, 0, len(n.children))
	for _, name := range sortedNames(n) {
		entries = append(entries, DirEntry{Name: name, Type: statOf(n.children[name]).Type})
	}
	return entries, nil
}

func sortedNames(n *node) []string {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReadFile returns a copy of the content of u.
func (m *MemFS) ReadFile(u uri.URI) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := m.lookup(u)
	if n == nil {
		return nil, FileNotFound(u)
	}
	if n.dir {
		return nil, FileIsADirectory(u)
	}

	content := make([]byte, len(n.data))
	copy(content, n.data)
	return content, nil
}

// WriteFile writes data to u. Create and Overwrite default to true. Missing
// parent directories are created. A new file fires files.willCreate and
// files.didCreate; replacing an existing file fires files.didChange.
func (m *MemFS) WriteFile(u uri.URI, data []byte, opts WriteOptions) error {
	existed, err := m.checkWrite(u, opts)
	if err != nil {
		return err
	}

	if !existed {
		m.fireWillCreate(u)
	}

	m.mu.Lock()
	existed, err = m.checkWriteLocked(u, opts)
	if err == nil {
		err = m.writeLocked(u, data)
	}
	m.mu.Unlock()
	if err != nil {
		return err
	}

	if existed {
		DidChange(m.bus).Fire(FileChangeEvent{Files: []uri.URI{u}})
	} else {
		DidCreate(m.bus).Fire(FileCreateEvent{Files: []uri.URI{u}})
	}
	logging.Tracef(log, "write %s (%d bytes)", u, len(data))
	return nil
}

func (m *MemFS) checkWrite(u uri.URI, opts WriteOptions) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.checkWriteLocked(u, opts)
}

func (m *MemFS) checkWriteLocked(u uri.URI, opts WriteOptions) (bool, error) {
	if err := m.checkWritable(u); err != nil {
		return false, err
	}
	if err := m.checkParentPath(u); err != nil {
		return false, err
	}
	n := m.lookup(u)
	if n != nil && n.dir {
		return true, FileIsADirectory(u)
	}
	if n == nil && !orTrue(opts.Create) {
		return false, FileNotFound(u)
	}
	if n != nil && !orTrue(opts.Overwrite) {
		return true, FileExists(u)
	}
	return n != nil, nil
}

func (m *MemFS) writeLocked(u uri.URI, data []byte) error {
	parent, err := m.mkdirAll(u.Dir())
	if err != nil {
		return err
	}

	content := make([]byte, len(data))
	copy(content, data)
	t := m.now()

	name := u.Base()
	if n, ok := parent.children[name]; ok {
		n.data = content
		n.mtime = t
		return nil
	}
	parent.children[name] = &node{name: name, data: content, ctime: t, mtime: t, remote: m.remote}
	parent.mtime = t
	return nil
}

// CreateDirectory creates u and any missing ancestors. It does nothing if
// u already is a directory.
func (m *MemFS) CreateDirectory(u uri.URI) error {
	exists, err := m.checkMkdir(u)
	if err != nil || exists {
		return err
	}

	m.fireWillCreate(u)

	m.mu.Lock()
	exists, err = m.checkMkdirLocked(u)
	if err == nil && !exists {
		_, err = m.mkdirAll(u)
	}
	m.mu.Unlock()
	if err != nil || exists {
		return err
	}

	DidCreate(m.bus).Fire(FileCreateEvent{Files: []uri.URI{u}})
	return nil
}

func (m *MemFS) checkMkdir(u uri.URI) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.checkMkdirLocked(u)
}

func (m *MemFS) checkMkdirLocked(u uri.URI) (bool, error) {
	if err := m.checkWritable(u); err != nil {
		return false, err
	}
	if err := m.checkParentPath(u); err != nil {
		return false, err
	}
	if n := m.lookup(u); n != nil {
		if n.dir {
			return true, nil
		}
		return false, FileExists(u)
	}
	return false, nil
}

// Delete removes u. A missing resource is a no-op. Deleting a non-empty
// directory requires Recursive; deleting a root is never allowed.
func (m *MemFS) Delete(u uri.URI, opts DeleteOptions) error {
	exists, err := m.checkDelete(u, opts)
	if err != nil || !exists {
		return err
	}

	WillDelete(m.bus).Fire(FileDeleteEvent{Files: []uri.URI{u}})

	m.mu.Lock()
	exists, err = m.checkDeleteLocked(u, opts)
	if err == nil && exists {
		m.detachLocked(u)
	}
	m.mu.Unlock()
	if err != nil || !exists {
		return err
	}

	DidDelete(m.bus).Fire(FileDeleteEvent{Files: []uri.URI{u}})
	logging.Tracef(log, "delete %s (recursive=%v, trash=%v)", u, opts.Recursive, opts.UseTrash)
	return nil
}

func (m *MemFS) checkDelete(u uri.URI, opts DeleteOptions) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.checkDeleteLocked(u, opts)
}

func (m *MemFS) checkDeleteLocked(u uri.URI, opts DeleteOptions) (bool, error) {
	if err := m.checkWritable(u); err != nil {
		return false, err
	}
	if u.IsRoot() {
		return false, NoPermissions(u, "cannot delete the root directory")
	}
	n := m.lookup(u)
	if n == nil {
		return false, nil
	}
	if n.dir && len(n.children) > 0 && !opts.Recursive {
		return true, NoPermissions(u, "directory not empty")
	}
	return true, nil
}

// detachLocked removes u from its parent and returns the removed node.
func (m *MemFS) detachLocked(u uri.URI) *node {
	parent := m.lookup(u.Dir())
	if parent == nil || !parent.dir {
		return nil
	}
	n := parent.children[u.Base()]
	delete(parent.children, u.Base())
	parent.mtime = m.now()
	return n
}

// Rename moves oldURI to newURI, creating missing parents of newURI.
func (m *MemFS) Rename(oldURI, newURI uri.URI, opts RenameOptions) error {
	if err := m.checkMove("rename", oldURI, newURI, opts.Overwrite); err != nil {
		return err
	}
	if oldURI.Equal(newURI) {
		return nil
	}

	pair := []RenamePair{{OldURI: oldURI, NewURI: newURI}}
	WillRename(m.bus).Fire(FileRenameEvent{Files: pair})

	m.mu.Lock()
	err := m.checkMoveLocked("rename", oldURI, newURI, opts.Overwrite)
	if err == nil {
		err = m.moveLocked(oldURI, newURI)
	}
	m.mu.Unlock()
	if err != nil {
		return err
	}

	DidRename(m.bus).Fire(FileRenameEvent{Files: pair})
	logging.Tracef(log, "rename %s -> %s", oldURI, newURI)
	return nil
}

// Copy duplicates src at dst. The source is left untouched.
func (m *MemFS) Copy(src, dst uri.URI, opts CopyOptions) error {
	if err := m.checkMove("copy", src, dst, opts.Overwrite); err != nil {
		return err
	}
	if src.Equal(dst) {
		return nil
	}

	m.fireWillCreate(dst)

	m.mu.Lock()
	err := m.checkMoveLocked("copy", src, dst, opts.Overwrite)
	if err == nil {
		err = m.copyLocked(src, dst)
	}
	m.mu.Unlock()
	if err != nil {
		return err
	}

	DidCreate(m.bus).Fire(FileCreateEvent{Files: []uri.URI{dst}})
	logging.Tracef(log, "copy %s -> %s", src, dst)
	return nil
}

func (m *MemFS) checkMove(op string, src, dst uri.URI, overwrite bool) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.checkMoveLocked(op, src, dst, overwrite)
}

func (m *MemFS) checkMoveLocked(op string, src, dst uri.URI, overwrite bool) error {
	if err := m.checkWritable(dst); err != nil {
		return err
	}
	if op == "rename" {
		if err := m.checkWritable(src); err != nil {
			return err
		}
		if src.IsRoot() {
			return NoPermissions(src, "cannot rename the root directory")
		}
	}
	if m.lookup(src) == nil {
		return FileNotFound(src)
	}
	if src.Equal(dst) {
		if op == "copy" && !overwrite {
			return FileExists(dst)
		}
		return nil
	}
	if src.Encloses(dst) {
		return NoPermissions(dst, "cannot "+op+" a directory into itself")
	}
	if err := m.checkParentPath(dst); err != nil {
		return err
	}
	if target := m.lookup(dst); target != nil {
		if !overwrite {
			return FileExists(dst)
		}
		if dst.IsRoot() {
			return NoPermissions(dst, "cannot replace the root directory")
		}
	}
	return nil
}

// attachLocked places n at dst, replacing whatever was there.
func (m *MemFS) attachLocked(n *node, dst uri.URI) error {
	parent, err := m.mkdirAll(dst.Dir())
	if err != nil {
		return err
	}
	if parent == nil || !parent.dir {
		panic("vfs: parent of " + dst.String() + " missing after creation")
	}
	n.name = dst.Base()
	parent.children[n.name] = n
	parent.mtime = m.now()
	return nil
}

func (m *MemFS) moveLocked(src, dst uri.URI) error {
	n := m.detachLocked(src)
	if n == nil {
		panic("vfs: rename source " + src.String() + " vanished")
	}
	if err := m.attachLocked(n, dst); err != nil {
		// Put the subtree back so a failed rename leaves the tree intact.
		if restoreErr := m.attachLocked(n, src); restoreErr != nil {
			panic("vfs: cannot restore " + src.String() + ": " + restoreErr.Error())
		}
		return err
	}
	return nil
}

func (m *MemFS) copyLocked(src, dst uri.URI) error {
	n := m.lookup(src)
	return m.attachLocked(m.cloneNode(n), dst)
}

// cloneNode deep-copies n, depth first, stamping new creation times.
func (m *MemFS) cloneNode(n *node) *node {
	t := m.now()
	c := &node{name: n.name, dir: n.dir, ctime: t, mtime: t, remote: m.remote}
	if n.dir {
		c.children = make(map[string]*node, len(n.children))
		for _, name := range sortedNames(n) {
			c.children[name] = m.cloneNode(n.children[name])
		}
		return c
	}
	c.data = make([]byte, len(n.data))
	copy(c.data, n.data)
	return c
}

func (m *MemFS) fireWillCreate(u uri.URI) {
	WillCreate(m.bus).Fire(FileCreateEvent{Files: []uri.URI{u}})
}
