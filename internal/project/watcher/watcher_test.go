package watcher

import (
	"errors"
	"reflect"
	"testing"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/extsim/internal/event"
	"github.com/dshills/extsim/internal/project/search"
	"github.com/dshills/extsim/internal/project/vfs"
	"github.com/dshills/extsim/internal/uri"
)

type collected struct {
	created, changed, deleted []string
}

func watch(t *testing.T, w *FileSystemWatcher) *collected {
	t.Helper()
	c := &collected{}
	w.OnDidCreate(func(u uri.URI) { c.created = append(c.created, u.Path()) })
	w.OnDidChange(func(u uri.URI) { c.changed = append(c.changed, u.Path()) })
	w.OnDidDelete(func(u uri.URI) { c.deleted = append(c.deleted, u.Path()) })
	return c
}

func newTestFS() (*vfs.MemFS, *event.Bus) {
	bus := event.NewBus()
	return vfs.NewMemFS(vfs.WithBus(bus)), bus
}

func write(t *testing.T, fs vfs.FileSystem, p, content string) {
	t.Helper()
	if err := fs.WriteFile(uri.File(p), []byte(content), vfs.WriteOptions{}); err != nil {
		t.Fatalf("WriteFile(%s) failed: %v", p, err)
	}
}

func TestWatcher_Notifications(t *testing.T) {
	fs, bus := newTestFS()
	w, err := New(bus, search.Glob("**/*.ts"), Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Dispose()
	c := watch(t, w)

	write(t, fs, "/src/a.ts", "1")
	write(t, fs, "/src/a.ts", "2")
	write(t, fs, "/src/b.js", "x")
	if err := fs.Rename(uri.File("/src/a.ts"), uri.File("/src/c.ts"), vfs.RenameOptions{}); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if err := fs.Delete(uri.File("/src/c.ts"), vfs.DeleteOptions{}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if want := []string{"/src/a.ts", "/src/c.ts"}; !reflect.DeepEqual(c.created, want) {
		t.Errorf("created: got %v, want %v", c.created, want)
	}
	if want := []string{"/src/a.ts"}; !reflect.DeepEqual(c.changed, want) {
		t.Errorf("changed: got %v, want %v", c.changed, want)
	}
	if want := []string{"/src/a.ts", "/src/c.ts"}; !reflect.DeepEqual(c.deleted, want) {
		t.Errorf("deleted: got %v, want %v", c.deleted, want)
	}

	wantEvents := []fsnotify.Event{
		{Name: "/src/a.ts", Op: fsnotify.Create},
		{Name: "/src/a.ts", Op: fsnotify.Write},
		{Name: "/src/a.ts", Op: fsnotify.Rename},
		{Name: "/src/c.ts", Op: fsnotify.Create},
		{Name: "/src/c.ts", Op: fsnotify.Remove},
	}
	if got := w.Events(); !reflect.DeepEqual(got, wantEvents) {
		t.Errorf("Events: got %v, want %v", got, wantEvents)
	}
}

func TestWatcher_IgnoreFlags(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		created int
		changed int
		deleted int
	}{
		{"none", Options{}, 1, 1, 1},
		{"create", Options{IgnoreCreate: true}, 0, 1, 1},
		{"change", Options{IgnoreChange: true}, 1, 0, 1},
		{"delete", Options{IgnoreDelete: true}, 1, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, bus := newTestFS()
			w, err := New(bus, search.Glob("**"), tt.opts)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			defer w.Dispose()
			c := watch(t, w)

			write(t, fs, "/f", "1")
			write(t, fs, "/f", "2")
			fs.Delete(uri.File("/f"), vfs.DeleteOptions{})

			if len(c.created) != tt.created || len(c.changed) != tt.changed || len(c.deleted) != tt.deleted {
				t.Errorf("got %d/%d/%d, want %d/%d/%d",
					len(c.created), len(c.changed), len(c.deleted), tt.created, tt.changed, tt.deleted)
			}
		})
	}
}

func TestWatcher_RelativePattern(t *testing.T) {
	fs, bus := newTestFS()
	w, err := New(bus, search.RelativePattern(uri.File("/ws/src"), "*.go"), Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Dispose()
	c := watch(t, w)

	write(t, fs, "/ws/src/main.go", "")
	write(t, fs, "/ws/src/sub/x.go", "")
	write(t, fs, "/other/src/main.go", "")

	if want := []string{"/ws/src/main.go"}; !reflect.DeepEqual(c.created, want) {
		t.Errorf("got %v, want %v", c.created, want)
	}
}

func TestWatcher_RootsAndExclude(t *testing.T) {
	fs, bus := newTestFS()
	exclude, err := search.CompileAll([]string{"**/node_modules/**"})
	if err != nil {
		t.Fatalf("CompileAll failed: %v", err)
	}
	w, err := New(bus, search.Glob("src/*.go"), Options{
		Roots:   func() []uri.URI { return []uri.URI{uri.File("/ws")} },
		Exclude: exclude,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Dispose()
	c := watch(t, w)

	write(t, fs, "/ws/src/a.go", "")
	write(t, fs, "/src/b.go", "")
	write(t, fs, "/ws/node_modules/src/c.go", "")
	write(t, fs, "/ws/lib/src/d.go", "")

	if want := []string{"/ws/src/a.go", "/src/b.go"}; !reflect.DeepEqual(c.created, want) {
		t.Errorf("got %v, want %v", c.created, want)
	}
}

func TestWatcher_Dispose(t *testing.T) {
	fs, bus := newTestFS()
	w, err := New(bus, search.Glob("**"), Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	c := watch(t, w)

	w.Dispose()
	w.Dispose()
	if !w.IsDisposed() {
		t.Error("IsDisposed should be true")
	}

	write(t, fs, "/a", "")
	if len(c.created) != 0 || len(w.Events()) != 0 {
		t.Error("a disposed watcher should not notify")
	}
	if n := bus.ListenerCount(event.FilesDidCreate); n != 0 {
		t.Errorf("bus listeners: got %d, want 0", n)
	}
}

func TestWatcher_BadPattern(t *testing.T) {
	_, bus := newTestFS()
	if _, err := New(bus, search.Glob("[x"), Options{}); !errors.Is(err, search.ErrBadPattern) {
		t.Errorf("got %v, want ErrBadPattern", err)
	}
}
