package vfs

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"golang.org/x/tools/txtar"

	"github.com/dshills/extsim/internal/event"
	"github.com/dshills/extsim/internal/uri"
)

func newTestFS(t *testing.T, opts ...Option) (*MemFS, *event.Recorder) {
	t.Helper()
	bus := event.NewBus()
	fs := NewMemFS(append([]Option{WithBus(bus)}, opts...)...)
	rec := event.NewRecorder(bus, "files.*")
	t.Cleanup(rec.Dispose)
	return fs, rec
}

func mustWrite(t *testing.T, fs FileSystem, p, content string) {
	t.Helper()
	if err := fs.WriteFile(uri.File(p), []byte(content), WriteOptions{}); err != nil {
		t.Fatalf("WriteFile(%s) failed: %v", p, err)
	}
}

func TestMemFS_WriteCreatesParents(t *testing.T) {
	fs, _ := newTestFS(t)

	mustWrite(t, fs, "/a/b/c/file.txt", "content")

	for _, dir := range []string{"/a", "/a/b", "/a/b/c"} {
		if !IsDirectory(fs, uri.File(dir)) {
			t.Errorf("%s should be a directory", dir)
		}
	}
	st, err := fs.Stat(uri.File("/a/b/c/file.txt"))
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if st.Type != FileTypeFile || st.Size != 7 {
		t.Errorf("stat: got %+v", st)
	}
}

func TestMemFS_DirectoryLifecycle(t *testing.T) {
	fs, _ := newTestFS(t)
	d := uri.File("/d/")

	if err := fs.CreateDirectory(d); err != nil {
		t.Fatalf("CreateDirectory failed: %v", err)
	}
	mustWrite(t, fs, "/d/a.txt", "x")

	entries, err := fs.ReadDirectory(d)
	if err != nil {
		t.Fatalf("ReadDirectory failed: %v", err)
	}
	want := []DirEntry{{Name: "a.txt", Type: FileTypeFile}}
	if !reflect.DeepEqual(entries, want) {
		t.Errorf("got %v, want %v", entries, want)
	}

	err = fs.Delete(d, DeleteOptions{Recursive: false})
	if !errors.Is(err, ErrNoPermissions) {
		t.Fatalf("expected NoPermissions, got %v", err)
	}
	if err.Error() != "directory not empty (file:///d)" {
		t.Errorf("message: got %q", err.Error())
	}

	if err := fs.Delete(d, DeleteOptions{Recursive: true}); err != nil {
		t.Fatalf("recursive Delete failed: %v", err)
	}
	if _, err := fs.Stat(d); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("expected FileNotFound, got %v", err)
	}
}

func TestMemFS_ReadErrors(t *testing.T) {
	fs, _ := newTestFS(t)
	mustWrite(t, fs, "/dir/file", "x")

	tests := []struct {
		name string
		call func() error
		code Code
	}{
		{"read missing", func() error { _, err := fs.ReadFile(uri.File("/nope")); return err }, CodeFileNotFound},
		{"read directory", func() error { _, err := fs.ReadFile(uri.File("/dir")); return err }, CodeFileIsADirectory},
		{"list file", func() error { _, err := fs.ReadDirectory(uri.File("/dir/file")); return err }, CodeFileNotADirectory},
		{"list missing", func() error { _, err := fs.ReadDirectory(uri.File("/other")); return err }, CodeFileNotFound},
		{"stat through file", func() error { _, err := fs.Stat(uri.File("/dir/file/x")); return err }, CodeFileNotFound},
		{"write through file", func() error {
			return fs.WriteFile(uri.File("/dir/file/x"), nil, WriteOptions{})
		}, CodeFileNotADirectory},
		{"write onto directory", func() error {
			return fs.WriteFile(uri.File("/dir"), nil, WriteOptions{})
		}, CodeFileIsADirectory},
		{"write without create", func() error {
			return fs.WriteFile(uri.File("/dir/new"), nil, WriteOptions{Create: Bool(false)})
		}, CodeFileNotFound},
		{"write without overwrite", func() error {
			return fs.WriteFile(uri.File("/dir/file"), nil, WriteOptions{Overwrite: Bool(false)})
		}, CodeFileExists},
		{"mkdir over file", func() error { return fs.CreateDirectory(uri.File("/dir/file")) }, CodeFileExists},
		{"delete root", func() error { return fs.Delete(uri.File("/"), DeleteOptions{Recursive: true}) }, CodeNoPermissions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if got := CodeOf(err); got != tt.code {
				t.Errorf("got %v (%v), want %v", got, err, tt.code)
			}
		})
	}
}

func TestMemFS_ReadFileReturnsCopy(t *testing.T) {
	fs, _ := newTestFS(t)
	mustWrite(t, fs, "/test.txt", "original")

	content, err := fs.ReadFile(uri.File("/test.txt"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	content[0] = 'X'

	content2, _ := fs.ReadFile(uri.File("/test.txt"))
	if string(content2) != "original" {
		t.Errorf("internal data was modified: got %q", content2)
	}
}

func TestMemFS_WriteEvents(t *testing.T) {
	fs, rec := newTestFS(t)
	u := uri.File("/w.txt")

	mustWrite(t, fs, "/w.txt", "1")
	mustWrite(t, fs, "/w.txt", "2")

	want := []event.Name{event.FilesWillCreate, event.FilesDidCreate, event.FilesDidChange}
	if got := rec.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	created := event.PayloadsOf[FileCreateEvent](rec, event.FilesDidCreate)
	if len(created) != 1 || !created[0].Files[0].Equal(u) {
		t.Errorf("didCreate payload: %+v", created)
	}
}

func TestMemFS_FailedOperationsFireNothing(t *testing.T) {
	fs, rec := newTestFS(t)
	mustWrite(t, fs, "/f", "x")
	rec.Clear()

	_ = fs.WriteFile(uri.File("/f"), nil, WriteOptions{Overwrite: Bool(false)})
	_ = fs.Rename(uri.File("/missing"), uri.File("/g"), RenameOptions{})
	_ = fs.Delete(uri.File("/missing"), DeleteOptions{})
	_ = fs.CreateDirectory(uri.File("/"))

	if n := len(rec.Records()); n != 0 {
		t.Errorf("expected no events, got %v", rec.Names())
	}
}

func TestMemFS_WillListenerSeesOldState(t *testing.T) {
	fs, _ := newTestFS(t)
	mustWrite(t, fs, "/gone.txt", "x")

	var existedBefore, existedAfter bool
	WillDelete(fs.Bus()).Subscribe(func(e FileDeleteEvent) {
		existedBefore = Exists(fs, e.Files[0])
	})
	DidDelete(fs.Bus()).Subscribe(func(e FileDeleteEvent) {
		existedAfter = Exists(fs, e.Files[0])
	})

	if err := fs.Delete(uri.File("/gone.txt"), DeleteOptions{}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !existedBefore || existedAfter {
		t.Errorf("before=%v after=%v", existedBefore, existedAfter)
	}
}

func TestMemFS_RenameDirectory(t *testing.T) {
	fs, rec := newTestFS(t)
	mustWrite(t, fs, "/src/a/one.txt", "1")
	mustWrite(t, fs, "/src/two.txt", "2")
	rec.Clear()

	if err := fs.Rename(uri.File("/src"), uri.File("/x/y/dst"), RenameOptions{}); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	if Exists(fs, uri.File("/src")) {
		t.Error("source should be gone")
	}
	content, err := fs.ReadFile(uri.File("/x/y/dst/a/one.txt"))
	if err != nil || string(content) != "1" {
		t.Errorf("moved file: %q, %v", content, err)
	}

	want := []event.Name{event.FilesWillRename, event.FilesDidRename}
	if got := rec.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestMemFS_RenameRules(t *testing.T) {
	fs, rec := newTestFS(t)
	mustWrite(t, fs, "/a.txt", "a")
	mustWrite(t, fs, "/b.txt", "b")
	mustWrite(t, fs, "/dir/c.txt", "c")
	rec.Clear()

	if err := fs.Rename(uri.File("/a.txt"), uri.File("/b.txt"), RenameOptions{}); !errors.Is(err, ErrFileExists) {
		t.Errorf("expected FileExists, got %v", err)
	}
	if err := fs.Rename(uri.File("/dir"), uri.File("/dir/sub"), RenameOptions{}); !errors.Is(err, ErrNoPermissions) {
		t.Errorf("expected NoPermissions, got %v", err)
	}
	if err := fs.Rename(uri.File("/a.txt"), uri.File("/a.txt"), RenameOptions{}); err != nil {
		t.Errorf("rename onto itself: %v", err)
	}
	if len(rec.Records()) != 0 {
		t.Errorf("unexpected events %v", rec.Names())
	}

	if err := fs.Rename(uri.File("/a.txt"), uri.File("/b.txt"), RenameOptions{Overwrite: true}); err != nil {
		t.Fatalf("Rename with overwrite failed: %v", err)
	}
	content, _ := fs.ReadFile(uri.File("/b.txt"))
	if string(content) != "a" {
		t.Errorf("got %q, want %q", content, "a")
	}
}

func TestMemFS_Copy(t *testing.T) {
	fs, rec := newTestFS(t)
	mustWrite(t, fs, "/src/f.txt", "data")
	rec.Clear()

	if err := fs.Copy(uri.File("/src"), uri.File("/dst"), CopyOptions{}); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	content, err := fs.ReadFile(uri.File("/dst/f.txt"))
	if err != nil || string(content) != "data" {
		t.Errorf("copied file: %q, %v", content, err)
	}
	if !Exists(fs, uri.File("/src/f.txt")) {
		t.Error("source should remain")
	}

	// The copy is independent of the source.
	mustWrite(t, fs, "/dst/f.txt", "changed")
	content, _ = fs.ReadFile(uri.File("/src/f.txt"))
	if string(content) != "data" {
		t.Errorf("source changed: %q", content)
	}

	if err := fs.Copy(uri.File("/src"), uri.File("/dst"), CopyOptions{}); !errors.Is(err, ErrFileExists) {
		t.Errorf("expected FileExists, got %v", err)
	}
	if err := fs.Copy(uri.File("/src"), uri.File("/src"), CopyOptions{}); !errors.Is(err, ErrFileExists) {
		t.Errorf("expected FileExists for same path, got %v", err)
	}

	if n := rec.Count(event.FilesDidCreate); n != 1 {
		t.Errorf("didCreate count: got %d, want 1", n)
	}
}

func TestMemFS_DeleteMissingIsNoop(t *testing.T) {
	fs, rec := newTestFS(t)
	if err := fs.Delete(uri.File("/nothing"), DeleteOptions{Recursive: true}); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
	if len(rec.Records()) != 0 {
		t.Errorf("unexpected events %v", rec.Names())
	}
}

func TestMemFS_CreateDirectoryExisting(t *testing.T) {
	fs, rec := newTestFS(t)
	if err := fs.CreateDirectory(uri.File("/d")); err != nil {
		t.Fatalf("CreateDirectory failed: %v", err)
	}
	if err := fs.CreateDirectory(uri.File("/d")); err != nil {
		t.Errorf("second CreateDirectory failed: %v", err)
	}
	if n := rec.Count(event.FilesDidCreate); n != 1 {
		t.Errorf("didCreate count: got %d, want 1", n)
	}
}

func TestMemFS_ReadOnlyScheme(t *testing.T) {
	fs, _ := newTestFS(t, WithReadOnlyScheme("git"))
	u := uri.From("git", "/repo/a.txt")

	if err := fs.WriteFile(u, []byte("x"), WriteOptions{}); !errors.Is(err, ErrNoPermissions) {
		t.Errorf("expected NoPermissions, got %v", err)
	}
	if fs.IsWritableFileSystem("git") || !fs.IsWritableFileSystem("file") {
		t.Error("IsWritableFileSystem mismatch")
	}
}

func TestMemFS_SchemesAreSeparate(t *testing.T) {
	fs, _ := newTestFS(t)
	mustWrite(t, fs, "/a.txt", "file")
	if err := fs.WriteFile(uri.From("mem", "/a.txt"), []byte("mem"), WriteOptions{}); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	content, _ := fs.ReadFile(uri.File("/a.txt"))
	if string(content) != "file" {
		t.Errorf("got %q, want %q", content, "file")
	}
	if _, err := fs.Stat(uri.From("other", "/")); err != nil {
		t.Errorf("root of an unused volume should exist: %v", err)
	}
}

func TestMemFS_ClockAndRemote(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	fs, _ := newTestFS(t, WithClock(func() time.Time { return now }), WithRemote(true))
	mustWrite(t, fs, "/r.txt", "x")

	st, _ := fs.Stat(uri.File("/r.txt"))
	if !st.CTime.Equal(now) || !st.MTime.Equal(now) {
		t.Errorf("times: %v %v", st.CTime, st.MTime)
	}
	remote, err := fs.IsRemote(uri.File("/r.txt"))
	if err != nil || !remote {
		t.Errorf("IsRemote: %v, %v", remote, err)
	}
}

func TestMemFS_ListenerMayReenter(t *testing.T) {
	fs, _ := newTestFS(t)
	DidCreate(fs.Bus()).Subscribe(func(e FileCreateEvent) {
		if e.Files[0].Base() == "a.txt" {
			mustWrite(t, fs, "/b.txt", "from listener")
		}
	})

	mustWrite(t, fs, "/a.txt", "x")
	if !Exists(fs, uri.File("/b.txt")) {
		t.Error("listener write should have succeeded")
	}
}

func TestMemFS_ConcurrentAccess(t *testing.T) {
	fs, _ := newTestFS(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := fmt.Sprintf("/c/file%d.txt", i)
			for j := 0; j < 20; j++ {
				_ = fs.WriteFile(uri.File(p), []byte("data"), WriteOptions{})
				_, _ = fs.ReadFile(uri.File(p))
				_, _ = fs.ReadDirectory(uri.File("/c"))
			}
		}(i)
	}
	wg.Wait()

	entries, err := fs.ReadDirectory(uri.File("/c"))
	if err != nil || len(entries) != 10 {
		t.Errorf("entries: %d, %v", len(entries), err)
	}
}

func TestMemFS_Reset(t *testing.T) {
	fs, _ := newTestFS(t)
	mustWrite(t, fs, "/a.txt", "x")
	fs.Reset()
	if Exists(fs, uri.File("/a.txt")) {
		t.Error("Reset should remove files")
	}
}

func TestWalk(t *testing.T) {
	fs, _ := newTestFS(t)
	mustWrite(t, fs, "/w/b.txt", "")
	mustWrite(t, fs, "/w/a/deep.txt", "")
	mustWrite(t, fs, "/w/skip/hidden.txt", "")

	var visited []string
	err := Walk(context.Background(), fs, uri.File("/w"), func(u uri.URI, rel string, typ FileType) error {
		visited = append(visited, rel)
		if rel == "skip" {
			return SkipDir
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	want := []string{"", "a", "b.txt", "skip", "a/deep.txt"}
	if !reflect.DeepEqual(visited, want) {
		t.Errorf("got %v, want %v", visited, want)
	}
}

func TestWalk_Cancelled(t *testing.T) {
	fs, _ := newTestFS(t)
	mustWrite(t, fs, "/w/a.txt", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Walk(ctx, fs, uri.File("/w"), func(uri.URI, string, FileType) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestArchive_RoundTrip(t *testing.T) {
	fs, _ := newTestFS(t)
	ar := txtar.Parse([]byte(`fixture
-- src/main.go --
package main
-- README.md --
hello
-- empty/ --
`))

	base := uri.File("/proj")
	if err := LoadArchive(fs, base, ar); err != nil {
		t.Fatalf("LoadArchive failed: %v", err)
	}
	content, err := fs.ReadFile(uri.File("/proj/src/main.go"))
	if err != nil || string(content) != "package main\n" {
		t.Errorf("main.go: %q, %v", content, err)
	}
	if !IsDirectory(fs, uri.File("/proj/empty")) {
		t.Error("empty/ should be a directory")
	}

	snap, err := Snapshot(context.Background(), fs, base)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	var names []string
	for _, f := range snap.Files {
		names = append(names, f.Name)
	}
	want := []string{"README.md", "empty/", "src/main.go"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("got %v, want %v", names, want)
	}
}
