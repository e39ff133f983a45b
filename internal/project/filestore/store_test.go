package filestore

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dshills/extsim/internal/config"
	"github.com/dshills/extsim/internal/engine/buffer"
	"github.com/dshills/extsim/internal/event"
	"github.com/dshills/extsim/internal/project/vfs"
	"github.com/dshills/extsim/internal/uri"
)

type fixture struct {
	bus   *event.Bus
	fs    *vfs.MemFS
	store *Store
	rec   *event.Recorder
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	bus := event.NewBus()
	fs := vfs.NewMemFS(vfs.WithBus(bus))
	f := &fixture{
		bus:   bus,
		fs:    fs,
		store: NewStore(fs, bus, opts...),
		rec:   event.NewRecorder(bus, "**"),
	}
	t.Cleanup(f.rec.Dispose)
	return f
}

func (f *fixture) write(t *testing.T, p, content string) uri.URI {
	t.Helper()
	u := uri.File(p)
	if err := f.fs.WriteFile(u, []byte(content), vfs.WriteOptions{}); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return u
}

func TestStore_Open(t *testing.T) {
	f := newFixture(t)
	u := f.write(t, "/src/main.go", "package main\n")
	f.rec.Clear()

	doc, err := f.store.Open(u)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if doc.GetText() != "package main\n" {
		t.Errorf("content: got %q", doc.GetText())
	}
	if doc.Version() != 1 || doc.IsDirty() || doc.IsClosed() {
		t.Errorf("state: version=%d dirty=%v closed=%v", doc.Version(), doc.IsDirty(), doc.IsClosed())
	}
	if doc.LanguageID() != "go" {
		t.Errorf("language: got %q, want %q", doc.LanguageID(), "go")
	}
	if doc.FileName() != "/src/main.go" {
		t.Errorf("file name: got %q", doc.FileName())
	}
	if got := f.rec.Names(); !reflect.DeepEqual(got, []event.Name{event.DocumentsDidOpen}) {
		t.Errorf("events: %v", got)
	}

	again, err := f.store.Open(u)
	if err != nil || again != doc {
		t.Errorf("second Open should return the same instance (%v)", err)
	}
	if f.rec.Count(event.DocumentsDidOpen) != 1 {
		t.Error("second Open should not fire didOpen")
	}
}

func TestStore_OpenErrors(t *testing.T) {
	f := newFixture(t, WithMaxFileSize(8))
	f.write(t, "/dir/x.txt", "x")
	f.write(t, "/big.txt", "0123456789")
	if err := f.fs.WriteFile(uri.File("/bin"), []byte{0, 1, 2}, vfs.WriteOptions{}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		want error
	}{
		{"/missing.txt", vfs.ErrFileNotFound},
		{"/dir", vfs.ErrFileIsADirectory},
		{"/big.txt", ErrFileTooLarge},
		{"/bin", ErrBinaryFile},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := f.store.Open(uri.File(tt.path))
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
			var de *DocumentError
			if !errors.As(err, &de) || de.Op != "open" {
				t.Errorf("expected DocumentError for open, got %T", err)
			}
		})
	}
}

func TestStore_CloseAndReopen(t *testing.T) {
	f := newFixture(t)
	u := f.write(t, "/a.txt", "one")

	doc, _ := f.store.Open(u)
	if !f.store.Close(u) {
		t.Fatal("Close should report true")
	}
	if f.store.Close(u) {
		t.Error("closing twice should report false")
	}
	if !doc.IsClosed() || f.store.IsOpen(u) {
		t.Error("document should be closed")
	}
	if got, ok := f.store.Get(u); !ok || got != doc {
		t.Error("closed document should stay queryable")
	}
	if doc.GetText() != "one" {
		t.Errorf("closed content: %q", doc.GetText())
	}

	f.write(t, "/a.txt", "two")
	again, err := f.store.Open(u)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if again != doc {
		t.Fatal("reopen must revive the same instance")
	}
	if doc.IsClosed() || doc.Version() != 2 || doc.GetText() != "two" {
		t.Errorf("reopened: closed=%v version=%d text=%q", doc.IsClosed(), doc.Version(), doc.GetText())
	}
	if n := f.rec.Count(event.DocumentsDidOpen); n != 2 {
		t.Errorf("didOpen count: got %d, want 2", n)
	}
}

func TestStore_OpenUntitled(t *testing.T) {
	f := newFixture(t)

	first, _ := f.store.OpenUntitled(UntitledOptions{})
	second, _ := f.store.OpenUntitled(UntitledOptions{Content: "draft", LanguageID: "markdown"})

	if first.URI().String() != "untitled:Untitled-1" || second.URI().String() != "untitled:Untitled-2" {
		t.Errorf("names: %s %s", first.URI(), second.URI())
	}
	if !second.IsUntitled() || second.LanguageID() != "markdown" || !second.IsDirty() {
		t.Errorf("untitled state: lang=%q dirty=%v", second.LanguageID(), second.IsDirty())
	}
	if first.IsDirty() {
		t.Error("empty untitled document should be clean")
	}

	saved, err := second.Save()
	if saved || err != nil {
		t.Errorf("Save of untitled: saved=%v err=%v", saved, err)
	}

	same, _ := f.store.Open(second.URI())
	if same != second {
		t.Error("opening an untitled URI should return the live document")
	}
}

func TestDocument_ApplyEditsInsert(t *testing.T) {
	f := newFixture(t)
	u := f.write(t, "/abc.txt", "abc")
	doc, _ := f.store.Open(u)
	f.rec.Clear()

	if err := doc.ApplyEdits([]buffer.TextEdit{buffer.Insert(buffer.Pos(0, 3), "def")}); err != nil {
		t.Fatalf("ApplyEdits failed: %v", err)
	}

	if doc.GetText() != "abcdef" || doc.Version() != 2 || !doc.IsDirty() {
		t.Errorf("after edit: text=%q version=%d dirty=%v", doc.GetText(), doc.Version(), doc.IsDirty())
	}

	changes := event.PayloadsOf[ChangeEvent](f.rec, event.DocumentsDidChange)
	if len(changes) != 1 {
		t.Fatalf("expected one change event, got %d", len(changes))
	}
	c := changes[0]
	if c.Document != doc || c.Reason != ReasonEdit || len(c.ContentChanges) != 1 {
		t.Fatalf("change event: %+v", c)
	}
	if c.ContentChanges[0].Range != buffer.Rng(0, 0, 0, 3) || c.ContentChanges[0].Text != "abcdef" {
		t.Errorf("content change: %+v", c.ContentChanges[0])
	}

	// The file is untouched until save.
	data, _ := f.fs.ReadFile(u)
	if string(data) != "abc" {
		t.Errorf("file changed before save: %q", data)
	}
}

func TestDocument_ApplyEditsEdgeCases(t *testing.T) {
	f := newFixture(t)
	u := f.write(t, "/e.txt", "x")
	doc, _ := f.store.Open(u)

	if err := doc.ApplyEdits(nil); err != nil {
		t.Errorf("no edits: %v", err)
	}
	if doc.Version() != 1 || f.rec.Count(event.DocumentsDidChange) != 0 {
		t.Error("no edits must not bump the version or fire")
	}

	f.store.Close(u)
	err := doc.ApplyEdits([]buffer.TextEdit{buffer.Insert(buffer.Pos(0, 0), "y")})
	if !errors.Is(err, ErrDocumentClosed) {
		t.Errorf("expected ErrDocumentClosed, got %v", err)
	}
	if doc.GetText() != "x" {
		t.Errorf("closed document changed: %q", doc.GetText())
	}
}

func TestDocument_Save(t *testing.T) {
	f := newFixture(t)
	u := f.write(t, "/s.txt", "a")
	doc, _ := f.store.Open(u)
	_ = doc.ApplyEdits([]buffer.TextEdit{buffer.Insert(buffer.Pos(0, 1), "b")})
	f.rec.Clear()

	saved, err := doc.Save()
	if err != nil || !saved {
		t.Fatalf("Save: saved=%v err=%v", saved, err)
	}
	if doc.IsDirty() {
		t.Error("document should be clean after save")
	}
	data, _ := f.fs.ReadFile(u)
	if string(data) != "ab" {
		t.Errorf("file: got %q, want %q", data, "ab")
	}

	want := []event.Name{event.DocumentsWillSave, event.FilesDidChange, event.DocumentsDidSave}
	if got := f.rec.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("events: got %v, want %v", got, want)
	}
	if doc.Version() != 2 {
		t.Errorf("saving must not bump the version: %d", doc.Version())
	}

	f.store.Close(u)
	if saved, _ := doc.Save(); saved {
		t.Error("closed document should not save")
	}
}

func TestDocument_SaveKeepsEncoding(t *testing.T) {
	f := newFixture(t)
	u := uri.File("/bom.txt")
	data, _ := vfs.EncodeText("hi", vfs.EncodingUTF8BOM)
	if err := f.fs.WriteFile(u, data, vfs.WriteOptions{}); err != nil {
		t.Fatal(err)
	}

	doc, _ := f.store.Open(u)
	if doc.GetText() != "hi" || doc.Encoding() != vfs.EncodingUTF8BOM {
		t.Fatalf("decoded: %q %v", doc.GetText(), doc.Encoding())
	}
	_ = doc.ApplyEdits([]buffer.TextEdit{buffer.Insert(buffer.Pos(0, 2), "!")})
	if _, err := doc.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	out, _ := f.fs.ReadFile(u)
	if vfs.DetectEncoding(out) != vfs.EncodingUTF8BOM || string(out[3:]) != "hi!" {
		t.Errorf("saved bytes: % x", out)
	}
}

func TestStore_SaveAll(t *testing.T) {
	f := newFixture(t)
	a, _ := f.store.Open(f.write(t, "/a.txt", "a"))
	b, _ := f.store.Open(f.write(t, "/b.txt", "b"))
	_, _ = f.store.OpenUntitled(UntitledOptions{Content: "u"})

	_ = a.ApplyEdits([]buffer.TextEdit{buffer.Insert(buffer.Pos(0, 0), "1")})
	_ = b.ApplyEdits([]buffer.TextEdit{buffer.Insert(buffer.Pos(0, 0), "2")})

	if !f.store.SaveAll(false) {
		t.Error("SaveAll(false) should succeed")
	}
	if len(f.store.DirtyDocuments()) != 1 {
		t.Errorf("only the untitled document should stay dirty: %d", len(f.store.DirtyDocuments()))
	}
	if f.store.SaveAll(true) {
		t.Error("SaveAll(true) cannot save untitled documents")
	}
}

func TestStore_FollowsFileChanges(t *testing.T) {
	f := newFixture(t)
	u := f.write(t, "/f.txt", "old")
	doc, _ := f.store.Open(u)
	f.rec.Clear()

	f.write(t, "/f.txt", "new")
	if doc.GetText() != "new" || doc.Version() != 2 || doc.IsDirty() {
		t.Errorf("reload: text=%q version=%d dirty=%v", doc.GetText(), doc.Version(), doc.IsDirty())
	}
	changes := event.PayloadsOf[ChangeEvent](f.rec, event.DocumentsDidChange)
	if len(changes) != 1 || changes[0].Reason != ReasonReload {
		t.Errorf("change events: %+v", changes)
	}

	// Same content: nothing happens.
	f.write(t, "/f.txt", "new")
	if doc.Version() != 2 {
		t.Errorf("identical write bumped the version to %d", doc.Version())
	}
}

func TestStore_FollowsDelete(t *testing.T) {
	f := newFixture(t)
	u := f.write(t, "/dir/f.txt", "x")
	doc, _ := f.store.Open(u)

	if err := f.fs.Delete(uri.File("/dir"), vfs.DeleteOptions{Recursive: true}); err != nil {
		t.Fatal(err)
	}
	if !doc.IsClosed() {
		t.Error("deleting the parent directory should close the document")
	}
	if f.rec.Count(event.DocumentsDidClose) != 1 {
		t.Errorf("didClose count: %d", f.rec.Count(event.DocumentsDidClose))
	}
}

func TestStore_FollowsRename(t *testing.T) {
	f := newFixture(t)
	oldURI := f.write(t, "/old/f.go", "package f")
	doc, _ := f.store.Open(oldURI)
	f.rec.Clear()

	var closedAt uri.URI
	DidClose(f.bus).Subscribe(func(d *Document) { closedAt = d.URI() })

	if err := f.fs.Rename(uri.File("/old"), uri.File("/new"), vfs.RenameOptions{}); err != nil {
		t.Fatal(err)
	}

	newURI := uri.File("/new/f.go")
	if !doc.URI().Equal(newURI) {
		t.Errorf("URI: got %s, want %s", doc.URI(), newURI)
	}
	if got, ok := f.store.Get(newURI); !ok || got != doc {
		t.Error("document should be keyed by the new URI")
	}
	if _, ok := f.store.Get(oldURI); ok {
		t.Error("old key should be gone")
	}
	if !closedAt.Equal(oldURI) {
		t.Errorf("didClose saw %s, want %s", closedAt, oldURI)
	}

	// Records are taken when an event fires, before its listeners run.
	want := []event.Name{event.FilesWillRename, event.FilesDidRename, event.DocumentsDidClose, event.DocumentsDidOpen}
	if got := f.rec.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("events: got %v, want %v", got, want)
	}
}

func TestStore_ConfigLanguageAndEOL(t *testing.T) {
	cfg := config.Default()
	cfg.FileAssociations["*.tmpl"] = "gotmpl"
	cfg.DefaultEOL = "crlf"
	f := newFixture(t, WithConfig(cfg))

	doc, _ := f.store.Open(f.write(t, "/page.tmpl", "one line"))
	if doc.LanguageID() != "gotmpl" {
		t.Errorf("language: got %q", doc.LanguageID())
	}
	if doc.EOL() != buffer.CRLF {
		t.Errorf("EOL: got %v, want CRLF", doc.EOL())
	}

	other, _ := f.store.Open(f.write(t, "/x.unknown", ""))
	if other.LanguageID() != "plaintext" {
		t.Errorf("fallback language: got %q", other.LanguageID())
	}
}

func TestStore_AttachAfterReset(t *testing.T) {
	f := newFixture(t)
	u := f.write(t, "/r.txt", "a")
	doc, _ := f.store.Open(u)

	f.bus.Reset()
	f.write(t, "/r.txt", "b")
	if doc.GetText() != "a" {
		t.Error("a reset bus should no longer drive the store")
	}

	f.store.Attach()
	f.write(t, "/r.txt", "c")
	if doc.GetText() != "c" {
		t.Errorf("after Attach: got %q", doc.GetText())
	}
}

func TestStore_Reset(t *testing.T) {
	f := newFixture(t)
	_, _ = f.store.Open(f.write(t, "/a.txt", "a"))
	_, _ = f.store.OpenUntitled(UntitledOptions{})

	f.store.Reset()
	if len(f.store.AllDocuments()) != 0 {
		t.Error("Reset should forget every document")
	}
	doc, _ := f.store.OpenUntitled(UntitledOptions{})
	if doc.URI().String() != "untitled:Untitled-1" {
		t.Errorf("untitled counter not reset: %s", doc.URI())
	}
}
