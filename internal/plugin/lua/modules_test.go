package lua

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/dshills/extsim/internal/project"
	"github.com/dshills/extsim/internal/project/vfs"
	"github.com/dshills/extsim/internal/uri"
)

const fixture = `
-- w/src/a.ts --
export const a = 1;
-- w/src/b.js --
b
-- w/node_modules/dep/index.ts --
x
-- w/t.txt --
abc
`

// newScenario returns a state over a host holding the fixture with /w as
// its only folder.
func newScenario(t *testing.T) (*State, *project.Host, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	state, h := newTestState(t, WithOutput(&out))
	if err := vfs.LoadArchive(h.FS(), uri.File("/"), txtar.Parse([]byte(fixture))); err != nil {
		t.Fatalf("LoadArchive failed: %v", err)
	}
	if !h.Workspace().AddFolder(uri.File("/w"), "") {
		t.Fatal("AddFolder failed")
	}
	return state, h, &out
}

func run(t *testing.T, state *State, code string) {
	t.Helper()
	if err := state.DoString(context.Background(), code); err != nil {
		t.Fatalf("script failed: %v", err)
	}
}

func TestFS(t *testing.T) {
	state, h, out := newScenario(t)

	run(t, state, `
		assert(ext.fs.write("/w/new/x.txt", "hello"))
		assert(ext.fs.read("/w/new/x.txt") == "hello")
		assert(ext.fs.exists("file:///w/new"))

		local st = ext.fs.stat("/w/new/x.txt")
		assert(st.is_file and not st.is_directory and st.size == 5)

		local ok, msg, code = ext.fs.read("/w/missing")
		assert(ok == nil and code == "FileNotFound", msg)

		ok, msg, code = ext.fs.write("/w/t.txt", "x", {overwrite = false})
		assert(ok == nil and code == "FileExists", msg)

		ok, msg, code = ext.fs.delete("/w/src")
		assert(ok == nil and code == "NoPermissions", msg)
		assert(ext.fs.delete("/w/src", {recursive = true}))

		assert(ext.fs.copy("/w/t.txt", "/w/u.txt"))
		assert(ext.fs.rename("/w/u.txt", "/w/v.txt"))
		assert(ext.fs.mkdir("/w/empty"))

		for _, e in ipairs(ext.fs.readdir("/w")) do
			print(e.name, e.type)
		end
	`)

	want := "empty\tDirectory\nnew\tDirectory\nnode_modules\tDirectory\nt.txt\tFile\nv.txt\tFile\n"
	if got := out.String(); got != want {
		t.Errorf("readdir output:\n%s\nwant:\n%s", got, want)
	}
	if vfs.Exists(h.FS(), uri.File("/w/src")) {
		t.Error("src should be deleted")
	}
}

func TestFS_LoadAndSnapshot(t *testing.T) {
	state, _ := newTestState(t)
	run(t, state, `
		assert(ext.fs.load("-- a.txt --\nA\n-- d/b.txt --\nB\n", "/root"))
		snap = ext.fs.snapshot("/root")
	`)
	got, _ := state.Global("snap").(string)
	if want := "-- a.txt --\nA\n-- d/b.txt --\nB\n"; got != want {
		t.Errorf("snapshot = %q, want %q", got, want)
	}
}

func TestWorkspace(t *testing.T) {
	state, h, out := newScenario(t)

	run(t, state, `
		local ws = ext.workspace
		assert(ws.type() == "single")
		assert(ws.name() == "w")

		for _, u in ipairs(ws.find_files("**/*.ts")) do print(u) end
		for _, u in ipairs(ws.find_files({base = "/w/src", pattern = "*.js"})) do print(u) end
		assert(#ws.find_files("**/*", nil, 1) == 1)

		assert(not ws.add_folder("/w"), "already open")
		assert(not ws.add_folder("/other"), "missing directory")
		assert(ext.fs.mkdir("/other"))
		assert(ws.add_folder("/other", "Other"))
		assert(ws.type() == "multi")
		assert(ws.folders()[2].name == "Other")
		assert(ws.folder_for("/w/src/a.ts").uri == "file:///w")
		assert(ws.as_relative_path("/w/src/a.ts", false) == "src/a.ts")

		assert(ws.update_folders(1, 1))
		assert(#ws.folders() == 1)
		assert(ws.remove_folder("/w"))
		assert(ws.type() == "none")
	`)

	want := "file:///w/src/a.ts\nfile:///w/src/b.js\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if h.Workspace().Folders() != nil {
		t.Error("folders should be empty")
	}
}

func TestWorkspace_File(t *testing.T) {
	state, h, _ := newScenario(t)

	run(t, state, `
		assert(ext.fs.write("/w/p.code-workspace",
			'{"folders": [{"path": "."}], "settings": {"editor.tabSize": 2}}'))
		assert(ext.workspace.load_file("/w/p.code-workspace"))
		assert(ext.workspace.setting("editor.tabSize") == 2)
		assert(ext.workspace.setting("missing") == nil)

		local ok, msg, code = ext.workspace.load_file("/w/nope.code-workspace")
		assert(ok == nil and code == "FileNotFound", msg)
	`)

	if got := h.Workspace().WorkspaceFile(); got.String() != "file:///w/p.code-workspace" {
		t.Errorf("WorkspaceFile() = %v", got)
	}
}

func TestWorkspace_ApplyEdit(t *testing.T) {
	state, h, _ := newScenario(t)

	run(t, state, `
		ok = ext.workspace.apply_edit({
			{create = "/w/c.txt", contents = "12"},
			{uri = "/w/c.txt", range = ext.range(0, 2, 0, 2), text = "3"},
			{uri = "/w/t.txt", range = {0, 0, 0, 1}, text = "A"},
			{rename = "/w/src/b.js", to = "/w/src/b2.js"},
			{delete = "/w/gone", ignore_if_not_exists = true},
		})
	`)
	if ok, _ := state.Global("ok").(bool); !ok {
		t.Fatal("apply_edit returned false")
	}

	tests := []struct{ path, want string }{
		{"/w/c.txt", "123"},
		{"/w/t.txt", "Abc\n"},
		{"/w/src/b2.js", "b\n"},
	}
	for _, tt := range tests {
		data, err := h.FS().ReadFile(uri.File(tt.path))
		if err != nil {
			t.Fatalf("ReadFile(%s) failed: %v", tt.path, err)
		}
		if string(data) != tt.want {
			t.Errorf("%s = %q, want %q", tt.path, data, tt.want)
		}
	}

	err := state.DoString(context.Background(), `ext.workspace.apply_edit({{nothing = true}})`)
	if err == nil || !strings.Contains(err.Error(), "entry 1") {
		t.Errorf("malformed entry error = %v", err)
	}
}

func TestWorkspace_Watch(t *testing.T) {
	state, _, out := newScenario(t)

	run(t, state, `
		local w = ext.workspace.watch("**/*.ts", {ignore_change = true})
		w.on_create(function(u) print("create", u) end)
		w.on_delete(function(u) print("delete", u) end)

		ext.fs.write("/w/src/c.ts", "c")
		ext.fs.write("/w/src/c.ts", "cc")
		ext.fs.write("/w/src/c.js", "c")
		ext.fs.delete("/w/src/c.ts")

		assert(#w.events() == 2)
		w.dispose()
		ext.fs.write("/w/src/d.ts", "d")
	`)

	want := "create\tfile:///w/src/c.ts\ndelete\tfile:///w/src/c.ts\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

// An editor inserts "def" at the end of "abc" and saves.
func TestDocuments_EditScenario(t *testing.T) {
	state, h, out := newScenario(t)

	run(t, state, `
		local docs = ext.documents
		local doc = docs.open("/w/t.txt")
		assert(doc.version == 1 and not doc.is_dirty)

		doc = docs.edit("/w/t.txt", {{range = ext.range(0, 3, 0, 3), text = "def"}})
		assert(doc.version == 2 and doc.is_dirty)
		print(docs.text("/w/t.txt"))
		print(docs.text("/w/t.txt", ext.range(0, 1, 0, 4)))
		assert(#docs.dirty() == 1)

		assert(docs.offset_at("/w/t.txt", ext.pos(1, 0)) == 7)
		assert(docs.position_at("/w/t.txt", 2).character == 2)
		assert(docs.line("/w/t.txt", 0).text == "abcdef")

		assert(docs.save("/w/t.txt"))
		assert(not docs.get("/w/t.txt").is_dirty)
		assert(docs.close("/w/t.txt"))
		assert(docs.get("/w/t.txt").is_closed)
		assert(#docs.list() == 0)

		local u = docs.open_untitled({content = "x", language = "go"})
		assert(u.is_untitled and u.language_id == "go")
		assert(not docs.save_all(true))
	`)

	if got := out.String(); got != "abcdef\n\nbcd\n" {
		t.Errorf("output = %q", got)
	}
	data, _ := h.FS().ReadFile(uri.File("/w/t.txt"))
	if string(data) != "abcdef\n" {
		t.Errorf("saved = %q", data)
	}
}

func TestDocuments_Errors(t *testing.T) {
	state, _, _ := newScenario(t)

	run(t, state, `
		local ok, msg, code = ext.documents.open("/w/missing.txt")
		assert(ok == nil and code == "FileNotFound", msg)

		ok, msg = ext.documents.line("/w/t.txt", 10)
		assert(ok == nil and msg ~= nil)
	`)

	err := state.DoString(context.Background(), `ext.documents.edit("/w/t.txt", {{text = "x"}})`)
	if err == nil || !strings.Contains(err.Error(), "missing range") {
		t.Errorf("edit without range error = %v", err)
	}
}

func TestWindow(t *testing.T) {
	state, h, _ := newScenario(t)

	run(t, state, `
		local win = ext.window
		assert(win.active() == nil)

		local ed = win.show("/w/t.txt")
		assert(ed.view_column == 1)
		assert(win.active().document.uri == "file:///w/t.txt")

		assert(win.edit({{range = ext.range(0, 0, 0, 0), text = ">"}}))
		assert(win.select(ext.range(0, 1, 0, 2)))
		assert(win.active().selection.active.character == 2)

		win.show("/w/src/a.ts", {column = "beside"})
		assert(#win.visible() == 2)

		local t1 = win.open_terminal("one")
		local t2 = win.open_terminal("two")
		assert(win.active_terminal().id == t2.id)
		assert(win.close_terminal(t2.id))
		assert(not win.close_terminal(t2.id))
		assert(#win.terminals() == 1)
	`)

	doc, ok := h.Documents().Get(uri.File("/w/t.txt"))
	if !ok || doc.GetText() != ">abc\n" {
		t.Errorf("document after window edit: %v", doc)
	}
}

func TestEvents(t *testing.T) {
	state, h, out := newScenario(t)

	run(t, state, `
		local seen = 0
		local handle = ext.events.on("files.*", function(channel, payload, seq)
			seen = seen + 1
			print(channel, payload.files[1])
		end)
		ext.events.on("documents.didChange", function(channel, payload)
			print(channel, payload.document.version, payload.content_changes[1].text)
		end)

		ext.fs.write("/w/e.txt", "e")
		handle:dispose()
		ext.fs.write("/w/f.txt", "f")
		assert(seen == 2)

		ext.documents.edit("/w/e.txt", {{range = ext.range(0, 1, 0, 1), text = "!"}})

		local names = {}
		for _, c in ipairs(ext.events.channels()) do names[c] = true end
		assert(names["files.didCreate"])
	`)

	want := "files.willCreate\tfile:///w/e.txt\n" +
		"files.didCreate\tfile:///w/e.txt\n" +
		"documents.didChange\t2\te!\n"
	if got := out.String(); got != want {
		t.Errorf("output:\n%s\nwant:\n%s", got, want)
	}

	if h.Bus().TapCount() != 1 {
		t.Errorf("TapCount() = %d, want 1", h.Bus().TapCount())
	}
}

func TestReset(t *testing.T) {
	state, h, out := newScenario(t)

	run(t, state, `
		ext.events.on("**", function(channel) print(channel) end)
		ext.documents.open("/w/t.txt")
		ext.reset()
		assert(not ext.fs.exists("/w"))
		assert(ext.workspace.type() == "none")
		assert(#ext.documents.list() == 0)
		ext.fs.write("/x.txt", "x")
	`)

	if got := out.String(); got != "documents.didOpen\n" {
		t.Errorf("output = %q, listeners should not survive reset", got)
	}
	if h.Bus().TapCount() != 0 {
		t.Errorf("TapCount() = %d after reset", h.Bus().TapCount())
	}
}
