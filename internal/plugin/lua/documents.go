package lua

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/extsim/internal/project"
	"github.com/dshills/extsim/internal/project/filestore"
)

// documentsModule implements ext.documents. Documents are addressed by URI;
// calls return snapshot tables, never live handles.
type documentsModule struct {
	host   *project.Host
	bridge *Bridge
}

func (m *documentsModule) Name() string { return "documents" }

func (m *documentsModule) Register(L *lua.LState, ext *lua.LTable) error {
	mod := L.NewTable()

	L.SetField(mod, "open", L.NewFunction(m.open))
	L.SetField(mod, "open_untitled", L.NewFunction(m.openUntitled))
	L.SetField(mod, "get", L.NewFunction(m.get))
	L.SetField(mod, "text", L.NewFunction(m.text))
	L.SetField(mod, "line", L.NewFunction(m.line))
	L.SetField(mod, "offset_at", L.NewFunction(m.offsetAt))
	L.SetField(mod, "position_at", L.NewFunction(m.positionAt))
	L.SetField(mod, "edit", L.NewFunction(m.edit))
	L.SetField(mod, "save", L.NewFunction(m.save))
	L.SetField(mod, "save_all", L.NewFunction(m.saveAll))
	L.SetField(mod, "close", L.NewFunction(m.close))
	L.SetField(mod, "list", L.NewFunction(m.list))
	L.SetField(mod, "dirty", L.NewFunction(m.dirty))

	L.SetField(ext, m.Name(), mod)
	return nil
}

// lookup returns the document for argument n, opening it when needed.
func (m *documentsModule) lookup(L *lua.LState, n int) (*filestore.Document, error) {
	u := m.bridge.CheckURI(L, n)
	if doc, ok := m.host.Documents().Get(u); ok && !doc.IsClosed() {
		return doc, nil
	}
	return m.host.OpenTextDocument(u)
}

// open(uri) -> document
func (m *documentsModule) open(L *lua.LState) int {
	doc, err := m.host.OpenTextDocument(m.bridge.CheckURI(L, 1))
	if err != nil {
		return PushError(L, err)
	}
	L.Push(m.bridge.DocumentTable(doc))
	return 1
}

// open_untitled({content=, language=}) -> document
func (m *documentsModule) openUntitled(L *lua.LState) int {
	opts := L.OptTable(1, nil)
	var uo filestore.UntitledOptions
	if opts != nil {
		uo.Content = lua.LVAsString(opts.RawGetString("content"))
		uo.LanguageID = lua.LVAsString(opts.RawGetString("language"))
	}
	doc, err := m.host.OpenUntitledTextDocument(uo)
	if err != nil {
		return PushError(L, err)
	}
	L.Push(m.bridge.DocumentTable(doc))
	return 1
}

// get(uri) -> document | nil
// Unlike open it never loads a document.
func (m *documentsModule) get(L *lua.LState) int {
	doc, ok := m.host.Documents().Get(m.bridge.CheckURI(L, 1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(m.bridge.DocumentTable(doc))
	return 1
}

// text(uri, range) -> string
func (m *documentsModule) text(L *lua.LState) int {
	doc, err := m.lookup(L, 1)
	if err != nil {
		return PushError(L, err)
	}
	if L.GetTop() >= 2 {
		L.Push(lua.LString(doc.GetTextInRange(m.bridge.CheckRange(L, 2))))
		return 1
	}
	L.Push(lua.LString(doc.GetText()))
	return 1
}

// line(uri, n) -> {text=, range=, is_empty_or_whitespace=}
func (m *documentsModule) line(L *lua.LState) int {
	doc, err := m.lookup(L, 1)
	if err != nil {
		return PushError(L, err)
	}
	tl, err := doc.LineAt(L.CheckInt(2))
	if err != nil {
		return PushError(L, err)
	}
	L.Push(m.bridge.ToLuaValue(tl))
	return 1
}

// offset_at(uri, position) -> number
func (m *documentsModule) offsetAt(L *lua.LState) int {
	doc, err := m.lookup(L, 1)
	if err != nil {
		return PushError(L, err)
	}
	L.Push(lua.LNumber(doc.OffsetAt(m.bridge.CheckPosition(L, 2))))
	return 1
}

// position_at(uri, offset) -> position
func (m *documentsModule) positionAt(L *lua.LState) int {
	doc, err := m.lookup(L, 1)
	if err != nil {
		return PushError(L, err)
	}
	L.Push(m.bridge.PositionTable(doc.PositionAt(L.CheckInt(2))))
	return 1
}

// edit(uri, {{range=, text=}, ...}) -> document
// The edits apply atomically against the current text.
func (m *documentsModule) edit(L *lua.LState) int {
	doc, err := m.lookup(L, 1)
	if err != nil {
		return PushError(L, err)
	}
	edits, err := m.bridge.TextEdits(L.CheckTable(2))
	if err != nil {
		L.ArgError(2, err.Error())
	}
	if err := doc.ApplyEdits(edits); err != nil {
		return PushError(L, err)
	}
	L.Push(m.bridge.DocumentTable(doc))
	return 1
}

// save(uri) -> bool
func (m *documentsModule) save(L *lua.LState) int {
	ok, err := m.host.Documents().Save(m.bridge.CheckURI(L, 1))
	if err != nil {
		return PushError(L, err)
	}
	L.Push(lua.LBool(ok))
	return 1
}

// save_all(include_untitled) -> bool
func (m *documentsModule) saveAll(L *lua.LState) int {
	L.Push(lua.LBool(m.host.SaveAll(L.OptBool(1, false))))
	return 1
}

// close(uri) -> bool
func (m *documentsModule) close(L *lua.LState) int {
	L.Push(lua.LBool(m.host.Documents().Close(m.bridge.CheckURI(L, 1))))
	return 1
}

// list() -> {document, ...}
func (m *documentsModule) list(L *lua.LState) int {
	L.Push(m.documentList(L, m.host.Documents().Documents()))
	return 1
}

// dirty() -> {document, ...}
func (m *documentsModule) dirty(L *lua.LState) int {
	L.Push(m.documentList(L, m.host.Documents().DirtyDocuments()))
	return 1
}

func (m *documentsModule) documentList(L *lua.LState, docs []*filestore.Document) *lua.LTable {
	tbl := L.NewTable()
	for i, doc := range docs {
		tbl.RawSetInt(i+1, m.bridge.DocumentTable(doc))
	}
	return tbl
}
