package lua

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/extsim/internal/editor"
	"github.com/dshills/extsim/internal/engine/buffer"
	"github.com/dshills/extsim/internal/project"
)

// windowModule implements ext.window.
type windowModule struct {
	host   *project.Host
	bridge *Bridge
}

func (m *windowModule) Name() string { return "window" }

func (m *windowModule) Register(L *lua.LState, ext *lua.LTable) error {
	mod := L.NewTable()

	// Editors
	L.SetField(mod, "show", L.NewFunction(m.show))
	L.SetField(mod, "active", L.NewFunction(m.active))
	L.SetField(mod, "visible", L.NewFunction(m.visible))
	L.SetField(mod, "edit", L.NewFunction(m.edit))
	L.SetField(mod, "select", L.NewFunction(m.selectRange))

	// Terminals
	L.SetField(mod, "open_terminal", L.NewFunction(m.openTerminal))
	L.SetField(mod, "terminals", L.NewFunction(m.terminals))
	L.SetField(mod, "active_terminal", L.NewFunction(m.activeTerminal))
	L.SetField(mod, "close_terminal", L.NewFunction(m.closeTerminal))

	L.SetField(ext, m.Name(), mod)
	return nil
}

// show(uri, {column=, preserve_focus=, selection=}) -> editor
// column is a number, "active", or "beside".
func (m *windowModule) show(L *lua.LState) int {
	u := m.bridge.CheckURI(L, 1)
	opts := L.OptTable(2, nil)

	so := editor.ShowOptions{ViewColumn: editor.ViewColumnActive}
	if opts != nil {
		switch v := opts.RawGetString("column").(type) {
		case lua.LNumber:
			so.ViewColumn = editor.ViewColumn(v)
		case lua.LString:
			if v == "beside" {
				so.ViewColumn = editor.ViewColumnBeside
			}
		}
		so.PreserveFocus = optBool(opts, "preserve_focus")
		if st, ok := opts.RawGetString("selection").(*lua.LTable); ok {
			r, err := m.bridge.rangeFrom(st)
			if err != nil {
				L.ArgError(2, err.Error())
			}
			so.Selection = &r
		}
	}

	doc, err := m.host.OpenTextDocument(u)
	if err != nil {
		return PushError(L, err)
	}
	ed, err := m.host.ShowTextDocument(doc, so)
	if err != nil {
		return PushError(L, err)
	}
	L.Push(m.bridge.EditorTable(ed))
	return 1
}

// active() -> editor | nil
func (m *windowModule) active(L *lua.LState) int {
	ed := m.host.Window().ActiveEditor()
	if ed == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(m.bridge.EditorTable(ed))
	return 1
}

// visible() -> {editor, ...}
func (m *windowModule) visible(L *lua.LState) int {
	tbl := L.NewTable()
	for i, ed := range m.host.Window().VisibleEditors() {
		tbl.RawSetInt(i+1, m.bridge.EditorTable(ed))
	}
	L.Push(tbl)
	return 1
}

func (m *windowModule) checkActive(L *lua.LState) *editor.TextEditor {
	ed := m.host.Window().ActiveEditor()
	if ed == nil {
		L.RaiseError("no active editor")
	}
	return ed
}

// edit({{range=, text=}, ...}) -> bool
// Edits the document of the active editor through an edit builder.
func (m *windowModule) edit(L *lua.LState) int {
	ed := m.checkActive(L)
	edits, err := m.bridge.TextEdits(L.CheckTable(1))
	if err != nil {
		L.ArgError(1, err.Error())
	}

	ok, err := ed.Edit(func(b *editor.EditBuilder) {
		for _, e := range edits {
			if e.NewEOL != 0 && e.Range.IsEmpty() && e.NewText == "" {
				b.SetEndOfLine(e.NewEOL)
				continue
			}
			b.Replace(e.Range, e.NewText)
		}
	})
	if err != nil {
		return PushError(L, err)
	}
	L.Push(lua.LBool(ok))
	return 1
}

// select(range, ...) -> true
// Replaces the selections of the active editor.
func (m *windowModule) selectRange(L *lua.LState) int {
	ed := m.checkActive(L)
	var sels []buffer.Selection
	for i := 1; i <= L.GetTop(); i++ {
		r := m.bridge.CheckRange(L, i)
		sels = append(sels, buffer.NewSelection(r.Start(), r.End()))
	}
	if err := ed.SetSelections(sels); err != nil {
		return PushError(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

// open_terminal(name) -> terminal
func (m *windowModule) openTerminal(L *lua.LState) int {
	L.Push(m.bridge.TerminalTable(m.host.Window().OpenTerminal(L.OptString(1, ""))))
	return 1
}

// terminals() -> {terminal, ...}
func (m *windowModule) terminals(L *lua.LState) int {
	tbl := L.NewTable()
	for i, t := range m.host.Window().Terminals() {
		tbl.RawSetInt(i+1, m.bridge.TerminalTable(t))
	}
	L.Push(tbl)
	return 1
}

// active_terminal() -> terminal | nil
func (m *windowModule) activeTerminal(L *lua.LState) int {
	t := m.host.Window().ActiveTerminal()
	if t == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(m.bridge.TerminalTable(t))
	return 1
}

// close_terminal(id) -> bool
func (m *windowModule) closeTerminal(L *lua.LState) int {
	id := L.CheckInt(1)
	for _, t := range m.host.Window().Terminals() {
		if t.ID() == id {
			L.Push(lua.LBool(m.host.Window().CloseTerminal(t)))
			return 1
		}
	}
	L.Push(lua.LFalse)
	return 1
}
