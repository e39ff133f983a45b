package lua

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/extsim/internal/engine/buffer"
	"github.com/dshills/extsim/internal/event"
	"github.com/dshills/extsim/internal/project"
	"github.com/dshills/extsim/internal/project/search"
	"github.com/dshills/extsim/internal/project/watcher"
	"github.com/dshills/extsim/internal/project/workspace"
	"github.com/dshills/extsim/internal/uri"
)

// workspaceModule implements ext.workspace.
type workspaceModule struct {
	host   *project.Host
	bridge *Bridge
}

func (m *workspaceModule) Name() string { return "workspace" }

func (m *workspaceModule) Register(L *lua.LState, ext *lua.LTable) error {
	mod := L.NewTable()

	// Folders
	L.SetField(mod, "folders", L.NewFunction(m.folders))
	L.SetField(mod, "name", L.NewFunction(m.name))
	L.SetField(mod, "type", L.NewFunction(m.typ))
	L.SetField(mod, "remote_name", L.NewFunction(m.remoteName))
	L.SetField(mod, "add_folder", L.NewFunction(m.addFolder))
	L.SetField(mod, "remove_folder", L.NewFunction(m.removeFolder))
	L.SetField(mod, "set_folders", L.NewFunction(m.setFolders))
	L.SetField(mod, "update_folders", L.NewFunction(m.updateFolders))
	L.SetField(mod, "folder_for", L.NewFunction(m.folderFor))
	L.SetField(mod, "as_relative_path", L.NewFunction(m.asRelativePath))

	// Workspace file
	L.SetField(mod, "load_file", L.NewFunction(m.loadFile))
	L.SetField(mod, "save_file", L.NewFunction(m.saveFile))
	L.SetField(mod, "setting", L.NewFunction(m.setting))

	// Files
	L.SetField(mod, "find_files", L.NewFunction(m.findFiles))
	L.SetField(mod, "watch", L.NewFunction(m.watch))
	L.SetField(mod, "apply_edit", L.NewFunction(m.applyEdit))

	L.SetField(ext, m.Name(), mod)
	return nil
}

// folders() -> {{uri=, name=, index=}, ...}
func (m *workspaceModule) folders(L *lua.LState) int {
	tbl := L.NewTable()
	for i, f := range m.host.Workspace().Folders() {
		tbl.RawSetInt(i+1, m.bridge.FolderTable(f))
	}
	L.Push(tbl)
	return 1
}

// name() -> string
func (m *workspaceModule) name(L *lua.LState) int {
	L.Push(lua.LString(m.host.Workspace().Name()))
	return 1
}

// type() -> "none" | "single" | "multi" | "remote" | "untitled"
func (m *workspaceModule) typ(L *lua.LState) int {
	L.Push(lua.LString(m.host.Workspace().Type().String()))
	return 1
}

// remote_name() -> string
func (m *workspaceModule) remoteName(L *lua.LState) int {
	L.Push(lua.LString(m.host.Workspace().RemoteName()))
	return 1
}

// add_folder(uri, name) -> bool
func (m *workspaceModule) addFolder(L *lua.LState) int {
	u := m.bridge.CheckURI(L, 1)
	L.Push(lua.LBool(m.host.Workspace().AddFolder(u, L.OptString(2, ""))))
	return 1
}

// remove_folder(uri) -> bool
func (m *workspaceModule) removeFolder(L *lua.LState) int {
	L.Push(lua.LBool(m.host.Workspace().RemoveFolder(m.bridge.CheckURI(L, 1))))
	return 1
}

// set_folders({{uri=, name=}, ...}, workspace_file) -> bool
func (m *workspaceModule) setFolders(L *lua.LState) int {
	specs := m.folderSpecs(L, L.OptTable(1, nil), 1)
	var file uri.URI
	if L.GetTop() >= 2 && L.Get(2) != lua.LNil {
		file = m.bridge.CheckURI(L, 2)
	}
	L.Push(lua.LBool(m.host.Workspace().SetFolders(specs, file)))
	return 1
}

// update_folders(start, delete_count, {{uri=, name=}, ...}) -> bool
func (m *workspaceModule) updateFolders(L *lua.LState) int {
	start, deleteCount := L.CheckInt(1), L.CheckInt(2)
	specs := m.folderSpecs(L, L.OptTable(3, nil), 3)
	L.Push(lua.LBool(m.host.Workspace().UpdateFolders(start, deleteCount, specs...)))
	return 1
}

// folderSpecs accepts entries that are either a URI string or a table
// {uri=, name=}.
func (m *workspaceModule) folderSpecs(L *lua.LState, t *lua.LTable, arg int) []workspace.FolderSpec {
	if t == nil {
		return nil
	}
	var specs []workspace.FolderSpec
	for i := 1; i <= t.Len(); i++ {
		var raw, name string
		switch v := t.RawGetInt(i).(type) {
		case lua.LString:
			raw = string(v)
		case *lua.LTable:
			raw = lua.LVAsString(v.RawGetString("uri"))
			name = lua.LVAsString(v.RawGetString("name"))
		default:
			L.ArgError(arg, fmt.Sprintf("folder %d: want a uri or {uri=, name=}", i))
		}
		u, err := ParseURI(raw)
		if err != nil {
			L.ArgError(arg, fmt.Sprintf("folder %d: %v", i, err))
		}
		specs = append(specs, workspace.FolderSpec{URI: u, Name: name})
	}
	return specs
}

// folder_for(uri) -> folder | nil
func (m *workspaceModule) folderFor(L *lua.LState) int {
	f, ok := m.host.Workspace().GetFolderFor(m.bridge.CheckURI(L, 1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(m.bridge.FolderTable(f))
	return 1
}

// as_relative_path(uri, include_folder_name) -> string
func (m *workspaceModule) asRelativePath(L *lua.LState) int {
	u := m.bridge.CheckURI(L, 1)
	L.Push(lua.LString(m.host.Workspace().AsRelativePath(u, L.OptBool(2, false))))
	return 1
}

// load_file(uri) -> true
func (m *workspaceModule) loadFile(L *lua.LState) int {
	if err := m.host.Workspace().LoadFile(m.bridge.CheckURI(L, 1)); err != nil {
		return PushError(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

// save_file(uri) -> true
func (m *workspaceModule) saveFile(L *lua.LState) int {
	if err := m.host.Workspace().SaveFile(m.bridge.CheckURI(L, 1)); err != nil {
		return PushError(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

// setting(key) -> value
// Reads a key of the settings section of the loaded workspace file.
func (m *workspaceModule) setting(L *lua.LState) int {
	res := m.host.Workspace().Setting(L.CheckString(1))
	if !res.Exists() {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(m.bridge.ToLuaValue(res.Value()))
	return 1
}

// checkGlob reads argument n as a pattern string or {base=, pattern=}.
func (m *workspaceModule) checkGlob(L *lua.LState, n int) search.GlobPattern {
	switch v := L.Get(n).(type) {
	case lua.LString:
		return search.Glob(string(v))
	case *lua.LTable:
		base, err := ParseURI(lua.LVAsString(v.RawGetString("base")))
		if err != nil {
			L.ArgError(n, err.Error())
		}
		return search.RelativePattern(base, lua.LVAsString(v.RawGetString("pattern")))
	case *lua.LNilType:
		return search.GlobPattern{}
	default:
		L.TypeError(n, lua.LTString)
		return search.GlobPattern{}
	}
}

// find_files(include, exclude, max_results) -> {uri, ...}
func (m *workspaceModule) findFiles(L *lua.LState) int {
	include := m.checkGlob(L, 1)
	exclude := m.checkGlob(L, 2)
	maxResults := L.OptInt(3, 0)

	ctx := L.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	found, err := m.host.FindFiles(ctx, include, exclude, maxResults)
	if err != nil {
		return PushError(L, err)
	}
	L.Push(m.bridge.URIList(found))
	return 1
}

// watch(pattern, {ignore_create=, ignore_change=, ignore_delete=}) -> watcher
//
// The watcher table has on_create, on_change, and on_delete, each taking a
// function called with the URI, plus events() and dispose().
func (m *workspaceModule) watch(L *lua.LState) int {
	pattern := m.checkGlob(L, 1)
	opts := L.OptTable(2, nil)

	w, err := m.host.CreateFileSystemWatcher(pattern, project.WatchOptions{
		IgnoreCreate: optBool(opts, "ignore_create"),
		IgnoreChange: optBool(opts, "ignore_change"),
		IgnoreDelete: optBool(opts, "ignore_delete"),
	})
	if err != nil {
		return PushError(L, err)
	}
	L.Push(m.watcherTable(L, w))
	return 1
}

func (m *workspaceModule) watcherTable(L *lua.LState, w *watcher.FileSystemWatcher) *lua.LTable {
	t := L.NewTable()
	listen := func(on func(func(uri.URI)) event.Disposable) lua.LGFunction {
		return func(L *lua.LState) int {
			fn := L.CheckFunction(1)
			d := on(func(u uri.URI) {
				if err := m.bridge.CallFunc(fn, u); err != nil {
					log.Errorf("watcher listener: %v", err)
				}
			})
			L.Push(disposableTable(L, d))
			return 1
		}
	}
	L.SetField(t, "on_create", L.NewFunction(listen(w.OnDidCreate)))
	L.SetField(t, "on_change", L.NewFunction(listen(w.OnDidChange)))
	L.SetField(t, "on_delete", L.NewFunction(listen(w.OnDidDelete)))
	L.SetField(t, "events", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		for i, e := range w.Events() {
			et := L.NewTable()
			et.RawSetString("name", lua.LString(e.Name))
			et.RawSetString("op", lua.LString(e.Op.String()))
			tbl.RawSetInt(i+1, et)
		}
		L.Push(tbl)
		return 1
	}))
	L.SetField(t, "dispose", L.NewFunction(func(L *lua.LState) int {
		w.Dispose()
		return 0
	}))
	return t
}

// apply_edit(entries) -> bool
//
// Each entry is one of
//
//	{uri=, range=, text=}                                text edit
//	{create=uri, overwrite=, ignore_if_exists=, contents=}
//	{delete=uri, recursive=, ignore_if_not_exists=}
//	{rename=old, to=new, overwrite=, ignore_if_exists=}
func (m *workspaceModule) applyEdit(L *lua.LState) int {
	t := L.CheckTable(1)
	we := project.NewWorkspaceEdit()

	for i := 1; i <= t.Len(); i++ {
		et, ok := t.RawGetInt(i).(*lua.LTable)
		if !ok {
			L.ArgError(1, fmt.Sprintf("entry %d: not a table", i))
		}
		if err := m.addEntry(we, et); err != nil {
			L.ArgError(1, fmt.Sprintf("entry %d: %v", i, err))
		}
	}

	L.Push(lua.LBool(m.host.ApplyEdit(we)))
	return 1
}

func (m *workspaceModule) addEntry(we *project.WorkspaceEdit, t *lua.LTable) error {
	field := func(name string) (uri.URI, bool, error) {
		v := t.RawGetString(name)
		if v == lua.LNil {
			return uri.URI{}, false, nil
		}
		u, err := ParseURI(lua.LVAsString(v))
		return u, true, err
	}

	if u, ok, err := field("create"); ok || err != nil {
		if err != nil {
			return err
		}
		we.CreateFile(u, project.CreateFileOptions{
			Overwrite:      optBool(t, "overwrite"),
			IgnoreIfExists: optBool(t, "ignore_if_exists"),
			Contents:       []byte(lua.LVAsString(t.RawGetString("contents"))),
		})
		return nil
	}
	if u, ok, err := field("delete"); ok || err != nil {
		if err != nil {
			return err
		}
		we.DeleteFile(u, project.DeleteFileOptions{
			Recursive:         optBool(t, "recursive"),
			UseTrash:          optBool(t, "use_trash"),
			IgnoreIfNotExists: optBool(t, "ignore_if_not_exists"),
		})
		return nil
	}
	if u, ok, err := field("rename"); ok || err != nil {
		if err != nil {
			return err
		}
		to, ok, err := field("to")
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("rename without a target")
		}
		we.RenameFile(u, to, project.RenameFileOptions{
			Overwrite:      optBool(t, "overwrite"),
			IgnoreIfExists: optBool(t, "ignore_if_exists"),
		})
		return nil
	}

	u, ok, err := field("uri")
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("want uri, create, delete, or rename")
	}
	e, err := m.bridge.textEdit(t)
	if err != nil {
		return err
	}
	we.Set(u, []buffer.TextEdit{e})
	return nil
}
