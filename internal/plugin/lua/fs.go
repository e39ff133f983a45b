package lua

import (
	"context"

	lua "github.com/yuin/gopher-lua"
	"golang.org/x/tools/txtar"

	"github.com/dshills/extsim/internal/project"
	"github.com/dshills/extsim/internal/project/vfs"
	"github.com/dshills/extsim/internal/uri"
)

// fsModule implements ext.fs over the host file system. Failing calls
// return nil, the message, and the error code.
type fsModule struct {
	host   *project.Host
	bridge *Bridge
}

func (m *fsModule) Name() string { return "fs" }

func (m *fsModule) Register(L *lua.LState, ext *lua.LTable) error {
	mod := L.NewTable()

	L.SetField(mod, "read", L.NewFunction(m.read))
	L.SetField(mod, "write", L.NewFunction(m.write))
	L.SetField(mod, "stat", L.NewFunction(m.stat))
	L.SetField(mod, "exists", L.NewFunction(m.exists))
	L.SetField(mod, "readdir", L.NewFunction(m.readdir))
	L.SetField(mod, "mkdir", L.NewFunction(m.mkdir))
	L.SetField(mod, "delete", L.NewFunction(m.delete))
	L.SetField(mod, "rename", L.NewFunction(m.rename))
	L.SetField(mod, "copy", L.NewFunction(m.copy))
	L.SetField(mod, "load", L.NewFunction(m.load))
	L.SetField(mod, "snapshot", L.NewFunction(m.snapshot))

	L.SetField(ext, m.Name(), mod)
	return nil
}

// read(uri) -> string
func (m *fsModule) read(L *lua.LState) int {
	data, err := m.host.FS().ReadFile(m.bridge.CheckURI(L, 1))
	if err != nil {
		return PushError(L, err)
	}
	L.Push(lua.LString(data))
	return 1
}

// write(uri, content, {create=, overwrite=}) -> true
func (m *fsModule) write(L *lua.LState) int {
	u := m.bridge.CheckURI(L, 1)
	content := L.CheckString(2)
	opts := L.OptTable(3, nil)

	err := m.host.FS().WriteFile(u, []byte(content), vfs.WriteOptions{
		Create:    optBoolPtr(opts, "create"),
		Overwrite: optBoolPtr(opts, "overwrite"),
	})
	if err != nil {
		return PushError(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

// stat(uri) -> {type=, is_file=, is_directory=, size=, ctime=, mtime=}
func (m *fsModule) stat(L *lua.LState) int {
	st, err := m.host.FS().Stat(m.bridge.CheckURI(L, 1))
	if err != nil {
		return PushError(L, err)
	}
	t := L.NewTable()
	t.RawSetString("type", lua.LString(st.Type.String()))
	t.RawSetString("is_file", lua.LBool(st.Type.IsFile()))
	t.RawSetString("is_directory", lua.LBool(st.Type.IsDirectory()))
	t.RawSetString("size", lua.LNumber(st.Size))
	t.RawSetString("ctime", lua.LNumber(st.CTime.UnixMilli()))
	t.RawSetString("mtime", lua.LNumber(st.MTime.UnixMilli()))
	L.Push(t)
	return 1
}

// exists(uri) -> bool
func (m *fsModule) exists(L *lua.LState) int {
	L.Push(lua.LBool(vfs.Exists(m.host.FS(), m.bridge.CheckURI(L, 1))))
	return 1
}

// readdir(uri) -> {{name=, type=}, ...}
func (m *fsModule) readdir(L *lua.LState) int {
	entries, err := m.host.FS().ReadDirectory(m.bridge.CheckURI(L, 1))
	if err != nil {
		return PushError(L, err)
	}
	tbl := L.NewTable()
	for i, e := range entries {
		et := L.NewTable()
		et.RawSetString("name", lua.LString(e.Name))
		et.RawSetString("type", lua.LString(e.Type.String()))
		tbl.RawSetInt(i+1, et)
	}
	L.Push(tbl)
	return 1
}

// mkdir(uri) -> true
func (m *fsModule) mkdir(L *lua.LState) int {
	if err := m.host.FS().CreateDirectory(m.bridge.CheckURI(L, 1)); err != nil {
		return PushError(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

// delete(uri, {recursive=, use_trash=}) -> true
func (m *fsModule) delete(L *lua.LState) int {
	u := m.bridge.CheckURI(L, 1)
	opts := L.OptTable(2, nil)
	err := m.host.FS().Delete(u, vfs.DeleteOptions{
		Recursive: optBool(opts, "recursive"),
		UseTrash:  optBool(opts, "use_trash"),
	})
	if err != nil {
		return PushError(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

// rename(old, new, {overwrite=}) -> true
func (m *fsModule) rename(L *lua.LState) int {
	oldURI, newURI := m.bridge.CheckURI(L, 1), m.bridge.CheckURI(L, 2)
	opts := L.OptTable(3, nil)
	if err := m.host.FS().Rename(oldURI, newURI, vfs.RenameOptions{Overwrite: optBool(opts, "overwrite")}); err != nil {
		return PushError(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

// copy(src, dst, {overwrite=}) -> true
func (m *fsModule) copy(L *lua.LState) int {
	src, dst := m.bridge.CheckURI(L, 1), m.bridge.CheckURI(L, 2)
	opts := L.OptTable(3, nil)
	if err := m.host.FS().Copy(src, dst, vfs.CopyOptions{Overwrite: optBool(opts, "overwrite")}); err != nil {
		return PushError(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

// load(archive, base) -> true
// Writes the files of a txtar archive beneath base (default "/").
func (m *fsModule) load(L *lua.LState) int {
	ar := txtar.Parse([]byte(L.CheckString(1)))
	base := uri.File("/")
	if L.GetTop() >= 2 {
		base = m.bridge.CheckURI(L, 2)
	}
	if err := vfs.LoadArchive(m.host.FS(), base, ar); err != nil {
		return PushError(L, err)
	}
	L.Push(lua.LTrue)
	return 1
}

// snapshot(base) -> string
// Returns the files beneath base (default "/") as a txtar archive.
func (m *fsModule) snapshot(L *lua.LState) int {
	base := uri.File("/")
	if L.GetTop() >= 1 {
		base = m.bridge.CheckURI(L, 1)
	}
	ctx := L.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ar, err := vfs.Snapshot(ctx, m.host.FS(), base)
	if err != nil {
		return PushError(L, err)
	}
	L.Push(lua.LString(txtar.Format(ar)))
	return 1
}
