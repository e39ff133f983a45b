package lua

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/extsim/internal/engine/buffer"
	"github.com/dshills/extsim/internal/project"
)

// Module is one table of the ext API.
type Module interface {
	// Name is the field of the ext table the module is registered under.
	Name() string

	// Register builds the module table and sets it on ext.
	Register(L *lua.LState, ext *lua.LTable) error
}

// registerHelpers adds the functions that live directly on ext.
func registerHelpers(L *lua.LState, ext *lua.LTable, host *project.Host) {
	b := NewBridge(L)

	// uri(path_or_uri) -> string
	L.SetField(ext, "uri", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(b.CheckURI(L, 1).String()))
		return 1
	}))

	// pos(line, character) -> position
	L.SetField(ext, "pos", L.NewFunction(func(L *lua.LState) int {
		p, err := buffer.NewPosition(L.CheckInt(1), L.CheckInt(2))
		if err != nil {
			L.ArgError(1, err.Error())
		}
		L.Push(b.PositionTable(p))
		return 1
	}))

	// range(start_line, start_character, end_line, end_character) -> range
	L.SetField(ext, "range", L.NewFunction(func(L *lua.LState) int {
		r, err := buffer.NewRangeFromCoords(L.CheckInt(1), L.CheckInt(2), L.CheckInt(3), L.CheckInt(4))
		if err != nil {
			L.ArgError(1, err.Error())
		}
		L.Push(b.RangeTable(r))
		return 1
	}))

	// reset() returns the host to its empty state. Listeners registered
	// with ext.events.on are dropped.
	L.SetField(ext, "reset", L.NewFunction(func(L *lua.LState) int {
		host.Reset()
		return 0
	}))

	// log(message)
	L.SetField(ext, "log", L.NewFunction(func(L *lua.LState) int {
		log.Infof("%s", L.CheckString(1))
		return 0
	}))
}
