package lua

import (
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/extsim/internal/event"
	"github.com/dshills/extsim/internal/project"
)

// eventsModule implements ext.events. Listeners see every firing whose
// channel name matches their pattern, synchronously and in order.
type eventsModule struct {
	host   *project.Host
	bridge *Bridge

	mu   sync.Mutex
	subs event.Store
}

func (m *eventsModule) Name() string { return "events" }

func (m *eventsModule) Register(L *lua.LState, ext *lua.LTable) error {
	mod := L.NewTable()

	L.SetField(mod, "on", L.NewFunction(m.on))
	L.SetField(mod, "channels", L.NewFunction(m.channels))
	L.SetField(mod, "listener_count", L.NewFunction(m.listenerCount))
	L.SetField(mod, "errors", L.NewFunction(m.errors))

	L.SetField(ext, m.Name(), mod)
	return nil
}

// on(pattern, fn) -> handle
// fn is called as fn(channel, payload, seq). The handle has dispose().
func (m *eventsModule) on(L *lua.LState) int {
	pattern := L.CheckString(1)
	fn := L.CheckFunction(2)

	d := m.host.Bus().Tap(pattern, func(rec event.Record) {
		if err := m.bridge.CallFunc(fn, string(rec.Channel), rec.Payload, rec.Seq); err != nil {
			log.Errorf("listener for %s: %v", rec.Channel, err)
		}
	})
	m.mu.Lock()
	m.subs.Add(d)
	m.mu.Unlock()

	L.Push(disposableTable(L, d))
	return 1
}

// channels() -> {name, ...}
func (m *eventsModule) channels(L *lua.LState) int {
	tbl := L.NewTable()
	for i, name := range m.host.Bus().Channels() {
		tbl.RawSetInt(i+1, lua.LString(name))
	}
	L.Push(tbl)
	return 1
}

// listener_count(name) -> number
func (m *eventsModule) listenerCount(L *lua.LState) int {
	L.Push(lua.LNumber(m.host.Bus().ListenerCount(event.Name(L.CheckString(1)))))
	return 1
}

// errors() -> {message, ...}
// Returns the listener panics recovered by the bus.
func (m *eventsModule) errors(L *lua.LState) int {
	tbl := L.NewTable()
	for i, err := range m.host.Bus().Errors() {
		tbl.RawSetInt(i+1, lua.LString(err.Error()))
	}
	L.Push(tbl)
	return 1
}

// Close drops the listeners registered from Lua.
func (m *eventsModule) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs.Dispose()
	return nil
}

// disposableTable wraps d in a table with a dispose method.
func disposableTable(L *lua.LState, d event.Disposable) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "dispose", L.NewFunction(func(L *lua.LState) int {
		d.Dispose()
		return 0
	}))
	return t
}
