package lua

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/extsim/internal/logging"
	"github.com/dshills/extsim/internal/project"
)

var log = logging.Get("lua")

// DefaultExecutionTimeout bounds a single DoFile or DoString call.
const DefaultExecutionTimeout = 30 * time.Second

// State runs scenario scripts against one Host.
//
// gopher-lua's LState is not goroutine-safe. The mutex serializes calls from
// Go, and listeners registered from Lua run on the goroutine that fired the
// event, so a State must only be driven from one goroutine at a time.
type State struct {
	L *lua.LState

	mu sync.Mutex

	host    *project.Host
	out     io.Writer
	timeout time.Duration

	sandbox *Sandbox
	bridge  *Bridge
	modules []Module

	closed bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithOutput sends the output of print to w. Without it print writes to
// the log.
func WithOutput(w io.Writer) StateOption {
	return func(s *State) {
		s.out = w
	}
}

// WithExecutionTimeout sets the deadline of each script run. Zero disables
// the deadline.
func WithExecutionTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.timeout = d
	}
}

// NewState creates a sandboxed Lua state with the ext module bound to host.
func NewState(host *project.Host, opts ...StateOption) (*State, error) {
	if host == nil {
		return nil, ErrNilHost
	}
	state := &State{
		host:    host,
		timeout: DefaultExecutionTimeout,
	}
	for _, opt := range opts {
		opt(state)
	}

	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	state.L = L
	openSafeLibraries(L)

	state.sandbox = NewSandbox(L, state.out)
	state.sandbox.Install()

	state.bridge = NewBridge(L)
	state.modules = []Module{
		&fsModule{host: host, bridge: state.bridge},
		&workspaceModule{host: host, bridge: state.bridge},
		&documentsModule{host: host, bridge: state.bridge},
		&windowModule{host: host, bridge: state.bridge},
		&eventsModule{host: host, bridge: state.bridge},
	}
	if err := state.registerModules(); err != nil {
		L.Close()
		return nil, err
	}
	return state, nil
}

// openSafeLibraries opens only safe Lua standard libraries.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenPackage(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// io, os, and debug stay closed: scripts reach files only through ext.fs.
}

// registerModules builds the ext table, sets it as a global, and preloads it
// so require("ext") returns the same table.
func (s *State) registerModules() error {
	L := s.L
	ext := L.NewTable()
	for _, m := range s.modules {
		if err := m.Register(L, ext); err != nil {
			return fmt.Errorf("lua: register ext.%s: %w", m.Name(), err)
		}
	}
	registerHelpers(L, ext, s.host)

	L.SetGlobal("ext", ext)
	L.PreloadModule("ext", func(L *lua.LState) int {
		L.Push(ext)
		return 1
	})
	return nil
}

// DoFile executes a Lua file.
func (s *State) DoFile(ctx context.Context, path string) error {
	return s.run(ctx, func() error {
		return s.L.DoFile(path)
	})
}

// DoString executes a Lua chunk.
func (s *State) DoString(ctx context.Context, code string) error {
	return s.run(ctx, func() error {
		return s.L.DoString(code)
	})
}

func (s *State) run(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	err := s.doWithRecovery(fn)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrExecutionTimeout, err)
	}
	return err
}

// doWithRecovery executes a function with panic recovery.
func (s *State) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// GetGlobal returns a global variable value.
func (s *State) GetGlobal(name string) lua.LValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// Global returns a global converted to a Go value. See Bridge.ToGoValue.
func (s *State) Global(name string) any {
	return s.bridge.ToGoValue(s.GetGlobal(name))
}

// Host returns the host the state is bound to.
func (s *State) Host() *project.Host {
	return s.host
}

// IsClosed returns true if the state has been closed.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close disposes the listeners registered from Lua and releases the Lua
// state. After Close every run returns ErrStateClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	for _, m := range s.modules {
		if c, ok := m.(io.Closer); ok {
			if err := c.Close(); err != nil {
				log.Warningf("close ext.%s: %v", m.Name(), err)
			}
		}
	}
	s.L.Close()
	s.closed = true
	return nil
}
