package editor

import "fmt"

// Terminal is an integrated terminal. Only its identity and focus are
// simulated.
type Terminal struct {
	window *Window
	id     int
	name   string
}

// ID returns the terminal number, starting at 1.
func (t *Terminal) ID() int { return t.id }

// Name returns the terminal name.
func (t *Terminal) Name() string { return t.name }

// Show makes the terminal active.
func (t *Terminal) Show() bool { return t.window.SetActiveTerminal(t) }

// Dispose closes the terminal.
func (t *Terminal) Dispose() { t.window.CloseTerminal(t) }

// String returns a short description of the terminal.
func (t *Terminal) String() string { return fmt.Sprintf("terminal %d (%s)", t.id, t.name) }

// OpenTerminal creates a terminal and makes it active. An empty name
// defaults to the shell name "sh".
func (w *Window) OpenTerminal(name string) *Terminal {
	if name == "" {
		name = "sh"
	}

	w.mu.Lock()
	w.nextTerminal++
	t := &Terminal{window: w, id: w.nextTerminal, name: name}
	w.terminals = append(w.terminals, t)
	w.activeTerminal = t
	w.mu.Unlock()

	DidOpenTerminal(w.bus).Fire(t)
	DidChangeActiveTerminal(w.bus).Fire(t)
	return t
}

// CloseTerminal closes t. It reports false when t is not open. Closing the
// active terminal moves focus to the most recently opened remaining one.
func (w *Window) CloseTerminal(t *Terminal) bool {
	w.mu.Lock()
	i := w.terminalIndexLocked(t)
	if i < 0 {
		w.mu.Unlock()
		return false
	}
	w.terminals = append(w.terminals[:i:i], w.terminals[i+1:]...)

	activeChanged := w.activeTerminal == t
	if activeChanged {
		w.activeTerminal = nil
		if n := len(w.terminals); n > 0 {
			w.activeTerminal = w.terminals[n-1]
		}
	}
	active := w.activeTerminal
	w.mu.Unlock()

	DidCloseTerminal(w.bus).Fire(t)
	if activeChanged {
		DidChangeActiveTerminal(w.bus).Fire(active)
	}
	return true
}

// SetActiveTerminal focuses t. It reports false when t is not open; focusing
// the active terminal again fires nothing.
func (w *Window) SetActiveTerminal(t *Terminal) bool {
	w.mu.Lock()
	if w.terminalIndexLocked(t) < 0 {
		w.mu.Unlock()
		return false
	}
	changed := w.activeTerminal != t
	w.activeTerminal = t
	w.mu.Unlock()

	if changed {
		DidChangeActiveTerminal(w.bus).Fire(t)
	}
	return true
}

// Terminals returns the open terminals in opening order.
func (w *Window) Terminals() []*Terminal {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*Terminal, len(w.terminals))
	copy(out, w.terminals)
	return out
}

// ActiveTerminal returns the focused terminal, or nil.
func (w *Window) ActiveTerminal() *Terminal {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.activeTerminal
}

func (w *Window) terminalIndexLocked(t *Terminal) int {
	for i, cur := range w.terminals {
		if cur == t {
			return i
		}
	}
	return -1
}
