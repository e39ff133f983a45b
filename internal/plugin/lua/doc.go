// Package lua runs Lua scenario scripts against a project.Host.
//
// A script drives the simulated editor through the ext table, which is
// also available as require("ext"):
//
//	ext.fs          files of the in-memory file system
//	ext.workspace   folders, workspace files, find_files, watch, apply_edit
//	ext.documents   text documents: open, edit, save, close
//	ext.window      editors, selections, terminals
//	ext.events      listeners on the host event bus
//
// plus the helpers ext.uri, ext.pos, ext.range, ext.reset, and ext.log.
//
// # State
//
//	h := project.New()
//	state, err := lua.NewState(h,
//	    lua.WithOutput(os.Stdout),
//	    lua.WithExecutionTimeout(5*time.Second),
//	)
//	if err != nil {
//	    return err
//	}
//	defer state.Close()
//
//	err = state.DoString(ctx, `
//	    local doc = ext.documents.open("/w/main.go")
//	    ext.documents.edit(doc.uri, {{range = ext.range(0, 0, 0, 0), text = "// x\n"}})
//	    assert(ext.documents.save(doc.uri))
//	`)
//
// # Errors
//
// Calls that can fail the way the host API fails return nil, a message,
// and the file system error code ("FileNotFound", "FileExists", ...) or
// nil. Malformed arguments raise a Lua error instead.
//
// # Sandbox
//
// Only the base, package, table, string, and math libraries are opened.
// dofile, loadfile, load, and loadstring are removed, and require resolves
// only the opened libraries and ext. print writes to the configured output.
//
// # Events
//
// Listeners registered with ext.events.on, and the callbacks of watchers,
// run synchronously on the goroutine that fired the event, which is the
// script itself for every change a script makes. Payloads are converted to
// tables with snake_case keys. Closing the state or calling ext.reset drops
// them.
package lua
