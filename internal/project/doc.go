// Package project wires the pieces of a simulated extension host together.
//
// A Host owns one event bus and the components that fire on it:
//
//   - vfs: the in-memory file system with will/did file events
//   - filestore: the registry of text documents
//   - workspace: the workspace folders and the loaded workspace file
//   - editor: the window with its text editors and terminals
//   - watcher: glob-filtered file system watchers
//   - search: find-files over the workspace folders
//
// # Quick Start
//
//	h := project.New()
//	_ = h.FS().WriteFile(uri.File("/w/a.txt"), []byte("abc"), vfs.WriteOptions{})
//	h.Workspace().AddFolder(uri.File("/w"), "")
//
//	doc, err := h.OpenTextDocument(uri.File("/w/a.txt"))
//	if err != nil {
//	    return err
//	}
//	ed, err := h.ShowTextDocument(doc, editor.ShowOptions{})
//	if err != nil {
//	    return err
//	}
//	ed.Edit(func(b *editor.EditBuilder) {
//	    b.Insert(buffer.Pos(0, 3), "def")
//	})
//
// # Workspace Edits
//
// A WorkspaceEdit batches text edits and file operations over many
// resources. ApplyEdit edits open documents in place and rewrites every
// other resource through the file system:
//
//	we := project.NewWorkspaceEdit()
//	we.CreateFile(uri.File("/w/b.txt"), project.CreateFileOptions{IgnoreIfExists: true})
//	we.Insert(uri.File("/w/b.txt"), buffer.Pos(0, 0), "hello")
//	ok := h.ApplyEdit(we)
//
// # Reset
//
// Reset drops every listener on the bus, then empties the file system,
// documents, folders, window, and watchers. The host is reusable afterwards.
//
// # Thread Safety
//
// A Host is safe for concurrent use. Events are delivered synchronously on
// the goroutine that caused them.
package project
