package event

import "strings"

// Name identifies a channel in the catalog. Names are dot-separated, with the
// owning namespace first, e.g. "files.didCreate".
type Name string

// The channel catalog.
const (
	WorkspaceDidChangeFolders Name = "workspace.didChangeFolders"

	DocumentsDidOpen   Name = "documents.didOpen"
	DocumentsDidClose  Name = "documents.didClose"
	DocumentsDidChange Name = "documents.didChange"
	DocumentsWillSave  Name = "documents.willSave"
	DocumentsDidSave   Name = "documents.didSave"

	FilesWillCreate Name = "files.willCreate"
	FilesDidCreate  Name = "files.didCreate"
	FilesWillDelete Name = "files.willDelete"
	FilesDidDelete  Name = "files.didDelete"
	FilesWillRename Name = "files.willRename"
	FilesDidRename  Name = "files.didRename"
	FilesDidChange  Name = "files.didChange"

	WindowDidChangeActiveEditor   Name = "window.didChangeActiveEditor"
	WindowDidChangeVisibleEditors Name = "window.didChangeVisibleEditors"
	WindowDidChangeSelection      Name = "window.didChangeSelection"
	WindowDidOpenTerminal         Name = "window.didOpenTerminal"
	WindowDidCloseTerminal        Name = "window.didCloseTerminal"
	WindowDidChangeActiveTerminal Name = "window.didChangeActiveTerminal"
)

// catalog lists every channel in a stable order.
var catalog = []Name{
	WorkspaceDidChangeFolders,
	DocumentsDidOpen,
	DocumentsDidClose,
	DocumentsDidChange,
	DocumentsWillSave,
	DocumentsDidSave,
	FilesWillCreate,
	FilesDidCreate,
	FilesWillDelete,
	FilesDidDelete,
	FilesWillRename,
	FilesDidRename,
	FilesDidChange,
	WindowDidChangeActiveEditor,
	WindowDidChangeVisibleEditors,
	WindowDidChangeSelection,
	WindowDidOpenTerminal,
	WindowDidCloseTerminal,
	WindowDidChangeActiveTerminal,
}

// Catalog returns the names of all channels, in a stable order.
func Catalog() []Name {
	out := make([]Name, len(catalog))
	copy(out, catalog)
	return out
}

// InCatalog reports whether n is a catalog channel.
func InCatalog(n Name) bool {
	for _, c := range catalog {
		if c == n {
			return true
		}
	}
	return false
}

// String returns the name as a string.
func (n Name) String() string { return string(n) }

// Namespace returns the first segment, e.g. "files".
func (n Name) Namespace() string {
	s := string(n)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return s[:i]
	}
	return s
}

// Wildcards accepted by Match.
const (
	// WildcardSingle matches exactly one segment.
	WildcardSingle = "*"

	// WildcardMulti matches zero or more segments.
	WildcardMulti = "**"
)

// Match reports whether n matches pattern. Patterns are dot-separated and may
// use "*" for one segment and "**" for any number of segments:
//
//	files.*       matches files.didCreate
//	**.didChange  matches documents.didChange and files.didChange
//	**            matches everything
func (n Name) Match(pattern string) bool {
	if pattern == "" {
		return false
	}
	return matchSegments(strings.Split(string(n), "."), strings.Split(pattern, "."))
}

func matchSegments(name, pattern []string) bool {
	ni, pi := 0, 0

	for pi < len(pattern) {
		if pattern[pi] == WildcardMulti {
			for ni <= len(name) {
				if matchSegments(name[ni:], pattern[pi+1:]) {
					return true
				}
				ni++
			}
			return false
		}

		if ni >= len(name) {
			return false
		}

		if pattern[pi] == WildcardSingle || pattern[pi] == name[ni] {
			ni++
			pi++
		} else {
			return false
		}
	}

	return ni == len(name)
}
