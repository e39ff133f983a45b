package project

import (
	"errors"
	"fmt"

	"github.com/dshills/extsim/internal/project/filestore"
	"github.com/dshills/extsim/internal/project/vfs"
	"github.com/dshills/extsim/internal/uri"
)

// EditError reports a failed part of a WorkspaceEdit.
type EditError struct {
	Op  string  // edit, create, delete or rename
	URI uri.URI // Resource the part targeted
	Err error   // Underlying error
}

// Error implements the error interface.
func (e *EditError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URI, e.Err)
}

// Unwrap returns the underlying error.
func (e *EditError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return vfs.CodeOf(err) == vfs.CodeFileNotFound
}

// IsClosed returns true if the error indicates an edit of a closed document.
func IsClosed(err error) bool {
	return errors.Is(err, filestore.ErrDocumentClosed)
}
