package filestore

import (
	"errors"
	"fmt"

	"github.com/dshills/extsim/internal/uri"
)

// Errors returned by the document store.
var (
	// ErrDocumentClosed indicates an operation on a closed document.
	ErrDocumentClosed = errors.New("document is closed")

	// ErrDocumentNotOpen indicates the document is not in the store.
	ErrDocumentNotOpen = errors.New("document not open")

	// ErrFileTooLarge indicates the file exceeds the maximum size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrBinaryFile indicates the file appears to be binary.
	ErrBinaryFile = errors.New("binary file")
)

// DocumentError records the operation and document an error came from.
type DocumentError struct {
	Op  string  // Operation that failed (open, save, edit, ...)
	URI uri.URI // Document URI
	Err error   // Underlying error
}

// Error implements the error interface.
func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URI, e.Err)
}

// Unwrap returns the underlying error.
func (e *DocumentError) Unwrap() error {
	return e.Err
}
