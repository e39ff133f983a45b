package vfs

import (
	"errors"
	"fmt"

	"github.com/dshills/extsim/internal/uri"
)

// Code classifies a FileSystemError. Callers branch on the code, never on
// the message.
type Code string

// Error codes.
const (
	CodeFileNotFound      Code = "FileNotFound"
	CodeFileExists        Code = "FileExists"
	CodeFileIsADirectory  Code = "FileIsADirectory"
	CodeFileNotADirectory Code = "FileNotADirectory"
	CodeNoPermissions     Code = "NoPermissions"
	CodeUnavailable       Code = "Unavailable"
)

// Sentinels matched by errors.Is against any FileSystemError with the same
// code.
var (
	ErrFileNotFound      = &FileSystemError{Code: CodeFileNotFound}
	ErrFileExists        = &FileSystemError{Code: CodeFileExists}
	ErrFileIsADirectory  = &FileSystemError{Code: CodeFileIsADirectory}
	ErrFileNotADirectory = &FileSystemError{Code: CodeFileNotADirectory}
	ErrNoPermissions     = &FileSystemError{Code: CodeNoPermissions}
	ErrUnavailable       = &FileSystemError{Code: CodeUnavailable}
)

// FileSystemError is the structured error raised for every file system
// precondition violation. It carries the code and the subject URI.
type FileSystemError struct {
	Code    Code
	URI     uri.URI
	Message string
}

// Error returns "<Code> (<uri>)", or "<Message> (<uri>)" when a custom
// message was supplied.
func (e *FileSystemError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.URI.IsZero() {
		return msg
	}
	return fmt.Sprintf("%s (%s)", msg, e.URI)
}

// Is matches any FileSystemError with the same code.
func (e *FileSystemError) Is(target error) bool {
	t, ok := target.(*FileSystemError)
	return ok && t.Code == e.Code
}

func newError(code Code, u uri.URI, message string) *FileSystemError {
	return &FileSystemError{Code: code, URI: u, Message: message}
}

// FileNotFound returns a FileNotFound error for u.
func FileNotFound(u uri.URI) *FileSystemError { return newError(CodeFileNotFound, u, "") }

// FileExists returns a FileExists error for u.
func FileExists(u uri.URI) *FileSystemError { return newError(CodeFileExists, u, "") }

// FileIsADirectory returns a FileIsADirectory error for u.
func FileIsADirectory(u uri.URI) *FileSystemError { return newError(CodeFileIsADirectory, u, "") }

// FileNotADirectory returns a FileNotADirectory error for u.
func FileNotADirectory(u uri.URI) *FileSystemError { return newError(CodeFileNotADirectory, u, "") }

// NoPermissions returns a NoPermissions error for u with an optional message.
func NoPermissions(u uri.URI, message string) *FileSystemError {
	return newError(CodeNoPermissions, u, message)
}

// Unavailable returns an Unavailable error for u with an optional message.
func Unavailable(u uri.URI, message string) *FileSystemError {
	return newError(CodeUnavailable, u, message)
}

// CodeOf returns the code of the FileSystemError in err's chain, or "" if
// there is none.
func CodeOf(err error) Code {
	var fse *FileSystemError
	if errors.As(err, &fse) {
		return fse.Code
	}
	return ""
}
