package lua

import "errors"

var (
	// ErrNilHost is returned by NewState without a host to drive.
	ErrNilHost = errors.New("lua: nil host")

	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when a script runs past its deadline.
	ErrExecutionTimeout = errors.New("lua execution timeout")
)
