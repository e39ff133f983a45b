package event

import (
	"errors"
	"fmt"
)

// Sentinel errors for the event bus.
var (
	// ErrUnknownChannel is raised when a name outside the catalog is requested.
	ErrUnknownChannel = errors.New("unknown event channel")

	// ErrChannelType is raised when a channel is requested with a payload type
	// different from the one it was created with.
	ErrChannelType = errors.New("event channel payload type mismatch")

	// ErrNilListener is raised when a nil listener is subscribed.
	ErrNilListener = errors.New("listener cannot be nil")

	// ErrListenerPanic is wrapped by PanicError.
	ErrListenerPanic = errors.New("listener panicked")
)

// PanicError records a panic raised by a listener during delivery.
type PanicError struct {
	// SubscriptionID is the ID of the subscription whose listener panicked.
	SubscriptionID string

	// Channel is the channel being fired.
	Channel Name

	// Value is the value passed to panic().
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("listener panic for subscription %s on channel %s: %v", e.SubscriptionID, e.Channel, e.Value)
}

// Unwrap returns ErrListenerPanic.
func (e *PanicError) Unwrap() error {
	return ErrListenerPanic
}
