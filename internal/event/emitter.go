package event

import (
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/extsim/internal/logging"
)

var log = logging.Get("event")

// Listener receives the payload of a fired event.
type Listener[T any] func(T)

// Emitter is a single typed channel. Delivery is synchronous and in
// subscription order, over a snapshot of the listeners taken when Fire is
// called: a listener added during delivery is not called by that Fire, and a
// listener disposed during delivery still receives it.
//
// A panicking listener is recovered and logged; the remaining listeners
// still receive the event.
type Emitter[T any] struct {
	name Name
	bus  *Bus

	mu         sync.Mutex
	generation uint64
	subs       []*subscription[T]
}

type subscription[T any] struct {
	id         string
	listener   Listener[T]
	generation uint64
}

// NewEmitter creates a standalone emitter that is not part of any bus.
func NewEmitter[T any](name Name) *Emitter[T] {
	return &Emitter[T]{name: name}
}

// Name returns the channel name.
func (e *Emitter[T]) Name() Name {
	return e.name
}

// Subscribe adds a listener and returns the handle that removes it.
// Subscribing a nil listener panics.
func (e *Emitter[T]) Subscribe(l Listener[T]) *Subscription {
	if l == nil {
		panic(ErrNilListener)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s := &subscription[T]{
		id:         uuid.NewString(),
		listener:   l,
		generation: e.generation,
	}
	e.subs = append(e.subs, s)

	return newSubscription(s.id, e.name, func() { e.remove(s) })
}

// remove drops s if it belongs to the current generation. Subscriptions
// from before a Reset are already gone, so their removal is a no-op.
func (e *Emitter[T]) remove(s *subscription[T]) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s.generation != e.generation {
		return false
	}
	for i, cur := range e.subs {
		if cur == s {
			e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Fire delivers payload to a snapshot of the current listeners and returns
// the number of listeners that ran without panicking.
func (e *Emitter[T]) Fire(payload T) int {
	e.mu.Lock()
	snapshot := make([]*subscription[T], len(e.subs))
	copy(snapshot, e.subs)
	e.mu.Unlock()

	if e.bus != nil {
		e.bus.record(e.name, payload)
	}
	logging.Tracef(log, "fire %s to %d listener(s)", e.name, len(snapshot))

	delivered := 0
	for _, s := range snapshot {
		if e.deliver(s, payload) {
			delivered++
		}
	}
	return delivered
}

func (e *Emitter[T]) deliver(s *subscription[T], payload T) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			perr := &PanicError{SubscriptionID: s.id, Channel: e.name, Value: r}
			log.Errorf("%s", perr.Error())
			if e.bus != nil {
				e.bus.recordError(perr)
			}
			ok = false
		}
	}()
	s.listener(payload)
	return true
}

// ListenerCount returns the number of live subscriptions.
func (e *Emitter[T]) ListenerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}

// Reset removes every subscription. Handles obtained before the reset
// become no-ops when disposed; the emitter itself remains usable.
func (e *Emitter[T]) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	e.subs = nil
}

// channelName satisfies channel.
func (e *Emitter[T]) channelName() Name { return e.name }
