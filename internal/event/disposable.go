package event

import "sync"

// Disposable releases a resource such as a subscription.
type Disposable interface {
	Dispose()
}

// DisposableFunc adapts a function to Disposable.
type DisposableFunc func()

// Dispose calls f.
func (f DisposableFunc) Dispose() { f() }

// Subscription is the handle returned by Subscribe.
// Dispose is idempotent.
type Subscription struct {
	id      string
	channel Name

	once   sync.Once
	remove func()
}

func newSubscription(id string, channel Name, remove func()) *Subscription {
	return &Subscription{id: id, channel: channel, remove: remove}
}

// ID returns the unique subscription identifier.
func (s *Subscription) ID() string { return s.id }

// Channel returns the name of the channel subscribed to.
func (s *Subscription) Channel() Name { return s.channel }

// Dispose removes the listener. After the channel has been reset, Dispose
// does nothing.
func (s *Subscription) Dispose() {
	s.once.Do(s.remove)
}

// Combine returns a Disposable that disposes each of ds in order.
func Combine(ds ...Disposable) Disposable {
	var once sync.Once
	return DisposableFunc(func() {
		once.Do(func() {
			for _, d := range ds {
				if d != nil {
					d.Dispose()
				}
			}
		})
	})
}

// Store collects disposables so they can be released together.
// The zero value is ready to use.
type Store struct {
	mu    sync.Mutex
	items []Disposable
}

// Add appends d to the store.
func (s *Store) Add(d Disposable) {
	s.mu.Lock()
	s.items = append(s.items, d)
	s.mu.Unlock()
}

// Len returns the number of held disposables.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Dispose releases every held disposable, newest first, and empties the store.
func (s *Store) Dispose() {
	s.mu.Lock()
	items := s.items
	s.items = nil
	s.mu.Unlock()

	for i := len(items) - 1; i >= 0; i-- {
		items[i].Dispose()
	}
}
