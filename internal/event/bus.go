package event

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// channel is the type-erased view of an Emitter held by the bus.
type channel interface {
	channelName() Name
	ListenerCount() int
	Reset()
}

// Record describes one fired event as seen by a tap.
type Record struct {
	// ID uniquely identifies the record.
	ID string

	// Seq is the bus-wide firing sequence number, starting at 1.
	Seq uint64

	// Channel is the channel that fired.
	Channel Name

	// Payload is the fired value.
	Payload any
}

type tap struct {
	pattern string
	fn      func(Record)
}

// Bus owns the channel catalog for one simulator instance.
type Bus struct {
	mu       sync.Mutex
	channels map[Name]channel
	taps     []*tap
	seq      uint64
	errs     []error
	cfg      busConfig
}

// NewBus creates a bus with no listeners.
func NewBus(opts ...BusOption) *Bus {
	cfg := defaultBusConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Bus{channels: make(map[Name]channel), cfg: cfg}
}

// Channel returns the emitter for name, creating it on first use with payload
// type T. It panics if name is not in the catalog or if the channel already
// exists with a different payload type; both are programming errors.
func Channel[T any](b *Bus, name Name) *Emitter[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.channels[name]; ok {
		e, ok := ch.(*Emitter[T])
		if !ok {
			panic(fmt.Errorf("%w: %s is %T", ErrChannelType, name, ch))
		}
		return e
	}
	if !InCatalog(name) {
		panic(fmt.Errorf("%w: %s", ErrUnknownChannel, name))
	}

	e := &Emitter[T]{name: name, bus: b}
	b.channels[name] = e
	return e
}

// Channels returns the catalog names in stable order.
func (b *Bus) Channels() []Name {
	return Catalog()
}

// ListenerCount returns the number of live subscriptions on name.
func (b *Bus) ListenerCount(name Name) int {
	b.mu.Lock()
	ch, ok := b.channels[name]
	b.mu.Unlock()
	if !ok {
		return 0
	}
	return ch.ListenerCount()
}

// TapCount returns the number of taps installed on the bus.
func (b *Bus) TapCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.taps)
}

// TotalListeners returns the number of live subscriptions across all
// channels, not counting taps.
func (b *Bus) TotalListeners() int {
	b.mu.Lock()
	chans := make([]channel, 0, len(b.channels))
	for _, ch := range b.channels {
		chans = append(chans, ch)
	}
	b.mu.Unlock()

	n := 0
	for _, ch := range chans {
		n += ch.ListenerCount()
	}
	return n
}

// Tap calls fn for every event fired on a channel whose name matches
// pattern (see Name.Match). Taps run before the channel's listeners.
func (b *Bus) Tap(pattern string, fn func(Record)) Disposable {
	if fn == nil {
		panic(ErrNilListener)
	}

	t := &tap{pattern: pattern, fn: fn}
	b.mu.Lock()
	b.taps = append(b.taps, t)
	b.mu.Unlock()

	var once sync.Once
	return DisposableFunc(func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, cur := range b.taps {
				if cur == t {
					b.taps = append(b.taps[:i:i], b.taps[i+1:]...)
					return
				}
			}
		})
	})
}

func (b *Bus) record(name Name, payload any) {
	b.mu.Lock()
	b.seq++
	rec := Record{ID: uuid.NewString(), Seq: b.seq, Channel: name, Payload: payload}
	var matched []*tap
	for _, t := range b.taps {
		if name.Match(t.pattern) {
			matched = append(matched, t)
		}
	}
	b.mu.Unlock()

	for _, t := range matched {
		b.callTap(t, rec)
	}
}

func (b *Bus) callTap(t *tap, rec Record) {
	defer func() {
		if r := recover(); r != nil {
			perr := &PanicError{SubscriptionID: "tap:" + t.pattern, Channel: rec.Channel, Value: r}
			log.Errorf("%s", perr.Error())
			b.recordError(perr)
		}
	}()
	t.fn(rec)
}

func (b *Bus) recordError(perr *PanicError) {
	b.mu.Lock()
	b.errs = append(b.errs, perr)
	if over := len(b.errs) - b.cfg.maxErrors; over > 0 {
		b.errs = append(b.errs[:0:0], b.errs[over:]...)
	}
	handler := b.cfg.panicHandler
	b.mu.Unlock()

	if handler != nil {
		handler(perr)
	}
}

// Errors returns the listener panics recovered since the last Reset.
func (b *Bus) Errors() []error {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]error, len(b.errs))
	copy(out, b.errs)
	return out
}

// Reset severs every subscription on every channel and removes all taps.
// Channel objects survive, so components holding an emitter keep a valid
// handle; every Subscription issued before the reset becomes a no-op.
// Reset is idempotent.
func (b *Bus) Reset() {
	b.mu.Lock()
	chans := make([]channel, 0, len(b.channels))
	for _, ch := range b.channels {
		chans = append(chans, ch)
	}
	b.taps = nil
	b.errs = nil
	b.seq = 0
	b.mu.Unlock()

	for _, ch := range chans {
		ch.Reset()
	}
}
