package event

// DefaultMaxErrors is the number of recovered listener panics a bus keeps.
const DefaultMaxErrors = 1000

// BusOption configures an event Bus.
type BusOption func(*busConfig)

// busConfig contains configuration for the event bus.
type busConfig struct {
	// maxErrors caps the panics kept for Errors. The oldest are dropped.
	maxErrors int

	// panicHandler is called with every recovered listener panic.
	panicHandler func(*PanicError)
}

// defaultBusConfig returns the configuration used by NewBus.
func defaultBusConfig() busConfig {
	return busConfig{
		maxErrors: DefaultMaxErrors,
	}
}

// WithMaxErrors sets how many recovered panics Errors retains.
func WithMaxErrors(n int) BusOption {
	return func(c *busConfig) {
		if n > 0 {
			c.maxErrors = n
		}
	}
}

// WithPanicHandler sets a function called, on the firing goroutine, for
// every listener panic the bus recovers.
func WithPanicHandler(fn func(*PanicError)) BusOption {
	return func(c *busConfig) {
		c.panicHandler = fn
	}
}
