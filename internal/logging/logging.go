// Package logging provides leveled, named loggers with a single global
// threshold. Logging is off unless the EXTSIM_LOG environment variable or an
// explicit SetLevel call turns it on, so test output stays quiet by default.
package logging

import (
	"strings"
	"sync/atomic"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

// Root is the name prefix shared by every logger in the module.
const Root = "extsim"

// EnvVar names the environment variable read at startup for the threshold.
const EnvVar = "EXTSIM_LOG"

// Level is the global logging threshold.
type Level int

const (
	// LevelTrace logs everything, including per-event delivery.
	LevelTrace Level = iota
	// LevelDebug is for detailed debugging information.
	LevelDebug
	// LevelInfo is for general informational messages.
	LevelInfo
	// LevelWarn is for conditions that were tolerated, such as a skipped folder.
	LevelWarn
	// LevelError is for failures, such as a panicking listener.
	LevelError
	// LevelOff suppresses all output.
	LevelOff
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a level name. Unknown names yield LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "off", "none", "quiet":
		return LevelOff
	default:
		return LevelInfo
	}
}

// Verbosity returns the commonlog verbosity equivalent of l.
// Trace shares the Debug verbosity; commonlog has no finer level.
func (l Level) Verbosity() int {
	switch l {
	case LevelTrace, LevelDebug:
		return 2
	case LevelInfo:
		return 1
	case LevelWarn:
		return -1
	case LevelError:
		return -2
	default:
		return -4
	}
}

var current atomic.Int32

// SetLevel sets the global threshold.
func SetLevel(l Level) {
	current.Store(int32(l))
	commonlog.SetMaxLevel(commonlog.VerbosityToMaxLevel(l.Verbosity()), Root)
}

// CurrentLevel returns the global threshold.
func CurrentLevel() Level {
	return Level(current.Load())
}

// Enabled reports whether messages at level l are emitted.
func Enabled(l Level) bool {
	cur := CurrentLevel()
	return cur != LevelOff && l >= cur
}

// ToFile redirects output to the file at path and applies the threshold.
func ToFile(l Level, path string) {
	commonlog.Configure(l.Verbosity(), &path)
	SetLevel(l)
}

// Get returns the logger for a component, e.g. Get("vfs") yields the logger
// named "extsim.vfs".
func Get(component string) commonlog.Logger {
	return commonlog.GetLogger(Root + "." + component)
}

// Tracef logs at debug verbosity, but only when the threshold is LevelTrace.
func Tracef(log commonlog.Logger, format string, args ...any) {
	if CurrentLevel() == LevelTrace {
		log.Debugf(format, args...)
	}
}
