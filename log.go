package vkwsi

import "fmt"

// Level is the severity of a structured log record emitted by a Context.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelTrace
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelTrace:
		return "trace"
	default:
		return "unknown"
	}
}

// LogFunc receives structured log records for state transitions:
// present-mode selection, scaling-mode selection, OUT_OF_DATE returned by
// swapchain recreation, pool-growth warnings and debug-naming failures.
// OUT_OF_DATE and SUBOPTIMAL results of image acquisition and presentation,
// and falling back to the clamped extent without scaling, are not logged.
// A nil LogFunc is a no-op; there is no package-level logger and no global
// state.
type LogFunc func(level Level, message string)

func (c *Context) logf(level Level, format string, args ...interface{}) {
	if c.log == nil {
		return
	}
	c.log(level, fmt.Sprintf(format, args...))
}
