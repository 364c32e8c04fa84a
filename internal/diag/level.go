package diag

import (
	"fmt"
	"strings"
)

// Level controls diagnostic verbosity.
type Level uint8

const (
	// LevelOff disables diagnostics.
	LevelOff Level = iota
	// LevelError emits only failures.
	LevelError
	// LevelInfo adds session boundaries.
	LevelInfo
	// LevelDebug emits everything.
	LevelDebug
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelError:
		return "error"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "off", "":
		return LevelOff, nil
	case "error":
		return LevelError, nil
	case "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelOff, fmt.Errorf("invalid diag level: %q (expected: off|error|info|debug)", s)
	}
}

// ShouldEmit reports whether events of the given scope pass this level.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelInfo:
		return scope <= ScopeSession
	case LevelDebug:
		return true
	default:
		// LevelError events go through Errorf, which bypasses scope filtering.
		return false
	}
}
