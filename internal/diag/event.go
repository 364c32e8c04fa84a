package diag

import "time"

// Kind represents the type of diagnostic event.
type Kind uint8

const (
	// KindSpanBegin marks the start of a logical operation.
	KindSpanBegin Kind = iota + 1
	// KindSpanEnd marks the end of a logical operation.
	KindSpanEnd
	// KindPoint represents an instant event.
	KindPoint
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity of the event.
// Lower numeric values represent coarser events.
type Scope uint8

const (
	// ScopeSession covers begin/finish of a recording session.
	ScopeSession Scope = iota + 1
	// ScopeHook covers individual hook batches.
	ScopeHook
	// ScopeValue covers value conversion volume.
	ScopeValue
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeSession:
		return "session"
	case ScopeHook:
		return "hook"
	case ScopeValue:
		return "value"
	default:
		return "unknown"
	}
}

// Event represents a single diagnostic event.
type Event struct {
	Time     time.Time
	Seq      uint64 // global sequence number (monotonic)
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 if root
	GID      uint64 // goroutine ID
	Name     string
	Detail   string
	Extra    map[string]string
}
