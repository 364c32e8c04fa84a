package diag

import (
	"fmt"
	"io"
	"sync"
)

// FlightRecorder holds the most recent events of a run in a fixed buffer.
// Nothing reaches the output until Dump, so successful runs stay silent while
// a failed one can still show what the recorder did just before it failed.
type FlightRecorder struct {
	mu          sync.Mutex
	out         io.Writer
	format      Format
	level       Level
	buf         []Event
	next        int
	wrapped     bool
	overwritten uint64
}

// NewFlightRecorder keeps up to size events (DefaultRingSize if size <= 0)
// and dumps them to out.
func NewFlightRecorder(out io.Writer, size int, level Level, format Format) *FlightRecorder {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &FlightRecorder{out: out, format: format, level: level, buf: make([]Event, size)}
}

// Emit stores ev, overwriting the oldest event when the buffer is full.
func (r *FlightRecorder) Emit(ev *Event) {
	if !accepts(r.level, ev) {
		return
	}
	stored := *ev
	stored.Seq = NextSeq()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.wrapped {
		r.overwritten++
	}
	r.buf[r.next] = stored
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.wrapped = true
	}
}

// Events returns the held events, oldest first.
func (r *FlightRecorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.held()
}

func (r *FlightRecorder) held() []Event {
	if !r.wrapped {
		return append([]Event(nil), r.buf[:r.next]...)
	}
	out := make([]Event, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	return append(out, r.buf[:r.next]...)
}

// Dump writes the held events to the output and empties the buffer. When
// older events were overwritten, a point event saying how many comes first.
func (r *FlightRecorder) Dump() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := r.held()
	if r.overwritten > 0 {
		lost := Event{Kind: KindPoint, Scope: ScopeSession, Name: "overwritten", Detail: fmt.Sprintf("%d earlier events", r.overwritten)}
		events = append([]Event{lost}, events...)
	}
	for i := range events {
		if _, err := r.out.Write(FormatEvent(&events[i], r.format)); err != nil {
			return fmt.Errorf("dump diagnostics: %w", err)
		}
	}
	r.next, r.wrapped, r.overwritten = 0, false, 0
	return nil
}

// Flush is a no-op; events are written only by Dump.
func (r *FlightRecorder) Flush() error { return nil }

// Close discards held events and closes the output.
func (r *FlightRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next, r.wrapped, r.overwritten = 0, false, 0
	return closeOutput(r.out)
}

// Level returns the current level.
func (r *FlightRecorder) Level() Level { return r.level }

// Enabled returns true if diagnostics are active.
func (r *FlightRecorder) Enabled() bool { return r.level > LevelOff }
