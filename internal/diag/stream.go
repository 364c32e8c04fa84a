package diag

import (
	"io"
	"sync"
)

// StreamTracer writes events immediately to an io.Writer.
type StreamTracer struct {
	mu     sync.Mutex
	w      io.Writer
	level  Level
	format Format
}

// NewStreamTracer creates a new StreamTracer.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	return &StreamTracer{w: w, level: level, format: format}
}

// Emit writes an event to the output.
func (t *StreamTracer) Emit(ev *Event) {
	if !accepts(t.level, ev) {
		return
	}
	ev.Seq = NextSeq()
	data := FormatEvent(ev, t.format)

	t.mu.Lock()
	defer t.mu.Unlock()
	// Best-effort: a broken diag sink must not disturb recording.
	_, _ = t.w.Write(data) //nolint:errcheck
}

// Flush calls Flush or Sync on the writer when available.
func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if flusher, ok := t.w.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

// Close flushes and closes the writer unless it is a standard stream.
func (t *StreamTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	return closeOutput(t.w)
}

// Level returns the current level.
func (t *StreamTracer) Level() Level { return t.level }

// Enabled returns true if diagnostics are active.
func (t *StreamTracer) Enabled() bool { return t.level > LevelOff }

// accepts applies level filtering; error points always pass an enabled tracer.
func accepts(level Level, ev *Event) bool {
	if level == LevelOff {
		return false
	}
	if ev.Extra != nil && ev.Extra["severity"] == "error" {
		return true
	}
	return level.ShouldEmit(ev.Scope)
}
