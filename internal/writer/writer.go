// Package writer is the recording facade: it owns the type registry, the
// event log and the output session of one trace, and serializes every
// mutation behind a single lock.
package writer

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"runtrace/internal/convert"
	"runtrace/internal/diag"
	"runtrace/internal/hostgo"
	"runtrace/internal/tracefile"
	"runtrace/internal/tracelog"
	"runtrace/internal/types"
)

// State is the lifecycle phase of a Writer.
type State uint8

const (
	StateUninitialized State = iota
	StateActive
	StateFinished
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateActive:
		return "active"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

var (
	// ErrNotActive is returned by recording operations outside the active phase.
	ErrNotActive = errors.New("trace writer is not active")
	// ErrAlreadyStarted is returned by Begin on a writer that already began.
	ErrAlreadyStarted = errors.New("trace writer already started")
	// ErrReentrant is returned by Finish when called from inside a capture.
	ErrReentrant = errors.New("trace writer called from inside a capture")
	// ErrUnknownType rejects values whose type id is not registered.
	ErrUnknownType = errors.New("value references an unregistered type")
)

const (
	stepReportEvery  = 1000
	valueReportEvery = 10000
)

// Options configure a Writer.
type Options struct {
	Program     string
	Args        []string
	MaxDepth    int // top-level conversion depth; 0 means convert.DefaultDepth
	MaxElements int // collection cap; 0 means convert.DefaultMaxElements, negative disables
	Ignore      []string
	Host        convert.Host // defaults to the Go binding
	Tracer      diag.Tracer
}

// Writer records one trace session.
type Writer struct {
	mu       sync.Mutex
	state    State
	registry *types.Registry
	log      *tracelog.Log
	conv     *convert.Converter
	session  *tracefile.Session
	meta     tracefile.Metadata
	maxDepth int

	filter *PathFilter
	guard  hookGuard
	tracer diag.Tracer
	span   *diag.Span

	paused   atomic.Bool
	dropped  atomic.Uint64
	reported uint64 // values count at the last diag report
}

// New creates an uninitialized writer with the baseline types registered.
func New(opts Options) *Writer {
	if opts.Host == nil {
		opts.Host = hostgo.Host{}
	}
	if opts.Tracer == nil {
		opts.Tracer = diag.Nop
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = convert.DefaultDepth
	}
	switch {
	case opts.MaxElements == 0:
		opts.MaxElements = convert.DefaultMaxElements
	case opts.MaxElements < 0:
		opts.MaxElements = 0
	}

	reg := types.NewRegistry()
	return &Writer{
		registry: reg,
		log:      tracelog.New(),
		conv:     convert.New(opts.Host, reg, convert.Options{MaxElements: opts.MaxElements}),
		meta:     tracefile.NewMetadata(opts.Program, opts.Args),
		maxDepth: opts.MaxDepth,
		filter:   NewPathFilter(opts.Ignore),
		tracer:   opts.Tracer,
	}
}

// Begin opens the output session in dir and activates the writer.
func (w *Writer) Begin(dir string, format tracefile.Format) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateUninitialized {
		return ErrAlreadyStarted
	}
	s, err := tracefile.Create(dir, format)
	if err != nil {
		diag.Errorf(w.tracer, "begin", "%v", err)
		return err
	}
	w.session = s
	w.state = StateActive
	w.span = diag.Begin(w.tracer, diag.ScopeSession, "record", 0).
		WithExtra("dir", dir).
		WithExtra("format", format.String())
	return nil
}

// Finish persists the session. The writer is inert afterwards even if
// saving fails.
func (w *Writer) Finish() error {
	gid := diag.GoroutineID()
	if !w.guard.enter(gid) {
		return ErrReentrant
	}
	defer w.guard.exit(gid)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateActive {
		return ErrNotActive
	}
	w.state = StateFinished

	started := time.Now()
	meta := w.meta
	meta.Types = w.registry.Snapshot()
	meta.Functions = w.log.Functions()
	meta.Variables = w.log.Variables()
	tr := &tracefile.Trace{
		Records:  w.log.Records(),
		Metadata: meta,
		Paths:    w.log.Paths(),
	}
	err := w.session.Finish(tr)
	finishDuration.Observe(time.Since(started).Seconds())

	w.span.WithExtra("steps", strconv.Itoa(w.log.StepCount())).
		WithExtra("events", strconv.Itoa(w.log.Len())).
		WithExtra("types", strconv.Itoa(w.registry.Len()))
	if err != nil {
		diag.Errorf(w.tracer, "finish", "%v", err)
		w.span.End("failed")
		return fmt.Errorf("finish trace: %w", err)
	}
	diag.Point(w.tracer, diag.ScopeSession, "saved trace", w.session.Dir())
	w.span.End("")
	return nil
}

// State returns the current lifecycle phase.
func (w *Writer) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Metadata returns the session metadata known so far.
func (w *Writer) Metadata() tracefile.Metadata {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.meta
}

// Stats returns a snapshot of the recording counters.
func (w *Writer) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{
		Events:   w.log.Len(),
		Steps:    w.log.StepCount(),
		Values:   w.conv.Count(),
		Dropped:  w.dropped.Load(),
		Filtered: w.filter.Skipped(),
	}
}

// Capture runs fn as one guarded batch under the writer lock. A capture
// started while the same goroutine is already inside one is dropped.
func (w *Writer) Capture(fn func(c *Capture)) error {
	gid := diag.GoroutineID()
	if !w.guard.enter(gid) {
		w.drop()
		return nil
	}
	defer w.guard.exit(gid)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateActive {
		return ErrNotActive
	}
	c := &Capture{w: w}
	fn(c)
	w.afterCapture()
	return c.err
}

// Hook is Capture for a host event at path. Ignored paths are skipped, and
// while the writer is disabled every hook is a silent no-op.
func (w *Writer) Hook(path string, fn func(c *Capture)) error {
	if w.paused.Load() {
		return nil
	}
	if w.filter.Excluded(path) {
		w.filter.skip()
		return nil
	}
	return w.Capture(fn)
}

// Disable pauses hook recording until Enable. Direct recording operations
// are not affected.
func (w *Writer) Disable() {
	if !w.paused.Swap(true) {
		diag.Point(w.tracer, diag.ScopeSession, "tracing disabled", "")
	}
}

// Enable resumes hook recording after Disable.
func (w *Writer) Enable() {
	if w.paused.Swap(false) {
		diag.Point(w.tracer, diag.ScopeSession, "tracing enabled", "")
	}
}

// Enabled reports whether hooks are being recorded.
func (w *Writer) Enabled() bool { return !w.paused.Load() }

// Ignored reports whether path is excluded by the path filter.
func (w *Writer) Ignored(path string) bool {
	return w.filter.Excluded(path)
}

func (w *Writer) drop() {
	w.dropped.Add(1)
	droppedTotal.Inc()
}

// afterCapture publishes conversion volume and periodic diagnostics.
func (w *Writer) afterCapture() {
	n := w.conv.Count()
	if n > w.reported {
		valuesTotal.Add(float64(n - w.reported))
		if n/valueReportEvery != w.reported/valueReportEvery {
			diag.Point(w.tracer, diag.ScopeValue, "values", strconv.FormatUint(n, 10))
		}
		w.reported = n
	}
}
