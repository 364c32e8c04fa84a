// Package hook adapts host runtime callbacks (line, call, return, raise,
// output writes, thread lifecycle) to trace writer operations.
package hook

import (
	"runtrace/internal/hostgo"
	"runtrace/internal/tracelog"
	"runtrace/internal/values"
	"runtrace/internal/writer"
)

// Well-known names recorded by the adapter.
const (
	TopLevelName    = "<top-level>"
	ReturnValueName = "<return_value>"
	SelfName        = "self"
	rootClass       = "Object"
)

// Local is a named variable visible at a hook site.
type Local struct {
	Name  string
	Value any
}

// Recorder translates host callbacks into writer captures.
type Recorder struct {
	w       *writer.Writer
	classOf func(any) string
}

// Option customizes a Recorder.
type Option func(*Recorder)

// WithClassOf sets how receiver class names are derived.
func WithClassOf(fn func(any) string) Option {
	return func(r *Recorder) { r.classOf = fn }
}

// New creates a Recorder feeding w. Receiver classes default to Go type
// names.
func New(w *writer.Writer, opts ...Option) *Recorder {
	r := &Recorder{w: w, classOf: hostgo.ClassOf}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Writer returns the underlying writer.
func (r *Recorder) Writer() *writer.Writer { return r.w }

// Start records the implicit call of the program's top level.
func (r *Recorder) Start() error {
	return r.w.Capture(func(c *writer.Capture) {
		c.Call(c.FunctionID(TopLevelName, "", 1), nil)
	})
}

// OnLine records a step at path:line followed by the visible locals.
func (r *Recorder) OnLine(path string, line int64, locals []Local) error {
	return r.w.Hook(path, func(c *writer.Capture) {
		c.Step(path, tracelog.Line(line))
		for _, l := range locals {
			c.Variable(l.Name, l.Value)
		}
	})
}

// OnCall records entry into method on self. The receiver is recorded as a
// raw value and passed as the first argument; method names are qualified
// with the receiver class unless it is the root class.
func (r *Recorder) OnCall(path string, line int64, method string, self any, params []Local) error {
	class := r.className(self)
	return r.w.Hook(path, func(c *writer.Capture) {
		selfVal := c.RawValue(self, class)
		c.VariableValue(SelfName, selfVal)
		args := make([]values.FullValueRecord, 0, len(params)+1)
		args = append(args, c.Arg(SelfName, selfVal))
		for _, p := range params {
			v := c.ToValue(p.Value)
			c.VariableValue(p.Name, v)
			args = append(args, c.Arg(p.Name, v))
		}

		c.Step(path, tracelog.Line(line))
		name := method
		if class != rootClass {
			name = class + "#" + method
		}
		c.Call(c.FunctionID(name, path, tracelog.Line(line)), args)
	})
}

// OnReturn records the return value of the current function.
func (r *Recorder) OnReturn(path string, line int64, value any) error {
	return r.w.Hook(path, func(c *writer.Capture) {
		c.Step(path, tracelog.Line(line))
		v := c.ToValue(value)
		c.VariableValue(ReturnValueName, v)
		c.Return(v)
	})
}

// OnRaise records a raised error by its display text.
func (r *Recorder) OnRaise(path string, line int64, exc any) error {
	return r.w.Hook(path, func(c *writer.Capture) {
		c.Event(tracelog.EventError, "", c.Display(exc))
	})
}

// RecordWrite records program output written from path:line.
func (r *Recorder) RecordWrite(path string, line int64, content any) error {
	return r.w.Hook(path, func(c *writer.Capture) {
		c.Step(path, tracelog.Line(line))
		c.Event(tracelog.EventWrite, "", c.Display(content))
	})
}

// OnThreadStart records that a host thread started.
func (r *Recorder) OnThreadStart(id uint64) error {
	return r.w.ThreadStart(tracelog.ThreadID(id))
}

// OnThreadExit records that a host thread exited.
func (r *Recorder) OnThreadExit(id uint64) error {
	return r.w.ThreadExit(tracelog.ThreadID(id))
}

// Invoke records a call of method, runs body and records its result as the
// return value. Recording errors are reported after body ran.
func (r *Recorder) Invoke(path string, line int64, method string, self any, params []Local, body func() any) (any, error) {
	callErr := r.OnCall(path, line, method, self, params)
	result := body()
	retErr := r.OnReturn(path, line, result)
	if callErr != nil {
		return result, callErr
	}
	return result, retErr
}

func (r *Recorder) className(self any) string {
	if self == nil {
		return rootClass
	}
	if name := r.classOf(self); name != "" {
		return name
	}
	return rootClass
}
