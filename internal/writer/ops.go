package writer

import (
	"runtrace/internal/tracelog"
	"runtrace/internal/types"
	"runtrace/internal/values"
)

// The methods below are single-operation Captures. Called from inside a
// capture on the same goroutine they are dropped and return zero values.

// RegisterStep moves the current position to path:line.
func (w *Writer) RegisterStep(path string, line tracelog.Line) error {
	return w.Capture(func(c *Capture) { c.Step(path, line) })
}

// AddEvent appends a prebuilt record.
func (w *Writer) AddEvent(r tracelog.Record) error {
	return w.Capture(func(c *Capture) { c.Add(r) })
}

// RegisterVariableWithFullValue records v as the value of name.
func (w *Writer) RegisterVariableWithFullValue(name string, v values.ValueRecord) error {
	return w.Capture(func(c *Capture) { c.VariableValue(name, v) })
}

// EnsureTypeID interns a (kind, name) type.
func (w *Writer) EnsureTypeID(kind types.Kind, name string) (types.TypeID, error) {
	var id types.TypeID
	err := w.Capture(func(c *Capture) { id = c.EnsureTypeID(kind, name) })
	return id, err
}

// EnsureRawTypeID registers t as a new type.
func (w *Writer) EnsureRawTypeID(t types.TypeRecord) (types.TypeID, error) {
	var id types.TypeID
	err := w.Capture(func(c *Capture) { id = c.EnsureRawTypeID(t) })
	return id, err
}

// EnsureFunctionID interns a function.
func (w *Writer) EnsureFunctionID(name, path string, line tracelog.Line) (tracelog.FunctionID, error) {
	var id tracelog.FunctionID
	err := w.Capture(func(c *Capture) { id = c.FunctionID(name, path, line) })
	return id, err
}

// EnsureVariableID interns a variable name.
func (w *Writer) EnsureVariableID(name string) (values.VariableID, error) {
	var id values.VariableID
	err := w.Capture(func(c *Capture) { id = c.VariableID(name) })
	return id, err
}

// Arg pairs name with v for use in RegisterCall.
func (w *Writer) Arg(name string, v values.ValueRecord) (values.FullValueRecord, error) {
	var arg values.FullValueRecord
	err := w.Capture(func(c *Capture) { arg = c.Arg(name, v) })
	return arg, err
}

// RegisterCall records entry into fn.
func (w *Writer) RegisterCall(fn tracelog.FunctionID, args []values.FullValueRecord) error {
	return w.Capture(func(c *Capture) { c.Call(fn, args) })
}

// RegisterReturn records exit from the current function.
func (w *Writer) RegisterReturn(v values.ValueRecord) error {
	return w.Capture(func(c *Capture) { c.Return(v) })
}

// RegisterSpecialEvent records an Event record.
func (w *Writer) RegisterSpecialEvent(kind tracelog.EventKind, metadata, content string) error {
	return w.Capture(func(c *Capture) { c.Event(kind, metadata, content) })
}

// ThreadStart records that a host thread started.
func (w *Writer) ThreadStart(id tracelog.ThreadID) error {
	return w.Capture(func(c *Capture) { c.ThreadStart(id) })
}

// ThreadExit records that a host thread exited.
func (w *Writer) ThreadExit(id tracelog.ThreadID) error {
	return w.Capture(func(c *Capture) { c.ThreadExit(id) })
}

// DropLastStep removes the latest step if nothing was recorded at it.
func (w *Writer) DropLastStep() (bool, error) {
	var dropped bool
	err := w.Capture(func(c *Capture) { dropped = c.DropLastStep() })
	return dropped, err
}

// ToValue converts v with the configured depth without recording it.
func (w *Writer) ToValue(v any) (values.ValueRecord, error) {
	var out values.ValueRecord
	err := w.Capture(func(c *Capture) { out = c.ToValue(v) })
	return out, err
}
