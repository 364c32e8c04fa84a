package writer

import (
	"fmt"
	"strconv"

	"runtrace/internal/convert"
	"runtrace/internal/diag"
	"runtrace/internal/tracelog"
	"runtrace/internal/types"
	"runtrace/internal/values"
)

// Capture is the handle passed to Capture and Hook callbacks. Its methods
// run with the writer lock held and must not be retained after the callback
// returns.
type Capture struct {
	w   *Writer
	err error
}

// Err returns the first error hit during the batch.
func (c *Capture) Err() error { return c.err }

// Builtins returns the baseline type ids.
func (c *Capture) Builtins() types.Builtins { return c.w.registry.Builtins() }

// EnsureTypeID interns a (kind, name) type.
func (c *Capture) EnsureTypeID(kind types.Kind, name string) types.TypeID {
	return c.w.registry.EnsureTypeID(kind, name)
}

// EnsureRawTypeID registers t as a new type.
func (c *Capture) EnsureRawTypeID(t types.TypeRecord) types.TypeID {
	return c.w.registry.EnsureRawTypeID(t)
}

// ToValue converts v with the configured top-level depth.
func (c *Capture) ToValue(v any) values.ValueRecord {
	return c.w.conv.ToValue(v, c.w.maxDepth)
}

// ToValueDepth converts v with an explicit depth budget.
func (c *Capture) ToValueDepth(v any, depth int) values.ValueRecord {
	return c.w.conv.ToValue(v, depth)
}

// RawValue records v as display text typed by class.
func (c *Capture) RawValue(v any, class string) values.ValueRecord {
	return c.w.conv.RawObject(v, class)
}

// Display renders v through the host; failures yield "".
func (c *Capture) Display(v any) string {
	return c.w.conv.DisplayText(v)
}

// Step moves the current position. Steps at ignored paths are counted as
// filtered and leave the path table untouched.
func (c *Capture) Step(path string, line tracelog.Line) {
	w := c.w
	if w.filter.Excluded(path) {
		w.filter.skip()
		return
	}
	w.log.RegisterStep(path, line)
	recordsTotal.WithLabelValues(tracelog.RecStep.String()).Inc()
	if n := w.log.StepCount(); n%stepReportEvery == 0 {
		diag.Point(w.tracer, diag.ScopeHook, "steps", strconv.Itoa(n))
	}
}

// DropLastStep removes the latest step if nothing was recorded at it.
func (c *Capture) DropLastStep() bool {
	return c.w.log.DropLastStep()
}

// FunctionID interns a function, keeping its first location.
func (c *Capture) FunctionID(name, path string, line tracelog.Line) tracelog.FunctionID {
	return c.w.log.EnsureFunctionID(name, path, line)
}

// VariableID interns a variable name.
func (c *Capture) VariableID(name string) values.VariableID {
	return c.w.log.EnsureVariableID(name)
}

// Arg pairs a variable name with an already converted value.
func (c *Capture) Arg(name string, v values.ValueRecord) values.FullValueRecord {
	return c.w.log.Arg(name, v)
}

// Variable converts v and records it as the value of name.
func (c *Capture) Variable(name string, v any) {
	c.VariableValue(name, c.ToValue(v))
}

// VariableValue records an already converted value of name. Values with
// unregistered types are rejected and reported by Err.
func (c *Capture) VariableValue(name string, v values.ValueRecord) {
	if !c.typesKnown(v) {
		return
	}
	c.w.log.RegisterVariableWithFullValue(name, v)
	recordsTotal.WithLabelValues(tracelog.RecValue.String()).Inc()
}

// Call records entry into fn.
func (c *Capture) Call(fn tracelog.FunctionID, args []values.FullValueRecord) {
	c.Add(tracelog.Call(fn, args))
}

// Return records exit from the current function.
func (c *Capture) Return(v values.ValueRecord) {
	c.Add(tracelog.Return(v))
}

// Event records a special event such as program output or a raised error.
func (c *Capture) Event(kind tracelog.EventKind, metadata, content string) {
	c.Add(tracelog.Event(kind, metadata, content))
}

// ThreadStart records that a host thread started.
func (c *Capture) ThreadStart(id tracelog.ThreadID) {
	c.Add(tracelog.ThreadStart(id))
}

// ThreadExit records that a host thread exited.
func (c *Capture) ThreadExit(id tracelog.ThreadID) {
	c.Add(tracelog.ThreadExit(id))
}

// Add appends a prebuilt record. Malformed records and records carrying
// values of unregistered types are rejected; the first rejection is reported
// by Err. Steps at ignored paths are filtered like Step.
func (c *Capture) Add(r tracelog.Record) {
	if r.Kind == tracelog.RecStep && r.Step != nil {
		if path, ok := c.w.log.Path(r.Step.PathID); ok && c.w.filter.Excluded(path) {
			c.w.filter.skip()
			return
		}
	}
	if !c.typesKnown(recordValues(r)...) {
		return
	}
	if err := c.w.log.Add(r); err != nil {
		c.fail(err)
		return
	}
	recordsTotal.WithLabelValues(r.Kind.String()).Inc()
}

func (c *Capture) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// typesKnown reports whether every type id in vs, nested ones included, is
// registered. Cells carry no type and are skipped.
func (c *Capture) typesKnown(vs ...values.ValueRecord) bool {
	for _, v := range vs {
		var bad *types.TypeID
		v.Walk(func(x values.ValueRecord) {
			if bad != nil || x.Kind == values.VKCell {
				return
			}
			if _, ok := c.w.registry.Lookup(x.TypeID); !ok {
				id := x.TypeID
				bad = &id
			}
		})
		if bad != nil {
			c.fail(fmt.Errorf("%w: %d (%s value)", ErrUnknownType, *bad, v.Kind))
			return false
		}
	}
	return true
}

// recordValues lists the values carried by r.
func recordValues(r tracelog.Record) []values.ValueRecord {
	switch {
	case r.Kind == tracelog.RecCall && r.Call != nil:
		out := make([]values.ValueRecord, len(r.Call.Args))
		for i, a := range r.Call.Args {
			out[i] = a.Value
		}
		return out
	case r.Kind == tracelog.RecReturn && r.Return != nil:
		return []values.ValueRecord{r.Return.ReturnValue}
	case r.Kind == tracelog.RecValue && r.Value != nil:
		return []values.ValueRecord{r.Value.Value}
	}
	return nil
}

// Converter exposes the value converter for host adapters.
func (c *Capture) Converter() *convert.Converter { return c.w.conv }
