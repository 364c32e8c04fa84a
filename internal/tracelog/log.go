// Package tracelog holds the ordered low-level event log of a recording
// session together with the function, variable and path tables it references.
package tracelog

import (
	"fmt"

	"fortio.org/safecast"

	"runtrace/internal/values"
)

type placedStep struct {
	step StepRecord
	at   int // number of entries recorded before this step
}

// Log is the append-only event log of one session. Sequence position is the
// clock: entries are kept in append order and steps remember how many entries
// preceded them. Log is not safe for concurrent use.
type Log struct {
	paths     []string
	pathIndex map[string]PathID

	functions     []FunctionRecord
	functionIndex map[string]FunctionID

	variables     []string
	variableIndex map[string]values.VariableID

	steps   []placedStep
	entries []Record
}

// New returns an empty log.
func New() *Log {
	return &Log{
		pathIndex:     make(map[string]PathID),
		functionIndex: make(map[string]FunctionID),
		variableIndex: make(map[string]values.VariableID),
	}
}

// EnsurePathID interns path into the path table.
func (l *Log) EnsurePathID(path string) PathID {
	if id, ok := l.pathIndex[path]; ok {
		return id
	}
	id := PathID(mustU32(len(l.paths)))
	l.paths = append(l.paths, path)
	l.pathIndex[path] = id
	return id
}

// Path returns the path interned as id.
func (l *Log) Path(id PathID) (string, bool) {
	if int(id) >= len(l.paths) {
		return "", false
	}
	return l.paths[id], true
}

// EnsureFunctionID interns a function by name. The location of the first
// registration is kept.
func (l *Log) EnsureFunctionID(name, path string, line Line) FunctionID {
	if id, ok := l.functionIndex[name]; ok {
		return id
	}
	id := FunctionID(mustU32(len(l.functions)))
	l.functions = append(l.functions, FunctionRecord{PathID: l.EnsurePathID(path), Line: line, Name: name})
	l.functionIndex[name] = id
	return id
}

// EnsureVariableID interns a variable name.
func (l *Log) EnsureVariableID(name string) values.VariableID {
	if id, ok := l.variableIndex[name]; ok {
		return id
	}
	id := values.VariableID(mustU32(len(l.variables)))
	l.variables = append(l.variables, name)
	l.variableIndex[name] = id
	return id
}

// RegisterStep moves the current position.
func (l *Log) RegisterStep(path string, line Line) {
	l.steps = append(l.steps, placedStep{
		step: StepRecord{PathID: l.EnsurePathID(path), Line: line},
		at:   len(l.entries),
	})
}

// CurrentStep returns the most recent position, if any.
func (l *Log) CurrentStep() (StepRecord, bool) {
	if len(l.steps) == 0 {
		return StepRecord{}, false
	}
	return l.steps[len(l.steps)-1].step, true
}

// DropLastStep discards the most recent step if nothing was recorded at it.
func (l *Log) DropLastStep() bool {
	n := len(l.steps)
	if n == 0 || l.steps[n-1].at != len(l.entries) {
		return false
	}
	l.steps = l.steps[:n-1]
	return true
}

// Add appends one event. Step records are routed to the position table.
func (l *Log) Add(r Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.Kind == RecStep {
		if int(r.Step.PathID) >= len(l.paths) {
			return fmt.Errorf("step references unknown path id %d", r.Step.PathID)
		}
		l.steps = append(l.steps, placedStep{step: *r.Step, at: len(l.entries)})
		return nil
	}
	l.entries = append(l.entries, r)
	return nil
}

// Arg interns name and pairs it with v for use in a CallRecord.
func (l *Log) Arg(name string, v values.ValueRecord) values.FullValueRecord {
	return values.FullValueRecord{VariableID: l.EnsureVariableID(name), Value: v}
}

// RegisterVariableWithFullValue records v as the value of name at the
// current position.
func (l *Log) RegisterVariableWithFullValue(name string, v values.ValueRecord) {
	l.entries = append(l.entries, Value(l.EnsureVariableID(name), v))
}

// Len returns the number of entries, excluding steps.
func (l *Log) Len() int { return len(l.entries) }

// StepCount returns the number of recorded steps.
func (l *Log) StepCount() int { return len(l.steps) }

// Entries returns a copy of the entries in record order.
func (l *Log) Entries() []Record {
	return append([]Record(nil), l.entries...)
}

// Steps returns a copy of the steps in record order.
func (l *Log) Steps() []StepRecord {
	out := make([]StepRecord, len(l.steps))
	for i, s := range l.steps {
		out[i] = s.step
	}
	return out
}

// Records interleaves steps and entries back into the exact order in which
// they were recorded.
func (l *Log) Records() []Record {
	out := make([]Record, 0, len(l.steps)+len(l.entries))
	si := 0
	for ei := 0; ei <= len(l.entries); ei++ {
		for si < len(l.steps) && l.steps[si].at == ei {
			out = append(out, Step(l.steps[si].step.PathID, l.steps[si].step.Line))
			si++
		}
		if ei < len(l.entries) {
			out = append(out, l.entries[ei])
		}
	}
	return out
}

// Paths returns a copy of the path table.
func (l *Log) Paths() []string { return append([]string(nil), l.paths...) }

// Functions returns a copy of the function table.
func (l *Log) Functions() []FunctionRecord {
	return append([]FunctionRecord(nil), l.functions...)
}

// Variables returns a copy of the variable table.
func (l *Log) Variables() []string { return append([]string(nil), l.variables...) }

func mustU32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("tracelog: table overflow: %w", err))
	}
	return v
}
