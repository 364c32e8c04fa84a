package tracelog

import (
	"encoding/json"
	"fmt"

	"runtrace/internal/values"
)

// FunctionID is the interned handle of a function name.
type FunctionID uint32

// PathID is the index of a source path in the path table.
type PathID uint32

// Line is a 1-based source line number.
type Line int64

// ThreadID identifies a host thread.
type ThreadID uint64

// EventKind classifies RecordEvent entries. Numeric values are persisted.
type EventKind uint8

const (
	EventWrite EventKind = iota
	EventWriteFile
	EventWriteOther
	EventRead
	EventReadFile
	EventReadOther
	EventReadDir
	EventOpenDir
	EventCloseDir
	EventSocket
	EventOpen
	EventError
	EventTraceLog
)

// String returns the string representation of EventKind.
func (k EventKind) String() string {
	switch k {
	case EventWrite:
		return "write"
	case EventWriteFile:
		return "write_file"
	case EventWriteOther:
		return "write_other"
	case EventRead:
		return "read"
	case EventReadFile:
		return "read_file"
	case EventReadOther:
		return "read_other"
	case EventReadDir:
		return "read_dir"
	case EventOpenDir:
		return "open_dir"
	case EventCloseDir:
		return "close_dir"
	case EventSocket:
		return "socket"
	case EventOpen:
		return "open"
	case EventError:
		return "error"
	case EventTraceLog:
		return "trace_log"
	default:
		return fmt.Sprintf("EventKind(%d)", k)
	}
}

// FunctionRecord describes an interned function.
type FunctionRecord struct {
	PathID PathID `json:"path_id" msgpack:"path_id"`
	Line   Line   `json:"line" msgpack:"line"`
	Name   string `json:"name" msgpack:"name"`
}

// StepRecord is a position update.
type StepRecord struct {
	PathID PathID `json:"path_id" msgpack:"path_id"`
	Line   Line   `json:"line" msgpack:"line"`
}

// CallRecord marks entry into a function.
type CallRecord struct {
	FunctionID FunctionID               `json:"function_id" msgpack:"function_id"`
	Args       []values.FullValueRecord `json:"args" msgpack:"args"`
}

// ReturnRecord marks exit from the current function.
type ReturnRecord struct {
	ReturnValue values.ValueRecord `json:"return_value" msgpack:"return_value"`
}

// RecordEvent is a log-style event such as program output or a raised error.
type RecordEvent struct {
	Kind     EventKind `json:"kind" msgpack:"kind"`
	Metadata string    `json:"metadata" msgpack:"metadata"`
	Content  string    `json:"content" msgpack:"content"`
}

// RecordKind selects the active payload of a Record.
type RecordKind uint8

const (
	RecInvalid RecordKind = iota
	RecStep
	RecCall
	RecReturn
	RecValue
	RecEvent
	RecThreadStart
	RecThreadExit
)

var recordKindNames = [...]string{
	RecInvalid:     "Invalid",
	RecStep:        "Step",
	RecCall:        "Call",
	RecReturn:      "Return",
	RecValue:       "Value",
	RecEvent:       "Event",
	RecThreadStart: "ThreadStart",
	RecThreadExit:  "ThreadExit",
}

// String returns the persisted tag of the kind.
func (k RecordKind) String() string {
	if int(k) < len(recordKindNames) {
		return recordKindNames[k]
	}
	return fmt.Sprintf("RecordKind(%d)", k)
}

// Record is one low-level trace event. Exactly one payload pointer matching
// Kind is set.
type Record struct {
	Kind   RecordKind              `json:"-" msgpack:"k"`
	Step   *StepRecord             `json:"-" msgpack:"step,omitempty"`
	Call   *CallRecord             `json:"-" msgpack:"call,omitempty"`
	Return *ReturnRecord           `json:"-" msgpack:"ret,omitempty"`
	Value  *values.FullValueRecord `json:"-" msgpack:"value,omitempty"`
	Event  *RecordEvent            `json:"-" msgpack:"event,omitempty"`
	Thread ThreadID                `json:"-" msgpack:"thread,omitempty"`
}

// Step builds a Step record.
func Step(path PathID, line Line) Record {
	return Record{Kind: RecStep, Step: &StepRecord{PathID: path, Line: line}}
}

// Call builds a Call record.
func Call(fn FunctionID, args []values.FullValueRecord) Record {
	if args == nil {
		args = []values.FullValueRecord{}
	}
	return Record{Kind: RecCall, Call: &CallRecord{FunctionID: fn, Args: args}}
}

// Return builds a Return record.
func Return(v values.ValueRecord) Record {
	return Record{Kind: RecReturn, Return: &ReturnRecord{ReturnValue: v}}
}

// Value builds a Value record.
func Value(id values.VariableID, v values.ValueRecord) Record {
	return Record{Kind: RecValue, Value: &values.FullValueRecord{VariableID: id, Value: v}}
}

// Event builds an Event record.
func Event(kind EventKind, metadata, content string) Record {
	return Record{Kind: RecEvent, Event: &RecordEvent{Kind: kind, Metadata: metadata, Content: content}}
}

// ThreadStart builds a ThreadStart record.
func ThreadStart(id ThreadID) Record {
	return Record{Kind: RecThreadStart, Thread: id}
}

// ThreadExit builds a ThreadExit record.
func ThreadExit(id ThreadID) Record {
	return Record{Kind: RecThreadExit, Thread: id}
}

// Validate reports whether the payload matches Kind.
func (r Record) Validate() error {
	ok := false
	switch r.Kind {
	case RecStep:
		ok = r.Step != nil
	case RecCall:
		ok = r.Call != nil
	case RecReturn:
		ok = r.Return != nil
	case RecValue:
		ok = r.Value != nil
	case RecEvent:
		ok = r.Event != nil
	case RecThreadStart, RecThreadExit:
		ok = true
	}
	if !ok {
		return fmt.Errorf("malformed %s record", r.Kind)
	}
	return nil
}

// MarshalJSON encodes the record externally tagged: {"Call":{...}}.
func (r Record) MarshalJSON() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	var payload any
	switch r.Kind {
	case RecStep:
		payload = r.Step
	case RecCall:
		payload = r.Call
	case RecReturn:
		payload = r.Return
	case RecValue:
		payload = r.Value
	case RecEvent:
		payload = r.Event
	case RecThreadStart, RecThreadExit:
		payload = r.Thread
	}
	return json.Marshal(map[string]any{r.Kind.String(): payload})
}

// UnmarshalJSON decodes the layout produced by MarshalJSON.
func (r *Record) UnmarshalJSON(b []byte) error {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(b, &tagged); err != nil {
		return err
	}
	if len(tagged) != 1 {
		return fmt.Errorf("record must have exactly one tag, got %d", len(tagged))
	}
	*r = Record{}
	for tag, raw := range tagged {
		switch tag {
		case "Step":
			r.Kind, r.Step = RecStep, new(StepRecord)
			return json.Unmarshal(raw, r.Step)
		case "Call":
			r.Kind, r.Call = RecCall, new(CallRecord)
			return json.Unmarshal(raw, r.Call)
		case "Return":
			r.Kind, r.Return = RecReturn, new(ReturnRecord)
			return json.Unmarshal(raw, r.Return)
		case "Value":
			r.Kind, r.Value = RecValue, new(values.FullValueRecord)
			return json.Unmarshal(raw, r.Value)
		case "Event":
			r.Kind, r.Event = RecEvent, new(RecordEvent)
			return json.Unmarshal(raw, r.Event)
		case "ThreadStart":
			r.Kind = RecThreadStart
			return json.Unmarshal(raw, &r.Thread)
		case "ThreadExit":
			r.Kind = RecThreadExit
			return json.Unmarshal(raw, &r.Thread)
		default:
			return fmt.Errorf("unknown record tag %q", tag)
		}
	}
	return nil
}
