package tracelog

import (
	"encoding/json"
	"testing"

	"runtrace/internal/values"
)

func TestEnsureIDsAreIdempotent(t *testing.T) {
	l := New()
	f1 := l.EnsureFunctionID("foo", "a.rb", 1)
	f2 := l.EnsureFunctionID("foo", "b.rb", 9)
	if f1 != f2 {
		t.Fatalf("function interned twice: %d %d", f1, f2)
	}
	if got := l.Functions()[0]; got.Line != 1 || l.Paths()[got.PathID] != "a.rb" {
		t.Fatalf("first registration location not kept: %+v", got)
	}
	v1 := l.EnsureVariableID("x")
	v2 := l.EnsureVariableID("x")
	if v1 != v2 || len(l.Variables()) != 1 {
		t.Fatalf("variable interned twice")
	}
	p1 := l.EnsurePathID("a.rb")
	p2 := l.EnsurePathID("a.rb")
	if p1 != p2 || len(l.Paths()) != 1 {
		t.Fatalf("path interned twice: %v", l.Paths())
	}
}

func TestRecordsInterleaveStepsPositionally(t *testing.T) {
	l := New()
	fn := l.EnsureFunctionID("foo", "a.rb", 1)
	if err := l.Add(Call(fn, nil)); err != nil {
		t.Fatalf("add call: %v", err)
	}
	l.RegisterStep("a.rb", 2)
	l.RegisterStep("a.rb", 3)
	l.RegisterVariableWithFullValue("x", values.Int(42, 1))
	if err := l.Add(Return(values.Int(42, 1))); err != nil {
		t.Fatalf("add return: %v", err)
	}

	if l.Len() != 3 {
		t.Fatalf("entries = %d, want 3", l.Len())
	}
	want := []RecordKind{RecCall, RecStep, RecStep, RecValue, RecReturn}
	got := l.Records()
	if len(got) != len(want) {
		t.Fatalf("records = %d, want %d", len(got), len(want))
	}
	for i, k := range want {
		if got[i].Kind != k {
			t.Fatalf("record %d: got %s, want %s", i, got[i].Kind, k)
		}
	}
	if got[2].Step.Line != 3 {
		t.Fatalf("second step line = %d", got[2].Step.Line)
	}
}

func TestTrailingStepsAreKept(t *testing.T) {
	l := New()
	l.RegisterStep("a.rb", 1)
	recs := l.Records()
	if len(recs) != 1 || recs[0].Kind != RecStep {
		t.Fatalf("trailing step lost: %+v", recs)
	}
}

func TestDropLastStep(t *testing.T) {
	l := New()
	l.RegisterStep("a.rb", 1)
	l.RegisterVariableWithFullValue("x", values.Int(1, 1))
	if l.DropLastStep() {
		t.Fatalf("dropped a step that already has entries")
	}
	l.RegisterStep("a.rb", 2)
	if !l.DropLastStep() {
		t.Fatalf("empty trailing step not dropped")
	}
	if l.StepCount() != 1 {
		t.Fatalf("steps = %d", l.StepCount())
	}
}

func TestAddRejectsMalformed(t *testing.T) {
	l := New()
	if err := l.Add(Record{Kind: RecCall}); err == nil {
		t.Fatalf("expected error for call without payload")
	}
	if err := l.Add(Step(5, 1)); err == nil {
		t.Fatalf("expected error for step with unknown path")
	}
	id := l.EnsurePathID("a.rb")
	if err := l.Add(Step(id, 4)); err != nil {
		t.Fatalf("step add: %v", err)
	}
	if l.StepCount() != 1 || l.Len() != 0 {
		t.Fatalf("step was not routed to the position table")
	}
}

func TestRecordJSONTagging(t *testing.T) {
	recs := []Record{
		Step(0, 3),
		Call(1, []values.FullValueRecord{{VariableID: 0, Value: values.Int(7, 1)}}),
		Return(values.None(6)),
		Value(2, values.String("s", 3)),
		Event(EventError, "", "boom"),
		ThreadStart(77),
		ThreadExit(77),
	}
	data, err := json.Marshal(recs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back []Record
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back) != len(recs) {
		t.Fatalf("decoded %d records", len(back))
	}
	for i := range recs {
		if back[i].Kind != recs[i].Kind {
			t.Fatalf("record %d: kind %s, want %s", i, back[i].Kind, recs[i].Kind)
		}
	}
	if back[1].Call.FunctionID != 1 || back[1].Call.Args[0].Value.I != 7 {
		t.Fatalf("call payload lost: %+v", back[1].Call)
	}
	if back[4].Event.Kind != EventError || back[4].Event.Content != "boom" {
		t.Fatalf("event payload lost: %+v", back[4].Event)
	}
	if back[5].Thread != 77 {
		t.Fatalf("thread id lost")
	}

	var unknown Record
	if err := json.Unmarshal([]byte(`{"Bogus":{}}`), &unknown); err == nil {
		t.Fatalf("expected unknown tag error")
	}
}
