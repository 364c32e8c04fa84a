package hook

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"runtrace/internal/tracefile"
	"runtrace/internal/tracelog"
	"runtrace/internal/types"
	"runtrace/internal/values"
	"runtrace/internal/writer"
)

type Point struct {
	X, Y int
}

func (p Point) String() string { return "P" }

type loudErr struct{}

func (loudErr) Error() string { panic("no message") }

func record(t *testing.T, fn func(r *Recorder)) *tracefile.Trace {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "out")
	w := writer.New(writer.Options{Program: "main.go"})
	if err := w.Begin(dir, tracefile.FormatJSON); err != nil {
		t.Fatalf("begin: %v", err)
	}
	r := New(w)
	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	fn(r)
	if err := w.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
	tr, err := tracefile.Read(dir)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return tr
}

func kinds(recs []tracelog.Record) string {
	parts := make([]string, len(recs))
	for i, r := range recs {
		parts[i] = r.Kind.String()
	}
	return strings.Join(parts, ",")
}

func TestTopLevelCall(t *testing.T) {
	tr := record(t, func(*Recorder) {})
	if kinds(tr.Records) != "Call" {
		t.Fatalf("records: %s", kinds(tr.Records))
	}
	fn := tr.Metadata.Functions[tr.Records[0].Call.FunctionID]
	if fn.Name != TopLevelName || fn.Line != 1 || tr.Paths[fn.PathID] != "" {
		t.Fatalf("top-level function: %+v", fn)
	}
}

func TestCallAndReturn(t *testing.T) {
	tr := record(t, func(r *Recorder) {
		if err := r.OnCall("/app/point.go", 10, "Move", Point{1, 2}, []Local{{Name: "dx", Value: 3}}); err != nil {
			t.Fatalf("call: %v", err)
		}
		if err := r.OnLine("/app/point.go", 11, []Local{{Name: "dx", Value: 3}}); err != nil {
			t.Fatalf("line: %v", err)
		}
		if err := r.OnReturn("/app/point.go", 12, Point{4, 2}); err != nil {
			t.Fatalf("return: %v", err)
		}
	})

	want := "Call,Value,Value,Step,Call,Step,Value,Step,Value,Return"
	if got := kinds(tr.Records); got != want {
		t.Fatalf("records:\n got %s\nwant %s", got, want)
	}
	call := tr.Records[4].Call
	if name := tr.Metadata.Functions[call.FunctionID].Name; name != "Point#Move" {
		t.Fatalf("function name: %q", name)
	}
	if len(call.Args) != 2 {
		t.Fatalf("args: %+v", call.Args)
	}
	self := call.Args[0].Value
	if self.Kind != values.VKRaw || self.R != "P" {
		t.Fatalf("self: %+v", self)
	}
	if rec := tr.Metadata.Types[self.TypeID-1]; rec.Kind != types.KindRaw || rec.LangType != "Point" {
		t.Fatalf("self type: %+v", rec)
	}
	if tr.Metadata.Variables[call.Args[1].VariableID] != "dx" || call.Args[1].Value.I != 3 {
		t.Fatalf("param arg: %+v", call.Args[1])
	}

	retVar := tr.Records[8].Value
	if tr.Metadata.Variables[retVar.VariableID] != ReturnValueName {
		t.Fatalf("return value variable: %q", tr.Metadata.Variables[retVar.VariableID])
	}
	ret := tr.Records[9].Return.ReturnValue
	if ret.Kind != values.VKStruct || len(ret.FieldValues) != 2 || ret.FieldValues[0].I != 4 {
		t.Fatalf("return value: %+v", ret)
	}
}

func TestRootReceiverIsUnqualified(t *testing.T) {
	tr := record(t, func(r *Recorder) {
		if _, err := r.Invoke("/app/main.go", 5, "helper", nil, nil, func() any { return "ok" }); err != nil {
			t.Fatalf("invoke: %v", err)
		}
	})
	for _, fn := range tr.Metadata.Functions {
		if fn.Name == "helper" {
			return
		}
	}
	t.Fatalf("functions: %+v", tr.Metadata.Functions)
}

func TestRaiseAndWrite(t *testing.T) {
	tr := record(t, func(r *Recorder) {
		_ = r.OnRaise("/app/main.go", 7, errors.New("boom"))
		_ = r.OnRaise("/app/main.go", 8, loudErr{})
		_ = r.RecordWrite("/app/main.go", 9, "hello\n")
	})
	if got := kinds(tr.Records); got != "Call,Event,Event,Step,Event" {
		t.Fatalf("records: %s", got)
	}
	if ev := tr.Records[1].Event; ev.Kind != tracelog.EventError || ev.Content != "boom" {
		t.Fatalf("raise event: %+v", ev)
	}
	if ev := tr.Records[2].Event; ev.Content != "" {
		t.Fatalf("panicking display should give empty content: %+v", ev)
	}
	if ev := tr.Records[4].Event; ev.Kind != tracelog.EventWrite || ev.Content != "hello\n" {
		t.Fatalf("write event: %+v", ev)
	}
	if step := tr.Records[3].Step; tr.Paths[step.PathID] != "/app/main.go" || step.Line != 9 {
		t.Fatalf("write step: %+v", step)
	}
}

func TestIgnoredPathAndThreads(t *testing.T) {
	tr := record(t, func(r *Recorder) {
		_ = r.OnLine("<internal:kernel>", 1, nil)
		_ = r.OnThreadStart(3)
		_ = r.OnThreadExit(3)
	})
	if got := kinds(tr.Records); got != "Call,ThreadStart,ThreadExit" {
		t.Fatalf("records: %s", got)
	}
	if tr.Records[1].Thread != 3 {
		t.Fatalf("thread id: %d", tr.Records[1].Thread)
	}
}

func TestWriteFromIgnoredPathSkipped(t *testing.T) {
	tr := record(t, func(r *Recorder) {
		_ = r.RecordWrite("<internal:kernel>", 4, "hidden\n")
		_ = r.RecordWrite("/app/main.go", 5, "shown\n")
	})
	if got := kinds(tr.Records); got != "Call,Step,Event" {
		t.Fatalf("records: %s", got)
	}
	for _, p := range tr.Paths {
		if strings.HasPrefix(p, "<internal:") {
			t.Fatalf("ignored path interned: %v", tr.Paths)
		}
	}
}

func TestDisabledHooksRecordNothing(t *testing.T) {
	tr := record(t, func(r *Recorder) {
		_ = r.OnLine("/app/main.go", 1, nil)
		r.Writer().Disable()
		if err := r.OnLine("/app/main.go", 2, []Local{{Name: "x", Value: 1}}); err != nil {
			t.Errorf("paused hook should be a no-op, got %v", err)
		}
		_ = r.OnRaise("/app/main.go", 3, errors.New("hidden"))
		_ = r.RecordWrite("/app/main.go", 4, "hidden\n")
		r.Writer().Enable()
		_ = r.OnLine("/app/main.go", 5, nil)
	})
	if got := kinds(tr.Records); got != "Call,Step,Step" {
		t.Fatalf("records: %s", got)
	}
	if tr.Records[1].Step.Line != 1 || tr.Records[2].Step.Line != 5 {
		t.Fatalf("steps: %+v %+v", tr.Records[1].Step, tr.Records[2].Step)
	}
	if len(tr.Metadata.Variables) != 0 {
		t.Fatalf("variables recorded while paused: %v", tr.Metadata.Variables)
	}
}
