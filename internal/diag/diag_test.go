package diag

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		err  bool
	}{
		{"off", LevelOff, false},
		{"ERROR", LevelError, false},
		{"info", LevelInfo, false},
		{"debug", LevelDebug, false},
		{"verbose", LevelOff, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.err || got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestLevelScopes(t *testing.T) {
	if !LevelInfo.ShouldEmit(ScopeSession) || LevelInfo.ShouldEmit(ScopeHook) {
		t.Fatalf("info should keep only session events")
	}
	if !LevelDebug.ShouldEmit(ScopeValue) {
		t.Fatalf("debug should keep everything")
	}
	if LevelError.ShouldEmit(ScopeSession) {
		t.Fatalf("error level should drop regular events")
	}
}

func TestStreamNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelInfo, FormatNDJSON)

	span := Begin(tr, ScopeSession, "record", 0)
	Point(tr, ScopeHook, "hidden", "")
	span.WithExtra("steps", "3").End("ok")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected begin+end, got %d lines:\n%s", len(lines), buf.String())
	}
	var end map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &end); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if end["kind"] != "end" || end["detail"] != "ok" || end["scope"] != "session" {
		t.Fatalf("unexpected end event: %v", end)
	}
}

func TestErrorfPassesErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelError, FormatText)
	Point(tr, ScopeSession, "quiet", "")
	Errorf(tr, "finish", "disk %s", "full")
	out := buf.String()
	if strings.Contains(out, "quiet") || !strings.Contains(out, "finish (disk full)") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestFlightRecorderHoldsUntilDump(t *testing.T) {
	var buf bytes.Buffer
	r := NewFlightRecorder(&buf, 2, LevelDebug, FormatText)
	for _, name := range []string{"a", "b", "c"} {
		Point(r, ScopeValue, name, "")
	}
	if buf.Len() != 0 {
		t.Fatalf("nothing should be written before Dump: %q", buf.String())
	}
	got := r.Events()
	if len(got) != 2 || got[0].Name != "b" || got[1].Name != "c" {
		t.Fatalf("held events: %+v", got)
	}

	if err := Dump(r); err != nil {
		t.Fatalf("dump: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "overwritten (1 earlier events)") || !strings.Contains(out, "• b") || !strings.Contains(out, "• c") {
		t.Fatalf("dump output:\n%s", out)
	}
	if strings.Contains(out, "• a") {
		t.Fatalf("overwritten event was dumped:\n%s", out)
	}
	if len(r.Events()) != 0 {
		t.Fatalf("dump should empty the buffer")
	}
}

func TestNewRingModeAndContext(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelInfo, Mode: ModeRing, Format: FormatText, Output: &buf})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := WithTracer(context.Background(), tr)
	Point(FromContext(ctx), ScopeSession, "saved trace", "/tmp/x")
	if buf.Len() != 0 {
		t.Fatalf("ring mode wrote early: %q", buf.String())
	}
	if err := Dump(FromContext(ctx)); err != nil || !strings.Contains(buf.String(), "saved trace (/tmp/x)") {
		t.Fatalf("dump: %v %q", err, buf.String())
	}
	if FromContext(context.Background()) != Nop {
		t.Fatalf("missing tracer should be Nop")
	}
	if err := Dump(NewStreamTracer(&buf, LevelInfo, FormatText)); err != nil {
		t.Fatalf("stream dump should be a no-op: %v", err)
	}
	if _, err := ParseMode("both"); err == nil {
		t.Fatalf("both is not a storage mode")
	}
}

func TestNewOff(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("off config should give a disabled tracer: %v", err)
	}
}

func TestGoroutineID(t *testing.T) {
	main := GoroutineID()
	done := make(chan uint64)
	go func() { done <- GoroutineID() }()
	other := <-done
	if main == 0 || other == 0 || main == other {
		t.Fatalf("goroutine ids: %d %d", main, other)
	}
}
