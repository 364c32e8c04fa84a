package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"runtrace/internal/config"
	"runtrace/internal/diag"
	"runtrace/internal/hook"
	"runtrace/internal/tracefile"
	"runtrace/internal/tracelog"
	"runtrace/internal/writer"
)

func recordDemo(t *testing.T, format tracefile.Format) (string, *tracefile.Trace) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "demo")
	w := writer.New(writer.Options{Program: "runtrace demo"})
	if err := w.Begin(dir, format); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := runDemo(hook.New(w)); err != nil {
		t.Fatalf("demo: %v", err)
	}
	if err := w.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
	tr, err := tracefile.Read(dir)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return dir, tr
}

func noColor(t *testing.T) {
	t.Helper()
	orig := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = orig })
}

func TestDemoTrace(t *testing.T) {
	_, tr := recordDemo(t, tracefile.FormatJSON)
	sum := summarize(tr)

	// fib(6) makes 25 calls plus the top-level one.
	if sum.counts[tracelog.RecCall] != 26 || sum.counts[tracelog.RecReturn] != 25 {
		t.Fatalf("calls/returns: %s", sum.breakdown())
	}
	if sum.counts[tracelog.RecThreadStart] != 1 || sum.counts[tracelog.RecThreadExit] != 1 {
		t.Fatalf("threads: %s", sum.breakdown())
	}
	if sum.counts[tracelog.RecEvent] != 2 {
		t.Fatalf("events: %s", sum.breakdown())
	}

	names := map[string]bool{}
	for _, ty := range tr.Metadata.Types {
		names[ty.LangType] = true
	}
	for _, want := range []string{"Shape (#0)", "Shape (#1)", "Time", "Regexp", "Pair (#0)", "[]main.Shape"} {
		if !names[want] {
			t.Fatalf("missing type %q in %v", want, names)
		}
	}
}

func TestDumpAndInspect(t *testing.T) {
	noColor(t)
	dir, tr := recordDemo(t, tracefile.FormatBinary)

	var buf bytes.Buffer
	dumpRecords(&buf, tr, 0, 3)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 || !strings.Contains(lines[0], "Call") || !strings.Contains(lines[0], "<top-level>()") {
		t.Fatalf("dump:\n%s", buf.String())
	}
	if !strings.HasPrefix(lines[3], "... ") {
		t.Fatalf("limit marker: %q", lines[3])
	}

	buf.Reset()
	renderSummary(&buf, dir, tr)
	out := buf.String()
	for _, want := range []string{"format     binary", "program    runtrace demo", "session    " + tr.Metadata.SessionID} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestConvertDirs(t *testing.T) {
	a, _ := recordDemo(t, tracefile.FormatJSON)
	b, _ := recordDemo(t, tracefile.FormatBinaryV0)
	missing := filepath.Join(t.TempDir(), "nothing")

	errs := convertDirs(context.Background(), []string{a, b, missing}, tracefile.FormatBinary, 2)
	if errs[0] != nil || errs[1] != nil || errs[2] == nil {
		t.Fatalf("results: %v", errs)
	}
	for _, dir := range []string{a, b} {
		f, err := tracefile.Detect(dir)
		if err != nil || f != tracefile.FormatBinary {
			t.Fatalf("%s: %s %v", dir, f, err)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"hello", 0, "hello"},
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"héllo", 2, "hé"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestApplyColorMode(t *testing.T) {
	noColor(t)
	if err := applyColorMode("on"); err != nil || color.NoColor {
		t.Fatalf("on: %v", err)
	}
	if err := applyColorMode("off"); err != nil || !color.NoColor {
		t.Fatalf("off: %v", err)
	}
	if err := applyColorMode("sometimes"); err == nil {
		t.Fatalf("invalid mode accepted")
	}
}

func TestRingDiagnosticsWrittenOnlyOnFailure(t *testing.T) {
	orig := settings
	t.Cleanup(func() { settings = orig })

	for _, failed := range []bool{false, true} {
		out := filepath.Join(t.TempDir(), "diag.log")
		settings = config.Default()
		settings.Diag.Level = "info"
		settings.Diag.Mode = "ring"
		settings.Diag.Output = out
		if err := setupDiag(&cobra.Command{}); err != nil {
			t.Fatalf("setup: %v", err)
		}
		diag.Point(diagTracer, diag.ScopeSession, "saved trace", "/tmp/demo")
		closeDiag(failed)

		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("read diag output: %v", err)
		}
		written := strings.Contains(string(data), "saved trace (/tmp/demo)")
		if written != failed {
			t.Fatalf("failed=%v: diag output %q", failed, data)
		}
		if diagTracer != diag.Nop {
			t.Fatalf("tracer should be reset after close")
		}
	}
}
