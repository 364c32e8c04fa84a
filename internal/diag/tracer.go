package diag

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Tracer receives recorder diagnostics. Implementations are safe for use
// from several goroutines.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
	Enabled() bool
}

// StorageMode selects where events go before reaching the output.
type StorageMode uint8

const (
	// ModeStream writes every event as it is emitted.
	ModeStream StorageMode = iota + 1
	// ModeRing keeps the latest events in memory and writes them only when
	// the run fails.
	ModeRing
)

// String returns the string representation of StorageMode.
func (m StorageMode) String() string {
	switch m {
	case ModeStream:
		return "stream"
	case ModeRing:
		return "ring"
	default:
		return "unknown"
	}
}

// ParseMode converts a config value to StorageMode.
func ParseMode(s string) (StorageMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stream":
		return ModeStream, nil
	case "ring":
		return ModeRing, nil
	default:
		return ModeStream, fmt.Errorf("invalid storage mode: %q (expected: stream|ring)", s)
	}
}

// DefaultRingSize is the number of events a ring-mode tracer keeps.
const DefaultRingSize = 4096

// Config describes a tracer. Output wins over OutputPath; an empty path or
// "-" means stderr. A path ending in .ndjson forces NDJSON.
type Config struct {
	Level      Level
	Mode       StorageMode
	Format     Format
	Output     io.Writer
	OutputPath string
	RingSize   int
}

// New builds the tracer described by cfg. LevelOff yields Nop without
// opening the output.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	format := cfg.Format
	if strings.HasSuffix(cfg.OutputPath, ".ndjson") {
		format = FormatNDJSON
	}
	mode := cfg.Mode
	if mode == 0 {
		mode = ModeStream
	}
	if mode != ModeStream && mode != ModeRing {
		return nil, fmt.Errorf("unknown storage mode: %v", cfg.Mode)
	}

	out, err := openOutput(cfg)
	if err != nil {
		return nil, err
	}
	if mode == ModeRing {
		return NewFlightRecorder(out, cfg.RingSize, cfg.Level, format), nil
	}
	return NewStreamTracer(out, cfg.Level, format), nil
}

func openOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}
	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		return os.Stderr, nil
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open diag output: %w", err)
	}
	return f, nil
}

// Dump writes out events held back by t, if it holds any. It is called when
// a run fails; stream tracers have nothing to add.
func Dump(t Tracer) error {
	if fr, ok := t.(*FlightRecorder); ok {
		return fr.Dump()
	}
	return nil
}

// closeOutput closes w unless it is a standard stream.
func closeOutput(w io.Writer) error {
	if w == os.Stderr || w == os.Stdout {
		return nil
	}
	if closer, ok := w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
