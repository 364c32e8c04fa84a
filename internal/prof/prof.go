// Package prof captures Go profiles of the recorder itself.
package prof

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// Options names the output files; empty paths disable that profile.
type Options struct {
	CPU       string // CPU profile
	Mem       string // heap profile, written on Stop
	ExecTrace string // runtime execution trace
}

// Enabled reports whether any profile was requested.
func (o Options) Enabled() bool {
	return o.CPU != "" || o.Mem != "" || o.ExecTrace != ""
}

// Session is a running set of profiles.
type Session struct {
	cpu  *os.File
	exec *os.File
	mem  string
}

// Start begins the requested profiles. On failure nothing keeps running.
func Start(opts Options) (*Session, error) {
	s := &Session{mem: opts.Mem}
	if opts.CPU != "" {
		f, err := os.Create(opts.CPU)
		if err != nil {
			return nil, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close() //nolint:errcheck
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		s.cpu = f
	}
	if opts.ExecTrace != "" {
		f, err := os.Create(opts.ExecTrace)
		if err == nil {
			err = trace.Start(f)
			if err != nil {
				_ = f.Close() //nolint:errcheck
			}
		}
		if err != nil {
			_ = s.Stop() //nolint:errcheck
			return nil, fmt.Errorf("execution trace: %w", err)
		}
		s.exec = f
	}
	return s, nil
}

// Stop ends running profiles and writes the heap profile.
func (s *Session) Stop() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.cpu != nil {
		pprof.StopCPUProfile()
		errs = append(errs, s.cpu.Close())
		s.cpu = nil
	}
	if s.exec != nil {
		trace.Stop()
		errs = append(errs, s.exec.Close())
		s.exec = nil
	}
	if s.mem != "" {
		errs = append(errs, writeHeap(s.mem))
		s.mem = ""
	}
	return errors.Join(errs...)
}

func writeHeap(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		_ = f.Close() //nolint:errcheck
		return err
	}
	return f.Close()
}
