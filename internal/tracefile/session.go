package tracefile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrSessionClosed is returned by Finish after the session was finished or
// aborted.
var ErrSessionClosed = errors.New("trace session already closed")

// Session owns the temporary output files of one recording.
type Session struct {
	dir    string
	format Format
	files  [3]*os.File // events, metadata, paths
	closed bool
}

// Create makes dir if needed and opens the session's temporary outputs in it.
// Nothing readable appears in dir until Finish succeeds.
func Create(dir string, format Format) (*Session, error) {
	if format > FormatBinaryV0 {
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create trace dir: %w", err)
	}
	s := &Session{dir: dir, format: format}
	for i := range s.files {
		f, err := os.CreateTemp(dir, ".runtrace-*.tmp")
		if err != nil {
			s.removeTemps()
			return nil, fmt.Errorf("open trace output: %w", err)
		}
		s.files[i] = f
	}
	return s, nil
}

// Dir returns the trace directory.
func (s *Session) Dir() string { return s.dir }

// Format returns the events encoding.
func (s *Session) Format() Format { return s.format }

// Finish encodes tr and moves the three files into place.
func (s *Session) Finish(tr *Trace) error {
	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true

	meta := tr.Metadata
	meta.Format = s.format.String()
	paths := tr.Paths
	if paths == nil {
		paths = []string{}
	}

	events, metaFile, pathsFile := s.files[0], s.files[1], s.files[2]
	err := EncodeRecords(events, s.format, tr.Records)
	if err == nil {
		err = writeJSON(metaFile, meta)
	}
	if err == nil {
		err = writeJSON(pathsFile, paths)
	}
	if err != nil {
		s.removeTemps()
		return fmt.Errorf("write trace: %w", err)
	}

	targets := [3]string{s.format.EventsFile(), MetadataFile, PathsFile}
	for i, f := range s.files {
		if err := f.Close(); err != nil {
			s.removeTemps()
			return fmt.Errorf("close %s: %w", targets[i], err)
		}
	}
	for i, f := range s.files {
		if err := os.Rename(f.Name(), filepath.Join(s.dir, targets[i])); err != nil {
			s.removeTemps()
			return fmt.Errorf("save %s: %w", targets[i], err)
		}
		s.files[i] = nil
	}
	return nil
}

// Abort discards the temporary outputs.
func (s *Session) Abort() {
	if s.closed {
		return
	}
	s.closed = true
	s.removeTemps()
}

func (s *Session) removeTemps() {
	for i, f := range s.files {
		if f == nil {
			continue
		}
		_ = f.Close()           //nolint:errcheck
		_ = os.Remove(f.Name()) //nolint:errcheck
		s.files[i] = nil
	}
}

func writeJSON(f *os.File, v any) error {
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Write persists tr into dir in one step.
func Write(dir string, format Format, tr *Trace) error {
	s, err := Create(dir, format)
	if err != nil {
		return err
	}
	return s.Finish(tr)
}
