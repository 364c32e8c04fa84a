package tracefile

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNoTrace is returned when a directory holds no events file.
var ErrNoTrace = errors.New("no trace in directory")

// Detect reports the events format of the trace in dir.
func Detect(dir string) (Format, error) {
	if _, err := os.Stat(filepath.Join(dir, JSONEventsFile)); err == nil {
		return FormatJSON, nil
	}
	f, err := os.Open(filepath.Join(dir, BinaryEventsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("%w: %s", ErrNoTrace, dir)
	}
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return detectBinary(f)
}

// Read loads the trace stored in dir.
func Read(dir string) (*Trace, error) {
	format, err := Detect(dir)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(dir, format.EventsFile()))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	records, err := DecodeRecords(bufio.NewReader(f), format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", format.EventsFile(), err)
	}

	tr := &Trace{Format: format, Records: records}
	if err := readJSON(filepath.Join(dir, MetadataFile), &tr.Metadata); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, PathsFile), &tr.Paths); err != nil {
		return nil, err
	}
	return tr, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

// Convert rewrites the trace in src into dst using format. src and dst may
// be the same directory.
func Convert(src, dst string, format Format) error {
	tr, err := Read(src)
	if err != nil {
		return err
	}
	if err := Write(dst, format, tr); err != nil {
		return err
	}
	// Drop an events file of the other layout so Detect stays unambiguous.
	stale := JSONEventsFile
	if format == FormatJSON {
		stale = BinaryEventsFile
	}
	if err := os.Remove(filepath.Join(dst, stale)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
