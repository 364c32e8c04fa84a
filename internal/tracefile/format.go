// Package tracefile persists recording sessions into a trace directory and
// reads them back.
//
// A trace directory holds three files: the events file (trace.json or
// trace.bin), trace_metadata.json and trace_paths.json. They are written to
// temporary names while the session runs and renamed into place on finish.
package tracefile

import (
	"errors"
	"fmt"
	"strings"
)

// File names inside a trace directory.
const (
	JSONEventsFile   = "trace.json"
	BinaryEventsFile = "trace.bin"
	MetadataFile     = "trace_metadata.json"
	PathsFile        = "trace_paths.json"
)

// Format selects the encoding of the events file.
type Format uint8

const (
	// FormatJSON is a JSON array with one externally-tagged record per line.
	FormatJSON Format = iota
	// FormatBinary is the current binary layout: header, then a zstd stream
	// of msgpack records.
	FormatBinary
	// FormatBinaryV0 is the legacy binary layout: header, then one msgpack
	// array of records.
	FormatBinaryV0
)

// ErrUnknownFormat is returned for unsupported format names.
var ErrUnknownFormat = errors.New("unknown trace format")

// String returns the canonical name of the format.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatBinary:
		return "binary"
	case FormatBinaryV0:
		return "binaryv0"
	default:
		return fmt.Sprintf("Format(%d)", f)
	}
}

// ParseFormat accepts json, binary, bin and binaryv0.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "binary", "bin":
		return FormatBinary, nil
	case "binaryv0":
		return FormatBinaryV0, nil
	default:
		return FormatJSON, fmt.Errorf("%w: %q (expected: json|binary|binaryv0)", ErrUnknownFormat, s)
	}
}

// Set implements pflag.Value.
func (f *Format) Set(s string) error {
	v, err := ParseFormat(s)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Type implements pflag.Value.
func (f *Format) Type() string { return "format" }

// EventsFile returns the events file name used by the format.
func (f Format) EventsFile() string {
	if f == FormatJSON {
		return JSONEventsFile
	}
	return BinaryEventsFile
}
