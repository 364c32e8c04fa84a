package tracefile

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"runtrace/internal/tracelog"
)

// DecodeRecords reads an events stream written in format.
func DecodeRecords(r io.Reader, format Format) ([]tracelog.Record, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(r)
	case FormatBinary, FormatBinaryV0:
		version, err := readHeader(r)
		if err != nil {
			return nil, err
		}
		if version != binaryVersion(format) {
			return nil, fmt.Errorf("%w: version %d is not %s", ErrBadHeader, version, format)
		}
		if format == FormatBinaryV0 {
			return decodeBinaryV0(r)
		}
		return decodeBinary(r)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, format)
	}
}

func binaryVersion(f Format) byte {
	if f == FormatBinaryV0 {
		return binaryVersionV0
	}
	return binaryVersionV1
}

// readHeader consumes the magic and returns the version byte.
func readHeader(r io.Reader) (byte, error) {
	var hdr [headerLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBadHeader, err)
	}
	if string(hdr[:len(binaryMagic)]) != binaryMagic {
		return 0, fmt.Errorf("%w: magic %q", ErrBadHeader, hdr[:len(binaryMagic)])
	}
	return hdr[len(binaryMagic)], nil
}

// detectBinary maps a binary header to its format.
func detectBinary(r io.Reader) (Format, error) {
	version, err := readHeader(r)
	if err != nil {
		return 0, err
	}
	switch version {
	case binaryVersionV0:
		return FormatBinaryV0, nil
	case binaryVersionV1:
		return FormatBinary, nil
	default:
		return 0, fmt.Errorf("%w: unsupported version %d", ErrBadHeader, version)
	}
}

// decodeJSON parses the one-record-per-line array layout.
func decodeJSON(r io.Reader) ([]tracelog.Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	var out []tracelog.Record
	lineNo := 0
	opened, closed := false, false
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		switch {
		case !opened:
			if !bytes.Equal(line, []byte("[")) {
				return nil, fmt.Errorf("line %d: expected '['", lineNo)
			}
			opened = true
			continue
		case closed:
			return nil, fmt.Errorf("line %d: data after closing ']'", lineNo)
		case bytes.Equal(line, []byte("]")):
			closed = true
			continue
		}
		line = bytes.TrimSuffix(line, []byte(","))
		var rec tracelog.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("invalid record on line %d: %w", lineNo, err)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !closed {
		return nil, errors.New("truncated events array")
	}
	return out, nil
}

func decodeBinaryV0(r io.Reader) ([]tracelog.Record, error) {
	dec := msgpack.NewDecoder(bufio.NewReader(r))
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, fmt.Errorf("records array: %w", err)
	}
	if n < 0 {
		return nil, nil
	}
	out := make([]tracelog.Record, 0, n)
	for i := range n {
		var rec tracelog.Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func decodeBinary(r io.Reader) ([]tracelog.Record, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	defer zr.Close()

	dec := msgpack.NewDecoder(zr)
	var out []tracelog.Record
	for i := 0; ; i++ {
		var rec tracelog.Record
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, rec)
	}
}
