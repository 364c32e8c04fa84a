package tracefile

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"runtrace/internal/tracelog"
)

// Binary events files start with a 4-byte magic and a version byte.
const (
	binaryMagic     = "RTRC"
	binaryVersionV0 = 0
	binaryVersionV1 = 1
	headerLen       = len(binaryMagic) + 1
)

// ErrBadHeader is returned when a binary events file has an unknown header.
var ErrBadHeader = errors.New("bad trace header")

// recordWriter encodes records to one events stream. The first failure is
// kept and later calls become no-ops.
type recordWriter struct {
	buf    *bufio.Writer
	format Format
	n      int
	err    error

	zw  *zstd.Encoder
	enc *msgpack.Encoder
}

func newRecordWriter(w io.Writer, format Format, count int) *recordWriter {
	rw := &recordWriter{buf: bufio.NewWriter(w), format: format}
	switch format {
	case FormatJSON:
		rw.writeString("[\n")
	case FormatBinaryV0:
		rw.writeHeader(binaryVersionV0)
		rw.enc = msgpack.NewEncoder(rw.buf)
		rw.setErr(rw.enc.EncodeArrayLen(count))
	case FormatBinary:
		rw.writeHeader(binaryVersionV1)
		zw, err := zstd.NewWriter(rw.buf)
		if err != nil {
			rw.setErr(fmt.Errorf("zstd: %w", err))
			break
		}
		rw.zw = zw
		rw.enc = msgpack.NewEncoder(zw)
	default:
		rw.setErr(fmt.Errorf("%w: %v", ErrUnknownFormat, format))
	}
	return rw
}

// Encode appends one record.
func (rw *recordWriter) Encode(r tracelog.Record) {
	if rw.err != nil {
		return
	}
	if rw.format == FormatJSON {
		data, err := json.Marshal(r)
		if err != nil {
			rw.setErr(err)
			return
		}
		if rw.n > 0 {
			rw.writeString(",\n")
		}
		_, err = rw.buf.Write(data)
		rw.setErr(err)
	} else {
		if err := r.Validate(); err != nil {
			rw.setErr(err)
			return
		}
		rw.setErr(rw.enc.Encode(&r))
	}
	rw.n++
}

// Close terminates the stream and flushes buffered output.
func (rw *recordWriter) Close() error {
	switch rw.format {
	case FormatJSON:
		if rw.n > 0 {
			rw.writeString("\n")
		}
		rw.writeString("]\n")
	case FormatBinary:
		if rw.zw != nil {
			rw.setErr(rw.zw.Close())
		}
	}
	if rw.err == nil {
		rw.setErr(rw.buf.Flush())
	}
	return rw.err
}

func (rw *recordWriter) writeHeader(version byte) {
	rw.writeString(binaryMagic)
	if rw.err == nil {
		rw.setErr(rw.buf.WriteByte(version))
	}
}

func (rw *recordWriter) writeString(s string) {
	if rw.err != nil {
		return
	}
	_, err := rw.buf.WriteString(s)
	rw.setErr(err)
}

func (rw *recordWriter) setErr(err error) {
	if err != nil && rw.err == nil {
		rw.err = err
	}
}

// EncodeRecords writes records to w in the given format.
func EncodeRecords(w io.Writer, format Format, records []tracelog.Record) error {
	rw := newRecordWriter(w, format, len(records))
	for _, r := range records {
		rw.Encode(r)
	}
	return rw.Close()
}
