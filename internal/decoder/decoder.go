package decoder

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/Infinidat/loggest/internal/wire"
)

const outputBufferSize = 64 * 1024

// localOffset is the process-wide rendering zone: the local UTC
// offset captured once at startup, so a long decode is not affected
// by a zone change mid-run.
var localOffset = func() *time.Location {
	_, offset := time.Now().Zone()
	return time.FixedZone("local", offset)
}()

// RenderLocation returns the fixed offset timestamps are rendered in:
// UTC when utc is set, the process-start local offset otherwise.
func RenderLocation(utc bool) *time.Location {
	if utc {
		return time.UTC
	}
	return localOffset
}

// Decoder reads one stored log file's bytes.
type Decoder struct {
	input *bufio.Reader
	zr    *zstd.Decoder
	loc   *time.Location
}

// New builds a decoder over a compressed stream. The zstd reader
// consumes concatenated frames transparently, so a rotated file's
// many per-write frames decode as one continuous record stream.
func New(r io.Reader, loc *time.Location) (*Decoder, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	if loc == nil {
		loc = localOffset
	}
	return &Decoder{
		input: bufio.NewReader(zr),
		zr:    zr,
		loc:   loc,
	}, nil
}

// Close releases the underlying zstd reader.
func (d *Decoder) Close() {
	d.zr.Close()
}

// Decode renders every record to w. A clean end of stream at a record
// boundary stops successfully; a stream that ends inside a timestamp
// fails the whole decode.
func (d *Decoder) Decode(w io.Writer) error {
	output := bufio.NewWriterSize(w, outputBufferSize)

	for {
		millis, err := d.readTimestamp()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		if prefix, ok := formatTimestamp(millis, d.loc); ok {
			if _, err := output.WriteString(prefix); err != nil {
				return err
			}
		}
		if err := d.copyLine(output); err != nil {
			return err
		}
	}
	return output.Flush()
}

// readTimestamp reads the 8-byte little-endian millisecond timestamp
// that starts a record. io.EOF means a clean end of stream; a partial
// timestamp is an ErrUnexpectedEOF failure.
func (d *Decoder) readTimestamp() (uint64, error) {
	var buf [wire.RecordTimestampSize]byte
	if _, err := io.ReadFull(d.input, buf[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, fmt.Errorf("truncated record timestamp: %w", err)
		}
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// formatTimestamp renders a millisecond timestamp as
// "YYYY-MM-DD HH:MM:SS.mmm " in the given zone. The second return is
// false for instants the calendar form cannot represent; the caller
// keeps the record's line either way.
func formatTimestamp(millis uint64, loc *time.Location) (string, bool) {
	if millis > math.MaxInt64 {
		return "", false
	}
	t := time.UnixMilli(int64(millis)).In(loc)
	if year := t.Year(); year < 1 || year > 9999 {
		return "", false
	}
	return t.Format("2006-01-02 15:04:05.000 "), true
}

// copyLine streams bytes up to and including the next newline. It
// copies through the read buffer in chunks, never materializing the
// whole line, and treats end of stream as the line's end.
func (d *Decoder) copyLine(output *bufio.Writer) error {
	for {
		chunk, err := d.input.ReadSlice('\n')
		if len(chunk) > 0 {
			if _, writeErr := output.Write(chunk); writeErr != nil {
				return writeErr
			}
		}
		switch {
		case err == nil:
			return nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			return nil
		default:
			return err
		}
	}
}
