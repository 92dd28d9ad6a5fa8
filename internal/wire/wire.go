package wire

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf8"
)

// HeaderLengthSize is the size of the length prefix on the connection
// header.
const HeaderLengthSize = 2

// MaxNameLength is the largest destination name the 2-byte length
// prefix can describe.
const MaxNameLength = 0xFFFF

// RecordTimestampSize is the size of the millisecond timestamp that
// starts every record.
const RecordTimestampSize = 8

// EncodeHeader frames a destination name for transmission: a 2-byte
// big-endian length followed by the name bytes. The name is not
// validated here; callers that accept external input should run
// ValidateName first.
func EncodeHeader(name string) ([]byte, error) {
	if len(name) > MaxNameLength {
		return nil, fmt.Errorf("destination name is %d bytes, limit is %d", len(name), MaxNameLength)
	}
	buf := make([]byte, HeaderLengthSize+len(name))
	binary.BigEndian.PutUint16(buf, uint16(len(name)))
	copy(buf[HeaderLengthSize:], name)
	return buf, nil
}

// DecodeHeader parses a complete connection header. It returns the
// name and the number of bytes consumed. A nil error with zero
// consumed means src does not yet hold a complete header.
func DecodeHeader(src []byte) (string, int, error) {
	if len(src) < HeaderLengthSize {
		return "", 0, nil
	}
	length := int(binary.BigEndian.Uint16(src))
	if len(src) < HeaderLengthSize+length {
		return "", 0, nil
	}
	name := string(src[HeaderLengthSize : HeaderLengthSize+length])
	if !utf8.ValidString(name) {
		return "", 0, &ProtocolError{Reason: "header name is not valid UTF-8"}
	}
	return name, HeaderLengthSize + length, nil
}

// AppendRecord appends one encoded record to dst: 8 bytes of
// little-endian milliseconds followed by the line and a terminating
// newline. A trailing newline already present on the line is not
// doubled.
func AppendRecord(dst []byte, millis uint64, line []byte) []byte {
	var ts [RecordTimestampSize]byte
	binary.LittleEndian.PutUint64(ts[:], millis)
	dst = append(dst, ts[:]...)
	dst = append(dst, line...)
	if len(line) == 0 || line[len(line)-1] != '\n' {
		dst = append(dst, '\n')
	}
	return dst
}

// ValidateName reports whether a destination name is safe to use as a
// file name inside the daemon's output directory. Names must be
// non-empty, valid UTF-8, and a single path component: separators and
// parent-directory references are rejected.
func ValidateName(name string) error {
	if name == "" {
		return &ProtocolError{Reason: "empty destination name"}
	}
	if !utf8.ValidString(name) {
		return &ProtocolError{Reason: "destination name is not valid UTF-8"}
	}
	if strings.ContainsAny(name, `/\`) {
		return &ProtocolError{Reason: fmt.Sprintf("destination name %q contains a path separator", name)}
	}
	if name == "." || name == ".." {
		return &ProtocolError{Reason: fmt.Sprintf("destination name %q is a directory reference", name)}
	}
	if strings.ContainsRune(name, 0) {
		return &ProtocolError{Reason: fmt.Sprintf("destination name %q contains a NUL byte", name)}
	}
	return nil
}

// ProtocolError reports a violation of the wire contract. It is fatal
// to the connection that produced it and to nothing else.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "protocol error: " + e.Reason
}
