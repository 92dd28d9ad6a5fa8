package wire

import "bytes"

// Frame is one item produced by the FrameDecoder: the connection's
// FileName header, or an opaque FileData chunk.
type Frame interface {
	frame()
}

// FileName is the destination name from the connection header. It is
// emitted exactly once, before any FileData.
type FileName string

func (FileName) frame() {}

// FileData is a chunk of opaque record bytes. A chunk may contain any
// number of partial or complete records; chunk boundaries carry no
// meaning.
type FileData []byte

func (FileData) frame() {}

// FrameDecoder incrementally parses a connection's byte stream. Feed
// bytes with Write, then drain frames with Next until it returns nil.
//
// The decoder starts by buffering the connection header. Once the
// header is complete it emits a FileName and permanently switches to
// streaming: every subsequent Next drains whatever is buffered as one
// FileData. It never emits an empty FileData; only end of stream on
// the transport ends a session.
type FrameDecoder struct {
	buf       bytes.Buffer
	streaming bool
}

// Write appends raw connection bytes to the decoder's buffer. It
// never fails; the error return satisfies io.Writer.
func (d *FrameDecoder) Write(p []byte) (int, error) {
	return d.buf.Write(p)
}

// Next returns the next frame, or nil if the buffered bytes do not
// yet form one. A *ProtocolError means the connection must be
// terminated.
func (d *FrameDecoder) Next() (Frame, error) {
	if !d.streaming {
		name, consumed, err := DecodeHeader(d.buf.Bytes())
		if err != nil {
			return nil, err
		}
		if consumed == 0 {
			return nil, nil
		}
		if err := ValidateName(name); err != nil {
			return nil, err
		}
		d.buf.Next(consumed)
		d.streaming = true
		return FileName(name), nil
	}

	if d.buf.Len() == 0 {
		return nil, nil
	}
	data := make([]byte, d.buf.Len())
	copy(data, d.buf.Bytes())
	d.buf.Reset()
	return FileData(data), nil
}
