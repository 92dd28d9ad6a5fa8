package loggest

import (
	"fmt"
	"net"

	"github.com/Infinidat/loggest/internal/wire"
)

// Session is a freshly dialed, not yet established connection to the
// daemon. Its only use is Establish.
type Session struct {
	conn net.Conn
}

// Connect dials the daemon over the given transport.
func Connect(transport Transport) (*Session, error) {
	conn, err := transport.Connect()
	if err != nil {
		return nil, fmt.Errorf("connect to loggestd: %w", err)
	}
	return &Session{conn: conn}, nil
}

// Establish sends the connection header naming the destination file
// and returns the write-only session the rest of the connection's
// records flow through.
func (s *Session) Establish(name string) (*EstablishedSession, error) {
	if err := wire.ValidateName(name); err != nil {
		return nil, err
	}
	header, err := wire.EncodeHeader(name)
	if err != nil {
		return nil, err
	}
	if _, err := s.conn.Write(header); err != nil {
		return nil, fmt.Errorf("send header: %w", err)
	}
	return &EstablishedSession{conn: s.conn}, nil
}

// Close abandons an unestablished session.
func (s *Session) Close() error {
	return s.conn.Close()
}

// EstablishedSession is a connection whose header has been sent. It
// accepts raw record bytes and nothing else; the caller owns its
// lifecycle and closes it via Close.
type EstablishedSession struct {
	conn net.Conn
}

// Write passes encoded record bytes straight to the transport.
func (s *EstablishedSession) Write(p []byte) (int, error) {
	return s.conn.Write(p)
}

// Close closes the underlying connection, ending the daemon session.
func (s *EstablishedSession) Close() error {
	return s.conn.Close()
}
