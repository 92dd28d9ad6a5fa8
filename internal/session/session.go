package session

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/Infinidat/loggest/internal/logfile"
	"github.com/Infinidat/loggest/internal/logging"
	"github.com/Infinidat/loggest/internal/wire"
)

const readBufferSize = 32 * 1024

// Session consumes one connection's byte stream and writes it to one
// log file. Each session is owned by a single goroutine.
type Session struct {
	id        string
	directory string
	fileOpts  logfile.Options
	logger    *slog.Logger

	decoder wire.FrameDecoder
	file    *logfile.File
}

// New prepares a session writing into the given output directory.
func New(directory string, fileOpts logfile.Options, logger *slog.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:        id,
		directory: directory,
		fileOpts:  fileOpts,
		logger: logging.NewComponentLogger(logger, "session").
			With(logging.String(logging.FieldSession, id)),
	}
}

// ID returns the session's correlation identifier.
func (s *Session) ID() string {
	return s.id
}

// Run reads the connection until end of stream, feeding bytes through
// the frame decoder into the log file. It always archives an opened
// file before returning, on failure paths included. The returned
// error is nil for a clean end of stream and for a connection closed
// underneath us during shutdown.
func (s *Session) Run(conn net.Conn) error {
	defer s.teardown()

	buf := make([]byte, readBufferSize)
	for {
		n, readErr := conn.Read(buf)
		if n > 0 {
			if _, err := s.decoder.Write(buf[:n]); err != nil {
				return err
			}
			if err := s.drain(); err != nil {
				return err
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) || errors.Is(readErr, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read connection: %w", readErr)
		}
	}
}

func (s *Session) drain() error {
	for {
		frame, err := s.decoder.Next()
		if err != nil {
			return err
		}
		if frame == nil {
			return nil
		}
		if err := s.handle(frame); err != nil {
			return err
		}
	}
}

func (s *Session) handle(frame wire.Frame) error {
	switch frame := frame.(type) {
	case wire.FileName:
		if s.file != nil {
			return fmt.Errorf("invalid transition: file %s already open, second header %q received",
				s.file.Name(), string(frame))
		}
		file, err := logfile.Open(s.directory, string(frame), s.fileOpts)
		if err != nil {
			return err
		}
		s.file = file
		return nil

	case wire.FileData:
		if s.file == nil {
			return &wire.ProtocolError{Reason: "data received before header"}
		}
		return s.file.Write(frame)

	default:
		return fmt.Errorf("invalid transition: unexpected frame %T", frame)
	}
}

// teardown archives the session's file, if one was opened, and logs
// the outcome.
func (s *Session) teardown() {
	if s.file == nil {
		s.logger.Info("unnamed session disconnected")
		return
	}
	name := s.file.Name()
	if err := s.file.Close(); err != nil {
		s.logger.Error("archive on disconnect failed",
			logging.String("name", name), logging.Error(err))
	} else {
		s.logger.Info("disconnected",
			logging.String("file", filepath.Join(s.directory, name)))
	}
	s.file = nil
}
