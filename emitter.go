package loggest

import (
	"time"

	"github.com/Infinidat/loggest/internal/wire"
)

// Emitter is one worker's logging endpoint. It lazily connects and
// establishes its destination on the first emit, and each record is a
// single blocking write with no buffering, so nothing is lost by a
// worker that never flushes.
//
// An Emitter is owned by exactly one goroutine and must not be
// shared; that ownership is what keeps the logging path lock-free.
type Emitter struct {
	client  *Client
	name    string
	session *EstablishedSession
	buf     []byte
}

// Name returns the destination file name this emitter logs under.
func (e *Emitter) Name() string {
	return e.name
}

// Emit sends one record. Failures are attempted, then swallowed: a
// log call must never surface an error into application code. A
// failed session is dropped so the next emit redials.
func (e *Emitter) Emit(t time.Time, line string) {
	if err := e.emit(t, line); err != nil {
		e.drop()
	}
}

// EmitErr is Emit with the error exposed, for callers that track
// delivery themselves.
func (e *Emitter) EmitErr(t time.Time, line string) error {
	err := e.emit(t, line)
	if err != nil {
		e.drop()
	}
	return err
}

func (e *Emitter) emit(t time.Time, line string) error {
	if e.session == nil {
		session, err := Connect(e.client.cfg.Transport)
		if err != nil {
			return err
		}
		established, err := session.Establish(e.name)
		if err != nil {
			session.Close()
			return err
		}
		e.session = established
	}

	e.buf = wire.AppendRecord(e.buf[:0], uint64(t.UnixMilli()), []byte(line))
	_, err := e.session.Write(e.buf)
	return err
}

// Flush drops the worker's session; the next emit establishes a fresh
// one. This is the worker's explicit "done logging" signal to the
// daemon and is safe to call any number of times.
func (e *Emitter) Flush() {
	e.drop()
}

func (e *Emitter) drop() {
	if e.session != nil {
		e.session.Close()
		e.session = nil
	}
}
