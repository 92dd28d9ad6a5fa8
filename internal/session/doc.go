// Package session binds one accepted daemon connection to one log
// file.
//
// A session starts with no file, opens one when the connection header
// names a destination, and forwards every subsequent data chunk into
// the file. Data before a header and a second header are invalid
// transitions that fail the session without touching any other
// connection. Whatever happens, a session that opened a file archives
// it on the way out.
package session
