// Package logging assembles the structured slog loggers used by the
// loggestd daemon and the ioym decoder.
//
// It owns the console and JSON handlers, level parsing, and attribute
// helpers so every component emits log lines with the same shape. The
// package also provides a no-op logger for tests and wiring code that
// cannot fail.
//
// Prefer these constructors over hand-rolled slog setup.
package logging
