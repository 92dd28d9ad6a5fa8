// Package daemon coordinates the long-running loggestd process.
//
// It wires configuration, the listeners, per-connection sessions, and
// the usage monitor into a single lifecycle with flock-based locking
// to prevent multiple instances on one output directory. Session and
// monitor errors are contained and logged; the daemon itself only
// fails on startup (cannot lock, bind, or create the output
// directory) and exits cooperatively on context cancellation, letting
// in-flight sessions archive their files first.
package daemon
