// Package logfile owns one on-disk log destination for a daemon
// session.
//
// Appended bytes are compressed as independent zstd frames, so the
// file is a frame concatenation any compliant decompressor reads as a
// single continuous stream. Files rotate to the next numbered name
// once enough uncompressed bytes accumulate; rotated and closed files
// are moved into an archived/ subdirectory where the usage monitor is
// the only component allowed to delete them.
//
// Filesystem errors are propagated, never retried: a failing disk is
// fatal to the session that owns the file.
package logfile
