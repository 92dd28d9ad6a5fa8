// Package decoder reconstructs human-readable text from stored log
// files.
//
// A stored file is a concatenation of independent zstd frames whose
// decompressed payload is a sequence of records: an 8-byte
// little-endian millisecond timestamp followed by a newline-terminated
// line. The decoder renders each timestamp as a calendar prefix in a
// fixed time zone offset and streams the line bytes through untouched,
// so arbitrarily long lines and binary payloads survive the round
// trip. A timestamp that cannot be rendered never drops its line; the
// prefix is simply omitted.
//
// Batch decoding processes independent files in parallel: every file
// is attempted, and all failures are reported together.
package decoder
