// Command ioym extracts and decodes loggest log files.
//
// Each .ioym input is decompressed and rewritten as plaintext with a
// calendar timestamp prefixed to every record. By default a decoded
// file replaces its source beside it, keeping the source's
// modification time; with --stdout a single input streams to standard
// output instead.
//
// Usage:
//
//	ioym [-c|--stdout] [-u|--utc] FILE...
package main
