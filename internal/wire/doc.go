// Package wire defines the byte layout shared by the loggest client, the
// loggestd daemon, and the ioym decoder.
//
// A connection carries exactly one header (a 2-byte big-endian length
// followed by the UTF-8 destination name) and then a raw stream of
// records. A record is an 8-byte little-endian millisecond timestamp
// followed by a newline-terminated line; the daemon never inspects
// record boundaries and relays post-header bytes opaquely.
//
// The FrameDecoder turns an accumulating byte stream into the
// one-header-then-data sequence the daemon session consumes. Protocol
// violations (malformed headers, unsafe names) surface as *ProtocolError
// so the owning session can terminate without affecting its peers.
package wire
