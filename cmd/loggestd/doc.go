// Command loggestd is the log-writing daemon of the loggest pipeline.
//
// It listens on a Unix domain socket (and optionally TCP), receives
// each client worker's record stream, and persists it as compressed,
// rotated files under the output directory. Closed files move to an
// archived/ subdirectory that a background monitor garbage-collects
// under disk-space pressure.
//
// Usage:
//
//	loggestd --directory /var/log/loggest [--socket PATH] [--listen ADDR] [--config FILE]
package main
