package session_test

import (
	"bytes"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/Infinidat/loggest/internal/logfile"
	"github.com/Infinidat/loggest/internal/logging"
	"github.com/Infinidat/loggest/internal/session"
	"github.com/Infinidat/loggest/internal/wire"
)

func fileOptions(t *testing.T) logfile.Options {
	t.Helper()
	encoder, err := logfile.NewEncoder(1)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	return logfile.Options{Encoder: encoder}
}

func runSession(t *testing.T, dir string, payload []byte) error {
	t.Helper()
	client, server := net.Pipe()
	sess := session.New(dir, fileOptions(t), logging.NewNop())

	done := make(chan error, 1)
	go func() {
		done <- sess.Run(server)
	}()

	if _, err := client.Write(payload); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close client: %v", err)
	}
	return <-done
}

func decompressArchived(t *testing.T, dir, name string) []byte {
	t.Helper()
	path := filepath.Join(dir, logfile.ArchiveDirName, name)
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer file.Close()
	reader, err := zstd.NewReader(file)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("decompress %s: %v", path, err)
	}
	return data
}

func TestSessionWritesAndArchives(t *testing.T) {
	dir := t.TempDir()

	header, err := wire.EncodeHeader("worker.7")
	if err != nil {
		t.Fatalf("EncodeHeader: %v", err)
	}
	record := wire.AppendRecord(nil, 1000, []byte("hello"))
	payload := append(header, record...)

	if err := runSession(t, dir, payload); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := decompressArchived(t, dir, "worker.7.01"+logfile.Extension)
	if !bytes.Equal(got, record) {
		t.Fatalf("archived payload = %q, want %q", got, record)
	}
}

func TestSessionRejectsEmptyName(t *testing.T) {
	dir := t.TempDir()
	// Zero-length name in the header prefix.
	err := runSession(t, dir, []byte{0x00, 0x00, 'x'})
	var protoErr *wire.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("Run = %v, want wire.ProtocolError", err)
	}
}

func TestSessionCleanDisconnectWithoutHeader(t *testing.T) {
	dir := t.TempDir()
	if err := runSession(t, dir, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, logfile.ArchiveDirName)); !os.IsNotExist(err) {
		t.Fatalf("unnamed session created archive dir: %v", err)
	}
}

func TestSessionSecondHeaderIsOpaqueData(t *testing.T) {
	dir := t.TempDir()

	first, err := wire.EncodeHeader("app")
	if err != nil {
		t.Fatalf("EncodeHeader: %v", err)
	}
	second, err := wire.EncodeHeader("other")
	if err != nil {
		t.Fatalf("EncodeHeader: %v", err)
	}
	// A second header is indistinguishable from data on the wire, so
	// the stream stays opaque and both headers land in the file.
	payload := append(append([]byte{}, first...), second...)

	if err := runSession(t, dir, payload); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := decompressArchived(t, dir, "app.01"+logfile.Extension)
	if !bytes.Equal(got, second) {
		t.Fatalf("archived payload = %q, want raw bytes of second header %q", got, second)
	}
}

func TestSessionRejectsUnsafeName(t *testing.T) {
	dir := t.TempDir()
	header := []byte{0x00, 0x02, '.', '.'}
	err := runSession(t, dir, header)
	var protoErr *wire.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("Run = %v, want wire.ProtocolError", err)
	}
}
