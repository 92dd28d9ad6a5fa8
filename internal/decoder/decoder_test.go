package decoder_test

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/Infinidat/loggest/internal/decoder"
	"github.com/Infinidat/loggest/internal/testsupport"
	"github.com/Infinidat/loggest/internal/wire"
)

// compressRecords packs records into zstd frames: records grouped in
// one slice share a frame, mirroring one daemon write per frame.
func compressRecords(t *testing.T, frames ...[]byte) []byte {
	t.Helper()
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd encoder: %v", err)
	}
	var out []byte
	for _, frame := range frames {
		out = encoder.EncodeAll(frame, out)
	}
	return out
}

func record(millis uint64, line string) []byte {
	return wire.AppendRecord(nil, millis, []byte(line))
}

func decode(t *testing.T, compressed []byte, loc *time.Location) string {
	t.Helper()
	d, err := decoder.New(bytes.NewReader(compressed), loc)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()
	var out bytes.Buffer
	if err := d.Decode(&out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return out.String()
}

func TestDecodeRendersTimestampPrefix(t *testing.T) {
	compressed := compressRecords(t,
		record(1000, "[INFO] app -- hello"),
		record(61500, "[WARN] app -- later"),
	)
	got := decode(t, compressed, time.UTC)
	want := "1970-01-01 00:00:01.000 [INFO] app -- hello\n" +
		"1970-01-01 00:01:01.500 [WARN] app -- later\n"
	if got != want {
		t.Fatalf("decoded = %q, want %q", got, want)
	}
}

func TestDecodeSpansFrameBoundaries(t *testing.T) {
	// A record split across two frames must reassemble: frames are a
	// storage artifact, not a record boundary.
	full := record(1000, "split across frames")
	compressed := compressRecords(t, full[:5], full[5:])
	got := decode(t, compressed, time.UTC)
	want := "1970-01-01 00:00:01.000 split across frames\n"
	if got != want {
		t.Fatalf("decoded = %q, want %q", got, want)
	}
}

func TestDecodeUnrepresentableTimestamp(t *testing.T) {
	compressed := compressRecords(t,
		record(math.MaxUint64, "line with broken clock"),
		record(2000, "line after it"),
	)
	got := decode(t, compressed, time.UTC)
	want := "line with broken clock\n" +
		"1970-01-01 00:00:02.000 line after it\n"
	if got != want {
		t.Fatalf("decoded = %q, want %q", got, want)
	}
}

func TestDecodeFarFutureYear(t *testing.T) {
	// Year 10000 and beyond has no four-digit rendering.
	farFuture := uint64(time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli())
	compressed := compressRecords(t, record(farFuture, "beyond the calendar"))
	got := decode(t, compressed, time.UTC)
	if got != "beyond the calendar\n" {
		t.Fatalf("decoded = %q, want bare line", got)
	}
}

func TestDecodeTruncatedTimestamp(t *testing.T) {
	full := record(1000, "ok")
	compressed := compressRecords(t, full, []byte{0x01, 0x02, 0x03})
	d, err := decoder.New(bytes.NewReader(compressed), time.UTC)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()
	var out bytes.Buffer
	if err := d.Decode(&out); err == nil {
		t.Fatal("expected truncated timestamp error")
	}
}

func TestDecodeLineWithoutTrailingNewline(t *testing.T) {
	// A record can legally end the stream without a newline.
	var raw []byte
	raw = append(raw, record(1000, "first")...)
	tail := record(1000, "last")
	raw = append(raw, tail[:len(tail)-1]...)
	compressed := compressRecords(t, raw)
	got := decode(t, compressed, time.UTC)
	want := "1970-01-01 00:00:01.000 first\n1970-01-01 00:00:01.000 last"
	if got != want {
		t.Fatalf("decoded = %q, want %q", got, want)
	}
}

func TestDecodeEmptyStream(t *testing.T) {
	compressed := compressRecords(t, nil...)
	if got := decode(t, compressed, time.UTC); got != "" {
		t.Fatalf("decoded empty stream = %q", got)
	}
}

func TestDecodeFileReplacesSource(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "app.01.ioym")
	testsupport.WriteFile(t, source, compressRecords(t, record(1000, "hello")))
	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	testsupport.Touch(t, source, mtime)

	if err := decoder.DecodeFile(source, time.UTC); err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}

	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Fatalf("source still present: %v", err)
	}
	output := filepath.Join(dir, "app.01")
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if got := string(data); got != "1970-01-01 00:00:01.000 hello\n" {
		t.Fatalf("output = %q", got)
	}
	info, err := os.Stat(output)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(mtime) {
		t.Fatalf("output mtime = %v, want %v", info.ModTime(), mtime)
	}
}

func TestDecodeFileExistingOutput(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "app.01.ioym")
	testsupport.WriteFile(t, source, compressRecords(t, record(1000, "hello")))
	testsupport.WriteFile(t, filepath.Join(dir, "app.01"), []byte("already here"))

	if err := decoder.DecodeFile(source, time.UTC); err == nil {
		t.Fatal("expected error when output already exists")
	}
	if _, err := os.Stat(source); err != nil {
		t.Fatalf("source must survive a failed decode: %v", err)
	}
}

func TestDecodeFileUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	testsupport.WriteFile(t, path, []byte("plain"))
	err := decoder.DecodeFile(path, time.UTC)
	if err == nil || !strings.Contains(err.Error(), "unsupported file type") {
		t.Fatalf("DecodeFile = %v, want unsupported file type error", err)
	}
}

func TestDecodeFileMissing(t *testing.T) {
	err := decoder.DecodeFile(filepath.Join(t.TempDir(), "gone.ioym"), time.UTC)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("DecodeFile = %v, want not-found error", err)
	}
}

func TestDecodeFilesAttemptsAll(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.01.ioym")
	testsupport.WriteFile(t, good, compressRecords(t, record(1000, "fine")))
	bad := filepath.Join(dir, "missing.01.ioym")

	err := decoder.DecodeFiles([]string{bad, good}, time.UTC)
	if err == nil {
		t.Fatal("expected joined error for missing input")
	}
	// The good file decodes despite the bad one.
	if _, statErr := os.Stat(filepath.Join(dir, "good.01")); statErr != nil {
		t.Fatalf("good input not decoded: %v", statErr)
	}
}

func TestDecodeToStreamsPlaintext(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "app.01.ioym")
	testsupport.WriteFile(t, source, compressRecords(t, record(1000, "to stdout")))

	var out bytes.Buffer
	if err := decoder.DecodeTo(source, &out, time.UTC); err != nil {
		t.Fatalf("DecodeTo: %v", err)
	}
	if got := out.String(); got != "1970-01-01 00:00:01.000 to stdout\n" {
		t.Fatalf("DecodeTo output = %q", got)
	}
	if _, err := os.Stat(source); err != nil {
		t.Fatalf("source must survive stdout decode: %v", err)
	}
}

func TestRenderLocation(t *testing.T) {
	if loc := decoder.RenderLocation(true); loc != time.UTC {
		t.Fatalf("RenderLocation(true) = %v", loc)
	}
	if loc := decoder.RenderLocation(false); loc == nil {
		t.Fatal("RenderLocation(false) returned nil")
	}
}
