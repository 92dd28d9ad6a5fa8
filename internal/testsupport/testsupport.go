// Package testsupport seeds tests with temp-directory-backed
// configuration and small filesystem helpers.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Infinidat/loggest/internal/config"
)

// NewConfig produces a daemon config rooted in unique temp
// directories per test.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.Directory = filepath.Join(base, "logs")
	cfg.Paths.Socket = filepath.Join(base, "loggestd.sock")
	if err := os.MkdirAll(cfg.Paths.Directory, 0o755); err != nil {
		t.Fatalf("create log directory: %v", err)
	}
	return &cfg
}

// WriteFile creates a file with the given contents, failing the test
// on error.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Touch sets a file's modification time, failing the test on error.
func Touch(t testing.TB, path string, mtime time.Time) {
	t.Helper()
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}
