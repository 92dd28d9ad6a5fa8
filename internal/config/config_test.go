package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Infinidat/loggest/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loggestd.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(config.SocketEnv, "")
	path := writeConfig(t, "[paths]\ndirectory = \"/var/log/loggest\"\n")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatalf("Load reported exists=%v path=%q", exists, resolved)
	}
	if cfg.Paths.Directory != "/var/log/loggest" {
		t.Errorf("directory = %q", cfg.Paths.Directory)
	}
	if cfg.Paths.Socket != config.DefaultSocketPath {
		t.Errorf("socket = %q, want default", cfg.Paths.Socket)
	}
	if cfg.Storage.CompressionLevel != 1 {
		t.Errorf("compression level = %d, want 1", cfg.Storage.CompressionLevel)
	}
	if cfg.RotationThresholdBytes() != 1024*1024*1024 {
		t.Errorf("rotation threshold = %d, want 1 GiB", cfg.RotationThresholdBytes())
	}
	if cfg.Retention.CheckIntervalSeconds != 60 {
		t.Errorf("check interval = %d, want 60", cfg.Retention.CheckIntervalSeconds)
	}
	if cfg.Retention.FreeSpaceLower != 0.10 || cfg.Retention.FreeSpaceUpper != 0.15 {
		t.Errorf("thresholds = %g/%g, want 0.10/0.15",
			cfg.Retention.FreeSpaceLower, cfg.Retention.FreeSpaceUpper)
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, _, _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("Load = %v, want missing-file error", err)
	}
}

func TestLoadParsesAllSections(t *testing.T) {
	t.Setenv(config.SocketEnv, "")
	path := writeConfig(t, `
[paths]
directory = "/data/logs"
socket = "/tmp/custom.sock"
listen = "0.0.0.0:7440"

[storage]
compression_level = 9
rotation_threshold_mib = 64

[retention]
check_interval_seconds = 10
free_space_lower = 0.2
free_space_upper = 0.3

[logging]
level = "DEBUG"
format = "JSON"
`)
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Paths.Socket != "/tmp/custom.sock" {
		t.Errorf("socket = %q", cfg.Paths.Socket)
	}
	if cfg.Paths.Listen != "0.0.0.0:7440" {
		t.Errorf("listen = %q", cfg.Paths.Listen)
	}
	if cfg.Storage.CompressionLevel != 9 || cfg.Storage.RotationThresholdMiB != 64 {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Retention.FreeSpaceLower != 0.2 || cfg.Retention.FreeSpaceUpper != 0.3 {
		t.Errorf("retention = %+v", cfg.Retention)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v, want lowercased values", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestSocketEnvOverride(t *testing.T) {
	t.Setenv(config.SocketEnv, "/tmp/env-override.sock")
	path := writeConfig(t, "[paths]\ndirectory = \"/data\"\nsocket = \"/tmp/from-file.sock\"\n")

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Paths.Socket != "/tmp/env-override.sock" {
		t.Fatalf("socket = %q, want env override", cfg.Paths.Socket)
	}
}

func TestValidate(t *testing.T) {
	valid := config.Default()
	valid.Paths.Directory = "/data/logs"

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"missing directory", func(c *config.Config) { c.Paths.Directory = "" }, "paths.directory"},
		{"no listeners", func(c *config.Config) { c.Paths.Socket = ""; c.Paths.Listen = "" }, "paths.socket"},
		{"compression too high", func(c *config.Config) { c.Storage.CompressionLevel = 23 }, "compression_level"},
		{"compression too low", func(c *config.Config) { c.Storage.CompressionLevel = -1 }, "compression_level"},
		{"zero rotation", func(c *config.Config) { c.Storage.RotationThresholdMiB = 0 }, "rotation_threshold_mib"},
		{"zero interval", func(c *config.Config) { c.Retention.CheckIntervalSeconds = 0 }, "check_interval_seconds"},
		{"lower out of range", func(c *config.Config) { c.Retention.FreeSpaceLower = 1.5 }, "free_space_lower"},
		{"upper out of range", func(c *config.Config) { c.Retention.FreeSpaceUpper = 0 }, "free_space_upper"},
		{"inverted thresholds", func(c *config.Config) {
			c.Retention.FreeSpaceLower = 0.4
			c.Retention.FreeSpaceUpper = 0.2
		}, "must be below"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Validate = %v, want error mentioning %q", err, tt.want)
			}
		})
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestSampleConfigMentionsEverySection(t *testing.T) {
	sample := config.SampleConfig()
	for _, section := range []string{"[paths]", "[storage]", "[retention]", "[logging]"} {
		if !strings.Contains(sample, section) {
			t.Errorf("sample config missing %s", section)
		}
	}
}

func TestExpandPath(t *testing.T) {
	got, err := config.ExpandPath("relative/dir")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if !filepath.IsAbs(got) {
		t.Fatalf("ExpandPath(relative) = %q, want absolute", got)
	}
}
