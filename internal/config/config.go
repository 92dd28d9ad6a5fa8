package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// SocketEnv names the environment variable that overrides the daemon
// socket path for both loggestd and clients.
const SocketEnv = "LOGGESTD_SOCKET"

// Paths contains directory and listener configuration.
type Paths struct {
	// Directory is where live log files are written and where the
	// archived/ subdirectory lives. Required.
	Directory string `toml:"directory"`
	// Socket is the Unix domain socket to listen on.
	Socket string `toml:"socket"`
	// Listen is an optional TCP address (host:port) to accept
	// connections on in addition to the socket.
	Listen string `toml:"listen"`
}

// Storage controls how log files are compressed and rotated.
type Storage struct {
	// CompressionLevel is the zstd compression level (1-22).
	CompressionLevel int `toml:"compression_level"`
	// RotationThresholdMiB is the uncompressed byte volume a file
	// accepts before rotating.
	RotationThresholdMiB int64 `toml:"rotation_threshold_mib"`
}

// Retention controls the archive disk-usage monitor.
type Retention struct {
	// CheckIntervalSeconds is how often free space is examined.
	CheckIntervalSeconds int `toml:"check_interval_seconds"`
	// FreeSpaceLower is the free/total ratio below which garbage
	// collection starts.
	FreeSpaceLower float64 `toml:"free_space_lower"`
	// FreeSpaceUpper is the free/total ratio garbage collection
	// restores.
	FreeSpaceUpper float64 `toml:"free_space_upper"`
}

// Logging contains the daemon's own log output settings.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values for loggestd.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Storage   Storage   `toml:"storage"`
	Retention Retention `toml:"retention"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default
// configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/loggest/loggestd.toml")
}

// Load locates, parses, and validates a configuration file. An empty
// path selects the default location; a missing file is not an error
// and yields the defaults. The returned bool reports whether a file
// was read.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file %s does not exist", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the output directory tree the daemon
// needs.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.Directory, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.Directory, err)
	}
	return nil
}

// ArchiveDir returns the directory archived log files are moved into.
func (c *Config) ArchiveDir() string {
	return filepath.Join(c.Paths.Directory, "archived")
}

// RotationThresholdBytes converts the configured MiB threshold to
// bytes.
func (c *Config) RotationThresholdBytes() int64 {
	return c.Storage.RotationThresholdMiB * 1024 * 1024
}

// SampleConfig returns the annotated sample configuration shipped with
// the daemon.
func SampleConfig() string {
	return sampleConfig
}

// ExpandPath exposes the repository path expansion rules (~ and
// relative paths become absolute) for flag handling.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && pathValue[1] == '/' {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
