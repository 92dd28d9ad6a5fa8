package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.Directory, err = expandPath(strings.TrimSpace(c.Paths.Directory)); err != nil {
		return fmt.Errorf("paths.directory: %w", err)
	}

	c.Paths.Socket = strings.TrimSpace(c.Paths.Socket)
	if value, ok := os.LookupEnv(SocketEnv); ok && strings.TrimSpace(value) != "" {
		c.Paths.Socket = strings.TrimSpace(value)
	}
	if c.Paths.Socket == "" {
		c.Paths.Socket = DefaultSocketPath
	}
	if c.Paths.Socket, err = expandPath(c.Paths.Socket); err != nil {
		return fmt.Errorf("paths.socket: %w", err)
	}

	c.Paths.Listen = strings.TrimSpace(c.Paths.Listen)

	if c.Storage.CompressionLevel == 0 {
		c.Storage.CompressionLevel = defaultCompressionLevel
	}
	if c.Storage.RotationThresholdMiB == 0 {
		c.Storage.RotationThresholdMiB = defaultRotationThresholdMiB
	}
	if c.Retention.CheckIntervalSeconds == 0 {
		c.Retention.CheckIntervalSeconds = defaultCheckIntervalSeconds
	}
	if c.Retention.FreeSpaceLower == 0 {
		c.Retention.FreeSpaceLower = defaultFreeSpaceLower
	}
	if c.Retention.FreeSpaceUpper == 0 {
		c.Retention.FreeSpaceUpper = defaultFreeSpaceUpper
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	return nil
}
