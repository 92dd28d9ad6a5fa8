package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable by a running daemon.
// It is called after flag overrides are applied, not during Load, so
// required flags can satisfy requirements the file leaves out.
func (c *Config) Validate() error {
	if c.Paths.Directory == "" {
		return errors.New("paths.directory is required (or pass --directory)")
	}
	if c.Paths.Socket == "" && c.Paths.Listen == "" {
		return errors.New("at least one of paths.socket and paths.listen must be set")
	}
	if c.Storage.CompressionLevel < 1 || c.Storage.CompressionLevel > 22 {
		return fmt.Errorf("storage.compression_level must be between 1 and 22, got %d", c.Storage.CompressionLevel)
	}
	if c.Storage.RotationThresholdMiB < 1 {
		return fmt.Errorf("storage.rotation_threshold_mib must be positive, got %d", c.Storage.RotationThresholdMiB)
	}
	if c.Retention.CheckIntervalSeconds < 1 {
		return fmt.Errorf("retention.check_interval_seconds must be positive, got %d", c.Retention.CheckIntervalSeconds)
	}
	if c.Retention.FreeSpaceLower <= 0 || c.Retention.FreeSpaceLower >= 1 {
		return fmt.Errorf("retention.free_space_lower must be between 0 and 1, got %g", c.Retention.FreeSpaceLower)
	}
	if c.Retention.FreeSpaceUpper <= 0 || c.Retention.FreeSpaceUpper >= 1 {
		return fmt.Errorf("retention.free_space_upper must be between 0 and 1, got %g", c.Retention.FreeSpaceUpper)
	}
	if c.Retention.FreeSpaceLower >= c.Retention.FreeSpaceUpper {
		return fmt.Errorf("retention.free_space_lower (%g) must be below retention.free_space_upper (%g)",
			c.Retention.FreeSpaceLower, c.Retention.FreeSpaceUpper)
	}
	return nil
}
