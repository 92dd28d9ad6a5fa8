package config

const (
	// DefaultSocketPath is the documented default Unix socket, shared
	// with the client library.
	DefaultSocketPath = "/run/loggestd.sock"

	defaultCompressionLevel     = 1
	defaultRotationThresholdMiB = 1024
	defaultCheckIntervalSeconds = 60
	defaultFreeSpaceLower       = 0.10
	defaultFreeSpaceUpper       = 0.15
	defaultLogLevel             = "info"
	defaultLogFormat            = "auto"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			Socket: DefaultSocketPath,
		},
		Storage: Storage{
			CompressionLevel:     defaultCompressionLevel,
			RotationThresholdMiB: defaultRotationThresholdMiB,
		},
		Retention: Retention{
			CheckIntervalSeconds: defaultCheckIntervalSeconds,
			FreeSpaceLower:       defaultFreeSpaceLower,
			FreeSpaceUpper:       defaultFreeSpaceUpper,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
