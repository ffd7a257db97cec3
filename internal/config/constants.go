package config

import "time"

const (
	// ConfigDirName is the name of the config directory within XDG_CONFIG_HOME
	ConfigDirName = "wizctl"

	// ConfigFilename is the base filename for the CLI config
	ConfigFilename = "wizctl.yaml"

	// EnvPrefix is the prefix for environment variable overrides
	EnvPrefix = "WIZCTL"
)

// Network defaults
const (
	// DefaultPort is the UDP port devices listen on
	DefaultPort = 38899

	// DefaultBroadcastAddress is the address discovery broadcasts to
	DefaultBroadcastAddress = "255.255.255.255"

	// DefaultTimeout bounds a single unicast request
	DefaultTimeout = time.Second

	// DefaultDiscoveryWindow is how long discovery collects replies
	DefaultDiscoveryWindow = time.Second

	// DefaultBufferSize is the receive buffer size in bytes
	DefaultBufferSize = 512

	// DefaultPollInterval bounds a single receive attempt
	DefaultPollInterval = 10 * time.Millisecond
)

// Network limits
const (
	MinTimeout    = 100 * time.Millisecond
	MaxTimeout    = 30 * time.Second
	MinBufferSize = 256
)

// Logging constants
const (
	// LogLevelDebug represents debug log level
	LogLevelDebug = "debug"

	// LogLevelInfo represents info log level
	LogLevelInfo = "info"

	// LogLevelWarn represents warning log level
	LogLevelWarn = "warn"

	// LogLevelError represents error log level
	LogLevelError = "error"

	// LogFormatText represents text log format
	LogFormatText = "text"

	// LogFormatJSON represents JSON log format
	LogFormatJSON = "json"
)
