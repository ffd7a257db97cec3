package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Network NetworkConfig
	Logging LoggingConfig
	Capture CaptureConfig

	// Named device groups
	Groups []GroupConfig

	v    *viper.Viper
	path string
}

// NetworkConfig controls sockets and timing
type NetworkConfig struct {
	Port             int
	BroadcastAddress string
	Timeout          time.Duration
	DiscoveryWindow  time.Duration
	BufferSize       int
	PollInterval     time.Duration
}

// LoggingConfig represents the logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// CaptureConfig controls protocol capture. An empty File disables it.
type CaptureConfig struct {
	File string
}

// GroupConfig is a named set of device addresses
type GroupConfig struct {
	Name    string   `mapstructure:"name"`
	Devices []string `mapstructure:"devices"`
}

// Load loads configuration from a file and environment variables. A missing
// file is not an error; defaults apply.
func Load(configName, configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("network.port", DefaultPort)
	v.SetDefault("network.broadcast_address", DefaultBroadcastAddress)
	v.SetDefault("network.timeout", DefaultTimeout)
	v.SetDefault("network.discovery_window", DefaultDiscoveryWindow)
	v.SetDefault("network.buffer_size", DefaultBufferSize)
	v.SetDefault("network.poll_interval", DefaultPollInterval)
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("logging.format", LogFormatText)
	v.SetDefault("capture.file", "")

	path := configFile
	if path == "" {
		path = GetConfigPath(configName)
	}
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
		slog.Debug("config file not found, using defaults", "path", path)
	} else {
		slog.Debug("using config file", "path", path)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := New(v)
	cfg.path = path

	if err := v.UnmarshalKey("groups", &cfg.Groups); err != nil {
		return nil, fmt.Errorf("invalid groups in config: %w", err)
	}

	return cfg, nil
}

// New builds a Config from a viper instance.
func New(v *viper.Viper) *Config {
	return &Config{
		Network: NetworkConfig{
			Port:             v.GetInt("network.port"),
			BroadcastAddress: v.GetString("network.broadcast_address"),
			Timeout:          ClampTimeout(v.GetDuration("network.timeout")),
			DiscoveryWindow:  ClampTimeout(v.GetDuration("network.discovery_window")),
			BufferSize:       ValidateBufferSize(v.GetInt("network.buffer_size")),
			PollInterval:     v.GetDuration("network.poll_interval"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		Capture: CaptureConfig{
			File: v.GetString("capture.file"),
		},
		v:    v,
		path: v.ConfigFileUsed(),
	}
}

// Path returns the file the configuration is read from and saved to.
func (c *Config) Path() string {
	return c.path
}

// Save writes the groups back to the config file. Every other key is kept as
// it is on disk, so flag and environment overrides applied to this Config are
// never persisted.
func (c *Config) Save() error {
	if c.path == "" {
		return errors.New("config has no file path")
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	onDisk := viper.New()
	onDisk.SetConfigType("yaml")
	onDisk.SetConfigFile(c.path)
	if err := onDisk.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error reading config file %s: %w", c.path, err)
	}

	groups := make([]map[string]any, 0, len(c.Groups))
	for _, g := range c.Groups {
		devices := g.Devices
		if devices == nil {
			devices = []string{}
		}
		groups = append(groups, map[string]any{"name": g.Name, "devices": devices})
	}
	onDisk.Set("groups", groups)
	if c.v != nil {
		c.v.Set("groups", groups)
	}

	if err := onDisk.WriteConfigAs(c.path); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	slog.Debug("configuration saved", "path", c.path, "groups", len(c.Groups))
	return nil
}

// Get retrieves a value from the configuration
func (c *Config) Get(key string) any {
	if c.v == nil {
		return nil
	}
	return c.v.Get(key)
}

// Set sets a value in the configuration
func (c *Config) Set(key string, value any) {
	if c.v == nil {
		return
	}
	c.v.Set(key, value)
}
