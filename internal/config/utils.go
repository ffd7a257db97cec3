package config

import (
	"os"
	"path/filepath"
	"time"
)

// GetConfigBaseDir returns the base directory for configuration files
func GetConfigBaseDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, ConfigDirName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", ConfigDirName)
}

// GetConfigPath returns the full path to a configuration file
func GetConfigPath(filename string) string {
	return filepath.Join(GetConfigBaseDir(), filename)
}

// ClampTimeout keeps a timeout or discovery window within
// [MinTimeout, MaxTimeout].
func ClampTimeout(d time.Duration) time.Duration {
	return min(max(d, MinTimeout), MaxTimeout)
}

// ValidateBufferSize returns n, raised to MinBufferSize if smaller.
func ValidateBufferSize(n int) int {
	return max(n, MinBufferSize)
}
