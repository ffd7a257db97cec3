package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetConfigBaseDir(t *testing.T) {
	t.Run("custom xdg", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/home/user/myconfigs")
		assert.Equal(t, "/home/user/myconfigs/wizctl", GetConfigBaseDir())
	})

	t.Run("default", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		result := GetConfigBaseDir()
		assert.True(t, filepath.IsAbs(result))
		assert.True(t, strings.HasSuffix(result, "/.config/wizctl"), result)
	})
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/etc/xdg")
	assert.Equal(t, "/etc/xdg/wizctl/wizctl.yaml", GetConfigPath(ConfigFilename))
}

func TestClampTimeout(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{0, MinTimeout},
		{50 * time.Millisecond, MinTimeout},
		{time.Second, time.Second},
		{time.Minute, MaxTimeout},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampTimeout(tt.in), "input %s", tt.in)
	}
}

func TestValidateBufferSize(t *testing.T) {
	assert.Equal(t, MinBufferSize, ValidateBufferSize(0))
	assert.Equal(t, 1024, ValidateBufferSize(1024))
}
