package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/wizctl/internal/capture"
	"github.com/jmylchreest/wizctl/internal/config"
)

func TestNewRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand("1.0.0", "abc", "today")

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"version", "discover", "get", "on", "off", "set", "signal", "sysconfig", "modelconfig", "power", "group", "capture"} {
		assert.Contains(t, names, want)
	}

	for _, flag := range []string{"config", "log-level", "log-format", "port", "timeout", "capture"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestRootCommand_VersionOutput(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cmd := NewRootCommand("1.0.0", "abc", "today")
	cmd.SetArgs([]string{"version"})

	out := captureStdout(func() {
		require.NoError(t, cmd.Execute())
	})
	assert.Contains(t, out, "Version:    1.0.0")
	assert.Contains(t, out, "Commit:     abc")
}

func TestRootCommand_BuildsAppFromConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configPath := filepath.Join(dir, "wizctl.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
network:
  port: 38900
groups:
  - name: lounge
    devices: ["192.168.1.20", "192.168.1.21"]
`), 0o644))
	capturePath := filepath.Join(dir, "capture.cbor")

	cmd := NewRootCommand("dev", "unknown", "unknown")
	cmd.SetArgs([]string{"--config", configPath, "--capture", capturePath, "--log-level", "error", "group", "list", "-p"})

	out := captureStdout(func() {
		require.NoError(t, cmd.Execute())
	})
	assert.Equal(t, "name=\"lounge\" devices=\"192.168.1.20,192.168.1.21\"\n", out)

	// The capture file is created and closed even when nothing was sent.
	r, err := capture.NewReader(capturePath)
	require.NoError(t, err)
	defer r.Close()
	events, err := r.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRootCommand_InvalidBroadcastAddress(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("WIZCTL_NETWORK_BROADCAST_ADDRESS", "not-an-address")

	cmd := NewRootCommand("dev", "unknown", "unknown")
	cmd.SetArgs([]string{"group", "list"})
	cmd.SetContext(context.Background())

	err := cmd.Execute()
	assert.Error(t, err)
}

func TestRootCommand_GroupCreateDoesNotPersistFlags(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configPath := filepath.Join(dir, "wizctl.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("network:\n  timeout: 2s\n"), 0o644))
	capturePath := filepath.Join(dir, "once.cbor")

	cmd := NewRootCommand("dev", "unknown", "unknown")
	cmd.SetArgs([]string{"--config", configPath, "--capture", capturePath, "--timeout", "7s",
		"--log-level", "error", "group", "create", "lounge", "10.0.0.1"})
	captureStdout(func() {
		require.NoError(t, cmd.Execute())
	})

	cfg, err := config.Load(config.ConfigFilename, configPath)
	require.NoError(t, err)
	assert.Empty(t, cfg.Capture.File)
	assert.Equal(t, 2*time.Second, cfg.Network.Timeout)
	require.Len(t, cfg.Groups, 1)
	assert.Equal(t, "lounge", cfg.Groups[0].Name)
	assert.Equal(t, []string{"10.0.0.1"}, cfg.Groups[0].Devices)
}

func TestBuildApp_DiscoveryWindowFlag(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	configPath := filepath.Join(dir, "wizctl.yaml")

	tests := []struct {
		name string
		args []string
		want time.Duration
	}{
		{"default", nil, config.DefaultDiscoveryWindow},
		{"flag", []string{"--window", "3s"}, 3 * time.Second},
		{"clamped", []string{"--window", "5m"}, config.MaxTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := NewRootCommand("dev", "unknown", "unknown")
			discover, _, err := root.Find([]string{"discover"})
			require.NoError(t, err)
			require.NoError(t, discover.ParseFlags(append([]string{"--config", configPath, "--timeout", "4s"}, tt.args...)))

			app, err := buildApp(discover)
			require.NoError(t, err)
			defer app.Close()

			client := app.Client.(wizClient).c
			assert.Equal(t, tt.want, client.DiscoveryWindow())
			assert.Equal(t, 4*time.Second, client.Timeout())
		})
	}
}

func TestRootCommand_InvalidConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	configPath := filepath.Join(dir, "wizctl.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("not: [valid: yaml"), 0o644))

	cmd := NewRootCommand("dev", "unknown", "unknown")
	cmd.SetArgs([]string{"--config", configPath, "group", "list"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}
