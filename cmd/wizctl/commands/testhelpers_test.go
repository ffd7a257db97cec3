package commands

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/wizctl/internal/config"
	"github.com/jmylchreest/wizctl/internal/events"
	"github.com/jmylchreest/wizctl/internal/group"
	"github.com/jmylchreest/wizctl/pkg/wiz"
)

// captureStdout captures stdout during the execution of f, disables pterm color, and strips ANSI codes from the output.
func captureStdout(f func()) string {
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	// Save original pterm settings and default table writer
	oldPrintColor := pterm.PrintColor
	oldOutput := pterm.Output
	oldDefaultTableWriter := pterm.DefaultTable.Writer

	pterm.PrintColor = false
	pterm.Output = true
	pterm.DefaultTable.Writer = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	f()

	w.Close()
	os.Stdout = oldStdout

	// Restore pterm
	pterm.PrintColor = oldPrintColor
	pterm.Output = oldOutput
	pterm.DefaultTable.Writer = oldDefaultTableWriter

	out := <-outC

	// Strip ANSI escape codes
	ansiRegex := regexp.MustCompile(`\x1b\[[0-9;]*m`)
	return ansiRegex.ReplaceAllString(out, "")
}

// setTerminal makes commands believe stdout is (or is not) a terminal.
func setTerminal(t *testing.T, isTerminal bool) {
	t.Helper()
	old := stdoutIsTerminal
	stdoutIsTerminal = func() bool { return isTerminal }
	t.Cleanup(func() { stdoutIsTerminal = old })
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeDevice is an in-memory Device.
type fakeDevice struct {
	mu       sync.Mutex
	info     wiz.DeviceInfo
	kind     wiz.DeviceKind
	pilot    wiz.PilotState
	power    *wiz.Power
	setErr   error
	set      []wiz.PilotCommand
	turnedOn []bool
	closed   int
}

func newFakeDevice(ip, module string) *fakeDevice {
	kind, err := wiz.Classify(module)
	if err != nil {
		panic(err)
	}
	dimming := uint8(80)
	red, zero := uint8(255), uint8(0)
	return &fakeDevice{
		info: wiz.DeviceInfo{
			IP:              ip,
			MAC:             "a8:bb:50:00:00:01",
			Kind:            kind.String(),
			ModuleName:      module,
			FirmwareVersion: "1.21.0",
		},
		kind: kind,
		pilot: wiz.PilotState{
			MAC:     "a8bb50000001",
			RSSI:    -55,
			State:   true,
			Dimming: dimming,
			R:       &red,
			G:       &zero,
			B:       &zero,
			C:       &zero,
			W:       &zero,
		},
	}
}

func (d *fakeDevice) Info() wiz.DeviceInfo { return d.info }
func (d *fakeDevice) Kind() wiz.DeviceKind { return d.kind }

func (d *fakeDevice) SetPilot(cmd wiz.PilotCommand) error {
	if err := cmd.Check(d.kind); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.setErr != nil {
		return d.setErr
	}
	d.set = append(d.set, cmd)
	return nil
}

func (d *fakeDevice) TurnOn() error {
	d.turnedOn = append(d.turnedOn, true)
	return nil
}

func (d *fakeDevice) TurnOff() error {
	d.turnedOn = append(d.turnedOn, false)
	return nil
}

func (d *fakeDevice) GetPilot() (*wiz.PilotState, error) {
	p := d.pilot
	return &p, nil
}

func (d *fakeDevice) SignalStrength() (wiz.SignalStrength, int8, error) {
	return d.pilot.SignalStrength(), d.pilot.RSSI, nil
}

func (d *fakeDevice) SystemConfig() (*wiz.SystemConfig, error) {
	return &wiz.SystemConfig{
		MAC:             d.pilot.MAC,
		HomeID:          1234,
		RoomID:          5678,
		Region:          "eu",
		ModuleName:      d.info.ModuleName,
		FirmwareVersion: d.info.FirmwareVersion,
	}, nil
}

func (d *fakeDevice) ModelConfig() (*wiz.ModelConfig, error) {
	return &wiz.ModelConfig{
		PS:           1,
		PWMFrequency: 1000,
		PWMRange:     [2]uint8{0, 100},
		CCTRange:     [4]uint16{2200, 2700, 6500, 6500},
	}, nil
}

func (d *fakeDevice) Power() (*wiz.Power, error) {
	if d.power == nil {
		return nil, wiz.ErrPowerUnsupported
	}
	return d.power, nil
}

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed++
	return nil
}

// fakeClient hands out fakeDevices by address.
type fakeClient struct {
	devices    map[string]*fakeDevice
	skipped    []string
	connectErr error
	bus        *events.Bus
}

func (c *fakeClient) Connect(ip net.IP) (Device, error) {
	if c.connectErr != nil {
		return nil, c.connectErr
	}
	d, ok := c.devices[ip.String()]
	if !ok {
		return nil, &wiz.NoResponseError{Elapsed: time.Second}
	}
	return d, nil
}

func (c *fakeClient) Discover() ([]Device, error) {
	for _, ip := range c.skipped {
		c.bus.Publish(events.NewEvent(events.DeviceSkipped, map[string]string{
			"ip":     ip,
			"reason": "unrecognized module",
		}))
	}
	out := make([]Device, 0, len(c.devices))
	for _, d := range c.devices {
		out = append(out, d)
	}
	return out, nil
}

// newTestApp builds an App over fake devices with groups persisted to a
// temporary config file.
func newTestApp(t *testing.T, devices ...*fakeDevice) (*App, *fakeClient) {
	t.Helper()
	bus := events.NewBus()
	fc := &fakeClient{devices: make(map[string]*fakeDevice), bus: bus}
	for _, d := range devices {
		fc.devices[d.info.IP] = d
	}

	cfg, err := config.Load(config.ConfigFilename, filepath.Join(t.TempDir(), "wizctl.yaml"))
	require.NoError(t, err)

	groups := group.NewManager(testLogger(), cfg, func(ip net.IP) (group.Controller, error) {
		return fc.Connect(ip)
	})
	groups.SetEventBus(bus)

	return &App{
		Client: fc,
		Groups: groups,
		Bus:    bus,
		Logger: testLogger(),
	}, fc
}

// runCommand executes cmd with app in its context and returns stdout.
func runCommand(app *App, cmd *cobra.Command, args ...string) (string, error) {
	var err error
	out := captureStdout(func() {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		cmd.SetContext(context.WithValue(context.Background(), AppContextKey, app))
		cmd.SetArgs(args)
		err = cmd.Execute()
	})
	return out, err
}
