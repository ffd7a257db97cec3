package commands

import (
	"io"
	"log/slog"
	"net"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/wizctl/internal/events"
	"github.com/jmylchreest/wizctl/internal/group"
	"github.com/jmylchreest/wizctl/pkg/wiz"
)

// AppContextKey is used for storing the App in the command context.
// NewRootCommand fills it in before any subcommand runs unless one is
// already present, which is how tests inject fakes.
var AppContextKey = &struct{}{}

// Device is the part of a wiz.Device the commands use.
type Device interface {
	Info() wiz.DeviceInfo
	Kind() wiz.DeviceKind
	SetPilot(cmd wiz.PilotCommand) error
	TurnOn() error
	TurnOff() error
	GetPilot() (*wiz.PilotState, error)
	SignalStrength() (wiz.SignalStrength, int8, error)
	SystemConfig() (*wiz.SystemConfig, error)
	ModelConfig() (*wiz.ModelConfig, error)
	Power() (*wiz.Power, error)
	Close() error
}

// DeviceClient opens Devices.
type DeviceClient interface {
	Connect(ip net.IP) (Device, error)
	Discover() ([]Device, error)
}

// App carries everything a command runs against.
type App struct {
	Client DeviceClient
	Groups *group.Manager
	Bus    *events.Bus
	Logger *slog.Logger

	closers []io.Closer
}

// Close releases resources opened for the run, such as the capture file.
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

func appFromCmd(cmd *cobra.Command) *App {
	if app, ok := cmd.Context().Value(AppContextKey).(*App); ok && app != nil {
		return app
	}
	return nil
}

// wizClient adapts *wiz.Client to DeviceClient.
type wizClient struct {
	c *wiz.Client
}

func (w wizClient) Connect(ip net.IP) (Device, error) {
	d, err := w.c.Connect(ip)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (w wizClient) Discover() ([]Device, error) {
	devices, err := w.c.Discover()
	if err != nil {
		return nil, err
	}
	out := make([]Device, len(devices))
	for i, d := range devices {
		out[i] = d
	}
	return out, nil
}

var _ Device = (*wiz.Device)(nil)
