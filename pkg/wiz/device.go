package wiz

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/jmylchreest/wizctl/internal/events"
)

// Device is a single WiZ device. Its kind is fixed when the Device is
// created. A Device owns its transport and must not be used from more than
// one goroutine at a time.
type Device struct {
	ip              net.IP
	addr            *net.UDPAddr
	mac             net.HardwareAddr
	kind            DeviceKind
	moduleName      string
	firmwareVersion string

	transport  Transport
	correlator *Correlator
	timeout    time.Duration
	logger     *slog.Logger
	emit       func(events.EventType, any)
}

// DeviceInfo is a serializable snapshot of a Device's identity.
type DeviceInfo struct {
	IP              string `json:"ip" yaml:"ip"`
	MAC             string `json:"mac" yaml:"mac"`
	Kind            string `json:"kind" yaml:"kind"`
	ModuleName      string `json:"moduleName" yaml:"moduleName"`
	FirmwareVersion string `json:"fwVersion" yaml:"fwVersion"`
}

func (d *Device) IP() net.IP { return d.ip }
func (d *Device) MAC() net.HardwareAddr { return d.mac }
func (d *Device) Kind() DeviceKind { return d.kind }
func (d *Device) ModuleName() string { return d.moduleName }
func (d *Device) FirmwareVersion() string { return d.firmwareVersion }

// Info returns the device identity.
func (d *Device) Info() DeviceInfo {
	return DeviceInfo{
		IP:              d.ip.String(),
		MAC:             d.mac.String(),
		Kind:            d.kind.String(),
		ModuleName:      d.moduleName,
		FirmwareVersion: d.firmwareVersion,
	}
}

func (d *Device) identify(sys *SystemConfig) error {
	mac, err := ParseMAC(sys.MAC)
	if err != nil {
		return err
	}
	kind, err := Classify(sys.ModuleName)
	if err != nil {
		return err
	}
	d.mac = mac
	d.kind = kind
	d.moduleName = sys.ModuleName
	d.firmwareVersion = sys.FirmwareVersion
	return nil
}

// Close releases the device's transport.
func (d *Device) Close() error {
	return d.transport.Close()
}

// PilotCommand collects the changes of one setPilot request. Nil fields are
// left out of the request and keep the device's current value.
type PilotCommand struct {
	On         *bool
	Color      *RGBCW
	Brightness *uint8
}

// WithState sets the on/off state.
func (c PilotCommand) WithState(on bool) PilotCommand {
	c.On = &on
	return c
}

// WithColor sets the colour.
func (c PilotCommand) WithColor(color RGBCW) PilotCommand {
	c.Color = &color
	return c
}

// WithBrightness sets the brightness.
func (c PilotCommand) WithBrightness(b uint8) PilotCommand {
	c.Brightness = &b
	return c
}

func (c PilotCommand) String() string {
	var parts []string
	if c.On != nil {
		parts = append(parts, fmt.Sprintf("state=%t", *c.On))
	}
	if c.Color != nil {
		parts = append(parts, "color="+c.Color.String())
	}
	if c.Brightness != nil {
		parts = append(parts, fmt.Sprintf("brightness=%d", *c.Brightness))
	}
	return strings.Join(parts, " ")
}

// IsEmpty reports whether no field is set.
func (c PilotCommand) IsEmpty() bool {
	return c.On == nil && c.Color == nil && c.Brightness == nil
}

// Check returns an *UnsupportedCommandError if the command sets something
// kind cannot do.
func (c PilotCommand) Check(kind DeviceKind) error {
	if c.Color != nil && !kind.SupportsColor() {
		return &UnsupportedCommandError{Kind: kind, Command: "color"}
	}
	if c.Brightness != nil && !kind.IsDimmable() {
		return &UnsupportedCommandError{Kind: kind, Command: "brightness"}
	}
	return nil
}

// Params converts the command to its wire parameters.
func (c PilotCommand) Params() PilotParams {
	var p PilotParams
	p.State = c.On
	if c.Color != nil {
		p.R = ptr(c.Color.R)
		p.G = ptr(c.Color.G)
		p.B = ptr(c.Color.B)
		p.C = ptr(c.Color.C)
		p.W = ptr(c.Color.W)
	}
	p.Dimming = c.Brightness
	return p
}

// SetPilot sends cmd as a single setPilot request. The command is checked
// against the device kind before anything is sent.
func (d *Device) SetPilot(cmd PilotCommand) error {
	if err := cmd.Check(d.kind); err != nil {
		return err
	}

	res, err := request[SetPilotResult](d, NewSetPilotRequest(cmd.Params()))
	if err != nil {
		return err
	}
	if !res.Succeeded() {
		return ErrUnsuccessfulRequest
	}

	d.logger.Debug("wiz: pilot set", "command", cmd.String())
	d.emit(events.DevicePilotChanged, pilotChange{IP: d.ip.String(), Params: cmd.Params()})
	return nil
}

type pilotChange struct {
	IP     string      `json:"ip"`
	Params PilotParams `json:"params"`
}

// TurnOn switches the device on.
func (d *Device) TurnOn() error {
	return d.SetPilot(PilotCommand{}.WithState(true))
}

// TurnOff switches the device off.
func (d *Device) TurnOff() error {
	return d.SetPilot(PilotCommand{}.WithState(false))
}

// SetBrightness sets the dimming level.
func (d *Device) SetBrightness(b uint8) error {
	return d.SetPilot(PilotCommand{}.WithBrightness(b))
}

// SetColor sets the RGBCW colour.
func (d *Device) SetColor(c RGBCW) error {
	return d.SetPilot(PilotCommand{}.WithColor(c))
}

// GetPilot returns the current device state.
func (d *Device) GetPilot() (*PilotState, error) {
	return request[PilotState](d, NewGetPilotRequest())
}

// SignalStrength reads the RSSI through getPilot and classifies it.
func (d *Device) SignalStrength() (SignalStrength, int8, error) {
	p, err := d.GetPilot()
	if err != nil {
		return 0, 0, err
	}
	return p.SignalStrength(), p.RSSI, nil
}

// SystemConfig returns the device's system configuration.
func (d *Device) SystemConfig() (*SystemConfig, error) {
	return request[SystemConfig](d, NewGetSystemConfigRequest())
}

// ModelConfig returns the device's model configuration.
func (d *Device) ModelConfig() (*ModelConfig, error) {
	return request[ModelConfig](d, NewGetModelConfigRequest())
}

// Power returns the device's power reading. Devices without a power meter
// answer with "Method not found", reported as ErrPowerUnsupported.
func (d *Device) Power() (*Power, error) {
	p, err := request[Power](d, NewGetPowerRequest())
	if err != nil {
		var perr *ProtocolError
		if errors.As(err, &perr) && perr.IsMethodNotFound() {
			return nil, fmt.Errorf("%w: %w", ErrPowerUnsupported, perr)
		}
		return nil, err
	}
	return p, nil
}
