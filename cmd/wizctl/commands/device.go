package commands

import (
	"errors"
	"fmt"
	"net"

	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	wizerrors "github.com/jmylchreest/wizctl/internal/errors"
	"github.com/jmylchreest/wizctl/internal/events"
	"github.com/jmylchreest/wizctl/pkg/wiz"
)

// parseIP parses an IPv4 device address argument
func parseIP(s string) (net.IP, error) {
	ip := net.ParseIP(s)
	if ip == nil || ip.To4() == nil {
		return nil, wizerrors.InvalidInputf("invalid IPv4 address %q", s)
	}
	return ip, nil
}

func requireApp(cmd *cobra.Command) (*App, error) {
	app := appFromCmd(cmd)
	if app == nil || app.Client == nil {
		return nil, wizerrors.Internalf("command context is not initialised")
	}
	return app, nil
}

// withDevice connects to addr, runs fn and closes the device
func withDevice(cmd *cobra.Command, addr string, fn func(Device) error) error {
	app, err := requireApp(cmd)
	if err != nil {
		return err
	}
	ip, err := parseIP(addr)
	if err != nil {
		return err
	}
	d, err := app.Client.Connect(ip)
	if errors.Is(err, wiz.ErrSend) {
		return wizerrors.DeviceUnavailablef("cannot reach %s (%v)", addr, err)
	}
	if err != nil {
		return wizerrors.WrapErrorf(err, "failed to connect to %s", addr)
	}
	defer d.Close()
	return fn(d)
}

// pilotFlags are the flags shared by the set and group set commands
type pilotFlags struct {
	on         bool
	off        bool
	color      string
	brightness uint8
}

func (f *pilotFlags) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.on, "on", false, "Turn on")
	cmd.Flags().BoolVar(&f.off, "off", false, "Turn off")
	cmd.Flags().StringVar(&f.color, "color", "", "Colour as r,g,b,c,w (0-255 each) or a name such as white")
	cmd.Flags().Uint8Var(&f.brightness, "brightness", 0, "Brightness (0-255)")
	cmd.MarkFlagsMutuallyExclusive("on", "off")
}

func (f *pilotFlags) command(cmd *cobra.Command) (wiz.PilotCommand, error) {
	var pc wiz.PilotCommand
	if f.on {
		pc = pc.WithState(true)
	}
	if f.off {
		pc = pc.WithState(false)
	}
	if f.color != "" {
		c, err := ParseRGBCW(f.color)
		if err != nil {
			return pc, err
		}
		pc = pc.WithColor(c)
	}
	if cmd.Flags().Changed("brightness") {
		pc = pc.WithBrightness(f.brightness)
	}
	if pc.IsEmpty() {
		return pc, wizerrors.InvalidInputf("nothing to set, use --on, --off, --color or --brightness")
	}
	return pc, nil
}

// newDiscoverCommand creates the discover command
func newDiscoverCommand() *cobra.Command {
	var parseable bool
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find devices on the local network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(cmd)
			if err != nil {
				return err
			}
			parseable = wantParseable(parseable)

			if !parseable && app.Bus != nil {
				unsubscribe := app.Bus.SubscribeTypes(func(e events.Event) {
					var skipped struct {
						IP     string `json:"ip"`
						Reason string `json:"reason"`
					}
					if err := e.Decode(&skipped); err == nil {
						pterm.Warning.Printfln("Skipped %s: %s", skipped.IP, skipped.Reason)
					}
				}, events.DeviceSkipped)
				defer unsubscribe()
			}

			var devices []Device
			if parseable {
				devices, err = app.Client.Discover()
			} else {
				spinner, _ := pterm.DefaultSpinner.Start("Discovering devices...")
				devices, err = app.Client.Discover()
				if spinner != nil {
					_ = spinner.Stop()
				}
			}
			if err != nil {
				return wizerrors.WrapErrorf(err, "failed to discover devices")
			}
			defer func() {
				for _, d := range devices {
					d.Close()
				}
			}()
			sortDevices(devices)

			if len(devices) == 0 {
				if parseable {
					return nil
				}
				pterm.Info.Println("No devices found")
				return nil
			}

			if parseable {
				for _, d := range devices {
					fmt.Println(parseableLine(infoFields(d.Info())))
				}
				return nil
			}

			table := pterm.TableData{{"IP", "MAC", "Kind", "Module", "Firmware"}}
			table = append(table, lo.Map(devices, func(d Device, _ int) []string {
				info := d.Info()
				return []string{info.IP, info.MAC, info.Kind, info.ModuleName, info.FirmwareVersion}
			})...)
			return pterm.DefaultTable.WithHasHeader().WithData(table).Render()
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	cmd.Flags().Duration("window", wiz.DefaultDiscoveryWindow, "How long to wait for replies")
	return cmd
}

// newGetCommand creates the get command
func newGetCommand() *cobra.Command {
	var parseable bool
	cmd := &cobra.Command{
		Use:   "get <ip> [property]",
		Short: "Show the state of a device",
		Long: `Show the state of a device.
Properties:
  ip, mac, kind, module, firmware, state, brightness, color, scene, rssi, signal`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDevice(cmd, args[0], func(d Device) error {
				pilot, err := d.GetPilot()
				if err != nil {
					return wizerrors.WrapErrorf(err, "failed to get device state")
				}
				fields := pilotFields(d.Info(), pilot)

				// If a specific property was requested, only show that
				if len(args) > 1 {
					f, ok := lookupField(fields, args[1])
					if !ok {
						return wizerrors.InvalidInputf("invalid property: %s", args[1])
					}
					if parseable {
						fmt.Println(parseableLine([]field{f}))
					} else {
						fmt.Println(f.value)
					}
					return nil
				}

				return printFields(fields, wantParseable(parseable))
			})
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}

func newPowerStateCommand(use, short string, on bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <ip>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDevice(cmd, args[0], func(d Device) error {
				var err error
				if on {
					err = d.TurnOn()
				} else {
					err = d.TurnOff()
				}
				if err != nil {
					return wizerrors.WrapErrorf(err, "failed to turn %s %s", use, args[0])
				}
				pterm.Success.Printfln("Turned %s %s", use, args[0])
				return nil
			})
		},
	}
}

// newOnCommand creates the on command
func newOnCommand() *cobra.Command {
	return newPowerStateCommand("on", "Turn a device on", true)
}

// newOffCommand creates the off command
func newOffCommand() *cobra.Command {
	return newPowerStateCommand("off", "Turn a device off", false)
}

// newSetCommand creates the set command
func newSetCommand() *cobra.Command {
	var flags pilotFlags
	cmd := &cobra.Command{
		Use:   "set <ip>",
		Short: "Change state, colour and brightness in one request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pc, err := flags.command(cmd)
			if err != nil {
				return err
			}
			return withDevice(cmd, args[0], func(d Device) error {
				if err := d.SetPilot(pc); err != nil {
					return wizerrors.WrapErrorf(err, "failed to set %s", args[0])
				}
				pterm.Success.Printfln("Set %s on %s", pc, args[0])
				return nil
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

// newSignalCommand creates the signal command
func newSignalCommand() *cobra.Command {
	var parseable bool
	cmd := &cobra.Command{
		Use:   "signal <ip>",
		Short: "Show the WiFi signal strength of a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDevice(cmd, args[0], func(d Device) error {
				strength, rssi, err := d.SignalStrength()
				if err != nil {
					return wizerrors.WrapErrorf(err, "failed to get signal strength")
				}
				if wantParseable(parseable) {
					fmt.Println(parseableLine([]field{
						{"rssi", "RSSI", rssi},
						{"signal", "Signal", strength.String()},
					}))
					return nil
				}
				fmt.Printf("%s %s (%d dBm)\n", strength.Bars(), strength, rssi)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}

// newSysConfigCommand creates the sysconfig command
func newSysConfigCommand() *cobra.Command {
	var parseable bool
	cmd := &cobra.Command{
		Use:   "sysconfig <ip>",
		Short: "Show the system configuration of a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDevice(cmd, args[0], func(d Device) error {
				sc, err := d.SystemConfig()
				if err != nil {
					return wizerrors.WrapErrorf(err, "failed to get system config")
				}
				return printFields(sysConfigFields(sc), wantParseable(parseable))
			})
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}

// newModelConfigCommand creates the modelconfig command
func newModelConfigCommand() *cobra.Command {
	var parseable bool
	cmd := &cobra.Command{
		Use:   "modelconfig <ip>",
		Short: "Show the model configuration of a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDevice(cmd, args[0], func(d Device) error {
				mc, err := d.ModelConfig()
				if err != nil {
					return wizerrors.WrapErrorf(err, "failed to get model config")
				}
				return printFields(modelConfigFields(mc), wantParseable(parseable))
			})
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}

// newPowerCommand creates the power command
func newPowerCommand() *cobra.Command {
	var parseable bool
	cmd := &cobra.Command{
		Use:   "power <ip>",
		Short: "Show the power draw of a device with a power meter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDevice(cmd, args[0], func(d Device) error {
				p, err := d.Power()
				if errors.Is(err, wiz.ErrPowerUnsupported) {
					return fmt.Errorf("%s (%s) has no power meter: %w", args[0], d.Kind(), err)
				}
				if err != nil {
					return wizerrors.WrapErrorf(err, "failed to get power")
				}
				// Devices report milliwatts.
				watts := float64(p.Power) / 1000
				if wantParseable(parseable) {
					fmt.Println(parseableLine([]field{{"power_mw", "Power", p.Power}}))
					return nil
				}
				fmt.Printf("%.1f W\n", watts)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}
