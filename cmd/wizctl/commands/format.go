package commands

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"slices"
	"strings"

	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"golang.org/x/term"

	"github.com/jmylchreest/wizctl/pkg/wiz"
)

// stdoutIsTerminal reports whether stdout is an interactive terminal. When it
// is not, commands default to parseable output.
var stdoutIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func wantParseable(flag bool) bool {
	return flag || !stdoutIsTerminal()
}

// field is one named value in parseable or table output.
type field struct {
	key   string
	label string
	value any
}

// parseableLine renders fields as key=value pairs, quoting strings
func parseableLine(fields []field) string {
	parts := lo.Map(fields, func(f field, _ int) string {
		if s, ok := f.value.(string); ok {
			return fmt.Sprintf("%s=%q", f.key, s)
		}
		return fmt.Sprintf("%s=%v", f.key, f.value)
	})
	return strings.Join(parts, " ")
}

// renderFields prints fields as a Property/Value table
func renderFields(fields []field) error {
	table := pterm.TableData{{"Property", "Value"}}
	for _, f := range fields {
		table = append(table, []string{f.label, fmt.Sprintf("%v", f.value)})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(table).Render()
}

func printFields(fields []field, parseable bool) error {
	if parseable {
		fmt.Println(parseableLine(fields))
		return nil
	}
	return renderFields(fields)
}

func lookupField(fields []field, key string) (field, bool) {
	return lo.Find(fields, func(f field) bool {
		return f.key == strings.ToLower(key)
	})
}

func infoFields(info wiz.DeviceInfo) []field {
	return []field{
		{"ip", "IP", info.IP},
		{"mac", "MAC", info.MAC},
		{"kind", "Kind", info.Kind},
		{"module", "Module", info.ModuleName},
		{"firmware", "Firmware", info.FirmwareVersion},
	}
}

func pilotFields(info wiz.DeviceInfo, p *wiz.PilotState) []field {
	color := "n/a"
	if c, ok := p.Color(); ok {
		color = c.String()
	}
	return append(infoFields(info),
		field{"state", "On", p.State},
		field{"brightness", "Brightness", p.Dimming},
		field{"color", "Color", color},
		field{"scene", "Scene", p.SceneID},
		field{"rssi", "RSSI", p.RSSI},
		field{"signal", "Signal", p.SignalStrength().String()},
	)
}

func sysConfigFields(c *wiz.SystemConfig) []field {
	return []field{
		{"mac", "MAC", c.MAC},
		{"module", "Module", c.ModuleName},
		{"firmware", "Firmware", c.FirmwareVersion},
		{"home", "Home ID", c.HomeID},
		{"room", "Room ID", c.RoomID},
		{"group", "Group ID", c.GroupID},
		{"region", "Region", c.Region},
		{"ping", "Ping", c.Ping},
	}
}

func modelConfigFields(c *wiz.ModelConfig) []field {
	drv := "n/a"
	if c.DrvIface != nil {
		drv = fmt.Sprintf("%d", *c.DrvIface)
	}
	return []field{
		{"ps", "PS", c.PS},
		{"pwm_freq", "PWM Frequency", c.PWMFrequency},
		{"pwm_range", "PWM Range", joinInts(c.PWMRange[:])},
		{"wcr", "WCR", c.WCR},
		{"nowc", "NoWC", c.NoWC},
		{"cct_range", "CCT Range", joinInts(c.CCTRange[:])},
		{"render_factor", "Render Factor", joinInts(c.RenderFactor[:])},
		{"drv_iface", "Driver Interface", drv},
	}
}

func joinInts[T uint8 | uint16](vals []T) string {
	return strings.Join(lo.Map(vals, func(v T, _ int) string {
		return fmt.Sprintf("%d", v)
	}), ",")
}

// sortDevices orders devices by address
func sortDevices(devices []Device) {
	slices.SortFunc(devices, func(a, b Device) int {
		return bytes.Compare(net.ParseIP(a.Info().IP).To16(), net.ParseIP(b.Info().IP).To16())
	})
}
