package wiz

import (
	"fmt"
	"net"
	"strings"
)

// boolToInt converts a bool to int (true=1, false=0)
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ParseMAC parses a MAC address as reported by a device. Devices send the
// bare 12 hex digit form ("a8bb50aabbcc"); colon, hyphen and dot forms are
// accepted as well.
func ParseMAC(s string) (net.HardwareAddr, error) {
	s = strings.TrimSpace(s)
	if len(s) == 12 && !strings.ContainsAny(s, ":-.") {
		var b strings.Builder
		for i := 0; i < len(s); i += 2 {
			if i > 0 {
				b.WriteByte(':')
			}
			b.WriteString(s[i : i+2])
		}
		s = b.String()
	}
	mac, err := net.ParseMAC(s)
	if err != nil {
		return nil, fmt.Errorf("wiz: invalid MAC address %q: %w", s, err)
	}
	if len(mac) != 6 {
		return nil, fmt.Errorf("wiz: invalid MAC address %q: expected 6 bytes, got %d", s, len(mac))
	}
	return mac, nil
}

func ptr[T any](v T) *T {
	return &v
}
