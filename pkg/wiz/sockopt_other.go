//go:build !unix && !windows

package wiz

import "net"

// Platforms without setsockopt keep whatever the runtime configured.
func setBroadcast(_ *net.UDPConn, _ bool) error {
	return nil
}
