//go:build unix

package wiz

import (
	"net"

	"golang.org/x/sys/unix"
)

func setBroadcast(conn *net.UDPConn, enabled bool) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	if err := raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, boolToInt(enabled))
	}); err != nil {
		return err
	}
	return sockErr
}
