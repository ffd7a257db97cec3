//go:build windows

package wiz

import (
	"net"

	"golang.org/x/sys/windows"
)

func setBroadcast(conn *net.UDPConn, enabled bool) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	if err := raw.Control(func(fd uintptr) {
		sockErr = windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_BROADCAST, boolToInt(enabled))
	}); err != nil {
		return err
	}
	return sockErr
}
