//go:build linux || darwin || freebsd || netbsd || openbsd

package transport

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// reuseAddr lets several processes bind the same multicast group and port.
func reuseAddr(network, address string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			sockErr = fmt.Errorf("failed to set SO_REUSEADDR: %w", err)
			return
		}
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
			sockErr = fmt.Errorf("failed to set SO_REUSEPORT: %w", err)
		}
	})
	if err != nil {
		return err
	}
	return sockErr
}
