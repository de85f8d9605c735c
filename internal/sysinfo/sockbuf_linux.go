//go:build linux

package sysinfo

import (
	"fmt"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// SocketBuffers reads the kernel send/receive buffer sizes of the peer
// connection. The measured buffer threshold reflects buffering along the
// whole path; the local SO_SNDBUF is the first stage of it and worth
// logging next to the result.
func SocketBuffers(conn syscall.Conn) (send, recv int, err error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return 0, 0, fmt.Errorf("syscall conn: %w", err)
	}
	var sockErr error
	if err := raw.Control(func(fd uintptr) {
		send, sockErr = unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF)
		if sockErr != nil {
			return
		}
		recv, sockErr = unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF)
	}); err != nil {
		return 0, 0, fmt.Errorf("control syscall: %w", err)
	}
	if sockErr != nil {
		return 0, 0, fmt.Errorf("getsockopt: %w", sockErr)
	}
	return send, recv, nil
}

// KernelRTT reads the TCP stack's smoothed RTT for the peer connection,
// a useful cross-check against the application-level measurement.
func KernelRTT(conn syscall.Conn) (time.Duration, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return 0, fmt.Errorf("syscall conn: %w", err)
	}
	var info *unix.TCPInfo
	var sockErr error
	if err := raw.Control(func(fd uintptr) {
		info, sockErr = unix.GetsockoptTCPInfo(int(fd), unix.IPPROTO_TCP, unix.TCP_INFO)
	}); err != nil {
		return 0, fmt.Errorf("control syscall: %w", err)
	}
	if sockErr != nil {
		return 0, fmt.Errorf("getsockopt TCP_INFO: %w", sockErr)
	}
	if info == nil {
		return 0, fmt.Errorf("getsockopt TCP_INFO: nil info")
	}
	return time.Duration(info.Rtt) * time.Microsecond, nil
}
