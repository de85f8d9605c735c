//go:build !linux

package sysinfo

import (
	"errors"
	"syscall"
	"time"
)

var errUnsupported = errors.New("socket introspection not supported on this platform")

func SocketBuffers(conn syscall.Conn) (send, recv int, err error) {
	return 0, 0, errUnsupported
}

func KernelRTT(conn syscall.Conn) (time.Duration, error) {
	return 0, errUnsupported
}
