//go:build !linux

package sysinfo

import "errors"

type Link struct {
	Name    string
	MTU     int
	TxQLen  int
	Running bool
}

func LinkReport(name string) (Link, error) {
	return Link{}, errors.New("link introspection not supported on this platform")
}
