//go:build linux

package sysinfo

import (
	"fmt"

	"github.com/vishvananda/netlink"
)

// Link describes the egress interface carrying the sweep traffic. The
// MTU in particular marks a size boundary that often shows up as a bend
// in the bandwidth curve.
type Link struct {
	Name    string
	MTU     int
	TxQLen  int
	Running bool
}

// LinkReport looks up an interface by name via netlink.
func LinkReport(name string) (Link, error) {
	dev, err := netlink.LinkByName(name)
	if err != nil {
		return Link{}, fmt.Errorf("link %s: %w", name, err)
	}
	attrs := dev.Attrs()
	return Link{
		Name:    attrs.Name,
		MTU:     attrs.MTU,
		TxQLen:  attrs.TxQLen,
		Running: attrs.OperState == netlink.OperUp,
	}, nil
}
