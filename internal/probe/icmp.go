// Package probe measures a kernel-level ICMP baseline RTT to the peer
// host before the sweep starts. The baseline gives the operator a
// reference point: an application-level latency estimate far above the
// ICMP RTT points at the transport stack, not the wire.
package probe

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

const (
	defaultSamples = 5
	probeTimeout   = time.Second
	probePayload   = "pingsweep"
)

// BaselineRTT sends a handful of ICMP echoes to host and returns the
// minimum RTT observed. Requires raw-socket privilege; callers should
// treat an error as a degraded run, not a fatal one.
func BaselineRTT(ctx context.Context, host string, samples int) (time.Duration, error) {
	if samples <= 0 {
		samples = defaultSamples
	}
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
	if err != nil {
		return 0, fmt.Errorf("resolve %s: %w", host, err)
	}
	if len(ips) == 0 {
		return 0, fmt.Errorf("resolve %s: no addresses", host)
	}
	ip := ips[0]

	network := "ip4:icmp"
	proto := 1
	echoType := icmp.Type(ipv4.ICMPTypeEcho)
	replyType := icmp.Type(ipv4.ICMPTypeEchoReply)
	if ip.To4() == nil {
		network = "ip6:ipv6-icmp"
		proto = 58
		echoType = icmp.Type(ipv6.ICMPTypeEchoRequest)
		replyType = icmp.Type(ipv6.ICMPTypeEchoReply)
	}

	conn, err := icmp.ListenPacket(network, "")
	if err != nil {
		return 0, fmt.Errorf("icmp socket: %w", err)
	}
	defer conn.Close()

	id := rand.Intn(0xffff)
	var best time.Duration
	got := 0
	for seq := 1; seq <= samples; seq++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		rtt, ok := sendEcho(conn, ip, id, seq, echoType, replyType, proto)
		if !ok {
			continue
		}
		if got == 0 || rtt < best {
			best = rtt
		}
		got++
	}
	if got == 0 {
		return 0, fmt.Errorf("no icmp replies from %s", ip)
	}
	return best, nil
}

func sendEcho(conn *icmp.PacketConn, ip net.IP, id, seq int, echoType, replyType icmp.Type, proto int) (time.Duration, bool) {
	msg := icmp.Message{
		Type: echoType,
		Code: 0,
		Body: &icmp.Echo{
			ID:   id,
			Seq:  seq,
			Data: []byte(probePayload),
		},
	}
	payload, err := msg.Marshal(nil)
	if err != nil {
		return 0, false
	}
	dst := &net.IPAddr{IP: ip}
	start := time.Now()
	if _, err := conn.WriteTo(payload, dst); err != nil {
		return 0, false
	}
	if err := conn.SetReadDeadline(time.Now().Add(probeTimeout)); err != nil {
		return 0, false
	}
	buf := make([]byte, 1500)
	for {
		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			return 0, false
		}
		ipAddr, ok := peer.(*net.IPAddr)
		if ok && ipAddr.IP != nil && !ipAddr.IP.Equal(ip) {
			continue
		}
		parsed, err := icmp.ParseMessage(proto, buf[:n])
		if err != nil {
			continue
		}
		if parsed.Type != replyType {
			continue
		}
		echo, ok := parsed.Body.(*icmp.Echo)
		if !ok {
			continue
		}
		if echo.ID == id && echo.Seq == seq {
			return time.Since(start), true
		}
	}
}
