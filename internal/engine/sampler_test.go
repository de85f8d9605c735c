package engine

import (
	"testing"
	"time"

	"github.com/NodePath81/pingsweep/internal/clock"
	"github.com/NodePath81/pingsweep/internal/transport"
)

func TestSamplerExchange(t *testing.T) {
	a, b := transport.NewPair(1)
	defer a.Close()
	defer b.Close()

	step := 25 * time.Microsecond
	pinger := NewSampler(a, clock.NewStepped(step), 64)
	ponger := NewSampler(b, clock.NewStepped(step), 64)

	done := make(chan error, 1)
	var pong Sample
	go func() {
		var err error
		pong, err = ponger.Pong(64)
		done <- err
	}()

	ping, err := pinger.Ping(64)
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("pong: %v", err)
	}

	// Each role makes exactly three clock calls, so with a stepped
	// clock every leg is one step and the round trip is two.
	if ping.Send != step || ping.Recv != step {
		t.Fatalf("pinger legs: send %v recv %v, want %v each", ping.Send, ping.Recv, step)
	}
	if ping.RTT != 2*step {
		t.Fatalf("pinger rtt %v, want %v", ping.RTT, 2*step)
	}
	if ping.RTT != ping.Send+ping.Recv {
		t.Fatalf("rtt %v must equal send+recv %v", ping.RTT, ping.Send+ping.Recv)
	}
	if pong.Send != step || pong.Recv != step {
		t.Fatalf("ponger legs: send %v recv %v, want %v each", pong.Send, pong.Recv, step)
	}
	if pong.RTT != 0 {
		t.Fatalf("ponger must not observe an rtt, got %v", pong.RTT)
	}
}

func TestSamplerRejectsOversize(t *testing.T) {
	a, b := transport.NewPair(1)
	defer a.Close()
	defer b.Close()

	s := NewSampler(a, clock.System{}, 16)
	if _, err := s.Ping(32); err == nil {
		t.Fatalf("expected error for size above sampler buffer")
	}
}

func TestSamplerPayloadMovesRealBytes(t *testing.T) {
	a, b := transport.NewPair(1)
	defer a.Close()
	defer b.Close()

	go func() {
		buf := make([]byte, 8)
		if err := b.Recv(buf); err != nil {
			return
		}
		for _, v := range buf {
			if v == 0 {
				panic("zeroed payload byte")
			}
		}
		_ = b.Send(buf)
	}()

	s := NewSampler(a, clock.System{}, 8)
	if _, err := s.Ping(8); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
