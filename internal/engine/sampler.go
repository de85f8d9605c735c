package engine

import (
	"fmt"
	"time"

	"github.com/NodePath81/pingsweep/internal/clock"
	"github.com/NodePath81/pingsweep/internal/protocol"
	"github.com/NodePath81/pingsweep/internal/transport"
)

// Sample holds the timings of a single exchange. On the pinger all three
// fields are set; on the ponger RTT stays zero because only the pinger
// sees a full round trip.
type Sample struct {
	Send time.Duration
	Recv time.Duration
	RTT  time.Duration
}

// Sampler performs one ping-pong exchange at a given message size.
// The payload buffer is allocated once at the maximum sweep size and
// filled with a constant pattern, so every exchange moves real bytes
// without per-round allocation.
type Sampler struct {
	peer  transport.Peer
	clock clock.Clock
	buf   []byte
}

func NewSampler(peer transport.Peer, clk clock.Clock, maxSize int) *Sampler {
	buf := make([]byte, maxSize)
	for i := range buf {
		buf[i] = protocol.PayloadFill
	}
	return &Sampler{peer: peer, clock: clk, buf: buf}
}

// Ping runs the pinger ordering: send then receive the echo.
func (s *Sampler) Ping(size int) (Sample, error) {
	if size > len(s.buf) {
		return Sample{}, fmt.Errorf("size %d exceeds sampler buffer %d", size, len(s.buf))
	}
	payload := s.buf[:size]
	t0 := s.clock.Now()
	if err := s.peer.Send(payload); err != nil {
		return Sample{}, fmt.Errorf("send %d bytes: %w", size, err)
	}
	t1 := s.clock.Now()
	if err := s.peer.Recv(payload); err != nil {
		return Sample{}, fmt.Errorf("recv %d bytes: %w", size, err)
	}
	t2 := s.clock.Now()
	return Sample{
		Send: t1.Sub(t0),
		Recv: t2.Sub(t1),
		RTT:  t2.Sub(t0),
	}, nil
}

// Pong runs the ponger ordering: receive then echo back the same size.
func (s *Sampler) Pong(size int) (Sample, error) {
	if size > len(s.buf) {
		return Sample{}, fmt.Errorf("size %d exceeds sampler buffer %d", size, len(s.buf))
	}
	payload := s.buf[:size]
	t0 := s.clock.Now()
	if err := s.peer.Recv(payload); err != nil {
		return Sample{}, fmt.Errorf("recv %d bytes: %w", size, err)
	}
	t1 := s.clock.Now()
	if err := s.peer.Send(payload); err != nil {
		return Sample{}, fmt.Errorf("send %d bytes: %w", size, err)
	}
	t2 := s.clock.Now()
	return Sample{
		Recv: t1.Sub(t0),
		Send: t2.Sub(t1),
	}, nil
}
