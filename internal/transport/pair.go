package transport

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/NodePath81/pingsweep/internal/protocol"
)

type pairMsg struct {
	kind    byte
	payload []byte
}

// pairPeer is an in-process Peer backed by a channel per direction.
// It exists for unit tests: both roles run in one process against it,
// with no sockets involved.
type pairPeer struct {
	out        chan pairMsg
	in         chan pairMsg
	barrierSeq uint32

	mu     sync.Mutex
	closed bool
}

// NewPair returns two connected in-process peers. capacity is the number
// of in-flight messages each direction can hold before Send blocks,
// loosely modeling transport buffering. The minimum of one keeps the
// two-sided barrier from deadlocking.
func NewPair(capacity int) (Peer, Peer) {
	if capacity < 1 {
		capacity = 1
	}
	ab := make(chan pairMsg, capacity)
	ba := make(chan pairMsg, capacity)
	return &pairPeer{out: ab, in: ba}, &pairPeer{out: ba, in: ab}
}

func (p *pairPeer) Send(buf []byte) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return io.ErrClosedPipe
	}
	p.mu.Unlock()
	cp := make([]byte, len(buf))
	copy(cp, buf)
	p.out <- pairMsg{kind: protocol.FrameData, payload: cp}
	return nil
}

func (p *pairPeer) Recv(buf []byte) error {
	msg, ok := <-p.in
	if !ok {
		return io.EOF
	}
	if msg.kind != protocol.FrameData {
		return ErrBadFrame
	}
	if len(msg.payload) != len(buf) {
		return ErrSizeMismatch
	}
	copy(buf, msg.payload)
	return nil
}

func (p *pairPeer) Barrier() error {
	p.barrierSeq++
	token := make([]byte, 4)
	binary.BigEndian.PutUint32(token, p.barrierSeq)
	p.out <- pairMsg{kind: protocol.FrameBarrier, payload: token}
	msg, ok := <-p.in
	if !ok {
		return io.EOF
	}
	if msg.kind != protocol.FrameBarrier || len(msg.payload) != 4 {
		return ErrBadFrame
	}
	if got := binary.BigEndian.Uint32(msg.payload); got != p.barrierSeq {
		return fmt.Errorf("%w: local %d, remote %d", ErrBarrierSync, p.barrierSeq, got)
	}
	return nil
}

func (p *pairPeer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.out)
	return nil
}
