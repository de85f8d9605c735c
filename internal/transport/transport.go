package transport

import "errors"

// Peer is one end of a point-to-point message channel. All calls block:
// Send until the transport has accepted the full buffer, Recv until a
// whole message arrived, Barrier until the other peer reached its own
// Barrier call. That blocking behavior is the thing being measured, so
// implementations must not buffer or pipeline beyond what their
// underlying transport already does.
type Peer interface {
	// Send delivers exactly len(buf) bytes to the other peer.
	Send(buf []byte) error
	// Recv fills buf with the next message. A message of any other
	// length is a protocol violation, not a partial read.
	Recv(buf []byte) error
	// Barrier blocks until both peers have entered it.
	Barrier() error
	Close() error
}

var (
	// ErrSizeMismatch reports a message whose length differs from the
	// size both peers agreed on for the current sweep step.
	ErrSizeMismatch = errors.New("message size mismatch")
	// ErrBadFrame reports a frame type that is invalid in the current
	// protocol stage.
	ErrBadFrame = errors.New("unexpected frame type")
	// ErrBarrierSync reports barrier tokens whose sequence numbers
	// disagree, meaning the peers drifted apart.
	ErrBarrierSync = errors.New("barrier out of sync")
	// ErrPeerBusy reports a ponger whose single peer slot is taken.
	ErrPeerBusy = errors.New("peer slot already taken")
)
