package transport

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/NodePath81/pingsweep/internal/protocol"
)

const (
	wsPath         = "/sweep"
	wsSubprotocol  = "pingsweep"
	helloTimeout   = 10 * time.Second
	wsReadBufSize  = 64 * 1024
	wsWriteBufSize = 64 * 1024
)

// Hello is the bootstrap handshake exchanged before the sweep starts.
// The pinger proposes the session; the ponger echoes the session ID and
// declares its own view of the world size.
type Hello struct {
	Version   string `json:"version"`
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	PeerCount int    `json:"peer_count"`
}

// WSPeer is the production Peer: binary websocket messages over a single
// TCP connection, one frame per message.
type WSPeer struct {
	conn       *websocket.Conn
	sessionID  string
	barrierSeq uint32
	barrierBuf [protocol.BarrierFrameSize]byte
}

// Dial connects to a listening ponger and runs the pinger side of the
// handshake. The pinger is the leader: it validates that both ends agree
// on a two-peer world and on complementary roles.
func Dial(ctx context.Context, target string, port int, timeout time.Duration, hello Hello) (*WSPeer, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: timeout,
		Subprotocols:     []string{wsSubprotocol},
		ReadBufferSize:   wsReadBufSize,
		WriteBufferSize:  wsWriteBufSize,
	}
	url := fmt.Sprintf("ws://%s%s", net.JoinHostPort(target, strconv.Itoa(port)), wsPath)
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	if err := writeHello(conn, hello); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send hello: %w", err)
	}
	remote, err := readHello(conn)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read hello: %w", err)
	}
	if err := checkHello(hello, remote, "ponger"); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &WSPeer{conn: conn, sessionID: hello.SessionID}, nil
}

// Listener accepts exactly one peer connection for the ponger role.
type Listener struct {
	ln       net.Listener
	srv      *http.Server
	connCh   chan *websocket.Conn
	accepted atomic.Bool
}

// Listen binds the ponger's websocket endpoint. Accept must be called to
// complete the handshake with the first (and only) peer; any further
// connection attempt is refused with a close frame.
func Listen(addr string, port int) (*Listener, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort(addr, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	l := &Listener{
		ln:     ln,
		connCh: make(chan *websocket.Conn, 1),
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  wsReadBufSize,
		WriteBufferSize: wsWriteBufSize,
		Subprotocols:    []string{wsSubprotocol},
	}
	mux := http.NewServeMux()
	mux.HandleFunc(wsPath, func(w http.ResponseWriter, r *http.Request) {
		if l.accepted.Load() {
			http.Error(w, ErrPeerBusy.Error(), http.StatusConflict)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		select {
		case l.connCh <- conn:
		default:
			msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, ErrPeerBusy.Error())
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			_ = conn.Close()
		}
	})
	l.srv = &http.Server{Handler: mux}
	go func() {
		if err := l.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
			// Listener failures surface to the peer as a broken
			// connection; nothing useful to do here.
			_ = err
		}
	}()
	return l, nil
}

// Addr returns the bound address, useful when listening on port 0.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Accept waits for the peer, runs the ponger side of the handshake and
// returns the established peer channel.
func (l *Listener) Accept(ctx context.Context, hello Hello) (*WSPeer, error) {
	var conn *websocket.Conn
	select {
	case conn = <-l.connCh:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	remote, err := readHello(conn)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read hello: %w", err)
	}
	// Adopt the session proposed by the pinger.
	hello.SessionID = remote.SessionID
	if err := writeHello(conn, hello); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send hello: %w", err)
	}
	if err := checkHello(hello, remote, "pinger"); err != nil {
		_ = conn.Close()
		return nil, err
	}
	l.accepted.Store(true)
	return &WSPeer{conn: conn, sessionID: remote.SessionID}, nil
}

func (l *Listener) Close() error {
	return l.ln.Close()
}

func checkHello(local, remote Hello, wantRole string) error {
	if remote.Version != local.Version {
		return fmt.Errorf("protocol version mismatch: local %s, remote %s", local.Version, remote.Version)
	}
	if remote.Role != wantRole {
		return fmt.Errorf("remote role %q, want %q", remote.Role, wantRole)
	}
	if remote.PeerCount != local.PeerCount {
		return fmt.Errorf("peer count mismatch: local %d, remote %d", local.PeerCount, remote.PeerCount)
	}
	return nil
}

func writeHello(conn *websocket.Conn, h Hello) error {
	payload, err := json.Marshal(h)
	if err != nil {
		return err
	}
	frame := make([]byte, 1+len(payload))
	frame[0] = protocol.FrameHello
	copy(frame[1:], payload)
	_ = conn.SetWriteDeadline(time.Now().Add(helloTimeout))
	defer conn.SetWriteDeadline(time.Time{})
	return conn.WriteMessage(websocket.BinaryMessage, frame)
}

func readHello(conn *websocket.Conn) (Hello, error) {
	_ = conn.SetReadDeadline(time.Now().Add(helloTimeout))
	defer conn.SetReadDeadline(time.Time{})
	_, data, err := conn.ReadMessage()
	if err != nil {
		return Hello{}, err
	}
	if len(data) < protocol.FrameHeaderSize || data[0] != protocol.FrameHello {
		return Hello{}, ErrBadFrame
	}
	var h Hello
	if err := json.Unmarshal(data[protocol.FrameHeaderSize:], &h); err != nil {
		return Hello{}, err
	}
	return h, nil
}

// SessionID returns the UUID agreed during the handshake.
func (p *WSPeer) SessionID() string { return p.sessionID }

// UnderlyingConn exposes the TCP connection for socket introspection.
func (p *WSPeer) UnderlyingConn() net.Conn { return p.conn.UnderlyingConn() }

func (p *WSPeer) Send(buf []byte) error {
	w, err := p.conn.NextWriter(websocket.BinaryMessage)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte{protocol.FrameData}); err != nil {
		_ = w.Close()
		return err
	}
	if _, err := w.Write(buf); err != nil {
		_ = w.Close()
		return err
	}
	// Close flushes the frame; the write only completes once the
	// transport has taken the whole payload.
	return w.Close()
}

func (p *WSPeer) Recv(buf []byte) error {
	mt, r, err := p.conn.NextReader()
	if err != nil {
		return err
	}
	if mt != websocket.BinaryMessage {
		return ErrBadFrame
	}
	var header [protocol.FrameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return fmt.Errorf("read frame header: %w", err)
	}
	if header[0] != protocol.FrameData {
		return ErrBadFrame
	}
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrSizeMismatch
		}
		return err
	}
	var extra [1]byte
	if n, _ := r.Read(extra[:]); n > 0 {
		return ErrSizeMismatch
	}
	return nil
}

func (p *WSPeer) Barrier() error {
	p.barrierSeq++
	frame := p.barrierBuf[:]
	frame[0] = protocol.FrameBarrier
	binary.BigEndian.PutUint32(frame[protocol.FrameHeaderSize:], p.barrierSeq)
	if err := p.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return err
	}
	_, data, err := p.conn.ReadMessage()
	if err != nil {
		return err
	}
	if len(data) != protocol.BarrierFrameSize || data[0] != protocol.FrameBarrier {
		return ErrBadFrame
	}
	if got := binary.BigEndian.Uint32(data[protocol.FrameHeaderSize:]); got != p.barrierSeq {
		return fmt.Errorf("%w: local %d, remote %d", ErrBarrierSync, p.barrierSeq, got)
	}
	return nil
}

func (p *WSPeer) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = p.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return p.conn.Close()
}
