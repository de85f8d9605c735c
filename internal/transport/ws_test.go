package transport

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/NodePath81/pingsweep/internal/protocol"
)

func wsPair(t *testing.T, pingerHello, pongerHello Hello) (*WSPeer, *WSPeer, error) {
	t.Helper()
	l, err := Listen("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	port := l.Addr().(*net.TCPAddr).Port

	type acceptResult struct {
		peer *WSPeer
		err  error
	}
	acceptCh := make(chan acceptResult, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		peer, err := l.Accept(ctx, pongerHello)
		acceptCh <- acceptResult{peer, err}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pinger, dialErr := Dial(ctx, "127.0.0.1", port, 5*time.Second, pingerHello)
	accepted := <-acceptCh
	if dialErr != nil || accepted.err != nil {
		if pinger != nil {
			_ = pinger.Close()
		}
		if accepted.peer != nil {
			_ = accepted.peer.Close()
		}
		if dialErr != nil {
			return nil, nil, dialErr
		}
		return nil, nil, accepted.err
	}
	return pinger, accepted.peer, nil
}

func defaultHellos() (Hello, Hello) {
	pinger := Hello{
		Version:   protocol.Version,
		SessionID: "11111111-2222-3333-4444-555555555555",
		Role:      "pinger",
		PeerCount: 2,
	}
	ponger := Hello{
		Version:   protocol.Version,
		Role:      "ponger",
		PeerCount: 2,
	}
	return pinger, ponger
}

func TestWSHandshakeAndExchange(t *testing.T) {
	pingerHello, pongerHello := defaultHellos()
	a, b, err := wsPair(t, pingerHello, pongerHello)
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	defer a.Close()
	defer b.Close()

	if a.SessionID() != pingerHello.SessionID || b.SessionID() != pingerHello.SessionID {
		t.Fatalf("session not adopted: %q vs %q", a.SessionID(), b.SessionID())
	}

	payload := bytes.Repeat([]byte{protocol.PayloadFill}, 4096)
	recvErr := make(chan error, 1)
	echo := make([]byte, len(payload))
	go func() {
		if err := b.Recv(echo); err != nil {
			recvErr <- err
			return
		}
		recvErr <- b.Send(echo)
	}()

	if err := a.Send(payload); err != nil {
		t.Fatalf("send: %v", err)
	}
	back := make([]byte, len(payload))
	if err := a.Recv(back); err != nil {
		t.Fatalf("recv: %v", err)
	}
	if err := <-recvErr; err != nil {
		t.Fatalf("peer: %v", err)
	}
	if !bytes.Equal(back, payload) {
		t.Fatalf("echoed payload differs")
	}
}

func TestWSBarrier(t *testing.T) {
	pingerHello, pongerHello := defaultHellos()
	a, b, err := wsPair(t, pingerHello, pongerHello)
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	defer a.Close()
	defer b.Close()

	for i := 0; i < 3; i++ {
		done := make(chan error, 1)
		go func() {
			done <- b.Barrier()
		}()
		if err := a.Barrier(); err != nil {
			t.Fatalf("barrier %d: %v", i, err)
		}
		if err := <-done; err != nil {
			t.Fatalf("peer barrier %d: %v", i, err)
		}
	}
}

func TestWSSizeMismatch(t *testing.T) {
	pingerHello, pongerHello := defaultHellos()
	a, b, err := wsPair(t, pingerHello, pongerHello)
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	defer a.Close()
	defer b.Close()

	if err := a.Send(make([]byte, 8)); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := b.Recv(make([]byte, 16)); !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("expected ErrSizeMismatch on short message, got %v", err)
	}

	if err := a.Send(make([]byte, 8)); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := b.Recv(make([]byte, 4)); !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("expected ErrSizeMismatch on long message, got %v", err)
	}
}

func TestWSPeerCountMismatch(t *testing.T) {
	pingerHello, pongerHello := defaultHellos()
	pingerHello.PeerCount = 3
	if _, _, err := wsPair(t, pingerHello, pongerHello); err == nil {
		t.Fatalf("expected handshake rejection for peer count 3")
	}
}

func TestWSRoleMismatch(t *testing.T) {
	pingerHello, pongerHello := defaultHellos()
	pingerHello.Role = "ponger"
	if _, _, err := wsPair(t, pingerHello, pongerHello); err == nil {
		t.Fatalf("expected handshake rejection for duplicate role")
	}
}

func TestWSSecondPeerRefused(t *testing.T) {
	l, err := Listen("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	port := l.Addr().(*net.TCPAddr).Port

	pingerHello, pongerHello := defaultHellos()
	acceptErr := make(chan error, 1)
	acceptPeer := make(chan *WSPeer, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		peer, err := l.Accept(ctx, pongerHello)
		acceptErr <- err
		if err == nil {
			acceptPeer <- peer
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	first, err := Dial(ctx, "127.0.0.1", port, 5*time.Second, pingerHello)
	if err != nil {
		t.Fatalf("first dial: %v", err)
	}
	defer first.Close()
	if err := <-acceptErr; err != nil {
		t.Fatalf("accept: %v", err)
	}
	peer := <-acceptPeer
	defer peer.Close()

	// The peer slot is taken now; another pinger must be turned away.
	if _, err := Dial(ctx, "127.0.0.1", port, 5*time.Second, pingerHello); err == nil {
		t.Fatalf("expected second dial to be refused")
	}
}
