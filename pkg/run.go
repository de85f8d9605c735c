package pingsweep

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/NodePath81/pingsweep/internal/clock"
	"github.com/NodePath81/pingsweep/internal/engine"
	"github.com/NodePath81/pingsweep/internal/protocol"
	"github.com/NodePath81/pingsweep/internal/sysinfo"
	"github.com/NodePath81/pingsweep/internal/transport"
)

// Run validates the configuration, establishes the peer channel, runs
// the sweep to completion and returns the results. emit may be nil; it
// is called once per size, on the pinger only, as each row is derived.
func Run(ctx context.Context, cfg Config, emit StatsFunc) (*Results, error) {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	role, err := engine.ParseRole(cfg.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, cfg.Role)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(1000)}))
	}

	start := time.Now()
	peer, err := connect(ctx, cfg, role)
	if err != nil {
		return nil, err
	}
	defer peer.Close()
	logger.Info("peer connected", "session", peer.SessionID(), "role", cfg.Role)
	logSocketInfo(logger, peer)

	res := &Results{
		SessionID: peer.SessionID(),
		Role:      cfg.Role,
	}
	engineEmit := func(st engine.SizeStats) error {
		row := SizeStats{
			Size:          st.Size,
			AvgSendUS:     st.AvgSendUS,
			AvgRecvUS:     st.AvgRecvUS,
			AvgRTTUS:      st.AvgRTTUS,
			BandwidthMBps: st.BandwidthMBps,
		}
		res.Stats = append(res.Stats, row)
		if emit != nil {
			return emit(row)
		}
		return nil
	}

	runner := engine.NewRunner(engine.Config{
		Role:             role,
		MinMsgSize:       cfg.MinMsgSize,
		MaxMsgSize:       cfg.MaxMsgSize,
		Iterations:       cfg.Iterations,
		WarmupIterations: cfg.WarmupIterations,
	}, peer, clock.System{}, engineEmit, logger)

	est, err := runner.Run(ctx)
	if err != nil {
		return nil, err
	}
	res.Estimates = Estimates{
		LatencyUS:      est.LatencyUS,
		LatencyValid:   est.LatencyValid,
		BandwidthMBps:  est.BandwidthMBps,
		ThresholdBytes: est.ThresholdBytes,
		ThresholdFound: est.ThresholdFound,
	}
	res.Duration = time.Since(start)
	return res, nil
}

func connect(ctx context.Context, cfg Config, role engine.Role) (*transport.WSPeer, error) {
	hello := transport.Hello{
		Version:   protocol.Version,
		Role:      cfg.Role,
		PeerCount: cfg.PeerCount,
	}
	if role == engine.RolePinger {
		hello.SessionID = uuid.New().String()
		return transport.Dial(ctx, cfg.Target, cfg.Port, cfg.DialTimeout, hello)
	}
	l, err := transport.Listen(cfg.Listen, cfg.Port)
	if err != nil {
		return nil, err
	}
	defer l.Close()
	return l.Accept(ctx, hello)
}

// logSocketInfo reports the kernel's view of the peer socket. The
// SO_SNDBUF value is the first buffering stage behind the measured
// threshold, so it belongs next to the result.
func logSocketInfo(logger *slog.Logger, peer *transport.WSPeer) {
	sc, ok := peer.UnderlyingConn().(syscall.Conn)
	if !ok {
		return
	}
	if send, recv, err := sysinfo.SocketBuffers(sc); err == nil {
		logger.Info("socket buffers", "sndbuf_bytes", send, "rcvbuf_bytes", recv)
	}
	if rtt, err := sysinfo.KernelRTT(sc); err == nil {
		logger.Info("kernel tcp rtt", "rtt_us", rtt.Microseconds())
	}
}
