package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/NodePath81/pingsweep/internal/clock"
	"github.com/NodePath81/pingsweep/internal/transport"
)

// Runner drives the full sweep for one peer. The pinger and ponger run
// two disjoint loops sharing only the sampler and the barrier; there is
// no role branching inside the measurement path.
type Runner struct {
	cfg     Config
	peer    transport.Peer
	sampler *Sampler
	est     *Estimator
	emit    StatsFunc
	logger  *slog.Logger
}

// NewRunner wires a runner. emit may be nil; it is only called on the
// pinger, which is the one side with an RTT view. logger may be nil.
func NewRunner(cfg Config, peer transport.Peer, clk clock.Clock, emit StatsFunc, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(1000)}))
	}
	return &Runner{
		cfg:     cfg,
		peer:    peer,
		sampler: NewSampler(peer, clk, cfg.MaxMsgSize),
		est:     NewEstimator(),
		emit:    emit,
		logger:  logger,
	}
}

// Run executes the sweep and returns the final estimates. The ponger
// returns zero estimates: it performs the same protocol steps but does
// not compute statistics.
func (r *Runner) Run(ctx context.Context) (Estimates, error) {
	switch r.cfg.Role {
	case RolePonger:
		return Estimates{}, r.runPonger(ctx)
	default:
		return r.runPinger(ctx)
	}
}

// Per size, both loops go through the same stages: warmup, barrier,
// timed rounds, barrier. The first barrier keeps warmup traffic of one
// peer from leaking into the other's timed window; the second isolates
// consecutive sizes from each other.
func (r *Runner) runPinger(ctx context.Context) (Estimates, error) {
	for _, size := range Sizes(r.cfg.MinMsgSize, r.cfg.MaxMsgSize) {
		if err := ctx.Err(); err != nil {
			return Estimates{}, err
		}
		for i := 0; i < r.cfg.WarmupIterations; i++ {
			if _, err := r.sampler.Ping(size); err != nil {
				return Estimates{}, fmt.Errorf("warmup at %d bytes: %w", size, err)
			}
		}
		if err := r.peer.Barrier(); err != nil {
			return Estimates{}, fmt.Errorf("barrier before %d bytes: %w", size, err)
		}

		var set SampleSet
		for i := 0; i < r.cfg.Iterations; i++ {
			sm, err := r.sampler.Ping(size)
			if err != nil {
				return Estimates{}, fmt.Errorf("round %d at %d bytes: %w", i+1, size, err)
			}
			set.Add(sm)
		}
		st := set.Stats(size)
		r.est.Observe(st)
		if r.emit != nil {
			if err := r.emit(st); err != nil {
				return Estimates{}, fmt.Errorf("emit stats for %d bytes: %w", size, err)
			}
		}
		r.logger.Debug("size complete",
			"size", size,
			"avg_rtt_us", st.AvgRTTUS,
			"bandwidth_mbps", st.BandwidthMBps)

		if err := r.peer.Barrier(); err != nil {
			return Estimates{}, fmt.Errorf("barrier after %d bytes: %w", size, err)
		}
	}
	return r.est.Estimates(), nil
}

func (r *Runner) runPonger(ctx context.Context) error {
	for _, size := range Sizes(r.cfg.MinMsgSize, r.cfg.MaxMsgSize) {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := 0; i < r.cfg.WarmupIterations; i++ {
			if _, err := r.sampler.Pong(size); err != nil {
				return fmt.Errorf("warmup at %d bytes: %w", size, err)
			}
		}
		if err := r.peer.Barrier(); err != nil {
			return fmt.Errorf("barrier before %d bytes: %w", size, err)
		}
		for i := 0; i < r.cfg.Iterations; i++ {
			if _, err := r.sampler.Pong(size); err != nil {
				return fmt.Errorf("round %d at %d bytes: %w", i+1, size, err)
			}
		}
		if err := r.peer.Barrier(); err != nil {
			return fmt.Errorf("barrier after %d bytes: %w", size, err)
		}
	}
	return nil
}
