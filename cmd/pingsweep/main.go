package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/NodePath81/pingsweep/internal/config"
	"github.com/NodePath81/pingsweep/internal/engine"
	"github.com/NodePath81/pingsweep/internal/probe"
	"github.com/NodePath81/pingsweep/internal/sink"
	"github.com/NodePath81/pingsweep/internal/sysinfo"
	"github.com/NodePath81/pingsweep/internal/util"
	"github.com/NodePath81/pingsweep/pkg"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	role := flag.String("role", "", "Role: pinger or ponger")
	target := flag.String("target", "", "Ponger host to dial (pinger)")
	listen := flag.String("listen", "", "Listen address (ponger)")
	port := flag.Int("port", 0, "Port")
	minSize := flag.Int("min-size", 0, "Smallest message size in bytes")
	maxSize := flag.Int("max-size", 0, "Largest message size in bytes")
	iterations := flag.Int("iterations", 0, "Timed rounds per size")
	warmup := flag.Int("warmup", 0, "Warmup rounds per size")
	peers := flag.Int("peers", 0, "Declared peer count (must be 2)")
	output := flag.String("o", "", "CSV output file (pinger)")
	historyDB := flag.String("history", "", "SQLite run history database (pinger)")
	iface := flag.String("interface", "", "Egress interface to report (linux)")
	baseline := flag.Bool("icmp-baseline", false, "Measure ICMP baseline RTT before the sweep (pinger)")
	flag.Parse()

	logger := util.NewLogger()

	var cfg config.Config
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Error("load config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *role != "" {
		cfg.Role = *role
	}
	if *target != "" {
		cfg.Target = *target
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *minSize != 0 {
		cfg.MinMsgSize = *minSize
	}
	if *maxSize != 0 {
		cfg.MaxMsgSize = *maxSize
	}
	if *iterations != 0 {
		cfg.Iterations = *iterations
	}
	if *warmup != 0 {
		cfg.WarmupIterations = *warmup
	}
	if *peers != 0 {
		cfg.PeerCount = *peers
	}
	if *output != "" {
		cfg.Output = *output
	}
	if *historyDB != "" {
		cfg.HistoryDB = *historyDB
	}
	if *iface != "" {
		cfg.Interface = *iface
	}
	if *baseline {
		cfg.ICMPBaseline = true
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		// The pinger is the designated reporter for bootstrap errors;
		// a mismatched ponger exits quietly so the pair prints the
		// failure once.
		if cfg.Role != "ponger" || !errors.Is(err, config.ErrPeerCount) {
			logger.Error("invalid configuration", "error", err)
		}
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		if cfg.Role != "ponger" || !errors.Is(err, config.ErrPeerCount) {
			logger.Error("run failed", "error", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger util.Logger) error {
	if cfg.Interface != "" {
		if link, err := sysinfo.LinkReport(cfg.Interface); err != nil {
			logger.Warn("link report unavailable", "interface", cfg.Interface, "error", err)
		} else {
			logger.Info("egress link", "interface", link.Name, "mtu", link.MTU, "txqlen", link.TxQLen, "running", link.Running)
		}
	}

	runCfg := pingsweep.Config{
		Role:             cfg.Role,
		Target:           cfg.Target,
		Listen:           cfg.Listen,
		Port:             cfg.Port,
		MinMsgSize:       cfg.MinMsgSize,
		MaxMsgSize:       cfg.MaxMsgSize,
		Iterations:       cfg.Iterations,
		WarmupIterations: cfg.WarmupIterations,
		PeerCount:        cfg.PeerCount,
		DialTimeout:      cfg.DialTimeout.Duration(),
		Logger:           logger,
	}

	if cfg.Role == "ponger" {
		logger.Info("waiting for pinger", "listen", cfg.Listen, "port", cfg.Port)
		_, err := pingsweep.Run(ctx, runCfg, nil)
		if err != nil {
			return err
		}
		logger.Info("sweep answered")
		return nil
	}

	return runPinger(ctx, cfg, runCfg, logger)
}

func runPinger(ctx context.Context, cfg config.Config, runCfg pingsweep.Config, logger util.Logger) error {
	steps := len(engine.Sizes(cfg.MinMsgSize, cfg.MaxMsgSize))
	fmt.Printf("=== Ping-Pong Sweep (pinger) ===\n")
	fmt.Printf("Target:     %s:%d\n", cfg.Target, cfg.Port)
	fmt.Printf("Sizes:      %s .. %s (%d steps)\n",
		util.FormatBytes(float64(cfg.MinMsgSize)), util.FormatBytes(float64(cfg.MaxMsgSize)), steps)
	fmt.Printf("Iterations: %d timed, %d warmup\n\n", cfg.Iterations, cfg.WarmupIterations)

	if cfg.ICMPBaseline {
		if rtt, err := probe.BaselineRTT(ctx, cfg.Target, 0); err != nil {
			logger.Warn("icmp baseline unavailable", "error", err)
		} else {
			logger.Info("icmp baseline", "rtt_us", rtt.Microseconds())
		}
	}

	csv, err := sink.NewCSVFile(cfg.Output)
	if err != nil {
		return err
	}
	defer csv.Close()

	var history *sink.History
	if cfg.HistoryDB != "" {
		history, err = sink.OpenHistory(cfg.HistoryDB, uuid.New().String(), cfg.Target,
			time.Now(), cfg.MinMsgSize, cfg.MaxMsgSize, cfg.Iterations)
		if err != nil {
			return err
		}
		defer history.Close()
	}

	console := sink.NewConsole(os.Stdout)
	emit := func(st pingsweep.SizeStats) error {
		if err := console.WriteStats(st); err != nil {
			return err
		}
		if err := csv.WriteStats(st); err != nil {
			return err
		}
		if history != nil {
			if err := history.WriteStats(st); err != nil {
				return err
			}
		}
		return nil
	}

	res, err := pingsweep.Run(ctx, runCfg, emit)
	if err != nil {
		return err
	}

	if err := console.WriteSummary(res.Estimates); err != nil {
		return err
	}
	if err := csv.WriteSummary(res.Estimates); err != nil {
		return err
	}
	if history != nil {
		if err := history.WriteSummary(res.Estimates); err != nil {
			return err
		}
	}
	logger.Info("sweep complete",
		"session", res.SessionID,
		"duration", res.Duration.Round(time.Millisecond),
		"output", cfg.Output)
	return nil
}
