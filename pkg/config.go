package pingsweep

import (
	"log/slog"
	"time"

	"github.com/NodePath81/pingsweep/internal/config"
)

const (
	// DefaultPort is the ponger's listen port.
	DefaultPort = config.DefaultPort
	// DefaultMinMsgSize is the first message size of the sweep.
	DefaultMinMsgSize = config.DefaultMinMsgSize
	// DefaultMaxMsgSize is the last message size of the sweep (1 MiB).
	DefaultMaxMsgSize = config.DefaultMaxMsgSize
	// DefaultIterations is the number of timed rounds per size.
	DefaultIterations = config.DefaultIterations
	// DefaultWarmupIterations is the number of untimed settling rounds
	// per size.
	DefaultWarmupIterations = config.DefaultWarmupIterations
)

// Config defines parameters for one sweep run. Both peers must run with
// identical sweep parameters; they are not negotiated.
type Config struct {
	// Role is "pinger" or "ponger".
	Role string
	// Target is the ponger host to dial (pinger only).
	Target string
	// Listen is the address to bind (ponger only, default all).
	Listen string
	// Port is the ponger's websocket port.
	Port int
	// MinMsgSize is the first size of the geometric sweep, bytes.
	MinMsgSize int
	// MaxMsgSize is the last size; must be MinMsgSize times a power
	// of two.
	MaxMsgSize int
	// Iterations is the number of timed rounds averaged per size.
	Iterations int
	// WarmupIterations is the number of untimed rounds preceding them.
	WarmupIterations int
	// PeerCount declares the world size; anything but 2 is rejected.
	PeerCount int
	// DialTimeout bounds connection establishment, not the run.
	DialTimeout time.Duration
	// Logger receives structured progress events. Nil discards them.
	Logger *slog.Logger
}

func (c *Config) setDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.MinMsgSize == 0 {
		c.MinMsgSize = DefaultMinMsgSize
	}
	if c.MaxMsgSize == 0 {
		c.MaxMsgSize = DefaultMaxMsgSize
	}
	if c.Iterations == 0 {
		c.Iterations = DefaultIterations
	}
	if c.WarmupIterations == 0 {
		c.WarmupIterations = DefaultWarmupIterations
	}
	if c.PeerCount == 0 {
		c.PeerCount = config.RequiredPeers
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = config.DefaultDialTimeout
	}
	if c.Listen == "" {
		c.Listen = "0.0.0.0"
	}
}

func (c *Config) validate() error {
	internal := config.Config{
		Role:             c.Role,
		Target:           c.Target,
		Listen:           c.Listen,
		Port:             c.Port,
		MinMsgSize:       c.MinMsgSize,
		MaxMsgSize:       c.MaxMsgSize,
		Iterations:       c.Iterations,
		WarmupIterations: c.WarmupIterations,
		PeerCount:        c.PeerCount,
	}
	return internal.Validate()
}
