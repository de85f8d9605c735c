package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPort             = 9877
	DefaultMinMsgSize       = 1
	DefaultMaxMsgSize       = 1 << 20
	DefaultIterations       = 100
	DefaultWarmupIterations = 10
	DefaultDialTimeout      = 5 * time.Second

	// RequiredPeers is fixed: the protocol is strictly point-to-point.
	RequiredPeers = 2
)

// ErrPeerCount marks a bootstrap rejection for any world size other than
// two. Only the pinger reports it on the console; the ponger exits quietly
// so a mismatched pair does not print the same failure twice.
var ErrPeerCount = errors.New("exactly two peers are required")

type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar")
	}
	switch value.Tag {
	case "!!int", "!!float":
		var secs float64
		if err := value.Decode(&secs); err != nil {
			return err
		}
		*d = Duration(time.Duration(secs * float64(time.Second)))
		return nil
	default:
		var raw string
		if err := value.Decode(&raw); err != nil {
			return err
		}
		if raw == "" {
			*d = 0
			return nil
		}
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	}
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config carries every knob of a sweep run. The zero value of any field
// falls back to the defaults above.
type Config struct {
	Role   string `yaml:"role"`
	Target string `yaml:"target"`
	Listen string `yaml:"listen"`
	Port   int    `yaml:"port"`

	MinMsgSize       int `yaml:"min_msg_size"`
	MaxMsgSize       int `yaml:"max_msg_size"`
	Iterations       int `yaml:"iterations"`
	WarmupIterations int `yaml:"warmup_iterations"`

	// PeerCount is the declared world size. Anything but two is rejected
	// at bootstrap before any sink file is opened.
	PeerCount int `yaml:"peer_count"`

	Output    string `yaml:"output"`
	HistoryDB string `yaml:"history_db"`

	Interface    string   `yaml:"interface"`
	ICMPBaseline bool     `yaml:"icmp_baseline"`
	DialTimeout  Duration `yaml:"dial_timeout"`
}

// Load reads a YAML config file. Defaults and validation are applied by
// the caller once flag overrides are in, so a config file never has to
// spell out every knob.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) SetDefaults() {
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
		c.PeerCount = RequiredPeers
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = Duration(DefaultDialTimeout)
	}
	if c.Listen == "" {
		c.Listen = "0.0.0.0"
	}
	if c.Role == "pinger" && c.Output == "" {
		c.Output = "results.csv"
	}
}

func (c *Config) Validate() error {
	if c.Role != "pinger" && c.Role != "ponger" {
		return fmt.Errorf("role must be pinger or ponger, got %q", c.Role)
	}
	if c.PeerCount != RequiredPeers {
		return fmt.Errorf("%w, got %d", ErrPeerCount, c.PeerCount)
	}
	if c.Role == "pinger" && c.Target == "" {
		return errors.New("pinger requires a target")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.MinMsgSize < 1 {
		return fmt.Errorf("min_msg_size must be >= 1, got %d", c.MinMsgSize)
	}
	if c.MaxMsgSize < c.MinMsgSize {
		return fmt.Errorf("max_msg_size %d below min_msg_size %d", c.MaxMsgSize, c.MinMsgSize)
	}
	// The sweep doubles from min to max inclusive, so max must be
	// min times a power of two or the sequence never lands on it.
	ratio := c.MaxMsgSize / c.MinMsgSize
	if c.MinMsgSize*ratio != c.MaxMsgSize || ratio&(ratio-1) != 0 {
		return fmt.Errorf("max_msg_size %d is not min_msg_size x 2^k", c.MaxMsgSize)
	}
	if c.Iterations <= 0 {
		return fmt.Errorf("iterations must be > 0, got %d", c.Iterations)
	}
	if c.WarmupIterations < 0 {
		return fmt.Errorf("warmup_iterations must be >= 0, got %d", c.WarmupIterations)
	}
	return nil
}
