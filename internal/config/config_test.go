package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAndDefaults(t *testing.T) {
	path := writeConfig(t, `
role: pinger
target: 10.0.0.2
dial_timeout: 2s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Fatalf("port default %d, got %d", DefaultPort, cfg.Port)
	}
	if cfg.MinMsgSize != 1 || cfg.MaxMsgSize != 1<<20 {
		t.Fatalf("sweep defaults wrong: %d..%d", cfg.MinMsgSize, cfg.MaxMsgSize)
	}
	if cfg.Iterations != 100 || cfg.WarmupIterations != 10 {
		t.Fatalf("iteration defaults wrong: %d/%d", cfg.Iterations, cfg.WarmupIterations)
	}
	if cfg.PeerCount != RequiredPeers {
		t.Fatalf("peer count default %d, got %d", RequiredPeers, cfg.PeerCount)
	}
	if cfg.DialTimeout.Duration() != 2*time.Second {
		t.Fatalf("dial timeout %v, want 2s", cfg.DialTimeout.Duration())
	}
	if cfg.Output != "results.csv" {
		t.Fatalf("pinger output default results.csv, got %q", cfg.Output)
	}
}

func TestDurationScalarSeconds(t *testing.T) {
	path := writeConfig(t, `
role: ponger
dial_timeout: 1.5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DialTimeout.Duration() != 1500*time.Millisecond {
		t.Fatalf("numeric duration = seconds, got %v", cfg.DialTimeout.Duration())
	}
}

func TestValidatePeerCount(t *testing.T) {
	cfg := Config{Role: "pinger", Target: "peer", PeerCount: 3}
	cfg.SetDefaults()
	err := cfg.Validate()
	if !errors.Is(err, ErrPeerCount) {
		t.Fatalf("expected ErrPeerCount for 3 peers, got %v", err)
	}

	cfg.PeerCount = 1
	if err := cfg.Validate(); !errors.Is(err, ErrPeerCount) {
		t.Fatalf("expected ErrPeerCount for 1 peer, got %v", err)
	}
}

func TestValidateRole(t *testing.T) {
	cfg := Config{Role: "spectator"}
	cfg.SetDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

func TestValidatePingerNeedsTarget(t *testing.T) {
	cfg := Config{Role: "pinger"}
	cfg.SetDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for pinger without target")
	}
}

func TestValidateSweepRange(t *testing.T) {
	base := Config{Role: "ponger"}

	cfg := base
	cfg.MinMsgSize = 1
	cfg.MaxMsgSize = 3
	cfg.SetDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("max 3 is not reachable by doubling from 1")
	}

	cfg = base
	cfg.MinMsgSize = 4
	cfg.MaxMsgSize = 4
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("single-size sweep must be valid: %v", err)
	}

	cfg = base
	cfg.MinMsgSize = 16
	cfg.MaxMsgSize = 8
	cfg.SetDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("max below min must be rejected")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
