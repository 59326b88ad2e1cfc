package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Relay.SignalTTL != 5*time.Minute {
		t.Errorf("SignalTTL = %v, want 5m", cfg.Relay.SignalTTL)
	}
	if cfg.Relay.SweepInterval != time.Minute {
		t.Errorf("SweepInterval = %v, want 1m", cfg.Relay.SweepInterval)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SIGNAL_TTL", "90s")
	t.Setenv("SWEEP_INTERVAL", "not-a-duration")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.Relay.SignalTTL != 90*time.Second {
		t.Errorf("SignalTTL = %v, want 90s", cfg.Relay.SignalTTL)
	}
	// Unparsable durations fall back to the default.
	if cfg.Relay.SweepInterval != time.Minute {
		t.Errorf("SweepInterval = %v, want 1m", cfg.Relay.SweepInterval)
	}
}
