package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "hub.yaml", `
server:
  addr: ":9000"
registry:
  center_lat: 40.7128
  center_lon: -74.0060
  spawn_radius_km: 3
dispatch:
  poll_interval_ms: 250
metrics:
  prometheus_enabled: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Fatalf("server addr = %q", cfg.Server.Addr)
	}
	if cfg.Registry.CenterLat != 40.7128 || cfg.Registry.SpawnRadiusKm != 3 {
		t.Fatalf("registry = %+v", cfg.Registry)
	}
	if cfg.Dispatch.PollIntervalMS != 250 {
		t.Fatalf("poll interval = %d", cfg.Dispatch.PollIntervalMS)
	}
	if !cfg.Metrics.PrometheusEnabled {
		t.Fatal("prometheus not enabled")
	}
	// Untouched sections get their defaults.
	if cfg.Dispatch.PacingDelayMS != 200 {
		t.Fatalf("pacing = %d, want default 200", cfg.Dispatch.PacingDelayMS)
	}
	if cfg.Ledger.SecondsPerKm != 8 {
		t.Fatalf("seconds per km = %v, want default 8", cfg.Ledger.SecondsPerKm)
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "hub.json", `{"leaderboard": {"top_n": 10}}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Leaderboard.TopN != 10 {
		t.Fatalf("top_n = %d", cfg.Leaderboard.TopN)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("HUB_SERVER__ADDR", ":4242")
	path := writeFile(t, "hub.yaml", `server: {addr: ":9000"}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":4242" {
		t.Fatalf("server addr = %q, want env override", cfg.Server.Addr)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	path := writeFile(t, "hub.toml", `x = 1`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected format error")
	}
}

func TestValidationFailure(t *testing.T) {
	path := writeFile(t, "hub.yaml", `ledger: {min_eta_seconds: 90, max_eta_seconds: 20}`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":7777" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
}
