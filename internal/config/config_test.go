package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ship.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsAndFetchFlags(t *testing.T) {
	path := writeConfigFile(t, `
server_url: ws://127.0.0.1:9999
contract: eosio
start_block: 100
run_mode: "PTD"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxMessagesInFlight != 150 {
		t.Fatalf("MaxMessagesInFlight = %d, want default 150", cfg.MaxMessagesInFlight)
	}
	if !cfg.FetchBlock() || !cfg.FetchTraces() || !cfg.FetchDeltas() {
		t.Fatalf("expected all fetch flags set for run_mode PTD, got %+v", cfg)
	}
}

func TestLoadRunModeSubset(t *testing.T) {
	path := writeConfigFile(t, `
server_url: ws://127.0.0.1:9999
run_mode: "T"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FetchBlock() || !cfg.FetchTraces() || cfg.FetchDeltas() {
		t.Fatalf("expected only FetchTraces set, got %+v", cfg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
server_url: ws://127.0.0.1:9999
start_block: 1
`)
	t.Setenv("SHIP_SERVER_URL", "ws://override:9999")
	t.Setenv("SHIP_START_BLOCK", "-500")
	t.Setenv("SHIP_USE_ACK", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerURL != "ws://override:9999" {
		t.Fatalf("ServerURL = %q, want env override", cfg.ServerURL)
	}
	if cfg.StartBlock != -500 {
		t.Fatalf("StartBlock = %d, want -500", cfg.StartBlock)
	}
	if !cfg.UseACK {
		t.Fatal("expected UseACK true from env override")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
