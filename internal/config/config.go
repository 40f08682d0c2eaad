// Package config loads driver configuration from a YAML file, with
// environment variables able to override individual fields — the same
// two-layer approach the teacher's config package uses for its own
// settings.
package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds everything cmd/ship-dumper (or any other consumer built on
// internal/session and internal/driver) needs to run.
type Config struct {
	ServerURL string `yaml:"server_url"`
	Contract  string `yaml:"contract"`

	StartBlock          int64  `yaml:"start_block"`
	MaxMessagesInFlight uint32 `yaml:"max_messages_in_flight"`
	RunMode             string `yaml:"run_mode"` // combination of "P" (fetch_block), "T" (fetch_traces), "D" (fetch_deltas)
	IrreversibleOnly    bool   `yaml:"irreversible_only"`
	UseACK              bool   `yaml:"use_ack"`

	DatabaseURL string `yaml:"database_url"`

	SvixAuthToken string `yaml:"svix_auth_token"`
	SvixServerURL string `yaml:"svix_server_url"`
	SvixAppID     string `yaml:"svix_app_id"`
}

// FetchBlock reports whether RunMode requests the signed block.
func (c *Config) FetchBlock() bool { return strings.Contains(c.RunMode, "P") }

// FetchTraces reports whether RunMode requests transaction traces.
func (c *Config) FetchTraces() bool { return strings.Contains(c.RunMode, "T") }

// FetchDeltas reports whether RunMode requests table deltas.
func (c *Config) FetchDeltas() bool { return strings.Contains(c.RunMode, "D") }

// Load reads path as YAML into a Config, then applies SHIP_* environment
// variable overrides on top.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		MaxMessagesInFlight: 150,
		RunMode:             "P",
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SHIP_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("SHIP_CONTRACT"); v != "" {
		cfg.Contract = v
	}
	if v := os.Getenv("SHIP_START_BLOCK"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.StartBlock = n
		}
	}
	if v := os.Getenv("SHIP_RUN_MODE"); v != "" {
		cfg.RunMode = v
	}
	if v := os.Getenv("SHIP_DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("SHIP_USE_ACK"); v != "" {
		cfg.UseACK = v == "1" || strings.EqualFold(v, "true")
	}
}
