// Package config loads the hub configuration from a YAML or JSON file with
// optional HUB_-prefixed environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/swiftdrop/hub/api/status"
	"github.com/swiftdrop/hub/core/dispatch"
	"github.com/swiftdrop/hub/core/leaderboard"
	"github.com/swiftdrop/hub/core/ledger"
	coremetrics "github.com/swiftdrop/hub/core/metrics"
	"github.com/swiftdrop/hub/core/registry"
	"github.com/swiftdrop/hub/infra/broadcast"
	"github.com/swiftdrop/hub/infra/mqtt"
)

// ServerConfig holds the reliable-channel listener settings.
type ServerConfig struct {
	Addr string `json:"addr"`
}

// SetDefaults applies default values to the configuration.
func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":7777"
	}
}

type Config struct {
	Server      ServerConfig       `json:"server"`
	Registry    registry.Config    `json:"registry"`
	Dispatch    dispatch.Config    `json:"dispatch"`
	Ledger      ledger.Config      `json:"ledger"`
	Broadcast   broadcast.Config   `json:"broadcast"`
	Leaderboard leaderboard.Config `json:"leaderboard"`
	Metrics     coremetrics.Config `json:"metrics"`
	MQTT        mqtt.Config        `json:"mqtt"`
	API         status.Config      `json:"api"`
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Registry.SetDefaults()
	c.Dispatch.SetDefaults()
	c.Ledger.SetDefaults()
	c.Broadcast.SetDefaults()
	c.Leaderboard.SetDefaults()
	c.MQTT.SetDefaults()
	c.API.SetDefaults()
}

// Validate checks every section that defines constraints.
func (c *Config) Validate() error {
	if err := c.Registry.Validate(); err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	if err := c.Dispatch.Validate(); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	if err := c.Ledger.Validate(); err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	if err := c.Broadcast.Validate(); err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	return nil
}

// Default returns a fully defaulted configuration, used when no file is
// given.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// Load reads the configuration file, applies HUB_ environment overrides
// (double underscore separates nesting levels, e.g. HUB_SERVER__ADDR),
// defaults the missing sections and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("HUB_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "hub_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
