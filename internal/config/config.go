// Package config loads the bootstrap configuration for the studyfrog
// core: where its data lives and how its transport bridges are wired.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WebsocketConfig configures the internal/bridge/ws HTTP surface.
type WebsocketConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ListenAddress string `yaml:"listen_address"`
}

// NATSConfig configures the internal/bridge/natsbridge embedded broker.
type NATSConfig struct {
	Enabled   bool `yaml:"enabled"`
	Port      int  `yaml:"port"`
	JetStream bool `yaml:"jetstream"`
}

// SeedOverrides lets an operator choose which seeded difficulty/priority
// row internal/storage.Bootstrap flags as the default one.
type SeedOverrides struct {
	DefaultDifficulty string `yaml:"default_difficulty"`
	DefaultPriority   string `yaml:"default_priority"`
}

// Config is the top-level shape of config.yaml.
type Config struct {
	DataDir   string          `yaml:"data_dir"`
	Seed      SeedOverrides   `yaml:"seed"`
	Websocket WebsocketConfig `yaml:"websocket"`
	NATS      NATSConfig      `yaml:"nats"`
}

// Default returns the embedded configuration used when no config.yaml
// is present on disk.
func Default() Config {
	return Config{
		DataDir: "data",
		Seed: SeedOverrides{
			DefaultDifficulty: "medium",
			DefaultPriority:   "medium",
		},
		Websocket: WebsocketConfig{
			Enabled:       false,
			ListenAddress: "127.0.0.1:8787",
		},
		NATS: NATSConfig{
			Enabled: false,
			Port:    4222,
		},
	}
}

// Load reads path as YAML. A missing file is not an error — it yields
// Default() so a fresh checkout runs with no setup step. A file that
// exists but fails to parse is a hard failure: a malformed config
// should never be silently ignored.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}
