package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != Default() {
		t.Errorf("expected Default(), got %+v", cfg)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
data_dir: /var/lib/studyfrog
seed:
  default_difficulty: hard
  default_priority: highest
websocket:
  enabled: true
  listen_address: 0.0.0.0:9000
nats:
  enabled: true
  port: 4333
  jetstream: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DataDir != "/var/lib/studyfrog" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.Seed.DefaultDifficulty != "hard" || cfg.Seed.DefaultPriority != "highest" {
		t.Errorf("Seed = %+v", cfg.Seed)
	}
	if !cfg.Websocket.Enabled || cfg.Websocket.ListenAddress != "0.0.0.0:9000" {
		t.Errorf("Websocket = %+v", cfg.Websocket)
	}
	if !cfg.NATS.Enabled || cfg.NATS.Port != 4333 || !cfg.NATS.JetStream {
		t.Errorf("NATS = %+v", cfg.NATS)
	}
}

func TestLoadMalformedFileIsHardFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("data_dir: [this is not a string"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected malformed config to return an error")
	}
}
