package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if cfg.Listen.Port != def.Listen.Port {
		t.Errorf("listen port = %d, want default %d", cfg.Listen.Port, def.Listen.Port)
	}
	if !cfg.Feed.Enabled {
		t.Error("feed disabled by default")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.Listen.Host = "10.0.0.5"
	cfg.Listen.Port = 7000
	cfg.Capture = &Capture{Dir: "/var/lib/moded/captures"}
	cfg.Discovery.Announce = true
	cfg.Discovery.Instance = "basement-collector"
	cfg.LogLevel = "debug"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.ListenAddr() != "10.0.0.5:7000" {
		t.Errorf("ListenAddr() = %q", loaded.ListenAddr())
	}
	if loaded.Capture == nil || loaded.Capture.Dir != cfg.Capture.Dir {
		t.Errorf("capture dir not preserved: %+v", loaded.Capture)
	}
	if !loaded.Discovery.Announce || loaded.Discovery.Instance != "basement-collector" {
		t.Errorf("discovery not preserved: %+v", loaded.Discovery)
	}
	if loaded.LogLevel != "debug" {
		t.Errorf("log level = %q", loaded.LogLevel)
	}
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 9\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted unsupported config version")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"zero listen port", func(c *Config) { c.Listen.Port = 0 }, true},
		{"listen port too large", func(c *Config) { c.Listen.Port = 70000 }, true},
		{"feed port collision", func(c *Config) { c.Feed.Port = c.Listen.Port }, true},
		{"negative idle timeout", func(c *Config) { c.Listen.IdleTimeout = -1 }, true},
		{"disabled feed ignores port", func(c *Config) { c.Feed.Enabled = false; c.Feed.Port = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFeedAddr(t *testing.T) {
	cfg := Default()
	if got := cfg.FeedAddr(); got != ":8475" {
		t.Errorf("FeedAddr() = %q, want %q", got, ":8475")
	}
	cfg.Feed.Enabled = false
	if got := cfg.FeedAddr(); got != "" {
		t.Errorf("FeedAddr() with disabled feed = %q, want empty", got)
	}
}
