package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "moded"
	configFile = "config.yaml"
)

// Config is the collector configuration file.
type Config struct {
	Version   int        `yaml:"version"`
	Listen    *Listen    `yaml:"listen,omitempty"`
	Feed      *Feed      `yaml:"feed,omitempty"`
	Capture   *Capture   `yaml:"capture,omitempty"`
	Discovery *Discovery `yaml:"discovery,omitempty"`
	LogLevel  string     `yaml:"log_level,omitempty"`
}

// Listen configures the TCP ingest listener meters push telegrams to.
type Listen struct {
	Host        string `yaml:"host"`                   // empty = all interfaces
	Port        int    `yaml:"port"`                   // ingest port
	IdleTimeout int    `yaml:"idle_timeout,omitempty"` // seconds without bytes before a stream is dropped, 0 = none
}

// Feed configures the websocket feed serving decoded telegrams to consumers.
type Feed struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// Capture configures JSONL capture of decoded telegrams.
type Capture struct {
	Dir string `yaml:"dir"` // empty = capture disabled
}

// Discovery configures mDNS announcement of the collector.
type Discovery struct {
	Announce bool   `yaml:"announce"`
	Instance string `yaml:"instance,omitempty"` // service instance name, defaults to host name
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Version: 1,
		Listen: &Listen{
			Port:        4059,
			IdleTimeout: 300,
		},
		Feed: &Feed{
			Enabled: true,
			Port:    8475,
		},
		Discovery: &Discovery{
			Announce: false,
		},
	}
}

// GetConfigDir returns the OS-appropriate configuration directory.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/moded or $HOME/.config/moded
//   - macOS: $HOME/.config/moded (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\moded
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// Load reads the configuration from path. When path is empty, the default
// location is used. A missing file yields Default() without error.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d (expected 1)", cfg.Version)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the collector cannot run with.
func (c *Config) Validate() error {
	if c.Listen == nil || c.Listen.Port <= 0 || c.Listen.Port > 65535 {
		return fmt.Errorf("listen port must be in 1..65535")
	}
	if c.Feed != nil && c.Feed.Enabled {
		if c.Feed.Port <= 0 || c.Feed.Port > 65535 {
			return fmt.Errorf("feed port must be in 1..65535")
		}
		if c.Feed.Port == c.Listen.Port && c.Feed.Host == c.Listen.Host {
			return fmt.Errorf("feed and ingest listeners cannot share %s:%d", c.Feed.Host, c.Feed.Port)
		}
	}
	if c.Listen.IdleTimeout < 0 {
		return fmt.Errorf("idle timeout cannot be negative")
	}
	return nil
}

// Save writes the configuration to path (default location when empty).
// The write is atomic: data goes to a temporary file first, then an
// os.Rename replaces the previous file.
func (c *Config) Save(path string) error {
	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# moded collector configuration\n\n")
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

// ListenAddr returns the ingest listener address in host:port form.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Listen.Host, c.Listen.Port)
}

// FeedAddr returns the websocket feed address in host:port form, or empty
// when the feed is disabled.
func (c *Config) FeedAddr() string {
	if c.Feed == nil || !c.Feed.Enabled {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Feed.Host, c.Feed.Port)
}
