// Package appconfig provides unified configuration for the analytics
// system: the import tool and the dashboard server read the same
// analytics.yaml.
package appconfig

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the unified application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Search   SearchConfig   `yaml:"search"`
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type DatabaseConfig struct {
	SQLite string `yaml:"sqlite"`
}

type IngestConfig struct {
	InputDir string `yaml:"input_dir"`
	Workers  int    `yaml:"workers"`
}

type SearchConfig struct {
	MaxResults  int `yaml:"max_results"`
	MinMessages int `yaml:"min_messages"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type AuthConfig struct {
	UsersFile         string `yaml:"users_file"`
	SessionTTLMinutes int    `yaml:"session_ttl_minutes"`
}

type MetricsConfig struct {
	ActiveWindowDays int `yaml:"active_window_days"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			SQLite: "conversations.db",
		},
		Ingest: IngestConfig{
			InputDir: "./inbox",
			Workers:  0,
		},
		Search: SearchConfig{
			MaxResults:  100,
			MinMessages: 1,
		},
		Server: ServerConfig{
			Addr: ":8090",
		},
		Auth: AuthConfig{
			UsersFile:         "users.json",
			SessionTTLMinutes: 720,
		},
		Metrics: MetricsConfig{
			ActiveWindowDays: 7,
		},
	}
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default() // Start with defaults
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// LoadFromDir looks for analytics.yaml in the given directory or parent directories
func LoadFromDir(dir string) (*Config, error) {
	current := dir
	for {
		path := filepath.Join(current, "analytics.yaml")
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(current)
		if parent == current {
			break // Reached root
		}
		current = parent
	}

	return nil, fmt.Errorf("analytics.yaml not found in %s or parent directories", dir)
}

// LoadOrDefault tries to load from analytics.yaml, falls back to defaults
func LoadOrDefault(dir string) *Config {
	cfg, err := LoadFromDir(dir)
	if err != nil {
		return Default()
	}
	return cfg
}

// Hash returns a SHA256 hash of the configuration for change detection
func (c *Config) Hash() string {
	data, _ := yaml.Marshal(c)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
