package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all Slated assist service configuration.
type Config struct {
	Listen  string        `yaml:"listen"`
	DBPath  string        `yaml:"db_path"`
	Backend BackendConfig `yaml:"backend"`
	Broker  BrokerConfig  `yaml:"broker"`
}

// BackendConfig defines the inference backend the broker fronts.
type BackendConfig struct {
	URL           string        `yaml:"url"`
	DefaultTarget string        `yaml:"default_target"`
	Timeout       time.Duration `yaml:"timeout"`
	ProbeTimeout  time.Duration `yaml:"probe_timeout"`
}

// BrokerConfig controls admission and response caching.
type BrokerConfig struct {
	MaxConcurrent   int           `yaml:"max_concurrent"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	CacheMaxEntries int           `yaml:"cache_max_entries"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		DBPath: "slated.db",
		Backend: BackendConfig{
			URL:           "http://127.0.0.1:11434",
			DefaultTarget: "llama3.1:8b",
			Timeout:       60 * time.Second,
			ProbeTimeout:  5 * time.Second,
		},
		Broker: BrokerConfig{
			MaxConcurrent:   2,
			CacheTTL:        10 * time.Minute,
			CacheMaxEntries: 100,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks fields the broker cannot run without.
func (c *Config) Validate() error {
	if c.Broker.MaxConcurrent < 1 {
		return fmt.Errorf("broker.max_concurrent must be at least 1, got %d", c.Broker.MaxConcurrent)
	}
	if c.Broker.CacheMaxEntries < 1 {
		return fmt.Errorf("broker.cache_max_entries must be at least 1, got %d", c.Broker.CacheMaxEntries)
	}
	if c.Backend.URL == "" {
		return fmt.Errorf("backend.url must be set")
	}
	return nil
}
