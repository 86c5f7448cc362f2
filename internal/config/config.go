// Package config handles application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Appwrite AppwriteConfig `yaml:"appwrite,omitempty"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Debate   DebateConfig   `yaml:"debate"`
	Tools    ToolsConfig    `yaml:"tools"`
}

// ServerConfig holds server settings.
type ServerConfig struct {
	Port       int           `yaml:"port"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	RateLimit  int           `yaml:"rate_limit"`        // requests per window on /api/chat
	RateWindow time.Duration `yaml:"rate_limit_window"` // sliding window size
}

// StorageConfig selects and configures the document store backend.
type StorageConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "appwrite"
	Path   string `yaml:"path"`   // sqlite database path
}

// AppwriteConfig holds the hosted document-store connection settings.
type AppwriteConfig struct {
	Endpoint string `yaml:"endpoint"`
	Project  string `yaml:"project"`
	Database string `yaml:"database"`
}

// UpstreamConfig bounds calls to model and search providers.
type UpstreamConfig struct {
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// DebateConfig holds debate orchestration settings.
type DebateConfig struct {
	// AntiHallucination switches the skeptic persona from generic critique
	// to fact-check framing.
	AntiHallucination bool `yaml:"anti_hallucination"`
}

// ToolsConfig holds tool-routing settings.
type ToolsConfig struct {
	SearchProvider string `yaml:"search_provider"` // "serper" or "tavily"
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:       8289,
			SessionTTL: 24 * time.Hour,
			RateLimit:  30,
			RateWindow: time.Minute,
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   "",
		},
		Appwrite: AppwriteConfig{
			Endpoint: "https://cloud.appwrite.io/v1",
			Database: "ascendancy_db",
		},
		Upstream: UpstreamConfig{
			Timeout:    45 * time.Second,
			MaxRetries: 2,
		},
		Debate: DebateConfig{
			AntiHallucination: true,
		},
		Tools: ToolsConfig{
			SearchProvider: "serper",
		},
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from a specific path, falling back to
// defaults when the file does not exist.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file, proceed with defaults
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.Tools.SearchProvider != "serper" && cfg.Tools.SearchProvider != "tavily" {
		return nil, fmt.Errorf("unknown search provider: %s", cfg.Tools.SearchProvider)
	}
	if cfg.Storage.Driver != "sqlite" && cfg.Storage.Driver != "appwrite" {
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}

	return cfg, nil
}

// SaveTo saves the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "ascendancy.yaml"
	}
	return filepath.Join(home, ".ascendancy", "config.yaml")
}

// DefaultDBPath returns the default SQLite database path.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "ascendancy.db"
	}
	return filepath.Join(home, ".ascendancy", "ascendancy.db")
}

// GenerateExample generates an example configuration file.
func GenerateExample() string {
	return `# ascendancy configuration file
# Place this file at ~/.ascendancy/config.yaml

server:
  port: 8289
  session_ttl: 24h
  rate_limit: 30            # /api/chat requests per window, per user
  rate_limit_window: 1m

storage:
  driver: sqlite            # "sqlite" (local) or "appwrite" (hosted)
  path: ""                  # empty = ~/.ascendancy/ascendancy.db

appwrite:
  endpoint: https://cloud.appwrite.io/v1
  project: ""               # required when storage.driver is "appwrite"
  database: ascendancy_db

upstream:
  timeout: 45s              # per model/search call
  max_retries: 2            # retries at the gateway boundary only

debate:
  anti_hallucination: true  # skeptic fact-checks instead of generic critique

tools:
  search_provider: serper   # "serper" or "tavily"
`
}
