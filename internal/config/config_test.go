package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != 8289 {
		t.Errorf("unexpected default port: %d", cfg.Server.Port)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("unexpected default storage driver: %s", cfg.Storage.Driver)
	}
	if cfg.Tools.SearchProvider != "serper" {
		t.Errorf("unexpected default search provider: %s", cfg.Tools.SearchProvider)
	}
	if cfg.Upstream.Timeout <= 0 {
		t.Error("upstream timeout must be bounded")
	}
}

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Server.Port != Default().Server.Port {
		t.Errorf("expected default port, got %d", cfg.Server.Port)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: 9000
storage:
  driver: appwrite
upstream:
  timeout: 10s
tools:
  search_provider: tavily
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("port mismatch: got %d, want 9000", cfg.Server.Port)
	}
	if cfg.Storage.Driver != "appwrite" {
		t.Errorf("driver mismatch: got %s", cfg.Storage.Driver)
	}
	if cfg.Upstream.Timeout != 10*time.Second {
		t.Errorf("timeout mismatch: got %s", cfg.Upstream.Timeout)
	}
	if cfg.Tools.SearchProvider != "tavily" {
		t.Errorf("search provider mismatch: got %s", cfg.Tools.SearchProvider)
	}
}

func TestLoadFromRejectsUnknownSearchProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("tools:\n  search_provider: bing\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for unknown search provider")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7777")
	t.Setenv("SEARCH_PROVIDER", "tavily")
	t.Setenv("UPSTREAM_TIMEOUT", "30")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Port != 7777 {
		t.Errorf("env port override not applied: got %d", cfg.Server.Port)
	}
	if cfg.Tools.SearchProvider != "tavily" {
		t.Errorf("env search provider override not applied: got %s", cfg.Tools.SearchProvider)
	}
	if cfg.Upstream.Timeout != 30*time.Second {
		t.Errorf("env timeout override not applied: got %s", cfg.Upstream.Timeout)
	}
}

func TestLoadEnvReadsDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("SERPER_API_KEY=test-serper\n"), 0644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}

	secrets := LoadEnv(path)
	defer os.Unsetenv("SERPER_API_KEY")

	if secrets.SerperAPIKey != "test-serper" {
		t.Errorf("SerperAPIKey mismatch: got %q", secrets.SerperAPIKey)
	}
}
