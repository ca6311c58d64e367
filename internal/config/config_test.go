package config

import (
	"testing"
	"time"
)

// TestLoadConfig_Defaults verifies every setting has a sensible default
func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != 5002 {
		t.Errorf("expected default port 5002, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("expected default host 127.0.0.1, got %s", cfg.Server.Host)
	}
	if cfg.Server.RateLimitPerSec != 20 {
		t.Errorf("expected default rate limit 20, got %d", cfg.Server.RateLimitPerSec)
	}
	if cfg.Storage.StorageEngine != "sqlite" {
		t.Errorf("expected default storage engine sqlite, got %s", cfg.Storage.StorageEngine)
	}
	if cfg.Storage.DataPath != "./data" {
		t.Errorf("expected default data path ./data, got %s", cfg.Storage.DataPath)
	}
	if cfg.Ports.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("expected default embedding model, got %s", cfg.Ports.EmbeddingModel)
	}
	if cfg.Ports.EmbeddingTTL != 10*time.Minute {
		t.Errorf("expected default embedding TTL 10m, got %s", cfg.Ports.EmbeddingTTL)
	}
	if cfg.Security.SecurityMode != "development" {
		t.Errorf("expected default security mode development, got %s", cfg.Security.SecurityMode)
	}
	if cfg.Rules.Path != "" {
		t.Errorf("expected empty default rules path, got %s", cfg.Rules.Path)
	}
}

// TestLoadConfig_EnvironmentOverrides verifies env vars take precedence
func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("RETREIVO_PORT", "9090")
	t.Setenv("RETREIVO_STORAGE_ENGINE", "postgres")
	t.Setenv("RETREIVO_POSTGRES_DSN", "postgres://localhost/retreivo")
	t.Setenv("RETREIVO_EMBEDDING_CACHE_TTL", "1h")
	t.Setenv("RETREIVO_SECURITY_MODE", "production")
	t.Setenv("RETREIVO_API_TOKEN", "secret-token")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Storage.StorageEngine != "postgres" {
		t.Errorf("expected postgres engine, got %s", cfg.Storage.StorageEngine)
	}
	if cfg.Storage.PostgresDSN != "postgres://localhost/retreivo" {
		t.Errorf("unexpected DSN: %s", cfg.Storage.PostgresDSN)
	}
	if cfg.Ports.EmbeddingTTL != time.Hour {
		t.Errorf("expected TTL 1h, got %s", cfg.Ports.EmbeddingTTL)
	}
	if cfg.Security.SecurityMode != "production" {
		t.Errorf("expected production mode, got %s", cfg.Security.SecurityMode)
	}
	if cfg.Security.APIToken != "secret-token" {
		t.Errorf("unexpected API token: %s", cfg.Security.APIToken)
	}
}

// TestLoadConfig_MalformedValues verifies unparseable values fall back to defaults
func TestLoadConfig_MalformedValues(t *testing.T) {
	t.Setenv("RETREIVO_PORT", "not-a-number")
	t.Setenv("RETREIVO_EMBEDDING_CACHE_TTL", "not-a-duration")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Port != 5002 {
		t.Errorf("expected fallback port 5002, got %d", cfg.Server.Port)
	}
	if cfg.Ports.EmbeddingTTL != 10*time.Minute {
		t.Errorf("expected fallback TTL 10m, got %s", cfg.Ports.EmbeddingTTL)
	}
}
