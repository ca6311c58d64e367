// Package config provides configuration management for the Retreivo match
// engine. It loads settings from environment variables with the RETREIVO_
// prefix and provides sensible defaults for all configuration options.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration settings for the match engine.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Ports    PortsConfig
	Security SecurityConfig
	Rules    RulesConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    // Server port (default: 5002)
	Host string // Server host (default: 127.0.0.1)

	// RateLimitPerSec caps requests per second per server (default: 20).
	RateLimitPerSec int
	// RateLimitBurst is the burst allowance on top of the rate (default: 40).
	RateLimitBurst int
}

// StorageConfig contains database and storage configuration.
type StorageConfig struct {
	StorageEngine string // Storage engine type: sqlite, postgres (default: sqlite)
	DataPath      string // Path to data directory for sqlite (default: ./data)
	PostgresDSN   string // Connection string when StorageEngine is postgres
}

// PortsConfig configures the external model services. Every port is
// optional; a missing port selects that component's built-in fallback.
type PortsConfig struct {
	OpenAIAPIKey    string        // OpenAI API key for text embeddings
	OpenAIBaseURL   string        // Override for the OpenAI API base URL
	EmbeddingModel  string        // Embedding model name (default: text-embedding-3-small)
	EmbeddingTTL    time.Duration // Embedding cache TTL (default: 10m)
	ImageServiceURL string        // Base URL of the image feature service
	ClassifierURL   string        // Base URL of the fraud classifier service
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	SecurityMode string // Security mode: development, production (default: development)
	APIToken     string // API authentication token
}

// RulesConfig points at optional fraud-rule overrides.
type RulesConfig struct {
	Path string // Path to a YAML rules file; empty selects the built-in lists
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. All environment variables use the RETREIVO_ prefix.
func LoadConfig() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port:            getEnvInt("RETREIVO_PORT", 5002),
			Host:            getEnv("RETREIVO_HOST", "127.0.0.1"),
			RateLimitPerSec: getEnvInt("RETREIVO_RATE_LIMIT_PER_SEC", 20),
			RateLimitBurst:  getEnvInt("RETREIVO_RATE_LIMIT_BURST", 40),
		},
		Storage: StorageConfig{
			StorageEngine: getEnv("RETREIVO_STORAGE_ENGINE", "sqlite"),
			DataPath:      getEnv("RETREIVO_DATA_PATH", "./data"),
			PostgresDSN:   getEnv("RETREIVO_POSTGRES_DSN", ""),
		},
		Ports: PortsConfig{
			OpenAIAPIKey:    getEnv("RETREIVO_OPENAI_API_KEY", ""),
			OpenAIBaseURL:   getEnv("RETREIVO_OPENAI_BASE_URL", ""),
			EmbeddingModel:  getEnv("RETREIVO_EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingTTL:    getEnvDuration("RETREIVO_EMBEDDING_CACHE_TTL", 10*time.Minute),
			ImageServiceURL: getEnv("RETREIVO_IMAGE_SERVICE_URL", ""),
			ClassifierURL:   getEnv("RETREIVO_CLASSIFIER_URL", ""),
		},
		Security: SecurityConfig{
			SecurityMode: getEnv("RETREIVO_SECURITY_MODE", "development"),
			APIToken:     getEnv("RETREIVO_API_TOKEN", ""),
		},
		Rules: RulesConfig{
			Path: getEnv("RETREIVO_RULES_PATH", ""),
		},
	}, nil
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as an integer,
// it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns a
// default value. Unparseable values fall back to the default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
