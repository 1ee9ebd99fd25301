// Package config provides configuration for the Grounder resolution
// engine. Settings come from an optional YAML file overridden by
// environment variables with the GROUNDER_ prefix, with sensible
// defaults for everything.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all settings for the resolution engine.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Resolver  ResolverConfig  `yaml:"resolver"`
}

// StoreConfig selects the knowledge-store backend.
type StoreConfig struct {
	Engine string `yaml:"engine"` // sqlite or postgres (default: sqlite)
	DSN    string `yaml:"dsn"`    // PostgreSQL connection string
	Path   string `yaml:"path"`   // SQLite database path (default: ./grounder.db)
}

// EmbeddingConfig selects and tunes the embedding provider. An empty
// Provider disables the semantic tier.
type EmbeddingConfig struct {
	Provider   string        `yaml:"provider"`    // openai, ollama, or "" (default: "")
	BaseURL    string        `yaml:"base_url"`    // provider endpoint override
	Model      string        `yaml:"model"`       // embedding model name
	APIKey     string        `yaml:"api_key"`     // for cloud providers
	Dimensions int           `yaml:"dimensions"`  // requested vector size (0 = model default)
	Timeout    time.Duration `yaml:"timeout"`     // per-call timeout (default: 30s)
	RateLimit  float64       `yaml:"rate_limit"`  // requests/sec (0 = unlimited)
	CacheSize  int           `yaml:"cache_size"`  // embedding cache entries (default: 1000)
}

// ResolverConfig tunes the matching cascade.
type ResolverConfig struct {
	Layer             string  `yaml:"layer"`              // privacy/partition scope (required)
	FuzzyThreshold    float64 `yaml:"fuzzy_threshold"`    // tier-3 admission (default: 0.3)
	SemanticThreshold float64 `yaml:"semantic_threshold"` // tier-4 admission (default: 0.7)
	CandidateLimit    int     `yaml:"candidate_limit"`    // candidates per mention (default: 5)
}

// Load builds the configuration: defaults, then the YAML file at path
// (skipped when path is empty), then GROUNDER_* environment variables
// on top.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadFromEnv builds the configuration from defaults and environment
// variables only.
func LoadFromEnv() *Config {
	cfg := defaults()
	cfg.applyEnv()
	return cfg
}

func defaults() *Config {
	return &Config{
		Store: StoreConfig{
			Engine: "sqlite",
			Path:   "./grounder.db",
		},
		Embedding: EmbeddingConfig{
			Timeout:   30 * time.Second,
			CacheSize: 1000,
		},
		Resolver: ResolverConfig{
			Layer:             "default",
			FuzzyThreshold:    0.3,
			SemanticThreshold: 0.7,
			CandidateLimit:    5,
		},
	}
}

// applyEnv overrides settings from GROUNDER_* environment variables.
func (c *Config) applyEnv() {
	c.Store.Engine = getEnv("GROUNDER_STORE_ENGINE", c.Store.Engine)
	c.Store.DSN = getEnv("GROUNDER_STORE_DSN", c.Store.DSN)
	c.Store.Path = getEnv("GROUNDER_STORE_PATH", c.Store.Path)

	c.Embedding.Provider = getEnv("GROUNDER_EMBEDDING_PROVIDER", c.Embedding.Provider)
	c.Embedding.BaseURL = getEnv("GROUNDER_EMBEDDING_BASE_URL", c.Embedding.BaseURL)
	c.Embedding.Model = getEnv("GROUNDER_EMBEDDING_MODEL", c.Embedding.Model)
	c.Embedding.APIKey = getEnv("GROUNDER_EMBEDDING_API_KEY", c.Embedding.APIKey)
	c.Embedding.Dimensions = getEnvInt("GROUNDER_EMBEDDING_DIMENSIONS", c.Embedding.Dimensions)
	c.Embedding.CacheSize = getEnvInt("GROUNDER_EMBEDDING_CACHE_SIZE", c.Embedding.CacheSize)
	c.Embedding.RateLimit = getEnvFloat("GROUNDER_EMBEDDING_RATE_LIMIT", c.Embedding.RateLimit)
	if v := os.Getenv("GROUNDER_EMBEDDING_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Embedding.Timeout = d
		}
	}

	c.Resolver.Layer = getEnv("GROUNDER_LAYER", c.Resolver.Layer)
	c.Resolver.FuzzyThreshold = getEnvFloat("GROUNDER_FUZZY_THRESHOLD", c.Resolver.FuzzyThreshold)
	c.Resolver.SemanticThreshold = getEnvFloat("GROUNDER_SEMANTIC_THRESHOLD", c.Resolver.SemanticThreshold)
	c.Resolver.CandidateLimit = getEnvInt("GROUNDER_CANDIDATE_LIMIT", c.Resolver.CandidateLimit)
}

// Validate reports configuration that would fail at construction
// time: a missing layer, an unknown store engine, or a postgres
// engine without a DSN.
func (c *Config) Validate() error {
	if c.Resolver.Layer == "" {
		return fmt.Errorf("config: resolver layer is required")
	}
	switch c.Store.Engine {
	case "sqlite":
	case "postgres", "postgresql":
		if c.Store.DSN == "" {
			return fmt.Errorf("config: store DSN is required for the postgres engine")
		}
	default:
		return fmt.Errorf("config: unknown store engine %q", c.Store.Engine)
	}
	return nil
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a
// default value when unset or unparsable.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a
// default value when unset or unparsable.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
