package llm

import (
	"fmt"
	"time"
)

// ProviderConfig selects and parameterizes an embedding provider.
type ProviderConfig struct {
	// Provider is "openai", "ollama", or "" (disables the semantic
	// tier entirely).
	Provider string

	APIKey     string
	Model      string
	BaseURL    string
	Dimensions int
	Timeout    time.Duration
	RateLimit  float64

	// CacheSize bounds the caching decorator; 0 selects
	// DefaultCacheSize, negative disables caching.
	CacheSize int
}

// NewEmbeddingGenerator creates the configured provider wrapped in the
// caching decorator. Returns (nil, nil) when no provider is
// configured, which disables the semantic tier.
func NewEmbeddingGenerator(cfg ProviderConfig) (EmbeddingGenerator, error) {
	var provider EmbeddingGenerator

	switch cfg.Provider {
	case "":
		return nil, nil
	case "openai":
		provider = NewOpenAIEmbeddingClient(OpenAIEmbeddingConfig{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Dimensions: cfg.Dimensions,
			Timeout:    cfg.Timeout,
			RateLimit:  cfg.RateLimit,
		})
	case "ollama":
		provider = NewOllamaClient(OllamaConfig{
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %q", cfg.Provider)
	}

	if cfg.CacheSize < 0 {
		return provider, nil
	}
	return NewCachingEmbedder(provider, cfg.CacheSize), nil
}
