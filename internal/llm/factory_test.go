package llm

import "testing"

func TestFactoryDisabledProvider(t *testing.T) {
	gen, err := NewEmbeddingGenerator(ProviderConfig{})
	if err != nil {
		t.Fatalf("NewEmbeddingGenerator: %v", err)
	}
	if gen != nil {
		t.Errorf("empty provider must disable embeddings, got %T", gen)
	}
}

func TestFactoryUnknownProvider(t *testing.T) {
	if _, err := NewEmbeddingGenerator(ProviderConfig{Provider: "carrier-pigeon"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestFactoryWrapsWithCache(t *testing.T) {
	gen, err := NewEmbeddingGenerator(ProviderConfig{Provider: "ollama"})
	if err != nil {
		t.Fatalf("NewEmbeddingGenerator: %v", err)
	}
	if _, ok := gen.(*CachingEmbedder); !ok {
		t.Errorf("expected caching decorator, got %T", gen)
	}
}

func TestFactoryNegativeCacheSizeDisablesCache(t *testing.T) {
	gen, err := NewEmbeddingGenerator(ProviderConfig{Provider: "ollama", CacheSize: -1})
	if err != nil {
		t.Fatalf("NewEmbeddingGenerator: %v", err)
	}
	if _, ok := gen.(*OllamaClient); !ok {
		t.Errorf("expected bare client, got %T", gen)
	}
}
