// Package llm provides embedding generation for the semantic
// resolution tier: a minimal provider interface, HTTP-backed clients
// for OpenAI-compatible and Ollama endpoints, a circuit breaker, and
// a bounded caching decorator.
package llm

import "context"

// EmbeddingGenerator is the interface for generating vector
// embeddings. Implementations must return a distinguishable error
// when the remote call fails or yields no embedding; callers treat
// any error as "this mention stays unresolved".
type EmbeddingGenerator interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	GetModel() string
}

// HitAwareEmbedder is implemented by caching decorators that can
// report whether a vector was served from cache. Callers that meter
// provider cost type-assert for this.
type HitAwareEmbedder interface {
	EmbeddingGenerator
	EmbedHit(ctx context.Context, text string) (vec []float32, hit bool, err error)
}
