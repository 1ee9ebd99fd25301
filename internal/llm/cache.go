package llm

import (
	"context"
	"strings"
	"sync"
)

// DefaultCacheSize is the default capacity of the embedding cache.
const DefaultCacheSize = 1000

// CacheStats holds counters about cache effectiveness.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
}

// CachingEmbedder is a decorator that adds a bounded in-memory cache
// in front of any EmbeddingGenerator. Keys are case-folded, trimmed
// mention text; eviction is insertion-order (the oldest inserted
// entry goes first), so a re-read entry does not outlive its cohort.
//
// Safe for concurrent use. The underlying provider call happens
// outside the lock; only the O(1) map operations are guarded.
type CachingEmbedder struct {
	provider EmbeddingGenerator
	maxSize  int

	mu      sync.Mutex
	entries map[string][]float32
	order   []string // insertion order, oldest first
	stats   CacheStats
}

// NewCachingEmbedder wraps the given provider with a cache of
// maxSize entries. A maxSize <= 0 selects DefaultCacheSize.
func NewCachingEmbedder(provider EmbeddingGenerator, maxSize int) *CachingEmbedder {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	return &CachingEmbedder{
		provider: provider,
		maxSize:  maxSize,
		entries:  make(map[string][]float32, maxSize),
	}
}

// Embed returns the cached vector for text when present, otherwise
// calls the wrapped provider and caches the result. Failed provider
// calls are not cached.
func (c *CachingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, _, err := c.EmbedHit(ctx, text)
	return vec, err
}

// EmbedHit is Embed plus a flag reporting whether the vector came
// from cache, so callers can count actual provider invocations.
func (c *CachingEmbedder) EmbedHit(ctx context.Context, text string) ([]float32, bool, error) {
	key := normalizeCacheKey(text)

	c.mu.Lock()
	if vec, ok := c.entries[key]; ok {
		c.stats.Hits++
		c.mu.Unlock()
		return vec, true, nil
	}
	c.stats.Misses++
	c.mu.Unlock()

	vec, err := c.provider.Embed(ctx, text)
	if err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have inserted the same key while we were on
	// the network; keep the existing entry and its insertion slot.
	if existing, ok := c.entries[key]; ok {
		return existing, false, nil
	}

	if len(c.entries) >= c.maxSize {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
		c.stats.Evictions++
	}

	c.entries[key] = vec
	c.order = append(c.order, key)

	return vec, false, nil
}

// GetModel returns the wrapped provider's model name.
func (c *CachingEmbedder) GetModel() string {
	return c.provider.GetModel()
}

// Stats returns a snapshot of the cache counters.
func (c *CachingEmbedder) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Size = len(c.entries)
	return stats
}

// normalizeCacheKey produces the canonical cache key for a mention.
// Correctness depends on keying strictly on normalized text.
func normalizeCacheKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Compile-time assertions.
var (
	_ EmbeddingGenerator = (*CachingEmbedder)(nil)
	_ HitAwareEmbedder   = (*CachingEmbedder)(nil)
)
