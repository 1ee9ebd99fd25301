package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

// countingProvider is a stub provider that records Embed calls.
type countingProvider struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (p *countingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	p.calls++
	err := p.err
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return []float32{float32(len(text)), 1}, nil
}

func (p *countingProvider) GetModel() string { return "stub" }

func TestCachingEmbedderServesRepeatsFromCache(t *testing.T) {
	provider := &countingProvider{}
	cache := NewCachingEmbedder(provider, 10)

	first, err := cache.Embed(context.Background(), "Scott Leese")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	second, err := cache.Embed(context.Background(), "Scott Leese")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if provider.calls != 1 {
		t.Errorf("expected 1 provider call, got %d", provider.calls)
	}
	if len(first) != len(second) || first[0] != second[0] {
		t.Errorf("cached vector differs: %v vs %v", first, second)
	}

	stats := cache.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Size != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestCachingEmbedderNormalizesKeys(t *testing.T) {
	provider := &countingProvider{}
	cache := NewCachingEmbedder(provider, 10)

	if _, err := cache.Embed(context.Background(), "  Scott Leese "); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if _, err := cache.Embed(context.Background(), "scott leese"); err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if provider.calls != 1 {
		t.Errorf("case/whitespace variants must share one entry, got %d calls", provider.calls)
	}
}

func TestCachingEmbedderEvictsOldestInserted(t *testing.T) {
	provider := &countingProvider{}
	cache := NewCachingEmbedder(provider, 1)

	ctx := context.Background()
	for _, text := range []string{"a", "b", "a"} {
		if _, err := cache.Embed(ctx, text); err != nil {
			t.Fatalf("Embed %q: %v", text, err)
		}
	}

	// "b" evicted "a", so the third call misses again.
	if provider.calls != 3 {
		t.Errorf("expected 3 provider calls, got %d", provider.calls)
	}
	stats := cache.Stats()
	if stats.Evictions != 2 || stats.Size != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestCachingEmbedderDoesNotCacheFailures(t *testing.T) {
	provider := &countingProvider{err: errors.New("unavailable")}
	cache := NewCachingEmbedder(provider, 10)

	ctx := context.Background()
	if _, err := cache.Embed(ctx, "a"); err == nil {
		t.Fatal("expected error from provider")
	}

	provider.err = nil
	if _, err := cache.Embed(ctx, "a"); err != nil {
		t.Fatalf("Embed after recovery: %v", err)
	}
	if provider.calls != 2 {
		t.Errorf("failed call must not populate the cache, got %d calls", provider.calls)
	}
}

func TestEmbedHitReportsCacheHits(t *testing.T) {
	cache := NewCachingEmbedder(&countingProvider{}, 10)

	_, hit, err := cache.EmbedHit(context.Background(), "a")
	if err != nil || hit {
		t.Fatalf("first call: hit=%v err=%v", hit, err)
	}
	_, hit, err = cache.EmbedHit(context.Background(), "a")
	if err != nil || !hit {
		t.Fatalf("second call: hit=%v err=%v", hit, err)
	}
}

func TestCachingEmbedderDefaultSize(t *testing.T) {
	cache := NewCachingEmbedder(&countingProvider{}, 0)
	if cache.maxSize != DefaultCacheSize {
		t.Errorf("expected default size %d, got %d", DefaultCacheSize, cache.maxSize)
	}
}

func TestCachingEmbedderConcurrentAccess(t *testing.T) {
	provider := &countingProvider{}
	cache := NewCachingEmbedder(provider, 100)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				_, _ = cache.Embed(context.Background(), fmt.Sprintf("text-%d", j%10))
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	if size := cache.Stats().Size; size != 10 {
		t.Errorf("expected 10 distinct entries, got %d", size)
	}
}
