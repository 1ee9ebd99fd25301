// cmd/grounder resolves entity mentions in free text against the
// knowledge store and prints the injected context as JSON.
//
// Startup sequence:
//  1. Load configuration (optional YAML file, then GROUNDER_* env vars).
//  2. Open the knowledge store (SQLite or PostgreSQL).
//  3. Construct the embedding provider, if one is configured.
//  4. Read one input per line from stdin, resolve it, and write the
//     injected context to stdout as indented JSON.
//
// All logging goes to stderr so stdout stays machine-readable.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/scrypster/grounder/internal/config"
	"github.com/scrypster/grounder/internal/connections"
	"github.com/scrypster/grounder/internal/contextbuild"
	"github.com/scrypster/grounder/internal/llm"
	"github.com/scrypster/grounder/internal/resolver"
)

func main() {
	log.SetOutput(os.Stderr)
	log.SetPrefix("grounder: ")
	log.SetFlags(log.LstdFlags)

	configPath := flag.String("config", "", "path to grounder.yaml (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	store, err := connections.Open(connections.StoreConfig{
		Engine: cfg.Store.Engine,
		DSN:    cfg.Store.DSN,
		Path:   cfg.Store.Path,
	})
	if err != nil {
		log.Fatalf("failed to open knowledge store: %v", err)
	}
	defer store.Close()

	embedder, err := llm.NewEmbeddingGenerator(llm.ProviderConfig{
		Provider:   cfg.Embedding.Provider,
		APIKey:     cfg.Embedding.APIKey,
		Model:      cfg.Embedding.Model,
		BaseURL:    cfg.Embedding.BaseURL,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    cfg.Embedding.Timeout,
		RateLimit:  cfg.Embedding.RateLimit,
		CacheSize:  cfg.Embedding.CacheSize,
	})
	if err != nil {
		log.Fatalf("failed to create embedding provider: %v", err)
	}

	res, err := resolver.New(store, embedder, resolver.Config{
		Layer:             cfg.Resolver.Layer,
		FuzzyThreshold:    cfg.Resolver.FuzzyThreshold,
		SemanticThreshold: cfg.Resolver.SemanticThreshold,
		CandidateLimit:    cfg.Resolver.CandidateLimit,
	})
	if err != nil {
		log.Fatalf("failed to create resolver: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received %v, shutting down", sig)
		cancel()
	}()

	if err := run(ctx, res, os.Stdin, os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}
}

// run resolves each non-empty stdin line and writes the injected
// context as one indented JSON document per line of input.
func run(ctx context.Context, res *resolver.Resolver, in *os.File, out *os.File) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		rc := res.Resolve(ctx, line)
		injected := contextbuild.Build(rc)
		if err := enc.Encode(injected); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}
