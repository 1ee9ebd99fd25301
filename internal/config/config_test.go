package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GROUNDER_STORE_ENGINE", "GROUNDER_STORE_DSN", "GROUNDER_STORE_PATH",
		"GROUNDER_EMBEDDING_PROVIDER", "GROUNDER_EMBEDDING_BASE_URL",
		"GROUNDER_EMBEDDING_MODEL", "GROUNDER_EMBEDDING_API_KEY",
		"GROUNDER_EMBEDDING_DIMENSIONS", "GROUNDER_EMBEDDING_CACHE_SIZE",
		"GROUNDER_EMBEDDING_RATE_LIMIT", "GROUNDER_EMBEDDING_TIMEOUT",
		"GROUNDER_LAYER", "GROUNDER_FUZZY_THRESHOLD",
		"GROUNDER_SEMANTIC_THRESHOLD", "GROUNDER_CANDIDATE_LIMIT",
	} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg := LoadFromEnv()

	assert.Equal(t, "sqlite", cfg.Store.Engine)
	assert.Equal(t, "./grounder.db", cfg.Store.Path)
	assert.Equal(t, "", cfg.Embedding.Provider)
	assert.Equal(t, 30*time.Second, cfg.Embedding.Timeout)
	assert.Equal(t, 1000, cfg.Embedding.CacheSize)
	assert.Equal(t, "default", cfg.Resolver.Layer)
	assert.Equal(t, 0.3, cfg.Resolver.FuzzyThreshold)
	assert.Equal(t, 0.7, cfg.Resolver.SemanticThreshold)
	assert.Equal(t, 5, cfg.Resolver.CandidateLimit)

	assert.NoError(t, cfg.Validate())
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROUNDER_STORE_ENGINE", "postgres")
	t.Setenv("GROUNDER_STORE_DSN", "postgres://grounder:x@localhost/grounder")
	t.Setenv("GROUNDER_EMBEDDING_PROVIDER", "openai")
	t.Setenv("GROUNDER_EMBEDDING_TIMEOUT", "10s")
	t.Setenv("GROUNDER_LAYER", "work")
	t.Setenv("GROUNDER_FUZZY_THRESHOLD", "0.5")
	t.Setenv("GROUNDER_CANDIDATE_LIMIT", "10")

	cfg := LoadFromEnv()

	assert.Equal(t, "postgres", cfg.Store.Engine)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, 10*time.Second, cfg.Embedding.Timeout)
	assert.Equal(t, "work", cfg.Resolver.Layer)
	assert.Equal(t, 0.5, cfg.Resolver.FuzzyThreshold)
	assert.Equal(t, 10, cfg.Resolver.CandidateLimit)

	assert.NoError(t, cfg.Validate())
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "grounder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  engine: sqlite
  path: /var/lib/grounder/grounder.db
embedding:
  provider: ollama
  model: nomic-embed-text
resolver:
  layer: work
  fuzzy_threshold: 0.4
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/grounder/grounder.db", cfg.Store.Path)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, "work", cfg.Resolver.Layer)
	assert.Equal(t, 0.4, cfg.Resolver.FuzzyThreshold)

	// Unset keys keep their defaults.
	assert.Equal(t, 0.7, cfg.Resolver.SemanticThreshold)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROUNDER_LAYER", "from-env")

	path := filepath.Join(t.TempDir(), "grounder.yaml")
	require.NoError(t, os.WriteFile(path, []byte("resolver:\n  layer: from-file\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Resolver.Layer)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := defaults()
	cfg.Resolver.Layer = ""
	assert.Error(t, cfg.Validate())

	cfg = defaults()
	cfg.Store.Engine = "postgres"
	assert.Error(t, cfg.Validate(), "postgres without DSN must fail")
	cfg.Store.DSN = "postgres://localhost/grounder"
	assert.NoError(t, cfg.Validate())

	cfg = defaults()
	cfg.Store.Engine = "cassandra"
	assert.Error(t, cfg.Validate())
}
