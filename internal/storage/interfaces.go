// Package storage provides the knowledge-store contracts consumed by
// the entity resolver.
//
// The store is treated as a remote collaborator: every method is one
// round trip against a data layer that owns the entities, the curated
// term glossary, and the fuzzy/vector indexes. Backends live in the
// postgres and sqlite subpackages and are interchangeable behind the
// KnowledgeStore interface.
package storage

import (
	"context"

	"github.com/scrypster/grounder/pkg/types"
)

// KnowledgeStore executes the tiered matching contracts against the
// knowledge graph. Tier semantics (glossary > exact > fuzzy >
// semantic) live inside the store; the resolver only decides which
// calls to make and how to classify the results.
type KnowledgeStore interface {
	// ResolveMentionsBatch executes tiers 1-3 for every mention in
	// one round trip. It may return zero, one, or several matches per
	// mention; matches for the same mention are ordered best first.
	ResolveMentionsBatch(ctx context.Context, mentions []string, opts ResolveOptions) ([]MentionMatch, error)

	// ResolveMention is the single-mention variant. When embedding is
	// non-nil the store additionally considers the semantic tier.
	ResolveMention(ctx context.Context, mention string, embedding []float32, opts ResolveOptions) ([]types.ResolvedEntity, error)

	// ResolveSemantic runs the semantic tier only: candidates whose
	// stored embedding is within opts.SemanticThreshold cosine
	// similarity of the given vector, ordered best first.
	ResolveSemantic(ctx context.Context, mention string, embedding []float32, opts ResolveOptions) ([]types.ResolvedEntity, error)

	// Close releases any resources held by the store.
	Close() error
}

// MentionMatch pairs one batch-resolved mention with a candidate
// entity. The same mention text appears once per candidate row.
type MentionMatch struct {
	// Mention is the mention text the candidate was matched for, as
	// sent in the batch call.
	Mention string

	// Entity is the candidate with its tier tag and confidence.
	Entity types.ResolvedEntity
}
