// Package resolver grounds extracted entity mentions against the
// knowledge store through a four-tier matching cascade: glossary,
// exact, fuzzy, and — only when the cheap tiers produce nothing —
// semantic embedding similarity.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/scrypster/grounder/internal/extract"
	"github.com/scrypster/grounder/internal/llm"
	"github.com/scrypster/grounder/internal/storage"
	"github.com/scrypster/grounder/pkg/types"
)

// Ambiguity constants. A mention is ambiguous when a runner-up sits
// within ambiguityRatio of the top candidate's confidence, unless the
// top alone exceeds certainConfidence. Changing either changes which
// inputs trigger clarification prompts.
const (
	ambiguityRatio    = 0.9
	certainConfidence = 0.9
)

// Config tunes a Resolver. Layer is required; everything else has a
// working default.
type Config struct {
	// Layer is the privacy/partition scope for all store calls.
	Layer string

	// EntityTypes restricts matching to the given types (empty = all).
	EntityTypes []types.EntityType

	// FuzzyThreshold is the tier-3 admission threshold
	// (0 = storage.DefaultFuzzyThreshold).
	FuzzyThreshold float64

	// SemanticThreshold is the tier-4 admission threshold
	// (0 = storage.DefaultSemanticThreshold).
	SemanticThreshold float64

	// CandidateLimit caps candidates per mention (0 = store default).
	CandidateLimit int
}

// Resolver runs the resolution cascade. Safe for concurrent use: it
// holds no per-call state, and the embedding cache (when the embedder
// is a CachingEmbedder) guards itself.
type Resolver struct {
	store    storage.KnowledgeStore
	embedder llm.EmbeddingGenerator // nil disables the semantic tier
	opts     storage.ResolveOptions
}

// New creates a Resolver. A nil store or empty layer is a programmer
// error and fails here rather than per call. A nil embedder is
// allowed and disables the semantic tier.
func New(store storage.KnowledgeStore, embedder llm.EmbeddingGenerator, cfg Config) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("resolver: knowledge store is required")
	}
	if cfg.Layer == "" {
		return nil, fmt.Errorf("resolver: %w", storage.ErrMissingLayer)
	}

	opts := storage.ResolveOptions{
		Layer:             cfg.Layer,
		EntityTypes:       cfg.EntityTypes,
		FuzzyThreshold:    cfg.FuzzyThreshold,
		SemanticThreshold: cfg.SemanticThreshold,
		Limit:             cfg.CandidateLimit,
	}
	opts.Normalize()

	return &Resolver{
		store:    store,
		embedder: embedder,
		opts:     opts,
	}, nil
}

// Resolve extracts mentions from input and grounds them against the
// knowledge store. It never fails for well-formed input: store and
// embedding errors are logged and degrade the affected mentions to
// unresolved.
func (r *Resolver) Resolve(ctx context.Context, input string) *types.ResolvedContext {
	rc := &types.ResolvedContext{
		ResolutionID:       uuid.New().String(),
		OriginalText:       input,
		Resolutions:        make(map[string]*types.EntityResolution),
		GroundedEntities:   []types.ResolvedEntity{},
		AmbiguousEntities:  []types.AmbiguousMention{},
		UnresolvedMentions: []string{},
	}

	mentions := extract.Mentions(input)
	rc.Mentions = mentions
	if len(mentions) == 0 {
		return rc
	}

	// One resolution per distinct case-folded mention text, first
	// occurrence wins.
	byKey := make(map[string]types.EntityMention, len(mentions))
	var keys []string
	var texts []string
	for _, m := range mentions {
		key := strings.ToLower(m.Text)
		if _, ok := byKey[key]; ok {
			continue
		}
		byKey[key] = m
		keys = append(keys, key)
		texts = append(texts, m.Text)
	}

	// Tiers 1-3 for all mentions in one round trip. A failed batch
	// degrades every mention to zero candidates rather than erroring.
	candidates := make(map[string][]types.ResolvedEntity, len(keys))
	matches, err := r.store.ResolveMentionsBatch(ctx, texts, r.opts)
	if err != nil {
		log.Printf("resolver: [%s] batch resolution failed (all mentions degrade to unresolved): %v", rc.ResolutionID, err)
	} else {
		for _, m := range matches {
			key := strings.ToLower(m.Mention)
			candidates[key] = append(candidates[key], m.Entity)
		}
	}

	// Semantic tier, only for mentions the batch produced nothing
	// for, and only when an embedder is configured. Calls run
	// sequentially; each failure is isolated to its mention.
	if r.embedder != nil {
		for _, key := range keys {
			if len(candidates[key]) > 0 {
				continue
			}
			semantic := r.resolveSemantic(ctx, rc, byKey[key].Text)
			if len(semantic) > 0 {
				candidates[key] = semantic
			}
		}
	}

	for _, key := range keys {
		mention := byKey[key]
		resolution := classify(mention, candidates[key])
		rc.Resolutions[key] = resolution

		switch {
		case resolution.Resolved:
			rc.GroundedEntities = append(rc.GroundedEntities, *resolution.SelectedEntity)
		case resolution.Ambiguous:
			rc.AmbiguousEntities = append(rc.AmbiguousEntities, types.AmbiguousMention{
				Mention:    mention.Text,
				Candidates: competing(resolution.Candidates),
			})
		default:
			rc.UnresolvedMentions = append(rc.UnresolvedMentions, mention.Text)
		}
	}

	return rc
}

// ResolveSingle grounds one mention outside the full pipeline and
// returns the best match, or nil when nothing matched. Store and
// embedding failures degrade to nil; only an empty mention is an
// error.
func (r *Resolver) ResolveSingle(ctx context.Context, mention string, entityTypes []types.EntityType) (*types.ResolvedEntity, error) {
	if strings.TrimSpace(mention) == "" {
		return nil, fmt.Errorf("resolver: %w: mention is required", storage.ErrInvalidInput)
	}

	opts := r.opts
	if len(entityTypes) > 0 {
		opts.EntityTypes = entityTypes
	}

	candidates, err := r.store.ResolveMention(ctx, mention, nil, opts)
	if err != nil {
		log.Printf("resolver: ResolveSingle %q store call failed: %v", mention, err)
		return nil, nil
	}
	// Any tier 1-3 candidate short-circuits the embedding path, even
	// at low confidence.
	if len(candidates) > 0 {
		best := topCandidate(candidates)
		return &best, nil
	}

	if r.embedder == nil {
		return nil, nil
	}

	vec, err := r.embedder.Embed(ctx, mention)
	if err != nil {
		log.Printf("resolver: ResolveSingle %q embedding failed: %v", mention, err)
		return nil, nil
	}

	semantic, err := r.store.ResolveSemantic(ctx, mention, vec, opts)
	if err != nil {
		log.Printf("resolver: ResolveSingle %q semantic call failed: %v", mention, err)
		return nil, nil
	}
	if len(semantic) == 0 {
		return nil, nil
	}

	best := topCandidate(semantic)
	return &best, nil
}

// resolveSemantic generates an embedding for one mention and queries
// the semantic tier. Every failure is logged and degrades to no
// candidates for this mention only. EmbeddingsUsed counts actual
// provider invocations; cache hits are free.
func (r *Resolver) resolveSemantic(ctx context.Context, rc *types.ResolvedContext, mention string) []types.ResolvedEntity {
	var vec []float32
	var err error

	if hitAware, ok := r.embedder.(llm.HitAwareEmbedder); ok {
		var hit bool
		vec, hit, err = hitAware.EmbedHit(ctx, mention)
		if err == nil && !hit {
			rc.EmbeddingsUsed++
		}
	} else {
		vec, err = r.embedder.Embed(ctx, mention)
		if err == nil {
			rc.EmbeddingsUsed++
		}
	}
	if err != nil {
		log.Printf("resolver: [%s] embedding for %q failed (mention degrades to unresolved): %v", rc.ResolutionID, mention, err)
		return nil
	}

	semantic, err := r.store.ResolveSemantic(ctx, mention, vec, r.opts)
	if err != nil {
		log.Printf("resolver: [%s] semantic resolution for %q failed: %v", rc.ResolutionID, mention, err)
		return nil
	}
	return semantic
}

// classify turns a mention's candidate set into exactly one of the
// three mutually exclusive outcomes: selected, ambiguous, or
// unresolved.
func classify(mention types.EntityMention, candidates []types.ResolvedEntity) *types.EntityResolution {
	resolution := &types.EntityResolution{
		Mention:    mention,
		Candidates: sortedByConfidence(candidates),
	}

	if len(resolution.Candidates) == 0 {
		return resolution
	}

	top := resolution.Candidates[0]
	if isAmbiguous(resolution.Candidates) {
		resolution.Ambiguous = true
		return resolution
	}

	resolution.Resolved = true
	resolution.SelectedEntity = &top
	return resolution
}

// isAmbiguous applies the ambiguity rule: at least two candidates
// with the runner-up inside ambiguityRatio of the top confidence, and
// the top itself not past certainConfidence.
func isAmbiguous(sorted []types.ResolvedEntity) bool {
	if len(sorted) < 2 {
		return false
	}
	top := sorted[0].Confidence
	if top > certainConfidence {
		return false
	}
	return sorted[1].Confidence >= top*ambiguityRatio
}

// competing returns the candidates inside the ambiguity band of the
// top candidate — the set a clarification prompt should offer.
func competing(sorted []types.ResolvedEntity) []types.ResolvedEntity {
	if len(sorted) == 0 {
		return nil
	}
	cutoff := sorted[0].Confidence * ambiguityRatio
	var out []types.ResolvedEntity
	for _, c := range sorted {
		if c.Confidence >= cutoff {
			out = append(out, c)
		}
	}
	return out
}

func sortedByConfidence(candidates []types.ResolvedEntity) []types.ResolvedEntity {
	out := make([]types.ResolvedEntity, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

func topCandidate(candidates []types.ResolvedEntity) types.ResolvedEntity {
	return sortedByConfidence(candidates)[0]
}
