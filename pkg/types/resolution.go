// Package types defines the core data structures for the Grounder
// entity resolution engine: mentions extracted from raw text, the
// candidates matched against the knowledge graph, and the final
// context artifact handed to downstream tool-calling code.
package types

// EntityType is a heuristic hint about what kind of entity a mention
// refers to. It is never authoritative; the knowledge store's record
// is the source of truth for a resolved entity's type.
type EntityType string

// Entity type constants
const (
	EntityTypePerson  EntityType = "person"
	EntityTypeCompany EntityType = "company"
	EntityTypeProject EntityType = "project"
	EntityTypeUnknown EntityType = "unknown"
)

// MatchSource identifies which resolution tier produced a candidate.
type MatchSource string

// Match source constants, ordered from cheapest/most-trusted to most
// expensive.
const (
	// MatchGlossary is an exact case-insensitive hit against the
	// curated term glossary (tier 1).
	MatchGlossary MatchSource = "glossary"

	// MatchEntityExact is an exact match on an entity's canonical
	// slug or name (tier 2).
	MatchEntityExact MatchSource = "entity_exact"

	// MatchEntityFuzzy is a trigram/edit-distance similarity match
	// (tier 3).
	MatchEntityFuzzy MatchSource = "entity_fuzzy"

	// MatchEntitySemantic is an embedding similarity match (tier 4).
	MatchEntitySemantic MatchSource = "entity_semantic"
)

// EntityMention is a candidate reference found in raw input text.
// Created by the extractor, immutable, consumed once by the resolver.
type EntityMention struct {
	// Text is the mention as it appeared in the input.
	Text string `json:"text"`

	// StartIndex and EndIndex are byte offsets into the original
	// input string.
	StartIndex int `json:"start_index"`
	EndIndex   int `json:"end_index"`

	// Context is a fixed-radius window of text around the mention,
	// used for type inference.
	Context string `json:"context"`

	// InferredType is a lexical hint (person/company/project) or
	// EntityTypeUnknown. Hint only, never authoritative.
	InferredType EntityType `json:"inferred_type"`
}

// ResolvedEntity is a grounded match against the knowledge graph.
// Never mutated after creation.
type ResolvedEntity struct {
	EntityID    string                 `json:"entity_id"`
	Slug        string                 `json:"slug"`
	Name        string                 `json:"name"`
	Type        EntityType             `json:"type"`
	MatchSource MatchSource            `json:"match_source"`
	Confidence  float64                `json:"confidence"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// EntityResolution is the per-mention decision unit. Exactly one
// resolution exists per distinct case-folded mention text per resolve
// call, and exactly one of {SelectedEntity set, Ambiguous, unresolved}
// holds.
type EntityResolution struct {
	// Mention is the originating extracted mention.
	Mention EntityMention `json:"mention"`

	// Resolved is true when SelectedEntity is set.
	Resolved bool `json:"resolved"`

	// Candidates is the full ordered candidate list, best first.
	Candidates []ResolvedEntity `json:"candidates,omitempty"`

	// SelectedEntity is the chosen best candidate, nil when the
	// mention is ambiguous or unresolved.
	SelectedEntity *ResolvedEntity `json:"selected_entity,omitempty"`

	// Ambiguous is true when multiple candidates are too close in
	// confidence to pick one automatically.
	Ambiguous bool `json:"ambiguous"`
}

// AmbiguousMention pairs a mention's text with its competing
// candidates so a caller can ask for disambiguation.
type AmbiguousMention struct {
	Mention    string           `json:"mention"`
	Candidates []ResolvedEntity `json:"candidates"`
}

// ResolvedContext is the resolver's full output for one input string.
// Immutable once returned; the sole input to the context builder.
type ResolvedContext struct {
	// ResolutionID correlates log lines for one resolve call.
	ResolutionID string `json:"resolution_id"`

	// OriginalText is the raw input the mentions were extracted from.
	OriginalText string `json:"original_text"`

	// Mentions is every mention the extractor proposed.
	Mentions []EntityMention `json:"mentions"`

	// Resolutions maps lower-cased mention text to its resolution.
	Resolutions map[string]*EntityResolution `json:"resolutions"`

	// GroundedEntities holds one entry per mention that resolved
	// unambiguously.
	GroundedEntities []ResolvedEntity `json:"grounded_entities"`

	// AmbiguousEntities holds mentions with competing candidates.
	AmbiguousEntities []AmbiguousMention `json:"ambiguous_entities"`

	// UnresolvedMentions holds the raw text of mentions no tier
	// could match.
	UnresolvedMentions []string `json:"unresolved_mentions"`

	// EmbeddingsUsed counts actual embedding provider invocations
	// (cache hits do not count).
	EmbeddingsUsed int `json:"embeddings_used"`
}

// EntityRef is the compact entity record registered in the
// InjectedContext entity map for parameter substitution.
type EntityRef struct {
	ID   string     `json:"id"`
	Slug string     `json:"slug"`
	Name string     `json:"name"`
	Type EntityType `json:"type"`
}

// InjectedContext is the final artifact this subsystem exposes to the
// rest of the application.
type InjectedContext struct {
	// SystemContext is a prose block listing grounded entities and
	// unresolved mentions, meant for prompt injection.
	SystemContext string `json:"system_context"`

	// EntityMap maps case-folded mention text to its grounded
	// entity, for parameter substitution into tool calls.
	EntityMap map[string]EntityRef `json:"entity_map"`

	// ClarificationNeeded is true when at least one mention was
	// ambiguous; ClarificationPrompt then asks the caller to pick
	// among the first ambiguous mention's candidates.
	ClarificationNeeded bool   `json:"clarification_needed"`
	ClarificationPrompt string `json:"clarification_prompt,omitempty"`

	// CanTraverseNetwork reports whether the request may be answered
	// from general knowledge outside the entity graph.
	CanTraverseNetwork bool `json:"can_traverse_network"`
}
