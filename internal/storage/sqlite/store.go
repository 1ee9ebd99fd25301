// Package sqlite provides a SQLite implementation of the
// knowledge-store contracts for local development and tests.
//
// Unlike the PostgreSQL backend, matching logic lives here rather
// than in SQL functions: the glossary and exact tiers are plain
// lookups, the fuzzy tier scores candidates with in-process trigram
// similarity, and the semantic tier ranks stored embeddings by cosine
// similarity. This assumes a small local corpus.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scrypster/grounder/internal/storage"
	"github.com/scrypster/grounder/pkg/types"
)

// Ensure *Store implements storage.KnowledgeStore at compile time.
var _ storage.KnowledgeStore = (*Store)(nil)

// Tier confidence constants. The glossary is curated so an exact term
// hit is near-certain; an exact slug/name hit is slightly below it so
// glossary entries can override entity names.
const (
	glossaryConfidence    = 0.98
	entityExactConfidence = 0.95
)

// Store implements storage.KnowledgeStore using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) a SQLite knowledge store at the given
// path. Use ":memory:" for an ephemeral store.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer; a single connection
	// serialises access and avoids SQLITE_BUSY under concurrent load.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to enable WAL: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// ResolveMentionsBatch executes tiers 1-3 for every mention. SQLite is
// in-process, so "one round trip" degenerates to a per-mention loop
// over local queries with no network cost.
func (s *Store) ResolveMentionsBatch(ctx context.Context, mentions []string, opts storage.ResolveOptions) ([]storage.MentionMatch, error) {
	if opts.Layer == "" {
		return nil, storage.ErrMissingLayer
	}
	opts.Normalize()

	var matches []storage.MentionMatch
	for _, mention := range mentions {
		candidates, err := s.resolveTiers(ctx, mention, opts)
		if err != nil {
			return nil, err
		}
		for _, c := range candidates {
			matches = append(matches, storage.MentionMatch{Mention: mention, Entity: c})
		}
	}
	if matches == nil {
		matches = []storage.MentionMatch{}
	}
	return matches, nil
}

// ResolveMention is the single-mention variant. When embedding is
// non-nil and tiers 1-3 produce nothing, the semantic tier is
// consulted as well.
func (s *Store) ResolveMention(ctx context.Context, mention string, embedding []float32, opts storage.ResolveOptions) ([]types.ResolvedEntity, error) {
	if opts.Layer == "" {
		return nil, storage.ErrMissingLayer
	}
	if mention == "" {
		return nil, fmt.Errorf("%w: mention is required", storage.ErrInvalidInput)
	}
	opts.Normalize()

	candidates, err := s.resolveTiers(ctx, mention, opts)
	if err != nil {
		return nil, err
	}
	if len(candidates) > 0 || len(embedding) == 0 {
		return candidates, nil
	}

	return s.ResolveSemantic(ctx, mention, embedding, opts)
}

// ResolveSemantic ranks stored entity embeddings by cosine similarity
// against the given vector and admits those at or above the semantic
// threshold.
func (s *Store) ResolveSemantic(ctx context.Context, mention string, embedding []float32, opts storage.ResolveOptions) ([]types.ResolvedEntity, error) {
	if opts.Layer == "" {
		return nil, storage.ErrMissingLayer
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("%w: embedding is required", storage.ErrInvalidInput)
	}
	opts.Normalize()

	rows, err := s.queryEntities(ctx, opts, true)
	if err != nil {
		return nil, fmt.Errorf("sqlite: ResolveSemantic %q: %w", mention, err)
	}

	var candidates []types.ResolvedEntity
	for _, row := range rows {
		if len(row.embedding) == 0 {
			continue
		}
		sim := cosineSimilarity(embedding, row.embedding)
		if sim < opts.SemanticThreshold {
			continue
		}
		e := row.entity
		e.MatchSource = types.MatchEntitySemantic
		e.Confidence = sim
		candidates = append(candidates, e)
	}

	sortByConfidence(candidates)
	return truncate(candidates, opts.Limit), nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddEntity inserts or replaces an entity record. The embedding may be
// nil when the entity has not been embedded yet.
func (s *Store) AddEntity(ctx context.Context, e types.ResolvedEntity, layer string, embedding []float32) error {
	if e.EntityID == "" || e.Slug == "" || e.Name == "" {
		return fmt.Errorf("%w: entity id, slug and name are required", storage.ErrInvalidInput)
	}
	if layer == "" {
		return storage.ErrMissingLayer
	}

	var metadataJSON interface{}
	if len(e.Metadata) > 0 {
		data, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("sqlite: marshal metadata: %w", err)
		}
		metadataJSON = string(data)
	}

	var blob interface{}
	var dim interface{}
	if len(embedding) > 0 {
		blob = serializeEmbedding(embedding)
		dim = len(embedding)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entities (id, slug, name, type, layer, metadata, embedding, embedding_dimension)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			slug = excluded.slug,
			name = excluded.name,
			type = excluded.type,
			layer = excluded.layer,
			metadata = excluded.metadata,
			embedding = excluded.embedding,
			embedding_dimension = excluded.embedding_dimension,
			updated_at = CURRENT_TIMESTAMP
	`, e.EntityID, e.Slug, e.Name, string(e.Type), layer, metadataJSON, blob, dim)
	if err != nil {
		return fmt.Errorf("sqlite: AddEntity %q: %w", e.EntityID, err)
	}
	return nil
}

// AddGlossaryTerm maps a curated term to an entity within a layer.
func (s *Store) AddGlossaryTerm(ctx context.Context, term, layer, entityID string) error {
	if term == "" || entityID == "" {
		return fmt.Errorf("%w: term and entity id are required", storage.ErrInvalidInput)
	}
	if layer == "" {
		return storage.ErrMissingLayer
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO glossary_terms (term, layer, entity_id)
		VALUES (?, ?, ?)
		ON CONFLICT(term, layer) DO UPDATE SET entity_id = excluded.entity_id
	`, strings.ToLower(strings.TrimSpace(term)), layer, entityID)
	if err != nil {
		return fmt.Errorf("sqlite: AddGlossaryTerm %q: %w", term, err)
	}
	return nil
}

// resolveTiers runs tiers 1-3 for one mention, stopping at the first
// tier that produces candidates.
func (s *Store) resolveTiers(ctx context.Context, mention string, opts storage.ResolveOptions) ([]types.ResolvedEntity, error) {
	normalized := strings.ToLower(strings.TrimSpace(mention))
	if normalized == "" {
		return nil, nil
	}

	// Tier 1: glossary.
	glossary, err := s.glossaryLookup(ctx, normalized, opts)
	if err != nil {
		return nil, err
	}
	if len(glossary) > 0 {
		return glossary, nil
	}

	// Tier 2: exact slug/name.
	exact, err := s.exactLookup(ctx, normalized, opts)
	if err != nil {
		return nil, err
	}
	if len(exact) > 0 {
		return exact, nil
	}

	// Tier 3: trigram fuzzy.
	return s.fuzzyLookup(ctx, mention, opts)
}

func (s *Store) glossaryLookup(ctx context.Context, normalized string, opts storage.ResolveOptions) ([]types.ResolvedEntity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.slug, e.name, e.type, e.metadata
		FROM glossary_terms g
		JOIN entities e ON e.id = g.entity_id
		WHERE g.term = ? AND g.layer = ?
	`, normalized, opts.Layer)
	if err != nil {
		return nil, fmt.Errorf("sqlite: glossary lookup %q: %w", normalized, err)
	}
	defer func() { _ = rows.Close() }()

	entities, err := scanEntities(rows, types.MatchGlossary, glossaryConfidence)
	if err != nil {
		return nil, err
	}
	return filterByType(entities, opts.EntityTypes), nil
}

func (s *Store) exactLookup(ctx context.Context, normalized string, opts storage.ResolveOptions) ([]types.ResolvedEntity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, slug, name, type, metadata
		FROM entities
		WHERE layer = ? AND (LOWER(slug) = ? OR LOWER(name) = ?)
	`, opts.Layer, normalized, normalized)
	if err != nil {
		return nil, fmt.Errorf("sqlite: exact lookup %q: %w", normalized, err)
	}
	defer func() { _ = rows.Close() }()

	entities, err := scanEntities(rows, types.MatchEntityExact, entityExactConfidence)
	if err != nil {
		return nil, err
	}
	return filterByType(entities, opts.EntityTypes), nil
}

func (s *Store) fuzzyLookup(ctx context.Context, mention string, opts storage.ResolveOptions) ([]types.ResolvedEntity, error) {
	rows, err := s.queryEntities(ctx, opts, false)
	if err != nil {
		return nil, fmt.Errorf("sqlite: fuzzy lookup %q: %w", mention, err)
	}

	var candidates []types.ResolvedEntity
	for _, row := range rows {
		sim := trigramSimilarity(mention, row.entity.Name)
		if slugSim := trigramSimilarity(mention, row.entity.Slug); slugSim > sim {
			sim = slugSim
		}
		if sim < opts.FuzzyThreshold {
			continue
		}
		e := row.entity
		e.MatchSource = types.MatchEntityFuzzy
		e.Confidence = sim
		candidates = append(candidates, e)
	}

	sortByConfidence(candidates)
	return truncate(candidates, opts.Limit), nil
}

// entityRow carries a scanned entity plus its decoded embedding.
type entityRow struct {
	entity    types.ResolvedEntity
	embedding []float32
}

// queryEntities fetches all entities in the layer (optionally with
// embeddings decoded), filtered by entity type.
func (s *Store) queryEntities(ctx context.Context, opts storage.ResolveOptions, withEmbeddings bool) ([]entityRow, error) {
	query := `SELECT id, slug, name, type, metadata, embedding FROM entities WHERE layer = ?`
	if withEmbeddings {
		query += ` AND embedding IS NOT NULL`
	}

	rows, err := s.db.QueryContext(ctx, query, opts.Layer)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	typeFilter := make(map[types.EntityType]bool, len(opts.EntityTypes))
	for _, t := range opts.EntityTypes {
		typeFilter[t] = true
	}

	var out []entityRow
	for rows.Next() {
		var row entityRow
		var entityType string
		var metadataJSON sql.NullString
		var blob []byte

		if err := rows.Scan(&row.entity.EntityID, &row.entity.Slug, &row.entity.Name,
			&entityType, &metadataJSON, &blob); err != nil {
			return nil, fmt.Errorf("sqlite: scan entity: %w", err)
		}

		row.entity.Type = types.EntityType(entityType)
		if len(typeFilter) > 0 && !typeFilter[row.entity.Type] {
			continue
		}
		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &row.entity.Metadata); err != nil {
				return nil, fmt.Errorf("sqlite: unmarshal metadata: %w", err)
			}
		}
		if len(blob) > 0 {
			row.embedding = deserializeEmbedding(blob)
		}

		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: rows error: %w", err)
	}

	return out, nil
}

// scanEntities reads id/slug/name/type/metadata rows, stamping each
// with the given match source and confidence.
func scanEntities(rows *sql.Rows, source types.MatchSource, confidence float64) ([]types.ResolvedEntity, error) {
	var entities []types.ResolvedEntity

	for rows.Next() {
		var e types.ResolvedEntity
		var entityType string
		var metadataJSON sql.NullString

		if err := rows.Scan(&e.EntityID, &e.Slug, &e.Name, &entityType, &metadataJSON); err != nil {
			return nil, fmt.Errorf("sqlite: scan entity: %w", err)
		}

		e.Type = types.EntityType(entityType)
		e.MatchSource = source
		e.Confidence = confidence
		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &e.Metadata); err != nil {
				return nil, fmt.Errorf("sqlite: unmarshal metadata: %w", err)
			}
		}

		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: rows error: %w", err)
	}

	return entities, nil
}

func filterByType(entities []types.ResolvedEntity, allowed []types.EntityType) []types.ResolvedEntity {
	if len(allowed) == 0 {
		return entities
	}
	set := make(map[types.EntityType]bool, len(allowed))
	for _, t := range allowed {
		set[t] = true
	}
	var out []types.ResolvedEntity
	for _, e := range entities {
		if set[e.Type] {
			out = append(out, e)
		}
	}
	return out
}

func sortByConfidence(entities []types.ResolvedEntity) {
	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].Confidence > entities[j].Confidence
	})
}

func truncate(entities []types.ResolvedEntity, limit int) []types.ResolvedEntity {
	if limit > 0 && len(entities) > limit {
		return entities[:limit]
	}
	return entities
}

// serializeEmbedding encodes a vector as little-endian float32 bytes.
func serializeEmbedding(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// deserializeEmbedding decodes little-endian float32 bytes; trailing
// partial values are dropped.
func deserializeEmbedding(buf []byte) []float32 {
	n := len(buf) / 4
	vec := make([]float32, n)
	for i := 0; i < n; i++ {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
