package sqlite

// Schema is the base schema for the SQLite knowledge store. All
// statements are idempotent so the schema can be re-applied on every
// open.
//
// Embeddings are stored as little-endian float32 BLOBs; similarity is
// computed in-process (see cosineSimilarity), which is acceptable for
// the local/dev corpus sizes this backend targets.
const Schema = `
CREATE TABLE IF NOT EXISTS entities (
	id TEXT PRIMARY KEY,
	slug TEXT NOT NULL,
	name TEXT NOT NULL,
	type TEXT NOT NULL DEFAULT 'unknown',
	layer TEXT NOT NULL,
	metadata TEXT,
	embedding BLOB,
	embedding_dimension INTEGER,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_entities_layer ON entities(layer);
CREATE INDEX IF NOT EXISTS idx_entities_slug ON entities(slug);

CREATE TABLE IF NOT EXISTS glossary_terms (
	term TEXT NOT NULL,
	layer TEXT NOT NULL,
	entity_id TEXT NOT NULL REFERENCES entities(id),
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (term, layer)
);

CREATE INDEX IF NOT EXISTS idx_glossary_layer ON glossary_terms(layer);
`
