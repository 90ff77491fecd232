package headlines

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// DefaultStorePath is where the embedding and entity cache lives.
const DefaultStorePath = "headlines.db"

// EmbeddingStore caches provider results in SQLite. Rows are keyed by
// CacheKey so the same text embedded by a different model is a miss.
type EmbeddingStore struct {
	db *sql.DB
}

// OpenEmbeddingStore opens (and creates when missing) the cache database.
func OpenEmbeddingStore(path string) (*EmbeddingStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS embeddings (
		cache_key TEXT PRIMARY KEY,
		model TEXT NOT NULL,
		embedding_json TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS entities (
		cache_key TEXT PRIMARY KEY,
		deployment TEXT NOT NULL,
		entities_json TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_embeddings_model ON embeddings(model);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
		return nil, err
	}

	// Writers from concurrent extractors share one connection.
	db.SetMaxOpenConns(1)

	return &EmbeddingStore{db: db}, nil
}

func (s *EmbeddingStore) Close() error {
	return s.db.Close()
}

// CacheKey returns the hex sha256 of namespace and text.
func CacheKey(namespace, text string) string {
	h := sha256.New()
	h.Write([]byte(namespace))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Embedding returns the cached vector for key.
func (s *EmbeddingStore) Embedding(ctx context.Context, key string) ([]float64, bool, error) {
	var embeddingJSON string
	err := s.db.QueryRowContext(ctx, "SELECT embedding_json FROM embeddings WHERE cache_key = ?", key).Scan(&embeddingJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query embedding: %w", err)
	}

	var vector []float64
	if err := json.Unmarshal([]byte(embeddingJSON), &vector); err != nil {
		return nil, false, fmt.Errorf("failed to parse embedding: %w", err)
	}
	return vector, true, nil
}

// SaveEmbedding stores vector under key, replacing any previous row.
func (s *EmbeddingStore) SaveEmbedding(ctx context.Context, key, model string, vector []float64) error {
	embeddingJSON, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}

	insertSQL := `
	INSERT OR REPLACE INTO embeddings (cache_key, model, embedding_json)
	VALUES (?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, insertSQL, key, model, string(embeddingJSON)); err != nil {
		return fmt.Errorf("failed to insert embedding: %w", err)
	}
	return nil
}

// Entities returns the cached candidate terms for key.
func (s *EmbeddingStore) Entities(ctx context.Context, key string) ([]CandidateTerm, bool, error) {
	var entitiesJSON string
	err := s.db.QueryRowContext(ctx, "SELECT entities_json FROM entities WHERE cache_key = ?", key).Scan(&entitiesJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query entities: %w", err)
	}

	var terms []CandidateTerm
	if err := json.Unmarshal([]byte(entitiesJSON), &terms); err != nil {
		return nil, false, fmt.Errorf("failed to parse entities: %w", err)
	}
	return terms, true, nil
}

// SaveEntities stores terms under key, replacing any previous row.
func (s *EmbeddingStore) SaveEntities(ctx context.Context, key, deployment string, terms []CandidateTerm) error {
	if terms == nil {
		terms = []CandidateTerm{}
	}
	entitiesJSON, err := json.Marshal(terms)
	if err != nil {
		return fmt.Errorf("failed to marshal entities: %w", err)
	}

	insertSQL := `
	INSERT OR REPLACE INTO entities (cache_key, deployment, entities_json)
	VALUES (?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, insertSQL, key, deployment, string(entitiesJSON)); err != nil {
		return fmt.Errorf("failed to insert entities: %w", err)
	}
	return nil
}

// Counts returns the number of cached embeddings and entity lists.
func (s *EmbeddingStore) Counts(ctx context.Context) (embeddings, entities int, err error) {
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings").Scan(&embeddings); err != nil {
		return 0, 0, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entities").Scan(&entities); err != nil {
		return 0, 0, err
	}
	return embeddings, entities, nil
}

// CachedEmbedder serves vectors from an EmbeddingStore and sends only the
// misses to the wrapped Embedder.
type CachedEmbedder struct {
	store *EmbeddingStore
	next  Embedder
}

func NewCachedEmbedder(store *EmbeddingStore, next Embedder) *CachedEmbedder {
	return &CachedEmbedder{store: store, next: next}
}

func (c *CachedEmbedder) Model() string { return c.next.Model() }

func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	keys := make([]string, len(texts))
	var (
		misses  []string
		indexes []int
	)
	for i, text := range texts {
		keys[i] = CacheKey(c.next.Model(), text)
		vector, ok, err := c.store.Embedding(ctx, keys[i])
		if err != nil {
			return nil, err
		}
		if ok {
			out[i] = vector
			continue
		}
		misses = append(misses, text)
		indexes = append(indexes, i)
	}
	log.Info().Int("hits", len(texts)-len(misses)).Int("misses", len(misses)).Str("model", c.next.Model()).Msg("Embedding cache lookup")

	if len(misses) == 0 {
		return out, nil
	}

	embedded, err := c.next.Embed(ctx, misses)
	if err != nil {
		return nil, err
	}
	for k, i := range indexes {
		if k >= len(embedded) || len(embedded[k]) == 0 {
			continue
		}
		out[i] = embedded[k]
		if err := c.store.SaveEmbedding(ctx, keys[i], c.next.Model(), embedded[k]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
