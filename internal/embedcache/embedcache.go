package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
)

const compress = false

// Cache persists corpus embeddings between restarts so an unchanged corpus
// does not get re-embedded at every startup. It is only touched during
// startup, never on the request path.
type Cache struct {
	db *chromem.DB
}

// Open creates or reopens a persistent cache under dir.
func Open(dir string) (*Cache, error) {
	db, err := chromem.NewPersistentDB(dir, compress)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Fingerprint identifies a corpus/model pair. Any change to the snippets,
// their order, or the embedding model produces a different collection.
func Fingerprint(snippets []string, model string) string {
	h := sha256.New()
	h.Write([]byte(model))
	for _, s := range snippets {
		h.Write([]byte{0})
		h.Write([]byte(s))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Load returns the cached embedding matrix for fingerprint, or ok=false when
// the cache has no complete entry.
func (c *Cache) Load(ctx context.Context, fingerprint string, n int) ([][]float32, bool) {
	col := c.db.GetCollection(collectionName(fingerprint), nil)
	if col == nil {
		return nil, false
	}
	if col.Count() != n {
		log.Warn().Str("fingerprint", fingerprint).Msg("Embedding cache entry is incomplete, re-embedding")
		return nil, false
	}

	matrix := make([][]float32, n)
	for i := 0; i < n; i++ {
		doc, err := col.GetByID(ctx, strconv.Itoa(i))
		if err != nil {
			log.Warn().Err(err).Int("idx", i).Msg("Embedding cache read failed, re-embedding")
			return nil, false
		}
		norm, err := strconv.ParseFloat(doc.Metadata[normKey], 32)
		if err != nil {
			log.Warn().Err(err).Int("idx", i).Msg("Embedding cache entry has no norm, re-embedding")
			return nil, false
		}
		matrix[i] = rescale(doc.Embedding, float32(norm))
	}
	return matrix, true
}

const normKey = "norm"

// chromem unit-normalizes stored vectors, so Store records each vector's
// original norm and Load rescales with it. Retrieval must run against the
// same matrix whether the cache was warm or cold.
func rescale(unit []float32, norm float32) []float32 {
	vec := make([]float32, len(unit))
	if norm == 0 {
		return vec
	}
	for i, v := range unit {
		vec[i] = v * norm
	}
	return vec
}

func vectorNorm(vec []float32) float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return float32(math.Sqrt(sum))
}

// Store writes the matrix under fingerprint, replacing any stale entry.
func (c *Cache) Store(ctx context.Context, fingerprint string, snippets []string, matrix [][]float32) error {
	if len(snippets) != len(matrix) {
		return fmt.Errorf("snippets and embeddings length mismatch")
	}

	name := collectionName(fingerprint)
	if c.db.GetCollection(name, nil) != nil {
		if err := c.db.DeleteCollection(name); err != nil {
			return fmt.Errorf("failed to drop stale cache collection: %w", err)
		}
	}
	col, err := c.db.CreateCollection(name, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create cache collection: %w", err)
	}

	docs := make([]chromem.Document, len(snippets))
	for i, s := range snippets {
		norm := vectorNorm(matrix[i])
		// chromem normalizes on insert; give it a copy so the caller's
		// matrix stays untouched.
		emb := make([]float32, len(matrix[i]))
		copy(emb, matrix[i])
		docs[i] = chromem.Document{
			ID:        strconv.Itoa(i),
			Content:   s,
			Metadata:  map[string]string{normKey: strconv.FormatFloat(float64(norm), 'e', -1, 32)},
			Embedding: emb,
		}
	}
	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents to cache: %w", err)
	}
	return nil
}

func collectionName(fingerprint string) string {
	return "corpus-" + fingerprint
}
