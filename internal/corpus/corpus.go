package corpus

import (
	"fmt"
)

// Index pairs each corpus snippet with its embedding, index for index.
// Both slices are fixed at construction and shared read-only by request
// handlers; nothing mutates them after startup.
type Index struct {
	snippets   []string
	embeddings [][]float32
	dimension  int
}

// NewIndex builds an Index from parallel snippet/embedding slices.
func NewIndex(snippets []string, embeddings [][]float32) (*Index, error) {
	if len(snippets) == 0 {
		return nil, fmt.Errorf("corpus is empty")
	}
	if len(snippets) != len(embeddings) {
		return nil, fmt.Errorf("snippets and embeddings length mismatch: %d != %d", len(snippets), len(embeddings))
	}
	dim := len(embeddings[0])
	if dim == 0 {
		return nil, fmt.Errorf("embedding dimension is zero")
	}
	for i, e := range embeddings {
		if len(e) != dim {
			return nil, fmt.Errorf("embedding %d has dimension %d, want %d", i, len(e), dim)
		}
	}
	return &Index{snippets: snippets, embeddings: embeddings, dimension: dim}, nil
}

func (ix *Index) Len() int { return len(ix.snippets) }

func (ix *Index) Dimension() int { return ix.dimension }

// Snippet returns the corpus entry at idx.
func (ix *Index) Snippet(idx int) string { return ix.snippets[idx] }

// Nearest scans every corpus embedding and returns the index with the
// highest dot product against query, together with that score. Ties go to
// the lowest index. There is no threshold: some snippet is always returned,
// even when similarity is uniformly low.
func (ix *Index) Nearest(query []float32) (int, float32, error) {
	if len(query) != ix.dimension {
		return 0, 0, fmt.Errorf("query dimension %d, corpus dimension %d", len(query), ix.dimension)
	}

	best := 0
	bestScore := Dot(query, ix.embeddings[0])
	for i := 1; i < len(ix.embeddings); i++ {
		if score := Dot(query, ix.embeddings[i]); score > bestScore {
			best = i
			bestScore = score
		}
	}
	return best, bestScore, nil
}

// Dot computes the dot product of two vectors of equal length.
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
