package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIndexValidation(t *testing.T) {
	tests := []struct {
		name       string
		snippets   []string
		embeddings [][]float32
		wantErr    bool
	}{
		{"empty corpus", nil, nil, true},
		{"length mismatch", []string{"a", "b"}, [][]float32{{1, 0}}, true},
		{"zero dimension", []string{"a"}, [][]float32{{}}, true},
		{"ragged dimensions", []string{"a", "b"}, [][]float32{{1, 0}, {1, 0, 0}}, true},
		{"valid", []string{"a", "b"}, [][]float32{{1, 0}, {0, 1}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix, err := NewIndex(tt.snippets, tt.embeddings)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, len(tt.snippets), ix.Len())
			assert.Equal(t, len(tt.embeddings[0]), ix.Dimension())
		})
	}
}

func TestNearestReturnsArgmax(t *testing.T) {
	ix, err := NewIndex(
		[]string{"first", "second", "third"},
		[][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0.5, 0.5, 0},
		},
	)
	assert.NoError(t, err)

	idx, score, err := ix.Nearest([]float32{0, 1, 0})
	assert.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "second", ix.Snippet(idx))

	// The winner dominates every other entry.
	q := []float32{0, 1, 0}
	for i := 0; i < ix.Len(); i++ {
		assert.GreaterOrEqual(t, score, Dot(q, ix.embeddings[i]))
	}
}

func TestNearestTieBreaksToLowestIndex(t *testing.T) {
	ix, err := NewIndex(
		[]string{"a", "b", "c"},
		[][]float32{
			{0, 1},
			{1, 0},
			{1, 0},
		},
	)
	assert.NoError(t, err)

	idx, _, err := ix.Nearest([]float32{1, 0})
	assert.NoError(t, err)
	assert.Equal(t, 1, idx, "ties must resolve to the first occurrence")
}

func TestNearestIsDeterministic(t *testing.T) {
	ix, err := NewIndex(
		[]string{"a", "b", "c", "d"},
		[][]float32{
			{0.1, 0.9},
			{0.9, 0.1},
			{0.5, 0.5},
			{0.3, 0.7},
		},
	)
	assert.NoError(t, err)

	q := []float32{0.6, 0.4}
	first, firstScore, err := ix.Nearest(q)
	assert.NoError(t, err)
	for i := 0; i < 10; i++ {
		idx, score, err := ix.Nearest(q)
		assert.NoError(t, err)
		assert.Equal(t, first, idx)
		assert.Equal(t, firstScore, score)
	}
}

func TestNearestDimensionMismatch(t *testing.T) {
	ix, err := NewIndex([]string{"a"}, [][]float32{{1, 0, 0}})
	assert.NoError(t, err)

	_, _, err = ix.Nearest([]float32{1, 0})
	assert.Error(t, err)
}

func TestDot(t *testing.T) {
	assert.Equal(t, float32(11), Dot([]float32{1, 2}, []float32{3, 4}))
	assert.Equal(t, float32(0), Dot([]float32{1, 0}, []float32{0, 1}))
	assert.Equal(t, float32(-2), Dot([]float32{1, -1}, []float32{-1, 1}))
}
