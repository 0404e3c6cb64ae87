package embedding

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"health-rag/internal/config"
)

type fakeBatchEmbedder struct {
	batches [][]string
	fail    bool
}

func (f *fakeBatchEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if f.fail {
		return nil, errors.New("embedder down")
	}
	f.batches = append(f.batches, texts)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i]))}
	}
	return out, nil
}

func TestEmbedCorpusBatchesInOrder(t *testing.T) {
	snippets := make([]string, 7)
	for i := range snippets {
		snippets[i] = fmt.Sprintf("snippet-%d", i)
	}

	fake := &fakeBatchEmbedder{}
	matrix, err := EmbedCorpus(context.Background(), fake, snippets, 3)
	assert.NoError(t, err)

	assert.Len(t, matrix, 7)
	assert.Equal(t, [][]string{
		{"snippet-0", "snippet-1", "snippet-2"},
		{"snippet-3", "snippet-4", "snippet-5"},
		{"snippet-6"},
	}, fake.batches)
}

func TestEmbedCorpusEmptyInput(t *testing.T) {
	matrix, err := EmbedCorpus(context.Background(), &fakeBatchEmbedder{}, nil, 3)
	assert.NoError(t, err)
	assert.Nil(t, matrix)
}

func TestEmbedCorpusPropagatesFailure(t *testing.T) {
	_, err := EmbedCorpus(context.Background(), &fakeBatchEmbedder{fail: true}, []string{"a"}, 3)
	assert.Error(t, err)
}

func TestVerifyDimension(t *testing.T) {
	assert.NoError(t, VerifyDimension(nil, 384))
	assert.NoError(t, VerifyDimension([][]float32{{1, 2, 3}}, 3))

	err := VerifyDimension([][]float32{{1, 2}}, 384)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "config says 384")
}

func TestNewEmbedderUnknownProvider(t *testing.T) {
	_, err := NewEmbedder(&config.LLMConfig{Provider: "local"})
	assert.Error(t, err)
}
