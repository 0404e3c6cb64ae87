package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"health-rag/internal/config"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// NewEmbedder builds the embedder for the configured provider. The same
// instance embeds both the corpus at startup and every query, so corpus and
// query vectors come from one embedding function.
func NewEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	switch cfg.Provider {
	case "ollama":
		return newOllamaEmbedder(cfg)
	case "openai":
		return newOpenAIEmbedder(cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}

func newOllamaEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}
	return embeddings.NewEmbedder(llm)
}

func newOpenAIEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}
	return embeddings.NewEmbedder(llm)
}

// DocumentEmbedder embeds a batch of texts. Satisfied by
// embeddings.EmbedderImpl.
type DocumentEmbedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedCorpus embeds every snippet in batches and returns the matrix in
// snippet order.
func EmbedCorpus(ctx context.Context, embedder DocumentEmbedder, snippets []string, batchSize int) ([][]float32, error) {
	if len(snippets) == 0 {
		return nil, nil
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	matrix := make([][]float32, 0, len(snippets))
	for i := 0; i < len(snippets); i += batchSize {
		end := i + batchSize
		if end > len(snippets) {
			end = len(snippets)
		}
		batch, err := embedder.EmbedDocuments(ctx, snippets[i:end])
		if err != nil {
			return nil, fmt.Errorf("embedding batch at %d: %w", i, err)
		}
		matrix = append(matrix, batch...)
		log.Debug().Int("done", end).Int("total", len(snippets)).Msg("Embedded corpus batch")
	}
	return matrix, nil
}

// VerifyDimension checks the matrix against the configured embedding
// dimension, catching a model/config mismatch before the index is built.
func VerifyDimension(matrix [][]float32, want int) error {
	if len(matrix) == 0 {
		return nil
	}
	if got := len(matrix[0]); got != want {
		return fmt.Errorf("embedding dimension is %d, config says %d", got, want)
	}
	return nil
}
