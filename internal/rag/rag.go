package rag

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"health-rag/internal/corpus"
	"health-rag/internal/models"
)

// QueryEmbedder embeds a single query string. Satisfied by
// langchaingo's embeddings.EmbedderImpl.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Completer answers a rendered prompt. Satisfied by llmservice.Client.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type RAG struct {
	index    *corpus.Index
	embedder QueryEmbedder
	llm      Completer
}

func NewRAG(index *corpus.Index, embedder QueryEmbedder, llm Completer) *RAG {
	return &RAG{index: index, embedder: embedder, llm: llm}
}

// Query runs one stateless request cycle: embed the query, pick the single
// nearest corpus snippet, prompt the inference API with both.
func (r *RAG) Query(ctx context.Context, query string) (*models.PromptResponse, error) {
	queryEmbedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	idx, score, err := r.index.Nearest(queryEmbedding)
	if err != nil {
		return nil, err
	}
	source := r.index.Snippet(idx)
	log.Debug().Int("idx", idx).Float32("score", score).Msg("Nearest snippet")

	prompt := fmt.Sprintf(models.ContextPromptTemplate, query, source)
	content, err := r.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return &models.PromptResponse{
		Query:   query,
		Source:  source,
		Content: content,
	}, nil
}
