package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"health-rag/internal/config"
)

func TestChunkContent(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		maxChars     int
		overlapChars int
		wantChunks   int
	}{
		{"empty content", "", 100, 10, 0},
		{"fits in one chunk", "short text", 100, 10, 1},
		{"zero max chars", "text", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := chunkContent(tt.content, tt.maxChars, tt.overlapChars)
			assert.Len(t, chunks, tt.wantChunks)
		})
	}
}

func TestChunkContentSplitsWithOverlap(t *testing.T) {
	content := strings.Repeat("word ", 100) // 500 chars
	chunks := chunkContent(content, 100, 20)

	assert.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 100)
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
}

func TestChunkContentClampsExcessiveOverlap(t *testing.T) {
	content := strings.Repeat("a ", 200)
	// overlap >= maxChars would never advance; it must be clamped.
	chunks := chunkContent(content, 50, 50)
	assert.NotEmpty(t, chunks)
}

func TestParseDocumentText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	assert.NoError(t, os.WriteFile(path, []byte("iron rich foods help with anemia"), 0o644))

	snippets, err := ParseDocument(path, &config.RAGConfig{ChunkSize: 1000, ChunkOverlap: 500})
	assert.NoError(t, err)
	assert.Len(t, snippets, 1)
	assert.Contains(t, snippets[0], "iron rich foods")
}

func TestParseDocumentUnsupportedFormat(t *testing.T) {
	_, err := ParseDocument("corpus.bin", nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file format")
}

func TestLoadCorpusDirSkipsUnsupportedAndSortsPaths(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("second file"), 0o644))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("first file"), 0o644))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "ignore.bin"), []byte{0x1}, 0o644))

	snippets, err := LoadCorpusDir(dir, &config.RAGConfig{ChunkSize: 1000, ChunkOverlap: 500})
	assert.NoError(t, err)
	assert.Len(t, snippets, 2)
	assert.Contains(t, snippets[0], "first file")
	assert.Contains(t, snippets[1], "second file")
}
