package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"health-rag/internal/config"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

const (
	defaultChunkSize    = 1000 // bytes
	defaultChunkOverlap = 500  // bytes
)

// LoadCorpusDir parses every supported document under dir into corpus
// snippets. Files are visited in sorted path order so the resulting snippet
// order is stable across restarts. Unsupported extensions are skipped.
func LoadCorpusDir(dir string, cfg *config.RAGConfig) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var snippets []string
	for _, path := range paths {
		parsed, err := ParseDocument(path, cfg)
		if err != nil {
			if strings.Contains(err.Error(), "unsupported file format") {
				log.Debug().Str("path", path).Msg("Skipping unsupported corpus file")
				continue
			}
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		snippets = append(snippets, parsed...)
	}
	return snippets, nil
}

// ParseDocument extracts text from a single document and splits it into
// snippets using the configured chunk size and overlap.
func ParseDocument(filePath string, cfg *config.RAGConfig) ([]string, error) {
	if cfg == nil || cfg.ChunkSize == 0 || cfg.ChunkOverlap == 0 {
		cfg = &config.RAGConfig{
			ChunkSize:    defaultChunkSize,
			ChunkOverlap: defaultChunkOverlap,
		}
	}

	var (
		texts []string
		err   error
	)
	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".pdf":
		texts, err = extractPDF(filePath)
	case ".docx":
		texts, err = extractDOCX(filePath)
	case ".pptx":
		texts, err = extractPPTX(filePath)
	case ".xlsx":
		texts, err = extractXLSX(filePath)
	case ".ods":
		texts, err = extractODS(filePath)
	case ".txt", ".md":
		texts, err = extractText(filePath)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
	if err != nil {
		return nil, err
	}

	var snippets []string
	for _, text := range texts {
		markdown, err := renderMarkdown(text)
		if err != nil {
			return nil, err
		}
		snippets = append(snippets, chunkContent(markdown, cfg.ChunkSize, cfg.ChunkOverlap)...)
	}
	return snippets, nil
}

// extractPDF returns one text per page.
func extractPDF(filePath string) ([]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	var texts []string
	for i := 1; i <= reader.NumPage(); i++ {
		pageText, err := reader.Page(i).GetPlainText(nil)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(pageText) != "" {
			texts = append(texts, pageText)
		}
	}
	return texts, nil
}

// extractDOCX returns one text per non-empty paragraph.
func extractDOCX(filePath string) ([]string, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var texts []string
	for _, p := range strings.Split(r.Editable().GetContent(), "\n") {
		if strings.TrimSpace(p) != "" {
			texts = append(texts, p)
		}
	}
	return texts, nil
}

// extractPPTX returns one text per slide.
func extractPPTX(filePath string) ([]string, error) {
	f, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var texts []string
	for _, file := range f.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		if slideText := extractTextFromXML(string(data)); strings.TrimSpace(slideText) != "" {
			texts = append(texts, slideText)
		}
	}
	return texts, nil
}

// extractXLSX returns one text per sheet, cells tab-separated.
func extractXLSX(filePath string) ([]string, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return nil, err
	}

	var texts []string
	for _, sheet := range f.Sheets {
		var text strings.Builder
		text.WriteString(fmt.Sprintf("## Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
		texts = append(texts, text.String())
	}
	return texts, nil
}

// extractODS returns one text per sheet, cells tab-separated.
func extractODS(filePath string) ([]string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var texts []string
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("## Sheet: %s\n", sheetName))
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
		texts = append(texts, text.String())
	}
	return texts, nil
}

func extractText(filePath string) ([]string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}
	return []string{string(data)}, nil
}

func renderMarkdown(text string) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return strings.Trim(buf.String(), " \t\n\r"), nil
}

func extractTextFromXML(xmlContent string) string {
	var text strings.Builder
	parts := strings.Split(xmlContent, "<a:t>")
	for i, part := range parts {
		if i == 0 {
			continue
		}
		if endIdx := strings.Index(part, "</a:t>"); endIdx >= 0 {
			text.WriteString(part[:endIdx] + " ")
		}
	}
	return text.String()
}

// chunkContent splits content into chunks of at most maxChars with
// overlapChars of carryover, preferring to break at a space or sentence end
// within the last 10% of a chunk.
func chunkContent(content string, maxChars, overlapChars int) []string {
	if maxChars <= 0 {
		return nil
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= maxChars {
		overlapChars = maxChars / 2
	}

	content = strings.TrimSpace(content)
	contentLen := len(content)
	if contentLen == 0 {
		return nil
	}
	if contentLen <= maxChars {
		return []string{content}
	}

	var chunks []string
	start := 0
	for start < contentLen {
		end := min(start+maxChars, contentLen)

		if end < contentLen {
			lookBack := min(maxChars/10, end-start)
			for i := end - 1; i >= end-lookBack && i > start; i-- {
				if content[i] == ' ' || content[i] == '\n' || content[i] == '.' {
					end = i + 1
					break
				}
			}
		}

		if chunk := strings.TrimSpace(content[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		start += maxChars - overlapChars
		if start >= contentLen {
			break
		}
	}

	return chunks
}
