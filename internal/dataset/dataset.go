package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"health-rag/internal/config"
)

// pageLength is the datasets-server maximum for a single /rows request.
const pageLength = 100

type conversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type row struct {
	Conversations []conversationTurn `json:"conversations"`
}

type rowsResponse struct {
	Rows []struct {
		RowIdx int `json:"row_idx"`
		Row    row `json:"row"`
	} `json:"rows"`
	NumRowsTotal int `json:"num_rows_total"`
}

// Loader downloads conversation snippets from the Hugging Face
// datasets-server REST API.
type Loader struct {
	cfg    *config.DatasetConfig
	client *http.Client
}

func NewLoader(cfg *config.DatasetConfig) *Loader {
	return &Loader{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// Load fetches up to MaxExamples dataset rows and flattens every
// conversation turn into a single ordered snippet slice. Snippet order
// follows row order, turns within a row in their original order.
func (l *Loader) Load(ctx context.Context) ([]string, error) {
	var snippets []string
	examples := 0

	for offset := 0; examples < l.cfg.MaxExamples; offset += pageLength {
		page, err := l.fetchPage(ctx, offset)
		if err != nil {
			return nil, err
		}
		if len(page.Rows) == 0 {
			break
		}

		for _, r := range page.Rows {
			for _, turn := range r.Row.Conversations {
				snippets = append(snippets, turn.Content)
			}
			examples++
			if examples >= l.cfg.MaxExamples {
				break
			}
		}

		if offset+len(page.Rows) >= page.NumRowsTotal {
			break
		}
	}

	log.Info().
		Int("examples", examples).
		Int("snippets", len(snippets)).
		Str("dataset", l.cfg.Name).
		Msg("Loaded conversation corpus")

	return snippets, nil
}

func (l *Loader) fetchPage(ctx context.Context, offset int) (*rowsResponse, error) {
	q := url.Values{}
	q.Set("dataset", l.cfg.Name)
	q.Set("config", l.cfg.Config)
	q.Set("split", l.cfg.Split)
	q.Set("offset", fmt.Sprintf("%d", offset))
	q.Set("length", fmt.Sprintf("%d", pageLength))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.cfg.BaseURL+"/rows?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("dataset request failed: %d, %s", resp.StatusCode, string(body))
	}

	var page rowsResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decoding dataset rows: %w", err)
	}
	return &page, nil
}
