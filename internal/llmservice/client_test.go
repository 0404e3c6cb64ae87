package llmservice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"health-rag/internal/config"
)

func testClient(baseURL string) *Client {
	return NewClient(&config.InferenceConfig{
		BaseURL:        baseURL,
		Model:          "llama3-70b-8192",
		Key:            "test-key",
		TimeoutSeconds: 5,
	})
}

func TestCompleteSendsBearerAndPayload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req completionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3-70b-8192", req.Model)
		assert.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "hello", req.Messages[0].Content)

		err := json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "hi there"}},
			},
		})
		assert.NoError(t, err)
	}))
	defer ts.Close()

	got, err := testClient(ts.URL).Complete(context.Background(), "hello")
	assert.NoError(t, err)
	assert.Equal(t, "hi there", got)
}

func TestCompleteNonOKStatus(t *testing.T) {
	statuses := []int{http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusInternalServerError}
	for _, status := range statuses {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", status)
		}))

		_, err := testClient(ts.URL).Complete(context.Background(), "hello")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "completion request failed")
		ts.Close()
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := w.Write([]byte(`{"choices":[]}`))
		assert.NoError(t, err)
	}))
	defer ts.Close()

	_, err := testClient(ts.URL).Complete(context.Background(), "hello")
	assert.Error(t, err)
}
