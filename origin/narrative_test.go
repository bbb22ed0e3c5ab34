package origin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/contra-app/fetchcache/config"
	"github.com/stretchr/testify/require"
)

func narrativeServer(t *testing.T, hits *atomic.Int64, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.Equal(t, "/openai/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var payload struct {
			Model    string `json:"model"`
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "llama-3.3-70b-versatile", payload.Model)
		require.Equal(t, "system", payload.Messages[0].Role)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 34, "total_tokens": 46},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func narrativeCfg() config.NarrativeCfg {
	return config.NarrativeCfg{
		APIKey:      "test-key",
		Model:       "llama-3.3-70b-versatile",
		MaxTokens:   1024,
		Temperature: 0.7,
		TopP:        0.9,
	}
}

func TestGenerateMemoized(t *testing.T) {
	var hits atomic.Int64
	srv := narrativeServer(t, &hits, "  A short narrative about Berlin.  ")

	g := NewGenerator(testRegistry(t), testClient(t), narrativeCfg()).WithBaseURL(srv.URL)

	for i := 0; i < 2; i++ {
		n, err := g.Generate(context.Background(), "Write about Berlin")
		require.NoError(t, err)
		require.Equal(t, "A short narrative about Berlin.", n.Text)
		require.Equal(t, 46, n.Usage.TotalTokens)
	}
	require.Equal(t, int64(1), hits.Load())
}

func TestGenerateJSONParsesCompletion(t *testing.T) {
	var hits atomic.Int64
	srv := narrativeServer(t, &hits, "Here you go:\n{\"headline\": \"Berlin rising\", \"points\": 3}\nHope that helps!")

	g := NewGenerator(testRegistry(t), testClient(t), narrativeCfg()).WithBaseURL(srv.URL)

	var out struct {
		Headline string `json:"headline"`
		Points   int    `json:"points"`
	}
	shape := map[string]string{"headline": "string", "points": "number"}
	require.NoError(t, g.GenerateJSON(context.Background(), "Summarize Berlin", shape, &out))
	require.Equal(t, "Berlin rising", out.Headline)
	require.Equal(t, 3, out.Points)
}

func TestGenerateMissingKey(t *testing.T) {
	cfg := narrativeCfg()
	cfg.APIKey = ""
	g := NewGenerator(testRegistry(t), testClient(t), cfg)

	_, err := g.Generate(context.Background(), "anything")
	require.Error(t, err)
}

func TestGenerateNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	t.Cleanup(srv.Close)

	g := NewGenerator(testRegistry(t), testClient(t), narrativeCfg()).WithBaseURL(srv.URL)

	_, err := g.Generate(context.Background(), "anything")
	require.ErrorContains(t, err, "no choices")
}
