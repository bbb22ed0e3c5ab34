package origin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/contra-app/fetchcache/config"
	"github.com/stretchr/testify/require"
)

func wikipediaServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)

		switch {
		case strings.HasPrefix(r.URL.Path, "/api/rest_v1/page/summary/Berlin"):
			_ = json.NewEncoder(w).Encode(map[string]any{
				"title":       "Berlin",
				"extract":     "Berlin is the capital of Germany.",
				"description": "Capital of Germany",
				"content_urls": map[string]any{
					"desktop": map[string]any{"page": "https://en.wikipedia.org/wiki/Berlin"},
				},
			})
		case strings.HasPrefix(r.URL.Path, "/api/rest_v1/page/summary/"):
			http.NotFound(w, r)
		case r.URL.Path == "/w/api.php":
			_ = json.NewEncoder(w).Encode([]any{
				r.URL.Query().Get("search"),
				[]string{"Berlin"},
				[]string{"Berlin is the capital of Germany."},
				[]string{"https://en.wikipedia.org/wiki/Berlin"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWikipediaSummaryMemoized(t *testing.T) {
	var hits atomic.Int64
	srv := wikipediaServer(t, &hits)

	w := NewWikipedia(testRegistry(t), testClient(t), config.WikipediaCfg{}).WithBaseURL(srv.URL)

	for i := 0; i < 3; i++ {
		s, err := w.Summary(context.Background(), "Berlin")
		require.NoError(t, err)
		require.Equal(t, "Berlin", s.Title)
		require.Equal(t, "Berlin is the capital of Germany.", s.Extract)
		require.Empty(t, s.Note)
	}
	require.Equal(t, int64(1), hits.Load(), "repeat summaries come from the cache")
}

func TestWikipediaSummaryFallsBackToSearch(t *testing.T) {
	var hits atomic.Int64
	srv := wikipediaServer(t, &hits)

	w := NewWikipedia(testRegistry(t), testClient(t), config.WikipediaCfg{}).WithBaseURL(srv.URL)

	s, err := w.Summary(context.Background(), "berlin city")
	require.NoError(t, err)
	require.Equal(t, "Berlin", s.Title)
	require.Equal(t, "using similar topic: Berlin", s.Note)
}

func TestWikipediaSummaryTruncation(t *testing.T) {
	var hits atomic.Int64
	srv := wikipediaServer(t, &hits)

	w := NewWikipedia(testRegistry(t), testClient(t), config.WikipediaCfg{SummaryLength: 10}).WithBaseURL(srv.URL)

	s, err := w.Summary(context.Background(), "Berlin")
	require.NoError(t, err)
	require.Equal(t, "Berlin is...", s.Extract)
}

func TestWikipediaSearch(t *testing.T) {
	var hits atomic.Int64
	srv := wikipediaServer(t, &hits)

	w := NewWikipedia(testRegistry(t), testClient(t), config.WikipediaCfg{}).WithBaseURL(srv.URL)

	res, err := w.Search(context.Background(), "Berlin", 0)
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Equal(t, "Berlin", res[0].Title)
	require.Equal(t, "https://en.wikipedia.org/wiki/Berlin", res[0].URL)

	_, err = w.Search(context.Background(), "Berlin", 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), hits.Load())
}

func TestWikipediaEmptyTopic(t *testing.T) {
	w := NewWikipedia(testRegistry(t), testClient(t), config.WikipediaCfg{})

	_, err := w.Summary(context.Background(), "   ")
	require.Error(t, err)
}
