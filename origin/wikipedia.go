package origin

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/contra-app/fetchcache"
	"github.com/contra-app/fetchcache/config"
)

const wikipediaBase = "https://en.wikipedia.org"

// Summary is a condensed Wikipedia article.
type Summary struct {
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`

	// Note names the substitute page when the requested title did not exist
	// and a similar one was used instead.
	Note string `json:"note,omitempty"`
}

// SearchResult is one page found by a title search.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type searchQuery struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// Wikipedia fetches article summaries through the REST API, with an
// opensearch fallback when the exact title does not exist.
type Wikipedia struct {
	c    *Client
	cfg  config.WikipediaCfg
	base string

	summary fetchcache.Func[string, Summary]
	search  fetchcache.Func[searchQuery, []SearchResult]
}

func NewWikipedia(r *fetchcache.Registry, c *Client, cfg config.WikipediaCfg) *Wikipedia {
	w := &Wikipedia{c: c, cfg: cfg, base: wikipediaBase}
	w.summary = fetchcache.Memoize(r, "wikipedia.summary", cfg.TTL, "wikipedia", w.fetchSummary)
	w.search = fetchcache.Memoize(r, "wikipedia.search", cfg.TTL, "wikipedia", w.fetchSearch)
	return w
}

// WithBaseURL points the adapter at a different endpoint, for tests.
func (w *Wikipedia) WithBaseURL(base string) *Wikipedia {
	w.base = strings.TrimRight(base, "/")
	return w
}

// Summary returns the page summary for topic. A missing page falls back to
// the closest search match before giving up.
func (w *Wikipedia) Summary(ctx context.Context, topic string) (Summary, error) {
	return w.summary(ctx, topic)
}

// Search finds up to limit pages matching query.
func (w *Wikipedia) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}
	return w.search(ctx, searchQuery{Query: query, Limit: limit})
}

func (w *Wikipedia) fetchSummary(ctx context.Context, topic string) (Summary, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Summary{}, fmt.Errorf("empty topic")
	}

	s, err := w.restSummary(ctx, topic)
	if err == nil {
		return s, nil
	}
	if !IsNotFound(err) {
		return Summary{}, err
	}

	// exact title missing; take the best search match instead
	matches, serr := w.fetchSearch(ctx, searchQuery{Query: topic, Limit: 1})
	if serr != nil || len(matches) == 0 {
		return Summary{}, fmt.Errorf("page %q not found", topic)
	}
	s, err = w.restSummary(ctx, matches[0].Title)
	if err != nil {
		return Summary{}, err
	}
	s.Note = "using similar topic: " + s.Title
	return s, nil
}

func (w *Wikipedia) restSummary(ctx context.Context, title string) (Summary, error) {
	var body struct {
		Title       string `json:"title"`
		Extract     string `json:"extract"`
		Description string `json:"description"`
		ContentURLs struct {
			Desktop struct {
				Page string `json:"page"`
			} `json:"desktop"`
		} `json:"content_urls"`
	}

	u := w.base + "/api/rest_v1/page/summary/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	if err := w.c.getJSON(ctx, u, &body); err != nil {
		return Summary{}, err
	}

	return Summary{
		Title:       body.Title,
		Extract:     truncate(body.Extract, w.cfg.SummaryLength),
		Description: body.Description,
		URL:         body.ContentURLs.Desktop.Page,
	}, nil
}

func (w *Wikipedia) fetchSearch(ctx context.Context, q searchQuery) ([]SearchResult, error) {
	// opensearch returns [query, [titles], [snippets], [urls]]
	var body []any
	u := fmt.Sprintf("%s/w/api.php?action=opensearch&format=json&limit=%d&search=%s",
		w.base, q.Limit, url.QueryEscape(q.Query))
	if err := w.c.getJSON(ctx, u, &body); err != nil {
		return nil, err
	}
	if len(body) < 4 {
		return nil, fmt.Errorf("malformed opensearch response")
	}

	titles, _ := body[1].([]any)
	snippets, _ := body[2].([]any)
	urls, _ := body[3].([]any)

	out := make([]SearchResult, 0, len(titles))
	for i, t := range titles {
		res := SearchResult{Title: str(t)}
		if i < len(snippets) {
			res.Snippet = str(snippets[i])
		}
		if i < len(urls) {
			res.URL = str(urls[i])
		}
		out = append(out, res)
	}
	return out, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// truncate cuts s to at most max characters at a word boundary. Zero max
// keeps the full text.
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	cut := max
	for cut > 0 && !unicode.IsSpace(runes[cut-1]) {
		cut--
	}
	if cut == 0 {
		cut = max
	}
	return strings.TrimSpace(string(runes[:cut])) + "..."
}
