package origin

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/contra-app/fetchcache"
	"github.com/contra-app/fetchcache/config"
)

const gnewsBase = "https://gnews.io/api/v4"

// Article is one normalized news item.
type Article struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Publisher   string `json:"publisher"`
	PublishedAt string `json:"published_at"`
	Description string `json:"description"`
}

// Report bundles the articles found for one topic.
type Report struct {
	Topic       string    `json:"topic"`
	RetrievedAt time.Time `json:"retrieved_at"`
	Articles    []Article `json:"articles"`
}

type newsQuery struct {
	Topic string `json:"topic"`
	Max   int    `json:"max"`
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
}

// News searches GNews for recent articles. An unreachable or failing origin
// degrades to placeholder articles rather than an error, so a page render
// always has something to show; only the raw fetch is memoized, degraded
// reports are never cached and the next call retries the origin.
type News struct {
	c    *Client
	cfg  config.NewsCfg
	base string

	search fetchcache.Func[newsQuery, Report]
}

func NewNews(r *fetchcache.Registry, c *Client, cfg config.NewsCfg) *News {
	n := &News{c: c, cfg: cfg, base: gnewsBase}
	n.search = fetchcache.Memoize(r, "news.search", cfg.TTL, "news", n.fetchNews)
	return n
}

// WithBaseURL points the adapter at a different endpoint, for tests.
func (n *News) WithBaseURL(base string) *News {
	n.base = strings.TrimRight(base, "/")
	return n
}

// Search returns recent articles about topic, at most max (the configured
// clamp applies when max is zero).
func (n *News) Search(ctx context.Context, topic string, max int) fetchcache.Result[Report] {
	return n.result(ctx, newsQuery{Topic: topic, Max: max})
}

// SearchByDates restricts the search to a publication window.
func (n *News) SearchByDates(ctx context.Context, topic string, from, to time.Time) fetchcache.Result[Report] {
	q := newsQuery{Topic: topic}
	if !from.IsZero() {
		q.From = from.UTC().Format(time.RFC3339)
	}
	if !to.IsZero() {
		q.To = to.UTC().Format(time.RFC3339)
	}
	return n.result(ctx, q)
}

func (n *News) result(ctx context.Context, q newsQuery) fetchcache.Result[Report] {
	rep, err := n.search(ctx, q)
	if err != nil {
		return fetchcache.Degraded(placeholderReport(q.Topic), err.Error())
	}
	return fetchcache.Ok(rep)
}

func (n *News) fetchNews(ctx context.Context, q newsQuery) (Report, error) {
	if n.cfg.APIKey == "" {
		return Report{}, fmt.Errorf("no news api key configured")
	}

	max := q.Max
	if max <= 0 || max > n.cfg.MaxArticles {
		max = n.cfg.MaxArticles
	}

	params := url.Values{}
	params.Set("q", q.Topic)
	params.Set("lang", "en")
	params.Set("max", fmt.Sprint(max))
	params.Set("apikey", n.cfg.APIKey)
	if q.From != "" {
		params.Set("from", q.From)
	}
	if q.To != "" {
		params.Set("to", q.To)
	}

	var body struct {
		TotalArticles int `json:"totalArticles"`
		Articles      []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
			PublishedAt string `json:"publishedAt"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := n.c.getJSON(ctx, n.base+"/search?"+params.Encode(), &body); err != nil {
		return Report{}, err
	}
	if len(body.Articles) == 0 {
		return Report{}, fmt.Errorf("no articles found for %q", q.Topic)
	}

	articles := make([]Article, 0, len(body.Articles))
	for _, a := range body.Articles {
		articles = append(articles, Article{
			Title:       strings.TrimSpace(a.Title),
			URL:         a.URL,
			Publisher:   a.Source.Name,
			PublishedAt: a.PublishedAt,
			Description: strings.TrimSpace(a.Description),
		})
	}
	return Report{
		Topic:       q.Topic,
		RetrievedAt: time.Now().UTC(),
		Articles:    articles,
	}, nil
}

// placeholderReport fabricates generic articles so degraded pages still have
// a news section.
func placeholderReport(topic string) Report {
	now := time.Now().UTC()
	stamp := func(daysAgo int) string {
		return now.AddDate(0, 0, -daysAgo).Format("2006-01-02T15:04:05Z")
	}
	return Report{
		Topic:       topic,
		RetrievedAt: now,
		Articles: []Article{
			{
				Title:       fmt.Sprintf("Latest developments in %s", topic),
				URL:         "https://example.com/article1",
				Publisher:   "Example News",
				PublishedAt: stamp(0),
				Description: fmt.Sprintf("Recent news about %s and related developments.", topic),
			},
			{
				Title:       fmt.Sprintf("Understanding %s: A comprehensive guide", topic),
				URL:         "https://example.com/article2",
				Publisher:   "Knowledge Daily",
				PublishedAt: stamp(2),
				Description: fmt.Sprintf("Everything you need to know about %s explained in simple terms.", topic),
			},
			{
				Title:       fmt.Sprintf("The impact of %s on modern society", topic),
				URL:         "https://example.com/article3",
				Publisher:   "Analysis Weekly",
				PublishedAt: stamp(5),
				Description: fmt.Sprintf("Experts discuss how %s is changing our world and what to expect in the future.", topic),
			},
		},
	}
}
