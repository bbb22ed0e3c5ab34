// Package origin adapts the external content APIs behind the cache: Wikipedia
// summaries, DBpedia structured data, GNews search, Groq text generation and
// Stability image generation. Every adapter wraps its fetch through the shared
// memoizer once at construction, so callers use it as if it were the raw API.
//
// All outbound requests go through one shared Client that applies the
// configured timeout and a jittered rate limit across every adapter.
package origin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/contra-app/fetchcache/config"
	"github.com/contra-app/fetchcache/internal/shared/rate"
)

const userAgent = "fetchcache/1.0 (contact@contra-app.example)"

// Client is the shared outbound HTTP client of all adapters.
type Client struct {
	http *http.Client
	lim  *rate.Jitter
}

// NewClient builds the shared client. The limiter goroutine stops when ctx is
// cancelled; a zero RatePerSec disables limiting entirely.
func NewClient(ctx context.Context, cfg *config.OriginsCfg) *Client {
	timeout := 30 * time.Second
	var lim *rate.Jitter
	if cfg != nil {
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
		if cfg.RatePerSec > 0 {
			lim = rate.NewJitter(ctx, cfg.RatePerSec)
		}
	}
	return &Client{
		http: &http.Client{Timeout: timeout},
		lim:  lim,
	}
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.lim != nil {
		c.lim.Take()
	}
	req.Header.Set("User-Agent", userAgent)
	return c.http.Do(req)
}

// getJSON fetches url and decodes the response body into out. Non-2xx
// statuses are errors carrying the status code.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, URL: url}
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response of %s: %w", url, err)
	}
	return nil
}

// postJSON sends body as JSON to url with an optional bearer token and
// decodes the response into out.
func (c *Client) postJSON(ctx context.Context, url, bearer string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// read a little of the body, error payloads help debugging quotas
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return &StatusError{Code: resp.StatusCode, URL: url, Body: string(snippet)}
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response of %s: %w", url, err)
	}
	return nil
}

// StatusError is a non-2xx origin response.
type StatusError struct {
	Code int
	URL  string
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("origin %s returned status %d", e.URL, e.Code)
	}
	return fmt.Sprintf("origin %s returned status %d: %s", e.URL, e.Code, e.Body)
}

// IsNotFound reports whether err is an origin 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}
