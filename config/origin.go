package config

import (
	"os"
	"time"
)

type OriginsCfg struct {
	// RatePerSec limits outbound calls across all adapters. The shared
	// origin client takes a slot from a jittered limiter before every
	// request. Zero disables limiting.
	RatePerSec int `yaml:"rate_per_sec"`

	// Timeout is the per-request network timeout of the shared HTTP client.
	// This is an in-flight timeout, unrelated to cache entry TTLs.
	Timeout time.Duration `yaml:"timeout"`

	Wikipedia WikipediaCfg `yaml:"wikipedia"`
	News      NewsCfg      `yaml:"news"`
	Narrative NarrativeCfg `yaml:"narrative"`
	Images    ImagesCfg    `yaml:"images"`
}

type WikipediaCfg struct {
	// SummaryLength truncates extracted summaries to at most this many
	// characters. Zero keeps the origin's full extract.
	SummaryLength int `yaml:"summary_length"`

	// TTL overrides the default entry TTL for the wikipedia partition.
	TTL time.Duration `yaml:"ttl"`
}

type NewsCfg struct {
	APIKey string `yaml:"api_key"`

	// MaxArticles clamps how many articles a search returns.
	MaxArticles int `yaml:"max_articles"`

	// TTL overrides the default entry TTL for the news partition. News goes
	// stale fast, keep this short.
	TTL time.Duration `yaml:"ttl"`
}

type NarrativeCfg struct {
	APIKey string `yaml:"api_key"`

	// Model names the chat-completions model used for text generation.
	Model string `yaml:"model"`

	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	TopP        float64 `yaml:"top_p"`

	TTL time.Duration `yaml:"ttl"`
}

type ImagesCfg struct {
	APIKey string `yaml:"api_key"`

	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

func (cfg *OriginsCfg) Enabled() bool {
	return cfg != nil
}

func (cfg *OriginsCfg) adjust() {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.News.MaxArticles <= 0 {
		cfg.News.MaxArticles = 5
	}
	if cfg.Wikipedia.SummaryLength < 0 {
		cfg.Wikipedia.SummaryLength = 0
	}
	if cfg.Narrative.Model == "" {
		cfg.Narrative.Model = "llama-3.3-70b-versatile"
	}
	if cfg.Narrative.MaxTokens <= 0 {
		cfg.Narrative.MaxTokens = 1024
	}
	if cfg.Narrative.Temperature <= 0 {
		cfg.Narrative.Temperature = 0.7
	}
	if cfg.Narrative.TopP <= 0 {
		cfg.Narrative.TopP = 0.9
	}
	if cfg.Images.Width <= 0 {
		cfg.Images.Width = 1344
	}
	if cfg.Images.Height <= 0 {
		cfg.Images.Height = 768
	}
}

func (cfg *OriginsCfg) fromEnv() {
	if v, ok := os.LookupEnv("NEWS_API_KEY"); ok {
		cfg.News.APIKey = v
	}
	if v, ok := lookupInt("MAX_NEWS_ARTICLES"); ok {
		cfg.News.MaxArticles = v
	}
	if v, ok := os.LookupEnv("GROQ_API_KEY"); ok {
		cfg.Narrative.APIKey = v
	}
	if v, ok := os.LookupEnv("GROQ_MODEL"); ok {
		cfg.Narrative.Model = v
	}
	if v, ok := os.LookupEnv("STABILITY_API_KEY"); ok {
		cfg.Images.APIKey = v
	}
	if v, ok := lookupInt("WIKIPEDIA_SUMMARY_LENGTH"); ok {
		cfg.Wikipedia.SummaryLength = v
	}
	if v, ok := lookupInt("DEFAULT_IMAGE_WIDTH"); ok {
		cfg.Images.Width = v
	}
	if v, ok := lookupInt("DEFAULT_IMAGE_HEIGHT"); ok {
		cfg.Images.Height = v
	}
}
