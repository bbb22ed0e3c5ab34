package origin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/contra-app/fetchcache"
	"github.com/contra-app/fetchcache/config"
)

const groqBase = "https://api.groq.com"

const systemPrompt = "You are a helpful, accurate, and creative assistant."

// Narrative is generated prose with its token accounting.
type Narrative struct {
	Text  string `json:"text"`
	Model string `json:"model"`
	Usage Usage  `json:"usage"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type generateQuery struct {
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens"`
	Temperature float64  `json:"temperature"`
	Stop        []string `json:"stop,omitempty"`
}

// Generator produces narrative text through the Groq chat-completions API.
// Generation is expensive and deterministic enough to cache: identical
// prompts with identical sampling parameters reuse the stored completion.
type Generator struct {
	c    *Client
	cfg  config.NarrativeCfg
	base string

	generate fetchcache.Func[generateQuery, Narrative]
}

func NewGenerator(r *fetchcache.Registry, c *Client, cfg config.NarrativeCfg) *Generator {
	g := &Generator{c: c, cfg: cfg, base: groqBase}
	g.generate = fetchcache.Memoize(r, "narrative.generate", cfg.TTL, "narrative", g.fetchCompletion)
	return g
}

// WithBaseURL points the adapter at a different endpoint, for tests.
func (g *Generator) WithBaseURL(base string) *Generator {
	g.base = strings.TrimRight(base, "/")
	return g
}

// Generate produces text for prompt with the configured sampling parameters.
func (g *Generator) Generate(ctx context.Context, prompt string) (Narrative, error) {
	return g.generate(ctx, generateQuery{
		Prompt:      prompt,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
}

// GenerateJSON instructs the model to answer in the given JSON shape and
// unmarshals the completion into out. A lower temperature keeps the output
// parseable.
func (g *Generator) GenerateJSON(ctx context.Context, prompt string, shape, out any) error {
	format, err := json.MarshalIndent(shape, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output shape: %w", err)
	}

	full := fmt.Sprintf("%s\n\nPlease respond with output in the following JSON format: %s\n\nJSON response:",
		prompt, format)
	n, err := g.generate(ctx, generateQuery{
		Prompt:      full,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return err
	}

	// models pad the JSON block with prose, take the outermost braces
	start := strings.Index(n.Text, "{")
	end := strings.LastIndex(n.Text, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in completion")
	}
	if err = json.Unmarshal([]byte(n.Text[start:end+1]), out); err != nil {
		return fmt.Errorf("parse completion JSON: %w", err)
	}
	return nil
}

func (g *Generator) fetchCompletion(ctx context.Context, q generateQuery) (Narrative, error) {
	if g.cfg.APIKey == "" {
		return Narrative{}, fmt.Errorf("no narrative api key configured")
	}

	payload := map[string]any{
		"model": g.cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": q.Prompt},
		},
		"max_tokens":  q.MaxTokens,
		"temperature": q.Temperature,
		"top_p":       g.cfg.TopP,
	}
	if len(q.Stop) > 0 {
		payload["stop"] = q.Stop
	}

	var body struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage Usage `json:"usage"`
	}
	err := g.c.postJSON(ctx, g.base+"/openai/v1/chat/completions", g.cfg.APIKey, payload, &body)
	if err != nil {
		return Narrative{}, err
	}
	if len(body.Choices) == 0 {
		return Narrative{}, fmt.Errorf("completion response has no choices")
	}

	return Narrative{
		Text:  strings.TrimSpace(body.Choices[0].Message.Content),
		Model: g.cfg.Model,
		Usage: body.Usage,
	}, nil
}
