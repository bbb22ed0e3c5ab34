package origin

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"

	"github.com/contra-app/fetchcache"
	"github.com/contra-app/fetchcache/config"
	"github.com/contra-app/fetchcache/internal/key"
)

const stabilityBase = "https://api.stability.ai"

// sdxlDimensions are the only width/height pairs the generation model
// accepts. Requests outside this set snap to 1344x768 (closest to 16:9).
var sdxlDimensions = [][2]int{
	{1024, 1024}, {1152, 896}, {1216, 832}, {1344, 768}, {1536, 640},
	{640, 1536}, {768, 1344}, {832, 1216}, {896, 1152},
}

// Image is one generated picture.
type Image struct {
	PNG    []byte
	Width  int
	Height int

	// Source tells apart a fresh generation, a cached blob and the fallback.
	Source string
}

// ImageParams identify one generation; they are hashed into the cache key,
// so two prompts differing only in seed or size never collide.
type ImageParams struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Seed           int    `json:"seed,omitempty"`
}

// Images generates pictures through the Stability text-to-image API. Decoded
// PNG bytes are cached as raw blobs keyed by a digest of the prompt and
// parameters; base64-wrapping them into the JSON memoizer would only bloat
// the entries. Origin failures degrade to a deterministic solid-color
// fallback so a page render never goes without a picture.
type Images struct {
	r    *fetchcache.Registry
	c    *Client
	cfg  config.ImagesCfg
	base string

	fallbackOnce sync.Once
	fallback     []byte
}

func NewImages(r *fetchcache.Registry, c *Client, cfg config.ImagesCfg) *Images {
	return &Images{r: r, c: c, cfg: cfg, base: stabilityBase}
}

// WithBaseURL points the adapter at a different endpoint, for tests.
func (im *Images) WithBaseURL(base string) *Images {
	im.base = strings.TrimRight(base, "/")
	return im
}

// Generate returns a picture for the prompt, served from the blob cache when
// an identical generation already ran.
func (im *Images) Generate(ctx context.Context, params ImageParams) fetchcache.Result[Image] {
	params.Width, params.Height = snapDimensions(params.Width, params.Height, im.cfg)

	k := key.Derive("images.generate", params)
	if !k.Degraded() {
		if blob, ok := im.r.GetRaw(ctx, "images", k.Digest(), fetchcache.NoExpiry); ok {
			return fetchcache.Ok(Image{
				PNG:    blob,
				Width:  params.Width,
				Height: params.Height,
				Source: "cache",
			})
		}
	}

	blob, err := im.fetchImage(ctx, params)
	if err != nil {
		return fetchcache.Degraded(Image{
			PNG:    im.fallbackPNG(),
			Width:  fallbackWidth,
			Height: fallbackHeight,
			Source: "fallback",
		}, err.Error())
	}

	_ = im.r.PutRaw(ctx, "images", k.Digest(), blob, fetchcache.NoExpiry)
	return fetchcache.Ok(Image{
		PNG:    blob,
		Width:  params.Width,
		Height: params.Height,
		Source: "origin",
	})
}

func (im *Images) fetchImage(ctx context.Context, params ImageParams) ([]byte, error) {
	if im.cfg.APIKey == "" {
		return nil, fmt.Errorf("no image api key configured")
	}

	prompts := []map[string]any{
		{"text": params.Prompt, "weight": 1.0},
	}
	if params.NegativePrompt != "" {
		prompts = append(prompts, map[string]any{"text": params.NegativePrompt, "weight": -1.0})
	}

	payload := map[string]any{
		"text_prompts": prompts,
		"width":        params.Width,
		"height":       params.Height,
		"samples":      1,
		"cfg_scale":    7.0,
		"steps":        30,
	}
	if params.Seed != 0 {
		payload["seed"] = params.Seed
	}

	var body struct {
		Artifacts []struct {
			Base64 string `json:"base64"`
		} `json:"artifacts"`
	}
	u := im.base + "/v1/generation/stable-diffusion-xl-1024-v1-0/text-to-image"
	if err := im.c.postJSON(ctx, u, im.cfg.APIKey, payload, &body); err != nil {
		return nil, err
	}
	if len(body.Artifacts) == 0 {
		return nil, fmt.Errorf("generation response has no artifacts")
	}

	blob, err := base64.StdEncoding.DecodeString(body.Artifacts[0].Base64)
	if err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return blob, nil
}

const (
	fallbackWidth  = 1344
	fallbackHeight = 768
)

// fallbackPNG renders a solid-color stand-in once and reuses the bytes.
func (im *Images) fallbackPNG() []byte {
	im.fallbackOnce.Do(func() {
		img := image.NewRGBA(image.Rect(0, 0, fallbackWidth, fallbackHeight))
		fill := color.RGBA{R: 50, G: 100, B: 150, A: 255}
		for y := 0; y < fallbackHeight; y++ {
			for x := 0; x < fallbackWidth; x++ {
				img.SetRGBA(x, y, fill)
			}
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err == nil {
			im.fallback = buf.Bytes()
		}
	})
	return im.fallback
}

// snapDimensions clamps a requested size to an accepted pair, preferring the
// configured default and falling back to 1344x768.
func snapDimensions(w, h int, cfg config.ImagesCfg) (int, int) {
	if w <= 0 || h <= 0 {
		w, h = cfg.Width, cfg.Height
	}
	for _, d := range sdxlDimensions {
		if w == d[0] && h == d[1] {
			return w, h
		}
	}
	return fallbackWidth, fallbackHeight
}
