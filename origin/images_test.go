package origin

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/contra-app/fetchcache"
	"github.com/contra-app/fetchcache/config"
	"github.com/stretchr/testify/require"
)

func imagesServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.Contains(t, r.URL.Path, "/text-to-image")
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var payload struct {
			Width  int     `json:"width"`
			Height int     `json:"height"`
			Steps  int     `json:"steps"`
			Scale  float64 `json:"cfg_scale"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, 30, payload.Steps)
		require.Equal(t, 7.0, payload.Scale)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"artifacts": []map[string]any{
				{"base64": base64.StdEncoding.EncodeToString([]byte("fake-png-bytes"))},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func imagesCfg() config.ImagesCfg {
	return config.ImagesCfg{APIKey: "test-key", Width: 1344, Height: 768}
}

func TestGenerateImageCachesBlob(t *testing.T) {
	var hits atomic.Int64
	srv := imagesServer(t, &hits)

	im := NewImages(testRegistry(t), testClient(t), imagesCfg()).WithBaseURL(srv.URL)
	params := ImageParams{Prompt: "a skyline at dusk"}

	res := im.Generate(context.Background(), params)
	require.Equal(t, fetchcache.StatusOk, res.Status)
	require.Equal(t, []byte("fake-png-bytes"), res.Value.PNG)
	require.Equal(t, "origin", res.Value.Source)
	require.Equal(t, 1344, res.Value.Width)

	res = im.Generate(context.Background(), params)
	require.Equal(t, fetchcache.StatusOk, res.Status)
	require.Equal(t, "cache", res.Value.Source)
	require.Equal(t, int64(1), hits.Load())
}

func TestGenerateImageKeySeparatesParams(t *testing.T) {
	var hits atomic.Int64
	srv := imagesServer(t, &hits)

	im := NewImages(testRegistry(t), testClient(t), imagesCfg()).WithBaseURL(srv.URL)

	_ = im.Generate(context.Background(), ImageParams{Prompt: "a skyline at dusk"})
	_ = im.Generate(context.Background(), ImageParams{Prompt: "a skyline at dusk", Seed: 7})
	require.Equal(t, int64(2), hits.Load(), "different seeds are different generations")
}

func TestGenerateImageFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "insufficient balance", http.StatusPaymentRequired)
	}))
	t.Cleanup(srv.Close)

	im := NewImages(testRegistry(t), testClient(t), imagesCfg()).WithBaseURL(srv.URL)

	res := im.Generate(context.Background(), ImageParams{Prompt: "a skyline at dusk"})
	require.Equal(t, fetchcache.StatusDegraded, res.Status)
	require.Equal(t, "fallback", res.Value.Source)

	img, err := png.Decode(bytes.NewReader(res.Value.PNG))
	require.NoError(t, err)
	require.Equal(t, fallbackWidth, img.Bounds().Dx())
	require.Equal(t, fallbackHeight, img.Bounds().Dy())
}

func TestSnapDimensions(t *testing.T) {
	cfg := imagesCfg()

	w, h := snapDimensions(0, 0, cfg)
	require.Equal(t, 1344, w)
	require.Equal(t, 768, h)

	w, h = snapDimensions(1024, 1024, cfg)
	require.Equal(t, 1024, w)
	require.Equal(t, 1024, h)

	w, h = snapDimensions(1920, 1080, cfg)
	require.Equal(t, 1344, w)
	require.Equal(t, 768, h)
}
