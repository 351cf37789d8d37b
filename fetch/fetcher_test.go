package fetch

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for x := 0; x < 4; x++ {
		for y := 0; y < 3; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newImageServer(t *testing.T, hits *int64) *httptest.Server {
	t.Helper()
	body := testPNG(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/ok.png", func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt64(hits, 1)
		}
		w.Header().Set("Content-Type", "image/png; charset=binary")
		_, _ = w.Write(body)
	})
	mux.HandleFunc("/untyped", func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
		_, _ = w.Write(body)
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchSuccess(t *testing.T) {
	srv := newImageServer(t, nil)
	f := New(srv.Client(), DefaultOptions())

	embed := f.Fetch(context.Background(), srv.URL+"/ok.png")
	require.True(t, embed.FetchSucceeded, "%v", embed.Err)
	assert.Equal(t, "image/png", embed.ContentType)
	assert.Equal(t, testPNG(t), embed.Bytes, "bytes must be passed through untouched")
	assert.NoError(t, embed.Err)
}

func TestFetchDefaultsContentType(t *testing.T) {
	srv := newImageServer(t, nil)
	f := New(srv.Client(), DefaultOptions())

	embed := f.Fetch(context.Background(), srv.URL+"/untyped")
	require.True(t, embed.FetchSucceeded)
	assert.Equal(t, "image/png", embed.ContentType)
}

func TestFetchFailures(t *testing.T) {
	srv := newImageServer(t, nil)
	opts := DefaultOptions()
	opts.Timeout = 100 * time.Millisecond
	f := New(srv.Client(), opts)

	tests := []struct {
		name string
		url  string
	}{
		{"not found", srv.URL + "/missing.png"},
		{"empty body", srv.URL + "/empty"},
		{"timeout", srv.URL + "/slow"},
		{"unreachable host", "http://127.0.0.1:1/image.png"},
		{"not a url", "data:image/png;base64,AAAA"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embed := f.Fetch(context.Background(), tt.url)
			require.NotNil(t, embed)
			assert.False(t, embed.FetchSucceeded)
			assert.ErrorIs(t, embed.Err, ErrNotAvailable)
			assert.Empty(t, embed.Bytes)
			assert.Equal(t, tt.url, embed.SourceURL)
		})
	}
}

func TestFetchMaxBytes(t *testing.T) {
	srv := newImageServer(t, nil)
	opts := DefaultOptions()
	opts.MaxBytes = 10
	f := New(srv.Client(), opts)

	embed := f.Fetch(context.Background(), srv.URL+"/ok.png")
	assert.False(t, embed.FetchSucceeded)
	assert.Contains(t, embed.Err.Error(), "larger than 10 bytes")
}

func TestFetchNoRetry(t *testing.T) {
	var hits int64
	mux := http.NewServeMux()
	mux.HandleFunc("/flaky", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	embed := New(srv.Client(), DefaultOptions()).Fetch(context.Background(), srv.URL+"/flaky")
	assert.False(t, embed.FetchSucceeded)
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))
}

func TestFetchUsesCache(t *testing.T) {
	var hits int64
	srv := newImageServer(t, &hits)

	cache, err := NewCache(CacheConfig{TTL: time.Hour, DBPath: filepath.Join(t.TempDir(), "images.db")})
	require.NoError(t, err)
	defer cache.Close()

	f := New(srv.Client(), DefaultOptions()).WithCache(cache)
	url := srv.URL + "/ok.png"

	first := f.Fetch(context.Background(), url)
	second := f.Fetch(context.Background(), url)
	require.True(t, first.FetchSucceeded)
	require.True(t, second.FetchSucceeded)
	assert.Equal(t, first.Bytes, second.Bytes)
	assert.Equal(t, first.ContentType, second.ContentType)
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))
}

func TestPrefetchKeepsOrder(t *testing.T) {
	srv := newImageServer(t, nil)
	f := New(srv.Client(), DefaultOptions())

	urls := []string{
		srv.URL + "/ok.png",
		srv.URL + "/missing.png",
		"",
		srv.URL + "/untyped",
	}
	pending := f.Prefetch(context.Background(), urls, 2)
	require.Len(t, pending, len(urls))

	var got []bool
	for i, p := range pending {
		embed := p.Wait(context.Background(), urls[i])
		assert.Equal(t, urls[i], embed.SourceURL)
		got = append(got, embed.FetchSucceeded)
	}
	assert.Equal(t, []bool{true, false, false, true}, got)
}

func TestPrefetchCancelled(t *testing.T) {
	srv := newImageServer(t, nil)
	f := New(srv.Client(), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	pending := f.Prefetch(ctx, []string{srv.URL + "/slow"}, 1)
	cancel()

	embed := pending[0].Wait(context.Background(), srv.URL+"/slow")
	assert.False(t, embed.FetchSucceeded)
}
