package fetch

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/flanksource/worksheets/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	cache, err := NewCache(CacheConfig{TTL: ttl, DBPath: filepath.Join(t.TempDir(), "cache.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestCacheRoundTrip(t *testing.T) {
	cache := newTestCache(t, time.Hour)
	require.True(t, cache.Enabled())

	embed := api.Available("https://images.example.com/a.png", []byte{1, 2, 3}, "image/png")
	require.NoError(t, cache.Set(embed))

	got, err := cache.Get(embed.SourceURL)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.FetchSucceeded)
	assert.Equal(t, embed.Bytes, got.Bytes)
	assert.Equal(t, "image/png", got.ContentType)

	missing, err := cache.Get("https://images.example.com/other.png")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCacheSkipsFailures(t *testing.T) {
	cache := newTestCache(t, time.Hour)

	failed := api.NotAvailable("https://images.example.com/404.png", ErrNotAvailable)
	require.NoError(t, cache.Set(failed))

	got, err := cache.Get(failed.SourceURL)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheExpiry(t *testing.T) {
	cache := newTestCache(t, 50*time.Millisecond)

	embed := api.Available("https://images.example.com/a.png", []byte{1}, "image/png")
	require.NoError(t, cache.Set(embed))
	time.Sleep(100 * time.Millisecond)

	got, err := cache.Get(embed.SourceURL)
	require.NoError(t, err)
	assert.Nil(t, got)

	purged, err := cache.Purge()
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}

func TestCacheDisabled(t *testing.T) {
	cache, err := NewCache(CacheConfig{})
	require.NoError(t, err)
	assert.False(t, cache.Enabled())

	require.NoError(t, cache.Set(api.Available("https://x/a.png", []byte{1}, "")))
	got, err := cache.Get("https://x/a.png")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, cache.Close())

	var nilCache *Cache
	got, err = nilCache.Get("https://x/a.png")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheNegativeTTLDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	cache, err := NewCache(CacheConfig{TTL: -time.Hour, DBPath: path})
	require.NoError(t, err)
	assert.False(t, cache.Enabled())
	assert.Nil(t, cache.db)
	assert.NoFileExists(t, path)
	assert.NoError(t, cache.Close())
}
