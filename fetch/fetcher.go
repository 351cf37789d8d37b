// Package fetch downloads the hosted images referenced by worksheet questions.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/worksheets/api"
)

// ErrNotAvailable wraps every fetch failure
var ErrNotAvailable = errors.New("image not available")

const (
	DefaultTimeout  = 15 * time.Second
	DefaultMaxBytes = 10 << 20
)

// Options configures a Fetcher
type Options struct {
	// Timeout bounds a single fetch, 0 disables the bound
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// MaxBytes is the largest body accepted, 0 means DefaultMaxBytes
	MaxBytes int64 `yaml:"max_bytes" json:"maxBytes"`

	// Cache stores successful downloads, see CacheConfig
	Cache CacheConfig `yaml:"cache" json:"cache"`

	UserAgent string `yaml:"user_agent" json:"userAgent"`
}

// DefaultOptions returns the options used by the server
func DefaultOptions() Options {
	return Options{
		Timeout:   DefaultTimeout,
		MaxBytes:  DefaultMaxBytes,
		UserAgent: "worksheets/1.0",
	}
}

// Fetcher issues a single GET per image, without retries
type Fetcher struct {
	client  *http.Client
	options Options
	cache   *Cache
}

// New creates a Fetcher. A nil client means http.DefaultClient's transport.
func New(client *http.Client, options Options) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	if options.MaxBytes <= 0 {
		options.MaxBytes = DefaultMaxBytes
	}
	return &Fetcher{client: client, options: options}
}

// WithCache attaches a cache, nil removes it
func (f *Fetcher) WithCache(cache *Cache) *Fetcher {
	f.cache = cache
	return f
}

// Fetch downloads url. It never returns nil: failures are reported through
// ImageEmbed.FetchSucceeded and ImageEmbed.Err and must not abort the document.
func (f *Fetcher) Fetch(ctx context.Context, url string) *api.ImageEmbed {
	if !isURL(url) {
		return api.NotAvailable(url, fmt.Errorf("%w: unsupported url %q", ErrNotAvailable, url))
	}

	if cached, err := f.cache.Get(url); err != nil {
		logger.Warnf("image cache lookup failed for %s: %v", url, err)
	} else if cached != nil {
		logger.Debugf("image cache hit: %s", url)
		return cached
	}

	start := time.Now()
	embed := f.get(ctx, url)
	if !embed.FetchSucceeded {
		logger.Warnf("image fetch failed after %s: %v", time.Since(start).Round(time.Millisecond), embed.Err)
		return embed
	}
	logger.Debugf("fetched %s in %s", embed, time.Since(start).Round(time.Millisecond))

	if err := f.cache.Set(embed); err != nil {
		logger.Warnf("failed to cache image %s: %v", url, err)
	}
	return embed
}

func (f *Fetcher) get(ctx context.Context, url string) *api.ImageEmbed {
	if f.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.options.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return api.NotAvailable(url, fmt.Errorf("%w: %v", ErrNotAvailable, err))
	}
	if f.options.UserAgent != "" {
		req.Header.Set("User-Agent", f.options.UserAgent)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return api.NotAvailable(url, fmt.Errorf("%w: %v", ErrNotAvailable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return api.NotAvailable(url, fmt.Errorf("%w: %s returned HTTP %d", ErrNotAvailable, url, resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.options.MaxBytes+1))
	if err != nil {
		return api.NotAvailable(url, fmt.Errorf("%w: reading %s: %v", ErrNotAvailable, url, err))
	}
	if int64(len(body)) > f.options.MaxBytes {
		return api.NotAvailable(url, fmt.Errorf("%w: %s is larger than %d bytes", ErrNotAvailable, url, f.options.MaxBytes))
	}
	if len(body) == 0 {
		return api.NotAvailable(url, fmt.Errorf("%w: %s returned an empty body", ErrNotAvailable, url))
	}

	return api.Available(url, body, contentType(resp.Header.Get("Content-Type")))
}

// contentType strips parameters such as charset from a Content-Type header
func contentType(header string) string {
	if i := strings.Index(header, ";"); i >= 0 {
		header = header[:i]
	}
	return strings.ToLower(strings.TrimSpace(header))
}

func isURL(str string) bool {
	lower := strings.ToLower(str)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
