// Package worksheets renders worksheet descriptions into printable PDFs.
package worksheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/worksheets/api"
	"github.com/flanksource/worksheets/fetch"
	"github.com/flanksource/worksheets/layout"
	"github.com/flanksource/worksheets/pdf"
	"github.com/flanksource/worksheets/sanitize"
)

// Generator turns one worksheet into PDF bytes per call. It is safe for
// concurrent use: every call gets its own renderer, engine and assembler.
type Generator struct {
	config Config
	images layout.Images
	cache  *fetch.Cache
}

// NewGenerator creates a generator that resolves images through images,
// which may be nil to draw every image as a placeholder
func NewGenerator(config Config, images layout.Images) *Generator {
	return &Generator{config: config, images: images}
}

// Open creates a generator with a fetcher and, when config.Fetch.Cache.TTL
// is set, an sqlite image cache. Close releases the cache.
func Open(config Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	cache, err := fetch.NewCache(config.Fetch.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to open image cache: %w", err)
	}
	fetcher := fetch.New(&http.Client{}, config.Fetch).WithCache(cache)

	g := NewGenerator(config, fetcher)
	g.cache = cache
	return g, nil
}

// Config returns the configuration the generator was created with
func (g *Generator) Config() Config {
	return g.config
}

// Generate renders doc. On error no bytes are returned.
func (g *Generator) Generate(ctx context.Context, doc *api.Worksheet) ([]byte, error) {
	if doc == nil {
		return nil, errors.New("no worksheet")
	}
	start := time.Now()

	page := g.config.Render.Page
	page.Title = sanitize.Entities(doc.Title)
	renderer, err := pdf.New(g.config.Render.Renderer, page)
	if err != nil {
		return nil, err
	}

	engine, err := layout.New(renderer, g.images, g.config.Layout)
	if err != nil {
		return nil, err
	}
	if err := engine.Draw(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to lay out worksheet: %w", err)
	}

	data, err := pdf.Render(ctx, renderer)
	if err != nil {
		return nil, err
	}

	if g.config.Render.Validate {
		if err := pdf.Validate(data); err != nil {
			return nil, err
		}
	}

	logger.Debugf("generated %q: %d questions, %d pages, %d bytes in %s",
		doc.Title, len(doc.Questions), renderer.PageCount(), len(data), time.Since(start).Round(time.Millisecond))
	return data, nil
}

// Close releases the image cache, if any
func (g *Generator) Close() error {
	return g.cache.Close()
}
