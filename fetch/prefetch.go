package fetch

import (
	"context"

	"github.com/flanksource/worksheets/api"
)

// Pending is the result of one prefetched image
type Pending <-chan *api.ImageEmbed

// Wait blocks until the fetch completes or ctx is done
func (p Pending) Wait(ctx context.Context, url string) *api.ImageEmbed {
	select {
	case embed := <-p:
		return embed
	case <-ctx.Done():
		return api.NotAvailable(url, ctx.Err())
	}
}

// Prefetch starts fetching urls with at most concurrency requests in flight.
// The returned slice is index-aligned with urls so the caller can consume
// results in document order while later downloads are still running.
// Empty urls resolve immediately to a failed embed.
func (f *Fetcher) Prefetch(ctx context.Context, urls []string, concurrency int) []Pending {
	if concurrency < 1 {
		concurrency = 1
	}

	sem := make(chan struct{}, concurrency)
	results := make([]Pending, len(urls))

	for i, url := range urls {
		ch := make(chan *api.ImageEmbed, 1)
		results[i] = ch

		if url == "" {
			ch <- api.NotAvailable(url, ErrNotAvailable)
			continue
		}

		go func(url string, ch chan<- *api.ImageEmbed) {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				ch <- api.NotAvailable(url, ctx.Err())
				return
			}
			defer func() { <-sem }()
			ch <- f.Fetch(ctx, url)
		}(url, ch)
	}

	return results
}
