package api

import "fmt"

// DefaultImageContentType is assumed when a server omits Content-Type
const DefaultImageContentType = "image/png"

// ImageEmbed is the outcome of fetching one question image. It is created
// while laying out a question and dropped once drawn.
type ImageEmbed struct {
	SourceURL      string `json:"sourceUrl"`
	Bytes          []byte `json:"-"`
	ContentType    string `json:"contentType,omitempty"`
	FetchSucceeded bool   `json:"fetchSucceeded"`

	// Err describes why the fetch failed, nil on success
	Err error `json:"-"`
}

// NotAvailable builds a failed embed for url
func NotAvailable(url string, err error) *ImageEmbed {
	return &ImageEmbed{SourceURL: url, Err: err}
}

// Available builds a successful embed, defaulting the content type
func Available(url string, body []byte, contentType string) *ImageEmbed {
	if contentType == "" {
		contentType = DefaultImageContentType
	}
	return &ImageEmbed{
		SourceURL:      url,
		Bytes:          body,
		ContentType:    contentType,
		FetchSucceeded: true,
	}
}

func (e ImageEmbed) String() string {
	if !e.FetchSucceeded {
		return fmt.Sprintf("%s (not available: %v)", e.SourceURL, e.Err)
	}
	return fmt.Sprintf("%s (%s, %d bytes)", e.SourceURL, e.ContentType, len(e.Bytes))
}
