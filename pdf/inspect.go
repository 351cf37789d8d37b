package pdf

import (
	"bytes"
	"fmt"
	"strings"

	pdftext "github.com/ledongthuc/pdf"
	pdfcpu "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Info is a summary of a generated document
type Info struct {
	Pages int `json:"pages"`
	Size  int `json:"size"`
}

func pdfcpuConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Validate checks the structure of a PDF with pdfcpu
func Validate(data []byte) error {
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		return fmt.Errorf("missing %%PDF header")
	}
	if err := pdfcpu.Validate(bytes.NewReader(data), pdfcpuConfig()); err != nil {
		return fmt.Errorf("invalid PDF: %w", err)
	}
	return nil
}

// GetInfo returns the page count and size of a PDF
func GetInfo(data []byte) (*Info, error) {
	pages, err := pdfcpu.PageCount(bytes.NewReader(data), pdfcpuConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	return &Info{Pages: pages, Size: len(data)}, nil
}

// ExtractText returns the plain text of every page, in page order
func ExtractText(data []byte) (string, error) {
	pages, err := ExtractPages(data)
	if err != nil {
		return "", err
	}
	return strings.Join(pages, "\n"), nil
}

// ExtractPages returns the plain text of each page
func ExtractPages(data []byte) ([]string, error) {
	reader, err := pdftext.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}
