// Package pdftest provides assertions on generated PDF bytes: structure and
// page count through pdfcpu, text content through ledongthuc/pdf.
package pdftest

import (
	"strings"
	"testing"

	"github.com/flanksource/worksheets/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertPDFBasicStructure checks the header and validates the document
func AssertPDFBasicStructure(t *testing.T, pdfData []byte) {
	t.Helper()

	require.Greater(t, len(pdfData), 100, "PDF appears to be too small to contain meaningful content")
	require.Equal(t, "%PDF", string(pdfData[:4]), "generated data doesn't look like a PDF")
	require.NoError(t, pdf.Validate(pdfData))
}

// AssertPDFPageCount verifies the number of pages
func AssertPDFPageCount(t *testing.T, pdfData []byte, expectedPages int) {
	t.Helper()

	info, err := pdf.GetInfo(pdfData)
	require.NoError(t, err)
	assert.Equal(t, expectedPages, info.Pages, "page count")
}

// Text returns the extracted text of the whole document
func Text(t *testing.T, pdfData []byte) string {
	t.Helper()

	text, err := pdf.ExtractText(pdfData)
	require.NoError(t, err)
	return text
}

// AssertPDFContainsText verifies that every expected string appears
func AssertPDFContainsText(t *testing.T, pdfData []byte, expectedTexts ...string) {
	t.Helper()

	text := Text(t, pdfData)
	for _, expected := range expectedTexts {
		assert.Contains(t, text, expected)
	}
}

// AssertPDFNotContainsText verifies that none of the strings appear
func AssertPDFNotContainsText(t *testing.T, pdfData []byte, unexpected ...string) {
	t.Helper()

	text := Text(t, pdfData)
	for _, s := range unexpected {
		assert.NotContains(t, text, s)
	}
}

// AssertPDFTextOrder verifies that the strings appear in the given order
func AssertPDFTextOrder(t *testing.T, pdfData []byte, orderedTexts ...string) {
	t.Helper()

	text := Text(t, pdfData)
	offset := 0
	for _, expected := range orderedTexts {
		idx := strings.Index(text[offset:], expected)
		if !assert.GreaterOrEqual(t, idx, 0, "%q not found after offset %d", expected, offset) {
			return
		}
		offset += idx + len(expected)
	}
}

// CountText returns how many times s appears in the document text
func CountText(t *testing.T, pdfData []byte, s string) int {
	t.Helper()
	return strings.Count(Text(t, pdfData), s)
}
