package worksheets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilename(t *testing.T) {
	tests := []struct {
		title    string
		expected string
	}{
		{"Teste", "teste.pdf"},
		{"Frações e Decimais", "fracoes-e-decimais.pdf"},
		{"  Matemática:  Adição & Subtração!! ", "matematica-adicao-subtracao.pdf"},
		{"Ciências &amp; Natureza", "ciencias-natureza.pdf"},
		{"2º ano - Português", "2-ano-portugues.pdf"},
		{"", "worksheet.pdf"},
		{"???", "worksheet.pdf"},
		{"日本語", "worksheet.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.expected, Filename(tt.title))
		})
	}
}

func TestSlugLength(t *testing.T) {
	slug := Slug(strings.Repeat("abc ", 50))
	assert.LessOrEqual(t, len(slug), maxSlugLength)
	assert.False(t, strings.HasSuffix(slug, "-"))
}
