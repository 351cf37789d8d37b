// Package pdf turns draw commands into PDF bytes. Two renderers are available:
// a cursor based one on top of fpdf and a row based one on top of maroto.
package pdf

import (
	"fmt"
	"io"

	"github.com/flanksource/worksheets/api"
)

// Kind selects a Renderer implementation
type Kind string

const (
	KindFpdf   Kind = "fpdf"
	KindMaroto Kind = "maroto"
)

// Align is the horizontal alignment of a text block
type Align string

const (
	AlignLeft    Align = "left"
	AlignCenter  Align = "center"
	AlignRight   Align = "right"
	AlignJustify Align = "justify"
)

// TextStyle describes how a text block is drawn
type TextStyle struct {
	Size   float64 // points
	Bold   bool
	Italic bool
	Align  Align
}

// Margins of a page, in mm
type Margins struct {
	Left   float64 `yaml:"left" json:"left"`
	Right  float64 `yaml:"right" json:"right"`
	Top    float64 `yaml:"top" json:"top"`
	Bottom float64 `yaml:"bottom" json:"bottom"`
}

// Cursor is the position where the next block will be drawn. Y only grows
// within a page and is reset by a page break.
type Cursor struct {
	X         float64
	Y         float64
	Page      int
	PageWidth float64
	Margins   Margins
}

// PageConfig is the fixed page geometry of a document, in mm
type PageConfig struct {
	Width   float64 `yaml:"width" json:"width"`
	Height  float64 `yaml:"height" json:"height"`
	Margins Margins `yaml:"margins" json:"margins"`

	Title   string `yaml:"-" json:"-"`
	Creator string `yaml:"creator" json:"creator"`
}

// DefaultPageConfig is A4 portrait with 15mm margins
func DefaultPageConfig() PageConfig {
	return PageConfig{
		Width:   210,
		Height:  297,
		Margins: Margins{Left: 15, Right: 15, Top: 15, Bottom: 15},
		Creator: "worksheets",
	}
}

// ContentWidth is the width available between the margins
func (p PageConfig) ContentWidth() float64 {
	return p.Width - p.Margins.Left - p.Margins.Right
}

// Renderer accepts draw commands for one document and writes the finished
// PDF on Close. Implementations paginate on their own.
type Renderer interface {
	// Text draws a wrapped block of text at the cursor and moves below it
	Text(content string, style TextStyle) error

	// Image draws the image centered at the cursor. Whether the cursor moves
	// is reported by AdvancesOnImage.
	Image(embed *api.ImageEmbed, width, height float64) error

	// Rule draws a horizontal line of the given width from the left margin
	Rule(width float64) error

	// Space moves the cursor down
	Space(height float64)

	Cursor() Cursor
	ContentWidth() float64

	// AdvancesOnImage reports whether Image moves the cursor below the image
	AdvancesOnImage() bool

	PageCount() int

	// Close finishes the document and writes it to w. No draw command may
	// follow.
	Close(w io.Writer) error
}

// New creates an empty document for kind
func New(kind Kind, config PageConfig) (Renderer, error) {
	switch kind {
	case KindFpdf, "":
		return NewFpdf(config), nil
	case KindMaroto:
		return NewMaroto(config), nil
	default:
		return nil, fmt.Errorf("unknown renderer %q", kind)
	}
}

// Kinds lists the supported renderers
func Kinds() []Kind {
	return []Kind{KindFpdf, KindMaroto}
}
