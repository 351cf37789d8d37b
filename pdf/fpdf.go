package pdf

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/flanksource/worksheets/api"
	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"
)

const fontFamily = "Helvetica"

// FpdfRenderer draws with an explicit cursor. Text blocks wrap with
// MultiCell and trigger fpdf's automatic page break; images are placed at an
// absolute position and leave the cursor where it was.
type FpdfRenderer struct {
	pdf    *fpdf.Fpdf
	config PageConfig
	images int
}

// NewFpdf creates a document with a single empty page
func NewFpdf(config PageConfig) *FpdfRenderer {
	if config.Width <= 0 || config.Height <= 0 {
		defaults := DefaultPageConfig()
		config.Width, config.Height = defaults.Width, defaults.Height
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: config.Width, Ht: config.Height},
	})
	pdf.SetMargins(config.Margins.Left, config.Margins.Top, config.Margins.Right)
	pdf.SetAutoPageBreak(true, config.Margins.Bottom)

	if config.Title != "" {
		pdf.SetTitle(config.Title, true)
	}
	if config.Creator != "" {
		pdf.SetCreator(config.Creator, true)
	}

	pdf.AddPage()
	pdf.SetFont(fontFamily, "", 12)

	return &FpdfRenderer{pdf: pdf, config: config}
}

func (r *FpdfRenderer) Text(content string, style TextStyle) error {
	size := style.Size
	if size <= 0 {
		size = 12
	}
	r.pdf.SetFont(fontFamily, fontStyle(style), size)
	r.pdf.MultiCell(r.ContentWidth(), size*0.5, encodeWinAnsi(content), "", alignStr(style.Align), false)
	return r.err()
}

func (r *FpdfRenderer) Image(embed *api.ImageEmbed, width, height float64) error {
	img, err := NormalizeImage(embed, FormatPNG, FormatJPEG, FormatGIF)
	if err != nil {
		return err
	}

	r.images++
	name := fmt.Sprintf("question-image-%d", r.images)
	options := fpdf.ImageOptions{ImageType: string(img.Format)}

	info := r.pdf.RegisterImageOptionsReader(name, options, bytes.NewReader(img.Data))
	if r.pdf.Err() || info == nil {
		err := r.pdf.Error()
		// a failed registration must not poison the rest of the document
		r.pdf.ClearError()
		return fmt.Errorf("failed to embed %s: %w", embed.SourceURL, err)
	}

	r.breakIfOverflow(height)
	x := r.config.Margins.Left + (r.ContentWidth()-width)/2
	r.pdf.ImageOptions(name, x, r.pdf.GetY(), width, height, false, options, 0, "")
	return r.err()
}

func (r *FpdfRenderer) Rule(width float64) error {
	r.breakIfOverflow(1)
	left := r.config.Margins.Left
	y := r.pdf.GetY()
	r.pdf.SetLineWidth(0.3)
	r.pdf.SetDrawColor(80, 80, 80)
	r.pdf.Line(left, y, left+width, y)
	r.pdf.SetDrawColor(0, 0, 0)
	r.pdf.SetLineWidth(0.2)
	return r.err()
}

func (r *FpdfRenderer) Space(height float64) {
	r.pdf.Ln(height)
}

func (r *FpdfRenderer) Cursor() Cursor {
	return Cursor{
		X:         r.pdf.GetX(),
		Y:         r.pdf.GetY(),
		Page:      r.pdf.PageNo(),
		PageWidth: r.config.Width,
		Margins:   r.config.Margins,
	}
}

func (r *FpdfRenderer) ContentWidth() float64 {
	return r.config.ContentWidth()
}

// AdvancesOnImage is false: images are drawn with flow disabled
func (r *FpdfRenderer) AdvancesOnImage() bool {
	return false
}

func (r *FpdfRenderer) PageCount() int {
	return r.pdf.PageCount()
}

func (r *FpdfRenderer) Close(w io.Writer) error {
	if err := r.err(); err != nil {
		return err
	}
	if err := r.pdf.Output(w); err != nil {
		return fmt.Errorf("failed to generate PDF: %w", err)
	}
	return nil
}

// breakIfOverflow starts a new page when a block of height h that fpdf will
// not paginate by itself would cross the bottom margin
func (r *FpdfRenderer) breakIfOverflow(h float64) {
	if r.pdf.GetY()+h > r.config.Height-r.config.Margins.Bottom {
		r.pdf.AddPage()
	}
}

func (r *FpdfRenderer) err() error {
	if r.pdf.Err() {
		return fmt.Errorf("pdf renderer: %w", r.pdf.Error())
	}
	return nil
}

func fontStyle(style TextStyle) string {
	s := ""
	if style.Bold {
		s += "B"
	}
	if style.Italic {
		s += "I"
	}
	return s
}

func alignStr(a Align) string {
	switch a {
	case AlignCenter:
		return "C"
	case AlignRight:
		return "R"
	case AlignJustify:
		return "J"
	default:
		return "L"
	}
}

// encodeWinAnsi converts UTF-8 to the Windows-1252 bytes expected by the
// core fonts. Characters outside the code page become '?'.
func encodeWinAnsi(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\t':
			b.WriteByte(' ')
			continue
		case '\r':
			continue
		}
		if c, ok := charmap.Windows1252.EncodeRune(r); ok {
			b.WriteByte(c)
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}
