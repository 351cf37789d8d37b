package pdf

import (
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/flanksource/worksheets/api"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	marotoimage "github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/linestyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

const gridColumns = 12

// MarotoRenderer lays every draw command out as a maroto row. Rows stack
// vertically and maroto moves a row that does not fit to the next page, so
// images advance the cursor like any other block.
type MarotoRenderer struct {
	maroto core.Maroto
	config PageConfig

	// cursor is tracked from row heights since maroto does not expose it
	y    float64
	page int
}

// NewMaroto creates an empty maroto document
func NewMaroto(pageConfig PageConfig) *MarotoRenderer {
	if pageConfig.Width <= 0 || pageConfig.Height <= 0 {
		defaults := DefaultPageConfig()
		pageConfig.Width, pageConfig.Height = defaults.Width, defaults.Height
	}

	cfg := config.NewBuilder().
		WithDimensions(pageConfig.Width, pageConfig.Height).
		WithLeftMargin(pageConfig.Margins.Left).
		WithRightMargin(pageConfig.Margins.Right).
		WithTopMargin(pageConfig.Margins.Top).
		WithBottomMargin(pageConfig.Margins.Bottom).
		Build()

	return &MarotoRenderer{
		maroto: maroto.New(cfg),
		config: pageConfig,
		y:      pageConfig.Margins.Top,
		page:   1,
	}
}

func (r *MarotoRenderer) Text(content string, style TextStyle) error {
	size := style.Size
	if size <= 0 {
		size = 12
	}
	textProps := props.Text{
		Size:  size,
		Style: marotoFontStyle(style),
		Align: marotoAlign(style.Align),
	}
	height := r.textHeight(content, size)
	r.addRow(height, col.New(gridColumns).Add(text.New(content, textProps)))
	return nil
}

func (r *MarotoRenderer) Image(embed *api.ImageEmbed, width, height float64) error {
	img, err := NormalizeImage(embed, FormatPNG, FormatJPEG)
	if err != nil {
		return err
	}
	ext := extension.Png
	if img.Format == FormatJPEG {
		ext = extension.Jpg
	}

	span, left, right := r.centeredSpan(width)
	cols := make([]core.Col, 0, 3)
	if left > 0 {
		cols = append(cols, col.New(left))
	}
	cols = append(cols, col.New(span).Add(
		marotoimage.NewFromBytes(img.Data, ext, props.Rect{Center: true, Percent: 100}),
	))
	if right > 0 {
		cols = append(cols, col.New(right))
	}
	r.addRow(height, cols...)
	return nil
}

func (r *MarotoRenderer) Rule(width float64) error {
	percent := math.Min(100, 100*width/r.ContentWidth())
	r.addRow(1, col.New(gridColumns).Add(line.New(props.Line{
		Thickness:   0.3,
		SizePercent: percent,
		Style:       linestyle.Solid,
		Orientation: orientation.Horizontal,
	})))
	return nil
}

func (r *MarotoRenderer) Space(height float64) {
	if height <= 0 {
		return
	}
	r.maroto.AddRows(row.New(height))
	r.advance(height)
}

func (r *MarotoRenderer) Cursor() Cursor {
	return Cursor{
		X:         r.config.Margins.Left,
		Y:         r.y,
		Page:      r.page,
		PageWidth: r.config.Width,
		Margins:   r.config.Margins,
	}
}

func (r *MarotoRenderer) ContentWidth() float64 {
	return r.config.ContentWidth()
}

// AdvancesOnImage is true: images occupy a row like everything else
func (r *MarotoRenderer) AdvancesOnImage() bool {
	return true
}

func (r *MarotoRenderer) PageCount() int {
	return r.page
}

func (r *MarotoRenderer) Close(w io.Writer) error {
	document, err := r.maroto.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate PDF: %w", err)
	}
	if _, err := w.Write(document.GetBytes()); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

func (r *MarotoRenderer) addRow(height float64, cols ...core.Col) {
	r.maroto.AddRow(height, cols...)
	r.advance(height)
}

// advance mirrors maroto's pagination: a row that does not fit on the
// current page is moved whole to the next one
func (r *MarotoRenderer) advance(height float64) {
	bottom := r.config.Height - r.config.Margins.Bottom
	if r.y+height > bottom {
		r.page++
		r.y = r.config.Margins.Top
	}
	r.y += height
}

// textHeight estimates the wrapped height of content, maroto rows have a
// fixed height so it has to be known up front
func (r *MarotoRenderer) textHeight(content string, size float64) float64 {
	lineHeight := size * 0.5
	charWidth := size * 0.2
	perLine := math.Max(1, math.Floor(r.ContentWidth()/charWidth))
	lines := 0.0
	for _, segment := range strings.Split(content, "\n") {
		lines += math.Max(1, math.Ceil(float64(utf8.RuneCountInString(segment))/perLine))
	}
	return lines*lineHeight + 1
}

// centeredSpan converts a width in mm to a column span with empty columns on
// either side
func (r *MarotoRenderer) centeredSpan(width float64) (span, left, right int) {
	span = int(math.Round(gridColumns * width / r.ContentWidth()))
	if span < 1 {
		span = 1
	}
	if span > gridColumns {
		span = gridColumns
	}
	left = (gridColumns - span) / 2
	right = gridColumns - span - left
	return span, left, right
}

func marotoFontStyle(style TextStyle) fontstyle.Type {
	switch {
	case style.Bold && style.Italic:
		return fontstyle.BoldItalic
	case style.Bold:
		return fontstyle.Bold
	case style.Italic:
		return fontstyle.Italic
	default:
		return fontstyle.Normal
	}
}

func marotoAlign(a Align) align.Type {
	switch a {
	case AlignCenter:
		return align.Center
	case AlignRight:
		return align.Right
	case AlignJustify:
		return align.Justify
	default:
		return align.Left
	}
}
