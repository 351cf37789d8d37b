// Package layout draws a worksheet onto a pdf.Renderer in a fixed order:
// header, title, description, then either the questions or the legacy
// content list. Pagination is left to the renderer.
package layout

import (
	"context"
	"errors"
	"fmt"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/worksheets/api"
	"github.com/flanksource/worksheets/fetch"
	"github.com/flanksource/worksheets/pdf"
	"github.com/flanksource/worksheets/sanitize"
	"github.com/samber/lo"
)

// Images resolves question image urls. fetch.Fetcher is the production
// implementation.
type Images interface {
	Prefetch(ctx context.Context, urls []string, concurrency int) []fetch.Pending
}

// Options controls the geometry of the drawn blocks, all lengths in mm
type Options struct {
	Locale string `yaml:"locale" json:"locale"`

	// Labels overrides the labels of Locale when Question is set
	Labels Labels `yaml:"labels,omitempty" json:"labels,omitempty"`

	ImageWidth float64 `yaml:"image_width" json:"imageWidth"`
	// ImageAspect is height/width of the drawn image box
	ImageAspect float64 `yaml:"image_aspect" json:"imageAspect"`

	ImageGap       float64 `yaml:"image_gap" json:"imageGap"`
	PlaceholderGap float64 `yaml:"placeholder_gap" json:"placeholderGap"`
	AlternativeGap float64 `yaml:"alternative_gap" json:"alternativeGap"`
	AnswerLineGap  float64 `yaml:"answer_line_gap" json:"answerLineGap"`
	QuestionGap    float64 `yaml:"question_gap" json:"questionGap"`

	// Concurrency bounds the number of images downloaded ahead of drawing
	Concurrency int `yaml:"concurrency" json:"concurrency"`
}

// DefaultOptions draws 80x60mm images with pt-BR labels
func DefaultOptions() Options {
	return Options{
		Locale:         DefaultLocale,
		ImageWidth:     80,
		ImageAspect:    0.75,
		ImageGap:       5,
		PlaceholderGap: 3,
		AlternativeGap: 2,
		AnswerLineGap:  8,
		QuestionGap:    8,
		Concurrency:    4,
	}
}

// ImageHeight is the fixed display height derived from width and aspect
func (o Options) ImageHeight() float64 {
	return o.ImageWidth * o.ImageAspect
}

var (
	headerStyle      = pdf.TextStyle{Size: 11, Align: pdf.AlignLeft}
	titleStyle       = pdf.TextStyle{Size: 20, Bold: true, Align: pdf.AlignCenter}
	bodyStyle        = pdf.TextStyle{Size: 12, Align: pdf.AlignJustify}
	labelStyle       = pdf.TextStyle{Size: 12, Bold: true, Align: pdf.AlignLeft}
	alternativeStyle = pdf.TextStyle{Size: 12, Align: pdf.AlignLeft}
	placeholderStyle = pdf.TextStyle{Size: 10, Italic: true, Align: pdf.AlignCenter}
)

// Engine draws one worksheet. It holds the renderer, and through it the
// cursor, for the duration of a single document.
type Engine struct {
	renderer pdf.Renderer
	images   Images
	options  Options
	labels   Labels

	// advances is read once from the renderer
	advances bool
}

// New creates an engine drawing onto renderer. images may be nil, in which
// case every question image is drawn as a placeholder.
func New(renderer pdf.Renderer, images Images, options Options) (*Engine, error) {
	if renderer == nil {
		return nil, errors.New("layout: nil renderer")
	}
	labels := options.Labels
	if labels.Question == "" {
		var err error
		if labels, err = LabelsFor(options.Locale); err != nil {
			return nil, err
		}
	}
	defaults := DefaultOptions()
	if options.ImageWidth <= 0 {
		options.ImageWidth = defaults.ImageWidth
	}
	if options.ImageAspect <= 0 {
		options.ImageAspect = defaults.ImageAspect
	}

	return &Engine{
		renderer: renderer,
		images:   images,
		options:  options,
		labels:   labels,
		advances: renderer.AdvancesOnImage(),
	}, nil
}

// Draw lays out doc. Image failures become placeholders; any other renderer
// error aborts the draw.
func (e *Engine) Draw(ctx context.Context, doc *api.Worksheet) error {
	if doc == nil {
		return errors.New("layout: nil worksheet")
	}

	if doc.Header != nil {
		if err := e.drawHeader(doc.Header); err != nil {
			return fmt.Errorf("header: %w", err)
		}
	}

	if err := e.renderer.Text(sanitize.Entities(doc.Title), titleStyle); err != nil {
		return fmt.Errorf("title: %w", err)
	}
	e.renderer.Space(4)

	if doc.Description != nil {
		if err := e.renderer.Text(sanitize.Entities(*doc.Description), bodyStyle); err != nil {
			return fmt.Errorf("description: %w", err)
		}
		e.renderer.Space(6)
	}

	if doc.HasQuestions() {
		return e.drawQuestions(ctx, doc.Questions)
	}
	return e.drawContent(doc.Content)
}

func (e *Engine) drawHeader(h *api.Header) error {
	lines := []string{
		e.labels.StudentName + " " + h.StudentName,
		e.labels.School + " " + h.School,
		e.labels.TeacherName + " " + h.TeacherName,
	}
	for _, line := range lines {
		if err := e.renderer.Text(line, headerStyle); err != nil {
			return err
		}
		e.renderer.Space(1)
	}
	if err := e.renderer.Rule(e.renderer.ContentWidth()); err != nil {
		return err
	}
	e.renderer.Space(8)
	return nil
}

func (e *Engine) drawQuestions(ctx context.Context, questions []api.Question) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	urls := lo.Map(questions, func(q api.Question, _ int) string {
		if q.HasImage() {
			return *q.ImageURL
		}
		return ""
	})

	var pending []fetch.Pending
	if e.images != nil && lo.SomeBy(urls, func(u string) bool { return u != "" }) {
		pending = e.images.Prefetch(ctx, urls, e.options.Concurrency)
	}

	for i, q := range questions {
		var image fetch.Pending
		if pending != nil {
			image = pending[i]
		}
		if err := e.drawQuestion(ctx, q, image); err != nil {
			return fmt.Errorf("question %d: %w", q.Number, err)
		}
	}
	return nil
}

func (e *Engine) drawQuestion(ctx context.Context, q api.Question, image fetch.Pending) error {
	r := e.renderer

	if err := r.Text(fmt.Sprintf("%s %d", e.labels.Question, q.Number), labelStyle); err != nil {
		return err
	}
	if err := r.Text(sanitize.Entities(q.QuestionText), bodyStyle); err != nil {
		return err
	}
	r.Space(2)

	if q.HasImage() {
		if err := e.drawImage(ctx, *q.ImageURL, image); err != nil {
			return err
		}
	}

	if len(q.Alternatives) > 0 {
		prefix := AlternativePrefix(q.Type)
		for _, alt := range q.Alternatives {
			if err := r.Text(prefix+sanitize.Entities(alt), alternativeStyle); err != nil {
				return err
			}
			r.Space(e.options.AlternativeGap)
		}
	}

	if lines := q.Lines(); lines > 0 {
		width := AnswerLineWidth(lines, r.ContentWidth())
		for i := 0; i < lines; i++ {
			r.Space(e.options.AnswerLineGap)
			if err := r.Rule(width); err != nil {
				return err
			}
		}
	}

	r.Space(e.options.QuestionGap)
	return nil
}

// drawImage embeds the image of a question or falls back to the placeholder.
// Only the placeholder text itself can fail the document.
func (e *Engine) drawImage(ctx context.Context, url string, image fetch.Pending) error {
	var embed *api.ImageEmbed
	if image != nil {
		embed = image.Wait(ctx, url)
	} else {
		embed = api.NotAvailable(url, fetch.ErrNotAvailable)
	}

	width, height := e.options.ImageWidth, e.options.ImageHeight()
	if err := e.embed(embed, width, height); err != nil {
		logger.Warnf("drawing placeholder for %s: %v", url, err)
		if err := e.renderer.Text(e.labels.ImageUnavailable, placeholderStyle); err != nil {
			return err
		}
		e.renderer.Space(e.options.PlaceholderGap)
		return nil
	}

	if e.advances {
		e.renderer.Space(e.options.ImageGap)
	} else {
		e.renderer.Space(height + e.options.ImageGap)
	}
	return nil
}

func (e *Engine) embed(embed *api.ImageEmbed, width, height float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic embedding image: %v", r)
		}
	}()
	if !embed.FetchSucceeded {
		if embed.Err != nil {
			return embed.Err
		}
		return fetch.ErrNotAvailable
	}
	return e.renderer.Image(embed, width, height)
}

func (e *Engine) drawContent(items []api.ContentItem) error {
	r := e.renderer
	for i, item := range items {
		switch item.Type {
		case api.ContentQuestion:
			if err := r.Text(sanitize.Entities(item.Value), labelStyle); err != nil {
				return fmt.Errorf("content %d: %w", i, err)
			}
			r.Space(e.options.AnswerLineGap)
			if err := r.Rule(r.ContentWidth()); err != nil {
				return fmt.Errorf("content %d: %w", i, err)
			}
		default:
			if item.Type != api.ContentText {
				logger.Debugf("content item %d has unknown type %q, drawing as text", i, item.Type)
			}
			if err := r.Text(sanitize.Entities(item.Value), bodyStyle); err != nil {
				return fmt.Errorf("content %d: %w", i, err)
			}
		}
		r.Space(e.options.QuestionGap / 2)
	}
	return nil
}

// AlternativePrefix is the marker drawn before each alternative of a question
func AlternativePrefix(t api.QuestionType) string {
	switch t {
	case api.MultipleChoice, api.TrueFalse:
		return "(   ) "
	case api.CheckBox:
		return "[   ] "
	default:
		return "- "
	}
}

// AnswerLineWidth is half the content width for a single answer line and
// the full width otherwise
func AnswerLineWidth(lines int, contentWidth float64) float64 {
	if lines == 1 {
		return contentWidth / 2
	}
	return contentWidth
}
