package pdf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	"image/png"
	"strings"

	"github.com/flanksource/worksheets/api"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/bmp"  // Register BMP format
	_ "golang.org/x/image/webp" // Register WebP format
)

// ImageFormat is an image encoding a renderer can embed directly
type ImageFormat string

const (
	FormatPNG  ImageFormat = "PNG"
	FormatJPEG ImageFormat = "JPG"
	FormatGIF  ImageFormat = "GIF"
)

// ErrImageNotAvailable is returned when an embed carries no usable bytes
var ErrImageNotAvailable = errors.New("image not available")

// svgRasterSize is the pixel size of the longer side of a rasterised SVG
const svgRasterSize = 800

// EmbeddableImage is image data in a format accepted by a renderer
type EmbeddableImage struct {
	Data   []byte
	Format ImageFormat
	Width  int
	Height int
}

// NormalizeImage validates fetched bytes and converts them to one of the
// accepted formats. Data that is already acceptable is returned unchanged;
// WebP and BMP are decoded and losslessly re-encoded as PNG and SVG is
// rasterised.
func NormalizeImage(embed *api.ImageEmbed, accepted ...ImageFormat) (*EmbeddableImage, error) {
	if embed == nil || !embed.FetchSucceeded || len(embed.Bytes) == 0 {
		return nil, ErrImageNotAvailable
	}
	if len(accepted) == 0 {
		accepted = []ImageFormat{FormatPNG, FormatJPEG}
	}

	// raster signatures win over SVG sniffing, metadata such as XMP may
	// contain "<svg"
	cfg, name, err := image.DecodeConfig(bytes.NewReader(embed.Bytes))
	if err != nil {
		if isSVG(embed) {
			return rasterizeSVG(embed.Bytes)
		}
		return nil, fmt.Errorf("cannot decode %s (%s): %w", embed.SourceURL, embed.ContentType, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("image has invalid dimensions: %dx%d", cfg.Width, cfg.Height)
	}

	format, known := formatOf(name)
	if known && accepts(accepted, format) && !(format == FormatPNG && needsReencode(embed.Bytes)) {
		return &EmbeddableImage{Data: embed.Bytes, Format: format, Width: cfg.Width, Height: cfg.Height}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(embed.Bytes))
	if err != nil {
		return nil, fmt.Errorf("cannot decode %s: %w", name, err)
	}
	return encodePNG(img)
}

func formatOf(name string) (ImageFormat, bool) {
	switch name {
	case "png":
		return FormatPNG, true
	case "jpeg":
		return FormatJPEG, true
	case "gif":
		return FormatGIF, true
	}
	return "", false
}

func accepts(accepted []ImageFormat, format ImageFormat) bool {
	for _, a := range accepted {
		if a == format {
			return true
		}
	}
	return false
}

func isSVG(embed *api.ImageEmbed) bool {
	if strings.HasPrefix(embed.ContentType, "image/svg") {
		return true
	}
	head := embed.Bytes
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(head, []byte("<svg"))
}

// needsReencode reports PNG variants fpdf cannot embed: 16 bit depth and
// interlacing. The IHDR chunk always directly follows the 8 byte signature.
func needsReencode(data []byte) bool {
	if len(data) < 29 || string(data[12:16]) != "IHDR" {
		return false
	}
	width := binary.BigEndian.Uint32(data[16:20])
	bitDepth := data[24]
	interlace := data[28]
	return width > 0 && (bitDepth > 8 || interlace != 0)
}

func encodePNG(img image.Image) (*EmbeddableImage, error) {
	bounds := img.Bounds()
	rgba := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return &EmbeddableImage{Data: buf.Bytes(), Format: FormatPNG, Width: bounds.Dx(), Height: bounds.Dy()}, nil
}

// rasterizeSVG renders SVG bytes to PNG keeping the viewBox aspect ratio
func rasterizeSVG(svgBytes []byte) (*EmbeddableImage, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgBytes), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}

	svgWidth, svgHeight := icon.ViewBox.W, icon.ViewBox.H
	if svgWidth <= 0 || svgHeight <= 0 {
		svgWidth, svgHeight = 100, 100
	}
	aspectRatio := svgWidth / svgHeight

	var targetWidth, targetHeight int
	if aspectRatio >= 1.0 {
		targetWidth = svgRasterSize
		targetHeight = int(float64(svgRasterSize) / aspectRatio)
	} else {
		targetHeight = svgRasterSize
		targetWidth = int(float64(svgRasterSize) * aspectRatio)
	}
	if targetWidth < 1 {
		targetWidth = 1
	}
	if targetHeight < 1 {
		targetHeight = 1
	}

	icon.SetTarget(0, 0, float64(targetWidth), float64(targetHeight))

	rgba := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	scanner := rasterx.NewScannerGV(targetWidth, targetHeight, rgba, rgba.Bounds())
	raster := rasterx.NewDasher(targetWidth, targetHeight, scanner)
	icon.Draw(raster, 1.0)

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return &EmbeddableImage{Data: buf.Bytes(), Format: FormatPNG, Width: targetWidth, Height: targetHeight}, nil
}
