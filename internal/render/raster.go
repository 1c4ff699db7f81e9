// Package render rasterises a surface canvas for the terminal and for PNG export.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/verte-zerg/vizier/internal/surface"
)

// Background is the exercise backdrop.
var Background = color.RGBA{A: 255}

// Raster draws every visible rectangle of c onto a new image. Later groups paint
// over earlier ones.
func Raster(c *surface.Canvas) image.Image {
	w, h := c.Size()
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	dc := gg.NewContext(w, h)
	dc.SetColor(Background)
	dc.Clear()
	for _, r := range c.VisibleRects() {
		dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Max.X-r.Min.X), float64(r.Max.Y-r.Min.Y))
		dc.SetColor(r.Fill)
		dc.Fill()
	}
	return dc.Image()
}

// LoadFontFace parses a TrueType font file. An empty path selects the built-in bitmap face.
func LoadFontFace(path string, size float64) (font.Face, error) {
	if path == "" {
		return basicfont.Face7x13, nil
	}
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font file: %w", err)
	}
	parsed, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parse TTF: %w", err)
	}
	return truetype.NewFace(parsed, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}

// Export is a rasterised canvas with an optional caption strip under it.
type Export struct {
	Image   image.Image
	Caption string
	Face    font.Face
}

// EncodePNG writes the export as PNG.
func (e Export) EncodePNG(w io.Writer) error {
	b := e.Image.Bounds()
	strip := 0
	if e.Caption != "" {
		if e.Face == nil {
			e.Face = basicfont.Face7x13
		}
		strip = e.Face.Metrics().Height.Ceil() * 2
	}
	dc := gg.NewContext(b.Dx(), b.Dy()+strip)
	dc.SetColor(Background)
	dc.Clear()
	dc.DrawImage(e.Image, 0, 0)
	if strip > 0 {
		dc.SetFontFace(e.Face)
		dc.SetColor(color.White)
		dc.DrawStringAnchored(e.Caption, float64(b.Dx())/2, float64(b.Dy())+float64(strip)/2, 0.5, 0.5)
	}
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// WritePNG encodes the export into path.
func (e Export) WritePNG(path string) error {
	var buf bytes.Buffer
	if err := e.EncodePNG(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
