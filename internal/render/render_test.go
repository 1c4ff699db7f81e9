package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/vizier/internal/surface"
)

var red = color.RGBA{R: 255, A: 255}

func sampleCanvas(t *testing.T) *surface.Canvas {
	t.Helper()
	c := surface.NewCanvas(10, 10)
	if err := c.CreateGroup("dots"); err != nil {
		t.Fatalf("create group: %v", err)
	}
	_ = c.DrawRect("dots", surface.Rect{Min: image.Pt(0, 0), Max: image.Pt(2, 2), Fill: red, Stroke: red})
	_ = c.Show("dots")
	if err := c.CreateGroup("hidden"); err != nil {
		t.Fatalf("create group: %v", err)
	}
	_ = c.DrawRect("hidden", surface.Rect{Min: image.Pt(6, 6), Max: image.Pt(8, 8), Fill: red})
	return c
}

func TestRasterDrawsOnlyVisibleGroups(t *testing.T) {
	img := Raster(sampleCanvas(t))
	if img.Bounds().Dx() != 10 || img.Bounds().Dy() != 10 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	r, _, _, _ := img.At(1, 1).RGBA()
	if r>>8 != 255 {
		t.Fatalf("expected red dot at (1,1), got %v", img.At(1, 1))
	}
	r, _, _, _ = img.At(7, 7).RGBA()
	if r != 0 {
		t.Fatalf("expected hidden group not drawn, got %v", img.At(7, 7))
	}
}

func TestFitAndHalfBlocks(t *testing.T) {
	img := Raster(sampleCanvas(t))
	fitted := Fit(img, 5, 5)
	if fitted.Bounds().Dx() != 5 || fitted.Bounds().Dy() != 10 {
		t.Fatalf("unexpected fitted bounds %v", fitted.Bounds())
	}
	if fitted.RGBAAt(0, 0).R != 255 {
		t.Fatalf("expected red kept after scaling, got %v", fitted.RGBAAt(0, 0))
	}
	out := HalfBlocks(fitted)
	lines := strings.Split(out, "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(lines))
	}
	if got := strings.Count(out, upperHalf); got != 25 {
		t.Fatalf("expected 25 cells, got %d", got)
	}
}

func TestExportPNGWithCaption(t *testing.T) {
	img := Raster(sampleCanvas(t))
	var buf bytes.Buffer
	if err := (Export{Image: img, Caption: "seed 1"}).EncodePNG(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Bounds().Dx() != 10 || decoded.Bounds().Dy() <= 10 {
		t.Fatalf("expected caption strip under image, got %v", decoded.Bounds())
	}

	path := filepath.Join(t.TempDir(), "out.png")
	if err := (Export{Image: img}).WritePNG(path); err != nil {
		t.Fatalf("write png: %v", err)
	}
}

func TestLoadFontFaceFallback(t *testing.T) {
	face, err := LoadFontFace("", 12)
	if err != nil || face == nil {
		t.Fatalf("expected built-in face, got %v", err)
	}
	if _, err := LoadFontFace(filepath.Join(t.TempDir(), "missing.ttf"), 12); err == nil {
		t.Fatalf("expected error for missing font")
	}
}
