package render

import (
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"

	"github.com/verte-zerg/vizier/internal/theme"
)

const upperHalf = "▀"

// Fit scales img to cols×(rows·2) pixels, the resolution of a half-block terminal area.
// Nearest-neighbor sampling keeps dot edges hard.
func Fit(img image.Image, cols, rows int) *image.RGBA {
	if cols <= 0 || rows <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	dst := image.NewRGBA(image.Rect(0, 0, cols, rows*2))
	src := img.Bounds()
	if src.Dx() == cols && src.Dy() == rows*2 {
		draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Src)
		return dst
	}
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)
	return dst
}

// HalfBlocks renders img as rows of "▀" cells: the foreground is the upper pixel and
// the background the lower one. img height should be even.
func HalfBlocks(img *image.RGBA) string {
	b := img.Bounds()
	styles := map[[2]color.RGBA]lipgloss.Style{}
	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		if y > b.Min.Y {
			sb.WriteByte('\n')
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			top := img.RGBAAt(x, y)
			bottom := Background
			if y+1 < b.Max.Y {
				bottom = img.RGBAAt(x, y+1)
			}
			key := [2]color.RGBA{top, bottom}
			style, ok := styles[key]
			if !ok {
				style = lipgloss.NewStyle().Foreground(theme.Lipgloss(top)).Background(theme.Lipgloss(bottom))
				styles[key] = style
			}
			sb.WriteString(style.Render(upperHalf))
		}
	}
	return sb.String()
}
