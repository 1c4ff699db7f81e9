// Package theme holds the named color palettes and color parsing.
package theme

import (
	"errors"
	"fmt"
	"image/color"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/vizier/internal/model"
)

// ErrUnknownColor is returned for color names missing from every palette.
var ErrUnknownColor = errors.New("unknown color")

// Palette is a named set of colors.
type Palette struct {
	Name   string
	Colors map[string]color.RGBA
}

func rgb(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Default holds the stock anaglyph filter colors.
var Default = Palette{
	Name: "default",
	Colors: map[string]color.RGBA{
		"red":   rgb(255, 25, 25),
		"green": rgb(85, 255, 0),
		"blue":  rgb(0, 38, 230),
		"white": rgb(255, 255, 255),
		"black": rgb(0, 0, 0),
	},
}

// Wong is the color-blind-safe palette by Bang Wong.
var Wong = Palette{
	Name: "wong",
	Colors: map[string]color.RGBA{
		"red":    rgb(213, 94, 0),
		"green":  rgb(0, 157, 115),
		"blue":   rgb(86, 180, 233),
		"yellow": rgb(240, 228, 66),
		"orange": rgb(230, 159, 0),
		"purple": rgb(204, 121, 167),
		"black":  rgb(0, 0, 0),
	},
}

// Tol is the color-blind-safe palette by Paul Tol.
var Tol = Palette{
	Name: "tol",
	Colors: map[string]color.RGBA{
		"paleblue":    rgb(187, 204, 238),
		"blue":        rgb(68, 119, 170),
		"darkblue":    rgb(34, 34, 85),
		"night":       rgb(0, 6, 136),
		"palecyan":    rgb(204, 238, 255),
		"cyan":        rgb(102, 204, 238),
		"darkcyan":    rgb(34, 85, 85),
		"palegreen":   rgb(204, 221, 170),
		"green":       rgb(34, 136, 51),
		"darkgreen":   rgb(34, 85, 34),
		"lightyellow": rgb(238, 204, 102),
		"paleyellow":  rgb(238, 238, 187),
		"yellow":      rgb(204, 187, 68),
		"darkyellow":  rgb(102, 102, 51),
		"lightred":    rgb(255, 204, 204),
		"red":         rgb(238, 102, 119),
		"darkred":     rgb(102, 51, 51),
		"purple":      rgb(170, 51, 119),
		"palegrey":    rgb(221, 221, 221),
		"grey":        rgb(187, 187, 187),
		"darkgrey":    rgb(85, 85, 85),
		"lightblack":  rgb(26, 26, 26),
		"black":       rgb(0, 0, 0),
	},
}

// Palettes lists every palette in lookup order.
func Palettes() []Palette {
	return []Palette{Default, Wong, Tol}
}

// Names returns the sorted color names of a palette.
func (p Palette) Names() []string {
	names := make([]string, 0, len(p.Colors))
	for name := range p.Colors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultCalibration is blue for the left eye and red for the right eye.
func DefaultCalibration() model.Calibration {
	return model.Calibration{Left: Default.Colors["blue"], Right: Default.Colors["red"]}
}

// ParseColor accepts "#rrggbb", "#rrggbbaa", "palette:name" or a bare default-palette name.
func ParseColor(raw string) (color.RGBA, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(s, "#") {
		return parseHex(s[1:])
	}
	paletteName, name, ok := strings.Cut(s, ":")
	if !ok {
		paletteName, name = Default.Name, s
	}
	for _, p := range Palettes() {
		if p.Name != paletteName {
			continue
		}
		if c, ok := p.Colors[name]; ok {
			return c, nil
		}
		return color.RGBA{}, fmt.Errorf("%w: %q in palette %s", ErrUnknownColor, name, p.Name)
	}
	return color.RGBA{}, fmt.Errorf("%w: unknown palette %q", ErrUnknownColor, paletteName)
}

func parseHex(s string) (color.RGBA, error) {
	if len(s) != 6 && len(s) != 8 {
		return color.RGBA{}, fmt.Errorf("%w: hex color needs 6 or 8 digits, got %q", ErrUnknownColor, s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: %q: %v", ErrUnknownColor, s, err)
	}
	if len(s) == 6 {
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// Hex formats c as "#rrggbb", adding the alpha byte only when it is not opaque.
func Hex(c color.RGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// Lipgloss converts c to a terminal color, dropping alpha.
func Lipgloss(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}
