package stimulus

import (
	"fmt"
	"image"

	"github.com/verte-zerg/vizier/internal/surface"
)

// Dots returns the on-surface rectangles of every dot the eye sees.
func (e Eye) Dots(pixel int, origin image.Point) []image.Rectangle {
	out := make([]image.Rectangle, 0, e.Background.Count()+e.Focal.Count())
	add := func(x, y int) {
		px := (x+e.BackgroundShift)*pixel + origin.X
		py := y*pixel + origin.Y
		out = append(out, image.Rect(px, py, px+pixel, py+pixel))
	}
	e.Background.Each(add)
	e.Focal.Each(add)
	return out
}

// Render draws the stimulus into a new hidden group named by its ID.
func Render(s surface.Surface, st *Stimulus) error {
	if err := s.CreateGroup(st.ID()); err != nil {
		return fmt.Errorf("create stimulus group: %w", err)
	}
	for _, eye := range st.Eyes() {
		for _, r := range eye.Dots(st.PixelSize, st.Origin) {
			rect := surface.Rect{Min: r.Min, Max: r.Max, Fill: eye.Color, Stroke: eye.Color}
			if err := s.DrawRect(st.ID(), rect); err != nil {
				return fmt.Errorf("draw %s eye: %w", eye.Side, err)
			}
		}
	}
	return nil
}
