package stimulus

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/verte-zerg/vizier/internal/surface"
)

// DepthSpec parameterizes a row of circle pairs where one pair has a different disparity.
// Depths are horizontal disparities in surface pixels.
type DepthSpec struct {
	Count        int
	ObjectSize   int
	Thickness    int
	Center       image.Point
	MinDepth     int
	MaxDepth     int
	MinDepthDiff int
	MaxDepthDiff int
	LeftColor    color.RGBA
	RightColor   color.RGBA
}

// Validate checks ring count, sizes and the depth ranges.
func (s DepthSpec) Validate() error {
	switch {
	case s.Count < 2:
		return fmt.Errorf("%w: depth row needs at least 2 objects, got %d", ErrInvalidSpec, s.Count)
	case s.ObjectSize < 4:
		return fmt.Errorf("%w: object size must be >= 4, got %d", ErrInvalidSpec, s.ObjectSize)
	case s.MinDepth < 0 || s.MaxDepth <= s.MinDepth:
		return fmt.Errorf("%w: depth range [%d,%d) is empty", ErrInvalidSpec, s.MinDepth, s.MaxDepth)
	case s.MinDepthDiff < 0 || s.MaxDepthDiff <= s.MinDepthDiff:
		return fmt.Errorf("%w: depth difference range [%d,%d) is empty", ErrInvalidSpec, s.MinDepthDiff, s.MaxDepthDiff)
	}
	return nil
}

// DepthRow is a generated row of circle pairs.
type DepthRow struct {
	id      string
	Odd     int
	Offsets []int
	Slots   []image.Rectangle
	spec    DepthSpec
}

// ID returns the surface group name of the row.
func (d *DepthRow) ID() string {
	return d.id
}

// DisplayTime is always 0: the row stays until judged.
func (d *DepthRow) DisplayTime() time.Duration {
	return 0
}

// MarkerSlot returns the area under object i where the selection marker is drawn.
func (d *DepthRow) MarkerSlot(i int) image.Rectangle {
	slot := d.Slots[i]
	size := slot.Dx() / 2
	x := slot.Min.X + (slot.Dx()-size)/2
	y := slot.Max.Y + size/4
	return image.Rect(x, y, x+size, y+size)
}

// DepthRow builds a row where exactly one pair differs in disparity.
func (g *Generator) DepthRow(spec DepthSpec) (*DepthRow, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	offset := spec.MinDepth + g.rnd.Intn(spec.MaxDepth-spec.MinDepth)
	odd := g.rnd.Intn(spec.Count)
	diff := spec.MinDepthDiff + g.rnd.Intn(spec.MaxDepthDiff-spec.MinDepthDiff)
	if diff == 0 {
		diff = 1
	}
	if g.rnd.Intn(2) == 0 {
		diff = -diff
	}
	offsets := make([]int, spec.Count)
	for i := range offsets {
		offsets[i] = offset
	}
	offsets[odd] = offset + diff
	return &DepthRow{
		id:      g.newID(),
		Odd:     odd,
		Offsets: offsets,
		Slots:   RowLayout(spec.Count, spec.ObjectSize, 0.2, spec.Center),
		spec:    spec,
	}, nil
}

// RenderDepthRow draws both eyes' circles into a new hidden group named by the row ID.
func RenderDepthRow(s surface.Surface, row *DepthRow) error {
	if err := s.CreateGroup(row.ID()); err != nil {
		return fmt.Errorf("create depth group: %w", err)
	}
	radius := row.spec.ObjectSize / 2
	thickness := row.spec.Thickness
	if thickness < 1 {
		thickness = 1
	}
	for i, slot := range row.Slots {
		c := image.Pt(slot.Min.X+slot.Dx()/2, slot.Min.Y+slot.Dy()/2)
		// The two halves always sum to the offset, odd offsets included.
		off := row.Offsets[i]
		left, right := off/2, off-off/2
		if err := drawRing(s, row.ID(), c.Sub(image.Pt(left, 0)), radius, thickness, row.spec.LeftColor); err != nil {
			return err
		}
		if err := drawRing(s, row.ID(), c.Add(image.Pt(right, 0)), radius, thickness, row.spec.RightColor); err != nil {
			return err
		}
	}
	return nil
}

func drawRing(s surface.Surface, group string, center image.Point, radius, thickness int, c color.RGBA) error {
	steps := int(2 * math.Pi * float64(radius) / float64(thickness) * 2)
	if steps < 16 {
		steps = 16
	}
	seen := map[image.Point]bool{}
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		p := image.Pt(
			center.X+int(math.Round(float64(radius)*math.Cos(a)))-thickness/2,
			center.Y+int(math.Round(float64(radius)*math.Sin(a)))-thickness/2,
		)
		if seen[p] {
			continue
		}
		seen[p] = true
		r := surface.Rect{Min: p, Max: p.Add(image.Pt(thickness, thickness)), Fill: c, Stroke: c}
		if err := s.DrawRect(group, r); err != nil {
			return fmt.Errorf("draw ring: %w", err)
		}
	}
	return nil
}
