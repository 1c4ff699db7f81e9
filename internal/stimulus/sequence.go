package stimulus

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/verte-zerg/vizier/internal/model"
	"github.com/verte-zerg/vizier/internal/surface"
)

// arrowDown is the bitmap of a downward arrow, 10 rows by 9 columns.
var arrowDown = [10][9]uint8{
	{0, 0, 0, 1, 1, 1, 0, 0, 0},
	{0, 0, 0, 1, 1, 1, 0, 0, 0},
	{0, 0, 0, 1, 1, 1, 0, 0, 0},
	{0, 0, 0, 1, 1, 1, 0, 0, 0},
	{0, 0, 0, 1, 1, 1, 0, 0, 0},
	{1, 1, 1, 1, 1, 1, 1, 1, 1},
	{0, 1, 1, 1, 1, 1, 1, 1, 0},
	{0, 0, 1, 1, 1, 1, 1, 0, 0},
	{0, 0, 0, 1, 1, 1, 0, 0, 0},
	{0, 0, 0, 0, 1, 0, 0, 0, 0},
}

const arrowCells = 10

// ArrowCells returns the set cells of an arrow pointing in d on a 10×10 grid.
func ArrowCells(d model.Direction) []image.Point {
	var out []image.Point
	for r, row := range arrowDown {
		for c, v := range row {
			if v == 0 {
				continue
			}
			switch d {
			case model.DirectionUp:
				out = append(out, image.Pt(c, arrowCells-1-r))
			case model.DirectionRight:
				out = append(out, image.Pt(r, c))
			case model.DirectionLeft:
				out = append(out, image.Pt(arrowCells-1-r, c))
			default:
				out = append(out, image.Pt(c, r))
			}
		}
	}
	return out
}

// DrawArrow draws an arrow scaled into slot into an existing group.
func DrawArrow(s surface.Surface, group string, d model.Direction, slot image.Rectangle, c color.RGBA) error {
	cell := slot.Dx() / arrowCells
	if cell < 1 {
		cell = 1
	}
	for _, p := range ArrowCells(d) {
		at := slot.Min.Add(image.Pt(p.X*cell, p.Y*cell))
		r := surface.Rect{Min: at, Max: at.Add(image.Pt(cell, cell)), Fill: c, Stroke: c}
		if err := s.DrawRect(group, r); err != nil {
			return fmt.Errorf("draw arrow: %w", err)
		}
	}
	return nil
}

// RowLayout returns count square slots of side size laid out in a row centered on center.
// Slots are separated by marginRatio·size.
func RowLayout(count, size int, marginRatio float64, center image.Point) []image.Rectangle {
	margin := int(math.Round(float64(size) * marginRatio))
	stride := size + margin
	x0 := center.X - count*stride/2
	y := center.Y - size/2
	slots := make([]image.Rectangle, count)
	for i := range slots {
		x := x0 + i*stride
		slots[i] = image.Rect(x, y, x+size, y+size)
	}
	return slots
}

// SequenceSpec parameterizes a row of random arrows.
type SequenceSpec struct {
	Count       int
	ObjectSize  int
	Center      image.Point
	Color       color.RGBA
	DisplayTime time.Duration
}

// Validate checks the arrow count and slot size.
func (s SequenceSpec) Validate() error {
	if s.Count < 1 {
		return fmt.Errorf("%w: sequence needs at least one arrow, got %d", ErrInvalidSpec, s.Count)
	}
	if s.ObjectSize < arrowCells {
		return fmt.Errorf("%w: arrow size must be >= %d, got %d", ErrInvalidSpec, arrowCells, s.ObjectSize)
	}
	if s.DisplayTime < 0 {
		return fmt.Errorf("%w: display time must be >= 0", ErrInvalidSpec)
	}
	return nil
}

// Sequence is a generated row of arrows to be recalled in order.
type Sequence struct {
	id         string
	display    time.Duration
	Directions []model.Direction
	Slots      []image.Rectangle
}

// ID returns the surface group name of the sequence.
func (s *Sequence) ID() string {
	return s.id
}

// DisplayTime returns how long the arrows stay visible.
func (s *Sequence) DisplayTime() time.Duration {
	return s.display
}

// AnswerSlot returns the slot where the i-th recalled arrow is echoed, one row below.
func (s *Sequence) AnswerSlot(i int) image.Rectangle {
	slot := s.Slots[i]
	return slot.Add(image.Pt(0, slot.Dy()))
}

// Matches reports whether answers equal the target directions in order.
func (s *Sequence) Matches(answers []model.Direction) bool {
	if len(answers) != len(s.Directions) {
		return false
	}
	for i, d := range s.Directions {
		if answers[i] != d {
			return false
		}
	}
	return true
}

// Sequence builds a row of uniformly random arrows.
func (g *Generator) Sequence(spec SequenceSpec) (*Sequence, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	dirs := make([]model.Direction, spec.Count)
	for i := range dirs {
		dirs[i] = model.Directions[g.rnd.Intn(len(model.Directions))]
	}
	return &Sequence{
		id:         g.newID(),
		display:    spec.DisplayTime,
		Directions: dirs,
		Slots:      RowLayout(spec.Count, spec.ObjectSize, 0.15, spec.Center),
	}, nil
}

// RenderSequence draws the arrows into a new hidden group named by the sequence ID.
func RenderSequence(s surface.Surface, seq *Sequence, c color.RGBA) error {
	if err := s.CreateGroup(seq.ID()); err != nil {
		return fmt.Errorf("create sequence group: %w", err)
	}
	for i, d := range seq.Directions {
		if err := DrawArrow(s, seq.ID(), d, seq.Slots[i], c); err != nil {
			return err
		}
	}
	return nil
}
