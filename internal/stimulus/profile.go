package stimulus

import (
	"math"

	"github.com/verte-zerg/vizier/internal/model"
)

// DiamondProfile returns the row widths of the diamond focal target: widths grow
// from 0 by a fixed step while below fpc, then shrink back symmetrically.
func DiamondProfile(fpc int) []int {
	if fpc < 2 {
		return nil
	}
	half := float64(fpc) / 2
	step := int(math.Round(float64(fpc) / half))
	if step < 1 {
		step = 1
	}
	var rows []int
	for w := 0; w < fpc; w += step {
		rows = append(rows, w)
	}
	for i := len(rows) - 1; i >= 0; i-- {
		rows = append(rows, rows[i])
	}
	return rows
}

// anchor returns the relative (x, y) anchor of a focal position.
func anchor(p model.Position) (float64, float64) {
	switch p {
	case model.PositionTop:
		return 0.5, 0.25
	case model.PositionBottom:
		return 0.5, 0.75
	case model.PositionLeft:
		return 0.25, 0.5
	default:
		return 0.75, 0.5
	}
}

// Anchor returns the center column and the first row of the diamond for a position.
func Anchor(p model.Position, pc, fpc int) (int, int) {
	ax, ay := anchor(p)
	cx := int(float64(pc) * ax)
	top := int(float64(pc)*ay) - fpc/2
	return cx, top
}

// Side identifies an eye.
type Side int

// Eyes.
const (
	SideLeft Side = iota
	SideRight
)

func (s Side) String() string {
	if s == SideLeft {
		return "left"
	}
	return "right"
}

// EyeShifts returns the horizontal background and focal shifts, in cells, of one eye.
// Halves are truncated toward zero.
func EyeShifts(side Side, bgOffset, focalOffset int) (int, int) {
	if side == SideLeft {
		return -bgOffset / 2, focalOffset / 2
	}
	return bgOffset / 2, -focalOffset / 2
}
