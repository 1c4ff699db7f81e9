package stimulus

import "math/rand"

// Grid is a square boolean cell grid indexed as (x, y).
type Grid struct {
	n     int
	cells []bool
}

// NewGrid returns an empty n×n grid.
func NewGrid(n int) *Grid {
	if n < 0 {
		n = 0
	}
	return &Grid{n: n, cells: make([]bool, n*n)}
}

// RandomGrid samples every cell uniformly from {0, 1}.
func RandomGrid(rnd *rand.Rand, n int) *Grid {
	g := NewGrid(n)
	for i := range g.cells {
		g.cells[i] = rnd.Intn(2) == 1
	}
	return g
}

// Size returns the side length of the grid.
func (g *Grid) Size() int {
	return g.n
}

func (g *Grid) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.n && y < g.n
}

// At returns the cell value; cells outside the grid read as false.
func (g *Grid) At(x, y int) bool {
	if !g.inside(x, y) {
		return false
	}
	return g.cells[y*g.n+x]
}

// Set writes a cell and reports whether (x, y) was inside the grid.
func (g *Grid) Set(x, y int, v bool) bool {
	if !g.inside(x, y) {
		return false
	}
	g.cells[y*g.n+x] = v
	return true
}

// Count returns the number of set cells.
func (g *Grid) Count() int {
	total := 0
	for _, v := range g.cells {
		if v {
			total++
		}
	}
	return total
}

// RowCount returns the number of set cells in row y.
func (g *Grid) RowCount(y int) int {
	total := 0
	for x := 0; x < g.n; x++ {
		if g.At(x, y) {
			total++
		}
	}
	return total
}

// Minus returns a copy of g with every cell set in other cleared.
func (g *Grid) Minus(other *Grid) *Grid {
	out := NewGrid(g.n)
	for i, v := range g.cells {
		out.cells[i] = v && !(i < len(other.cells) && other.cells[i])
	}
	return out
}

// Overlaps reports whether any cell is set in both grids.
func (g *Grid) Overlaps(other *Grid) bool {
	for i, v := range g.cells {
		if v && i < len(other.cells) && other.cells[i] {
			return true
		}
	}
	return false
}

// Subset reports whether every set cell of g is also set in other.
func (g *Grid) Subset(other *Grid) bool {
	for i, v := range g.cells {
		if v && (i >= len(other.cells) || !other.cells[i]) {
			return false
		}
	}
	return true
}

// Each calls fn for every set cell in row-major order.
func (g *Grid) Each(fn func(x, y int)) {
	for i, v := range g.cells {
		if v {
			fn(i%g.n, i/g.n)
		}
	}
}
