package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

// Series is one named line of a plot.
type Series struct {
	Name   string
	Values []float64
	// Steps draws the series as a staircase: each value holds until the next
	// trial and the change is drawn as a vertical riser.
	Steps bool
	// Reversals are indexes into Values where the staircase turned around.
	// Each one is drawn with reversalGlyph on top of the line.
	Reversals []int
}

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	axisLabelTop        = "100%"
	axisLabelMid        = "50%"
	axisLabelBottom     = "0%"
	axisSeparator       = " │ "
	scaleNote           = "Scaled per series; see min/max below."
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80

	reversalGlyph = '◆'
	brailleBase   = 0x2800
)

// Braille cells are 2 dots wide and 4 dots tall.
var brailleBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// dash patterns keep overlapping series apart when color is off.
type dash struct {
	name   string
	period int
	on     int
}

func (d dash) covers(x int) bool {
	if d.period <= 1 {
		return true
	}
	return abs(x)%d.period < d.on
}

var dashes = []dash{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
	{name: "dashdot", period: 8, on: 3},
}

var seriesColors = []string{
	"\x1b[36m", // cyan
	"\x1b[35m", // magenta
	"\x1b[33m", // yellow
	"\x1b[32m", // green
	"\x1b[34m", // blue
}

// valueRange is the vertical extent a series is scaled into.
type valueRange struct {
	lo, hi float64
}

func rangeOf(values []float64) valueRange {
	lo, hi := valueBounds(values)
	if math.Abs(hi-lo) < 1e-9 {
		lo--
		hi++
	}
	return valueRange{lo: lo, hi: hi}
}

// dotRow maps v onto one of rows dot rows, row 0 being the top.
func (r valueRange) dotRow(v float64, rows int) int {
	if rows <= 1 {
		return 0
	}
	pos := (v - r.lo) / (r.hi - r.lo)
	row := int(math.Round((1 - pos) * float64(rows-1)))
	return max(0, min(row, rows-1))
}

// dotGrid is a width x height block of braille cells addressed in dots.
type dotGrid struct {
	width, height int
	cells         []uint8
}

func newDotGrid(width, height int) *dotGrid {
	return &dotGrid{width: width, height: height, cells: make([]uint8, width*height)}
}

func (g *dotGrid) set(x, y int) {
	if x < 0 || y < 0 || x >= g.width*2 || y >= g.height*4 {
		return
	}
	g.cells[(y/4)*g.width+x/2] |= brailleBits[x%2][y%4]
}

func (g *dotGrid) cell(cx, cy int) uint8 {
	return g.cells[cy*g.width+cx]
}

// line plots a Bresenham segment, keeping only the dots the dash covers.
func (g *dotGrid) line(x0, y0, x1, y1 int, d dash) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x1 < x0 {
		sx = -1
	}
	if y1 < y0 {
		sy = -1
	}
	e := dx + dy
	for {
		if d.covers(x0) {
			g.set(x0, y0)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// cellPos locates a dot in cell coordinates.
type cellPos struct{ x, y int }

// layer is one series laid out on its own grid.
type layer struct {
	series Series
	rng    valueRange
	grid   *dotGrid
	marks  map[cellPos]bool
}

// dotColumn spreads n samples evenly over cols dot columns.
func dotColumn(i, n, cols int) int {
	if n <= 1 {
		return 0
	}
	return int(math.Round(float64(i) * float64(cols-1) / float64(n-1)))
}

func newLayer(s Series, d dash, width, height int) layer {
	l := layer{
		series: s,
		rng:    rangeOf(s.Values),
		grid:   newDotGrid(width, height),
		marks:  make(map[cellPos]bool),
	}
	cols, rows := width*2, height*4
	n := len(s.Values)
	if n == 1 {
		y := l.rng.dotRow(s.Values[0], rows)
		l.grid.line(0, y, cols-1, y, d)
	}
	for i := 1; i < n; i++ {
		x0, y0 := dotColumn(i-1, n, cols), l.rng.dotRow(s.Values[i-1], rows)
		x1, y1 := dotColumn(i, n, cols), l.rng.dotRow(s.Values[i], rows)
		if s.Steps {
			l.grid.line(x0, y0, x1, y0, d)
			l.grid.line(x1, y0, x1, y1, d)
			continue
		}
		l.grid.line(x0, y0, x1, y1, d)
	}
	for _, i := range s.Reversals {
		if i < 0 || i >= n {
			continue
		}
		x, y := dotColumn(i, n, cols), l.rng.dotRow(s.Values[i], rows)
		l.marks[cellPos{x: x / 2, y: y / 4}] = true
	}
	return l
}

// PlotSeries renders a multi-line text plot for the provided series.
func PlotSeries(w io.Writer, title string, series []Series, width, height int) error {
	return plotSeries(w, title, series, width, height, false)
}

// PlotSeriesWithColor renders a multi-line text plot with optional forced color output.
func PlotSeriesWithColor(w io.Writer, title string, series []Series, width, height int, forceColor bool) error {
	return plotSeries(w, title, series, width, height, forceColor)
}

func plotSeries(w io.Writer, title string, series []Series, width, height int, forceColor bool) error {
	var layers []layer
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = autoPlotWidth()
	}
	width = max(width, minPlotWidth)
	for _, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		layers = append(layers, newLayer(s, dashes[len(layers)%len(dashes)], width, height))
	}
	if len(layers) == 0 {
		return nil
	}

	useColor := shouldUseColor(w, forceColor)
	labels := percentLabels(height)
	if len(layers) == 1 {
		labels = valueLabels(height, layers[0].rng)
	}
	labelWidth := utf8.RuneCountInString(axisLabelTop)
	for _, l := range labels {
		labelWidth = max(labelWidth, utf8.RuneCountInString(l))
	}

	var b strings.Builder
	if title != "" {
		fmt.Fprintln(&b, title)
	}
	if len(layers) > 1 {
		fmt.Fprintln(&b, scaleNote)
	}
	for _, l := range layers {
		fmt.Fprintf(&b, "%s: min=%.2f max=%.2f\n", l.series.Name, l.rng.lo, l.rng.hi)
	}
	for cy := 0; cy < height; cy++ {
		fmt.Fprintf(&b, "%*s%s", labelWidth, labels[cy], axisSeparator)
		for cx := 0; cx < width; cx++ {
			ch, owner := composeCell(layers, cx, cy)
			if useColor && owner >= 0 {
				b.WriteString(seriesColors[owner%len(seriesColors)])
				b.WriteRune(ch)
				b.WriteString(colorReset)
				continue
			}
			b.WriteRune(ch)
		}
		b.WriteByte('\n')
	}
	b.WriteString(legend(layers, useColor))
	b.WriteString("\n\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// composeCell merges the layers at one cell. A reversal mark wins over
// line dots; the first layer with anything in the cell owns its color.
func composeCell(layers []layer, cx, cy int) (rune, int) {
	var mask uint8
	owner := -1
	for i, l := range layers {
		if l.marks[cellPos{x: cx, y: cy}] {
			return reversalGlyph, i
		}
		if m := l.grid.cell(cx, cy); m != 0 {
			mask |= m
			if owner < 0 {
				owner = i
			}
		}
	}
	return rune(brailleBase + int(mask)), owner
}

func legend(layers []layer, useColor bool) string {
	parts := make([]string, 0, len(layers)+1)
	reversals := false
	for i, l := range layers {
		label := fmt.Sprintf("%c %s (%s)", rune(brailleBase+int(brailleBits[0][0])), l.series.Name, dashes[i%len(dashes)].name)
		if useColor {
			label = seriesColors[i%len(seriesColors)] + label + colorReset
		}
		parts = append(parts, label)
		reversals = reversals || len(l.marks) > 0
	}
	if reversals {
		parts = append(parts, fmt.Sprintf("%c reversal", reversalGlyph))
	}
	return "Legend: " + strings.Join(parts, "  ")
}

// percentLabels is used when every series is scaled to its own range.
func percentLabels(height int) []string {
	return axisLabels(height, axisLabelTop, axisLabelMid, axisLabelBottom)
}

// valueLabels shows a single series' own range.
func valueLabels(height int, r valueRange) []string {
	return axisLabels(height, axisValue(r.hi), axisValue((r.lo+r.hi)/2), axisValue(r.lo))
}

func axisLabels(height int, top, mid, bottom string) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = top
	if height > 2 {
		labels[height/2] = mid
	}
	if height > 1 {
		labels[height-1] = bottom
	}
	return labels
}

func axisValue(v float64) string {
	if math.Abs(v-math.Round(v)) < 1e-9 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

func autoPlotWidth() int {
	return PlotWidthFor(terminalWidth())
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	axisWidth := utf8.RuneCountInString(axisLabelTop) + utf8.RuneCountInString(axisSeparator)
	return max(totalWidth-axisWidth, minPlotWidth)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// valueBounds returns the smallest and largest value, or zeros when empty.
func valueBounds(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
