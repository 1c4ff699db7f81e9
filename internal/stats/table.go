package stats

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// cellKind decides how a value is printed and which way it is aligned.
type cellKind int

const (
	kindText    cellKind = iota // left
	kindCount                   // right
	kindLevel                   // right, difficulty parameter
	kindPercent                 // right, ratio printed as a percentage
	kindMillis                  // right, duration in whole milliseconds
	kindCorrect                 // centered ok/miss
	kindFlag                    // centered marker, blank when false
)

const flagMark = "*"

type column struct {
	title string
	kind  cellKind
}

type table struct {
	cols []column
	rows [][]string
}

func newTable(cols ...column) *table {
	return &table{cols: cols}
}

// add formats one row. Values past the last column are ignored.
func (t *table) add(values ...any) {
	row := make([]string, len(t.cols))
	for i, v := range values {
		if i >= len(t.cols) {
			break
		}
		row[i] = t.cols[i].kind.format(v)
	}
	t.rows = append(t.rows, row)
}

func (k cellKind) format(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		switch {
		case k == kindCorrect && x:
			return "ok"
		case k == kindCorrect:
			return "miss"
		case x:
			return flagMark
		}
		return ""
	case time.Duration:
		return fmt.Sprintf("%d", x.Milliseconds())
	case float64:
		if k == kindPercent {
			return fmt.Sprintf("%.2f%%", x*100)
		}
		return fmt.Sprintf("%.2f", x)
	default:
		return fmt.Sprint(x)
	}
}

func (t *table) widths() []int {
	widths := make([]int, len(t.cols))
	for i, c := range t.cols {
		widths[i] = runewidth.StringWidth(c.title)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	return widths
}

// lines returns the header followed by every row, columns joined by a space.
func (t *table) lines() []string {
	if len(t.cols) == 0 {
		return nil
	}
	widths := t.widths()
	out := make([]string, 0, len(t.rows)+1)
	header := make([]string, len(t.cols))
	for i, c := range t.cols {
		header[i] = c.title
	}
	out = append(out, t.join(header, widths))
	for _, row := range t.rows {
		out = append(out, t.join(row, widths))
	}
	return out
}

func (t *table) join(cells []string, widths []int) string {
	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(t.cols[i].kind.pad(cell, widths[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func (k cellKind) pad(cell string, width int) string {
	gap := width - runewidth.StringWidth(cell)
	if gap <= 0 {
		return cell
	}
	switch k {
	case kindText:
		return cell + strings.Repeat(" ", gap)
	case kindCorrect, kindFlag:
		return strings.Repeat(" ", gap/2) + cell + strings.Repeat(" ", gap-gap/2)
	default:
		return strings.Repeat(" ", gap) + cell
	}
}

// render writes the title, the table, and a blank separator line.
func (t *table) render(w io.Writer, title string) error {
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	for _, line := range t.lines() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
