package stats

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/verte-zerg/vizier/internal/model"
)

func TestPlotSeries(t *testing.T) {
	var buf bytes.Buffer
	err := PlotSeries(&buf, "Test Plot", []Series{
		{Name: "A", Values: []float64{1, 2, 3, 2, 1}},
		{Name: "B", Values: []float64{1, 1, 2, 3, 4}},
	}, 5, 4)
	if err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Test Plot") {
		t.Fatalf("expected title in output")
	}
	if !strings.Contains(out, "Scaled per series") {
		t.Fatalf("expected scale note in output")
	}
	if !strings.Contains(out, "Legend:") {
		t.Fatalf("expected legend in output")
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	expectedMin := 1 + 1 + 2 + 4 + 1
	if len(lines) < expectedMin {
		t.Fatalf("expected at least %d lines of output, got %d", expectedMin, len(lines))
	}
}

func TestPlotSingleSeriesUsesValueAxis(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotSeries(&buf, "", []Series{{Name: "Level", Values: []float64{0, 2, 4}}}, 10, 5); err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "   4 │") || !strings.Contains(out, "   2 │") || !strings.Contains(out, "   0 │") {
		t.Fatalf("expected value labels on the axis, got:\n%s", out)
	}
}

func TestPlotWidthFor(t *testing.T) {
	axisWidth := utf8.RuneCountInString(axisLabelTop) + utf8.RuneCountInString(axisSeparator)
	if got := PlotWidthFor(80); got != 80-axisWidth {
		t.Fatalf("expected width %d, got %d", 80-axisWidth, got)
	}
	if got := PlotWidthFor(0); got != minPlotWidth {
		t.Fatalf("expected min width %d, got %d", minPlotWidth, got)
	}
}

// plotRows returns the plot area of each row, without the axis.
func plotRows(out string) [][]rune {
	var rows [][]rune
	for _, line := range strings.Split(out, "\n") {
		if _, area, ok := strings.Cut(line, axisSeparator); ok {
			rows = append(rows, []rune(area))
		}
	}
	return rows
}

func TestPlotStepsHoldUntilNextValue(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotSeries(&buf, "", []Series{{Name: "Level", Values: []float64{0, 4}, Steps: true}}, 10, 2); err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	rows := plotRows(buf.String())
	if len(rows) != 2 {
		t.Fatalf("expected 2 plot rows, got %d:\n%s", len(rows), buf.String())
	}
	blank := rune(brailleBase)
	for x := 0; x < 9; x++ {
		if rows[0][x] != blank {
			t.Fatalf("top row cell %d should be empty before the riser:\n%s", x, buf.String())
		}
		if rows[1][x] == blank {
			t.Fatalf("bottom row cell %d should hold the first value:\n%s", x, buf.String())
		}
	}
	if rows[0][9] == blank {
		t.Fatalf("riser missing in the last column:\n%s", buf.String())
	}
}

func TestStaircaseMarksReversals(t *testing.T) {
	levels := []int{1, 2, 3, 2, 1, 2, 3}
	results := make([]model.Result, len(levels))
	for i, lvl := range levels {
		results[i] = model.Result{Trial: i + 1, PrimaryParam: lvl}
	}
	var buf bytes.Buffer
	if err := RenderStaircase(&buf, results, 60, 6, false); err != nil {
		t.Fatalf("RenderStaircase failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Staircase (threshold ~ 2.0)") {
		t.Fatalf("expected threshold in title:\n%s", out)
	}
	marks := 0
	for _, row := range plotRows(out) {
		for _, r := range row {
			if r == reversalGlyph {
				marks++
			}
		}
	}
	if marks != len(Reversals(results)) {
		t.Fatalf("expected %d reversal marks, got %d:\n%s", len(Reversals(results)), marks, out)
	}
	if !strings.Contains(out, string(reversalGlyph)+" reversal") {
		t.Fatalf("expected reversal legend entry:\n%s", out)
	}
	if strings.Contains(out, scaleNote) {
		t.Fatalf("single series should not carry the per-series scale note:\n%s", out)
	}
}
