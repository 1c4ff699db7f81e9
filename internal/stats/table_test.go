package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/vizier/internal/model"
)

func TestTableAlignsByKind(t *testing.T) {
	tbl := newTable(
		column{title: "Exercise", kind: kindText},
		column{title: "Accuracy", kind: kindPercent},
		column{title: "Level", kind: kindLevel},
	)
	tbl.add("depth", 0.975, 12)
	tbl.add("recognition", 0.08, 3)

	lines := tbl.lines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Exercise    Accuracy Level" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "depth         97.50%    12" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "recognition    8.00%     3" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestTableCentersMarks(t *testing.T) {
	tbl := newTable(
		column{title: "Answer", kind: kindCorrect},
		column{title: "Reversal", kind: kindFlag},
		column{title: "Response (ms)", kind: kindMillis},
	)
	tbl.add(true, true, 1250*time.Millisecond)
	tbl.add(false, false, 80*time.Millisecond)

	lines := tbl.lines()
	if lines[1] != "  ok      *              1250" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != " miss                      80" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestRenderTrialTableFlagsReversals(t *testing.T) {
	levels := []int{1, 2, 3, 2, 1, 2}
	results := make([]model.Result, len(levels))
	for i, lvl := range levels {
		results[i] = model.Result{Trial: i + 1, PrimaryParam: lvl, Correct: i < 2, Delta: time.Duration(i+1) * 100 * time.Millisecond}
	}
	var buf bytes.Buffer
	if err := RenderTrialTable(&buf, results); err != nil {
		t.Fatalf("trial table: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if lines[0] != "Trials" || len(lines) != 2+len(results) {
		t.Fatalf("unexpected table:\n%s", buf.String())
	}
	for i, line := range lines[2:] {
		flagged := strings.HasSuffix(line, flagMark)
		want := i == 2 || i == 4
		if flagged != want {
			t.Fatalf("trial %d reversal flag = %v, want %v: %q", i+1, flagged, want, line)
		}
	}
	if !strings.Contains(lines[2], " ok ") || !strings.Contains(lines[5], "miss") {
		t.Fatalf("expected answers in rows:\n%s", buf.String())
	}
	buf.Reset()
	if err := RenderTrialTable(&buf, nil); err != nil || buf.Len() != 0 {
		t.Fatalf("expected no output for no trials, got %q %v", buf.String(), err)
	}
}
