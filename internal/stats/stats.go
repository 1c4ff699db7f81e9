// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/vizier/internal/model"
)

const sparkChars = " .:-=+*#%@"

// defaultReversals is how many trailing reversals feed the threshold estimate.
const defaultReversals = 6

// Metrics are the derived figures of one stored session.
type Metrics struct {
	Accuracy  float64
	MeanDelta time.Duration
	MaxParam  int
	Duration  time.Duration
}

// SessionMetrics computes accuracy, mean response time, and peak difficulty.
func SessionMetrics(s model.SessionAggregate) Metrics {
	m := Metrics{MaxParam: s.MaxParam}
	if s.Trials > 0 {
		m.Accuracy = float64(s.Correct) / float64(s.Trials)
	}
	if s.DeltaCount > 0 {
		m.MeanDelta = time.Duration(s.DeltaSumMs/s.DeltaCount) * time.Millisecond
	}
	if s.EndedAt.After(s.StartedAt) {
		m.Duration = s.EndedAt.Sub(s.StartedAt)
	}
	return m
}

// Reversals returns the indexes of trials where the staircase changed direction.
func Reversals(results []model.Result) []int {
	var out []int
	dir := 0
	for i := 1; i < len(results); i++ {
		diff := results[i].PrimaryParam - results[i-1].PrimaryParam
		if diff == 0 {
			continue
		}
		next := 1
		if diff < 0 {
			next = -1
		}
		if dir != 0 && next != dir {
			out = append(out, i-1)
		}
		dir = next
	}
	return out
}

// ThresholdEstimate averages the primary parameter over the last n reversals.
// It reports false when fewer than two reversals occurred.
func ThresholdEstimate(results []model.Result, n int) (float64, bool) {
	if n <= 0 {
		n = defaultReversals
	}
	rev := Reversals(results)
	if len(rev) < 2 {
		return 0, false
	}
	if len(rev) > n {
		rev = rev[len(rev)-n:]
	}
	var sum float64
	for _, idx := range rev {
		sum += float64(results[idx].PrimaryParam)
	}
	return sum / float64(len(rev)), true
}

// ParamSeries extracts the primary parameter of each trial.
func ParamSeries(results []model.Result) []float64 {
	out := make([]float64, len(results))
	for i, r := range results {
		out[i] = float64(r.PrimaryParam)
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := valueBounds(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints a summary block for sessions.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	var totalAcc float64
	var deltaSum, deltaCount int64
	trials, best := 0, 0
	for _, s := range sessions {
		m := SessionMetrics(s)
		totalAcc += m.Accuracy
		deltaSum += s.DeltaSumMs
		deltaCount += s.DeltaCount
		trials += s.Trials
		best = max(best, m.MaxParam)
	}
	meanDelta := 0.0
	if deltaCount > 0 {
		meanDelta = float64(deltaSum) / float64(deltaCount)
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", len(sessions)),
		fmt.Sprintf("Trials: %d", trials),
		fmt.Sprintf("Avg Accuracy: %.2f%%", totalAcc/float64(len(sessions))*100),
		fmt.Sprintf("Avg Response: %.0f ms", meanDelta),
		fmt.Sprintf("Best Level: %d", best),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCurves prints learning curves for accuracy and peak level.
func RenderCurves(w io.Writer, sessions []model.SessionAggregate, window int) error {
	return RenderCurvesWithSize(w, sessions, window, 0, 10, false)
}

// RenderCurvesWithSize prints learning curves sized to a given total width.
func RenderCurvesWithSize(w io.Writer, sessions []model.SessionAggregate, window, totalWidth, height int, useColor bool) error {
	if len(sessions) == 0 {
		return nil
	}
	accs := make([]float64, len(sessions))
	levels := make([]float64, len(sessions))
	for i, s := range sessions {
		m := SessionMetrics(s)
		accs[i] = m.Accuracy * 100
		levels[i] = float64(m.MaxParam)
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotSeriesWithColor(w, "Learning Curves", []Series{
		{Name: "Accuracy", Values: MovingAverage(accs, window)},
		{Name: "Level", Values: MovingAverage(levels, window)},
	}, width, height, useColor)
}

// RenderStaircase plots the primary parameter trial by trial.
func RenderStaircase(w io.Writer, results []model.Result, totalWidth, height int, useColor bool) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No trials recorded.")
		return err
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	title := "Staircase"
	if est, ok := ThresholdEstimate(results, 0); ok {
		title = fmt.Sprintf("Staircase (threshold ~ %.1f)", est)
	}
	return PlotSeriesWithColor(w, title, []Series{
		{Name: "Level", Values: ParamSeries(results), Steps: true, Reversals: Reversals(results)},
	}, width, height, useColor)
}

// RenderSessionTable prints one row per session, oldest first.
func RenderSessionTable(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		return nil
	}
	t := newTable(
		column{title: "Started", kind: kindText},
		column{title: "Exercise", kind: kindText},
		column{title: "Difficulty", kind: kindText},
		column{title: "Trials", kind: kindCount},
		column{title: "Accuracy", kind: kindPercent},
		column{title: "Avg Response (ms)", kind: kindMillis},
		column{title: "Level", kind: kindLevel},
	)
	for _, s := range sessions {
		m := SessionMetrics(s)
		t.add(s.StartedAt.Local().Format("2006-01-02 15:04"), s.Exercise, s.Difficulty,
			s.Trials, m.Accuracy, m.MeanDelta, m.MaxParam)
	}
	return t.render(w, "Sessions")
}

// RenderExerciseTable prints per-exercise aggregates.
func RenderExerciseTable(w io.Writer, summaries []ExerciseSummary) error {
	if len(summaries) == 0 {
		return nil
	}
	t := newTable(
		column{title: "Exercise", kind: kindText},
		column{title: "Sessions", kind: kindCount},
		column{title: "Trials", kind: kindCount},
		column{title: "Accuracy", kind: kindPercent},
		column{title: "Best Level", kind: kindLevel},
	)
	for _, s := range summaries {
		t.add(s.Exercise, s.Sessions, s.Trials, s.Accuracy(), s.BestParam)
	}
	return t.render(w, "Per-Exercise")
}

// RenderTrialTable lists the trials of one session with the staircase
// reversals flagged.
func RenderTrialTable(w io.Writer, results []model.Result) error {
	if len(results) == 0 {
		return nil
	}
	t := newTable(
		column{title: "Trial", kind: kindCount},
		column{title: "Level", kind: kindLevel},
		column{title: "Answer", kind: kindCorrect},
		column{title: "Response (ms)", kind: kindMillis},
		column{title: "Reversal", kind: kindFlag},
	)
	turns := make(map[int]bool)
	for _, i := range Reversals(results) {
		turns[i] = true
	}
	for i, r := range results {
		t.add(r.Trial, r.PrimaryParam, r.Correct, r.Delta, turns[i])
	}
	return t.render(w, "Trials")
}
