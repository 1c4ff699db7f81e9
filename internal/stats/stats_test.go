package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/vizier/internal/model"
)

func trials(params ...int) []model.Result {
	out := make([]model.Result, len(params))
	for i, p := range params {
		out[i] = model.Result{Trial: i + 1, PrimaryParam: p}
	}
	return out
}

func TestSessionMetrics(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	m := SessionMetrics(model.SessionAggregate{
		Trials: 4, Correct: 3, MaxParam: 5,
		DeltaSumMs: 3000, DeltaCount: 3,
		StartedAt: start, EndedAt: start.Add(time.Minute),
	})
	if m.Accuracy != 0.75 || m.MeanDelta != time.Second || m.MaxParam != 5 || m.Duration != time.Minute {
		t.Fatalf("unexpected metrics %+v", m)
	}
	if zero := SessionMetrics(model.SessionAggregate{}); zero.Accuracy != 0 || zero.MeanDelta != 0 {
		t.Fatalf("expected zero metrics, got %+v", zero)
	}
}

func TestReversalsAndThreshold(t *testing.T) {
	results := trials(0, 1, 2, 2, 1, 0, 1, 2, 1)
	rev := Reversals(results)
	want := []int{3, 5, 7}
	if len(rev) != len(want) {
		t.Fatalf("expected reversals %v, got %v", want, rev)
	}
	for i := range want {
		if rev[i] != want[i] {
			t.Fatalf("expected reversals %v, got %v", want, rev)
		}
	}
	est, ok := ThresholdEstimate(results, 0)
	if !ok || est != 4.0/3.0 {
		t.Fatalf("expected estimate 4/3, got %v ok=%v", est, ok)
	}
	est, ok = ThresholdEstimate(results, 2)
	if !ok || est != 1 {
		t.Fatalf("expected estimate 1 over last two, got %v", est)
	}
	if _, ok := ThresholdEstimate(trials(0, 1, 2, 3), 0); ok {
		t.Fatalf("expected no estimate for a monotone run")
	}
}

func TestMovingAverageAndSparkline(t *testing.T) {
	avg := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if avg[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, avg)
		}
	}
	if got := Sparkline([]float64{0, 9}); got != " @" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{3, 3, 3}); got != "+++" {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
}

func TestRenderSummaryAndTables(t *testing.T) {
	sessions := []model.SessionAggregate{
		{SessionID: "a", Exercise: "anaglyph", Difficulty: "easy", Trials: 10, Correct: 9, MaxParam: 4, DeltaSumMs: 9000, DeltaCount: 9},
		{SessionID: "b", Exercise: "depth", Difficulty: "hard", Trials: 10, Correct: 5, MaxParam: 2, DeltaSumMs: 18000, DeltaCount: 9},
	}
	var buf bytes.Buffer
	if err := RenderSummary(&buf, sessions); err != nil {
		t.Fatalf("summary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Sessions: 2", "Trials: 20", "Avg Accuracy: 70.00%", "Avg Response: 1500 ms", "Best Level: 4"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in summary:\n%s", want, out)
		}
	}
	buf.Reset()
	if err := RenderExerciseTable(&buf, TopExercises(sessions, 0)); err != nil {
		t.Fatalf("exercise table: %v", err)
	}
	if !strings.Contains(buf.String(), "anaglyph") || !strings.Contains(buf.String(), "90.00%") {
		t.Fatalf("unexpected exercise table:\n%s", buf.String())
	}
	buf.Reset()
	if err := RenderSummary(&buf, nil); err != nil || !strings.Contains(buf.String(), "No sessions found.") {
		t.Fatalf("expected empty summary, got %q %v", buf.String(), err)
	}
}

func TestTopExercises(t *testing.T) {
	sessions := []model.SessionAggregate{
		{Exercise: "depth", Trials: 2, Correct: 1, MaxParam: 3},
		{Exercise: "anaglyph", Trials: 4, Correct: 4},
		{Exercise: "depth", Trials: 2, Correct: 2, MaxParam: 1},
	}
	top := TopExercises(sessions, 1)
	if len(top) != 1 || top[0].Exercise != "depth" || top[0].Sessions != 2 || top[0].BestParam != 3 || top[0].Accuracy() != 0.75 {
		t.Fatalf("unexpected top exercises %+v", top)
	}
}

func TestSuggestDifficulty(t *testing.T) {
	labels := []string{"easy", "medium", "hard"}
	history := []model.SessionAggregate{
		{Exercise: "anaglyph", Difficulty: "easy", Trials: 10, Correct: 2},
		{Exercise: "anaglyph", Difficulty: "medium", Trials: 10, Correct: 9},
		{Exercise: "depth", Difficulty: "medium", Trials: 10, Correct: 3},
	}
	if got := SuggestDifficulty(history, "anaglyph", labels, "medium"); got != "hard" {
		t.Fatalf("expected promotion to hard, got %q", got)
	}
	if got := SuggestDifficulty(history, "depth", labels, "medium"); got != "easy" {
		t.Fatalf("expected demotion to easy, got %q", got)
	}
	if got := SuggestDifficulty(history, "recognition", labels, "medium"); got != "medium" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
