package stats

import (
	"sort"

	"github.com/verte-zerg/vizier/internal/model"
)

// ExerciseSummary aggregates all sessions of one exercise.
type ExerciseSummary struct {
	Exercise  string
	Sessions  int
	Trials    int
	Correct   int
	BestParam int
}

// Accuracy is the share of correct trials.
func (e ExerciseSummary) Accuracy() float64 {
	if e.Trials == 0 {
		return 0
	}
	return float64(e.Correct) / float64(e.Trials)
}

// TopExercises groups sessions by exercise, most practiced first.
func TopExercises(sessions []model.SessionAggregate, n int) []ExerciseSummary {
	byName := map[string]*ExerciseSummary{}
	for _, s := range sessions {
		sum, ok := byName[s.Exercise]
		if !ok {
			sum = &ExerciseSummary{Exercise: s.Exercise}
			byName[s.Exercise] = sum
		}
		sum.Sessions++
		sum.Trials += s.Trials
		sum.Correct += s.Correct
		sum.BestParam = max(sum.BestParam, s.MaxParam)
	}
	out := make([]ExerciseSummary, 0, len(byName))
	for _, sum := range byName {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sessions == out[j].Sessions {
			return out[i].Exercise < out[j].Exercise
		}
		return out[i].Sessions > out[j].Sessions
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
