package stats

import "github.com/verte-zerg/vizier/internal/model"

const (
	promoteAccuracy = 0.8
	demoteAccuracy  = 0.5
)

// SuggestDifficulty picks the next label from the ordered labels based on the
// latest session of the exercise. With no history it returns fallback.
func SuggestDifficulty(sessions []model.SessionAggregate, exercise string, labels []string, fallback string) string {
	var last *model.SessionAggregate
	for i := range sessions {
		if sessions[i].Exercise == exercise {
			last = &sessions[i]
		}
	}
	if last == nil || len(labels) == 0 {
		return fallback
	}
	idx := -1
	for i, l := range labels {
		if l == last.Difficulty {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fallback
	}
	acc := SessionMetrics(*last).Accuracy
	switch {
	case acc >= promoteAccuracy && idx+1 < len(labels):
		idx++
	case acc < demoteAccuracy && idx > 0:
		idx--
	}
	return labels[idx]
}
