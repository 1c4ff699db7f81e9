package stats

import (
	"context"

	"github.com/verte-zerg/vizier/internal/model"
)

// Source is the slice of the store a report reads from.
type Source interface {
	ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error)
	ListResults(ctx context.Context, sessionID string) ([]model.Result, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions  []model.SessionAggregate
	Window    []model.SessionAggregate
	Exercises []ExerciseSummary
	// Latest holds the trials of the newest session, if any.
	Latest []model.Result
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, src Source, cfg model.StatsConfig) (Report, error) {
	sessions, err := src.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}
	report := Report{
		Sessions:  sessions,
		Window:    lastSessions(sessions, cfg.CurveWindow),
		Exercises: TopExercises(sessions, 0),
	}
	if len(sessions) > 0 {
		latest, err := src.ListResults(ctx, sessions[len(sessions)-1].SessionID)
		if err != nil {
			return Report{}, err
		}
		report.Latest = latest
	}
	return report, nil
}

func lastSessions(sessions []model.SessionAggregate, window int) []model.SessionAggregate {
	if window <= 0 || len(sessions) <= window {
		return sessions
	}
	return sessions[len(sessions)-window:]
}
