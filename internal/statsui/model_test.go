package statsui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/vizier/internal/model"
)

type fakeSource struct {
	sessions []model.SessionAggregate
	results  map[string][]model.Result
	lastCfg  model.StatsConfig
	loaded   []string
}

func (f *fakeSource) ListSessions(_ context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error) {
	f.lastCfg = cfg
	var out []model.SessionAggregate
	for _, s := range f.sessions {
		if cfg.Exercise == "" || s.Exercise == cfg.Exercise {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSource) ListResults(_ context.Context, sessionID string) ([]model.Result, error) {
	f.loaded = append(f.loaded, sessionID)
	return f.results[sessionID], nil
}

func newSource() *fakeSource {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return &fakeSource{
		sessions: []model.SessionAggregate{
			{SessionID: "old", Exercise: "depth", Difficulty: "easy", StartedAt: start, Trials: 3, Correct: 2, MaxParam: 1},
			{SessionID: "new", Exercise: "anaglyph", Difficulty: "hard", StartedAt: start.Add(time.Hour), Trials: 4, Correct: 4, MaxParam: 3},
		},
		results: map[string][]model.Result{
			"old": {{Trial: 1}, {Trial: 2, PrimaryParam: 1}, {Trial: 3}},
			"new": {{Trial: 1}, {Trial: 2}, {Trial: 3, PrimaryParam: 1}, {Trial: 4, PrimaryParam: 1}},
		},
	}
}

func TestModelLoadsLatestStaircase(t *testing.T) {
	src := newSource()
	m := NewModel(src, model.StatsConfig{UserID: 3, CurveWindow: 2})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	if len(src.loaded) != 1 || src.loaded[0] != "new" {
		t.Fatalf("expected latest session trials loaded, got %v", src.loaded)
	}
	if !strings.Contains(m.View(), "Sessions") {
		t.Fatalf("expected overview to render")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabSessions {
		t.Fatalf("expected sessions tab, got %d", m.activeTab)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.activeTab != tabStaircase || m.staircaseID != "old" {
		t.Fatalf("expected staircase of the older session, got tab=%d id=%q", m.activeTab, m.staircaseID)
	}
	if len(m.staircaseResults) != 3 {
		t.Fatalf("expected 3 trials, got %d", len(m.staircaseResults))
	}
	if !strings.Contains(m.viewports[tabStaircase].View(), "depth easy") {
		t.Fatalf("expected staircase title for the selected session")
	}
}

func TestFilterKeepsUserAndValidates(t *testing.T) {
	src := newSource()
	m := NewModel(src, model.StatsConfig{UserID: 3, CurveWindow: 1})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	if !m.filterMode {
		t.Fatalf("expected filter mode")
	}
	m.filterInputs[0].SetValue("depth")
	m.filterInputs[2].SetValue("x")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.filterMode || m.filterError == "" {
		t.Fatalf("expected validation error to keep the form open")
	}
	m.filterInputs[2].SetValue("5")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.filterMode {
		t.Fatalf("expected filter applied")
	}
	if src.lastCfg.UserID != 3 || src.lastCfg.Exercise != "depth" || src.lastCfg.Last != 5 {
		t.Fatalf("unexpected config %+v", src.lastCfg)
	}
	if len(m.report.Sessions) != 1 || m.report.Sessions[0].SessionID != "old" {
		t.Fatalf("unexpected filtered sessions %+v", m.report.Sessions)
	}
}

func TestCurveWindowSteps(t *testing.T) {
	if nextCurveWindow(1) != 5 || nextCurveWindow(7) != 10 || prevCurveWindow(10) != 5 || prevCurveWindow(3) != 1 {
		t.Fatalf("unexpected curve window steps")
	}
}
