package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/vizier/internal/config"
	"github.com/verte-zerg/vizier/internal/exercise"
	"github.com/verte-zerg/vizier/internal/model"
	"github.com/verte-zerg/vizier/internal/profile"
	"github.com/verte-zerg/vizier/internal/theme"
)

type recordCall struct {
	userID     int64
	sessionID  string
	exercise   string
	difficulty string
	results    []model.Result
}

type fakeStore struct {
	calls   []recordCall
	err     error
	history []model.SessionAggregate
}

func (f *fakeStore) RecordResults(_ context.Context, userID int64, sessionID, exercise, difficulty string, results []model.Result) error {
	f.calls = append(f.calls, recordCall{userID, sessionID, exercise, difficulty, results})
	return f.err
}

func (f *fakeStore) ListSessions(context.Context, model.StatsConfig) ([]model.SessionAggregate, error) {
	return f.history, nil
}

func newTestModel(t *testing.T, st *fakeStore, start *config.Launch) *Model {
	t.Helper()
	catalog, err := config.DefaultCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	m := NewModel(Deps{
		Catalog: catalog,
		Store:   st,
		Profile: profile.Context{User: model.User{ID: 7, Username: "jdoe"}, Calibration: theme.DefaultCalibration()},
		Seed:    1,
		Start:   start,
	})
	t.Cleanup(m.closeRun)
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestAnaglyphRunStoresResults(t *testing.T) {
	st := &fakeStore{}
	m := newTestModel(t, st, nil)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	m.Update(key("enter"))
	if m.screen != screenExercise || m.run == nil {
		t.Fatalf("expected exercise screen, got %v (%s)", m.screen, m.errMsg)
	}
	if m.run.launch.Exercise != "anaglyph" || m.run.launch.Difficulty != "medium" {
		t.Fatalf("unexpected launch %+v", m.run.launch)
	}
	if !strings.Contains(m.View(), "Trial 0/") {
		t.Fatalf("expected footer in exercise view")
	}
	sessionID := m.run.sessionID
	for _, k := range []string{"up", "left", "right"} {
		m.Update(key(k))
	}
	m.Update(key("esc"))

	if m.screen != screenResults {
		t.Fatalf("expected results screen, got %v", m.screen)
	}
	if len(st.calls) != 1 {
		t.Fatalf("expected one store call, got %d", len(st.calls))
	}
	call := st.calls[0]
	if call.userID != 7 || call.sessionID != sessionID || call.exercise != "anaglyph" || call.difficulty != "medium" || len(call.results) != 3 {
		t.Fatalf("unexpected store call %+v", call)
	}
	if !strings.Contains(m.View(), "Ended: stopped") {
		t.Fatalf("expected end reason in results view:\n%s", m.View())
	}

	m.Update(key("enter"))
	if m.screen != screenLauncher {
		t.Fatalf("expected launcher after results, got %v", m.screen)
	}
}

func TestStoreErrorShownOnResults(t *testing.T) {
	st := &fakeStore{err: errors.New("disk full")}
	m := newTestModel(t, st, nil)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	m.Update(key("enter"))
	m.Update(key("up"))
	m.Update(key("esc"))
	if m.screen != screenResults || m.results.err == nil {
		t.Fatalf("expected results with store error")
	}
	view := m.View()
	if !strings.Contains(view, "disk full") || !strings.Contains(view, "Correct") {
		t.Fatalf("expected error and results in view:\n%s", view)
	}
}

func TestRecognitionPauseAndResume(t *testing.T) {
	catalog, err := config.DefaultCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	launch, err := catalog.Resolve("recognition", "easy")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	st := &fakeStore{}
	m := newTestModel(t, st, &launch)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	if m.screen != screenExercise {
		t.Fatalf("expected exercise to start on first resize, got %v (%s)", m.screen, m.errMsg)
	}
	rec := m.run.ctrl.(*exercise.Recognition)
	first := rec.Target()
	var cmd tea.Cmd
	for range first.Directions {
		_, cmd = m.Update(key("up"))
	}
	if !m.run.paused || cmd == nil {
		t.Fatalf("expected a pause after a full row")
	}
	m.Update(key("down"))
	if len(rec.Answers()) != len(first.Directions) {
		t.Fatalf("keys during the pause must be ignored")
	}

	m.Update(resumeMsg{run: m.run.id + 100})
	if !m.run.paused {
		t.Fatalf("resume from another run must be ignored")
	}
	m.Update(resumeMsg{run: m.run.id})
	if m.run.paused || rec.Target() == first || len(rec.Answers()) != 0 {
		t.Fatalf("expected next sequence after resume")
	}

	m.Update(key("esc"))
	m.Update(key("enter"))
	if len(st.calls) != 1 || st.calls[0].exercise != "recognition" {
		t.Fatalf("unexpected store calls %+v", st.calls)
	}
}

func TestLauncherSuggestsDifficulty(t *testing.T) {
	st := &fakeStore{history: []model.SessionAggregate{
		{Exercise: "anaglyph", Difficulty: "medium", Trials: 10, Correct: 10},
	}}
	m := newTestModel(t, st, nil)
	name, label, ok := m.launcher.selected()
	if !ok || name != "anaglyph" || label != "hard" {
		t.Fatalf("expected anaglyph/hard, got %s/%s", name, label)
	}
	m.launcher.move("left")
	m.launcher.move("left")
	m.launcher.move("left")
	if _, label, _ := m.launcher.selected(); label != "easy" {
		t.Fatalf("expected clamp at easy, got %s", label)
	}
	m.launcher.move("down")
	if name, label, _ := m.launcher.selected(); name != "depth" || label != "medium" {
		t.Fatalf("expected depth/medium, got %s/%s", name, label)
	}
}

func TestFormatRemaining(t *testing.T) {
	if got := formatRemaining(125_400_000_000); got != "2:05" {
		t.Fatalf("unexpected %q", got)
	}
	if got := formatRemaining(-1); got != "0:00" {
		t.Fatalf("unexpected %q", got)
	}
}
