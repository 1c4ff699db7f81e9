// Package tui provides the Bubble Tea exercise interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/vizier/internal/config"
	"github.com/verte-zerg/vizier/internal/exercise"
	"github.com/verte-zerg/vizier/internal/logging"
	"github.com/verte-zerg/vizier/internal/model"
	"github.com/verte-zerg/vizier/internal/profile"
)

var (
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	answerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle    = pendingStyle.Underline(true)
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
)

// ResultStore is the part of the profile store the UI reads and writes.
type ResultStore interface {
	RecordResults(ctx context.Context, userID int64, sessionID, exercise, difficulty string, results []model.Result) error
	ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error)
}

// Deps are the collaborators of the UI. Nothing here is global.
type Deps struct {
	Catalog  config.Catalog
	Store    ResultStore
	Profile  profile.Context
	Log      *logging.Logger
	Seed     int64
	Anaglyph config.AnaglyphConfig
	// Start launches this exercise right away and quits once its results are dismissed.
	Start *config.Launch
}

type screen int

const (
	screenLauncher screen = iota
	screenExercise
	screenResults
)

// Model implements the Bubble Tea application: launcher, exercise and results screens.
type Model struct {
	deps Deps
	log  *logging.Logger

	screen   screen
	launcher *launcher
	run      *exerciseScreen
	results  *resultsScreen

	width  int
	height int

	pendingStart bool
	errMsg       string
}

// NewModel constructs the application model.
func NewModel(deps Deps) *Model {
	log := deps.Log
	if log == nil {
		log = logging.Nop()
	}
	m := &Model{
		deps:         deps,
		log:          log,
		launcher:     newLauncher(deps.Catalog),
		pendingStart: deps.Start != nil,
	}
	m.launcher.suggest(m.loadHistory())
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.results != nil {
			m.results.resize(m.width, m.height)
		}
		if m.pendingStart {
			m.pendingStart = false
			return m, m.startExercise(*m.deps.Start)
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.closeRun()
			return m, tea.Quit
		}
	}

	switch m.screen {
	case screenExercise:
		return m.updateExercise(msg)
	case screenResults:
		return m.updateResults(msg)
	default:
		return m.updateLauncher(msg)
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	switch m.screen {
	case screenExercise:
		if m.run != nil {
			return m.run.view(m.width, m.height)
		}
	case screenResults:
		if m.results != nil {
			return m.results.view(m.width, m.height)
		}
	}
	return m.launcher.view(m.width, m.height, m.deps.Profile, m.errMsg)
}

func (m *Model) updateLauncher(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "esc":
		return m, tea.Quit
	case "enter":
		launch, err := m.launcher.resolve()
		if err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		return m, m.startExercise(launch)
	default:
		m.launcher.move(key.String())
		return m, nil
	}
}

func (m *Model) startExercise(launch config.Launch) tea.Cmd {
	m.errMsg = ""
	if launch.Plugin == exercise.PluginAnaglyph {
		if err := config.ApplyAnaglyph(&launch.Params.Anaglyph, m.deps.Anaglyph); err != nil {
			m.errMsg = err.Error()
			return nil
		}
	}
	run, err := newExerciseScreen(m.deps, m.log, launch, m.width, m.height)
	if err == nil {
		err = run.start()
	}
	if err != nil {
		m.log.Error("exercise start failed", "exercise", launch.Exercise, "error", err)
		m.errMsg = err.Error()
		if run != nil {
			_ = run.ctrl.Close()
		}
		m.screen = screenLauncher
		if m.deps.Start != nil {
			logErrf("failed to start %s: %v\n", launch.Exercise, err)
			return tea.Quit
		}
		return nil
	}
	m.run = run
	m.screen = screenExercise
	return run.waitForEvent()
}

func (m *Model) updateExercise(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.run == nil {
		m.screen = screenLauncher
		return m, nil
	}
	cmd, done := m.run.update(msg)
	if !done {
		return m, cmd
	}
	m.finishRun()
	return m, nil
}

// finishRun closes the controller, stores the results and switches to the results screen.
func (m *Model) finishRun() {
	run := m.run
	m.run = nil
	if err := run.ctrl.Close(); err != nil {
		m.log.Warn("exercise close failed", "error", err)
	}
	results := run.sess.Results()
	var storeErr error
	if m.deps.Store != nil {
		storeErr = m.deps.Store.RecordResults(context.Background(), m.deps.Profile.User.ID,
			run.sessionID, run.launch.Exercise, run.launch.Difficulty, results)
		if storeErr != nil {
			storeErr = fmt.Errorf("save results: %w", storeErr)
			m.log.Error("results not saved", "session_id", run.sessionID, "error", storeErr)
		}
	}
	err := errors.Join(run.err, storeErr)
	m.results = newResultsScreen(run.launch, run.sess.Reason(), results, err)
	m.results.resize(m.width, m.height)
	m.screen = screenResults
	m.launcher.suggest(m.loadHistory())
}

func (m *Model) updateResults(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "esc", "enter":
		m.results = nil
		m.screen = screenLauncher
		if m.deps.Start != nil {
			return m, tea.Quit
		}
		return m, nil
	default:
		return m, m.results.update(key)
	}
}

func (m *Model) closeRun() {
	if m.run == nil {
		return
	}
	if err := m.run.ctrl.Close(); err != nil {
		m.log.Warn("exercise close failed", "error", err)
	}
	m.run = nil
}

func (m *Model) loadHistory() []model.SessionAggregate {
	if m.deps.Store == nil {
		return nil
	}
	sessions, err := m.deps.Store.ListSessions(context.Background(), model.StatsConfig{UserID: m.deps.Profile.User.ID})
	if err != nil {
		m.log.Warn("failed to load session history", "error", err)
		return nil
	}
	return sessions
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func renderWith(style lipgloss.Style) func(string) string {
	return func(s string) string { return style.Render(s) }
}
