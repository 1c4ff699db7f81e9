package tui

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/verte-zerg/vizier/internal/config"
	"github.com/verte-zerg/vizier/internal/exercise"
	"github.com/verte-zerg/vizier/internal/logging"
	"github.com/verte-zerg/vizier/internal/queue"
	"github.com/verte-zerg/vizier/internal/render"
	"github.com/verte-zerg/vizier/internal/session"
	"github.com/verte-zerg/vizier/internal/stimulus"
	"github.com/verte-zerg/vizier/internal/surface"
	"github.com/verte-zerg/vizier/internal/theme"
)

const eventBuffer = 64

var runCounter atomic.Int64

// Messages posted by timer goroutines carry the id of the run that produced them,
// so late deliveries from a closed run are dropped.
type sessionEventMsg struct {
	run   int64
	event session.Event
}

type expiryMsg struct {
	run    int64
	expiry queue.Expiry
}

type resumeMsg struct {
	run int64
}

// exerciseScreen hosts one controller on an in-memory canvas rendered as half blocks.
type exerciseScreen struct {
	id        int64
	launch    config.Launch
	log       *logging.Logger
	canvas    *surface.Canvas
	ctrl      exercise.Controller
	sess      *session.Session
	events    chan tea.Msg
	sessionID string

	remaining   time.Duration
	paused      bool
	lastCorrect *bool
	err         error
}

func newExerciseScreen(deps Deps, log *logging.Logger, launch config.Launch, width, height int) (*exerciseScreen, error) {
	cols, rows := canvasCells(width, height)
	s := &exerciseScreen{
		id:        runCounter.Add(1),
		launch:    launch,
		canvas:    surface.NewCanvas(cols, rows*2),
		events:    make(chan tea.Msg, eventBuffer),
		sessionID: uuid.NewString(),
		remaining: launch.Session.Duration,
	}
	s.log = log.With("session_id", s.sessionID, "exercise", launch.Exercise, "difficulty", launch.Difficulty)

	sess, err := session.New(launch.Session,
		session.WithLogger(s.log),
		session.WithNotifier(func(e session.Event) {
			s.post(sessionEventMsg{run: s.id, event: e})
		}),
	)
	if err != nil {
		return nil, err
	}
	s.sess = sess

	env := exercise.Env{
		Surface:     s.canvas,
		Width:       cols,
		Height:      rows * 2,
		Generator:   stimulus.NewGenerator(deps.Seed),
		Session:     sess,
		Calibration: deps.Profile.Calibration,
		Foreground:  theme.Default.Colors["white"],
		Log:         s.log,
		QueueOptions: []queue.Option{queue.WithNotifier(func(x queue.Expiry) {
			s.post(expiryMsg{run: s.id, expiry: x})
		})},
	}
	ctrl, err := exercise.New(launch.Plugin, env, launch.Params)
	if err != nil {
		return nil, err
	}
	s.ctrl = ctrl
	return s, nil
}

// canvasCells is the drawable terminal area: everything above the two footer lines.
func canvasCells(width, height int) (cols, rows int) {
	return max(1, width), max(1, height-2)
}

func (s *exerciseScreen) start() error {
	cfg := s.sess.Config()
	s.log.Info("exercise started", "trial_limit", cfg.TrialLimit, "duration", cfg.Duration)
	return s.ctrl.Start()
}

// post never blocks a timer goroutine. A dropped tick is repaired by the next one;
// the end of the session is also observed through Done.
func (s *exerciseScreen) post(msg tea.Msg) {
	select {
	case s.events <- msg:
	default:
	}
}

func (s *exerciseScreen) waitForEvent() tea.Cmd {
	events, done, id := s.events, s.sess.Done(), s.id
	return func() tea.Msg {
		select {
		case msg := <-events:
			return msg
		case <-done:
			return sessionEventMsg{run: id, event: session.Event{Kind: session.EventEnded}}
		}
	}
}

// update handles one message. done reports that the session is over.
func (s *exerciseScreen) update(msg tea.Msg) (cmd tea.Cmd, done bool) {
	switch msg := msg.(type) {
	case sessionEventMsg:
		if msg.run != s.id {
			return nil, false
		}
		if msg.event.Kind == session.EventEnded || !s.sess.IsActive() {
			return nil, true
		}
		s.remaining = msg.event.Remaining
		return s.waitForEvent(), false
	case expiryMsg:
		if msg.run != s.id {
			return nil, false
		}
		if msg.expiry.Stale {
			s.log.Debug("stale auto-hide ignored", "stimulus_id", msg.expiry.ID)
		}
		return s.waitForEvent(), false
	case resumeMsg:
		if msg.run != s.id {
			return nil, false
		}
		s.paused = false
		if err := s.ctrl.Resume(); err != nil {
			s.err = err
			return nil, true
		}
		return nil, !s.sess.IsActive()
	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return nil, false
}

func (s *exerciseScreen) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	key := exercise.DecodeKey(msg.String())
	if key == exercise.KeyEsc {
		s.sess.End(session.ReasonClosed)
		return nil, true
	}
	if s.paused {
		return nil, false
	}
	out, err := s.ctrl.HandleKey(key)
	if err != nil {
		s.err = err
		return nil, true
	}
	if out.Recorded {
		correct := out.Correct
		s.lastCorrect = &correct
	}
	if out.Ended {
		return nil, true
	}
	if out.Pause > 0 {
		s.paused = true
		id := s.id
		return tea.Tick(out.Pause, func(time.Time) tea.Msg { return resumeMsg{run: id} }), false
	}
	return nil, false
}

func (s *exerciseScreen) view(width, height int) string {
	cols, rows := canvasCells(width, height)
	img := render.Fit(render.Raster(s.canvas), cols, rows)
	body := render.HalfBlocks(img)
	lines := []string{body, s.renderStatus(width), s.renderFooter(width)}
	return strings.Join(lines, "\n")
}

// renderStatus shows the recall answers, or the verdict of the last trial.
func (s *exerciseScreen) renderStatus(width int) string {
	var status string
	if rec, ok := s.ctrl.(*exercise.Recognition); ok && rec.Target() != nil {
		status = renderStyledRunes(buildAnswerRunes(rec.Target().Directions, rec.Answers(), !rec.Accepting()))
	} else if s.lastCorrect != nil {
		if *s.lastCorrect {
			status = successStyle.Render("correct")
		} else {
			status = incorrectStyle.Render("incorrect")
		}
	}
	return lipgloss.Place(width, 1, lipgloss.Center, lipgloss.Center, status)
}

func (s *exerciseScreen) renderFooter(width int) string {
	cfg := s.sess.Config()
	segments := []string{
		launchTitle(s.launch),
		fmt.Sprintf("Trial %d/%d", s.sess.Trials(), cfg.TrialLimit),
		fmt.Sprintf("Level %d", s.sess.PrimaryParam()),
		fmt.Sprintf("Time %s", formatRemaining(s.remaining)),
		exerciseHelp(s.launch.Plugin),
	}
	footer := truncate(strings.Join(segments, "  "), width)
	return lipgloss.Place(width, 1, lipgloss.Center, lipgloss.Center, footerStyle.Render(footer))
}

func launchTitle(l config.Launch) string {
	title := l.Title
	if title == "" {
		title = l.Exercise
	}
	return fmt.Sprintf("%s (%s)", title, l.Difficulty)
}

func exerciseHelp(plugin string) string {
	switch plugin {
	case exercise.PluginDepth:
		return "left/right select · enter answer · esc stop"
	case exercise.PluginRecognition:
		return "arrows repeat the row · esc stop"
	default:
		return "arrows point at the hidden shape · esc stop"
	}
}

func formatRemaining(d time.Duration) string {
	d = max(0, d.Round(time.Second))
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

// errAborted reports whether a run ended on an unusable queue.
func errAborted(err error) bool {
	return errors.Is(err, queue.ErrEmptyQueue)
}
