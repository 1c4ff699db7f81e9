// Package exercise turns key presses into judged trials for each exercise type.
package exercise

import (
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/verte-zerg/vizier/internal/logging"
	"github.com/verte-zerg/vizier/internal/model"
	"github.com/verte-zerg/vizier/internal/queue"
	"github.com/verte-zerg/vizier/internal/session"
	"github.com/verte-zerg/vizier/internal/stimulus"
	"github.com/verte-zerg/vizier/internal/surface"
)

// Exercise plugin names.
const (
	PluginAnaglyph    = "anaglyph"
	PluginRecognition = "recognition"
	PluginDepth       = "depth"
)

// Plugins lists the known plugin names.
var Plugins = []string{PluginAnaglyph, PluginRecognition, PluginDepth}

// ErrUnknownPlugin is returned by New for an unknown plugin name.
var ErrUnknownPlugin = errors.New("unknown exercise plugin")

// Key is a decoded key press.
type Key int

// Keys the exercises react to.
const (
	KeyUnknown Key = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeyEsc
	KeySpace
)

// DecodeKey maps a Bubble Tea key string to a Key.
func DecodeKey(s string) Key {
	switch s {
	case "up":
		return KeyUp
	case "down":
		return KeyDown
	case "left":
		return KeyLeft
	case "right":
		return KeyRight
	case "enter":
		return KeyEnter
	case "esc":
		return KeyEsc
	case " ", "space":
		return KeySpace
	default:
		return KeyUnknown
	}
}

// Direction returns the arrow direction of an arrow key.
func (k Key) Direction() (model.Direction, bool) {
	switch k {
	case KeyUp:
		return model.DirectionUp, true
	case KeyDown:
		return model.DirectionDown, true
	case KeyLeft:
		return model.DirectionLeft, true
	case KeyRight:
		return model.DirectionRight, true
	default:
		return "", false
	}
}

// Outcome tells the host what a key press did.
type Outcome struct {
	Handled  bool
	Recorded bool
	Correct  bool
	Ended    bool
	// Pause asks the host to wait before calling Resume. Input is refused meanwhile.
	Pause time.Duration
}

// Controller runs one exercise over a session.
type Controller interface {
	Name() string
	Start() error
	HandleKey(k Key) (Outcome, error)
	Resume() error
	Session() *session.Session
	Close() error
}

// Env is what every controller draws with.
type Env struct {
	Surface      surface.Surface
	Width        int
	Height       int
	Generator    *stimulus.Generator
	Session      *session.Session
	Calibration  model.Calibration
	Foreground   color.RGBA
	Log          *logging.Logger
	QueueOptions []queue.Option
}

func (e Env) check() error {
	if e.Surface == nil || e.Generator == nil || e.Session == nil {
		return errors.New("exercise env needs a surface, a generator and a session")
	}
	if e.Width <= 0 || e.Height <= 0 {
		return fmt.Errorf("exercise area must be positive, got %dx%d", e.Width, e.Height)
	}
	return nil
}

func (e Env) logger() *logging.Logger {
	if e.Log == nil {
		return logging.Nop()
	}
	return e.Log
}

func (e Env) foreground() color.RGBA {
	if e.Foreground == (color.RGBA{}) {
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return e.Foreground
}

// Params carries the parameter bag of one plugin. Only the bag matching the plugin is read.
type Params struct {
	Anaglyph    AnaglyphParams
	Recognition RecognitionParams
	Depth       DepthParams
}

// New builds the controller for plugin.
func New(plugin string, env Env, p Params) (Controller, error) {
	switch plugin {
	case PluginAnaglyph:
		return NewAnaglyph(env, p.Anaglyph)
	case PluginRecognition:
		return NewRecognition(env, p.Recognition)
	case PluginDepth:
		return NewDepth(env, p.Depth)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlugin, plugin)
	}
}

// base holds the pieces every controller shares.
type base struct {
	name string
	env  Env
	log  *logging.Logger
}

func (b *base) Name() string {
	return b.name
}

func (b *base) Session() *session.Session {
	return b.env.Session
}

// record judges a trial. A session that already ended turns the press into a no-op.
func (b *base) record(correct bool) (Outcome, error) {
	if _, err := b.env.Session.Record(correct); err != nil {
		if errors.Is(err, session.ErrSessionInactive) {
			return Outcome{Ended: true}, nil
		}
		return Outcome{}, err
	}
	b.log.Debug("trial recorded", "correct", correct, "param", b.env.Session.PrimaryParam())
	return Outcome{Handled: true, Recorded: true, Correct: correct, Ended: !b.env.Session.IsActive()}, nil
}

// abort ends the session after a failure that makes the run unusable.
func (b *base) abort(err error) error {
	b.env.Session.End(session.ReasonAborted)
	b.log.Error("exercise aborted", "error", err)
	return fmt.Errorf("%s aborted: %w", b.name, err)
}

// resetGroup deletes and recreates a helper group, leaving it visible.
func (b *base) resetGroup(id string) error {
	if err := b.env.Surface.Delete(id); err != nil && !errors.Is(err, surface.ErrUnknownGroup) {
		return err
	}
	if err := b.env.Surface.CreateGroup(id); err != nil {
		return err
	}
	return b.env.Surface.Show(id)
}

func (b *base) dropGroup(id string) error {
	if err := b.env.Surface.Delete(id); err != nil && !errors.Is(err, surface.ErrUnknownGroup) {
		return err
	}
	return nil
}
