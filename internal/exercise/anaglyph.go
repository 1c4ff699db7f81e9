package exercise

import (
	"time"

	"github.com/verte-zerg/vizier/internal/model"
	"github.com/verte-zerg/vizier/internal/queue"
	"github.com/verte-zerg/vizier/internal/session"
	"github.com/verte-zerg/vizier/internal/stimulus"
)

// AnaglyphParams configures the random-dot stereogram exercise.
type AnaglyphParams struct {
	Size        int           `yaml:"size" validate:"gte=4"`
	PixelSize   int           `yaml:"pixel-size" validate:"gte=1"`
	FocalSize   float64       `yaml:"focal-size" validate:"gt=0,lt=1"`
	FocalOffset int           `yaml:"focal-offset"`
	DisplayTime time.Duration `yaml:"display-time" validate:"gte=0"`
}

// DefaultAnaglyphParams sizes the stereogram for a terminal canvas.
func DefaultAnaglyphParams() AnaglyphParams {
	return AnaglyphParams{Size: 60, PixelSize: 1, FocalSize: 0.35, FocalOffset: 2}
}

// Anaglyph asks where the hidden diamond is. The background disparity follows the
// session's primary parameter.
type Anaglyph struct {
	base
	params AnaglyphParams
	queue  *queue.Queue[*stimulus.Stimulus]
}

// NewAnaglyph returns an anaglyph controller.
func NewAnaglyph(env Env, p AnaglyphParams) (*Anaglyph, error) {
	if err := env.check(); err != nil {
		return nil, err
	}
	a := &Anaglyph{
		base:   base{name: PluginAnaglyph, env: env, log: env.logger().With("exercise", PluginAnaglyph)},
		params: p,
		queue:  queue.New[*stimulus.Stimulus](env.Surface, env.QueueOptions...),
	}
	if fit := fitSize(p.Size, p.PixelSize, env.Width, env.Height); fit != p.Size {
		a.log.Warn("stereogram shrunk to fit the screen", "size", p.Size, "fitted", fit)
		a.params.Size = fit
	}
	if err := a.spec().Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// fitSize caps size to the shorter side of the area, as a whole number of dots.
func fitSize(size, pixel, w, h int) int {
	limit := min(w, h)
	if size <= limit || pixel <= 0 {
		return size
	}
	return limit - limit%pixel
}

func (a *Anaglyph) spec() stimulus.Spec {
	return stimulus.Spec{
		Size:             a.params.Size,
		PixelSize:        a.params.PixelSize,
		FocalSizeRatio:   a.params.FocalSize,
		BackgroundOffset: a.env.Session.PrimaryParam(),
		FocalOffset:      a.params.FocalOffset,
		LeftColor:        a.env.Calibration.Left,
		RightColor:       a.env.Calibration.Right,
		DisplayTime:      a.params.DisplayTime,
	}.Centered(a.env.Width, a.env.Height)
}

// Start begins the session and shows the first stimulus.
func (a *Anaglyph) Start() error {
	a.env.Session.Start()
	if err := a.next(); err != nil {
		return a.abort(err)
	}
	return nil
}

func (a *Anaglyph) next() error {
	st, err := a.env.Generator.Generate(a.spec())
	if err != nil {
		return err
	}
	if err := stimulus.Render(a.env.Surface, st); err != nil {
		return err
	}
	if err := a.queue.Enqueue(st); err != nil {
		return err
	}
	_, err = a.queue.Advance()
	return err
}

// Current returns the visible stimulus.
func (a *Anaglyph) Current() (*stimulus.Stimulus, bool) {
	return a.queue.Current()
}

// HandleKey judges an arrow key against the diamond position. Other keys are ignored.
func (a *Anaglyph) HandleKey(k Key) (Outcome, error) {
	dir, ok := k.Direction()
	if !ok {
		return Outcome{}, nil
	}
	if !a.env.Session.IsActive() {
		return Outcome{Ended: true}, nil
	}
	current, ok := a.queue.Current()
	if !ok {
		return Outcome{}, a.abort(queue.ErrEmptyQueue)
	}
	answer, _ := model.PositionFor(dir)
	out, err := a.record(answer == current.Answer())
	if err != nil || out.Ended {
		return out, err
	}
	if err := a.next(); err != nil {
		return out, a.abort(err)
	}
	return out, nil
}

// Resume is a no-op: the anaglyph exercise never pauses.
func (a *Anaglyph) Resume() error {
	return nil
}

// Close ends the session and removes every drawn group.
func (a *Anaglyph) Close() error {
	a.env.Session.End(session.ReasonClosed)
	return a.queue.Close()
}
