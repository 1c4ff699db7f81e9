package exercise

import (
	"fmt"
	"image"
	"time"

	"github.com/verte-zerg/vizier/internal/model"
	"github.com/verte-zerg/vizier/internal/queue"
	"github.com/verte-zerg/vizier/internal/session"
	"github.com/verte-zerg/vizier/internal/stimulus"
)

const answersGroup = "recognition-answers"

// RecognitionParams configures the sequence recall exercise. ObjectSize is a
// percentage of the canvas width.
type RecognitionParams struct {
	ObjectCount int           `yaml:"object-count" validate:"gte=1,lte=12"`
	ObjectSize  int           `yaml:"object-size" validate:"gte=1,lte=50"`
	DisplayTime time.Duration `yaml:"display-time" validate:"gt=0"`
	Pause       time.Duration `yaml:"pause" validate:"gte=0"`
}

// DefaultRecognitionParams shows three arrows for 0.7s with a 2s pause between rounds.
func DefaultRecognitionParams() RecognitionParams {
	return RecognitionParams{
		ObjectCount: 3,
		ObjectSize:  10,
		DisplayTime: 700 * time.Millisecond,
		Pause:       2 * time.Second,
	}
}

// Recognition flashes a row of arrows that must be repeated in order. The row grows
// with the session's primary parameter.
type Recognition struct {
	base
	params    RecognitionParams
	queue     *queue.Queue[*stimulus.Sequence]
	target    *stimulus.Sequence
	answers   []model.Direction
	accepting bool
}

// NewRecognition returns a sequence recall controller.
func NewRecognition(env Env, p RecognitionParams) (*Recognition, error) {
	if err := env.check(); err != nil {
		return nil, err
	}
	return &Recognition{
		base:   base{name: PluginRecognition, env: env, log: env.logger().With("exercise", PluginRecognition)},
		params: p,
		queue:  queue.New[*stimulus.Sequence](env.Surface, env.QueueOptions...),
	}, nil
}

func (r *Recognition) spec() stimulus.SequenceSpec {
	count := r.params.ObjectCount + r.env.Session.PrimaryParam()
	if count < 1 {
		count = 1
	}
	size := r.params.ObjectSize * r.env.Width / 100
	if fit := int(float64(r.env.Width) / (float64(count) * 1.15)); size > fit {
		size = fit
	}
	if limit := r.env.Height / 2; size > limit {
		size = limit
	}
	return stimulus.SequenceSpec{
		Count:       count,
		ObjectSize:  size,
		Center:      image.Pt(r.env.Width/2, r.env.Height/2-size/2),
		Color:       r.env.foreground(),
		DisplayTime: r.params.DisplayTime,
	}
}

// Start begins the session and flashes the first sequence.
func (r *Recognition) Start() error {
	r.env.Session.Start()
	if err := r.next(); err != nil {
		return r.abort(err)
	}
	return nil
}

func (r *Recognition) next() error {
	spec := r.spec()
	seq, err := r.env.Generator.Sequence(spec)
	if err != nil {
		return err
	}
	if err := stimulus.RenderSequence(r.env.Surface, seq, spec.Color); err != nil {
		return err
	}
	if err := r.queue.Enqueue(seq); err != nil {
		return err
	}
	if _, err := r.queue.Advance(); err != nil {
		return err
	}
	r.target = seq
	r.answers = r.answers[:0]
	r.accepting = true
	return nil
}

// Accepting reports whether key presses are currently taken as answers.
func (r *Recognition) Accepting() bool {
	return r.accepting
}

// Target returns the sequence being recalled.
func (r *Recognition) Target() *stimulus.Sequence {
	return r.target
}

// Answers returns the arrows entered for the current sequence.
func (r *Recognition) Answers() []model.Direction {
	return append([]model.Direction(nil), r.answers...)
}

// HandleKey buffers one arrow. Once the row is complete it is judged and the host
// is asked to pause before Resume.
func (r *Recognition) HandleKey(k Key) (Outcome, error) {
	dir, ok := k.Direction()
	if !ok || !r.accepting {
		return Outcome{}, nil
	}
	if !r.env.Session.IsActive() {
		return Outcome{Ended: true}, nil
	}
	if r.target == nil {
		return Outcome{}, r.abort(queue.ErrEmptyQueue)
	}
	if len(r.answers) == 0 {
		if err := r.resetGroup(answersGroup); err != nil {
			return Outcome{}, r.abort(err)
		}
	}
	slot := r.target.AnswerSlot(len(r.answers))
	if err := stimulus.DrawArrow(r.env.Surface, answersGroup, dir, slot, r.env.foreground()); err != nil {
		return Outcome{}, r.abort(err)
	}
	r.answers = append(r.answers, dir)
	if len(r.answers) < len(r.target.Directions) {
		return Outcome{Handled: true}, nil
	}

	r.accepting = false
	out, err := r.record(r.target.Matches(r.answers))
	if err != nil || out.Ended {
		return out, err
	}
	out.Pause = r.params.Pause
	return out, nil
}

// Resume clears the echoed answers and flashes the next sequence.
func (r *Recognition) Resume() error {
	if r.accepting || !r.env.Session.IsActive() {
		return nil
	}
	if err := r.dropGroup(answersGroup); err != nil {
		return r.abort(err)
	}
	if err := r.next(); err != nil {
		return r.abort(err)
	}
	return nil
}

// Close ends the session and removes every drawn group.
func (r *Recognition) Close() error {
	r.env.Session.End(session.ReasonClosed)
	r.accepting = false
	if err := r.dropGroup(answersGroup); err != nil {
		return fmt.Errorf("drop answers: %w", err)
	}
	return r.queue.Close()
}
