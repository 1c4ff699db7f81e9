package exercise

import (
	"fmt"
	"image"

	"github.com/verte-zerg/vizier/internal/model"
	"github.com/verte-zerg/vizier/internal/queue"
	"github.com/verte-zerg/vizier/internal/session"
	"github.com/verte-zerg/vizier/internal/stimulus"
)

const selectionGroup = "depth-selection"

// DepthParams configures the depth perception exercise. ObjectSize is a percentage
// of the canvas width, depths are percentages of the object size and depth
// differences are pixels.
type DepthParams struct {
	ObjectCount  int `yaml:"object-count" validate:"gte=2,lte=9"`
	ObjectSize   int `yaml:"object-size" validate:"gte=1,lte=30"`
	Thickness    int `yaml:"thickness" validate:"gte=1"`
	MinDepth     int `yaml:"min-depth" validate:"gte=0"`
	MaxDepth     int `yaml:"max-depth" validate:"gtfield=MinDepth"`
	MinDepthDiff int `yaml:"min-depth-diff" validate:"gte=1"`
	MaxDepthDiff int `yaml:"max-depth-diff" validate:"gtfield=MinDepthDiff"`
}

// DefaultDepthParams mirrors the stock depth row of three circles.
func DefaultDepthParams() DepthParams {
	return DepthParams{
		ObjectCount:  3,
		ObjectSize:   12,
		Thickness:    1,
		MinDepth:     0,
		MaxDepth:     10,
		MinDepthDiff: 2,
		MaxDepthDiff: 6,
	}
}

// Depth asks which circle pair floats at a different depth. Higher primary
// parameters narrow the disparity difference toward MinDepthDiff.
type Depth struct {
	base
	params   DepthParams
	queue    *queue.Queue[*stimulus.DepthRow]
	selected int
}

// NewDepth returns a depth perception controller.
func NewDepth(env Env, p DepthParams) (*Depth, error) {
	if err := env.check(); err != nil {
		return nil, err
	}
	return &Depth{
		base:   base{name: PluginDepth, env: env, log: env.logger().With("exercise", PluginDepth)},
		params: p,
		queue:  queue.New[*stimulus.DepthRow](env.Surface, env.QueueOptions...),
	}, nil
}

// DiffRange returns the disparity difference range [min, max) for a primary parameter.
func (d *Depth) DiffRange(param int) (int, int) {
	lo := d.params.MinDepthDiff
	hi := d.params.MaxDepthDiff - param
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

func (d *Depth) spec() stimulus.DepthSpec {
	size := d.params.ObjectSize * d.env.Width / 100
	if fit := int(float64(d.env.Width) / (float64(d.params.ObjectCount) * 1.2)); size > fit {
		size = fit
	}
	minDepth := d.params.MinDepth * size / 100
	maxDepth := d.params.MaxDepth * size / 100
	if maxDepth <= minDepth {
		maxDepth = minDepth + 1
	}
	lo, hi := d.DiffRange(d.env.Session.PrimaryParam())
	return stimulus.DepthSpec{
		Count:        d.params.ObjectCount,
		ObjectSize:   size,
		Thickness:    d.params.Thickness,
		Center:       image.Pt(d.env.Width/2, d.env.Height/2-size/2),
		MinDepth:     minDepth,
		MaxDepth:     maxDepth,
		MinDepthDiff: lo,
		MaxDepthDiff: hi,
		LeftColor:    d.env.Calibration.Left,
		RightColor:   d.env.Calibration.Right,
	}
}

// Start begins the session and shows the first row.
func (d *Depth) Start() error {
	d.env.Session.Start()
	if err := d.next(); err != nil {
		return d.abort(err)
	}
	return nil
}

func (d *Depth) next() error {
	row, err := d.env.Generator.DepthRow(d.spec())
	if err != nil {
		return err
	}
	if err := stimulus.RenderDepthRow(d.env.Surface, row); err != nil {
		return err
	}
	if err := d.queue.Enqueue(row); err != nil {
		return err
	}
	if _, err := d.queue.Advance(); err != nil {
		return err
	}
	d.selected = 0
	return d.drawSelection(row)
}

func (d *Depth) drawSelection(row *stimulus.DepthRow) error {
	if err := d.resetGroup(selectionGroup); err != nil {
		return err
	}
	return stimulus.DrawArrow(d.env.Surface, selectionGroup, model.DirectionUp, row.MarkerSlot(d.selected), d.env.foreground())
}

// Selected returns the index under the selection marker.
func (d *Depth) Selected() int {
	return d.selected
}

// Current returns the visible row.
func (d *Depth) Current() (*stimulus.DepthRow, bool) {
	return d.queue.Current()
}

// HandleKey moves the marker with left/right and judges the selection on enter.
func (d *Depth) HandleKey(k Key) (Outcome, error) {
	if k != KeyLeft && k != KeyRight && k != KeyEnter {
		return Outcome{}, nil
	}
	if !d.env.Session.IsActive() {
		return Outcome{Ended: true}, nil
	}
	row, ok := d.queue.Current()
	if !ok {
		return Outcome{}, d.abort(queue.ErrEmptyQueue)
	}
	switch k {
	case KeyLeft, KeyRight:
		if k == KeyLeft && d.selected > 0 {
			d.selected--
		}
		if k == KeyRight && d.selected < len(row.Offsets)-1 {
			d.selected++
		}
		if err := d.drawSelection(row); err != nil {
			return Outcome{}, d.abort(err)
		}
		return Outcome{Handled: true}, nil
	}

	out, err := d.record(d.selected == row.Odd)
	if err != nil || out.Ended {
		return out, err
	}
	if err := d.next(); err != nil {
		return out, d.abort(err)
	}
	return out, nil
}

// Resume is a no-op: the depth exercise never pauses.
func (d *Depth) Resume() error {
	return nil
}

// Close ends the session and removes every drawn group.
func (d *Depth) Close() error {
	d.env.Session.End(session.ReasonClosed)
	if err := d.dropGroup(selectionGroup); err != nil {
		return fmt.Errorf("drop selection: %w", err)
	}
	return d.queue.Close()
}
