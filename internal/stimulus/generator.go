package stimulus

import (
	"image"
	"image/color"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/vizier/internal/model"
)

// Eye is the dot layout seen by one eye.
type Eye struct {
	Side            Side
	Color           color.RGBA
	Background      *Grid
	Focal           *Grid
	Mask            *Grid
	BackgroundShift int
	FocalShift      int
}

// Stimulus is one generated stereo random-dot image.
type Stimulus struct {
	id        string
	display   time.Duration
	Position  model.Position
	Profile   []int
	PixelSize int
	Origin    image.Point
	Left      Eye
	Right     Eye
}

// ID returns the surface group name of the stimulus.
func (s *Stimulus) ID() string {
	return s.id
}

// DisplayTime returns how long the stimulus stays visible; 0 means until replaced.
func (s *Stimulus) DisplayTime() time.Duration {
	return s.display
}

// Answer returns the position of the hidden focal target.
func (s *Stimulus) Answer() model.Position {
	return s.Position
}

// Eyes returns both eyes, left first.
func (s *Stimulus) Eyes() []Eye {
	return []Eye{s.Left, s.Right}
}

// Generator produces stimuli from a single owned random source.
type Generator struct {
	rnd *rand.Rand
}

// NewGenerator returns a generator seeded with seed; 0 selects a time-based seed.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Intn exposes the generator's source to exercise code that needs extra draws.
func (g *Generator) Intn(n int) int {
	return g.rnd.Intn(n)
}

func (g *Generator) newID() string {
	id, err := uuid.NewRandomFromReader(g.rnd)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Generate builds a new stereo stimulus from spec.
func (g *Generator) Generate(spec Spec) (*Stimulus, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	pc := spec.PixelCount()
	fpc := spec.FocalPixelCount()

	background := RandomGrid(g.rnd, pc)
	focal := RandomGrid(g.rnd, pc)
	position := model.Positions[g.rnd.Intn(len(model.Positions))]
	profile := DiamondProfile(fpc)

	st := &Stimulus{
		id:        g.newID(),
		display:   spec.DisplayTime,
		Position:  position,
		Profile:   profile,
		PixelSize: spec.PixelSize,
		Origin:    spec.Origin,
	}
	st.Left = buildEye(SideLeft, spec.LeftColor, spec, background, focal, position, profile)
	st.Right = buildEye(SideRight, spec.RightColor, spec, background, focal, position, profile)
	return st, nil
}

func buildEye(side Side, c color.RGBA, spec Spec, background, focal *Grid, position model.Position, profile []int) Eye {
	pc := spec.PixelCount()
	bgShift, focalShift := EyeShifts(side, spec.BackgroundOffset, spec.FocalOffset)
	cx, top := Anchor(position, pc, spec.FocalPixelCount())

	mask := NewGrid(pc)
	dots := NewGrid(pc)
	for r, w := range profile {
		y := top + r
		x0 := cx - w/2
		for x := x0; x < x0+w; x++ {
			mx := x + focalShift
			if !mask.Set(mx, y, true) {
				continue
			}
			if focal.At(x, y) {
				dots.Set(mx, y, true)
			}
		}
	}
	return Eye{
		Side:            side,
		Color:           c,
		Background:      background.Minus(mask),
		Focal:           dots,
		Mask:            mask,
		BackgroundShift: bgShift,
		FocalShift:      focalShift,
	}
}
