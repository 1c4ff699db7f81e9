package stimulus

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/verte-zerg/vizier/internal/model"
	"github.com/verte-zerg/vizier/internal/surface"
)

func baseSpec() Spec {
	return Spec{
		Size:             300,
		PixelSize:        3,
		FocalSizeRatio:   0.35,
		BackgroundOffset: 10,
		FocalOffset:      2,
		LeftColor:        color.RGBA{B: 230, A: 255},
		RightColor:       color.RGBA{R: 255, A: 255},
	}
}

func TestGenerateInvariantsAcrossSeeds(t *testing.T) {
	valid := map[model.Position]bool{}
	for _, p := range model.Positions {
		valid[p] = true
	}
	for seed := int64(1); seed <= 40; seed++ {
		st, err := NewGenerator(seed).Generate(baseSpec())
		if err != nil {
			t.Fatalf("seed %d: generate: %v", seed, err)
		}
		if !valid[st.Answer()] {
			t.Fatalf("seed %d: unexpected position %q", seed, st.Answer())
		}
		for _, eye := range st.Eyes() {
			if eye.Background.Overlaps(eye.Mask) {
				t.Fatalf("seed %d: %s background overlaps mask", seed, eye.Side)
			}
			if !eye.Focal.Subset(eye.Mask) {
				t.Fatalf("seed %d: %s focal dots outside mask", seed, eye.Side)
			}
			if eye.Background.Size() != 100 {
				t.Fatalf("seed %d: expected 100 cells per side, got %d", seed, eye.Background.Size())
			}
		}
	}
}

func TestGenerateFixedSeedScenario(t *testing.T) {
	spec := baseSpec()
	if spec.PixelCount() != 100 || spec.FocalPixelCount() != 35 {
		t.Fatalf("unexpected counts pc=%d fpc=%d", spec.PixelCount(), spec.FocalPixelCount())
	}
	a, err := NewGenerator(7).Generate(spec)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, err := NewGenerator(7).Generate(spec)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if a.Position != b.Position || a.ID() != b.ID() {
		t.Fatalf("expected reproducible output, got %s/%s and %s/%s", a.Position, a.ID(), b.Position, b.ID())
	}
	for i, eye := range a.Eyes() {
		other := b.Eyes()[i]
		if eye.Background.Count() != other.Background.Count() || eye.Focal.Count() != other.Focal.Count() {
			t.Fatalf("%s eye differs between identical seeds", eye.Side)
		}
		if eye.Mask.Count() != 612 {
			t.Fatalf("%s eye: expected 612 mask cells, got %d", eye.Side, eye.Mask.Count())
		}
	}

	p := a.Profile
	if len(p) != 36 {
		t.Fatalf("expected 36 profile rows, got %d", len(p))
	}
	for i := range p {
		if p[i] != p[len(p)-1-i] {
			t.Fatalf("profile not symmetric at row %d: %v", i, p)
		}
	}
	if p[0] != 0 || p[17] != 34 {
		t.Fatalf("unexpected profile bounds: %v", p)
	}

	if a.Left.BackgroundShift != -5 || a.Left.FocalShift != 1 {
		t.Fatalf("left shifts = %d/%d", a.Left.BackgroundShift, a.Left.FocalShift)
	}
	if a.Right.BackgroundShift != 5 || a.Right.FocalShift != -1 {
		t.Fatalf("right shifts = %d/%d", a.Right.BackgroundShift, a.Right.FocalShift)
	}
}

func TestGenerateConsecutiveCallsDiffer(t *testing.T) {
	g := NewGenerator(3)
	a, err := g.Generate(baseSpec())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, err := g.Generate(baseSpec())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if a.ID() == b.ID() {
		t.Fatalf("expected distinct ids")
	}
	if a.Left.Background.Count() == b.Left.Background.Count() && a.Left.Focal.Count() == b.Left.Focal.Count() {
		t.Fatalf("expected different random grids")
	}
}

func TestGenerateRejectsInvalidSpec(t *testing.T) {
	cases := []struct {
		name string
		edit func(*Spec)
	}{
		{"zero pixel size", func(s *Spec) { s.PixelSize = 0 }},
		{"zero ratio", func(s *Spec) { s.FocalSizeRatio = 0 }},
		{"ratio one", func(s *Spec) { s.FocalSizeRatio = 1 }},
		{"tiny focal target", func(s *Spec) { s.Size = 10 }},
		{"zero size", func(s *Spec) { s.Size = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := baseSpec()
			tc.edit(&spec)
			if _, err := NewGenerator(1).Generate(spec); !errors.Is(err, ErrInvalidSpec) {
				t.Fatalf("expected ErrInvalidSpec, got %v", err)
			}
		})
	}
}

func TestDiamondProfileSmall(t *testing.T) {
	got := DiamondProfile(5)
	want := []int{0, 2, 4, 4, 2, 0}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if DiamondProfile(1) != nil {
		t.Fatalf("expected nil profile below 2 cells")
	}
}

func TestEyeShiftsTruncate(t *testing.T) {
	bg, focal := EyeShifts(SideLeft, 5, 3)
	if bg != -2 || focal != 1 {
		t.Fatalf("left shifts = %d/%d", bg, focal)
	}
	bg, focal = EyeShifts(SideRight, 5, 3)
	if bg != 2 || focal != -1 {
		t.Fatalf("right shifts = %d/%d", bg, focal)
	}
}

func TestRenderDrawsHiddenGroup(t *testing.T) {
	spec := baseSpec()
	spec.Origin = image.Pt(10, 20)
	st, err := NewGenerator(5).Generate(spec)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	c := surface.NewCanvas(400, 400)
	if err := Render(c, st); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !c.Exists(st.ID()) || c.Visible(st.ID()) {
		t.Fatalf("expected hidden group %s", st.ID())
	}
	_ = c.Show(st.ID())
	want := 0
	for _, eye := range st.Eyes() {
		want += eye.Background.Count() + eye.Focal.Count()
	}
	rects := c.VisibleRects()
	if len(rects) != want {
		t.Fatalf("expected %d rects, got %d", want, len(rects))
	}
	first := rects[0]
	if first.Max.X-first.Min.X != 3 {
		t.Fatalf("expected 3px dots, got %+v", first)
	}
}

func TestArrowCellsRotate(t *testing.T) {
	down := ArrowCells(model.DirectionDown)
	for _, d := range model.Directions {
		if got := len(ArrowCells(d)); got != len(down) {
			t.Fatalf("%s arrow has %d cells, want %d", d, got, len(down))
		}
	}
	tip := func(cells []image.Point, match func(image.Point) bool) bool {
		for _, p := range cells {
			if match(p) {
				return true
			}
		}
		return false
	}
	if !tip(ArrowCells(model.DirectionUp), func(p image.Point) bool { return p == image.Pt(4, 0) }) {
		t.Fatalf("up arrow tip missing")
	}
	if !tip(ArrowCells(model.DirectionRight), func(p image.Point) bool { return p == image.Pt(9, 4) }) {
		t.Fatalf("right arrow tip missing")
	}
	if !tip(ArrowCells(model.DirectionLeft), func(p image.Point) bool { return p == image.Pt(0, 4) }) {
		t.Fatalf("left arrow tip missing")
	}
}

func TestSequenceMatchesAndLayout(t *testing.T) {
	seq, err := NewGenerator(11).Sequence(SequenceSpec{Count: 4, ObjectSize: 20, Center: image.Pt(100, 100)})
	if err != nil {
		t.Fatalf("sequence: %v", err)
	}
	if len(seq.Directions) != 4 || len(seq.Slots) != 4 {
		t.Fatalf("unexpected sequence %+v", seq)
	}
	if !seq.Matches(append([]model.Direction(nil), seq.Directions...)) {
		t.Fatalf("expected identical answers to match")
	}
	if seq.Matches(seq.Directions[:3]) {
		t.Fatalf("expected short answer to fail")
	}
	if seq.Slots[1].Min.X-seq.Slots[0].Min.X != 23 {
		t.Fatalf("unexpected slot stride: %v", seq.Slots)
	}
	if seq.AnswerSlot(0).Min.Y != seq.Slots[0].Max.Y {
		t.Fatalf("answer slot should sit below the arrow")
	}
	if _, err := NewGenerator(1).Sequence(SequenceSpec{Count: 0, ObjectSize: 20}); !errors.Is(err, ErrInvalidSpec) {
		t.Fatalf("expected ErrInvalidSpec, got %v", err)
	}
}

func TestDepthRowHasSingleOddPair(t *testing.T) {
	spec := DepthSpec{
		Count:        3,
		ObjectSize:   30,
		Thickness:    2,
		Center:       image.Pt(150, 100),
		MinDepth:     0,
		MaxDepth:     4,
		MinDepthDiff: 5,
		MaxDepthDiff: 15,
	}
	g := NewGenerator(9)
	for i := 0; i < 25; i++ {
		row, err := g.DepthRow(spec)
		if err != nil {
			t.Fatalf("depth row: %v", err)
		}
		base := row.Offsets[(row.Odd+1)%spec.Count]
		for j, off := range row.Offsets {
			if j == row.Odd {
				diff := off - base
				if diff < 0 {
					diff = -diff
				}
				if diff < spec.MinDepthDiff || diff >= spec.MaxDepthDiff {
					t.Fatalf("odd pair diff %d out of range", diff)
				}
				continue
			}
			if off != base {
				t.Fatalf("expected equal offsets outside the odd pair: %v", row.Offsets)
			}
		}
	}
	row, _ := g.DepthRow(spec)
	c := surface.NewCanvas(300, 200)
	if err := RenderDepthRow(c, row); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !c.Exists(row.ID()) {
		t.Fatalf("expected depth group")
	}
}

// ringSeparations measures, per pair, the right ring's leftmost x minus the left ring's.
// Rings are drawn one after another, left eye first, so each color run is one ring.
func ringSeparations(t *testing.T, row *DepthRow) []int {
	t.Helper()
	c := surface.NewCanvas(400, 200)
	if err := RenderDepthRow(c, row); err != nil {
		t.Fatalf("render: %v", err)
	}
	if err := c.Show(row.ID()); err != nil {
		t.Fatalf("show: %v", err)
	}
	var ringMin []int
	var last color.RGBA
	for i, r := range c.VisibleRects() {
		if i == 0 || r.Fill != last {
			ringMin = append(ringMin, r.Min.X)
			last = r.Fill
			continue
		}
		ringMin[len(ringMin)-1] = min(ringMin[len(ringMin)-1], r.Min.X)
	}
	if len(ringMin) != 2*len(row.Slots) {
		t.Fatalf("expected %d rings, got %d", 2*len(row.Slots), len(ringMin))
	}
	out := make([]int, len(row.Slots))
	for i := range out {
		out[i] = ringMin[2*i+1] - ringMin[2*i]
	}
	return out
}

func TestDepthRowRendersExactDisparity(t *testing.T) {
	left := color.RGBA{B: 255, A: 255}
	right := color.RGBA{R: 255, A: 255}
	spec := DepthSpec{
		Count:        3,
		ObjectSize:   30,
		Thickness:    1,
		Center:       image.Pt(200, 100),
		MinDepth:     0,
		MaxDepth:     6,
		MinDepthDiff: 1,
		MaxDepthDiff: 2,
		LeftColor:    left,
		RightColor:   right,
	}
	g := NewGenerator(11)
	for i := 0; i < 100; i++ {
		row, err := g.DepthRow(spec)
		if err != nil {
			t.Fatalf("depth row: %v", err)
		}
		seps := ringSeparations(t, row)
		for j, sep := range seps {
			if sep != row.Offsets[j] {
				t.Fatalf("row %d slot %d: rendered separation %d, offset %d", i, j, sep, row.Offsets[j])
			}
		}
		other := seps[(row.Odd+1)%spec.Count]
		if seps[row.Odd] == other {
			t.Fatalf("row %d: odd pair rendered like the others: %v", i, seps)
		}
	}
}
