package theme

import (
	"errors"
	"image/color"
	"testing"
)

func TestParseColor(t *testing.T) {
	cases := []struct {
		raw  string
		want color.RGBA
	}{
		{"#ff0000", color.RGBA{R: 255, A: 255}},
		{"#0026e680", color.RGBA{G: 38, B: 230, A: 128}},
		{"blue", Default.Colors["blue"]},
		{"Wong:Orange", Wong.Colors["orange"]},
		{"tol:lightblack", color.RGBA{R: 26, G: 26, B: 26, A: 255}},
	}
	for _, tc := range cases {
		got, err := ParseColor(tc.raw)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("parse %q: expected %+v, got %+v", tc.raw, tc.want, got)
		}
	}
}

func TestParseColorErrors(t *testing.T) {
	for _, raw := range []string{"#12345", "#zzzzzz", "mauve", "wong:night", "acme:red"} {
		if _, err := ParseColor(raw); !errors.Is(err, ErrUnknownColor) {
			t.Fatalf("parse %q: expected ErrUnknownColor, got %v", raw, err)
		}
	}
}

func TestHexRoundTripsThroughParse(t *testing.T) {
	for _, c := range []color.RGBA{Wong.Colors["purple"], {R: 1, G: 2, B: 3, A: 4}} {
		got, err := ParseColor(Hex(c))
		if err != nil || got != c {
			t.Fatalf("hex %s: got %+v, %v", Hex(c), got, err)
		}
	}
}

func TestDefaultCalibration(t *testing.T) {
	cal := DefaultCalibration()
	if cal.Left != Default.Colors["blue"] || cal.Right != Default.Colors["red"] {
		t.Fatalf("unexpected default calibration %+v", cal)
	}
	if cal.Swap().Left != cal.Right {
		t.Fatalf("swap should exchange eyes")
	}
}
