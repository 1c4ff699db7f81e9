// Package stimulus generates randomized stereo random-dot images and the other
// exercise stimuli, and renders them into a surface.
package stimulus

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"time"
)

// ErrInvalidSpec is returned when a stimulus cannot be generated from its parameters.
var ErrInvalidSpec = errors.New("invalid stimulus spec")

// Spec parameterizes one stereo random-dot image.
type Spec struct {
	Size             int
	PixelSize        int
	FocalSizeRatio   float64
	BackgroundOffset int
	FocalOffset      int
	Origin           image.Point
	LeftColor        color.RGBA
	RightColor       color.RGBA
	DisplayTime      time.Duration
}

// PixelCount is the number of cells along one side of the image.
func (s Spec) PixelCount() int {
	if s.PixelSize <= 0 {
		return 0
	}
	return s.Size / s.PixelSize
}

// FocalPixelCount is the number of cells along one side of the focal target.
func (s Spec) FocalPixelCount() int {
	if s.PixelSize <= 0 {
		return 0
	}
	focal := float64(s.Size) * s.FocalSizeRatio / float64(s.PixelSize)
	return int(math.Floor(focal + 1e-9))
}

// Validate rejects unusable parameters before anything is drawn.
func (s Spec) Validate() error {
	if s.PixelSize <= 0 {
		return fmt.Errorf("%w: pixel size must be > 0, got %d", ErrInvalidSpec, s.PixelSize)
	}
	if s.Size <= 0 {
		return fmt.Errorf("%w: size must be > 0, got %d", ErrInvalidSpec, s.Size)
	}
	if s.FocalSizeRatio <= 0 || s.FocalSizeRatio >= 1 {
		return fmt.Errorf("%w: focal size ratio must be in (0,1), got %g", ErrInvalidSpec, s.FocalSizeRatio)
	}
	if fpc := s.FocalPixelCount(); fpc < 2 {
		return fmt.Errorf("%w: focal target spans %d cells, need at least 2", ErrInvalidSpec, fpc)
	}
	if s.DisplayTime < 0 {
		return fmt.Errorf("%w: display time must be >= 0", ErrInvalidSpec)
	}
	return nil
}

// Centered returns a copy with its origin placed so the image is centered in a w×h area.
func (s Spec) Centered(w, h int) Spec {
	s.Origin = image.Pt((w-s.Size)/2, (h-s.Size)/2)
	return s
}
