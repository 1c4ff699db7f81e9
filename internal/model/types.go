// Package model defines shared data structures.
package model

import (
	"fmt"
	"image/color"
	"time"
)

// Position is the quadrant holding the hidden focal target.
type Position string

// Focal target positions.
const (
	PositionTop    Position = "top"
	PositionBottom Position = "bottom"
	PositionLeft   Position = "left"
	PositionRight  Position = "right"
)

// Positions lists all focal positions in a stable order.
var Positions = []Position{PositionTop, PositionBottom, PositionLeft, PositionRight}

// Direction is a decoded arrow key.
type Direction string

// Arrow directions.
const (
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// Directions lists all arrow directions in a stable order.
var Directions = []Direction{DirectionUp, DirectionDown, DirectionLeft, DirectionRight}

// PositionFor maps an arrow direction to the focal position it declares.
func PositionFor(d Direction) (Position, bool) {
	switch d {
	case DirectionUp:
		return PositionTop, true
	case DirectionDown:
		return PositionBottom, true
	case DirectionLeft:
		return PositionLeft, true
	case DirectionRight:
		return PositionRight, true
	default:
		return "", false
	}
}

// SessionConfig defines the staircase parameters of one exercise launch.
type SessionConfig struct {
	PrimaryParamInit int
	Step             int
	SuccessThreshold int
	FailThreshold    int
	TrialLimit       int
	Duration         time.Duration
}

// DefaultSessionConfig mirrors the catalog defaults for a session without overrides.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		PrimaryParamInit: 0,
		Step:             1,
		SuccessThreshold: 2,
		FailThreshold:    2,
		TrialLimit:       50,
		Duration:         120 * time.Second,
	}
}

// Result is one judged trial. Results are never mutated after being recorded.
type Result struct {
	Trial        int
	PrimaryParam int
	Correct      bool
	Time         time.Time
	Delta        time.Duration
}

// Calibration stores the per-eye colors of a user's anaglyph glasses.
type Calibration struct {
	Left  color.RGBA
	Right color.RGBA
}

// Swap returns the calibration with the eyes exchanged.
func (c Calibration) Swap() Calibration {
	return Calibration{Left: c.Right, Right: c.Left}
}

// User is a stored patient profile.
type User struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// DisplayName formats the user for menus.
func (u User) DisplayName() string {
	return fmt.Sprintf("%s %s (%s)", u.FirstName, u.LastName, u.Username)
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	UserID      int64
	Exercise    string
	Since       *time.Time
	Last        int
	CurveWindow int
}

// SessionAggregate summarizes a stored session for reporting.
type SessionAggregate struct {
	SessionID  string
	UserID     int64
	Exercise   string
	Difficulty string
	StartedAt  time.Time
	EndedAt    time.Time
	Trials     int
	Correct    int
	Incorrect  int
	MaxParam   int
	DeltaSumMs int64
	DeltaCount int64
}
