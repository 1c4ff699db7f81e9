// Package profile resolves the active patient profile passed to the UI.
package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/verte-zerg/vizier/internal/model"
	"github.com/verte-zerg/vizier/internal/theme"
)

// ErrNoUser is returned when no user is named and none is remembered.
var ErrNoUser = errors.New("no active user; create one with 'vizier users add'")

// Store is the subset of the profile store needed here.
type Store interface {
	UserByUsername(ctx context.Context, username string) (model.User, error)
	ActiveUser(ctx context.Context) (string, error)
	Calibration(ctx context.Context, userID int64) (model.Calibration, bool, error)
	SaveCalibration(ctx context.Context, userID int64, cal model.Calibration) error
}

// Context is the active user and the eye colors used for drawing.
type Context struct {
	User        model.User
	Calibration model.Calibration
	// Calibrated is false when the default colors are in use.
	Calibrated bool
}

// Overrides are per-launch color overrides from the config file.
type Overrides struct {
	Left  *string
	Right *string
}

// Activate loads the named user, or the remembered one when username is empty.
func Activate(ctx context.Context, s Store, username string) (Context, error) {
	if username == "" {
		remembered, err := s.ActiveUser(ctx)
		if err != nil {
			return Context{}, fmt.Errorf("read active user: %w", err)
		}
		username = remembered
	}
	if username == "" {
		return Context{}, ErrNoUser
	}
	u, err := s.UserByUsername(ctx, username)
	if err != nil {
		return Context{}, err
	}
	cal, ok, err := s.Calibration(ctx, u.ID)
	if err != nil {
		return Context{}, fmt.Errorf("load calibration: %w", err)
	}
	if !ok {
		cal = theme.DefaultCalibration()
	}
	return Context{User: u, Calibration: cal, Calibrated: ok}, nil
}

// WithOverrides applies config color overrides without touching the stored calibration.
func (c Context) WithOverrides(o Overrides) (Context, error) {
	if o.Left != nil {
		col, err := theme.ParseColor(*o.Left)
		if err != nil {
			return c, fmt.Errorf("colors.left: %w", err)
		}
		c.Calibration.Left = col
	}
	if o.Right != nil {
		col, err := theme.ParseColor(*o.Right)
		if err != nil {
			return c, fmt.Errorf("colors.right: %w", err)
		}
		c.Calibration.Right = col
	}
	return c, nil
}

// Calibrate stores new eye colors for the active user.
func (c Context) Calibrate(ctx context.Context, s Store, cal model.Calibration) (Context, error) {
	if err := s.SaveCalibration(ctx, c.User.ID, cal); err != nil {
		return c, fmt.Errorf("save calibration: %w", err)
	}
	c.Calibration = cal
	c.Calibrated = true
	return c, nil
}
