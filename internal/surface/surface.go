// Package surface defines the drawing contract the exercises render into.
package surface

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sort"
	"sync"
)

// ErrUnknownGroup is returned when an operation names a group that does not exist.
var ErrUnknownGroup = errors.New("unknown group")

// Rect is a filled rectangle in surface pixel coordinates.
type Rect struct {
	Min    image.Point
	Max    image.Point
	Fill   color.RGBA
	Stroke color.RGBA
}

// Surface groups drawn primitives into handles that can be shown, hidden and deleted.
// Groups are created hidden.
type Surface interface {
	CreateGroup(id string) error
	DrawRect(id string, r Rect) error
	Show(id string) error
	Hide(id string) error
	Delete(id string) error
}

type group struct {
	id      string
	seq     int
	visible bool
	rects   []Rect
}

// Canvas is an in-memory Surface safe for use from timer goroutines.
type Canvas struct {
	mu     sync.RWMutex
	width  int
	height int
	seq    int
	groups map[string]*group
}

// NewCanvas returns an empty canvas of the given size.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{
		width:  width,
		height: height,
		groups: map[string]*group{},
	}
}

// Size returns the canvas dimensions.
func (c *Canvas) Size() (int, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.width, c.height
}

// Resize changes the canvas dimensions. Existing groups are kept.
func (c *Canvas) Resize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width = width
	c.height = height
}

// CreateGroup implements Surface.
func (c *Canvas) CreateGroup(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.groups[id]; ok {
		return fmt.Errorf("group %q already exists", id)
	}
	c.seq++
	c.groups[id] = &group{id: id, seq: c.seq}
	return nil
}

// DrawRect implements Surface.
func (c *Canvas) DrawRect(id string, r Rect) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.groups[id]
	if !ok {
		return fmt.Errorf("draw into %q: %w", id, ErrUnknownGroup)
	}
	g.rects = append(g.rects, r)
	return nil
}

// Show implements Surface.
func (c *Canvas) Show(id string) error {
	return c.setVisible(id, true)
}

// Hide implements Surface.
func (c *Canvas) Hide(id string) error {
	return c.setVisible(id, false)
}

func (c *Canvas) setVisible(id string, visible bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	g, ok := c.groups[id]
	if !ok {
		return fmt.Errorf("set visibility of %q: %w", id, ErrUnknownGroup)
	}
	g.visible = visible
	return nil
}

// Delete implements Surface.
func (c *Canvas) Delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.groups[id]; !ok {
		return fmt.Errorf("delete %q: %w", id, ErrUnknownGroup)
	}
	delete(c.groups, id)
	return nil
}

// Exists reports whether a group is still alive.
func (c *Canvas) Exists(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.groups[id]
	return ok
}

// Visible reports whether a group exists and is shown.
func (c *Canvas) Visible(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g, ok := c.groups[id]
	return ok && g.visible
}

// GroupCount returns the number of live groups.
func (c *Canvas) GroupCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.groups)
}

// VisibleRects returns a snapshot of the rectangles of all shown groups in creation order.
func (c *Canvas) VisibleRects() []Rect {
	c.mu.RLock()
	defer c.mu.RUnlock()
	shown := make([]*group, 0, len(c.groups))
	for _, g := range c.groups {
		if g.visible {
			shown = append(shown, g)
		}
	}
	sort.Slice(shown, func(i, j int) bool { return shown[i].seq < shown[j].seq })
	var out []Rect
	for _, g := range shown {
		out = append(out, g.rects...)
	}
	return out
}
