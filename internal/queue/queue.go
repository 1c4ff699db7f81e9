// Package queue keeps at most one drawn item visible at a time and hides it when its
// display time runs out.
package queue

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/verte-zerg/vizier/internal/surface"
)

var (
	// ErrEmptyQueue is returned by Advance when nothing is pending.
	ErrEmptyQueue = errors.New("queue is empty")
	// ErrClosed is returned when enqueuing into a closed queue.
	ErrClosed = errors.New("queue is closed")
)

// Item is a drawn surface group waiting to be shown.
type Item interface {
	ID() string
	DisplayTime() time.Duration
}

// Timer is the part of *time.Timer the queue needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules fn after d.
type AfterFunc func(d time.Duration, fn func()) Timer

// Expiry reports the outcome of an auto-hide. Stale is set when the item was no
// longer current and nothing was hidden.
type Expiry struct {
	ID    string
	Stale bool
}

type options struct {
	afterFunc AfterFunc
	notify    func(Expiry)
}

// Option configures a Queue.
type Option func(*options)

// WithAfterFunc replaces time.AfterFunc, mainly for tests.
func WithAfterFunc(fn AfterFunc) Option {
	return func(o *options) {
		o.afterFunc = fn
	}
}

// WithNotifier receives every auto-hide outcome. It is called without the queue lock held.
func WithNotifier(fn func(Expiry)) Option {
	return func(o *options) {
		o.notify = fn
	}
}

// Queue is a FIFO of drawn items with one current item.
type Queue[T Item] struct {
	mu         sync.Mutex
	surface    surface.Surface
	pending    []T
	current    T
	hasCurrent bool
	timer      Timer
	closed     bool
	opts       options
}

// New returns an empty queue drawing into s.
func New[T Item](s surface.Surface, opts ...Option) *Queue[T] {
	o := options{
		afterFunc: func(d time.Duration, fn func()) Timer {
			return time.AfterFunc(d, fn)
		},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Queue[T]{surface: s, opts: o}
}

// Enqueue appends an already drawn, hidden item.
func (q *Queue[T]) Enqueue(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	q.pending = append(q.pending, item)
	return nil
}

// Len returns the number of pending items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Current returns the visible item, if any.
func (q *Queue[T]) Current() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current, q.hasCurrent
}

// Advance shows the oldest pending item, then deletes the previously current one.
func (q *Queue[T]) Advance() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if len(q.pending) == 0 {
		return zero, ErrEmptyQueue
	}
	next := q.pending[0]
	q.pending = q.pending[1:]
	if err := q.surface.Show(next.ID()); err != nil {
		showErr := fmt.Errorf("show %s: %w", next.ID(), err)
		return zero, errors.Join(showErr, q.deleteLocked(next.ID()))
	}

	prev, hadPrev := q.current, q.hasCurrent
	q.stopTimerLocked()
	q.current = next
	q.hasCurrent = true
	if hadPrev && prev.ID() != next.ID() {
		if err := q.deleteLocked(prev.ID()); err != nil {
			return next, err
		}
	}

	if d := next.DisplayTime(); d > 0 {
		id := next.ID()
		q.timer = q.opts.afterFunc(d, func() {
			q.Expire(id)
		})
	}
	return next, nil
}

// Expire hides the item with the given id if it is still current. It returns false
// for a stale auto-hide, including one whose group was already deleted.
func (q *Queue[T]) Expire(id string) bool {
	hidden := q.expire(id)
	if q.opts.notify != nil {
		q.opts.notify(Expiry{ID: id, Stale: !hidden})
	}
	return hidden
}

func (q *Queue[T]) expire(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.hasCurrent || q.current.ID() != id {
		return false
	}
	q.timer = nil
	if err := q.surface.Hide(id); err != nil {
		return false
	}
	return true
}

// Remove deletes the current item without showing a successor.
func (q *Queue[T]) Remove() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.hasCurrent {
		return nil
	}
	q.stopTimerLocked()
	id := q.current.ID()
	var zero T
	q.current = zero
	q.hasCurrent = false
	return q.deleteLocked(id)
}

// Close cancels the pending hide timer and deletes the current and pending groups.
func (q *Queue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	q.stopTimerLocked()
	var errs []error
	if q.hasCurrent {
		errs = append(errs, q.deleteLocked(q.current.ID()))
		var zero T
		q.current = zero
		q.hasCurrent = false
	}
	for _, item := range q.pending {
		errs = append(errs, q.deleteLocked(item.ID()))
	}
	q.pending = nil
	return errors.Join(errs...)
}

func (q *Queue[T]) stopTimerLocked() {
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
}

func (q *Queue[T]) deleteLocked(id string) error {
	err := q.surface.Delete(id)
	if err == nil || errors.Is(err, surface.ErrUnknownGroup) {
		return nil
	}
	return fmt.Errorf("delete %s: %w", id, err)
}
