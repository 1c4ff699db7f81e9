// Package session runs the adaptive staircase of one exercise launch.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/verte-zerg/vizier/internal/logging"
	"github.com/verte-zerg/vizier/internal/model"
)

var (
	// ErrSessionInactive is returned by Record once the session has ended.
	ErrSessionInactive = errors.New("session is not active")
	// ErrInvalidConfig is returned by New for unusable staircase parameters.
	ErrInvalidConfig = errors.New("invalid session config")
)

// Reason explains why a session ended.
type Reason string

// End reasons.
const (
	ReasonTrialLimit Reason = "trial-limit"
	ReasonTimeout    Reason = "timeout"
	ReasonClosed     Reason = "closed"
	ReasonAborted    Reason = "aborted"
)

// EventKind distinguishes session events.
type EventKind int

// Session events.
const (
	EventTick EventKind = iota
	EventEnded
)

// Event is posted by the session to its notifier.
type Event struct {
	Kind      EventKind
	Remaining time.Duration
	Reason    Reason
}

type options struct {
	now    func() time.Time
	tick   time.Duration
	notify func(Event)
	onEnd  func(Reason, []model.Result)
	log    *logging.Logger
}

// Option configures a Session.
type Option func(*options)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithTickInterval sets the countdown resolution. Default is one second.
func WithTickInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.tick = d
		}
	}
}

// WithNotifier receives tick and end events. It may be called from the countdown goroutine.
func WithNotifier(fn func(Event)) Option {
	return func(o *options) {
		o.notify = fn
	}
}

// WithEndHook runs once when the session ends, with a copy of the results.
func WithEndHook(fn func(Reason, []model.Result)) Option {
	return func(o *options) {
		o.onEnd = fn
	}
}

// WithLogger sets the session logger.
func WithLogger(log *logging.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// Session is a staircase controller over a bounded series of trials.
type Session struct {
	cfg  model.SessionConfig
	opts options

	mu            sync.Mutex
	param         int
	successes     int
	failures      int
	trials        int
	started       time.Time
	lastTrial     time.Time
	results       []model.Result
	active        bool
	reason        Reason
	stopCountdown chan struct{}

	endOnce sync.Once
	done    chan struct{}
}

// Validate checks the staircase parameters.
func Validate(cfg model.SessionConfig) error {
	switch {
	case cfg.SuccessThreshold < 1:
		return fmt.Errorf("%w: success threshold must be >= 1, got %d", ErrInvalidConfig, cfg.SuccessThreshold)
	case cfg.FailThreshold < 1:
		return fmt.Errorf("%w: fail threshold must be >= 1, got %d", ErrInvalidConfig, cfg.FailThreshold)
	case cfg.TrialLimit < 1:
		return fmt.Errorf("%w: trial limit must be >= 1, got %d", ErrInvalidConfig, cfg.TrialLimit)
	case cfg.Duration <= 0:
		return fmt.Errorf("%w: duration must be > 0, got %s", ErrInvalidConfig, cfg.Duration)
	}
	return nil
}

// New returns an inactive session. Call Start to begin the countdown.
func New(cfg model.SessionConfig, opts ...Option) (*Session, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	o := options{now: time.Now, tick: time.Second, log: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Session{
		cfg:   cfg,
		opts:  o,
		param: cfg.PrimaryParamInit,
		done:  make(chan struct{}),
	}, nil
}

// Start activates the session and launches the countdown. Calling it twice is a no-op.
func (s *Session) Start() {
	s.mu.Lock()
	if s.active || s.reason != "" {
		s.mu.Unlock()
		return
	}
	s.active = true
	s.started = s.opts.now()
	s.stopCountdown = make(chan struct{})
	stop := s.stopCountdown
	s.mu.Unlock()

	s.opts.log.Debug("session started",
		"trial_limit", s.cfg.TrialLimit, "duration", s.cfg.Duration, "param", s.cfg.PrimaryParamInit)
	go s.countdown(stop)
}

func (s *Session) countdown(stop <-chan struct{}) {
	ticker := time.NewTicker(s.opts.tick)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			remaining := s.RemainingTime()
			if remaining <= 0 {
				s.End(ReasonTimeout)
				return
			}
			s.post(Event{Kind: EventTick, Remaining: remaining})
		}
	}
}

// Record judges one trial and adjusts the primary parameter.
func (s *Session) Record(correct bool) (model.Result, error) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return model.Result{}, ErrSessionInactive
	}
	now := s.opts.now()
	var delta time.Duration
	if s.trials > 0 {
		delta = now.Sub(s.lastTrial)
	}
	s.trials++
	s.lastTrial = now
	result := model.Result{
		Trial:        s.trials,
		PrimaryParam: s.param,
		Correct:      correct,
		Time:         now,
		Delta:        delta,
	}
	s.results = append(s.results, result)

	if correct {
		s.successes++
		s.failures = 0
		if s.successes >= s.cfg.SuccessThreshold {
			s.param += s.cfg.Step
			s.successes = 0
			s.failures = 0
		}
	} else {
		s.failures++
		s.successes = 0
		if s.failures >= s.cfg.FailThreshold {
			s.param = s.cfg.PrimaryParamInit
			s.failures = 0
		}
	}
	limitReached := s.trials >= s.cfg.TrialLimit
	s.mu.Unlock()

	if limitReached {
		s.End(ReasonTrialLimit)
	}
	return result, nil
}

// End stops the session. Only the first call has any effect; it reports whether it did.
func (s *Session) End(reason Reason) bool {
	ended := false
	s.endOnce.Do(func() {
		ended = true
		s.mu.Lock()
		s.active = false
		s.reason = reason
		if s.stopCountdown != nil {
			close(s.stopCountdown)
		}
		results := append([]model.Result(nil), s.results...)
		s.mu.Unlock()

		s.opts.log.Info("session ended", "reason", string(reason), "trials", len(results))
		if s.opts.onEnd != nil {
			s.opts.onEnd(reason, results)
		}
		s.post(Event{Kind: EventEnded, Reason: reason})
		close(s.done)
	})
	return ended
}

func (s *Session) post(e Event) {
	if s.opts.notify != nil {
		s.opts.notify(e)
	}
}

// PrimaryParam returns the current difficulty parameter.
func (s *Session) PrimaryParam() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.param
}

// RemainingTime returns the time left before timeout, never negative.
func (s *Session) RemainingTime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started.IsZero() {
		return s.cfg.Duration
	}
	if !s.active {
		return 0
	}
	left := s.cfg.Duration - s.opts.now().Sub(s.started)
	if left < 0 {
		return 0
	}
	return left
}

// IsActive reports whether trials are still accepted.
func (s *Session) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Results returns a copy of the recorded trials.
func (s *Session) Results() []model.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Result(nil), s.results...)
}

// Trials returns the number of recorded trials.
func (s *Session) Trials() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trials
}

// Config returns the staircase parameters.
func (s *Session) Config() model.SessionConfig {
	return s.cfg
}

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Reason returns why the session ended, or "" while it is running.
func (s *Session) Reason() Reason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}
