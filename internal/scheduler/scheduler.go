// Package scheduler drives per-frame recomputation of the playback display.
package scheduler

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Scheduler keeps at most one frame registration outstanding and re-arms it
// after every frame until stopped.
type Scheduler struct {
	mu       sync.Mutex
	host     Host
	fallback Host
	render   func(now time.Time)
	logger   *slog.Logger

	cancel   CancelFunc
	gen      uint64
	active   bool
	closed   bool
	degraded bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithFallback sets the host used once the primary host reports ErrNoFrames.
func WithFallback(h Host) Option {
	return func(s *Scheduler) {
		s.fallback = h
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a stopped scheduler calling render on every frame.
func New(host Host, render func(now time.Time), opts ...Option) *Scheduler {
	s := &Scheduler{
		host:     host,
		fallback: IntervalHost{},
		render:   render,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins delivering frames. It is a no-op while running or after Close.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active || s.closed {
		return
	}
	s.active = true
	s.arm()
}

// Stop cancels the pending frame, if any. Safe to call when never started.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop()
}

// Close stops the scheduler for good. Owners defer it on teardown.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop()
	s.closed = true
}

// Degraded returns true once the scheduler has fallen back to its
// interval host.
func (s *Scheduler) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Running returns true between Start and Stop.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Scheduler) stop() {
	s.active = false
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// arm registers the next frame. Callers hold s.mu.
func (s *Scheduler) arm() {
	s.gen++
	gen := s.gen

	cancel, err := s.host.RequestFrame(func(now time.Time) { s.frame(gen, now) })
	if errors.Is(err, ErrNoFrames) && s.fallback != nil && !s.degraded {
		s.logger.Debug("frame host unavailable, using interval timer")
		s.host = s.fallback
		s.degraded = true
		cancel, err = s.host.RequestFrame(func(now time.Time) { s.frame(gen, now) })
	}
	if err != nil {
		s.logger.Warn("failed to schedule frame", "error", err)
		s.active = false
		return
	}
	s.cancel = cancel
}

func (s *Scheduler) frame(gen uint64, now time.Time) {
	s.mu.Lock()
	if !s.active || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.cancel = nil
	s.mu.Unlock()

	s.render(now)

	s.mu.Lock()
	defer s.mu.Unlock()
	// Stop, or Stop+Start, during render owns the registration now.
	if s.active && !s.closed && gen == s.gen {
		s.arm()
	}
}
