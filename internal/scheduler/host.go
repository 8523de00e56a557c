package scheduler

import (
	"errors"
	"sync"
	"time"

	"github.com/tessro/encore/internal/clock"
)

// ErrNoFrames is returned by a Host that cannot deliver frame callbacks,
// for example when the display is detached.
var ErrNoFrames = errors.New("frame callbacks unavailable")

// CancelFunc cancels a pending frame registration. Calling it after the
// frame fired, or more than once, is harmless.
type CancelFunc func()

// Host delivers one-shot frame callbacks. RequestFrame must not invoke fn
// synchronously.
type Host interface {
	RequestFrame(fn func(now time.Time)) (CancelFunc, error)
}

// DefaultInterval is the frame period of an IntervalHost with no interval set.
const DefaultInterval = 50 * time.Millisecond

// IntervalHost delivers frames from a fixed-interval timer. It is the
// fallback when a Host reports ErrNoFrames.
type IntervalHost struct {
	Interval time.Duration
	Clock    clock.Clock
}

// RequestFrame arms a timer that fires once after the interval.
func (h IntervalHost) RequestFrame(fn func(now time.Time)) (CancelFunc, error) {
	interval := h.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	c := h.Clock
	if c == nil {
		c = clock.Real{}
	}
	t := time.AfterFunc(interval, func() { fn(c.Now()) })
	return func() { t.Stop() }, nil
}

// ManualHost is a virtual frame pump. Frames only fire when Fire is called.
type ManualHost struct {
	mu          sync.Mutex
	nextID      int
	pending     map[int]func(time.Time)
	unavailable bool
	requests    int
}

// NewManualHost creates a ManualHost.
func NewManualHost() *ManualHost {
	return &ManualHost{pending: make(map[int]func(time.Time))}
}

// SetUnavailable makes subsequent RequestFrame calls fail with ErrNoFrames.
func (h *ManualHost) SetUnavailable(unavailable bool) {
	h.mu.Lock()
	h.unavailable = unavailable
	h.mu.Unlock()
}

// RequestFrame records fn until the next Fire.
func (h *ManualHost) RequestFrame(fn func(now time.Time)) (CancelFunc, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.unavailable {
		return nil, ErrNoFrames
	}
	h.requests++
	id := h.nextID
	h.nextID++
	h.pending[id] = fn
	return func() {
		h.mu.Lock()
		delete(h.pending, id)
		h.mu.Unlock()
	}, nil
}

// Pending returns the number of outstanding registrations.
func (h *ManualHost) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending)
}

// Requests returns how many registrations were ever made.
func (h *ManualHost) Requests() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.requests
}

// Fire runs every outstanding callback with now and returns how many ran.
// Callbacks registered while firing wait for the next call.
func (h *ManualHost) Fire(now time.Time) int {
	h.mu.Lock()
	fns := make([]func(time.Time), 0, len(h.pending))
	for id, fn := range h.pending {
		fns = append(fns, fn)
		delete(h.pending, id)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(now)
	}
	return len(fns)
}
