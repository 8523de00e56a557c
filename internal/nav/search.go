package nav

import (
	"strings"
	"sync"
	"time"
)

// DefaultSearchDebounce is the quiet interval before a typed query is
// dispatched.
const DefaultSearchDebounce = 250 * time.Millisecond

// Timer is the part of *time.Timer the dispatcher needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it once wrapped.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SearchDispatcher turns raw search input into search page navigations, at
// most one per quiet interval.
type SearchDispatcher struct {
	mu       sync.Mutex
	delay    time.Duration
	after    AfterFunc
	navigate func(Page)
	manager  bool

	pending Timer
	seq     uint64
}

// NewSearchDispatcher creates a dispatcher calling navigate with search
// pages. A zero delay uses DefaultSearchDebounce.
func NewSearchDispatcher(delay time.Duration, navigate func(Page)) *SearchDispatcher {
	if delay <= 0 {
		delay = DefaultSearchDebounce
	}
	return &SearchDispatcher{
		delay:    delay,
		after:    realAfterFunc,
		navigate: navigate,
	}
}

// WithAfterFunc replaces the timer factory, for tests.
func (d *SearchDispatcher) WithAfterFunc(f AfterFunc) *SearchDispatcher {
	d.after = f
	return d
}

// SetManager marks subsequent searches as library manager searches.
func (d *SearchDispatcher) SetManager(manager bool) {
	d.mu.Lock()
	d.manager = manager
	d.mu.Unlock()
}

// Input restarts the quiet interval with text. Blank input cancels any
// pending dispatch.
func (d *SearchDispatcher) Input(text string) {
	query := strings.TrimSpace(text)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.cancel()
	if query == "" {
		return
	}

	seq := d.seq
	d.pending = d.after(d.delay, func() { d.fire(seq, query) })
}

// Cancel drops any pending dispatch.
func (d *SearchDispatcher) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancel()
}

// Pending returns true while a dispatch is waiting.
func (d *SearchDispatcher) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

func (d *SearchDispatcher) cancel() {
	d.seq++
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}

func (d *SearchDispatcher) fire(seq uint64, query string) {
	d.mu.Lock()
	// A timer that lost the race with Stop must not dispatch.
	if seq != d.seq {
		d.mu.Unlock()
		return
	}
	d.pending = nil
	page := Search(query, d.manager)
	d.mu.Unlock()

	d.navigate(page)
}
