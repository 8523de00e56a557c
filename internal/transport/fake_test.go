package transport

import (
	"context"
	"sync"
	"time"

	"github.com/tessro/encore/internal/clock"
	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/scheduler"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeAuthority records calls and answers from canned replies.
type fakeAuthority struct {
	mu    sync.Mutex
	calls []string

	current  core.Snapshot
	play     func(id string) core.Snapshot
	next     core.Snapshot
	previous core.Snapshot
	volume   func(v float64) float64
	shuffle  bool
	repeat   core.RepeatMode
	err      error
	seekErr  error
	seeks    []int64
	paused   []bool
}

func (f *fakeAuthority) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeAuthority) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAuthority) CurrentSong(context.Context) (core.Snapshot, error) {
	f.record("currentSong")
	return f.current, f.err
}

func (f *fakeAuthority) Library(context.Context) (*core.Library, error) {
	f.record("library")
	return &core.Library{}, f.err
}

func (f *fakeAuthority) Search(context.Context, string, core.SearchMode) (core.SearchResults, error) {
	f.record("search")
	return core.SearchResults{}, f.err
}

func (f *fakeAuthority) PlaySong(_ context.Context, id string, _ core.PlayerScope) (core.Snapshot, error) {
	f.record("playSong:" + id)
	if f.err != nil {
		return core.Snapshot{}, f.err
	}
	return f.play(id), nil
}

func (f *fakeAuthority) SetPaused(_ context.Context, paused bool) error {
	f.record("setPaused")
	f.mu.Lock()
	f.paused = append(f.paused, paused)
	f.mu.Unlock()
	return f.err
}

func (f *fakeAuthority) Seek(_ context.Context, ms int64) error {
	f.record("seek")
	f.mu.Lock()
	f.seeks = append(f.seeks, ms)
	f.mu.Unlock()
	if f.seekErr != nil {
		return f.seekErr
	}
	return f.err
}

func (f *fakeAuthority) NextSong(context.Context) (core.Snapshot, error) {
	f.record("nextSong")
	return f.next, f.err
}

func (f *fakeAuthority) PreviousSong(context.Context) (core.Snapshot, error) {
	f.record("previousSong")
	return f.previous, f.err
}

func (f *fakeAuthority) SetVolume(_ context.Context, v float64) (float64, error) {
	f.record("setVolume")
	if f.volume != nil {
		return f.volume(v), f.err
	}
	return v, f.err
}

func (f *fakeAuthority) ToggleShuffle(context.Context) (bool, error) {
	f.record("toggleShuffle")
	return f.shuffle, f.err
}

func (f *fakeAuthority) ToggleRepeat(context.Context) (core.RepeatMode, error) {
	f.record("toggleRepeat")
	return f.repeat, f.err
}

func (f *fakeAuthority) SubscribeCurrentSong(context.Context) (core.Subscription, error) {
	f.record("subscribe")
	return nil, f.err
}

// queue is a Runner that holds calls until flushed, so tests control the
// order replies arrive in.
type queue struct {
	mu    sync.Mutex
	calls []func()
}

func (q *queue) run(f func()) {
	q.mu.Lock()
	q.calls = append(q.calls, f)
	q.mu.Unlock()
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.calls)
}

// runAt runs the i-th held call.
func (q *queue) runAt(i int) {
	q.mu.Lock()
	f := q.calls[i]
	q.mu.Unlock()
	f()
}

func (q *queue) flush() {
	q.mu.Lock()
	calls := q.calls
	q.calls = nil
	q.mu.Unlock()
	for _, f := range calls {
		f()
	}
}

func inline(f func()) { f() }

type harness struct {
	ctl   *Controller
	auth  *fakeAuthority
	clock *clock.Fake
	host  *scheduler.ManualHost
	lib   *core.Library
}

func newHarness(runner Runner) *harness {
	h := &harness{
		auth: &fakeAuthority{
			play: func(id string) core.Snapshot {
				return core.Snapshot{TrackID: id, StartedAt: t0, Volume: 1}
			},
		},
		clock: clock.NewFake(t0),
		host:  scheduler.NewManualHost(),
		lib: &core.Library{
			Songs: map[string]core.Song{
				"t1": {Title: "One", Duration: 3 * time.Minute},
				"t2": {Title: "Two", Duration: 4 * time.Minute},
			},
		},
	}
	h.ctl = New(Config{
		Authority: h.auth,
		Catalog:   h.lib,
		Clock:     h.clock,
		Host:      h.host,
		Fallback:  scheduler.NewManualHost(),
		Runner:    runner,
	})
	return h
}
