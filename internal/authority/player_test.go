package authority

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tessro/encore/internal/clock"
	"github.com/tessro/encore/internal/core"
	encerrors "github.com/tessro/encore/internal/errors"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

const testLibrary = `
[artists.a1]
name = "Alpha"

[artists.a2]
name = "Beta"

[albums.x]
name = "First"
artist = "a1"

[albums.y]
name = "Second"
artist = "a2"

[songs.s1]
title = "A"
album = "x"
duration = 180000

[songs.s2]
title = "B"
album = "x"
duration = 200000

[songs.s3]
title = "C"
album = "x"
duration = 150000

[songs.s4]
title = "D"
album = "y"
duration = 240000
`

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fixture struct {
	p      *Player
	clock  *clock.Fake
	timers []*fakeTimer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	lib, err := DecodeLibrary(testLibrary)
	if err != nil {
		t.Fatalf("DecodeLibrary() error = %v", err)
	}
	f := &fixture{clock: clock.NewFake(t0)}
	f.p = New(lib,
		WithClock(f.clock),
		WithShuffle(func(ids []string) {
			for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
				ids[i], ids[j] = ids[j], ids[i]
			}
		}),
		WithAfterFunc(func(d time.Duration, fn func()) Timer {
			timer := &fakeTimer{d: d, f: fn}
			f.timers = append(f.timers, timer)
			return timer
		}),
	)
	t.Cleanup(func() { _ = f.p.Close() })
	return f
}

func (f *fixture) activeTimer() *fakeTimer {
	for i := len(f.timers) - 1; i >= 0; i-- {
		if !f.timers[i].stopped {
			return f.timers[i]
		}
	}
	return nil
}

func TestPlaySong(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snap, err := f.p.PlaySong(ctx, "s2", core.LibraryScope())
	if err != nil {
		t.Fatalf("PlaySong() error = %v", err)
	}
	if snap.TrackID != "s2" {
		t.Errorf("TrackID = %q, want s2", snap.TrackID)
	}
	if !snap.StartedAt.Equal(t0) {
		t.Errorf("StartedAt = %v, want %v", snap.StartedAt, t0)
	}
	if snap.IsPaused() {
		t.Error("new song should not be paused")
	}

	want := []string{"s3", "s4", "s1"}
	got := f.p.Queue()
	if len(got) != len(want) {
		t.Fatalf("Queue() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Queue()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPlaySongErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.p.PlaySong(ctx, "missing", core.LibraryScope()); !errors.Is(err, encerrors.ErrTrackNotFound) {
		t.Errorf("PlaySong(missing) error = %v, want ErrTrackNotFound", err)
	}
	if _, err := f.p.PlaySong(ctx, "s4", core.AlbumScope("x")); !errors.Is(err, encerrors.ErrRejected) {
		t.Errorf("PlaySong(out of scope) error = %v, want ErrRejected", err)
	}
}

func TestAlbumScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.p.PlaySong(ctx, "s1", core.AlbumScope("x")); err != nil {
		t.Fatalf("PlaySong() error = %v", err)
	}
	got := f.p.Queue()
	if len(got) != 2 || got[0] != "s2" || got[1] != "s3" {
		t.Errorf("Queue() = %v, want [s2 s3]", got)
	}
}

func TestArtistScope(t *testing.T) {
	f := newFixture(t)
	if _, err := f.p.PlaySong(context.Background(), "s4", core.ArtistScope("a2")); err != nil {
		t.Fatalf("PlaySong() error = %v", err)
	}
	if got := f.p.Queue(); len(got) != 0 {
		t.Errorf("Queue() = %v, want empty", got)
	}
}

func TestNextSong(t *testing.T) {
	tests := []struct {
		name   string
		repeat core.RepeatMode
		start  string
		want   string
	}{
		{"automatic queue", core.RepeatNone, "s1", "s2"},
		{"end stops", core.RepeatNone, "s3", ""},
		{"repeat all wraps", core.RepeatAll, "s3", "s1"},
		{"repeat one replays", core.RepeatOne, "s3", "s3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			for f.p.snap.Repeat != tt.repeat {
				if _, err := f.p.ToggleRepeat(ctx); err != nil {
					t.Fatal(err)
				}
			}
			if _, err := f.p.PlaySong(ctx, tt.start, core.AlbumScope("x")); err != nil {
				t.Fatal(err)
			}
			// Drain the automatic queue so repeat decides.
			if tt.start == "s3" && len(f.p.Queue()) > 0 {
				f.p.automatic = nil
			}

			f.clock.Advance(10 * time.Second)
			snap, err := f.p.NextSong(ctx)
			if err != nil {
				t.Fatalf("NextSong() error = %v", err)
			}
			if snap.TrackID != tt.want {
				t.Errorf("TrackID = %q, want %q", snap.TrackID, tt.want)
			}
			if snap.HasTrack() && !snap.StartedAt.Equal(t0.Add(10*time.Second)) {
				t.Errorf("StartedAt = %v, want %v", snap.StartedAt, t0.Add(10*time.Second))
			}
		})
	}
}

func TestUserQueuePlaysFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.p.PlaySong(ctx, "s1", core.LibraryScope()); err != nil {
		t.Fatal(err)
	}
	if err := f.p.Enqueue("s4"); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if err := f.p.Enqueue("nope"); !errors.Is(err, encerrors.ErrTrackNotFound) {
		t.Errorf("Enqueue(nope) error = %v, want ErrTrackNotFound", err)
	}
	snap, _ := f.p.NextSong(ctx)
	if snap.TrackID != "s4" {
		t.Errorf("TrackID = %q, want s4", snap.TrackID)
	}
}

func TestNextSongIdle(t *testing.T) {
	f := newFixture(t)
	snap, err := f.p.NextSong(context.Background())
	if err != nil {
		t.Fatalf("NextSong() error = %v", err)
	}
	if snap.HasTrack() {
		t.Errorf("TrackID = %q, want none", snap.TrackID)
	}
}

func TestPreviousSong(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.p.PlaySong(ctx, "s1", core.LibraryScope()); err != nil {
		t.Fatal(err)
	}
	if _, err := f.p.NextSong(ctx); err != nil {
		t.Fatal(err)
	}

	// Early in the song: go back.
	f.clock.Advance(2 * time.Second)
	snap, err := f.p.PreviousSong(ctx)
	if err != nil {
		t.Fatalf("PreviousSong() error = %v", err)
	}
	if snap.TrackID != "s1" {
		t.Errorf("TrackID = %q, want s1", snap.TrackID)
	}
	if q := f.p.Queue(); len(q) == 0 || q[0] != "s2" {
		t.Errorf("Queue() = %v, want s2 first", q)
	}

	// Late in the song: restart.
	f.clock.Advance(30 * time.Second)
	snap, _ = f.p.PreviousSong(ctx)
	if snap.TrackID != "s1" {
		t.Errorf("TrackID = %q, want s1", snap.TrackID)
	}
	if !snap.StartedAt.Equal(f.clock.Now()) {
		t.Errorf("StartedAt = %v, want %v", snap.StartedAt, f.clock.Now())
	}

	// No history: stop.
	snap, _ = f.p.PreviousSong(ctx)
	if snap.HasTrack() {
		t.Errorf("TrackID = %q, want none", snap.TrackID)
	}
}

func TestHistoryCapped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for range 2 {
		if _, err := f.p.ToggleRepeat(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if f.p.snap.Repeat != core.RepeatOne {
		t.Fatalf("Repeat = %v, want One", f.p.snap.Repeat)
	}
	if _, err := f.p.PlaySong(ctx, "s4", core.ArtistScope("a2")); err != nil {
		t.Fatal(err)
	}
	for range 30 {
		if _, err := f.p.NextSong(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if len(f.p.previous) != historySize {
		t.Errorf("len(previous) = %d, want %d", len(f.p.previous), historySize)
	}
}

func TestSetPaused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.p.SetPaused(ctx, true); !errors.Is(err, encerrors.ErrNothingPlaying) {
		t.Errorf("SetPaused() idle error = %v, want ErrNothingPlaying", err)
	}
	if _, err := f.p.PlaySong(ctx, "s1", core.LibraryScope()); err != nil {
		t.Fatal(err)
	}

	f.clock.Advance(10 * time.Second)
	if err := f.p.SetPaused(ctx, true); err != nil {
		t.Fatalf("SetPaused(true) error = %v", err)
	}
	if f.activeTimer() != nil {
		t.Error("end timer should be stopped while paused")
	}
	f.clock.Advance(time.Minute)
	if err := f.p.SetPaused(ctx, true); err != nil {
		t.Fatalf("SetPaused(true) again error = %v", err)
	}
	if err := f.p.SetPaused(ctx, false); err != nil {
		t.Fatalf("SetPaused(false) error = %v", err)
	}

	snap, _ := f.p.CurrentSong(ctx)
	if got := f.clock.Now().Sub(snap.StartedAt); got != 10*time.Second {
		t.Errorf("elapsed after resume = %v, want 10s", got)
	}
	timer := f.activeTimer()
	if timer == nil || timer.d != 170*time.Second {
		t.Errorf("end timer = %+v, want 170s", timer)
	}
}

func TestSeek(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.p.Seek(ctx, 0); !errors.Is(err, encerrors.ErrNothingPlaying) {
		t.Errorf("Seek() idle error = %v, want ErrNothingPlaying", err)
	}
	if _, err := f.p.PlaySong(ctx, "s1", core.LibraryScope()); err != nil {
		t.Fatal(err)
	}
	if err := f.p.Seek(ctx, 60_000); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	snap, _ := f.p.CurrentSong(ctx)
	if want := t0.Add(-time.Minute); !snap.StartedAt.Equal(want) {
		t.Errorf("StartedAt = %v, want %v", snap.StartedAt, want)
	}

	if err := f.p.Seek(ctx, -1); !errors.Is(err, encerrors.ErrRejected) {
		t.Errorf("Seek(-1) error = %v, want ErrRejected", err)
	}
	if err := f.p.Seek(ctx, 181_000); !errors.Is(err, encerrors.ErrRejected) {
		t.Errorf("Seek(past end) error = %v, want ErrRejected", err)
	}

	// Seeking while paused keeps the song paused at the new position.
	if err := f.p.SetPaused(ctx, true); err != nil {
		t.Fatal(err)
	}
	if err := f.p.Seek(ctx, 5_000); err != nil {
		t.Fatal(err)
	}
	snap, _ = f.p.CurrentSong(ctx)
	if got := snap.PausedAt.Sub(snap.StartedAt); got != 5*time.Second {
		t.Errorf("paused position = %v, want 5s", got)
	}
}

func TestSetVolume(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.5, 0.5},
		{-1, 0},
		{2, 1},
	}
	f := newFixture(t)
	for _, tt := range tests {
		got, err := f.p.SetVolume(context.Background(), tt.in)
		if err != nil {
			t.Fatalf("SetVolume(%v) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("SetVolume(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestToggleShuffle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.p.PlaySong(ctx, "s1", core.AlbumScope("x")); err != nil {
		t.Fatal(err)
	}
	on, err := f.p.ToggleShuffle(ctx)
	if err != nil || !on {
		t.Fatalf("ToggleShuffle() = %v, %v, want true", on, err)
	}
	if q := f.p.Queue(); len(q) != 2 || q[0] != "s3" || q[1] != "s2" {
		t.Errorf("shuffled Queue() = %v, want [s3 s2]", q)
	}
	on, _ = f.p.ToggleShuffle(ctx)
	if on {
		t.Error("ToggleShuffle() second call = true, want false")
	}
}

func TestToggleRepeat(t *testing.T) {
	f := newFixture(t)
	want := []core.RepeatMode{core.RepeatAll, core.RepeatOne, core.RepeatNone}
	for _, w := range want {
		got, err := f.p.ToggleRepeat(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if got != w {
			t.Errorf("ToggleRepeat() = %v, want %v", got, w)
		}
	}
}

func TestTickAdvancesAtEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.p.PlaySong(ctx, "s1", core.AlbumScope("x")); err != nil {
		t.Fatal(err)
	}
	timer := f.activeTimer()
	if timer == nil || timer.d != 180*time.Second {
		t.Fatalf("end timer = %+v, want 180s", timer)
	}

	// Fired early: re-arm without advancing.
	f.clock.Advance(179 * time.Second)
	timer.f()
	if snap, _ := f.p.CurrentSong(ctx); snap.TrackID != "s1" {
		t.Errorf("TrackID = %q, want s1", snap.TrackID)
	}
	if got := f.activeTimer(); got == nil || got.d != time.Second {
		t.Errorf("re-armed timer = %+v, want 1s", got)
	}

	f.clock.Advance(time.Second)
	f.p.Tick()
	if snap, _ := f.p.CurrentSong(ctx); snap.TrackID != "s2" {
		t.Errorf("TrackID = %q, want s2", snap.TrackID)
	}
}

func TestDecodeLibraryErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad toml", "[songs"},
		{"unknown album", "[songs.s]\ntitle = \"x\"\nalbum = \"nope\"\nduration = 1"},
		{"unknown artist", "[albums.a]\nname = \"x\"\nartist = \"nope\""},
		{"zero duration", "[artists.a]\nname=\"a\"\n[albums.b]\nartist=\"a\"\n[songs.s]\nalbum=\"b\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeLibrary(tt.data); err == nil {
				t.Error("DecodeLibrary() error = nil, want error")
			}
		})
	}
}
