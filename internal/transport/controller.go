// Package transport keeps a locally interpolated playback position in step
// with a remote player and applies transport controls optimistically.
package transport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/tessro/encore/internal/clock"
	"github.com/tessro/encore/internal/core"
	encerrors "github.com/tessro/encore/internal/errors"
	"github.com/tessro/encore/internal/scheduler"
)

const (
	// DefaultRestartThreshold is how far into a track Previous restarts the
	// track instead of going to the previous one.
	DefaultRestartThreshold = 5 * time.Second

	// DefaultPlayTolerance is how far the player's start instant may differ
	// from the optimistic one before the reply replaces it.
	DefaultPlayTolerance = 250 * time.Millisecond
)

// Runner runs an authority call. The default starts a goroutine.
type Runner func(func())

// Config configures a Controller.
type Config struct {
	Authority core.Authority
	// Catalog supplies track durations. May be nil and set later.
	Catalog core.Catalog
	Clock   clock.Clock
	// Host delivers frames. Defaults to an IntervalHost.
	Host     scheduler.Host
	Fallback scheduler.Host
	Runner   Runner
	Logger   *slog.Logger

	RestartThreshold time.Duration
	PlayTolerance    time.Duration

	// OnDisplay is called with the recomputed display on every frame and
	// after every state change. It must not block.
	OnDisplay func(Display)
	// OnError is called when an intent fails. The optimistic state stays.
	OnError func(Intent, error)
}

// Controller is the single writer of the playback snapshot.
type Controller struct {
	authority core.Authority
	clock     clock.Clock
	run       Runner
	logger    *slog.Logger
	restart   time.Duration
	tolerance time.Duration
	onDisplay func(Display)
	onError   func(Intent, error)
	sched     *scheduler.Scheduler

	// syncMu orders scheduler start/stop calls so the last one always
	// reflects the latest snapshot.
	syncMu sync.Mutex

	mu      sync.Mutex
	snap    core.Snapshot
	catalog core.Catalog
	loading bool
	gens    [numFields]uint64
	// refreshed is the epoch an over-duration refresh was last requested for.
	refreshed epoch
}

type epoch struct {
	trackID   string
	startedAt time.Time
}

// New creates a Controller holding the idle snapshot.
func New(cfg Config) *Controller {
	c := &Controller{
		authority: cfg.Authority,
		clock:     cfg.Clock,
		run:       cfg.Runner,
		logger:    cfg.Logger,
		restart:   cfg.RestartThreshold,
		tolerance: cfg.PlayTolerance,
		onDisplay: cfg.OnDisplay,
		onError:   cfg.OnError,
		snap:      core.Idle(),
		catalog:   cfg.Catalog,
	}
	if c.clock == nil {
		c.clock = clock.Real{}
	}
	if c.run == nil {
		c.run = func(f func()) { go f() }
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.restart <= 0 {
		c.restart = DefaultRestartThreshold
	}
	if c.tolerance <= 0 {
		c.tolerance = DefaultPlayTolerance
	}

	host := cfg.Host
	if host == nil {
		host = scheduler.IntervalHost{Clock: c.clock}
	}
	opts := []scheduler.Option{scheduler.WithLogger(c.logger)}
	if cfg.Fallback != nil {
		opts = append(opts, scheduler.WithFallback(cfg.Fallback))
	} else {
		opts = append(opts, scheduler.WithFallback(scheduler.IntervalHost{Clock: c.clock}))
	}
	c.sched = scheduler.New(host, c.frame, opts...)
	return c
}

// Close stops the frame loop. The controller must not be used afterwards.
func (c *Controller) Close() {
	c.sched.Close()
}

// Scheduler exposes the frame scheduler for inspection.
func (c *Controller) Scheduler() *scheduler.Scheduler {
	return c.sched
}

// SetCatalog replaces the catalog used for durations.
func (c *Controller) SetCatalog(cat core.Catalog) {
	c.mu.Lock()
	c.catalog = cat
	c.mu.Unlock()
	c.changed()
}

// Snapshot returns the current snapshot.
func (c *Controller) Snapshot() core.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Display computes the display state at the current instant.
func (c *Controller) Display() Display {
	now := c.clock.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.displayLocked(now)
}

func (c *Controller) displayLocked(now time.Time) Display {
	d := Display{
		Paused:   c.snap.IsPaused(),
		Loading:  c.loading,
		Volume:   c.snap.Volume,
		Shuffled: c.snap.Shuffled,
		Repeat:   c.snap.Repeat,
	}
	if c.loading || !c.snap.HasTrack() {
		return d
	}

	d.TrackID = c.snap.TrackID
	d.Elapsed = clock.Interpolate(c.snap, now).Elapsed
	if c.catalog != nil {
		if song, ok := c.catalog.Song(c.snap.TrackID); ok {
			d.Song = &song
			d.Duration = song.Duration
		}
	}
	return d
}

// Play starts trackID from the beginning within scope.
func (c *Controller) Play(ctx context.Context, trackID string, scope core.PlayerScope) {
	now := c.clock.Now()

	c.mu.Lock()
	c.snap = foldPlay(c.snap, trackID, now)
	c.loading = false
	optimistic := c.snap
	gen := c.bump(IntentPlay)
	c.mu.Unlock()
	c.changed()

	c.dispatch(IntentPlay, func() error {
		reply, err := c.authority.PlaySong(ctx, trackID, scope)
		if err != nil {
			return err
		}
		c.settle(IntentPlay, gen, func() {
			c.snap = reconcilePlay(optimistic, reply, c.tolerance)
		})
		return nil
	})
}

// TogglePause pauses a running track or resumes a paused one.
func (c *Controller) TogglePause(ctx context.Context) {
	now := c.clock.Now()

	c.mu.Lock()
	if !c.snap.HasTrack() || c.loading {
		c.mu.Unlock()
		return
	}
	c.snap = foldTogglePause(c.snap, now)
	paused := c.snap.IsPaused()
	c.bump(IntentPause)
	c.mu.Unlock()
	c.changed()

	intent := IntentResume
	if paused {
		intent = IntentPause
	}
	c.dispatch(intent, func() error {
		return c.exact(ctx, c.authority.SetPaused(ctx, paused))
	})
}

// Seek moves the current track to pos.
func (c *Controller) Seek(ctx context.Context, pos time.Duration) {
	c.seek(ctx, IntentSeek, pos)
}

func (c *Controller) seek(ctx context.Context, intent Intent, pos time.Duration) {
	if pos < 0 {
		pos = 0
	}
	now := c.clock.Now()

	c.mu.Lock()
	if !c.snap.HasTrack() || c.loading {
		c.mu.Unlock()
		return
	}
	c.snap = foldSeek(c.snap, pos, now)
	c.bump(intent)
	c.mu.Unlock()
	c.changed()

	c.dispatch(intent, func() error {
		return c.exact(ctx, c.authority.Seek(ctx, pos.Milliseconds()))
	})
}

// Next skips to the next track. The display shows a loading state until the
// player reports which track that is.
func (c *Controller) Next(ctx context.Context) {
	c.skip(ctx, IntentNext, c.authority.NextSong)
}

// RestartsOnPrevious reports whether a previous-track control at now should
// restart the current track: true once it has played for longer than
// threshold.
func RestartsOnPrevious(s core.Snapshot, now time.Time, threshold time.Duration) bool {
	return s.HasTrack() && clock.Interpolate(s, now).Elapsed > threshold
}

// Previous restarts the current track when it has played for longer than the
// restart threshold, and otherwise goes back to the previous track.
func (c *Controller) Previous(ctx context.Context) {
	now := c.clock.Now()

	c.mu.Lock()
	restart := !c.loading && RestartsOnPrevious(c.snap, now, c.restart)
	c.mu.Unlock()

	if restart {
		c.seek(ctx, IntentRestart, 0)
		return
	}
	c.skip(ctx, IntentPrevious, c.authority.PreviousSong)
}

func (c *Controller) skip(ctx context.Context, intent Intent, call func(context.Context) (core.Snapshot, error)) {
	c.mu.Lock()
	c.loading = true
	gen := c.bump(intent)
	c.mu.Unlock()
	c.changed()

	c.dispatch(intent, func() error {
		reply, err := call(ctx)
		if err != nil {
			c.settle(intent, gen, func() { c.loading = false })
			return err
		}
		c.settle(intent, gen, func() {
			c.snap = reply
			c.loading = false
		})
		return nil
	})
}

// SetVolume sets the volume, clamped to [0, 1].
func (c *Controller) SetVolume(ctx context.Context, v float64) {
	v = core.ClampVolume(v)

	c.mu.Lock()
	c.snap.Volume = v
	gen := c.bump(IntentVolume)
	c.mu.Unlock()
	c.changed()

	c.dispatch(IntentVolume, func() error {
		got, err := c.authority.SetVolume(ctx, v)
		if err != nil {
			return err
		}
		c.settle(IntentVolume, gen, func() { c.snap.Volume = got })
		return nil
	})
}

// ToggleShuffle flips shuffle.
func (c *Controller) ToggleShuffle(ctx context.Context) {
	c.mu.Lock()
	c.snap.Shuffled = !c.snap.Shuffled
	gen := c.bump(IntentShuffle)
	c.mu.Unlock()
	c.changed()

	c.dispatch(IntentShuffle, func() error {
		got, err := c.authority.ToggleShuffle(ctx)
		if err != nil {
			return err
		}
		c.settle(IntentShuffle, gen, func() { c.snap.Shuffled = got })
		return nil
	})
}

// ToggleRepeat cycles the repeat mode.
func (c *Controller) ToggleRepeat(ctx context.Context) {
	c.mu.Lock()
	c.snap.Repeat = c.snap.Repeat.Next()
	gen := c.bump(IntentRepeat)
	c.mu.Unlock()
	c.changed()

	c.dispatch(IntentRepeat, func() error {
		got, err := c.authority.ToggleRepeat(ctx)
		if err != nil {
			return err
		}
		c.settle(IntentRepeat, gen, func() { c.snap.Repeat = got })
		return nil
	})
}

// Apply replaces the snapshot with one pushed by the player. Pushed
// snapshots are strictly newer than anything held locally.
func (c *Controller) Apply(s core.Snapshot) {
	c.mu.Lock()
	c.snap = s
	c.loading = false
	c.mu.Unlock()
	c.changed()
}

// Refresh fetches the current snapshot and applies it. It blocks until the
// player answers.
func (c *Controller) Refresh(ctx context.Context) error {
	s, err := c.authority.CurrentSong(ctx)
	if err != nil {
		return err
	}
	c.Apply(s)
	return nil
}

// Follow applies every snapshot from sub until ctx ends or the subscription
// closes, and returns why it stopped.
func (c *Controller) Follow(ctx context.Context, sub core.Subscription) error {
	defer func() { _ = sub.Close() }()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s, ok := <-sub.Snapshots():
			if !ok {
				return sub.Err()
			}
			c.Apply(s)
		}
	}
}

// frame is the scheduler's render callback.
func (c *Controller) frame(now time.Time) {
	c.mu.Lock()
	d := c.displayLocked(now)
	var refresh bool
	var gen uint64
	if d.AwaitingAdvance() {
		e := epoch{trackID: c.snap.TrackID, startedAt: c.snap.StartedAt}
		if e != c.refreshed {
			c.refreshed = e
			refresh = true
			gen = c.gens[fieldClock]
		}
	}
	c.mu.Unlock()

	c.publish(d)
	if refresh {
		c.requestRefresh(gen)
	}
}

// requestRefresh asks the player for the current snapshot after the local
// clock ran past the end of the track.
func (c *Controller) requestRefresh(gen uint64) {
	c.logger.Debug("track overran, refreshing")
	c.dispatch(IntentRefresh, func() error {
		s, err := c.authority.CurrentSong(context.Background())
		if err != nil {
			return err
		}
		c.settle(IntentRefresh, gen, func() {
			c.snap = s
			c.loading = false
		})
		return nil
	})
}

// exact handles the result of an intent whose fold needs no reply. A
// rejection means the guess was wrong, so the real state is fetched.
func (c *Controller) exact(ctx context.Context, err error) error {
	if err == nil || !errors.Is(err, encerrors.ErrRejected) {
		return err
	}
	c.mu.Lock()
	gen := c.gens[fieldClock]
	c.mu.Unlock()
	if s, qerr := c.authority.CurrentSong(ctx); qerr == nil {
		c.settle(IntentRefresh, gen, func() {
			c.snap = s
			c.loading = false
		})
	}
	return err
}

// bump records a new intent and returns its generation. Callers hold c.mu.
func (c *Controller) bump(i Intent) uint64 {
	f := i.field()
	c.gens[f]++
	return c.gens[f]
}

// settle applies a reply unless a newer intent touching the same field was
// issued after the one that produced it.
func (c *Controller) settle(i Intent, gen uint64, apply func()) {
	c.mu.Lock()
	if c.gens[i.field()] != gen {
		c.mu.Unlock()
		c.logger.Debug("dropping superseded reply", "intent", i.String())
		return
	}
	apply()
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) dispatch(i Intent, call func() error) {
	c.run(func() {
		if err := call(); err != nil {
			c.logger.Warn("intent failed", "intent", i.String(), "error", err)
			if c.onError != nil {
				c.onError(i, err)
			}
		}
	})
}

// changed starts or stops the frame loop to match the snapshot and publishes
// the new display.
func (c *Controller) changed() {
	now := c.clock.Now()

	c.syncMu.Lock()
	c.mu.Lock()
	running := c.snap.IsRunning() && !c.loading
	d := c.displayLocked(now)
	c.mu.Unlock()
	if running {
		c.sched.Start()
	} else {
		c.sched.Stop()
	}
	c.syncMu.Unlock()

	c.publish(d)
}

func (c *Controller) publish(d Display) {
	if c.onDisplay != nil {
		c.onDisplay(d)
	}
}
