// Package authority is an in-process player that owns the playback clock.
// It keeps the queue, history and mode flags and pushes every change to its
// subscribers.
package authority

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/tessro/encore/internal/clock"
	"github.com/tessro/encore/internal/core"
	encerrors "github.com/tessro/encore/internal/errors"
)

const (
	// DefaultRestartThreshold is how far into a song PreviousSong restarts it
	// instead of going back.
	DefaultRestartThreshold = 5 * time.Second

	// historySize caps the previous-songs list.
	historySize = 20
)

var _ core.Authority = (*Player)(nil)

// Timer is the part of *time.Timer the player uses.
type Timer interface {
	Stop() bool
}

// Option configures a Player.
type Option func(*Player)

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(p *Player) { p.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Player) { p.logger = l }
}

// WithShuffle replaces the shuffle used to build automatic queues.
func WithShuffle(shuffle func([]string)) Option {
	return func(p *Player) { p.shuffle = shuffle }
}

// WithAfterFunc replaces the end-of-track timer.
func WithAfterFunc(f func(time.Duration, func()) Timer) Option {
	return func(p *Player) { p.afterFunc = f }
}

// WithRestartThreshold overrides DefaultRestartThreshold.
func WithRestartThreshold(d time.Duration) Option {
	return func(p *Player) { p.restartThreshold = d }
}

// Player is an in-memory core.Authority.
type Player struct {
	mu      sync.Mutex
	lib     *core.Library
	clock   clock.Clock
	logger  *slog.Logger
	shuffle func([]string)

	afterFunc        func(time.Duration, func()) Timer
	restartThreshold time.Duration

	snap      core.Snapshot
	scope     core.PlayerScope
	queue     []string // user queue, played first
	automatic []string // built from scope, in play order
	previous  []string // most recent last
	endTimer  Timer

	subs      map[uuid.UUID]*subscriber
	published core.Snapshot
	closed    bool
}

// New creates a player serving lib.
func New(lib *core.Library, opts ...Option) *Player {
	if lib == nil {
		lib = &core.Library{}
	}
	p := &Player{
		lib:    lib,
		clock:  clock.Real{},
		logger: slog.New(slog.DiscardHandler),
		shuffle: func(ids []string) {
			lo.Shuffle(ids)
		},
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		restartThreshold: DefaultRestartThreshold,
		snap:             core.Idle(),
		scope:            core.LibraryScope(),
		subs:             make(map[uuid.UUID]*subscriber),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.published = p.snap
	return p
}

// Close stops the end-of-track timer and ends every subscription.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.endTimer != nil {
		p.endTimer.Stop()
		p.endTimer = nil
	}
	for id, sub := range p.subs {
		sub.end(nil)
		delete(p.subs, id)
	}
	return nil
}

// now returns the current time at the millisecond precision of the wire.
func (p *Player) now() time.Time {
	return p.clock.Now().Truncate(time.Millisecond)
}

// CurrentSong returns the current snapshot.
func (p *Player) CurrentSong(context.Context) (core.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap, nil
}

// Library returns the catalog.
func (p *Player) Library(context.Context) (*core.Library, error) {
	return p.lib, nil
}

// Search matches query against the catalog.
func (p *Player) Search(_ context.Context, query string, mode core.SearchMode) (core.SearchResults, error) {
	return p.lib.Search(query, mode), nil
}

// PlaySong starts songID and rebuilds the automatic queue from scope.
func (p *Player) PlaySong(_ context.Context, songID string, scope core.PlayerScope) (core.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.lib.Song(songID); !ok {
		return core.Snapshot{}, fmt.Errorf("%w: %s", encerrors.ErrTrackNotFound, songID)
	}
	automatic, ok := p.automaticQueue(songID, scope)
	if !ok {
		return core.Snapshot{}, fmt.Errorf("%w: %s is not in the requested scope", encerrors.ErrRejected, songID)
	}
	p.scope = scope
	p.automatic = automatic
	p.start(songID, true)
	p.logger.Info("playing", "song", songID, "queued", len(automatic))
	p.changed()
	return p.snap, nil
}

// Enqueue appends songID to the user queue, which plays before the automatic
// queue.
func (p *Player) Enqueue(songID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.lib.Song(songID); !ok {
		return fmt.Errorf("%w: %s", encerrors.ErrTrackNotFound, songID)
	}
	p.queue = append(p.queue, songID)
	return nil
}

// Queue returns the songs that will play next, user queue first.
func (p *Player) Queue() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.queue)+len(p.automatic))
	out = append(out, p.queue...)
	return append(out, p.automatic...)
}

// SetPaused pauses or resumes. Setting the current state again is a no-op.
func (p *Player) SetPaused(_ context.Context, paused bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.snap.HasTrack() {
		return encerrors.ErrNothingPlaying
	}
	if paused == p.snap.IsPaused() {
		return nil
	}
	now := p.now()
	if paused {
		p.snap.PausedAt = now
	} else {
		p.snap.StartedAt = p.snap.StartedAt.Add(now.Sub(p.snap.PausedAt))
		p.snap.PausedAt = time.Time{}
	}
	p.changed()
	return nil
}

// Seek moves the current song to positionMs.
func (p *Player) Seek(_ context.Context, positionMs int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.snap.HasTrack() {
		return encerrors.ErrNothingPlaying
	}
	pos := time.Duration(positionMs) * time.Millisecond
	song, _ := p.lib.Song(p.snap.TrackID)
	if pos < 0 || pos > song.Duration {
		return fmt.Errorf("%w: position %v outside 0..%v", encerrors.ErrRejected, pos, song.Duration)
	}
	p.seek(pos)
	p.changed()
	return nil
}

func (p *Player) seek(pos time.Duration) {
	if p.snap.IsPaused() {
		p.snap.StartedAt = p.snap.PausedAt.Add(-pos)
		return
	}
	p.snap.StartedAt = p.now().Add(-pos)
}

// NextSong advances to the next song: the user queue, then the automatic
// queue, then the repeat mode. With nothing left playback stops.
func (p *Player) NextSong(context.Context) (core.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next()
	p.changed()
	return p.snap, nil
}

func (p *Player) next() {
	current := p.snap.TrackID
	if current == "" {
		return
	}

	next, ok := p.pickNext(current)
	p.remember(current)
	if !ok {
		p.logger.Info("queue finished", "last", current)
		p.stop()
		return
	}
	p.start(next, false)
}

func (p *Player) pickNext(current string) (string, bool) {
	if len(p.queue) > 0 {
		next := p.queue[0]
		p.queue = p.queue[1:]
		return next, true
	}
	if len(p.automatic) > 0 {
		next := p.automatic[0]
		p.automatic = p.automatic[1:]
		return next, true
	}
	switch p.snap.Repeat {
	case core.RepeatAll:
		automatic, _ := p.automaticQueue(current, p.scope)
		if len(automatic) == 0 {
			return current, true
		}
		p.automatic = automatic[1:]
		return automatic[0], true
	case core.RepeatOne:
		return current, true
	default:
		return "", false
	}
}

// PreviousSong restarts the song when it has played past the restart
// threshold, otherwise goes back one song. With no history playback stops.
func (p *Player) PreviousSong(context.Context) (core.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.snap.HasTrack() {
		return p.snap, nil
	}
	if p.elapsed() > p.restartThreshold {
		p.seek(0)
		p.changed()
		return p.snap, nil
	}

	if len(p.previous) == 0 {
		p.stop()
		p.changed()
		return p.snap, nil
	}
	prev := p.previous[len(p.previous)-1]
	p.previous = p.previous[:len(p.previous)-1]
	p.automatic = append([]string{p.snap.TrackID}, p.automatic...)
	p.start(prev, false)
	p.changed()
	return p.snap, nil
}

// SetVolume clamps volume to [0, 1] and returns the applied value.
func (p *Player) SetVolume(_ context.Context, volume float64) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap.Volume = core.ClampVolume(volume)
	p.changed()
	return p.snap.Volume, nil
}

// ToggleShuffle flips shuffle and rebuilds the automatic queue.
func (p *Player) ToggleShuffle(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap.Shuffled = !p.snap.Shuffled
	if p.snap.HasTrack() {
		if automatic, ok := p.automaticQueue(p.snap.TrackID, p.scope); ok {
			p.automatic = automatic
		}
	}
	p.changed()
	return p.snap.Shuffled, nil
}

// ToggleRepeat cycles None, All, One.
func (p *Player) ToggleRepeat(context.Context) (core.RepeatMode, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap.Repeat = p.snap.Repeat.Next()
	p.changed()
	return p.snap.Repeat, nil
}

// start makes songID current from position zero.
func (p *Player) start(songID string, saveCurrent bool) {
	if saveCurrent && p.snap.HasTrack() {
		p.remember(p.snap.TrackID)
	}
	p.snap.TrackID = songID
	p.snap.StartedAt = p.now()
	p.snap.PausedAt = time.Time{}
}

func (p *Player) stop() {
	p.snap.TrackID = ""
	p.snap.StartedAt = time.Time{}
	p.snap.PausedAt = time.Time{}
}

func (p *Player) remember(songID string) {
	p.previous = append(p.previous, songID)
	if len(p.previous) > historySize {
		p.previous = p.previous[len(p.previous)-historySize:]
	}
}

func (p *Player) elapsed() time.Duration {
	if p.snap.IsPaused() {
		return p.snap.PausedAt.Sub(p.snap.StartedAt)
	}
	return p.now().Sub(p.snap.StartedAt)
}

// automaticQueue lists the songs of scope that follow songID, wrapping
// around. ok is false when songID is not in scope.
func (p *Player) automaticQueue(songID string, scope core.PlayerScope) ([]string, bool) {
	var ids []string
	switch scope.Kind {
	case core.ScopeAlbum:
		ids = p.lib.AlbumSongIDs(scope.ID)
	case core.ScopeArtist:
		ids = p.lib.ArtistSongIDs(scope.ID)
	default:
		ids = p.lib.SongIDs()
	}

	i := lo.IndexOf(ids, songID)
	if i < 0 {
		return nil, false
	}
	rest := append(append([]string{}, ids[i+1:]...), ids[:i]...)
	if p.snap.Shuffled {
		p.shuffle(rest)
	}
	return rest, true
}

// Tick advances to the next song when the current one has run out. The end
// timer calls it; tests call it directly.
func (p *Player) Tick() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || !p.snap.IsRunning() {
		return
	}
	song, ok := p.lib.Song(p.snap.TrackID)
	if !ok || p.elapsed() < song.Duration {
		p.armEndTimer()
		return
	}
	p.logger.Debug("song ended", "song", p.snap.TrackID)
	p.next()
	p.changed()
}

// changed re-arms the end timer and publishes the snapshot if it differs
// from the last one sent. Caller holds mu.
func (p *Player) changed() {
	p.armEndTimer()
	if p.snap == p.published {
		return
	}
	p.published = p.snap
	for _, sub := range p.subs {
		sub.offer(p.snap)
	}
}

func (p *Player) armEndTimer() {
	if p.endTimer != nil {
		p.endTimer.Stop()
		p.endTimer = nil
	}
	if p.closed || !p.snap.IsRunning() {
		return
	}
	song, ok := p.lib.Song(p.snap.TrackID)
	if !ok {
		return
	}
	remaining := song.Duration - p.elapsed()
	if remaining < 0 {
		remaining = 0
	}
	p.endTimer = p.afterFunc(remaining, p.Tick)
}
