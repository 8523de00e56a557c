package tail

import (
	"context"
	"log/slog"
	"time"

	"github.com/tessro/encore/internal/clock"
	"github.com/tessro/encore/internal/core"
	encerrors "github.com/tessro/encore/internal/errors"
)

// EventType represents the type of playback event.
type EventType int

const (
	EventTrackChange EventType = iota
	EventTrackComplete
	EventTrackSkip
	EventStop
	EventPause
	EventResume
	EventSeek
	EventVolumeChange
	EventShuffleChange
	EventRepeatChange
)

const (
	// completeRatio is how much of a song must have played for a change to
	// count as completion rather than a skip.
	completeRatio = 0.95

	// seekTolerance absorbs millisecond rounding between snapshots.
	seekTolerance = time.Second
)

// Event represents a playback state change.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Previous  core.Snapshot
	Current   core.Snapshot
	// Position is where the previous song was when the change arrived.
	Position time.Duration
}

// Watcher follows a player and emits events for each change.
type Watcher struct {
	auth     core.Authority
	catalog  core.Catalog
	clock    clock.Clock
	interval time.Duration
	logger   *slog.Logger
	events   chan Event
	done     chan struct{}
}

// NewWatcher creates a new state watcher. interval is used only when the
// player cannot push snapshots and the watcher falls back to polling.
func NewWatcher(auth core.Authority, catalog core.Catalog, interval time.Duration) *Watcher {
	if interval == 0 {
		interval = time.Second
	}
	return &Watcher{
		auth:     auth,
		catalog:  catalog,
		clock:    clock.Real{},
		interval: interval,
		logger:   slog.New(slog.DiscardHandler),
		events:   make(chan Event, 16),
		done:     make(chan struct{}),
	}
}

// SetLogger sets the logger.
func (w *Watcher) SetLogger(l *slog.Logger) {
	w.logger = l
}

// SetClock replaces the time source.
func (w *Watcher) SetClock(c clock.Clock) {
	w.clock = c
}

// Events returns the channel of playback events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start follows the player until ctx is done or Stop is called. It
// subscribes to pushed snapshots, polling instead when the player does not
// offer a subscription.
func (w *Watcher) Start(ctx context.Context) error {
	defer close(w.events)

	var prev *core.Snapshot
	if s, err := w.auth.CurrentSong(ctx); err == nil {
		prev = &s
	}

	sub, err := w.auth.SubscribeCurrentSong(ctx)
	if err != nil {
		if !encerrors.Is(err, encerrors.ErrUnknownProcedure) {
			return err
		}
		w.logger.Info("subscription unavailable, polling", "interval", w.interval)
		return w.poll(ctx, prev)
	}
	defer func() { _ = sub.Close() }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case s, ok := <-sub.Snapshots():
			if !ok {
				return sub.Err()
			}
			prev = w.observe(prev, s)
		}
	}
}

func (w *Watcher) poll(ctx context.Context, prev *core.Snapshot) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case <-ticker.C:
			s, err := w.auth.CurrentSong(ctx)
			if err != nil {
				w.logger.Debug("poll failed", "err", err)
				continue
			}
			prev = w.observe(prev, s)
		}
	}
}

func (w *Watcher) observe(prev *core.Snapshot, curr core.Snapshot) *core.Snapshot {
	for _, e := range w.diff(prev, curr, w.clock.Now()) {
		select {
		case w.events <- e:
		default:
			// Drop event if channel is full
		}
	}
	return &curr
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.done)
}

// diff compares two snapshots and returns detected events.
func (w *Watcher) diff(prev *core.Snapshot, curr core.Snapshot, now time.Time) []Event {
	// First snapshot - no previous state
	if prev == nil {
		if curr.HasTrack() {
			return []Event{{Type: EventTrackChange, Timestamp: now, Current: curr}}
		}
		return nil
	}

	event := func(t EventType) Event {
		return Event{Type: t, Timestamp: now, Previous: *prev, Current: curr, Position: w.position(*prev, now)}
	}
	var events []Event

	switch {
	case prev.TrackID != curr.TrackID:
		if prev.HasTrack() {
			if w.completed(*prev, now) {
				events = append(events, event(EventTrackComplete))
			} else {
				events = append(events, event(EventTrackSkip))
			}
		}
		if curr.HasTrack() {
			events = append(events, event(EventTrackChange))
		} else {
			events = append(events, event(EventStop))
		}

	case !curr.HasTrack():
		// Nothing playing before or after

	case prev.IsPaused() && !curr.IsPaused():
		events = append(events, event(EventResume))

	case !prev.IsPaused() && curr.IsPaused():
		events = append(events, event(EventPause))

	case w.replayed(*prev, curr, now):
		events = append(events, event(EventTrackComplete), event(EventTrackChange))

	case w.seeked(*prev, curr, now):
		events = append(events, event(EventSeek))
	}

	if prev.Volume != curr.Volume {
		events = append(events, event(EventVolumeChange))
	}
	if prev.Shuffled != curr.Shuffled {
		events = append(events, event(EventShuffleChange))
	}
	if prev.Repeat != curr.Repeat {
		events = append(events, event(EventRepeatChange))
	}
	return events
}

func (w *Watcher) position(s core.Snapshot, now time.Time) time.Duration {
	return clock.Interpolate(s, now).Elapsed
}

// completed returns true if the song in s likely finished on its own.
func (w *Watcher) completed(s core.Snapshot, now time.Time) bool {
	if w.catalog == nil {
		return false
	}
	song, ok := w.catalog.Song(s.TrackID)
	if !ok || song.Duration == 0 {
		return false
	}
	threshold := float64(song.Duration) * completeRatio
	return float64(w.position(s, now)) >= threshold
}

// replayed returns true if the same song started over after finishing, as
// it does under repeat-one.
func (w *Watcher) replayed(prev, curr core.Snapshot, now time.Time) bool {
	return w.completed(prev, now) && w.position(curr, now) < seekTolerance
}

// seeked returns true if the position jumped between two snapshots of the
// same song in the same pause state.
func (w *Watcher) seeked(prev, curr core.Snapshot, now time.Time) bool {
	d := w.position(curr, now) - w.position(prev, now)
	return d > seekTolerance || d < -seekTolerance
}
