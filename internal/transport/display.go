package transport

import (
	"time"

	"github.com/tessro/encore/internal/core"
)

// Display is the derived now-playing state shown to the user.
type Display struct {
	TrackID string
	// Song is nil when nothing is playing or the catalog has no entry.
	Song     *core.Song
	Elapsed  time.Duration
	Duration time.Duration
	Paused   bool
	// Loading is true while a skip is outstanding and the next track is
	// not yet known.
	Loading  bool
	Volume   float64
	Shuffled bool
	Repeat   core.RepeatMode
}

// HasTrack returns true if a track is shown.
func (d Display) HasTrack() bool {
	return d.TrackID != ""
}

// Progress returns elapsed time as a fraction of the duration in [0, 1].
func (d Display) Progress() float64 {
	if d.Duration <= 0 {
		return 0
	}
	p := float64(d.Elapsed) / float64(d.Duration)
	if p > 1 {
		return 1
	}
	return p
}

// AwaitingAdvance is true when the local clock has run past the end of the
// track and the player has not yet reported the next one.
func (d Display) AwaitingAdvance() bool {
	return d.HasTrack() && !d.Paused && d.Duration > 0 && d.Elapsed >= d.Duration
}
