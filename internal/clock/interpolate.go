package clock

import (
	"time"

	"github.com/tessro/encore/internal/core"
)

// Position is the interpolated playback position at some instant.
type Position struct {
	Elapsed time.Duration
	Running bool
}

// Interpolate turns a snapshot into the position at now. It is total: a
// snapshot with no track yields zero elapsed time, and clock skew that would
// produce a negative position is clamped to zero.
func Interpolate(s core.Snapshot, now time.Time) Position {
	pos := Position{Running: !s.IsPaused()}
	if !s.HasTrack() {
		return pos
	}

	if pos.Running {
		pos.Elapsed = now.Sub(s.StartedAt)
	} else {
		pos.Elapsed = s.PausedAt.Sub(s.StartedAt)
	}
	if pos.Elapsed < 0 {
		pos.Elapsed = 0
	}
	return pos
}

// Overran reports whether the position has reached the end of a track of the
// given duration. Unknown durations never overrun.
func (p Position) Overran(duration time.Duration) bool {
	return duration > 0 && p.Elapsed >= duration
}
