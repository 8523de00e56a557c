package transport

import (
	"time"

	"github.com/tessro/encore/internal/core"
)

// foldPlay starts trackID from the beginning at now.
func foldPlay(s core.Snapshot, trackID string, now time.Time) core.Snapshot {
	s.TrackID = trackID
	s.StartedAt = now
	s.PausedAt = time.Time{}
	return s
}

// foldTogglePause freezes a running clock at now, or resumes a frozen one by
// shifting the start epoch forward by the time spent paused so the position
// is continuous across the pause.
func foldTogglePause(s core.Snapshot, now time.Time) core.Snapshot {
	if s.IsPaused() {
		s.StartedAt = s.StartedAt.Add(now.Sub(s.PausedAt))
		s.PausedAt = time.Time{}
		return s
	}
	s.PausedAt = now
	return s
}

// foldSeek positions the clock at pos without changing the paused state.
func foldSeek(s core.Snapshot, pos time.Duration, now time.Time) core.Snapshot {
	if pos < 0 {
		pos = 0
	}
	if s.IsPaused() {
		s.PausedAt = s.StartedAt.Add(pos)
		return s
	}
	s.StartedAt = now.Add(-pos)
	return s
}

// reconcilePlay merges the player's answer to a play intent with the
// optimistic guess. A reply for a different track, or one whose start instant
// is further than tolerance from the guess, replaces the guess outright.
// Otherwise the guessed start instant is kept so the display does not jump.
func reconcilePlay(optimistic, reply core.Snapshot, tolerance time.Duration) core.Snapshot {
	if reply.TrackID != optimistic.TrackID {
		return reply
	}
	drift := reply.StartedAt.Sub(optimistic.StartedAt)
	if drift < 0 {
		drift = -drift
	}
	if drift > tolerance {
		return reply
	}
	if reply.IsPaused() {
		reply.PausedAt = reply.PausedAt.Add(-reply.StartedAt.Sub(optimistic.StartedAt))
	}
	reply.StartedAt = optimistic.StartedAt
	return reply
}
