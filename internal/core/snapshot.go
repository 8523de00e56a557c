package core

import (
	"fmt"
	"time"
)

// RepeatMode controls what the player does when the queue runs out.
type RepeatMode int

const (
	RepeatNone RepeatMode = iota
	RepeatOne
	RepeatAll
)

// String returns the wire name of the mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOne:
		return "One"
	case RepeatAll:
		return "All"
	default:
		return "None"
	}
}

// Next returns the mode a repeat toggle moves to: None → All → One → None.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatNone:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatNone
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m RepeatMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *RepeatMode) UnmarshalText(text []byte) error {
	mode, err := ParseRepeatMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// ParseRepeatMode parses a repeat mode name. Matching is case-sensitive on
// the wire names, with "off", "track" and "context" accepted as aliases.
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch s {
	case "None", "none", "off":
		return RepeatNone, nil
	case "One", "one", "track":
		return RepeatOne, nil
	case "All", "all", "context":
		return RepeatAll, nil
	}
	return RepeatNone, fmt.Errorf("invalid repeat mode: %q", s)
}

// Snapshot is the last authoritative playback fact reported by the player.
//
// StartedAt is the instant position zero would have occurred, shifted by
// seeks and pauses. PausedAt is zero while playback is running.
type Snapshot struct {
	TrackID   string
	StartedAt time.Time
	PausedAt  time.Time
	Volume    float64
	Shuffled  bool
	Repeat    RepeatMode
}

// Idle returns the placeholder snapshot used before anything is known.
func Idle() Snapshot {
	return Snapshot{Volume: 1}
}

// HasTrack returns true if a track is loaded.
func (s Snapshot) HasTrack() bool {
	return s.TrackID != ""
}

// IsPaused returns true if playback is frozen.
func (s Snapshot) IsPaused() bool {
	return !s.PausedAt.IsZero()
}

// IsRunning returns true if a track is loaded and its clock is advancing.
func (s Snapshot) IsRunning() bool {
	return s.HasTrack() && !s.IsPaused()
}

// ClampVolume limits v to [0, 1].
func ClampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
