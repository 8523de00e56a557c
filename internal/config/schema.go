package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Authority AuthorityConfig `toml:"authority"`
	Library   LibraryConfig   `toml:"library"`
	Player    PlayerConfig    `toml:"player"`
	Search    SearchConfig    `toml:"search"`
	Tail      TailConfig      `toml:"tail"`
	TUI       TUIConfig       `toml:"tui"`
	Log       LogConfig       `toml:"log"`
}

// AuthorityConfig locates the player that owns the playback clock.
type AuthorityConfig struct {
	Addr string `toml:"addr"`
}

// LibraryConfig holds the catalog served by 'encore serve'.
type LibraryConfig struct {
	File string `toml:"file"`
}

// PlayerConfig holds playback clock settings. Durations are milliseconds.
type PlayerConfig struct {
	FrameInterval    int `toml:"frame_interval"`
	RestartThreshold int `toml:"restart_threshold"`
	PlayTolerance    int `toml:"play_tolerance"`
}

// SearchConfig holds search box settings.
type SearchConfig struct {
	Debounce int `toml:"debounce"`
}

// TailConfig holds settings for tail/follow mode.
type TailConfig struct {
	Interval int `toml:"interval"`
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme           string `toml:"theme"`
	RefreshInterval int    `toml:"refresh_interval"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// FrameIntervalDuration returns FrameInterval as a duration.
func (c PlayerConfig) FrameIntervalDuration() time.Duration { return ms(c.FrameInterval) }

// RestartThresholdDuration returns RestartThreshold as a duration.
func (c PlayerConfig) RestartThresholdDuration() time.Duration { return ms(c.RestartThreshold) }

// PlayToleranceDuration returns PlayTolerance as a duration.
func (c PlayerConfig) PlayToleranceDuration() time.Duration { return ms(c.PlayTolerance) }

// DebounceDuration returns Debounce as a duration.
func (c SearchConfig) DebounceDuration() time.Duration { return ms(c.Debounce) }

// IntervalDuration returns Interval as a duration.
func (c TailConfig) IntervalDuration() time.Duration { return ms(c.Interval) }

// RefreshIntervalDuration returns RefreshInterval as a duration.
func (c TUIConfig) RefreshIntervalDuration() time.Duration { return ms(c.RefreshInterval) }
