package config

// DefaultAddr is where 'encore serve' listens and clients connect.
const DefaultAddr = "127.0.0.1:4747"

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Authority: AuthorityConfig{
			Addr: DefaultAddr,
		},
		Player: PlayerConfig{
			FrameInterval:    50,
			RestartThreshold: 5000,
			PlayTolerance:    250,
		},
		Search: SearchConfig{
			Debounce: 250,
		},
		Tail: TailConfig{
			Interval: 1000,
		},
		TUI: TUIConfig{
			Theme:           "auto",
			RefreshInterval: 1000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Authority
	if c.Authority.Addr == "" {
		c.Authority.Addr = d.Authority.Addr
	}

	// Player
	if c.Player.FrameInterval == 0 {
		c.Player.FrameInterval = d.Player.FrameInterval
	}
	if c.Player.RestartThreshold == 0 {
		c.Player.RestartThreshold = d.Player.RestartThreshold
	}
	if c.Player.PlayTolerance == 0 {
		c.Player.PlayTolerance = d.Player.PlayTolerance
	}

	// Search
	if c.Search.Debounce == 0 {
		c.Search.Debounce = d.Search.Debounce
	}

	// Tail
	if c.Tail.Interval == 0 {
		c.Tail.Interval = d.Tail.Interval
	}

	// TUI
	if c.TUI.Theme == "" {
		c.TUI.Theme = d.TUI.Theme
	}
	if c.TUI.RefreshInterval == 0 {
		c.TUI.RefreshInterval = d.TUI.RefreshInterval
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}
