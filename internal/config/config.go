package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	encerrors "github.com/tessro/encore/internal/errors"
)

const header = "# Encore Configuration\n\n"

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.encorerc, $XDG_CONFIG_HOME/encore/config.toml, ~/.config/encore/config.toml
func Load() (*Config, error) {
	cfg := &Config{}

	// Try loading from file
	path := findConfigFile()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", encerrors.ErrInvalidConfig, path, err)
		}
	}

	// Apply defaults, then environment variable overrides
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", encerrors.ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %w", encerrors.ErrInvalidConfig, path, err)
	}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// DefaultPath returns the file 'encore config init' writes.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".encorerc"
	}
	return filepath.Join(home, ".encorerc")
}

// findConfigFile returns the first existing config file path.
func findConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	paths := []string{
		filepath.Join(home, ".encorerc"),
	}

	// XDG_CONFIG_HOME or default
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	paths = append(paths, filepath.Join(xdgConfig, "encore", "config.toml"))

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	setString := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			if i, err := strconv.Atoi(v); err == nil {
				*dst = i
			}
		}
	}

	setString("ENCORE_AUTHORITY_ADDR", &cfg.Authority.Addr)
	setString("ENCORE_LIBRARY_FILE", &cfg.Library.File)

	setInt("ENCORE_PLAYER_FRAME_INTERVAL", &cfg.Player.FrameInterval)
	setInt("ENCORE_PLAYER_RESTART_THRESHOLD", &cfg.Player.RestartThreshold)
	setInt("ENCORE_PLAYER_PLAY_TOLERANCE", &cfg.Player.PlayTolerance)

	setInt("ENCORE_SEARCH_DEBOUNCE", &cfg.Search.Debounce)
	setInt("ENCORE_TAIL_INTERVAL", &cfg.Tail.Interval)

	setString("ENCORE_TUI_THEME", &cfg.TUI.Theme)
	setInt("ENCORE_TUI_REFRESH_INTERVAL", &cfg.TUI.RefreshInterval)

	setString("ENCORE_LOG_LEVEL", &cfg.Log.Level)
	setString("ENCORE_LOG_FILE", &cfg.Log.File)
}

// Write creates a config file at path. It refuses to overwrite an existing
// file.
func Write(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return encode(path, cfg)
}

// intKeys lists the settings stored as integers.
var intKeys = map[string]bool{
	"player.frame_interval":    true,
	"player.restart_threshold": true,
	"player.play_tolerance":    true,
	"search.debounce":          true,
	"tail.interval":            true,
	"tui.refresh_interval":     true,
}

// Set updates one "section.key" value in the file at path, keeping any
// other settings in the file as they are.
func Set(path, key, value string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", encerrors.ErrConfigNotFound, path)
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	var raw map[string]any
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if raw == nil {
		raw = make(map[string]any)
	}

	section, field, ok := strings.Cut(key, ".")
	if !ok || section == "" || field == "" || strings.Contains(field, ".") {
		return fmt.Errorf("invalid key format. Use 'section.key' (e.g., authority.addr)")
	}

	var typed any = value
	if intKeys[key] {
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("value must be an integer for %s", key)
		}
		typed = i
	}

	sectionMap, ok := raw[section].(map[string]any)
	if !ok {
		sectionMap = make(map[string]any)
		raw[section] = sectionMap
	}
	sectionMap[field] = typed

	// Reject values that would make the file unloadable.
	var check Config
	md, err := toml.Decode(encodeString(raw), &check)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown key: %s", undecoded[0])
	}
	check.ApplyDefaults()
	if err := check.Validate(); err != nil {
		return err
	}

	return encode(path, raw)
}

func encode(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(header); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	encoder := toml.NewEncoder(f)
	encoder.Indent = "  "
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func encodeString(v any) string {
	var b strings.Builder
	_ = toml.NewEncoder(&b).Encode(v)
	return b.String()
}
