// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/backdrop/internal/particle"
	"github.com/jmylchreest/backdrop/internal/signal"
)

// Default configuration values.
const (
	DefaultStorage        = "file"
	DefaultKey            = "theme"
	DefaultFPS            = 30
	DefaultResizeDebounce = 250 * time.Millisecond
	DefaultCellWidth      = 8
	DefaultCellHeight     = 16
)

// Duration is a time.Duration read from strings like "250ms" or "1s".
// A bare integer is taken as milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '250ms', '1s' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config represents the backdrop configuration.
type Config struct {
	Theme      ThemeConfig      `toml:"theme"`
	Background BackgroundConfig `toml:"background"`
	Signals    SignalsConfig    `toml:"signals"`
}

// ThemeConfig selects where the theme preference is stored.
type ThemeConfig struct {
	Storage string `toml:"storage" validate:"oneof=file keyring memory"`
	Key     string `toml:"key" validate:"required"`
	Path    string `toml:"path"` // Preferences file; empty = data dir
}

// BackgroundConfig tunes the particle field.
type BackgroundConfig struct {
	Enabled            bool     `toml:"enabled"`
	ParticleCount      int      `toml:"particle_count" validate:"gte=0,lte=1000"`
	ConnectionDistance float64  `toml:"connection_distance" validate:"gte=0"`
	Speed              float64  `toml:"speed" validate:"gte=0"`
	FPS                int      `toml:"fps" validate:"gte=1,lte=240"`
	ResizeDebounce     Duration `toml:"resize_debounce" validate:"gte=0"`
	CellWidth          int      `toml:"cell_width" validate:"gte=1,lte=64"`
	CellHeight         int      `toml:"cell_height" validate:"gte=1,lte=64"`
}

// SignalsConfig forces OS preferences instead of following the desktop.
type SignalsConfig struct {
	ColorScheme   string `toml:"color_scheme" validate:"oneof=auto light dark"`
	ReducedMotion string `toml:"reduced_motion" validate:"oneof=auto on off"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Theme: ThemeConfig{
			Storage: DefaultStorage,
			Key:     DefaultKey,
		},
		Background: BackgroundConfig{
			Enabled:            true,
			ParticleCount:      particle.DefaultCount,
			ConnectionDistance: particle.DefaultConnectionDistance,
			Speed:              particle.DefaultSpeed,
			FPS:                DefaultFPS,
			ResizeDebounce:     Duration(DefaultResizeDebounce),
			CellWidth:          DefaultCellWidth,
			CellHeight:         DefaultCellHeight,
		},
		Signals: SignalsConfig{
			ColorScheme:   "auto",
			ReducedMotion: "auto",
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	return xdgPath("XDG_CONFIG_HOME", filepath.Join(".config"), "config.toml")
}

// DataPath returns the path to the data directory.
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share.
func DataPath() string {
	return xdgPath("XDG_DATA_HOME", filepath.Join(".local", "share"), "")
}

// StatePath returns the path to the state directory.
// Uses XDG_STATE_HOME if set, otherwise ~/.local/state.
func StatePath() string {
	return xdgPath("XDG_STATE_HOME", filepath.Join(".local", "state"), "")
}

// LogPath returns the default TUI log file.
func LogPath() string {
	dir := StatePath()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "backdrop.log")
}

// PrefsPath returns the preferences file, honouring theme.path.
func (c *Config) PrefsPath() string {
	if c.Theme.Path != "" {
		return c.Theme.Path
	}
	dir := DataPath()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "prefs.toml")
}

func xdgPath(env, fallback, file string) string {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, fallback)
	}
	if file == "" {
		return filepath.Join(base, "backdrop")
	}
	return filepath.Join(base, "backdrop", file)
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ParticleConfig returns the particle field configuration.
func (c *Config) ParticleConfig() particle.Config {
	pc := particle.DefaultConfig()
	pc.Count = c.Background.ParticleCount
	pc.ConnectionDistance = c.Background.ConnectionDistance
	pc.Speed = c.Background.Speed
	return pc
}

// FrameInterval returns the time between animation frames.
func (c *Config) FrameInterval() time.Duration {
	fps := c.Background.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	return time.Second / time.Duration(fps)
}

// ColorSchemeMode maps signals.color_scheme onto an override mode
// (dark = on, light = off).
func (c *Config) ColorSchemeMode() signal.Mode {
	m, err := signal.ParseMode(c.Signals.ColorScheme)
	if err != nil {
		return signal.ModeAuto
	}
	return m
}

// ReducedMotionMode maps signals.reduced_motion onto an override mode.
func (c *Config) ReducedMotionMode() signal.Mode {
	m, err := signal.ParseMode(c.Signals.ReducedMotion)
	if err != nil {
		return signal.ModeAuto
	}
	return m
}
