package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/1broseidon/edgedock/internal/anim"
	"github.com/1broseidon/edgedock/internal/geom"
)

// AnimationConfig selects the curve and pacing of dock animations.
type AnimationConfig struct {
	Curve string `yaml:"curve"`
	// DurationMS makes animations time-based. Ignored when Speed is set.
	DurationMS int `yaml:"duration_ms"`
	// Speed in pixels per second makes animations distance-based.
	Speed         float64 `yaml:"speed"`
	RepeatDelayMS int     `yaml:"repeat_delay_ms"`
}

// DragConfig configures grab-anywhere window dragging.
type DragConfig struct {
	Enabled bool `yaml:"enabled"`
	// Button is an xgbutil mouse binding, e.g. "Mod4-1".
	Button  string  `yaml:"button"`
	Opacity float64 `yaml:"opacity"`
	FadeMS  int     `yaml:"fade_ms"`
}

// HotkeysConfig holds xgbutil key bindings. An empty binding is not grabbed.
type HotkeysConfig struct {
	DockUp    string `yaml:"dock_up"`
	DockDown  string `yaml:"dock_down"`
	DockLeft  string `yaml:"dock_left"`
	DockRight string `yaml:"dock_right"`
	Undock    string `yaml:"undock"`
}

// Config represents the edgedock configuration.
type Config struct {
	UpdateIntervalMS int             `yaml:"update_interval_ms"`
	HideTimeoutMS    int             `yaml:"hide_timeout_ms"`
	PeekTimeoutMS    int             `yaml:"peek_timeout_ms"`
	PeekSize         int             `yaml:"peek_size"`
	PeekOpacity      float64         `yaml:"peek_opacity"`
	Animation        AnimationConfig `yaml:"animation"`
	Drag             DragConfig      `yaml:"drag"`
	Hotkeys          HotkeysConfig   `yaml:"hotkeys"`
	LogLevel         string          `yaml:"log_level"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		UpdateIntervalMS: 50,
		HideTimeoutMS:    500,
		PeekTimeoutMS:    250,
		PeekSize:         50,
		PeekOpacity:      0.5,
		Animation: AnimationConfig{
			Curve:         "expo",
			DurationMS:    500,
			RepeatDelayMS: 5,
		},
		Drag: DragConfig{
			Enabled: true,
			Button:  "Mod4-1",
			Opacity: 0.5,
			FadeMS:  300,
		},
		Hotkeys: HotkeysConfig{
			DockUp:    "Mod4-Control-Up",
			DockDown:  "Mod4-Control-Down",
			DockLeft:  "Mod4-Control-Left",
			DockRight: "Mod4-Control-Right",
			Undock:    "Mod4-Control-BackSpace",
		},
		LogLevel: "info",
	}
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func (c *Config) UpdateInterval() time.Duration { return ms(c.UpdateIntervalMS) }
func (c *Config) HideTimeout() time.Duration    { return ms(c.HideTimeoutMS) }
func (c *Config) PeekTimeout() time.Duration    { return ms(c.PeekTimeoutMS) }
func (c *Config) DragFade() time.Duration       { return ms(c.Drag.FadeMS) }

// AnimationPreset builds the animation preset described by the config.
func (c *Config) AnimationPreset() (anim.Preset, error) {
	curve, err := geom.CurveByName(c.Animation.Curve)
	if err != nil {
		return anim.Preset{}, err
	}

	var p anim.Preset
	if c.Animation.Speed > 0 {
		p, err = anim.NewSpeedPreset(curve, c.Animation.Speed)
	} else {
		p, err = anim.NewTimePreset(curve, ms(c.Animation.DurationMS))
	}
	if err != nil {
		return anim.Preset{}, err
	}
	return p.WithRepeatDelay(ms(c.Animation.RepeatDelayMS)), nil
}

// SlogLevel maps log_level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.UpdateIntervalMS <= 0 {
		return &ValidationError{Path: "update_interval_ms", Err: fmt.Errorf("must be > 0")}
	}
	if c.HideTimeoutMS <= 0 {
		return &ValidationError{Path: "hide_timeout_ms", Err: fmt.Errorf("must be > 0")}
	}
	if c.PeekTimeoutMS <= 0 {
		return &ValidationError{Path: "peek_timeout_ms", Err: fmt.Errorf("must be > 0")}
	}
	if c.PeekSize <= 1 {
		return &ValidationError{Path: "peek_size", Err: fmt.Errorf("must be > 1")}
	}
	if c.PeekOpacity <= 0 || c.PeekOpacity > 1 {
		return &ValidationError{Path: "peek_opacity", Err: fmt.Errorf("must be in (0, 1]")}
	}

	if _, err := geom.CurveByName(c.Animation.Curve); err != nil {
		return &ValidationError{Path: "animation.curve", Err: fmt.Errorf("must be one of %s", strings.Join(geom.CurveNames(), ", "))}
	}
	if c.Animation.Speed < 0 {
		return &ValidationError{Path: "animation.speed", Err: fmt.Errorf("must be >= 0")}
	}
	if c.Animation.Speed == 0 && c.Animation.DurationMS < 0 {
		return &ValidationError{Path: "animation.duration_ms", Err: fmt.Errorf("must be >= 0")}
	}
	if c.Animation.RepeatDelayMS <= 0 {
		return &ValidationError{Path: "animation.repeat_delay_ms", Err: fmt.Errorf("must be > 0")}
	}

	if c.Drag.Opacity <= 0 || c.Drag.Opacity > 1 {
		return &ValidationError{Path: "drag.opacity", Err: fmt.Errorf("must be in (0, 1]")}
	}
	if c.Drag.FadeMS <= 0 {
		return &ValidationError{Path: "drag.fade_ms", Err: fmt.Errorf("must be > 0")}
	}
	if c.Drag.Enabled && strings.TrimSpace(c.Drag.Button) == "" {
		return &ValidationError{Path: "drag.button", Err: fmt.Errorf("must be set when drag is enabled")}
	}

	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("must be one of debug, info, warn, error")}
	}
	return nil
}
