package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths are every key of the config file, for example:
//
//	hide_timeout_ms
//	animation
//	animation.curve
//	drag.opacity
//	hotkeys.undock
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("unknown path: %s", path)
	}

	var (
		section map[string]any
		whole   any
	)
	switch parts[0] {
	case "update_interval_ms":
		whole = cfg.UpdateIntervalMS
	case "hide_timeout_ms":
		whole = cfg.HideTimeoutMS
	case "peek_timeout_ms":
		whole = cfg.PeekTimeoutMS
	case "peek_size":
		whole = cfg.PeekSize
	case "peek_opacity":
		whole = cfg.PeekOpacity
	case "log_level":
		whole = cfg.LogLevel
	case "animation":
		whole = cfg.Animation
		section = map[string]any{
			"curve":           cfg.Animation.Curve,
			"duration_ms":     cfg.Animation.DurationMS,
			"speed":           cfg.Animation.Speed,
			"repeat_delay_ms": cfg.Animation.RepeatDelayMS,
		}
	case "drag":
		whole = cfg.Drag
		section = map[string]any{
			"enabled": cfg.Drag.Enabled,
			"button":  cfg.Drag.Button,
			"opacity": cfg.Drag.Opacity,
			"fade_ms": cfg.Drag.FadeMS,
		}
	case "hotkeys":
		whole = cfg.Hotkeys
		section = map[string]any{
			"dock_up":    cfg.Hotkeys.DockUp,
			"dock_down":  cfg.Hotkeys.DockDown,
			"dock_left":  cfg.Hotkeys.DockLeft,
			"dock_right": cfg.Hotkeys.DockRight,
			"undock":     cfg.Hotkeys.Undock,
		}
	default:
		return nil, fmt.Errorf("unknown path: %s", path)
	}

	if len(parts) == 1 {
		return whole, nil
	}
	if section == nil {
		return nil, fmt.Errorf("unknown path: %s", path)
	}
	v, ok := section[parts[1]]
	if !ok {
		return nil, fmt.Errorf("unknown path: %s", path)
	}
	return v, nil
}
