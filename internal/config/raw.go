package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawAnimation struct {
	Curve         *string  `yaml:"curve"`
	DurationMS    *int     `yaml:"duration_ms"`
	Speed         *float64 `yaml:"speed"`
	RepeatDelayMS *int     `yaml:"repeat_delay_ms"`
}

type RawDrag struct {
	Enabled *bool    `yaml:"enabled"`
	Button  *string  `yaml:"button"`
	Opacity *float64 `yaml:"opacity"`
	FadeMS  *int     `yaml:"fade_ms"`
}

type RawHotkeys struct {
	DockUp    *string `yaml:"dock_up"`
	DockDown  *string `yaml:"dock_down"`
	DockLeft  *string `yaml:"dock_left"`
	DockRight *string `yaml:"dock_right"`
	Undock    *string `yaml:"undock"`
}

// RawConfig mirrors Config with optional fields so that unset values can be
// told apart from zero values while merging files.
type RawConfig struct {
	Include          IncludeList   `yaml:"include"`
	UpdateIntervalMS *int          `yaml:"update_interval_ms"`
	HideTimeoutMS    *int          `yaml:"hide_timeout_ms"`
	PeekTimeoutMS    *int          `yaml:"peek_timeout_ms"`
	PeekSize         *int          `yaml:"peek_size"`
	PeekOpacity      *float64      `yaml:"peek_opacity"`
	Animation        *RawAnimation `yaml:"animation"`
	Drag             *RawDrag      `yaml:"drag"`
	Hotkeys          *RawHotkeys   `yaml:"hotkeys"`
	LogLevel         *string       `yaml:"log_level"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.UpdateIntervalMS != nil {
		out.UpdateIntervalMS = overlay.UpdateIntervalMS
	}
	if overlay.HideTimeoutMS != nil {
		out.HideTimeoutMS = overlay.HideTimeoutMS
	}
	if overlay.PeekTimeoutMS != nil {
		out.PeekTimeoutMS = overlay.PeekTimeoutMS
	}
	if overlay.PeekSize != nil {
		out.PeekSize = overlay.PeekSize
	}
	if overlay.PeekOpacity != nil {
		out.PeekOpacity = overlay.PeekOpacity
	}
	if overlay.Animation != nil {
		merged := mergeRawAnimation(out.Animation, *overlay.Animation)
		out.Animation = &merged
	}
	if overlay.Drag != nil {
		merged := mergeRawDrag(out.Drag, *overlay.Drag)
		out.Drag = &merged
	}
	if overlay.Hotkeys != nil {
		merged := mergeRawHotkeys(out.Hotkeys, *overlay.Hotkeys)
		out.Hotkeys = &merged
	}
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	return out
}

func mergeRawAnimation(base *RawAnimation, overlay RawAnimation) RawAnimation {
	var out RawAnimation
	if base != nil {
		out = *base
	}
	if overlay.Curve != nil {
		out.Curve = overlay.Curve
	}
	if overlay.DurationMS != nil {
		out.DurationMS = overlay.DurationMS
	}
	if overlay.Speed != nil {
		out.Speed = overlay.Speed
	}
	if overlay.RepeatDelayMS != nil {
		out.RepeatDelayMS = overlay.RepeatDelayMS
	}
	return out
}

func mergeRawDrag(base *RawDrag, overlay RawDrag) RawDrag {
	var out RawDrag
	if base != nil {
		out = *base
	}
	if overlay.Enabled != nil {
		out.Enabled = overlay.Enabled
	}
	if overlay.Button != nil {
		out.Button = overlay.Button
	}
	if overlay.Opacity != nil {
		out.Opacity = overlay.Opacity
	}
	if overlay.FadeMS != nil {
		out.FadeMS = overlay.FadeMS
	}
	return out
}

func mergeRawHotkeys(base *RawHotkeys, overlay RawHotkeys) RawHotkeys {
	var out RawHotkeys
	if base != nil {
		out = *base
	}
	if overlay.DockUp != nil {
		out.DockUp = overlay.DockUp
	}
	if overlay.DockDown != nil {
		out.DockDown = overlay.DockDown
	}
	if overlay.DockLeft != nil {
		out.DockLeft = overlay.DockLeft
	}
	if overlay.DockRight != nil {
		out.DockRight = overlay.DockRight
	}
	if overlay.Undock != nil {
		out.Undock = overlay.Undock
	}
	return out
}
