package config

import "fmt"

// ValidationError ties a config error to the YAML path, and when known the
// file position, that produced it.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BuildEffectiveConfig overlays the set fields of raw on the defaults.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.UpdateIntervalMS != nil {
		cfg.UpdateIntervalMS = *raw.UpdateIntervalMS
	}
	if raw.HideTimeoutMS != nil {
		cfg.HideTimeoutMS = *raw.HideTimeoutMS
	}
	if raw.PeekTimeoutMS != nil {
		cfg.PeekTimeoutMS = *raw.PeekTimeoutMS
	}
	if raw.PeekSize != nil {
		cfg.PeekSize = *raw.PeekSize
	}
	if raw.PeekOpacity != nil {
		cfg.PeekOpacity = *raw.PeekOpacity
	}

	if a := raw.Animation; a != nil {
		if a.Curve != nil {
			cfg.Animation.Curve = *a.Curve
		}
		if a.DurationMS != nil {
			cfg.Animation.DurationMS = *a.DurationMS
		}
		if a.Speed != nil {
			cfg.Animation.Speed = *a.Speed
		}
		if a.RepeatDelayMS != nil {
			cfg.Animation.RepeatDelayMS = *a.RepeatDelayMS
		}
		if a.Speed != nil && *a.Speed > 0 && a.DurationMS != nil && *a.DurationMS > 0 {
			return nil, &ValidationError{Path: "animation.speed", Err: fmt.Errorf("cannot be combined with animation.duration_ms")}
		}
	}

	if d := raw.Drag; d != nil {
		if d.Enabled != nil {
			cfg.Drag.Enabled = *d.Enabled
		}
		if d.Button != nil {
			cfg.Drag.Button = *d.Button
		}
		if d.Opacity != nil {
			cfg.Drag.Opacity = *d.Opacity
		}
		if d.FadeMS != nil {
			cfg.Drag.FadeMS = *d.FadeMS
		}
	}

	if h := raw.Hotkeys; h != nil {
		if h.DockUp != nil {
			cfg.Hotkeys.DockUp = *h.DockUp
		}
		if h.DockDown != nil {
			cfg.Hotkeys.DockDown = *h.DockDown
		}
		if h.DockLeft != nil {
			cfg.Hotkeys.DockLeft = *h.DockLeft
		}
		if h.DockRight != nil {
			cfg.Hotkeys.DockRight = *h.DockRight
		}
		if h.Undock != nil {
			cfg.Hotkeys.Undock = *h.Undock
		}
	}

	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	return cfg, nil
}
