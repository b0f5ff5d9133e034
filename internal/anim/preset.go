package anim

import (
	"fmt"
	"time"

	"github.com/1broseidon/edgedock/internal/geom"
)

// DefaultRepeatDelay is the tick interval used when a preset does not set one.
const DefaultRepeatDelay = 5 * time.Millisecond

// Preset is the reusable configuration of an animation. Exactly one of
// Duration (time-based) or Speed (distance-based, pixels per second) is set.
type Preset struct {
	Curve       geom.Curve
	Duration    time.Duration
	Speed       float64
	RepeatDelay time.Duration
}

var (
	// Expo eases out exponentially over 500ms.
	Expo = Preset{Curve: geom.ExpoOut, Duration: 500 * time.Millisecond}
	// ExpoSlow eases out exponentially over one second.
	ExpoSlow = Preset{Curve: geom.ExpoOut, Duration: time.Second}
	// Bounce bounces into place over 750ms.
	Bounce = Preset{Curve: geom.Bounce, Duration: 750 * time.Millisecond}
)

// NewTimePreset returns a time-based preset. A zero duration becomes 1ms.
func NewTimePreset(curve geom.Curve, d time.Duration) (Preset, error) {
	if curve == nil {
		return Preset{}, fmt.Errorf("%w: curve is nil", ErrInvalidArgument)
	}
	if d < 0 {
		return Preset{}, fmt.Errorf("%w: duration %s is negative", ErrInvalidArgument, d)
	}
	if d == 0 {
		d = time.Millisecond
	}
	return Preset{Curve: curve, Duration: d}, nil
}

// NewSpeedPreset returns a distance-based preset moving pxPerSecond.
func NewSpeedPreset(curve geom.Curve, pxPerSecond float64) (Preset, error) {
	if curve == nil {
		return Preset{}, fmt.Errorf("%w: curve is nil", ErrInvalidArgument)
	}
	if !(pxPerSecond > 0) {
		return Preset{}, fmt.Errorf("%w: speed must be positive, got %v", ErrInvalidArgument, pxPerSecond)
	}
	return Preset{Curve: curve, Speed: pxPerSecond}, nil
}

// WithRepeatDelay returns a copy of p ticking every d.
func (p Preset) WithRepeatDelay(d time.Duration) Preset {
	p.RepeatDelay = d
	return p
}

// TimeBased reports whether progress is driven by elapsed time.
func (p Preset) TimeBased() bool {
	return p.Speed == 0
}

// Validate checks that p can build an animation.
func (p Preset) Validate() error {
	if p.Curve == nil {
		return fmt.Errorf("%w: curve is nil", ErrInvalidArgument)
	}
	if p.RepeatDelay < 0 {
		return fmt.Errorf("%w: repeat delay %s is negative", ErrInvalidArgument, p.RepeatDelay)
	}
	if p.TimeBased() {
		if p.Duration < 0 {
			return fmt.Errorf("%w: duration %s is negative", ErrInvalidArgument, p.Duration)
		}
		return nil
	}
	if p.Duration != 0 {
		return fmt.Errorf("%w: duration and speed are mutually exclusive", ErrInvalidArgument)
	}
	if !(p.Speed > 0) {
		return fmt.Errorf("%w: speed must be positive, got %v", ErrInvalidArgument, p.Speed)
	}
	return nil
}

// New builds a fresh idle animation from p, issuing its id from reg.
func (p Preset) New(reg *Registry) (*Animation, error) {
	if reg == nil {
		return nil, fmt.Errorf("%w: registry is nil", ErrInvalidArgument)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.TimeBased() && p.Duration == 0 {
		p.Duration = time.Millisecond
	}
	if p.RepeatDelay == 0 {
		p.RepeatDelay = DefaultRepeatDelay
	}
	return &Animation{
		id:       reg.NextID(),
		registry: reg,
		preset:   p,
		now:      time.Now,
		initial:  geom.UnsetRect,
		current:  geom.UnsetRect,
		target:   geom.UnsetRect,
	}, nil
}
