package anim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/1broseidon/edgedock/internal/geom"
	"github.com/1broseidon/edgedock/internal/platform"
)

var (
	// ErrIllegalState is returned when an animation running on one window is
	// started on another.
	ErrIllegalState = errors.New("illegal animation state")
	// ErrInvalidArgument is returned for unusable presets and arguments.
	ErrInvalidArgument = errors.New("invalid argument")
)

// State is the lifecycle state of an animation.
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var closedDone = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Animation interpolates a window's rectangle towards a target along a curve.
// An Animation may be restarted; each Start begins a new run with its own
// generation and done channel, and older runs exit on their next tick.
type Animation struct {
	id       uint64
	registry *Registry
	preset   Preset
	now      func() time.Time

	mu         sync.Mutex
	window     platform.Window
	initial    geom.Rect
	current    geom.Rect
	target     geom.Rect
	distance   float64
	progress   float64
	state      State
	generation uint64
	startedAt  time.Time
	lastTick   time.Time
	done       chan struct{}
}

func (a *Animation) ID() uint64     { return a.id }
func (a *Animation) Preset() Preset { return a.preset }

// Window returns the window of the current or last run, or nil.
func (a *Animation) Window() platform.Window {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.window
}

func (a *Animation) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Animation) Running() bool {
	return a.State() == Running
}

// Progress is the linear progress of the current run in [0, 1].
func (a *Animation) Progress() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.progress
}

// Generation counts how many times the animation has been started.
func (a *Animation) Generation() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.generation
}

// Rects returns the initial, current and target rectangles of the current run.
func (a *Animation) Rects() (initial, current, target geom.Rect) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.initial, a.current, a.target
}

// StartedAt returns when the current run began.
func (a *Animation) StartedAt() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.startedAt
}

// Start moves win towards target. Starting while running on the same window
// retargets the animation from the window's current position; starting while
// running on a different window fails with ErrIllegalState.
func (a *Animation) Start(win platform.Window, target geom.Rect) error {
	if win == nil {
		return fmt.Errorf("%w: window is nil", ErrInvalidArgument)
	}

	a.mu.Lock()
	if a.state == Running && a.window != nil && a.window.ID() != win.ID() {
		running := a.window.ID()
		a.mu.Unlock()
		return fmt.Errorf("%w: animation %d is running on window %d, cannot start on window %d",
			ErrIllegalState, a.id, running, win.ID())
	}

	initial, err := win.Rect()
	if err != nil {
		a.mu.Unlock()
		return fmt.Errorf("start animation %d: %w", a.id, err)
	}

	now := a.now()
	prev := a.window
	a.window = win
	a.target = target
	a.initial = initial
	a.current = initial
	a.distance = target.Sub(initial).Magnitude()
	a.progress = 0
	a.state = Running
	a.generation++
	a.startedAt = now
	a.lastTick = now
	a.done = make(chan struct{})
	gen, done := a.generation, a.done
	a.mu.Unlock()

	// A stopped run on another window exits as superseded and never
	// deregisters itself.
	if prev != nil && prev.ID() != win.ID() {
		a.registry.Remove(prev.ID(), a)
	}

	// Registered before the loop starts so a fast run cannot deregister first.
	if err := a.registry.Add(win.ID(), a); err != nil {
		a.mu.Lock()
		if a.generation == gen {
			a.state = Idle
		}
		a.mu.Unlock()
		close(done)
		return err
	}

	go a.run(gen, done)
	return nil
}

func (a *Animation) run(gen uint64, done chan struct{}) {
	ticker := time.NewTicker(a.preset.RepeatDelay)
	defer ticker.Stop()

	for range ticker.C {
		if !a.step(gen) {
			break
		}
	}
	a.finish(gen, done)
}

// step advances the run one tick. It reports whether the run continues.
func (a *Animation) step(gen uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if gen != a.generation || a.state != Running {
		return false
	}

	now := a.now()
	dt := now.Sub(a.lastTick)
	a.lastTick = now

	if a.preset.TimeBased() {
		a.progress += float64(dt) / float64(a.preset.Duration)
	} else if a.distance == 0 {
		a.progress = 1
	} else {
		a.progress += a.preset.Speed * dt.Seconds() / a.distance
	}
	a.progress = geom.Clamp01(a.progress)

	a.current = geom.LerpRect(a.initial, a.target, a.preset.Curve(a.progress))
	if err := a.window.MoveResize(a.current); err != nil {
		a.registry.logger.Debug("animation move failed", "animation", a.id, "window_id", a.window.ID(), "error", err)
	}

	if a.progress >= 1 {
		a.state = Idle
		return false
	}
	return true
}

// finish deregisters the run if it is still the current one and resolves its
// done channel. Superseded runs only resolve their own channel.
func (a *Animation) finish(gen uint64, done chan struct{}) {
	defer close(done)

	a.mu.Lock()
	current := gen == a.generation
	win := a.window
	a.mu.Unlock()
	if !current {
		return
	}

	a.registry.Remove(win.ID(), a)

	// A restart may have re-registered between the check and the removal.
	a.mu.Lock()
	restarted := a.generation != gen && a.state == Running && a.window != nil
	var rewin platform.Window
	if restarted {
		rewin = a.window
	}
	a.mu.Unlock()
	if restarted {
		_ = a.registry.Add(rewin.ID(), a)
	}
}

// Stop ends the current run where it is. The loop exits on its next tick.
func (a *Animation) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = Idle
}

// Cancel stops the run and moves the window back to its initial rectangle.
func (a *Animation) Cancel() {
	a.snap(func() geom.Rect { return a.initial })
}

// Skip stops the run and moves the window straight to the target.
func (a *Animation) Skip() {
	a.snap(func() geom.Rect { return a.target })
}

func (a *Animation) snap(to func() geom.Rect) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != Running {
		return
	}
	a.state = Idle
	a.current = to()
	if err := a.window.MoveResize(a.current); err != nil {
		a.registry.logger.Debug("animation snap failed", "animation", a.id, "window_id", a.window.ID(), "error", err)
	}
}

// WaitForStop returns a channel closed once the current run has exited and
// deregistered. The channel is already closed when no run was ever started.
func (a *Animation) WaitForStop() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done == nil {
		return closedDone
	}
	return a.done
}

// Wait blocks until the current run exits or ctx is done.
func (a *Animation) Wait(ctx context.Context) error {
	select {
	case <-a.WaitForStop():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Copy returns a fresh idle animation with the same configuration and a new id.
func (a *Animation) Copy() *Animation {
	return &Animation{
		id:       a.registry.NextID(),
		registry: a.registry,
		preset:   a.preset,
		now:      a.now,
		initial:  geom.UnsetRect,
		current:  geom.UnsetRect,
		target:   geom.UnsetRect,
	}
}

// Move animates win to target with a new animation built from p and waits for
// it to finish. If ctx ends first the animation is stopped.
func Move(ctx context.Context, reg *Registry, p Preset, win platform.Window, target geom.Rect) error {
	a, err := p.New(reg)
	if err != nil {
		return err
	}
	if err := a.Start(win, target); err != nil {
		return err
	}
	if err := a.Wait(ctx); err != nil {
		a.Stop()
		return err
	}
	return nil
}
