package dock

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/1broseidon/edgedock/internal/anim"
	"github.com/1broseidon/edgedock/internal/geom"
	"github.com/1broseidon/edgedock/internal/platform"
)

// ErrInvalidWindow is returned when a window cannot be docked.
var ErrInvalidWindow = errors.New("invalid window")

// Direction is the screen edge a window is docked against.
type Direction int

const (
	Up Direction = iota
	Right
	Down
	Left
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection parses "up", "right", "down" or "left" (case-insensitive).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "top":
		return Up, nil
	case "right":
		return Right, nil
	case "down", "bottom":
		return Down, nil
	case "left":
		return Left, nil
	}
	return 0, fmt.Errorf("unknown direction %q (want up, right, down or left)", s)
}

// ShowState is the visibility of a docked window.
type ShowState int

const (
	Hidden ShowState = iota
	Peek
	PeekTimeoutDisable
	Visible
)

func (s ShowState) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Peek:
		return "peek"
	case PeekTimeoutDisable:
		return "peek-timeout-disable"
	case Visible:
		return "visible"
	default:
		return fmt.Sprintf("ShowState(%d)", int(s))
	}
}

// Options tunes docker behaviour. Zero fields take the defaults.
type Options struct {
	// Timeout is how long the cursor may be away before the window hides.
	Timeout time.Duration
	// PeekTimeout is how long the cursor may rest in the peek strip before
	// the window hides again.
	PeekTimeout time.Duration
	PeekSize    int
	PeekOpacity float64
	Preset      anim.Preset
	Clock       func() time.Time
	Logger      *slog.Logger
}

// DefaultOptions returns the stock docker tuning.
func DefaultOptions() Options {
	return Options{
		Timeout:     500 * time.Millisecond,
		PeekTimeout: 250 * time.Millisecond,
		PeekSize:    50,
		PeekOpacity: 0.5,
		Preset:      anim.Expo,
		Clock:       time.Now,
		Logger:      slog.New(slog.DiscardHandler),
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Timeout <= 0 {
		o.Timeout = def.Timeout
	}
	if o.PeekTimeout <= 0 {
		o.PeekTimeout = def.PeekTimeout
	}
	if o.PeekSize <= 0 {
		o.PeekSize = def.PeekSize
	}
	if o.PeekOpacity <= 0 || o.PeekOpacity > 1 {
		o.PeekOpacity = def.PeekOpacity
	}
	if o.Preset.Curve == nil {
		o.Preset = def.Preset
	}
	if o.Clock == nil {
		o.Clock = def.Clock
	}
	if o.Logger == nil {
		o.Logger = def.Logger
	}
	return o
}

type event int

const (
	evPeekEnter event = iota
	evPeekHold
	evPeekLeave
	evAwayExpired
	evAwayFresh
)

type action int

const (
	actNone action = iota
	actPeek
	actHide
	actShow
	actRelabel
)

type transition struct {
	next ShowState
	act  action
}

// transitions holds every state change. Pairs that are missing leave the
// docker untouched. PeekTimeoutDisable only ever falls back to Hidden: the
// window is already in its hidden position so only the label changes.
var transitions = map[ShowState]map[event]transition{
	Hidden: {
		evPeekEnter: {Peek, actPeek},
	},
	Peek: {
		evPeekHold:    {PeekTimeoutDisable, actHide},
		evPeekLeave:   {Visible, actShow},
		evAwayExpired: {Hidden, actHide},
	},
	PeekTimeoutDisable: {
		evPeekLeave:   {Hidden, actRelabel},
		evAwayExpired: {Hidden, actHide},
		evAwayFresh:   {Hidden, actRelabel},
	},
	Visible: {
		evAwayExpired: {Hidden, actHide},
	},
}

// Docker pins one window against a screen edge, hiding it when the cursor
// leaves and revealing it when the cursor comes back.
type Docker struct {
	desktop platform.Desktop
	state   *WindowState
	dir     Direction
	opts    Options
	logger  *slog.Logger

	mu        sync.Mutex
	animation *anim.Animation
	show      ShowState
	hidden    geom.Rect
	peek      geom.Rect
	visible   geom.Rect
	lastSeen  time.Time
	peekAt    time.Time
	paused    bool
	undocked  bool
}

// NewDocker prepares win for docking against dir. A maximized window is
// restored in place. The docker does nothing until Start.
func NewDocker(desktop platform.Desktop, reg *anim.Registry, win platform.Window, dir Direction, opts Options) (*Docker, error) {
	if !platform.IsValidTarget(win) {
		return nil, fmt.Errorf("%w: window cannot be docked", ErrInvalidWindow)
	}
	if dir < Up || dir > Left {
		return nil, fmt.Errorf("%w: direction %d", anim.ErrInvalidArgument, int(dir))
	}
	opts = opts.withDefaults()

	a, err := opts.Preset.New(reg)
	if err != nil {
		return nil, fmt.Errorf("dock animation: %w", err)
	}

	state, err := CaptureState(win)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWindow, err)
	}

	if state.WasMaximized {
		r := state.PrevRect
		if err := win.Restore(); err != nil {
			return nil, err
		}
		if err := win.MoveResize(r); err != nil {
			return nil, err
		}
	}

	return &Docker{
		desktop:   desktop,
		state:     state,
		dir:       dir,
		opts:      opts,
		logger:    opts.Logger.With("window_id", win.ID(), "direction", dir.String()),
		animation: a,
		show:      Visible,
	}, nil
}

// Start computes the dock rectangles, slides the window to its visible
// position and pins it on top.
func (d *Docker) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.undocked {
		return fmt.Errorf("%w: docker already undocked", anim.ErrIllegalState)
	}
	if err := d.init(); err != nil {
		return err
	}
	d.logger.Info("window docked", "title", d.state.Window.Title(), "visible", d.visible.String())
	return d.state.Window.SetAlwaysOnTop(true)
}

func (d *Docker) init() error {
	d.show = Visible
	d.paused = false
	d.lastSeen = d.opts.Clock()
	if err := d.computeRects(); err != nil {
		return err
	}
	d.moveTo(d.visible)
	return nil
}

func (d *Docker) computeRects() error {
	r, err := d.state.Window.Rect()
	if err != nil {
		return err
	}

	var bounds geom.Rect
	if d.dir == Up || d.dir == Down {
		bounds, err = d.desktop.MonitorBounds(r)
	} else {
		bounds, err = d.desktop.VirtualScreen()
	}
	if err != nil {
		return err
	}

	area := r.ClampWithin(bounds)
	size := d.opts.PeekSize
	switch d.dir {
	case Up:
		d.hidden = area.WithBottom(bounds.Top() + 1)
		d.peek = area.WithBottom(bounds.Top() + size)
		d.visible = area.WithTop(bounds.Top())
	case Down:
		d.hidden = area.WithTop(bounds.Bottom() - 1)
		d.peek = area.WithTop(bounds.Bottom() - size)
		d.visible = area.WithBottom(bounds.Bottom())
	case Left:
		d.hidden = area.WithRight(bounds.Left() + 1)
		d.peek = area.WithRight(bounds.Left() + size)
		d.visible = area.WithLeft(bounds.Left())
	case Right:
		d.hidden = area.WithLeft(bounds.Right() - 1)
		d.peek = area.WithLeft(bounds.Right() - size)
		d.visible = area.WithRight(bounds.Right())
	}
	return nil
}

func (d *Docker) moveTo(r geom.Rect) {
	if err := d.animation.Start(d.state.Window, r); err != nil {
		d.logger.Debug("dock move failed", "target", r.String(), "error", err)
	}
}

// Update runs one step of the state machine against the current cursor.
func (d *Docker) Update() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.paused || d.undocked {
		return
	}

	win := d.state.Window
	if !win.Exists() {
		d.logger.Debug("docked window disappeared")
		d.undock(false)
		return
	}
	minimized, _ := win.Minimized()
	maximized, _ := win.Maximized()
	if minimized || maximized {
		if err := win.Restore(); err != nil {
			d.logger.Debug("restore docked window failed", "error", err)
		}
	}

	cursor, err := d.desktop.Cursor()
	if err != nil {
		d.logger.Debug("cursor query failed", "error", err)
		return
	}

	now := d.opts.Clock()
	d.fire(d.classify(cursor, now), now)
}

func (d *Docker) classify(cursor geom.Point, now time.Time) event {
	if d.visible.Contains(cursor) {
		d.lastSeen = now
		if !d.peek.Contains(cursor) {
			return evPeekLeave
		}
		if d.show == Peek && now.Sub(d.peekAt) >= d.opts.PeekTimeout {
			return evPeekHold
		}
		return evPeekEnter
	}
	if now.Sub(d.lastSeen) > d.opts.Timeout {
		return evAwayExpired
	}
	return evAwayFresh
}

func (d *Docker) fire(ev event, now time.Time) {
	t, ok := transitions[d.show][ev]
	if !ok {
		return
	}
	d.logger.Debug("dock transition", "from", d.show.String(), "to", t.next.String())

	w := d.state.Window
	switch t.act {
	case actPeek:
		d.conceal(d.peek)
		d.peekAt = now
	case actHide:
		d.conceal(d.hidden)
	case actShow:
		d.logError(w.SetAlwaysOnTop(true))
		if !d.state.WasClickThrough {
			d.logError(w.SetClickThrough(false))
		}
		d.logError(d.state.RestoreOpacity())
		d.moveTo(d.visible)
	}
	d.show = t.next
}

// conceal makes the window a translucent, click-through overlay and slides it to r.
func (d *Docker) conceal(r geom.Rect) {
	w := d.state.Window
	d.logError(w.SetAlwaysOnTop(true))
	d.logError(w.SetClickThrough(true))
	d.logError(w.SetOpacity(d.opts.PeekOpacity))
	d.moveTo(r)
}

func (d *Docker) logError(err error) {
	if err != nil {
		d.logger.Debug("window operation failed", "error", err)
	}
}

// Pause suspends the state machine and stops any dock animation so another
// component can move the window.
func (d *Docker) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.paused = true
	d.animation.Stop()
}

// Resume recomputes the dock rectangles from the window's current position
// and shows it again.
func (d *Docker) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.undocked {
		return nil
	}
	if err := d.init(); err != nil {
		return err
	}
	return d.state.Window.SetAlwaysOnTop(true)
}

// Undock releases the window and restores its captured state. With
// resetPosition a still valid window goes back to its visible rectangle
// first; without it the window is left where it is. Calling Undock again
// does nothing.
func (d *Docker) Undock(resetPosition bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.undock(resetPosition)
}

func (d *Docker) undock(resetPosition bool) error {
	if d.undocked {
		return nil
	}
	d.undocked = true
	d.animation.Stop()

	w := d.state.Window
	if resetPosition && platform.IsValidTarget(w) {
		d.logError(w.MoveResize(d.visible))
	}
	if !resetPosition {
		d.state.ClearRect()
	}
	d.logger.Info("window undocked", "reset_position", resetPosition)

	if !w.Exists() {
		return nil
	}
	return d.state.Restore()
}

func (d *Docker) Window() platform.Window { return d.state.Window }
func (d *Docker) Direction() Direction    { return d.dir }

// State returns the captured pre-dock attributes.
func (d *Docker) State() *WindowState { return d.state }

func (d *Docker) ShowState() ShowState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.show
}

// Rects returns the hidden, peek and visible rectangles.
func (d *Docker) Rects() (hidden, peek, visible geom.Rect) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hidden, d.peek, d.visible
}

func (d *Docker) IsPaused() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.paused
}

func (d *Docker) IsUndocked() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.undocked
}
