// Package drag moves windows by grabbing them anywhere, not only by the title
// bar. A docked window being dragged has its docker paused until the drag ends.
package drag

import (
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/edgedock/internal/geom"
	"github.com/1broseidon/edgedock/internal/platform"
)

const historySize = 3

// DockPauser hands a window over between its docker and the dragger.
type DockPauser interface {
	PauseDock(id platform.WindowID) bool
	ResumeDock(id platform.WindowID) bool
}

// Config holds dragger tuning. Zero fields take the defaults.
type Config struct {
	// Opacity of the window while it is dragged.
	Opacity      float64
	FadeDuration time.Duration
	FadeStep     time.Duration
	// A press turns into a drag once the cursor moved ActivateDistance
	// pixels or was held for ActivateDelay.
	ActivateDistance float64
	ActivateDelay    time.Duration
	Clock            func() time.Time
	Logger           *slog.Logger
}

// DefaultConfig returns the stock dragger tuning.
func DefaultConfig() Config {
	return Config{
		Opacity:          0.5,
		FadeDuration:     300 * time.Millisecond,
		FadeStep:         5 * time.Millisecond,
		ActivateDistance: 100,
		ActivateDelay:    500 * time.Millisecond,
		Clock:            time.Now,
		Logger:           slog.New(slog.DiscardHandler),
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Opacity <= 0 || c.Opacity > 1 {
		c.Opacity = def.Opacity
	}
	if c.FadeDuration <= 0 {
		c.FadeDuration = def.FadeDuration
	}
	if c.FadeStep <= 0 {
		c.FadeStep = def.FadeStep
	}
	if c.ActivateDistance <= 0 {
		c.ActivateDistance = def.ActivateDistance
	}
	if c.ActivateDelay <= 0 {
		c.ActivateDelay = def.ActivateDelay
	}
	if c.Clock == nil {
		c.Clock = def.Clock
	}
	if c.Logger == nil {
		c.Logger = def.Logger
	}
	return c
}

// Dragger tracks one press-drag-release gesture at a time.
type Dragger struct {
	docks DockPauser

	mu             sync.Mutex
	cfg            Config
	win            platform.Window
	dragging       bool
	wasMaximized   bool
	wasAlwaysOnTop bool
	start          geom.Point
	startedAt      time.Time
	offset         geom.Point
	history        []geom.Point
	fadeGen        uint64
	fades          sync.WaitGroup
}

// New creates a dragger. docks may be nil when no docking is in use.
func New(docks DockPauser, cfg Config) *Dragger {
	return &Dragger{docks: docks, cfg: cfg.withDefaults()}
}

// SetConfig replaces the tuning used by the next gesture.
func (d *Dragger) SetConfig(cfg Config) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = cfg.withDefaults()
}

// Begin starts tracking a press on win at cursor. It reports whether win can
// be dragged; for other windows Step and End do nothing.
func (d *Dragger) Begin(win platform.Window, cursor geom.Point) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.win = nil
	d.dragging = false
	if !platform.IsValidTarget(win) {
		return false
	}

	d.win = win
	d.start = cursor
	d.startedAt = d.cfg.Clock()
	d.wasMaximized, _ = win.Maximized()
	d.wasAlwaysOnTop, _ = win.AlwaysOnTop()
	d.history = d.history[:0]
	return true
}

// Step follows the cursor. The window only starts moving once the press has
// turned into a drag.
func (d *Dragger) Step(cursor geom.Point) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.win == nil || !platform.IsValidTarget(d.win) {
		return
	}
	if !d.dragging {
		if !d.shouldActivate(cursor) {
			return
		}
		d.activate(cursor)
	}
	d.follow(cursor)
}

func (d *Dragger) shouldActivate(cursor geom.Point) bool {
	if d.start.Distance(cursor) > d.cfg.ActivateDistance {
		return true
	}
	return d.cfg.Clock().Sub(d.startedAt) > d.cfg.ActivateDelay
}

func (d *Dragger) activate(cursor geom.Point) {
	w := d.win
	if d.docks != nil {
		d.docks.PauseDock(w.ID())
	}
	if d.wasMaximized {
		d.logError(w.Restore())
	}
	if !d.wasAlwaysOnTop {
		d.logError(w.SetAlwaysOnTop(true))
	}

	d.history = append(d.history[:0], cursor)
	if r, err := w.Rect(); err == nil {
		d.offset = r.Center().Sub(cursor)
	} else {
		d.offset = geom.Point{}
	}
	d.dragging = true
	d.cfg.Logger.Debug("drag started", "window_id", w.ID())
	d.fade(w, d.cfg.Opacity)
}

func (d *Dragger) follow(cursor geom.Point) {
	r, err := d.win.Rect()
	if err != nil {
		d.logError(err)
		return
	}
	r = r.WithCenter(cursor.Add(d.offset))
	d.logError(d.win.MoveResize(r))

	d.history = append([]geom.Point{r.Center()}, d.history...)
	if len(d.history) > historySize {
		d.history = d.history[:historySize]
	}
}

// End finishes the gesture: the window becomes opaque again, regains its
// maximized and always-on-top state and is handed back to its docker.
func (d *Dragger) End() {
	d.mu.Lock()
	defer d.mu.Unlock()

	w, dragging := d.win, d.dragging
	d.win = nil
	d.dragging = false
	if w == nil || !dragging {
		return
	}

	if platform.IsValidTarget(w) {
		d.fade(w, 1)
		if d.wasMaximized {
			d.logError(w.Maximize())
		}
		if !d.wasAlwaysOnTop {
			d.logError(w.SetAlwaysOnTop(false))
		}
	}
	d.cfg.Logger.Debug("drag ended", "window_id", w.ID())

	if d.docks != nil {
		d.docks.ResumeDock(w.ID())
	}
}

// Dragging reports whether a press has turned into a drag.
func (d *Dragger) Dragging() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dragging
}

// Velocity is the distance covered over the last few drag steps.
func (d *Dragger) Velocity() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.history) < 2 {
		return 0
	}
	return d.history[0].Distance(d.history[len(d.history)-1])
}

// Wait blocks until every running opacity fade has finished.
func (d *Dragger) Wait() {
	d.fades.Wait()
}

// fade moves the window's opacity to target. A newer fade makes older ones
// exit early; only the newest writes its final value.
func (d *Dragger) fade(w platform.Window, target float64) {
	d.fadeGen++
	gen := d.fadeGen
	duration, step, logger, clock := d.cfg.FadeDuration, d.cfg.FadeStep, d.cfg.Logger, d.cfg.Clock
	began := clock()

	from, err := w.Opacity()
	if err != nil {
		from = 1
	}

	d.fades.Add(1)
	go func() {
		defer d.fades.Done()

		current := func() bool {
			d.mu.Lock()
			defer d.mu.Unlock()
			return d.fadeGen == gen
		}

		ticker := time.NewTicker(step)
		defer ticker.Stop()

		for {
			passed := clock().Sub(began)
			if passed >= duration {
				break
			}
			if !current() {
				return
			}
			t := geom.Percentage(float64(passed), 0, float64(duration))
			if err := w.SetOpacity(geom.Lerp(from, target, t)); err != nil {
				logger.Debug("fade failed", "window_id", w.ID(), "error", err)
			}
			<-ticker.C
		}
		if current() {
			if err := w.SetOpacity(target); err != nil {
				logger.Debug("fade failed", "window_id", w.ID(), "error", err)
			}
		}
	}()
}

func (d *Dragger) logError(err error) {
	if err != nil {
		d.cfg.Logger.Debug("drag window operation failed", "error", err)
	}
}
