package dock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/edgedock/internal/anim"
	"github.com/1broseidon/edgedock/internal/geom"
	"github.com/1broseidon/edgedock/internal/platform"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var startRect = geom.Rect{X: 100, Y: 200, Width: 400, Height: 300}

func testOptions(c *fakeClock) Options {
	return Options{
		Preset: anim.Preset{Curve: geom.Linear, Duration: time.Millisecond, RepeatDelay: time.Millisecond},
		Clock:  c.Now,
	}
}

func newTestDesktop() (*platform.MemoryDesktop, *platform.MemoryWindow) {
	desktop := platform.NewMemoryDesktop()
	win := desktop.AddWindow(platform.NewMemoryWindow(1, "term", startRect))
	return desktop, win
}

func startDocker(t *testing.T, desktop *platform.MemoryDesktop, win platform.Window, dir Direction, c *fakeClock) *Docker {
	t.Helper()
	d, err := NewDocker(desktop, anim.NewRegistry(nil), win, dir, testOptions(c))
	if err != nil {
		t.Fatalf("NewDocker: %v", err)
	}
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	settle(t, d)
	return d
}

// settle waits for the docker's current move to finish.
func settle(t *testing.T, d *Docker) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.animation.Wait(ctx); err != nil {
		t.Fatalf("dock animation did not finish: %v", err)
	}
}

func rectOf(t *testing.T, w platform.Window) geom.Rect {
	t.Helper()
	r, err := w.Rect()
	if err != nil {
		t.Fatalf("Rect: %v", err)
	}
	return r
}

func hideDocker(t *testing.T, desktop *platform.MemoryDesktop, d *Docker, c *fakeClock) {
	t.Helper()
	desktop.SetCursor(geom.Point{X: 1500, Y: 900})
	c.Advance(501 * time.Millisecond)
	d.Update()
	settle(t, d)
	if got := d.ShowState(); got != Hidden {
		t.Fatalf("state = %v, want hidden", got)
	}
}

func TestDockerRects(t *testing.T) {
	tests := []struct {
		dir                   Direction
		hidden, peek, visible geom.Rect
	}{
		{Up,
			geom.Rect{X: 100, Y: -299, Width: 400, Height: 300},
			geom.Rect{X: 100, Y: -250, Width: 400, Height: 300},
			geom.Rect{X: 100, Y: 0, Width: 400, Height: 300}},
		{Down,
			geom.Rect{X: 100, Y: 1079, Width: 400, Height: 300},
			geom.Rect{X: 100, Y: 1030, Width: 400, Height: 300},
			geom.Rect{X: 100, Y: 780, Width: 400, Height: 300}},
		{Left,
			geom.Rect{X: -399, Y: 200, Width: 400, Height: 300},
			geom.Rect{X: -350, Y: 200, Width: 400, Height: 300},
			geom.Rect{X: 0, Y: 200, Width: 400, Height: 300}},
		{Right,
			geom.Rect{X: 1919, Y: 200, Width: 400, Height: 300},
			geom.Rect{X: 1870, Y: 200, Width: 400, Height: 300},
			geom.Rect{X: 1520, Y: 200, Width: 400, Height: 300}},
	}

	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			desktop, win := newTestDesktop()
			d := startDocker(t, desktop, win, tt.dir, newFakeClock())

			hidden, peek, visible := d.Rects()
			if hidden != tt.hidden || peek != tt.peek || visible != tt.visible {
				t.Fatalf("rects = %v %v %v, want %v %v %v", hidden, peek, visible, tt.hidden, tt.peek, tt.visible)
			}
			if got := rectOf(t, win); got != tt.visible {
				t.Fatalf("window at %v after start, want %v", got, tt.visible)
			}
			if d.ShowState() != Visible {
				t.Fatalf("initial state = %v", d.ShowState())
			}
			if top, _ := win.AlwaysOnTop(); !top {
				t.Fatal("docked window is not always-on-top")
			}
		})
	}
}

func TestDockerHidesAfterTimeout(t *testing.T) {
	c := newFakeClock()
	desktop, win := newTestDesktop()
	d := startDocker(t, desktop, win, Up, c)

	desktop.SetCursor(geom.Point{X: 300, Y: 100})
	d.Update()

	desktop.SetCursor(geom.Point{X: 1500, Y: 900})
	moves := win.MoveCount()

	c.Advance(499 * time.Millisecond)
	d.Update()
	settle(t, d)
	if got := d.ShowState(); got != Visible {
		t.Fatalf("state at 499ms = %v, want visible", got)
	}
	if win.MoveCount() != moves {
		t.Fatal("window moved before the timeout")
	}

	c.Advance(2 * time.Millisecond)
	d.Update()
	settle(t, d)
	if got := d.ShowState(); got != Hidden {
		t.Fatalf("state at 501ms = %v, want hidden", got)
	}
	hidden, _, _ := d.Rects()
	if got := rectOf(t, win); got != hidden {
		t.Fatalf("window at %v, want hidden %v", got, hidden)
	}
	if op, _ := win.Opacity(); op != 0.5 {
		t.Fatalf("opacity = %v, want 0.5", op)
	}
	if ct, _ := win.ClickThrough(); !ct {
		t.Fatal("hidden window is not click-through")
	}
}

func TestDockerPeekTimeout(t *testing.T) {
	c := newFakeClock()
	desktop, win := newTestDesktop()
	d := startDocker(t, desktop, win, Up, c)
	hideDocker(t, desktop, d, c)
	hidden, peek, _ := d.Rects()

	desktop.SetCursor(geom.Point{X: 300, Y: 10})
	d.Update()
	settle(t, d)
	if got := d.ShowState(); got != Peek {
		t.Fatalf("state = %v, want peek", got)
	}
	if got := rectOf(t, win); got != peek {
		t.Fatalf("window at %v, want peek %v", got, peek)
	}

	c.Advance(249 * time.Millisecond)
	d.Update()
	if got := d.ShowState(); got != Peek {
		t.Fatalf("state before peek timeout = %v, want peek", got)
	}

	c.Advance(time.Millisecond)
	d.Update()
	settle(t, d)
	if got := d.ShowState(); got != PeekTimeoutDisable {
		t.Fatalf("state = %v, want peek-timeout-disable", got)
	}
	if got := rectOf(t, win); got != hidden {
		t.Fatalf("window at %v, want hidden %v", got, hidden)
	}

	moves := win.MoveCount()
	desktop.SetCursor(geom.Point{X: 300, Y: 100})
	d.Update()
	settle(t, d)
	if got := d.ShowState(); got != Hidden {
		t.Fatalf("state = %v, want hidden", got)
	}
	if win.MoveCount() != moves {
		t.Fatal("demotion to hidden moved the window")
	}
}

func TestDockerPeekThenReveal(t *testing.T) {
	c := newFakeClock()
	desktop, win := newTestDesktop()
	d := startDocker(t, desktop, win, Up, c)
	hideDocker(t, desktop, d, c)

	desktop.SetCursor(geom.Point{X: 300, Y: 10})
	d.Update()
	settle(t, d)

	desktop.SetCursor(geom.Point{X: 300, Y: 120})
	c.Advance(100 * time.Millisecond)
	d.Update()
	settle(t, d)

	if got := d.ShowState(); got != Visible {
		t.Fatalf("state = %v, want visible", got)
	}
	_, _, visible := d.Rects()
	if got := rectOf(t, win); got != visible {
		t.Fatalf("window at %v, want visible %v", got, visible)
	}
	if op, _ := win.Opacity(); op != 1 {
		t.Fatalf("opacity = %v, want 1", op)
	}
	if ct, _ := win.ClickThrough(); ct {
		t.Fatal("revealed window is still click-through")
	}
}

func TestDockerPeekTimeoutDisableRelabelsWhenCursorAway(t *testing.T) {
	c := newFakeClock()
	desktop, win := newTestDesktop()
	d := startDocker(t, desktop, win, Up, c)
	hideDocker(t, desktop, d, c)

	desktop.SetCursor(geom.Point{X: 300, Y: 10})
	d.Update()
	c.Advance(300 * time.Millisecond)
	d.Update()
	settle(t, d)
	if got := d.ShowState(); got != PeekTimeoutDisable {
		t.Fatalf("state = %v, want peek-timeout-disable", got)
	}

	moves := win.MoveCount()
	desktop.SetCursor(geom.Point{X: 1500, Y: 900})
	c.Advance(100 * time.Millisecond)
	d.Update()
	settle(t, d)
	if got := d.ShowState(); got != Hidden {
		t.Fatalf("state = %v, want hidden", got)
	}
	if win.MoveCount() != moves {
		t.Fatal("relabel moved the window")
	}
}

func TestDockerRestoresStateForAllDirections(t *testing.T) {
	for _, dir := range []Direction{Up, Right, Down, Left} {
		t.Run(dir.String(), func(t *testing.T) {
			c := newFakeClock()
			desktop, win := newTestDesktop()
			_ = win.SetOpacity(0.8)

			d := startDocker(t, desktop, win, dir, c)
			hideDocker(t, desktop, d, c)

			if err := d.Undock(true); err != nil {
				t.Fatalf("Undock: %v", err)
			}

			if top, _ := win.AlwaysOnTop(); top {
				t.Fatal("always-on-top not restored")
			}
			if ct, _ := win.ClickThrough(); ct {
				t.Fatal("click-through not restored")
			}
			if op, _ := win.Opacity(); op != 0.8 {
				t.Fatalf("opacity = %v, want 0.8", op)
			}
			if mx, _ := win.Maximized(); mx {
				t.Fatal("window became maximized")
			}
			if mn, _ := win.Minimized(); mn {
				t.Fatal("window became minimized")
			}
			if got := rectOf(t, win); got != startRect {
				t.Fatalf("window at %v, want %v", got, startRect)
			}
		})
	}
}

func TestDockerRestoresMaximizedAndClickThrough(t *testing.T) {
	c := newFakeClock()
	desktop, win := newTestDesktop()
	_ = win.Maximize()
	_ = win.SetClickThrough(true)
	_ = win.SetAlwaysOnTop(true)

	d := startDocker(t, desktop, win, Left, c)
	if mx, _ := win.Maximized(); mx {
		t.Fatal("docking did not restore the maximized window")
	}
	hideDocker(t, desktop, d, c)

	if err := d.Undock(true); err != nil {
		t.Fatalf("Undock: %v", err)
	}
	if mx, _ := win.Maximized(); !mx {
		t.Fatal("maximized state not restored")
	}
	if ct, _ := win.ClickThrough(); !ct {
		t.Fatal("click-through not restored")
	}
	if top, _ := win.AlwaysOnTop(); !top {
		t.Fatal("always-on-top not restored")
	}
}

func TestDockerUndockIsIdempotent(t *testing.T) {
	c := newFakeClock()
	desktop, win := newTestDesktop()
	d := startDocker(t, desktop, win, Down, c)
	hideDocker(t, desktop, d, c)

	if err := d.Undock(true); err != nil {
		t.Fatalf("Undock: %v", err)
	}
	snapshot := func() (geom.Rect, float64, bool, bool, int) {
		op, _ := win.Opacity()
		top, _ := win.AlwaysOnTop()
		ct, _ := win.ClickThrough()
		return rectOf(t, win), op, top, ct, win.MoveCount()
	}
	r1, op1, top1, ct1, n1 := snapshot()

	if err := d.Undock(true); err != nil {
		t.Fatalf("second Undock: %v", err)
	}
	if err := d.Undock(false); err != nil {
		t.Fatalf("third Undock: %v", err)
	}
	r2, op2, top2, ct2, n2 := snapshot()

	if r1 != r2 || op1 != op2 || top1 != top2 || ct1 != ct2 || n1 != n2 {
		t.Fatalf("state changed on repeated undock: %v/%v %v/%v %v/%v %v/%v %d/%d",
			r1, r2, op1, op2, top1, top2, ct1, ct2, n1, n2)
	}
	if !d.IsUndocked() {
		t.Fatal("docker not marked undocked")
	}
}

func TestDockerUndockWithoutResetKeepsPosition(t *testing.T) {
	c := newFakeClock()
	desktop, win := newTestDesktop()
	d := startDocker(t, desktop, win, Up, c)
	hideDocker(t, desktop, d, c)
	hidden, _, _ := d.Rects()

	if err := d.Undock(false); err != nil {
		t.Fatalf("Undock: %v", err)
	}
	if got := rectOf(t, win); got != hidden {
		t.Fatalf("window at %v, want it left at %v", got, hidden)
	}
	if op, _ := win.Opacity(); op != 1 {
		t.Fatalf("opacity = %v, want 1", op)
	}
}

func TestDockerUndocksWhenWindowDisappears(t *testing.T) {
	c := newFakeClock()
	desktop, win := newTestDesktop()
	d := startDocker(t, desktop, win, Up, c)

	win.Destroy()
	d.Update()
	if !d.IsUndocked() {
		t.Fatal("docker still docked after its window disappeared")
	}
}

func TestDockerRestoresExternallyMinimizedWindow(t *testing.T) {
	c := newFakeClock()
	desktop, win := newTestDesktop()
	d := startDocker(t, desktop, win, Up, c)

	_ = win.Minimize()
	d.Update()
	if mn, _ := win.Minimized(); mn {
		t.Fatal("minimized docked window was not restored")
	}
}

func TestDockerPauseAndResume(t *testing.T) {
	c := newFakeClock()
	desktop, win := newTestDesktop()
	d := startDocker(t, desktop, win, Up, c)

	d.Pause()
	desktop.SetCursor(geom.Point{X: 1500, Y: 900})
	c.Advance(time.Second)
	d.Update()
	if got := d.ShowState(); got != Visible {
		t.Fatalf("paused docker changed state to %v", got)
	}
	if !d.IsPaused() {
		t.Fatal("IsPaused = false")
	}

	// The window was dragged elsewhere while paused.
	_ = win.MoveResize(geom.Rect{X: 900, Y: 500, Width: 400, Height: 300})
	if err := d.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	settle(t, d)

	if d.IsPaused() || d.ShowState() != Visible {
		t.Fatalf("after resume paused=%v state=%v", d.IsPaused(), d.ShowState())
	}
	_, _, visible := d.Rects()
	if want := (geom.Rect{X: 900, Y: 0, Width: 400, Height: 300}); visible != want {
		t.Fatalf("visible = %v, want %v", visible, want)
	}
	if got := rectOf(t, win); got != visible {
		t.Fatalf("window at %v, want %v", got, visible)
	}
}

func TestNewDockerRejectsInvalidWindows(t *testing.T) {
	desktop, win := newTestDesktop()
	win.SetValid(false)

	_, err := NewDocker(desktop, anim.NewRegistry(nil), win, Up, testOptions(newFakeClock()))
	if !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
	if _, err := NewDocker(desktop, anim.NewRegistry(nil), nil, Up, Options{}); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("nil window: expected ErrInvalidWindow, got %v", err)
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{"up", Up, false},
		{"Right", Right, false},
		{" down ", Down, false},
		{"LEFT", Left, false},
		{"top", Up, false},
		{"sideways", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDirection(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseDirection(%q) err = %v", tt.in, err)
		}
		if !tt.wantErr && got != tt.want {
			t.Fatalf("ParseDirection(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from ShowState
		ev   event
		want transition
		ok   bool
	}{
		{Hidden, evPeekEnter, transition{Peek, actPeek}, true},
		{Hidden, evAwayExpired, transition{}, false},
		{Peek, evPeekEnter, transition{}, false},
		{Peek, evPeekHold, transition{PeekTimeoutDisable, actHide}, true},
		{Peek, evPeekLeave, transition{Visible, actShow}, true},
		{PeekTimeoutDisable, evPeekLeave, transition{Hidden, actRelabel}, true},
		{PeekTimeoutDisable, evAwayFresh, transition{Hidden, actRelabel}, true},
		{PeekTimeoutDisable, evAwayExpired, transition{Hidden, actHide}, true},
		{Visible, evAwayExpired, transition{Hidden, actHide}, true},
		{Visible, evPeekEnter, transition{}, false},
	}
	for _, tt := range tests {
		got, ok := transitions[tt.from][tt.ev]
		if ok != tt.ok || got != tt.want {
			t.Fatalf("transitions[%v][%d] = %v, %v; want %v, %v", tt.from, tt.ev, got, ok, tt.want, tt.ok)
		}
	}
}
