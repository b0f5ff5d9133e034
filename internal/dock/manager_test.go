package dock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/1broseidon/edgedock/internal/anim"
	"github.com/1broseidon/edgedock/internal/geom"
	"github.com/1broseidon/edgedock/internal/platform"
)

func newTestManager(desktop platform.Desktop, c *fakeClock) *Manager {
	return NewManager(desktop, anim.NewRegistry(nil), ManagerConfig{
		Interval: 5 * time.Millisecond,
		Options:  testOptions(c),
	})
}

func dockerOf(t *testing.T, m *Manager, id platform.WindowID) *Docker {
	t.Helper()
	found := m.find(id)
	if len(found) != 1 {
		t.Fatalf("found %d dockers for window %d, want 1", len(found), id)
	}
	return found[0]
}

func TestManagerDockReplacesExistingDocker(t *testing.T) {
	c := newFakeClock()
	desktop, win := newTestDesktop()
	m := newTestManager(desktop, c)

	if err := m.Dock(win, Up); err != nil {
		t.Fatalf("Dock up: %v", err)
	}
	first := dockerOf(t, m, win.ID())
	settle(t, first)

	if err := m.Dock(win, Left); err != nil {
		t.Fatalf("Dock left: %v", err)
	}
	if !first.IsUndocked() {
		t.Fatal("redocking did not undock the previous docker")
	}

	list := m.List()
	if len(list) != 1 || list[0].Direction != "left" || list[0].WindowID != win.ID() {
		t.Fatalf("List() = %+v", list)
	}
	if list[0].State != "visible" || list[0].Title != "term" {
		t.Fatalf("List() = %+v", list)
	}
}

func TestManagerAddDropsPreviousWithoutUndocking(t *testing.T) {
	c := newFakeClock()
	desktop, win := newTestDesktop()
	m := newTestManager(desktop, c)
	reg := anim.NewRegistry(nil)

	d1, err := NewDocker(desktop, reg, win, Up, testOptions(c))
	if err != nil {
		t.Fatalf("NewDocker: %v", err)
	}
	d2, err := NewDocker(desktop, reg, win, Down, testOptions(c))
	if err != nil {
		t.Fatalf("NewDocker: %v", err)
	}

	if err := m.Add(d1); err != nil {
		t.Fatalf("Add d1: %v", err)
	}
	settle(t, d1)
	if err := m.Add(d2); err != nil {
		t.Fatalf("Add d2: %v", err)
	}
	settle(t, d2)

	if m.Len() != 1 || dockerOf(t, m, win.ID()) != d2 {
		t.Fatal("second docker did not replace the first")
	}
	if d1.IsUndocked() {
		t.Fatal("Add undocked the dropped docker")
	}
}

func TestManagerAddKeepsPreviousWhenStartFails(t *testing.T) {
	c := newFakeClock()
	desktop, win := newTestDesktop()
	m := newTestManager(desktop, c)
	reg := anim.NewRegistry(nil)

	d1, err := NewDocker(desktop, reg, win, Up, testOptions(c))
	if err != nil {
		t.Fatalf("NewDocker: %v", err)
	}
	if err := m.Add(d1); err != nil {
		t.Fatalf("Add d1: %v", err)
	}
	settle(t, d1)

	d2, err := NewDocker(desktop, reg, win, Down, testOptions(c))
	if err != nil {
		t.Fatalf("NewDocker: %v", err)
	}
	win.FailOperations(true)
	err = m.Add(d2)
	win.FailOperations(false)
	if err == nil {
		t.Fatal("expected Add to fail when the window cannot be read")
	}

	if m.Len() != 1 || dockerOf(t, m, win.ID()) != d1 {
		t.Fatal("failed Add dropped the previous docker")
	}
	if !d2.IsUndocked() {
		t.Fatal("docker that failed to start was not released")
	}
}

func TestManagerTickEvictsUndocked(t *testing.T) {
	c := newFakeClock()
	desktop, win := newTestDesktop()
	m := newTestManager(desktop, c)
	if err := m.Dock(win, Up); err != nil {
		t.Fatalf("Dock: %v", err)
	}
	d := dockerOf(t, m, win.ID())
	settle(t, d)

	if err := d.Undock(true); err != nil {
		t.Fatalf("Undock: %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("Len() = %d before tick, want 1", m.Len())
	}
	m.Tick()
	if m.Len() != 0 {
		t.Fatalf("Len() = %d after tick, want 0", m.Len())
	}
}

func TestManagerTickDrivesDockers(t *testing.T) {
	c := newFakeClock()
	desktop, win := newTestDesktop()
	m := newTestManager(desktop, c)
	if err := m.Dock(win, Up); err != nil {
		t.Fatalf("Dock: %v", err)
	}
	d := dockerOf(t, m, win.ID())
	settle(t, d)

	desktop.SetCursor(geom.Point{X: 1500, Y: 900})
	c.Advance(time.Second)
	m.Tick()
	settle(t, d)
	if got := d.ShowState(); got != Hidden {
		t.Fatalf("state = %v, want hidden", got)
	}
}

func TestManagerUndockWindow(t *testing.T) {
	c := newFakeClock()
	desktop, win := newTestDesktop()
	m := newTestManager(desktop, c)

	if m.UndockWindow(win.ID(), true) {
		t.Fatal("UndockWindow found a docker that was never added")
	}
	if err := m.Dock(win, Right); err != nil {
		t.Fatalf("Dock: %v", err)
	}
	settle(t, dockerOf(t, m, win.ID()))

	if !m.UndockWindow(win.ID(), true) {
		t.Fatal("UndockWindow did not find the docker")
	}
	if m.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", m.Len())
	}
	if top, _ := win.AlwaysOnTop(); top {
		t.Fatal("undocked window still always-on-top")
	}
}

func TestManagerPauseAndResume(t *testing.T) {
	c := newFakeClock()
	desktop, win := newTestDesktop()
	m := newTestManager(desktop, c)

	if m.PauseDock(win.ID()) || m.ResumeDock(win.ID()) {
		t.Fatal("pause/resume reported a docker that does not exist")
	}
	if err := m.Dock(win, Up); err != nil {
		t.Fatalf("Dock: %v", err)
	}
	d := dockerOf(t, m, win.ID())
	settle(t, d)

	if !m.PauseDock(win.ID()) || !d.IsPaused() {
		t.Fatal("PauseDock did not pause the docker")
	}
	if list := m.List(); len(list) != 1 || !list[0].Paused {
		t.Fatalf("List() = %+v, want paused entry", list)
	}
	if !m.ResumeDock(win.ID()) || d.IsPaused() {
		t.Fatal("ResumeDock did not resume the docker")
	}
	settle(t, d)
}

func TestManagerUndockAll(t *testing.T) {
	c := newFakeClock()
	desktop := platform.NewMemoryDesktop()
	w1 := desktop.AddWindow(platform.NewMemoryWindow(1, "one", startRect))
	w2 := desktop.AddWindow(platform.NewMemoryWindow(2, "two", geom.Rect{X: 800, Y: 300, Width: 300, Height: 200}))
	m := newTestManager(desktop, c)

	if err := m.Dock(w1, Up); err != nil {
		t.Fatalf("Dock w1: %v", err)
	}
	if err := m.Dock(w2, Down); err != nil {
		t.Fatalf("Dock w2: %v", err)
	}
	settle(t, dockerOf(t, m, 1))
	settle(t, dockerOf(t, m, 2))

	if n := m.UndockAll(); n != 2 {
		t.Fatalf("UndockAll() = %d, want 2", n)
	}
	if m.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", m.Len())
	}
	for _, w := range []*platform.MemoryWindow{w1, w2} {
		if top, _ := w.AlwaysOnTop(); top {
			t.Fatalf("window %d left always-on-top", w.ID())
		}
		if ct, _ := w.ClickThrough(); ct {
			t.Fatalf("window %d left click-through", w.ID())
		}
	}
}

// panicDesktop panics whenever the cursor is queried.
type panicDesktop struct {
	*platform.MemoryDesktop
}

func (panicDesktop) Cursor() (geom.Point, error) {
	panic("cursor unavailable")
}

func TestManagerRecoversFromDockerPanic(t *testing.T) {
	c := newFakeClock()
	desktop := platform.NewMemoryDesktop()
	good := desktop.AddWindow(platform.NewMemoryWindow(1, "good", startRect))
	bad := desktop.AddWindow(platform.NewMemoryWindow(2, "bad", geom.Rect{X: 900, Y: 300, Width: 300, Height: 200}))
	m := newTestManager(desktop, c)
	reg := anim.NewRegistry(nil)

	broken, err := NewDocker(panicDesktop{desktop}, reg, bad, Down, testOptions(c))
	if err != nil {
		t.Fatalf("NewDocker: %v", err)
	}
	if err := m.Add(broken); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := m.Dock(good, Up); err != nil {
		t.Fatalf("Dock: %v", err)
	}
	d := dockerOf(t, m, good.ID())
	settle(t, d)
	settle(t, broken)

	desktop.SetCursor(geom.Point{X: 1700, Y: 500})
	c.Advance(time.Second)
	m.Tick()
	settle(t, d)

	if got := d.ShowState(); got != Hidden {
		t.Fatalf("healthy docker state = %v, want hidden", got)
	}
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}
}

func TestManagerDockUnderCursor(t *testing.T) {
	c := newFakeClock()
	desktop, win := newTestDesktop()
	m := newTestManager(desktop, c)

	desktop.SetCursor(geom.Point{X: 1800, Y: 1000})
	if _, err := m.DockUnderCursor(Up); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("empty spot: expected ErrInvalidWindow, got %v", err)
	}

	desktop.SetCursor(geom.Point{X: 150, Y: 250})
	id, err := m.DockUnderCursor(Left)
	if err != nil {
		t.Fatalf("DockUnderCursor: %v", err)
	}
	if id != win.ID() || m.Len() != 1 {
		t.Fatalf("docked window %d, len %d", id, m.Len())
	}
	d := dockerOf(t, m, id)
	settle(t, d)

	// The window now sits at the left edge; point at it again to undock.
	_, _, visible := d.Rects()
	desktop.SetCursor(visible.Center())
	uid, found, err := m.UndockUnderCursor(true)
	if err != nil || !found || uid != win.ID() {
		t.Fatalf("UndockUnderCursor() = %d, %v, %v", uid, found, err)
	}
}

func TestManagerDockRejectsDesktopWindows(t *testing.T) {
	c := newFakeClock()
	desktop, win := newTestDesktop()
	m := newTestManager(desktop, c)
	win.SetValid(false)

	desktop.SetCursor(geom.Point{X: 150, Y: 250})
	if _, err := m.DockUnderCursor(Up); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
	if _, _, err := m.UndockUnderCursor(false); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
	if err := m.DockWindow(99, Up); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("unknown id: expected ErrInvalidWindow, got %v", err)
	}
}

func TestManagerRunStopsOnCancel(t *testing.T) {
	desktop, _ := newTestDesktop()
	m := newTestManager(desktop, newFakeClock())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
