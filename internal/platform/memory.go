package platform

import (
	"fmt"
	"sync"

	"github.com/1broseidon/edgedock/internal/geom"
)

// MemoryWindow is an in-memory Window used by tests and dry runs.
// All methods are safe for concurrent use.
type MemoryWindow struct {
	mu sync.Mutex

	id           WindowID
	title        string
	rect         geom.Rect
	opacity      float64
	clickThrough bool
	alwaysOnTop  bool
	minimized    bool
	maximized    bool
	exists       bool
	valid        bool
	fail         bool
	moves        []geom.Rect
}

var _ Window = (*MemoryWindow)(nil)

// NewMemoryWindow creates an existing, valid, opaque window at rect.
func NewMemoryWindow(id WindowID, title string, rect geom.Rect) *MemoryWindow {
	return &MemoryWindow{
		id:      id,
		title:   title,
		rect:    rect,
		opacity: 1,
		exists:  true,
		valid:   true,
	}
}

func (w *MemoryWindow) ID() WindowID  { return w.id }
func (w *MemoryWindow) Title() string { return w.title }

func (w *MemoryWindow) Exists() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.exists
}

func (w *MemoryWindow) Valid() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.exists && w.valid
}

// Destroy makes the window disappear: Exists and Valid report false afterwards.
func (w *MemoryWindow) Destroy() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.exists = false
}

// SetValid marks the window as a normal (true) or special (false) window.
func (w *MemoryWindow) SetValid(valid bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.valid = valid
}

// FailOperations makes every subsequent call return ErrWindowOp.
func (w *MemoryWindow) FailOperations(fail bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fail = fail
}

// Moves returns every rectangle passed to MoveResize, oldest first.
func (w *MemoryWindow) Moves() []geom.Rect {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]geom.Rect, len(w.moves))
	copy(out, w.moves)
	return out
}

// MoveCount returns how many times MoveResize succeeded.
func (w *MemoryWindow) MoveCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.moves)
}

func (w *MemoryWindow) check(op string) error {
	if w.fail || !w.exists {
		return fmt.Errorf("%w: %s on window %d", ErrWindowOp, op, w.id)
	}
	return nil
}

func (w *MemoryWindow) Rect() (geom.Rect, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.check("rect"); err != nil {
		return geom.Rect{}, err
	}
	return w.rect, nil
}

func (w *MemoryWindow) MoveResize(r geom.Rect) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.check("move"); err != nil {
		return err
	}
	w.rect = r
	w.moves = append(w.moves, r)
	return nil
}

func (w *MemoryWindow) Opacity() (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.check("opacity"); err != nil {
		return 0, err
	}
	return w.opacity, nil
}

func (w *MemoryWindow) SetOpacity(v float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.check("set opacity"); err != nil {
		return err
	}
	w.opacity = geom.Clamp01(v)
	return nil
}

func (w *MemoryWindow) ClickThrough() (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.check("click-through"); err != nil {
		return false, err
	}
	return w.clickThrough, nil
}

func (w *MemoryWindow) SetClickThrough(enabled bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.check("set click-through"); err != nil {
		return err
	}
	w.clickThrough = enabled
	return nil
}

func (w *MemoryWindow) AlwaysOnTop() (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.check("always-on-top"); err != nil {
		return false, err
	}
	return w.alwaysOnTop, nil
}

func (w *MemoryWindow) SetAlwaysOnTop(enabled bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.check("set always-on-top"); err != nil {
		return err
	}
	w.alwaysOnTop = enabled
	return nil
}

func (w *MemoryWindow) Minimized() (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.check("minimized"); err != nil {
		return false, err
	}
	return w.minimized, nil
}

func (w *MemoryWindow) Maximized() (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.check("maximized"); err != nil {
		return false, err
	}
	return w.maximized, nil
}

func (w *MemoryWindow) Minimize() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.check("minimize"); err != nil {
		return err
	}
	w.minimized = true
	return nil
}

func (w *MemoryWindow) Maximize() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.check("maximize"); err != nil {
		return err
	}
	w.maximized = true
	w.minimized = false
	return nil
}

func (w *MemoryWindow) Restore() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.check("restore"); err != nil {
		return err
	}
	w.maximized = false
	w.minimized = false
	return nil
}

// MemoryDesktop is an in-memory Desktop holding MemoryWindows and a movable cursor.
type MemoryDesktop struct {
	mu       sync.Mutex
	monitors []geom.Rect
	cursor   geom.Point
	windows  []*MemoryWindow
}

var _ Desktop = (*MemoryDesktop)(nil)

// NewMemoryDesktop creates a desktop with the given monitor layout, or a
// single 1920x1080 monitor when none is given.
func NewMemoryDesktop(monitors ...geom.Rect) *MemoryDesktop {
	if len(monitors) == 0 {
		monitors = []geom.Rect{{Width: 1920, Height: 1080}}
	}
	return &MemoryDesktop{monitors: monitors}
}

// AddWindow places w on top of the stacking order.
func (d *MemoryDesktop) AddWindow(w *MemoryWindow) *MemoryWindow {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.windows = append(d.windows, w)
	return w
}

// SetCursor moves the cursor.
func (d *MemoryDesktop) SetCursor(p geom.Point) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cursor = p
}

func (d *MemoryDesktop) Cursor() (geom.Point, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cursor, nil
}

func (d *MemoryDesktop) WindowUnderCursor() (Window, error) {
	d.mu.Lock()
	cursor := d.cursor
	windows := make([]*MemoryWindow, len(d.windows))
	copy(windows, d.windows)
	d.mu.Unlock()

	for i := len(windows) - 1; i >= 0; i-- {
		w := windows[i]
		if !w.Exists() {
			continue
		}
		r, err := w.Rect()
		if err != nil {
			continue
		}
		if r.Contains(cursor) {
			return w, nil
		}
	}
	return nil, fmt.Errorf("%w: no window under cursor at %d,%d", ErrWindowOp, cursor.X, cursor.Y)
}

func (d *MemoryDesktop) Window(id WindowID) (Window, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, w := range d.windows {
		if w.id == id {
			return w, nil
		}
	}
	return nil, fmt.Errorf("%w: window %d not found", ErrWindowOp, id)
}

func (d *MemoryDesktop) MonitorBounds(r geom.Rect) (geom.Rect, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return bestMonitor(d.monitors, r), nil
}

func (d *MemoryDesktop) VirtualScreen() (geom.Rect, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return unionRect(d.monitors), nil
}

// bestMonitor picks the monitor containing r's center, falling back to the one
// with the largest overlap and finally the first monitor.
func bestMonitor(monitors []geom.Rect, r geom.Rect) geom.Rect {
	if len(monitors) == 0 {
		return geom.Rect{}
	}
	center := r.Center()
	for _, m := range monitors {
		if m.Contains(center) {
			return m
		}
	}
	best, bestArea := monitors[0], 0
	for _, m := range monitors {
		if a := overlapArea(m, r); a > bestArea {
			best, bestArea = m, a
		}
	}
	return best
}

func overlapArea(a, b geom.Rect) int {
	x1 := max(a.Left(), b.Left())
	y1 := max(a.Top(), b.Top())
	x2 := min(a.Right(), b.Right())
	y2 := min(a.Bottom(), b.Bottom())
	if x2 <= x1 || y2 <= y1 {
		return 0
	}
	return (x2 - x1) * (y2 - y1)
}

func unionRect(rects []geom.Rect) geom.Rect {
	if len(rects) == 0 {
		return geom.Rect{}
	}
	x1, y1 := rects[0].Left(), rects[0].Top()
	x2, y2 := rects[0].Right(), rects[0].Bottom()
	for _, r := range rects[1:] {
		x1 = min(x1, r.Left())
		y1 = min(y1, r.Top())
		x2 = max(x2, r.Right())
		y2 = max(y2, r.Bottom())
	}
	return geom.Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}
