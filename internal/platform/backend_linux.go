//go:build linux

package platform

import (
	"fmt"

	"github.com/1broseidon/edgedock/internal/geom"
	"github.com/1broseidon/edgedock/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// LinuxDesktop wraps an X11 connection behind the Desktop interface.
type LinuxDesktop struct {
	conn *x11.Connection
}

var _ Desktop = (*LinuxDesktop)(nil)

// NewLinuxDesktop creates a desktop from an existing X11 connection.
func NewLinuxDesktop(conn *x11.Connection) *LinuxDesktop {
	return &LinuxDesktop{conn: conn}
}

// NewLinuxDesktopFromDisplay opens a fresh X11 connection.
func NewLinuxDesktopFromDisplay() (*LinuxDesktop, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxDesktop{conn: conn}, nil
}

// OpenDesktop connects to the X display named by $DISPLAY.
func OpenDesktop() (Desktop, error) {
	d, err := NewLinuxDesktopFromDisplay()
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Disconnect closes the underlying X11 connection.
func (d *LinuxDesktop) Disconnect() {
	if d != nil && d.conn != nil {
		d.conn.Close()
	}
}

// EventLoop starts the X11 event loop (blocking).
func (d *LinuxDesktop) EventLoop() {
	if d != nil && d.conn != nil {
		d.conn.EventLoop()
	}
}

// QuitEventLoop makes EventLoop return.
func (d *LinuxDesktop) QuitEventLoop() {
	if d != nil && d.conn != nil {
		d.conn.Quit()
	}
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (d *LinuxDesktop) XUtil() *xgbutil.XUtil {
	if d == nil || d.conn == nil {
		return nil
	}
	return d.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (d *LinuxDesktop) RootWindow() xproto.Window {
	if d == nil || d.conn == nil {
		return 0
	}
	return d.conn.Root
}

func (d *LinuxDesktop) connection() (*x11.Connection, error) {
	if d == nil || d.conn == nil {
		return nil, fmt.Errorf("%w: x11 connection is nil", ErrWindowOp)
	}
	return d.conn, nil
}

func (d *LinuxDesktop) Cursor() (geom.Point, error) {
	conn, err := d.connection()
	if err != nil {
		return geom.Point{}, err
	}
	x, y, err := conn.QueryPointer()
	if err != nil {
		return geom.Point{}, fmt.Errorf("%w: %v", ErrWindowOp, err)
	}
	return geom.Point{X: x, Y: y}, nil
}

func (d *LinuxDesktop) WindowUnderCursor() (Window, error) {
	conn, err := d.connection()
	if err != nil {
		return nil, err
	}
	x, y, err := conn.QueryPointer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWindowOp, err)
	}
	win, err := conn.ClientAtPoint(x, y)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWindowOp, err)
	}
	return &x11Window{conn: conn, id: win}, nil
}

func (d *LinuxDesktop) Window(id WindowID) (Window, error) {
	conn, err := d.connection()
	if err != nil {
		return nil, err
	}
	if !conn.WindowExists(xproto.Window(id)) {
		return nil, fmt.Errorf("%w: window %d does not exist", ErrWindowOp, id)
	}
	return &x11Window{conn: conn, id: xproto.Window(id)}, nil
}

func (d *LinuxDesktop) monitors() ([]geom.Rect, error) {
	conn, err := d.connection()
	if err != nil {
		return nil, err
	}
	monitors, err := conn.GetMonitors()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWindowOp, err)
	}
	rects := make([]geom.Rect, 0, len(monitors))
	for _, m := range monitors {
		rects = append(rects, geom.Rect{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height})
	}
	if len(rects) == 0 {
		// No RandR outputs (e.g. Xvfb): the root window is the only monitor.
		w, h, err := conn.RootGeometry()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrWindowOp, err)
		}
		rects = append(rects, geom.Rect{Width: w, Height: h})
	}
	return rects, nil
}

func (d *LinuxDesktop) MonitorBounds(r geom.Rect) (geom.Rect, error) {
	monitors, err := d.monitors()
	if err != nil {
		return geom.Rect{}, err
	}
	return bestMonitor(monitors, r), nil
}

func (d *LinuxDesktop) VirtualScreen() (geom.Rect, error) {
	monitors, err := d.monitors()
	if err != nil {
		return geom.Rect{}, err
	}
	return unionRect(monitors), nil
}

// x11Window is a Window backed by an X11 client window.
type x11Window struct {
	conn *x11.Connection
	id   xproto.Window
}

var _ Window = (*x11Window)(nil)

func wrapErr(op string, id xproto.Window, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s on window %d: %v", ErrWindowOp, op, id, err)
}

func (w *x11Window) ID() WindowID  { return WindowID(w.id) }
func (w *x11Window) Title() string { return w.conn.WindowTitle(w.id) }
func (w *x11Window) Exists() bool  { return w.conn.WindowExists(w.id) }

func (w *x11Window) Valid() bool {
	return w.id != 0 && w.id != w.conn.Root && w.conn.WindowExists(w.id) && w.conn.IsNormalWindow(w.id)
}

func (w *x11Window) Rect() (geom.Rect, error) {
	x, y, width, height, err := w.conn.WindowGeometry(w.id)
	if err != nil {
		return geom.Rect{}, wrapErr("rect", w.id, err)
	}
	return geom.Rect{X: x, Y: y, Width: width, Height: height}, nil
}

func (w *x11Window) MoveResize(r geom.Rect) error {
	return wrapErr("move", w.id, w.conn.MoveResizeWindow(w.id, r.X, r.Y, r.Width, r.Height))
}

func (w *x11Window) Opacity() (float64, error) {
	v, err := w.conn.Opacity(w.id)
	return v, wrapErr("opacity", w.id, err)
}

func (w *x11Window) SetOpacity(v float64) error {
	return wrapErr("set opacity", w.id, w.conn.SetOpacity(w.id, v))
}

func (w *x11Window) ClickThrough() (bool, error) {
	v, err := w.conn.InputPassthrough(w.id)
	return v, wrapErr("click-through", w.id, err)
}

func (w *x11Window) SetClickThrough(enabled bool) error {
	return wrapErr("set click-through", w.id, w.conn.SetInputPassthrough(w.id, enabled))
}

func (w *x11Window) AlwaysOnTop() (bool, error) {
	v, err := w.conn.HasState(w.id, x11.StateAbove)
	return v, wrapErr("always-on-top", w.id, err)
}

func (w *x11Window) SetAlwaysOnTop(enabled bool) error {
	return wrapErr("set always-on-top", w.id, w.conn.SetState(w.id, x11.StateAbove, enabled))
}

func (w *x11Window) Minimized() (bool, error) {
	v, err := w.conn.HasState(w.id, x11.StateHidden)
	return v, wrapErr("minimized", w.id, err)
}

func (w *x11Window) Maximized() (bool, error) {
	v, err := w.conn.IsMaximized(w.id)
	return v, wrapErr("maximized", w.id, err)
}

func (w *x11Window) Minimize() error {
	return wrapErr("minimize", w.id, w.conn.Iconify(w.id))
}

func (w *x11Window) Maximize() error {
	return wrapErr("maximize", w.id, w.conn.SetMaximized(w.id, true))
}

func (w *x11Window) Restore() error {
	if err := w.conn.SetMaximized(w.id, false); err != nil {
		return wrapErr("restore", w.id, err)
	}
	if hidden, _ := w.conn.HasState(w.id, x11.StateHidden); hidden {
		return wrapErr("restore", w.id, w.conn.Activate(w.id))
	}
	return nil
}
