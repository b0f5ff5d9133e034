package platform

import (
	"errors"

	"github.com/1broseidon/edgedock/internal/geom"
)

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// ErrWindowOp is wrapped by every failed window-system call.
var ErrWindowOp = errors.New("window operation failed")

// Window is a handle to a top-level window.
type Window interface {
	ID() WindowID
	Title() string

	// Exists reports whether the window is still known to the window system.
	Exists() bool
	// Valid reports whether the window is a normal top-level application window.
	Valid() bool

	Rect() (geom.Rect, error)
	MoveResize(r geom.Rect) error

	// Opacity is in [0, 1].
	Opacity() (float64, error)
	SetOpacity(v float64) error

	ClickThrough() (bool, error)
	SetClickThrough(enabled bool) error

	AlwaysOnTop() (bool, error)
	SetAlwaysOnTop(enabled bool) error

	Minimized() (bool, error)
	Maximized() (bool, error)
	Minimize() error
	Maximize() error
	Restore() error
}

// Desktop abstracts the screen: cursor, monitors and window lookup.
type Desktop interface {
	Cursor() (geom.Point, error)
	WindowUnderCursor() (Window, error)
	Window(id WindowID) (Window, error)
	// MonitorBounds returns the bounds of the monitor that best contains r.
	MonitorBounds(r geom.Rect) (geom.Rect, error)
	// VirtualScreen returns the bounding rectangle of all monitors.
	VirtualScreen() (geom.Rect, error)
}

// IsValidTarget reports whether w can be docked or dragged.
func IsValidTarget(w Window) bool {
	return w != nil && w.Exists() && w.Valid()
}
