package x11

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xprop"
)

const (
	StateAbove         = "_NET_WM_STATE_ABOVE"
	StateHidden        = "_NET_WM_STATE_HIDDEN"
	StateMaximizedVert = "_NET_WM_STATE_MAXIMIZED_VERT"
	StateMaximizedHorz = "_NET_WM_STATE_MAXIMIZED_HORZ"

	opacityAtom = "_NET_WM_WINDOW_OPACITY"
	opaque      = 0xFFFFFFFF
)

var shapeInit struct {
	once sync.Once
	err  error
}

// MoveResizeWindow moves and resizes a window to the specified geometry.
// It asks the window manager first and configures the window directly when
// that request cannot be sent.
func (c *Connection) MoveResizeWindow(windowID xproto.Window, x, y, width, height int) error {
	err := moveResizeWith(
		func() error { return ewmh.MoveresizeWindow(c.XUtil, windowID, x, y, width, height) },
		func() error {
			return xproto.ConfigureWindowChecked(c.XUtil.Conn(), windowID, configureMask,
				configureValues(x, y, width, height)).Check()
		},
	)
	if err != nil {
		return fmt.Errorf("failed to move window %d: %w", windowID, err)
	}
	return nil
}

const configureMask = xproto.ConfigWindowX | xproto.ConfigWindowY |
	xproto.ConfigWindowWidth | xproto.ConfigWindowHeight

func moveResizeWith(primary, fallback func() error) error {
	err := primary()
	if err == nil {
		return nil
	}
	if ferr := fallback(); ferr != nil {
		return errors.Join(err, ferr)
	}
	return nil
}

// configureValues encodes a geometry for ConfigureWindow. Positions are
// INT16 on the wire and sizes must be at least 1.
func configureValues(x, y, width, height int) []uint32 {
	return []uint32{
		uint32(int32(x)),
		uint32(int32(y)),
		uint32(max(width, 1)),
		uint32(max(height, 1)),
	}
}

// WindowGeometry returns the window position in root coordinates and its size.
func (c *Connection) WindowGeometry(windowID xproto.Window) (x, y, width, height int, err error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("failed to get geometry of window %d: %w", windowID, err)
	}

	translate, err := xproto.TranslateCoordinates(c.XUtil.Conn(), windowID, c.Root, 0, 0).Reply()
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("failed to translate coordinates of window %d: %w", windowID, err)
	}

	return int(translate.DstX), int(translate.DstY), int(geom.Width), int(geom.Height), nil
}

// WindowExists reports whether the server still knows the window.
func (c *Connection) WindowExists(windowID xproto.Window) bool {
	_, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	return err == nil
}

// IsNormalWindow checks if a window is a normal application window
func (c *Connection) IsNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		// If we can't determine type, assume it's normal
		return true
	}

	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_NORMAL" {
			return true
		}
		// Reject desktop, dock, splash, etc.
		if t == "_NET_WM_WINDOW_TYPE_DESKTOP" ||
			t == "_NET_WM_WINDOW_TYPE_DOCK" ||
			t == "_NET_WM_WINDOW_TYPE_SPLASH" ||
			t == "_NET_WM_WINDOW_TYPE_NOTIFICATION" {
			return false
		}
	}

	return len(types) == 0
}

// WindowTitle returns the EWMH title, falling back to WM_NAME.
func (c *Connection) WindowTitle(windowID xproto.Window) string {
	if title, err := ewmh.WmNameGet(c.XUtil, windowID); err == nil {
		if title = strings.TrimSpace(title); title != "" {
			return title
		}
	}
	if title, err := icccm.WmNameGet(c.XUtil, windowID); err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}

// HasState reports whether _NET_WM_STATE of a window contains state.
func (c *Connection) HasState(windowID xproto.Window, state string) (bool, error) {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		// Windows that never had a state set have no property at all.
		if c.WindowExists(windowID) {
			return false, nil
		}
		return false, err
	}
	for _, s := range states {
		if s == state {
			return true, nil
		}
	}
	return false, nil
}

// SetState asks the window manager to add or remove a _NET_WM_STATE atom.
func (c *Connection) SetState(windowID xproto.Window, state string, enabled bool) error {
	action := ewmh.StateRemove
	if enabled {
		action = ewmh.StateAdd
	}
	return ewmh.WmStateReq(c.XUtil, windowID, action, state)
}

// SetMaximized adds or removes both maximized states in one request.
func (c *Connection) SetMaximized(windowID xproto.Window, enabled bool) error {
	action := ewmh.StateRemove
	if enabled {
		action = ewmh.StateAdd
	}
	const sourceIndication = 2 // pager/direct action
	return ewmh.WmStateReqExtra(c.XUtil, windowID, action, StateMaximizedVert, StateMaximizedHorz, sourceIndication)
}

// IsMaximized reports whether the window is maximized in both directions.
func (c *Connection) IsMaximized(windowID xproto.Window) (bool, error) {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		if c.WindowExists(windowID) {
			return false, nil
		}
		return false, err
	}
	var vert, horz bool
	for _, s := range states {
		switch s {
		case StateMaximizedVert:
			vert = true
		case StateMaximizedHorz:
			horz = true
		}
	}
	return vert && horz, nil
}

// Iconify minimizes a window via WM_CHANGE_STATE.
func (c *Connection) Iconify(windowID xproto.Window) error {
	reply, err := xproto.InternAtom(c.XUtil.Conn(), false, uint16(len("WM_CHANGE_STATE")), "WM_CHANGE_STATE").Reply()
	if err != nil {
		return err
	}

	const iconicState = 3
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: windowID,
		Type:   reply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{iconicState, 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

// Activate maps (de-iconifies) and focuses a window through _NET_ACTIVE_WINDOW.
func (c *Connection) Activate(windowID xproto.Window) error {
	return ewmh.ActiveWindowReq(c.XUtil, windowID)
}

// Opacity returns _NET_WM_WINDOW_OPACITY scaled to [0, 1]. Windows without the
// property are fully opaque.
func (c *Connection) Opacity(windowID xproto.Window) (float64, error) {
	raw, err := xprop.PropValNum(xprop.GetProperty(c.XUtil, windowID, opacityAtom))
	if err != nil {
		if c.WindowExists(windowID) {
			return 1, nil
		}
		return 0, err
	}
	return float64(uint32(raw)) / opaque, nil
}

// SetOpacity writes _NET_WM_WINDOW_OPACITY. A compositor is needed for it to show.
func (c *Connection) SetOpacity(windowID xproto.Window, v float64) error {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return xprop.ChangeProp32(c.XUtil, windowID, opacityAtom, "CARDINAL", uint(v*opaque))
}

func (c *Connection) initShape() error {
	shapeInit.once.Do(func() {
		shapeInit.err = shape.Init(c.XUtil.Conn())
	})
	if shapeInit.err != nil {
		return fmt.Errorf("shape extension unavailable: %w", shapeInit.err)
	}
	return nil
}

// InputPassthrough reports whether the window's input region is empty, i.e.
// pointer events fall through to whatever is below it.
func (c *Connection) InputPassthrough(windowID xproto.Window) (bool, error) {
	if err := c.initShape(); err != nil {
		return false, err
	}
	reply, err := shape.GetRectangles(c.XUtil.Conn(), windowID, shape.SkInput).Reply()
	if err != nil {
		return false, fmt.Errorf("failed to read input shape of window %d: %w", windowID, err)
	}
	return len(reply.Rectangles) == 0, nil
}

// SetInputPassthrough empties the input region (enabled) or resets it to the
// default full-window region.
func (c *Connection) SetInputPassthrough(windowID xproto.Window, enabled bool) error {
	if err := c.initShape(); err != nil {
		return err
	}
	if enabled {
		return shape.RectanglesChecked(c.XUtil.Conn(), shape.SoSet, shape.SkInput,
			xproto.ClipOrderingUnsorted, windowID, 0, 0, nil).Check()
	}
	return shape.MaskChecked(c.XUtil.Conn(), shape.SoSet, shape.SkInput,
		windowID, 0, 0, xproto.PixmapNone).Check()
}

// ClientAtPoint returns the topmost visible client window containing the point.
func (c *Connection) ClientAtPoint(x, y int) (xproto.Window, error) {
	clients, err := ewmh.ClientListStackingGet(c.XUtil)
	if err != nil {
		clients, err = ewmh.ClientListGet(c.XUtil)
		if err != nil {
			return 0, fmt.Errorf("failed to get client list: %w", err)
		}
	}

	// Stacking order is bottom to top.
	for i := len(clients) - 1; i >= 0; i-- {
		win := clients[i]
		if hidden, _ := c.HasState(win, StateHidden); hidden {
			continue
		}
		if !c.onCurrentDesktop(win) {
			continue
		}
		wx, wy, ww, wh, err := c.WindowGeometry(win)
		if err != nil {
			continue
		}
		if x >= wx && x < wx+ww && y >= wy && y < wy+wh {
			return win, nil
		}
	}
	return 0, fmt.Errorf("no client window at %d,%d", x, y)
}
