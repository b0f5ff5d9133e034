package hotkeys

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/mousebind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/edgedock/internal/dock"
	"github.com/1broseidon/edgedock/internal/geom"
	"github.com/1broseidon/edgedock/internal/platform"
)

// Docks is the docking surface driven by hotkeys.
type Docks interface {
	DockUnderCursor(dir dock.Direction) (platform.WindowID, error)
	UndockUnderCursor(resetPosition bool) (platform.WindowID, bool, error)
}

// Dragger receives the press-drag-release gesture of the drag button.
type Dragger interface {
	Begin(win platform.Window, cursor geom.Point) bool
	Step(cursor geom.Point)
	End()
}

// x11Accessor is implemented by desktops backed by an X connection.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Bindings lists the key sequences to grab. Empty sequences are skipped.
type Bindings struct {
	DockUp    string
	DockDown  string
	DockLeft  string
	DockRight string
	Undock    string
	// DragButton enables grab-anywhere dragging when set, e.g. "Mod4-1".
	DragButton string
}

// Handler manages global keyboard shortcuts and the drag button.
type Handler struct {
	xu      *xgbutil.XUtil
	root    xproto.Window
	desktop platform.Desktop
	docks   Docks
	dragger Dragger
	logger  *slog.Logger
}

var ignoreModsOnce sync.Once

// NewHandler creates a hotkey handler for an X11-backed desktop.
func NewHandler(desktop platform.Desktop, docks Docks, dragger Dragger, logger *slog.Logger) (*Handler, error) {
	accessor, ok := desktop.(x11Accessor)
	if !ok {
		return nil, fmt.Errorf("hotkeys need an X11 desktop, got %T", desktop)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	xu := accessor.XUtil()

	ignoreModsOnce.Do(func() {
		configureIgnoreMods(xu)
	})

	return &Handler{
		xu:      xu,
		root:    accessor.RootWindow(),
		desktop: desktop,
		docks:   docks,
		dragger: dragger,
		logger:  logger,
	}, nil
}

// Register grabs every non-empty binding. It stops at the first failure.
func (h *Handler) Register(b Bindings) error {
	for _, d := range []struct {
		seq string
		dir dock.Direction
	}{
		{b.DockUp, dock.Up},
		{b.DockDown, dock.Down},
		{b.DockLeft, dock.Left},
		{b.DockRight, dock.Right},
	} {
		if strings.TrimSpace(d.seq) == "" {
			continue
		}
		if err := h.RegisterDock(d.seq, d.dir); err != nil {
			return err
		}
	}
	if strings.TrimSpace(b.Undock) != "" {
		if err := h.RegisterUndock(b.Undock); err != nil {
			return err
		}
	}
	if strings.TrimSpace(b.DragButton) != "" && h.dragger != nil {
		if err := h.RegisterDrag(b.DragButton); err != nil {
			return err
		}
	}
	return nil
}

// RegisterDock docks the window under the cursor to dir on keySequence.
func (h *Handler) RegisterDock(keySequence string, dir dock.Direction) error {
	err := h.RegisterFunc(keySequence, func() {
		id, err := h.docks.DockUnderCursor(dir)
		if err != nil {
			h.logger.Warn("dock hotkey failed", "direction", dir, "error", err)
			return
		}
		h.logger.Debug("dock hotkey", "window_id", id, "direction", dir)
	})
	if err != nil {
		return fmt.Errorf("failed to register dock %s hotkey %q: %w", dir, keySequence, err)
	}
	return nil
}

// RegisterUndock undocks the window under the cursor on keySequence.
func (h *Handler) RegisterUndock(keySequence string) error {
	err := h.RegisterFunc(keySequence, func() {
		id, found, err := h.docks.UndockUnderCursor(false)
		if err != nil {
			h.logger.Warn("undock hotkey failed", "error", err)
			return
		}
		h.logger.Debug("undock hotkey", "window_id", id, "found", found)
	})
	if err != nil {
		return fmt.Errorf("failed to register undock hotkey %q: %w", keySequence, err)
	}
	return nil
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

// RegisterDrag grabs button on the root window and feeds the gesture to the
// dragger. Presses on windows that cannot be dragged are released at once.
func (h *Handler) RegisterDrag(button string) error {
	if _, _, err := mousebind.ParseString(h.xu, button); err != nil {
		return fmt.Errorf("invalid drag button %q: %w", button, err)
	}

	begin := func(xu *xgbutil.XUtil, rootX, rootY, eventX, eventY int) (bool, xproto.Cursor) {
		win, err := h.desktop.WindowUnderCursor()
		if err != nil {
			h.logger.Debug("no window to drag", "error", err)
			return false, 0
		}
		return h.dragger.Begin(win, geom.Point{X: rootX, Y: rootY}), 0
	}
	step := func(xu *xgbutil.XUtil, rootX, rootY, eventX, eventY int) {
		h.dragger.Step(geom.Point{X: rootX, Y: rootY})
	}
	end := func(xu *xgbutil.XUtil, rootX, rootY, eventX, eventY int) {
		h.dragger.End()
	}

	mousebind.Drag(h.xu, h.root, h.root, button, true, begin, step, end)
	return nil
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
