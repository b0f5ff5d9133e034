package dock

import (
	"errors"
	"fmt"

	"github.com/1broseidon/edgedock/internal/geom"
	"github.com/1broseidon/edgedock/internal/platform"
)

// WindowState is a snapshot of the attributes a docker or drag changes, taken
// before the window is touched so they can be put back afterwards.
type WindowState struct {
	Window platform.Window

	WasAlwaysOnTop  bool
	WasMinimized    bool
	WasMaximized    bool
	WasClickThrough bool
	PrevOpacity     float64
	// PrevRect is the zero Rect when position restore is suppressed.
	PrevRect geom.Rect
}

// CaptureState records the current attributes of w.
func CaptureState(w platform.Window) (*WindowState, error) {
	if w == nil {
		return nil, fmt.Errorf("%w: window is nil", ErrInvalidWindow)
	}
	s := &WindowState{Window: w}

	var errs []error
	var err error
	if s.WasAlwaysOnTop, err = w.AlwaysOnTop(); err != nil {
		errs = append(errs, err)
	}
	if s.WasMinimized, err = w.Minimized(); err != nil {
		errs = append(errs, err)
	}
	if s.WasMaximized, err = w.Maximized(); err != nil {
		errs = append(errs, err)
	}
	if s.WasClickThrough, err = w.ClickThrough(); err != nil {
		errs = append(errs, err)
	}
	if s.PrevOpacity, err = w.Opacity(); err != nil {
		errs = append(errs, err)
	}
	if s.PrevRect, err = w.Rect(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("capture state of window %d: %w", w.ID(), err)
	}
	return s, nil
}

// Restore puts back every captured attribute, position last.
func (s *WindowState) Restore() error {
	return errors.Join(s.RestoreState(), s.RestoreOpacity(), s.RestoreRect())
}

// RestoreState restores minimized/maximized, always-on-top and click-through.
func (s *WindowState) RestoreState() error {
	var errs []error
	w := s.Window

	if s.WasMinimized {
		if minimized, err := w.Minimized(); err == nil && !minimized {
			errs = append(errs, w.Minimize())
		}
	}
	if s.WasMaximized {
		if maximized, err := w.Maximized(); err == nil && !maximized {
			errs = append(errs, w.Maximize())
		}
	}
	if !s.WasMaximized && !s.WasMinimized {
		errs = append(errs, w.Restore())
	}
	errs = append(errs, w.SetAlwaysOnTop(s.WasAlwaysOnTop), s.RestoreClickThrough())
	return errors.Join(errs...)
}

func (s *WindowState) RestoreClickThrough() error {
	return s.Window.SetClickThrough(s.WasClickThrough)
}

func (s *WindowState) RestoreOpacity() error {
	return s.Window.SetOpacity(s.PrevOpacity)
}

// RestoreRect moves the window back to PrevRect unless it was cleared.
func (s *WindowState) RestoreRect() error {
	if s.PrevRect.IsZero() {
		return nil
	}
	return s.Window.MoveResize(s.PrevRect)
}

// ClearRect suppresses position restore.
func (s *WindowState) ClearRect() {
	s.PrevRect = geom.Rect{}
}
