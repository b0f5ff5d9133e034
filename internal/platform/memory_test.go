package platform

import (
	"errors"
	"testing"

	"github.com/1broseidon/edgedock/internal/geom"
)

func TestMemoryDesktopMonitorBounds(t *testing.T) {
	left := geom.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}
	right := geom.Rect{X: 1920, Y: 0, Width: 2560, Height: 1440}
	d := NewMemoryDesktop(left, right)

	tests := []struct {
		name string
		in   geom.Rect
		want geom.Rect
	}{
		{"center on left", geom.Rect{X: 100, Y: 100, Width: 400, Height: 300}, left},
		{"center on right", geom.Rect{X: 2000, Y: 100, Width: 400, Height: 300}, right},
		{"straddling picks center", geom.Rect{X: 1800, Y: 100, Width: 400, Height: 300}, right},
		{"center in gap picks overlap", geom.Rect{X: 1700, Y: 1100, Width: 400, Height: 400}, right},
		{"no overlap picks first", geom.Rect{X: -900, Y: -900, Width: 100, Height: 100}, left},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.MonitorBounds(tt.in)
			if err != nil {
				t.Fatalf("MonitorBounds: %v", err)
			}
			if got != tt.want {
				t.Fatalf("MonitorBounds(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	screen, _ := d.VirtualScreen()
	if want := (geom.Rect{X: 0, Y: 0, Width: 4480, Height: 1440}); screen != want {
		t.Fatalf("VirtualScreen() = %v, want %v", screen, want)
	}
}

func TestMemoryDesktopWindowUnderCursorPrefersTopmost(t *testing.T) {
	d := NewMemoryDesktop()
	bottom := d.AddWindow(NewMemoryWindow(1, "bottom", geom.Rect{X: 0, Y: 0, Width: 500, Height: 500}))
	top := d.AddWindow(NewMemoryWindow(2, "top", geom.Rect{X: 100, Y: 100, Width: 100, Height: 100}))

	d.SetCursor(geom.Point{X: 150, Y: 150})
	got, err := d.WindowUnderCursor()
	if err != nil || got.ID() != top.ID() {
		t.Fatalf("WindowUnderCursor() = %v, %v; want top", got, err)
	}

	top.Destroy()
	got, err = d.WindowUnderCursor()
	if err != nil || got.ID() != bottom.ID() {
		t.Fatalf("WindowUnderCursor() after destroy = %v, %v; want bottom", got, err)
	}

	d.SetCursor(geom.Point{X: 1000, Y: 1000})
	if _, err := d.WindowUnderCursor(); !errors.Is(err, ErrWindowOp) {
		t.Fatalf("expected ErrWindowOp, got %v", err)
	}
}

func TestMemoryWindowFailuresWrapErrWindowOp(t *testing.T) {
	w := NewMemoryWindow(7, "w", geom.Rect{Width: 10, Height: 10})
	w.FailOperations(true)

	if err := w.MoveResize(geom.Rect{}); !errors.Is(err, ErrWindowOp) {
		t.Fatalf("MoveResize err = %v", err)
	}
	if _, err := w.Opacity(); !errors.Is(err, ErrWindowOp) {
		t.Fatalf("Opacity err = %v", err)
	}
	if w.MoveCount() != 0 {
		t.Fatalf("failed move was recorded")
	}
}

func TestIsValidTarget(t *testing.T) {
	w := NewMemoryWindow(1, "w", geom.Rect{Width: 10, Height: 10})
	if !IsValidTarget(w) {
		t.Fatal("fresh window should be valid")
	}
	w.SetValid(false)
	if IsValidTarget(w) {
		t.Fatal("desktop-like window should be invalid")
	}
	if IsValidTarget(nil) {
		t.Fatal("nil window should be invalid")
	}
}
