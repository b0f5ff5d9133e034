package dock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/edgedock/internal/anim"
	"github.com/1broseidon/edgedock/internal/platform"
)

// DefaultInterval is how often the manager ticks its dockers.
const DefaultInterval = 50 * time.Millisecond

// ManagerConfig holds configuration for the manager.
type ManagerConfig struct {
	Interval time.Duration
	// Options are applied to dockers created by Dock and friends.
	Options Options
	Logger  *slog.Logger
}

// Info describes one docked window.
type Info struct {
	WindowID  platform.WindowID `json:"window_id"`
	Title     string            `json:"title"`
	Direction string            `json:"direction"`
	State     string            `json:"state"`
	Paused    bool              `json:"paused"`
}

// Manager owns the active dockers and ticks them on a fixed schedule. It is
// safe for concurrent use by the update loop, hotkeys and IPC.
type Manager struct {
	desktop  platform.Desktop
	registry *anim.Registry
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	opts    Options
	dockers []*Docker
}

// NewManager creates a manager docking windows of desktop.
func NewManager(desktop platform.Desktop, reg *anim.Registry, cfg ManagerConfig) *Manager {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	opts := cfg.Options
	if opts.Logger == nil {
		opts.Logger = logger
	}

	return &Manager{
		desktop:  desktop,
		registry: reg,
		interval: interval,
		logger:   logger,
		opts:     opts,
	}
}

// SetOptions replaces the options used for dockers created from now on.
func (m *Manager) SetOptions(opts Options) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if opts.Logger == nil {
		opts.Logger = m.logger
	}
	m.opts = opts
}

// Options returns the options used for new dockers.
func (m *Manager) Options() Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opts
}

// Add starts d and makes it the docker of its window. A previous docker of
// the same window is dropped without being undocked. If d fails to start it
// is undocked and the previous docker stays in place.
func (m *Manager) Add(d *Docker) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := d.Window().ID()
	if err := d.Start(); err != nil {
		if uerr := d.Undock(false); uerr != nil {
			m.logger.Debug("release after failed start", "window_id", id, "error", uerr)
		}
		return fmt.Errorf("start docker for window %d: %w", id, err)
	}

	kept := m.dockers[:0]
	for _, old := range m.dockers {
		if old.Window().ID() == id {
			m.logger.Debug("dropping previous docker", "window_id", id)
			continue
		}
		kept = append(kept, old)
	}
	m.dockers = append(kept, d)
	return nil
}

// Dock undocks any existing docker of win and docks it against dir.
func (m *Manager) Dock(win platform.Window, dir Direction) error {
	if !platform.IsValidTarget(win) {
		return fmt.Errorf("%w: window cannot be docked", ErrInvalidWindow)
	}
	m.UndockWindow(win.ID(), false)

	d, err := NewDocker(m.desktop, m.registry, win, dir, m.Options())
	if err != nil {
		return err
	}
	return m.Add(d)
}

// DockWindow docks the window with the given id.
func (m *Manager) DockWindow(id platform.WindowID, dir Direction) error {
	win, err := m.desktop.Window(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWindow, err)
	}
	return m.Dock(win, dir)
}

// DockUnderCursor docks the window below the cursor.
func (m *Manager) DockUnderCursor(dir Direction) (platform.WindowID, error) {
	win, err := m.desktop.WindowUnderCursor()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidWindow, err)
	}
	if err := m.Dock(win, dir); err != nil {
		return 0, err
	}
	return win.ID(), nil
}

// UndockUnderCursor undocks the window below the cursor.
func (m *Manager) UndockUnderCursor(resetPosition bool) (platform.WindowID, bool, error) {
	win, err := m.desktop.WindowUnderCursor()
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrInvalidWindow, err)
	}
	if !platform.IsValidTarget(win) {
		return 0, false, fmt.Errorf("%w: window cannot be undocked", ErrInvalidWindow)
	}
	return win.ID(), m.UndockWindow(win.ID(), resetPosition), nil
}

// UndockWindow removes and undocks every docker of the window. It reports
// whether one was found.
func (m *Manager) UndockWindow(id platform.WindowID, resetPosition bool) bool {
	m.mu.Lock()
	var matched []*Docker
	kept := m.dockers[:0]
	for _, d := range m.dockers {
		if d.Window().ID() == id {
			matched = append(matched, d)
			continue
		}
		kept = append(kept, d)
	}
	m.dockers = kept
	m.mu.Unlock()

	for _, d := range matched {
		if err := d.Undock(resetPosition); err != nil {
			m.logger.Warn("undock failed", "window_id", id, "error", err)
		}
	}
	return len(matched) > 0
}

// PauseDock pauses the dockers of the window. It reports whether one was found.
func (m *Manager) PauseDock(id platform.WindowID) bool {
	found := false
	for _, d := range m.find(id) {
		d.Pause()
		found = true
	}
	return found
}

// ResumeDock resumes the dockers of the window. It reports whether one was found.
func (m *Manager) ResumeDock(id platform.WindowID) bool {
	found := false
	for _, d := range m.find(id) {
		if err := d.Resume(); err != nil {
			m.logger.Warn("resume failed", "window_id", id, "error", err)
		}
		found = true
	}
	return found
}

func (m *Manager) find(id platform.WindowID) []*Docker {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Docker
	for _, d := range m.dockers {
		if d.Window().ID() == id {
			out = append(out, d)
		}
	}
	return out
}

// UndockAll undocks every window with position reset. Run on shutdown so no
// window is left on top or click-through.
func (m *Manager) UndockAll() int {
	m.mu.Lock()
	dockers := m.dockers
	m.dockers = nil
	m.mu.Unlock()

	for _, d := range dockers {
		if err := d.Undock(true); err != nil {
			m.logger.Warn("undock failed", "window_id", d.Window().ID(), "error", err)
		}
	}
	return len(dockers)
}

// Tick evicts undocked dockers and updates the others.
func (m *Manager) Tick() {
	m.mu.Lock()
	kept := m.dockers[:0]
	for _, d := range m.dockers {
		if d.IsUndocked() {
			m.logger.Debug("evicting undocked docker", "window_id", d.Window().ID())
			continue
		}
		kept = append(kept, d)
	}
	m.dockers = kept
	active := make([]*Docker, len(kept))
	copy(active, kept)
	m.mu.Unlock()

	for _, d := range active {
		m.update(d)
	}
}

func (m *Manager) update(d *Docker) {
	// One broken docker must not stop the others.
	defer func() {
		if err := recover(); err != nil {
			m.logger.Error("docker panic recovered", "window_id", d.Window().ID(), "error", err)
		}
	}()
	d.Update()
}

// Run ticks the dockers until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info("dock manager started", "interval", m.interval)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("dock manager stopped")
			return
		case <-ticker.C:
			m.Tick()
		}
	}
}

// List describes the active dockers in docking order.
func (m *Manager) List() []Info {
	m.mu.Lock()
	dockers := make([]*Docker, len(m.dockers))
	copy(dockers, m.dockers)
	m.mu.Unlock()

	out := make([]Info, 0, len(dockers))
	for _, d := range dockers {
		if d.IsUndocked() {
			continue
		}
		w := d.Window()
		out = append(out, Info{
			WindowID:  w.ID(),
			Title:     w.Title(),
			Direction: d.Direction().String(),
			State:     d.ShowState().String(),
			Paused:    d.IsPaused(),
		})
	}
	return out
}

// Len returns the number of tracked dockers, including undocked ones not yet
// evicted.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.dockers)
}
