package anim

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/edgedock/internal/platform"
)

// Registry tracks the active animation of every window. At most one animation
// is registered per window; registering another one stops the previous owner.
type Registry struct {
	mu     sync.Mutex
	active map[platform.WindowID]*Animation
	lastID uint64
	logger *slog.Logger
}

// NewRegistry creates an empty registry. A nil logger discards output.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		active: make(map[platform.WindowID]*Animation),
		logger: logger,
	}
}

// NextID returns a fresh animation id. Ids start at 1 and never repeat.
func (r *Registry) NextID() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastID++
	return r.lastID
}

// Add registers a as the active animation of win. If another animation owns
// win it is replaced and stopped. Re-adding the same animation is a no-op.
func (r *Registry) Add(win platform.WindowID, a *Animation) error {
	if a == nil || a.id == 0 {
		return fmt.Errorf("%w: animation id must be non-zero", ErrInvalidArgument)
	}

	r.mu.Lock()
	prev := r.active[win]
	r.active[win] = a
	r.mu.Unlock()

	if prev != nil && prev.id != a.id {
		r.logger.Debug("animation preempted", "window_id", win, "old", prev.id, "new", a.id)
		prev.Stop()
	}
	return nil
}

// Remove unregisters a from win if it is still the registered owner.
func (r *Registry) Remove(win platform.WindowID, a *Animation) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.active[win]; ok && a != nil && cur.id == a.id {
		delete(r.active, win)
		return true
	}
	return false
}

// Active returns the animation currently registered for win, or nil.
func (r *Registry) Active(win platform.WindowID) *Animation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active[win]
}

// Len returns the number of windows with an active animation.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
