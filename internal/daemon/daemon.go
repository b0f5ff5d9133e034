// Package daemon wires the docking engine to X11, the IPC socket, hotkeys
// and config reloads, and runs them until its context is cancelled.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/1broseidon/edgedock/internal/anim"
	"github.com/1broseidon/edgedock/internal/config"
	"github.com/1broseidon/edgedock/internal/dock"
	"github.com/1broseidon/edgedock/internal/drag"
	"github.com/1broseidon/edgedock/internal/hotkeys"
	"github.com/1broseidon/edgedock/internal/ipc"
	"github.com/1broseidon/edgedock/internal/platform"
)

// Options configures a daemon.
type Options struct {
	// ConfigPath defaults to config.DefaultConfigPath().
	ConfigPath string
	// SocketPath defaults to runtimepath.SocketPath().
	SocketPath string
	// Desktop defaults to the X display named by $DISPLAY.
	Desktop platform.Desktop
	// DisableHotkeys skips key and drag-button grabs.
	DisableHotkeys bool
	// DisableWatch skips watching the config files for changes.
	DisableWatch bool
	Logger       *slog.Logger
	// Level, when set, follows log_level across reloads.
	Level *slog.LevelVar
}

// eventLooper is implemented by desktops that dispatch X events.
type eventLooper interface {
	EventLoop()
	QuitEventLoop()
}

// Daemon owns the long-lived docking components.
type Daemon struct {
	opts       Options
	configPath string
	logger     *slog.Logger
	desktop    platform.Desktop
	ownDesktop bool

	registry *anim.Registry
	manager  *dock.Manager
	dragger  *drag.Dragger
	server   *ipc.Server

	mu    sync.Mutex
	cfg   *config.Config
	files []string
}

// New loads the configuration and builds the daemon components. Nothing
// runs until Run is called.
func New(opts Options) (*Daemon, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	path := opts.ConfigPath
	if path == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg := res.Config
	if opts.Level != nil {
		opts.Level.Set(cfg.SlogLevel())
	}

	dockOpts, err := dockOptions(cfg, logger)
	if err != nil {
		return nil, err
	}

	d := &Daemon{
		opts:       opts,
		configPath: path,
		logger:     logger,
		desktop:    opts.Desktop,
		cfg:        cfg,
		files:      res.Files,
	}
	if d.desktop == nil {
		desktop, err := platform.OpenDesktop()
		if err != nil {
			return nil, err
		}
		d.desktop = desktop
		d.ownDesktop = true
	}

	d.registry = anim.NewRegistry(logger)
	d.manager = dock.NewManager(d.desktop, d.registry, dock.ManagerConfig{
		Interval: cfg.UpdateInterval(),
		Options:  dockOpts,
		Logger:   logger,
	})
	d.dragger = drag.New(d.manager, dragConfig(cfg, logger))

	d.server, err = ipc.NewServer(ipc.ServerConfig{
		SocketPath: opts.SocketPath,
		Manager:    d.manager,
		Reload:     d.Reload,
		Logger:     logger,
	})
	if err != nil {
		d.close()
		return nil, err
	}
	return d, nil
}

// Run starts the daemon with opts and blocks until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	d, err := New(opts)
	if err != nil {
		return err
	}
	return d.Run(ctx)
}

// Manager exposes the dock manager.
func (d *Daemon) Manager() *dock.Manager {
	return d.manager
}

// Config returns the configuration currently in effect.
func (d *Daemon) Config() *config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// Run serves until ctx is cancelled or a component fails. On the way out
// every docked window is released so none stays pinned on top or
// click-through.
func (d *Daemon) Run(ctx context.Context) error {
	defer d.close()

	if err := d.server.Start(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	if !d.opts.DisableHotkeys {
		if err := d.registerHotkeys(); err != nil {
			d.server.Stop()
			return err
		}
	}

	g.Go(func() error {
		d.manager.Run(ctx)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		d.server.Stop()
		return nil
	})
	g.Go(func() error {
		return d.watch(ctx)
	})
	if looper, ok := d.desktop.(eventLooper); ok {
		// The loop only notices Quit on the next X event, so it is not
		// waited for; closing the connection ends it.
		loopDone := make(chan struct{})
		go func() {
			defer close(loopDone)
			looper.EventLoop()
		}()
		g.Go(func() error {
			select {
			case <-ctx.Done():
				looper.QuitEventLoop()
				return nil
			case <-loopDone:
				return errors.New("X event loop exited")
			}
		})
	}

	d.logger.Info("edgedock daemon started", "config", d.configPath, "socket", d.server.SocketPath())
	err := g.Wait()

	n := d.manager.UndockAll()
	d.dragger.Wait()
	d.logger.Info("edgedock daemon stopped", "undocked", n)
	return err
}

func (d *Daemon) registerHotkeys() error {
	h, err := hotkeys.NewHandler(d.desktop, d.manager, d.dragger, d.logger)
	if err != nil {
		return err
	}
	cfg := d.Config()
	b := hotkeys.Bindings{
		DockUp:    cfg.Hotkeys.DockUp,
		DockDown:  cfg.Hotkeys.DockDown,
		DockLeft:  cfg.Hotkeys.DockLeft,
		DockRight: cfg.Hotkeys.DockRight,
		Undock:    cfg.Hotkeys.Undock,
	}
	if cfg.Drag.Enabled {
		b.DragButton = cfg.Drag.Button
	}
	return h.Register(b)
}

func (d *Daemon) close() {
	if !d.ownDesktop {
		return
	}
	if c, ok := d.desktop.(interface{ Disconnect() }); ok {
		c.Disconnect()
	}
}

func dockOptions(cfg *config.Config, logger *slog.Logger) (dock.Options, error) {
	preset, err := cfg.AnimationPreset()
	if err != nil {
		return dock.Options{}, fmt.Errorf("animation: %w", err)
	}
	return dock.Options{
		Timeout:     cfg.HideTimeout(),
		PeekTimeout: cfg.PeekTimeout(),
		PeekSize:    cfg.PeekSize,
		PeekOpacity: cfg.PeekOpacity,
		Preset:      preset,
		Logger:      logger,
	}, nil
}

func dragConfig(cfg *config.Config, logger *slog.Logger) drag.Config {
	return drag.Config{
		Opacity:      cfg.Drag.Opacity,
		FadeDuration: cfg.DragFade(),
		Logger:       logger,
	}
}
